package app

import (
	"context"
	"errors"
	"fmt"

	"chat_delivery_service/internal/delivery/domain"
	errprocess "chat_delivery_service/pkg/err"
	"chat_delivery_service/pkg/logger"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

// defaultDedupSize recent pushes remembered per gateway
const defaultDedupSize = 10000

// Announcer worker -> gateway "message is durable" notification
type Announcer interface {
	AnnounceDelivered(ctx context.Context, ev domain.AnnounceEvent) error
}

// DeliveryAnnouncer gateway side of the announce, pushes through the hub.
// A retried announce does not push the same frame twice.
type DeliveryAnnouncer struct {
	hub  Pusher
	seen *lru.Cache
}

// NewDeliveryAnnouncer create DeliveryAnnouncer
func NewDeliveryAnnouncer(hub Pusher, dedupSize int) (*DeliveryAnnouncer, error) {
	if dedupSize <= 0 {
		dedupSize = defaultDedupSize
	}
	seen, err := lru.New(dedupSize)
	if err != nil {
		return nil, err
	}
	return &DeliveryAnnouncer{hub: hub, seen: seen}, nil
}

// AnnounceDelivered push message_status to the sender and new_message to the recipient.
// Offline users are skipped, the mailbox and history cover them.
func (a *DeliveryAnnouncer) AnnounceDelivered(ctx context.Context, ev domain.AnnounceEvent) error {
	msg := ev.Message
	if msg.ID == 0 {
		msg.ID = ev.MessageID
	}
	if msg.ID == 0 || msg.Sender == "" {
		return errprocess.New(errprocess.KindValidation, "announce needs message id and sender")
	}

	var failed []string

	statusKey := fmt.Sprintf("status:%d:%s", msg.ID, msg.Status)
	if ok := a.push(statusKey, msg.Sender, domain.MessageStatusEvent(msg)); !ok {
		failed = append(failed, msg.Sender)
	}

	if ev.Recipient != "" {
		key := fmt.Sprintf("new:%d:%s", msg.ID, ev.Recipient)
		if ok := a.push(key, ev.Recipient, domain.NewMessageEvent(msg)); !ok {
			failed = append(failed, ev.Recipient)
		}
	}

	if len(failed) > 0 {
		err := errprocess.Newf(errprocess.KindPartialDelivery, "push failed for %v", failed)
		logger.Log.Warn("partial delivery", zap.Int64("message_id", msg.ID), zap.Error(err))
	}
	return nil
}

// push return false only when a connected user could not be reached
func (a *DeliveryAnnouncer) push(key, user string, ev domain.Event) bool {
	if a.seen.Contains(key) {
		return true
	}
	err := a.hub.Push(user, ev)
	switch {
	case err == nil:
		a.seen.Add(key, struct{}{})
		return true
	case errors.Is(err, domain.ErrNotConnected):
		logger.Log.Debug("user not connected here", zap.String("user", user), zap.String("event", string(ev.Type)))
		return true
	default:
		return false
	}
}
