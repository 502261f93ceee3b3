package app

import (
	"context"
	"time"

	"chat_delivery_service/internal/delivery/domain"
	"chat_delivery_service/internal/delivery/repository"
	errprocess "chat_delivery_service/pkg/err"
	"chat_delivery_service/pkg/logger"

	"go.uber.org/zap"
)

// defaultAnnounceTimeout bound on a single announce call
const defaultAnnounceTimeout = 3 * time.Second

// DeliveryWorker consume one log record: persist, mark delivered, announce
type DeliveryWorker struct {
	messages        repository.MessageRepository
	conversations   repository.ConversationRepository
	announcer       Announcer
	announceTimeout time.Duration
}

// NewDeliveryWorker create DeliveryWorker
func NewDeliveryWorker(
	messages repository.MessageRepository,
	conversations repository.ConversationRepository,
	announcer Announcer,
	announceTimeout time.Duration,
) *DeliveryWorker {
	if announceTimeout <= 0 {
		announceTimeout = defaultAnnounceTimeout
	}
	return &DeliveryWorker{
		messages:        messages,
		conversations:   conversations,
		announcer:       announcer,
		announceTimeout: announceTimeout,
	}
}

// Process handle one record. Transient errors are returned so the record is retried,
// announce failures are logged only.
func (w *DeliveryWorker) Process(ctx context.Context, rec domain.LogRecord) error {
	msg := rec.Message()

	if !rec.PrePersisted() {
		if msg.ConversationID <= 0 || msg.Sender == "" || msg.ClientMessageID == "" {
			return errprocess.New(errprocess.KindValidation, "record missing conversation, sender or client_message_id")
		}

		created, err := w.messages.InsertSent(ctx, &msg)
		if err != nil {
			return err
		}
		if !created {
			logger.Log.Info("record already persisted", zap.Int64("message_id", msg.ID), zap.String("client_message_id", msg.ClientMessageID))
		}

		// 重送時可能停在 SENT
		if msg.Status == domain.StatusSent {
			if err := w.messages.MarkDelivered(ctx, msg.ID); err != nil {
				return err
			}
			msg.Status = domain.StatusDelivered
			msg.UpdatedAt = time.Now()
		}
	}

	conv, err := w.conversations.FindByID(ctx, msg.ConversationID)
	if err != nil {
		return err
	}

	recipients := conv.Recipients(msg.Sender)
	if len(recipients) == 0 {
		recipients = []string{""}
	}

	for _, r := range recipients {
		w.announce(ctx, domain.AnnounceEvent{MessageID: msg.ID, Recipient: r, Message: msg})
	}
	return nil
}

func (w *DeliveryWorker) announce(ctx context.Context, ev domain.AnnounceEvent) {
	actx, cancel := context.WithTimeout(ctx, w.announceTimeout)
	defer cancel()

	if err := w.announcer.AnnounceDelivered(actx, ev); err != nil {
		logger.Log.Error("announce failed", zap.Int64("message_id", ev.MessageID), zap.String("recipient", ev.Recipient), zap.Error(err))
	}
}
