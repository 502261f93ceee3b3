package app

import (
	"context"
	"time"

	"chat_delivery_service/internal/delivery/domain"
	"chat_delivery_service/internal/delivery/repository"
	errprocess "chat_delivery_service/pkg/err"
	"chat_delivery_service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IngressUseCase accept a message and hand it to the durable log
type IngressUseCase struct {
	conversations repository.ConversationRepository
	presence      repository.PresenceRepository
	mailbox       repository.MailboxRepository
	producer      repository.MessageLogProducer
	now           func() time.Time
}

// NewIngressUseCase create IngressUseCase
func NewIngressUseCase(
	conversations repository.ConversationRepository,
	presence repository.PresenceRepository,
	mailbox repository.MailboxRepository,
	producer repository.MessageLogProducer,
) *IngressUseCase {
	return &IngressUseCase{
		conversations: conversations,
		presence:      presence,
		mailbox:       mailbox,
		producer:      producer,
		now:           time.Now,
	}
}

// Submit validate, park for offline recipients, append to the log.
// The returned message is not persisted yet, status stays SENT.
func (uc *IngressUseCase) Submit(ctx context.Context, req domain.SubmitMessage) (*domain.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	conv, err := uc.authorize(ctx, req.ConversationID, req.Sender)
	if err != nil {
		return nil, err
	}

	if req.ClientMessageID == "" {
		req.ClientMessageID = uuid.NewString()
	}

	now := uc.now().UTC()
	msg := domain.Message{
		ClientMessageID: req.ClientMessageID,
		ConversationID:  req.ConversationID,
		Sender:          req.Sender,
		Content:         req.Content,
		FileReference:   req.FileReference,
		Kind:            req.Kind,
		Status:          domain.StatusSent,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := uc.route(ctx, conv, msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SubmitPersisted route content that is already stored and DELIVERED
func (uc *IngressUseCase) SubmitPersisted(ctx context.Context, conv *domain.Conversation, msg domain.Message) error {
	if msg.ID == 0 || msg.Status != domain.StatusDelivered {
		return errprocess.Set("pre-persisted message must be stored and delivered")
	}
	return uc.route(ctx, conv, msg)
}

// authorize conversation exists and sender is a participant
func (uc *IngressUseCase) authorize(ctx context.Context, conversationID int64, sender string) (*domain.Conversation, error) {
	conv, err := uc.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(sender) {
		return nil, errprocess.New(errprocess.KindAuth, "sender is not a participant of the conversation")
	}
	return conv, nil
}

// route mailbox first, then the log, so a drain never misses a message the log already holds
func (uc *IngressUseCase) route(ctx context.Context, conv *domain.Conversation, msg domain.Message) error {
	offline, err := uc.offlineRecipients(ctx, conv.Recipients(msg.Sender))
	if err != nil {
		return err
	}

	if len(offline) > 0 {
		if err := uc.mailbox.Enqueue(ctx, domain.NewPendingEntries(msg, offline)); err != nil {
			return err
		}
	}

	if err := uc.producer.Append(ctx, domain.NewLogRecord(msg)); err != nil {
		logger.Log.Error("log append failed", zap.Int64("conversation_id", msg.ConversationID), zap.String("client_message_id", msg.ClientMessageID), zap.Error(err))
		return errprocess.Wrap(errprocess.KindTransient, err, "append to message log")
	}
	return nil
}

// offlineRecipients snapshot taken at ingress time, no record counts as offline
func (uc *IngressUseCase) offlineRecipients(ctx context.Context, recipients []string) ([]string, error) {
	if len(recipients) == 0 {
		return nil, nil
	}
	snapshot, err := uc.presence.FindMany(ctx, recipients)
	if err != nil {
		return nil, err
	}
	var offline []string
	for _, r := range recipients {
		if rec, ok := snapshot[r]; !ok || !rec.IsOnline {
			offline = append(offline, r)
		}
	}
	return offline, nil
}
