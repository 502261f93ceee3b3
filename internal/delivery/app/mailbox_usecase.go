package app

import (
	"context"

	"chat_delivery_service/internal/delivery/domain"
	"chat_delivery_service/internal/delivery/repository"
	errprocess "chat_delivery_service/pkg/err"
	"chat_delivery_service/pkg/logger"

	"go.uber.org/zap"
)

// MailboxUseCase offline mailbox drain
type MailboxUseCase struct {
	mailbox repository.MailboxRepository
}

// NewMailboxUseCase create MailboxUseCase
func NewMailboxUseCase(mailbox repository.MailboxRepository) *MailboxUseCase {
	return &MailboxUseCase{mailbox: mailbox}
}

// Drain return and mark delivered every undelivered entry of recipient, oldest first.
// Concurrent drains never return the same entry twice.
func (uc *MailboxUseCase) Drain(ctx context.Context, recipient string) ([]domain.PendingMailboxEntry, error) {
	if recipient == "" {
		return nil, errprocess.New(errprocess.KindAuth, "recipient is required")
	}
	entries, err := uc.mailbox.Drain(ctx, recipient)
	if err != nil {
		return nil, err
	}
	logger.Log.Debug("mailbox drained", zap.String("recipient", recipient), zap.Int("count", len(entries)))
	if entries == nil {
		entries = []domain.PendingMailboxEntry{}
	}
	return entries, nil
}
