package app

import (
	"context"
	"errors"
	"time"

	"chat_delivery_service/internal/delivery/domain"
	"chat_delivery_service/internal/delivery/repository"
	errprocess "chat_delivery_service/pkg/err"
	"chat_delivery_service/pkg/logger"

	"go.uber.org/zap"
)

// ReceiptUseCase read receipts
type ReceiptUseCase struct {
	messages      repository.MessageRepository
	conversations repository.ConversationRepository
	receipts      repository.ReceiptRepository
	pusher        Pusher
	now           func() time.Time
}

// NewReceiptUseCase create ReceiptUseCase
func NewReceiptUseCase(
	messages repository.MessageRepository,
	conversations repository.ConversationRepository,
	receipts repository.ReceiptRepository,
	pusher Pusher,
) *ReceiptUseCase {
	return &ReceiptUseCase{
		messages:      messages,
		conversations: conversations,
		receipts:      receipts,
		pusher:        pusher,
		now:           time.Now,
	}
}

// MarkRead record reader once; the first receipt moves the message to READ and tells the sender
func (uc *ReceiptUseCase) MarkRead(ctx context.Context, messageID int64, reader string) error {
	if messageID <= 0 {
		return errprocess.New(errprocess.KindValidation, "message id is required")
	}
	if reader == "" {
		return errprocess.New(errprocess.KindAuth, "reader is required")
	}

	msg, err := uc.messages.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	// 自己讀自己的訊息不算
	if msg.Sender == reader {
		return nil
	}

	conv, err := uc.conversations.FindByID(ctx, msg.ConversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(reader) {
		return errprocess.New(errprocess.KindAuth, "reader is not a participant of the conversation")
	}

	created, err := uc.receipts.Insert(ctx, domain.ReadReceipt{MessageID: messageID, Reader: reader, ReadAt: uc.now().UTC()})
	if err != nil {
		return err
	}
	// receipt 已存在但狀態沒跟上時補寫
	if !created && msg.Status == domain.StatusRead {
		return nil
	}

	if err := uc.messages.MarkRead(ctx, messageID); err != nil {
		return err
	}
	if !created {
		return nil
	}

	if err := uc.pusher.Push(msg.Sender, domain.MessageReadEvent(messageID, reader)); err != nil && !errors.Is(err, domain.ErrNotConnected) {
		logger.Log.Warn("read receipt push failed", zap.Int64("message_id", messageID), zap.String("sender", msg.Sender), zap.Error(err))
	}
	return nil
}
