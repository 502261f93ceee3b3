package app

import (
	"context"

	"chat_delivery_service/internal/delivery/domain"
	"chat_delivery_service/internal/delivery/repository"
	errprocess "chat_delivery_service/pkg/err"
	"chat_delivery_service/pkg/logger"

	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// ConversationUseCase conversation creation and history
type ConversationUseCase struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
}

// NewConversationUseCase create ConversationUseCase
func NewConversationUseCase(conversations repository.ConversationRepository, messages repository.MessageRepository) *ConversationUseCase {
	return &ConversationUseCase{conversations: conversations, messages: messages}
}

// Create requester always joins; an existing private pair is returned instead of a new one
func (uc *ConversationUseCase) Create(ctx context.Context, requester string, req domain.CreateConversation) (*domain.Conversation, bool, error) {
	if requester == "" {
		return nil, false, errprocess.New(errprocess.KindAuth, "requester is required")
	}
	req.Participants = append([]string{requester}, req.Participants...)
	if err := req.Normalize(); err != nil {
		return nil, false, err
	}

	conv, created, err := uc.conversations.Create(ctx, req)
	if err != nil {
		return nil, false, err
	}
	logger.Log.Info("conversation ready", zap.Int64("conversation_id", conv.ID), zap.Bool("created", created), zap.String("type", string(conv.Kind)))
	return conv, created, nil
}

// History messages of a conversation the requester belongs to
func (uc *ConversationUseCase) History(ctx context.Context, conversationID int64, requester string, limit int) ([]domain.Message, error) {
	if conversationID <= 0 {
		return nil, errprocess.New(errprocess.KindValidation, "conversation id is required")
	}
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}

	conv, err := uc.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(requester) {
		return nil, errprocess.New(errprocess.KindAuth, "not a participant of the conversation")
	}

	msgs, err := uc.messages.ListByConversation(ctx, conversationID, limit)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return msgs, nil
}
