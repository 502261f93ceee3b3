package app

import (
	"context"
	"testing"
	"time"

	"chat_delivery_service/internal/delivery/domain"
	errprocess "chat_delivery_service/pkg/err"
	"chat_delivery_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type ingressMocks struct {
	conversations *MockConversationRepository
	presence      *MockPresenceRepository
	mailbox       *MockMailboxRepository
	producer      *MockMessageLogProducer
}

func newIngress() (*IngressUseCase, ingressMocks) {
	logger.SetNewNop()
	m := ingressMocks{
		conversations: new(MockConversationRepository),
		presence:      new(MockPresenceRepository),
		mailbox:       new(MockMailboxRepository),
		producer:      new(MockMessageLogProducer),
	}
	uc := NewIngressUseCase(m.conversations, m.presence, m.mailbox, m.producer)
	uc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return uc, m
}

func TestIngressUseCase_Submit(t *testing.T) {
	ctx := context.Background()
	uc, m := newIngress()

	m.conversations.On("FindByID", ctx, int64(7)).Return(groupConversation(), nil)
	m.presence.On("FindMany", ctx, []string{"bob", "carol"}).Return(map[string]domain.PresenceRecord{
		"bob": {Username: "bob", IsOnline: true},
	}, nil)
	// carol 沒有 presence 紀錄, 視為離線
	m.mailbox.On("Enqueue", ctx, mock.MatchedBy(func(entries []domain.PendingMailboxEntry) bool {
		return len(entries) == 1 && entries[0].Recipient == "carol" && entries[0].Content == "hi" && entries[0].ClientMessageID != ""
	})).Return(nil).Once()
	m.producer.On("Append", ctx, mock.MatchedBy(func(rec domain.LogRecord) bool {
		return rec.ConversationID == 7 && rec.Sender == "alice" && rec.ID == 0 && rec.ClientMessageID != ""
	})).Return(nil).Once()

	msg, err := uc.Submit(ctx, domain.SubmitMessage{ConversationID: 7, Sender: "alice", Kind: domain.KindText, Content: "hi"})
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusSent, msg.Status)
	assert.Equal(t, domain.KindText, msg.Kind)
	assert.NotEmpty(t, msg.ClientMessageID)

	m.mailbox.AssertExpectations(t)
	m.producer.AssertExpectations(t)
}

func TestIngressUseCase_SubmitAllOnline(t *testing.T) {
	ctx := context.Background()
	uc, m := newIngress()

	m.conversations.On("FindByID", ctx, int64(7)).Return(&domain.Conversation{ID: 7, Participants: []string{"alice", "bob"}}, nil)
	m.presence.On("FindMany", ctx, []string{"bob"}).Return(map[string]domain.PresenceRecord{"bob": {Username: "bob", IsOnline: true}}, nil)
	m.producer.On("Append", ctx, mock.Anything).Return(nil).Once()

	msg, err := uc.Submit(ctx, domain.SubmitMessage{ConversationID: 7, Sender: "alice", Kind: domain.KindText, Content: "hi", ClientMessageID: "fixed"})
	assert.NoError(t, err)
	assert.Equal(t, "fixed", msg.ClientMessageID)
	m.mailbox.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestIngressUseCase_SubmitErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("validation", func(t *testing.T) {
		uc, _ := newIngress()
		_, err := uc.Submit(ctx, domain.SubmitMessage{ConversationID: 7, Sender: "alice", Kind: domain.KindText})
		assert.Equal(t, errprocess.KindValidation, errprocess.KindOf(err))
	})

	t.Run("unknown conversation", func(t *testing.T) {
		uc, m := newIngress()
		m.conversations.On("FindByID", ctx, int64(7)).Return(nil, errprocess.New(errprocess.KindNotFound, "conversation not found"))
		_, err := uc.Submit(ctx, domain.SubmitMessage{ConversationID: 7, Sender: "alice", Kind: domain.KindText, Content: "hi"})
		assert.Equal(t, errprocess.KindNotFound, errprocess.KindOf(err))
	})

	t.Run("sender not a participant", func(t *testing.T) {
		uc, m := newIngress()
		m.conversations.On("FindByID", ctx, int64(7)).Return(groupConversation(), nil)
		_, err := uc.Submit(ctx, domain.SubmitMessage{ConversationID: 7, Sender: "mallory", Kind: domain.KindText, Content: "hi"})
		assert.Equal(t, errprocess.KindAuth, errprocess.KindOf(err))
		m.producer.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("log unavailable", func(t *testing.T) {
		uc, m := newIngress()
		m.conversations.On("FindByID", ctx, int64(7)).Return(&domain.Conversation{ID: 7, Participants: []string{"alice", "bob"}}, nil)
		m.presence.On("FindMany", ctx, []string{"bob"}).Return(map[string]domain.PresenceRecord{}, nil)
		m.mailbox.On("Enqueue", ctx, mock.Anything).Return(nil)
		m.producer.On("Append", ctx, mock.Anything).Return(assert.AnError)

		_, err := uc.Submit(ctx, domain.SubmitMessage{ConversationID: 7, Sender: "alice", Kind: domain.KindText, Content: "hi"})
		assert.True(t, errprocess.IsRetryable(err))
	})

	t.Run("mailbox failure stops before the log", func(t *testing.T) {
		uc, m := newIngress()
		m.conversations.On("FindByID", ctx, int64(7)).Return(&domain.Conversation{ID: 7, Participants: []string{"alice", "bob"}}, nil)
		m.presence.On("FindMany", ctx, []string{"bob"}).Return(map[string]domain.PresenceRecord{}, nil)
		m.mailbox.On("Enqueue", ctx, mock.Anything).Return(errprocess.New(errprocess.KindTransient, "pg down"))

		_, err := uc.Submit(ctx, domain.SubmitMessage{ConversationID: 7, Sender: "alice", Kind: domain.KindText, Content: "hi"})
		assert.True(t, errprocess.IsRetryable(err))
		m.producer.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})
}

func TestIngressUseCase_SubmitPersistedRequiresDelivered(t *testing.T) {
	uc, _ := newIngress()
	err := uc.SubmitPersisted(context.Background(), groupConversation(), domain.Message{ID: 1, Status: domain.StatusSent})
	assert.Equal(t, errprocess.KindInternal, errprocess.KindOf(err))
}
