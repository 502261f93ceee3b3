package app

import (
	"context"
	"testing"
	"time"

	"chat_delivery_service/internal/delivery/domain"
	"chat_delivery_service/pkg/database"
	errprocess "chat_delivery_service/pkg/err"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestFileUseCase_CompleteUpload(t *testing.T) {
	ctx := context.Background()
	ingress, m := newIngress()
	objects := new(MockObjectStore)
	messages := new(MockMessageRepository)

	m.conversations.On("FindByID", ctx, int64(7)).Return(&domain.Conversation{ID: 7, Participants: []string{"alice", "bob"}}, nil)
	objects.On("StatObject", ctx, "uploads/cat.png").Return(database.ObjectInfo{Key: "uploads/cat.png", Size: 10}, nil)
	messages.On("InsertSent", ctx, mock.MatchedBy(func(msg *domain.Message) bool {
		return msg.Kind == domain.KindFile && msg.FileReference == "uploads/cat.png" && msg.Content == "cat.png"
	})).Run(persistAs(5, domain.StatusSent)).Return(true, nil).Once()
	messages.On("MarkDelivered", ctx, int64(5)).Return(nil).Once()
	m.presence.On("FindMany", ctx, []string{"bob"}).Return(map[string]domain.PresenceRecord{}, nil)
	m.mailbox.On("Enqueue", ctx, mock.MatchedBy(func(entries []domain.PendingMailboxEntry) bool {
		return len(entries) == 1 && entries[0].Content == "uploads/cat.png"
	})).Return(nil)
	m.producer.On("Append", ctx, mock.MatchedBy(func(rec domain.LogRecord) bool {
		return rec.PrePersisted() && rec.ID == 5
	})).Return(nil).Once()

	uc := NewFileUseCase(objects, messages, ingress, time.Minute)
	msg, err := uc.CompleteUpload(ctx, domain.CompleteUpload{ConversationID: 7, Sender: "alice", ObjectKey: "uploads/cat.png", FileName: "cat.png"})
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, msg.Status)
	assert.Equal(t, int64(5), msg.ID)

	messages.AssertExpectations(t)
	m.producer.AssertExpectations(t)
}

func TestFileUseCase_CompleteUploadMissingObject(t *testing.T) {
	ctx := context.Background()
	ingress, m := newIngress()
	objects := new(MockObjectStore)

	m.conversations.On("FindByID", ctx, int64(7)).Return(&domain.Conversation{ID: 7, Participants: []string{"alice", "bob"}}, nil)
	objects.On("StatObject", ctx, "uploads/none").Return(database.ObjectInfo{}, database.ErrObjectNotFound)

	uc := NewFileUseCase(objects, new(MockMessageRepository), ingress, 0)
	_, err := uc.CompleteUpload(ctx, domain.CompleteUpload{ConversationID: 7, Sender: "alice", ObjectKey: "uploads/none"})
	assert.Equal(t, errprocess.KindNotFound, errprocess.KindOf(err))
}

func TestFileUseCase_DownloadURL(t *testing.T) {
	ctx := context.Background()
	ingress, _ := newIngress()
	objects := new(MockObjectStore)
	objects.On("StatObject", ctx, "uploads/cat.png").Return(database.ObjectInfo{Key: "uploads/cat.png"}, nil)
	objects.On("PresignGetURL", ctx, "uploads/cat.png", time.Minute).Return("http://minio/signed", nil)

	uc := NewFileUseCase(objects, new(MockMessageRepository), ingress, time.Minute)
	url, err := uc.DownloadURL(ctx, "uploads/cat.png")
	assert.NoError(t, err)
	assert.Equal(t, "http://minio/signed", url)

	_, err = uc.DownloadURL(ctx, "")
	assert.Equal(t, errprocess.KindValidation, errprocess.KindOf(err))
}
