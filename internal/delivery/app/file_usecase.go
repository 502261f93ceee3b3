package app

import (
	"context"
	"errors"
	"time"

	"chat_delivery_service/internal/delivery/domain"
	"chat_delivery_service/internal/delivery/repository"
	"chat_delivery_service/pkg/database"
	errprocess "chat_delivery_service/pkg/err"

	"github.com/google/uuid"
)

// defaultPresignExpiry download link lifetime
const defaultPresignExpiry = 15 * time.Minute

// FileUseCase file messages backed by object storage
type FileUseCase struct {
	objects       database.MinIOClientRepo
	messages      repository.MessageRepository
	ingress       *IngressUseCase
	presignExpiry time.Duration
}

// NewFileUseCase create FileUseCase
func NewFileUseCase(
	objects database.MinIOClientRepo,
	messages repository.MessageRepository,
	ingress *IngressUseCase,
	presignExpiry time.Duration,
) *FileUseCase {
	if presignExpiry <= 0 {
		presignExpiry = defaultPresignExpiry
	}
	return &FileUseCase{
		objects:       objects,
		messages:      messages,
		ingress:       ingress,
		presignExpiry: presignExpiry,
	}
}

// CompleteUpload persist the file message as DELIVERED, then route it through the log
func (uc *FileUseCase) CompleteUpload(ctx context.Context, req domain.CompleteUpload) (*domain.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	conv, err := uc.ingress.authorize(ctx, req.ConversationID, req.Sender)
	if err != nil {
		return nil, err
	}

	info, err := uc.objects.StatObject(ctx, req.ObjectKey)
	if err != nil {
		if errors.Is(err, database.ErrObjectNotFound) {
			return nil, errprocess.Wrap(errprocess.KindNotFound, err, "uploaded object")
		}
		return nil, errprocess.Wrap(errprocess.KindTransient, err, "stat uploaded object")
	}

	if req.ClientMessageID == "" {
		req.ClientMessageID = uuid.NewString()
	}
	content := req.FileName
	if content == "" {
		content = info.Key
	}

	msg := domain.Message{
		ClientMessageID: req.ClientMessageID,
		ConversationID:  req.ConversationID,
		Sender:          req.Sender,
		Content:         content,
		FileReference:   info.Key,
		Kind:            domain.KindFile,
		Status:          domain.StatusSent,
	}
	if _, err := uc.messages.InsertSent(ctx, &msg); err != nil {
		return nil, err
	}
	if msg.Status == domain.StatusSent {
		if err := uc.messages.MarkDelivered(ctx, msg.ID); err != nil {
			return nil, err
		}
		msg.Status = domain.StatusDelivered
	}

	if err := uc.ingress.SubmitPersisted(ctx, conv, msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DownloadURL presigned GET for an object key
func (uc *FileUseCase) DownloadURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", errprocess.New(errprocess.KindValidation, "key is required")
	}
	if _, err := uc.objects.StatObject(ctx, key); err != nil {
		if errors.Is(err, database.ErrObjectNotFound) {
			return "", errprocess.Wrap(errprocess.KindNotFound, err, "object")
		}
		return "", errprocess.Wrap(errprocess.KindTransient, err, "stat object")
	}
	url, err := uc.objects.PresignGetURL(ctx, key, uc.presignExpiry)
	if err != nil {
		return "", errprocess.Wrap(errprocess.KindTransient, err, "presign object")
	}
	return url, nil
}
