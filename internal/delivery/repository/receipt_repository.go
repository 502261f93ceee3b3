package repository

import (
	"context"

	"chat_delivery_service/internal/delivery/domain"
	errprocess "chat_delivery_service/pkg/err"

	"github.com/jackc/pgx/v4/pgxpool"
)

// ReceiptRepository definition read receipts
type ReceiptRepository interface {
	// Insert return false when (message_id, reader) already exists
	Insert(ctx context.Context, r domain.ReadReceipt) (bool, error)
}

type receiptRepository struct {
	db *pgxpool.Pool
}

// NewReceiptRepository create a ReceiptRepository
func NewReceiptRepository(db *pgxpool.Pool) ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) Insert(ctx context.Context, rc domain.ReadReceipt) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO read_receipts (message_id, reader, read_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (message_id, reader) DO NOTHING`,
		rc.MessageID, rc.Reader, rc.ReadAt)
	if err != nil {
		return false, errprocess.Wrap(errprocess.KindTransient, err, "insert read receipt")
	}
	return tag.RowsAffected() == 1, nil
}
