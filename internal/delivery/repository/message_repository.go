package repository

import (
	"context"
	"errors"

	"chat_delivery_service/internal/delivery/domain"
	errprocess "chat_delivery_service/pkg/err"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// MessageRepository definition message persistence
type MessageRepository interface {
	// InsertSent insert with status SENT, idempotent on (conversation_id, client_message_id).
	// m gets id / status / timestamps; created is false when the row already existed.
	InsertSent(ctx context.Context, m *domain.Message) (created bool, err error)
	MarkDelivered(ctx context.Context, id int64) error
	MarkRead(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.Message, error)
	ListByConversation(ctx context.Context, conversationID int64, limit int) ([]domain.Message, error)
}

type messageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository create a MessageRepository
func NewMessageRepository(db *pgxpool.Pool) MessageRepository {
	return &messageRepository{db: db}
}

const messageColumns = `id, COALESCE(client_message_id, ''), conversation_id, sender, content, file_reference, kind, status, created_at, updated_at`

func scanMessage(row pgx.Row, m *domain.Message) error {
	return row.Scan(&m.ID, &m.ClientMessageID, &m.ConversationID, &m.Sender, &m.Content,
		&m.FileReference, &m.Kind, &m.Status, &m.CreatedAt, &m.UpdatedAt)
}

func (r *messageRepository) InsertSent(ctx context.Context, m *domain.Message) (bool, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO messages (client_message_id, conversation_id, sender, content, file_reference, kind, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'SENT')
		ON CONFLICT (conversation_id, client_message_id) DO NOTHING
		RETURNING id, status, created_at, updated_at`,
		nullable(m.ClientMessageID), m.ConversationID, m.Sender, m.Content, m.FileReference, string(m.Kind),
	).Scan(&m.ID, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, errprocess.Wrap(errprocess.KindTransient, err, "insert message")
	}

	// 重複投遞: 取回既有的那一筆
	err = r.db.QueryRow(ctx, `
		SELECT id, status, created_at, updated_at FROM messages
		WHERE conversation_id = $1 AND client_message_id = $2`,
		m.ConversationID, m.ClientMessageID,
	).Scan(&m.ID, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return false, errprocess.Wrap(errprocess.KindTransient, err, "load deduplicated message")
	}
	return false, nil
}

func (r *messageRepository) MarkDelivered(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE messages SET status = 'DELIVERED', updated_at = now() WHERE id = $1 AND status = 'SENT'`, id)
	return errprocess.Wrap(errprocess.KindTransient, err, "mark delivered")
}

func (r *messageRepository) MarkRead(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE messages SET status = 'READ', updated_at = now() WHERE id = $1 AND status <> 'READ'`, id)
	return errprocess.Wrap(errprocess.KindTransient, err, "mark read")
}

func (r *messageRepository) FindByID(ctx context.Context, id int64) (*domain.Message, error) {
	var m domain.Message
	err := scanMessage(r.db.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id), &m)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errprocess.Newf(errprocess.KindNotFound, "message %d not found", id)
		}
		return nil, errprocess.Wrap(errprocess.KindTransient, err, "find message")
	}
	return &m, nil
}

func (r *messageRepository) ListByConversation(ctx context.Context, conversationID int64, limit int) ([]domain.Message, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2`, conversationID, limit)
	if err != nil {
		return nil, errprocess.Wrap(errprocess.KindTransient, err, "list messages")
	}
	defer rows.Close()

	msgs := []domain.Message{}
	for rows.Next() {
		var m domain.Message
		if err := scanMessage(rows, &m); err != nil {
			return nil, errprocess.Wrap(errprocess.KindTransient, err, "scan message")
		}
		msgs = append(msgs, m)
	}
	return msgs, errprocess.Wrap(errprocess.KindTransient, rows.Err(), "list messages")
}
