package repository

import (
	"context"
	"sort"

	"chat_delivery_service/internal/delivery/domain"
	errprocess "chat_delivery_service/pkg/err"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// MailboxRepository definition offline mailbox
type MailboxRepository interface {
	Enqueue(ctx context.Context, entries []domain.PendingMailboxEntry) error
	// Drain claim every undelivered entry of recipient, oldest first.
	// Claiming is conditional on delivered = false so concurrent drains never share an entry.
	Drain(ctx context.Context, recipient string) ([]domain.PendingMailboxEntry, error)
}

type mailboxRepository struct {
	db *pgxpool.Pool
}

// NewMailboxRepository create a MailboxRepository
func NewMailboxRepository(db *pgxpool.Pool) MailboxRepository {
	return &mailboxRepository{db: db}
}

func (r *mailboxRepository) Enqueue(ctx context.Context, entries []domain.PendingMailboxEntry) error {
	if len(entries) == 0 {
		return nil
	}

	b := &pgx.Batch{}
	for _, e := range entries {
		b.Queue(`
			INSERT INTO pending_messages (recipient, sender, conversation_id, client_message_id, content)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (recipient, client_message_id) DO NOTHING`,
			e.Recipient, e.Sender, e.ConversationID, nullable(e.ClientMessageID), e.Content)
	}

	br := r.db.SendBatch(ctx, b)
	defer br.Close()
	for range entries {
		if _, err := br.Exec(); err != nil {
			return errprocess.Wrap(errprocess.KindTransient, err, "enqueue pending message")
		}
	}
	return nil
}

func (r *mailboxRepository) Drain(ctx context.Context, recipient string) ([]domain.PendingMailboxEntry, error) {
	rows, err := r.db.Query(ctx, `
		UPDATE pending_messages
		SET delivered = true, delivered_at = now()
		WHERE id IN (
			SELECT id FROM pending_messages
			WHERE recipient = $1 AND delivered = false
			ORDER BY created_at, id
			FOR UPDATE SKIP LOCKED
		) AND delivered = false
		RETURNING id, sender, conversation_id, COALESCE(client_message_id, ''), content, created_at, delivered_at`,
		recipient)
	if err != nil {
		return nil, errprocess.Wrap(errprocess.KindTransient, err, "drain pending messages")
	}
	defer rows.Close()

	entries := []domain.PendingMailboxEntry{}
	for rows.Next() {
		e := domain.PendingMailboxEntry{Recipient: recipient, Delivered: true}
		if err := rows.Scan(&e.ID, &e.Sender, &e.ConversationID, &e.ClientMessageID, &e.Content, &e.CreatedAt, &e.DeliveredAt); err != nil {
			return nil, errprocess.Wrap(errprocess.KindTransient, err, "scan pending message")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errprocess.Wrap(errprocess.KindTransient, err, "drain pending messages")
	}

	// RETURNING 不保證順序
	SortPending(entries)
	return entries, nil
}

// SortPending order by created_at then id
func SortPending(entries []domain.PendingMailboxEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}
