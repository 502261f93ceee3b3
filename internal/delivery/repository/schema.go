package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS messages (
		id                BIGSERIAL PRIMARY KEY,
		client_message_id TEXT,
		conversation_id   BIGINT NOT NULL,
		sender            TEXT NOT NULL,
		content           TEXT NOT NULL DEFAULT '',
		file_reference    TEXT NOT NULL DEFAULT '',
		kind              TEXT NOT NULL DEFAULT 'text',
		status            TEXT NOT NULL DEFAULT 'SENT',
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS messages_conversation_client_uidx ON messages (conversation_id, client_message_id)`,
	`CREATE INDEX IF NOT EXISTS messages_conversation_created_idx ON messages (conversation_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS pending_messages (
		id                BIGSERIAL PRIMARY KEY,
		recipient         TEXT NOT NULL,
		sender            TEXT NOT NULL,
		conversation_id   BIGINT NOT NULL,
		client_message_id TEXT,
		content           TEXT NOT NULL,
		delivered         BOOLEAN NOT NULL DEFAULT false,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		delivered_at      TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS pending_messages_recipient_client_uidx ON pending_messages (recipient, client_message_id)`,
	`CREATE INDEX IF NOT EXISTS pending_messages_undelivered_idx ON pending_messages (recipient, created_at) WHERE delivered = false`,

	`CREATE TABLE IF NOT EXISTS read_receipts (
		message_id BIGINT NOT NULL,
		reader     TEXT NOT NULL,
		read_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (message_id, reader)
	)`,

	`CREATE TABLE IF NOT EXISTS user_presence (
		username   TEXT PRIMARY KEY,
		is_online  BOOLEAN NOT NULL DEFAULT false,
		last_seen  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate create the pgx owned tables, conversations are migrated by gorm
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// nullable store "" as NULL so unique indexes ignore it
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
