package domain

import "time"

// PendingMailboxEntry message deferred for an offline recipient
type PendingMailboxEntry struct {
	ID              int64      `json:"id"`
	Recipient       string     `json:"-"`
	Sender          string     `json:"sender"`
	ConversationID  int64      `json:"conversation_id"`
	ClientMessageID string     `json:"client_message_id,omitempty"`
	Content         string     `json:"content"`
	Delivered       bool       `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
	DeliveredAt     *time.Time `json:"-"`
}

// NewPendingEntries one entry per offline recipient
func NewPendingEntries(m Message, offline []string) []PendingMailboxEntry {
	content := m.Content
	if m.Kind == KindFile {
		content = m.FileReference
	}
	out := make([]PendingMailboxEntry, 0, len(offline))
	for _, r := range offline {
		out = append(out, PendingMailboxEntry{
			Recipient:       r,
			Sender:          m.Sender,
			ConversationID:  m.ConversationID,
			ClientMessageID: m.ClientMessageID,
			Content:         content,
		})
	}
	return out
}
