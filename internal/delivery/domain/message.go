package domain

import (
	"time"

	errprocess "chat_delivery_service/pkg/err"
)

// MessageKind text | file
type MessageKind string

const (
	// KindText plain text message
	KindText MessageKind = "text"
	// KindFile message pointing at an uploaded object
	KindFile MessageKind = "file"
)

// MessageStatus SENT -> DELIVERED -> READ, never backwards
type MessageStatus string

const (
	// StatusSent row inserted
	StatusSent MessageStatus = "SENT"
	// StatusDelivered durable and routed
	StatusDelivered MessageStatus = "DELIVERED"
	// StatusRead at least one receipt exists
	StatusRead MessageStatus = "READ"
)

var statusRank = map[MessageStatus]int{
	StatusSent:      1,
	StatusDelivered: 2,
	StatusRead:      3,
}

// Advances report whether moving from s to next keeps status monotonic
func (s MessageStatus) Advances(next MessageStatus) bool {
	return statusRank[next] > statusRank[s]
}

// Message 聊天訊息
type Message struct {
	ID              int64         `json:"id"`
	ClientMessageID string        `json:"client_message_id,omitempty"`
	ConversationID  int64         `json:"conversation_id"`
	Sender          string        `json:"sender_username"`
	Content         string        `json:"content,omitempty"`
	FileReference   string        `json:"file_reference,omitempty"`
	Kind            MessageKind   `json:"type"`
	Status          MessageStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// SubmitMessage ingress request, Sender comes from the token
type SubmitMessage struct {
	ConversationID  int64       `json:"conversation_id"`
	Sender          string      `json:"-"`
	Content         string      `json:"content"`
	FileReference   string      `json:"file_reference"`
	Kind            MessageKind `json:"type"`
	ClientMessageID string      `json:"client_message_id"`
}

// Validate required fields per kind
func (s *SubmitMessage) Validate() error {
	switch {
	case s.ConversationID <= 0:
		return errprocess.New(errprocess.KindValidation, "conversation_id is required")
	case s.Sender == "":
		return errprocess.New(errprocess.KindValidation, "sender is required")
	}

	switch s.Kind {
	case "":
		return errprocess.New(errprocess.KindValidation, "type is required")
	case KindText:
		if s.Content == "" {
			return errprocess.New(errprocess.KindValidation, "content is required for text messages")
		}
	case KindFile:
		if s.FileReference == "" {
			return errprocess.New(errprocess.KindValidation, "file_reference is required for file messages")
		}
	default:
		return errprocess.Newf(errprocess.KindValidation, "unknown message type %q", s.Kind)
	}
	return nil
}

// LogRecord envelope carried on the durable log.
// ID and Status are only set for content persisted before enqueue.
type LogRecord struct {
	ID              int64         `json:"id,omitempty"`
	Status          MessageStatus `json:"status,omitempty"`
	ClientMessageID string        `json:"client_message_id"`
	ConversationID  int64         `json:"conversation_id"`
	Sender          string        `json:"sender_username"`
	Content         string        `json:"content,omitempty"`
	FileReference   string        `json:"file_reference,omitempty"`
	Kind            MessageKind   `json:"type"`
	Timestamp       time.Time     `json:"timestamp"`
}

// PrePersisted record already stored and marked delivered
func (r LogRecord) PrePersisted() bool {
	return r.ID != 0 && r.Status == StatusDelivered
}

// Message convert the record into the message it describes
func (r LogRecord) Message() Message {
	status := r.Status
	if status == "" {
		status = StatusSent
	}
	return Message{
		ID:              r.ID,
		ClientMessageID: r.ClientMessageID,
		ConversationID:  r.ConversationID,
		Sender:          r.Sender,
		Content:         r.Content,
		FileReference:   r.FileReference,
		Kind:            r.Kind,
		Status:          status,
		CreatedAt:       r.Timestamp,
		UpdatedAt:       r.Timestamp,
	}
}

// NewLogRecord build the envelope for a message
func NewLogRecord(m Message) LogRecord {
	rec := LogRecord{
		ClientMessageID: m.ClientMessageID,
		ConversationID:  m.ConversationID,
		Sender:          m.Sender,
		Content:         m.Content,
		FileReference:   m.FileReference,
		Kind:            m.Kind,
		Timestamp:       m.CreatedAt,
	}
	if m.ID != 0 && m.Status == StatusDelivered {
		rec.ID = m.ID
		rec.Status = m.Status
	}
	return rec
}

// ReadReceipt unique per (message_id, reader)
type ReadReceipt struct {
	MessageID int64     `json:"message_id"`
	Reader    string    `json:"reader"`
	ReadAt    time.Time `json:"read_at"`
}
