package domain

// EventType live connection frame type
type EventType string

const (
	// EventWelcome sent once on connect
	EventWelcome EventType = "welcome"
	// EventPresenceUpdate fan-out to every connected client
	EventPresenceUpdate EventType = "presence_update"
	// EventNewMessage to each connected recipient
	EventNewMessage EventType = "new_message"
	// EventMessageStatus to the sender once durable
	EventMessageStatus EventType = "message_status"
	// EventMessageRead to the sender once read
	EventMessageRead EventType = "message_read"
)

// Event server -> client frame
type Event struct {
	Type      EventType `json:"type"`
	User      string    `json:"user,omitempty"`
	Username  string    `json:"username,omitempty"`
	IsOnline  *bool     `json:"is_online,omitempty"`
	Message   *Message  `json:"message,omitempty"`
	MessageID int64     `json:"message_id,omitempty"`
	Reader    string    `json:"reader,omitempty"`
}

// WelcomeEvent build welcome frame
func WelcomeEvent(user string) Event {
	return Event{Type: EventWelcome, User: user}
}

// PresenceEvent build presence_update frame
func PresenceEvent(user string, online bool) Event {
	return Event{Type: EventPresenceUpdate, Username: user, IsOnline: &online}
}

// NewMessageEvent build new_message frame
func NewMessageEvent(m Message) Event {
	return Event{Type: EventNewMessage, Message: &m}
}

// MessageStatusEvent build message_status frame
func MessageStatusEvent(m Message) Event {
	return Event{Type: EventMessageStatus, Message: &m}
}

// MessageReadEvent build message_read frame
func MessageReadEvent(messageID int64, reader string) Event {
	return Event{Type: EventMessageRead, MessageID: messageID, Reader: reader}
}

// AnnounceEvent worker -> gateway: the message is durable, route it to Recipient.
// Recipient is empty when the conversation has nobody but the sender.
type AnnounceEvent struct {
	MessageID int64  `json:"message_id"`
	Recipient string `json:"recipient_username"`
	Message
}

// AnnounceResponse gateway reply
type AnnounceResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
