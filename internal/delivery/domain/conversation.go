package domain

import (
	"time"

	"chat_delivery_service/pkg"
	errprocess "chat_delivery_service/pkg/err"
)

// ConversationKind definition conversation type
type ConversationKind string

const (
	// ConversationPrivate 1對1
	ConversationPrivate ConversationKind = "private"
	// ConversationGroup 群組
	ConversationGroup ConversationKind = "group"
)

// Conversation participants are a set of usernames
type Conversation struct {
	ID           int64            `json:"id"`
	Kind         ConversationKind `json:"type"`
	Participants []string         `json:"participants"`
	CreatedAt    time.Time        `json:"created_at"`
}

// HasParticipant check membership
func (c *Conversation) HasParticipant(user string) bool {
	return pkg.Contains(c.Participants, user)
}

// Recipients every participant except sender
func (c *Conversation) Recipients(sender string) []string {
	out := make([]string, 0, len(c.Participants))
	for _, p := range c.Participants {
		if p != sender {
			out = append(out, p)
		}
	}
	return out
}

// CreateConversation request body
type CreateConversation struct {
	Kind         ConversationKind `json:"type"`
	Participants []string         `json:"participants"`
}

// Normalize dedupe participants and check kind rules
func (c *CreateConversation) Normalize() error {
	uniq := pkg.Dedupe(c.Participants)
	c.Participants = uniq

	switch c.Kind {
	case ConversationPrivate:
		if len(uniq) != 2 {
			return errprocess.New(errprocess.KindValidation, "private conversation needs exactly 2 participants")
		}
	case ConversationGroup:
		if len(uniq) < 2 {
			return errprocess.New(errprocess.KindValidation, "group conversation needs at least 2 participants")
		}
	default:
		return errprocess.Newf(errprocess.KindValidation, "unknown conversation type %q", c.Kind)
	}
	return nil
}
