package domain

import (
	errprocess "chat_delivery_service/pkg/err"
)

// CompleteUpload client finished a direct upload to object storage
type CompleteUpload struct {
	ConversationID  int64  `json:"conversation_id"`
	Sender          string `json:"-"`
	ObjectKey       string `json:"key"`
	FileName        string `json:"file_name"`
	ClientMessageID string `json:"client_message_id"`
}

// Validate required fields
func (c *CompleteUpload) Validate() error {
	switch {
	case c.ConversationID <= 0:
		return errprocess.New(errprocess.KindValidation, "conversation_id is required")
	case c.Sender == "":
		return errprocess.New(errprocess.KindValidation, "sender is required")
	case c.ObjectKey == "":
		return errprocess.New(errprocess.KindValidation, "key is required")
	}
	return nil
}
