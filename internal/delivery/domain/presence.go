package domain

import (
	"encoding/json"
	"time"

	errprocess "chat_delivery_service/pkg/err"
)

// PresenceRecord one per user
type PresenceRecord struct {
	Username string    `json:"username"`
	IsOnline bool      `json:"is_online"`
	LastSeen time.Time `json:"last_seen"`
}

// PresenceReport beacon body from a client without a live socket
type PresenceReport struct {
	Token    string `json:"token"`
	IsOnline bool   `json:"is_online"`
}

// ParsePresenceReport decode the beacon body, is_online must be a JSON boolean
func ParsePresenceReport(body []byte) (PresenceReport, error) {
	var raw struct {
		Token    string          `json:"token"`
		IsOnline json.RawMessage `json:"is_online"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return PresenceReport{}, errprocess.Wrap(errprocess.KindValidation, err, "malformed presence report")
	}
	if raw.Token == "" {
		return PresenceReport{}, errprocess.New(errprocess.KindValidation, "token is required")
	}

	report := PresenceReport{Token: raw.Token}
	switch string(raw.IsOnline) {
	case "true":
		report.IsOnline = true
	case "false":
		report.IsOnline = false
	default:
		return PresenceReport{}, errprocess.New(errprocess.KindValidation, "is_online must be a boolean")
	}
	return report, nil
}
