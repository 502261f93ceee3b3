package domain

import "errors"

var (
	// ErrNotConnected push target has no live connection on this gateway
	ErrNotConnected = errors.New("user not connected")
	// ErrConnectionClosed connection already closed
	ErrConnectionClosed = errors.New("connection closed")
	// ErrSlowConsumer outbound buffer full, connection dropped
	ErrSlowConsumer = errors.New("outbound buffer full")
)
