package app

import (
	"encoding/json"
	"sync"
	"time"

	"chat_delivery_service/internal/delivery/domain"
	"chat_delivery_service/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// writeWait time allowed to write a frame
	writeWait = 10 * time.Second
	// pongWait time allowed to read the next pong
	pongWait = 60 * time.Second
	// pingPeriod must be less than pongWait
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize inbound frames are ignored, keep them small
	maxMessageSize = 4096
	// sendBufferSize outbound frames queued per connection
	sendBufferSize = 128
)

// Conn live connection as the hub sees it
type Conn interface {
	ID() string
	Send(ev domain.Event) error
	Close(code int, reason string)
}

// frameWriter write half of a websocket connection
type frameWriter interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Connection one websocket, frames go out through a single writer goroutine
type Connection struct {
	id   string
	user string
	ws   frameWriter
	send chan []byte
	done chan struct{}
	once sync.Once
}

// NewConnection create Connection, call WritePump before registering it
func NewConnection(user string, ws frameWriter) *Connection {
	return &Connection{
		id:   uuid.NewString(),
		user: user,
		ws:   ws,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
}

// ID unique per connection
func (c *Connection) ID() string {
	return c.id
}

// Done closed once the connection is closed
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Send queue ev without blocking, a full buffer drops the connection
func (c *Connection) Send(ev domain.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return domain.ErrConnectionClosed
	default:
	}

	select {
	case c.send <- b:
		return nil
	case <-c.done:
		return domain.ErrConnectionClosed
	default:
		logger.Log.Warn("slow consumer, closing connection", zap.String("user", c.user), zap.String("conn_id", c.id))
		c.Close(websocket.CloseTryAgainLater, "slow consumer")
		return domain.ErrSlowConsumer
	}
}

// Close send a close frame and close the socket, only the first call counts
func (c *Connection) Close(code int, reason string) {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		_ = c.ws.Close()
	})
}

// WritePump drain the send buffer and ping, returns once the connection is closed
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case b := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				logger.Log.Debug("websocket write failed", zap.String("user", c.user), zap.Error(err))
				c.Close(websocket.CloseInternalServerErr, "write failed")
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				logger.Log.Debug("websocket ping failed", zap.String("user", c.user), zap.Error(err))
				c.Close(websocket.CloseInternalServerErr, "write failed")
				return
			}
		case <-c.done:
			return
		}
	}
}
