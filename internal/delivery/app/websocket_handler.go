package app

import (
	"context"
	"time"

	"chat_delivery_service/pkg/logger"
	"chat_delivery_service/pkg/middlewares"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// GatewayWebsocketHandler live connection entry point
type GatewayWebsocketHandler struct {
	hub *Hub
}

// NewGatewayWebsocketHandler create GatewayWebsocketHandler
func NewGatewayWebsocketHandler(hub *Hub) *GatewayWebsocketHandler {
	return &GatewayWebsocketHandler{hub: hub}
}

// HandleConnection 是 WebSocket 連線的進入點, server push only
func (h *GatewayWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	username, ok := conn.Locals(middlewares.TokenUsername).(string)
	if !ok || username == "" {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthorized"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	// conn 在 handler 結束後會被 fiber 回收, 只保留底層連線
	c := NewConnection(username, conn.Conn)
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		c.WritePump()
	}()

	logger.Log.Info("websocket open", zap.String("user", username), zap.String("conn_id", c.ID()))
	h.hub.Register(ctx, username, c)

	defer func() {
		h.hub.Unregister(ctx, username, c)
		c.Close(websocket.CloseNormalClosure, "")
		<-pumpDone
		logger.Log.Info("websocket close", zap.String("user", username), zap.String("conn_id", c.ID()))
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
				CloseSessionReplaced,
			) {
				logger.Log.Debug("websocket read error", zap.String("user", username), zap.Error(err))
			}
			return
		}
		// inbound frames carry nothing, messages go through POST /v1/messages
	}
}
