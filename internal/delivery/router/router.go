package router

import (
	"context"

	"chat_delivery_service/internal/delivery/app"
	"chat_delivery_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes 注册 gateway 路由
// @title Chat Delivery Gateway API
// @version 1.0
// @description Real-time delivery gateway: message ingress, mailbox, receipts and presence
// @host localhost:8080
// @BasePath /
func RegisterRoutes(r *fiber.App, ws *app.GatewayWebsocketHandler, h *app.GatewayHTTPHandler, debugRoute bool) {
	r.Get("/swagger/*", swagger.HandlerDefault)
	r.Get("/", app.ConnectCheck)

	// debug 開關只在 debug 設定下開放, 且要登入
	if debugRoute {
		r.Post("/debug", middlewares.JWTMiddleware(), app.DebugLogFlag)
	}

	// beacon 帶 token 在 body, 不走 JWT middleware
	r.Post("/v1/presence", h.ReportPresence)

	r.Get("/ws", middlewares.JWTMiddleware(), websocket.New(func(c *websocket.Conn) {
		ws.HandleConnection(context.Background(), c)
	}))

	v1 := r.Group("/v1", middlewares.JWTMiddleware())
	v1.Post("/messages", h.SubmitMessage)
	v1.Post("/messages/:id/read", h.MarkRead)
	v1.Get("/pending-messages", h.PendingMessages)
	v1.Post("/conversations", h.CreateConversation)
	v1.Get("/conversations/:id/messages", h.History)
	v1.Post("/files/complete", h.CompleteUpload)
	v1.Get("/files/url", h.FileURL)
	v1.Get("/presence", h.PresenceSnapshot)
}
