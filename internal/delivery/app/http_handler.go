package app

import (
	"fmt"
	"strconv"
	"strings"

	"chat_delivery_service/internal/delivery/domain"
	errprocess "chat_delivery_service/pkg/err"
	"chat_delivery_service/pkg/logger"
	"chat_delivery_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// GatewayHTTPHandler REST surface of the gateway
type GatewayHTTPHandler struct {
	ingress       *IngressUseCase
	files         *FileUseCase
	conversations *ConversationUseCase
	mailbox       *MailboxUseCase
	receipts      *ReceiptUseCase
	presence      *PresenceUseCase
}

// NewGatewayHTTPHandler create GatewayHTTPHandler
func NewGatewayHTTPHandler(
	ingress *IngressUseCase,
	files *FileUseCase,
	conversations *ConversationUseCase,
	mailbox *MailboxUseCase,
	receipts *ReceiptUseCase,
	presence *PresenceUseCase,
) *GatewayHTTPHandler {
	return &GatewayHTTPHandler{
		ingress:       ingress,
		files:         files,
		conversations: conversations,
		mailbox:       mailbox,
		receipts:      receipts,
		presence:      presence,
	}
}

// ConnectCheck check gateway start
// @Summary Check gateway status
// @Tags Shared
// @Success 200 {string} string "gateway start!"
// @Router / [get]
func ConnectCheck(c *fiber.Ctx) error {
	return c.SendString("gateway start!")
}

// DebugLogFlag toggle debug log flag
// @Summary Toggle debug log
// @Tags Shared
// @Param status query bool true "Debug status"
// @Success 200 {string} string "debug mode updated"
// @Failure 400 {string} string "Invalid status value"
// @Router /debug [post]
func DebugLogFlag(c *fiber.Ctx) error {
	status, err := strconv.ParseBool(c.Query("status"))
	if err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	logger.Log.SetDebugMode(status)
	return c.SendString(fmt.Sprintf("debug mode is : %t", status))
}

// SubmitMessage queue a message for delivery
// @Summary Submit message
// @Tags Messages
// @Accept json
// @Produce json
// @Param request body domain.SubmitMessage true "message"
// @Success 202 {object} map[string]interface{} "queued"
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /v1/messages [post]
func (h *GatewayHTTPHandler) SubmitMessage(c *fiber.Ctx) error {
	var req domain.SubmitMessage
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, errprocess.Wrap(errprocess.KindValidation, err, "invalid request"))
	}
	req.Sender, _ = middlewares.Username(c)

	msg, err := h.ingress.Submit(c.UserContext(), req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "queued", "message": msg})
}

// CompleteUpload announce a file uploaded straight to object storage
// @Summary Complete file upload
// @Tags Files
// @Accept json
// @Produce json
// @Param request body domain.CompleteUpload true "uploaded object"
// @Success 201 {object} domain.Message
// @Failure 404 {object} map[string]interface{}
// @Router /v1/files/complete [post]
func (h *GatewayHTTPHandler) CompleteUpload(c *fiber.Ctx) error {
	var req domain.CompleteUpload
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, errprocess.Wrap(errprocess.KindValidation, err, "invalid request"))
	}
	req.Sender, _ = middlewares.Username(c)

	msg, err := h.files.CompleteUpload(c.UserContext(), req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// FileURL presigned download link
// @Summary File download url
// @Tags Files
// @Produce json
// @Param key query string true "object key"
// @Success 200 {object} map[string]interface{}
// @Router /v1/files/url [get]
func (h *GatewayHTTPHandler) FileURL(c *fiber.Ctx) error {
	url, err := h.files.DownloadURL(c.UserContext(), c.Query("key"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}

// CreateConversation private pairs are reused
// @Summary Create conversation
// @Tags Conversations
// @Accept json
// @Produce json
// @Param request body domain.CreateConversation true "conversation"
// @Success 201 {object} domain.Conversation
// @Success 200 {object} domain.Conversation "existing private conversation"
// @Router /v1/conversations [post]
func (h *GatewayHTTPHandler) CreateConversation(c *fiber.Ctx) error {
	var req domain.CreateConversation
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, errprocess.Wrap(errprocess.KindValidation, err, "invalid request"))
	}
	user, _ := middlewares.Username(c)

	conv, created, err := h.conversations.Create(c.UserContext(), user, req)
	if err != nil {
		return errorResponse(c, err)
	}
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(conv)
}

// History conversation messages
// @Summary Conversation history
// @Tags Conversations
// @Produce json
// @Param id path int true "conversation id"
// @Param limit query int false "max messages"
// @Success 200 {array} domain.Message
// @Router /v1/conversations/{id}/messages [get]
func (h *GatewayHTTPHandler) History(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return errorResponse(c, errprocess.Wrap(errprocess.KindValidation, err, "invalid conversation id"))
	}
	user, _ := middlewares.Username(c)

	msgs, err := h.conversations.History(c.UserContext(), int64(id), user, c.QueryInt("limit"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(msgs)
}

// PendingMessages drain the caller's offline mailbox
// @Summary Drain pending messages
// @Tags Messages
// @Produce json
// @Success 200 {array} domain.PendingMailboxEntry
// @Router /v1/pending-messages [get]
func (h *GatewayHTTPHandler) PendingMessages(c *fiber.Ctx) error {
	user, _ := middlewares.Username(c)
	entries, err := h.mailbox.Drain(c.UserContext(), user)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(entries)
}

// MarkRead read receipt
// @Summary Mark message read
// @Tags Messages
// @Produce json
// @Param id path int true "message id"
// @Success 200 {object} map[string]interface{}
// @Router /v1/messages/{id}/read [post]
func (h *GatewayHTTPHandler) MarkRead(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return errorResponse(c, errprocess.Wrap(errprocess.KindValidation, err, "invalid message id"))
	}
	user, _ := middlewares.Username(c)

	if err := h.receipts.MarkRead(c.UserContext(), int64(id), user); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// ReportPresence beacon, the token travels in the body
// @Summary Report presence
// @Tags Presence
// @Accept json
// @Produce json
// @Param request body domain.PresenceReport true "presence report"
// @Success 200 {object} map[string]interface{}
// @Router /v1/presence [post]
func (h *GatewayHTTPHandler) ReportPresence(c *fiber.Ctx) error {
	user, err := h.presence.Report(c.UserContext(), c.Body())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "username": user})
}

// PresenceSnapshot presence of a comma separated user list
// @Summary Presence lookup
// @Tags Presence
// @Produce json
// @Param users query string true "comma separated usernames"
// @Success 200 {array} domain.PresenceRecord
// @Router /v1/presence [get]
func (h *GatewayHTTPHandler) PresenceSnapshot(c *fiber.Ctx) error {
	var users []string
	for _, u := range strings.Split(c.Query("users"), ",") {
		if u = strings.TrimSpace(u); u != "" {
			users = append(users, u)
		}
	}
	records, err := h.presence.Snapshot(c.UserContext(), users)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(records)
}

// errorResponse {error, kind} with the status of the error kind
func errorResponse(c *fiber.Ctx, err error) error {
	kind := errprocess.KindOf(err)
	msg := err.Error()
	if kind == errprocess.KindInternal {
		logger.Log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		msg = "internal error"
	}

	body := fiber.Map{"error": msg, "kind": kind}
	if errprocess.IsRetryable(err) {
		body["retryable"] = true
	}
	return c.Status(errprocess.HTTPStatus(err)).JSON(body)
}
