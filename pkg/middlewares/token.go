package middlewares

import (
	t_token "chat_delivery_service/pkg/token"

	"github.com/gofiber/fiber/v2"
)

const (
	// QueryToken token in query name, used by the websocket handshake
	QueryToken = "token"

	// HeaderToken token in Authorization header
	HeaderToken = fiber.HeaderAuthorization

	// TokenUsername get username from token, set c.locals name
	TokenUsername = "username"
)

// JWTMiddleware validates JWT from Authorization header or ?token=
func JWTMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := t_token.FromHeader(c.Get(HeaderToken))

		// websocket client 無法帶 header, 改從 query 取
		if tokenStr == "" {
			tokenStr = c.Query(QueryToken)
		}

		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing token",
				"kind":  "auth",
			})
		}

		claims, err := t_token.ParseJWT(tokenStr)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
				"kind":  "auth",
			})
		}

		c.Locals(TokenUsername, claims.User())
		return c.Next()
	}
}

// Username read the identity set by JWTMiddleware
func Username(c *fiber.Ctx) (string, bool) {
	u, ok := c.Locals(TokenUsername).(string)
	return u, ok && u != ""
}
