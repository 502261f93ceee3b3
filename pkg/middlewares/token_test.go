package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	t_token "chat_delivery_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Get("/me", JWTMiddleware(), func(c *fiber.Ctx) error {
		user, ok := Username(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(user)
	})
	return app
}

func TestJWTMiddleware(t *testing.T) {
	app := newApp()
	token, err := t_token.GenerateJWT("alice", "test")
	require.NoError(t, err)

	t.Run("header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(HeaderToken, "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("query", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me?token="+token, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("missing", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("invalid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(HeaderToken, "Bearer nope")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
