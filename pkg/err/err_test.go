package errprocess

import (
	"errors"
	"fmt"
	"testing"

	"chat_delivery_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := errors.New("connection refused")
	wrapped := fmt.Errorf("append record: %w", Wrap(KindTransient, base, "kafka write"))

	assert.Equal(t, KindTransient, KindOf(wrapped))
	assert.True(t, IsRetryable(wrapped))
	assert.ErrorIs(t, wrapped, base)
	assert.Equal(t, KindInternal, KindOf(base))
	assert.False(t, Is(nil, KindInternal))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(KindTransient, nil, "noop"))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindAuth:            fiber.StatusUnauthorized,
		KindNotFound:        fiber.StatusNotFound,
		KindValidation:      fiber.StatusBadRequest,
		KindTransient:       fiber.StatusServiceUnavailable,
		KindPartialDelivery: fiber.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, HTTPStatus(New(kind, "x")), kind)
	}
}

func TestSet(t *testing.T) {
	logger.SetNewNop()
	err := Set("boom")
	assert.EqualError(t, err, "boom")
	assert.Equal(t, KindInternal, KindOf(err))
}
