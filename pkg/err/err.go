package errprocess

import (
	"errors"
	"fmt"

	"chat_delivery_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// Kind error category shared by gateway and worker
type Kind string

const (
	// KindAuth invalid or missing token
	KindAuth Kind = "auth"
	// KindNotFound message / conversation absent
	KindNotFound Kind = "not_found"
	// KindValidation missing or malformed field
	KindValidation Kind = "validation"
	// KindTransient log / storage / connection unreachable, retryable
	KindTransient Kind = "transient_infra"
	// KindPartialDelivery some recipient pushes failed
	KindPartialDelivery Kind = "partial_delivery"
	// KindInternal anything else
	KindInternal Kind = "internal"
)

// Error carries a Kind next to the wrapped cause
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New create a kinded error
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf create a kinded error with format
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attach kind to err, nil stays nil
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf return the outermost kind in the chain, KindInternal when none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is check err kind
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// IsRetryable transient errors are retryable, the rest are terminal
func IsRetryable(err error) bool {
	return Is(err, KindTransient)
}

// HTTPStatus map err to http status code
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindAuth:
		return fiber.StatusUnauthorized
	case KindNotFound:
		return fiber.StatusNotFound
	case KindValidation:
		return fiber.StatusBadRequest
	case KindTransient:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// Set set err info
func Set(errMsg string) error {
	logger.Log.Error(errMsg)
	return New(KindInternal, errMsg)
}
