package source

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured - у провайдера нет ключа или адреса, вызов не выполнялся
	ErrNotConfigured = errors.New("provider not configured")
	// ErrUnauthorized - провайдер отверг ключ (401/403)
	ErrUnauthorized = errors.New("provider rejected credentials")
	// ErrRateLimited - провайдер ограничил частоту (429), повтора нет
	ErrRateLimited = errors.New("provider rate limit exceeded")
	// ErrInvalidIdentifier - идентификатор не приводится к каноническому виду
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrUpstream - сеть, таймаут, 5xx или открытый circuit breaker
	ErrUpstream = errors.New("provider request failed")
	// ErrFallbackAttempted - маркер: основной и резервный провайдеры оба упали
	ErrFallbackAttempted = errors.New("fallback attempted")
)

// FallbackError возвращается роутером, когда пробовали оба провайдера.
// Unwrap отдаёт ошибку основного провайдера как более ценного источника.
type FallbackError struct {
	Router    string
	Primary   error
	Secondary error
}

func (e *FallbackError) Error() string {
	return fmt.Sprintf("%s: all providers failed (primary: %v; secondary: %v)", e.Router, e.Primary, e.Secondary)
}

func (e *FallbackError) Unwrap() error {
	if e.Primary != nil {
		return e.Primary
	}
	return e.Secondary
}

func (e *FallbackError) Is(target error) bool {
	return target == ErrFallbackAttempted
}

type ErrorKind string

const (
	KindConfiguration ErrorKind = "configuration"
	KindAuth          ErrorKind = "auth"
	KindRateLimit     ErrorKind = "rate_limit"
	KindValidation    ErrorKind = "validation"
	KindUpstream      ErrorKind = "upstream"
	KindInternal      ErrorKind = "internal"
)

// Classify сводит ошибку стадии к виду из таксономии
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidIdentifier):
		return KindValidation
	case errors.Is(err, ErrNotConfigured):
		return KindConfiguration
	case errors.Is(err, ErrUnauthorized):
		return KindAuth
	case errors.Is(err, ErrRateLimited):
		return KindRateLimit
	case errors.Is(err, ErrUpstream),
		errors.Is(err, context.DeadlineExceeded):
		return KindUpstream
	default:
		return KindInternal
	}
}
