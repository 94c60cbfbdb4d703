package checkout

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies a checkout failure.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindUnsupportedStore
	KindMissingProviderConfig
	KindEmptyItems
	KindProviderNotConfigured
	KindProviderUnavailable
	KindProviderError
	KindInvalidProviderResponse
	KindRateLimited
)

var kindInfo = map[Kind]struct {
	code   string
	status int
}{
	KindValidation:              {"VALIDATION_ERROR", http.StatusBadRequest},
	KindNotFound:                {"NOT_FOUND", http.StatusNotFound},
	KindUnsupportedStore:        {"UNSUPPORTED_STORE", http.StatusForbidden},
	KindMissingProviderConfig:   {"MISSING_PROVIDER_CONFIG", http.StatusBadRequest},
	KindEmptyItems:              {"EMPTY_ITEMS", http.StatusBadRequest},
	KindProviderNotConfigured:   {"PROVIDER_NOT_CONFIGURED", http.StatusServiceUnavailable},
	KindProviderUnavailable:     {"PROVIDER_UNAVAILABLE", http.StatusServiceUnavailable},
	KindProviderError:           {"PROVIDER_ERROR", http.StatusBadGateway},
	KindInvalidProviderResponse: {"INVALID_PROVIDER_RESPONSE", http.StatusBadGateway},
	KindRateLimited:             {"RATE_LIMITED", http.StatusTooManyRequests},
}

// Code is the stable machine-readable code for the kind.
func (k Kind) Code() string {
	if info, ok := kindInfo[k]; ok {
		return info.code
	}
	return "INTERNAL_ERROR"
}

// Status is the HTTP status the kind maps to.
func (k Kind) Status() int {
	if info, ok := kindInfo[k]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Error is the typed failure returned by the checkout path.
type Error struct {
	Kind    Kind
	Message string
	// RetryAfter is set for KindRateLimited.
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind.Code(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Code(), e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Code is shorthand for e.Kind.Code().
func (e *Error) Code() string { return e.Kind.Code() }

// Status is shorthand for e.Kind.Status().
func (e *Error) Status() int { return e.Kind.Status() }

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsKind reports whether err is a checkout error of the given kind.
func IsKind(err error, k Kind) bool {
	ce, ok := AsError(err)
	return ok && ce.Kind == k
}

func newError(k Kind, msg string, err error) *Error {
	return &Error{Kind: k, Message: msg, Err: err}
}

// ErrValidation reports a malformed request.
func ErrValidation(msg string) *Error { return newError(KindValidation, msg, nil) }

// ErrStoreNotFound reports an unknown store id.
func ErrStoreNotFound() *Error { return newError(KindNotFound, "Store not found.", nil) }

// ErrRateLimited reports local backpressure with a retry hint.
func ErrRateLimited(retryAfter time.Duration) *Error {
	e := newError(KindRateLimited, "Too many checkout requests. Try again shortly.", nil)
	e.RetryAfter = retryAfter
	return e
}
