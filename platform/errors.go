package platform

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/cityzenmag/socialhub/model"
)

// Kind classifies an adapter error. Consumers branch on the kind, never on
// the concrete error text.
type Kind string

const (
	// KindAuth covers invalid, expired or missing credentials.
	KindAuth Kind = "auth"

	// KindRateLimit is the caller-visible window-exceeded failure.
	KindRateLimit Kind = "rate_limit"

	// KindNotImplemented marks an expected platform capability gap
	// (YouTube publish/delete).
	KindNotImplemented Kind = "not_implemented"

	// KindTransport covers network failures, malformed responses and
	// platform 5xx errors.
	KindTransport Kind = "transport"

	// KindValidation is a synchronous request validation failure raised
	// before any network call.
	KindValidation Kind = "validation"

	// KindNotFound maps platform 404 responses.
	KindNotFound Kind = "not_found"
)

// Error is the uniform error shape returned by every adapter.
type Error struct {
	Platform model.Platform
	Op       string
	Kind     Kind
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Platform, e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Platform, e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with the platform, operation and classification.
func NewError(p model.Platform, op string, kind Kind, err error) *Error {
	return &Error{Platform: p, Op: op, Kind: kind, Err: err}
}

// Errorf is NewError with a formatted message.
func Errorf(p model.Platform, op string, kind Kind, format string, args ...any) *Error {
	return &Error{Platform: p, Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the classification of err, or KindTransport when err was
// never classified by an adapter.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindTransport
}

// IsKind reports whether err carries classification k.
func IsKind(err error, k Kind) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == k
}

// ClassifyStatus maps an HTTP status code into the error taxonomy.
func ClassifyStatus(code int) Kind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindAuth
	case code == http.StatusTooManyRequests:
		return KindRateLimit
	case code == http.StatusNotFound:
		return KindNotFound
	default:
		return KindTransport
	}
}
