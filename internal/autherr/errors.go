// Package autherr defines the typed error returned by every step of the
// login flow.
package autherr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the user-facing category of a failure.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNetwork    Kind = "network"
	KindAPI        Kind = "api"
	KindStorage    Kind = "storage"
	KindRedirect   Kind = "redirect"
	KindGeneral    Kind = "general"
)

// Retryable reports whether a failure of this kind may be retried by the user.
func (k Kind) Retryable() bool {
	return k != KindValidation
}

// Reason narrows a Kind down to the concrete cause so callers can branch on
// structure instead of message text.
type Reason string

const (
	ReasonEmptyInput    Reason = "empty_input"
	ReasonInvalidFormat Reason = "invalid_format"

	ReasonTimeout    Reason = "timeout"
	ReasonConnection Reason = "connection"

	ReasonHTTPStatus    Reason = "http_status"
	ReasonNoData        Reason = "no_data"
	ReasonMissingFields Reason = "missing_fields"

	ReasonInvalidData   Reason = "invalid_data"
	ReasonQuotaExceeded Reason = "quota_exceeded"
	ReasonUnavailable   Reason = "unavailable"
	ReasonIntegrity     Reason = "integrity"

	ReasonNavigation Reason = "navigation"

	ReasonUnexpected Reason = "unexpected"
)

// Error is the login flow error with structured metadata.
type Error struct {
	Kind      Kind
	Reason    Reason
	Message   string
	Status    int // HTTP status, set for api errors caused by a response code
	Retryable bool
	Cause     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Kind, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by kind, and by reason when
// the target names one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	return t.Reason == "" || e.Reason == t.Reason
}

// New creates an error of the given kind. Retryability follows the kind.
func New(kind Kind, reason Reason, message string) *Error {
	return &Error{
		Kind:      kind,
		Reason:    reason,
		Message:   message,
		Retryable: kind.Retryable(),
	}
}

// Wrap creates an error that wraps an underlying cause.
func Wrap(kind Kind, reason Reason, message string, cause error) *Error {
	e := New(kind, reason, message)
	e.Cause = cause
	return e
}

// Validation returns a non-retryable input error.
func Validation(reason Reason, message string) *Error {
	return New(KindValidation, reason, message)
}

// Network wraps a transport failure.
func Network(reason Reason, message string, cause error) *Error {
	return Wrap(KindNetwork, reason, message, cause)
}

// API returns an error for a bad response from the identity source.
func API(reason Reason, message string) *Error {
	return New(KindAPI, reason, message)
}

// APIStatus returns an api error carrying the response status code.
func APIStatus(status int) *Error {
	e := API(ReasonHTTPStatus, fmt.Sprintf("API request failed with status %d", status))
	e.Status = status
	return e
}

// Storage wraps a persistence failure.
func Storage(reason Reason, message string, cause error) *Error {
	return Wrap(KindStorage, reason, message, cause)
}

// Redirect wraps a navigation failure.
func Redirect(cause error) *Error {
	return Wrap(KindRedirect, ReasonNavigation, "failed to open the protected view", cause)
}

// General wraps anything that does not fit another kind.
func General(cause error) *Error {
	msg := "unexpected error"
	if cause != nil {
		msg = cause.Error()
	}
	return Wrap(KindGeneral, ReasonUnexpected, msg, cause)
}

// As returns err as an *Error, wrapping foreign errors as general ones.
// A nil err yields nil.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return General(err)
}

// HTTPStatus maps the error to a status code for the web surface.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNetwork:
		if e.Reason == ReasonTimeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case KindAPI:
		return http.StatusBadGateway
	case KindStorage:
		if e.Reason == ReasonQuotaExceeded {
			return http.StatusInsufficientStorage
		}
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
