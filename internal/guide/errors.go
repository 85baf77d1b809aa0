package guide

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the client can return.
type ErrorKind string

const (
	KindTimeout         ErrorKind = "TIMEOUT"
	KindNetwork         ErrorKind = "NETWORK"
	KindClientError     ErrorKind = "CLIENT_ERROR"
	KindServerError     ErrorKind = "SERVER_ERROR"
	KindInvalidResponse ErrorKind = "INVALID_RESPONSE"
	KindCancelled       ErrorKind = "CANCELLED"
)

// Error is the normalized failure type. Every error returned by Executor,
// Retrier and Client is an *Error.
type Error struct {
	Kind    ErrorKind
	Message string
	Status  int // HTTP status when one was received, else 0
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Status > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Transient reports whether the failure is worth retrying automatically.
func (e *Error) Transient() bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case KindNetwork, KindTimeout:
		return true
	case KindServerError:
		return transientStatus(e.Status)
	default:
		return false
	}
}

func transientStatus(status int) bool {
	switch status {
	case 502, 503, 504:
		return true
	}
	return false
}

// AsError extracts the normalized error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or "" when err is nil or foreign.
func KindOf(err error) ErrorKind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return ""
}

// IsCancelled reports whether err is a deliberate cancellation.
func IsCancelled(err error) bool {
	return KindOf(err) == KindCancelled
}

func newError(kind ErrorKind, status int, message string, cause error) *Error {
	return &Error{Kind: kind, Status: status, Message: message, Err: cause}
}

// UserMessage renders err for display. Cancellations render as "".
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	e, ok := AsError(err)
	if !ok {
		return err.Error()
	}
	switch e.Kind {
	case KindCancelled:
		return ""
	case KindTimeout:
		return "The analysis service took too long to answer. It may be starting up; try again in a moment."
	case KindNetwork:
		return "Could not reach the analysis service. Check your connection and try again."
	case KindServerError:
		if e.Transient() {
			return fmt.Sprintf("The analysis service is temporarily unavailable (%d). Try again shortly.", e.Status)
		}
		return fmt.Sprintf("The analysis service failed (%d): %s", e.Status, e.Message)
	case KindClientError:
		if e.Status == 0 {
			return fmt.Sprintf("Could not build the request: %s", e.Message)
		}
		return fmt.Sprintf("The request was rejected (%d): %s. Check the image and options.", e.Status, e.Message)
	case KindInvalidResponse:
		return "The analysis service returned a response that could not be read. Check the configured API address."
	}
	return e.Message
}
