package auth

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes failures surfaced by the gateway and the session store.
// The string values are stable and appear in JSON responses and metric tags.
type ErrorKind string

const (
	KindInvalidCredentials ErrorKind = "InvalidCredentials"
	KindValidation         ErrorKind = "ValidationError"
	KindConflict           ErrorKind = "Conflict"
	// KindUnauthorized means the token was rejected. It triggers session cleanup.
	KindUnauthorized ErrorKind = "Unauthorized"
	KindNetwork      ErrorKind = "NetworkError"
	KindUnknown      ErrorKind = "Unknown"
)

// Generic user-facing messages.
const (
	MsgNetwork            = "Unable to reach the server. Please check your connection and try again."
	MsgInvalidCredentials = "Incorrect email or password."
	MsgSessionExpired     = "Your session has expired. Please log in again."
	MsgUnknown            = "Something went wrong. Please try again."
)

var (
	// ErrBusy is returned when a login or signup is already in flight.
	ErrBusy = &Error{Kind: KindUnknown, Message: "A sign-in request is already in progress."}
	// ErrNoSession is returned by operations that need a token when none is held.
	ErrNoSession = &Error{Kind: KindUnauthorized, Message: "You are not logged in."}
	// ErrStaleResponse is returned when a response arrived after the session moved on
	// (logout or a newer login) and was discarded.
	ErrStaleResponse = &Error{Kind: KindUnknown, Message: "The request was cancelled because the session changed."}
	// ErrStorageUnavailable is returned when the durable token store cannot be written.
	ErrStorageUnavailable = errors.New("token storage unavailable")
)

// FieldError is a validation message bound to one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the normalized failure shape. Callers never see raw transport errors.
type Error struct {
	Kind ErrorKind
	// Message is safe to show to the user.
	Message string
	// Fields holds per-field validation messages (ValidationError only).
	Fields []FieldError
	// Status is the HTTP status returned by the remote API, 0 when none was received.
	Status int
	Cause  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// FieldMessage returns the message for a field, or "".
func (e *Error) FieldMessage(field string) string {
	if e == nil {
		return ""
	}
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

// NewError creates an error of the given kind.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind that wraps cause.
func Wrap(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Validation creates a ValidationError from field messages. The first field's
// message becomes the summary when message is empty.
func Validation(message string, fields ...FieldError) *Error {
	if message == "" && len(fields) > 0 {
		message = fields[0].Message
	}
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// AsError extracts an *Error from err. Any other error becomes KindUnknown
// with the generic message, so callers always get a displayable value.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr
	}
	return &Error{Kind: KindUnknown, Message: MsgUnknown, Cause: err}
}

// KindOf returns the kind of err, KindUnknown for foreign errors and "" for nil.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	return AsError(err).Kind
}

// IsUnauthorized reports whether err means the token was rejected.
func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}
