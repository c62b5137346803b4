package utils

import (
	"errors"
	"net/http"
)

type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindAuthentication ErrorKind = "authentication"
	KindAuthorization  ErrorKind = "authorization"
	KindNotFound       ErrorKind = "not_found"
	KindConflict       ErrorKind = "conflict"
	KindInternal       ErrorKind = "internal"
)

// Reasons surfaced to clients next to the message.
const (
	ReasonInvalidInput        = "invalid_input"
	ReasonInvalidOrder        = "invalid_order"
	ReasonInvalidTransition   = "invalid_transition"
	ReasonNoCredential        = "no_credential"
	ReasonInvalidCredential   = "invalid_credential"
	ReasonInvalidRefreshToken = "invalid_refresh_token"
	ReasonBadLogin            = "invalid_login"
	ReasonForbidden           = "forbidden"
	ReasonUserNotFound        = "user_not_found"
	ReasonNotFound            = "not_found"
	ReasonDuplicate           = "duplicate"
	ReasonInsufficientBalance = "insufficient_balance"
	ReasonInternal            = "internal_error"
)

// AppError is the error every controller renders. Kind selects the HTTP
// status class, Reason is a stable machine readable code.
type AppError struct {
	Kind    ErrorKind
	Reason  string
	Message string
	Err     error
	status  int
}

func (e *AppError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// Status returns the HTTP status for the error.
func (e *AppError) Status() int {
	if e.status != 0 {
		return e.status
	}
	switch e.Kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WithStatus overrides the status derived from Kind.
func (e *AppError) WithStatus(code int) *AppError {
	e.status = code
	return e
}

func NewValidationError(reason, msg string) *AppError {
	return &AppError{Kind: KindValidation, Reason: reason, Message: msg}
}

func NewAuthenticationError(reason, msg string, cause error) *AppError {
	return &AppError{Kind: KindAuthentication, Reason: reason, Message: msg, Err: cause}
}

func NewForbiddenError(msg string) *AppError {
	return &AppError{Kind: KindAuthorization, Reason: ReasonForbidden, Message: msg}
}

func NewNotFoundError(reason, msg string) *AppError {
	return &AppError{Kind: KindNotFound, Reason: reason, Message: msg}
}

func NewConflictError(reason, msg string) *AppError {
	return &AppError{Kind: KindConflict, Reason: reason, Message: msg}
}

func NewInternalError(cause error) *AppError {
	return &AppError{Kind: KindInternal, Reason: ReasonInternal, Message: "internal server error", Err: cause}
}

// AsAppError unwraps err into an AppError, wrapping unknown errors as
// internal ones.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(err)
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}
