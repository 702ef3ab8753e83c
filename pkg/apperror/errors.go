package apperror

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind classifies an error for the billing desk
type Kind string

const (
	KindValidation        Kind = "validation"
	KindEmptySelection    Kind = "empty_selection"
	KindTransientAPI      Kind = "transient_api"
	KindNotFound          Kind = "not_found"
	KindUnauthorized      Kind = "unauthorized"
	KindConflict          Kind = "conflict"
	KindPartialSideEffect Kind = "partial_side_effect"
	KindInternal          Kind = "internal"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Kind    Kind         `json:"kind"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
	// ServerMessage is the message the pharmacy API returned, if any.
	ServerMessage string `json:"-"`
	cause         error
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Common errors
var (
	ErrNotFound       = &AppError{Code: http.StatusNotFound, Kind: KindNotFound, Message: "Resource not found"}
	ErrUnauthorized   = &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthorized, Message: "Unauthorized"}
	ErrInternalServer = &AppError{Code: http.StatusInternalServerError, Kind: KindInternal, Message: "Internal server error"}
	ErrNoSession      = &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthorized, Message: "No active session token"}
	ErrSessionExpired = &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthorized, Message: "Session token has expired"}
)

// NewAppError creates a new application error
func NewAppError(code int, kind Kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// NewValidationError creates a validation error with a message and optional field errors
func NewValidationError(message string, fieldErrors ...FieldError) *AppError {
	if message == "" {
		message = "Validation failed"
	}
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Kind:    KindValidation,
		Message: message,
		Errors:  fieldErrors,
	}
}

// NewEmptySelectionError is returned when an allocation selects nothing
func NewEmptySelectionError(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Kind:    KindEmptySelection,
		Message: message,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Kind:    KindNotFound,
		Message: resource + " not found",
	}
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindConflict,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindValidation,
		Message: message,
	}
}

// NewTransientAPIError wraps a network or server failure of the pharmacy API
func NewTransientAPIError(message string, cause error) *AppError {
	return &AppError{
		Code:    http.StatusBadGateway,
		Kind:    KindTransientAPI,
		Message: message,
		cause:   cause,
	}
}

// NewPartialSideEffectError describes a best-effort call that failed without aborting the action
func NewPartialSideEffectError(message string, cause error) *AppError {
	return &AppError{
		Code:    http.StatusOK,
		Kind:    KindPartialSideEffect,
		Message: message,
		cause:   cause,
	}
}

// FromValidator converts go-playground validation errors into a validation AppError
func FromValidator(err error) *AppError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewValidationError(err.Error())
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   lowerFirst(fe.Field()),
			Message: "failed on the '" + fe.Tag() + "' rule",
		})
	}
	return NewValidationError("Validation failed", fields...)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// IsKind reports whether err is an AppError of the given kind
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindInternal,
		Message: err.Error(),
		cause:   err,
	}
}

// UserMessage returns the message an operator should see for err.
// Server-provided messages win, then locally raised validation messages;
// anything else falls back to the per-operation default.
func UserMessage(err error, fallback string) string {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fallback
	}
	if msg := strings.TrimSpace(appErr.ServerMessage); msg != "" {
		return msg
	}
	switch appErr.Kind {
	case KindValidation, KindEmptySelection, KindNotFound, KindConflict, KindUnauthorized:
		if strings.TrimSpace(appErr.Message) != "" {
			return appErr.Message
		}
	}
	return fallback
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
