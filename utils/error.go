package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorKind is the machine-readable error category returned to clients.
type ErrorKind string

const (
	KindValidation           ErrorKind = "VALIDATION_ERROR"
	KindSlotUnavailable      ErrorKind = "SLOT_UNAVAILABLE"
	KindNoQuota              ErrorKind = "NO_QUOTA"
	KindCannotCancelTerminal ErrorKind = "CANNOT_CANCEL_TERMINAL"
	KindCannotCancelPast     ErrorKind = "CANNOT_CANCEL_PAST"
	KindAuthorizationDenied  ErrorKind = "AUTHORIZATION_DENIED"
	KindConflict             ErrorKind = "CONFLICT"
	KindNotFound             ErrorKind = "NOT_FOUND"
	KindDependency           ErrorKind = "DEPENDENCY_UNAVAILABLE"
	KindUnauthenticated      ErrorKind = "UNAUTHENTICATED"
	KindInternal             ErrorKind = "INTERNAL"
)

// AppError is a classified failure. Services return it; handlers render it.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches any AppError of the same kind, so errors.Is(err, ErrNoQuota) works on wrapped values.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Kind sentinels for errors.Is checks.
var (
	ErrValidation           = &AppError{Kind: KindValidation}
	ErrSlotUnavailable      = &AppError{Kind: KindSlotUnavailable}
	ErrNoQuota              = &AppError{Kind: KindNoQuota}
	ErrCannotCancelTerminal = &AppError{Kind: KindCannotCancelTerminal}
	ErrCannotCancelPast     = &AppError{Kind: KindCannotCancelPast}
	ErrAuthorizationDenied  = &AppError{Kind: KindAuthorizationDenied}
	ErrConflict             = &AppError{Kind: KindConflict}
	ErrNotFound             = &AppError{Kind: KindNotFound}
	ErrDependency           = &AppError{Kind: KindDependency}
)

func NewAppError(kind ErrorKind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func Validationf(format string, args ...any) *AppError {
	return &AppError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) *AppError {
	return &AppError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Deniedf(format string, args ...any) *AppError {
	return &AppError{Kind: KindAuthorizationDenied, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error kind to its response code.
func HTTPStatus(kind ErrorKind) int {
	switch kind {
	case KindValidation, KindCannotCancelTerminal, KindCannotCancelPast:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindAuthorizationDenied:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindSlotUnavailable, KindNoQuota, KindConflict:
		return http.StatusConflict
	case KindDependency:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				Logger := GetLogger()
				Logger.Error("Unhandled panic", zap.Any("error", err))

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Error:   string(KindInternal),
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	Logger := GetLogger()
	Logger.Warn(message, zap.String("details", details))
	c.JSON(status, ErrorResponse{Message: message, Details: details})
}

// RespondError renders err using its kind. Unclassified errors are logged and hidden.
func RespondError(c *gin.Context, err error) {
	kind := KindOf(err)
	status := HTTPStatus(kind)
	if kind == KindInternal {
		GetLogger().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.AbortWithStatusJSON(status, ErrorResponse{Error: string(kind), Message: "Internal Server Error"})
		return
	}
	var appErr *AppError
	errors.As(err, &appErr)
	resp := ErrorResponse{Error: string(kind), Message: appErr.Message}
	if appErr.Err != nil {
		resp.Details = appErr.Err.Error()
	}
	if resp.Message == "" {
		resp.Message = string(kind)
	}
	GetLogger().Warn("request rejected", zap.String("kind", string(kind)), zap.String("message", resp.Message))
	c.AbortWithStatusJSON(status, resp)
}
