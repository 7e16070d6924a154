package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// ModelErrorMessage describes language-model backend failures.
	ModelErrorMessage = "model backend unavailable"
	// StructuralErrorMessage describes a broken conversation invariant.
	StructuralErrorMessage = "conversation structure violated"
	// IterationLimitMessage describes a runaway tool loop.
	IterationLimitMessage = "tool loop iteration limit reached"
)

// Error kinds. Match them with errors.Is.
var (
	ErrTransient      = errors.New("transient backend failure")
	ErrStructural     = errors.New("structural violation")
	ErrIterationLimit = errors.New("iteration limit reached")
	ErrNotFound       = errors.New("not found")
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
	// Kind is one of the package sentinels, or nil.
	Kind error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether the target matches the error kind or the underlying error.
func (e *AppError) Is(target error) bool {
	if e.Kind != nil && target == e.Kind {
		return true
	}
	return errors.Is(e.Err, target)
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// WrapRedis maps Redis errors to AppError with a consistent status code and message.
// Callers pass redis.Nil through IsRedisNil before calling when a miss is not an error.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Err:     err,
		Status:  http.StatusBadGateway,
		Message: RedisErrorMessage,
		Kind:    ErrTransient,
	}
}

// WrapModel marks a failed or malformed model call as a retryable turn failure.
func WrapModel(err error) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Err:     err,
		Status:  http.StatusServiceUnavailable,
		Message: ModelErrorMessage,
		Kind:    ErrTransient,
	}
}

// Structural reports a broken Router / Tool Executor contract. Fatal to the turn.
func Structural(format string, args ...any) error {
	return &AppError{
		Err:     fmt.Errorf(format, args...),
		Status:  http.StatusInternalServerError,
		Message: StructuralErrorMessage,
		Kind:    ErrStructural,
	}
}

// IterationLimit reports that a turn kept requesting tools past the configured bound.
func IterationLimit(max int) error {
	return &AppError{
		Err:     fmt.Errorf("model still requested tools after %d rounds", max),
		Status:  http.StatusLoopDetected,
		Message: IterationLimitMessage,
		Kind:    ErrIterationLimit,
	}
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// SafeMessage returns the user-facing message carried by err.
func SafeMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return SystemErrorMessage
}
