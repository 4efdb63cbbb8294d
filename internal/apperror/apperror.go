// Package apperror defines the application's error taxonomy.
//
// Services return these typed errors; the HTTP layer maps them to status
// codes with errors.Is/As. No error is retried automatically anywhere.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrUninitialized means no AI credential has been configured at all.
	ErrUninitialized = errors.New("credential not configured")
	// ErrQuota means the shared/default credential's request quota is spent.
	ErrQuota = errors.New("request quota exhausted")
	// ErrAnalysis covers model transport failures, unparseable responses and
	// the model's own could-not-identify-food refusal.
	ErrAnalysis = errors.New("analysis failed")
	// ErrUnauthenticated means the backing store requires a session and none exists.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrPersistence covers backing-store failures.
	ErrPersistence = errors.New("persistence failed")
	// ErrNotFound is the not-found flavor of a persistence failure.
	ErrNotFound = errors.New("not found")
	// ErrImageDecode means the source image could not be decoded. Callers
	// recover locally by falling back to the original bytes.
	ErrImageDecode = errors.New("image decode failed")
	// ErrValidation marks rejected input at the API surface.
	ErrValidation = errors.New("validation error")
)

// AppError carries a human-readable message alongside the sentinel kind.
type AppError struct {
	Err     error
	Message string
	Field   string // optional: field causing a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func Uninitialized() *AppError {
	return &AppError{
		Err:     ErrUninitialized,
		Message: "AI credential not configured; add an API key in settings",
	}
}

func QuotaExhausted(limit int) *AppError {
	return &AppError{
		Err:     ErrQuota,
		Message: fmt.Sprintf("free limit reached (%d requests); add your own API key in settings", limit),
	}
}

func Analysis(reason string) *AppError {
	return &AppError{
		Err:     ErrAnalysis,
		Message: reason,
	}
}

func Unauthenticated() *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: "sign in to use the remote backend",
	}
}

func Persistence(op string, err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrPersistence, err),
		Message: fmt.Sprintf("%s failed: %v", op, err),
	}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		// Not-found keeps its own sentinel so the HTTP layer can answer 404,
		// but still matches ErrPersistence for callers treating it as one.
		Err:     fmt.Errorf("%w: %w", ErrPersistence, ErrNotFound),
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ImageDecode(err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrImageDecode, err),
		Message: "could not decode image",
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}
