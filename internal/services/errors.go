package services

import (
	"errors"

	"feynman-backend/internal/repository"
)

// ErrAIUnavailable wraps any failure to get a reply from the AI provider.
var ErrAIUnavailable = errors.New("AI service unavailable")

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type ForbiddenError struct{ Message string }

func (e *ForbiddenError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }

// storeError turns repository sentinels into service errors. Anything else is
// returned unchanged and ends up as an internal error at the HTTP boundary.
func storeError(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return &NotFoundError{Message: entity + " not found"}
	case errors.Is(err, repository.ErrInvalidReference):
		return &NotFoundError{Message: "Referenced record not found"}
	case errors.Is(err, repository.ErrDuplicate):
		return &ConflictError{Message: entity + " already exists"}
	}
	return err
}
