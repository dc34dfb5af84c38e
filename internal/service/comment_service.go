package service

import (
	"context"
	"errors"

	"github.com/commentform/backend/internal/model"
)

// ErrInvalid is wrapped by every ValidationError.
var ErrInvalid = errors.New("invalid comment")

// ValidationError reports the first field that failed validation. Code is
// the machine-readable value returned to API clients (e.g. "email_required").
type ValidationError struct {
	Field string
	Code  string
}

func (e *ValidationError) Error() string { return "invalid comment: " + e.Code }

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// CommentService defines the business logic for reader comments.
type CommentService interface {
	// Submit sanitizes and validates c, then stores it as a public comment.
	// c.ID and c.CreatedAt are populated on success.
	Submit(ctx context.Context, c *model.Comment) error

	// Get returns one comment or repository.ErrNotFound.
	Get(ctx context.Context, id int64) (*model.Comment, error)

	// List returns comments according to the given options.
	List(ctx context.Context, opts model.CommentListOptions) ([]*model.Comment, error)
}
