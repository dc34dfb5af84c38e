package repository

import (
	"context"

	"github.com/commentform/backend/internal/model"
)

// CommentRepository defines the persistence interface for comments.
// It is defined here (in repository) to avoid an import cycle with service.
type CommentRepository interface {
	// Save inserts c and populates c.ID and c.CreatedAt from the store.
	Save(ctx context.Context, c *model.Comment) error
	// Get returns the comment with the given id or ErrNotFound.
	Get(ctx context.Context, id int64) (*model.Comment, error)
	// List returns comments oldest first.
	List(ctx context.Context, opts model.CommentListOptions) ([]*model.Comment, error)
}

// Store is a CommentRepository that owns its database handle.
type Store interface {
	CommentRepository
	Ping(ctx context.Context) error
	Close()
}

func listStatus(opts model.CommentListOptions) int {
	if opts.Status != nil {
		return *opts.Status
	}
	return model.CommentStatusPublic
}
