package model

import "time"

// Comment status values. Only public comments are listed on entry pages.
const (
	CommentStatusPendingModeration = 0
	CommentStatusPublic            = 1
	CommentStatusSpam              = 8
	CommentStatusDeleted           = 9
)

// Comment represents a reader comment attached to a blog entry.
type Comment struct {
	ID        int64     `json:"id"`
	EntryID   int64     `json:"entry_id"`
	Name      string    `json:"name"`
	Email     string    `json:"-"` // never echoed back to readers
	URL       string    `json:"url,omitempty"`
	IPAddress string    `json:"-"`
	Body      string    `json:"body"`
	Status    int       `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentListOptions carries filter and pagination parameters for listing comments.
type CommentListOptions struct {
	// EntryID restricts the listing to one entry. Zero lists every entry.
	EntryID int64
	// Status filters by comment status. Nil lists public comments only.
	Status *int
	Limit  int
	Offset int
}
