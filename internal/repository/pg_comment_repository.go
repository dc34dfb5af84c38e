package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/commentform/backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgCommentRepository is the PostgreSQL implementation of CommentRepository.
type PgCommentRepository struct {
	pool *pgxpool.Pool
}

// NewPgCommentRepository creates a PgCommentRepository backed by the given pool.
func NewPgCommentRepository(pool *pgxpool.Pool) *PgCommentRepository {
	return &PgCommentRepository{pool: pool}
}

// Ensure PgCommentRepository implements Store at compile time.
var _ Store = (*PgCommentRepository)(nil)

// Save inserts a new comments row and populates c.ID and c.CreatedAt from
// the RETURNING clause.
func (r *PgCommentRepository) Save(ctx context.Context, c *model.Comment) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO comments (entry_id, name, email, url, ip_address, body, status, created_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8)
		 RETURNING id, created_at`,
		c.EntryID, c.Name, c.Email, c.URL, c.IPAddress, c.Body, c.Status, c.CreatedAt,
	).Scan(&c.ID, &c.CreatedAt)
}

// Get returns a single comment or ErrNotFound.
func (r *PgCommentRepository) Get(ctx context.Context, id int64) (*model.Comment, error) {
	var c model.Comment
	err := r.pool.QueryRow(ctx,
		`SELECT id, entry_id, name, email, COALESCE(url, ''), COALESCE(ip_address, ''), body, status, created_at
		 FROM comments WHERE id = $1`, id,
	).Scan(&c.ID, &c.EntryID, &c.Name, &c.Email, &c.URL, &c.IPAddress, &c.Body, &c.Status, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns comments filtered by entry and status, oldest first.
func (r *PgCommentRepository) List(ctx context.Context, opts model.CommentListOptions) ([]*model.Comment, error) {
	args := []any{listStatus(opts)}
	conditions := []string{"status = $1"}
	if opts.EntryID != 0 {
		args = append(args, opts.EntryID)
		conditions = append(conditions, "entry_id = $"+strconv.Itoa(len(args)))
	}
	args = append(args, opts.Limit, opts.Offset)

	query := `SELECT id, entry_id, name, email, COALESCE(url, ''), COALESCE(ip_address, ''), body, status, created_at
	          FROM comments WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY created_at ASC, id ASC
		  LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.EntryID, &c.Name, &c.Email, &c.URL, &c.IPAddress, &c.Body, &c.Status, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

// Ping checks database connectivity.
func (r *PgCommentRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close releases the pool.
func (r *PgCommentRepository) Close() {
	r.pool.Close()
}
