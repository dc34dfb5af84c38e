package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/commentform/backend/internal/model"
	_ "modernc.org/sqlite"
)

//go:embed sqlitemigrations/*.sql
var sqliteMigrations embed.FS

// SqliteCommentRepository is the SQLite implementation of CommentRepository,
// used for local development and tests.
type SqliteCommentRepository struct {
	db *sql.DB
}

// Ensure SqliteCommentRepository implements Store at compile time.
var _ Store = (*SqliteCommentRepository)(nil)

// OpenSqlite opens (or creates) the SQLite database at path and applies the
// embedded schema. ":memory:" is accepted for throwaway stores.
func OpenSqlite(ctx context.Context, path string) (*SqliteCommentRepository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applySqliteMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SqliteCommentRepository{db: db}, nil
}

func applySqliteMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	entries, err := fs.ReadDir(sqliteMigrations, "sqlitemigrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		var exists int
		if err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM schema_migrations WHERE name = ?`, name).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if exists > 0 {
			continue
		}
		content, err := fs.ReadFile(sqliteMigrations, "sqlitemigrations/"+name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`, name, time.Now().UTC().UnixMilli()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
	}
	return nil
}

// Save inserts a new comment and populates c.ID.
func (r *SqliteCommentRepository) Save(ctx context.Context, c *model.Comment) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (entry_id, name, email, url, ip_address, body, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.EntryID, c.Name, c.Email, c.URL, c.IPAddress, c.Body, c.Status, c.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = id
	c.CreatedAt = time.UnixMilli(c.CreatedAt.UTC().UnixMilli()).UTC()
	return nil
}

// Get returns a single comment or ErrNotFound.
func (r *SqliteCommentRepository) Get(ctx context.Context, id int64) (*model.Comment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, entry_id, name, email, url, ip_address, body, status, created_at
		 FROM comments WHERE id = ?`, id)
	c, err := scanSqliteComment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// List returns comments filtered by entry and status, oldest first.
func (r *SqliteCommentRepository) List(ctx context.Context, opts model.CommentListOptions) ([]*model.Comment, error) {
	args := []any{listStatus(opts)}
	where := "status = ?"
	if opts.EntryID != 0 {
		where += " AND entry_id = ?"
		args = append(args, opts.EntryID)
	}
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, entry_id, name, email, url, ip_address, body, status, created_at
		 FROM comments WHERE `+where+`
		 ORDER BY created_at ASC, id ASC
		 LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*model.Comment
	for rows.Next() {
		c, err := scanSqliteComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSqliteComment(s rowScanner) (*model.Comment, error) {
	var (
		c         model.Comment
		createdAt int64
	)
	if err := s.Scan(&c.ID, &c.EntryID, &c.Name, &c.Email, &c.URL, &c.IPAddress, &c.Body, &c.Status, &createdAt); err != nil {
		return nil, err
	}
	c.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &c, nil
}

// Ping checks database connectivity.
func (r *SqliteCommentRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database handle.
func (r *SqliteCommentRepository) Close() {
	_ = r.db.Close()
}
