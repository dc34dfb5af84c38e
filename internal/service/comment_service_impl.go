package service

import (
	"context"
	"html"
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/commentform/backend/internal/model"
	"github.com/commentform/backend/internal/repository"
	"github.com/microcosm-cc/bluemonday"
)

// Field limits mirror the comments table.
const (
	maxNameLength  = 64
	maxEmailLength = 64
	maxURLLength   = 100
	maxBodyLength  = 5000
)

// commentServiceImpl is the production implementation of CommentService.
type commentServiceImpl struct {
	repo   repository.CommentRepository
	policy *bluemonday.Policy
	now    func() time.Time
}

// NewCommentService creates a CommentService backed by the given repository.
func NewCommentService(repo repository.CommentRepository) CommentService {
	return &commentServiceImpl{
		repo:   repo,
		policy: bluemonday.StrictPolicy(),
		now:    time.Now,
	}
}

// Submit strips markup from every text field, validates the result, marks
// the comment public and persists it.
func (s *commentServiceImpl) Submit(ctx context.Context, c *model.Comment) error {
	c.Name = s.plainText(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.URL = strings.TrimSpace(c.URL)
	c.Body = s.plainText(c.Body)

	if err := validate(c); err != nil {
		return err
	}

	c.Status = model.CommentStatusPublic
	c.CreatedAt = s.now().UTC()
	return s.repo.Save(ctx, c)
}

func (s *commentServiceImpl) Get(ctx context.Context, id int64) (*model.Comment, error) {
	return s.repo.Get(ctx, id)
}

func (s *commentServiceImpl) List(ctx context.Context, opts model.CommentListOptions) ([]*model.Comment, error) {
	return s.repo.List(ctx, opts)
}

// plainText removes all markup. bluemonday escapes what it keeps, so the
// result is unescaped back to plain text; escaping happens at render time.
func (s *commentServiceImpl) plainText(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
}

func validate(c *model.Comment) error {
	switch {
	case c.EntryID <= 0:
		return &ValidationError{Field: "entry.id", Code: "entry_id_invalid"}
	case c.Name == "":
		return &ValidationError{Field: "name", Code: "name_required"}
	case utf8.RuneCountInString(c.Name) > maxNameLength:
		return &ValidationError{Field: "name", Code: "name_too_long"}
	case c.Email == "":
		return &ValidationError{Field: "email", Code: "email_required"}
	case utf8.RuneCountInString(c.Email) > maxEmailLength:
		return &ValidationError{Field: "email", Code: "email_too_long"}
	case !validEmail(c.Email):
		return &ValidationError{Field: "email", Code: "email_invalid"}
	case utf8.RuneCountInString(c.URL) > maxURLLength:
		return &ValidationError{Field: "url", Code: "url_too_long"}
	case c.URL != "" && !validURL(c.URL):
		return &ValidationError{Field: "url", Code: "url_invalid"}
	case c.Body == "":
		return &ValidationError{Field: "body", Code: "body_required"}
	case utf8.RuneCountInString(c.Body) > maxBodyLength:
		return &ValidationError{Field: "body", Code: "body_too_long"}
	}
	return nil
}

func validEmail(v string) bool {
	addr, err := mail.ParseAddress(v)
	return err == nil && addr.Address == v
}

func validURL(v string) bool {
	u, err := url.Parse(v)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
