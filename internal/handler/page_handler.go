package handler

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/commentform/backend/internal/model"
	"github.com/commentform/backend/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

var entryTemplate = template.Must(template.ParseFS(templateFS, "templates/entry.html"))

// CommentAction is the endpoint the comment form posts to.
const CommentAction = "/api/comment"

// PageHandler renders the entry pages that host the comment form.
type PageHandler struct {
	commentService service.CommentService
}

// NewPageHandler creates a PageHandler with the given service.
func NewPageHandler(commentService service.CommentService) *PageHandler {
	return &PageHandler{commentService: commentService}
}

type entryPage struct {
	EntryID  int64
	Action   string
	Comments []*model.Comment
}

// Entry handles GET /entries/{id}: the public comments of the entry followed
// by the comment form.
func (h *PageHandler) Entry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return
	}

	comments, err := h.commentService.List(r.Context(), model.CommentListOptions{EntryID: id, Limit: 100})
	if err != nil {
		slog.Error("list comments for page", "entry_id", id, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := entryTemplate.Execute(&buf, entryPage{EntryID: id, Action: CommentAction, Comments: comments}); err != nil {
		slog.Error("render entry page", "entry_id", id, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
