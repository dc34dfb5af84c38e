package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/commentform/backend/internal/model"
	"github.com/commentform/backend/internal/repository"
	"github.com/commentform/backend/internal/service"
)

const maxCommentRequestBytes = 64 << 10

// CommentHandler serves the comment API the comment form posts to.
type CommentHandler struct {
	commentService service.CommentService
}

// NewCommentHandler creates a CommentHandler with the given service.
func NewCommentHandler(commentService service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// entryID accepts the entity identifier as a JSON string (as the comment
// form sends it) or a JSON number.
type entryID int64

func (id *entryID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = 0
		return nil
	}
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return errEntryID
	}
	*id = entryID(n)
	return nil
}

var errEntryID = errors.New("entry.id is not an integer")

// createRequest is the expected JSON body for POST /api/comment: the comment
// form snapshot, with the entry under the dotted key "entry.id".
type createRequest struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	URL     string  `json:"url"`
	Body    string  `json:"body"`
	EntryID entryID `json:"entry.id"`
}

// Create handles POST /api/comment.
// name, email, body and entry.id are required; url is optional.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCommentRequestBytes)

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, errEntryID) {
			writeError(w, http.StatusBadRequest, "entry_id_invalid")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	c := &model.Comment{
		EntryID:   int64(req.EntryID),
		Name:      req.Name,
		Email:     req.Email,
		URL:       req.URL,
		Body:      req.Body,
		IPAddress: ClientIP(r),
	}

	if err := h.commentService.Submit(r.Context(), c); err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Code)
			return
		}
		writeError(w, http.StatusInternalServerError, "submit_failed")
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

// listResponse is the JSON response for GET /api/comment.
type listResponse struct {
	Comments []*model.Comment `json:"comments"`
}

// List handles GET /api/comment. Supports query params: entry_id, limit, offset.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	opts := model.CommentListOptions{Limit: 20}
	q := r.URL.Query()

	if e := q.Get("entry_id"); e != "" {
		n, err := strconv.ParseInt(e, 10, 64)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "entry_id_invalid")
			return
		}
		opts.EntryID = n
	}
	if l := q.Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 100 {
			opts.Limit = n
		}
	}
	if o := q.Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil && n >= 0 {
			opts.Offset = n
		}
	}

	comments, err := h.commentService.List(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list_failed")
		return
	}

	// Return [] not null for empty lists
	if comments == nil {
		comments = []*model.Comment{}
	}
	writeJSON(w, http.StatusOK, listResponse{Comments: comments})
}

// Get handles GET /api/comment/{id}. Only public comments are visible.
func (h *CommentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}

	c, err := h.commentService.Get(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && c.Status != model.CommentStatusPublic) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get_failed")
		return
	}
	writeJSON(w, http.StatusOK, c)
}
