package model

// FormSnapshot is the set of comment form values captured at submit time.
// It is also the request body of POST /api/comment. The entity identifier
// travels under the dotted key "entry.id" although the page field is named
// entry_id.
type FormSnapshot struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	URL     string `json:"url"`
	Body    string `json:"body"`
	EntryID string `json:"entry.id"`
}
