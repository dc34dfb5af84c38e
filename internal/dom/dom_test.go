package dom

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/commentform/backend/internal/notice"
)

const commentPage = `<!DOCTYPE html>
<html><body>
<h3>Comments</h3>
<form id="comment-form" action="/api/comment" method="post">
  <input id="name" name="name" type="text">
  <input id="email" name="email" type="text">
  <input id="url" name="url" type="text">
  <textarea id="body" name="body"></textarea>
  <input name="entry_id" type="hidden" value="42">
  <button type="submit">Submit</button>
</form>
</body></html>`

func parseForm(t *testing.T, page string) (*Document, *Form) {
	t.Helper()
	doc, err := Parse(strings.NewReader(page))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	form, err := doc.Form(DefaultFormID)
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	return doc, form
}

func TestDocument_Form(t *testing.T) {
	_, form := parseForm(t, commentPage)

	if form.Action() != "/api/comment" {
		t.Errorf("expected action=/api/comment, got %q", form.Action())
	}
	if got := form.Value(FieldEntryID); got != "42" {
		t.Errorf("expected entry_id default=42, got %q", got)
	}
	for _, f := range []Field{FieldName, FieldEmail, FieldURL, FieldBody} {
		if got := form.Value(f); got != "" {
			t.Errorf("expected %s to start empty, got %q", f, got)
		}
	}
}

func TestDocument_Form_Errors(t *testing.T) {
	tests := []struct {
		name string
		page string
		id   string
		want error
	}{
		{"unknown id", commentPage, "other-form", ErrFormNotFound},
		{"no action", `<form id="comment-form"><input id="name"></form>`, DefaultFormID, ErrMissingAction},
		{"missing body", strings.Replace(commentPage, `<textarea id="body" name="body"></textarea>`, "", 1), DefaultFormID, ErrFieldMissing},
		{"missing entry_id", strings.Replace(commentPage, `name="entry_id"`, `name="entry"`, 1), DefaultFormID, ErrFieldMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(strings.NewReader(tt.page))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			_, err = doc.Form(tt.id)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestForm_SnapshotAndReset(t *testing.T) {
	_, form := parseForm(t, commentPage)

	form.SetValue(FieldName, "Alice")
	form.SetValue(FieldEmail, "a@x.com")
	form.SetValue(FieldBody, "nice post")

	snap := form.Snapshot()
	if snap.Name != "Alice" || snap.Email != "a@x.com" || snap.URL != "" || snap.Body != "nice post" || snap.EntryID != "42" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	form.Reset()
	snap = form.Snapshot()
	if snap.Name != "" || snap.Email != "" || snap.Body != "" {
		t.Errorf("expected user fields to be cleared, got %+v", snap)
	}
	if snap.EntryID != "42" {
		t.Errorf("expected entry_id to keep its default, got %q", snap.EntryID)
	}
}

func TestForm_TextareaDefault(t *testing.T) {
	page := strings.Replace(commentPage, `<textarea id="body" name="body"></textarea>`,
		`<textarea id="body" name="body">draft</textarea>`, 1)
	_, form := parseForm(t, page)

	form.SetValue(FieldBody, "edited")
	form.Reset()
	if got := form.Value(FieldBody); got != "draft" {
		t.Errorf("expected textarea to reset to its default, got %q", got)
	}
}

func TestForm_SubmitWithoutListenerNavigates(t *testing.T) {
	_, form := parseForm(t, commentPage)

	ev := form.Submit()
	if ev.DefaultPrevented() {
		t.Error("expected default action to run")
	}
	if form.Navigations() != 1 {
		t.Errorf("expected 1 navigation, got %d", form.Navigations())
	}
}

func TestForm_SubmitPrevented(t *testing.T) {
	_, form := parseForm(t, commentPage)
	calls := 0
	form.OnSubmit(func(ev Event) {
		calls++
		ev.PreventDefault()
	})

	form.Submit()
	form.Submit()

	if calls != 2 {
		t.Errorf("expected listener to run twice, got %d", calls)
	}
	if form.Navigations() != 0 {
		t.Errorf("expected no navigation, got %d", form.Navigations())
	}
}

func TestForm_InsertBeforeAccumulatesOldestFirst(t *testing.T) {
	doc, form := parseForm(t, commentPage)

	first := notice.MustMake(notice.Success, "Success", "one")
	second := notice.MustMake(notice.Danger, "Error", "two")
	if err := form.InsertBefore(first); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := form.InsertBefore(second); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if form.Node().PrevSibling != second {
		t.Error("expected latest notice immediately before the form")
	}
	got := form.Notices()
	if len(got) != 2 || got[0] != first || got[1] != second {
		t.Fatalf("expected [first second], got %d notices", len(got))
	}

	if err := form.InsertBefore(first); !errors.Is(err, ErrAlreadyInPlace) {
		t.Errorf("expected ErrAlreadyInPlace, got %v", err)
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if strings.Index(out, "one") > strings.Index(out, "two") || strings.Index(out, "two") > strings.Index(out, "<form") {
		t.Errorf("unexpected document order: %s", out)
	}
}

func TestDismiss(t *testing.T) {
	_, form := parseForm(t, commentPage)
	n := notice.MustMake(notice.Success, "Success", "posted")
	if err := form.InsertBefore(n); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if Dismiss(n.LastChild) {
		t.Error("text node must not dismiss")
	}
	if !Dismiss(n.FirstChild) {
		t.Fatal("expected close control to dismiss the notice")
	}
	if len(form.Notices()) != 0 {
		t.Error("expected notice to be removed")
	}
	if n.Parent != nil {
		t.Error("expected detached notice")
	}
}
