// Package dom hosts the comment form inside a parsed HTML document.
//
// It reproduces the small part of browser behaviour the submission
// controller relies on: current vs. default field values, form reset,
// submit event dispatch with a cancellable default action, and the
// dismiss control of inline notices. All methods must be called from the
// goroutine that owns the document (see package eventloop).
package dom

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/commentform/backend/internal/model"
	"github.com/commentform/backend/internal/notice"
)

// DefaultFormID is the id of the comment form on entry pages.
const DefaultFormID = "comment-form"

var (
	ErrFormNotFound   = errors.New("dom: form not found")
	ErrMissingAction  = errors.New("dom: form has no action attribute")
	ErrFieldMissing   = errors.New("dom: form field missing")
	ErrDetached       = errors.New("dom: form is not attached to a document")
	ErrAlreadyInPlace = errors.New("dom: node already has a parent")
)

// Field names a comment form control.
type Field string

const (
	FieldName    Field = "name"
	FieldEmail   Field = "email"
	FieldURL     Field = "url"
	FieldBody    Field = "body"
	FieldEntryID Field = "entry_id"
)

// Fields lists the controls every comment form must carry.
var Fields = []Field{FieldName, FieldEmail, FieldURL, FieldBody, FieldEntryID}

// Document is a parsed HTML page.
type Document struct {
	root *html.Node
}

// Parse reads an HTML page.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	return &Document{root: root}, nil
}

// Root returns the document node.
func (d *Document) Root() *html.Node { return d.root }

// Render serializes the whole document.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// Form locates form#id and checks that it satisfies the comment form
// contract: an action attribute and the five fields listed in Fields.
func (d *Document) Form(id string) (*Form, error) {
	node := find(d.root, func(n *html.Node) bool {
		return n.DataAtom == atom.Form && attr(n, "id") == id
	})
	if node == nil {
		return nil, fmt.Errorf("%w: #%s", ErrFormNotFound, id)
	}
	if _, ok := lookupAttr(node, "action"); !ok {
		return nil, fmt.Errorf("%w: #%s", ErrMissingAction, id)
	}

	f := &Form{
		node:   node,
		fields: make(map[Field]*html.Node, len(Fields)),
		values: make(map[Field]string),
	}
	for _, field := range Fields {
		ctl := find(node, fieldMatcher(field))
		if ctl == nil {
			return nil, fmt.Errorf("%w: %s", ErrFieldMissing, field)
		}
		f.fields[field] = ctl
	}
	return f, nil
}

func fieldMatcher(field Field) func(*html.Node) bool {
	switch field {
	case FieldBody:
		return func(n *html.Node) bool {
			return n.DataAtom == atom.Textarea && attr(n, "id") == string(field)
		}
	case FieldEntryID:
		return func(n *html.Node) bool {
			return n.DataAtom == atom.Input && attr(n, "name") == string(field)
		}
	default:
		return func(n *html.Node) bool {
			return n.DataAtom == atom.Input && attr(n, "id") == string(field)
		}
	}
}

// Event is a dispatched DOM event whose default action can be cancelled.
type Event interface {
	PreventDefault()
	DefaultPrevented() bool
}

// SubmitEvent is dispatched by Form.Submit.
type SubmitEvent struct {
	prevented bool
}

func (e *SubmitEvent) PreventDefault()        { e.prevented = true }
func (e *SubmitEvent) DefaultPrevented() bool { return e.prevented }

// Form is the comment form element. The document owns its lifecycle; Form
// only reads and mutates it.
type Form struct {
	node        *html.Node
	fields      map[Field]*html.Node
	values      map[Field]string // dirty values; absent means default
	listeners   []func(Event)
	navigations int
}

// Node returns the underlying form element.
func (f *Form) Node() *html.Node { return f.node }

// Action returns the submission endpoint declared by the form.
func (f *Form) Action() string { return attr(f.node, "action") }

// Value returns the current value of a field.
func (f *Form) Value(field Field) string {
	if v, ok := f.values[field]; ok {
		return v
	}
	return f.DefaultValue(field)
}

// DefaultValue returns the value the field resets to.
func (f *Form) DefaultValue(field Field) string {
	ctl, ok := f.fields[field]
	if !ok {
		return ""
	}
	if ctl.DataAtom == atom.Textarea {
		return textContent(ctl)
	}
	return attr(ctl, "value")
}

// SetValue changes the current value of a field, as typing would.
func (f *Form) SetValue(field Field, v string) {
	if _, ok := f.fields[field]; !ok {
		return
	}
	f.values[field] = v
}

// Snapshot captures the current field values.
func (f *Form) Snapshot() model.FormSnapshot {
	return model.FormSnapshot{
		Name:    f.Value(FieldName),
		Email:   f.Value(FieldEmail),
		URL:     f.Value(FieldURL),
		Body:    f.Value(FieldBody),
		EntryID: f.Value(FieldEntryID),
	}
}

// Reset restores every field to its default value.
func (f *Form) Reset() {
	clear(f.values)
}

// OnSubmit registers a submit listener. Listeners live as long as the form.
func (f *Form) OnSubmit(fn func(Event)) {
	f.listeners = append(f.listeners, fn)
}

// Submit dispatches a submit event to every listener in registration
// order. If none of them prevents the default action, the native
// submission (a page navigation to Action) is recorded instead.
func (f *Form) Submit() *SubmitEvent {
	ev := &SubmitEvent{}
	for _, fn := range f.listeners {
		fn(ev)
	}
	if !ev.prevented {
		f.navigations++
	}
	return ev
}

// Navigations counts native submissions that were not prevented.
func (f *Form) Navigations() int { return f.navigations }

// InsertBefore inserts n as the form's immediate previous sibling.
func (f *Form) InsertBefore(n *html.Node) error {
	if f.node.Parent == nil {
		return ErrDetached
	}
	if n.Parent != nil || n.PrevSibling != nil || n.NextSibling != nil {
		return ErrAlreadyInPlace
	}
	f.node.Parent.InsertBefore(n, f.node)
	return nil
}

// Notices returns the notices directly preceding the form, oldest first.
func (f *Form) Notices() []*html.Node {
	var out []*html.Node
	for s := f.node.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.TextNode && strings.TrimSpace(s.Data) == "" {
			continue
		}
		if !notice.IsNotice(s) {
			break
		}
		out = append(out, s)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Dismiss activates a notice close control: the enclosing notice is removed
// from the document. It reports whether anything was removed.
func Dismiss(control *html.Node) bool {
	if !notice.IsDismissControl(control) {
		return false
	}
	for n := control.Parent; n != nil; n = n.Parent {
		if notice.IsNotice(n) {
			if n.Parent == nil {
				return false
			}
			n.Parent.RemoveChild(n)
			return true
		}
	}
	return false
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func textContent(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
