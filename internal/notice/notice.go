// Package notice builds the dismissible alert shown next to the comment form.
//
// Notices are detached html.Node trees. Title and body are always stored as
// text nodes, so rendering escapes them and no caller-supplied string is ever
// interpreted as markup.
package notice

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Severity selects the alert-{severity} class of a notice.
type Severity string

const (
	Success Severity = "success"
	Danger  Severity = "danger"
)

// ErrUnknownSeverity is returned by Make for a severity outside the known set.
var ErrUnknownSeverity = errors.New("notice: unknown severity")

// Valid reports whether s is a recognised severity.
func (s Severity) Valid() bool {
	switch s {
	case Success, Danger:
		return true
	}
	return false
}

const (
	alertClass   = "alert"
	dismissClass = "alert-dismissable"
	closeGlyph   = "×"
)

// Make returns a detached notice element:
//
//	<div class="alert alert-{sev} alert-dismissable">
//	  <button type="button" class="close" data-dismiss="alert" aria-hidden="true">×</button>
//	  <strong>{title}</strong> {body}
//	</div>
//
// The node is not inserted anywhere.
func Make(sev Severity, title, body string) (*html.Node, error) {
	if !sev.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSeverity, string(sev))
	}

	div := element(atom.Div,
		html.Attribute{Key: "class", Val: alertClass + " alert-" + string(sev) + " " + dismissClass},
	)

	button := element(atom.Button,
		html.Attribute{Key: "type", Val: "button"},
		html.Attribute{Key: "class", Val: "close"},
		html.Attribute{Key: "data-dismiss", Val: "alert"},
		html.Attribute{Key: "aria-hidden", Val: "true"},
	)
	button.AppendChild(text(closeGlyph))
	div.AppendChild(button)

	strong := element(atom.Strong)
	strong.AppendChild(text(title))
	div.AppendChild(strong)
	div.AppendChild(text(" " + body + " "))

	return div, nil
}

// MustMake is Make for severities known at compile time.
func MustMake(sev Severity, title, body string) *html.Node {
	n, err := Make(sev, title, body)
	if err != nil {
		panic(err)
	}
	return n
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Render writes the notice markup to w.
func Render(w io.Writer, n *html.Node) error {
	return html.Render(w, n)
}

// String returns the notice markup. Rendering failures yield "".
func String(n *html.Node) string {
	var buf bytes.Buffer
	if err := Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

// IsNotice reports whether n is an alert element built by Make (or an
// equivalent server-rendered one).
func IsNotice(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode || n.DataAtom != atom.Div {
		return false
	}
	return hasClass(n, alertClass)
}

// SeverityOf returns the severity encoded in n's class list, or "".
func SeverityOf(n *html.Node) Severity {
	if !IsNotice(n) {
		return ""
	}
	for _, c := range classes(n) {
		if sev, ok := strings.CutPrefix(c, alertClass+"-"); ok && Severity(sev).Valid() {
			return Severity(sev)
		}
	}
	return ""
}

// TitleOf returns the text of the notice's <strong> element.
func TitleOf(n *html.Node) string {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Strong {
			return textContent(c)
		}
	}
	return ""
}

// BodyOf returns the trimmed text following the title.
func BodyOf(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(b.String())
}

// IsDismissControl reports whether n is the close control of a notice.
func IsDismissControl(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == "data-dismiss" && a.Val == "alert" {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func classes(n *html.Node) []string {
	for _, a := range n.Attr {
		if a.Key == "class" {
			return strings.Fields(a.Val)
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range classes(n) {
		if c == class {
			return true
		}
	}
	return false
}
