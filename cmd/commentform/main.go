//go:build js && wasm

// Command commentform is the browser module of entry pages. It binds the
// submission controller to form#comment-form of the hosting document.
//
// Build with:
//
//	GOOS=js GOARCH=wasm go build -o web/static/commentform.wasm ./cmd/commentform
package main

import (
	"context"
	"net/url"
	"os"
	"syscall/js"

	"golang.org/x/net/html"

	"github.com/commentform/backend/internal/dom"
	"github.com/commentform/backend/internal/logging"
	"github.com/commentform/backend/internal/model"
	"github.com/commentform/backend/internal/notice"
	"github.com/commentform/backend/internal/submission"
)

func main() {
	logger := logging.New(os.Stderr, logLevel())

	document := js.Global().Get("document")
	node := document.Call("querySelector", "form#"+dom.DefaultFormID)
	if node.IsNull() {
		logger.Warn("comment form not found", "id", dom.DefaultFormID)
		return
	}

	base, err := url.Parse(js.Global().Get("location").Get("href").String())
	if err != nil {
		logger.Warn("bad page location", "error", err)
	}

	sched := newScheduler()
	_, err = submission.Bind(context.Background(), &browserForm{el: node}, submission.Config{
		Transport: submission.NewHTTPTransport(nil),
		Scheduler: sched,
		BaseURL:   base,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("bind comment form", "error", err)
		return
	}
	sched.run()
}

// logLevel reads data-log-level from the module's script element.
func logLevel() string {
	script := js.Global().Get("document").Call("querySelector", "script[data-log-level]")
	if script.IsNull() {
		return "WARN"
	}
	return script.Call("getAttribute", "data-log-level").String()
}

// scheduler runs posted functions on the main goroutine, which is the only
// one that touches the DOM.
type scheduler struct {
	tasks chan func()
}

func newScheduler() *scheduler {
	return &scheduler{tasks: make(chan func(), 16)}
}

func (s *scheduler) Post(fn func()) bool {
	s.tasks <- fn
	return true
}

func (s *scheduler) run() {
	for fn := range s.tasks {
		fn()
	}
}

// browserForm adapts a live HTMLFormElement to submission.Form.
type browserForm struct {
	el    js.Value
	funcs []js.Func // retained for the page lifetime
}

var _ submission.Form = (*browserForm)(nil)

func (f *browserForm) Action() string {
	return f.el.Call("getAttribute", "action").String()
}

func (f *browserForm) value(selector string) string {
	ctl := f.el.Call("querySelector", selector)
	if ctl.IsNull() {
		return ""
	}
	return ctl.Get("value").String()
}

func (f *browserForm) Snapshot() model.FormSnapshot {
	return model.FormSnapshot{
		Name:    f.value("input#name"),
		Email:   f.value("input#email"),
		URL:     f.value("input#url"),
		Body:    f.value("textarea#body"),
		EntryID: f.value(`input[name="entry_id"]`),
	}
}

func (f *browserForm) Reset() {
	f.el.Call("reset")
}

// OnSubmit runs fn synchronously inside the DOM event callback so that
// preventDefault takes effect before the browser navigates.
func (f *browserForm) OnSubmit(fn func(dom.Event)) {
	cb := js.FuncOf(func(this js.Value, args []js.Value) any {
		fn(&jsEvent{v: args[0]})
		return nil
	})
	f.funcs = append(f.funcs, cb)
	f.el.Call("addEventListener", "submit", cb)
}

func (f *browserForm) InsertBefore(n *html.Node) error {
	markup := notice.String(n)
	f.el.Call("insertAdjacentHTML", "beforebegin", markup)

	alert := f.el.Get("previousElementSibling")
	if alert.IsNull() {
		return nil
	}
	closeBtn := alert.Call("querySelector", `[data-dismiss="alert"]`)
	if closeBtn.IsNull() {
		return nil
	}
	var cb js.Func
	cb = js.FuncOf(func(this js.Value, args []js.Value) any {
		alert.Call("remove")
		cb.Release()
		return nil
	})
	closeBtn.Call("addEventListener", "click", cb)
	return nil
}

type jsEvent struct {
	v js.Value
}

func (e *jsEvent) PreventDefault()        { e.v.Call("preventDefault") }
func (e *jsEvent) DefaultPrevented() bool { return e.v.Get("defaultPrevented").Bool() }
