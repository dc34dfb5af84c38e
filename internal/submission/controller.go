// Package submission intercepts comment form submissions, posts the form
// values as JSON and reports the outcome with an inline notice.
//
// Each submit event walks Idle → InFlight → Succeeded|Failed → Idle:
// the native submission is always cancelled, the snapshot is sent on its
// own goroutine, and the outcome is applied back on the scheduler that owns
// the document. Overlapping submissions are not guarded against: every
// submit event yields its own request, outcome and notice.
package submission

import (
	"context"
	"errors"
	"log/slog"
	"net/url"

	"golang.org/x/net/html"

	"github.com/commentform/backend/internal/dom"
	"github.com/commentform/backend/internal/model"
	"github.com/commentform/backend/internal/notice"
)

var (
	ErrNoForm      = errors.New("submission: form is required")
	ErrNoTransport = errors.New("submission: transport is required")
	ErrNoScheduler = errors.New("submission: scheduler is required")
)

// Form is the document element the controller binds to. *dom.Form and the
// browser adapter implement it.
type Form interface {
	Action() string
	Snapshot() model.FormSnapshot
	OnSubmit(func(dom.Event))
	InsertBefore(n *html.Node) error
	Reset()
}

// Scheduler runs a function on the goroutine that owns the document.
// *eventloop.Loop implements it.
type Scheduler interface {
	Post(fn func()) bool
}

// Messages are the fixed notice texts.
type Messages struct {
	SuccessTitle string
	SuccessBody  string
	FailureTitle string
	FailureBody  string
}

// DefaultMessages returns the stock notice texts.
func DefaultMessages() Messages {
	return Messages{
		SuccessTitle: "Success",
		SuccessBody:  "Your comment was posted",
		FailureTitle: "Error",
		FailureBody:  "Your comment was not posted",
	}
}

// Config wires a Controller.
type Config struct {
	Transport Transport
	Scheduler Scheduler
	// BaseURL resolves a relative form action. Nil sends the action as-is.
	BaseURL *url.URL
	// Messages overrides the notice texts; zero fields use DefaultMessages.
	Messages Messages
	// OnSettled runs on the scheduler after the notice is inserted (and,
	// on success, after the form is reset).
	OnSettled func(Outcome)
	Logger    *slog.Logger
}

// Controller handles submit events of one form for the life of the document.
type Controller struct {
	ctx      context.Context
	form     Form
	cfg      Config
	log      *slog.Logger
	inFlight int // scheduler goroutine only
}

// Bind registers the submit listener on form. ctx bounds every request the
// controller issues. Bind must run on the scheduler goroutine.
func Bind(ctx context.Context, form Form, cfg Config) (*Controller, error) {
	if form == nil {
		return nil, ErrNoForm
	}
	if cfg.Transport == nil {
		return nil, ErrNoTransport
	}
	if cfg.Scheduler == nil {
		return nil, ErrNoScheduler
	}
	cfg.Messages = withDefaults(cfg.Messages)
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller{
		ctx:  ctx,
		form: form,
		cfg:  cfg,
		log:  logger.With("component", "submission"),
	}
	form.OnSubmit(c.handleSubmit)
	return c, nil
}

func withDefaults(m Messages) Messages {
	d := DefaultMessages()
	if m.SuccessTitle == "" {
		m.SuccessTitle = d.SuccessTitle
	}
	if m.SuccessBody == "" {
		m.SuccessBody = d.SuccessBody
	}
	if m.FailureTitle == "" {
		m.FailureTitle = d.FailureTitle
	}
	if m.FailureBody == "" {
		m.FailureBody = d.FailureBody
	}
	return m
}

// InFlight returns the number of submissions awaiting a response. Call it
// on the scheduler goroutine.
func (c *Controller) InFlight() int { return c.inFlight }

func (c *Controller) handleSubmit(ev dom.Event) {
	ev.PreventDefault()

	snap := c.form.Snapshot()
	action := c.resolve(c.form.Action())
	c.inFlight++
	c.log.Debug("comment submission started", "action", action, "in_flight", c.inFlight)

	go func() {
		out := c.cfg.Transport.Send(c.ctx, action, snap)
		if !c.cfg.Scheduler.Post(func() { c.settle(out) }) {
			c.log.Debug("scheduler closed, outcome dropped", "result", out.Result.String())
		}
	}()
}

func (c *Controller) resolve(action string) string {
	if c.cfg.BaseURL == nil {
		return action
	}
	ref, err := url.Parse(action)
	if err != nil {
		return action
	}
	return c.cfg.BaseURL.ResolveReference(ref).String()
}

func (c *Controller) settle(out Outcome) {
	c.inFlight--

	sev, title, body := notice.Danger, c.cfg.Messages.FailureTitle, c.cfg.Messages.FailureBody
	if out.OK() {
		sev, title, body = notice.Success, c.cfg.Messages.SuccessTitle, c.cfg.Messages.SuccessBody
	} else {
		c.log.Debug("comment submission failed", "error", out.Err)
	}

	if err := c.form.InsertBefore(notice.MustMake(sev, title, body)); err != nil {
		c.log.Warn("notice not inserted", "error", err)
	}
	// The reset follows the insertion so the notice never trails cleared fields.
	if out.OK() {
		c.form.Reset()
	}

	if c.cfg.OnSettled != nil {
		c.cfg.OnSettled(out)
	}
}
