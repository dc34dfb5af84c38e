// Command commentsubmit fills in the comment form of an entry page and
// submits it the way the browser module does: the native submission is
// cancelled, the values are posted as JSON and the outcome is shown as an
// inline notice.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/commentform/backend/internal/config"
	"github.com/commentform/backend/internal/dom"
	"github.com/commentform/backend/internal/eventloop"
	"github.com/commentform/backend/internal/logging"
	"github.com/commentform/backend/internal/notice"
	"github.com/commentform/backend/internal/submission"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	page    string
	base    string
	formID  string
	timeout time.Duration
	values  map[dom.Field]*string
}

func parseFlags(args []string, stderr io.Writer, defaultBase string) (*options, error) {
	fs := flag.NewFlagSet("commentsubmit", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{values: make(map[dom.Field]*string)}
	fs.StringVar(&o.page, "page", "", "entry page to load: a file path or an http(s) URL")
	fs.StringVar(&o.base, "base", defaultBase, "base URL for a relative form action when -page is a file")
	fs.StringVar(&o.formID, "form", dom.DefaultFormID, "id of the comment form")
	fs.DurationVar(&o.timeout, "timeout", 30*time.Second, "overall time limit")
	o.values[dom.FieldName] = fs.String("name", "", "commenter name")
	o.values[dom.FieldEmail] = fs.String("email", "", "commenter email")
	o.values[dom.FieldURL] = fs.String("url", "", "commenter website")
	o.values[dom.FieldBody] = fs.String("body", "", "comment text")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.page == "" {
		return nil, errors.New("-page is required")
	}
	// Only flags given on the command line overwrite the page's values.
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	for field := range o.values {
		if !set[string(field)] {
			delete(o.values, field)
		}
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return 2
	}
	logger := logging.New(stderr, cfg.LogLevel)

	opts, err := parseFlags(args, stderr, cfg.FrontendURL)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	client := &http.Client{Timeout: opts.timeout}
	doc, base, err := loadPage(ctx, client, opts.page, opts.base)
	if err != nil {
		logger.Error("load page", "page", opts.page, "error", err)
		return 2
	}

	loop := eventloop.New()
	go func() { _ = loop.Run(ctx) }()
	defer loop.Close()

	settled := make(chan submission.Outcome, 1)
	var form *dom.Form
	var setupErr error
	err = loop.Do(ctx, func() {
		form, setupErr = doc.Form(opts.formID)
		if setupErr != nil {
			return
		}
		_, setupErr = submission.Bind(ctx, form, submission.Config{
			Transport: submission.NewHTTPTransport(client),
			Scheduler: loop,
			BaseURL:   base,
			Logger:    logger,
			OnSettled: func(out submission.Outcome) { settled <- out },
		})
		if setupErr != nil {
			return
		}
		for field, v := range opts.values {
			form.SetValue(field, *v)
		}
		form.Submit()
	})
	if err == nil {
		err = setupErr
	}
	if err != nil {
		logger.Error("bind comment form", "error", err)
		return 2
	}

	var out submission.Outcome
	select {
	case out = <-settled:
	case <-ctx.Done():
		logger.Error("submission did not settle", "error", ctx.Err())
		return 1
	}

	if err := loop.Do(ctx, func() { report(stdout, form) }); err != nil {
		logger.Error("report", "error", err)
	}
	if !out.OK() {
		logger.Debug("submission failed", "error", out.Err)
		return 1
	}
	return 0
}

// loadPage parses the page and returns the URL relative form actions
// resolve against.
func loadPage(ctx context.Context, client *http.Client, page, base string) (*dom.Document, *url.URL, error) {
	if strings.HasPrefix(page, "http://") || strings.HasPrefix(page, "https://") {
		u, err := url.Parse(page)
		if err != nil {
			return nil, nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, page, nil)
		if err != nil {
			return nil, nil, err
		}
		req.Header.Set("Accept", "text/html")
		resp, err := client.Do(req)
		if err != nil {
			return nil, nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, nil, fmt.Errorf("GET %s: status %d", page, resp.StatusCode)
		}
		doc, err := dom.Parse(resp.Body)
		return doc, u, err
	}

	f, err := os.Open(page)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	doc, err := dom.Parse(f)
	if err != nil {
		return nil, nil, err
	}
	if base == "" {
		return doc, nil, nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, nil, fmt.Errorf("-base: %w", err)
	}
	return doc, u, nil
}

func report(w io.Writer, form *dom.Form) {
	for _, n := range form.Notices() {
		fmt.Fprintf(w, "[%s] %s: %s\n", notice.SeverityOf(n), notice.TitleOf(n), notice.BodyOf(n))
	}
	for _, field := range dom.Fields {
		fmt.Fprintf(w, "%s=%q\n", field, form.Value(field))
	}
}
