package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const entryPage = `<!DOCTYPE html>
<html><body>
<form id="comment-form" action="/api/comment" method="post">
  <input id="name" name="name" value="">
  <input id="email" name="email" value="">
  <input id="url" name="url" value="">
  <textarea id="body" name="body"></textarea>
  <input type="hidden" name="entry_id" value="42">
</form>
</body></html>`

func newSite(t *testing.T, status int, got *map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /entries/42", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, entryPage)
	})
	mux.HandleFunc("POST /api/comment", func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("decode payload: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, `{}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRun_SuccessFromURL(t *testing.T) {
	var payload map[string]string
	srv := newSite(t, http.StatusCreated, &payload)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-page", srv.URL + "/entries/42",
		"-name", "Alice", "-email", "a@x.com", "-body", "hello",
	}, &stdout, &stderr)

	if code != 0 {
		t.Fatalf("expected exit 0, got %d; stderr: %s", code, stderr.String())
	}
	if payload["name"] != "Alice" || payload["entry.id"] != "42" || payload["body"] != "hello" {
		t.Errorf("unexpected payload: %v", payload)
	}
	out := stdout.String()
	if !strings.Contains(out, "[success] Success: Your comment was posted") {
		t.Errorf("missing success notice in output:\n%s", out)
	}
	// The form was reset: typed values are gone, the hidden entry id stays.
	if !strings.Contains(out, `name=""`) || !strings.Contains(out, `entry_id="42"`) {
		t.Errorf("expected reset form state:\n%s", out)
	}
}

func TestRun_FailureFromFile(t *testing.T) {
	srv := newSite(t, http.StatusInternalServerError, nil)

	page := filepath.Join(t.TempDir(), "entry.html")
	if err := os.WriteFile(page, []byte(entryPage), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-page", page, "-base", srv.URL + "/entries/42",
		"-name", "Bob", "-email", "b@x.com", "-body", "hi",
	}, &stdout, &stderr)

	if code != 1 {
		t.Fatalf("expected exit 1, got %d; stderr: %s", code, stderr.String())
	}
	out := stdout.String()
	if !strings.Contains(out, "[danger] Error: Your comment was not posted") {
		t.Errorf("missing error notice in output:\n%s", out)
	}
	if !strings.Contains(out, `name="Bob"`) {
		t.Errorf("values must survive a failure:\n%s", out)
	}
}

func TestRun_MissingPage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), nil, &stdout, &stderr); code != 2 {
		t.Errorf("expected exit 2, got %d", code)
	}
	if !strings.Contains(stderr.String(), "-page is required") {
		t.Errorf("unexpected stderr: %s", stderr.String())
	}
}

func TestRun_FormNotFound(t *testing.T) {
	srv := newSite(t, http.StatusOK, nil)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-page", srv.URL + "/entries/42", "-form", "other"}, &stdout, &stderr)
	if code != 2 {
		t.Errorf("expected exit 2, got %d", code)
	}
}

func TestParseFlags_OnlyGivenFieldsOverwrite(t *testing.T) {
	opts, err := parseFlags([]string{"-page", "x.html", "-name", ""}, io.Discard, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(opts.values) != 1 {
		t.Fatalf("expected only name to be set, got %d values", len(opts.values))
	}
	if v, ok := opts.values["name"]; !ok || *v != "" {
		t.Errorf("expected explicit empty name, got %v", opts.values)
	}
}
