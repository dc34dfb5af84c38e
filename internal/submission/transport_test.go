package submission

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/commentform/backend/internal/model"
)

func TestHTTPTransport_Send(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantOK  bool
		wantErr error
	}{
		{"200 empty object", http.StatusOK, `{}`, true, nil},
		{"201 created comment", http.StatusCreated, `{"id":1,"body":"hi"}`, true, nil},
		{"204 no content", http.StatusNoContent, ``, true, nil},
		{"200 malformed body", http.StatusOK, `<html>oops</html>`, false, ErrMalformedResponse},
		{"200 empty body", http.StatusOK, ``, false, ErrMalformedResponse},
		{"400 validation error", http.StatusBadRequest, `{"error":"email_required"}`, false, ErrStatus},
		{"300 multiple choices", http.StatusMultipleChoices, `{}`, false, ErrStatus},
		{"500 server error", http.StatusInternalServerError, `{}`, false, ErrStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			out := NewHTTPTransport(srv.Client()).Send(context.Background(), srv.URL+"/api/comment", model.FormSnapshot{Name: "Alice"})
			if out.OK() != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v (%v)", tt.wantOK, out.Result, out.Err)
			}
			if tt.wantErr != nil && !errors.Is(out.Err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, out.Err)
			}
		})
	}
}

func TestHTTPTransport_Timeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	client := srv.Client()
	client.Timeout = 50 * time.Millisecond
	out := NewHTTPTransport(client).Send(context.Background(), srv.URL, model.FormSnapshot{})
	if out.OK() {
		t.Fatal("expected a timed-out request to fail")
	}
}

func TestHTTPTransport_InvalidAction(t *testing.T) {
	out := NewHTTPTransport(nil).Send(context.Background(), "://bad", model.FormSnapshot{})
	if out.OK() {
		t.Fatal("expected failure for an invalid action URL")
	}
}

func TestResult_String(t *testing.T) {
	if Succeeded.String() != "success" || Failed.String() != "failure" {
		t.Errorf("unexpected names %q %q", Succeeded, Failed)
	}
	if Result(0).String() != "Result(0)" {
		t.Errorf("unexpected zero name %q", Result(0))
	}
}
