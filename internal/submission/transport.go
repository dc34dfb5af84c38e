package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/commentform/backend/internal/model"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"
	acceptJSON      = "application/json"

	// maxResponseBytes bounds how much of the response body is read to check
	// that it is well-formed JSON.
	maxResponseBytes = 1 << 20
)

var (
	// ErrStatus is wrapped by failures caused by a non-2xx response.
	ErrStatus = errors.New("submission: unexpected status")
	// ErrMalformedResponse is wrapped by failures caused by a body that is not JSON.
	ErrMalformedResponse = errors.New("submission: malformed response body")
)

// Transport delivers a snapshot to the form's action URL. Send blocks until
// the request resolves and always returns exactly one Outcome.
type Transport interface {
	Send(ctx context.Context, action string, snap model.FormSnapshot) Outcome
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, action string, snap model.FormSnapshot) Outcome

func (f TransportFunc) Send(ctx context.Context, action string, snap model.FormSnapshot) Outcome {
	return f(ctx, action, snap)
}

// HTTPTransport posts snapshots as JSON.
type HTTPTransport struct {
	httpClient *http.Client
}

// NewHTTPTransport creates an HTTPTransport. A nil client gets a 30s timeout;
// a request that exceeds it resolves as a failure.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPTransport{httpClient: client}
}

// Send POSTs snap to action. Any 2xx response whose body is JSON (or a 204
// with no body) is a success; the body content is otherwise ignored.
func (t *HTTPTransport) Send(ctx context.Context, action string, snap model.FormSnapshot) Outcome {
	payload, err := json.Marshal(snap)
	if err != nil {
		return Failure(fmt.Errorf("submission: marshal: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, action, bytes.NewReader(payload))
	if err != nil {
		return Failure(fmt.Errorf("submission: new request: %w", err))
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", acceptJSON)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return Failure(fmt.Errorf("submission: request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Failure(fmt.Errorf("submission: read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Failure(fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode))
	}
	if resp.StatusCode == http.StatusNoContent && len(bytes.TrimSpace(body)) == 0 {
		return Success()
	}
	if !json.Valid(body) {
		return Failure(ErrMalformedResponse)
	}
	return Success()
}
