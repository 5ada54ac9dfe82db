package escalation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Damatnic/astral-core-v2-sub013/pkg/httputil"
	"github.com/Damatnic/astral-core-v2-sub013/pkg/retry"
)

// InitiateRequest is what the workflow sends to the responder backend.
type InitiateRequest struct {
	EscalationID string            `json:"escalationId"`
	Tier         Tier              `json:"tier"`
	Trigger      Trigger           `json:"trigger"`
	UserID       string            `json:"userId"`
	Severity     string            `json:"severity"`
	Context      map[string]string `json:"context,omitempty"`
}

// InitiateResponse is the backend's acceptance.
type InitiateResponse struct {
	ResponderID string `json:"responderId"`
	Accepted    bool   `json:"accepted"`
}

// Backend dispatches an escalation to a responder system.
type Backend interface {
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error)
}

// BackendError is a dispatch failure as a value. Transient failures (network,
// 5xx, timeout) are retried once; everything else is not.
type BackendError struct {
	Op        string
	Reason    string
	Transient bool
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("escalation backend %s: %s", e.Op, e.Reason)
}

// HTTPBackend dispatches over HTTP on the short-timeout client tier. The
// responder system is the slow dependency on the crisis path; the dispatch
// tier keeps a hung backend from holding an analysis open.
type HTTPBackend struct {
	url    string
	apiKey string
	client *http.Client
}

func NewHTTPBackend(url, apiKey string, timeout time.Duration) *HTTPBackend {
	client := httputil.DispatchClient()
	if timeout > 0 {
		client = httputil.NewClient(timeout)
	}
	return &HTTPBackend{url: url, apiKey: apiKey, client: client}
}

func (b *HTTPBackend) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &BackendError{Op: "initiate", Reason: fmt.Sprintf("encode request: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url+"/v1/escalations", bytes.NewReader(body))
	if err != nil {
		return nil, &BackendError{Op: "initiate", Reason: fmt.Sprintf("build request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, retry.MarkTransient(&BackendError{
			Op: "initiate", Reason: err.Error(), Transient: true,
		})
	}
	defer httputil.DrainAndClose(resp.Body)

	switch {
	case resp.StatusCode >= 500:
		return nil, retry.MarkTransient(&BackendError{
			Op: "initiate", Reason: fmt.Sprintf("backend returned %d", resp.StatusCode), Transient: true,
		})
	case resp.StatusCode >= 400:
		reason := fmt.Sprintf("backend rejected dispatch with %d", resp.StatusCode)
		if detail, readErr := httputil.ReadErrorBody(resp.Body); readErr == nil {
			if msg := strings.TrimSpace(string(detail)); msg != "" {
				reason = fmt.Sprintf("%s: %s", reason, msg)
			}
		}
		return nil, &BackendError{Op: "initiate", Reason: reason}
	}

	var out InitiateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &BackendError{Op: "initiate", Reason: fmt.Sprintf("decode response: %v", err)}
	}
	if !out.Accepted {
		return nil, &BackendError{Op: "initiate", Reason: "backend declined the dispatch"}
	}
	return &out, nil
}

// UnconfiguredBackend is the stand-in when no responder system is wired up.
// Every dispatch fails non-transiently, which the orchestrator reports as
// degrade-to-manual.
type UnconfiguredBackend struct{}

func (UnconfiguredBackend) Initiate(context.Context, InitiateRequest) (*InitiateResponse, error) {
	return nil, &BackendError{Op: "initiate", Reason: "escalation backend not configured"}
}
