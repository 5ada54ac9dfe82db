package escalation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Damatnic/astral-core-v2-sub013/pkg/retry"
)

func initiateReq() InitiateRequest {
	return InitiateRequest{
		EscalationID: "esc-1",
		Tier:         TierEmergencyServices,
		Trigger:      TriggerSuicideAttempt,
		UserID:       "user-1",
		Severity:     "emergency",
	}
}

func TestHTTPBackendAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/escalations" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key-1" {
			t.Errorf("authorization = %q", got)
		}
		var req InitiateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(InitiateResponse{ResponderID: "resp-9", Accepted: true})
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL, "key-1", time.Second)
	resp, err := b.Initiate(context.Background(), initiateReq())
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if resp.ResponderID != "resp-9" {
		t.Errorf("responder = %s", resp.ResponderID)
	}
}

func TestHTTPBackendRejectionCarriesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown tier: emergency-services", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL, "", time.Second)
	_, err := b.Initiate(context.Background(), initiateReq())
	if err == nil {
		t.Fatal("expected a rejection error")
	}
	if retry.IsTransient(err) {
		t.Error("a 4xx rejection must not be retried")
	}
	if !strings.Contains(err.Error(), "422") || !strings.Contains(err.Error(), "unknown tier") {
		t.Errorf("error should carry the status and the backend's reason: %q", err)
	}
}

func TestHTTPBackendServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL, "", time.Second)
	_, err := b.Initiate(context.Background(), initiateReq())
	if err == nil {
		t.Fatal("expected an error")
	}
	if !retry.IsTransient(err) {
		t.Errorf("5xx must be transient: %v", err)
	}
}

func TestHTTPBackendDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(InitiateResponse{Accepted: false})
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL, "", time.Second)
	_, err := b.Initiate(context.Background(), initiateReq())
	if err == nil {
		t.Fatal("a declined dispatch is an error")
	}
	if retry.IsTransient(err) {
		t.Error("a decline must not be retried")
	}
}
