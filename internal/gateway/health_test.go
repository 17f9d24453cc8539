package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flemzord/gemgate/internal/provider"
)

func TestHealth_Healthy(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t)
	g.health.RecordSuccess()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	g.handleHealth().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Provider != "google.generative-ai" || resp.Model != "gemini-pro" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Check == nil || resp.Check.State != "healthy" || !resp.Check.Available || resp.Check.LastCheck.IsZero() {
		t.Errorf("check = %+v", resp.Check)
	}
}

func TestHealth_Degraded(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		failures  int
		wantState string
	}{
		{"cooldown", 1, "cooldown"},
		{"dead", 2, "dead"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := newTestGateway(t)
			g.health = provider.NewHealthTracker(provider.HealthConfig{MaxFailures: 2})
			for range tt.failures {
				g.health.RecordFailure(errors.New("check failed"))
			}

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rr := httptest.NewRecorder()
			g.handleHealth().ServeHTTP(rr, req)

			if rr.Code != http.StatusServiceUnavailable {
				t.Errorf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
			}
			var resp HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != "degraded" || resp.Check.State != tt.wantState {
				t.Errorf("resp = %+v, check = %+v", resp, resp.Check)
			}
			if resp.Check.Failures != tt.failures || resp.Check.LastError != "check failed" {
				t.Errorf("check = %+v", resp.Check)
			}
		})
	}
}

func TestHealth_NoCheck(t *testing.T) {
	t.Parallel()

	g := &Gateway{}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	g.handleHealth().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Check != nil || resp.Model != "" {
		t.Errorf("resp = %+v, want bare liveness", resp)
	}
}
