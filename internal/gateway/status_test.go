package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flemzord/gemgate/internal/usage"
)

func TestStatus_ReportsUsageSinceStart(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t)
	g.startedAt = time.Now().Add(-90 * time.Second)

	ctx := context.Background()
	_ = g.ledger.Record(ctx, usage.Entry{Model: "old", PromptTokens: 100, CompletionTokens: 100, CreatedAt: g.startedAt.Add(-time.Hour)})
	_ = g.ledger.Record(ctx, usage.Entry{Model: "gemini-pro", PromptTokens: 3, CompletionTokens: 5})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rr := httptest.NewRecorder()
	g.handleStatus().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp StatusResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Uptime < 90 {
		t.Errorf("Uptime = %v, want >= 90", resp.Uptime)
	}
	if resp.Model != "gemini-pro" || resp.EmbeddingModel != "text-embedding-004" {
		t.Errorf("models = %q/%q", resp.Model, resp.EmbeddingModel)
	}
	want := usage.Totals{Calls: 1, PromptTokens: 3, CompletionTokens: 5}
	if resp.Usage == nil || *resp.Usage != want {
		t.Errorf("Usage = %+v, want %+v", resp.Usage, want)
	}
	if resp.Check == nil || resp.Check.State != "healthy" {
		t.Errorf("Check = %+v", resp.Check)
	}
}

func TestStatus_NoServices(t *testing.T) {
	t.Parallel()

	g := &Gateway{startedAt: time.Now()}

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rr := httptest.NewRecorder()
	g.handleStatus().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp StatusResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Usage != nil || resp.Check != nil || resp.Model != "" {
		t.Errorf("resp = %+v", resp)
	}
}
