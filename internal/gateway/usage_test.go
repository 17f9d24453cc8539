package gateway

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flemzord/gemgate/internal/usage"
)

func TestUsage_RecentAndTotals(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t)
	ctx := context.Background()
	for i := range 5 {
		_ = g.ledger.Record(ctx, usage.Entry{
			Model:            "gemini-pro",
			Operation:        "generate",
			PromptTokens:     float64(i),
			CompletionTokens: math.NaN(),
		})
	}
	_ = g.ledger.Record(ctx, usage.Entry{Model: "ancient", PromptTokens: 1000, CreatedAt: time.Now().Add(-48 * time.Hour)})

	req := httptest.NewRequest(http.MethodGet, "/api/usage?limit=2", nil)
	rr := httptest.NewRecorder()
	g.handleUsage().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp struct {
		Totals  usage.Totals     `json:"totals"`
		Entries []map[string]any `json:"entries"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(resp.Entries))
	}
	if resp.Entries[0]["completion_tokens"] != nil {
		t.Errorf("unknown tokens should encode as null: %v", resp.Entries[0])
	}
	if resp.Totals.Calls != 5 || resp.Totals.PromptTokens != 0+1+2+3+4 {
		t.Errorf("totals = %+v", resp.Totals)
	}
}

func TestUsage_Window(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t)
	_ = g.ledger.Record(context.Background(), usage.Entry{Model: "old", CreatedAt: time.Now().Add(-48 * time.Hour)})

	req := httptest.NewRequest(http.MethodGet, "/api/usage?window=72h", nil)
	rr := httptest.NewRecorder()
	g.handleUsage().ServeHTTP(rr, req)

	var resp UsageResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Totals.Calls != 1 {
		t.Errorf("totals = %+v, want the 48h-old call", resp.Totals)
	}
}

func TestUsage_BadQuery(t *testing.T) {
	t.Parallel()

	for _, q := range []string{"limit=0", "limit=abc", "window=-1h", "window=soon"} {
		t.Run(q, func(t *testing.T) {
			t.Parallel()

			g := newTestGateway(t)
			req := httptest.NewRequest(http.MethodGet, "/api/usage?"+q, nil)
			rr := httptest.NewRecorder()
			g.handleUsage().ServeHTTP(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
		})
	}
}

func TestUsage_NoLedger(t *testing.T) {
	t.Parallel()

	g := newTestGateway(t)
	g.ledger = nil

	req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
	rr := httptest.NewRecorder()
	g.handleUsage().ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
}
