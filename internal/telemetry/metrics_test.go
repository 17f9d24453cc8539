package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/flemzord/gemgate/internal/provider"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_ObserveCall(t *testing.T) {
	m := NewMetrics()

	m.ObserveCall(context.Background(), provider.CallRecord{
		Provider:     "google.generative-ai",
		Model:        "gemini-pro",
		Operation:    provider.OperationGenerate,
		FinishReason: provider.FinishReasonStop,
		Usage:        provider.Usage{PromptTokens: 10, CompletionTokens: 4},
		Duration:     300 * time.Millisecond,
	})
	m.ObserveCall(context.Background(), provider.CallRecord{
		Provider:  "google.generative-ai",
		Model:     "gemini-pro",
		Operation: provider.OperationStream,
		Usage:     provider.UnknownUsage(),
		Err:       &provider.APIError{StatusCode: 429},
	})
	m.ObserveCall(context.Background(), provider.CallRecord{
		Provider:  "google.generative-ai",
		Model:     "text-embedding-004",
		Operation: provider.OperationEmbed,
		Usage:     provider.UnknownUsage(),
		Values:    3,
	})

	if got := testutil.ToFloat64(m.calls.WithLabelValues("google.generative-ai", "gemini-pro", "generate", "ok", "stop")); got != 1 {
		t.Errorf("generate ok calls = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.calls.WithLabelValues("google.generative-ai", "gemini-pro", "stream", "rate_limited", "")); got != 1 {
		t.Errorf("rate limited stream calls = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.tokens.WithLabelValues("google.generative-ai", "gemini-pro", "prompt")); got != 10 {
		t.Errorf("prompt tokens = %v, want 10", got)
	}
	if got := testutil.ToFloat64(m.tokens.WithLabelValues("google.generative-ai", "gemini-pro", "completion")); got != 4 {
		t.Errorf("completion tokens = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.embedValues.WithLabelValues("google.generative-ai", "text-embedding-004")); got != 3 {
		t.Errorf("embedded values = %v, want 3", got)
	}
	// Unknown usage must not create token series.
	if n := testutil.CollectAndCount(m.tokens); n != 2 {
		t.Errorf("token series = %d, want 2", n)
	}
}

func TestMetrics_ObserveRequest(t *testing.T) {
	m := NewMetrics()
	m.ObserveRequest(http.MethodPost, "/v1/generate", http.StatusOK, 50*time.Millisecond)
	m.ObserveRequest(http.MethodPost, "/v1/generate", http.StatusBadRequest, time.Millisecond)
	m.ObserveRequest(http.MethodPost, "/v1/generate", http.StatusOK, time.Millisecond)

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/v1/generate", "200")); got != 2 {
		t.Errorf("200 requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/v1/generate", "400")); got != 1 {
		t.Errorf("400 requests = %v, want 1", got)
	}

	m.StreamOpened()
	m.StreamOpened()
	m.StreamClosed()
	if got := testutil.ToFloat64(m.streamsOpen); got != 1 {
		t.Errorf("open streams = %v, want 1", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.ObserveCall(context.Background(), provider.CallRecord{
		Provider: "p", Model: "m", Operation: provider.OperationGenerate, Usage: provider.UnknownUsage(),
	})

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		"gemgate_provider_calls_total",
		"gemgate_provider_call_duration_seconds",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %s", want)
		}
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{context.Canceled, "canceled"},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), "canceled"},
		{&provider.APIError{StatusCode: 429}, "rate_limited"},
		{&provider.APIError{StatusCode: 401}, "auth_error"},
		{&provider.APIError{StatusCode: 503}, "unavailable"},
		{&provider.APIError{StatusCode: 400}, "error"},
		{provider.ErrUnsupported, "invalid_request"},
		{&provider.TooManyValuesError{}, "invalid_request"},
		{&provider.SchemaValidationError{}, "bad_response"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		if got := outcome(tt.err); got != tt.want {
			t.Errorf("outcome(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
