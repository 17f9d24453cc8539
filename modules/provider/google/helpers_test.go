package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/flemzord/gemgate/internal/provider"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// genai links opencensus, whose stats worker starts in init and never exits.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

const testAPIKey = "test-key"

// seqIDs returns an id generator yielding id-0, id-1, ...
func seqIDs() func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		id := fmt.Sprintf("id-%d", n)
		n++
		return id
	}
}

func newTestProvider(t *testing.T, handler http.Handler) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(Options{
		APIKey:       testAPIKey,
		BaseURL:      srv.URL + "/",
		GenerateID:   seqIDs(),
		HTTPClient:   srv.Client(),
		StreamClient: srv.Client(),
	})
}

func newTestModel(t *testing.T, handler http.Handler) *LanguageModel {
	t.Helper()
	return newTestProvider(t, handler).LanguageModel("gemini-pro", Settings{})
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func writeRaw(t *testing.T, w http.ResponseWriter, status int, body string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := io.WriteString(w, body); err != nil {
		t.Errorf("failed to write response: %v", err)
	}
}

// readRequestBody decodes the request body into a generic map so tests
// assert on the exact wire shape.
func readRequestBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("reading request body: %v", err)
	}
	var req map[string]any
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("invalid request body: %v", err)
	}
	return req
}

func writeSSE(t *testing.T, w http.ResponseWriter, chunks []string) {
	t.Helper()
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)

	for _, c := range chunks {
		if _, err := io.WriteString(w, "data: "+c+"\n\n"); err != nil {
			t.Errorf("failed to write SSE chunk: %v", err)
			return
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

// drain reads every event until the channel closes.
func drain(events <-chan provider.StreamEvent) []provider.StreamEvent {
	var out []provider.StreamEvent
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func eventTypes(events []provider.StreamEvent) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.EventType()
	}
	return out
}

func userText(text string) provider.Message {
	return provider.UserMessage(provider.TextPart{Text: text})
}

func ptr[T any](v T) *T { return &v }

// recordingObserver collects call records.
type recordingObserver struct {
	mu      sync.Mutex
	records []provider.CallRecord
}

func (o *recordingObserver) ObserveCall(_ context.Context, rec provider.CallRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, rec)
}

func (o *recordingObserver) all() []provider.CallRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]provider.CallRecord(nil), o.records...)
}
