package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/flemzord/gemgate/internal/provider"
)

func TestEmbed(t *testing.T) {
	var (
		gotPath string
		body    map[string]any
	)
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body = readRequestBody(t, r)
		writeRaw(t, w, http.StatusOK, `{"embeddings":[{"values":[0.1,0.2]},{"values":[0.3,0.4]}]}`)
	}))
	em := p.EmbeddingModel("text-embedding-004", EmbeddingSettings{
		OutputDimensionality: ptr(2),
		TaskType:             "RETRIEVAL_QUERY",
	})

	res, err := em.Embed(context.Background(), provider.EmbedOptions{Values: []string{"sunny day", "rainy day"}})
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}

	if gotPath != "/models/text-embedding-004:batchEmbedContents" {
		t.Errorf("path = %q", gotPath)
	}
	want := `{"requests":[` +
		`{"content":{"parts":[{"text":"sunny day"}],"role":"user"},"model":"models/text-embedding-004","outputDimensionality":2,"taskType":"RETRIEVAL_QUERY"},` +
		`{"content":{"parts":[{"text":"rainy day"}],"role":"user"},"model":"models/text-embedding-004","outputDimensionality":2,"taskType":"RETRIEVAL_QUERY"}` +
		`]}`
	if got := marshalString(t, body); got != want {
		t.Errorf("body =\n%s\nwant\n%s", got, want)
	}
	if len(res.Embeddings) != 2 || res.Embeddings[0][0] != 0.1 || res.Embeddings[1][1] != 0.4 {
		t.Errorf("Embeddings = %v", res.Embeddings)
	}
}

func TestEmbed_TooManyValues(t *testing.T) {
	em := newTestProvider(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	})).EmbeddingModel("text-embedding-004", EmbeddingSettings{})

	values := make([]string, maxEmbeddingsPerCall+1)
	_, err := em.Embed(context.Background(), provider.EmbedOptions{Values: values})
	if !errors.Is(err, provider.ErrTooManyValues) {
		t.Fatalf("err = %v, want ErrTooManyValues", err)
	}
	var tmv *provider.TooManyValuesError
	if !errors.As(err, &tmv) {
		t.Fatalf("err = %T, want *provider.TooManyValuesError", err)
	}
	if tmv.MaxEmbeddingsPerCall != 2048 || tmv.Values != 2049 || tmv.Provider != ProviderName || tmv.ModelID != "text-embedding-004" {
		t.Errorf("TooManyValuesError = %+v", tmv)
	}
}

func TestEmbed_MaxValues(t *testing.T) {
	em := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := len(readRequestBody(t, r)["requests"].([]any))
		var sb strings.Builder
		sb.WriteString(`{"embeddings":[`)
		for i := range n {
			if i > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(&sb, `{"values":[%d]}`, i)
		}
		sb.WriteString(`]}`)
		writeRaw(t, w, http.StatusOK, sb.String())
	})).EmbeddingModel("text-embedding-004", EmbeddingSettings{})

	values := make([]string, maxEmbeddingsPerCall)
	for i := range values {
		values[i] = fmt.Sprintf("v%d", i)
	}
	res, err := em.Embed(context.Background(), provider.EmbedOptions{Values: values})
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if len(res.Embeddings) != maxEmbeddingsPerCall {
		t.Fatalf("got %d embeddings, want %d", len(res.Embeddings), maxEmbeddingsPerCall)
	}
	for i, e := range res.Embeddings {
		if e[0] != float64(i) {
			t.Fatalf("Embeddings[%d] = %v, want [%d]", i, e, i)
		}
	}
}

func TestEmbed_InvalidSettings(t *testing.T) {
	em := New(Options{APIKey: "k"}).EmbeddingModel("text-embedding-004", EmbeddingSettings{TaskType: "POETRY"})
	_, err := em.Embed(context.Background(), provider.EmbedOptions{Values: []string{"x"}})
	if !errors.Is(err, provider.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestEmbed_ResponseMismatch(t *testing.T) {
	tests := map[string]string{
		"count mismatch": `{"embeddings":[{"values":[1]}]}`,
		"missing values": `{"embeddings":[{"values":[1]},{}]}`,
		"no embeddings":  `{}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			em := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeRaw(t, w, http.StatusOK, body)
			})).EmbeddingModel("text-embedding-004", EmbeddingSettings{})
			_, err := em.Embed(context.Background(), provider.EmbedOptions{Values: []string{"a", "b"}})
			if !errors.Is(err, provider.ErrSchemaValidation) {
				t.Fatalf("err = %v, want ErrSchemaValidation", err)
			}
		})
	}
}

func TestEmbedMany_SplitsIntoCalls(t *testing.T) {
	var calls atomic.Int32
	obs := &recordingObserver{}
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		reqs := readRequestBody(t, r)["requests"].([]any)
		var sb strings.Builder
		sb.WriteString(`{"embeddings":[`)
		for i, req := range reqs {
			if i > 0 {
				sb.WriteByte(',')
			}
			text := req.(map[string]any)["content"].(map[string]any)["parts"].([]any)[0].(map[string]any)["text"].(string)
			fmt.Fprintf(&sb, `{"values":[%s]}`, strings.TrimPrefix(text, "v"))
		}
		sb.WriteString(`]}`)
		writeRaw(t, w, http.StatusOK, sb.String())
	}))
	p.SetObserver(obs)
	em := p.EmbeddingModel("text-embedding-004", EmbeddingSettings{})

	values := make([]string, maxEmbeddingsPerCall*2+5)
	for i := range values {
		values[i] = fmt.Sprintf("v%d", i)
	}
	got, err := provider.EmbedMany(context.Background(), em, values, nil, 2)
	if err != nil {
		t.Fatalf("EmbedMany() error: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
	if len(got) != len(values) {
		t.Fatalf("got %d vectors, want %d", len(got), len(values))
	}
	for i, v := range got {
		if v[0] != float64(i) {
			t.Fatalf("vector %d = %v, out of order", i, v)
		}
	}
	total := 0
	for _, rec := range obs.all() {
		if rec.Operation != provider.OperationEmbed {
			t.Errorf("operation = %q", rec.Operation)
		}
		total += rec.Values
	}
	if total != len(values) {
		t.Errorf("observed values = %d, want %d", total, len(values))
	}
}

func TestEmbed_WithOutputDimensionality(t *testing.T) {
	var body map[string]any
	base := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body = readRequestBody(t, r)
		writeRaw(t, w, http.StatusOK, `{"embeddings":[{"values":[1,2,3]}]}`)
	})).EmbeddingModel("text-embedding-004", EmbeddingSettings{TaskType: "CLUSTERING"})

	em := base.WithOutputDimensionality(3)
	if _, err := em.Embed(context.Background(), provider.EmbedOptions{Values: []string{"x"}}); err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	req := body["requests"].([]any)[0].(map[string]any)
	if req["outputDimensionality"] != float64(3) || req["taskType"] != "CLUSTERING" {
		t.Errorf("request = %v", req)
	}
	if base.settings.OutputDimensionality != nil {
		t.Error("base model settings must not change")
	}
}

func TestEmbeddingModel_Derive(t *testing.T) {
	base := New(Options{APIKey: "k"}).EmbeddingModel("text-embedding-004", EmbeddingSettings{})
	d := base.Derive("", func(s *EmbeddingSettings) { s.TaskType = "CLUSTERING" })
	if d.ModelID() != "text-embedding-004" || d.settings.TaskType != "CLUSTERING" {
		t.Errorf("derived = %+v", d)
	}
	if base.settings.TaskType != "" {
		t.Error("base model must not change")
	}
}
