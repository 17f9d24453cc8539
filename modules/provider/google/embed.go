package google

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/flemzord/gemgate/internal/provider"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// maxEmbeddingsPerCall is the batchEmbedContents request cap.
const maxEmbeddingsPerCall = 2048

// EmbeddingModel embeds text with batchEmbedContents.
type EmbeddingModel struct {
	p        *Provider
	id       string
	settings EmbeddingSettings
}

// Provider implements provider.EmbeddingModel.
func (m *EmbeddingModel) Provider() string { return ProviderName }

// ModelID implements provider.EmbeddingModel.
func (m *EmbeddingModel) ModelID() string { return m.id }

// MaxEmbeddingsPerCall implements provider.EmbeddingModel.
func (m *EmbeddingModel) MaxEmbeddingsPerCall() int { return maxEmbeddingsPerCall }

// SupportsParallelCalls implements provider.EmbeddingModel.
func (m *EmbeddingModel) SupportsParallelCalls() bool { return true }

// WithOutputDimensionality returns a copy of m that truncates embeddings
// to n values.
func (m *EmbeddingModel) WithOutputDimensionality(n int) provider.EmbeddingModel {
	cp := *m
	cp.settings.OutputDimensionality = &n
	return &cp
}

// Derive returns a copy of m for model id with its settings adjusted by
// adjust. An empty id keeps the current model; adjust may be nil.
func (m *EmbeddingModel) Derive(id string, adjust func(*EmbeddingSettings)) *EmbeddingModel {
	cp := *m
	if id != "" {
		cp.id = id
	}
	if adjust != nil {
		adjust(&cp.settings)
	}
	return &cp
}

// Embed implements provider.EmbeddingModel. Vectors are returned in input
// order.
func (m *EmbeddingModel) Embed(ctx context.Context, opts provider.EmbedOptions) (res *provider.EmbedResult, err error) {
	if len(opts.Values) > maxEmbeddingsPerCall {
		return nil, &provider.TooManyValuesError{
			Provider:             ProviderName,
			ModelID:              m.id,
			MaxEmbeddingsPerCall: maxEmbeddingsPerCall,
			Values:               len(opts.Values),
		}
	}
	if err := m.settings.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, span := m.p.tracer.Start(ctx, "google.embed", trace.WithAttributes(
		attribute.String("gen_ai.system", ProviderName),
		attribute.String("gen_ai.request.model", m.id),
		attribute.Int("gen_ai.embeddings.values", len(opts.Values)),
	))
	defer func() {
		rec := provider.CallRecord{
			Provider:  ProviderName,
			Model:     m.id,
			Operation: provider.OperationEmbed,
			Usage:     provider.UnknownUsage(),
			Values:    len(opts.Values),
			Duration:  time.Since(start),
			Err:       err,
		}
		endSpan(span, rec)
		m.p.observe(ctx, rec)
	}()

	req := batchEmbedRequest{Requests: make([]embedRequest, len(opts.Values))}
	for i, v := range opts.Values {
		req.Requests[i] = embedRequest{
			Model:                "models/" + m.id,
			Content:              content{Role: roleUser, Parts: parts{textPart{Text: v}}},
			OutputDimensionality: m.settings.OutputDimensionality,
			TaskType:             m.settings.TaskType,
		}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("google: marshal request: %w", err)
	}

	url := m.p.baseURL + "/models/" + m.id + ":batchEmbedContents"
	out, err := m.p.doPost(ctx, url, body, opts.Headers)
	if err != nil {
		return nil, err
	}

	resp, err := decodeEmbedResponse(out.body, len(opts.Values))
	if err != nil {
		return nil, err
	}

	embeddings := make([][]float64, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		embeddings[i] = e.Values
	}
	return &provider.EmbedResult{
		Embeddings: embeddings,
		Response:   provider.ResponseInfo{Headers: out.headers},
	}, nil
}
