// Package google adapts the provider abstraction to the Google Generative
// Language API (generateContent, streamGenerateContent and
// batchEmbedContents) and registers the provider.google module.
package google

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/flemzord/gemgate/internal/provider"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultAPIKeyEnv is the environment variable read when no key is configured.
const DefaultAPIKeyEnv = "GOOGLE_GENERATIVE_AI_API_KEY"

const instrumentationName = "github.com/flemzord/gemgate/modules/provider/google"

// Compile-time interface guards.
var (
	_ provider.LanguageModel  = (*LanguageModel)(nil)
	_ provider.HealthChecker  = (*LanguageModel)(nil)
	_ provider.URLSupporter   = (*LanguageModel)(nil)
	_ provider.EmbeddingModel = (*EmbeddingModel)(nil)
)

// Options configures New. Zero values select the defaults.
type Options struct {
	// APIKey is sent as x-goog-api-key. When empty the key is read from
	// APIKeyEnv on every request.
	APIKey string

	// APIKeyEnv defaults to DefaultAPIKeyEnv.
	APIKeyEnv string

	// BaseURL defaults to DefaultBaseURL. A trailing slash is removed.
	BaseURL string

	// Headers are added to every request.
	Headers map[string]string

	// GenerateID produces tool call and source ids. Defaults to uuid.NewString.
	GenerateID func() string

	// HTTPClient serves generate and embed requests.
	HTTPClient *http.Client

	// StreamClient serves streaming requests. It should have no Timeout,
	// which would cut long streams; cancellation goes through the context.
	// Defaults to HTTPClient when that is set, else a fresh client.
	StreamClient *http.Client

	Logger         *slog.Logger
	Observer       provider.Observer
	TracerProvider trace.TracerProvider
}

// Provider creates language and embedding models that share one
// configuration.
type Provider struct {
	apiKey       string
	apiKeyEnv    string
	baseURL      string
	headers      map[string]string
	generateID   func() string
	client       *http.Client
	streamClient *http.Client
	logger       *slog.Logger
	tracer       trace.Tracer

	mu       sync.RWMutex
	observer provider.Observer
}

// New returns a Provider. It does not contact the API; a missing key is
// reported by the first request.
func New(opts Options) *Provider {
	p := &Provider{
		apiKey:       opts.APIKey,
		apiKeyEnv:    opts.APIKeyEnv,
		baseURL:      withoutTrailingSlash(opts.BaseURL),
		headers:      opts.Headers,
		generateID:   opts.GenerateID,
		client:       opts.HTTPClient,
		streamClient: opts.StreamClient,
		logger:       opts.Logger,
		observer:     opts.Observer,
	}
	if p.apiKeyEnv == "" {
		p.apiKeyEnv = DefaultAPIKeyEnv
	}
	if p.baseURL == "" {
		p.baseURL = DefaultBaseURL
	}
	if p.generateID == nil {
		p.generateID = uuid.NewString
	}
	if p.client == nil {
		p.client = &http.Client{}
	}
	if p.streamClient == nil {
		if opts.HTTPClient != nil {
			p.streamClient = opts.HTTPClient
		} else {
			p.streamClient = &http.Client{}
		}
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	p.tracer = tp.Tracer(instrumentationName)
	return p
}

// LanguageModel returns a model for id, e.g. "gemini-2.0-flash" or a full
// resource path such as "tunedModels/my-model".
func (p *Provider) LanguageModel(id string, settings Settings) *LanguageModel {
	return &LanguageModel{p: p, id: id, settings: settings}
}

// EmbeddingModel returns an embedding model for id, e.g. "text-embedding-004".
func (p *Provider) EmbeddingModel(id string, settings EmbeddingSettings) *EmbeddingModel {
	return &EmbeddingModel{p: p, id: id, settings: settings}
}

// SetObserver replaces the call observer. It is safe to call while
// requests are in flight.
func (p *Provider) SetObserver(o provider.Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observer = o
}

func (p *Provider) observe(ctx context.Context, rec provider.CallRecord) {
	p.mu.RLock()
	obs := p.observer
	p.mu.RUnlock()
	if obs != nil {
		obs.ObserveCall(ctx, rec)
	}
}

// LanguageModel generates content with one Gemini model.
type LanguageModel struct {
	p        *Provider
	id       string
	settings Settings
}

// Provider implements provider.LanguageModel.
func (m *LanguageModel) Provider() string { return ProviderName }

// ModelID implements provider.LanguageModel.
func (m *LanguageModel) ModelID() string { return m.id }

// Derive returns a copy of m for model id with its settings adjusted by
// adjust. An empty id keeps the current model; adjust may be nil.
func (m *LanguageModel) Derive(id string, adjust func(*Settings)) *LanguageModel {
	cp := *m
	if id != "" {
		cp.id = id
	}
	if adjust != nil {
		adjust(&cp.settings)
	}
	return &cp
}

// SupportsURL reports whether u can be passed by reference. Only Files
// API URLs qualify; other URLs are still forwarded as file data.
func (m *LanguageModel) SupportsURL(u string) bool { return isSupportedFileURL(u) }
