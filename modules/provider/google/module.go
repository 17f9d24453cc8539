package google

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/flemzord/gemgate/internal/core"
	"github.com/flemzord/gemgate/internal/provider"
	"github.com/flemzord/gemgate/internal/security"
	"github.com/flemzord/gemgate/internal/telemetry"
	"github.com/flemzord/gemgate/internal/usage"
	"gopkg.in/yaml.v3"
)

// Service names published by the module.
const (
	ServiceLanguageModel  = provider.ServiceLanguageModel
	ServiceEmbeddingModel = provider.ServiceEmbeddingModel
)

// Observer services looked up at Start.
var observerServices = []string{telemetry.ServiceName, usage.ServiceName}

func init() {
	core.RegisterModule(&Module{})
}

// Interface guards.
var (
	_ core.Module       = (*Module)(nil)
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Validator    = (*Module)(nil)
	_ core.Starter      = (*Module)(nil)
	_ core.Stopper      = (*Module)(nil)
)

// Module is the provider.google module. It builds one Provider from its
// configuration and publishes the configured language and embedding
// models as services.
type Module struct {
	config   Config
	logger   *slog.Logger
	appCtx   *core.AppContext
	provider *Provider
	lm       *LanguageModel
	em       *EmbeddingModel
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "provider.google",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	return node.Decode(&m.config)
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger
	m.appCtx = ctx

	// Known keys go to the credential store so the log redactor scrubs them.
	key, err := security.LoadAPIKey(m.config.APIKey, m.config.APIKeyEnv, "Google Generative AI")
	if err == nil {
		if store, ok := core.ServiceAs[*security.CredentialStore](ctx, "security.credentials"); ok {
			store.Set("google_api_key", key)
		}
	}

	m.provider = New(Options{
		APIKey:     m.config.APIKey,
		APIKeyEnv:  m.config.APIKeyEnv,
		BaseURL:    m.config.BaseURL,
		Headers:    m.config.Headers,
		HTTPClient: &http.Client{Timeout: m.config.Timeout},
		// No timeout: an http.Client deadline covers the whole body and
		// would kill long-lived streams.
		StreamClient: &http.Client{},
		Logger:       m.logger,
	})
	m.lm = m.provider.LanguageModel(m.config.Model, m.config.settings())
	m.em = m.provider.EmbeddingModel(m.config.EmbeddingModel, m.config.embeddingSettings())

	ctx.RegisterService(ServiceLanguageModel, provider.LanguageModel(m.lm))
	ctx.RegisterService(ServiceEmbeddingModel, provider.EmbeddingModel(m.em))
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	if err := m.config.validate(); err != nil {
		return fmt.Errorf("provider.google: %w", err)
	}
	if _, err := security.LoadAPIKey(m.config.APIKey, m.config.APIKeyEnv, "Google Generative AI"); err != nil {
		return fmt.Errorf("provider.google: %w", err)
	}
	return nil
}

// Start implements core.Starter. It attaches every observer service that
// is registered by now.
func (m *Module) Start() error {
	var observers provider.Observers
	for _, name := range observerServices {
		if obs, ok := core.ServiceAs[provider.Observer](m.appCtx, name); ok {
			observers = append(observers, obs)
		}
	}
	if len(observers) > 0 {
		m.provider.SetObserver(observers)
	}
	m.logger.Info("google provider ready",
		"model", m.config.Model,
		"embedding_model", m.config.EmbeddingModel,
		"observers", len(observers),
	)
	return nil
}

// Stop implements core.Stopper.
func (m *Module) Stop(context.Context) error {
	m.provider.SetObserver(nil)
	return nil
}

// LanguageModel returns the configured language model.
func (m *Module) LanguageModel() *LanguageModel { return m.lm }

// EmbeddingModel returns the configured embedding model.
func (m *Module) EmbeddingModel() *EmbeddingModel { return m.em }
