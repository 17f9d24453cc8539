// Package gateway serves the configured language and embedding models over
// HTTP, server-sent events and websockets.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/flemzord/gemgate/internal/core"
	"github.com/flemzord/gemgate/internal/provider"
	"github.com/flemzord/gemgate/internal/telemetry"
	"github.com/flemzord/gemgate/internal/usage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"
)

const tracerName = "github.com/flemzord/gemgate/internal/gateway"

func init() {
	core.RegisterModule(&Gateway{})
}

// Interface guards.
var (
	_ core.Module       = (*Gateway)(nil)
	_ core.Configurable = (*Gateway)(nil)
	_ core.Provisioner  = (*Gateway)(nil)
	_ core.Validator    = (*Gateway)(nil)
	_ core.Starter      = (*Gateway)(nil)
	_ core.Stopper      = (*Gateway)(nil)
)

// Gateway is the HTTP gateway module. It is a leaf module: nothing imports it.
type Gateway struct {
	config    Config
	appCtx    *core.AppContext
	logger    *slog.Logger
	server    *http.Server
	tracer    trace.Tracer
	startedAt time.Time

	// Resolved lazily at Start() via service registry. Any of them may be nil.
	lm      provider.LanguageModel
	em      provider.EmbeddingModel
	metrics *telemetry.Metrics
	ledger  usage.Ledger
	health  *provider.HealthTracker
}

// ModuleInfo implements core.Module.
func (g *Gateway) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "gateway.http",
		New: func() core.Module { return &Gateway{} },
	}
}

// Configure implements core.Configurable.
func (g *Gateway) Configure(node *yaml.Node) error {
	if err := node.Decode(&g.config); err != nil {
		return err
	}
	g.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (g *Gateway) Provision(ctx *core.AppContext) error {
	g.appCtx = ctx
	g.logger = ctx.Logger
	g.tracer = otel.Tracer(tracerName)
	return nil
}

// Validate implements core.Validator.
func (g *Gateway) Validate() error {
	if _, err := net.ResolveTCPAddr("tcp", g.config.Bind); err != nil {
		return errors.New("gateway: invalid bind address: " + g.config.Bind)
	}
	if g.config.EmbedParallelism < 0 {
		return errors.New("gateway: embed_parallelism must not be negative")
	}
	return nil
}

// Start implements core.Starter. It resolves dependencies from the service
// registry (lazy binding) and starts the HTTP server.
func (g *Gateway) Start() error {
	g.resolveServices()
	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		g.logger.Info("gateway listening", "addr", ln.Addr().String())
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop implements core.Stopper. Graceful shutdown with configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}

// resolveServices binds optional services. Missing ones degrade the
// matching endpoints instead of failing startup.
func (g *Gateway) resolveServices() {
	if g.appCtx == nil {
		return
	}
	if lm, ok := core.ServiceAs[provider.LanguageModel](g.appCtx, provider.ServiceLanguageModel); ok {
		g.lm = lm
	}
	if em, ok := core.ServiceAs[provider.EmbeddingModel](g.appCtx, provider.ServiceEmbeddingModel); ok {
		g.em = em
	}
	if m, ok := core.ServiceAs[*telemetry.Metrics](g.appCtx, telemetry.ServiceName); ok {
		g.metrics = m
	}
	if l, ok := core.ServiceAs[usage.Ledger](g.appCtx, usage.ServiceName); ok {
		g.ledger = l
	}
	if h, ok := core.ServiceAs[*provider.HealthTracker](g.appCtx, provider.ServiceHealthTracker); ok {
		g.health = h
	}
	if g.lm == nil {
		g.logger.Warn("gateway: no language model configured, generate and stream endpoints disabled")
	}
}
