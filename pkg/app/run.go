// Package app provides the shared entry point for the gemgate binary: it
// loads the configuration, builds the logger and telemetry, and drives the
// module lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/flemzord/gemgate/internal/config"
	"github.com/flemzord/gemgate/internal/core"
	"github.com/flemzord/gemgate/internal/security"
	"github.com/flemzord/gemgate/internal/telemetry"
)

// RunParams configures Build and Run.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, config.FindPath is called automatically.
	ConfigPath string

	// LogLevel overrides logging.level from the file when set.
	LogLevel string

	// Version is reported by tracing resources.
	Version string

	// Modules restricts loading to these configured module IDs. Nil loads
	// every configured module.
	Modules []string

	// LogOutput defaults to os.Stderr.
	LogOutput io.Writer
}

// Runtime is a loaded, not yet started application.
type Runtime struct {
	Config     *config.Config
	ConfigPath string
	Context    *core.AppContext
	App        *core.App
	Logger     *slog.Logger
	Metrics    *telemetry.Metrics

	credentials     *security.CredentialStore
	redactor        *security.Redactor
	shutdownTracing telemetry.ShutdownFunc
}

// Build loads and validates the configuration, sets up logging and
// tracing, and loads the selected modules in dependency order.
func Build(ctx context.Context, params RunParams) (*Runtime, error) {
	cfgPath, err := config.FindPath(params.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	out := params.LogOutput
	if out == nil {
		out = os.Stderr
	}
	rt := &Runtime{
		Config:      cfg,
		ConfigPath:  cfgPath,
		Metrics:     telemetry.NewMetrics(),
		credentials: security.NewCredentialStore(),
		redactor:    security.NewRedactor(),
	}
	rt.Logger, err = NewLogger(out, cfg.Logging, params.LogLevel, rt.redactor)
	if err != nil {
		return nil, err
	}

	rt.shutdownTracing, err = telemetry.SetupTracing(ctx, cfg.Telemetry.Tracing, params.Version)
	if err != nil {
		return nil, err
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = config.DefaultDataDir()
	}
	rt.Context = core.NewAppContext(rt.Logger, dataDir).WithModuleConfigs(cfg.Modules)
	registerServices(rt.Context, rt)

	ids := config.Resolve(cfg)
	if params.Modules != nil {
		ids = slices.DeleteFunc(ids, func(id string) bool {
			return !slices.Contains(params.Modules, id)
		})
	}

	rt.App = core.NewApp(rt.Context)
	if err := rt.App.LoadModules(ids); err != nil {
		_ = rt.shutdownTracing(ctx)
		return nil, err
	}
	// Modules store their secrets while provisioning.
	syncSecrets(rt)
	return rt, nil
}

// Start starts every loaded module.
func (rt *Runtime) Start() error {
	if err := rt.App.Start(); err != nil {
		return err
	}
	syncSecrets(rt)
	return nil
}

// Shutdown stops the modules in reverse order and flushes pending spans.
func (rt *Runtime) Shutdown(ctx context.Context) error {
	rt.App.Stop()
	if err := rt.shutdownTracing(ctx); err != nil {
		return fmt.Errorf("flushing traces: %w", err)
	}
	return nil
}

// Close releases a runtime that was built but not started: every module
// is stopped whether or not it started.
func (rt *Runtime) Close(ctx context.Context) error {
	rt.App.Unload()
	return rt.shutdownTracing(ctx)
}

// Run builds and starts the application and blocks until ctx is done or
// SIGINT/SIGTERM is received.
func Run(ctx context.Context, params RunParams) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := Build(ctx, params)
	if err != nil {
		return err
	}
	if err := rt.Start(); err != nil {
		return errors.Join(err, rt.Shutdown(context.WithoutCancel(ctx)))
	}
	rt.Logger.Info("gemgate running", "config", rt.ConfigPath, "version", params.Version)

	<-ctx.Done()
	rt.Logger.Info("shutdown signal received")
	err = rt.Shutdown(context.WithoutCancel(ctx))
	rt.Logger.Info("shutdown complete")
	return err
}
