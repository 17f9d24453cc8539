package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/flemzord/gemgate/internal/core"
	"github.com/flemzord/gemgate/internal/provider"
	"github.com/flemzord/gemgate/internal/usage"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

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

// Config configures the health.check module.
type Config struct {
	Schedule       string        `yaml:"schedule"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxFailures    int           `yaml:"max_failures"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
	PruneSchedule  string        `yaml:"prune_schedule"`
}

func (c *Config) defaults() {
	if c.Schedule == "" {
		c.Schedule = "*/5 * * * *"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxFailures <= 0 {
		c.MaxFailures = 5
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 30 * time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 10 * time.Minute
	}
	if c.PruneSchedule == "" {
		c.PruneSchedule = "0 * * * *"
	}
}

// Module checks the language model on a schedule and prunes the usage
// ledger. It publishes its HealthTracker as provider.ServiceHealthTracker.
type Module struct {
	config    Config
	appCtx    *core.AppContext
	logger    *slog.Logger
	tracker   *provider.HealthTracker
	scheduler *Scheduler
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "health.check",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return err
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.appCtx = ctx
	m.logger = ctx.Logger
	m.tracker = provider.NewHealthTracker(provider.HealthConfig{
		InitialBackoff: m.config.InitialBackoff,
		MaxBackoff:     m.config.MaxBackoff,
		MaxFailures:    m.config.MaxFailures,
	})
	m.tracker.OnStateChange = func(from, to provider.HealthState) {
		level := slog.LevelWarn
		if to == provider.StateHealthy {
			level = slog.LevelInfo
		}
		m.logger.Log(context.Background(), level, "model health changed", "from", from.String(), "to", to.String())
	}
	ctx.RegisterService(provider.ServiceHealthTracker, m.tracker)
	m.scheduler = NewScheduler(m.logger)
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(m.config.Schedule); err != nil {
		return fmt.Errorf("health.check: invalid schedule %q: %w", m.config.Schedule, err)
	}
	if _, err := parser.Parse(m.config.PruneSchedule); err != nil {
		return fmt.Errorf("health.check: invalid prune_schedule %q: %w", m.config.PruneSchedule, err)
	}
	if m.config.MaxBackoff < m.config.InitialBackoff {
		return fmt.Errorf("health.check: max_backoff %s is below initial_backoff %s", m.config.MaxBackoff, m.config.InitialBackoff)
	}
	return nil
}

// Start implements core.Starter. It binds the language model and ledger
// from the service registry, schedules the jobs and runs a first check.
func (m *Module) Start() error {
	probing := false
	if checker, ok := core.ServiceAs[provider.HealthChecker](m.appCtx, provider.ServiceLanguageModel); ok {
		err := m.scheduler.RegisterJob(&HealthCheckJob{
			Model:        checker,
			Tracker:      m.tracker,
			Timeout:      m.config.Timeout,
			Logger:       m.logger,
			ScheduleExpr: m.config.Schedule,
		})
		if err != nil {
			return err
		}
		probing = true
	} else {
		m.logger.Warn("health.check: language model does not support health checks, job disabled")
	}

	if ledger, ok := core.ServiceAs[usage.Ledger](m.appCtx, usage.ServiceName); ok {
		if rp, ok := ledger.(usage.RetentionPolicy); ok && rp.Retention() > 0 {
			err := m.scheduler.RegisterJob(&UsagePruneJob{
				Ledger:       ledger,
				Retention:    rp.Retention(),
				Logger:       m.logger,
				ScheduleExpr: m.config.PruneSchedule,
			})
			if err != nil {
				return err
			}
		}
	}

	if err := m.scheduler.Start(); err != nil {
		return err
	}
	if probing {
		return m.scheduler.Trigger(HealthCheckJobName)
	}
	return nil
}

// Stop implements core.Stopper.
func (m *Module) Stop(ctx context.Context) error {
	if m.scheduler == nil {
		return nil
	}
	return m.scheduler.Stop(ctx)
}
