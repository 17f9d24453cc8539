package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flemzord/gemgate/internal/provider"
)

// Job names.
const (
	HealthCheckJobName = "health_check"
	UsagePruneJobName  = "usage_prune"
)

// HealthCheckJob checks the language model and records the outcome in a
// HealthTracker. Ticks that fall inside a cooldown are skipped.
type HealthCheckJob struct {
	Model        provider.HealthChecker
	Tracker      *provider.HealthTracker
	Timeout      time.Duration // zero = no extra deadline
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "*/5 * * * *"
}

// Compile-time interface check.
var _ Job = (*HealthCheckJob)(nil)

// Name implements Job.
func (j *HealthCheckJob) Name() string { return HealthCheckJobName }

// Schedule implements Job.
func (j *HealthCheckJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "*/5 * * * *"
}

// Run checks the model once.
func (j *HealthCheckJob) Run(ctx context.Context) error {
	if !j.Tracker.ShouldCheck() {
		j.Logger.Debug("cron: health check skipped, model in cooldown",
			"backoff", j.Tracker.CurrentBackoff(),
		)
		return nil
	}
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	if err := j.Model.HealthCheck(ctx); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			// Shutdown, not a model failure.
			return nil
		}
		j.Tracker.RecordFailure(err)
		return fmt.Errorf("cron: health check: %w", err)
	}
	j.Tracker.RecordSuccess()
	return nil
}

// Pruner is the subset of usage.Ledger needed by UsagePruneJob.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// UsagePruneJob deletes ledger entries older than Retention.
type UsagePruneJob struct {
	Ledger       Pruner
	Retention    time.Duration
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "0 * * * *"

	// now is injectable for testing. Defaults to time.Now.
	now func() time.Time
}

// Compile-time interface check.
var _ Job = (*UsagePruneJob)(nil)

// Name implements Job.
func (j *UsagePruneJob) Name() string { return UsagePruneJobName }

// Schedule implements Job.
func (j *UsagePruneJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "0 * * * *"
}

// Run prunes entries created before now minus Retention.
func (j *UsagePruneJob) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return fmt.Errorf("cron: usage prune cancelled: %w", ctx.Err())
	}
	now := time.Now
	if j.now != nil {
		now = j.now
	}
	n, err := j.Ledger.Prune(ctx, now().Add(-j.Retention))
	if err != nil {
		return fmt.Errorf("cron: usage prune: %w", err)
	}
	if n > 0 {
		j.Logger.Info("cron: pruned usage entries", "count", n, "retention", j.Retention)
	}
	return nil
}
