package cron

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/flemzord/gemgate/internal/provider"
	"github.com/flemzord/gemgate/internal/provider/providertest"
	"github.com/flemzord/gemgate/internal/usage"
)

func discardLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

func TestHealthCheckJob_Defaults(t *testing.T) {
	t.Parallel()
	j := &HealthCheckJob{}
	if j.Name() != "health_check" {
		t.Errorf("name = %q", j.Name())
	}
	if j.Schedule() != "*/5 * * * *" {
		t.Errorf("schedule = %q", j.Schedule())
	}
	j.ScheduleExpr = "* * * * *"
	if j.Schedule() != "* * * * *" {
		t.Errorf("schedule override = %q", j.Schedule())
	}
}

func TestHealthCheckJob_Run(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		results   []error
		wantState provider.HealthState
		wantCalls int
	}{
		{"success", []error{nil}, provider.StateHealthy, 1},
		{"failure enters cooldown", []error{errors.New("down")}, provider.StateCooldown, 1},
		// The second tick falls inside the cooldown and is skipped.
		{"cooldown skips check", []error{errors.New("down"), errors.New("down")}, provider.StateCooldown, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var n int
			lm := &providertest.MockLanguageModel{
				HealthCheckFunc: func(context.Context) error {
					err := tt.results[n]
					n++
					return err
				},
			}
			tracker := provider.NewHealthTracker(provider.HealthConfig{InitialBackoff: time.Hour, MaxBackoff: time.Hour})
			j := &HealthCheckJob{Model: lm, Tracker: tracker, Logger: discardLogger()}

			for range tt.results {
				_ = j.Run(context.Background())
			}
			if got := tracker.Snapshot().State; got != tt.wantState {
				t.Errorf("state = %s, want %s", got, tt.wantState)
			}
			if lm.HealthCalls != tt.wantCalls {
				t.Errorf("health calls = %d, want %d", lm.HealthCalls, tt.wantCalls)
			}
		})
	}
}

func TestHealthCheckJob_DeadAfterMaxFailures(t *testing.T) {
	t.Parallel()

	lm := &providertest.MockLanguageModel{
		HealthCheckFunc: func(context.Context) error { return provider.ErrProviderDown },
	}
	// Zero-length cooldowns so every tick checks.
	tracker := provider.NewHealthTracker(provider.HealthConfig{
		InitialBackoff: time.Nanosecond,
		MaxBackoff:     time.Nanosecond,
		MaxFailures:    3,
	})
	j := &HealthCheckJob{Model: lm, Tracker: tracker, Logger: discardLogger()}

	for i := range 3 {
		time.Sleep(time.Millisecond)
		if err := j.Run(context.Background()); !errors.Is(err, provider.ErrProviderDown) {
			t.Fatalf("run %d: err = %v", i, err)
		}
	}
	snap := tracker.Snapshot()
	if snap.State != provider.StateDead || snap.Available {
		t.Errorf("snapshot = %+v, want dead", snap)
	}

	// Dead models are still checked and recover on success.
	lm.HealthCheckFunc = func(context.Context) error { return nil }
	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("recovery run: %v", err)
	}
	if tracker.Snapshot().State != provider.StateHealthy {
		t.Errorf("state = %s, want healthy", tracker.Snapshot().State)
	}
}

func TestHealthCheckJob_Timeout(t *testing.T) {
	t.Parallel()

	lm := &providertest.MockLanguageModel{
		HealthCheckFunc: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	tracker := provider.NewHealthTracker(provider.HealthConfig{})
	j := &HealthCheckJob{Model: lm, Tracker: tracker, Timeout: 10 * time.Millisecond, Logger: discardLogger()}

	if err := j.Run(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if tracker.Snapshot().Failures != 1 {
		t.Errorf("timeout should count as a failure")
	}
}

func TestHealthCheckJob_ShutdownIsNotAFailure(t *testing.T) {
	t.Parallel()

	lm := &providertest.MockLanguageModel{
		HealthCheckFunc: func(ctx context.Context) error { return ctx.Err() },
	}
	tracker := provider.NewHealthTracker(provider.HealthConfig{})
	j := &HealthCheckJob{Model: lm, Tracker: tracker, Logger: discardLogger()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := j.Run(ctx); err != nil {
		t.Fatalf("err = %v, want nil on shutdown", err)
	}
	if tracker.Snapshot().Failures != 0 {
		t.Error("shutdown must not count as a failure")
	}
}

func TestUsagePruneJob_Defaults(t *testing.T) {
	t.Parallel()
	j := &UsagePruneJob{}
	if j.Name() != "usage_prune" || j.Schedule() != "0 * * * *" {
		t.Errorf("name/schedule = %q/%q", j.Name(), j.Schedule())
	}
}

func TestUsagePruneJob_Run(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ledger := usage.NewInMemoryLedger()
	ctx := context.Background()
	_ = ledger.Record(ctx, usage.Entry{Model: "old", CreatedAt: now.Add(-10 * 24 * time.Hour)})
	_ = ledger.Record(ctx, usage.Entry{Model: "recent", CreatedAt: now.Add(-time.Hour)})

	j := &UsagePruneJob{
		Ledger:    ledger,
		Retention: 7 * 24 * time.Hour,
		Logger:    discardLogger(),
		now:       func() time.Time { return now },
	}
	if err := j.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	left, _ := ledger.Recent(ctx, 10)
	if len(left) != 1 || left[0].Model != "recent" {
		t.Errorf("remaining = %+v", left)
	}
}

type failingPruner struct{}

func (failingPruner) Prune(context.Context, time.Time) (int64, error) {
	return 0, errors.New("disk full")
}

func TestUsagePruneJob_Errors(t *testing.T) {
	t.Parallel()

	j := &UsagePruneJob{Ledger: failingPruner{}, Retention: time.Hour, Logger: discardLogger()}
	if err := j.Run(context.Background()); err == nil {
		t.Error("expected prune error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := j.Run(ctx); err == nil {
		t.Error("expected error for cancelled context")
	}
}
