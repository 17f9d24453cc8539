// Package crontest provides test doubles for the cron package.
package crontest

import (
	"context"
	"sync/atomic"

	"github.com/flemzord/gemgate/internal/cron"
)

// MockJob is a cron.Job that counts its runs and delegates to RunFunc.
type MockJob struct {
	NameVal     string
	ScheduleVal string
	RunFunc     func(ctx context.Context) error

	calls atomic.Int32
}

var _ cron.Job = (*MockJob)(nil)

func (m *MockJob) Name() string     { return m.NameVal }
func (m *MockJob) Schedule() string { return m.ScheduleVal }

// Run counts the call, then runs RunFunc when set.
func (m *MockJob) Run(ctx context.Context) error {
	m.calls.Add(1)
	if m.RunFunc != nil {
		return m.RunFunc(ctx)
	}
	return nil
}

// CallCount reports how many times Run was called.
func (m *MockJob) CallCount() int { return int(m.calls.Load()) }
