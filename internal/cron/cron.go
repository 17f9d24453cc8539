// Package cron schedules periodic background tasks: probing the configured
// language model and pruning the usage ledger. It also provides the
// health.check module that wires both.
package cron

import "context"

// Job is one scheduled task. The scheduler never runs two ticks of the
// same job at once.
type Job interface {
	// Name identifies the job in logs and in Scheduler.Trigger.
	Name() string

	// Schedule is a five-field cron expression such as "*/5 * * * *".
	Schedule() string

	// Run performs one tick. ctx is cancelled when the scheduler stops.
	Run(ctx context.Context) error
}
