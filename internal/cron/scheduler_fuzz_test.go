package cron

import (
	"testing"
	"time"
)

func FuzzModuleValidate(f *testing.F) {
	f.Add("*/5 * * * *", "0 * * * *", int64(time.Second), int64(time.Minute))
	f.Add("0 0 1 1 *", "@hourly", int64(0), int64(0))
	f.Add("invalid", "", int64(-1), int64(1))
	f.Add("60 * * * *", "0 25 * * *", int64(time.Hour), int64(time.Second))

	f.Fuzz(func(t *testing.T, schedule, prune string, initial, maxBackoff int64) {
		m := &Module{config: Config{
			Schedule:       schedule,
			PruneSchedule:  prune,
			InitialBackoff: time.Duration(initial),
			MaxBackoff:     time.Duration(maxBackoff),
		}}
		m.config.defaults()
		err := m.Validate()
		if err == nil && m.config.MaxBackoff < m.config.InitialBackoff {
			t.Errorf("accepted max_backoff %s below initial_backoff %s", m.config.MaxBackoff, m.config.InitialBackoff)
		}
	})
}
