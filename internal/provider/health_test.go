package provider

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestTracker(cfg HealthConfig) (*HealthTracker, *fakeTime) {
	h := NewHealthTracker(cfg)
	ft := &fakeTime{current: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	h.now = ft.Now
	return h, ft
}

type fakeTime struct {
	mu      sync.Mutex
	current time.Time
}

func (f *fakeTime) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeTime) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = f.current.Add(d)
}

var errCheck = errors.New("check failed")

func TestHealthTracker_StartsHealthy(t *testing.T) {
	t.Parallel()
	h, _ := newTestTracker(HealthConfig{})
	snap := h.Snapshot()
	if snap.State != StateHealthy || !snap.Available {
		t.Errorf("new tracker = %+v, want healthy and available", snap)
	}
	if !h.ShouldCheck() {
		t.Error("healthy tracker should be checked")
	}
}

func TestHealthTracker_SingleFailureCooldown(t *testing.T) {
	t.Parallel()
	h, ft := newTestTracker(HealthConfig{InitialBackoff: time.Second})

	h.RecordFailure(errCheck)

	snap := h.Snapshot()
	if snap.State != StateCooldown {
		t.Fatalf("state = %v, want cooldown", snap.State)
	}
	if snap.LastError != "check failed" {
		t.Errorf("LastError = %q", snap.LastError)
	}
	if h.IsAvailable() || h.ShouldCheck() {
		t.Error("should not be available or checked during cooldown")
	}

	// Exact expiry counts as expired.
	ft.Advance(time.Second)
	if !h.IsAvailable() || !h.ShouldCheck() {
		t.Error("should be available and checked once cooldown expires")
	}
}

func TestHealthTracker_ExponentialBackoffCapped(t *testing.T) {
	t.Parallel()
	h, _ := newTestTracker(HealthConfig{
		InitialBackoff: time.Second,
		MaxBackoff:     5 * time.Second,
		MaxFailures:    10,
	})

	want := []time.Duration{1, 2, 4, 5, 5}
	for i, w := range want {
		h.RecordFailure(errCheck)
		if got := h.CurrentBackoff(); got != w*time.Second {
			t.Errorf("failure %d: backoff = %v, want %v", i+1, got, w*time.Second)
		}
	}
}

func TestHealthTracker_DeadAfterMaxFailures(t *testing.T) {
	t.Parallel()
	h, ft := newTestTracker(HealthConfig{MaxFailures: 3})

	for range 3 {
		h.RecordFailure(errCheck)
	}
	if got := h.Snapshot().State; got != StateDead {
		t.Fatalf("state = %v, want dead", got)
	}

	ft.Advance(time.Hour)
	if h.IsAvailable() {
		t.Error("dead tracker should stay unavailable")
	}
	if !h.ShouldCheck() {
		t.Error("dead tracker should still be checked")
	}
}

func TestHealthTracker_SuccessResets(t *testing.T) {
	t.Parallel()
	h, _ := newTestTracker(HealthConfig{MaxFailures: 2})

	h.RecordFailure(errCheck)
	h.RecordFailure(errCheck)
	h.RecordSuccess()

	snap := h.Snapshot()
	if snap.State != StateHealthy || snap.Failures != 0 || snap.LastError != "" {
		t.Errorf("after success = %+v, want clean healthy state", snap)
	}
	if h.CurrentBackoff() != 0 {
		t.Errorf("backoff = %v, want 0", h.CurrentBackoff())
	}
	if snap.LastCheck.IsZero() {
		t.Error("LastCheck should be set")
	}
}

func TestHealthTracker_OnStateChange(t *testing.T) {
	t.Parallel()
	h, _ := newTestTracker(HealthConfig{MaxFailures: 2})

	var transitions [][2]HealthState
	h.OnStateChange = func(from, to HealthState) {
		transitions = append(transitions, [2]HealthState{from, to})
	}

	h.RecordSuccess() // no change
	h.RecordFailure(errCheck)
	h.RecordFailure(errCheck)
	h.RecordSuccess()

	want := [][2]HealthState{
		{StateHealthy, StateCooldown},
		{StateCooldown, StateDead},
		{StateDead, StateHealthy},
	}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, transitions[i], want[i])
		}
	}
}

func TestHealthTracker_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	h := NewHealthTracker(HealthConfig{MaxFailures: 1000})

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				h.RecordFailure(errCheck)
			} else {
				h.RecordSuccess()
			}
			_ = h.Snapshot()
			_ = h.ShouldCheck()
		}()
	}
	wg.Wait()
}

func TestHealthConfig_Defaults(t *testing.T) {
	t.Parallel()
	h := NewHealthTracker(HealthConfig{InitialBackoff: -1, MaxFailures: -3})
	if h.cfg.InitialBackoff != time.Second {
		t.Errorf("InitialBackoff = %v, want 1s", h.cfg.InitialBackoff)
	}
	if h.cfg.MaxBackoff != 60*time.Second {
		t.Errorf("MaxBackoff = %v, want 60s", h.cfg.MaxBackoff)
	}
	if h.cfg.MaxFailures != 5 {
		t.Errorf("MaxFailures = %d, want 5", h.cfg.MaxFailures)
	}
}

func TestHealthState_String(t *testing.T) {
	t.Parallel()
	tests := []struct {
		state HealthState
		want  string
	}{
		{StateHealthy, "healthy"},
		{StateCooldown, "cooldown"},
		{StateDead, "dead"},
		{HealthState(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("HealthState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
