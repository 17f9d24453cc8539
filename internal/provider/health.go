package provider

import (
	"sync"
	"time"
)

// HealthState represents the availability of a model as seen by checks.
type HealthState int

// HealthState values.
const (
	StateHealthy  HealthState = iota
	StateCooldown             // transient failure, backing off
	StateDead                 // too many consecutive failures
)

// String returns a human-readable label for the health state.
func (s HealthState) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateCooldown:
		return "cooldown"
	case StateDead:
		return "dead"
	default:
		return "unknown"
	}
}

// HealthConfig controls health tracking behavior.
type HealthConfig struct {
	// InitialBackoff is the cooldown duration after the first failure.
	// Default: 1s.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential backoff duration.
	// Default: 60s.
	MaxBackoff time.Duration

	// MaxFailures is the number of consecutive failures before the
	// model is marked dead. Default: 5.
	MaxFailures int
}

func (c *HealthConfig) defaults() {
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 60 * time.Second
	}
	if c.MaxFailures <= 0 {
		c.MaxFailures = 5
	}
}

// HealthSnapshot is a point-in-time copy of a tracker.
type HealthSnapshot struct {
	State     HealthState
	Available bool
	Failures  int
	LastError string
	LastCheck time.Time
}

// HealthTracker records check outcomes for a single model. It applies
// exponential backoff on failures and marks the model dead after
// MaxFailures consecutive failures. It never blocks calls by itself.
type HealthTracker struct {
	cfg HealthConfig

	// OnStateChange is called outside the lock whenever the state
	// transitions.
	OnStateChange func(from, to HealthState)

	mu              sync.Mutex
	state           HealthState
	failures        int
	currentBackoff  time.Duration
	cooldownExpires time.Time
	lastErr         string
	lastCheck       time.Time

	// now is injectable for testing. Defaults to time.Now.
	now func() time.Time
}

// NewHealthTracker creates a healthy tracker with the given config.
func NewHealthTracker(cfg HealthConfig) *HealthTracker {
	cfg.defaults()
	return &HealthTracker{
		cfg:   cfg,
		state: StateHealthy,
		now:   time.Now,
	}
}

// IsAvailable reports whether the model is expected to accept requests.
// A model in cooldown becomes available once its backoff expires.
func (h *HealthTracker) IsAvailable() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.availableLocked()
}

func (h *HealthTracker) availableLocked() bool {
	switch h.state {
	case StateHealthy:
		return true
	case StateCooldown:
		return !h.now().Before(h.cooldownExpires)
	default:
		return false
	}
}

// RecordSuccess resets the tracker to the healthy state.
func (h *HealthTracker) RecordSuccess() {
	h.mu.Lock()
	prev := h.state
	h.state = StateHealthy
	h.failures = 0
	h.currentBackoff = 0
	h.lastErr = ""
	h.lastCheck = h.now()
	h.mu.Unlock()

	if prev != StateHealthy && h.OnStateChange != nil {
		h.OnStateChange(prev, StateHealthy)
	}
}

// RecordFailure records a failed check. It moves the tracker to cooldown
// (with exponential backoff) or to dead after MaxFailures.
func (h *HealthTracker) RecordFailure(err error) {
	h.mu.Lock()
	prev := h.state
	h.failures++
	h.lastCheck = h.now()
	if err != nil {
		h.lastErr = err.Error()
	}

	var next HealthState
	if h.failures >= h.cfg.MaxFailures {
		next = StateDead
	} else {
		next = StateCooldown
		if h.currentBackoff == 0 {
			h.currentBackoff = h.cfg.InitialBackoff
		} else {
			h.currentBackoff *= 2
		}
		if h.currentBackoff > h.cfg.MaxBackoff {
			h.currentBackoff = h.cfg.MaxBackoff
		}
		h.cooldownExpires = h.now().Add(h.currentBackoff)
	}
	h.state = next
	h.mu.Unlock()

	if prev != next && h.OnStateChange != nil {
		h.OnStateChange(prev, next)
	}
}

// ShouldCheck reports whether a scheduled check should run now. Healthy
// and dead models are always checked; models in cooldown wait for the
// backoff to expire.
func (h *HealthTracker) ShouldCheck() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateCooldown {
		return !h.now().Before(h.cooldownExpires)
	}
	return true
}

// Snapshot returns the current tracker state.
func (h *HealthTracker) Snapshot() HealthSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return HealthSnapshot{
		State:     h.state,
		Available: h.availableLocked(),
		Failures:  h.failures,
		LastError: h.lastErr,
		LastCheck: h.lastCheck,
	}
}

// CurrentBackoff returns the current backoff duration.
func (h *HealthTracker) CurrentBackoff() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.currentBackoff
}
