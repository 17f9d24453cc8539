package usage

import (
	"context"
	"sync"
	"time"

	"github.com/flemzord/gemgate/internal/provider"
)

// InMemoryLedger is a thread-safe, in-memory Ledger. It is used when no
// persistent ledger is configured, and in tests.
type InMemoryLedger struct {
	mu      sync.RWMutex
	entries []Entry
	nextID  int64

	// now is injectable for testing. Defaults to time.Now.
	now func() time.Time
}

// NewInMemoryLedger creates an empty ledger.
func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{now: time.Now}
}

// Compile-time interface checks.
var (
	_ Ledger            = (*InMemoryLedger)(nil)
	_ provider.Observer = (*InMemoryLedger)(nil)
)

// Record appends an entry.
func (l *InMemoryLedger) Record(_ context.Context, e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	if e.ID == 0 {
		e.ID = l.nextID
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = l.now()
	}
	l.entries = append(l.entries, e)
	return nil
}

// ObserveCall implements provider.Observer.
func (l *InMemoryLedger) ObserveCall(ctx context.Context, rec provider.CallRecord) {
	_ = l.Record(ctx, EntryFromRecord(rec))
}

// Recent returns up to limit entries, newest first.
func (l *InMemoryLedger) Recent(_ context.Context, limit int) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit <= 0 {
		return nil, nil
	}
	n := min(limit, len(l.entries))
	out := make([]Entry, 0, n)
	for i := len(l.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.entries[i])
	}
	return out, nil
}

// Totals aggregates entries created at or after since.
func (l *InMemoryLedger) Totals(_ context.Context, since time.Time) (Totals, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var t Totals
	for _, e := range l.entries {
		if !e.CreatedAt.Before(since) {
			t.Add(e)
		}
	}
	return t, nil
}

// Prune deletes entries created before cutoff.
func (l *InMemoryLedger) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.entries[:0]
	for _, e := range l.entries {
		if !e.CreatedAt.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	removed := int64(len(l.entries) - len(kept))
	l.entries = kept
	return removed, nil
}

// Len returns the number of stored entries.
func (l *InMemoryLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
