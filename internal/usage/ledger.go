// Package usage defines the model call ledger: one Entry per provider call,
// queried by the gateway and pruned by the scheduler.
package usage

import (
	"context"
	"math"
	"time"

	"github.com/flemzord/gemgate/internal/provider"
)

// ServiceName is the service registry key under which a Ledger is exposed.
// The registered value also implements provider.Observer.
const ServiceName = "usage.recorder"

// Entry is one recorded model call. Token counts are NaN when the provider
// did not report them.
type Entry struct {
	ID               int64         `json:"id"`
	CreatedAt        time.Time     `json:"created_at"`
	Provider         string        `json:"provider"`
	Model            string        `json:"model"`
	Operation        string        `json:"operation"`
	FinishReason     string        `json:"finish_reason,omitempty"`
	PromptTokens     float64       `json:"-"`
	CompletionTokens float64       `json:"-"`
	Values           int           `json:"values,omitempty"`
	Duration         time.Duration `json:"-"`
	Error            string        `json:"error,omitempty"`
}

// Totals aggregates entries since a point in time. Unreported token counts
// are not summed.
type Totals struct {
	Calls            int64 `json:"calls"`
	Errors           int64 `json:"errors"`
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	Values           int64 `json:"values"`
}

// Ledger stores call entries. Implementations must be safe for concurrent use.
type Ledger interface {
	// Record appends an entry. ID and CreatedAt are assigned when zero.
	Record(ctx context.Context, e Entry) error

	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)

	// Totals aggregates entries created at or after since.
	Totals(ctx context.Context, since time.Time) (Totals, error)

	// Prune deletes entries created before cutoff and returns how many
	// were removed.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// EntryFromRecord converts an observed call into a ledger entry.
func EntryFromRecord(rec provider.CallRecord) Entry {
	e := Entry{
		Provider:         rec.Provider,
		Model:            rec.Model,
		Operation:        string(rec.Operation),
		FinishReason:     string(rec.FinishReason),
		PromptTokens:     rec.Usage.PromptTokens,
		CompletionTokens: rec.Usage.CompletionTokens,
		Values:           rec.Values,
		Duration:         rec.Duration,
	}
	if rec.Err != nil {
		e.Error = rec.Err.Error()
	}
	return e
}

// Add folds e into t.
func (t *Totals) Add(e Entry) {
	t.Calls++
	if e.Error != "" {
		t.Errors++
	}
	if !math.IsNaN(e.PromptTokens) {
		t.PromptTokens += int64(e.PromptTokens)
	}
	if !math.IsNaN(e.CompletionTokens) {
		t.CompletionTokens += int64(e.CompletionTokens)
	}
	t.Values += int64(e.Values)
}

// RetentionPolicy is implemented by ledgers that expire old entries. A
// zero Retention keeps entries forever.
type RetentionPolicy interface {
	Retention() time.Duration
}
