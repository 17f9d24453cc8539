package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/flemzord/gemgate/internal/provider"
	"github.com/flemzord/gemgate/internal/usage"
)

// Compile-time interface guards.
var (
	_ usage.Ledger          = (*Ledger)(nil)
	_ usage.RetentionPolicy = (*Ledger)(nil)
	_ provider.Observer     = (*Ledger)(nil)
)

// Ledger is a usage.Ledger backed by a SQLite table. Timestamps are stored
// as Unix nanoseconds; unreported token counts as NULL.
type Ledger struct {
	db        *sql.DB
	logger    *slog.Logger
	retention time.Duration

	// now is injectable for testing. Defaults to time.Now.
	now func() time.Time
}

func newLedger(db *sql.DB, logger *slog.Logger, retention time.Duration) *Ledger {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Ledger{db: db, logger: logger, retention: retention, now: time.Now}
}

// Record inserts an entry. CreatedAt defaults to now.
func (l *Ledger) Record(ctx context.Context, e usage.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = l.now()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO usage (created_at, provider, model, operation, finish_reason,
		                   prompt_tokens, completion_tokens, value_count, duration_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.CreatedAt.UnixNano(), e.Provider, e.Model, e.Operation, e.FinishReason,
		nullTokens(e.PromptTokens), nullTokens(e.CompletionTokens),
		e.Values, e.Duration.Milliseconds(), e.Error,
	)
	if err != nil {
		return fmt.Errorf("usage.sqlite: record: %w", err)
	}
	return nil
}

// ObserveCall implements provider.Observer. Write failures are logged.
func (l *Ledger) ObserveCall(ctx context.Context, rec provider.CallRecord) {
	if err := l.Record(context.WithoutCancel(ctx), usage.EntryFromRecord(rec)); err != nil {
		l.logger.Warn("usage.sqlite: dropping call record", "model", rec.Model, "error", err)
	}
}

// Recent returns up to limit entries, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]usage.Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, created_at, provider, model, operation, finish_reason,
		       prompt_tokens, completion_tokens, value_count, duration_ms, error
		FROM usage
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("usage.sqlite: recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []usage.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("usage.sqlite: recent rows: %w", err)
	}
	return entries, nil
}

// Totals aggregates entries created at or after since.
func (l *Ledger) Totals(ctx context.Context, since time.Time) (usage.Totals, error) {
	var t usage.Totals
	err := l.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(error != ''), 0),
		       COALESCE(SUM(prompt_tokens), 0),
		       COALESCE(SUM(completion_tokens), 0),
		       COALESCE(SUM(value_count), 0)
		FROM usage
		WHERE created_at >= ?`, since.UnixNano(),
	).Scan(&t.Calls, &t.Errors, &t.PromptTokens, &t.CompletionTokens, &t.Values)
	if err != nil {
		return usage.Totals{}, fmt.Errorf("usage.sqlite: totals: %w", err)
	}
	return t, nil
}

// Prune deletes entries created before cutoff.
func (l *Ledger) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := l.db.ExecContext(ctx, "DELETE FROM usage WHERE created_at < ?", cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("usage.sqlite: prune: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("usage.sqlite: prune rows: %w", err)
	}
	return n, nil
}

// Retention implements usage.RetentionPolicy.
func (l *Ledger) Retention() time.Duration { return l.retention }

// Close closes the underlying database.
func (l *Ledger) Close() error { return l.db.Close() }

func scanEntry(rows *sql.Rows) (usage.Entry, error) {
	var (
		e                  usage.Entry
		createdAt          int64
		prompt, completion sql.NullInt64
		durationMS         int64
	)
	if err := rows.Scan(&e.ID, &createdAt, &e.Provider, &e.Model, &e.Operation, &e.FinishReason,
		&prompt, &completion, &e.Values, &durationMS, &e.Error); err != nil {
		return usage.Entry{}, fmt.Errorf("usage.sqlite: scan entry: %w", err)
	}
	e.CreatedAt = time.Unix(0, createdAt)
	e.PromptTokens = tokensFromNull(prompt)
	e.CompletionTokens = tokensFromNull(completion)
	e.Duration = time.Duration(durationMS) * time.Millisecond
	return e, nil
}

func nullTokens(f float64) sql.NullInt64 {
	if math.IsNaN(f) {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(f), Valid: true}
}

func tokensFromNull(n sql.NullInt64) float64 {
	if !n.Valid {
		return math.NaN()
	}
	return float64(n.Int64)
}
