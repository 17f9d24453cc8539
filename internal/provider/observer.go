package provider

import (
	"context"
	"time"
)

// Operation names a model call kind.
type Operation string

// Operation constants.
const (
	OperationGenerate Operation = "generate"
	OperationStream   Operation = "stream"
	OperationEmbed    Operation = "embed"
)

// CallRecord summarizes one finished model call.
type CallRecord struct {
	Provider     string
	Model        string
	Operation    Operation
	FinishReason FinishReason
	Usage        Usage
	// Values is the number of embedded values; zero for other operations.
	Values   int
	Duration time.Duration
	Err      error
}

// Observer is notified after each model call. Implementations must be
// safe for concurrent use and must not block for long.
type Observer interface {
	ObserveCall(ctx context.Context, rec CallRecord)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, rec CallRecord)

// ObserveCall calls f.
func (f ObserverFunc) ObserveCall(ctx context.Context, rec CallRecord) { f(ctx, rec) }

// Observers fans a record out to every member.
type Observers []Observer

// ObserveCall forwards rec to each observer in order.
func (o Observers) ObserveCall(ctx context.Context, rec CallRecord) {
	for _, obs := range o {
		obs.ObserveCall(ctx, rec)
	}
}
