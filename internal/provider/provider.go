// Package provider defines the provider-agnostic language model abstraction
// that vendor adapters under modules/provider implement.
package provider

import "context"

// Service registry keys for the configured models and their check state.
const (
	ServiceLanguageModel  = "model.language"
	ServiceEmbeddingModel = "model.embedding"
	ServiceHealthTracker  = "health.tracker"
)

// LanguageModel is the interface for generating text, files and tool calls
// from a prompt. Concrete implementations live in separate packages
// (e.g., provider.google) and typically also back a core.Module.
type LanguageModel interface {
	// Generate sends a single request and returns the full result.
	Generate(ctx context.Context, opts CallOptions) (*GenerateResult, error)

	// Stream sends a request and returns a result whose Events channel
	// carries the incremental output. Errors that prevent the stream from
	// starting are returned directly. Mid-stream problems are delivered
	// in-band as ErrorEvent values. The channel is closed after the final
	// FinishEvent, or without one when ctx is canceled.
	Stream(ctx context.Context, opts CallOptions) (*StreamResult, error)

	// Provider returns the provider identifier, e.g. "google.generative-ai".
	Provider() string

	// ModelID returns the identifier of the underlying model.
	ModelID() string
}

// EmbeddingModel turns text values into vectors.
type EmbeddingModel interface {
	// Embed embeds at most MaxEmbeddingsPerCall values in one request.
	Embed(ctx context.Context, opts EmbedOptions) (*EmbedResult, error)

	// MaxEmbeddingsPerCall is the largest number of values Embed accepts.
	MaxEmbeddingsPerCall() int

	// SupportsParallelCalls reports whether several Embed calls may run
	// concurrently against the same model.
	SupportsParallelCalls() bool

	Provider() string
	ModelID() string
}

// HealthChecker is an optional interface that models may implement
// to support active health probing.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// URLSupporter is an optional interface for models that can reference
// some file URLs directly instead of requiring inline bytes.
type URLSupporter interface {
	SupportsURL(u string) bool
}
