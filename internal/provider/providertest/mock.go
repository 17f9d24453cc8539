// Package providertest provides test helpers for the provider package.
package providertest

import (
	"context"
	"sync"

	"github.com/flemzord/gemgate/internal/provider"
)

// MockLanguageModel is a configurable test double for provider.LanguageModel.
// Set the Func fields to control behavior. Unset funcs panic on call.
// All methods are safe for concurrent use.
type MockLanguageModel struct {
	GenerateFunc    func(ctx context.Context, opts provider.CallOptions) (*provider.GenerateResult, error)
	StreamFunc      func(ctx context.Context, opts provider.CallOptions) (*provider.StreamResult, error)
	HealthCheckFunc func(ctx context.Context) error
	ProviderName    string
	Model           string

	mu            sync.Mutex
	GenerateCalls []provider.CallOptions
	StreamCalls   []provider.CallOptions
	HealthCalls   int
}

// Generate delegates to GenerateFunc and records the options.
func (m *MockLanguageModel) Generate(ctx context.Context, opts provider.CallOptions) (*provider.GenerateResult, error) {
	m.mu.Lock()
	m.GenerateCalls = append(m.GenerateCalls, opts)
	m.mu.Unlock()
	return m.GenerateFunc(ctx, opts)
}

// Stream delegates to StreamFunc and records the options.
func (m *MockLanguageModel) Stream(ctx context.Context, opts provider.CallOptions) (*provider.StreamResult, error) {
	m.mu.Lock()
	m.StreamCalls = append(m.StreamCalls, opts)
	m.mu.Unlock()
	return m.StreamFunc(ctx, opts)
}

// HealthCheck delegates to HealthCheckFunc and tracks call count.
func (m *MockLanguageModel) HealthCheck(ctx context.Context) error {
	m.mu.Lock()
	m.HealthCalls++
	m.mu.Unlock()
	return m.HealthCheckFunc(ctx)
}

// Provider returns ProviderName, or "mock" when unset.
func (m *MockLanguageModel) Provider() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

// ModelID returns Model.
func (m *MockLanguageModel) ModelID() string { return m.Model }

// Calls returns the number of Generate and Stream calls so far.
func (m *MockLanguageModel) Calls() (generate, stream int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.GenerateCalls), len(m.StreamCalls)
}

// MockEmbeddingModel is a configurable test double for provider.EmbeddingModel.
type MockEmbeddingModel struct {
	EmbedFunc  func(ctx context.Context, opts provider.EmbedOptions) (*provider.EmbedResult, error)
	MaxPerCall int
	Parallel   bool
	Model      string

	mu    sync.Mutex
	Calls [][]string
}

// Embed delegates to EmbedFunc and records the values.
func (m *MockEmbeddingModel) Embed(ctx context.Context, opts provider.EmbedOptions) (*provider.EmbedResult, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, opts.Values)
	m.mu.Unlock()
	return m.EmbedFunc(ctx, opts)
}

// MaxEmbeddingsPerCall returns MaxPerCall.
func (m *MockEmbeddingModel) MaxEmbeddingsPerCall() int { return m.MaxPerCall }

// SupportsParallelCalls returns Parallel.
func (m *MockEmbeddingModel) SupportsParallelCalls() bool { return m.Parallel }

// Provider returns "mock".
func (m *MockEmbeddingModel) Provider() string { return "mock" }

// ModelID returns Model.
func (m *MockEmbeddingModel) ModelID() string { return m.Model }

// CallCount returns the number of Embed calls so far.
func (m *MockEmbeddingModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// EventStream returns a closed channel pre-filled with events.
func EventStream(events ...provider.StreamEvent) <-chan provider.StreamEvent {
	ch := make(chan provider.StreamEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}

// Interface guards.
var (
	_ provider.LanguageModel  = (*MockLanguageModel)(nil)
	_ provider.HealthChecker  = (*MockLanguageModel)(nil)
	_ provider.EmbeddingModel = (*MockEmbeddingModel)(nil)
)
