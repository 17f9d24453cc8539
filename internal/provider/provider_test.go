package provider_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/flemzord/gemgate/internal/provider"
	"github.com/flemzord/gemgate/internal/provider/providertest"
)

// vectorsFor returns one single-element vector per value, holding the
// value's position parsed back from its "v<N>" name.
func vectorsFor(values []string) [][]float64 {
	out := make([][]float64, len(values))
	for i, v := range values {
		var n int
		_, _ = fmt.Sscanf(v, "v%d", &n)
		out[i] = []float64{float64(n)}
	}
	return out
}

func values(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("v%d", i)
	}
	return out
}

func TestEmbedMany_SingleCall(t *testing.T) {
	t.Parallel()

	mock := &providertest.MockEmbeddingModel{
		MaxPerCall: 10,
		EmbedFunc: func(_ context.Context, opts provider.EmbedOptions) (*provider.EmbedResult, error) {
			return &provider.EmbedResult{Embeddings: vectorsFor(opts.Values)}, nil
		},
	}

	got, err := provider.EmbedMany(context.Background(), mock, values(7), nil, 0)
	if err != nil {
		t.Fatalf("EmbedMany: %v", err)
	}
	if len(got) != 7 || mock.CallCount() != 1 {
		t.Errorf("vectors = %d, calls = %d, want 7 and 1", len(got), mock.CallCount())
	}
}

func TestEmbedMany_ChunksInOrder(t *testing.T) {
	t.Parallel()

	for _, parallel := range []bool{false, true} {
		t.Run(fmt.Sprintf("parallel=%v", parallel), func(t *testing.T) {
			t.Parallel()

			mock := &providertest.MockEmbeddingModel{
				MaxPerCall: 3,
				Parallel:   parallel,
				EmbedFunc: func(_ context.Context, opts provider.EmbedOptions) (*provider.EmbedResult, error) {
					if len(opts.Values) > 3 {
						t.Errorf("chunk of %d values exceeds cap", len(opts.Values))
					}
					return &provider.EmbedResult{Embeddings: vectorsFor(opts.Values)}, nil
				},
			}

			got, err := provider.EmbedMany(context.Background(), mock, values(10), nil, 2)
			if err != nil {
				t.Fatalf("EmbedMany: %v", err)
			}
			if mock.CallCount() != 4 {
				t.Errorf("calls = %d, want 4", mock.CallCount())
			}
			if len(got) != 10 {
				t.Fatalf("vectors = %d, want 10", len(got))
			}
			for i, v := range got {
				if v[0] != float64(i) {
					t.Errorf("vector %d = %v, want [%d]", i, v, i)
				}
			}
		})
	}
}

func TestEmbedMany_Error(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	var calls atomic.Int32
	mock := &providertest.MockEmbeddingModel{
		MaxPerCall: 2,
		Parallel:   true,
		EmbedFunc: func(_ context.Context, opts provider.EmbedOptions) (*provider.EmbedResult, error) {
			if calls.Add(1) == 2 {
				return nil, boom
			}
			return &provider.EmbedResult{Embeddings: vectorsFor(opts.Values)}, nil
		},
	}

	_, err := provider.EmbedMany(context.Background(), mock, values(6), nil, 1)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestObservers_FanOut(t *testing.T) {
	t.Parallel()

	var seen []string
	obs := provider.Observers{
		provider.ObserverFunc(func(_ context.Context, rec provider.CallRecord) { seen = append(seen, "a:"+rec.Model) }),
		provider.ObserverFunc(func(_ context.Context, rec provider.CallRecord) { seen = append(seen, "b:"+rec.Model) }),
	}
	obs.ObserveCall(context.Background(), provider.CallRecord{Model: "m"})

	if len(seen) != 2 || seen[0] != "a:m" || seen[1] != "b:m" {
		t.Errorf("seen = %v", seen)
	}
}
