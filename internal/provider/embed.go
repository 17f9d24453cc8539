package provider

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// EmbedOptions is the input to EmbeddingModel.Embed.
type EmbedOptions struct {
	Values  []string
	Headers map[string]string
}

// EmbedResult holds one vector per input value, in input order.
type EmbedResult struct {
	Embeddings [][]float64  `json:"embeddings"`
	Response   ResponseInfo `json:"-"`
}

// EmbedMany embeds any number of values by splitting them into calls of at
// most model.MaxEmbeddingsPerCall values. When the model supports parallel
// calls, up to parallelism calls run at once (0 means no limit). Vectors
// are returned in input order. The first failing call cancels the rest.
func EmbedMany(ctx context.Context, model EmbeddingModel, values []string, headers map[string]string, parallelism int) ([][]float64, error) {
	size := model.MaxEmbeddingsPerCall()
	if size <= 0 || len(values) <= size {
		res, err := model.Embed(ctx, EmbedOptions{Values: values, Headers: headers})
		if err != nil {
			return nil, err
		}
		return res.Embeddings, nil
	}

	var chunks [][]string
	for start := 0; start < len(values); start += size {
		chunks = append(chunks, values[start:min(start+size, len(values))])
	}

	out := make([][][]float64, len(chunks))

	if !model.SupportsParallelCalls() {
		for i, chunk := range chunks {
			res, err := model.Embed(ctx, EmbedOptions{Values: chunk, Headers: headers})
			if err != nil {
				return nil, err
			}
			out[i] = res.Embeddings
		}
		return flatten(out, len(values)), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for i, chunk := range chunks {
		g.Go(func() error {
			res, err := model.Embed(gctx, EmbedOptions{Values: chunk, Headers: headers})
			if err != nil {
				return err
			}
			out[i] = res.Embeddings
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return flatten(out, len(values)), nil
}

func flatten(chunks [][][]float64, n int) [][]float64 {
	all := make([][]float64, 0, n)
	for _, c := range chunks {
		all = append(all, c...)
	}
	return all
}
