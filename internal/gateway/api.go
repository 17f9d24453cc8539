package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/flemzord/gemgate/internal/provider"
)

var (
	errNoLanguageModel  = errors.New("no language model configured")
	errNoEmbeddingModel = errors.New("no embedding model configured")
)

// dimensioner is implemented by embedding models that can truncate vectors
// per request.
type dimensioner interface {
	WithOutputDimensionality(n int) provider.EmbeddingModel
}

// handleGenerate returns an http.HandlerFunc for POST /v1/generate.
func (g *Gateway) handleGenerate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.lm == nil {
			writeJSONError(w, http.StatusServiceUnavailable, errNoLanguageModel.Error())
			return
		}
		req, err := decodeCallRequest(w, r, g.config.MaxBodyBytes)
		if err != nil {
			g.writeError(w, r, err)
			return
		}
		opts, err := req.callOptions()
		if err != nil {
			g.writeError(w, r, err)
			return
		}

		res, err := g.lm.Generate(r.Context(), opts)
		if err != nil {
			g.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// embedRequest is the JSON body of POST /v1/embed.
type embedRequest struct {
	Values               []string `json:"values"`
	OutputDimensionality *int     `json:"output_dimensionality,omitempty"`
}

// embedResponse is the JSON response for POST /v1/embed.
type embedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

// handleEmbed returns an http.HandlerFunc for POST /v1/embed. Values beyond
// the model's per-call cap are split across several calls.
func (g *Gateway) handleEmbed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.em == nil {
			writeJSONError(w, http.StatusServiceUnavailable, errNoEmbeddingModel.Error())
			return
		}
		var req embedRequest
		if err := decodeBody(w, r, g.config.MaxBodyBytes, &req); err != nil {
			g.writeError(w, r, err)
			return
		}
		if len(req.Values) == 0 {
			g.writeError(w, r, fmt.Errorf("%w: values must not be empty", provider.ErrInvalidArgument))
			return
		}

		model := g.em
		if req.OutputDimensionality != nil {
			if *req.OutputDimensionality <= 0 {
				g.writeError(w, r, fmt.Errorf("%w: output_dimensionality must be positive", provider.ErrInvalidArgument))
				return
			}
			d, ok := model.(dimensioner)
			if !ok {
				g.writeError(w, r, fmt.Errorf("%w: model %s does not support output_dimensionality", provider.ErrUnsupported, model.ModelID()))
				return
			}
			model = d.WithOutputDimensionality(*req.OutputDimensionality)
		}

		vectors, err := provider.EmbedMany(r.Context(), model, req.Values, nil, g.config.EmbedParallelism)
		if err != nil {
			g.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, embedResponse{Model: model.ModelID(), Embeddings: vectors})
	}
}
