package google

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/flemzord/gemgate/internal/provider"
)

const maxValueExcerpt = 512

// decodeResponse decodes and validates a generateContent body. A response
// must carry at least one candidate.
func decodeResponse(body []byte) (*generateContentResponse, error) {
	var resp generateContentResponse
	if err := decodeStrictShape(body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 {
		cause := errNoCandidates
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			cause = fmt.Errorf("%w (prompt blocked: %s)", errNoCandidates, resp.PromptFeedback.BlockReason)
		}
		return nil, schemaError(body, cause)
	}
	return &resp, nil
}

// decodeChunk decodes one streamed chunk. Unlike a full response a chunk
// may omit candidates entirely, e.g. a trailing usage-only chunk.
func decodeChunk(data []byte) (*generateContentResponse, error) {
	var chunk generateContentResponse
	if err := decodeStrictShape(data, &chunk); err != nil {
		return nil, err
	}
	return &chunk, nil
}

// decodeEmbedResponse decodes a batchEmbedContents body and checks that it
// holds exactly want embeddings.
func decodeEmbedResponse(body []byte, want int) (*batchEmbedResponse, error) {
	var resp batchEmbedResponse
	if err := decodeStrictShape(body, &resp); err != nil {
		return nil, err
	}
	if resp.Embeddings == nil {
		return nil, schemaError(body, errors.New("embeddings is required"))
	}
	if len(resp.Embeddings) != want {
		return nil, schemaError(body, fmt.Errorf("got %d embeddings for %d values", len(resp.Embeddings), want))
	}
	for i, e := range resp.Embeddings {
		if e.Values == nil {
			return nil, schemaError(body, fmt.Errorf("embeddings[%d].values is required", i))
		}
	}
	return &resp, nil
}

// decodeStrictShape requires a JSON object and decodes it into v.
func decodeStrictShape(body []byte, v any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return schemaError(body, errors.New("expected a JSON object"))
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return schemaError(body, err)
	}
	return nil
}

func schemaError(body []byte, cause error) error {
	return &provider.SchemaValidationError{
		Value: truncate(string(body), maxValueExcerpt),
		Cause: cause,
	}
}
