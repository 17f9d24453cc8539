package google

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/flemzord/gemgate/internal/provider"
	"google.golang.org/genai"
)

// ProviderName is the provider identifier reported by every model.
const ProviderName = "google.generative-ai"

// providerOptionsKey selects this provider's entry in CallOptions.ProviderOptions.
const providerOptionsKey = "google"

// Settings tune a language model beyond the standard call options.
type Settings struct {
	// StructuredOutputs sends response schemas to the API. Defaults to true.
	// Disable it for schemas the API rejects.
	StructuredOutputs *bool

	// CachedContent names a context cache, "cachedContents/{id}".
	CachedContent string

	// UseSearchGrounding replaces the caller's tools with Google Search.
	UseSearchGrounding bool

	// DynamicRetrievalConfig applies to search grounding on gemini-1.5-flash.
	DynamicRetrievalConfig *genai.DynamicRetrievalConfig

	SafetySettings []*genai.SafetySetting

	// AudioTimestamp enables timestamp understanding for audio-only files.
	AudioTimestamp bool
}

func (s Settings) structuredOutputs() bool {
	return s.StructuredOutputs == nil || *s.StructuredOutputs
}

// EmbeddingSettings tune an embedding model.
type EmbeddingSettings struct {
	// OutputDimensionality truncates embeddings to this many values.
	OutputDimensionality *int

	// TaskType is one of TaskTypes.
	TaskType string
}

// TaskTypes lists the task types accepted by the embedding API.
var TaskTypes = []string{
	"SEMANTIC_SIMILARITY",
	"CLASSIFICATION",
	"CLUSTERING",
	"RETRIEVAL_DOCUMENT",
	"RETRIEVAL_QUERY",
	"QUESTION_ANSWERING",
	"FACT_VERIFICATION",
	"CODE_RETRIEVAL_QUERY",
}

// Validate checks the task type and dimensionality.
func (s EmbeddingSettings) Validate() error {
	if s.TaskType != "" && !slices.Contains(TaskTypes, s.TaskType) {
		return fmt.Errorf("%w: unknown embedding task type %q", provider.ErrInvalidArgument, s.TaskType)
	}
	if s.OutputDimensionality != nil && *s.OutputDimensionality <= 0 {
		return fmt.Errorf("%w: output dimensionality must be positive", provider.ErrInvalidArgument)
	}
	return nil
}

// providerOptions is the "google" entry of CallOptions.ProviderOptions.
type providerOptions struct {
	ResponseModalities []genai.Modality `json:"responseModalities,omitempty"`
	ThinkingConfig     *thinkingConfig  `json:"thinkingConfig,omitempty"`
}

type thinkingConfig struct {
	ThinkingBudget *int32 `json:"thinkingBudget,omitempty"`
}

// parseProviderOptions decodes and validates the google provider options.
// Missing options yield a zero value.
func parseProviderOptions(opts map[string]json.RawMessage) (providerOptions, error) {
	var po providerOptions
	raw, ok := opts[providerOptionsKey]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return po, nil
	}
	if err := json.Unmarshal(raw, &po); err != nil {
		return po, fmt.Errorf("%w: google provider options: %v", provider.ErrInvalidArgument, err)
	}
	for _, m := range po.ResponseModalities {
		if m != genai.ModalityText && m != genai.ModalityImage {
			return po, fmt.Errorf("%w: unsupported response modality %q", provider.ErrInvalidArgument, m)
		}
	}
	return po, nil
}

func (po providerOptions) genaiThinkingConfig() *genai.ThinkingConfig {
	if po.ThinkingConfig == nil {
		return nil
	}
	return &genai.ThinkingConfig{ThinkingBudget: po.ThinkingConfig.ThinkingBudget}
}
