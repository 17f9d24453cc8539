package provider

import "encoding/json"

// ResponseFormatType is the requested output format.
type ResponseFormatType string

// ResponseFormatType constants.
const (
	ResponseFormatText ResponseFormatType = "text"
	ResponseFormatJSON ResponseFormatType = "json"
)

// ResponseFormat asks for text or JSON output. Schema only applies to JSON.
type ResponseFormat struct {
	Type        ResponseFormatType `json:"type"`
	Schema      json.RawMessage    `json:"schema,omitempty"`
	Name        string             `json:"name,omitempty"`
	Description string             `json:"description,omitempty"`
}

// CallOptions is the input to LanguageModel.Generate and LanguageModel.Stream.
// Nil pointers mean "provider default".
type CallOptions struct {
	Prompt Prompt
	Mode   Mode

	MaxOutputTokens  *int
	Temperature      *float64
	TopP             *float64
	TopK             *int
	FrequencyPenalty *float64
	PresencePenalty  *float64
	StopSequences    []string
	Seed             *int

	ResponseFormat *ResponseFormat

	// Headers are added to the outgoing request and win over provider headers.
	Headers map[string]string

	// ProviderOptions holds provider-specific options keyed by provider
	// name, e.g. "google".
	ProviderOptions map[string]json.RawMessage
}
