package provider

import "encoding/base64"

// GenerateResult is the output of LanguageModel.Generate.
type GenerateResult struct {
	// Text is the concatenation of all text parts. Empty when the model
	// returned no text.
	Text string `json:"text,omitempty"`

	// HasText reports whether the response had at least one text part, so
	// an empty text part is distinguishable from none.
	HasText bool `json:"hasText"`

	Files            []GeneratedFile  `json:"files,omitempty"`
	ToolCalls        []ToolCall       `json:"toolCalls,omitempty"`
	FinishReason     FinishReason     `json:"finishReason"`
	Usage            Usage            `json:"usage"`
	Sources          []Source         `json:"sources,omitempty"`
	Warnings         []Warning        `json:"warnings,omitempty"`
	ProviderMetadata ProviderMetadata `json:"providerMetadata,omitempty"`
	Request          RequestInfo      `json:"request"`
	Response         ResponseInfo     `json:"-"`
}

// GeneratedFile is a file produced by the model. Data is base64 encoded.
type GeneratedFile struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

// Bytes decodes the file contents.
func (f GeneratedFile) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(f.Data)
}

// ToolCallTypeFunction is the only tool call type.
const ToolCallTypeFunction = "function"

// ToolCall is a tool invocation requested by the model. Args is the
// stringified JSON argument object.
type ToolCall struct {
	ToolCallType string `json:"toolCallType"`
	ToolCallID   string `json:"toolCallId"`
	ToolName     string `json:"toolName"`
	Args         string `json:"args"`
}

// SourceTypeURL is the only source type.
const SourceTypeURL = "url"

// Source is a citation the model grounded its answer on.
type Source struct {
	SourceType string `json:"sourceType"`
	ID         string `json:"id"`
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
}

// StreamResult is the output of LanguageModel.Stream.
type StreamResult struct {
	Events   <-chan StreamEvent
	Warnings []Warning
	Request  RequestInfo
	Response ResponseInfo
}
