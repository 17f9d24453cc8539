package provider

import (
	"encoding/json"
	"math"
	"net/http"
)

// MessageRole identifies the sender of a message in a conversation.
type MessageRole string

// MessageRole constants for conversation messages.
const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleTool      MessageRole = "tool"
)

// FinishReason describes why the model stopped generating.
type FinishReason string

// FinishReason constants for model completion termination.
const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonContentFilter FinishReason = "content-filter"
	FinishReasonToolCalls     FinishReason = "tool-calls"
	FinishReasonError         FinishReason = "error"
	FinishReasonOther         FinishReason = "other"
	FinishReasonUnknown       FinishReason = "unknown"
)

// Usage reports token consumption. A count the provider did not report is NaN.
type Usage struct {
	PromptTokens     float64
	CompletionTokens float64
}

// UnknownUsage returns a Usage with both counts unreported.
func UnknownUsage() Usage {
	return Usage{PromptTokens: math.NaN(), CompletionTokens: math.NaN()}
}

// Known reports whether both counts were reported.
func (u Usage) Known() bool {
	return !math.IsNaN(u.PromptTokens) && !math.IsNaN(u.CompletionTokens)
}

// MarshalJSON encodes unreported counts as null.
func (u Usage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		PromptTokens     *float64 `json:"promptTokens"`
		CompletionTokens *float64 `json:"completionTokens"`
	}{nanToNil(u.PromptTokens), nanToNil(u.CompletionTokens)})
}

// UnmarshalJSON decodes null or missing counts as NaN.
func (u *Usage) UnmarshalJSON(data []byte) error {
	var raw struct {
		PromptTokens     *float64 `json:"promptTokens"`
		CompletionTokens *float64 `json:"completionTokens"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = UnknownUsage()
	if raw.PromptTokens != nil {
		u.PromptTokens = *raw.PromptTokens
	}
	if raw.CompletionTokens != nil {
		u.CompletionTokens = *raw.CompletionTokens
	}
	return nil
}

func nanToNil(f float64) *float64 {
	if math.IsNaN(f) {
		return nil
	}
	return &f
}

// WarningType classifies a call warning.
type WarningType string

// WarningType constants.
const (
	WarningUnsupportedSetting WarningType = "unsupported-setting"
	WarningUnsupportedTool    WarningType = "unsupported-tool"
	WarningOther              WarningType = "other"
)

// Warning reports a setting or tool that the provider ignored.
type Warning struct {
	Type    WarningType `json:"type"`
	Setting string      `json:"setting,omitempty"`
	Tool    Tool        `json:"tool,omitempty"`
	Details string      `json:"details,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ProviderMetadata carries provider-specific result data keyed by provider
// name (e.g. "google").
type ProviderMetadata map[string]any

// RequestInfo describes the outgoing request.
type RequestInfo struct {
	// Body is the JSON request body as sent.
	Body string `json:"body,omitempty"`
}

// ResponseInfo describes the provider response.
type ResponseInfo struct {
	Headers http.Header `json:"headers,omitempty"`
}
