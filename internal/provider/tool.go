package provider

import (
	"encoding/json"
	"fmt"
)

// Tool is a tool the model may call. The set is closed: FunctionTool and
// ProviderDefinedTool.
type Tool interface {
	ToolName() string
	isTool()
}

// FunctionTool is a caller-defined function. Parameters is a JSON Schema.
type FunctionTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ProviderDefinedTool is a tool implemented by a provider. ID has the form
// "<provider>.<tool>".
type ProviderDefinedTool struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

func (t FunctionTool) ToolName() string        { return t.Name }
func (t ProviderDefinedTool) ToolName() string { return t.Name }
func (FunctionTool) isTool()                   {}
func (ProviderDefinedTool) isTool()            {}

// MarshalJSON adds the "type":"function" tag.
func (t FunctionTool) MarshalJSON() ([]byte, error) {
	type plain FunctionTool
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{"function", plain(t)})
}

// MarshalJSON adds the "type":"provider-defined" tag.
func (t ProviderDefinedTool) MarshalJSON() ([]byte, error) {
	type plain ProviderDefinedTool
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{"provider-defined", plain(t)})
}

// UnmarshalTool decodes a tool tagged by "type". A missing tag means
// "function".
func UnmarshalTool(data []byte) (Tool, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: tool: %v", ErrInvalidArgument, err)
	}
	switch head.Type {
	case "", "function":
		var t FunctionTool
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("%w: function tool: %v", ErrInvalidArgument, err)
		}
		if t.Name == "" {
			return nil, fmt.Errorf("%w: function tool name is required", ErrInvalidArgument)
		}
		return t, nil
	case "provider-defined":
		var t ProviderDefinedTool
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("%w: provider-defined tool: %v", ErrInvalidArgument, err)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("%w: unknown tool type %q", ErrInvalidArgument, head.Type)
	}
}

// ToolChoiceType selects how the model may use tools.
type ToolChoiceType string

// ToolChoiceType constants.
const (
	ToolChoiceAuto     ToolChoiceType = "auto"
	ToolChoiceNone     ToolChoiceType = "none"
	ToolChoiceRequired ToolChoiceType = "required"
	ToolChoiceTool     ToolChoiceType = "tool"
)

// ToolChoice directs tool usage. ToolName is only meaningful for ToolChoiceTool.
type ToolChoice struct {
	Type     ToolChoiceType `json:"type"`
	ToolName string         `json:"toolName,omitempty"`
}

// Mode selects what a call generates. The set is closed: RegularMode,
// ObjectJSONMode and ObjectToolMode. A nil Mode behaves as RegularMode{}.
type Mode interface {
	modeType() string
}

// RegularMode generates free-form output, optionally with tools.
type RegularMode struct {
	Tools      []Tool
	ToolChoice *ToolChoice
}

// ObjectJSONMode generates a JSON object, optionally constrained by Schema.
type ObjectJSONMode struct {
	Schema      json.RawMessage
	Name        string
	Description string
}

// ObjectToolMode generates a JSON object by forcing a call to Tool.
type ObjectToolMode struct {
	Tool FunctionTool
}

func (RegularMode) modeType() string    { return "regular" }
func (ObjectJSONMode) modeType() string { return "object-json" }
func (ObjectToolMode) modeType() string { return "object-tool" }

// ModeType returns the tag of m, "regular" for nil.
func ModeType(m Mode) string {
	if m == nil {
		return "regular"
	}
	return m.modeType()
}
