package google

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/flemzord/gemgate/internal/provider"
	"google.golang.org/genai"
)

var weatherTool = provider.FunctionTool{
	Name:        "weather",
	Description: "Current weather",
	Parameters:  json.RawMessage(`{"type":"object","properties":{"city":{"type":"string"}},"required":["city"]}`),
}

func TestPrepareTools_NoTools(t *testing.T) {
	got, err := prepareTools(provider.RegularMode{}, false, nil, "gemini-pro")
	if err != nil {
		t.Fatalf("prepareTools() error: %v", err)
	}
	if got.tools != nil || got.toolConfig != nil || got.warnings != nil {
		t.Errorf("prepareTools() = %+v, want empty", got)
	}
}

func TestPrepareTools_FunctionDeclarations(t *testing.T) {
	got, err := prepareTools(provider.RegularMode{
		Tools: []provider.Tool{
			weatherTool,
			provider.FunctionTool{Name: "noop"},
		},
	}, false, nil, "gemini-pro")
	if err != nil {
		t.Fatalf("prepareTools() error: %v", err)
	}
	want := `[{"functionDeclarations":[` +
		`{"name":"weather","description":"Current weather","parameters":{"type":"object","required":["city"],"properties":{"city":{"type":"string"}}}},` +
		`{"name":"noop","description":""}` +
		`]}]`
	if s := marshalString(t, got.tools); s != want {
		t.Errorf("tools =\n%s\nwant\n%s", s, want)
	}
	if got.toolConfig != nil {
		t.Errorf("toolConfig = %+v, want nil without tool choice", got.toolConfig)
	}
}

func TestPrepareTools_ProviderDefinedToolWarns(t *testing.T) {
	pdt := provider.ProviderDefinedTool{ID: "other.search", Name: "search"}
	got, err := prepareTools(provider.RegularMode{Tools: []provider.Tool{pdt}}, false, nil, "gemini-pro")
	if err != nil {
		t.Fatalf("prepareTools() error: %v", err)
	}
	if got.tools != nil {
		t.Errorf("tools = %+v, want none", got.tools)
	}
	if len(got.warnings) != 1 || got.warnings[0].Type != provider.WarningUnsupportedTool {
		t.Fatalf("warnings = %+v, want one unsupported-tool", got.warnings)
	}
	if got.warnings[0].Tool != provider.Tool(pdt) {
		t.Errorf("warning tool = %+v, want %+v", got.warnings[0].Tool, pdt)
	}
}

func TestPrepareTools_ToolChoice(t *testing.T) {
	tests := []struct {
		name   string
		choice provider.ToolChoice
		want   string
	}{
		{"auto", provider.ToolChoice{Type: provider.ToolChoiceAuto}, `{"functionCallingConfig":{"mode":"AUTO"}}`},
		{"none", provider.ToolChoice{Type: provider.ToolChoiceNone}, `{"functionCallingConfig":{"mode":"NONE"}}`},
		{"required", provider.ToolChoice{Type: provider.ToolChoiceRequired}, `{"functionCallingConfig":{"mode":"ANY"}}`},
		{"tool", provider.ToolChoice{Type: provider.ToolChoiceTool, ToolName: "weather"}, `{"functionCallingConfig":{"mode":"ANY","allowedFunctionNames":["weather"]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			choice := tt.choice
			got, err := prepareTools(provider.RegularMode{
				Tools:      []provider.Tool{weatherTool},
				ToolChoice: &choice,
			}, false, nil, "gemini-pro")
			if err != nil {
				t.Fatalf("prepareTools() error: %v", err)
			}
			if s := marshalString(t, got.toolConfig); s != tt.want {
				t.Errorf("toolConfig = %s, want %s", s, tt.want)
			}
		})
	}
}

func TestPrepareTools_ToolChoiceWithoutDeclarations(t *testing.T) {
	pdt := provider.ProviderDefinedTool{ID: "other.search", Name: "search"}
	got, err := prepareTools(provider.RegularMode{
		Tools:      []provider.Tool{pdt},
		ToolChoice: &provider.ToolChoice{Type: provider.ToolChoiceRequired},
	}, false, nil, "gemini-pro")
	if err != nil {
		t.Fatalf("prepareTools() error: %v", err)
	}
	if got.tools != nil || got.toolConfig != nil {
		t.Errorf("tools = %+v, toolConfig = %+v, want neither", got.tools, got.toolConfig)
	}
	if len(got.warnings) != 1 {
		t.Errorf("warnings = %+v, want one", got.warnings)
	}

	_, err = prepareTools(provider.RegularMode{
		Tools:      []provider.Tool{pdt},
		ToolChoice: &provider.ToolChoice{Type: "sometimes"},
	}, false, nil, "gemini-pro")
	if !errors.Is(err, provider.ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}

func TestPrepareTools_UnknownToolChoice(t *testing.T) {
	_, err := prepareTools(provider.RegularMode{
		Tools:      []provider.Tool{weatherTool},
		ToolChoice: &provider.ToolChoice{Type: "sometimes"},
	}, false, nil, "gemini-pro")
	if !errors.Is(err, provider.ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}

func TestPrepareTools_SearchGrounding(t *testing.T) {
	threshold := float32(0.3)
	dyn := &genai.DynamicRetrievalConfig{
		Mode:             genai.DynamicRetrievalConfigModeDynamic,
		DynamicThreshold: &threshold,
	}
	mode := provider.RegularMode{
		Tools:      []provider.Tool{weatherTool},
		ToolChoice: &provider.ToolChoice{Type: provider.ToolChoiceRequired},
	}

	tests := []struct {
		model string
		want  string
	}{
		{"gemini-2.0-flash", `[{"googleSearch":{}}]`},
		{"gemini-1.5-flash-002", `[{"googleSearchRetrieval":{"dynamicRetrievalConfig":{"mode":"MODE_DYNAMIC","dynamicThreshold":0.3}}}]`},
		{"gemini-1.5-flash-8b", `[{"googleSearchRetrieval":{}}]`},
		{"gemini-1.5-pro", `[{"googleSearchRetrieval":{}}]`},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			got, err := prepareTools(mode, true, dyn, tt.model)
			if err != nil {
				t.Fatalf("prepareTools() error: %v", err)
			}
			if s := marshalString(t, got.tools); s != tt.want {
				t.Errorf("tools = %s, want %s", s, tt.want)
			}
			if got.toolConfig != nil {
				t.Errorf("toolConfig = %+v, want nil with search grounding", got.toolConfig)
			}
		})
	}
}

func TestMapFinishReason(t *testing.T) {
	tests := []struct {
		reason       genai.FinishReason
		hasToolCalls bool
		want         provider.FinishReason
	}{
		{genai.FinishReasonStop, false, provider.FinishReasonStop},
		{genai.FinishReasonStop, true, provider.FinishReasonToolCalls},
		{genai.FinishReasonMaxTokens, false, provider.FinishReasonLength},
		{genai.FinishReasonMaxTokens, true, provider.FinishReasonLength},
		{genai.FinishReasonImageSafety, false, provider.FinishReasonContentFilter},
		{genai.FinishReasonRecitation, false, provider.FinishReasonContentFilter},
		{genai.FinishReasonSafety, false, provider.FinishReasonContentFilter},
		{genai.FinishReasonBlocklist, false, provider.FinishReasonContentFilter},
		{genai.FinishReasonProhibitedContent, false, provider.FinishReasonContentFilter},
		{genai.FinishReasonSPII, false, provider.FinishReasonContentFilter},
		{genai.FinishReasonUnspecified, false, provider.FinishReasonOther},
		{genai.FinishReasonOther, false, provider.FinishReasonOther},
		{genai.FinishReasonMalformedFunctionCall, false, provider.FinishReasonError},
		{"LANGUAGE", false, provider.FinishReasonUnknown},
		{"SOMETHING_NEW", false, provider.FinishReasonUnknown},
	}
	for _, tt := range tests {
		if got := mapFinishReason(tt.reason, tt.hasToolCalls); got != tt.want {
			t.Errorf("mapFinishReason(%q, %v) = %q, want %q", tt.reason, tt.hasToolCalls, got, tt.want)
		}
	}
}

func TestModelPath(t *testing.T) {
	tests := map[string]string{
		"gemini-pro":            "models/gemini-pro",
		"tunedModels/my-model":  "tunedModels/my-model",
		"models/gemini-1.5-pro": "models/gemini-1.5-pro",
	}
	for in, want := range tests {
		if got := modelPath(in); got != want {
			t.Errorf("modelPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsSupportedFileURL(t *testing.T) {
	if !isSupportedFileURL("https://generativelanguage.googleapis.com/v1beta/files/abc-123") {
		t.Error("Files API URL should be supported")
	}
	for _, u := range []string{
		"https://example.com/files/abc",
		"https://generativelanguage.googleapis.com/v1/files/abc",
		"",
	} {
		if isSupportedFileURL(u) {
			t.Errorf("isSupportedFileURL(%q) = true", u)
		}
	}
}
