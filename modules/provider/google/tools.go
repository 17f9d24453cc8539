package google

import (
	"fmt"
	"strings"

	"github.com/flemzord/gemgate/internal/provider"
	"google.golang.org/genai"
)

type tool struct {
	FunctionDeclarations  []functionDeclaration `json:"functionDeclarations,omitempty"`
	GoogleSearch          *struct{}             `json:"googleSearch,omitempty"`
	GoogleSearchRetrieval *searchRetrieval      `json:"googleSearchRetrieval,omitempty"`
}

type searchRetrieval struct {
	DynamicRetrievalConfig *genai.DynamicRetrievalConfig `json:"dynamicRetrievalConfig,omitempty"`
}

type functionDeclaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

type toolConfig struct {
	FunctionCallingConfig functionCallingConfig `json:"functionCallingConfig"`
}

type functionCallingConfig struct {
	Mode                 genai.FunctionCallingConfigMode `json:"mode"`
	AllowedFunctionNames []string                        `json:"allowedFunctionNames,omitempty"`
}

type preparedTools struct {
	tools      []tool
	toolConfig *toolConfig
	warnings   []provider.Warning
}

// prepareTools converts regular-mode tools and tool choice. With search
// grounding enabled only the grounding tool is sent: googleSearch for
// gemini-2 models, googleSearchRetrieval otherwise, with the dynamic
// retrieval config only for non-8b gemini-1.5-flash models.
func prepareTools(mode provider.RegularMode, useSearchGrounding bool, dyn *genai.DynamicRetrievalConfig, modelID string) (preparedTools, error) {
	var out preparedTools

	if useSearchGrounding {
		if strings.Contains(modelID, "gemini-2") {
			out.tools = []tool{{GoogleSearch: &struct{}{}}}
			return out, nil
		}
		retrieval := &searchRetrieval{}
		supportsDynamic := strings.Contains(modelID, "gemini-1.5-flash") && !strings.Contains(modelID, "-8b")
		if supportsDynamic && dyn != nil {
			retrieval.DynamicRetrievalConfig = dyn
		}
		out.tools = []tool{{GoogleSearchRetrieval: retrieval}}
		return out, nil
	}

	if len(mode.Tools) == 0 {
		return out, nil
	}

	var decls []functionDeclaration
	for _, t := range mode.Tools {
		switch v := t.(type) {
		case provider.FunctionTool:
			params, err := convertJSONSchema(v.Parameters)
			if err != nil {
				return out, fmt.Errorf("tool %q: %w", v.Name, err)
			}
			decls = append(decls, functionDeclaration{
				Name:        v.Name,
				Description: v.Description,
				Parameters:  params,
			})
		case provider.ProviderDefinedTool:
			out.warnings = append(out.warnings, provider.Warning{Type: provider.WarningUnsupportedTool, Tool: v})
		}
	}
	if len(decls) > 0 {
		out.tools = []tool{{FunctionDeclarations: decls}}
	}

	if mode.ToolChoice == nil {
		return out, nil
	}

	var cfg *toolConfig
	switch mode.ToolChoice.Type {
	case provider.ToolChoiceAuto:
		cfg = callingMode(genai.FunctionCallingConfigModeAuto)
	case provider.ToolChoiceNone:
		cfg = callingMode(genai.FunctionCallingConfigModeNone)
	case provider.ToolChoiceRequired:
		cfg = callingMode(genai.FunctionCallingConfigModeAny)
	case provider.ToolChoiceTool:
		cfg = callingMode(genai.FunctionCallingConfigModeAny, mode.ToolChoice.ToolName)
	default:
		return out, fmt.Errorf("%w: unsupported tool choice type: %s", provider.ErrUnsupported, mode.ToolChoice.Type)
	}
	// The API rejects a calling config without declarations to choose from.
	if out.tools != nil {
		out.toolConfig = cfg
	}
	return out, nil
}

func callingMode(mode genai.FunctionCallingConfigMode, allowed ...string) *toolConfig {
	return &toolConfig{FunctionCallingConfig: functionCallingConfig{
		Mode:                 mode,
		AllowedFunctionNames: allowed,
	}}
}
