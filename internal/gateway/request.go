package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/flemzord/gemgate/internal/provider"
)

// callRequest is the JSON body of /v1/generate, /v1/stream and the first
// websocket message of /v1/ws/stream.
type callRequest struct {
	Prompt provider.Prompt `json:"prompt"`
	Mode   *modeRequest    `json:"mode,omitempty"`

	MaxOutputTokens  *int     `json:"maxOutputTokens,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	TopP             *float64 `json:"topP,omitempty"`
	TopK             *int     `json:"topK,omitempty"`
	FrequencyPenalty *float64 `json:"frequencyPenalty,omitempty"`
	PresencePenalty  *float64 `json:"presencePenalty,omitempty"`
	StopSequences    []string `json:"stopSequences,omitempty"`
	Seed             *int     `json:"seed,omitempty"`

	ResponseFormat  *provider.ResponseFormat   `json:"responseFormat,omitempty"`
	ProviderOptions map[string]json.RawMessage `json:"providerOptions,omitempty"`
}

// modeRequest is the tagged wire form of provider.Mode.
type modeRequest struct {
	Type string `json:"type"`

	// regular
	Tools      []json.RawMessage    `json:"tools,omitempty"`
	ToolChoice *provider.ToolChoice `json:"toolChoice,omitempty"`

	// object-json
	Schema      json.RawMessage `json:"schema,omitempty"`
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`

	// object-tool
	Tool json.RawMessage `json:"tool,omitempty"`
}

// decodeCallRequest reads a bounded JSON body into a callRequest.
func decodeCallRequest(w http.ResponseWriter, r *http.Request, limit int64) (*callRequest, error) {
	var req callRequest
	if err := decodeBody(w, r, limit, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	body := http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty request body", provider.ErrInvalidArgument)
		}
		return fmt.Errorf("%w: request body: %v", provider.ErrInvalidArgument, err)
	}
	return nil
}

// callOptions validates the request and converts it.
func (req *callRequest) callOptions() (provider.CallOptions, error) {
	if len(req.Prompt) == 0 {
		return provider.CallOptions{}, fmt.Errorf("%w: prompt is required", provider.ErrInvalidArgument)
	}
	mode, err := req.Mode.mode()
	if err != nil {
		return provider.CallOptions{}, err
	}
	return provider.CallOptions{
		Prompt:           req.Prompt,
		Mode:             mode,
		MaxOutputTokens:  req.MaxOutputTokens,
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		TopK:             req.TopK,
		FrequencyPenalty: req.FrequencyPenalty,
		PresencePenalty:  req.PresencePenalty,
		StopSequences:    req.StopSequences,
		Seed:             req.Seed,
		ResponseFormat:   req.ResponseFormat,
		ProviderOptions:  req.ProviderOptions,
	}, nil
}

func (m *modeRequest) mode() (provider.Mode, error) {
	if m == nil {
		return provider.RegularMode{}, nil
	}
	switch m.Type {
	case "", "regular":
		mode := provider.RegularMode{ToolChoice: m.ToolChoice}
		for i, raw := range m.Tools {
			tool, err := provider.UnmarshalTool(raw)
			if err != nil {
				return nil, fmt.Errorf("mode.tools[%d]: %w", i, err)
			}
			mode.Tools = append(mode.Tools, tool)
		}
		return mode, nil
	case "object-json":
		return provider.ObjectJSONMode{Schema: m.Schema, Name: m.Name, Description: m.Description}, nil
	case "object-tool":
		if len(m.Tool) == 0 {
			return nil, fmt.Errorf("%w: object-tool mode requires a tool", provider.ErrInvalidArgument)
		}
		tool, err := provider.UnmarshalTool(m.Tool)
		if err != nil {
			return nil, fmt.Errorf("mode.tool: %w", err)
		}
		fn, ok := tool.(provider.FunctionTool)
		if !ok {
			return nil, fmt.Errorf("%w: object-tool mode requires a function tool", provider.ErrInvalidArgument)
		}
		return provider.ObjectToolMode{Tool: fn}, nil
	default:
		return nil, fmt.Errorf("%w: unknown mode type %q", provider.ErrInvalidArgument, m.Type)
	}
}
