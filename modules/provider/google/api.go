package google

import (
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// Request wire types for generateContent and streamGenerateContent.

type generateContentRequest struct {
	GenerationConfig  generationConfig       `json:"generationConfig"`
	Contents          []content              `json:"contents"`
	SystemInstruction *content               `json:"systemInstruction,omitempty"`
	SafetySettings    []*genai.SafetySetting `json:"safetySettings,omitempty"`
	Tools             []tool                 `json:"tools,omitempty"`
	ToolConfig        *toolConfig            `json:"toolConfig,omitempty"`
	CachedContent     string                 `json:"cachedContent,omitempty"`
}

type generationConfig struct {
	MaxOutputTokens    *int                  `json:"maxOutputTokens,omitempty"`
	Temperature        *float64              `json:"temperature,omitempty"`
	TopK               *int                  `json:"topK,omitempty"`
	TopP               *float64              `json:"topP,omitempty"`
	FrequencyPenalty   *float64              `json:"frequencyPenalty,omitempty"`
	PresencePenalty    *float64              `json:"presencePenalty,omitempty"`
	StopSequences      []string              `json:"stopSequences,omitempty"`
	Seed               *int                  `json:"seed,omitempty"`
	ResponseMimeType   string                `json:"responseMimeType,omitempty"`
	ResponseSchema     *Schema               `json:"responseSchema,omitempty"`
	AudioTimestamp     bool                  `json:"audioTimestamp,omitempty"`
	ResponseModalities []genai.Modality      `json:"responseModalities,omitempty"`
	ThinkingConfig     *genai.ThinkingConfig `json:"thinkingConfig,omitempty"`
}

// content is a conversation turn. The system instruction uses the same
// shape without a role.
type content struct {
	Role  string `json:"role,omitempty"`
	Parts parts  `json:"parts"`
}

// part is exactly one of textPart, inlineDataPart, fileDataPart,
// functionCallPart or functionResponsePart.
type part interface {
	isPart()
}

type textPart struct {
	Text string `json:"text"`
}

type inlineDataPart struct {
	InlineData blob `json:"inlineData"`
}

type fileDataPart struct {
	FileData fileData `json:"fileData"`
}

type functionCallPart struct {
	FunctionCall functionCall `json:"functionCall"`
}

type functionResponsePart struct {
	FunctionResponse functionResponse `json:"functionResponse"`
}

func (textPart) isPart()             {}
func (inlineDataPart) isPart()       {}
func (fileDataPart) isPart()         {}
func (functionCallPart) isPart()     {}
func (functionResponsePart) isPart() {}

type blob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type fileData struct {
	MimeType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri"`
}

type functionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type functionResponse struct {
	Name     string               `json:"name"`
	Response functionResponseBody `json:"response"`
}

type functionResponseBody struct {
	Name    string `json:"name"`
	Content any    `json:"content"`
}

type parts []part

// UnmarshalJSON decodes each element into the concrete part type selected
// by the key it carries. Precedence follows the response schema: text,
// then functionCall, then inlineData. fileData and functionResponse are
// accepted for completeness. Anything else is an error.
func (ps *parts) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(parts, 0, len(raws))
	for i, raw := range raws {
		var shape struct {
			Text             *string           `json:"text"`
			FunctionCall     *functionCall     `json:"functionCall"`
			InlineData       *blob             `json:"inlineData"`
			FileData         *fileData         `json:"fileData"`
			FunctionResponse *functionResponse `json:"functionResponse"`
		}
		if err := json.Unmarshal(raw, &shape); err != nil {
			return fmt.Errorf("parts[%d]: %w", i, err)
		}
		switch {
		case shape.Text != nil:
			out = append(out, textPart{Text: *shape.Text})
		case shape.FunctionCall != nil:
			if shape.FunctionCall.Name == "" {
				return fmt.Errorf("parts[%d]: functionCall.name is required", i)
			}
			out = append(out, functionCallPart{FunctionCall: *shape.FunctionCall})
		case shape.InlineData != nil:
			if shape.InlineData.MimeType == "" {
				return fmt.Errorf("parts[%d]: inlineData.mimeType is required", i)
			}
			out = append(out, inlineDataPart{InlineData: *shape.InlineData})
		case shape.FileData != nil:
			out = append(out, fileDataPart{FileData: *shape.FileData})
		case shape.FunctionResponse != nil:
			out = append(out, functionResponsePart{FunctionResponse: *shape.FunctionResponse})
		default:
			return fmt.Errorf("parts[%d]: unrecognized part %s", i, truncate(string(raw), 80))
		}
	}
	*ps = out
	return nil
}

// Response wire types.

type generateContentResponse struct {
	Candidates     []candidate     `json:"candidates"`
	UsageMetadata  *usageMetadata  `json:"usageMetadata,omitempty"`
	PromptFeedback *promptFeedback `json:"promptFeedback,omitempty"`
}

type candidate struct {
	Content           *candidateContent        `json:"content,omitempty"`
	FinishReason      genai.FinishReason       `json:"finishReason,omitempty"`
	SafetyRatings     []*genai.SafetyRating    `json:"safetyRatings,omitempty"`
	GroundingMetadata *genai.GroundingMetadata `json:"groundingMetadata,omitempty"`
}

// candidateContent is either an empty object or a role with optional parts.
type candidateContent struct {
	Role  string `json:"role,omitempty"`
	Parts parts  `json:"parts,omitempty"`
}

type usageMetadata struct {
	PromptTokenCount     *float64 `json:"promptTokenCount,omitempty"`
	CandidatesTokenCount *float64 `json:"candidatesTokenCount,omitempty"`
	TotalTokenCount      *float64 `json:"totalTokenCount,omitempty"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// Error body returned with non-2xx statuses.

type errorResponse struct {
	Error *errorDetail `json:"error"`
}

type errorDetail struct {
	Code    *int   `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Embedding wire types.

type batchEmbedRequest struct {
	Requests []embedRequest `json:"requests"`
}

type embedRequest struct {
	Model                string  `json:"model"`
	Content              content `json:"content"`
	OutputDimensionality *int    `json:"outputDimensionality,omitempty"`
	TaskType             string  `json:"taskType,omitempty"`
}

type batchEmbedResponse struct {
	Embeddings []embeddingValues `json:"embeddings"`
}

type embeddingValues struct {
	Values []float64 `json:"values"`
}

var errNoCandidates = errors.New("response has no candidates")

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
