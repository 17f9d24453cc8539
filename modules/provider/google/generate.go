package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/flemzord/gemgate/internal/provider"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

const mimeTypeJSON = "application/json"

// getArgs builds the request body shared by Generate and Stream.
func (m *LanguageModel) getArgs(opts provider.CallOptions) (*generateContentRequest, []provider.Warning, error) {
	po, err := parseProviderOptions(opts.ProviderOptions)
	if err != nil {
		return nil, nil, err
	}

	gc := generationConfig{
		MaxOutputTokens:    opts.MaxOutputTokens,
		Temperature:        opts.Temperature,
		TopK:               opts.TopK,
		TopP:               opts.TopP,
		FrequencyPenalty:   opts.FrequencyPenalty,
		PresencePenalty:    opts.PresencePenalty,
		StopSequences:      opts.StopSequences,
		Seed:               opts.Seed,
		AudioTimestamp:     m.settings.AudioTimestamp,
		ResponseModalities: po.ResponseModalities,
		ThinkingConfig:     po.genaiThinkingConfig(),
	}
	if rf := opts.ResponseFormat; rf != nil && rf.Type == provider.ResponseFormatJSON {
		gc.ResponseMimeType = mimeTypeJSON
		if len(rf.Schema) > 0 && m.settings.structuredOutputs() {
			if gc.ResponseSchema, err = convertJSONSchema(rf.Schema); err != nil {
				return nil, nil, fmt.Errorf("response format: %w", err)
			}
		}
	}

	system, contents, err := convertMessages(opts.Prompt)
	if err != nil {
		return nil, nil, err
	}

	req := &generateContentRequest{
		GenerationConfig:  gc,
		Contents:          contents,
		SystemInstruction: system,
		SafetySettings:    m.settings.SafetySettings,
		CachedContent:     m.settings.CachedContent,
	}

	mode := opts.Mode
	if mode == nil {
		mode = provider.RegularMode{}
	}

	switch mode := mode.(type) {
	case provider.RegularMode:
		prepared, err := prepareTools(mode, m.settings.UseSearchGrounding, m.settings.DynamicRetrievalConfig, m.id)
		if err != nil {
			return nil, nil, err
		}
		req.Tools = prepared.tools
		req.ToolConfig = prepared.toolConfig
		return req, prepared.warnings, nil

	case provider.ObjectJSONMode:
		req.GenerationConfig.ResponseMimeType = mimeTypeJSON
		req.GenerationConfig.ResponseSchema = nil
		if len(mode.Schema) > 0 && m.settings.structuredOutputs() {
			if req.GenerationConfig.ResponseSchema, err = convertJSONSchema(mode.Schema); err != nil {
				return nil, nil, fmt.Errorf("object schema: %w", err)
			}
		}
		return req, nil, nil

	case provider.ObjectToolMode:
		params, err := convertJSONSchema(mode.Tool.Parameters)
		if err != nil {
			return nil, nil, fmt.Errorf("tool %q: %w", mode.Tool.Name, err)
		}
		req.Tools = []tool{{FunctionDeclarations: []functionDeclaration{{
			Name:        mode.Tool.Name,
			Description: mode.Tool.Description,
			Parameters:  params,
		}}}}
		req.ToolConfig = callingMode(genai.FunctionCallingConfigModeAny)
		return req, nil, nil

	default:
		return nil, nil, fmt.Errorf("%w: unsupported mode type %s", provider.ErrUnsupported, provider.ModeType(mode))
	}
}

// Generate implements provider.LanguageModel.
func (m *LanguageModel) Generate(ctx context.Context, opts provider.CallOptions) (res *provider.GenerateResult, err error) {
	start := time.Now()
	ctx, span := m.p.tracer.Start(ctx, "google.generate", trace.WithAttributes(
		attribute.String("gen_ai.system", ProviderName),
		attribute.String("gen_ai.request.model", m.id),
	))
	defer func() {
		rec := provider.CallRecord{
			Provider:  ProviderName,
			Model:     m.id,
			Operation: provider.OperationGenerate,
			Usage:     provider.UnknownUsage(),
			Duration:  time.Since(start),
			Err:       err,
		}
		if res != nil {
			rec.FinishReason = res.FinishReason
			rec.Usage = res.Usage
		}
		endSpan(span, rec)
		m.p.observe(ctx, rec)
	}()

	args, warnings, err := m.getArgs(opts)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("google: marshal request: %w", err)
	}

	url := m.p.baseURL + "/" + modelPath(m.id) + ":generateContent"
	out, err := m.p.doPost(ctx, url, body, opts.Headers)
	if err != nil {
		return nil, err
	}

	resp, err := decodeResponse(out.body)
	if err != nil {
		return nil, err
	}

	cand := resp.Candidates[0]
	var ps parts
	if cand.Content != nil {
		ps = cand.Content.Parts
	}
	toolCalls := toolCallsFromParts(ps, m.p.generateID)

	text, hasText := textFromParts(ps)
	return &provider.GenerateResult{
		Text:             text,
		HasText:          hasText,
		Files:            filesFromParts(ps),
		ToolCalls:        toolCalls,
		FinishReason:     mapFinishReason(cand.FinishReason, len(toolCalls) > 0),
		Usage:            usageFrom(resp.UsageMetadata),
		Sources:          sourcesFrom(cand.GroundingMetadata, m.p.generateID),
		Warnings:         warnings,
		ProviderMetadata: providerMetadataFrom(cand),
		Request:          provider.RequestInfo{Body: string(body)},
		Response:         provider.ResponseInfo{Headers: out.headers},
	}, nil
}

// HealthCheck sends a one-token request to verify the key, model access
// and quota.
func (m *LanguageModel) HealthCheck(ctx context.Context) error {
	maxTokens := 1
	_, err := m.Generate(ctx, provider.CallOptions{
		Prompt: provider.Prompt{
			provider.UserMessage(provider.TextPart{Text: "ping"}),
		},
		MaxOutputTokens: &maxTokens,
	})
	return err
}

// textFromParts joins the text parts and reports whether there were any.
func textFromParts(ps parts) (string, bool) {
	var (
		sb    strings.Builder
		found bool
	)
	for _, p := range ps {
		if t, ok := p.(textPart); ok {
			sb.WriteString(t.Text)
			found = true
		}
	}
	return sb.String(), found
}

func filesFromParts(ps parts) []provider.GeneratedFile {
	var files []provider.GeneratedFile
	for _, p := range ps {
		if d, ok := p.(inlineDataPart); ok {
			files = append(files, provider.GeneratedFile{
				Data:     d.InlineData.Data,
				MimeType: d.InlineData.MimeType,
			})
		}
	}
	return files
}

// toolCallsFromParts returns one tool call per functionCall part, each
// with a fresh id. Missing args stringify as "{}".
func toolCallsFromParts(ps parts, generateID func() string) []provider.ToolCall {
	var calls []provider.ToolCall
	for _, part := range ps {
		fc, ok := part.(functionCallPart)
		if !ok {
			continue
		}
		args := string(fc.FunctionCall.Args)
		if args == "" || args == "null" {
			args = "{}"
		}
		calls = append(calls, provider.ToolCall{
			ToolCallType: provider.ToolCallTypeFunction,
			ToolCallID:   generateID(),
			ToolName:     fc.FunctionCall.Name,
			Args:         compactJSON(args),
		})
	}
	return calls
}

// compactJSON strips insignificant whitespace so args match what a JSON
// encoder would produce.
func compactJSON(s string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		return s
	}
	return buf.String()
}

func sourcesFrom(gm *genai.GroundingMetadata, generateID func() string) []provider.Source {
	if gm == nil {
		return nil
	}
	var sources []provider.Source
	for _, chunk := range gm.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		sources = append(sources, provider.Source{
			SourceType: provider.SourceTypeURL,
			ID:         generateID(),
			URL:        chunk.Web.URI,
			Title:      chunk.Web.Title,
		})
	}
	return sources
}

// usageFrom maps usage metadata; counts the API did not report are NaN.
func usageFrom(um *usageMetadata) provider.Usage {
	u := provider.UnknownUsage()
	if um == nil {
		return u
	}
	if um.PromptTokenCount != nil {
		u.PromptTokens = *um.PromptTokenCount
	}
	if um.CandidatesTokenCount != nil {
		u.CompletionTokens = *um.CandidatesTokenCount
	}
	return u
}

// MetadataGoogle is the "google" entry of the provider metadata.
type MetadataGoogle struct {
	GroundingMetadata *genai.GroundingMetadata `json:"groundingMetadata"`
	SafetyRatings     []*genai.SafetyRating    `json:"safetyRatings"`
}

func providerMetadataFrom(c candidate) provider.ProviderMetadata {
	return provider.ProviderMetadata{
		providerOptionsKey: MetadataGoogle{
			GroundingMetadata: c.GroundingMetadata,
			SafetyRatings:     c.SafetyRatings,
		},
	}
}

func endSpan(span trace.Span, rec provider.CallRecord) {
	if rec.FinishReason != "" {
		span.SetAttributes(attribute.String("gen_ai.response.finish_reason", string(rec.FinishReason)))
	}
	if rec.Usage.Known() {
		span.SetAttributes(
			attribute.Float64("gen_ai.usage.input_tokens", rec.Usage.PromptTokens),
			attribute.Float64("gen_ai.usage.output_tokens", rec.Usage.CompletionTokens),
		)
	}
	if rec.Err != nil {
		span.RecordError(rec.Err)
		span.SetStatus(codes.Error, rec.Err.Error())
	}
	span.End()
}
