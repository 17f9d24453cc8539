package google

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/flemzord/gemgate/internal/provider"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// streamChannelBuffer is the buffer size for the event channel.
const streamChannelBuffer = 64

// scannerBufferSize is the max token size for the SSE line scanner.
// Chunks carrying inline images exceed the default 64 KiB limit.
const scannerBufferSize = 16 * 1024 * 1024

// Stream implements provider.LanguageModel.
func (m *LanguageModel) Stream(ctx context.Context, opts provider.CallOptions) (*provider.StreamResult, error) {
	start := time.Now()
	ctx, span := m.p.tracer.Start(ctx, "google.stream", trace.WithAttributes(
		attribute.String("gen_ai.system", ProviderName),
		attribute.String("gen_ai.request.model", m.id),
	))
	fail := func(err error) (*provider.StreamResult, error) {
		rec := m.record(start, err)
		endSpan(span, rec)
		m.p.observe(ctx, rec)
		return nil, err
	}

	args, warnings, err := m.getArgs(opts)
	if err != nil {
		return fail(err)
	}
	body, err := json.Marshal(args)
	if err != nil {
		return fail(fmt.Errorf("google: marshal request: %w", err))
	}

	url := m.p.baseURL + "/" + modelPath(m.id) + ":streamGenerateContent?alt=sse"
	resp, err := m.p.openStream(ctx, url, body, opts.Headers)
	if err != nil {
		return fail(err)
	}

	ch := make(chan provider.StreamEvent, streamChannelBuffer)
	go func() {
		defer close(ch)
		st := readStream(ctx, resp.Body, ch, newStreamState(m.p.generateID))
		rec := m.record(start, st.err)
		if st.finished {
			rec.FinishReason = st.finishReason
			rec.Usage = st.usage
		} else if ctx.Err() != nil {
			rec.Err = ctx.Err()
		}
		endSpan(span, rec)
		m.p.observe(context.WithoutCancel(ctx), rec)
	}()

	return &provider.StreamResult{
		Events:   ch,
		Warnings: warnings,
		Request:  provider.RequestInfo{Body: string(body)},
		Response: provider.ResponseInfo{Headers: resp.Header},
	}, nil
}

func (m *LanguageModel) record(start time.Time, err error) provider.CallRecord {
	return provider.CallRecord{
		Provider:  ProviderName,
		Model:     m.id,
		Operation: provider.OperationStream,
		Usage:     provider.UnknownUsage(),
		Duration:  time.Since(start),
		Err:       err,
	}
}

// streamState accumulates what the final finish event reports. It is
// owned by the single reading goroutine.
type streamState struct {
	generateID func() string

	finishReason provider.FinishReason
	usage        provider.Usage
	metadata     provider.ProviderMetadata
	hasToolCalls bool

	// err is the first in-band error, kept for observation.
	err      error
	finished bool
}

func newStreamState(generateID func() string) *streamState {
	return &streamState{
		generateID:   generateID,
		finishReason: provider.FinishReasonUnknown,
		usage:        provider.UnknownUsage(),
	}
}

// fold applies one SSE data payload and returns the events it produces.
// A payload that fails to decode yields a single ErrorEvent and leaves
// the state untouched.
func (s *streamState) fold(data []byte) []provider.StreamEvent {
	chunk, err := decodeChunk(data)
	if err != nil {
		return []provider.StreamEvent{s.errorEvent(err)}
	}

	if chunk.UsageMetadata != nil {
		s.usage = usageFrom(chunk.UsageMetadata)
	}

	if len(chunk.Candidates) == 0 {
		return nil
	}
	cand := chunk.Candidates[0]

	var events []provider.StreamEvent
	if cand.Content != nil {
		ps := cand.Content.Parts
		if text, _ := textFromParts(ps); text != "" {
			events = append(events, provider.TextDeltaEvent{TextDelta: text})
		}
		for _, f := range filesFromParts(ps) {
			events = append(events, provider.FileEvent{Data: f.Data, MimeType: f.MimeType})
		}
		for _, call := range toolCallsFromParts(ps, s.generateID) {
			events = append(events,
				provider.ToolCallDeltaEvent{
					ToolCallType:  call.ToolCallType,
					ToolCallID:    call.ToolCallID,
					ToolName:      call.ToolName,
					ArgsTextDelta: call.Args,
				},
				provider.ToolCallEvent{ToolCall: call},
			)
			s.hasToolCalls = true
		}
	}

	if cand.FinishReason != "" {
		s.finishReason = mapFinishReason(cand.FinishReason, s.hasToolCalls)
		for _, src := range sourcesFrom(cand.GroundingMetadata, s.generateID) {
			events = append(events, provider.SourceEvent{Source: src})
		}
		s.metadata = providerMetadataFrom(cand)
	}

	return events
}

func (s *streamState) errorEvent(err error) provider.ErrorEvent {
	if s.err == nil {
		s.err = err
	}
	return provider.ErrorEvent{Err: err}
}

func (s *streamState) finishEvent() provider.FinishEvent {
	return provider.FinishEvent{
		FinishReason:     s.finishReason,
		Usage:            s.usage,
		ProviderMetadata: s.metadata,
	}
}

// emit sends ev on ch, respecting context cancellation.
// Returns false if the context was cancelled (caller should return).
func emit(ctx context.Context, ch chan<- provider.StreamEvent, ev provider.StreamEvent) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// readStream reads SSE events from body, folds each data payload into st
// and sends the resulting events on ch, followed by one finish event. It
// returns when the body ends or ctx is cancelled; a cancelled stream gets
// no finish event. body is always closed, ch never is.
func readStream(ctx context.Context, body io.ReadCloser, ch chan<- provider.StreamEvent, st *streamState) *streamState {
	defer func() { _ = body.Close() }()

	// Close body on context cancellation to unblock the scanner.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = body.Close()
		case <-done:
		}
	}()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), scannerBufferSize)

	var data bytes.Buffer
	dispatch := func() bool {
		if data.Len() == 0 {
			return true
		}
		payload := bytes.Clone(data.Bytes())
		data.Reset()
		for _, ev := range st.fold(payload) {
			if !emit(ctx, ch, ev) {
				return false
			}
		}
		return true
	}

	for scanner.Scan() {
		if ctx.Err() != nil {
			return st
		}
		line := scanner.Bytes()

		switch {
		case len(line) == 0:
			// Blank line ends an event.
			if !dispatch() {
				return st
			}
		case line[0] == ':':
			// Comment.
		case bytes.HasPrefix(line, []byte("data:")):
			v := bytes.TrimPrefix(line, []byte("data:"))
			v = bytes.TrimPrefix(v, []byte(" "))
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.Write(v)
		}
	}

	if ctx.Err() != nil {
		return st
	}

	if err := scanner.Err(); err != nil {
		data.Reset()
		if !emit(ctx, ch, st.errorEvent(mapConnectionError(err))) {
			return st
		}
	} else if !dispatch() {
		return st
	}

	st.finished = emit(ctx, ch, st.finishEvent())
	return st
}
