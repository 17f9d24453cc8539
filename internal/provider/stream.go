package provider

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// ErrIncompleteStream is returned by Collect when the event channel closes
// without a FinishEvent.
var ErrIncompleteStream = errors.New("stream ended before finish event")

// StreamEvent is one item of a streaming response. The set is closed:
// TextDeltaEvent, FileEvent, ToolCallDeltaEvent, ToolCallEvent, SourceEvent,
// ErrorEvent and FinishEvent.
type StreamEvent interface {
	// EventType returns the event tag, e.g. "text-delta".
	EventType() string
}

// TextDeltaEvent carries newly generated text.
type TextDeltaEvent struct {
	TextDelta string `json:"textDelta"`
}

// FileEvent carries a generated file. Data is base64 encoded.
type FileEvent struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

// ToolCallDeltaEvent carries tool call arguments. It is always followed by
// the matching ToolCallEvent.
type ToolCallDeltaEvent struct {
	ToolCallType  string `json:"toolCallType"`
	ToolCallID    string `json:"toolCallId"`
	ToolName      string `json:"toolName"`
	ArgsTextDelta string `json:"argsTextDelta"`
}

// ToolCallEvent carries a complete tool call.
type ToolCallEvent struct {
	ToolCall
}

// SourceEvent carries one grounding source.
type SourceEvent struct {
	Source Source `json:"source"`
}

// ErrorEvent reports a problem with one part of the stream. The stream
// continues after it.
type ErrorEvent struct {
	Err error `json:"-"`
}

// FinishEvent is the last event of a stream that was not canceled.
type FinishEvent struct {
	FinishReason     FinishReason     `json:"finishReason"`
	Usage            Usage            `json:"usage"`
	ProviderMetadata ProviderMetadata `json:"providerMetadata,omitempty"`
}

func (TextDeltaEvent) EventType() string     { return "text-delta" }
func (FileEvent) EventType() string          { return "file" }
func (ToolCallDeltaEvent) EventType() string { return "tool-call-delta" }
func (ToolCallEvent) EventType() string      { return "tool-call" }
func (SourceEvent) EventType() string        { return "source" }
func (ErrorEvent) EventType() string         { return "error" }
func (FinishEvent) EventType() string        { return "finish" }

// MarshalJSON encodes the error message.
func (e ErrorEvent) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		Error string `json:"error"`
	}{msg})
}

// MarshalEvent encodes ev as a JSON object with a "type" tag followed by
// the event fields.
func MarshalEvent(ev StreamEvent) ([]byte, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	tag, err := json.Marshal(ev.EventType())
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(`{"type":`)
	b.Write(tag)
	if len(body) > 2 {
		b.WriteByte(',')
		b.Write(body[1 : len(body)-1])
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// Collect drains a stream into a GenerateResult-like summary. Deltas are
// concatenated; ErrorEvent values are returned as the first error seen
// after the channel closes. It returns ctx.Err() if ctx ends first.
func Collect(ctx context.Context, events <-chan StreamEvent) (*GenerateResult, error) {
	var (
		text     strings.Builder
		result   = &GenerateResult{FinishReason: FinishReasonUnknown, Usage: UnknownUsage()}
		firstErr error
		finished bool
	)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				result.Text = text.String()
				if firstErr != nil {
					return result, firstErr
				}
				if !finished {
					return result, ErrIncompleteStream
				}
				return result, nil
			}
			switch e := ev.(type) {
			case TextDeltaEvent:
				text.WriteString(e.TextDelta)
				result.HasText = true
			case FileEvent:
				result.Files = append(result.Files, GeneratedFile(e))
			case ToolCallEvent:
				result.ToolCalls = append(result.ToolCalls, e.ToolCall)
			case SourceEvent:
				result.Sources = append(result.Sources, e.Source)
			case ErrorEvent:
				if firstErr == nil {
					firstErr = e.Err
				}
			case FinishEvent:
				finished = true
				result.FinishReason = e.FinishReason
				result.Usage = e.Usage
				result.ProviderMetadata = e.ProviderMetadata
			}
		}
	}
}
