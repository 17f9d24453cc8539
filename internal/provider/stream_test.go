package provider

import (
	"context"
	"errors"
	"testing"
)

func eventChan(events ...StreamEvent) <-chan StreamEvent {
	ch := make(chan StreamEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}

func TestMarshalEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ev   StreamEvent
		want string
	}{
		{"text", TextDeltaEvent{TextDelta: "hi"}, `{"type":"text-delta","textDelta":"hi"}`},
		{"error", ErrorEvent{Err: errors.New("bad chunk")}, `{"type":"error","error":"bad chunk"}`},
		{
			"tool call",
			ToolCallEvent{ToolCall{ToolCallType: "function", ToolCallID: "1", ToolName: "f", Args: "{}"}},
			`{"type":"tool-call","toolCallType":"function","toolCallId":"1","toolName":"f","args":"{}"}`,
		},
		{
			"finish",
			FinishEvent{FinishReason: FinishReasonStop, Usage: UnknownUsage()},
			`{"type":"finish","finishReason":"stop","usage":{"promptTokens":null,"completionTokens":null}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			data, err := MarshalEvent(tt.ev)
			if err != nil {
				t.Fatalf("MarshalEvent: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("got  %s\nwant %s", data, tt.want)
			}
		})
	}
}

func TestCollect(t *testing.T) {
	t.Parallel()

	events := eventChan(
		TextDeltaEvent{TextDelta: "Hello, "},
		TextDeltaEvent{TextDelta: "world"},
		ToolCallDeltaEvent{ToolCallType: "function", ToolCallID: "1", ToolName: "f", ArgsTextDelta: "{}"},
		ToolCallEvent{ToolCall{ToolCallType: "function", ToolCallID: "1", ToolName: "f", Args: "{}"}},
		SourceEvent{Source: Source{SourceType: SourceTypeURL, ID: "s", URL: "https://a"}},
		FinishEvent{FinishReason: FinishReasonToolCalls, Usage: Usage{PromptTokens: 1, CompletionTokens: 2}},
	)

	res, err := Collect(context.Background(), events)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if res.Text != "Hello, world" || !res.HasText {
		t.Errorf("Text = %q, HasText = %v", res.Text, res.HasText)
	}
	if len(res.ToolCalls) != 1 || len(res.Sources) != 1 {
		t.Errorf("tool calls = %d, sources = %d, want 1 and 1", len(res.ToolCalls), len(res.Sources))
	}
	if res.FinishReason != FinishReasonToolCalls || res.Usage.CompletionTokens != 2 {
		t.Errorf("finish = %s, usage = %+v", res.FinishReason, res.Usage)
	}
}

func TestCollect_ErrorEvent(t *testing.T) {
	t.Parallel()

	bad := errors.New("bad chunk")
	_, err := Collect(context.Background(), eventChan(
		ErrorEvent{Err: bad},
		FinishEvent{FinishReason: FinishReasonUnknown, Usage: UnknownUsage()},
	))
	if !errors.Is(err, bad) {
		t.Errorf("err = %v, want %v", err, bad)
	}
}

func TestCollect_NoFinish(t *testing.T) {
	t.Parallel()

	_, err := Collect(context.Background(), eventChan(TextDeltaEvent{TextDelta: "x"}))
	if !errors.Is(err, ErrIncompleteStream) {
		t.Errorf("err = %v, want ErrIncompleteStream", err)
	}
}

func TestCollect_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Collect(ctx, make(chan StreamEvent))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
