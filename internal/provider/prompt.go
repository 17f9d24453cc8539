package provider

import (
	"encoding/json"
	"fmt"
)

// Prompt is an ordered conversation.
type Prompt []Message

// Message is one turn of a conversation. System messages carry Text;
// every other role carries Parts.
type Message struct {
	Role  MessageRole
	Text  string
	Parts []Part
}

// SystemMessage returns a system message with the given text.
func SystemMessage(text string) Message {
	return Message{Role: MessageRoleSystem, Text: text}
}

// UserMessage returns a user message. Valid parts: TextPart, ImagePart, FilePart.
func UserMessage(parts ...Part) Message {
	return Message{Role: MessageRoleUser, Parts: parts}
}

// AssistantMessage returns an assistant message. Valid parts: TextPart,
// FilePart, ToolCallPart.
func AssistantMessage(parts ...Part) Message {
	return Message{Role: MessageRoleAssistant, Parts: parts}
}

// ToolMessage returns a tool message made of ToolResultPart values.
func ToolMessage(parts ...Part) Message {
	return Message{Role: MessageRoleTool, Parts: parts}
}

// Part is one unit of message content. The set is closed: only the types
// in this package implement it.
type Part interface {
	partType() string
}

// TextPart is plain text.
type TextPart struct {
	Text string
}

// ImagePart is an image given either as inline bytes or as a URL.
// MimeType may be empty.
type ImagePart struct {
	Data     []byte
	URL      string
	MimeType string
}

// FilePart is a file given either as inline bytes or as a URL.
type FilePart struct {
	Data     []byte
	URL      string
	MimeType string
}

// ToolCallPart is a tool invocation previously made by the model.
// Args is the JSON argument object.
type ToolCallPart struct {
	ToolCallID string
	ToolName   string
	Args       json.RawMessage
}

// ToolResultPart is the outcome of a tool call. Result is opaque and is
// forwarded as-is.
type ToolResultPart struct {
	ToolCallID string
	ToolName   string
	Result     any
}

func (TextPart) partType() string       { return "text" }
func (ImagePart) partType() string      { return "image" }
func (FilePart) partType() string       { return "file" }
func (ToolCallPart) partType() string   { return "tool-call" }
func (ToolResultPart) partType() string { return "tool-result" }

// partJSON is the flat wire form of a Part, tagged by Type.
type partJSON struct {
	Type       string          `json:"type"`
	Text       string          `json:"text,omitempty"`
	Data       []byte          `json:"data,omitempty"`
	URL        string          `json:"url,omitempty"`
	MimeType   string          `json:"mimeType,omitempty"`
	ToolCallID string          `json:"toolCallId,omitempty"`
	ToolName   string          `json:"toolName,omitempty"`
	Args       json.RawMessage `json:"args,omitempty"`
	Result     any             `json:"result,omitempty"`
}

type messageJSON struct {
	Role    MessageRole     `json:"role"`
	Content json.RawMessage `json:"content"`
}

// MarshalJSON encodes a system message as {"role","content":string} and
// every other message as {"role","content":[parts]}.
func (m Message) MarshalJSON() ([]byte, error) {
	var content any
	if m.Role == MessageRoleSystem {
		content = m.Text
	} else {
		parts := make([]partJSON, 0, len(m.Parts))
		for _, p := range m.Parts {
			parts = append(parts, encodePart(p))
		}
		content = parts
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(messageJSON{Role: m.Role, Content: raw})
}

// UnmarshalJSON decodes the form written by MarshalJSON. A user message
// whose content is a plain string is read as a single TextPart.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw messageJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch raw.Role {
	case MessageRoleSystem:
		var text string
		if err := json.Unmarshal(raw.Content, &text); err != nil {
			return fmt.Errorf("%w: system message content must be a string", ErrInvalidArgument)
		}
		*m = SystemMessage(text)
		return nil
	case MessageRoleUser, MessageRoleAssistant, MessageRoleTool:
	default:
		return fmt.Errorf("%w: unknown message role %q", ErrInvalidArgument, raw.Role)
	}

	var text string
	if raw.Role == MessageRoleUser && json.Unmarshal(raw.Content, &text) == nil {
		*m = UserMessage(TextPart{Text: text})
		return nil
	}

	var parts []partJSON
	if err := json.Unmarshal(raw.Content, &parts); err != nil {
		return fmt.Errorf("%w: %s message content: %v", ErrInvalidArgument, raw.Role, err)
	}
	out := Message{Role: raw.Role, Parts: make([]Part, 0, len(parts))}
	for i, pj := range parts {
		p, err := decodePart(pj)
		if err != nil {
			return fmt.Errorf("%s message part %d: %w", raw.Role, i, err)
		}
		if !allowedPart(raw.Role, p) {
			return fmt.Errorf("%w: %s part not allowed in %s message", ErrInvalidArgument, p.partType(), raw.Role)
		}
		out.Parts = append(out.Parts, p)
	}
	*m = out
	return nil
}

func encodePart(p Part) partJSON {
	switch v := p.(type) {
	case TextPart:
		return partJSON{Type: "text", Text: v.Text}
	case ImagePart:
		return partJSON{Type: "image", Data: v.Data, URL: v.URL, MimeType: v.MimeType}
	case FilePart:
		return partJSON{Type: "file", Data: v.Data, URL: v.URL, MimeType: v.MimeType}
	case ToolCallPart:
		return partJSON{Type: "tool-call", ToolCallID: v.ToolCallID, ToolName: v.ToolName, Args: v.Args}
	case ToolResultPart:
		return partJSON{Type: "tool-result", ToolCallID: v.ToolCallID, ToolName: v.ToolName, Result: v.Result}
	default:
		return partJSON{Type: p.partType()}
	}
}

func decodePart(pj partJSON) (Part, error) {
	switch pj.Type {
	case "text":
		return TextPart{Text: pj.Text}, nil
	case "image":
		return ImagePart{Data: pj.Data, URL: pj.URL, MimeType: pj.MimeType}, nil
	case "file":
		return FilePart{Data: pj.Data, URL: pj.URL, MimeType: pj.MimeType}, nil
	case "tool-call":
		args := pj.Args
		if len(args) == 0 {
			args = json.RawMessage(`{}`)
		}
		return ToolCallPart{ToolCallID: pj.ToolCallID, ToolName: pj.ToolName, Args: args}, nil
	case "tool-result":
		return ToolResultPart{ToolCallID: pj.ToolCallID, ToolName: pj.ToolName, Result: pj.Result}, nil
	default:
		return nil, fmt.Errorf("%w: unknown part type %q", ErrInvalidArgument, pj.Type)
	}
}

func allowedPart(role MessageRole, p Part) bool {
	switch role {
	case MessageRoleUser:
		switch p.(type) {
		case TextPart, ImagePart, FilePart:
			return true
		}
	case MessageRoleAssistant:
		switch p.(type) {
		case TextPart, FilePart, ToolCallPart:
			return true
		}
	case MessageRoleTool:
		_, ok := p.(ToolResultPart)
		return ok
	}
	return false
}
