package google

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/flemzord/gemgate/internal/provider"
)

const (
	roleUser  = "user"
	roleModel = "model"

	defaultImageMimeType = "image/jpeg"
)

// convertMessages converts a prompt into the system instruction and the
// contents list. System messages are only accepted before any other
// message; their texts are pooled into one instruction.
func convertMessages(prompt provider.Prompt) (*content, []content, error) {
	var (
		systemParts   parts
		contents      = make([]content, 0, len(prompt))
		systemAllowed = true
	)

	for i, msg := range prompt {
		switch msg.Role {
		case provider.MessageRoleSystem:
			if !systemAllowed {
				return nil, nil, fmt.Errorf("%w: system messages are only supported at the beginning of the conversation", provider.ErrUnsupported)
			}
			systemParts = append(systemParts, textPart{Text: msg.Text})

		case provider.MessageRoleUser:
			systemAllowed = false
			ps, err := convertUserParts(msg.Parts)
			if err != nil {
				return nil, nil, fmt.Errorf("message %d: %w", i, err)
			}
			contents = append(contents, content{Role: roleUser, Parts: ps})

		case provider.MessageRoleAssistant:
			systemAllowed = false
			ps, err := convertAssistantParts(msg.Parts)
			if err != nil {
				return nil, nil, fmt.Errorf("message %d: %w", i, err)
			}
			contents = append(contents, content{Role: roleModel, Parts: ps})

		case provider.MessageRoleTool:
			systemAllowed = false
			ps, err := convertToolParts(msg.Parts)
			if err != nil {
				return nil, nil, fmt.Errorf("message %d: %w", i, err)
			}
			contents = append(contents, content{Role: roleUser, Parts: ps})

		default:
			return nil, nil, fmt.Errorf("%w: message %d: unknown role %q", provider.ErrInvalidArgument, i, msg.Role)
		}
	}

	var system *content
	if len(systemParts) > 0 {
		system = &content{Parts: systemParts}
	}
	return system, contents, nil
}

func convertUserParts(in []provider.Part) (parts, error) {
	out := make(parts, 0, len(in))
	for _, p := range in {
		switch v := p.(type) {
		case provider.TextPart:
			out = append(out, textPart{Text: v.Text})

		case provider.ImagePart:
			mime := v.MimeType
			if mime == "" {
				mime = defaultImageMimeType
			}
			out = append(out, dataPart(v.URL, v.Data, mime))

		case provider.FilePart:
			if v.MimeType == "" {
				return nil, fmt.Errorf("%w: file parts require a mime type", provider.ErrInvalidArgument)
			}
			out = append(out, dataPart(v.URL, v.Data, v.MimeType))

		default:
			return nil, fmt.Errorf("%w: %T is not allowed in user messages", provider.ErrInvalidArgument, p)
		}
	}
	return out, nil
}

func convertAssistantParts(in []provider.Part) (parts, error) {
	out := make(parts, 0, len(in))
	for _, p := range in {
		switch v := p.(type) {
		case provider.TextPart:
			if v.Text == "" {
				continue
			}
			out = append(out, textPart{Text: v.Text})

		case provider.FilePart:
			if v.MimeType != "image/png" {
				return nil, fmt.Errorf("%w: only PNG images are supported in assistant messages", provider.ErrUnsupported)
			}
			if v.URL != "" {
				return nil, fmt.Errorf("%w: file data URLs in assistant messages are not supported", provider.ErrUnsupported)
			}
			out = append(out, inlineDataPart{InlineData: blob{
				MimeType: v.MimeType,
				Data:     base64.StdEncoding.EncodeToString(v.Data),
			}})

		case provider.ToolCallPart:
			args := v.Args
			if len(args) == 0 {
				args = json.RawMessage(`{}`)
			}
			out = append(out, functionCallPart{FunctionCall: functionCall{Name: v.ToolName, Args: args}})

		default:
			return nil, fmt.Errorf("%w: %T is not allowed in assistant messages", provider.ErrInvalidArgument, p)
		}
	}
	return out, nil
}

func convertToolParts(in []provider.Part) (parts, error) {
	out := make(parts, 0, len(in))
	for _, p := range in {
		v, ok := p.(provider.ToolResultPart)
		if !ok {
			return nil, fmt.Errorf("%w: %T is not allowed in tool messages", provider.ErrInvalidArgument, p)
		}
		out = append(out, functionResponsePart{FunctionResponse: functionResponse{
			Name: v.ToolName,
			Response: functionResponseBody{
				Name:    v.ToolName,
				Content: v.Result,
			},
		}})
	}
	return out, nil
}

// dataPart references url when set, otherwise inlines data as base64.
func dataPart(url string, data []byte, mime string) part {
	if url != "" {
		return fileDataPart{FileData: fileData{MimeType: mime, FileURI: url}}
	}
	return inlineDataPart{InlineData: blob{
		MimeType: mime,
		Data:     base64.StdEncoding.EncodeToString(data),
	}}
}
