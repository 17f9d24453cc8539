package google

import (
	"github.com/flemzord/gemgate/internal/provider"
	"google.golang.org/genai"
)

// mapFinishReason maps a candidate finish reason. STOP becomes tool-calls
// when the candidate produced at least one function call.
func mapFinishReason(reason genai.FinishReason, hasToolCalls bool) provider.FinishReason {
	switch reason {
	case genai.FinishReasonStop:
		if hasToolCalls {
			return provider.FinishReasonToolCalls
		}
		return provider.FinishReasonStop
	case genai.FinishReasonMaxTokens:
		return provider.FinishReasonLength
	case genai.FinishReasonImageSafety,
		genai.FinishReasonRecitation,
		genai.FinishReasonSafety,
		genai.FinishReasonBlocklist,
		genai.FinishReasonProhibitedContent,
		genai.FinishReasonSPII:
		return provider.FinishReasonContentFilter
	case genai.FinishReasonUnspecified, genai.FinishReasonOther:
		return provider.FinishReasonOther
	case genai.FinishReasonMalformedFunctionCall:
		return provider.FinishReasonError
	default:
		return provider.FinishReasonUnknown
	}
}
