package usage

import (
	"encoding/json"
	"math"
)

// MarshalJSON encodes unreported token counts as null and the duration in
// milliseconds.
func (e Entry) MarshalJSON() ([]byte, error) {
	type plain Entry
	return json.Marshal(struct {
		plain
		PromptTokens     *float64 `json:"prompt_tokens"`
		CompletionTokens *float64 `json:"completion_tokens"`
		DurationMS       int64    `json:"duration_ms"`
	}{plain(e), nanToNil(e.PromptTokens), nanToNil(e.CompletionTokens), e.Duration.Milliseconds()})
}

func nanToNil(f float64) *float64 {
	if math.IsNaN(f) {
		return nil
	}
	return &f
}
