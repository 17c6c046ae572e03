// Package insights turns the derived dashboard state into an AI-written
// strategy narrative. Raw query text never leaves the process: providers
// only ever see the sanitized, pre-formatted payload.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Narrative is the structured strategy readout returned by a provider.
type Narrative struct {
	StrategicHealth string  `json:"strategicHealth"`
	LowHangingFruit string  `json:"lowHangingFruit"`
	Moonshot        string  `json:"moonshot"`
	Confidence      float64 `json:"confidence"`
}

// Provider generates a narrative from a sanitized payload.
type Provider interface {
	Generate(ctx context.Context, systemPrompt string, payload Payload) (Narrative, error)
}

// decodeNarrative parses a model response into a Narrative. Models often
// wrap JSON in markdown code fences despite the mime-type hint, so those
// are stripped first.
func decodeNarrative(text string) (Narrative, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var n Narrative
	if err := json.Unmarshal([]byte(cleaned), &n); err != nil {
		return Narrative{}, fmt.Errorf("decoding narrative response: %w", err)
	}
	if n.Confidence < 0 {
		n.Confidence = 0
	}
	if n.Confidence > 1 {
		n.Confidence = 1
	}
	return n, nil
}
