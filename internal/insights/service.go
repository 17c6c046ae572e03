package insights

import (
	"context"
	"fmt"

	"github.com/babybento/aeo-command/internal/metrics"
	"github.com/babybento/aeo-command/internal/pkg/logger"
)

// Service sanitizes dashboard state and asks a provider for a narrative.
// Provider failures never break the metrics surface: callers always get a
// usable narrative back.
type Service struct {
	provider     Provider
	systemPrompt string
}

// NewService builds a service around the given provider. The strategist
// prompt is rendered once here.
func NewService(provider Provider, brand, siteURL string) (*Service, error) {
	prompt, err := BuildSystemPrompt(brand, siteURL)
	if err != nil {
		return nil, fmt.Errorf("insights: %w", err)
	}
	return &Service{provider: provider, systemPrompt: prompt}, nil
}

// offlineNarrative is served when the provider is unavailable or returns
// garbage. Metrics stay live regardless.
func offlineNarrative() Narrative {
	return Narrative{
		StrategicHealth: "AI analysis is currently offline. Live metrics remain accurate.",
		LowHangingFruit: "Retry the insights request once the narrative provider is reachable.",
		Moonshot:        "Unavailable while offline.",
		Confidence:      0,
	}
}

// Generate returns a narrative for the current selection. When the
// provider fails, the offline fallback is returned along with the error so
// callers can log it.
func (s *Service) Generate(ctx context.Context, snap *metrics.Snapshot, selected string) (Narrative, error) {
	payload := Sanitize(snap, selected)

	narrative, err := s.provider.Generate(ctx, s.systemPrompt, payload)
	if err != nil {
		logger.Warn("narrative generation failed, serving offline fallback", "error", err)
		return offlineNarrative(), err
	}
	return narrative, nil
}
