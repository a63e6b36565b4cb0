package debate

import (
	"context"
	"errors"

	"github.com/decisionlab/boardroom/internal/ai"
)

// Synthesis generation parameters: low temperature, bounded length.
const (
	synthTemperature = 0.3
	synthMaxTokens   = 600
)

// Synthesizer turns a full transcript into a cross-agent synthesis plus
// derived counters. The counters are deterministic; the text is whatever the
// model returns.
type Synthesizer struct {
	registry *ai.Registry
	provider string
	model    string
}

func NewSynthesizer(registry *ai.Registry, provider, model string) *Synthesizer {
	return &Synthesizer{registry: registry, provider: provider, model: model}
}

func (s *Synthesizer) Synthesize(ctx context.Context, topic string, turns []Turn) (*Summary, error) {
	if len(turns) == 0 {
		return nil, errors.New("empty transcript")
	}

	provider, err := s.registry.Get(ctx, s.provider, s.model)
	if err != nil {
		return nil, err
	}

	text, err := provider.Generate(ctx, "", synthesisPrompt(topic, turns), ai.Params{
		Temperature: synthTemperature,
		MaxTokens:   synthMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	distinct := make(map[uint64]struct{}, len(turns))
	for _, t := range turns {
		distinct[t.AgentID] = struct{}{}
	}

	return &Summary{
		SessionID:          turns[0].SessionID,
		Content:            text,
		MessageCount:       len(turns),
		AgentsParticipated: len(distinct),
	}, nil
}
