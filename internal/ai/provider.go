package ai

import "context"

// Params are per-call generation knobs, taken from the acting agent.
type Params struct {
	Temperature float64
	MaxTokens   int
}

// Provider is the narrow contract to one text-generation backend:
// a fully-rendered system prompt plus a user prompt in, generated text out.
type Provider interface {
	Generate(ctx context.Context, system, prompt string, p Params) (string, error)
}
