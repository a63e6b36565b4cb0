package ai

import (
	"context"
	"testing"
)

type nopProvider struct{ model string }

func (p nopProvider) Generate(ctx context.Context, system, prompt string, params Params) (string, error) {
	return "", nil
}

func TestRegistry_DefaultModelFallback(t *testing.T) {
	reg := NewRegistry()
	reg.Register("fake", "fallback-model", func(ctx context.Context, model string) (Provider, error) {
		return nopProvider{model: model}, nil
	})

	p, err := reg.Get(context.Background(), "fake", "")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := p.(nopProvider).model; got != "fallback-model" {
		t.Fatalf("expected default model, got %q", got)
	}

	p, err = reg.Get(context.Background(), "fake", "explicit-model")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := p.(nopProvider).model; got != "explicit-model" {
		t.Fatalf("explicit model overridden: %q", got)
	}
}

func TestRegistry_NameNormalization(t *testing.T) {
	reg := NewRegistry()
	reg.Register("  Fake  ", "m", func(ctx context.Context, model string) (Provider, error) {
		return nopProvider{model: model}, nil
	})
	if _, err := reg.Get(context.Background(), "fake", "m"); err != nil {
		t.Fatalf("lookup should be case and space insensitive: %v", err)
	}
}

func TestRegistry_UnknownProvider(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Get(context.Background(), "nope", "m"); err == nil {
		t.Fatalf("expected error for unregistered provider")
	}
}
