package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type ProviderFactory func(ctx context.Context, model string) (Provider, error)

// Registry routes (provider name, model name) pairs to provider instances.
// Each provider carries a default model so agents may leave the model blank.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
	defaults  map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]ProviderFactory),
		defaults:  make(map[string]string),
	}
}

func (r *Registry) Register(name, defaultModel string, f ProviderFactory) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
	r.defaults[name] = strings.TrimSpace(defaultModel)
}

// Get resolves the factory for name and instantiates it with model, falling
// back to the provider's default model when model is blank.
func (r *Registry) Get(ctx context.Context, name string, model string) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	model = strings.TrimSpace(model)

	r.mu.RLock()
	f, ok := r.factories[name]
	if model == "" {
		model = r.defaults[name]
	}
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown ai provider: %s", name)
	}
	return f(ctx, model)
}
