package debate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/decisionlab/boardroom/internal/ai"
)

func synthTurns() []Turn {
	now := time.Now()
	return []Turn{
		{SessionID: "s1", TurnIndex: 0, AgentID: 1, AgentName: "Agent A", AgentRole: "analyst", Content: "go north", CreatedAt: now},
		{SessionID: "s1", TurnIndex: 1, AgentID: 2, AgentName: "Agent B", AgentRole: "skeptic", Content: "go south", CreatedAt: now},
		{SessionID: "s1", TurnIndex: 2, AgentID: 1, AgentName: "Agent A", AgentRole: "analyst", Content: "north is cheaper", CreatedAt: now},
	}
}

func synthTestSetup(prov ai.Provider) *Synthesizer {
	reg := ai.NewRegistry()
	reg.Register("fake", "default", func(ctx context.Context, model string) (ai.Provider, error) {
		return prov, nil
	})
	return NewSynthesizer(reg, "fake", "default")
}

func TestSynthesize_CountersAndPrompt(t *testing.T) {
	prov := &scriptedProvider{}
	synth := synthTestSetup(prov)

	sum, err := synth.Synthesize(context.Background(), "expansion", synthTurns())
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if sum.SessionID != "s1" {
		t.Fatalf("wrong session id: %s", sum.SessionID)
	}
	if sum.MessageCount != 3 {
		t.Fatalf("expected message count 3, got %d", sum.MessageCount)
	}
	if sum.AgentsParticipated != 2 {
		t.Fatalf("expected 2 distinct agents, got %d", sum.AgentsParticipated)
	}
	if sum.Content == "" {
		t.Fatalf("empty synthesis content")
	}

	prov.mu.Lock()
	defer prov.mu.Unlock()
	prompt := prov.prompts[0]
	for _, want := range []string{"expansion", "Agent A: go north", "Agent B: go south", "north is cheaper"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
	p := prov.params[0]
	if p.Temperature != synthTemperature || p.MaxTokens != synthMaxTokens {
		t.Fatalf("unexpected generation params: %+v", p)
	}
}

func TestSynthesize_EmptyTranscript(t *testing.T) {
	synth := synthTestSetup(&scriptedProvider{})
	if _, err := synth.Synthesize(context.Background(), "t", nil); err == nil {
		t.Fatalf("expected error on empty transcript")
	}
}

func TestSynthesize_ProviderFailure(t *testing.T) {
	boom := errors.New("model offline")
	synth := synthTestSetup(&scriptedProvider{failOn: map[int]error{0: boom}})
	if _, err := synth.Synthesize(context.Background(), "t", synthTurns()); !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestSynthesize_UnknownProvider(t *testing.T) {
	synth := NewSynthesizer(ai.NewRegistry(), "nope", "default")
	if _, err := synth.Synthesize(context.Background(), "t", synthTurns()); err == nil {
		t.Fatalf("expected unknown provider error")
	}
}
