package persona

import (
	"errors"
	"strings"
	"testing"
)

const skepticTemplate = `agent:
  name: "The Skeptic"
  role: "devil's advocate"
  system_prompt: |
    <persona>
      You are The Skeptic, a relentless devil's advocate.
    </persona>
    <context>
      Topic: {{decision_topic}}
      Profile: {{user_profile_summary}}
    </context>
    <behavior>
      Challenge every assumption.
    </behavior>
    <constraints>
      Never exceed three paragraphs.
    </constraints>
`

func TestRender_SectionsAndBindings(t *testing.T) {
	r := NewRenderer()
	out, err := r.Render(skepticTemplate, map[string]string{
		VarDecisionTopic:      "acquire or build",
		VarUserProfileSummary: "bootstrapped founder",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{
		"PERSONA:",
		"CONTEXT:",
		"BEHAVIOR GUIDELINES:",
		"CONSTRAINTS:",
		"Topic: acquire or build",
		"Profile: bootstrapped founder",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in rendered prompt:\n%s", want, out)
		}
	}

	// section order is fixed regardless of tag order in the document
	if strings.Index(out, "PERSONA:") > strings.Index(out, "CONTEXT:") {
		t.Fatalf("sections out of order:\n%s", out)
	}
	if strings.Contains(out, "{{") {
		t.Fatalf("placeholder leaked into output:\n%s", out)
	}
}

func TestRender_UnresolvedVariable(t *testing.T) {
	r := NewRenderer()
	_, err := r.Render(skepticTemplate, map[string]string{
		VarDecisionTopic: "acquire or build",
		// user_profile_summary deliberately absent
	})
	var terr *TemplateError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TemplateError, got %v", err)
	}
	if !strings.Contains(terr.Msg, "user_profile_summary") {
		t.Fatalf("error should name the missing variable: %v", terr)
	}
}

func TestRender_MalformedAndIncomplete(t *testing.T) {
	r := NewRenderer()

	cases := []struct {
		name string
		raw  string
	}{
		{"not yaml", ":\n  - ["},
		{"missing name", "agent:\n  role: r\n  system_prompt: p\n"},
		{"missing role", "agent:\n  name: n\n  system_prompt: p\n"},
		{"missing prompt", "agent:\n  name: n\n  role: r\n"},
		{"blank prompt", "agent:\n  name: n\n  role: r\n  system_prompt: \"   \"\n"},
	}
	for _, tc := range cases {
		_, err := r.Render(tc.raw, nil)
		var terr *TemplateError
		if !errors.As(err, &terr) {
			t.Fatalf("%s: expected TemplateError, got %v", tc.name, err)
		}
		if err := r.Validate(tc.raw); !errors.As(err, &terr) {
			t.Fatalf("%s: Validate should reject too, got %v", tc.name, err)
		}
	}
}

func TestRender_NoSectionTagsPassThrough(t *testing.T) {
	raw := "agent:\n  name: n\n  role: r\n  system_prompt: |\n    Just a plain prompt about {{decision_topic}}.\n"
	r := NewRenderer()
	out, err := r.Render(raw, map[string]string{VarDecisionTopic: "hiring"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "plain prompt about hiring") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "PERSONA:") {
		t.Fatalf("no sections expected:\n%s", out)
	}
}

func TestValidate_AllowsUnboundPlaceholders(t *testing.T) {
	// Validate runs at save time, before bindings exist.
	if err := NewRenderer().Validate(skepticTemplate); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestVariables_DistinctInOrder(t *testing.T) {
	raw := "a {{decision_topic}} b {{prior_turns}} c {{decision_topic}}"
	got := NewRenderer().Variables(raw)
	if len(got) != 2 || got[0] != "decision_topic" || got[1] != "prior_turns" {
		t.Fatalf("unexpected variables: %v", got)
	}
}
