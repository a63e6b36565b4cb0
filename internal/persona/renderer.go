// Package persona renders agent persona templates into system prompts.
//
// A template is a YAML document:
//
//	agent:
//	  name: "The Skeptic"
//	  role: "devil's advocate"
//	  system_prompt: |
//	    <persona>...</persona>
//	    <context>
//	      Topic: {{decision_topic}}
//	      Profile: {{user_profile_summary}}
//	    </context>
//
// {{variable}} placeholders are substituted from a bindings map; a placeholder
// with no binding fails the render. Structural tags (persona, context,
// behavior, constraints, examples, format) are lifted into labeled sections.
package persona

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/goccy/go-yaml"
)

// Binding keys the orchestrator always supplies.
const (
	VarDecisionTopic      = "decision_topic"
	VarUserProfileSummary = "user_profile_summary"
	VarPriorTurns         = "prior_turns"
	VarExpertiseAreas     = "user_expertise_areas"
	VarRiskTolerance      = "user_risk_tolerance"
)

// TemplateError means the persona template itself is defective: malformed
// document, missing required fields, or a placeholder with no binding.
type TemplateError struct {
	Msg string
}

func (e *TemplateError) Error() string { return "persona: " + e.Msg }

var varPattern = regexp.MustCompile(`\{\{([a-zA-Z_][a-zA-Z0-9_]*)\}\}`)

// Section tags recognized inside system_prompt, in output order.
var sectionTags = []struct {
	tag   string
	label string
}{
	{"persona", "PERSONA"},
	{"context", "CONTEXT"},
	{"behavior", "BEHAVIOR GUIDELINES"},
	{"constraints", "CONSTRAINTS"},
	{"examples", "EXAMPLES"},
	{"format", "RESPONSE FORMAT"},
}

type templateDoc struct {
	Agent struct {
		Name         string `yaml:"name"`
		Role         string `yaml:"role"`
		SystemPrompt string `yaml:"system_prompt"`
	} `yaml:"agent"`
}

type Renderer struct{}

func NewRenderer() *Renderer { return &Renderer{} }

// Render parses the template, substitutes every placeholder from vars, and
// formats the tagged sections into the final system prompt.
func (r *Renderer) Render(raw string, vars map[string]string) (string, error) {
	doc, err := parse(raw)
	if err != nil {
		return "", err
	}

	substituted, err := substitute(doc.Agent.SystemPrompt, vars)
	if err != nil {
		return "", err
	}

	return formatSections(substituted), nil
}

// Validate reports whether the template parses, without rendering it.
// Placeholders are not checked here; bindings only exist at run time.
func (r *Renderer) Validate(raw string) error {
	_, err := parse(raw)
	return err
}

// Variables returns the distinct placeholder names in document order.
func (r *Renderer) Variables(raw string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range varPattern.FindAllStringSubmatch(raw, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

func parse(raw string) (*templateDoc, error) {
	var doc templateDoc
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, &TemplateError{Msg: fmt.Sprintf("invalid yaml: %v", err)}
	}
	if doc.Agent.Name == "" {
		return nil, &TemplateError{Msg: "missing required field: agent.name"}
	}
	if doc.Agent.Role == "" {
		return nil, &TemplateError{Msg: "missing required field: agent.role"}
	}
	if strings.TrimSpace(doc.Agent.SystemPrompt) == "" {
		return nil, &TemplateError{Msg: "missing required field: agent.system_prompt"}
	}
	return &doc, nil
}

func substitute(text string, vars map[string]string) (string, error) {
	var missing []string
	out := varPattern.ReplaceAllStringFunc(text, func(m string) string {
		name := varPattern.FindStringSubmatch(m)[1]
		v, ok := vars[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		return v
	})
	if len(missing) > 0 {
		return "", &TemplateError{Msg: "unresolved variables: " + strings.Join(missing, ", ")}
	}
	return out, nil
}

func formatSections(text string) string {
	var parts []string
	for _, s := range sectionTags {
		re := regexp.MustCompile(`(?is)<` + s.tag + `>(.*?)</` + s.tag + `>`)
		if m := re.FindStringSubmatch(text); m != nil {
			parts = append(parts, s.label+":\n"+strings.TrimSpace(m[1]))
		}
	}
	if len(parts) == 0 {
		return text
	}
	return strings.Join(parts, "\n\n")
}
