package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/decisionlab/boardroom/internal/agents"
	"github.com/decisionlab/boardroom/internal/ai"
	"github.com/decisionlab/boardroom/internal/config"
	"github.com/decisionlab/boardroom/internal/debate"
	"github.com/decisionlab/boardroom/internal/httpapi"
)

const agentTemplate = `agent:
  name: "Panelist"
  role: "analyst"
  system_prompt: |
    <persona>
      A thoughtful analyst.
    </persona>
    <context>
      Topic: {{decision_topic}}
      Profile: {{user_profile_summary}}
    </context>
`

type fakeProvider struct{}

func (fakeProvider) Generate(ctx context.Context, system, prompt string, p ai.Params) (string, error) {
	return "ok", nil
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(
		&agents.Profile{}, &agents.Agent{},
		&debate.Session{}, &debate.Turn{}, &debate.Summary{}, &debate.RunJob{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	reg := ai.NewRegistry()
	reg.Register("fake", "default", func(ctx context.Context, model string) (ai.Provider, error) {
		return fakeProvider{}, nil
	})

	dir := agents.NewRepo(gdb)
	repo := debate.NewRepo(gdb)
	synth := debate.NewSynthesizer(reg, "fake", "default")
	svc := debate.NewService(repo, dir, reg, synth, nil, 5*time.Second)

	return httpapi.NewRouter(gdb, config.Config{}, svc, dir, nil)
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: bad envelope: %v\n%s", method, path, err, w.Body.String())
		}
	}
	return w, env
}

func seedProfileAndAgents(t *testing.T, r *gin.Engine, n int) (uint64, []uint64) {
	t.Helper()

	w, env := doJSON(t, r, http.MethodPost, "/profiles", gin.H{
		"name": "Jordan", "summary": "seasoned operator",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create profile: %d %s", w.Code, w.Body.String())
	}
	var profile struct {
		ID uint64 `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}

	ids := make([]uint64, 0, n)
	for i := 0; i < n; i++ {
		w, env := doJSON(t, r, http.MethodPost, fmt.Sprintf("/profiles/%d/agents", profile.ID), gin.H{
			"name":            fmt.Sprintf("Agent %c", 'A'+i),
			"role":            "analyst",
			"model_provider":  "fake",
			"model_name":      "default",
			"prompt_template": agentTemplate,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("create agent %d: %d %s", i, w.Code, w.Body.String())
		}
		var a struct {
			ID uint64 `json:"id"`
		}
		if err := json.Unmarshal(env.Data, &a); err != nil {
			t.Fatalf("decode agent: %v", err)
		}
		ids = append(ids, a.ID)
	}
	return profile.ID, ids
}

func TestAgentLifecycle(t *testing.T) {
	r := newTestRouter(t)
	profileID, ids := seedProfileAndAgents(t, r, 2)

	// read back
	w, env := doJSON(t, r, http.MethodGet, fmt.Sprintf("/agents/%d", ids[0]), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get agent: %d %s", w.Code, w.Body.String())
	}
	var got struct {
		Name     string `json:"name"`
		IsActive bool   `json:"is_active"`
	}
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "Agent A" || !got.IsActive {
		t.Fatalf("unexpected agent: %+v", got)
	}

	// bench the second agent
	w, env = doJSON(t, r, http.MethodPatch, fmt.Sprintf("/agents/%d", ids[1]), gin.H{
		"is_active": false,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("patch agent: %d %s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.IsActive {
		t.Fatalf("is_active not updated: %+v", got)
	}

	// a benched agent cannot join a debate panel
	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/profiles/%d/debates", profileID), gin.H{
		"topic":     "expand or consolidate",
		"agent_ids": ids,
		"max_turns": 4,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inactive panel member, got %d %s", w.Code, w.Body.String())
	}

	// reactivate and the same panel is accepted
	w, _ = doJSON(t, r, http.MethodPatch, fmt.Sprintf("/agents/%d", ids[1]), gin.H{
		"is_active": true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("reactivate: %d %s", w.Code, w.Body.String())
	}
	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/profiles/%d/debates", profileID), gin.H{
		"topic":     "expand or consolidate",
		"agent_ids": ids,
		"max_turns": 4,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create debate after reactivation: %d %s", w.Code, w.Body.String())
	}

	// delete, then every lifecycle verb 404s
	w, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/agents/%d", ids[1]), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete agent: %d %s", w.Code, w.Body.String())
	}
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		w, _ = doJSON(t, r, method, fmt.Sprintf("/agents/%d", ids[1]), nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s deleted agent: expected 404, got %d", method, w.Code)
		}
	}
	w, _ = doJSON(t, r, http.MethodPatch, fmt.Sprintf("/agents/%d", ids[1]), gin.H{"is_active": true})
	if w.Code != http.StatusNotFound {
		t.Fatalf("patch deleted agent: expected 404, got %d", w.Code)
	}
}

func TestUpdateAgent_Validation(t *testing.T) {
	r := newTestRouter(t)
	_, ids := seedProfileAndAgents(t, r, 1)
	path := fmt.Sprintf("/agents/%d", ids[0])

	// broken replacement template rejected at save time
	w, _ := doJSON(t, r, http.MethodPatch, path, gin.H{
		"prompt_template": "agent:\n  name: n\n",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for broken template, got %d %s", w.Code, w.Body.String())
	}

	// the stored template is untouched
	w, env := doJSON(t, r, http.MethodGet, path, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: %d", w.Code)
	}
	var got struct {
		PromptTemplate string `json:"prompt_template"`
	}
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.PromptTemplate != agentTemplate {
		t.Fatalf("template should be unchanged:\n%s", got.PromptTemplate)
	}

	// empty patch is rejected
	w, _ = doJSON(t, r, http.MethodPatch, path, gin.H{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty patch, got %d", w.Code)
	}
}

func TestValidatePrompt(t *testing.T) {
	r := newTestRouter(t)

	w, env := doJSON(t, r, http.MethodPost, "/validate-prompt", gin.H{
		"prompt_template": agentTemplate,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("validate: %d %s", w.Code, w.Body.String())
	}
	var res struct {
		Valid     bool     `json:"valid"`
		Variables []string `json:"variables"`
		Error     string   `json:"error"`
	}
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Valid {
		t.Fatalf("expected valid template: %s", res.Error)
	}
	if len(res.Variables) != 2 || res.Variables[0] != "decision_topic" || res.Variables[1] != "user_profile_summary" {
		t.Fatalf("unexpected variables: %v", res.Variables)
	}

	// structural defect reported in the payload, not as a transport error
	w, env = doJSON(t, r, http.MethodPost, "/validate-prompt", gin.H{
		"prompt_template": "agent:\n  role: r\n  system_prompt: p\n",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("validate broken: %d %s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Valid || res.Error == "" {
		t.Fatalf("expected invalid with message, got %+v", res)
	}

	// missing body field is a plain bad request
	w, _ = doJSON(t, r, http.MethodPost, "/validate-prompt", gin.H{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
