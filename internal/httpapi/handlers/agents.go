package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/decisionlab/boardroom/internal/agents"
	"github.com/decisionlab/boardroom/internal/common"
	"github.com/decisionlab/boardroom/internal/persona"
)

type createAgentReq struct {
	Name           string  `json:"name" binding:"required"`
	Role           string  `json:"role" binding:"required"`
	ModelProvider  string  `json:"model_provider" binding:"required"`
	ModelName      string  `json:"model_name" binding:"required"`
	PromptTemplate string  `json:"prompt_template" binding:"required"`
	Temperature    float64 `json:"temperature"`
	MaxTokens      int     `json:"max_tokens"`
}

func (h *Handler) CreateAgent(c *gin.Context) {
	profileID, ok := profileIDParam(c)
	if !ok {
		return
	}

	var req createAgentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	// reject broken templates at save time, not mid-debate
	if err := persona.NewRenderer().Validate(req.PromptTemplate); err != nil {
		common.Fail(c, http.StatusBadRequest, 10010, err.Error())
		return
	}

	if _, err := h.Agents.GetProfile(c.Request.Context(), profileID); err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40401, "profile not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to load profile")
		return
	}

	temp := req.Temperature
	if temp == 0 {
		temp = 0.7
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 500
	}

	a := &agents.Agent{
		ProfileID:      profileID,
		Name:           req.Name,
		Role:           req.Role,
		ModelProvider:  req.ModelProvider,
		ModelName:      req.ModelName,
		PromptTemplate: req.PromptTemplate,
		Temperature:    temp,
		MaxTokens:      maxTokens,
		IsActive:       true,
	}
	if err := h.Agents.CreateAgent(c.Request.Context(), a); err != nil {
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to create agent")
		return
	}
	common.OK(c, a)
}

func agentIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("agent_id"), 10, 64)
	if err != nil || id == 0 {
		common.Fail(c, http.StatusBadRequest, 10003, "invalid agent id")
		return 0, false
	}
	return id, true
}

func (h *Handler) GetAgent(c *gin.Context) {
	id, ok := agentIDParam(c)
	if !ok {
		return
	}

	a, err := h.Agents.GetAgent(c.Request.Context(), id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40404, "agent not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50005, "failed to load agent")
		return
	}
	common.OK(c, a)
}

// Pointer fields so absent keys are distinguishable from zero values.
type updateAgentReq struct {
	Name           *string  `json:"name"`
	Role           *string  `json:"role"`
	ModelProvider  *string  `json:"model_provider"`
	ModelName      *string  `json:"model_name"`
	PromptTemplate *string  `json:"prompt_template"`
	Temperature    *float64 `json:"temperature"`
	MaxTokens      *int     `json:"max_tokens"`
	IsActive       *bool    `json:"is_active"`
}

// UpdateAgent is the only way is_active changes, so it is how a panel member
// is benched between debates.
func (h *Handler) UpdateAgent(c *gin.Context) {
	id, ok := agentIDParam(c)
	if !ok {
		return
	}

	var req updateAgentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	fields := map[string]any{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Role != nil {
		fields["role"] = *req.Role
	}
	if req.ModelProvider != nil {
		fields["model_provider"] = *req.ModelProvider
	}
	if req.ModelName != nil {
		fields["model_name"] = *req.ModelName
	}
	if req.PromptTemplate != nil {
		// same save-time check as create: broken templates never reach a run
		if err := persona.NewRenderer().Validate(*req.PromptTemplate); err != nil {
			common.Fail(c, http.StatusBadRequest, 10010, err.Error())
			return
		}
		fields["prompt_template"] = *req.PromptTemplate
	}
	if req.Temperature != nil {
		fields["temperature"] = *req.Temperature
	}
	if req.MaxTokens != nil {
		fields["max_tokens"] = *req.MaxTokens
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}
	if len(fields) == 0 {
		common.Fail(c, http.StatusBadRequest, 10004, "no fields to update")
		return
	}

	if err := h.Agents.UpdateAgent(c.Request.Context(), id, fields); err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40404, "agent not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50006, "failed to update agent")
		return
	}

	a, err := h.Agents.GetAgent(c.Request.Context(), id)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50005, "failed to load agent")
		return
	}
	common.OK(c, a)
}

func (h *Handler) DeleteAgent(c *gin.Context) {
	id, ok := agentIDParam(c)
	if !ok {
		return
	}

	if err := h.Agents.DeleteAgent(c.Request.Context(), id); err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40404, "agent not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50007, "failed to delete agent")
		return
	}
	common.OK(c, nil)
}

func (h *Handler) ListAgents(c *gin.Context) {
	profileID, ok := profileIDParam(c)
	if !ok {
		return
	}

	list, err := h.Agents.ListAgentsByProfile(c.Request.Context(), profileID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50004, "failed to list agents")
		return
	}
	common.OK(c, gin.H{"agents": list})
}
