package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/decisionlab/boardroom/internal/common"
	"github.com/decisionlab/boardroom/internal/persona"
)

type validatePromptReq struct {
	PromptTemplate string `json:"prompt_template" binding:"required"`
}

// ValidatePrompt dry-runs a persona template: structural check plus the list
// of placeholders the orchestrator would have to bind. Always 200; validity
// is in the payload so editors can surface the message inline.
func (h *Handler) ValidatePrompt(c *gin.Context) {
	var req validatePromptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	r := persona.NewRenderer()
	if err := r.Validate(req.PromptTemplate); err != nil {
		common.OK(c, gin.H{"valid": false, "error": err.Error()})
		return
	}

	vars := r.Variables(req.PromptTemplate)
	if vars == nil {
		vars = []string{}
	}
	common.OK(c, gin.H{"valid": true, "variables": vars})
}
