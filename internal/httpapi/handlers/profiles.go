package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/decisionlab/boardroom/internal/agents"
	"github.com/decisionlab/boardroom/internal/common"
)

func profileIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("profile_id"), 10, 64)
	if err != nil || id == 0 {
		common.Fail(c, http.StatusBadRequest, 10002, "invalid profile id")
		return 0, false
	}
	return id, true
}

type createProfileReq struct {
	Name           string `json:"name" binding:"required"`
	Summary        string `json:"summary"`
	ExpertiseAreas string `json:"expertise_areas"`
	RiskTolerance  string `json:"risk_tolerance"`
}

func (h *Handler) CreateProfile(c *gin.Context) {
	var req createProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	p := &agents.Profile{
		Name:           req.Name,
		Summary:        req.Summary,
		ExpertiseAreas: req.ExpertiseAreas,
		RiskTolerance:  req.RiskTolerance,
	}
	if err := h.Agents.CreateProfile(c.Request.Context(), p); err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to create profile")
		return
	}
	common.OK(c, p)
}

func (h *Handler) GetProfile(c *gin.Context) {
	id, ok := profileIDParam(c)
	if !ok {
		return
	}

	p, err := h.Agents.GetProfile(c.Request.Context(), id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40401, "profile not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to load profile")
		return
	}
	common.OK(c, p)
}
