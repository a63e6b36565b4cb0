package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/decisionlab/boardroom/internal/agents"
	"github.com/decisionlab/boardroom/internal/common"
	"github.com/decisionlab/boardroom/internal/config"
	"github.com/decisionlab/boardroom/internal/debate"
	"github.com/decisionlab/boardroom/internal/httpapi/handlers"
	"github.com/decisionlab/boardroom/internal/httpapi/middleware"
	"github.com/decisionlab/boardroom/internal/store/rabbitmq"
)

func NewRouter(db *gorm.DB, cfg config.Config, svc *debate.Service, dir *agents.Repo, pub *rabbitmq.Publisher) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	h := handlers.NewHandler(db, cfg, svc, dir, pub)

	r.GET("/ping", func(c *gin.Context) { common.OK(c, gin.H{"pong": true}) })

	// profiles and agents: the thin directory the orchestrator reads
	r.POST("/profiles", h.CreateProfile)
	r.GET("/profiles/:profile_id", h.GetProfile)
	r.POST("/profiles/:profile_id/agents", h.CreateAgent)
	r.GET("/profiles/:profile_id/agents", h.ListAgents)
	r.GET("/agents/:agent_id", h.GetAgent)
	r.PATCH("/agents/:agent_id", h.UpdateAgent)
	r.DELETE("/agents/:agent_id", h.DeleteAgent)
	r.POST("/validate-prompt", h.ValidatePrompt)

	// debates
	r.POST("/profiles/:profile_id/debates", h.CreateDebate)
	r.GET("/profiles/:profile_id/debates", h.ListDebates)
	r.GET("/debates/runs/:job_id", h.GetRunJob)
	r.GET("/debates/:session_id", h.GetDebate)
	r.DELETE("/debates/:session_id", h.DeleteDebate)
	r.GET("/debates/:session_id/start", h.StartDebate)
	r.POST("/debates/:session_id/runs", h.EnqueueDebateRun)

	return r
}
