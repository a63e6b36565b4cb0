package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/decisionlab/boardroom/internal/common"
	"github.com/decisionlab/boardroom/internal/debate"
)

type createDebateReq struct {
	Title    string   `json:"title"`
	Topic    string   `json:"topic" binding:"required"`
	AgentIDs []uint64 `json:"agent_ids" binding:"required"`
	Format   string   `json:"format"`
	MaxTurns int      `json:"max_turns"`
}

func (h *Handler) CreateDebate(c *gin.Context) {
	profileID, ok := profileIDParam(c)
	if !ok {
		return
	}

	var req createDebateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	sess, err := h.DebateSvc.CreateSession(c.Request.Context(), profileID, debate.CreateParams{
		Title:    req.Title,
		Topic:    req.Topic,
		AgentIDs: req.AgentIDs,
		Format:   req.Format,
		MaxTurns: req.MaxTurns,
	})
	if err != nil {
		var verr *debate.ValidationError
		if errors.As(err, &verr) {
			common.Fail(c, http.StatusBadRequest, 10020, verr.Msg)
			return
		}
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40401, "profile not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50010, "failed to create debate")
		return
	}

	common.OK(c, gin.H{
		"session_id": sess.SessionID,
		"status":     sess.Status,
	})
}

func (h *Handler) ListDebates(c *gin.Context) {
	profileID, ok := profileIDParam(c)
	if !ok {
		return
	}

	sessions, err := h.DebateSvc.ListSessions(c.Request.Context(), profileID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50011, "failed to list debates")
		return
	}
	common.OK(c, gin.H{"sessions": sessions})
}

func (h *Handler) GetDebate(c *gin.Context) {
	sessionID := c.Param("session_id")

	detail, err := h.DebateSvc.GetSessionDetail(c.Request.Context(), sessionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40402, "session not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50012, "failed to load debate")
		return
	}
	common.OK(c, detail)
}

func (h *Handler) DeleteDebate(c *gin.Context) {
	sessionID := c.Param("session_id")

	if err := h.DebateSvc.DeleteSession(c.Request.Context(), sessionID); err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40402, "session not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50013, "failed to delete debate")
		return
	}
	common.OK(c, nil)
}

// StartDebate runs the session and streams its events over SSE. The run is
// detached: closing the connection stops delivery, not the debate.
func (h *Handler) StartDebate(c *gin.Context) {
	sessionID := c.Param("session_id")

	stream, err := h.DebateSvc.StartRun(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case err == gorm.ErrRecordNotFound:
			common.Fail(c, http.StatusNotFound, 40402, "session not found")
		case errors.Is(err, debate.ErrRunConflict):
			common.Fail(c, http.StatusConflict, 40901, "debate already running")
		case errors.Is(err, debate.ErrSessionFinished):
			common.Fail(c, http.StatusConflict, 40902, "debate already finished")
		default:
			common.Fail(c, http.StatusInternalServerError, 50014, "failed to start debate")
		}
		return
	}

	// SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // helpful if behind nginx
	c.Status(http.StatusOK)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		fmt.Fprintf(c.Writer, "data: {\"type\":\"error\",\"reason\":\"flusher not supported\"}\n\n")
		return
	}

	writeEvent := func(ev debate.Event) bool {
		b, err := json.Marshal(ev)
		if err != nil {
			fmt.Fprintf(c.Writer, "data: {\"type\":\"error\",\"reason\":\"json marshal failed\"}\n\n")
			flusher.Flush()
			return false
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", string(b))
		flusher.Flush()
		return true
	}

	// keepalive as SSE comments so the event sequence stays exactly the
	// orchestrator's
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	ctx := c.Request.Context()
	events := stream.Events()

	for {
		select {
		case ev, open := <-events:
			if !open {
				return
			}
			if !writeEvent(ev) {
				return
			}
			if ev.Type == debate.EventComplete {
				return
			}

		case <-ticker.C:
			fmt.Fprint(c.Writer, ": ping\n\n")
			flusher.Flush()

		case <-ctx.Done():
			// subscriber left; the run keeps going server-side
			return
		}
	}
}

// EnqueueDebateRun queues the run for the worker instead of streaming it.
func (h *Handler) EnqueueDebateRun(c *gin.Context) {
	if h.Publisher == nil {
		common.Fail(c, http.StatusServiceUnavailable, 50301, "async runs not configured")
		return
	}

	sessionID := c.Param("session_id")

	job, err := h.DebateSvc.EnqueueRun(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case err == gorm.ErrRecordNotFound:
			common.Fail(c, http.StatusNotFound, 40402, "session not found")
		case errors.Is(err, debate.ErrRunConflict):
			common.Fail(c, http.StatusConflict, 40901, "debate already running")
		case errors.Is(err, debate.ErrSessionFinished):
			common.Fail(c, http.StatusConflict, 40902, "debate already finished")
		default:
			common.Fail(c, http.StatusInternalServerError, 50015, "failed to enqueue run")
		}
		return
	}

	if err := h.Publisher.PublishRun(c.Request.Context(), job.ID); err != nil {
		common.Fail(c, http.StatusInternalServerError, 50016, "failed to publish run")
		return
	}

	common.OK(c, gin.H{
		"job_id": job.ID,
		"status": job.Status,
	})
}

func (h *Handler) GetRunJob(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.DebateSvc.GetRunJob(c.Request.Context(), jobID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40403, "job not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50017, "failed to load job")
		return
	}

	resp := gin.H{
		"job_id":     job.ID,
		"session_id": job.SessionID,
		"status":     job.Status,
	}
	if job.Error != nil {
		resp["error"] = *job.Error
	}
	common.OK(c, resp)
}
