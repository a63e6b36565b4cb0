package handlers

import (
	"gorm.io/gorm"

	"github.com/decisionlab/boardroom/internal/agents"
	"github.com/decisionlab/boardroom/internal/config"
	"github.com/decisionlab/boardroom/internal/debate"
	"github.com/decisionlab/boardroom/internal/store/rabbitmq"
)

type Handler struct {
	DB        *gorm.DB
	Cfg       config.Config
	DebateSvc *debate.Service
	Agents    *agents.Repo

	// nil when RabbitMQ is not configured; the async run path then 503s.
	Publisher *rabbitmq.Publisher
}

func NewHandler(db *gorm.DB, cfg config.Config, svc *debate.Service, dir *agents.Repo, pub *rabbitmq.Publisher) *Handler {
	return &Handler{
		DB:        db,
		Cfg:       cfg,
		DebateSvc: svc,
		Agents:    dir,
		Publisher: pub,
	}
}
