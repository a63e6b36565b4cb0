package main

import (
	"context"
	"log"
	"time"

	"github.com/decisionlab/boardroom/internal/agents"
	"github.com/decisionlab/boardroom/internal/ai"
	"github.com/decisionlab/boardroom/internal/config"
	"github.com/decisionlab/boardroom/internal/db"
	"github.com/decisionlab/boardroom/internal/debate"
	"github.com/decisionlab/boardroom/internal/httpapi"
	"github.com/decisionlab/boardroom/internal/store/rabbitmq"
	"github.com/decisionlab/boardroom/internal/store/redisstore"
)

func buildRegistry(cfg config.Config) *ai.Registry {
	reg := ai.NewRegistry()

	reg.Register("ollama", cfg.OllamaModel, func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, model), nil
	})

	reg.Register("openrouter", cfg.OpenRouterModel, func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		return ai.NewOpenRouterProvider(
			cfg.OpenRouterBaseURL,
			cfg.OpenRouterAPIKey,
			model,
			cfg.OpenRouterSiteURL,
			cfg.OpenRouterAppName,
		), nil
	})

	return reg
}

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)
	db.AutoMigrate(gdb)

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rds.Close()

	reg := buildRegistry(cfg)

	dir := agents.NewRepo(gdb)
	repo := debate.NewRepo(gdb)
	synth := debate.NewSynthesizer(reg, cfg.SynthesisProvider, cfg.SynthesisModel)
	svc := debate.NewService(repo, dir, reg, synth, rds,
		time.Duration(cfg.GenerationTimeoutSecs)*time.Second)

	var pub *rabbitmq.Publisher
	if cfg.RabbitURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			log.Printf("rabbit unavailable, async runs disabled: %v", err)
		} else {
			pub = p
			defer pub.Close()
		}
	}

	r := httpapi.NewRouter(gdb, cfg, svc, dir, pub)

	log.Printf("server listening on %s", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
