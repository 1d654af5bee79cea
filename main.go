package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/deckdraft-core/server/internal/agent/model"
	"github.com/deckdraft-core/server/internal/agent/provider"
	"github.com/deckdraft-core/server/internal/agent/repo"
	"github.com/deckdraft-core/server/internal/agent/workflow"
	"github.com/deckdraft-core/server/internal/core"
	"github.com/deckdraft-core/server/internal/httpapi"
	logx "github.com/deckdraft-core/server/pkg/logger"
	pkgredis "github.com/deckdraft-core/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the service, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	ServiceName string `envconfig:"SERVICE_NAME" default:"deckdraft-core"`
	ListenAddr  string `envconfig:"LISTEN_ADDR" default:":8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Workflow configs
	Classifier   model.ClassifierModelConfig
	Estimator    model.EstimatorModelConfig
	Consolidator model.ConsolidatorModelConfig
	Conversation model.ConversationConfig
	Slides       model.SlideConfig
}

func main() {
	ctx := context.Background()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	ttl, err := time.ParseDuration(cfg.Conversation.TTL)
	if err != nil {
		logx.Fatal().Err(err).Str("ttl", cfg.Conversation.TTL).Msg("invalid CONVERSATION_TTL")
	}

	var conversationRepo model.ConversationRepository
	if cfg.Redis.Enabled() {
		rdb, err := cfg.Redis.New()
		if err != nil {
			logx.Fatal().Err(err).Msg("failed to initialise Redis client")
		}
		defer rdb.Close()
		conversationRepo = repo.NewRedisConversationRepository(rdb, ttl)
		logx.Info().Msg("connected to Redis")
	} else {
		conversationRepo = repo.NewMemoryConversationRepository()
		logx.Info().Msg("no Redis URL configured, using in-memory conversation store")
	}

	models, err := provider.NewGeminiModels(ctx, provider.Config{
		APIKey:       cfg.APIKey,
		BaseURL:      cfg.BaseURL,
		Classifier:   cfg.Classifier,
		Estimator:    cfg.Estimator,
		Consolidator: cfg.Consolidator,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to initialise completion models")
	}

	orchestrator := workflow.New(workflow.Config{
		Models:       models,
		Conversation: cfg.Conversation,
		Slides:       cfg.Slides,
		Repo:         conversationRepo,
	})

	handler := httpapi.NewServer(orchestrator, cfg.ServiceName)

	logx.Info().Str("addr", cfg.ListenAddr).Str("service", cfg.ServiceName).Msg("server listening")
	if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		logx.Fatal().Err(err).Msg("server stopped")
	}
}
