package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/deckdraft-core/server/internal/agent/model"
	errx "github.com/deckdraft-core/server/internal/core/error"
	logx "github.com/deckdraft-core/server/pkg/logger"
)

// Config holds everything needed to construct the Gemini-backed providers.
type Config struct {
	APIKey       string
	BaseURL      string
	Classifier   model.ClassifierModelConfig
	Estimator    model.EstimatorModelConfig
	Consolidator model.ConsolidatorModelConfig
}

// NewGeminiModels creates one genai client and three chat models, one per
// workflow agent, each with its own generation settings.
func NewGeminiModels(ctx context.Context, cfg Config) (*Models, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	newChatModel := func(name string, maxTokens int, temperature, topP float32) (CompletionProvider, error) {
		cm, err := gemini.NewChatModel(ctx, &gemini.Config{
			Client:      client,
			Model:       name,
			Temperature: &temperature,
			TopP:        &topP,
			MaxTokens:   &maxTokens,
		})
		if err != nil {
			logx.Error().Err(err).Str("model", name).Msg("Error creating chat model")
			return nil, fmt.Errorf("error creating chat model %s: %w", name, err)
		}
		return &chatModelProvider{cm: cm, modelName: name}, nil
	}

	classifier, err := newChatModel(cfg.Classifier.Model, cfg.Classifier.MaxTokens, cfg.Classifier.Temperature, cfg.Classifier.TopP)
	if err != nil {
		return nil, err
	}
	estimator, err := newChatModel(cfg.Estimator.Model, cfg.Estimator.MaxTokens, cfg.Estimator.Temperature, cfg.Estimator.TopP)
	if err != nil {
		return nil, err
	}
	consolidator, err := newChatModel(cfg.Consolidator.Model, cfg.Consolidator.MaxTokens, cfg.Consolidator.Temperature, cfg.Consolidator.TopP)
	if err != nil {
		return nil, err
	}

	return &Models{
		Classifier:   classifier,
		Estimator:    estimator,
		Consolidator: consolidator,
	}, nil
}

type chatModelProvider struct {
	cm        *gemini.ChatModel
	modelName string
}

func (p *chatModelProvider) Complete(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
	out, err := p.cm.Generate(ctx, messages)
	if err != nil {
		logx.Error().Err(err).Str("model", p.modelName).Msg("completion request failed")
		return nil, errx.WrapProvider(err)
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return nil, errx.WrapProvider(fmt.Errorf("empty completion from %s", p.modelName))
	}

	p.logUsage(out)
	return out, nil
}

// logUsage records token usage and USD cost for one completion.
func (p *chatModelProvider) logUsage(out *schema.Message) {
	if out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	usage := out.ResponseMeta.Usage
	inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(p.modelName))
	logx.Debug().
		Str("model", p.modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")
}
