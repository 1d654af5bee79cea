package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/deckdraft-core/server/internal/agent/conversations"
	"github.com/deckdraft-core/server/internal/agent/model"
	"github.com/deckdraft-core/server/internal/agent/provider"
	errx "github.com/deckdraft-core/server/internal/core/error"
	logx "github.com/deckdraft-core/server/pkg/logger"
)

// Orchestrator routes each incoming message through trigger detection,
// classification, and the matching workflow stage, and always answers with a
// uniform envelope. Errors never drop accumulated history.
type Orchestrator struct {
	classifier   *Classifier
	estimator    *Estimator
	consolidator *Consolidator
	manager      *conversations.Manager
	slides       model.SlideConfig
	repo         model.ConversationRepository
}

// Config wires the orchestrator. Repo is optional, a nil repo disables
// server-side session persistence.
type Config struct {
	Models       *provider.Models
	Conversation model.ConversationConfig
	Slides       model.SlideConfig
	Repo         model.ConversationRepository
}

func New(cfg Config) *Orchestrator {
	manager := conversations.NewManager(cfg.Conversation)
	return &Orchestrator{
		classifier:   NewClassifier(cfg.Models.Classifier, manager),
		estimator:    NewEstimator(cfg.Models.Estimator, cfg.Slides),
		consolidator: NewConsolidator(cfg.Models.Consolidator, cfg.Slides),
		manager:      manager,
		slides:       cfg.Slides,
		repo:         cfg.Repo,
	}
}

// Process handles one request end to end. It never returns an error; every
// failure path is folded into an error-status envelope instead.
func (o *Orchestrator) Process(ctx context.Context, req model.WorkflowRequest) model.Envelope {
	logx.Debug().
		Str("session_id", req.SessionID).
		Str("entra_id", req.EntraID).
		Int("history_len", len(req.History)).
		Msg("processing conversation turn")

	if strings.TrimSpace(req.UserMessage) == "" {
		return o.errorEnvelope(req.SessionID, req.History, errx.NewUsage("user_message is required"))
	}

	history := req.History
	if len(history) == 0 && req.SessionID != "" && o.repo != nil {
		loaded, err := o.repo.LoadHistory(ctx, req.SessionID)
		if err != nil {
			logx.Warn().Err(err).Str("session_id", req.SessionID).Msg("failed to load stored history")
		} else {
			history = loaded
		}
	}

	cls, err := o.classifier.Classify(ctx, req.UserMessage, history)
	if err != nil {
		return o.errorEnvelope(req.SessionID, conversations.Append(history, model.UserEntry(req.UserMessage)), err)
	}

	base := conversations.Append(history, model.UserEntry(req.UserMessage))

	switch {
	case cls.Trigger.Kind == model.TriggerClarificationAnswers:
		return o.generateStage(ctx, req, base, cls)
	case cls.Trigger.Kind == model.TriggerCreatePresentation || cls.ShouldGenerate:
		return o.clarifyStage(ctx, req, base, cls)
	default:
		return o.respond(ctx, req, base, cls)
	}
}

// clarifyStage is the first presentation stage: estimate the slide count and
// hand the caller a clarification popup.
func (o *Orchestrator) clarifyStage(ctx context.Context, req model.WorkflowRequest, base []model.HistoryEntry, cls *Classification) model.Envelope {
	doc := cls.Content.DocumentText
	source := "current_message"
	if !cls.Content.HasDocument {
		if prior, ok := o.manager.LatestDocument(base); ok {
			doc = prior
			source = "conversation_history"
		} else {
			source = "conversation_content"
		}
	}
	if doc == "" && cls.ConversationContent == "" {
		return o.errorEnvelope(req.SessionID, base,
			errx.NewUsage("a document or prior conversation content is required to start a presentation"))
	}

	result, err := o.estimator.Estimate(ctx, EstimateInput{
		DocumentText:        doc,
		ConversationContent: cls.ConversationContent,
		RequestedSlides:     req.RequestedSlides,
	})
	if err != nil {
		return o.errorEnvelope(req.SessionID, base, err)
	}

	responseText := fmt.Sprintf(
		"I've analyzed your content and recommend %d slides. Please review a few quick questions so I can tailor the presentation.",
		result.Estimate.EstimatedSlides)
	history := conversations.Append(base, model.AssistantEntry(responseText))
	o.persist(ctx, req.SessionID, history[len(history)-2:]...)

	return model.Envelope{ResponseData: model.ResponseData{
		Status:                 model.StatusProcessing,
		SessionID:              req.SessionID,
		ConversationHistory:    history,
		ResponseText:           responseText,
		ShowClarificationPopup: true,
		ClarificationQuestions: result.Questions,
		SlideEstimate:          &result.Estimate,
		ProcessingInfo: map[string]any{
			"intent":             string(cls.Intent),
			"content_source":     source,
			"content_complexity": string(result.Estimate.ContentComplexity),
		},
	}}
}

// generateStage is the second presentation stage: consolidate the gathered
// content with the submitted clarification answers.
func (o *Orchestrator) generateStage(ctx context.Context, req model.WorkflowRequest, base []model.HistoryEntry, cls *Classification) model.Envelope {
	content := cls.ConversationContent
	if doc, ok := o.manager.LatestDocument(base); ok && content == "" {
		content = doc
	}
	if content == "" {
		return o.errorEnvelope(req.SessionID, base,
			errx.NewUsage("no gathered content to consolidate; start with a document or describe the presentation first"))
	}

	info, err := o.consolidator.Consolidate(ctx, base, content, cls.Trigger.Answers)
	if err != nil {
		return o.errorEnvelope(req.SessionID, base, err)
	}

	responseText := "Your presentation requirements are consolidated and ready for generation."
	history := conversations.Append(base, model.AssistantEntry(responseText))
	o.persist(ctx, req.SessionID, history[len(history)-2:]...)

	return model.Envelope{ResponseData: model.ResponseData{
		Status:              model.StatusCompleted,
		SessionID:           req.SessionID,
		ConversationHistory: history,
		ResponseText:        responseText,
		ConsolidatedInfo:    info,
		ProcessingInfo: map[string]any{
			"intent":      string(cls.Intent),
			"slide_count": info.UserPreferences[model.SlideCountQuestionID],
		},
	}}
}

// respond handles the conversational branch: relay the classifier's reply.
func (o *Orchestrator) respond(ctx context.Context, req model.WorkflowRequest, base []model.HistoryEntry, cls *Classification) model.Envelope {
	history := conversations.Append(base, model.AssistantEntry(cls.ResponseText))
	o.persist(ctx, req.SessionID, history[len(history)-2:]...)

	return model.Envelope{ResponseData: model.ResponseData{
		Status:              model.StatusCompleted,
		SessionID:           req.SessionID,
		ConversationHistory: history,
		ResponseText:        cls.ResponseText,
		ProcessingInfo: map[string]any{
			"intent":     string(cls.Intent),
			"confidence": cls.Confidence,
		},
	}}
}

func (o *Orchestrator) errorEnvelope(sessionID string, history []model.HistoryEntry, err error) model.Envelope {
	logx.Error().Err(err).Str("session_id", sessionID).Str("kind", errx.KindOf(err).String()).Msg("workflow request failed")
	message := errx.UserMessage(err)
	return model.Envelope{ResponseData: model.ResponseData{
		Status:              model.StatusError,
		SessionID:           sessionID,
		ConversationHistory: conversations.Append(history, model.AssistantEntry(message)),
		ErrorMessage:        message,
	}}
}

// persist stores this request's new entries. Persistence is best effort,
// failures are logged and the response is unaffected.
func (o *Orchestrator) persist(ctx context.Context, sessionID string, entries ...model.HistoryEntry) {
	if o.repo == nil || sessionID == "" {
		return
	}
	if err := o.repo.AppendEntries(ctx, sessionID, entries...); err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("failed to persist conversation entries")
	}
}
