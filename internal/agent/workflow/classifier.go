package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/deckdraft-core/server/internal/agent/conversations"
	"github.com/deckdraft-core/server/internal/agent/model"
	"github.com/deckdraft-core/server/internal/agent/parsers"
	"github.com/deckdraft-core/server/internal/agent/prompts"
	"github.com/deckdraft-core/server/internal/agent/provider"
	errx "github.com/deckdraft-core/server/internal/core/error"
	logx "github.com/deckdraft-core/server/pkg/logger"
)

// Classification is the classifier's verdict on one incoming message.
type Classification struct {
	Trigger             model.Trigger
	Intent              model.Intent
	ResponseText        string
	ShouldGenerate      bool
	Confidence          float64
	Reasoning           string
	Content             model.ExtractedContent
	ConversationContent string
}

// Classifier decides which workflow branch an incoming message selects.
// Bracket triggers short-circuit deterministically with zero provider calls;
// everything else costs exactly one classification call.
type Classifier struct {
	provider provider.CompletionProvider
	manager  *conversations.Manager
}

func NewClassifier(p provider.CompletionProvider, m *conversations.Manager) *Classifier {
	return &Classifier{provider: p, manager: m}
}

func (c *Classifier) Classify(ctx context.Context, message string, history []model.HistoryEntry) (*Classification, error) {
	trigger, err := parsers.DetectTrigger(message)
	if err != nil {
		return nil, err
	}

	extracted := parsers.ExtractDocument(message)
	convContent := c.manager.Content(history)

	switch trigger.Kind {
	case model.TriggerCreatePresentation:
		return &Classification{
			Trigger:             trigger,
			Intent:              model.IntentPresentationInitiate,
			ShouldGenerate:      true,
			Confidence:          1.0,
			Reasoning:           "bracket trigger match",
			Content:             extracted,
			ConversationContent: convContent,
		}, nil
	case model.TriggerClarificationAnswers:
		return &Classification{
			Trigger:             trigger,
			Intent:              model.IntentPresentationGenerate,
			ShouldGenerate:      true,
			Confidence:          1.0,
			Reasoning:           "bracket trigger match",
			Content:             extracted,
			ConversationContent: convContent,
		}, nil
	}

	return c.classifyWithModel(ctx, extracted, history, convContent)
}

func (c *Classifier) classifyWithModel(ctx context.Context, extracted model.ExtractedContent, history []model.HistoryEntry, convContent string) (*Classification, error) {
	system, err := prompts.RenderClassifierSystem(ctx)
	if err != nil {
		return nil, fmt.Errorf("render classifier system prompt: %w", err)
	}

	out, err := c.provider.Complete(ctx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(c.buildContext(extracted, history)),
	})
	if err != nil {
		return nil, err
	}

	parsed, err := parsers.ParseTolerant(out.Content)
	if err != nil {
		logx.Error().Err(err).Str("component", "classifier").Msg("unusable classification response")
		return nil, err
	}

	responseText, _ := parsed["response_text"].(string)
	if strings.TrimSpace(responseText) == "" {
		return nil, errx.WrapParse(fmt.Errorf("classification response missing response_text"))
	}

	intentLabel, _ := parsed["intent"].(string)
	intent := model.ParseIntent(intentLabel)
	confidence, _ := parsed["confidence"].(float64)
	reasoning, _ := parsed["reasoning"].(string)

	return &Classification{
		Trigger:             model.Trigger{Kind: model.TriggerNone},
		Intent:              intent,
		ResponseText:        responseText,
		ShouldGenerate:      intent.ShouldGeneratePresentation(),
		Confidence:          confidence,
		Reasoning:           reasoning,
		Content:             extracted,
		ConversationContent: convContent,
	}, nil
}

// buildContext assembles the classification prompt body: a trailing window
// of history, a bounded document preview, and the current message.
func (c *Classifier) buildContext(extracted model.ExtractedContent, history []model.HistoryEntry) string {
	var b strings.Builder

	if window := c.manager.Content(c.manager.Window(history)); window != "" {
		b.WriteString("<conversation_context>\n")
		b.WriteString(window)
		b.WriteString("\n</conversation_context>\n\n")
	}

	if extracted.HasDocument {
		b.WriteString("<document_preview>\n")
		b.WriteString(c.manager.DocumentPreview(extracted.DocumentText))
		b.WriteString("\n</document_preview>\n\n")
	}

	b.WriteString("<current_message>\n")
	b.WriteString(strings.TrimSpace(extracted.UserText))
	b.WriteString("\n</current_message>")

	return b.String()
}
