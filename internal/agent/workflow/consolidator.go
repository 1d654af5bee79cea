package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/deckdraft-core/server/internal/agent/conversations"
	"github.com/deckdraft-core/server/internal/agent/model"
	"github.com/deckdraft-core/server/internal/agent/parsers"
	"github.com/deckdraft-core/server/internal/agent/prompts"
	"github.com/deckdraft-core/server/internal/agent/provider"
	errx "github.com/deckdraft-core/server/internal/core/error"
)

// Consolidator merges the gathered conversation content with the user's
// clarification answers into a generation-ready brief. A missing summary in
// the model answer is fatal here, there is no partial brief to fall back to.
type Consolidator struct {
	provider provider.CompletionProvider
	slides   model.SlideConfig
}

func NewConsolidator(p provider.CompletionProvider, slides model.SlideConfig) *Consolidator {
	return &Consolidator{provider: p, slides: slides}
}

func (c *Consolidator) Consolidate(ctx context.Context, history []model.HistoryEntry, content string, answers map[string]any) (*model.ConsolidatedInfo, error) {
	system, err := prompts.RenderConsolidatorSystem(ctx)
	if err != nil {
		return nil, fmt.Errorf("render consolidator system prompt: %w", err)
	}

	out, err := c.provider.Complete(ctx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(buildConsolidationContext(content, answers)),
	})
	if err != nil {
		return nil, err
	}

	parsed, err := parsers.ParseTolerant(out.Content)
	if err != nil {
		return nil, err
	}

	summary, _ := parsed["content_summary"].(string)
	if strings.TrimSpace(summary) == "" {
		return nil, errx.WrapParse(fmt.Errorf("consolidation response missing content_summary"))
	}
	reasoning, _ := parsed["reasoning"].(string)

	return &model.ConsolidatedInfo{
		ContentSummary:  summary,
		UserPreferences: c.buildPreferences(answers),
		MainTopics:      conversations.MainTopics(history),
		Intent:          "create_presentation",
		Reasoning:       reasoning,
	}, nil
}

// buildPreferences copies the raw answers and normalizes slide_count to a
// clamped integer. The opt-out sentinel and absent values both resolve to
// the configured default.
func (c *Consolidator) buildPreferences(answers map[string]any) map[string]any {
	prefs := make(map[string]any, len(answers)+1)
	for k, v := range answers {
		prefs[k] = v
	}

	slideCount := c.slides.DefaultSlides
	if raw, ok := answers[model.SlideCountQuestionID]; ok {
		if n, ok := numberFromAny(raw); ok {
			slideCount = c.slides.Clamp(int(n))
		}
	}
	prefs[model.SlideCountQuestionID] = slideCount
	return prefs
}

func buildConsolidationContext(content string, answers map[string]any) string {
	var b strings.Builder
	if content != "" {
		b.WriteString("<conversation_content>\n")
		b.WriteString(content)
		b.WriteString("\n</conversation_content>\n\n")
	}
	b.WriteString("<clarification_answers>\n")
	if encoded, err := json.Marshal(answers); err == nil {
		b.Write(encoded)
	}
	b.WriteString("\n</clarification_answers>")
	return b.String()
}
