package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/deckdraft-core/server/internal/agent/model"
)

//go:embed template/classifier_prompt.txt
var classifierSystemPrompt string

//go:embed template/estimator_prompt.txt
var estimatorSystemPrompt string

//go:embed template/consolidator_prompt.txt
var consolidatorSystemPrompt string

// RenderClassifierSystem renders the intent classification system prompt via
// the Eino prompt component, which also emits prompt callbacks.
func RenderClassifierSystem(ctx context.Context) (string, error) {
	return renderStatic(ctx, classifierSystemPrompt, "classifier")
}

// RenderEstimatorSystem renders the combined slide-estimate/question system
// prompt with the configured slide bounds substituted in.
func RenderEstimatorSystem(ctx context.Context, slides model.SlideConfig) (string, error) {
	// Replace known tokens only so JSON braces in the template survive.
	content := strings.NewReplacer(
		"{min_slides}", strconv.Itoa(slides.MinSlides),
		"{max_slides}", strconv.Itoa(slides.MaxSlides),
		"{default_slides}", strconv.Itoa(slides.DefaultSlides),
	).Replace(estimatorSystemPrompt)
	return renderStatic(ctx, content, "estimator")
}

// RenderConsolidatorSystem renders the requirements consolidation system
// prompt, including the text/bullets/tables-only renderer constraint.
func RenderConsolidatorSystem(ctx context.Context) (string, error) {
	content := strings.NewReplacer(
		"{let_agent_decide}", model.LetAgentDecide,
	).Replace(consolidatorSystemPrompt)
	return renderStatic(ctx, content, "consolidator")
}

// renderStatic wraps a pre-substituted prompt through the Eino prompt
// component using a messages placeholder, so prompt callbacks fire without
// the template engine touching literal braces.
func renderStatic(ctx context.Context, content, name string) (string, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("%s prompt callbacks: %w", name, err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("%s prompt callbacks: empty result", name)
	}
	return msgs[0].Content, nil
}
