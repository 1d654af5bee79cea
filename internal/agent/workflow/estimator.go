package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/deckdraft-core/server/internal/agent/model"
	"github.com/deckdraft-core/server/internal/agent/parsers"
	"github.com/deckdraft-core/server/internal/agent/prompts"
	"github.com/deckdraft-core/server/internal/agent/provider"
	logx "github.com/deckdraft-core/server/pkg/logger"
)

const maxAIQuestions = 4

// Estimator produces a slide-count recommendation and the clarification
// questions that accompany it. A user-supplied count bypasses the model
// entirely; otherwise one combined call yields both estimate and questions.
type Estimator struct {
	provider provider.CompletionProvider
	slides   model.SlideConfig
}

func NewEstimator(p provider.CompletionProvider, slides model.SlideConfig) *Estimator {
	return &Estimator{provider: p, slides: slides}
}

// EstimateInput carries the content the estimate is based on.
type EstimateInput struct {
	DocumentText        string
	ConversationContent string
	RequestedSlides     *int
}

// EstimateResult pairs the estimate with its clarification questions. The
// slide-count question is always first.
type EstimateResult struct {
	Estimate  model.SlideEstimate
	Questions []model.ClarificationQuestion
}

func (e *Estimator) Estimate(ctx context.Context, in EstimateInput) (*EstimateResult, error) {
	if in.RequestedSlides != nil {
		return e.userSpecified(*in.RequestedSlides), nil
	}

	system, err := prompts.RenderEstimatorSystem(ctx, e.slides)
	if err != nil {
		return nil, fmt.Errorf("render estimator system prompt: %w", err)
	}

	out, err := e.provider.Complete(ctx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(e.buildContext(in)),
	})
	if err != nil {
		return nil, err
	}

	parsed, err := parsers.ParseTolerant(out.Content)
	if err != nil {
		logx.Warn().Err(err).Str("component", "estimator").Msg("estimate response unusable, using fallback")
		return e.fallback(), nil
	}

	slides, ok := numberFromAny(parsed["estimated_slides"])
	if !ok {
		logx.Warn().Str("component", "estimator").Msg("estimate response missing estimated_slides, using fallback")
		return e.fallback(), nil
	}

	recommended := e.slides.Clamp(int(slides))
	confidence, _ := parsed["confidence"].(float64)
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}
	reasoning, _ := parsed["reasoning"].(string)

	est := model.SlideEstimate{
		EstimatedSlides:   recommended,
		ContentComplexity: parseComplexity(parsed["content_complexity"]),
		SlideBreakdown:    breakdownFromAny(parsed["slide_breakdown"]),
		Reasoning:         reasoning,
		Confidence:        confidence,
		UserSpecified:     false,
	}

	questions := e.normalizeQuestions(parsed["questions"])
	if len(questions) == 0 {
		questions = []model.ClarificationQuestion{e.audienceQuestion()}
	}
	questions = append([]model.ClarificationQuestion{e.slideCountQuestion(recommended)}, questions...)

	return &EstimateResult{Estimate: est, Questions: questions}, nil
}

func (e *Estimator) userSpecified(requested int) *EstimateResult {
	clamped := e.slides.Clamp(requested)
	reasoning := fmt.Sprintf("User requested %d slides", requested)
	if clamped != requested {
		reasoning = fmt.Sprintf("User requested %d slides, adjusted to the supported range", requested)
	}
	return &EstimateResult{
		Estimate: model.SlideEstimate{
			EstimatedSlides:   clamped,
			ContentComplexity: model.ComplexityUserSpecified,
			Reasoning:         reasoning,
			Confidence:        1.0,
			UserSpecified:     true,
		},
		Questions: []model.ClarificationQuestion{e.slideCountQuestion(clamped)},
	}
}

// fallback keeps Stage 1 alive when the model answer is unusable: the
// configured default count with a single generic question.
func (e *Estimator) fallback() *EstimateResult {
	return &EstimateResult{
		Estimate: model.SlideEstimate{
			EstimatedSlides:   e.slides.DefaultSlides,
			ContentComplexity: model.ComplexityMedium,
			Reasoning:         "Defaulted after the content analysis response could not be interpreted",
			Confidence:        0.5,
		},
		Questions: []model.ClarificationQuestion{
			e.slideCountQuestion(e.slides.DefaultSlides),
			e.audienceQuestion(),
		},
	}
}

func (e *Estimator) slideCountQuestion(recommended int) model.ClarificationQuestion {
	counts := SlideRangeOptions(recommended, e.slides)
	options := make([]any, 0, len(counts))
	for _, n := range counts {
		options = append(options, n)
	}
	return model.ClarificationQuestion{
		ID:           model.SlideCountQuestionID,
		Question:     "How many slides should the presentation have?",
		FieldType:    model.FieldSelect,
		Options:      options,
		Required:     true,
		DefaultValue: recommended,
	}
}

func (e *Estimator) audienceQuestion() model.ClarificationQuestion {
	return model.ClarificationQuestion{
		ID:           "audience_level",
		Question:     "Who is the primary audience for this presentation?",
		FieldType:    model.FieldSelect,
		Options:      []any{model.LetAgentDecide, "General", "Executive", "Technical"},
		Required:     true,
		DefaultValue: model.LetAgentDecide,
	}
}

// normalizeQuestions keeps only well-formed select and boolean questions,
// prepends the opt-out sentinel to select options, and caps the count.
func (e *Estimator) normalizeQuestions(raw any) []model.ClarificationQuestion {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}

	var out []model.ClarificationQuestion
	for i, item := range items {
		if len(out) == maxAIQuestions {
			break
		}
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		text, _ := fields["question"].(string)
		if strings.TrimSpace(text) == "" {
			continue
		}

		q := model.ClarificationQuestion{
			Question:    strings.TrimSpace(text),
			Required:    true,
			AIGenerated: true,
		}
		if id, _ := fields["id"].(string); strings.TrimSpace(id) != "" {
			q.ID = strings.TrimSpace(id)
		} else {
			q.ID = fmt.Sprintf("question_%d", i+1)
		}
		if q.ID == model.SlideCountQuestionID {
			continue
		}

		switch fieldType, _ := fields["field_type"].(string); model.FieldType(strings.ToLower(strings.TrimSpace(fieldType))) {
		case model.FieldBoolean:
			q.FieldType = model.FieldBoolean
			q.DefaultValue = false
		case model.FieldSelect:
			options, ok := fields["options"].([]any)
			if !ok || len(options) == 0 {
				continue
			}
			q.FieldType = model.FieldSelect
			q.Options = append([]any{model.LetAgentDecide}, options...)
			q.DefaultValue = model.LetAgentDecide
		default:
			continue
		}

		out = append(out, q)
	}
	return out
}

func (e *Estimator) buildContext(in EstimateInput) string {
	var b strings.Builder
	if in.ConversationContent != "" {
		b.WriteString("<conversation_content>\n")
		b.WriteString(in.ConversationContent)
		b.WriteString("\n</conversation_content>\n\n")
	}
	if in.DocumentText != "" {
		b.WriteString("<document>\n")
		b.WriteString(in.DocumentText)
		b.WriteString("\n</document>")
	}
	return strings.TrimSpace(b.String())
}

// SlideRangeOptions builds the selectable slide counts around a
// recommendation: a step grid first, then single-step neighbors until the
// minimum option count is reached or the configured range is exhausted.
// The result is sorted and always contains the clamped recommendation.
func SlideRangeOptions(recommended int, cfg model.SlideConfig) []int {
	r := cfg.Clamp(recommended)
	step := cfg.OptionStep
	if step <= 0 {
		step = 1
	}
	want := cfg.MinOptions
	span := cfg.MaxSlides - cfg.MinSlides + 1
	if want > span {
		want = span
	}

	seen := map[int]bool{r: true}
	for k := 1; ; k++ {
		lo, hi := r-k*step, r+k*step
		if lo < cfg.MinSlides && hi > cfg.MaxSlides {
			break
		}
		if lo >= cfg.MinSlides {
			seen[lo] = true
		}
		if hi <= cfg.MaxSlides {
			seen[hi] = true
		}
	}
	for d := 1; len(seen) < want && d <= span; d++ {
		if v := r - d; v >= cfg.MinSlides {
			seen[v] = true
		}
		if len(seen) >= want {
			break
		}
		if v := r + d; v <= cfg.MaxSlides {
			seen[v] = true
		}
	}

	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func parseComplexity(v any) model.Complexity {
	s, _ := v.(string)
	switch model.Complexity(strings.ToLower(strings.TrimSpace(s))) {
	case model.ComplexityLow:
		return model.ComplexityLow
	case model.ComplexityHigh:
		return model.ComplexityHigh
	default:
		return model.ComplexityMedium
	}
}

func breakdownFromAny(v any) map[string]any {
	raw, ok := v.(map[string]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	out := make(map[string]any, len(raw))
	for section, count := range raw {
		if n, ok := numberFromAny(count); ok {
			out[section] = int(n)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func numberFromAny(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(n), "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}
