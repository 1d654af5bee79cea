package workflow

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckdraft-core/server/internal/agent/model"
	"github.com/deckdraft-core/server/internal/agent/provider"
	errx "github.com/deckdraft-core/server/internal/core/error"
)

func testSlideConfig() model.SlideConfig {
	return model.SlideConfig{MinSlides: 5, MaxSlides: 25, DefaultSlides: 12, OptionStep: 3, MinOptions: 11}
}

func TestSlideRangeOptions(t *testing.T) {
	cfg := testSlideConfig()

	for _, recommended := range []int{-3, 5, 6, 12, 18, 24, 25, 100} {
		options := SlideRangeOptions(recommended, cfg)

		require.GreaterOrEqual(t, len(options), cfg.MinOptions, "recommendation %d", recommended)
		assert.True(t, sort.IntsAreSorted(options), "recommendation %d", recommended)
		assert.Contains(t, options, cfg.Clamp(recommended), "recommendation %d", recommended)
		for _, n := range options {
			assert.GreaterOrEqual(t, n, cfg.MinSlides)
			assert.LessOrEqual(t, n, cfg.MaxSlides)
		}
	}
}

func TestSlideRangeOptionsNarrowRange(t *testing.T) {
	cfg := model.SlideConfig{MinSlides: 4, MaxSlides: 8, DefaultSlides: 6, OptionStep: 3, MinOptions: 11}

	options := SlideRangeOptions(6, cfg)

	// Range narrower than the option minimum yields every count in range.
	assert.Equal(t, []int{4, 5, 6, 7, 8}, options)
}

func TestEstimateUserOverrideSkipsModel(t *testing.T) {
	scripted := provider.NewScripted()
	scripted.Err = errors.New("must not be called")
	est := NewEstimator(scripted, testSlideConfig())
	requested := 40

	result, err := est.Estimate(context.Background(), EstimateInput{
		DocumentText:    "quarterly results",
		RequestedSlides: &requested,
	})

	require.NoError(t, err)
	assert.Zero(t, scripted.CallCount())
	assert.Equal(t, 25, result.Estimate.EstimatedSlides)
	assert.True(t, result.Estimate.UserSpecified)
	assert.Equal(t, model.ComplexityUserSpecified, result.Estimate.ContentComplexity)
	assert.Equal(t, 1.0, result.Estimate.Confidence)
	require.Len(t, result.Questions, 1)
	assert.Equal(t, model.SlideCountQuestionID, result.Questions[0].ID)
	assert.Equal(t, 25, result.Questions[0].DefaultValue)
}

func TestEstimateParsesModelResponse(t *testing.T) {
	scripted := provider.NewScripted(`{
		"estimated_slides": 14,
		"content_complexity": "high",
		"slide_breakdown": {"introduction": 2, "findings": 9, "conclusion": 3},
		"reasoning": "dense technical material",
		"confidence": 0.85,
		"questions": [
			{"id": "tone", "question": "What tone should the deck use?", "field_type": "select", "options": ["Formal", "Casual"]},
			{"id": "speaker_notes", "question": "Include speaker notes?", "field_type": "boolean"},
			{"id": "free_text", "question": "Anything else?", "field_type": "text"}
		]
	}`)
	est := NewEstimator(scripted, testSlideConfig())

	result, err := est.Estimate(context.Background(), EstimateInput{DocumentText: "architecture review"})

	require.NoError(t, err)
	assert.Equal(t, 1, scripted.CallCount())
	assert.Equal(t, 14, result.Estimate.EstimatedSlides)
	assert.Equal(t, model.ComplexityHigh, result.Estimate.ContentComplexity)
	assert.Equal(t, 0.85, result.Estimate.Confidence)
	assert.Equal(t, 9, result.Estimate.SlideBreakdown["findings"])

	// Text questions are dropped; slide count always leads.
	require.Len(t, result.Questions, 3)
	assert.Equal(t, model.SlideCountQuestionID, result.Questions[0].ID)
	assert.False(t, result.Questions[0].AIGenerated)
	assert.Equal(t, 14, result.Questions[0].DefaultValue)

	tone := result.Questions[1]
	assert.Equal(t, "tone", tone.ID)
	assert.True(t, tone.AIGenerated)
	assert.Equal(t, model.LetAgentDecide, tone.Options[0])
	assert.Equal(t, model.LetAgentDecide, tone.DefaultValue)

	notes := result.Questions[2]
	assert.Equal(t, model.FieldBoolean, notes.FieldType)
	assert.Equal(t, false, notes.DefaultValue)
}

func TestEstimateClampsModelEstimate(t *testing.T) {
	scripted := provider.NewScripted(`{"estimated_slides": 100, "content_complexity": "low", "questions": []}`)
	est := NewEstimator(scripted, testSlideConfig())

	result, err := est.Estimate(context.Background(), EstimateInput{DocumentText: "short memo"})

	require.NoError(t, err)
	assert.Equal(t, 25, result.Estimate.EstimatedSlides)
	assert.Equal(t, 25, result.Questions[0].DefaultValue)
}

func TestEstimateFallbackOnUnusableResponse(t *testing.T) {
	scripted := provider.NewScripted("I cannot help with that.")
	cfg := testSlideConfig()
	est := NewEstimator(scripted, cfg)

	result, err := est.Estimate(context.Background(), EstimateInput{DocumentText: "project plan"})

	require.NoError(t, err)
	assert.Equal(t, cfg.DefaultSlides, result.Estimate.EstimatedSlides)
	assert.Equal(t, model.ComplexityMedium, result.Estimate.ContentComplexity)
	require.Len(t, result.Questions, 2)
	assert.Equal(t, model.SlideCountQuestionID, result.Questions[0].ID)
	assert.Equal(t, "audience_level", result.Questions[1].ID)
}

func TestEstimateFallbackOnMissingSlides(t *testing.T) {
	scripted := provider.NewScripted(`{"content_complexity": "medium", "questions": []}`)
	est := NewEstimator(scripted, testSlideConfig())

	result, err := est.Estimate(context.Background(), EstimateInput{DocumentText: "notes"})

	require.NoError(t, err)
	assert.Equal(t, 12, result.Estimate.EstimatedSlides)
}

func TestEstimatePropagatesProviderError(t *testing.T) {
	scripted := provider.NewScripted()
	scripted.Err = errx.WrapProvider(errors.New("upstream down"))
	est := NewEstimator(scripted, testSlideConfig())

	_, err := est.Estimate(context.Background(), EstimateInput{DocumentText: "notes"})

	require.Error(t, err)
	assert.Equal(t, errx.KindProvider, errx.KindOf(err))
}
