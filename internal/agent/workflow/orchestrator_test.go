package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckdraft-core/server/internal/agent/model"
	"github.com/deckdraft-core/server/internal/agent/provider"
)

type orchestratorFixture struct {
	orchestrator *Orchestrator
	classifier   *provider.Scripted
	estimator    *provider.Scripted
	consolidator *provider.Scripted
}

func newFixture() *orchestratorFixture {
	f := &orchestratorFixture{
		classifier:   provider.NewScripted(),
		estimator:    provider.NewScripted(),
		consolidator: provider.NewScripted(),
	}
	f.orchestrator = New(Config{
		Models: &provider.Models{
			Classifier:   f.classifier,
			Estimator:    f.estimator,
			Consolidator: f.consolidator,
		},
		Conversation: model.ConversationConfig{HistoryWindow: 6, DocumentPreviewChars: 500},
		Slides:       testSlideConfig(),
	})
	return f
}

func TestProcessRejectsEmptyMessage(t *testing.T) {
	f := newFixture()
	prior := []model.HistoryEntry{model.UserEntry("earlier message")}

	env := f.orchestrator.Process(context.Background(), model.WorkflowRequest{
		UserMessage: "   ",
		SessionID:   "s-1",
		History:     prior,
	})

	assert.Equal(t, model.StatusError, env.ResponseData.Status)
	assert.NotEmpty(t, env.ResponseData.ErrorMessage)
	assert.Equal(t, "s-1", env.ResponseData.SessionID)
	// Prior history survives, followed by the error reply.
	require.GreaterOrEqual(t, len(env.ResponseData.ConversationHistory), 2)
	assert.Equal(t, "earlier message", env.ResponseData.ConversationHistory[0].Content)
	assert.Zero(t, f.classifier.CallCount())
}

func TestProcessCreatePresentationTriggerSkipsClassifier(t *testing.T) {
	f := newFixture()
	f.classifier.Err = errors.New("classifier must not be called")
	f.estimator.Responses = []string{`{
		"estimated_slides": 10,
		"content_complexity": "medium",
		"reasoning": "moderate scope",
		"confidence": 0.8,
		"questions": [
			{"id": "tone", "question": "What tone should the deck use?", "field_type": "select", "options": ["Formal", "Casual"]}
		]
	}`}

	env := f.orchestrator.Process(context.Background(), model.WorkflowRequest{
		UserMessage: "[document_start]Q3 revenue grew 14% while costs held flat.[document_end]\n[create_presentation]",
		SessionID:   "s-2",
	})

	data := env.ResponseData
	assert.Equal(t, model.StatusProcessing, data.Status)
	assert.True(t, data.ShowClarificationPopup)
	require.NotNil(t, data.SlideEstimate)
	assert.Equal(t, 10, data.SlideEstimate.EstimatedSlides)
	require.NotEmpty(t, data.ClarificationQuestions)
	assert.Equal(t, model.SlideCountQuestionID, data.ClarificationQuestions[0].ID)
	assert.Zero(t, f.classifier.CallCount())
	assert.Equal(t, 1, f.estimator.CallCount())
	// User turn plus assistant reply.
	require.Len(t, data.ConversationHistory, 2)
	assert.Equal(t, model.RoleAssistant, data.ConversationHistory[1].Role)
}

func TestProcessCreatePresentationWithoutContent(t *testing.T) {
	f := newFixture()

	env := f.orchestrator.Process(context.Background(), model.WorkflowRequest{
		UserMessage: "[create_presentation]",
	})

	assert.Equal(t, model.StatusError, env.ResponseData.Status)
	assert.NotEmpty(t, env.ResponseData.ErrorMessage)
	assert.Zero(t, f.estimator.CallCount())
}

func TestProcessStageRoundTrip(t *testing.T) {
	f := newFixture()
	f.classifier.Err = errors.New("classifier must not be called")
	f.estimator.Responses = []string{`{"estimated_slides": 12, "content_complexity": "medium", "confidence": 0.7, "questions": []}`}
	f.consolidator.Responses = []string{`{"content_summary": "Quarterly revenue narrative across twelve slides.", "reasoning": "covers growth and cost control"}`}

	first := f.orchestrator.Process(context.Background(), model.WorkflowRequest{
		UserMessage: "[document_start]Q3 revenue grew 14% while costs held flat.[document_end]\n[create_presentation]",
		SessionID:   "s-3",
	})
	require.Equal(t, model.StatusProcessing, first.ResponseData.Status)

	second := f.orchestrator.Process(context.Background(), model.WorkflowRequest{
		UserMessage: `[clarification_answers] {"slide_count": 15, "audience_level": "Executive"}`,
		SessionID:   "s-3",
		History:     first.ResponseData.ConversationHistory,
	})

	data := second.ResponseData
	assert.Equal(t, model.StatusCompleted, data.Status)
	require.NotNil(t, data.ConsolidatedInfo)
	assert.Equal(t, "Quarterly revenue narrative across twelve slides.", data.ConsolidatedInfo.ContentSummary)
	assert.Equal(t, 15, data.ConsolidatedInfo.UserPreferences[model.SlideCountQuestionID])
	assert.Equal(t, "Executive", data.ConsolidatedInfo.UserPreferences["audience_level"])
	assert.Equal(t, "create_presentation", data.ConsolidatedInfo.Intent)
	assert.Zero(t, f.classifier.CallCount())
	assert.Equal(t, 1, f.consolidator.CallCount())
	// Both stages' turns are present.
	require.Len(t, data.ConversationHistory, 4)
}

func TestProcessClampsAnsweredSlideCount(t *testing.T) {
	f := newFixture()
	f.consolidator.Responses = []string{`{"content_summary": "brief", "reasoning": ""}`}
	history := []model.HistoryEntry{model.UserEntry("Please build a deck about our migration plan.")}

	env := f.orchestrator.Process(context.Background(), model.WorkflowRequest{
		UserMessage: `[clarification_answers] {"slide_count": 99}`,
		History:     history,
	})

	require.Equal(t, model.StatusCompleted, env.ResponseData.Status)
	assert.Equal(t, 25, env.ResponseData.ConsolidatedInfo.UserPreferences[model.SlideCountQuestionID])
}

func TestProcessSentinelSlideCountUsesDefault(t *testing.T) {
	f := newFixture()
	f.consolidator.Responses = []string{`{"content_summary": "brief", "reasoning": ""}`}
	history := []model.HistoryEntry{model.UserEntry("Please build a deck about our migration plan.")}

	env := f.orchestrator.Process(context.Background(), model.WorkflowRequest{
		UserMessage: `[clarification_answers] {"slide_count": "Let agent decide"}`,
		History:     history,
	})

	require.Equal(t, model.StatusCompleted, env.ResponseData.Status)
	assert.Equal(t, 12, env.ResponseData.ConsolidatedInfo.UserPreferences[model.SlideCountQuestionID])
}

func TestProcessMalformedClarificationAnswers(t *testing.T) {
	f := newFixture()

	env := f.orchestrator.Process(context.Background(), model.WorkflowRequest{
		UserMessage: "[clarification_answers] not structured at all",
		History:     []model.HistoryEntry{model.UserEntry("context")},
	})

	assert.Equal(t, model.StatusError, env.ResponseData.Status)
	assert.NotEmpty(t, env.ResponseData.ErrorMessage)
	assert.Zero(t, f.consolidator.CallCount())
	// The failed turn is still recorded.
	assert.GreaterOrEqual(t, len(env.ResponseData.ConversationHistory), 2)
}

func TestProcessConsolidatorMissingSummaryFails(t *testing.T) {
	f := newFixture()
	f.consolidator.Responses = []string{`{"reasoning": "no summary provided"}`}

	env := f.orchestrator.Process(context.Background(), model.WorkflowRequest{
		UserMessage: `[clarification_answers] {"slide_count": 10}`,
		History:     []model.HistoryEntry{model.UserEntry("deck about hiring plans")},
	})

	assert.Equal(t, model.StatusError, env.ResponseData.Status)
	assert.Nil(t, env.ResponseData.ConsolidatedInfo)
}

func TestProcessPlainConversation(t *testing.T) {
	f := newFixture()
	f.classifier.Responses = []string{`{"intent": "GENERAL_INQUIRY", "response_text": "Happy to help with presentations.", "confidence": 0.9, "reasoning": "greeting"}`}

	env := f.orchestrator.Process(context.Background(), model.WorkflowRequest{
		UserMessage: "Hello, what can you do?",
	})

	data := env.ResponseData
	assert.Equal(t, model.StatusCompleted, data.Status)
	assert.Equal(t, "Happy to help with presentations.", data.ResponseText)
	assert.False(t, data.ShowClarificationPopup)
	assert.Nil(t, data.SlideEstimate)
	assert.Equal(t, 1, f.classifier.CallCount())
	assert.Zero(t, f.estimator.CallCount())
	require.Len(t, data.ConversationHistory, 2)
}

func TestProcessClassifiedIntentEntersClarification(t *testing.T) {
	f := newFixture()
	f.classifier.Responses = []string{`{"intent": "PRESENTATION_INITIATE", "response_text": "Let's build that deck.", "confidence": 0.8, "reasoning": "explicit request"}`}
	f.estimator.Responses = []string{`{"estimated_slides": 8, "content_complexity": "low", "confidence": 0.6, "questions": []}`}

	env := f.orchestrator.Process(context.Background(), model.WorkflowRequest{
		UserMessage: "Turn our Q3 review into a presentation please",
		History:     []model.HistoryEntry{model.UserEntry("Q3 revenue grew 14% while costs held flat.")},
	})

	data := env.ResponseData
	assert.Equal(t, model.StatusProcessing, data.Status)
	assert.True(t, data.ShowClarificationPopup)
	require.NotNil(t, data.SlideEstimate)
	assert.Equal(t, 8, data.SlideEstimate.EstimatedSlides)
	assert.Equal(t, 1, f.classifier.CallCount())
	assert.Equal(t, 1, f.estimator.CallCount())
}

func TestProcessUserOverrideSlideCount(t *testing.T) {
	f := newFixture()
	requested := 30

	env := f.orchestrator.Process(context.Background(), model.WorkflowRequest{
		UserMessage:     "[document_start]migration runbook[document_end][create_presentation]",
		RequestedSlides: &requested,
	})

	data := env.ResponseData
	require.Equal(t, model.StatusProcessing, data.Status)
	assert.Equal(t, 25, data.SlideEstimate.EstimatedSlides)
	assert.True(t, data.SlideEstimate.UserSpecified)
	assert.Zero(t, f.estimator.CallCount())
}
