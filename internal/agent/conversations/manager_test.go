package conversations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckdraft-core/server/internal/agent/model"
)

func testManager() *Manager {
	return NewManager(model.ConversationConfig{HistoryWindow: 6, DocumentPreviewChars: 500})
}

func TestContentStructuredQA(t *testing.T) {
	history := []model.HistoryEntry{
		{Conversation: []model.QAEntry{
			{Question: "What is the target audience?", Response: "Engineering leadership"},
			{Question: "How long is the talk?", Response: "30 minutes"},
		}},
	}

	got := testManager().Content(history)

	assert.Equal(t,
		"Topic 1: What is the target audience?\nDetails: Engineering leadership\n\n"+
			"Topic 2: How long is the talk?\nDetails: 30 minutes",
		got)
}

func TestContentFlatMessages(t *testing.T) {
	history := []model.HistoryEntry{
		{Role: model.RoleUser, Content: "I need a deck about Q3"},
		{Role: model.RoleAssistant, Content: "Happy to help."},
		{Role: model.RoleUser, Content: "Focus on revenue"},
	}

	got := testManager().Content(history)

	assert.Equal(t,
		"User Input 1: I need a deck about Q3\n\n"+
			"Response 1: Happy to help.\n\n"+
			"User Input 2: Focus on revenue",
		got)
}

func TestContentStripsDocumentBodies(t *testing.T) {
	history := []model.HistoryEntry{
		{Role: model.RoleUser, Content: "summarize [document]a very long report body"},
	}

	got := testManager().Content(history)

	assert.Equal(t, "User Input 1: summarize", got)
}

func TestContentEmptyHistory(t *testing.T) {
	assert.Equal(t, "", testManager().Content(nil))
	assert.Equal(t, "", testManager().Content([]model.HistoryEntry{}))
}

func TestWindowCopiesWithoutMutation(t *testing.T) {
	history := make([]model.HistoryEntry, 10)
	for i := range history {
		history[i] = model.HistoryEntry{Role: model.RoleUser, Content: "m"}
	}

	got := testManager().Window(history)

	require.Len(t, got, 6)
	got[0].Content = "changed"
	assert.Equal(t, "m", history[4].Content)
}

func TestDocumentPreviewBounds(t *testing.T) {
	m := NewManager(model.ConversationConfig{DocumentPreviewChars: 5})

	assert.Equal(t, "short", m.DocumentPreview("short"))
	assert.Equal(t, "12345...", m.DocumentPreview("1234567890"))
}

func TestLatestDocumentFindsNewestFirst(t *testing.T) {
	history := []model.HistoryEntry{
		{Role: model.RoleUser, Content: "[document]old body"},
		{Role: model.RoleAssistant, Content: "noted"},
		{Role: model.RoleUser, Content: "[document_start]new body[document_end]"},
		{Role: model.RoleUser, Content: "proceed"},
	}

	doc, ok := testManager().LatestDocument(history)

	require.True(t, ok)
	assert.Equal(t, "new body", doc)
	// scan must not reorder the caller's slice
	assert.Equal(t, "[document]old body", history[0].Content)
}

func TestLatestDocumentAbsent(t *testing.T) {
	_, ok := testManager().LatestDocument([]model.HistoryEntry{
		{Role: model.RoleUser, Content: "no tags here"},
	})
	assert.False(t, ok)
}

func TestMainTopicsFirstIsHigh(t *testing.T) {
	history := []model.HistoryEntry{
		{Conversation: []model.QAEntry{
			{Question: "Audience?", Response: "execs"},
			{Question: "Tone?", Response: "formal"},
		}},
	}

	topics := MainTopics(history)

	require.Len(t, topics, 2)
	assert.Equal(t, model.Topic{Name: "Audience?", Importance: "high"}, topics[0])
	assert.Equal(t, model.Topic{Name: "Tone?", Importance: "medium"}, topics[1])
}

func TestAppendDoesNotShareBackingArray(t *testing.T) {
	history := []model.HistoryEntry{{Role: model.RoleUser, Content: "a"}}

	out := Append(history, model.AssistantEntry("b"))

	require.Len(t, out, 2)
	require.Len(t, history, 1)
	out[0].Content = "mutated"
	assert.Equal(t, "a", history[0].Content)
}
