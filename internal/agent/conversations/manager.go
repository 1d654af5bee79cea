package conversations

import (
	"fmt"
	"strings"

	"github.com/deckdraft-core/server/internal/agent/model"
	"github.com/deckdraft-core/server/internal/agent/parsers"
)

// Manager assembles bounded conversation context for the workflow agents.
// It never mutates caller-supplied history slices; every derived view is a
// copy.
type Manager struct {
	historyWindow int
	previewChars  int
}

func NewManager(cfg model.ConversationConfig) *Manager {
	return &Manager{
		historyWindow: cfg.HistoryWindow,
		previewChars:  cfg.DocumentPreviewChars,
	}
}

// Content renders conversation history as plain text for prompt assembly.
// Two history shapes are supported: a structured entry carrying a Q&A
// conversation array, and a flat list of role-tagged messages. Unknown or
// empty history renders as an empty string, never an error, so downstream
// concatenation is always safe.
func (m *Manager) Content(history []model.HistoryEntry) string {
	for _, entry := range history {
		if len(entry.Conversation) > 0 {
			return renderQA(entry.Conversation)
		}
	}
	return renderFlat(history)
}

func renderQA(pairs []model.QAEntry) string {
	var b strings.Builder
	n := 0
	for _, qa := range pairs {
		if qa.Question == "" && qa.Response == "" {
			continue
		}
		n++
		fmt.Fprintf(&b, "Topic %d: %s\nDetails: %s\n\n", n, qa.Question, qa.Response)
	}
	return strings.TrimSpace(b.String())
}

func renderFlat(history []model.HistoryEntry) string {
	var b strings.Builder
	users, responses := 0, 0
	for _, entry := range history {
		if entry.Content == "" {
			continue
		}
		switch entry.Role {
		case model.RoleUser:
			users++
			// document bodies are bounded separately; keep only the user's
			// own words in conversation context
			text := parsers.ExtractDocument(entry.Content).UserText
			if strings.TrimSpace(text) == "" {
				text = "(document upload)"
			}
			fmt.Fprintf(&b, "User Input %d: %s\n\n", users, strings.TrimSpace(text))
		case model.RoleAssistant:
			responses++
			fmt.Fprintf(&b, "Response %d: %s\n\n", responses, entry.Content)
		}
	}
	return strings.TrimSpace(b.String())
}

// Window returns a copy of the trailing historyWindow entries.
func (m *Manager) Window(history []model.HistoryEntry) []model.HistoryEntry {
	if m.historyWindow <= 0 || len(history) <= m.historyWindow {
		out := make([]model.HistoryEntry, len(history))
		copy(out, history)
		return out
	}
	source := history[len(history)-m.historyWindow:]
	out := make([]model.HistoryEntry, len(source))
	copy(out, source)
	return out
}

// DocumentPreview bounds embedded document text for classification prompts.
func (m *Manager) DocumentPreview(doc string) string {
	if m.previewChars <= 0 || len(doc) <= m.previewChars {
		return doc
	}
	return doc[:m.previewChars] + "..."
}

// LatestDocument scans history newest-first for the most recent tagged
// document, so short follow-ups like "proceed" can reuse an earlier upload.
// The scan iterates a reversed view by index; the caller's slice is left
// untouched.
func (m *Manager) LatestDocument(history []model.HistoryEntry) (string, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != model.RoleUser {
			continue
		}
		extracted := parsers.ExtractDocument(history[i].Content)
		if extracted.HasDocument {
			return extracted.DocumentText, true
		}
	}
	return "", false
}

// MainTopics derives presentation topics from the structured Q&A blocks in
// history. The first topic carries higher importance.
func MainTopics(history []model.HistoryEntry) []model.Topic {
	var topics []model.Topic
	for _, entry := range history {
		for _, qa := range entry.Conversation {
			q := strings.TrimSpace(qa.Question)
			if q == "" {
				continue
			}
			importance := "medium"
			if len(topics) == 0 {
				importance = "high"
			}
			topics = append(topics, model.Topic{Name: q, Importance: importance})
		}
	}
	return topics
}

// Append returns a new history slice with entries added; the input slice is
// never extended in place.
func Append(history []model.HistoryEntry, entries ...model.HistoryEntry) []model.HistoryEntry {
	out := make([]model.HistoryEntry, 0, len(history)+len(entries))
	out = append(out, history...)
	out = append(out, entries...)
	return out
}
