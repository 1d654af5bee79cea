package parsers

import (
	"fmt"
	"strings"

	"github.com/deckdraft-core/server/internal/agent/model"
	errx "github.com/deckdraft-core/server/internal/core/error"
)

// Document tag grammar. The paired form is preferred; the single-marker form
// is kept for older frontends that send everything after the marker as the
// document body.
const (
	TagDocumentStart  = "[document_start]"
	TagDocumentEnd    = "[document_end]"
	TagDocumentLegacy = "[document]"
)

// Bracket trigger grammar. Exact substrings, no internal whitespace.
const (
	TagCreatePresentation   = "[create_presentation]"
	TagClarificationAnswers = "[clarification_answers]"
)

// ExtractDocument pulls a delimited document payload out of a raw message.
//
// The paired tag is tried first: the span between the markers is the
// document, and the surrounding text (with the tag span removed, otherwise
// verbatim) is the user text. A start marker without an end marker is treated
// as no document at all; the full message stays user text rather than
// swallowing the remainder as a document. Only when no start marker exists is
// the legacy single-marker form tried, where the document runs to the end of
// the message. Paired bodies are opaque and never re-scanned for legacy tags.
func ExtractDocument(raw string) model.ExtractedContent {
	if i := strings.Index(raw, TagDocumentStart); i >= 0 {
		rest := raw[i+len(TagDocumentStart):]
		j := strings.Index(rest, TagDocumentEnd)
		if j < 0 {
			// Malformed pair: keep the whole message as user text.
			return model.ExtractedContent{UserText: raw}
		}
		doc := strings.TrimSpace(rest[:j])
		user := raw[:i] + rest[j+len(TagDocumentEnd):]
		if doc == "" {
			return model.ExtractedContent{UserText: user}
		}
		return model.ExtractedContent{HasDocument: true, DocumentText: doc, UserText: user}
	}

	if i := strings.Index(raw, TagDocumentLegacy); i >= 0 {
		doc := strings.TrimSpace(raw[i+len(TagDocumentLegacy):])
		user := strings.TrimSpace(raw[:i])
		if doc == "" {
			return model.ExtractedContent{UserText: user}
		}
		return model.ExtractedContent{HasDocument: true, DocumentText: doc, UserText: user}
	}

	return model.ExtractedContent{UserText: raw}
}

// DetectTrigger matches bracket triggers against the raw message. Detection
// is pure substring matching: no provider call, no history dependence, and
// re-running it on the same message always yields the same trigger.
//
// The payload-bearing clarification_answers trigger is checked first; its
// payload is everything after the marker, run through the tolerant parser.
// A present but unsalvageable payload is a validation error: Stage 2 must
// reject rather than proceed with guessed preferences.
func DetectTrigger(raw string) (model.Trigger, error) {
	if i := strings.Index(raw, TagClarificationAnswers); i >= 0 {
		payload := strings.TrimSpace(raw[i+len(TagClarificationAnswers):])
		answers, err := ParseTolerant(payload)
		if err != nil {
			return model.Trigger{Kind: model.TriggerClarificationAnswers},
				errx.NewValidation(fmt.Errorf("clarification answers payload: %w", err), errx.ValidationErrorMessage)
		}
		return model.Trigger{Kind: model.TriggerClarificationAnswers, Answers: answers}, nil
	}

	if strings.Contains(raw, TagCreatePresentation) {
		return model.Trigger{Kind: model.TriggerCreatePresentation}, nil
	}

	return model.Trigger{Kind: model.TriggerNone}, nil
}
