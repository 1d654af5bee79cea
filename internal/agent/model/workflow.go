package model

// Intent is the workflow intent assigned to a message by the classifier.
type Intent string

const (
	IntentClarification        Intent = "CLARIFICATION"
	IntentContextAddition      Intent = "CONTEXT_ADDITION"
	IntentPresentationInitiate Intent = "PRESENTATION_INITIATE"
	IntentPresentationGenerate Intent = "PRESENTATION_GENERATE"
	IntentGeneralInquiry       Intent = "GENERAL_INQUIRY"
	IntentContentBuilding      Intent = "CONTENT_BUILDING"
)

// ParseIntent normalises a model-produced intent label. Unknown labels fall
// back to GENERAL_INQUIRY so a sloppy model answer never derails the flow.
func ParseIntent(v string) Intent {
	switch Intent(v) {
	case IntentClarification, IntentContextAddition, IntentPresentationInitiate,
		IntentPresentationGenerate, IntentGeneralInquiry, IntentContentBuilding:
		return Intent(v)
	default:
		return IntentGeneralInquiry
	}
}

// ShouldGeneratePresentation reports whether the intent enters the
// presentation workflow.
func (i Intent) ShouldGeneratePresentation() bool {
	return i == IntentPresentationInitiate || i == IntentPresentationGenerate
}

// TriggerKind identifies a bracket trigger detected in a raw message.
type TriggerKind string

const (
	TriggerNone                 TriggerKind = "none"
	TriggerCreatePresentation   TriggerKind = "create_presentation"
	TriggerClarificationAnswers TriggerKind = "clarification_answers"
)

// Trigger is the result of deterministic bracket-trigger detection. Answers
// is populated only for clarification_answers.
type Trigger struct {
	Kind    TriggerKind
	Answers map[string]any
}

// ExtractedContent is the (user text, document text) pair pulled out of a
// raw message by the tag extractor.
type ExtractedContent struct {
	HasDocument  bool   `json:"has_document"`
	DocumentText string `json:"document_text,omitempty"`
	UserText     string `json:"user_text"`
}

// Complexity grades the content driving a slide estimate.
type Complexity string

const (
	ComplexityLow           Complexity = "low"
	ComplexityMedium        Complexity = "medium"
	ComplexityHigh          Complexity = "high"
	ComplexityUserSpecified Complexity = "user_specified"
)

// SlideEstimate is the bounded slide-count recommendation. EstimatedSlides is
// always clamped to the configured range before it leaves the estimator.
type SlideEstimate struct {
	EstimatedSlides   int            `json:"estimated_slides"`
	ContentComplexity Complexity     `json:"content_complexity"`
	SlideBreakdown    map[string]any `json:"slide_breakdown,omitempty"`
	Reasoning         string         `json:"reasoning"`
	Confidence        float64        `json:"confidence"`
	UserSpecified     bool           `json:"user_specified"`
}

// FieldType restricts clarification questions to UI-friendly shapes.
type FieldType string

const (
	FieldSelect  FieldType = "select"
	FieldBoolean FieldType = "boolean"
)

// LetAgentDecide is the sentinel first option of every generated select
// question, letting a user defer without downstream special-casing.
const LetAgentDecide = "Let agent decide"

// SlideCountQuestionID is the id of the synthesized slide-count question,
// always placed first in the question list.
const SlideCountQuestionID = "slide_count"

// ClarificationQuestion is one typed question shown in the Stage-1 popup.
type ClarificationQuestion struct {
	ID           string    `json:"id"`
	Question     string    `json:"question"`
	FieldType    FieldType `json:"field_type"`
	Options      []any     `json:"options,omitempty"`
	Required     bool      `json:"required"`
	DefaultValue any       `json:"default_value,omitempty"`
	AIGenerated  bool      `json:"ai_generated"`
}

// Topic is one main subject extracted from the conversation Q&A.
type Topic struct {
	Name       string `json:"topic"`
	Importance string `json:"importance"`
}

// ConsolidatedInfo is the final structured requirements object handed to the
// downstream presentation renderer.
type ConsolidatedInfo struct {
	ContentSummary  string         `json:"content_summary"`
	UserPreferences map[string]any `json:"user_preferences"`
	MainTopics      []Topic        `json:"main_topics"`
	Intent          string         `json:"intent"`
	Reasoning       string         `json:"reasoning"`
}

// Status is the externally visible request outcome.
type Status string

const (
	StatusCompleted  Status = "completed"
	StatusProcessing Status = "processing"
	StatusError      Status = "error"
)

// WorkflowRequest is one orchestrator invocation. History is owned by the
// caller and never mutated in place.
type WorkflowRequest struct {
	UserMessage     string
	SessionID       string
	EntraID         string
	History         []HistoryEntry
	RequestedSlides *int
}

// ResponseData is the uniform response envelope body. Conversation history is
// included on every path, errors included, so the caller can retry without
// losing context.
type ResponseData struct {
	Status                 Status                  `json:"status"`
	SessionID              string                  `json:"session_id,omitempty"`
	ConversationHistory    []HistoryEntry          `json:"conversation_history"`
	ResponseText           string                  `json:"response_text,omitempty"`
	ShowClarificationPopup bool                    `json:"show_clarification_popup,omitempty"`
	ClarificationQuestions []ClarificationQuestion `json:"clarification_questions,omitempty"`
	SlideEstimate          *SlideEstimate          `json:"slide_estimate,omitempty"`
	ConsolidatedInfo       *ConsolidatedInfo       `json:"consolidated_info,omitempty"`
	ProcessingInfo         map[string]any          `json:"processing_info,omitempty"`
	ErrorMessage           string                  `json:"error_message,omitempty"`
}

// Envelope wraps ResponseData the way the HTTP surface exposes it.
type Envelope struct {
	ResponseData ResponseData `json:"response_data"`
}
