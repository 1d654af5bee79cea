package model

// ================ Config ================

// SlideConfig bounds every slide-count decision the service makes. Values are
// read once at startup and passed by injection; business logic never reads
// the environment directly.
type SlideConfig struct {
	MinSlides     int `envconfig:"SLIDES_MIN" default:"5"`
	MaxSlides     int `envconfig:"SLIDES_MAX" default:"25"`
	DefaultSlides int `envconfig:"SLIDES_DEFAULT" default:"12"`
	OptionStep    int `envconfig:"SLIDES_OPTION_STEP" default:"3"`
	MinOptions    int `envconfig:"SLIDES_MIN_OPTIONS" default:"11"`
}

// Clamp limits a slide count to the configured range.
func (c SlideConfig) Clamp(n int) int {
	if n < c.MinSlides {
		return c.MinSlides
	}
	if n > c.MaxSlides {
		return c.MaxSlides
	}
	return n
}

type ConversationConfig struct {
	TTL string `envconfig:"CONVERSATION_TTL" default:"30m"`
	// HistoryWindow is the number of trailing history entries included in
	// classification prompts.
	HistoryWindow int `envconfig:"CONVERSATION_HISTORY_WINDOW" default:"6"`
	// DocumentPreviewChars bounds how much embedded document text is shown
	// to the classifier model.
	DocumentPreviewChars int `envconfig:"CONVERSATION_DOCUMENT_PREVIEW_CHARS" default:"500"`
}

type ClassifierModelConfig struct {
	Model       string  `envconfig:"CLASSIFIER_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"CLASSIFIER_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"CLASSIFIER_TEMPERATURE" default:"0.1"`
	TopP        float32 `envconfig:"CLASSIFIER_TOP_P" default:"0.9"`
}

type EstimatorModelConfig struct {
	Model       string  `envconfig:"ESTIMATOR_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"ESTIMATOR_MAX_TOKENS" default:"8000"`
	Temperature float32 `envconfig:"ESTIMATOR_TEMPERATURE" default:"0.5"`
	TopP        float32 `envconfig:"ESTIMATOR_TOP_P" default:"0.9"`
}

type ConsolidatorModelConfig struct {
	Model       string  `envconfig:"CONSOLIDATOR_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"CONSOLIDATOR_MAX_TOKENS" default:"12000"`
	Temperature float32 `envconfig:"CONSOLIDATOR_TEMPERATURE" default:"0.4"`
	TopP        float32 `envconfig:"CONSOLIDATOR_TOP_P" default:"0.9"`
}
