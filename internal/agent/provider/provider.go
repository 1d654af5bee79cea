package provider

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// CompletionProvider is the single capability the workflow agents need from
// an LLM: role-tagged messages in, one assistant message out. Transport,
// auth and quota failures surface as provider errors; the content is
// unstructured text that callers run through the tolerant parser.
type CompletionProvider interface {
	Complete(ctx context.Context, messages []*schema.Message) (*schema.Message, error)
}

// Models groups the per-agent providers. Each agent gets its own model
// configuration (token budget, temperature) while sharing one client.
type Models struct {
	Classifier   CompletionProvider
	Estimator    CompletionProvider
	Consolidator CompletionProvider
}
