package provider

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/schema"
)

// Scripted is an in-memory CompletionProvider that replays canned responses
// in order, recording every request it sees. It backs tests and local runs
// without provider credentials; the last response repeats once the script is
// exhausted.
type Scripted struct {
	mu        sync.Mutex
	Responses []string
	Err       error

	calls [][]*schema.Message
}

func NewScripted(responses ...string) *Scripted {
	return &Scripted{Responses: responses}
}

func (s *Scripted) Complete(_ context.Context, messages []*schema.Message) (*schema.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]*schema.Message, len(messages))
	copy(copied, messages)
	s.calls = append(s.calls, copied)

	if s.Err != nil {
		return nil, s.Err
	}

	idx := len(s.calls) - 1
	if idx >= len(s.Responses) {
		idx = len(s.Responses) - 1
	}
	if idx < 0 {
		return schema.AssistantMessage("", nil), nil
	}
	return schema.AssistantMessage(s.Responses[idx], nil), nil
}

// Calls returns a copy of the recorded requests.
func (s *Scripted) Calls() [][]*schema.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]*schema.Message, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount reports how many completions were requested.
func (s *Scripted) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}
