// Package llmtest provides a scripted LLMProvider for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"tarot-oracle-be/pkg/llm"
)

// ErrExhausted is returned when a Fake runs out of scripted replies.
var ErrExhausted = errors.New("llmtest: no scripted reply left")

// Call records one request made to a Fake.
type Call struct {
	History []llm.Message
	Options llm.Options
}

// System returns the system prompt of the call, if any.
func (c Call) System() string {
	s, _ := llm.SplitSystem(c.History)
	return s
}

// User returns the content of the last user message.
func (c Call) User() string {
	for i := len(c.History) - 1; i >= 0; i-- {
		if c.History[i].Role == llm.RoleUser {
			return c.History[i].Content
		}
	}
	return ""
}

// Reply is one scripted answer.
type Reply struct {
	Text string
	Err  error
}

// Fake answers from a queue of replies, or from Handler when set.
type Fake struct {
	mu      sync.Mutex
	replies []Reply
	calls   []Call

	// Handler, when set, takes precedence over the queue.
	Handler func(ctx context.Context, call Call) (string, error)
}

var _ llm.LLMProvider = &Fake{}

// New returns a Fake that answers with texts in order.
func New(texts ...string) *Fake {
	f := &Fake{}
	for _, t := range texts {
		f.replies = append(f.replies, Reply{Text: t})
	}
	return f
}

// Push appends a reply to the queue.
func (f *Fake) Push(r Reply) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, r)
	return f
}

func (f *Fake) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	call := Call{History: append([]llm.Message(nil), history...), Options: *llm.NewOptions(0.7, options...)}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	handler := f.Handler
	var next *Reply
	if handler == nil && len(f.replies) > 0 {
		next = &f.replies[0]
		f.replies = f.replies[1:]
	}
	f.mu.Unlock()

	if handler != nil {
		return handler(ctx, call)
	}
	if next == nil {
		return "", ErrExhausted
	}
	return next.Text, next.Err
}

func (f *Fake) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

// Calls returns a copy of the recorded calls.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallCount returns how many requests were made.
func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
