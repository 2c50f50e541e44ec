// ABOUTME: Intent classifier adapter: turns a conversation state into a routed intent
// ABOUTME: Calls the LLM in JSON mode and validates the result against the intent enum

package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/2389/hireflow/internal/conversation"
	"github.com/2389/hireflow/internal/llm"
)

// Intent is the three-way routing decision produced per turn.
type Intent string

const (
	IntentJobCreation  Intent = "job_creation"
	IntentConversation Intent = "conversation"
	IntentRefinement   Intent = "refinement"
)

// valid reports whether the intent is one of the allowed enum values.
func (i Intent) valid() bool {
	switch i {
	case IntentJobCreation, IntentConversation, IntentRefinement:
		return true
	}
	return false
}

// ClassificationError signals that the classifier was unreachable or returned
// a result that fails validation. It is never downgraded to a guessed intent.
type ClassificationError struct {
	Reason string
	Err    error
}

func (e *ClassificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("classification failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("classification failed: %s", e.Reason)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// Result is the transient per-turn classification. It is consumed by the
// router immediately and never persisted.
type Result struct {
	Intent        Intent                `json:"user_intent"`
	RoleInfo      conversation.RoleInfo `json:"role_info"`
	Feedback      *string               `json:"feedback"`
	AnswerMessage *string               `json:"answer_message"`
	Reasoning     string                `json:"reasoning"`
}

// Completer is the slice of the LLM client the classifier needs.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// Classifier builds the routing prompt and interprets the model's answer.
type Classifier struct {
	llm           Completer
	model         string
	historyWindow int
	logger        *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithModel overrides the LLM client's default model for classification calls.
func WithModel(model string) Option {
	return func(c *Classifier) { c.model = model }
}

// WithHistoryWindow bounds how many trailing messages are included in the
// prompt. Zero means the full history.
func WithHistoryWindow(n int) Option {
	return func(c *Classifier) { c.historyWindow = n }
}

// WithLogger sets the classifier's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) { c.logger = logger }
}

// New creates a Classifier backed by the given completer.
func New(completer Completer, opts ...Option) *Classifier {
	c := &Classifier{
		llm:    completer,
		logger: slog.Default().With("component", "classifier"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify resolves the intent of the current user message given the
// accumulated state. The state is read, never mutated.
func (c *Classifier) Classify(ctx context.Context, state *conversation.State) (*Result, error) {
	prompt := BuildPrompt(state, state.HistoryWindow(c.historyWindow))

	raw, err := c.llm.Complete(ctx, llm.Request{
		Prompt: prompt,
		Model:  c.model,
		JSON:   true,
	})
	if err != nil {
		return nil, &ClassificationError{Reason: "LLM call failed", Err: err}
	}

	result, err := parseResult(raw)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("message classified",
		"intent", result.Intent,
		"reasoning", result.Reasoning)
	return result, nil
}

// parseResult decodes and validates the model's JSON answer.
func parseResult(raw string) (*Result, error) {
	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, &ClassificationError{Reason: "malformed response", Err: err}
	}

	if result.Intent == "" {
		return nil, &ClassificationError{Reason: "response missing user_intent"}
	}
	if !result.Intent.valid() {
		return nil, &ClassificationError{Reason: fmt.Sprintf("unknown user_intent %q", result.Intent)}
	}

	return &result, nil
}
