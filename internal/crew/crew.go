// ABOUTME: Posting crew: sequential research and writing tasks backed by the LLM
// ABOUTME: Implements the pipeline Generator and Refiner interfaces

package crew

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/2389/hireflow/internal/conversation"
	"github.com/2389/hireflow/internal/llm"
)

// Completer is the slice of the LLM client the crew needs.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// Crew runs the posting generation tasks in sequence: two research tasks
// whose output feeds the writer, mirroring a research-then-write workflow.
type Crew struct {
	llm     Completer
	model   string
	prompts *PromptSet
	logger  *slog.Logger
}

// Option configures a Crew.
type Option func(*Crew)

// WithModel overrides the LLM client's default model for crew calls.
func WithModel(model string) Option {
	return func(c *Crew) { c.model = model }
}

// WithPrompts replaces the embedded prompt set.
func WithPrompts(prompts *PromptSet) Option {
	return func(c *Crew) { c.prompts = prompts }
}

// WithLogger sets the crew's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crew) { c.logger = logger }
}

// New creates a Crew with the embedded prompt set.
func New(completer Completer, opts ...Option) (*Crew, error) {
	prompts, err := DefaultPrompts()
	if err != nil {
		return nil, fmt.Errorf("loading default prompts: %w", err)
	}
	c := &Crew{
		llm:     completer,
		prompts: prompts,
		logger:  slog.Default().With("component", "crew"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GeneratePosting runs market research, AI-skills research, and the writer
// task in order, returning the writer's markdown posting.
func (c *Crew) GeneratePosting(ctx context.Context, info conversation.RoleInfo) (string, error) {
	vars := map[string]string{
		"job_role":     deref(info.JobRole),
		"location":     deref(info.Location),
		"company_name": deref(info.CompanyName),
	}

	market, err := c.runTask(ctx, TaskMarketResearch, vars)
	if err != nil {
		return "", err
	}

	aiSkills, err := c.runTask(ctx, TaskAISkillsResearch, vars)
	if err != nil {
		return "", err
	}

	vars["market_research"] = market
	vars["ai_skills_research"] = aiSkills

	posting, err := c.runTask(ctx, TaskPostingWriter, vars)
	if err != nil {
		return "", err
	}

	c.logger.Info("posting generated",
		"job_role", vars["job_role"],
		"company_name", vars["company_name"],
		"length", len(posting))
	return posting, nil
}

// RefinePosting runs the editor task with the current posting and feedback.
func (c *Crew) RefinePosting(ctx context.Context, posting, feedback string) (string, error) {
	vars := map[string]string{
		"job_posting": posting,
		"feedback":    feedback,
	}

	revised, err := c.runTask(ctx, TaskPostingEditor, vars)
	if err != nil {
		return "", err
	}

	c.logger.Info("posting refined", "length", len(revised))
	return revised, nil
}

func (c *Crew) runTask(ctx context.Context, taskName string, vars map[string]string) (string, error) {
	prompt, err := c.prompts.TaskPromptFor(taskName, vars)
	if err != nil {
		return "", err
	}

	c.logger.Debug("running task", "task", taskName)
	out, err := c.llm.Complete(ctx, llm.Request{Prompt: prompt, Model: c.model})
	if err != nil {
		return "", fmt.Errorf("task %s: %w", taskName, err)
	}
	return out, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
