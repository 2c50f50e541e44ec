// ABOUTME: Pipeline dispatchers for the three turn outcomes
// ABOUTME: Exactly one dispatcher runs per turn; results are merged into state here

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/2389/hireflow/internal/conversation"
	"github.com/2389/hireflow/internal/router"
)

// GenerationError signals that the posting generator failed or returned
// empty content.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("posting generation failed: %v", e.Err)
	}
	return "posting generation returned empty content"
}

func (e *GenerationError) Unwrap() error { return e.Err }

// RefinementError signals that the posting rewrite failed or returned
// empty content.
type RefinementError struct {
	Err error
}

func (e *RefinementError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("posting refinement failed: %v", e.Err)
	}
	return "posting refinement returned empty content"
}

func (e *RefinementError) Unwrap() error { return e.Err }

// Generator produces a job posting from a complete slot set. The generation
// pipeline behind it (research agents, tools) is opaque to the dispatcher.
type Generator interface {
	GeneratePosting(ctx context.Context, info conversation.RoleInfo) (string, error)
}

// Refiner rewrites an existing posting according to feedback, preserving
// sections the feedback doesn't touch.
type Refiner interface {
	RefinePosting(ctx context.Context, posting, feedback string) (string, error)
}

// Dispatcher executes the pipeline chosen by the router and records the
// assistant's reply in the state.
type Dispatcher struct {
	generator Generator
	refiner   Refiner
	logger    *slog.Logger
}

// New creates a Dispatcher. A nil logger falls back to slog.Default.
func New(generator Generator, refiner Refiner, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		generator: generator,
		refiner:   refiner,
		logger:    logger.With("component", "pipeline"),
	}
}

// Dispatch runs the decision's pipeline against the state and returns the
// assistant reply. On error the state may hold partial in-memory changes;
// callers discard it without committing.
func (d *Dispatcher) Dispatch(ctx context.Context, state *conversation.State, decision *router.Decision) (string, error) {
	switch decision.Kind {
	case router.KindConversation:
		return d.runConversation(state, decision.Conversation)
	case router.KindJobCreation:
		return d.runJobCreation(ctx, state, decision.JobCreation)
	case router.KindRefinement:
		return d.runRefinement(ctx, state, decision.Refinement)
	default:
		return "", fmt.Errorf("unknown dispatch kind %q", decision.Kind)
	}
}

// runConversation appends the classifier's reply. No external call.
func (d *Dispatcher) runConversation(state *conversation.State, dispatch *router.ConversationDispatch) (string, error) {
	state.Append(conversation.RoleAssistant, dispatch.Answer)
	return dispatch.Answer, nil
}

func (d *Dispatcher) runJobCreation(ctx context.Context, state *conversation.State, dispatch *router.JobCreationDispatch) (string, error) {
	d.logger.Info("generating job posting",
		"job_role", *dispatch.RoleInfo.JobRole,
		"location", *dispatch.RoleInfo.Location,
		"company_name", *dispatch.RoleInfo.CompanyName,
		"reset", dispatch.Reset)

	posting, err := d.generator.GeneratePosting(ctx, dispatch.RoleInfo)
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	if strings.TrimSpace(posting) == "" {
		return "", &GenerationError{}
	}

	state.JobPosting = &posting
	state.Append(conversation.RoleAssistant, posting)
	return posting, nil
}

func (d *Dispatcher) runRefinement(ctx context.Context, state *conversation.State, dispatch *router.RefinementDispatch) (string, error) {
	d.logger.Info("refining job posting", "feedback", dispatch.Feedback)

	revised, err := d.refiner.RefinePosting(ctx, dispatch.Posting, dispatch.Feedback)
	if err != nil {
		return "", &RefinementError{Err: err}
	}
	if strings.TrimSpace(revised) == "" {
		return "", &RefinementError{}
	}

	state.JobPosting = &revised
	state.Append(conversation.RoleAssistant, revised)
	return revised, nil
}
