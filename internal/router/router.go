// ABOUTME: Turn router: maps a classification onto state updates and a pipeline choice
// ABOUTME: Enforces slot preconditions and the new-job reset policy

package router

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/2389/hireflow/internal/classifier"
	"github.com/2389/hireflow/internal/conversation"
)

// SlotContractViolation is returned when the classifier claimed an intent
// without satisfying that intent's preconditions. It is a classifier contract
// bug surfaced as an error, never silently downgraded to another intent.
type SlotContractViolation struct {
	Intent  classifier.Intent
	Missing []string
	Reason  string
}

func (e *SlotContractViolation) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("intent %q claimed with missing slots: %s", e.Intent, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("intent %q claimed but %s", e.Intent, e.Reason)
}

// Kind discriminates the three pipeline branches.
type Kind string

const (
	KindConversation Kind = "conversation"
	KindJobCreation  Kind = "job_creation"
	KindRefinement   Kind = "refinement"
)

// Decision is the router's output: the chosen branch plus only the inputs
// that branch needs. Exactly one of the branch fields is non-nil.
type Decision struct {
	Kind         Kind
	Conversation *ConversationDispatch
	JobCreation  *JobCreationDispatch
	Refinement   *RefinementDispatch
}

// ConversationDispatch carries the reply already produced by the classifier.
type ConversationDispatch struct {
	Answer string
}

// JobCreationDispatch carries the complete slot set for the generator.
type JobCreationDispatch struct {
	RoleInfo conversation.RoleInfo
	Reset    bool
}

// RefinementDispatch carries the current posting and the requested change.
type RefinementDispatch struct {
	Posting  string
	Feedback string
}

// Router applies classification results to conversation state.
type Router struct {
	logger *slog.Logger
}

// New creates a Router. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{logger: logger.With("component", "router")}
}

// Route merges the classified slots into the state and decides which pipeline
// handles the turn. The state passed in is mutated; callers hand in a clone
// and commit it only after the dispatched pipeline succeeds.
func (r *Router) Route(state *conversation.State, result *classifier.Result) (*Decision, error) {
	switch result.Intent {
	case classifier.IntentConversation:
		return r.routeConversation(state, result)
	case classifier.IntentJobCreation:
		return r.routeJobCreation(state, result)
	case classifier.IntentRefinement:
		return r.routeRefinement(state, result)
	default:
		// The classifier validates the enum; this is a programmer error.
		return nil, fmt.Errorf("unroutable intent %q", result.Intent)
	}
}

func (r *Router) routeConversation(state *conversation.State, result *classifier.Result) (*Decision, error) {
	if result.AnswerMessage == nil || *result.AnswerMessage == "" {
		return nil, &SlotContractViolation{
			Intent: classifier.IntentConversation,
			Reason: "answer_message is empty",
		}
	}

	state.RoleInfo = conversation.Merge(state.RoleInfo, result.RoleInfo, false)
	state.AnswerMessage = result.AnswerMessage

	return &Decision{
		Kind:         KindConversation,
		Conversation: &ConversationDispatch{Answer: *result.AnswerMessage},
	}, nil
}

func (r *Router) routeJobCreation(state *conversation.State, result *classifier.Result) (*Decision, error) {
	reset := state.HasPosting() && differsMaterially(state.RoleInfo, result.RoleInfo)
	if reset {
		r.logger.Info("new job requested, resetting posting state",
			"old_role", deref(state.RoleInfo.JobRole),
			"new_role", deref(result.RoleInfo.JobRole),
			"old_company", deref(state.RoleInfo.CompanyName),
			"new_company", deref(result.RoleInfo.CompanyName))

		state.RoleInfo = conversation.Merge(state.RoleInfo, result.RoleInfo, true)
		state.JobPosting = nil
		state.Feedback = nil
		state.AnswerMessage = nil
	} else {
		state.RoleInfo = conversation.Merge(state.RoleInfo, result.RoleInfo, false)
	}

	if missing := state.RoleInfo.Missing(); len(missing) > 0 {
		return nil, &SlotContractViolation{
			Intent:  classifier.IntentJobCreation,
			Missing: missing,
		}
	}

	return &Decision{
		Kind:        KindJobCreation,
		JobCreation: &JobCreationDispatch{RoleInfo: state.RoleInfo, Reset: reset},
	}, nil
}

func (r *Router) routeRefinement(state *conversation.State, result *classifier.Result) (*Decision, error) {
	if !state.HasPosting() {
		return nil, &SlotContractViolation{
			Intent: classifier.IntentRefinement,
			Reason: "no job posting exists",
		}
	}
	if result.Feedback == nil || *result.Feedback == "" {
		return nil, &SlotContractViolation{
			Intent: classifier.IntentRefinement,
			Reason: "feedback is empty",
		}
	}

	state.RoleInfo = conversation.Merge(state.RoleInfo, result.RoleInfo, false)
	state.Feedback = result.Feedback

	return &Decision{
		Kind:       KindRefinement,
		Refinement: &RefinementDispatch{Posting: *state.JobPosting, Feedback: *result.Feedback},
	}, nil
}

// differsMaterially reports whether the classified role info names a
// different job or company than the stored one. Comparison is exact after
// trimming and case-folding; nil incoming fields never count as different,
// since the classifier omits fields it didn't see this turn.
func differsMaterially(stored, incoming conversation.RoleInfo) bool {
	if fieldDiffers(stored.JobRole, incoming.JobRole) {
		return true
	}
	return fieldDiffers(stored.CompanyName, incoming.CompanyName)
}

func fieldDiffers(stored, incoming *string) bool {
	if stored == nil || incoming == nil {
		return false
	}
	return normalize(*stored) != normalize(*incoming)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
