// ABOUTME: Flow controller orchestrating one full turn: load, classify, route, dispatch, commit
// ABOUTME: Turns are all-or-nothing; a failed turn never changes persisted state

package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/2389/hireflow/internal/classifier"
	"github.com/2389/hireflow/internal/conversation"
	"github.com/2389/hireflow/internal/pipeline"
	"github.com/2389/hireflow/internal/router"
	"github.com/2389/hireflow/internal/store"
)

// Classifier is the slice of the classifier the controller needs.
type Classifier interface {
	Classify(ctx context.Context, state *conversation.State) (*classifier.Result, error)
}

// SessionStore defines what the controller needs from storage.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (*store.Session, error)
	CommitTurn(ctx context.Context, sessionID string, state []byte, messages []*store.MessageRecord) error
}

// Controller is the single entry point for submitting turns. It serializes
// turns per session so concurrent transports fronting the same session
// cannot interleave state mutations.
type Controller struct {
	store      SessionStore
	classifier Classifier
	router     *router.Router
	dispatcher *pipeline.Dispatcher
	logger     *slog.Logger

	mu       sync.Mutex
	sessions map[string]*sync.Mutex
}

// New creates a Controller.
func New(sessions SessionStore, cls Classifier, rtr *router.Router, dsp *pipeline.Dispatcher, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		store:      sessions,
		classifier: cls,
		router:     rtr,
		dispatcher: dsp,
		logger:     logger.With("component", "flow"),
		sessions:   make(map[string]*sync.Mutex),
	}
}

// SubmitTurn handles one user message for the given session and returns the
// assistant reply. The steps run strictly in order: classification must
// complete before dispatch, and dispatch before persistence. Any error
// leaves the persisted state exactly as it was before the turn, so callers
// may retry safely.
func (c *Controller) SubmitTurn(ctx context.Context, sessionID, userMessage string) (string, error) {
	unlock := c.lockSession(sessionID)
	defer unlock()

	state, err := c.loadState(ctx, sessionID)
	if err != nil {
		return "", err
	}

	// All mutations happen on a clone; the clone is committed only after
	// the pipeline succeeds.
	work := state.Clone()
	priorMessages := len(work.MessageHistory)

	work.UserMessage = userMessage
	work.Append(conversation.RoleUser, userMessage)

	result, err := c.classifier.Classify(ctx, work)
	if err != nil {
		c.logger.Error("turn failed during classification", "session_id", sessionID, "error", err)
		return "", err
	}

	decision, err := c.router.Route(work, result)
	if err != nil {
		c.logger.Error("turn failed during routing",
			"session_id", sessionID,
			"intent", result.Intent,
			"error", err)
		return "", err
	}

	reply, err := c.dispatcher.Dispatch(ctx, work, decision)
	if err != nil {
		c.logger.Error("turn failed during dispatch",
			"session_id", sessionID,
			"kind", decision.Kind,
			"error", err)
		return "", err
	}

	if err := c.commit(ctx, sessionID, work, priorMessages); err != nil {
		c.logger.Error("turn failed during commit", "session_id", sessionID, "error", err)
		return "", err
	}

	c.logger.Info("turn completed",
		"session_id", sessionID,
		"intent", result.Intent,
		"kind", decision.Kind)
	return reply, nil
}

// History returns the session's message history from the persisted state.
func (c *Controller) History(ctx context.Context, sessionID string) ([]conversation.Message, error) {
	state, err := c.loadState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return state.MessageHistory, nil
}

// Posting returns the session's current job posting, or "" when none exists.
func (c *Controller) Posting(ctx context.Context, sessionID string) (string, error) {
	state, err := c.loadState(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if state.JobPosting == nil {
		return "", nil
	}
	return *state.JobPosting, nil
}

// loadState fetches and decodes session state, returning a fresh state for
// unknown sessions.
func (c *Controller) loadState(ctx context.Context, sessionID string) (*conversation.State, error) {
	session, err := c.store.GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return conversation.NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return conversation.DecodeState(session.State)
}

// commit persists the worked state and the messages appended this turn.
func (c *Controller) commit(ctx context.Context, sessionID string, work *conversation.State, priorMessages int) error {
	encoded, err := work.Encode()
	if err != nil {
		return err
	}

	var records []*store.MessageRecord
	for _, msg := range work.MessageHistory[priorMessages:] {
		records = append(records, &store.MessageRecord{
			ID:        msg.ID,
			SessionID: sessionID,
			Role:      string(msg.Role),
			Content:   msg.Content,
			CreatedAt: msg.Timestamp,
		})
	}

	return c.store.CommitTurn(ctx, sessionID, encoded, records)
}

// lockSession acquires the per-session mutex, creating it on first use.
func (c *Controller) lockSession(sessionID string) func() {
	c.mu.Lock()
	lock, ok := c.sessions[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		c.sessions[sessionID] = lock
	}
	c.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
