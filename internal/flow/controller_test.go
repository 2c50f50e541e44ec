// ABOUTME: End-to-end turn tests for the flow controller
// ABOUTME: Drives SubmitTurn with mock classifier/generator/refiner over a real store

package flow

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/hireflow/internal/classifier"
	"github.com/2389/hireflow/internal/conversation"
	"github.com/2389/hireflow/internal/pipeline"
	"github.com/2389/hireflow/internal/router"
	"github.com/2389/hireflow/internal/store"
)

// mockClassifier returns a scripted result per call
type mockClassifier struct {
	results []*classifier.Result
	err     error
	calls   int
}

func (m *mockClassifier) Classify(ctx context.Context, state *conversation.State) (*classifier.Result, error) {
	if m.err != nil {
		return nil, m.err
	}
	result := m.results[m.calls%len(m.results)]
	m.calls++
	return result, nil
}

// mockGenerator implements pipeline.Generator
type mockGenerator struct {
	posting  string
	err      error
	lastInfo conversation.RoleInfo
	calls    int
}

func (m *mockGenerator) GeneratePosting(ctx context.Context, info conversation.RoleInfo) (string, error) {
	m.calls++
	m.lastInfo = info
	return m.posting, m.err
}

// mockRefiner implements pipeline.Refiner
type mockRefiner struct {
	revised      string
	err          error
	lastPosting  string
	lastFeedback string
}

func (m *mockRefiner) RefinePosting(ctx context.Context, posting, feedback string) (string, error) {
	m.lastPosting = posting
	m.lastFeedback = feedback
	return m.revised, m.err
}

func createTestStore(t *testing.T) *store.SQLiteStore {
	tmpDir := t.TempDir()
	s, err := store.NewSQLiteStore(filepath.Join(tmpDir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newController(t *testing.T, s *store.SQLiteStore, cls Classifier, gen pipeline.Generator, ref pipeline.Refiner) *Controller {
	t.Helper()
	return New(s, cls, router.New(nil), pipeline.New(gen, ref, nil), nil)
}

// seedSession commits an initial state for a session id.
func seedSession(t *testing.T, s *store.SQLiteStore, sessionID string, state *conversation.State) {
	t.Helper()
	encoded, err := state.Encode()
	require.NoError(t, err)
	require.NoError(t, s.CommitTurn(context.Background(), sessionID, encoded, nil))
}

func TestSubmitTurn_FirstContactConversation(t *testing.T) {
	s := createTestStore(t)
	answer := "Hi! I help create job postings. What role, location, and company?"
	cls := &mockClassifier{results: []*classifier.Result{{
		Intent:        classifier.IntentConversation,
		AnswerMessage: conversation.String(answer),
		Reasoning:     "all slots missing",
	}}}
	ctrl := newController(t, s, cls, &mockGenerator{}, &mockRefiner{})

	reply, err := ctrl.SubmitTurn(context.Background(), "sess-1", "Hi")
	require.NoError(t, err)
	assert.Equal(t, answer, reply)

	// Posting stays null; both turn messages are persisted
	posting, err := ctrl.Posting(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Empty(t, posting)

	history, err := ctrl.History(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, conversation.RoleUser, history[0].Role)
	assert.Equal(t, "Hi", history[0].Content)
	assert.Equal(t, conversation.RoleAssistant, history[1].Role)
	assert.Equal(t, answer, history[1].Content)
}

func TestSubmitTurn_JobCreationStoresPosting(t *testing.T) {
	s := createTestStore(t)

	seed := conversation.NewState()
	seed.RoleInfo = conversation.RoleInfo{
		JobRole:     conversation.String("Data Engineer"),
		Location:    conversation.String("NYC"),
		CompanyName: conversation.String("J&J"),
	}
	seedSession(t, s, "sess-1", seed)

	cls := &mockClassifier{results: []*classifier.Result{{
		Intent: classifier.IntentJobCreation,
		RoleInfo: conversation.RoleInfo{
			JobRole:     conversation.String("Data Engineer"),
			Location:    conversation.String("NYC"),
			CompanyName: conversation.String("J&J"),
		},
	}}}
	gen := &mockGenerator{posting: "# Data Engineer at J&J"}
	ctrl := newController(t, s, cls, gen, &mockRefiner{})

	reply, err := ctrl.SubmitTurn(context.Background(), "sess-1", "generate it")
	require.NoError(t, err)
	assert.Equal(t, "# Data Engineer at J&J", reply)

	// Generator was invoked with the three slot values
	assert.Equal(t, "Data Engineer", *gen.lastInfo.JobRole)
	assert.Equal(t, "NYC", *gen.lastInfo.Location)
	assert.Equal(t, "J&J", *gen.lastInfo.CompanyName)

	posting, err := ctrl.Posting(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "# Data Engineer at J&J", posting)
}

func TestSubmitTurn_RefinementReplacesPosting(t *testing.T) {
	s := createTestStore(t)

	seed := conversation.NewState()
	seed.JobPosting = conversation.String("# Posting with benefits")
	seedSession(t, s, "sess-1", seed)

	cls := &mockClassifier{results: []*classifier.Result{{
		Intent:   classifier.IntentRefinement,
		Feedback: conversation.String("remove benefits section"),
	}}}
	ref := &mockRefiner{revised: "# Posting without benefits"}
	ctrl := newController(t, s, cls, &mockGenerator{}, ref)

	reply, err := ctrl.SubmitTurn(context.Background(), "sess-1", "remove the benefits section")
	require.NoError(t, err)
	assert.Equal(t, "# Posting without benefits", reply)

	assert.Equal(t, "# Posting with benefits", ref.lastPosting)
	assert.Equal(t, "remove benefits section", ref.lastFeedback)

	posting, err := ctrl.Posting(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "# Posting without benefits", posting)
}

func TestSubmitTurn_NewJobResetsOldPosting(t *testing.T) {
	s := createTestStore(t)

	seed := conversation.NewState()
	seed.RoleInfo = conversation.RoleInfo{
		JobRole:     conversation.String("Data Engineer"),
		Location:    conversation.String("NYC"),
		CompanyName: conversation.String("J&J"),
	}
	seed.JobPosting = conversation.String("# Data Engineer at J&J")
	seedSession(t, s, "sess-1", seed)

	cls := &mockClassifier{results: []*classifier.Result{{
		Intent: classifier.IntentJobCreation,
		RoleInfo: conversation.RoleInfo{
			JobRole:     conversation.String("Product Manager"),
			Location:    conversation.String("Mountain View"),
			CompanyName: conversation.String("Google"),
		},
	}}}
	gen := &mockGenerator{posting: "# Product Manager at Google"}
	ctrl := newController(t, s, cls, gen, &mockRefiner{})

	reply, err := ctrl.SubmitTurn(context.Background(), "sess-1", "actually make one for Product Manager at Google")
	require.NoError(t, err)
	assert.Equal(t, "# Product Manager at Google", reply)

	posting, err := ctrl.Posting(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "# Product Manager at Google", posting)

	// Slots were replaced wholesale
	history, err := ctrl.History(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.NotEmpty(t, history)
}

func TestSubmitTurn_GenerationFailureLeavesStateUntouched(t *testing.T) {
	s := createTestStore(t)

	seed := conversation.NewState()
	seed.RoleInfo = conversation.RoleInfo{
		JobRole:     conversation.String("Data Engineer"),
		Location:    conversation.String("NYC"),
		CompanyName: conversation.String("J&J"),
	}
	seedSession(t, s, "sess-1", seed)

	before, err := s.GetSession(context.Background(), "sess-1")
	require.NoError(t, err)

	cls := &mockClassifier{results: []*classifier.Result{{
		Intent:   classifier.IntentJobCreation,
		RoleInfo: seed.RoleInfo,
	}}}
	gen := &mockGenerator{err: errors.New("generator down")}
	ctrl := newController(t, s, cls, gen, &mockRefiner{})

	_, err = ctrl.SubmitTurn(context.Background(), "sess-1", "generate it")
	var genErr *pipeline.GenerationError
	require.ErrorAs(t, err, &genErr)

	after, err := s.GetSession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, before.State, after.State, "persisted state must be byte-equal after a failed turn")

	msgs, err := s.ListMessages(context.Background(), "sess-1", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs, "no messages from the failed turn may leak into the ledger")
}

func TestSubmitTurn_ClassificationFailurePropagates(t *testing.T) {
	s := createTestStore(t)
	cls := &mockClassifier{err: &classifier.ClassificationError{Reason: "unreachable"}}
	ctrl := newController(t, s, cls, &mockGenerator{}, &mockRefiner{})

	_, err := ctrl.SubmitTurn(context.Background(), "sess-1", "Hi")
	var cerr *classifier.ClassificationError
	require.ErrorAs(t, err, &cerr)

	_, err = s.GetSession(context.Background(), "sess-1")
	assert.ErrorIs(t, err, store.ErrNotFound, "failed first turn must not create the session")
}

func TestSubmitTurn_SlotViolationNeverDispatches(t *testing.T) {
	s := createTestStore(t)

	cls := &mockClassifier{results: []*classifier.Result{{
		Intent:   classifier.IntentJobCreation,
		RoleInfo: conversation.RoleInfo{JobRole: conversation.String("Data Engineer")},
	}}}
	gen := &mockGenerator{posting: "# should never be generated"}
	ctrl := newController(t, s, cls, gen, &mockRefiner{})

	_, err := ctrl.SubmitTurn(context.Background(), "sess-1", "make the posting")
	var violation *router.SlotContractViolation
	require.ErrorAs(t, err, &violation)
	assert.Zero(t, gen.calls, "generator must not run on incomplete slots")
}

func TestSubmitTurn_SlotsAccumulateAcrossTurns(t *testing.T) {
	s := createTestStore(t)

	cls := &mockClassifier{results: []*classifier.Result{
		{
			Intent:        classifier.IntentConversation,
			RoleInfo:      conversation.RoleInfo{JobRole: conversation.String("Data Engineer")},
			AnswerMessage: conversation.String("Where is the role located?"),
		},
		{
			Intent:        classifier.IntentConversation,
			RoleInfo:      conversation.RoleInfo{Location: conversation.String("NYC")},
			AnswerMessage: conversation.String("And the company?"),
		},
	}}
	ctrl := newController(t, s, cls, &mockGenerator{}, &mockRefiner{})

	_, err := ctrl.SubmitTurn(context.Background(), "sess-1", "I need a data engineer")
	require.NoError(t, err)
	_, err = ctrl.SubmitTurn(context.Background(), "sess-1", "in NYC")
	require.NoError(t, err)

	session, err := s.GetSession(context.Background(), "sess-1")
	require.NoError(t, err)
	state, err := conversation.DecodeState(session.State)
	require.NoError(t, err)

	require.NotNil(t, state.RoleInfo.JobRole, "slot from turn one must survive turn two")
	assert.Equal(t, "Data Engineer", *state.RoleInfo.JobRole)
	require.NotNil(t, state.RoleInfo.Location)
	assert.Equal(t, "NYC", *state.RoleInfo.Location)
	assert.Len(t, state.MessageHistory, 4)
}
