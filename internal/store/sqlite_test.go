// ABOUTME: Tests for the SQLite store implementation
// ABOUTME: Verifies session round-trips, turn atomicity, and ledger ordering

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *SQLiteStore {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newMessage(role, content string) *MessageRecord {
	return &MessageRecord{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

func TestGetSession_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommitTurn_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	state := []byte(`{"user_message":"Hi"}`)
	msgs := []*MessageRecord{
		newMessage("user", "Hi"),
		newMessage("assistant", "Hello! What role are we hiring for?"),
	}
	require.NoError(t, s.CommitTurn(ctx, "sess-1", state, msgs))

	session, err := s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", session.ID)
	assert.Equal(t, state, session.State)
	assert.False(t, session.UpdatedAt.IsZero())

	stored, err := s.ListMessages(ctx, "sess-1", 0)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "user", stored[0].Role)
	assert.Equal(t, "assistant", stored[1].Role)
}

func TestCommitTurn_UpdatesExistingSession(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CommitTurn(ctx, "sess-1", []byte(`{"v":1}`), nil))
	require.NoError(t, s.CommitTurn(ctx, "sess-1", []byte(`{"v":2}`), []*MessageRecord{
		newMessage("user", "second turn"),
	}))

	session, err := s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":2}`), session.State)

	sessions, err := s.ListSessions(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, sessions, 1, "upsert must not duplicate the session row")
}

func TestCommitTurn_AtomicOnMessageFailure(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CommitTurn(ctx, "sess-1", []byte(`{"v":1}`), nil))

	// Duplicate message id forces the second insert to fail; the whole
	// transaction must roll back, including the state update.
	dup := newMessage("user", "first")
	bad := []*MessageRecord{dup, {ID: dup.ID, Role: "assistant", Content: "second", CreatedAt: time.Now().UTC()}}
	err := s.CommitTurn(ctx, "sess-1", []byte(`{"v":2}`), bad)
	require.Error(t, err)

	session, err := s.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":1}`), session.State, "failed commit must not change persisted state")

	msgs, err := s.ListMessages(ctx, "sess-1", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestListMessages_OrderAndLimit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Minute)
	var msgs []*MessageRecord
	for i, content := range []string{"one", "two", "three"} {
		msgs = append(msgs, &MessageRecord{
			ID:        uuid.New().String(),
			Role:      "user",
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}
	require.NoError(t, s.CommitTurn(ctx, "sess-1", []byte(`{}`), msgs))

	all, err := s.ListMessages(ctx, "sess-1", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "one", all[0].Content)
	assert.Equal(t, "three", all[2].Content)

	limited, err := s.ListMessages(ctx, "sess-1", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestListSessions_MostRecentFirst(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CommitTurn(ctx, "older", []byte(`{}`), nil))
	time.Sleep(1100 * time.Millisecond) // RFC3339 storage has second resolution
	require.NoError(t, s.CommitTurn(ctx, "newer", []byte(`{}`), nil))

	sessions, err := s.ListSessions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "newer", sessions[0].ID)
	assert.Equal(t, "older", sessions[1].ID)
}
