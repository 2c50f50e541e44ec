// ABOUTME: Store interface and data types for hireflow persistence
// ABOUTME: Defines Session, MessageRecord and the Store interface for database operations

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Session carries the serialized conversation state for one session id.
// The state blob is opaque to the store; encoding is owned by the
// conversation package.
type Session struct {
	ID        string
	State     []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MessageRecord is one row of the append-only message ledger. The ledger
// mirrors the in-state history so transports can query conversation history
// without decoding state blobs.
type MessageRecord struct {
	ID        string
	SessionID string
	Role      string
	Content   string
	CreatedAt time.Time
}

// Store defines the interface for session and message persistence
type Store interface {
	// GetSession returns the session for the given id, or ErrNotFound.
	GetSession(ctx context.Context, id string) (*Session, error)

	// CommitTurn atomically saves the session state and appends the turn's
	// messages to the ledger. Either everything is written or nothing is,
	// so a failed turn leaves the persisted state untouched.
	CommitTurn(ctx context.Context, sessionID string, state []byte, messages []*MessageRecord) error

	// ListMessages returns up to limit ledger messages for a session,
	// oldest first. limit <= 0 means no limit.
	ListMessages(ctx context.Context, sessionID string, limit int) ([]*MessageRecord, error)

	// ListSessions returns recent sessions, most recently updated first.
	ListSessions(ctx context.Context, limit int) ([]*Session, error)

	// Close releases the underlying database handle.
	Close() error
}
