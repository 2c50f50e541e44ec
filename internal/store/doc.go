// Package store provides persistence for hireflow sessions and messages.
//
// # Overview
//
// Two tables back the conversation layer:
//
//   - sessions: one row per session id holding the serialized conversation
//     state as an opaque blob. Loaded at the start of a turn, written at the
//     end.
//   - messages: an append-only ledger mirroring the conversation history,
//     used by transports for history queries without decoding state blobs.
//
// # Turn Atomicity
//
// CommitTurn writes the state upsert and the turn's message inserts in a
// single transaction. A turn that fails before commit leaves the previously
// persisted state byte-identical, so retrying the turn is safe.
//
// # Implementation
//
// SQLiteStore uses modernc.org/sqlite (pure Go, no cgo) with WAL mode and
// schema creation on open. Timestamps are stored as RFC3339 strings.
package store
