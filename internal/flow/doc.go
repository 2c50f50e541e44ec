// Package flow orchestrates a complete conversation turn.
//
// # Turn Lifecycle
//
// SubmitTurn runs the fixed sequence for one user message:
//
//  1. Load the session's state (new sessions start empty).
//  2. Record the user message.
//  3. Classify the intent.
//  4. Route to a dispatch decision.
//  5. Dispatch the matching pipeline.
//  6. Persist state and new messages in a single transaction.
//
// Each step consumes the previous step's output, so classification always
// completes before any pipeline runs and nothing is persisted until the
// whole turn has succeeded.
//
// # Atomicity
//
// All work happens on a deep copy of the loaded state. If any step fails,
// the copy is discarded and the persisted session is untouched, so a failed
// turn can simply be retried. Turns for the same session are serialized;
// different sessions proceed concurrently.
package flow
