// Package conversation defines the data model shared by every layer of
// hireflow: messages, the three collected slots (job role, location,
// company name), and the durable per-session State.
//
// # Merge Semantics
//
// Slot values accumulate across turns via Merge. A merge never replaces a
// known value with nil; the only way to discard collected slots is an
// explicit reset, which the router performs when the user asks for a
// brand-new posting for a different role or company.
//
// # State Lifecycle
//
// State is an explicitly loaded/saved value keyed by session id. A turn
// loads it, works on a Clone, and commits the clone only after the chosen
// pipeline succeeds. There is no ambient mutable singleton.
package conversation
