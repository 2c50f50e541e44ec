// Package httpapi exposes the conversation flow over HTTP.
//
// # Endpoints
//
//   - POST /api/turn: submit a user message; omitting session_id starts a
//     new session
//   - GET /api/sessions/{id}/history: the session's message ledger
//   - GET /api/sessions/{id}/posting: the current posting as markdown, or
//     rendered HTML with ?format=html
//
// All endpoints require a bearer token when a verifier is configured.
// Failed turns return a generic retry message; the precise failure is only
// logged.
package httpapi
