// Package llm wraps the OpenAI chat completions API with per-call timeouts,
// rate-limit retries with exponential backoff, and optional JSON-mode
// responses.
package llm
