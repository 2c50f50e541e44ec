// Package pipeline executes the router's decision against the generation
// backends and records the assistant's reply in the conversation state.
package pipeline
