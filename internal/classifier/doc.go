// Package classifier resolves the intent of each user message.
//
// One JSON-mode LLM call per turn both picks the intent (job_creation,
// conversation, or refinement) and extracts any role details the message
// contains. The response is validated strictly: a missing or unknown intent
// is a ClassificationError, never a silent default, because a wrong guess
// here would run the wrong pipeline.
package classifier
