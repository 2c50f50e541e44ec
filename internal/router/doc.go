// Package router turns a classified intent into a dispatch decision.
//
// # Decisions
//
// Route inspects the classifier's result together with the accumulated
// conversation state and produces exactly one of three decisions:
//
//   - Conversation: reply with the classifier's answer message, merging any
//     newly captured role details without discarding earlier ones.
//   - JobCreation: generate a posting. Requires all three role slots
//     (job role, location, company name); anything missing is a contract
//     violation, not a user-facing condition.
//   - Refinement: edit the existing posting using the user's feedback.
//
// # New Job Detection
//
// When a posting already exists and a job creation intent arrives naming a
// materially different role or company, the router treats it as the start of
// a new job: collected slots are replaced wholesale and the old posting and
// feedback are cleared. Comparison is an exact match after trimming and
// case-folding, on job role and company name only. Location changes alone
// never trigger a reset, and slots the classifier did not capture are never
// evidence of a different job.
//
// # Contract
//
// Route never calls the LLM and never mutates state on error. A
// SlotContractViolation means the classifier routed in violation of its own
// instructions; callers should fail the turn rather than guess.
package router
