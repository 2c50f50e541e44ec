// Package crew writes and refines job postings with a small team of LLM
// personas.
//
// # Agents and Tasks
//
// Prompts live in prompts.yaml (embedded, overridable via config) and define
// four agents, each bound to one task:
//
//   - job_market_research: salary bands, demand, and competing postings
//   - ai_skills_research: AI-era skills relevant to the role
//   - job_posting_writer: drafts the posting from both research results
//   - posting_editor: applies user feedback to an existing posting
//
// GeneratePosting runs the two research tasks and feeds their output to the
// writer. RefinePosting runs only the editor, which is instructed to change
// nothing beyond what the feedback asks for.
//
// Task descriptions interpolate {name} placeholders from the collected role
// details, so prompt files can be edited without code changes.
package crew
