// ABOUTME: Routing prompt assembly for the intent classifier
// ABOUTME: Encodes the slot-filling rules and the three-way intent policy

package classifier

import (
	"fmt"
	"strings"

	"github.com/2389/hireflow/internal/conversation"
)

// notCollected is the label shown to the model for a slot that has no value
// yet. Labeling it explicitly stops the model from treating a nil slot as a
// required-but-missing field and hallucinating a value for it.
const notCollected = "Not yet collected"

// slotLine formats one collected-slot line for the prompt.
func slotLine(label string, value *string) string {
	if value == nil || *value == "" {
		return fmt.Sprintf("- %s: %s\n", label, notCollected)
	}
	return fmt.Sprintf("- %s: %s\n", label, *value)
}

// BuildPrompt assembles the classification prompt from the current state and
// a history window. The window is passed separately so callers control how
// much history the model sees.
func BuildPrompt(state *conversation.State, history []conversation.Message) string {
	var sb strings.Builder

	sb.WriteString("=== TASK ===\n")
	sb.WriteString("You are an intelligent router for an HR job creation assistant. Analyze the\n")
	sb.WriteString("user's message and conversation history to extract job creation details and\n")
	sb.WriteString("determine intent.\n\n")

	sb.WriteString("=== INSTRUCTIONS ===\n")
	sb.WriteString("Extract any of these fields mentioned in the current message or history:\n")
	sb.WriteString("- job_role: the job title being created (e.g. \"Software Engineer\")\n")
	sb.WriteString("- location: the job location (e.g. \"New York\", \"Remote\")\n")
	sb.WriteString("- company_name: the company the job is for (e.g. \"Acme Corp\")\n\n")

	sb.WriteString("ALREADY COLLECTED VALUES (preserve these, do NOT set them to null):\n")
	sb.WriteString(slotLine("job_role", state.RoleInfo.JobRole))
	sb.WriteString(slotLine("location", state.RoleInfo.Location))
	sb.WriteString(slotLine("company_name", state.RoleInfo.CompanyName))
	sb.WriteString("\n")

	sb.WriteString("EXISTING JOB POSTING: ")
	if state.HasPosting() {
		sb.WriteString("Yes - a posting has already been generated\n\n")
	} else {
		sb.WriteString("No posting yet\n\n")
	}

	sb.WriteString("ROUTING RULES:\n")
	sb.WriteString("- Return \"refinement\" if a job posting ALREADY EXISTS and the user is giving\n")
	sb.WriteString("  feedback, requesting changes, or asking for improvements to it. Also set\n")
	sb.WriteString("  \"feedback\" to a concise summary of what the user wants changed.\n")
	sb.WriteString("- Return \"job_creation\" if ALL THREE fields are populated AND no posting\n")
	sb.WriteString("  exists yet. Also return \"job_creation\" if the user wants a completely NEW\n")
	sb.WriteString("  posting for a different role or company, even if a posting exists.\n")
	sb.WriteString("- Return \"conversation\" if any field is still missing and no posting exists.\n\n")

	sb.WriteString("=== CONVERSATION REPLY (only when intent is \"conversation\") ===\n")
	sb.WriteString("When the intent is \"conversation\", you MUST also write a friendly reply in\n")
	sb.WriteString("\"answer_message\" that:\n")
	sb.WriteString("1. Responds naturally to the user's message\n")
	sb.WriteString("2. Acknowledges the already collected values above\n")
	sb.WriteString("3. Asks for any fields still marked \"" + notCollected + "\"\n")
	sb.WriteString("4. Introduces yourself and explains that you help create job postings if the\n")
	sb.WriteString("   user hasn't mentioned job creation yet\n")
	sb.WriteString("For \"job_creation\" or \"refinement\" intents, set \"answer_message\" to null.\n\n")

	sb.WriteString("=== INPUT DATA ===\n")
	sb.WriteString("Current User Message:\n")
	sb.WriteString(state.UserMessage)
	sb.WriteString("\n\n")

	sb.WriteString("Conversation History:\n")
	if len(history) == 0 {
		sb.WriteString("(no prior messages)\n")
	}
	for _, msg := range history {
		sb.WriteString(fmt.Sprintf("%s: %s\n", msg.Role, msg.Content))
	}
	sb.WriteString("\n")

	sb.WriteString("=== OUTPUT REQUIREMENTS ===\n")
	sb.WriteString("Respond with a JSON object containing exactly these keys:\n")
	sb.WriteString("1. \"user_intent\": \"job_creation\", \"conversation\", or \"refinement\"\n")
	sb.WriteString("2. \"role_info\": object with \"job_role\", \"location\", \"company_name\"\n")
	sb.WriteString("   (use the already collected values for fields not mentioned this turn)\n")
	sb.WriteString("3. \"feedback\": change summary when intent is \"refinement\", otherwise null\n")
	sb.WriteString("4. \"answer_message\": reply when intent is \"conversation\", otherwise null\n")
	sb.WriteString("5. \"reasoning\": brief explanation of your decision\n")

	return sb.String()
}
