// ABOUTME: Tests for the intent classifier adapter
// ABOUTME: Verifies prompt labeling, schema validation, and error propagation

package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/hireflow/internal/conversation"
	"github.com/2389/hireflow/internal/llm"
)

// mockCompleter implements Completer for testing
type mockCompleter struct {
	response string
	err      error
	lastReq  llm.Request
}

func (m *mockCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	m.lastReq = req
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func TestClassify_ValidConversationResult(t *testing.T) {
	mock := &mockCompleter{
		response: `{
			"user_intent": "conversation",
			"role_info": {"job_role": "Data Engineer", "location": null, "company_name": null},
			"feedback": null,
			"answer_message": "Great, a Data Engineer role! Where will it be located?",
			"reasoning": "location and company are still missing"
		}`,
	}
	c := New(mock)

	state := conversation.NewState()
	state.UserMessage = "I need a data engineer"

	result, err := c.Classify(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, IntentConversation, result.Intent)
	require.NotNil(t, result.RoleInfo.JobRole)
	assert.Equal(t, "Data Engineer", *result.RoleInfo.JobRole)
	assert.Nil(t, result.RoleInfo.Location)
	require.NotNil(t, result.AnswerMessage)
	assert.Contains(t, *result.AnswerMessage, "located")
}

func TestClassify_RequestsJSONMode(t *testing.T) {
	mock := &mockCompleter{
		response: `{"user_intent": "conversation", "role_info": {}, "answer_message": "hi", "reasoning": "r"}`,
	}
	c := New(mock, WithModel("gpt-5-nano"))

	state := conversation.NewState()
	state.UserMessage = "Hi"

	_, err := c.Classify(context.Background(), state)
	require.NoError(t, err)

	assert.True(t, mock.lastReq.JSON)
	assert.Equal(t, "gpt-5-nano", mock.lastReq.Model)
}

func TestClassify_LLMFailurePropagates(t *testing.T) {
	mock := &mockCompleter{err: errors.New("connection refused")}
	c := New(mock)

	state := conversation.NewState()
	state.UserMessage = "Hi"

	_, err := c.Classify(context.Background(), state)
	require.Error(t, err)

	var cerr *ClassificationError
	require.ErrorAs(t, err, &cerr)
	assert.ErrorContains(t, err, "connection refused")
}

func TestClassify_RejectsInvalidResults(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"malformed json", `{"user_intent": `},
		{"missing intent", `{"role_info": {}, "reasoning": "r"}`},
		{"unknown intent", `{"user_intent": "small_talk", "role_info": {}, "reasoning": "r"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockCompleter{response: tt.response}
			c := New(mock)

			state := conversation.NewState()
			state.UserMessage = "Hi"

			_, err := c.Classify(context.Background(), state)
			var cerr *ClassificationError
			require.ErrorAs(t, err, &cerr, "invalid result must never default to a guessed intent")
		})
	}
}

func TestBuildPrompt_LabelsUncollectedSlots(t *testing.T) {
	state := conversation.NewState()
	state.UserMessage = "Hi"
	state.RoleInfo.JobRole = conversation.String("Data Engineer")

	prompt := BuildPrompt(state, nil)

	assert.Contains(t, prompt, "- job_role: Data Engineer")
	assert.Contains(t, prompt, "- location: Not yet collected")
	assert.Contains(t, prompt, "- company_name: Not yet collected")
	assert.Contains(t, prompt, "No posting yet")
	assert.Contains(t, prompt, "(no prior messages)")
}

func TestBuildPrompt_IncludesPostingFlagAndHistory(t *testing.T) {
	state := conversation.NewState()
	state.UserMessage = "remove the benefits section"
	state.JobPosting = conversation.String("# Posting")
	state.Append(conversation.RoleUser, "make me a posting")
	state.Append(conversation.RoleAssistant, "# Posting")

	prompt := BuildPrompt(state, state.HistoryWindow(0))

	assert.Contains(t, prompt, "a posting has already been generated")
	assert.Contains(t, prompt, "user: make me a posting")
	assert.Contains(t, prompt, "assistant: # Posting")
	assert.Contains(t, prompt, "remove the benefits section")
}

func TestBuildPrompt_HistoryWindowRespected(t *testing.T) {
	state := conversation.NewState()
	state.UserMessage = "latest"
	state.Append(conversation.RoleUser, "ancient message")
	state.Append(conversation.RoleUser, "recent message")

	prompt := BuildPrompt(state, state.HistoryWindow(1))

	assert.NotContains(t, prompt, "ancient message")
	assert.Contains(t, prompt, "recent message")
}
