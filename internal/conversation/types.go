// ABOUTME: Core conversation data types: Message, RoleInfo, and State
// ABOUTME: State is the persisted per-session value that every turn loads and commits

package conversation

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a session's history.
// Messages are immutable once appended.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// RoleInfo holds the three slots collected across turns.
// A nil field means the value has not been collected yet.
type RoleInfo struct {
	JobRole     *string `json:"job_role"`
	Location    *string `json:"location"`
	CompanyName *string `json:"company_name"`
}

// Complete reports whether all three slots are populated.
func (r RoleInfo) Complete() bool {
	return r.JobRole != nil && r.Location != nil && r.CompanyName != nil
}

// Missing returns the names of slots that are still nil.
func (r RoleInfo) Missing() []string {
	var missing []string
	if r.JobRole == nil {
		missing = append(missing, "job_role")
	}
	if r.Location == nil {
		missing = append(missing, "location")
	}
	if r.CompanyName == nil {
		missing = append(missing, "company_name")
	}
	return missing
}

// Merge combines newly classified slot values into the existing ones.
//
// With reset false, a non-nil incoming field wins and a nil incoming field
// keeps the existing value, so a known slot is never downgraded to unknown.
// With reset true the incoming value replaces the existing one wholesale;
// this is the path taken when the user asks for a brand-new posting.
func Merge(existing, incoming RoleInfo, reset bool) RoleInfo {
	if reset {
		return incoming
	}
	merged := existing
	if incoming.JobRole != nil {
		merged.JobRole = incoming.JobRole
	}
	if incoming.Location != nil {
		merged.Location = incoming.Location
	}
	if incoming.CompanyName != nil {
		merged.CompanyName = incoming.CompanyName
	}
	return merged
}

// State is the durable conversation state for one session.
// It is loaded at the start of a turn and committed at the end; a failed
// turn never mutates the persisted copy.
type State struct {
	UserMessage    string    `json:"user_message"`
	MessageHistory []Message `json:"message_history"`
	RoleInfo       RoleInfo  `json:"role_info"`
	JobPosting     *string   `json:"job_posting"`
	Feedback       *string   `json:"feedback"`
	AnswerMessage  *string   `json:"answer_message"`
}

// NewState returns an empty conversation state.
func NewState() *State {
	return &State{}
}

// Append adds a message to the history and returns the created record.
func (s *State) Append(role Role, content string) Message {
	msg := Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	s.MessageHistory = append(s.MessageHistory, msg)
	return msg
}

// HistoryWindow returns the most recent n messages, oldest first.
// n <= 0 returns the full history.
func (s *State) HistoryWindow(n int) []Message {
	if n <= 0 || n >= len(s.MessageHistory) {
		return s.MessageHistory
	}
	return s.MessageHistory[len(s.MessageHistory)-n:]
}

// HasPosting reports whether a job posting has been generated for this session.
func (s *State) HasPosting() bool {
	return s.JobPosting != nil
}

// Clone returns a deep copy of the state. Turns operate on a clone so that
// any failure leaves the loaded state untouched.
func (s *State) Clone() *State {
	c := &State{
		UserMessage: s.UserMessage,
		RoleInfo:    s.RoleInfo,
	}
	if len(s.MessageHistory) > 0 {
		c.MessageHistory = make([]Message, len(s.MessageHistory))
		copy(c.MessageHistory, s.MessageHistory)
	}
	c.JobPosting = cloneString(s.JobPosting)
	c.Feedback = cloneString(s.Feedback)
	c.AnswerMessage = cloneString(s.AnswerMessage)
	return c
}

// Encode serializes the state for storage.
func (s *State) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding state: %w", err)
	}
	return data, nil
}

// DecodeState deserializes a stored state blob.
func DecodeState(data []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding state: %w", err)
	}
	return &s, nil
}

// String returns a pointer to the given string. Convenience for building
// RoleInfo values and test fixtures.
func String(s string) *string {
	return &s
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
