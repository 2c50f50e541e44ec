// ABOUTME: Prompt template loading for the posting crew
// ABOUTME: Templates live in a YAML file with CrewAI-style {placeholder} interpolation

package crew

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPromptsYAML []byte

// AgentPrompt describes one agent persona.
type AgentPrompt struct {
	Role      string `yaml:"role"`
	Goal      string `yaml:"goal"`
	Backstory string `yaml:"backstory"`
}

// TaskPrompt describes one task given to an agent.
type TaskPrompt struct {
	Agent          string `yaml:"agent"`
	Description    string `yaml:"description"`
	ExpectedOutput string `yaml:"expected_output"`
}

// PromptSet is the full set of agent personas and task templates the crew
// runs with.
type PromptSet struct {
	Agents map[string]AgentPrompt `yaml:"agents"`
	Tasks  map[string]TaskPrompt  `yaml:"tasks"`
}

// Task names the crew depends on.
const (
	TaskMarketResearch   = "job_market_research"
	TaskAISkillsResearch = "ai_skills_research"
	TaskPostingWriter    = "job_posting_writer"
	TaskPostingEditor    = "posting_editor"
)

// DefaultPrompts returns the embedded prompt set.
func DefaultPrompts() (*PromptSet, error) {
	return parsePrompts(defaultPromptsYAML)
}

// LoadPrompts reads a prompt set from a YAML file, for operators who want to
// tune the templates without rebuilding.
func LoadPrompts(path string) (*PromptSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompts file: %w", err)
	}
	return parsePrompts(data)
}

func parsePrompts(data []byte) (*PromptSet, error) {
	var set PromptSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parsing prompts: %w", err)
	}
	if err := set.validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

// validate checks that every task the crew runs exists and names a known agent.
func (p *PromptSet) validate() error {
	required := []string{TaskMarketResearch, TaskAISkillsResearch, TaskPostingWriter, TaskPostingEditor}
	for _, name := range required {
		task, ok := p.Tasks[name]
		if !ok {
			return fmt.Errorf("prompts missing task %q", name)
		}
		if task.Description == "" {
			return fmt.Errorf("task %q has no description", name)
		}
		if _, ok := p.Agents[task.Agent]; !ok {
			return fmt.Errorf("task %q names unknown agent %q", name, task.Agent)
		}
	}
	return nil
}

// TaskPromptFor renders the complete prompt for a task: the agent persona
// preamble, the task description with placeholders substituted, and the
// expected output contract.
func (p *PromptSet) TaskPromptFor(taskName string, vars map[string]string) (string, error) {
	task, ok := p.Tasks[taskName]
	if !ok {
		return "", fmt.Errorf("unknown task %q", taskName)
	}
	agent := p.Agents[task.Agent]

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("You are %s. %s\n", agent.Role, agent.Backstory))
	sb.WriteString(fmt.Sprintf("Your goal: %s\n\n", agent.Goal))
	sb.WriteString(interpolate(task.Description, vars))
	if task.ExpectedOutput != "" {
		sb.WriteString("\n\nExpected output:\n")
		sb.WriteString(interpolate(task.ExpectedOutput, vars))
	}
	return sb.String(), nil
}

// interpolate substitutes {name} placeholders with their values.
func interpolate(template string, vars map[string]string) string {
	out := template
	for name, value := range vars {
		out = strings.ReplaceAll(out, "{"+name+"}", value)
	}
	return out
}
