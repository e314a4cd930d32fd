// Package agent implements the plan/execute loop: the Planner asks the LLM
// for the next steps, the Executor turns them into workspace mutations, and
// the Session drives both for a fixed number of iterations.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/llmpc/llmpc/pkg/llm"
	"github.com/llmpc/llmpc/pkg/prompts"
)

// ErrNoPlan indicates the planner response carried no parsable PLAN section.
// A missing marker and a marker with zero numbered steps are treated the
// same: both leave the loop without a plan to execute.
var ErrNoPlan = errors.New("no plan found in response")

const planMarker = "PLAN:"

// Planner requests and parses numbered plans.
type Planner struct {
	client llm.Client
}

// NewPlanner returns a planner backed by the given chat client.
func NewPlanner(client llm.Client) *Planner {
	return &Planner{client: client}
}

// Plan asks for the next k steps toward the goal and returns them in order.
// The prompt embeds the goal, the action history and the workspace context
// carried by data.
func (p *Planner) Plan(ctx context.Context, data prompts.PromptData, k int) ([]string, error) {
	messages := []prompts.Message{
		{Role: "system", Content: prompts.SystemPrompt(data)},
		{Role: "user", Content: prompts.PlannerInstruction(k)},
	}

	response, err := p.client.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("planning request failed: %w", err)
	}

	steps := ParsePlan(response)
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w (response was %d chars)", ErrNoPlan, len(response))
	}
	return steps, nil
}

// ParsePlan extracts the ordered steps following the PLAN: marker. A step
// line starts with a digit sequence followed by a period; the trimmed text
// after the first period is the step. Returns nil when the marker is absent.
func ParsePlan(response string) []string {
	_, planSection, found := strings.Cut(response, planMarker)
	if !found {
		return nil
	}

	var steps []string
	for _, line := range strings.Split(planSection, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || !unicode.IsDigit(rune(trimmed[0])) {
			continue
		}
		_, step, found := strings.Cut(trimmed, ".")
		if !found {
			continue
		}
		step = strings.TrimSpace(step)
		if step != "" {
			steps = append(steps, step)
		}
	}
	return steps
}
