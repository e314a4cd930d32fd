// Package prompts composes the chat messages sent to the LLM. All builders
// are pure functions over an explicit PromptData value; there is no shared
// mutable template state.
package prompts

import (
	"fmt"
	"strings"
)

// Message represents a single message in a chat-like conversation with the LLM.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PromptData carries everything the system prompt interpolates.
type PromptData struct {
	Goal    string
	Actions []string // previously executed step descriptions, oldest first
	Context string   // workspace snapshot
}

// SystemPrompt renders the shared system message embedding goal, action
// history and workspace context.
func SystemPrompt(data PromptData) string {
	var b strings.Builder
	b.WriteString("You are an intelligent software engineering AI assistant.\n")
	b.WriteString("You write clear, concise and modular maintainable code.\n\n")
	b.WriteString("You have been asked to complete the following project:\n")
	b.WriteString(data.Goal)
	b.WriteString("\n\nThe previous actions you took are:\n")
	for _, action := range data.Actions {
		b.WriteString("- " + action + "\n")
	}
	b.WriteString("\nThe relevant project state context is:\n")
	b.WriteString(data.Context)
	b.WriteString("\n")
	return b.String()
}

// PlannerInstruction asks for the next k steps in the numbered PLAN format
// the planner parses.
func PlannerInstruction(k int) string {
	return fmt.Sprintf(`Now plan the next %d steps to achieve the goal.

Your plan should be detailed and include the files you want to create or modify.

Format your output as:

PLAN:
1. <first step>
2. <second step>
...
`, k)
}

// ExecutorToolInstruction asks for tagged-JSON tool calls carrying the four
// file-mutation verbs.
func ExecutorToolInstruction(plan []string) string {
	return fmt.Sprintf(`The next steps for you to execute are:
%s

You have access to the following tools:
- CREATE_FILE(filename): Creates a new empty file
- APPEND_TO_FILE(filename, content): Adds content to the end of a file
- MODIFY_FILE(filename, start_line, end_line, content): Replaces content between start_line and end_line
- REMOVE_FILE(filename): Moves a file to the removed folder

When using tools, wrap the tool call in <tool></tool> tags and format as JSON:
<tool>
{
    "name": "CREATE_FILE",
    "arguments": {
        "filename": "example.txt"
    }
}
</tool>

Now please execute the plan.
`, NumberSteps(plan))
}

// ExecutorBlockInstruction asks for whole-file fenced code blocks, one per
// created or modified file.
func ExecutorBlockInstruction(plan []string) string {
	return fmt.Sprintf("The next steps for you to execute are:\n%s\n\n", NumberSteps(plan)) +
		"For each file you want to create or modify, output a code block with the filename in the language specifier.\n" +
		"Use the full file contents - do not use ellipses or partial updates.\n" +
		"Format your output exactly as\n\n" +
		"```<language specifier> <filename>\n" +
		"<file contents>\n" +
		"```\n" +
		"Do this for each file you want to create or update\n\n" +
		"Example:\n" +
		"```html index.html\n" +
		"<html>\n" +
		"  <body>\n" +
		"    <h1>Hello World</h1>\n" +
		"  </body>\n" +
		"</html>\n" +
		"```\n\n" +
		"Now please execute the plan by providing the complete content for each file that needs to be created or modified.\n"
}

// OneShotSystemPrompt is the system message for the single-shot exec flow,
// which skips planning and goes straight to tool calls.
func OneShotSystemPrompt() string {
	return `You are a code generation assistant that can create and modify files.
You have access to the following tools:
- CREATE_FILE(filename): Creates a new empty file
- APPEND_TO_FILE(filename, content): Adds content to the end of a file
- MODIFY_FILE(filename, start_line, end_line, content): Replaces content between start_line and end_line
- REMOVE_FILE(filename): Moves a file to the removed folder

When using tools, wrap the tool call in <tool></tool> tags and format as JSON:
<tool>
{
    "name": "CREATE_FILE",
    "arguments": {
        "filename": "example.txt"
    }
}
</tool>

Generate code step by step, explaining your actions.`
}

// NumberSteps renders a plan as a 1-based numbered list.
func NumberSteps(steps []string) string {
	var b strings.Builder
	for i, step := range steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
