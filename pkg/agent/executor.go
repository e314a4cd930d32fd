package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/llmpc/llmpc/pkg/changetracker"
	"github.com/llmpc/llmpc/pkg/config"
	"github.com/llmpc/llmpc/pkg/events"
	"github.com/llmpc/llmpc/pkg/llm"
	"github.com/llmpc/llmpc/pkg/parser"
	"github.com/llmpc/llmpc/pkg/prompts"
	"github.com/llmpc/llmpc/pkg/utils"
	"github.com/llmpc/llmpc/pkg/workspace"
)

// ErrNoToolCalls indicates a tools-mode response that contained no parsable
// tool invocations at all.
var ErrNoToolCalls = errors.New("no tool calls found in response")

// ApplyFailure reports one invocation that could not be applied.
type ApplyFailure struct {
	Call parser.ToolCall
	Err  error
}

func (f ApplyFailure) Error() string {
	return fmt.Sprintf("%s %s: %v", f.Call.Verb, f.Call.Filename, f.Err)
}

// ExecResult is the outcome of one execution batch.
type ExecResult struct {
	Applied  []parser.ToolCall // invocations applied, in order
	Failures []ApplyFailure    // invocations skipped under skip-and-continue
	Warnings []error           // parse-level skips (malformed tool segments)
}

// Executor turns plans into workspace mutations.
type Executor struct {
	ws      *workspace.Workspace
	client  llm.Client
	mode    config.Mode
	tracker *changetracker.Tracker
	bus     *events.Bus
	logger  *utils.Logger
}

// NewExecutor wires an executor. bus may be nil when no monitor is attached.
func NewExecutor(ws *workspace.Workspace, client llm.Client, mode config.Mode, tracker *changetracker.Tracker, bus *events.Bus, logger *utils.Logger) *Executor {
	return &Executor{ws: ws, client: client, mode: mode, tracker: tracker, bus: bus, logger: logger}
}

// Execute asks the LLM to carry out the plan, parses the response in the
// active mode, and applies the invocations in parsed order. Failed
// invocations are skipped and reported in the result; later invocations
// still run. An upstream failure, or a tools-mode response with no calls at
// all, aborts the batch with an error.
func (e *Executor) Execute(ctx context.Context, data prompts.PromptData, plan []string) (*ExecResult, error) {
	var instruction string
	switch e.mode {
	case config.ModeTools:
		instruction = prompts.ExecutorToolInstruction(plan)
	default:
		instruction = prompts.ExecutorBlockInstruction(plan)
	}

	messages := []prompts.Message{
		{Role: "system", Content: prompts.SystemPrompt(data)},
		{Role: "user", Content: instruction},
	}
	response, err := e.client.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("execution request failed: %w", err)
	}

	return e.applyResponse(response, strings.Join(plan, "; "))
}

// applyResponse parses a raw LLM response and applies the resulting
// invocations. step annotates the revision log with what prompted the change.
func (e *Executor) applyResponse(response, step string) (*ExecResult, error) {
	result := &ExecResult{}

	var calls []parser.ToolCall
	switch e.mode {
	case config.ModeTools:
		var warnings []error
		calls, warnings = parser.ParseToolCalls(response)
		result.Warnings = warnings
		for _, warning := range warnings {
			e.logger.Logf("Skipped malformed tool segment: %v", warning)
			e.publish(events.TypeError, warning.Error())
		}
		if len(calls) == 0 && len(warnings) == 0 {
			return nil, fmt.Errorf("%w (response was %d chars)", ErrNoToolCalls, len(response))
		}
	default:
		// Blocks mode: a response with no fenced blocks means the model chose
		// not to change any files this iteration.
		calls = parser.ParseCodeBlocks(response)
	}

	for _, call := range calls {
		if err := e.apply(call, step); err != nil {
			failure := ApplyFailure{Call: call, Err: err}
			result.Failures = append(result.Failures, failure)
			e.logger.LogError(failure)
			e.publish(events.TypeToolFailed, failure.Error())
			continue
		}
		result.Applied = append(result.Applied, call)
		e.logger.LogWorkspaceOperation(string(call.Verb), call.Filename)
		e.publish(events.TypeToolApplied, map[string]string{
			"tool": utils.VerbDisplayName(string(call.Verb)),
			"file": call.Filename,
		})
	}

	return result, nil
}

// apply dispatches one invocation against the workspace and records the
// change.
func (e *Executor) apply(call parser.ToolCall, step string) error {
	// Snapshot the file before the mutation for diff preview and the
	// revision log. A missing file simply reads as empty.
	before, _ := e.ws.ReadFull(call.Filename)

	var err error
	switch call.Verb {
	case parser.VerbCreateFile:
		err = e.ws.Create(call.Filename)
	case parser.VerbAppendToFile:
		err = e.ws.Append(call.Filename, call.Content)
	case parser.VerbModifyFile:
		err = e.ws.ModifyRange(call.Filename, call.StartLine, call.EndLine, call.Content)
	case parser.VerbRemoveFile:
		err = e.ws.Remove(call.Filename)
	case parser.VerbWriteFile:
		e.logger.LogProcessStep(fmt.Sprintf("Writing %s:\n%s", call.Filename, changetracker.PreviewDiff(before, call.Content)))
		err = e.ws.WriteFull(call.Filename, call.Content)
	default:
		err = fmt.Errorf("unsupported tool verb %q", call.Verb)
	}
	if err != nil {
		return err
	}

	after, _ := e.ws.ReadFull(call.Filename)
	if trackErr := e.tracker.Record(call.Filename, string(call.Verb), step, before, after); trackErr != nil {
		e.logger.Logf("Could not record change for %s: %v", call.Filename, trackErr)
	}
	e.publish(events.TypeFileChanged, call.Filename)
	return nil
}

func (e *Executor) publish(eventType string, data any) {
	if e.bus != nil {
		e.bus.Publish(eventType, data)
	}
}
