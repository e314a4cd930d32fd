package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmpc/llmpc/pkg/changetracker"
	"github.com/llmpc/llmpc/pkg/config"
	"github.com/llmpc/llmpc/pkg/llm"
	"github.com/llmpc/llmpc/pkg/parser"
	"github.com/llmpc/llmpc/pkg/prompts"
	"github.com/llmpc/llmpc/pkg/utils"
	"github.com/llmpc/llmpc/pkg/workspace"
)

func newTestExecutor(t *testing.T, client llm.Client, mode config.Mode) (*Executor, *workspace.Workspace) {
	t.Helper()
	ws, err := workspace.Open(t.TempDir())
	require.NoError(t, err)
	tracker := changetracker.NewTracker(ws.Root())
	logger := utils.GetLogger(true)
	return NewExecutor(ws, client, mode, tracker, nil, logger), ws
}

func TestExecuteToolsMode(t *testing.T) {
	client := &scriptedClient{responses: []string{`<tool>
{"name": "CREATE_FILE", "arguments": {"filename": "notes.txt"}}
</tool>
<tool>
{"name": "APPEND_TO_FILE", "arguments": {"filename": "notes.txt", "content": "first line"}}
</tool>`}}
	executor, ws := newTestExecutor(t, client, config.ModeTools)

	result, err := executor.Execute(context.Background(), prompts.PromptData{Goal: "g"}, []string{"create notes"})
	require.NoError(t, err)

	require.Len(t, result.Applied, 2)
	assert.Empty(t, result.Failures)
	lines, err := ws.ReadLines("notes.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"first line"}, lines)
}

func TestExecuteSkipAndContinue(t *testing.T) {
	// The append targets a missing file and fails; the create after it must
	// still be applied.
	client := &scriptedClient{responses: []string{`<tool>
{"name": "APPEND_TO_FILE", "arguments": {"filename": "missing.txt", "content": "x"}}
</tool>
<tool>
{"name": "CREATE_FILE", "arguments": {"filename": "made.txt"}}
</tool>`}}
	executor, ws := newTestExecutor(t, client, config.ModeTools)

	result, err := executor.Execute(context.Background(), prompts.PromptData{Goal: "g"}, []string{"step"})
	require.NoError(t, err)

	require.Len(t, result.Failures, 1)
	assert.ErrorIs(t, result.Failures[0].Err, workspace.ErrNotFound)
	require.Len(t, result.Applied, 1)
	assert.Equal(t, parser.VerbCreateFile, result.Applied[0].Verb)
	assert.True(t, ws.Exists("made.txt"))
}

func TestExecuteToolsModeNoCalls(t *testing.T) {
	client := &scriptedClient{responses: []string{"I will describe my approach instead of acting."}}
	executor, _ := newTestExecutor(t, client, config.ModeTools)

	_, err := executor.Execute(context.Background(), prompts.PromptData{Goal: "g"}, []string{"step"})
	assert.ErrorIs(t, err, ErrNoToolCalls)
}

func TestExecuteToolsModeMalformedSegmentIsWarning(t *testing.T) {
	client := &scriptedClient{responses: []string{`<tool>
{broken json}
</tool>
<tool>
{"name": "CREATE_FILE", "arguments": {"filename": "ok.txt"}}
</tool>`}}
	executor, ws := newTestExecutor(t, client, config.ModeTools)

	result, err := executor.Execute(context.Background(), prompts.PromptData{Goal: "g"}, []string{"step"})
	require.NoError(t, err)
	assert.Len(t, result.Warnings, 1)
	require.Len(t, result.Applied, 1)
	assert.True(t, ws.Exists("ok.txt"))
}

func TestExecuteBlocksMode(t *testing.T) {
	client := &scriptedClient{responses: []string{"Here you go:\n```text greeting.txt\nhello\nworld\n```\n"}}
	executor, ws := newTestExecutor(t, client, config.ModeBlocks)

	result, err := executor.Execute(context.Background(), prompts.PromptData{Goal: "g"}, []string{"write greeting"})
	require.NoError(t, err)

	require.Len(t, result.Applied, 1)
	assert.Equal(t, parser.VerbWriteFile, result.Applied[0].Verb)
	lines, err := ws.ReadLines("greeting.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "world"}, lines)
}

func TestExecuteBlocksModeOverwrites(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"```text f.txt\nversion one\n```",
		"```text f.txt\nversion two\n```",
	}}
	executor, ws := newTestExecutor(t, client, config.ModeBlocks)

	_, err := executor.Execute(context.Background(), prompts.PromptData{Goal: "g"}, []string{"v1"})
	require.NoError(t, err)
	_, err = executor.Execute(context.Background(), prompts.PromptData{Goal: "g"}, []string{"v2"})
	require.NoError(t, err)

	content, err := ws.ReadFull("f.txt")
	require.NoError(t, err)
	assert.Equal(t, "version two", content)
}

func TestExecuteBlocksModeNoBlocksIsNotAnError(t *testing.T) {
	client := &scriptedClient{responses: []string{"Nothing needs to change for this step."}}
	executor, _ := newTestExecutor(t, client, config.ModeBlocks)

	result, err := executor.Execute(context.Background(), prompts.PromptData{Goal: "g"}, []string{"verify"})
	require.NoError(t, err)
	assert.Empty(t, result.Applied)
}

func TestExecuteUpstreamFailure(t *testing.T) {
	upstream := errors.New("dial tcp: connection refused")
	client := &scriptedClient{err: upstream}
	executor, _ := newTestExecutor(t, client, config.ModeTools)

	_, err := executor.Execute(context.Background(), prompts.PromptData{Goal: "g"}, []string{"step"})
	assert.ErrorIs(t, err, upstream)
}

func TestExecuteRecordsChanges(t *testing.T) {
	client := &scriptedClient{responses: []string{"```text a.txt\nhello\n```"}}
	executor, ws := newTestExecutor(t, client, config.ModeBlocks)

	_, err := executor.Execute(context.Background(), prompts.PromptData{Goal: "g"}, []string{"make a.txt"})
	require.NoError(t, err)

	records, err := changetracker.Records(ws.Root())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a.txt", records[0].Filename)
	assert.Equal(t, "WRITE_FILE", records[0].Operation)
	assert.Equal(t, "make a.txt", records[0].Step)
}

func TestExecuteModifyRange(t *testing.T) {
	client := &scriptedClient{responses: []string{`<tool>
{"name": "MODIFY_FILE", "arguments": {"filename": "f.txt", "start_line": 1, "end_line": 1, "content": "TWO"}}
</tool>`}}
	executor, ws := newTestExecutor(t, client, config.ModeTools)
	require.NoError(t, ws.WriteFull("f.txt", "one\ntwo\nthree\n"))

	_, err := executor.Execute(context.Background(), prompts.PromptData{Goal: "g"}, []string{"fix line"})
	require.NoError(t, err)

	lines, err := ws.ReadLines("f.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "TWO", "three"}, lines)
}

func TestExecuteRemoveKeepsContentRecoverable(t *testing.T) {
	client := &scriptedClient{responses: []string{`<tool>
{"name": "REMOVE_FILE", "arguments": {"filename": "old.txt"}}
</tool>`}}
	executor, ws := newTestExecutor(t, client, config.ModeTools)
	require.NoError(t, ws.WriteFull("old.txt", "keep me\n"))

	_, err := executor.Execute(context.Background(), prompts.PromptData{Goal: "g"}, []string{"clean up"})
	require.NoError(t, err)

	assert.False(t, ws.Exists("old.txt"))
	lines, err := ws.ReadRemoved("old.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"keep me"}, lines)
}
