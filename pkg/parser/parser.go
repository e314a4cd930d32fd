// Package parser extracts structured tool invocations from free-form LLM
// output. Two grammars are supported: tagged-JSON <tool> segments and fenced
// code blocks whose opening line names a file. The package performs no I/O.
package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Verb identifies a tool invocation variant.
type Verb string

const (
	VerbCreateFile   Verb = "CREATE_FILE"
	VerbAppendToFile Verb = "APPEND_TO_FILE"
	VerbModifyFile   Verb = "MODIFY_FILE"
	VerbRemoveFile   Verb = "REMOVE_FILE"
	// VerbWriteFile is the whole-file create-or-overwrite produced by fenced
	// code blocks. It is never requested through the tagged-JSON grammar.
	VerbWriteFile Verb = "WRITE_FILE"
)

// ToolCall is a single parsed file-mutation command.
type ToolCall struct {
	Verb     Verb
	Filename string
	// Content carries the new lines for APPEND_TO_FILE, MODIFY_FILE and
	// WRITE_FILE.
	Content string
	// StartLine and EndLine are inclusive 0-based bounds for MODIFY_FILE.
	StartLine int
	EndLine   int
}

const (
	toolOpenTag  = "<tool>"
	toolCloseTag = "</tool>"
)

// toolEnvelope mirrors the wire format of a tagged-JSON tool segment.
type toolEnvelope struct {
	Name      string `json:"name"`
	Arguments struct {
		Filename  string `json:"filename"`
		Content   string `json:"content"`
		StartLine *int   `json:"start_line"`
		EndLine   *int   `json:"end_line"`
	} `json:"arguments"`
}

// ParseToolCalls scans text for <tool>...</tool> segments and decodes each
// interior as a JSON tool envelope. Malformed segments are skipped
// individually; one warning per skip is returned alongside the calls that did
// parse. An unterminated open tag yields a warning and ends the scan.
func ParseToolCalls(text string) ([]ToolCall, []error) {
	var calls []ToolCall
	var warnings []error

	rest := text
	for {
		start := strings.Index(rest, toolOpenTag)
		if start == -1 {
			break
		}
		rest = rest[start+len(toolOpenTag):]
		end := strings.Index(rest, toolCloseTag)
		if end == -1 {
			warnings = append(warnings, fmt.Errorf("unterminated %s tag", toolOpenTag))
			break
		}
		segment := rest[:end]
		rest = rest[end+len(toolCloseTag):]

		call, err := decodeToolSegment(segment)
		if err != nil {
			warnings = append(warnings, err)
			continue
		}
		calls = append(calls, call)
	}

	return calls, warnings
}

func decodeToolSegment(segment string) (ToolCall, error) {
	var env toolEnvelope
	if err := json.Unmarshal([]byte(segment), &env); err != nil {
		return ToolCall{}, fmt.Errorf("tool segment is not valid JSON: %w", err)
	}
	if env.Arguments.Filename == "" {
		return ToolCall{}, fmt.Errorf("tool %q is missing a filename argument", env.Name)
	}

	call := ToolCall{
		Verb:     Verb(env.Name),
		Filename: env.Arguments.Filename,
		Content:  env.Arguments.Content,
	}

	switch call.Verb {
	case VerbCreateFile, VerbRemoveFile:
		// Filename only.
	case VerbAppendToFile:
		// Content may legitimately be empty; nothing further to check.
	case VerbModifyFile:
		if env.Arguments.StartLine == nil || env.Arguments.EndLine == nil {
			return ToolCall{}, fmt.Errorf("MODIFY_FILE for %s is missing start_line/end_line", call.Filename)
		}
		call.StartLine = *env.Arguments.StartLine
		call.EndLine = *env.Arguments.EndLine
	default:
		return ToolCall{}, fmt.Errorf("unknown tool name %q", env.Name)
	}

	return call, nil
}

// startOfBlockRegex matches the beginning of a fenced code block, capturing
// the language identifier when present.
var startOfBlockRegex = regexp.MustCompile("^\\s*[>|]*```(\\S*)")

const hardEndOfBlockString = "```END"

func isHardEndOfCodeBlock(line string) bool {
	return strings.TrimSpace(line) == hardEndOfBlockString
}

func isStartOfCodeBlock(line string) bool {
	if isHardEndOfCodeBlock(line) {
		return false
	}
	return startOfBlockRegex.MatchString(line)
}

func isEndOfCodeBlock(line string) bool {
	return isHardEndOfCodeBlock(line) || strings.TrimSpace(line) == "```"
}

// extractFilename pulls a filename from a fence opening line. The primary
// form is "```lang filename"; "```lang # filename" is accepted as a fallback.
func extractFilename(line string) string {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimLeft(trimmed, ">| \t")
	trimmed = strings.TrimPrefix(trimmed, "```")

	if idx := strings.LastIndex(trimmed, "#"); idx != -1 {
		trimmed = trimmed[idx+1:]
	} else {
		fields := strings.Fields(trimmed)
		if len(fields) < 2 {
			return ""
		}
		// Language tag first, filename second; anything after is commentary.
		trimmed = fields[1]
	}

	fields := strings.Fields(strings.TrimSpace(trimmed))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// validFilename requires a non-empty base name with an extension, which
// filters out fence lines that only carry a language tag.
func validFilename(filename string) bool {
	if filename == "" {
		return false
	}
	parts := strings.Split(strings.Trim(filename, "."), ".")
	return len(parts) > 1 && parts[0] != ""
}

// ParseCodeBlocks scans text for fenced code blocks whose opening line names
// a file and returns one whole-file WRITE_FILE call per block, in order of
// appearance. The body's trailing newline is trimmed. Blocks without a valid
// filename are ignored.
func ParseCodeBlocks(text string) []ToolCall {
	var calls []ToolCall
	var body strings.Builder
	var currentFile string
	inCodeBlock := false

	for _, line := range strings.Split(text, "\n") {
		switch {
		case !inCodeBlock && isStartOfCodeBlock(line):
			if filename := extractFilename(line); validFilename(filename) {
				inCodeBlock = true
				currentFile = filename
				body.Reset()
			}
		case inCodeBlock && isEndOfCodeBlock(line):
			inCodeBlock = false
			calls = append(calls, ToolCall{
				Verb:     VerbWriteFile,
				Filename: currentFile,
				Content:  strings.TrimSuffix(body.String(), "\n"),
			})
			currentFile = ""
		case inCodeBlock:
			body.WriteString(line + "\n")
		}
	}

	return calls
}
