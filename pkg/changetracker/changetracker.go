// Package changetracker renders previews of file changes and records applied
// changes in a per-workspace revision log so a session's edits can be audited
// afterward.
package changetracker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Color constants for diff output.
const (
	RedColor   = "\x1b[31m"
	GreenColor = "\x1b[32m"
	ResetColor = "\x1b[0m"
)

// PreviewDiff returns a colored line diff between old and new content.
// Insertions are green, deletions red.
func PreviewDiff(old, new string) string {
	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(old, new)
	diffs := dmp.DiffMain(chars1, chars2, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var b strings.Builder
	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")
		for _, line := range strings.Split(text, "\n") {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				b.WriteString(GreenColor + "+ " + line + ResetColor + "\n")
			case diffmatchpatch.DiffDelete:
				b.WriteString(RedColor + "- " + line + ResetColor + "\n")
			default:
				b.WriteString("  " + line + "\n")
			}
		}
	}
	return b.String()
}

// ChangeRecord is one applied change in the revision log.
type ChangeRecord struct {
	RevisionID string    `json:"revision_id"`
	Timestamp  time.Time `json:"timestamp"`
	Filename   string    `json:"filename"`
	Operation  string    `json:"operation"`
	Step       string    `json:"step,omitempty"` // plan step that caused the change
	Diff       string    `json:"diff,omitempty"`
}

// Tracker appends change records to .llmpc/changes.json under the workspace
// root, one JSON object per line.
type Tracker struct {
	path       string
	revisionID string
}

// NewTracker creates a tracker for the given workspace directory with a fresh
// revision ID covering this session.
func NewTracker(workspaceDir string) *Tracker {
	return &Tracker{
		path:       filepath.Join(workspaceDir, ".llmpc", "changes.json"),
		revisionID: fmt.Sprintf("rev-%d", time.Now().UnixNano()),
	}
}

// RevisionID returns the session's revision identifier.
func (t *Tracker) RevisionID() string {
	return t.revisionID
}

// Record appends one change record. The diff is recomputed from the old and
// new content so the log is self-contained.
func (t *Tracker) Record(filename, operation, step, old, new string) error {
	record := ChangeRecord{
		RevisionID: t.revisionID,
		Timestamp:  time.Now(),
		Filename:   filename,
		Operation:  operation,
		Step:       step,
		Diff:       stripColors(PreviewDiff(old, new)),
	}

	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("could not create change log dir: %w", err)
	}
	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("could not open change log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(record); err != nil {
		return fmt.Errorf("could not write change record: %w", err)
	}
	return nil
}

// Records reads back every change record in the log, oldest first.
func Records(workspaceDir string) ([]ChangeRecord, error) {
	path := filepath.Join(workspaceDir, ".llmpc", "changes.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read change log: %w", err)
	}

	var records []ChangeRecord
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var record ChangeRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("malformed change record: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

func stripColors(s string) string {
	for _, code := range []string{RedColor, GreenColor, ResetColor} {
		s = strings.ReplaceAll(s, code, "")
	}
	return s
}
