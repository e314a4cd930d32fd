// Package workspace manages the directory of text files the agent operates
// on. Files live flat in the root; removing a file relocates it under the
// .llmpc/removed area instead of destroying it.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

var (
	// ErrNotFound indicates an operation referenced a file that is not in the
	// live workspace.
	ErrNotFound = errors.New("file not found in workspace")
	// ErrExists indicates a create collided with an existing file.
	ErrExists = errors.New("file already exists in workspace")
	// ErrInvalidRange indicates MODIFY_FILE bounds that do not address the
	// file's current line sequence.
	ErrInvalidRange = errors.New("line range out of bounds")
	// ErrBadName indicates a filename that is empty or escapes the workspace.
	ErrBadName = errors.New("invalid workspace filename")
)

const (
	metaDirName    = ".llmpc"
	removedDirName = "removed"
)

// Workspace is a flat directory of text files plus a segregated removed area.
type Workspace struct {
	root string
}

// Open returns a workspace rooted at dir, creating the directory and its
// metadata area if needed.
func Open(dir string) (*Workspace, error) {
	if err := os.MkdirAll(filepath.Join(dir, metaDirName, removedDirName), 0o755); err != nil {
		return nil, fmt.Errorf("could not create workspace at %s: %w", dir, err)
	}
	return &Workspace{root: dir}, nil
}

// Root returns the workspace directory.
func (w *Workspace) Root() string {
	return w.root
}

// checkName rejects empty names and anything that would resolve outside the
// workspace root. The workspace is flat: path separators are not allowed.
func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrBadName, name)
	}
	return nil
}

func (w *Workspace) livePath(name string) string {
	return filepath.Join(w.root, name)
}

func (w *Workspace) removedPath(name string) string {
	return filepath.Join(w.root, metaDirName, removedDirName, name)
}

// ignoreRules reads .gitignore and .llmpc/.ignore, returning nil when neither
// contributes a rule.
func (w *Workspace) ignoreRules() *ignore.GitIgnore {
	var allRules []string
	for _, path := range []string{
		filepath.Join(w.root, ".gitignore"),
		filepath.Join(w.root, metaDirName, ".ignore"),
	} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		allRules = append(allRules, strings.Split(string(data), "\n")...)
	}
	if len(allRules) == 0 {
		return nil
	}
	return ignore.CompileIgnoreLines(allRules...)
}

// List returns the live filenames in lexicographic order, excluding the
// metadata area, dotfiles and anything matched by ignore rules. The fixed
// ordering keeps prompt context deterministic across platforms.
func (w *Workspace) List() ([]string, error) {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return nil, fmt.Errorf("could not list workspace %s: %w", w.root, err)
	}

	rules := w.ignoreRules()
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if rules != nil && rules.MatchesPath(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ReadLines returns the file's content as ordered lines.
func (w *Workspace) ReadLines(name string) ([]string, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(w.livePath(name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", name, err)
	}
	return splitLines(string(data)), nil
}

// ReadFull returns the file's content as a single string.
func (w *Workspace) ReadFull(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	data, err := os.ReadFile(w.livePath(name))
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("could not read %s: %w", name, err)
	}
	return string(data), nil
}

// Exists reports whether name is in the live workspace.
func (w *Workspace) Exists(name string) bool {
	if checkName(name) != nil {
		return false
	}
	_, err := os.Stat(w.livePath(name))
	return err == nil
}

// Create creates an empty file and fails with ErrExists on collision. The
// fenced-block flow uses WriteFull for create-or-overwrite semantics; Create
// is deliberately strict so a stray CREATE_FILE cannot blank an existing file.
func (w *Workspace) Create(name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	f, err := os.OpenFile(w.livePath(name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if os.IsExist(err) {
		return fmt.Errorf("%s: %w", name, ErrExists)
	}
	if err != nil {
		return fmt.Errorf("could not create %s: %w", name, err)
	}
	return f.Close()
}

// WriteFull creates or overwrites the file with exactly the given text.
func (w *Workspace) WriteFull(name, text string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := os.WriteFile(w.livePath(name), []byte(text), 0o644); err != nil {
		return fmt.Errorf("could not write %s: %w", name, err)
	}
	return nil
}

// Append adds content as new trailing lines.
func (w *Workspace) Append(name, content string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if !w.Exists(name) {
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	current, err := w.ReadFull(name)
	if err != nil {
		return err
	}
	if current != "" && !strings.HasSuffix(current, "\n") {
		current += "\n"
	}
	return w.WriteFull(name, current+content+"\n")
}

// ModifyRange replaces the inclusive 0-based line range [start, end] with the
// lines of content. Bounds are validated against the file's current length;
// out-of-range bounds fail with ErrInvalidRange rather than being clamped,
// since clamping would silently misapply an edit addressed at stale line
// numbers.
func (w *Workspace) ModifyRange(name string, start, end int, content string) error {
	lines, err := w.ReadLines(name)
	if err != nil {
		return err
	}
	if start < 0 || end < start || end >= len(lines) {
		return fmt.Errorf("%s: [%d, %d] with %d lines: %w", name, start, end, len(lines), ErrInvalidRange)
	}

	replacement := splitLines(content)
	updated := make([]string, 0, len(lines)-(end-start+1)+len(replacement))
	updated = append(updated, lines[:start]...)
	updated = append(updated, replacement...)
	updated = append(updated, lines[end+1:]...)

	return w.WriteFull(name, strings.Join(updated, "\n")+"\n")
}

// Remove relocates the file into the removed area, preserving its content. A
// file already in the removed area with the same name is overwritten.
func (w *Workspace) Remove(name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if !w.Exists(name) {
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err := os.Rename(w.livePath(name), w.removedPath(name)); err != nil {
		return fmt.Errorf("could not remove %s: %w", name, err)
	}
	return nil
}

// ReadRemoved returns the lines of a previously removed file.
func (w *Workspace) ReadRemoved(name string) ([]string, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(w.removedPath(name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read removed %s: %w", name, err)
	}
	return splitLines(string(data)), nil
}

// splitLines splits text into lines without a phantom trailing element for
// the final newline. Empty text has zero lines.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
