package workspace

import (
	"fmt"
	"strings"
)

// Snapshot serializes every live file into a single context blob: a
// "File: <name>" header per file followed by its content, files in the
// lexicographic order List fixes. When numbered is true each line is prefixed
// with its 0-based index so MODIFY_FILE calls can address lines precisely.
// The snapshot is always recomputed from the backing store; callers must not
// cache it across mutations.
func (w *Workspace) Snapshot(numbered bool) (string, error) {
	names, err := w.List()
	if err != nil {
		return "", err
	}

	var sections []string
	for _, name := range names {
		lines, err := w.ReadLines(name)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		b.WriteString("File: " + name + "\n")
		for i, line := range lines {
			if numbered {
				fmt.Fprintf(&b, "%d %s\n", i, line)
			} else {
				b.WriteString(line + "\n")
			}
		}
		sections = append(sections, strings.TrimSuffix(b.String(), "\n"))
	}

	return strings.Join(sections, "\n\n"), nil
}
