package termtest

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Snapshot captures rendered output with styling removed.
type Snapshot struct {
	Name    string
	Width   int
	Height  int
	Content string
}

// CaptureSnapshot renders at the given size and strips ANSI sequences.
func CaptureSnapshot(name string, renderFn func(w, h int) string, width, height int) Snapshot {
	return Snapshot{
		Name:    name,
		Width:   width,
		Height:  height,
		Content: ansi.Strip(renderFn(width, height)),
	}
}

// Lines returns the snapshot's lines with trailing spaces trimmed.
func (s Snapshot) Lines() []string {
	lines := splitLines(s.Content)
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return lines
}

// Contains reports whether any line contains sub.
func (s Snapshot) Contains(sub string) bool {
	for _, l := range s.Lines() {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}

// MaxWidth returns the widest line in cells.
func (s Snapshot) MaxWidth() int {
	w := 0
	for _, l := range splitLines(s.Content) {
		if n := ansi.StringWidth(l); n > w {
			w = n
		}
	}
	return w
}

// Diff describes a single line difference between two snapshots.
type Diff struct {
	Line     int // 1-based
	Expected string
	Actual   string
}

// CompareSnapshots returns the differing lines, or nil when identical.
func CompareSnapshots(expected, actual Snapshot) []Diff {
	exp := expected.Lines()
	act := actual.Lines()

	n := len(exp)
	if len(act) > n {
		n = len(act)
	}

	var diffs []Diff
	for i := 0; i < n; i++ {
		var e, a string
		if i < len(exp) {
			e = exp[i]
		}
		if i < len(act) {
			a = act[i]
		}
		if e != a {
			diffs = append(diffs, Diff{Line: i + 1, Expected: e, Actual: a})
		}
	}
	return diffs
}

// splitLines treats the empty string as one empty line.
func splitLines(s string) []string {
	if s == "" {
		return []string{""}
	}
	return strings.Split(s, "\n")
}
