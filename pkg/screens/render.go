package screens

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"gitlab.com/tinyland/lab/rally/pkg/entity"
	"gitlab.com/tinyland/lab/rally/pkg/model"
	"gitlab.com/tinyland/lab/rally/pkg/theme"
)

const ellipsis = "…"

// truncate cuts s to width cells, ANSI-aware.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, ellipsis)
}

// firstLine returns the first non-blank line of a body.
func firstLine(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return t
		}
	}
	return ""
}

// wrap breaks s into lines of at most width cells.
func wrap(s string, width int) []string {
	if width <= 0 {
		return []string{s}
	}
	return strings.Split(ansi.Wrap(s, width, ""), "\n")
}

// page lays out a header and a body in exactly height lines.
func page(st theme.Styles, title, subtitle string, body []string, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	head := st.Title.Render(title)
	if subtitle != "" {
		head += " " + st.Dim.Render(subtitle)
	}
	lines := append([]string{truncate(head, width), ""}, body...)
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, l := range lines {
		lines[i] = truncate(l, width)
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// rows renders the visible window of l. render returns "" for ids that are
// no longer in the repository, which are skipped.
func rows(st theme.Styles, l list, height, width int, render func(entity.ID) string) []string {
	if l.Len() == 0 {
		return []string{st.Dim.Render("Nothing here yet.")}
	}
	start, end := l.window(height)
	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		line := render(l.ids[i])
		if line == "" {
			continue
		}
		line = truncate(line, width-2)
		if i == l.cursor {
			out = append(out, st.Accent.Render("▸ ")+line)
		} else {
			out = append(out, "  "+line)
		}
	}
	return out
}

// authorName resolves a space user id to a display name.
func authorName(repo entity.Reader, id entity.ID) string {
	if u, ok := entity.GetTyped[model.SpaceUser](repo, entity.KindSpaceUser, id); ok {
		return u.DisplayName()
	}
	return "someone"
}

// columns joins cells with a single space, padding each to its width.
func columns(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		if i < len(widths) && widths[i] > 0 {
			c = lipgloss.NewStyle().Width(widths[i]).MaxWidth(widths[i]).Render(truncate(c, widths[i]))
		}
		parts[i] = c
	}
	return strings.Join(parts, " ")
}
