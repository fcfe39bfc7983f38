package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the TUI color pair: one accent, one dim.
type Theme struct {
	Primary lipgloss.Color
	Dim     lipgloss.Color
}

// DefaultTheme is recording-light red on dim gray.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#ff6b6b"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles are the lipgloss styles every frame element draws with.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style
}

// NewStyles derives the frame styles from a theme.
func NewStyles(t Theme) Styles {
	accent := lipgloss.NewStyle().Foreground(t.Primary)
	return Styles{
		Title:  accent.Bold(true).Padding(0, 1),
		Label:  accent.Bold(true),
		Border: accent,
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Section is one labeled pane of a frame. Content is re-read on every
// render so the pane tracks live state.
type Section struct {
	Label   string
	Content func() []string
}

// Frame is a full-screen box: a title row with a status tag, labeled
// content panes, and a help line under the bottom border.
type Frame struct {
	Styles   Styles
	Title    string
	Status   string
	Sections []Section
	Help     string
}

// Render draws the frame at the given terminal size.
func (f Frame) Render(width, height int) string {
	if width == 0 || height == 0 {
		return "Loading..."
	}

	inner := width - 4 // borders plus one space of padding each side

	lines := []string{
		f.rule("╭", "╮", width),
		f.titleRow(width),
		f.blankRow(width),
	}

	// What remains of the terminal splits evenly across the panes.
	// Fixed rows: top, title, spacer, bottom, help, plus one label row
	// per pane.
	panes := max(len(f.Sections), 1)
	rows := max((height-5-panes)/panes, 2)
	for _, sec := range f.Sections {
		lines = append(lines, f.pane(sec, rows, width, inner)...)
	}

	lines = append(lines, f.rule("╰", "╯", width))
	lines = append(lines, f.Styles.Help.Render(f.Help))
	return strings.Join(lines, "\n")
}

func (f Frame) rule(left, right string, width int) string {
	return f.Styles.Border.Render(left + strings.Repeat("─", width-2) + right)
}

func (f Frame) blankRow(width int) string {
	edge := f.Styles.Border.Render("│")
	return edge + strings.Repeat(" ", width-2) + edge
}

func (f Frame) titleRow(width int) string {
	edge := f.Styles.Border.Render("│")
	title := f.Styles.Title.Render(f.Title)
	status := f.Styles.Help.Render("[" + f.Status + "]")
	gap := max(0, width-5-lipgloss.Width(title)-lipgloss.Width(status))
	return edge + " " + title + " " + status + strings.Repeat(" ", gap) + " " + edge
}

// pane draws one section: its label embedded in a horizontal rule,
// then the last rows lines of its content, tail-aligned like a log.
func (f Frame) pane(sec Section, rows, width, inner int) []string {
	bc := f.Styles.Border
	label := f.Styles.Label.Render(sec.Label)
	gap := max(0, width-3-lipgloss.Width(label))
	out := []string{bc.Render("├─") + label + bc.Render(strings.Repeat("─", gap)+"┤")}

	content := sec.Content()
	if len(content) > rows {
		content = content[len(content)-rows:]
	}
	edge := bc.Render("│")
	for i := 0; i < rows; i++ {
		text := ""
		if i < len(content) {
			text = content[i]
		}
		if inner > 1 && lipgloss.Width(text) > inner {
			text = truncateString(text, inner-1) + "…"
		}
		out = append(out, edge+" "+text+strings.Repeat(" ", max(0, inner-lipgloss.Width(text)))+" "+edge)
	}
	return out
}

// truncateString cuts s to at most width terminal cells without
// splitting a wide rune.
func truncateString(s string, width int) string {
	if width <= 0 {
		return ""
	}
	used := 0
	for i, r := range s {
		w := lipgloss.Width(string(r))
		if used+w > width {
			return s[:i]
		}
		used += w
	}
	return s
}
