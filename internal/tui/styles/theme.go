package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Semantic Colors
var (
	ColorError   = lipgloss.AdaptiveColor{Light: "#E06C75", Dark: "#E06C75"} // Red
	ColorWarning = lipgloss.AdaptiveColor{Light: "#E5C07B", Dark: "#E5C07B"} // Yellow
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#98C379", Dark: "#98C379"} // Green
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#56B6C2", Dark: "#56B6C2"} // Cyan
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#5C6370", Dark: "#5C6370"} // Gray
)

// Base Styles
var (
	BaseStyle = lipgloss.NewStyle().
			Padding(0, 1)

	ErrorStyle = BaseStyle.
			Foreground(ColorError).
			Bold(true)

	WarningStyle = BaseStyle.
			Foreground(ColorWarning)

	MutedStyle = BaseStyle.
			Foreground(ColorMuted)
)

// Component Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Padding(0, 1)

	// PaneStyle frames the content of the active pane
	PaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1)

	TabStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1)

	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true).
			Underline(true).
			Padding(0, 1)

	KeyStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	DescStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1)
)

// Table Styles
var (
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorPrimary).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(ColorMuted)

	TableCellStyle = lipgloss.NewStyle().
			Padding(0, 1)
)

const (
	IconCross   = "✗"
	IconWarning = "⚠"
	IconBullet  = "•"
)

// RenderTitle renders a styled title
func RenderTitle(text string) string {
	return TitleStyle.Render(text)
}

// RenderError renders an error message with icon
func RenderError(text string) string {
	return ErrorStyle.Render(IconCross + " " + text)
}

// RenderWarning renders a warning message with icon
func RenderWarning(text string) string {
	return WarningStyle.Render(IconWarning + " " + text)
}

// RenderKeyBinding renders a keyboard shortcut
func RenderKeyBinding(key, desc string) string {
	return KeyStyle.Render(key) + " " + DescStyle.Render(desc)
}

// RenderTabs renders the pane names with the active one highlighted.
func RenderTabs(names []string, active int) string {
	tabs := make([]string, len(names))
	for i, n := range names {
		if i == active {
			tabs[i] = ActiveTabStyle.Render(n)
		} else {
			tabs[i] = TabStyle.Render(n)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// RenderTable renders a simple table with headers and rows
func RenderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				w := lipgloss.Width(cell)
				if w > widths[i] {
					widths[i] = w
				}
			}
		}
	}

	var headerCells []string
	for i, h := range headers {
		headerCells = append(headerCells,
			TableHeaderStyle.Width(widths[i]).Render(h))
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, headerCells...)

	var rowStrs []string
	for _, row := range rows {
		var cells []string
		for i, cell := range row {
			if i < len(widths) {
				cells = append(cells,
					TableCellStyle.Width(widths[i]).Render(cell))
			}
		}
		rowStrs = append(rowStrs, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	parts := append([]string{header}, rowStrs...)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// TruncateLines cuts every line to width cells, keeping escape
// sequences intact.
func TruncateLines(lines []string, width int) []string {
	if width <= 0 {
		return lines
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = ansi.Truncate(l, width, "…")
	}
	return out
}

// PaneSize returns the inner size of the pane for a terminal of width x
// height, leaving room for the title, tabs, status and help lines.
func PaneSize(width, height int) (int, int) {
	w := width - PaneStyle.GetHorizontalFrameSize()
	h := height - PaneStyle.GetVerticalFrameSize() - 5
	if w < 20 {
		w = 20
	}
	if h < 3 {
		h = 3
	}
	return w, h
}
