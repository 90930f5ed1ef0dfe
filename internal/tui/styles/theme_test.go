package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

func TestRenderTitle(t *testing.T) {
	result := RenderTitle("survey.sgy")

	if !strings.Contains(result, "survey.sgy") {
		t.Error("Expected rendered title to contain original text")
	}
}

func TestRenderError(t *testing.T) {
	result := RenderError("Error message")

	if !strings.Contains(result, "Error message") {
		t.Error("Expected rendered error to contain message text")
	}

	if !strings.Contains(result, IconCross) {
		t.Error("Expected rendered error to contain error icon")
	}
}

func TestRenderWarning(t *testing.T) {
	result := RenderWarning("Warning message")

	if !strings.Contains(result, "Warning message") {
		t.Error("Expected rendered warning to contain message text")
	}

	if !strings.Contains(result, IconWarning) {
		t.Error("Expected rendered warning to contain warning icon")
	}
}

func TestRenderKeyBinding(t *testing.T) {
	result := RenderKeyBinding("tab", "next pane")

	if !strings.Contains(result, "tab") {
		t.Error("Expected rendered key binding to contain key")
	}

	if !strings.Contains(result, "next pane") {
		t.Error("Expected rendered key binding to contain description")
	}
}

func TestRenderTabs(t *testing.T) {
	names := []string{"Text", "Binary", "Trace"}
	plain := ansi.Strip(RenderTabs(names, 1))

	for _, n := range names {
		if !strings.Contains(plain, n) {
			t.Errorf("Expected tabs to contain %q, got %q", n, plain)
		}
	}

	if strings.Index(plain, "Text") > strings.Index(plain, "Trace") {
		t.Error("Expected tabs in the given order")
	}
}

func TestRenderTable_Simple(t *testing.T) {
	headers := []string{"Name", "Value"}
	rows := [][]string{
		{"SampleInterval", "4000"},
		{"SamplesPerTrace", "50"},
	}

	result := RenderTable(headers, rows)
	plain := ansi.Strip(result)

	if !strings.Contains(plain, "Name") || !strings.Contains(plain, "Value") {
		t.Error("Expected table to contain headers")
	}

	lines := strings.Split(strings.TrimSpace(plain), "\n")
	if len(lines) < len(rows)+1 {
		t.Errorf("Expected table to include %d rows plus header, got %d lines", len(rows), len(lines))
	}
}

func TestRenderTable_EmptyRows(t *testing.T) {
	plain := ansi.Strip(RenderTable([]string{"Column1", "Column2"}, nil))

	if !strings.Contains(plain, "Column1") {
		t.Error("Expected table to contain header even with no rows")
	}
}

func TestRenderTable_UnevenRows(t *testing.T) {
	headers := []string{"A", "B", "C"}
	rows := [][]string{
		{"1", "2"},
		{"3", "4", "5"},
		{"6", "7", "8", "9"},
	}

	plain := ansi.Strip(RenderTable(headers, rows))

	if strings.Contains(plain, "9") {
		t.Error("Expected cells beyond the headers to be dropped")
	}
}

func TestTruncateLines(t *testing.T) {
	lines := []string{
		strings.Repeat("x", 100),
		"short",
		lipgloss.NewStyle().Bold(true).Render(strings.Repeat("y", 50)),
	}

	got := TruncateLines(lines, 30)

	if len(got) != len(lines) {
		t.Fatalf("Expected %d lines, got %d", len(lines), len(got))
	}
	for i, l := range got {
		if w := ansi.StringWidth(l); w > 30 {
			t.Errorf("Line %d is %d cells wide, want at most 30", i, w)
		}
	}
	if got[1] != "short" {
		t.Errorf("Expected short line unchanged, got %q", got[1])
	}

	if same := TruncateLines(lines, 0); len(same[0]) != 100 {
		t.Error("Expected width 0 to leave lines untouched")
	}
}

func TestPaneSize(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		minW, minH    int
	}{
		{"Normal", 120, 40, 100, 25},
		{"Tiny", 10, 5, 20, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := PaneSize(tt.width, tt.height)
			if w < tt.minW || h < tt.minH {
				t.Errorf("PaneSize(%d, %d) = %d, %d; want at least %d, %d", tt.width, tt.height, w, h, tt.minW, tt.minH)
			}
		})
	}
}
