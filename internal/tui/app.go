package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/petergi/segysak-cli/internal/segy"
	"github.com/petergi/segysak-cli/internal/tui/styles"
)

// Pane is one of the header views of the browser.
type Pane int

const (
	PaneText Pane = iota
	PaneBinary
	PaneTrace
)

var paneNames = []string{"Textual Header", "Binary Header", "Trace Header"}

func (p Pane) String() string {
	if p < 0 || int(p) >= len(paneNames) {
		return "Unknown"
	}
	return paneNames[p]
}

// App is the header browser for one SEG-Y file.
type App struct {
	path     string
	file     *segy.File
	pane     Pane
	trace    int
	width    int
	height   int
	viewport viewport.Model
	keys     keyMap
	err      error
}

// NewApp opens path and returns a browser showing its textual header. The
// caller closes the file with Close.
func NewApp(path string) (App, error) {
	f, err := segy.Open(path)
	if err != nil {
		return App{}, err
	}
	return NewAppFromFile(path, f), nil
}

// NewAppFromFile returns a browser over an already open file.
func NewAppFromFile(path string, f *segy.File) App {
	a := App{
		path:   path,
		file:   f,
		width:  80,
		height: 24,
		keys:   defaultKeyMap(),
	}
	w, h := styles.PaneSize(a.width, a.height)
	a.viewport = viewport.New(w, h)
	a.refresh()
	return a
}

// Close closes the underlying file.
func (a App) Close() error {
	return a.file.Close()
}

// Init initializes the application
func (a App) Init() tea.Cmd {
	return nil
}

// Update handles key presses and window resizes
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.viewport.Width, a.viewport.Height = styles.PaneSize(a.width, a.height)
		a.refresh()
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, a.keys.NextPane):
			a.pane = (a.pane + 1) % Pane(len(paneNames))
			a.refreshTop()
			return a, nil
		case key.Matches(msg, a.keys.PrevPane):
			a.pane = (a.pane + Pane(len(paneNames)) - 1) % Pane(len(paneNames))
			a.refreshTop()
			return a, nil
		case key.Matches(msg, a.keys.Next):
			a.moveTo(a.trace + 1)
			return a, nil
		case key.Matches(msg, a.keys.Prev):
			a.moveTo(a.trace - 1)
			return a, nil
		case key.Matches(msg, a.keys.First):
			a.moveTo(0)
			return a, nil
		case key.Matches(msg, a.keys.Last):
			a.moveTo(a.file.NumTraces - 1)
			return a, nil
		}
	}

	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

// moveTo selects trace i, clamped to the file. The trace pane is shown.
func (a *App) moveTo(i int) {
	if a.file.NumTraces == 0 {
		return
	}
	i = max(0, min(i, a.file.NumTraces-1))
	a.trace = i
	a.pane = PaneTrace
	a.refresh()
}

func (a *App) refreshTop() {
	a.refresh()
	a.viewport.GotoTop()
}

// refresh renders the active pane into the viewport.
func (a *App) refresh() {
	var lines []string
	a.err = nil
	switch a.pane {
	case PaneText:
		lines = a.textLines()
	case PaneBinary:
		lines = strings.Split(a.binaryTable(), "\n")
	case PaneTrace:
		content, err := a.traceTable()
		if err != nil {
			a.err = err
		}
		lines = strings.Split(content, "\n")
	}
	a.viewport.SetContent(strings.Join(styles.TruncateLines(lines, a.viewport.Width), "\n"))
}

func (a *App) textLines() []string {
	lines := append([]string(nil), a.file.Text.Lines()...)
	for i, ext := range a.file.Extended {
		lines = append(lines, "", fmt.Sprintf("Extended header %d", i+1))
		lines = append(lines, ext.Lines()...)
	}
	return lines
}

func (a *App) binaryTable() string {
	b := a.file.Binary
	rows := [][]string{
		{"3201", "JobID", strconv.Itoa(int(b.JobID))},
		{"3205", "LineNumber", strconv.Itoa(int(b.LineNumber))},
		{"3209", "ReelNumber", strconv.Itoa(int(b.ReelNumber))},
		{"3213", "TracesPerEnsemble", strconv.Itoa(int(b.TracesPerEnsemble))},
		{"3215", "AuxTracesPerEnsemble", strconv.Itoa(int(b.AuxTracesPerEnsemble))},
		{"3217", "SampleInterval", strconv.Itoa(int(b.SampleInterval))},
		{"3219", "SampleIntervalOriginal", strconv.Itoa(int(b.SampleIntervalOriginal))},
		{"3221", "SamplesPerTrace", strconv.Itoa(int(b.SamplesPerTrace))},
		{"3223", "SamplesPerTraceOriginal", strconv.Itoa(int(b.SamplesPerTraceOrig))},
		{"3225", "SampleFormat", fmt.Sprintf("%d (%s)", int(b.Format), b.Format)},
		{"3227", "EnsembleFold", strconv.Itoa(int(b.EnsembleFold))},
		{"3229", "TraceSorting", strconv.Itoa(int(b.TraceSorting))},
		{"3255", "MeasurementSystem", strconv.Itoa(int(b.MeasurementSystem))},
		{"3501", "Revision", b.RevisionString()},
		{"3503", "FixedLengthTraces", strconv.Itoa(int(b.FixedLengthTraces))},
		{"3505", "ExtendedHeaders", strconv.Itoa(int(b.ExtendedHeaders))},
	}
	return styles.RenderTable([]string{"Byte", "Field", "Value"}, rows)
}

func (a *App) traceTable() (string, error) {
	if a.file.NumTraces == 0 {
		return "File has no traces.", nil
	}
	h, err := a.file.TraceHeader(a.trace)
	if err != nil {
		return "", err
	}
	rows := make([][]string, 0, len(segy.TraceHeaderFields))
	for _, f := range segy.TraceHeaderFields {
		v, err := h.Get(f.Byte)
		if err != nil {
			return "", err
		}
		rows = append(rows, []string{strconv.Itoa(f.Byte), f.Name, strconv.Itoa(int(v))})
	}
	return styles.RenderTable([]string{"Byte", "Field", "Value"}, rows), nil
}

// View renders the title, pane tabs, active pane, status and help lines.
func (a App) View() string {
	var b strings.Builder

	b.WriteString(styles.RenderTitle("segysak browse " + a.path))
	b.WriteString("\n")
	b.WriteString(styles.RenderTabs(paneNames, int(a.pane)))
	b.WriteString("\n")
	b.WriteString(styles.PaneStyle.Render(a.viewport.View()))
	b.WriteString("\n")

	if a.err != nil {
		b.WriteString(styles.RenderError(a.err.Error()))
	} else {
		b.WriteString(styles.StatusStyle.Render(a.status()))
	}
	b.WriteString("\n")
	b.WriteString(a.help())

	return b.String()
}

func (a App) status() string {
	bin := a.file.Binary
	parts := []string{
		fmt.Sprintf("trace %d/%d", min(a.trace+1, a.file.NumTraces), a.file.NumTraces),
		fmt.Sprintf("%d samples", a.file.Samples),
		bin.Format.String(),
		"rev " + bin.RevisionString(),
	}
	if a.viewport.TotalLineCount() > a.viewport.Height {
		parts = append(parts, fmt.Sprintf("%3.0f%%", a.viewport.ScrollPercent()*100))
	}
	return strings.Join(parts, " "+styles.IconBullet+" ")
}

func (a App) help() string {
	bindings := a.keys.short()
	parts := make([]string, 0, len(bindings)+1)
	for _, k := range bindings {
		h := k.Help()
		parts = append(parts, styles.RenderKeyBinding(h.Key, h.Desc))
	}
	parts = append(parts, styles.RenderKeyBinding("↑/↓", "scroll"))
	return strings.Join(parts, "  ")
}

// Run starts the browser for path and blocks until the user quits.
func Run(ctx context.Context, path string, opts ...tea.ProgramOption) error {
	app, err := NewApp(path)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(app, opts...)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}

	return nil
}
