package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/petergi/segysak-cli/internal/operations"
	"github.com/petergi/segysak-cli/internal/segy/segytest"
)

// run executes the CLI and returns the exit code with captured output.
func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("SEGYSAK_CONFIG", "")
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()
	if cmd.Name() != Name {
		t.Errorf("expected command name %q, got %s", Name, cmd.Name())
	}

	for _, name := range []string{"scan", "ebcidc", "convert", "browse", "completion"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Errorf("expected subcommand %s", name)
		}
	}
}

func TestRootFlags_Defaults(t *testing.T) {
	cmd := NewRootCmd()

	format, _ := cmd.PersistentFlags().GetString("format")
	if format != "text" {
		t.Errorf("expected default format 'text', got %s", format)
	}

	color, _ := cmd.PersistentFlags().GetBool("color")
	if !color {
		t.Error("expected default color to be true")
	}

	if f := cmd.PersistentFlags().ShorthandLookup("v"); f == nil || f.Name != "verbose" {
		t.Error("expected -v to be the verbose shorthand")
	}
}

func TestRun_Help(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
	}{
		{"short", []string{"-h"}},
		{"long", []string{"--help"}},
		{"subcommand", []string{"scan", "--help"}},
		{"unknown subcommand", []string{"bogus", "-h"}},
		{"missing file", []string{"scan", filepath.Join(dir, "missing.sgy"), "-h"}},
		{"unknown flag", []string{"convert", "--bogus", "-h"}},
		{"help first", []string{"-h", "convert"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, _ := run(t, tt.args...)
			if code != int(ExitSuccess) {
				t.Errorf("expected exit 0, got %d", code)
			}
			if !strings.Contains(stdout, "Usage:") {
				t.Errorf("expected usage on stdout, got %q", stdout)
			}
		})
	}
}

func TestRun_Version(t *testing.T) {
	old := Version
	Version = "1.2.3"
	defer func() { Version = old }()

	code, stdout, stderr := run(t, "--version")
	if code != int(ExitSuccess) {
		t.Errorf("expected exit 0, got %d (stderr %q)", code, stderr)
	}
	if stdout != "segysak 1.2.3\n" {
		t.Errorf("expected exact version line, got %q", stdout)
	}
}

func TestRun_NoArgs(t *testing.T) {
	code, stdout, stderr := run(t)
	if code != int(ExitUsage) {
		t.Errorf("expected exit %d, got %d", ExitUsage, code)
	}
	if stdout != "" {
		t.Errorf("expected nothing on stdout, got %q", stdout)
	}
	if !strings.Contains(stderr, "no input file") || !strings.Contains(stderr, "Usage:") {
		t.Errorf("expected usage error on stderr, got %q", stderr)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	code, _, stderr := run(t, "scann", "survey.sgy")
	if code != int(ExitUsage) {
		t.Errorf("expected exit %d, got %d", ExitUsage, code)
	}
	if !strings.Contains(stderr, `unknown command "scann"`) {
		t.Errorf("expected unknown command error, got %q", stderr)
	}
	if !strings.Contains(stderr, "scan") {
		t.Errorf("expected suggestion, got %q", stderr)
	}
}

func TestRun_MissingFile(t *testing.T) {
	called := false
	old := runBrowser
	runBrowser = func(ctx context.Context, path string, opts ...tea.ProgramOption) error {
		called = true
		return nil
	}
	defer func() { runBrowser = old }()

	missing := filepath.Join(t.TempDir(), "missing.sgy")
	for _, sub := range []string{"scan", "ebcidc", "convert", "browse"} {
		t.Run(sub, func(t *testing.T) {
			code, stdout, stderr := run(t, sub, missing)
			if code != int(ExitUsage) {
				t.Errorf("expected exit %d, got %d", ExitUsage, code)
			}
			if stdout != "" {
				t.Errorf("expected no report, got %q", stdout)
			}
			if !strings.Contains(stderr, missing) {
				t.Errorf("expected error naming the path, got %q", stderr)
			}
		})
	}

	if called {
		t.Error("expected browser not to start for a missing file")
	}
	if _, err := os.Stat(strings.TrimSuffix(missing, ".sgy") + ".seisnc"); !os.IsNotExist(err) {
		t.Error("expected no conversion output for a missing file")
	}
}

func TestRun_WrongArgCount(t *testing.T) {
	path := segytest.Write(t, t.TempDir(), "cube.sgy", segytest.DefaultCube())

	code, _, _ := run(t, "scan", path, path)
	if code != int(ExitUsage) {
		t.Errorf("expected exit %d for two files, got %d", ExitUsage, code)
	}

	code, _, stderr := run(t, "scan")
	if code != int(ExitUsage) || !strings.Contains(stderr, "no input file") {
		t.Errorf("expected no input file error, got %d %q", code, stderr)
	}
}

func TestRun_Scan(t *testing.T) {
	path := segytest.Write(t, t.TempDir(), "cube.sgy", segytest.DefaultCube())

	code, stdout, stderr := run(t, "scan", path, "--color=false")
	if code != int(ExitSuccess) {
		t.Fatalf("expected exit 0, got %d (stderr %q)", code, stderr)
	}
	for _, want := range []string{"Trace Header Scan", "Traces: 20", "INLINE_3D", "25%"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in report:\n%s", want, stdout)
		}
	}
}

func TestRun_ScanJSON(t *testing.T) {
	path := segytest.Write(t, t.TempDir(), "cube.sgy", segytest.DefaultCube())

	code, stdout, stderr := run(t, "scan", path, "--format", "json", "-m", "5", "--nonzero")
	if code != int(ExitSuccess) {
		t.Fatalf("expected exit 0, got %d (stderr %q)", code, stderr)
	}

	var report operations.ScanReport
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("failed to parse JSON output: %v\n%s", err, stdout)
	}
	if report.TracesScanned != 5 {
		t.Errorf("expected 5 traces scanned, got %d", report.TracesScanned)
	}
	for _, f := range report.Fields {
		if !f.NonZero() {
			t.Errorf("expected only non-zero fields, got %s", f.Name)
		}
	}
}

func TestRun_ScanConfig(t *testing.T) {
	dir := t.TempDir()
	path := segytest.Write(t, dir, "cube.sgy", segytest.DefaultCube())
	cfg := filepath.Join(dir, "segysak.yaml")
	if err := os.WriteFile(cfg, []byte("output:\n  format: json\nscan:\n  max_traces: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	code, stdout, stderr := run(t, "--config", cfg, "scan", path)
	if code != int(ExitSuccess) {
		t.Fatalf("expected exit 0, got %d (stderr %q)", code, stderr)
	}
	var report operations.ScanReport
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("expected JSON from config format: %v", err)
	}
	if report.TracesScanned != 3 {
		t.Errorf("expected max_traces from config, got %d", report.TracesScanned)
	}

	// Flags win over the config file.
	code, stdout, _ = run(t, "--config", cfg, "scan", path, "-m", "4", "-f", "yaml")
	if code != int(ExitSuccess) || !strings.Contains(stdout, "traces_scanned: 4") {
		t.Errorf("expected flags to override config, got %d:\n%s", code, stdout)
	}
}

func TestRun_BadConfig(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(cfg, []byte("convert:\n  dimension: sideways\n"), 0644); err != nil {
		t.Fatal(err)
	}

	code, _, stderr := run(t, "--config", cfg, "scan", cfg)
	if code != int(ExitUsage) || !strings.Contains(stderr, "invalid config") {
		t.Errorf("expected config error, got %d %q", code, stderr)
	}
}

func TestRun_DataError(t *testing.T) {
	junk := filepath.Join(t.TempDir(), "junk.sgy")
	if err := os.WriteFile(junk, []byte("not seismic"), 0644); err != nil {
		t.Fatal(err)
	}

	code, _, stderr := run(t, "scan", junk)
	if code != int(ExitDataError) {
		t.Errorf("expected exit %d, got %d (%q)", ExitDataError, code, stderr)
	}
}

func TestRun_ErrorJSON(t *testing.T) {
	code, _, stderr := run(t, "--format", "json", "scan", filepath.Join(t.TempDir(), "missing.sgy"))
	if code != int(ExitUsage) {
		t.Errorf("expected exit %d, got %d", ExitUsage, code)
	}

	var parsed struct {
		Error struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(stderr), &parsed); err != nil {
		t.Fatalf("expected JSON error, got %q: %v", stderr, err)
	}
	if parsed.Error.Code != int(ExitUsage) || parsed.Error.Message == "" {
		t.Errorf("unexpected error object %+v", parsed.Error)
	}
}

func TestRun_Ebcidc(t *testing.T) {
	path := segytest.Write(t, t.TempDir(), "cube.sgy", segytest.DefaultCube())

	code, stdout, stderr := run(t, "ebcidc", path, "--raw")
	if code != int(ExitSuccess) {
		t.Fatalf("expected exit 0, got %d (stderr %q)", code, stderr)
	}
	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	if len(lines) != 40 {
		t.Fatalf("expected 40 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "C 1 SYNTHETIC CUBE") {
		t.Errorf("unexpected first line %q", lines[0])
	}

	code, stdout, _ = run(t, "ebcidc", path, "--color=false")
	if code != int(ExitSuccess) || !strings.Contains(stdout, "Encoding: ebcdic") {
		t.Errorf("expected styled header report, got %d:\n%s", code, stdout)
	}
}

func TestRun_ConvertRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := segytest.Write(t, dir, "cube.sgy", segytest.DefaultCube())

	code, stdout, stderr := run(t, "convert", path, "--progress", "none", "--color=false")
	if code != int(ExitSuccess) {
		t.Fatalf("expected exit 0, got %d (stderr %q)", code, stderr)
	}
	nc := filepath.Join(dir, "cube.seisnc")
	if _, err := os.Stat(nc); err != nil {
		t.Fatalf("expected NetCDF output: %v", err)
	}
	if !strings.Contains(stdout, "Output Type: NETCDF") || !strings.Contains(stdout, "iline=5") {
		t.Errorf("unexpected conversion report:\n%s", stdout)
	}

	back := filepath.Join(dir, "back.sgy")
	code, stdout, stderr = run(t, "convert", nc, "-o", back, "--output-type", "SEGY", "-f", "json")
	if code != int(ExitSuccess) {
		t.Fatalf("expected exit 0, got %d (stderr %q)", code, stderr)
	}

	var summary conversionSummary
	if err := json.Unmarshal([]byte(stdout), &summary); err != nil {
		t.Fatalf("failed to parse JSON output: %v\n%s", err, stdout)
	}
	if summary.Total != 1 || summary.Succeeded != 1 || summary.Results[0].Traces != 20 {
		t.Errorf("unexpected summary %+v", summary)
	}

	code, stdout, _ = run(t, "scan", back, "-f", "json")
	if code != int(ExitSuccess) || !strings.Contains(stdout, `"traces": 20`) {
		t.Errorf("expected round-tripped file to scan, got %d:\n%s", code, stdout)
	}
}

func TestRun_ConvertDirectory(t *testing.T) {
	dir := t.TempDir()
	segytest.Write(t, dir, "a.sgy", segytest.DefaultCube())
	segytest.Write(t, dir, "b.sgy", segytest.DefaultCube())
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0644); err != nil {
		t.Fatal(err)
	}

	code, stdout, stderr := run(t, "convert", dir, "--jobs", "2", "--progress", "simple", "-f", "json")
	if code != int(ExitSuccess) {
		t.Fatalf("expected exit 0, got %d (stderr %q)", code, stderr)
	}

	var summary conversionSummary
	if err := json.Unmarshal([]byte(stdout), &summary); err != nil {
		t.Fatalf("failed to parse JSON output: %v\n%s", err, stdout)
	}
	if summary.Total != 2 || summary.Succeeded != 2 {
		t.Errorf("expected 2 conversions, got %+v", summary)
	}
	for _, name := range []string{"a.seisnc", "b.seisnc"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
}

func TestRun_ConvertOutputConflicts(t *testing.T) {
	dir := t.TempDir()
	segytest.Write(t, dir, "survey.sgy", segytest.DefaultCube())
	segytest.Write(t, dir, "survey.segy", segytest.DefaultCube())

	code, _, stderr := run(t, "convert", dir, "--progress", "none")
	if code != int(ExitUsage) || !strings.Contains(stderr, "survey.seisnc") {
		t.Errorf("expected usage error naming the shared output, got %d %q", code, stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "survey.seisnc")); !os.IsNotExist(err) {
		t.Error("expected nothing converted")
	}

	// A second run over a directory holding earlier outputs.
	rerun := t.TempDir()
	segytest.Write(t, rerun, "a.sgy", segytest.DefaultCube())
	segytest.Write(t, rerun, "b.segy", segytest.DefaultCube())
	if code, _, stderr := run(t, "convert", rerun, "--progress", "none"); code != int(ExitSuccess) {
		t.Fatalf("expected first run to succeed, got %d %q", code, stderr)
	}
	code, _, stderr = run(t, "convert", rerun, "--progress", "none")
	if code != int(ExitUsage) || !strings.Contains(stderr, "overwrite") {
		t.Errorf("expected usage error for outputs picked up as inputs, got %d %q", code, stderr)
	}
	code, _, stderr = run(t, "convert", rerun, "--progress", "none", "--ignore", "*.seisnc")
	if code != int(ExitSuccess) {
		t.Errorf("expected --ignore to resolve the conflict, got %d %q", code, stderr)
	}
}

func TestRun_ConvertFailures(t *testing.T) {
	dir := t.TempDir()
	good := segytest.Write(t, dir, "good.sgy", segytest.DefaultCube())
	junk := filepath.Join(dir, "junk.sgy")
	if err := os.WriteFile(junk, []byte("not seismic"), 0644); err != nil {
		t.Fatal(err)
	}

	code, _, _ := run(t, "convert", junk, "--progress", "none")
	if code != int(ExitDataError) {
		t.Errorf("expected exit %d for a corrupt input, got %d", ExitDataError, code)
	}

	code, _, stderr := run(t, "convert", good, junk, "--progress", "none")
	if code != int(ExitFailure) || !strings.Contains(stderr, "1 of 2") {
		t.Errorf("expected partial failure, got %d %q", code, stderr)
	}

	code, _, _ = run(t, "convert", good, junk, "-o", filepath.Join(dir, "out.seisnc"))
	if code != int(ExitUsage) {
		t.Errorf("expected usage error for -o with two inputs, got %d", code)
	}

	code, _, _ = run(t, "convert", good, "--crop", "1,2,3")
	if code != int(ExitUsage) {
		t.Errorf("expected usage error for a short crop, got %d", code)
	}

	code, _, _ = run(t, "convert", good, "--sample-format", "ibm64")
	if code != int(ExitUsage) {
		t.Errorf("expected usage error for a bad sample format, got %d", code)
	}
}

func TestRun_Report(t *testing.T) {
	dir := t.TempDir()
	path := segytest.Write(t, dir, "cube.sgy", segytest.DefaultCube())
	report := filepath.Join(dir, "reports", "scan.md")

	code, stdout, stderr := run(t, "scan", path, "--format", "markdown", "--report", report)
	if code != int(ExitSuccess) {
		t.Fatalf("expected exit 0, got %d (stderr %q)", code, stderr)
	}
	if stdout != "" {
		t.Errorf("expected nothing on stdout, got %q", stdout)
	}
	data, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("expected report file: %v", err)
	}
	if !strings.HasPrefix(string(data), "# Trace Header Scan") {
		t.Errorf("unexpected report content:\n%s", data)
	}
}

func TestRun_Browse(t *testing.T) {
	path := segytest.Write(t, t.TempDir(), "cube.sgy", segytest.DefaultCube())

	var got string
	old := runBrowser
	runBrowser = func(ctx context.Context, p string, opts ...tea.ProgramOption) error {
		got = p
		return nil
	}
	defer func() { runBrowser = old }()

	code, _, stderr := run(t, "browse", path)
	if code != int(ExitSuccess) {
		t.Fatalf("expected exit 0, got %d (stderr %q)", code, stderr)
	}
	if got != path {
		t.Errorf("expected browser for %s, got %q", path, got)
	}
}

func TestWantsHelp(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"-h"}, true},
		{[]string{"scan", "x.sgy", "--help"}, true},
		{[]string{"scan", "--", "-h"}, false},
		{[]string{"scan", "x.sgy"}, false},
	}

	for _, tt := range tests {
		if got := wantsHelp(tt.args); got != tt.want {
			t.Errorf("wantsHelp(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}
