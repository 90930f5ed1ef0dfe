package operations

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/petergi/segysak-cli/internal/segy/segytest"
)

func TestDefaultBatchConfig(t *testing.T) {
	config := DefaultBatchConfig()

	if config.NumWorkers != runtime.NumCPU() {
		t.Errorf("Expected NumWorkers to be %d, got %d", runtime.NumCPU(), config.NumWorkers)
	}

	if config.QueueSize != 100 {
		t.Errorf("Expected QueueSize to be 100, got %d", config.QueueSize)
	}

	if config.ProgressRate != 100*time.Millisecond {
		t.Errorf("Expected ProgressRate to be 100ms, got %v", config.ProgressRate)
	}

	if config.Timeout != 10*time.Minute {
		t.Errorf("Expected Timeout to be 10m, got %v", config.Timeout)
	}
}

func TestNewBatchProcessor(t *testing.T) {
	config := DefaultBatchConfig()
	config.NumWorkers = 0
	opts := DefaultConvertOptions()
	opts.OutputPath = "ignored.seisnc"
	bp := NewBatchProcessor(context.Background(), config, opts)

	if bp.config.NumWorkers != 1 {
		t.Errorf("Expected NumWorkers to be raised to 1, got %d", bp.config.NumWorkers)
	}

	if bp.opts.OutputPath != "" {
		t.Errorf("Expected OutputPath to be cleared, got %q", bp.opts.OutputPath)
	}

	if bp.taskQueue == nil || bp.resultQueue == nil || bp.progressCh == nil {
		t.Error("Expected queues to be initialized")
	}
}

func TestBatchProcessor_Cancel(t *testing.T) {
	bp := NewBatchProcessor(context.Background(), DefaultBatchConfig(), DefaultConvertOptions())

	bp.Cancel()

	select {
	case <-bp.ctx.Done():
	case <-time.After(100 * time.Millisecond):
		t.Error("Expected context to be done after cancel")
	}
}

func TestFindFiles(t *testing.T) {
	tmpDir := t.TempDir()

	// root/
	//   line1.sgy
	//   cube.seisnc
	//   notes.txt
	//   subdir/
	//     line2.segy
	//     nested/
	//       line3.SGY

	if err := os.MkdirAll(filepath.Join(tmpDir, "subdir", "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		"line1.sgy",
		"cube.seisnc",
		"notes.txt",
		filepath.Join("subdir", "line2.segy"),
		filepath.Join("subdir", "nested", "line3.SGY"),
	} {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte("test"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name     string
		opts     FindFilesOptions
		expected int
	}{
		{"Recursive all", FindFilesOptions{Recursive: true, MaxDepth: -1}, 4},
		{"Non-recursive", FindFilesOptions{Recursive: false, MaxDepth: -1}, 2},
		{"Max depth 1", FindFilesOptions{Recursive: true, MaxDepth: 1}, 2},
		{"Extensions filter", FindFilesOptions{Recursive: true, MaxDepth: -1, Extensions: []string{".sgy"}}, 2},
		{"Extensions without dots", FindFilesOptions{Recursive: true, MaxDepth: -1, Extensions: []string{"seisnc"}}, 1},
		{"Ignore directory", FindFilesOptions{Recursive: true, MaxDepth: -1, Ignore: []string{"subdir"}}, 2},
		{"Ignore file pattern", FindFilesOptions{Recursive: true, MaxDepth: -1, Ignore: []string{"*.seisnc"}}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := FindFiles(tmpDir, tt.opts)
			if err != nil {
				t.Fatalf("FindFiles failed: %v", err)
			}
			if len(files) != tt.expected {
				t.Errorf("Expected %d files, got %d: %v", tt.expected, len(files), files)
			}
		})
	}
}

func TestBatchProcessor_Execute(t *testing.T) {
	dir := t.TempDir()
	first := segytest.Write(t, dir, "a.sgy", segytest.DefaultCube())
	missing := filepath.Join(dir, "missing.sgy")
	second := segytest.Write(t, dir, "b.sgy", segytest.DefaultCube())

	config := DefaultBatchConfig()
	config.NumWorkers = 2
	config.ProgressRate = 5 * time.Millisecond

	opts := DefaultConvertOptions()
	opts.CheckMemory = false
	bp := NewBatchProcessor(context.Background(), config, opts)
	results := bp.Execute([]string{first, missing, second})

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	for i, want := range []string{first, missing, second} {
		if results[i].FilePath != want {
			t.Errorf("Result %d: expected %s, got %s", i, want, results[i].FilePath)
		}
	}
	if results[0].Error != nil || results[2].Error != nil {
		t.Fatalf("Expected conversions to succeed, got %v and %v", results[0].Error, results[2].Error)
	}
	if !errors.Is(results[1].Error, os.ErrNotExist) {
		t.Errorf("Expected not-exist error for missing file, got %v", results[1].Error)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.seisnc")); err != nil {
		t.Errorf("Expected output file: %v", err)
	}

	br := AggregateResults(results, time.Second)
	if len(br.Succeeded) != 2 || len(br.Failed) != 1 || br.Total != 3 {
		t.Errorf("Unexpected aggregate: %d succeeded, %d failed, %d total", len(br.Succeeded), len(br.Failed), br.Total)
	}
}

func TestBatchProcessor_Execute_Canceled(t *testing.T) {
	config := DefaultBatchConfig()
	config.NumWorkers = 1
	config.QueueSize = 2

	bp := NewBatchProcessor(context.Background(), config, DefaultConvertOptions())
	bp.Cancel()

	results := bp.Execute([]string{"file1.sgy", "file2.sgy"})

	if len(results) != 0 {
		t.Fatalf("Expected no results after cancellation, got %d", len(results))
	}
}

func TestBatchProcessor_ReportProgress(t *testing.T) {
	config := DefaultBatchConfig()
	config.ProgressRate = 5 * time.Millisecond

	bp := NewBatchProcessor(context.Background(), config, DefaultConvertOptions())
	bp.total = 3
	bp.completed.Store(1)
	bp.currentFile.Store("line1.sgy")

	go bp.reportProgress()
	defer bp.Cancel()

	select {
	case update := <-bp.ProgressChannel():
		if update.Completed != 1 {
			t.Errorf("Expected completed to be 1, got %d", update.Completed)
		}
		if update.Total != 3 {
			t.Errorf("Expected total to be 3, got %d", update.Total)
		}
		if update.Current != "line1.sgy" {
			t.Errorf("Expected current to be line1.sgy, got %s", update.Current)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Expected progress update")
	}
}

func TestAggregateResults(t *testing.T) {
	results := []Result{
		{FilePath: "ok.sgy", Convert: &ConvertResult{Traces: 20}},
		{FilePath: "timeout.sgy", Error: context.DeadlineExceeded},
		{FilePath: "empty.sgy"},
	}

	br := AggregateResults(results, time.Second)

	if len(br.Succeeded) != 1 {
		t.Errorf("Expected 1 succeeded, got %d", len(br.Succeeded))
	}
	if len(br.Failed) != 2 {
		t.Errorf("Expected 2 failed, got %d", len(br.Failed))
	}
	if br.Duration != time.Second {
		t.Errorf("Expected duration 1s, got %v", br.Duration)
	}

	empty := AggregateResults(nil, 0)
	if empty.Total != 0 || len(empty.Succeeded) != 0 || len(empty.Failed) != 0 {
		t.Errorf("Expected empty aggregate, got %+v", empty)
	}
}
