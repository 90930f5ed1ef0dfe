package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/petergi/segysak-cli/internal/netcdf"
	"github.com/petergi/segysak-cli/internal/operations"
	"github.com/petergi/segysak-cli/internal/segy"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ExitCode
	}{
		{"nil", nil, ExitSuccess},
		{"usage", NewCLIError(ExitUsage, "bad flag"), ExitUsage},
		{"wrapped usage", fmt.Errorf("outer: %w", NewCLIError(ExitUsage, "bad flag")), ExitUsage},
		{"invalid segy", fmt.Errorf("scan failed: %w", segy.ErrInvalidFile), ExitDataError},
		{"not netcdf", netcdf.ErrNotNetCDF, ExitDataError},
		{"geometry", fmt.Errorf("x: %w", operations.ErrGeometry), ExitDataError},
		{"unknown direction", operations.ErrUnknownDirection, ExitDataError},
		{"field range", fmt.Errorf("trace 1: %w", segy.ErrFieldRange), ExitDataError},
		{"io", os.ErrPermission, ExitFailure},
		{"canceled", context.Canceled, ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestCLIError(t *testing.T) {
	inner := errors.New("no such file")
	err := WrapCLIError(ExitUsage, "cannot read a.sgy", inner)

	if err.Error() != "cannot read a.sgy: no such file" {
		t.Errorf("Unexpected message %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("Expected CLIError to unwrap to its cause")
	}
	if NewCLIError(ExitFailure, "boom").Error() != "boom" {
		t.Error("Expected bare message without a cause")
	}
}

func TestPrintError(t *testing.T) {
	err := WrapCLIError(ExitUsage, "cannot read a.sgy", errors.New("no such file"))

	var text bytes.Buffer
	printError(&text, false, err)
	if text.String() != "Error: cannot read a.sgy: no such file\n" {
		t.Errorf("Unexpected text error %q", text.String())
	}

	var js bytes.Buffer
	printError(&js, true, err)
	var parsed map[string]map[string]any
	if err := json.Unmarshal(js.Bytes(), &parsed); err != nil {
		t.Fatalf("Expected JSON error: %v", err)
	}
	obj := parsed["error"]
	if obj["message"] != "cannot read a.sgy" || obj["detail"] != "no such file" || obj["code"] != float64(ExitUsage) {
		t.Errorf("Unexpected JSON error %v", obj)
	}

	var plain bytes.Buffer
	printError(&plain, true, segy.ErrInvalidFile)
	if !strings.Contains(plain.String(), `"code": 3`) {
		t.Errorf("Expected data error code in JSON:\n%s", plain.String())
	}
}
