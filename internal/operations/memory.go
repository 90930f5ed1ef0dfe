package operations

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/docker/go-units"
	"github.com/shirou/gopsutil/v3/mem"
)

// ErrInsufficientMemory is returned when a cube does not fit in the memory
// currently available to the host.
var ErrInsufficientMemory = errors.New("insufficient memory")

// availableMemory is replaced in tests.
var availableMemory = func() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.Available, nil
}

func checkMemory(need uint64) error {
	avail, err := availableMemory()
	if err != nil {
		slog.Warn("memory check failed, skipping", "error", err)
		return nil
	}
	slog.Debug("memory check", "need", units.BytesSize(float64(need)), "available", units.BytesSize(float64(avail)))
	if need > avail {
		return fmt.Errorf("%w: cube needs %s but only %s is available", ErrInsufficientMemory,
			units.BytesSize(float64(need)), units.BytesSize(float64(avail)))
	}
	return nil
}

// cubeBytes estimates the memory held while converting: the float32 samples
// plus two float64 coordinate grids.
func cubeBytes(cells, samples int) uint64 {
	return uint64(cells)*uint64(samples)*4 + uint64(cells)*16
}
