package operations

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/petergi/segysak-cli/internal/segy"
)

// ErrGeometry reports traces that cannot be placed on a regular grid.
var ErrGeometry = errors.New("irregular trace geometry")

// ByteLocations are the 1-based trace header byte locations used to place
// traces on the output grid.
type ByteLocations struct {
	Iline int `json:"iline" yaml:"iline"`
	Xline int `json:"xline" yaml:"xline"`
	CDPX  int `json:"cdp_x" yaml:"cdp_x"`
	CDPY  int `json:"cdp_y" yaml:"cdp_y"`
	CDP   int `json:"cdp" yaml:"cdp"`
}

// DefaultByteLocations returns the SEG-Y rev1 locations.
func DefaultByteLocations() ByteLocations {
	return ByteLocations{
		Iline: segy.ByteInline,
		Xline: segy.ByteCrossline,
		CDPX:  segy.ByteCDPX,
		CDPY:  segy.ByteCDPY,
		CDP:   segy.ByteCDP,
	}
}

// Validate checks every location fits inside a trace header.
func (b ByteLocations) Validate() error {
	h := segy.NewTraceHeader(nil)
	for _, loc := range []struct {
		name string
		at   int
	}{
		{"iline", b.Iline},
		{"xline", b.Xline},
		{"cdp-x", b.CDPX},
		{"cdp-y", b.CDPY},
		{"cdp", b.CDP},
	} {
		if _, err := h.Get(loc.at); err != nil {
			return fmt.Errorf("%s: %w", loc.name, err)
		}
	}
	return nil
}

// Crop limits a cube to inclusive inline and crossline ranges.
type Crop struct {
	MinIline int32 `json:"min_iline" yaml:"min_iline"`
	MaxIline int32 `json:"max_iline" yaml:"max_iline"`
	MinXline int32 `json:"min_xline" yaml:"min_xline"`
	MaxXline int32 `json:"max_xline" yaml:"max_xline"`
}

// ParseCrop builds a Crop from minil, maxil, minxl, maxxl.
func ParseCrop(vals []int) (*Crop, error) {
	if len(vals) == 0 {
		return nil, nil
	}
	if len(vals) != 4 {
		return nil, fmt.Errorf("crop needs 4 values (minil maxil minxl maxxl), got %d", len(vals))
	}
	c := &Crop{
		MinIline: int32(vals[0]),
		MaxIline: int32(vals[1]),
		MinXline: int32(vals[2]),
		MaxXline: int32(vals[3]),
	}
	if c.MinIline > c.MaxIline || c.MinXline > c.MaxXline {
		return nil, fmt.Errorf("crop range is empty: inlines %d-%d, crosslines %d-%d", c.MinIline, c.MaxIline, c.MinXline, c.MaxXline)
	}
	return c, nil
}

// Contains reports whether (il, xl) lies inside the crop. A nil Crop
// contains everything.
func (c *Crop) Contains(il, xl int32) bool {
	if c == nil {
		return true
	}
	return il >= c.MinIline && il <= c.MaxIline && xl >= c.MinXline && xl <= c.MaxXline
}

type gridKey struct {
	il, xl int32
}

// geometry places source traces on a dense grid. For 2D lines ilines holds
// the cdp numbers and xlines is empty.
type geometry struct {
	ilines []int32
	xlines []int32
	traces []int // source trace index
	cells  []int // flat grid cell of each entry in traces
}

func (g *geometry) twoD() bool {
	return len(g.xlines) == 0
}

func (g *geometry) size() int {
	if g.twoD() {
		return len(g.ilines)
	}
	return len(g.ilines) * len(g.xlines)
}

func scanGeometry(ctx context.Context, f *segy.File, locs ByteLocations, crop *Crop, twoD bool) (*geometry, error) {
	keys := make([]gridKey, 0, f.NumTraces)
	g := &geometry{traces: make([]int, 0, f.NumTraces)}

	for i := 0; i < f.NumTraces; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		h, err := f.TraceHeader(i)
		if err != nil {
			return nil, err
		}

		var key gridKey
		if twoD {
			if key.il, err = h.Get(locs.CDP); err != nil {
				return nil, err
			}
		} else {
			if key.il, err = h.Get(locs.Iline); err != nil {
				return nil, err
			}
			if key.xl, err = h.Get(locs.Xline); err != nil {
				return nil, err
			}
			if !crop.Contains(key.il, key.xl) {
				continue
			}
		}
		keys = append(keys, key)
		g.traces = append(g.traces, i)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no traces to place on the grid", ErrGeometry)
	}

	ilPos := make(map[int32]int)
	xlPos := make(map[int32]int)
	for _, k := range keys {
		ilPos[k.il] = 0
		if !twoD {
			xlPos[k.xl] = 0
		}
	}
	g.ilines = sortedKeys(ilPos)
	g.xlines = sortedKeys(xlPos)

	seen := make(map[gridKey]int, len(keys))
	g.cells = make([]int, len(keys))
	for i, k := range keys {
		if prev, dup := seen[k]; dup {
			if twoD {
				return nil, fmt.Errorf("%w: traces %d and %d share cdp %d", ErrGeometry, prev, g.traces[i], k.il)
			}
			return nil, fmt.Errorf("%w: traces %d and %d share inline %d crossline %d", ErrGeometry, prev, g.traces[i], k.il, k.xl)
		}
		seen[k] = g.traces[i]
		if twoD {
			g.cells[i] = ilPos[k.il]
		} else {
			g.cells[i] = ilPos[k.il]*len(g.xlines) + xlPos[k.xl]
		}
	}
	return g, nil
}

// sortedKeys returns the keys of m in ascending order and stores each key's
// position back into m.
func sortedKeys(m map[int32]int) []int32 {
	keys := make([]int32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for i, k := range keys {
		m[k] = i
	}
	return keys
}
