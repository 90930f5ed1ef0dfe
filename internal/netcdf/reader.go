package netcdf

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	ncfile "github.com/batchatco/go-native-netcdf/netcdf"
)

const (
	tagDimension = 0x0A
	tagVariable  = 0x0B
	tagAttribute = 0x0C

	// maxHeaderItems bounds list lengths read from a header so corrupt files
	// fail fast instead of allocating.
	maxHeaderItems = 1 << 20
)

var order = binary.BigEndian

// ReadFile reads the dataset stored at path. The header is checked against
// the file size first, so a corrupt file fails with ErrNotNetCDF before any
// variable data is allocated.
func ReadFile(path string) (ds *Dataset, err error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := fh.Stat()
	if err != nil {
		_ = fh.Close()
		return nil, err
	}
	dims, err := checkHeader(fh, info.Size())
	_ = fh.Close()
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			ds, err = nil, fmt.Errorf("%w: %v", ErrNotNetCDF, r)
		}
	}()

	nc, err := ncfile.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotNetCDF, err)
	}
	defer nc.Close()

	ds = &Dataset{Dims: dims, Attrs: readAttributes(nc.Attributes())}
	for _, name := range nc.ListVariables() {
		v, err := nc.GetVariable(name)
		if err != nil {
			return nil, fmt.Errorf("%w: variable %s: %v", ErrNotNetCDF, name, err)
		}
		ds.Vars = append(ds.Vars, Variable{
			Name:  name,
			Dims:  v.Dimensions,
			Attrs: readAttributes(v.Attributes),
			Data:  flatten(v.Values),
		})
	}
	return ds, nil
}

type attrSource interface {
	Keys() []string
	Get(key string) (any, bool)
}

func readAttributes(m attrSource) []Attribute {
	if m == nil {
		return nil
	}
	var attrs []Attribute
	for _, k := range m.Keys() {
		if v, ok := m.Get(k); ok {
			attrs = append(attrs, Attribute{Name: k, Value: v})
		}
	}
	return attrs
}

// IsNetCDF reports whether b starts with a classic NetCDF magic number.
func IsNetCDF(b []byte) bool {
	return len(b) >= 4 && b[0] == 'C' && b[1] == 'D' && b[2] == 'F' && (b[3] == 1 || b[3] == 2 || b[3] == 5)
}

// checkHeader walks a CDF-1, CDF-2 or CDF-5 header and verifies every
// variable's data lies inside the size bytes of r. It returns the
// dimensions in file order.
func checkHeader(r io.ReaderAt, size int64) ([]Dimension, error) {
	hr := &headerReader{r: bufio.NewReader(io.NewSectionReader(r, 0, size))}

	magic := hr.bytes(4)
	if hr.err != nil || !IsNetCDF(magic) {
		return nil, fmt.Errorf("%w: bad magic number", ErrNotNetCDF)
	}
	hr.version = magic[3]

	var numrecs uint64
	if hr.version == 5 {
		numrecs = hr.u64()
	} else {
		numrecs = uint64(hr.u32())
	}
	if numrecs != 0 && numrecs != math.MaxUint32 && numrecs != math.MaxUint64 {
		return nil, fmt.Errorf("%w: record variables", ErrUnsupported)
	}

	tag, n := hr.list()
	if hr.err == nil && tag != 0 && tag != tagDimension {
		return nil, fmt.Errorf("%w: expected dimension list, found tag %#x", ErrNotNetCDF, tag)
	}
	var dims []Dimension
	for i := 0; i < n && hr.err == nil; i++ {
		name := hr.name()
		length := hr.nonNeg()
		if hr.err != nil {
			break
		}
		if length == 0 {
			return nil, fmt.Errorf("%w: record dimension %s", ErrUnsupported, name)
		}
		if length > math.MaxInt32 {
			return nil, fmt.Errorf("%w: dimension %s has length %d", ErrNotNetCDF, name, length)
		}
		dims = append(dims, Dimension{Name: name, Len: int(length)})
	}

	hr.skipAttrs()

	tag, n = hr.list()
	if hr.err == nil && tag != 0 && tag != tagVariable {
		return nil, fmt.Errorf("%w: expected variable list, found tag %#x", ErrNotNetCDF, tag)
	}
	for i := 0; i < n && hr.err == nil; i++ {
		name := hr.name()
		ndims := hr.count()
		shape := make([]int64, 0, ndims)
		for j := 0; j < ndims && hr.err == nil; j++ {
			id := hr.nonNeg()
			if hr.err == nil && id >= uint64(len(dims)) {
				return nil, fmt.Errorf("%w: variable %s references dimension %d", ErrNotNetCDF, name, id)
			}
			if hr.err == nil {
				shape = append(shape, int64(dims[id].Len))
			}
		}
		hr.skipAttrs()
		t := hr.u32()
		_ = hr.nonNeg() // vsize is recomputed from the shape
		var begin uint64
		if hr.version == 1 {
			begin = uint64(hr.u32())
		} else {
			begin = hr.u64()
		}
		if hr.err != nil {
			break
		}

		elem := typeSize(hr.version, t)
		if elem == 0 {
			return nil, fmt.Errorf("%w: variable %s has type %d", ErrNotNetCDF, name, t)
		}
		if !fits(begin, int64(elem), shape, size) {
			return nil, fmt.Errorf("%w: variable %s data is truncated", ErrNotNetCDF, name)
		}
	}
	if hr.err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrNotNetCDF, hr.err)
	}
	return dims, nil
}

// fits reports whether elem * product(shape) bytes starting at begin end
// within size. The product is checked against the room left before each
// multiplication, so it cannot overflow.
func fits(begin uint64, elem int64, shape []int64, size int64) bool {
	if begin > uint64(size) {
		return false
	}
	room := size - int64(begin)
	n := elem
	for _, l := range shape {
		if n > room/l {
			return false
		}
		n *= l
	}
	return n <= room
}

func typeSize(version byte, t uint32) int {
	if s := Type(t).Size(); s > 0 {
		return s
	}
	if version != 5 {
		return 0
	}
	switch t {
	case 7: // ubyte
		return 1
	case 8: // ushort
		return 2
	case 9: // uint
		return 4
	case 10, 11: // int64, uint64
		return 8
	}
	return 0
}

type headerReader struct {
	r       *bufio.Reader
	err     error
	version byte
}

func (h *headerReader) bytes(n int) []byte {
	if h.err != nil {
		return nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(h.r, b); err != nil {
		h.err = err
		return nil
	}
	return b
}

func (h *headerReader) skip(n int) {
	if h.err != nil {
		return
	}
	if _, err := h.r.Discard(n); err != nil {
		h.err = err
	}
}

func (h *headerReader) u32() uint32 {
	b := h.bytes(4)
	if b == nil {
		return 0
	}
	return order.Uint32(b)
}

func (h *headerReader) u64() uint64 {
	b := h.bytes(8)
	if b == nil {
		return 0
	}
	return order.Uint64(b)
}

// nonNeg reads a NON_NEG count, 64 bits wide in CDF-5.
func (h *headerReader) nonNeg() uint64 {
	if h.version == 5 {
		return h.u64()
	}
	return uint64(h.u32())
}

func (h *headerReader) count() int {
	n := h.nonNeg()
	if n > maxHeaderItems && h.err == nil {
		h.err = fmt.Errorf("list of %d items", n)
		return 0
	}
	return int(n)
}

// list reads an (ABSENT | tag nelems) list prefix.
func (h *headerReader) list() (uint32, int) {
	tag := h.u32()
	n := h.count()
	if tag == 0 && n != 0 && h.err == nil {
		h.err = fmt.Errorf("absent list with %d items", n)
	}
	return tag, n
}

func (h *headerReader) name() string {
	n := h.count()
	b := h.bytes(pad4(n))
	if b == nil {
		return ""
	}
	return string(b[:n])
}

func (h *headerReader) skipAttrs() {
	tag, n := h.list()
	if h.err == nil && tag != 0 && tag != tagAttribute {
		h.err = fmt.Errorf("expected attribute list, found tag %#x", tag)
		return
	}
	for i := 0; i < n && h.err == nil; i++ {
		name := h.name()
		t := h.u32()
		count := h.count()
		size := typeSize(h.version, t)
		if size == 0 && h.err == nil {
			h.err = fmt.Errorf("attribute %s has type %d", name, t)
			return
		}
		h.skip(pad4(count * size))
	}
}

func pad4(n int) int {
	return (n + 3) &^ 3
}
