package operations

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/petergi/segysak-cli/internal/netcdf"
	"github.com/petergi/segysak-cli/internal/segy"
)

// Direction is the output type of a conversion.
type Direction string

const (
	ToNetCDF Direction = "NETCDF"
	ToSEGY   Direction = "SEGY"
)

var (
	// ErrUnknownDirection is returned when neither the content nor the
	// extension of an input identifies its type.
	ErrUnknownDirection = errors.New("cannot determine conversion direction")
	// ErrDataset is returned for NetCDF files that do not hold a seismic
	// cube or line.
	ErrDataset = errors.New("not a seismic dataset")
	// ErrOutputConflict is returned when inputs of one run would write the
	// same file, or one would overwrite another.
	ErrOutputConflict = errors.New("conflicting conversion outputs")
)

var (
	segyExtensions   = []string{".sgy", ".segy", ".seg"}
	netcdfExtensions = []string{".nc", ".seisnc"}
)

// InputExtensions lists the file extensions convert picks up from
// directories.
func InputExtensions() []string {
	return append(slices.Clip(segyExtensions), netcdfExtensions...)
}

// ParseDirection converts an --output-type value. The empty string means the
// direction is detected per input.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(s) {
	case "":
		return "", nil
	case "NETCDF", "NC", "SEISNC":
		return ToNetCDF, nil
	case "SEGY", "SGY":
		return ToSEGY, nil
	default:
		return "", fmt.Errorf("invalid output type: %s (valid: SEGY, NETCDF)", s)
	}
}

// DetectDirection guesses the output type for path from its magic bytes,
// then from its extension.
func DetectDirection(path string) (Direction, error) {
	fh, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = fh.Close() }()

	magic := make([]byte, 4)
	n, err := io.ReadFull(fh, magic)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if netcdf.IsNetCDF(magic[:n]) {
		return ToSEGY, nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case slices.Contains(segyExtensions, ext):
		return ToNetCDF, nil
	case slices.Contains(netcdfExtensions, ext):
		return ToSEGY, nil
	}

	info, err := fh.Stat()
	if err != nil {
		return "", err
	}
	if info.Size() >= segy.TextHeaderSize+segy.BinaryHeaderSize {
		return ToNetCDF, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownDirection, path)
}

// DefaultOutputPath returns the output path used when none is given: the
// input with its extension replaced.
func DefaultOutputPath(input string, dir Direction) string {
	ext := ".seisnc"
	if dir == ToSEGY {
		ext = ".segy"
	}
	out := strings.TrimSuffix(input, filepath.Ext(input)) + ext
	if samePath(out, input) {
		out = withSuffix(out, "_converted", "")
	}
	return out
}

// ConvertOptions configures a conversion.
type ConvertOptions struct {
	// OutputType forces the direction; empty detects it per input.
	OutputType Direction
	// OutputPath overrides DefaultOutputPath.
	OutputPath   string
	Bytes        ByteLocations
	Crop         *Crop
	Dimension    string
	TwoD         bool
	SampleFormat segy.SampleFormat
	CheckMemory  bool
	Version      string
	// Progress is called with the traces done and the total.
	Progress func(done, total int)
}

// DefaultConvertOptions returns options for a 3D twt conversion with the
// standard byte locations.
func DefaultConvertOptions() ConvertOptions {
	return ConvertOptions{
		Bytes:        DefaultByteLocations(),
		Dimension:    "twt",
		SampleFormat: segy.FormatIEEEFloat32,
		CheckMemory:  true,
		Version:      "dev",
	}
}

// Validate checks the options independently of any input.
func (o ConvertOptions) Validate() error {
	if err := o.Bytes.Validate(); err != nil {
		return err
	}
	switch o.Dimension {
	case "twt", "depth":
	default:
		return fmt.Errorf("invalid dimension: %s (valid: twt, depth)", o.Dimension)
	}
	if !o.SampleFormat.Valid() {
		return fmt.Errorf("invalid sample format: %s", o.SampleFormat)
	}
	if o.TwoD && o.Crop != nil {
		return errors.New("crop applies to 3D cubes only")
	}
	return nil
}

// target returns the direction and output path for input.
func (o ConvertOptions) target(input string) (Direction, string, error) {
	dir := o.OutputType
	if dir == "" {
		var err error
		if dir, err = DetectDirection(input); err != nil {
			return "", "", err
		}
	}
	out := o.OutputPath
	if out == "" {
		out = DefaultOutputPath(input, dir)
	}
	return dir, out, nil
}

// CheckOutputs fails when two of files would be converted to the same
// output, or when the output of one would replace another. Files whose
// direction cannot be detected are left to fail on their own.
func CheckOutputs(files []string, opts ConvertOptions) error {
	inputs := make(map[string]string, len(files))
	for _, f := range files {
		inputs[pathKey(f)] = f
	}

	outputs := make(map[string]string, len(files))
	for _, f := range files {
		_, out, err := opts.target(f)
		if err != nil {
			continue
		}
		key := pathKey(out)
		if prev, ok := outputs[key]; ok {
			return fmt.Errorf("%w: %s and %s would both write %s", ErrOutputConflict, prev, f, out)
		}
		if other, ok := inputs[key]; ok && key != pathKey(f) {
			return fmt.Errorf("%w: converting %s would overwrite input %s", ErrOutputConflict, f, other)
		}
		outputs[key] = f
	}
	return nil
}

// ConvertResult describes one finished conversion.
type ConvertResult struct {
	Input     string             `json:"input" yaml:"input"`
	Output    string             `json:"output" yaml:"output"`
	Direction Direction          `json:"output_type" yaml:"output_type"`
	Traces    int                `json:"traces" yaml:"traces"`
	Dims      []netcdf.Dimension `json:"dims" yaml:"dims"`
	Duration  time.Duration      `json:"duration" yaml:"duration"`
}

// ConvertOperation converts between SEG-Y and NetCDF
type ConvertOperation struct {
	ctx  context.Context
	opts ConvertOptions
}

func NewConvertOperation(ctx context.Context, opts ConvertOptions) *ConvertOperation {
	return &ConvertOperation{ctx: ctx, opts: opts}
}

// Execute converts the file at filePath.
func (c *ConvertOperation) Execute(filePath string) (*ConvertResult, error) {
	if err := c.opts.Validate(); err != nil {
		return nil, err
	}

	dir, out, err := c.opts.target(filePath)
	if err != nil {
		return nil, err
	}
	if samePath(out, filePath) {
		return nil, fmt.Errorf("output %s would overwrite the input", out)
	}

	start := time.Now()
	result := &ConvertResult{Input: filePath, Output: out, Direction: dir}
	slog.Debug("converting", "input", filePath, "output", out, "output_type", dir)

	switch dir {
	case ToNetCDF:
		err = c.segyToNetCDF(filePath, out, result)
	case ToSEGY:
		err = c.netcdfToSEGY(filePath, out, result)
	default:
		err = fmt.Errorf("invalid output type: %s", dir)
	}
	if err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	slog.Info("converted", "input", filePath, "output", out, "traces", result.Traces, "duration", result.Duration)
	return result, nil
}

func (c *ConvertOperation) progress(done, total int) {
	if c.opts.Progress != nil {
		c.opts.Progress(done, total)
	}
}

func (c *ConvertOperation) segyToNetCDF(in, out string, result *ConvertResult) error {
	f, err := segy.Open(in)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if f.NumTraces == 0 {
		return fmt.Errorf("%w: no traces to convert", segy.ErrInvalidFile)
	}
	if f.Remainder != 0 {
		slog.Warn("ignoring incomplete trailing trace", "file", in, "bytes", f.Remainder)
	}

	g, err := scanGeometry(c.ctx, f, c.opts.Bytes, c.opts.Crop, c.opts.TwoD)
	if err != nil {
		return err
	}

	ns := f.Samples
	if c.opts.CheckMemory {
		if err := checkMemory(cubeBytes(g.size(), ns)); err != nil {
			return err
		}
	}

	data := make([]float32, g.size()*ns)
	for i := range data {
		data[i] = float32(math.NaN())
	}
	cdpx := make([]float64, g.size())
	cdpy := make([]float64, g.size())
	for i := range cdpx {
		cdpx[i] = math.NaN()
		cdpy[i] = math.NaN()
	}

	var (
		buf   []float32
		h     segy.TraceHeader
		delay int32
	)
	for k, t := range g.traces {
		if k%256 == 0 {
			if err := c.ctx.Err(); err != nil {
				return err
			}
		}
		h, buf, err = f.ReadTrace(t, buf)
		if err != nil {
			return err
		}
		if k == 0 {
			delay = h.MustGet(segy.ByteDelayRecording)
		}
		cell := g.cells[k]
		copy(data[cell*ns:(cell+1)*ns], buf)
		if cdpx[cell], err = h.Coordinate(c.opts.Bytes.CDPX); err != nil {
			return err
		}
		if cdpy[cell], err = h.Coordinate(c.opts.Bytes.CDPY); err != nil {
			return err
		}
		c.progress(k+1, len(g.traces))
	}

	interval, err := f.SampleInterval()
	if err != nil {
		return err
	}
	rate := float64(interval) / 1000
	vertical := make([]float64, ns)
	for i := range vertical {
		vertical[i] = float64(delay) + float64(i)*rate
	}

	verticalUnits := "ms"
	if c.opts.Dimension == "depth" {
		verticalUnits = f.Binary.MeasurementUnit()
	}

	ds := &netcdf.Dataset{
		Attrs: []netcdf.Attribute{
			{Name: "text", Value: strings.Join(f.Text.Lines(), "\n")},
			{Name: "sample_rate", Value: rate},
			{Name: "ns", Value: int32(ns)},
			{Name: "measurement_system", Value: f.Binary.MeasurementUnit()},
			{Name: "source_file", Value: filepath.Base(in)},
			{Name: "d3_domain", Value: c.opts.Dimension},
			{Name: "segysak_version", Value: c.opts.Version},
		},
	}
	verticalVar := netcdf.Variable{
		Name:  c.opts.Dimension,
		Dims:  []string{c.opts.Dimension},
		Data:  vertical,
		Attrs: []netcdf.Attribute{{Name: "units", Value: verticalUnits}},
	}
	dataAttrs := []netcdf.Attribute{{Name: "_FillValue", Value: float32(math.NaN())}}

	if g.twoD() {
		ds.Dims = []netcdf.Dimension{
			{Name: "cdp", Len: len(g.ilines)},
			{Name: c.opts.Dimension, Len: ns},
		}
		ds.Vars = []netcdf.Variable{
			{Name: "cdp", Dims: []string{"cdp"}, Data: g.ilines},
			verticalVar,
			{Name: "data", Dims: []string{"cdp", c.opts.Dimension}, Data: data, Attrs: dataAttrs},
			{Name: "cdp_x", Dims: []string{"cdp"}, Data: cdpx},
			{Name: "cdp_y", Dims: []string{"cdp"}, Data: cdpy},
		}
	} else {
		ds.Dims = []netcdf.Dimension{
			{Name: "iline", Len: len(g.ilines)},
			{Name: "xline", Len: len(g.xlines)},
			{Name: c.opts.Dimension, Len: ns},
		}
		ds.Vars = []netcdf.Variable{
			{Name: "iline", Dims: []string{"iline"}, Data: g.ilines},
			{Name: "xline", Dims: []string{"xline"}, Data: g.xlines},
			verticalVar,
			{Name: "data", Dims: []string{"iline", "xline", c.opts.Dimension}, Data: data, Attrs: dataAttrs},
			{Name: "cdp_x", Dims: []string{"iline", "xline"}, Data: cdpx},
			{Name: "cdp_y", Dims: []string{"iline", "xline"}, Data: cdpy},
		}
	}

	result.Traces = len(g.traces)
	result.Dims = ds.Dims
	return writeAtomic(out, func(path string) error {
		return netcdf.WriteFile(path, ds)
	})
}

// cube is a seismic dataset read back from NetCDF.
type cube struct {
	keys     []int32 // inlines, or cdps for a 2D line
	xlines   []int32
	vertical []float64
	samples  []float32
	cdpx     []float64
	cdpy     []float64
}

func (c *cube) twoD() bool {
	return c.xlines == nil
}

func (c *ConvertOperation) netcdfToSEGY(in, out string, result *ConvertResult) error {
	ds, err := netcdf.ReadFile(in)
	if err != nil {
		return err
	}
	cb, err := readCube(ds)
	if err != nil {
		return err
	}
	if cb.twoD() && c.opts.Crop != nil {
		return fmt.Errorf("%w: crop applies to 3D cubes only, %s holds a 2D line", ErrDataset, in)
	}

	ns := len(cb.vertical)
	if ns > math.MaxUint16 {
		return fmt.Errorf("%w: %d samples per trace exceeds the SEG-Y limit", ErrDataset, ns)
	}
	interval, err := sampleInterval(ds, cb.vertical)
	if err != nil {
		return err
	}

	lines := segy.DefaultTextLines("CONVERTED FROM " + strings.ToUpper(filepath.Base(in)))
	if a, ok := ds.Attr("text"); ok {
		if text, ok := netcdf.AttrString(a); ok && strings.TrimSpace(text) != "" {
			lines = strings.Split(text, "\n")
		}
	}

	var measurement int16 = 1
	if a, ok := ds.Attr("measurement_system"); ok {
		if unit, _ := netcdf.AttrString(a); unit == "ft" {
			measurement = 2
		}
	}

	bin := segy.BinaryHeader{
		SampleInterval:    interval,
		SamplesPerTrace:   uint16(ns),
		Format:            c.opts.SampleFormat,
		MeasurementSystem: measurement,
		Revision:          segy.Revision1,
		FixedLengthTraces: 1,
	}
	if !cb.twoD() && len(cb.xlines) <= math.MaxInt16 {
		bin.TracesPerEnsemble = int16(len(cb.xlines))
	}

	first := math.Round(cb.vertical[0])
	if first < math.MinInt16 || first > math.MaxInt16 {
		return fmt.Errorf("%w: vertical axis starts at %g, outside the 2 byte delay recording time field", ErrDataset, cb.vertical[0])
	}
	delay := int32(first)
	cells := len(cb.samples) / ns

	var written int
	err = writeAtomic(out, func(path string) error {
		fh, err := os.Create(path)
		if err != nil {
			return err
		}
		bw := bufio.NewWriterSize(fh, 1<<20)

		w, err := segy.NewWriter(bw, segy.EncodeText(lines, segy.EncodingEBCDIC), bin)
		if err != nil {
			_ = fh.Close()
			return err
		}
		if err := c.writeTraces(w, cb, cells, delay); err != nil {
			_ = fh.Close()
			return err
		}
		written = w.Traces()
		if err := bw.Flush(); err != nil {
			_ = fh.Close()
			return err
		}
		return fh.Close()
	})
	if err != nil {
		return err
	}

	result.Traces = written
	result.Dims = ds.Dims
	return nil
}

type headerValue struct {
	at int
	v  int32
}

func (c *ConvertOperation) writeTraces(w *segy.Writer, cb *cube, cells int, delay int32) error {
	ns := len(cb.vertical)
	buf := make([]float32, ns)
	seq := int32(0)

	for cell := 0; cell < cells; cell++ {
		if cell%256 == 0 {
			if err := c.ctx.Err(); err != nil {
				return err
			}
		}

		var il, xl int32
		if cb.twoD() {
			il = cb.keys[cell]
		} else {
			il = cb.keys[cell/len(cb.xlines)]
			xl = cb.xlines[cell%len(cb.xlines)]
			if !c.opts.Crop.Contains(il, xl) {
				continue
			}
		}

		trace := cb.samples[cell*ns : (cell+1)*ns]
		missing := true
		for i, v := range trace {
			if math.IsNaN(float64(v)) {
				buf[i] = 0
				continue
			}
			buf[i] = v
			missing = false
		}
		if missing {
			continue
		}

		seq++
		h := segy.NewTraceHeader(w.ByteOrder())
		fields := []headerValue{
			{segy.ByteTraceSequenceLine, seq},
			{segy.ByteTraceSequenceFile, seq},
			{c.opts.Bytes.CDP, seq},
			{segy.ByteCoordinateScalar, -100},
			{segy.ByteDelayRecording, delay},
		}
		if cb.cdpx != nil && !math.IsNaN(cb.cdpx[cell]) {
			x, err := scaledCoordinate(cb.cdpx[cell])
			if err != nil {
				return err
			}
			fields = append(fields, headerValue{c.opts.Bytes.CDPX, x})
		}
		if cb.cdpy != nil && !math.IsNaN(cb.cdpy[cell]) {
			y, err := scaledCoordinate(cb.cdpy[cell])
			if err != nil {
				return err
			}
			fields = append(fields, headerValue{c.opts.Bytes.CDPY, y})
		}
		// Key fields go last so they win when locations overlap.
		if cb.twoD() {
			fields = append(fields, headerValue{c.opts.Bytes.CDP, il})
		} else {
			fields = append(fields, headerValue{c.opts.Bytes.Iline, il}, headerValue{c.opts.Bytes.Xline, xl})
		}
		for _, f := range fields {
			if err := h.Set(f.at, f.v); err != nil {
				return fmt.Errorf("%w: trace %d: %w", ErrDataset, seq, err)
			}
		}

		if err := w.WriteTrace(h, buf); err != nil {
			return err
		}
		c.progress(cell+1, cells)
	}

	if seq == 0 {
		return fmt.Errorf("%w: no traces to write", ErrGeometry)
	}
	return nil
}

// scaledCoordinate stores v with the -100 coordinate scalar used on write.
func scaledCoordinate(v float64) (int32, error) {
	s := math.Round(v * 100)
	if s < math.MinInt32 || s > math.MaxInt32 {
		return 0, fmt.Errorf("%w: coordinate %g does not fit a 4 byte header field at scalar -100", ErrDataset, v)
	}
	return int32(s), nil
}

func readCube(ds *netcdf.Dataset) (*cube, error) {
	dv, ok := ds.Var("data")
	if !ok {
		return nil, fmt.Errorf("%w: no data variable", ErrDataset)
	}
	shape, err := ds.Shape(dv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataset, err)
	}
	if len(shape) != 2 && len(shape) != 3 {
		return nil, fmt.Errorf("%w: data has %d dimensions, want 2 or 3", ErrDataset, len(shape))
	}

	cb := &cube{}
	if cb.samples, ok = float32Values(dv.Data); !ok {
		return nil, fmt.Errorf("%w: data variable has unsupported type %T", ErrDataset, dv.Data)
	}

	verticalName := dv.Dims[len(dv.Dims)-1]
	ns := shape[len(shape)-1]
	if ns == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrDataset)
	}
	if cb.vertical, err = coordValues(ds, verticalName, ns); err != nil {
		return nil, err
	}

	if cb.keys, err = keyValues(ds, dv.Dims[0], shape[0]); err != nil {
		return nil, err
	}
	cells := shape[0]
	if len(shape) == 3 {
		if cb.xlines, err = keyValues(ds, dv.Dims[1], shape[1]); err != nil {
			return nil, err
		}
		cells *= shape[1]
	}

	cb.cdpx = optionalFloats(ds, "cdp_x", cells)
	cb.cdpy = optionalFloats(ds, "cdp_y", cells)
	return cb, nil
}

// sampleInterval returns the sample interval in microseconds.
func sampleInterval(ds *netcdf.Dataset, vertical []float64) (uint16, error) {
	rate := 0.0
	if len(vertical) > 1 {
		rate = vertical[1] - vertical[0]
	} else if a, ok := ds.Attr("sample_rate"); ok {
		rate, _ = netcdf.AttrFloat(a)
	}
	us := math.Round(rate * 1000)
	if us <= 0 || us > math.MaxUint16 {
		return 0, fmt.Errorf("%w: sample rate %g ms cannot be stored in SEG-Y", ErrDataset, rate)
	}
	return uint16(us), nil
}

func keyValues(ds *netcdf.Dataset, name string, n int) ([]int32, error) {
	v, ok := ds.Var(name)
	if !ok {
		return nil, fmt.Errorf("%w: no %s coordinate variable", ErrDataset, name)
	}
	var out []int32
	switch x := v.Data.(type) {
	case []int32:
		out = x
	case []int16:
		out = make([]int32, len(x))
		for i, e := range x {
			out[i] = int32(e)
		}
	default:
		vals, ok := float64Values(v.Data)
		if !ok {
			return nil, fmt.Errorf("%w: %s has unsupported type %T", ErrDataset, name, v.Data)
		}
		out = make([]int32, len(vals))
		for i, e := range vals {
			out[i] = int32(math.Round(e))
		}
	}
	if len(out) != n {
		return nil, fmt.Errorf("%w: %s has %d values, want %d", ErrDataset, name, len(out), n)
	}
	return out, nil
}

func coordValues(ds *netcdf.Dataset, name string, n int) ([]float64, error) {
	v, ok := ds.Var(name)
	if !ok {
		return nil, fmt.Errorf("%w: no %s coordinate variable", ErrDataset, name)
	}
	vals, ok := float64Values(v.Data)
	if !ok || len(vals) != n {
		return nil, fmt.Errorf("%w: %s must hold %d numbers", ErrDataset, name, n)
	}
	return vals, nil
}

func optionalFloats(ds *netcdf.Dataset, name string, n int) []float64 {
	v, ok := ds.Var(name)
	if !ok {
		return nil
	}
	vals, ok := float64Values(v.Data)
	if !ok || len(vals) != n {
		slog.Warn("ignoring coordinate variable", "name", name)
		return nil
	}
	return vals
}

func float32Values(data any) ([]float32, bool) {
	switch x := data.(type) {
	case []float32:
		return x, true
	case []float64:
		out := make([]float32, len(x))
		for i, e := range x {
			out[i] = float32(e)
		}
		return out, true
	}
	vals, ok := float64Values(data)
	if !ok {
		return nil, false
	}
	return float32Values(vals)
}

func float64Values(data any) ([]float64, bool) {
	switch x := data.(type) {
	case []float64:
		return x, true
	case []float32:
		return convertSlice(x), true
	case []int32:
		return convertSlice(x), true
	case []int16:
		return convertSlice(x), true
	case []int8:
		return convertSlice(x), true
	}
	return nil, false
}

func convertSlice[T int8 | int16 | int32 | float32](in []T) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
