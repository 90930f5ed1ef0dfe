// Package netcdf holds seismic datasets in memory and moves them to and from
// NetCDF classic files through go-native-netcdf.
//
// Variable data is kept flat in row-major order. Record (unlimited)
// variables are not supported.
package netcdf

import (
	"errors"
	"fmt"
)

var (
	// ErrNotNetCDF is wrapped by every structural problem found while reading.
	ErrNotNetCDF = errors.New("not a NetCDF classic file")
	// ErrUnsupported marks valid NetCDF features this package does not handle.
	ErrUnsupported = errors.New("unsupported NetCDF feature")
)

// Type is a NetCDF external data type.
type Type int32

const (
	Byte   Type = 1
	Char   Type = 2
	Short  Type = 3
	Int    Type = 4
	Float  Type = 5
	Double Type = 6
)

// Size returns the encoded size of one element.
func (t Type) Size() int {
	switch t {
	case Byte, Char:
		return 1
	case Short:
		return 2
	case Int, Float:
		return 4
	case Double:
		return 8
	default:
		return 0
	}
}

func (t Type) String() string {
	switch t {
	case Byte:
		return "byte"
	case Char:
		return "char"
	case Short:
		return "short"
	case Int:
		return "int"
	case Float:
		return "float"
	case Double:
		return "double"
	default:
		return fmt.Sprintf("type(%d)", int32(t))
	}
}

// Dimension is a named axis length.
type Dimension struct {
	Name string `json:"name" yaml:"name"`
	Len  int    `json:"len" yaml:"len"`
}

// Attribute is a named value. Value holds a string (char), or a scalar or
// slice of int8, int16, int32, float32 or float64. Numeric attributes read
// from a file may come back as a scalar or a slice; use AttrFloat.
type Attribute struct {
	Name  string
	Value any
}

// Variable is a named array over dimensions. Data holds a string (char) or a
// slice of int8, int16, int32, float32 or float64 laid out in row-major
// order.
type Variable struct {
	Name  string
	Dims  []string
	Attrs []Attribute
	Data  any
}

// Type returns the NetCDF type of the variable's data.
func (v *Variable) Type() (Type, error) {
	return typeOf(v.Data)
}

// Len returns the number of elements in the variable's data.
func (v *Variable) Len() int {
	return lenOf(v.Data)
}

// Attr looks up a variable attribute.
func (v *Variable) Attr(name string) (Attribute, bool) {
	return findAttr(v.Attrs, name)
}

// Dataset is an in-memory NetCDF file.
type Dataset struct {
	Dims  []Dimension
	Attrs []Attribute
	Vars  []Variable
}

// Dim looks up a dimension.
func (d *Dataset) Dim(name string) (Dimension, bool) {
	for _, dim := range d.Dims {
		if dim.Name == name {
			return dim, true
		}
	}
	return Dimension{}, false
}

// Var looks up a variable.
func (d *Dataset) Var(name string) (*Variable, bool) {
	for i := range d.Vars {
		if d.Vars[i].Name == name {
			return &d.Vars[i], true
		}
	}
	return nil, false
}

// Attr looks up a global attribute.
func (d *Dataset) Attr(name string) (Attribute, bool) {
	return findAttr(d.Attrs, name)
}

// Shape returns the dimension lengths of a variable.
func (d *Dataset) Shape(v *Variable) ([]int, error) {
	shape := make([]int, len(v.Dims))
	for i, name := range v.Dims {
		dim, ok := d.Dim(name)
		if !ok {
			return nil, fmt.Errorf("variable %s: unknown dimension %s", v.Name, name)
		}
		shape[i] = dim.Len
	}
	return shape, nil
}

// Validate checks that names are unique, dimensions exist and every
// variable's data length matches its shape.
func (d *Dataset) Validate() error {
	seen := make(map[string]bool)
	for _, dim := range d.Dims {
		if dim.Name == "" {
			return errors.New("dimension with empty name")
		}
		if dim.Len <= 0 {
			return fmt.Errorf("dimension %s: length %d must be positive (%w: record dimensions)", dim.Name, dim.Len, ErrUnsupported)
		}
		if seen[dim.Name] {
			return fmt.Errorf("duplicate dimension %s", dim.Name)
		}
		seen[dim.Name] = true
	}

	seen = make(map[string]bool)
	for i := range d.Vars {
		v := &d.Vars[i]
		if v.Name == "" {
			return errors.New("variable with empty name")
		}
		if seen[v.Name] {
			return fmt.Errorf("duplicate variable %s", v.Name)
		}
		seen[v.Name] = true

		if _, err := v.Type(); err != nil {
			return fmt.Errorf("variable %s: %w", v.Name, err)
		}
		shape, err := d.Shape(v)
		if err != nil {
			return err
		}
		if want := product(shape); v.Len() != want {
			return fmt.Errorf("variable %s: data has %d elements, shape %v needs %d", v.Name, v.Len(), shape, want)
		}
		for _, a := range v.Attrs {
			if _, err := typeOf(a.Value); err != nil {
				return fmt.Errorf("variable %s attribute %s: %w", v.Name, a.Name, err)
			}
		}
	}

	for _, a := range d.Attrs {
		if _, err := typeOf(a.Value); err != nil {
			return fmt.Errorf("global attribute %s: %w", a.Name, err)
		}
	}
	return nil
}

// AttrString returns an attribute as text.
func AttrString(a Attribute) (string, bool) {
	s, ok := a.Value.(string)
	return s, ok
}

// AttrFloat returns the first element of a numeric attribute as float64.
func AttrFloat(a Attribute) (float64, bool) {
	switch v := a.Value.(type) {
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case []int8:
		if len(v) > 0 {
			return float64(v[0]), true
		}
	case []int16:
		if len(v) > 0 {
			return float64(v[0]), true
		}
	case []int32:
		if len(v) > 0 {
			return float64(v[0]), true
		}
	case []float32:
		if len(v) > 0 {
			return float64(v[0]), true
		}
	case []float64:
		if len(v) > 0 {
			return v[0], true
		}
	}
	return 0, false
}

func findAttr(attrs []Attribute, name string) (Attribute, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

func typeOf(v any) (Type, error) {
	switch v.(type) {
	case string:
		return Char, nil
	case int8, []int8:
		return Byte, nil
	case int16, []int16:
		return Short, nil
	case int32, int, []int32:
		return Int, nil
	case float32, []float32:
		return Float, nil
	case float64, []float64:
		return Double, nil
	default:
		return 0, fmt.Errorf("%w: value of type %T", ErrUnsupported, v)
	}
}

func lenOf(v any) int {
	switch x := v.(type) {
	case string:
		return len(x)
	case []int8:
		return len(x)
	case []int16:
		return len(x)
	case []int32:
		return len(x)
	case []float32:
		return len(x)
	case []float64:
		return len(x)
	case int8, int16, int32, int, float32, float64:
		return 1
	default:
		return 0
	}
}

func product(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}
