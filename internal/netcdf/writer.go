package netcdf

import (
	"fmt"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"
)

// WriteFile writes the dataset to path. Variables are written in order, so
// dimensions appear in the order the variables first use them.
func WriteFile(path string, d *Dataset) error {
	if err := d.Validate(); err != nil {
		return err
	}

	globals, err := attributeMap(d.Attrs)
	if err != nil {
		return fmt.Errorf("global attributes: %w", err)
	}

	cw, err := cdf.OpenWriter(path)
	if err != nil {
		return err
	}
	if err := cw.AddGlobalAttrs(globals); err != nil {
		_ = cw.Close()
		return fmt.Errorf("global attributes: %w", err)
	}

	for i := range d.Vars {
		v := &d.Vars[i]
		attrs, err := attributeMap(v.Attrs)
		if err != nil {
			_ = cw.Close()
			return fmt.Errorf("variable %s attributes: %w", v.Name, err)
		}
		shape, _ := d.Shape(v)
		values, err := nest(v.Data, shape)
		if err != nil {
			_ = cw.Close()
			return fmt.Errorf("variable %s: %w", v.Name, err)
		}
		err = cw.AddVar(v.Name, api.Variable{
			Values:     values,
			Dimensions: v.Dims,
			Attributes: attrs,
		})
		if err != nil {
			_ = cw.Close()
			return fmt.Errorf("variable %s: %w", v.Name, err)
		}
	}

	return cw.Close()
}

// attributeMap keeps attribute order. Scalars are stored as one element
// arrays.
func attributeMap(attrs []Attribute) (*util.OrderedMap, error) {
	keys := make([]string, 0, len(attrs))
	vals := make(map[string]any, len(attrs))
	for _, a := range attrs {
		keys = append(keys, a.Name)
		vals[a.Name] = asArray(a.Value)
	}
	return util.NewOrderedMap(keys, vals)
}

func asArray(v any) any {
	switch x := v.(type) {
	case int8:
		return []int8{x}
	case int16:
		return []int16{x}
	case int32:
		return []int32{x}
	case int:
		return []int32{int32(x)}
	case float32:
		return []float32{x}
	case float64:
		return []float64{x}
	default:
		return v
	}
}
