package netcdf

import (
	"fmt"
	"reflect"
)

// nest turns row-major data into the nested slices the file library expects
// for a variable of the given shape ([][]float32 for two dimensions).
func nest(data any, shape []int) (any, error) {
	flat := reflect.ValueOf(data)
	if len(shape) <= 1 || flat.Kind() != reflect.Slice {
		return data, nil
	}
	if flat.Len() != product(shape) {
		return nil, fmt.Errorf("data has %d elements, shape %v needs %d", flat.Len(), shape, product(shape))
	}

	types := make([]reflect.Type, len(shape))
	types[len(shape)-1] = flat.Type()
	for i := len(shape) - 2; i >= 0; i-- {
		types[i] = reflect.SliceOf(types[i+1])
	}
	return nestValue(flat, shape, types).Interface(), nil
}

func nestValue(flat reflect.Value, shape []int, types []reflect.Type) reflect.Value {
	if len(shape) == 1 {
		return flat
	}
	inner := product(shape[1:])
	out := reflect.MakeSlice(types[0], shape[0], shape[0])
	for i := 0; i < shape[0]; i++ {
		out.Index(i).Set(nestValue(flat.Slice(i*inner, (i+1)*inner), shape[1:], types[1:]))
	}
	return out
}

// flatten is the inverse of nest. Values that are not nested slices are
// returned unchanged.
func flatten(values any) any {
	v := reflect.ValueOf(values)
	if v.Kind() != reflect.Slice || v.Type().Elem().Kind() != reflect.Slice {
		return values
	}

	leaf := v.Type()
	for leaf.Elem().Kind() == reflect.Slice {
		leaf = leaf.Elem()
	}
	out := reflect.MakeSlice(leaf, 0, 0)
	var walk func(reflect.Value)
	walk = func(x reflect.Value) {
		if x.Type() == leaf {
			out = reflect.AppendSlice(out, x)
			return
		}
		for i := 0; i < x.Len(); i++ {
			walk(x.Index(i))
		}
	}
	walk(v)
	return out.Interface()
}
