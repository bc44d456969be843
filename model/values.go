package model

import (
	"fmt"
	"reflect"
	"slices"
)

// checkValue reports whether v is acceptable for f. nil is accepted for
// every field that is not required.
func checkValue(f Field, v any) error {
	if v == nil {
		if f.Required {
			return ErrRequired
		}
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	kind := rv.Kind()
	switch f.Type {
	case Any:
		return nil
	case String:
		if kind == reflect.String {
			return nil
		}
		if _, ok := v.(fmt.Stringer); ok {
			return nil
		}
	case Int:
		if isInt(kind) {
			return nil
		}
		if kind == reflect.Float32 || kind == reflect.Float64 {
			if x := rv.Float(); x == float64(int64(x)) {
				return nil
			}
		}
	case Float:
		if isInt(kind) || kind == reflect.Float32 || kind == reflect.Float64 {
			return nil
		}
	case Bool:
		if kind == reflect.Bool {
			return nil
		}
	case List:
		if kind == reflect.Slice || kind == reflect.Array {
			return nil
		}
	case Map:
		if kind == reflect.Map || kind == reflect.Struct {
			return nil
		}
	case Enum:
		if kind == reflect.String && slices.Contains(f.Values, rv.String()) {
			return nil
		}
		return fmt.Errorf("%v is not one of %v", v, f.Values)
	default:
		return fmt.Errorf("unknown field type %q", f.Type)
	}
	return fmt.Errorf("%T is not a valid %s", v, f.Type)
}

func isInt(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// coerce converts a decoded property to the declared field type where the
// wire lost the distinction (integral floats, ints stored in float fields).
func coerce(f Field, v any) any {
	switch f.Type {
	case Float:
		if n, ok := v.(int64); ok {
			return float64(n)
		}
	case Int:
		if x, ok := v.(float64); ok && x == float64(int64(x)) {
			return int64(x)
		}
	}
	return v
}

// cloneDefault copies slice and map defaults so entities never share them.
func cloneDefault(v any) any {
	switch x := v.(type) {
	case []any:
		return slices.Clone(x)
	case []string:
		return slices.Clone(x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = item
		}
		return out
	}
	return v
}
