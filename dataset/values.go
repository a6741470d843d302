package dataset

import "fmt"

// Supported value slices are []float32, []float64, []int64, []uint8 and
// []string, row-major over an array's dims.

// valueLen returns the element count of a supported value slice.
func valueLen(data any) (int, error) {
	switch v := data.(type) {
	case []float32:
		return len(v), nil
	case []float64:
		return len(v), nil
	case []int64:
		return len(v), nil
	case []uint8:
		return len(v), nil
	case []string:
		return len(v), nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrBadDType, data)
	}
}

// takeAlong gathers indexed blocks along one axis of a row-major array
// with the given outer/axis/inner extents.
func takeAlong[T any](data []T, outer, axis, inner int, indices []int) []T {
	out := make([]T, 0, outer*len(indices)*inner)
	for o := 0; o < outer; o++ {
		base := o * axis * inner
		for _, idx := range indices {
			start := base + idx*inner
			out = append(out, data[start:start+inner]...)
		}
	}
	return out
}

// takeValues dispatches takeAlong over the supported slice types.
func takeValues(data any, outer, axis, inner int, indices []int) (any, error) {
	switch v := data.(type) {
	case []float32:
		return takeAlong(v, outer, axis, inner, indices), nil
	case []float64:
		return takeAlong(v, outer, axis, inner, indices), nil
	case []int64:
		return takeAlong(v, outer, axis, inner, indices), nil
	case []uint8:
		return takeAlong(v, outer, axis, inner, indices), nil
	case []string:
		return takeAlong(v, outer, axis, inner, indices), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrBadDType, data)
	}
}
