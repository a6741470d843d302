// Package zarr writes and reads Zarr v2 directory hierarchies: chunked,
// compressed array storage with JSON metadata, the archive format for
// converted TSG datasets. Dimension names are carried per array in the
// _ARRAY_DIMENSIONS attribute so stores read back as labeled datasets.
package zarr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Version is the Zarr format version this package implements.
const Version = 2

// Store keys defined by the v2 spec.
const (
	groupKey        = ".zgroup"
	arrayKey        = ".zarray"
	attrsKey        = ".zattrs"
	consolidatedKey = ".zmetadata"
)

// dimensionsAttr is the xarray convention for naming array dims.
const dimensionsAttr = "_ARRAY_DIMENSIONS"

// coordinatesAttr lists non-index coordinate names in the group attrs.
const coordinatesAttr = "coordinates"

// Common errors
var (
	ErrNotZarr        = errors.New("not a zarr hierarchy")
	ErrBadDType       = errors.New("unsupported dtype")
	ErrBadChunkGrid   = errors.New("unsupported chunk grid")
	ErrBadCompressor  = errors.New("unsupported compressor")
	ErrChunkCorrupt   = errors.New("chunk does not match metadata")
	ErrMissingDimAttr = errors.New("array has no dimension names")
)

// ArrayMeta is the .zarray metadata of one array.
type ArrayMeta struct {
	ZarrFormat         int               `json:"zarr_format"`
	Shape              []int             `json:"shape"`
	Chunks             []int             `json:"chunks"`
	DType              string            `json:"dtype"`
	Compressor         *CompressorConfig `json:"compressor"`
	FillValue          any               `json:"fill_value"`
	Order              string            `json:"order"`
	Filters            []any             `json:"filters"`
	DimensionSeparator string            `json:"dimension_separator,omitempty"`
}

// GroupMeta is the .zgroup metadata.
type GroupMeta struct {
	ZarrFormat int `json:"zarr_format"`
}

// ConsolidatedMeta is the .zmetadata document holding every metadata key
// of the hierarchy for single-read indexing.
type ConsolidatedMeta struct {
	Metadata               map[string]any `json:"metadata"`
	ZarrConsolidatedFormat int            `json:"zarr_consolidated_format"`
}

// dtypeFor returns the v2 dtype string for a value slice. Strings encode
// as fixed-width bytes sized to the longest element.
func dtypeFor(data any) (string, error) {
	switch v := data.(type) {
	case []float32:
		return "<f4", nil
	case []float64:
		return "<f8", nil
	case []int64:
		return "<i8", nil
	case []uint8:
		return "|u1", nil
	case []string:
		width := 1
		for _, s := range v {
			if len(s) > width {
				width = len(s)
			}
		}
		return fmt.Sprintf("|S%d", width), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrBadDType, data)
	}
}

// itemSize returns the per-element byte size of a dtype string.
func itemSize(dtype string) (int, error) {
	if strings.HasPrefix(dtype, "|S") {
		width, err := strconv.Atoi(dtype[2:])
		if err != nil || width <= 0 {
			return 0, fmt.Errorf("%w: %q", ErrBadDType, dtype)
		}
		return width, nil
	}
	switch dtype {
	case "<f4":
		return 4, nil
	case "<f8":
		return 8, nil
	case "<i8":
		return 8, nil
	case "|u1":
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrBadDType, dtype)
	}
}

// fillValueFor returns the JSON fill value for a dtype: the v2 spec
// encodes float NaN as the string "NaN".
func fillValueFor(dtype string) any {
	switch dtype {
	case "<f4", "<f8":
		return "NaN"
	case "<i8", "|u1":
		return 0
	default:
		return ""
	}
}

// chunkName builds the chunk key for grid indices with the "." separator.
func chunkName(indices []int) string {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ".")
}
