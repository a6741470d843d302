package zarr

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/geoscience-analytics/tsgar/dataset"
)

// Load reads a Zarr hierarchy rooted at path back into a labeled dataset.
func Load(path string) (*dataset.Dataset, error) {
	store, err := NewDirStore(path)
	if err != nil {
		return nil, err
	}
	return Read(store)
}

// Read reconstructs a dataset from a store written by Write. Arrays named
// after their own dim, or listed in the group's coordinates attribute,
// come back as coordinates; everything else is a variable.
func Read(store Store) (*dataset.Dataset, error) {
	if _, err := store.Get(groupKey); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotZarr, err)
	}

	groupAttrs := map[string]any{}
	if data, err := store.Get(attrsKey); err == nil {
		if err := json.Unmarshal(data, &groupAttrs); err != nil {
			return nil, fmt.Errorf("group attributes: %w", err)
		}
	}
	coordNames := map[string]bool{}
	if listed, ok := groupAttrs[coordinatesAttr].(string); ok {
		for _, name := range strings.Fields(listed) {
			coordNames[name] = true
		}
		delete(groupAttrs, coordinatesAttr)
	}

	keys, err := store.List()
	if err != nil {
		return nil, err
	}

	ds := dataset.New()
	for k, v := range groupAttrs {
		ds.SetAttr(k, v)
	}

	var vars, coords []pendingArray

	for _, path := range arrayPaths(keys) {
		arr, err := readArray(store, path)
		if err != nil {
			return nil, fmt.Errorf("array %q: %w", path, err)
		}
		isCoord := coordNames[path] || (len(arr.dims) == 1 && arr.dims[0] == path)
		if isCoord {
			coords = append(coords, *arr)
		} else {
			vars = append(vars, *arr)
		}
	}

	// Coords first so variable dim sizes are validated against them.
	for _, c := range coords {
		if err := ds.SetCoord(&dataset.Coord{Name: c.name, Dim: c.dims[0], Values: c.data}); err != nil {
			return nil, err
		}
	}
	for _, v := range vars {
		if err := ds.AddVar(&dataset.DataArray{
			Name:  v.name,
			Dims:  v.dims,
			Shape: v.shape,
			Data:  v.data,
			Attrs: v.attrs,
		}); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// pendingArray is a decoded array awaiting classification as a variable
// or coordinate.
type pendingArray struct {
	name  string
	dims  []string
	shape []int
	data  any
	attrs map[string]any
}

// readArray reads one array's metadata, attributes and chunks.
func readArray(store Store, path string) (*pendingArray, error) {
	metaData, err := store.Get(path + "/" + arrayKey)
	if err != nil {
		return nil, err
	}
	var meta ArrayMeta
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return nil, err
	}
	if meta.ZarrFormat != Version {
		return nil, fmt.Errorf("%w: zarr_format %d", ErrNotZarr, meta.ZarrFormat)
	}
	if len(meta.Shape) == 0 || len(meta.Chunks) != len(meta.Shape) {
		return nil, fmt.Errorf("%w: shape %v, chunks %v", ErrBadChunkGrid, meta.Shape, meta.Chunks)
	}
	for i := 1; i < len(meta.Shape); i++ {
		if meta.Chunks[i] != meta.Shape[i] {
			return nil, fmt.Errorf("%w: chunked on non-leading dim %d", ErrBadChunkGrid, i)
		}
	}

	attrs := map[string]any{}
	if data, err := store.Get(path + "/" + attrsKey); err == nil {
		if err := json.Unmarshal(data, &attrs); err != nil {
			return nil, err
		}
	}
	dims, err := dimsFromAttrs(attrs)
	if err != nil {
		return nil, err
	}
	if len(dims) != len(meta.Shape) {
		return nil, fmt.Errorf("%w: %d names for %d dims", ErrMissingDimAttr, len(dims), len(meta.Shape))
	}
	delete(attrs, dimensionsAttr)

	size, err := itemSize(meta.DType)
	if err != nil {
		return nil, err
	}
	compressor, err := compressorFromConfig(meta.Compressor)
	if err != nil {
		return nil, err
	}

	rowBytes := size
	for _, s := range meta.Shape[1:] {
		rowBytes *= s
	}
	chunkBytes := meta.Chunks[0] * rowBytes
	total := meta.Shape[0] * rowBytes

	raw := make([]byte, 0, total)
	nchunks := 1
	if meta.Shape[0] > 0 {
		nchunks = (meta.Shape[0] + meta.Chunks[0] - 1) / meta.Chunks[0]
	}
	for i := 0; i < nchunks; i++ {
		indices := make([]int, len(meta.Shape))
		indices[0] = i
		payload, err := store.Get(path + "/" + chunkName(indices))
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		if compressor != nil {
			if payload, err = compressor.Decompress(payload); err != nil {
				return nil, fmt.Errorf("chunk %d: %w", i, err)
			}
		}
		if len(payload) != chunkBytes {
			return nil, fmt.Errorf("%w: chunk %d is %d bytes, expected %d", ErrChunkCorrupt, i, len(payload), chunkBytes)
		}
		raw = append(raw, payload...)
	}
	// Trim edge-chunk padding.
	raw = raw[:total]

	data, err := decodeValues(raw, meta.DType, size)
	if err != nil {
		return nil, err
	}
	return &pendingArray{
		name:  lastPathSegment(path),
		dims:  dims,
		shape: slices.Clone(meta.Shape),
		data:  data,
		attrs: attrs,
	}, nil
}

func lastPathSegment(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

func dimsFromAttrs(attrs map[string]any) ([]string, error) {
	raw, ok := attrs[dimensionsAttr].([]any)
	if !ok {
		return nil, ErrMissingDimAttr
	}
	dims := make([]string, len(raw))
	for i, v := range raw {
		name, ok := v.(string)
		if !ok {
			return nil, ErrMissingDimAttr
		}
		dims[i] = name
	}
	return dims, nil
}

// decodeValues deserializes little-endian array bytes into the value
// slice for dtype.
func decodeValues(raw []byte, dtype string, size int) (any, error) {
	n := len(raw) / size
	switch {
	case dtype == "<f4":
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
		}
		return out, nil
	case dtype == "<f8":
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
		}
		return out, nil
	case dtype == "<i8":
		out := make([]int64, n)
		for i := range out {
			out[i] = int64(binary.LittleEndian.Uint64(raw[8*i:]))
		}
		return out, nil
	case dtype == "|u1":
		return append([]uint8(nil), raw...), nil
	case strings.HasPrefix(dtype, "|S"):
		out := make([]string, n)
		for i := range out {
			cell := raw[size*i : size*(i+1)]
			end := len(cell)
			for end > 0 && cell[end-1] == 0 {
				end--
			}
			out[i] = string(cell[:end])
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrBadDType, dtype)
	}
}
