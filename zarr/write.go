package zarr

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/geoscience-analytics/tsgar/dataset"
)

// defaultChunkTarget bounds the uncompressed size of one chunk.
const defaultChunkTarget = 4 << 20

// WriteOption configures Write.
type WriteOption func(*writeOptions)

type writeOptions struct {
	compressor  Compressor
	chunkTarget int
}

func defaultWriteOptions() *writeOptions {
	zstd, _ := NewCompressor(CodecZstd, 0)
	return &writeOptions{
		compressor:  zstd,
		chunkTarget: defaultChunkTarget,
	}
}

// WithCompressor sets the chunk compressor. A nil compressor stores
// chunks raw.
func WithCompressor(c Compressor) WriteOption {
	return func(o *writeOptions) { o.compressor = c }
}

// WithChunkTarget sets the uncompressed chunk size bound in bytes.
func WithChunkTarget(bytes int) WriteOption {
	return func(o *writeOptions) {
		if bytes > 0 {
			o.chunkTarget = bytes
		}
	}
}

// Save writes the dataset as a Zarr hierarchy rooted at path, replacing
// anything already there.
func Save(path string, ds *dataset.Dataset, opts ...WriteOption) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("clearing %s: %w", path, err)
	}
	store, err := NewDirStore(path)
	if err != nil {
		return err
	}
	return Write(store, ds, opts...)
}

// Write serializes the dataset into the store: one array per variable and
// coordinate, group attributes, and consolidated metadata.
func Write(store Store, ds *dataset.Dataset, opts ...WriteOption) error {
	options := defaultWriteOptions()
	for _, opt := range opts {
		opt(options)
	}

	consolidated := &ConsolidatedMeta{
		Metadata:               map[string]any{},
		ZarrConsolidatedFormat: 1,
	}

	group := GroupMeta{ZarrFormat: Version}
	if err := putJSON(store, consolidated, groupKey, group); err != nil {
		return err
	}

	groupAttrs := map[string]any{}
	for _, k := range ds.AttrKeys() {
		groupAttrs[k] = ds.Attrs()[k]
	}
	if coords := nonIndexCoordNames(ds); coords != "" {
		groupAttrs[coordinatesAttr] = coords
	}
	if err := putJSON(store, consolidated, attrsKey, groupAttrs); err != nil {
		return err
	}

	for _, v := range ds.Vars() {
		attrs := map[string]any{dimensionsAttr: v.Dims}
		for k, val := range v.Attrs {
			attrs[k] = val
		}
		if err := writeArray(store, consolidated, options, v.Name, v.Shape, v.Data, attrs); err != nil {
			return fmt.Errorf("variable %q: %w", v.Name, err)
		}
	}
	for _, c := range ds.Coords() {
		n, _ := ds.DimSize(c.Dim)
		attrs := map[string]any{dimensionsAttr: []string{c.Dim}}
		if err := writeArray(store, consolidated, options, c.Name, []int{n}, c.Values, attrs); err != nil {
			return fmt.Errorf("coord %q: %w", c.Name, err)
		}
	}

	data, err := json.Marshal(consolidated)
	if err != nil {
		return err
	}
	return store.Set(consolidatedKey, data)
}

// nonIndexCoordNames joins the names of coords that are not their dim's
// index, space separated, in coord order.
func nonIndexCoordNames(ds *dataset.Dataset) string {
	out := ""
	for _, c := range ds.Coords() {
		if c.IsIndex() {
			continue
		}
		if out != "" {
			out += " "
		}
		out += c.Name
	}
	return out
}

// putJSON stores a metadata document and mirrors it into the
// consolidated index.
func putJSON(store Store, consolidated *ConsolidatedMeta, key string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := store.Set(key, data); err != nil {
		return err
	}
	// The consolidated index holds the parsed document, re-marshalled on
	// write so both copies stay in sync.
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return err
	}
	consolidated.Metadata[key] = parsed
	return nil
}

// writeArray stores one array: metadata, attributes and chunks along the
// leading dim.
func writeArray(store Store, consolidated *ConsolidatedMeta, options *writeOptions, name string, shape []int, data any, attrs map[string]any) error {
	if len(shape) == 0 {
		return fmt.Errorf("%w: zero-dimensional array", ErrBadChunkGrid)
	}
	dtype, err := dtypeFor(data)
	if err != nil {
		return err
	}
	size, err := itemSize(dtype)
	if err != nil {
		return err
	}

	raw, err := encodeValues(data, size)
	if err != nil {
		return err
	}

	rowBytes := size
	for _, s := range shape[1:] {
		rowBytes *= s
	}
	chunkRows := 1
	if rowBytes > 0 {
		chunkRows = options.chunkTarget / rowBytes
	}
	if chunkRows < 1 {
		chunkRows = 1
	}
	if len(shape) > 0 && chunkRows > shape[0] && shape[0] > 0 {
		chunkRows = shape[0]
	}

	chunks := append([]int{chunkRows}, shape[1:]...)
	var cfg *CompressorConfig
	if options.compressor != nil {
		cfg = options.compressor.Config()
	}
	meta := ArrayMeta{
		ZarrFormat:         Version,
		Shape:              shape,
		Chunks:             chunks,
		DType:              dtype,
		Compressor:         cfg,
		FillValue:          fillValueFor(dtype),
		Order:              "C",
		Filters:            nil,
		DimensionSeparator: ".",
	}
	if err := putJSON(store, consolidated, name+"/"+arrayKey, meta); err != nil {
		return err
	}
	if err := putJSON(store, consolidated, name+"/"+attrsKey, attrs); err != nil {
		return err
	}

	nchunks := 1
	if shape[0] > 0 {
		nchunks = (shape[0] + chunkRows - 1) / chunkRows
	}
	chunkBytes := chunkRows * rowBytes
	for i := 0; i < nchunks; i++ {
		start := i * chunkRows * rowBytes
		end := start + chunkBytes
		var payload []byte
		if end <= len(raw) {
			payload = raw[start:end]
		} else {
			// Edge chunk: pad to the full chunk extent with the encoded
			// fill value.
			payload = make([]byte, chunkBytes)
			n := copy(payload, raw[start:])
			fillPadding(payload[n:], dtype, size)
		}
		if options.compressor != nil {
			if payload, err = options.compressor.Compress(payload); err != nil {
				return err
			}
		}
		indices := make([]int, len(shape))
		indices[0] = i
		if err := store.Set(name+"/"+chunkName(indices), payload); err != nil {
			return err
		}
	}
	return nil
}

// fillPadding writes the encoded fill value over an edge chunk's padding
// region. Float dtypes fill with the NaN bit pattern; integer and string
// dtypes fill with zero bytes, which make already holds.
func fillPadding(buf []byte, dtype string, size int) {
	var item []byte
	switch dtype {
	case "<f4":
		item = make([]byte, 4)
		binary.LittleEndian.PutUint32(item, math.Float32bits(float32(math.NaN())))
	case "<f8":
		item = make([]byte, 8)
		binary.LittleEndian.PutUint64(item, math.Float64bits(math.NaN()))
	default:
		return
	}
	for i := 0; i+size <= len(buf); i += size {
		copy(buf[i:], item)
	}
}

// encodeValues serializes a value slice little-endian. Strings pad with
// NULs to the fixed item size.
func encodeValues(data any, size int) ([]byte, error) {
	switch v := data.(type) {
	case []float32:
		out := make([]byte, 4*len(v))
		for i, f := range v {
			binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(f))
		}
		return out, nil
	case []float64:
		out := make([]byte, 8*len(v))
		for i, f := range v {
			binary.LittleEndian.PutUint64(out[8*i:], math.Float64bits(f))
		}
		return out, nil
	case []int64:
		out := make([]byte, 8*len(v))
		for i, n := range v {
			binary.LittleEndian.PutUint64(out[8*i:], uint64(n))
		}
		return out, nil
	case []uint8:
		return append([]byte(nil), v...), nil
	case []string:
		out := make([]byte, size*len(v))
		for i, s := range v {
			copy(out[size*i:size*(i+1)], s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrBadDType, data)
	}
}
