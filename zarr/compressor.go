package zarr

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// CompressorConfig is the numcodecs codec description stored in .zarray.
type CompressorConfig struct {
	ID    string `json:"id"`
	Level int    `json:"level,omitempty"`
}

// Compressor encodes and decodes chunk payloads.
type Compressor interface {
	Config() *CompressorConfig
	Compress([]byte) ([]byte, error)
	Decompress([]byte) ([]byte, error)
}

// Codec identifiers accepted by NewCompressor.
const (
	CodecZstd = "zstd"
	CodecGzip = "gzip"
	CodecNone = "none"
)

// NewCompressor returns a compressor for the given codec id. Level zero
// selects the codec's default.
func NewCompressor(id string, level int) (Compressor, error) {
	switch id {
	case CodecZstd:
		if level == 0 {
			level = 3
		}
		return &zstdCompressor{level: level}, nil
	case CodecGzip:
		if level == 0 {
			level = gzip.DefaultCompression
		}
		return &gzipCompressor{level: level}, nil
	case CodecNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrBadCompressor, id)
	}
}

// compressorFromConfig returns the decode-side compressor for stored
// metadata. A nil config means uncompressed chunks.
func compressorFromConfig(cfg *CompressorConfig) (Compressor, error) {
	if cfg == nil {
		return nil, nil
	}
	return NewCompressor(cfg.ID, cfg.Level)
}

type zstdCompressor struct {
	level int
}

func (c *zstdCompressor) Config() *CompressorConfig {
	return &CompressorConfig{ID: CodecZstd, Level: c.level}
}

func (c *zstdCompressor) Compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(c.level)))
	if err != nil {
		return nil, err
	}
	out := enc.EncodeAll(data, nil)
	return out, enc.Close()
}

func (c *zstdCompressor) Decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}

type gzipCompressor struct {
	level int
}

func (c *gzipCompressor) Config() *CompressorConfig {
	return &CompressorConfig{ID: CodecGzip, Level: c.level}
}

func (c *gzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *gzipCompressor) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
