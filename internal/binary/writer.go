package binary

import (
	"encoding/binary"
	"io"
	"math"
)

// Writer provides positioned writes of little-endian binary data.
// It mirrors Reader and exists mainly for building instrument files in
// tests and fixtures.
type Writer struct {
	w   io.WriterAt
	pos int64
}

// NewWriter creates a writer positioned at the start of w.
func NewWriter(w io.WriterAt) *Writer {
	return &Writer{w: w}
}

// At returns a new writer positioned at the given offset.
// The new writer shares the underlying io.WriterAt but has independent position.
func (w *Writer) At(offset int64) *Writer {
	return &Writer{w: w.w, pos: offset}
}

// Pos returns the current write position.
func (w *Writer) Pos() int64 {
	return w.pos
}

// WriteBytes writes the given bytes at the current position.
func (w *Writer) WriteBytes(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	n, err := w.w.WriteAt(data, w.pos)
	w.pos += int64(n)
	return err
}

// WriteUint8 writes an unsigned 8-bit integer.
func (w *Writer) WriteUint8(v uint8) error {
	return w.WriteBytes([]byte{v})
}

// WriteUint16 writes an unsigned 16-bit integer.
func (w *Writer) WriteUint16(v uint16) error {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, v)
	return w.WriteBytes(buf)
}

// WriteUint32 writes an unsigned 32-bit integer.
func (w *Writer) WriteUint32(v uint32) error {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	return w.WriteBytes(buf)
}

// WriteInt32 writes a signed 32-bit integer.
func (w *Writer) WriteInt32(v int32) error {
	return w.WriteUint32(uint32(v))
}

// WriteFloat32 writes an IEEE 754 32-bit float.
func (w *Writer) WriteFloat32(v float32) error {
	return w.WriteUint32(math.Float32bits(v))
}

// WriteInt32Slice writes consecutive signed 32-bit integers.
func (w *Writer) WriteInt32Slice(vs []int32) error {
	buf := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(v))
	}
	return w.WriteBytes(buf)
}

// WriteFloat32Slice writes consecutive 32-bit floats.
func (w *Writer) WriteFloat32Slice(vs []float32) error {
	buf := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return w.WriteBytes(buf)
}

// WriteTag writes an ASCII tag padded with NULs to exactly n bytes.
// Tags longer than n are truncated.
func (w *Writer) WriteTag(s string, n int) error {
	buf := make([]byte, n)
	copy(buf, s)
	return w.WriteBytes(buf)
}
