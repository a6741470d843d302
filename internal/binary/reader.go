// Package binary provides low-level binary I/O for the TSG dataset codecs.
package binary

import (
	"encoding/binary"
	"io"
	"math"
)

// Reader provides positioned reads of little-endian binary data. All TSG
// instrument files are little-endian regardless of host order.
type Reader struct {
	r   io.ReaderAt
	pos int64
}

// NewReader creates a reader positioned at the start of r.
func NewReader(r io.ReaderAt) *Reader {
	return &Reader{r: r}
}

// At returns a new reader positioned at the given offset.
// The new reader shares the underlying io.ReaderAt but has independent position.
func (r *Reader) At(offset int64) *Reader {
	return &Reader{r: r.r, pos: offset}
}

// Pos returns the current read position.
func (r *Reader) Pos() int64 {
	return r.pos
}

// Skip advances the position by n bytes.
func (r *Reader) Skip(n int64) {
	r.pos += n
}

// ReadBytes reads exactly n bytes from the current position.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := r.r.ReadAt(buf, r.pos); err != nil {
		return nil, err
	}
	r.pos += int64(n)
	return buf, nil
}

// Peek reads n bytes without advancing the position.
func (r *Reader) Peek(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := r.r.ReadAt(buf, r.pos); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadUint8 reads an unsigned 8-bit integer.
func (r *Reader) ReadUint8() (uint8, error) {
	buf, err := r.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadUint16 reads an unsigned 16-bit integer.
func (r *Reader) ReadUint16() (uint16, error) {
	buf, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

// ReadUint32 reads an unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// ReadInt32 reads a signed 32-bit integer.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadFloat32 reads an IEEE 754 32-bit float.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadInt32Slice reads n consecutive signed 32-bit integers.
func (r *Reader) ReadInt32Slice(n int) ([]int32, error) {
	buf, err := r.ReadBytes(4 * n)
	if err != nil {
		return nil, err
	}
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return out, nil
}

// ReadFloat32Slice reads n consecutive 32-bit floats.
func (r *Reader) ReadFloat32Slice(n int) ([]float32, error) {
	buf, err := r.ReadBytes(4 * n)
	if err != nil {
		return nil, err
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return out, nil
}

// ReadTag reads an n-byte ASCII tag, trimming trailing NULs and spaces.
func (r *Reader) ReadTag(n int) (string, error) {
	buf, err := r.ReadBytes(n)
	if err != nil {
		return "", err
	}
	end := len(buf)
	for end > 0 && (buf[end-1] == 0 || buf[end-1] == ' ') {
		end--
	}
	return string(buf[:end]), nil
}

// ReadFloat32sToEOF reads 32-bit floats from the current position until the
// underlying reader is exhausted. A trailing partial value is an error.
func (r *Reader) ReadFloat32sToEOF() ([]float32, error) {
	var out []float32
	buf := make([]byte, 4096)
	for {
		n, err := r.r.ReadAt(buf, r.pos)
		if n%4 != 0 {
			if err == nil {
				err = io.ErrUnexpectedEOF
			} else if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
		}
		for i := 0; i+4 <= n; i += 4 {
			out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(buf[i:])))
		}
		r.pos += int64(n - n%4)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
