package binary

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func tempFile(t *testing.T) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "bin.dat"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestScalarRoundTrip(t *testing.T) {
	f := tempFile(t)
	w := NewWriter(f)

	if err := w.WriteUint8(0xAB); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteUint16(0x1234); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteUint32(0xDEADBEEF); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteInt32(-42); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteFloat32(3.5); err != nil {
		t.Fatal(err)
	}

	r := NewReader(f)
	if v, err := r.ReadUint8(); err != nil || v != 0xAB {
		t.Errorf("uint8: got %v, %v", v, err)
	}
	if v, err := r.ReadUint16(); err != nil || v != 0x1234 {
		t.Errorf("uint16: got %v, %v", v, err)
	}
	if v, err := r.ReadUint32(); err != nil || v != 0xDEADBEEF {
		t.Errorf("uint32: got %#x, %v", v, err)
	}
	if v, err := r.ReadInt32(); err != nil || v != -42 {
		t.Errorf("int32: got %v, %v", v, err)
	}
	if v, err := r.ReadFloat32(); err != nil || v != 3.5 {
		t.Errorf("float32: got %v, %v", v, err)
	}
}

func TestSliceRoundTrip(t *testing.T) {
	f := tempFile(t)
	w := NewWriter(f)

	ints := []int32{-1, 0, 1, 1 << 30}
	floats := []float32{0, -1.5, float32(math.Inf(1)), 2.25}
	if err := w.WriteInt32Slice(ints); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteFloat32Slice(floats); err != nil {
		t.Fatal(err)
	}

	r := NewReader(f)
	gotInts, err := r.ReadInt32Slice(len(ints))
	if err != nil {
		t.Fatal(err)
	}
	for i := range ints {
		if gotInts[i] != ints[i] {
			t.Errorf("int32[%d]: got %v, want %v", i, gotInts[i], ints[i])
		}
	}
	gotFloats, err := r.ReadFloat32Slice(len(floats))
	if err != nil {
		t.Fatal(err)
	}
	for i := range floats {
		if gotFloats[i] != floats[i] {
			t.Errorf("float32[%d]: got %v, want %v", i, gotFloats[i], floats[i])
		}
	}
}

func TestTag(t *testing.T) {
	tests := []struct {
		name  string
		tag   string
		width int
		want  string
	}{
		{"padded", "CoreLog high-res 1.0", 24, "CoreLog high-res 1.0"},
		{"exact", "Profilometer", 12, "Profilometer"},
		{"truncated", "CoreLog linescan 1.0", 7, "CoreLog"},
		{"empty", "", 4, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tempFile(t)
			if err := NewWriter(f).WriteTag(tt.tag, tt.width); err != nil {
				t.Fatal(err)
			}
			got, err := NewReader(f).ReadTag(tt.width)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadFloat32sToEOF(t *testing.T) {
	f := tempFile(t)
	vals := make([]float32, 3000) // spans more than one internal read buffer
	for i := range vals {
		vals[i] = float32(i) / 7
	}
	if err := NewWriter(f).WriteFloat32Slice(vals); err != nil {
		t.Fatal(err)
	}

	got, err := NewReader(f).ReadFloat32sToEOF()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(vals) {
		t.Fatalf("got %d values, want %d", len(got), len(vals))
	}
	for i := range vals {
		if got[i] != vals[i] {
			t.Fatalf("value %d: got %v, want %v", i, got[i], vals[i])
		}
	}
}

func TestReadFloat32sToEOFPartialValue(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{1, 2, 3, 4, 5, 6}))
	if _, err := r.ReadFloat32sToEOF(); err == nil {
		t.Error("expected error for trailing partial value")
	}
}

func TestAtIndependentPosition(t *testing.T) {
	f := tempFile(t)
	w := NewWriter(f)
	if err := w.WriteFloat32Slice([]float32{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}

	r := NewReader(f)
	r2 := r.At(8)
	if v, _ := r2.ReadFloat32(); v != 3 {
		t.Errorf("offset reader: got %v, want 3", v)
	}
	if v, _ := r.ReadFloat32(); v != 1 {
		t.Errorf("base reader: got %v, want 1", v)
	}
	if r.Pos() != 4 {
		t.Errorf("base pos: got %d, want 4", r.Pos())
	}
}
