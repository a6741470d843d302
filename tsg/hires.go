package tsg

import (
	"fmt"
	"math"
	"os"

	"github.com/geoscience-analytics/tsgar/internal/binary"
)

// Signatures inside a high-resolution profilometer file.
const (
	hiresMagic  = "CoreLog high-res 1.0"
	hiresMarker = "Profilometer"
)

// Hires holds the raw high-resolution profilometer data of a dataset.
// The instrument records SamplesPerSpectrum height samples for every
// spectrum taken.
type Hires struct {
	ScalarCount        int
	Lines              int
	SamplesPerSpectrum int
	Min, Max           float64

	// Samples holds the raw heights. Values the instrument flagged below
	// the recorded minimum are NaN.
	Samples []float64
}

// ReadHires reads a high-resolution profilometer file.
func ReadHires(path string) (*Hires, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := binary.NewReader(f)
	magic, err := r.ReadTag(20)
	if err != nil {
		return nil, err
	}
	if magic != hiresMagic {
		return nil, fmt.Errorf("%w: %q in %s", ErrBadMagic, magic, path)
	}

	counts, err := r.ReadInt32Slice(3)
	if err != nil {
		return nil, err
	}
	min, err := r.ReadFloat32()
	if err != nil {
		return nil, err
	}
	max, err := r.ReadFloat32()
	if err != nil {
		return nil, err
	}
	marker, err := r.ReadTag(len(hiresMarker))
	if err != nil {
		return nil, err
	}
	if marker != hiresMarker {
		return nil, fmt.Errorf("%w: marker %q in %s", ErrBadMagic, marker, path)
	}
	// Reserved bytes, always zero in files seen so far.
	reserved, err := r.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	for _, b := range reserved {
		if b != 0 {
			return nil, fmt.Errorf("%w: non-zero reserved bytes in %s", ErrBadMagic, path)
		}
	}

	raw, err := r.ReadFloat32sToEOF()
	if err != nil {
		return nil, err
	}

	h := &Hires{
		ScalarCount:        int(counts[0]),
		Lines:              int(counts[1]),
		SamplesPerSpectrum: int(counts[2]),
		Min:                float64(min),
		Max:                float64(max),
		Samples:            make([]float64, len(raw)),
	}
	if h.SamplesPerSpectrum <= 0 {
		return nil, fmt.Errorf("%w: %d samples per spectrum in %s", ErrShapeMismatch, h.SamplesPerSpectrum, path)
	}
	if len(raw)%h.SamplesPerSpectrum != 0 {
		return nil, fmt.Errorf("%w: %d profilometer samples not divisible by %d",
			ErrShapeMismatch, len(raw), h.SamplesPerSpectrum)
	}
	for i, v := range raw {
		if float64(v) < h.Min {
			h.Samples[i] = math.NaN()
		} else {
			h.Samples[i] = float64(v)
		}
	}
	return h, nil
}

// PerSpectrum aggregates the raw heights to one mean value per spectrum,
// ignoring NaNs. A spectrum with no valid samples yields NaN.
func (h *Hires) PerSpectrum() []float64 {
	n := len(h.Samples) / h.SamplesPerSpectrum
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		sum, count := 0.0, 0
		for _, v := range h.Samples[i*h.SamplesPerSpectrum : (i+1)*h.SamplesPerSpectrum] {
			if !math.IsNaN(v) {
				sum += v
				count++
			}
		}
		if count == 0 {
			out[i] = math.NaN()
		} else {
			out[i] = sum / float64(count)
		}
	}
	return out
}
