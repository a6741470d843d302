package tsg

import (
	"fmt"
	"os"

	"github.com/geoscience-analytics/tsgar/internal/binary"
)

// readBIP reads a band's raw reflectance matrix. The .bip file is nothing
// but little-endian float32 values, sample-major, with dimensions taken
// from the band header.
func readBIP(path string, spectra *Spectra) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	n := spectra.Samples * spectra.Bands
	if info.Size() != int64(n)*4 {
		return fmt.Errorf("%w: %s is %d bytes, header implies %d",
			ErrShapeMismatch, path, info.Size(), int64(n)*4)
	}

	values, err := binary.NewReader(f).ReadFloat32Slice(n)
	if err != nil {
		return fmt.Errorf("reading spectra from %s: %w", path, err)
	}
	spectra.Values = values
	return nil
}
