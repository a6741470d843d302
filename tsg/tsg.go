package tsg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Band identifies a spectral band of the instrument.
type Band string

// Spectral bands produced by the instrument.
const (
	BandNIR Band = "NIR" // visible/near-infrared to shortwave-infrared
	BandTIR Band = "TIR" // thermal-infrared
)

// Package holds all components of one TSG dataset directory.
type Package struct {
	Hole string // hole identifier extracted from the file names
	Dir  string

	NIR *Spectra // nil when the NIR ensemble is absent
	TIR *Spectra // nil when the TIR ensemble is absent

	Cras *Cras // nil unless imagery was requested and present

	// Lidar holds one profilometer height per spectrum, aggregated from
	// the high-resolution samples. NaN where a spectrum had no valid
	// profilometer coverage. Nil when the hires file is absent.
	Lidar []float64
}

// Spectra is one spectral band of a dataset: the reflectance matrix plus
// the per-sample tables carried in the band's text header.
type Spectra struct {
	Band    Band
	Name    string // dataset name recorded in the header
	Samples int
	Bands   int

	// Wavelength holds the band centres in nanometres, length Bands.
	Wavelength []float64

	// Values holds reflectance row-major as [Samples][Bands].
	Values []float32

	SampleHeaders []SampleHeader
	Scalars       *ScalarTable
	Classes       []Class
}

// Spectrum returns the reflectance row for one sample.
func (s *Spectra) Spectrum(i int) []float32 {
	return s.Values[i*s.Bands : (i+1)*s.Bands]
}

// SampleHeader is the positioning record for one spectrum.
type SampleHeader struct {
	Index    int     // spectrum index within the dataset
	Tray     int     // core tray number
	Section  int     // section within the tray
	Part     int     // section part
	Depth    float64 // downhole depth in metres
	Position float64 // position along the section in metres
	Hole     string  // hole identifier
}

// ScalarTable holds the per-sample scalar features (band headers) of one
// spectral band. Columns are typed: fully numeric columns decode to floats
// with empty cells and the instrument's float32 lowest sentinel as NaN,
// anything else stays as strings.
type ScalarTable struct {
	Columns []Column
}

// Column is a single scalar feature over all samples. Exactly one of
// Floats or Strings is non-nil.
type Column struct {
	Name    string
	Floats  []float64
	Strings []string
}

// Len returns the number of samples in the column.
func (c *Column) Len() int {
	if c.Floats != nil {
		return len(c.Floats)
	}
	return len(c.Strings)
}

// Column returns the named column, or nil.
func (t *ScalarTable) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// Names returns the column names in table order.
func (t *ScalarTable) Names() []string {
	names := make([]string, len(t.Columns))
	for i := range t.Columns {
		names[i] = t.Columns[i].Name
	}
	return names
}

// Class is an integer-encoding lookup table for a classified scalar: the
// mapping from stored integer codes to mineral/class labels.
type Class struct {
	Name    string
	Entries []ClassEntry
}

// ClassEntry is one code→label pair of a class lookup table.
type ClassEntry struct {
	Code  int
	Label string
}

// Option configures ReadPackage.
type Option func(*readOptions)

type readOptions struct {
	imagery bool
}

func defaultReadOptions() *readOptions {
	return &readOptions{imagery: false}
}

// WithImagery controls whether the linescan imagery file is read.
// Imagery is skipped by default since the decoded image dominates memory.
func WithImagery(read bool) Option {
	return func(o *readOptions) { o.imagery = read }
}

// ReadPackage reads a TSG dataset directory. At least one spectral band
// must be present; imagery and profilometer files are optional.
func ReadPackage(dir string, opts ...Option) (*Package, error) {
	options := defaultReadOptions()
	for _, opt := range opts {
		opt(options)
	}

	hole, err := holeFromDir(dir)
	if err != nil {
		return nil, err
	}

	pkg := &Package{Hole: hole, Dir: dir}
	base := filepath.Join(dir, hole)

	if nir, err := readBandIfPresent(base+"_tsg", BandNIR); err != nil {
		return nil, fmt.Errorf("reading NIR band: %w", err)
	} else {
		pkg.NIR = nir
	}
	if tir, err := readBandIfPresent(base+"_tsg_tir", BandTIR); err != nil {
		return nil, fmt.Errorf("reading TIR band: %w", err)
	} else {
		pkg.TIR = tir
	}
	if pkg.NIR == nil && pkg.TIR == nil {
		return nil, fmt.Errorf("%w: no band files under %s", ErrNotTSG, dir)
	}

	if options.imagery {
		crasPath := base + "_tsg_cras.bip"
		if _, err := os.Stat(crasPath); err == nil {
			cras, err := ReadCras(crasPath)
			if err != nil {
				return nil, fmt.Errorf("reading imagery: %w", err)
			}
			pkg.Cras = cras
		}
	}

	hiresPath := base + "_tsg_hires.dat"
	if _, err := os.Stat(hiresPath); err == nil {
		hires, err := ReadHires(hiresPath)
		if err != nil {
			return nil, fmt.Errorf("reading profilometer: %w", err)
		}
		pkg.Lidar = hires.PerSpectrum()
	}

	return pkg, nil
}

// Spectra returns the requested band of the package.
func (p *Package) Spectra(band Band) (*Spectra, error) {
	switch band {
	case BandNIR:
		if p.NIR == nil {
			return nil, fmt.Errorf("%w: NIR in %s", ErrBandMissing, p.Dir)
		}
		return p.NIR, nil
	case BandTIR:
		if p.TIR == nil {
			return nil, fmt.Errorf("%w: TIR in %s", ErrBandMissing, p.Dir)
		}
		return p.TIR, nil
	default:
		return nil, fmt.Errorf("%w: unknown band %q", ErrBandMissing, band)
	}
}

// readBandIfPresent reads one band's header+spectra ensemble rooted at
// base (without the .tsg/.bip extension). Returns nil if the header file
// does not exist.
func readBandIfPresent(base string, band Band) (*Spectra, error) {
	headerPath := base + ".tsg"
	if _, err := os.Stat(headerPath); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	spectra, err := readHeaderFile(headerPath, band)
	if err != nil {
		return nil, err
	}
	if err := readBIP(base+".bip", spectra); err != nil {
		return nil, err
	}
	return spectra, nil
}

// holeFromDir extracts the hole identifier from the band header file names
// within dir.
func holeFromDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading dataset directory: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, "_tsg.tsg"):
			return strings.TrimSuffix(name, "_tsg.tsg"), nil
		case strings.HasSuffix(name, "_tsg_tir.tsg"):
			return strings.TrimSuffix(name, "_tsg_tir.tsg"), nil
		}
	}
	return "", fmt.Errorf("%w: no .tsg header in %s", ErrNotTSG, dir)
}
