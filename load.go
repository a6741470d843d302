// Package tsgar assembles TSG/Hylogger core-scanning datasets into labeled
// multi-dimensional array containers, and batch-converts them to Zarr
// archive storage.
package tsgar

import (
	"fmt"
	"math"
	"regexp"

	"github.com/geoscience-analytics/tsgar/dataset"
	"github.com/geoscience-analytics/tsgar/tsg"
)

// Index coordinate choices for a loaded dataset.
const (
	IndexSample = "sample"
	IndexDepth  = "depth"
)

// LoadOption configures Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	band       tsg.Band
	image      bool
	subsample  int
	indexCoord string
}

func defaultLoadOptions() *loadOptions {
	return &loadOptions{
		band:       tsg.BandNIR,
		image:      false,
		subsample:  10,
		indexCoord: IndexSample,
	}
}

// WithBand selects the spectral band to load. Defaults to NIR.
func WithBand(band tsg.Band) LoadOption {
	return func(o *loadOptions) { o.band = band }
}

// WithImage controls loading of the linescan imagery.
func WithImage(load bool) LoadOption {
	return func(o *loadOptions) { o.image = load }
}

// WithSubsample sets the imagery stride. The default of 10 keeps 1% of
// all pixels.
func WithSubsample(stride int) LoadOption {
	return func(o *loadOptions) {
		if stride >= 1 {
			o.subsample = stride
		}
	}
}

// WithIndexCoord selects the index coordinate, IndexSample or IndexDepth.
// Depth indexing drops duplicate-depth samples and sorts downhole.
func WithIndexCoord(coord string) LoadOption {
	return func(o *loadOptions) { o.indexCoord = coord }
}

// Load reads a TSG dataset directory and assembles one spectral band,
// its scalar features, profilometer data and optional imagery into a
// labeled dataset sharing coordinate axes.
func Load(dir string, opts ...LoadOption) (*dataset.Dataset, error) {
	options := defaultLoadOptions()
	for _, opt := range opts {
		opt(options)
	}
	pkg, err := tsg.ReadPackage(dir, tsg.WithImagery(options.image))
	if err != nil {
		return nil, err
	}
	return FromPackage(pkg, opts...)
}

// FromPackage assembles an already-read package into a labeled dataset.
func FromPackage(pkg *tsg.Package, opts ...LoadOption) (*dataset.Dataset, error) {
	options := defaultLoadOptions()
	for _, opt := range opts {
		opt(options)
	}
	if options.indexCoord != IndexSample && options.indexCoord != IndexDepth {
		return nil, fmt.Errorf("unknown index coordinate %q", options.indexCoord)
	}

	spectral, err := pkg.Spectra(options.band)
	if err != nil {
		return nil, err
	}

	ds := dataset.New()
	if err := addScalarVariables(ds, spectral); err != nil {
		return nil, err
	}
	for _, class := range spectral.Classes {
		ds.SetAttr(class.Name, classPairs(class))
	}
	if err := groupFeatureColumns(ds); err != nil {
		return nil, err
	}
	if err := setSampleCoords(ds, spectral); err != nil {
		return nil, err
	}

	if err := ds.AddVar(&dataset.DataArray{
		Name:  "Spectra",
		Dims:  []string{"sample", "wavelength"},
		Shape: []int{spectral.Samples, spectral.Bands},
		Data:  spectral.Values,
	}); err != nil {
		return nil, err
	}
	if pkg.Lidar != nil {
		if err := ds.AddVar(&dataset.DataArray{
			Name:  "Lidar",
			Dims:  []string{"sample"},
			Shape: []int{len(pkg.Lidar)},
			Data:  pkg.Lidar,
		}); err != nil {
			return nil, err
		}
	}

	if options.indexCoord == IndexDepth {
		if ds, err = indexByDepth(ds); err != nil {
			return nil, err
		}
	}

	if options.image && pkg.Cras != nil {
		if err := addImage(ds, pkg, options.subsample); err != nil {
			return nil, err
		}
	}

	if err := reorderVariables(ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// addScalarVariables turns the band's scalar table into one variable per
// column on the sample dim.
func addScalarVariables(ds *dataset.Dataset, spectral *tsg.Spectra) error {
	for _, col := range spectral.Scalars.Columns {
		var data any
		if col.Floats != nil {
			data = col.Floats
		} else {
			data = col.Strings
		}
		if err := ds.AddVar(&dataset.DataArray{
			Name:  col.Name,
			Dims:  []string{"sample"},
			Shape: []int{col.Len()},
			Data:  data,
		}); err != nil {
			return err
		}
	}
	return nil
}

// classPairs flattens a class lookup table to (code, label) pairs for the
// dataset attributes.
func classPairs(class tsg.Class) []any {
	pairs := make([]any, len(class.Entries))
	for i, e := range class.Entries {
		pairs[i] = []any{e.Code, e.Label}
	}
	return pairs
}

// featureGroups are the per-feature scalar column families stacked into
// feature-dimensioned arrays.
var featureGroups = []string{"Centre", "Depth", "Width"}

var featureColumn = regexp.MustCompile(`^(Centre|Depth|Width)([0-9]+)$`)

// groupFeatureColumns stacks CentreN/DepthN/WidthN columns into Centres,
// Depths and Widths arrays over a feature dim. Zeros mean "no feature
// fitted" and become NaN.
func groupFeatureColumns(ds *dataset.Dataset) error {
	for _, group := range featureGroups {
		var (
			names  []string
			labels []string
		)
		for _, name := range ds.VarNames() {
			m := featureColumn.FindStringSubmatch(name)
			if m != nil && m[1] == group {
				names = append(names, name)
				labels = append(labels, m[2])
			}
		}
		if len(names) == 0 {
			continue
		}

		samples, _ := ds.DimSize("sample")
		stacked := make([]float64, 0, len(names)*samples)
		for _, name := range names {
			v := ds.Var(name)
			col, ok := v.Data.([]float64)
			if !ok {
				return fmt.Errorf("feature column %q is not numeric", name)
			}
			for _, val := range col {
				if val == 0 {
					val = math.NaN()
				}
				stacked = append(stacked, val)
			}
		}

		ds.DropVars(names...)
		if err := ds.SetCoord(&dataset.Coord{Name: "feature", Dim: "feature", Values: labels}); err != nil {
			return err
		}
		if err := ds.AddVar(&dataset.DataArray{
			Name:  group + "s",
			Dims:  []string{"feature", "sample"},
			Shape: []int{len(names), samples},
			Data:  stacked,
		}); err != nil {
			return err
		}
	}
	return nil
}

// setSampleCoords builds the shared coordinate axes from the band's
// sample headers and wavelength axis.
func setSampleCoords(ds *dataset.Dataset, spectral *tsg.Spectra) error {
	n := len(spectral.SampleHeaders)
	samples := make([]int64, n)
	trays := make([]float64, n)
	sections := make([]float64, n)
	parts := make([]float64, n)
	depths := make([]float64, n)
	positions := make([]float64, n)
	holes := make([]string, n)
	for i, h := range spectral.SampleHeaders {
		samples[i] = int64(h.Index)
		trays[i] = float64(h.Tray)
		sections[i] = float64(h.Section)
		parts[i] = float64(h.Part)
		depths[i] = h.Depth
		positions[i] = h.Position
		holes[i] = h.Hole
	}

	coords := []*dataset.Coord{
		{Name: "sample", Dim: "sample", Values: samples},
		{Name: "tray", Dim: "sample", Values: trays},
		{Name: "section", Dim: "sample", Values: sections},
		{Name: "section-part", Dim: "sample", Values: parts},
		{Name: "holedepth", Dim: "sample", Values: depths},
		{Name: "section-position", Dim: "sample", Values: positions},
		{Name: "hole", Dim: "sample", Values: holes},
		{Name: "wavelength", Dim: "wavelength", Values: spectral.Wavelength},
	}
	for _, c := range coords {
		if err := ds.SetCoord(c); err != nil {
			return err
		}
	}
	return nil
}

// indexByDepth drops duplicate-depth samples, sorts downhole and promotes
// holedepth to the index coordinate.
func indexByDepth(ds *dataset.Dataset) (*dataset.Dataset, error) {
	depths, ok := ds.Coord("holedepth").Values.([]float64)
	if !ok {
		return nil, fmt.Errorf("holedepth coord is not numeric")
	}
	seen := map[float64]bool{}
	keep := make([]bool, len(depths))
	for i, d := range depths {
		keep[i] = !seen[d]
		seen[d] = true
	}
	out, err := ds.Select("sample", keep)
	if err != nil {
		return nil, err
	}
	if out, err = out.SortBy("holedepth"); err != nil {
		return nil, err
	}
	if err := out.SwapDims("sample", "holedepth"); err != nil {
		return nil, err
	}
	return out, nil
}
