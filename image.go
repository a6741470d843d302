package tsgar

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/geoscience-analytics/tsgar/dataset"
	"github.com/geoscience-analytics/tsgar/tsg"
)

// addImage registers the linescan imagery as an Image variable with a
// depth axis derived from the NIR sample headers: each imagery section
// spans linearly from its core section's minimum to maximum header depth.
func addImage(ds *dataset.Dataset, pkg *tsg.Package, subsample int) error {
	if pkg.NIR == nil {
		return fmt.Errorf("%w: imagery registration needs NIR sample headers", tsg.ErrBandMissing)
	}
	cras := pkg.Cras

	spans, err := sectionDepthSpans(pkg.NIR.SampleHeaders)
	if err != nil {
		return err
	}
	if len(spans) != len(cras.Sections) {
		return fmt.Errorf("%w: %d imagery sections for %d core sections",
			tsg.ErrShapeMismatch, len(cras.Sections), len(spans))
	}

	depths := make([]float64, 0, cras.Lines())
	for i, section := range cras.Sections {
		axis := make([]float64, section.Lines)
		if section.Lines == 1 {
			// floats.Span needs two elements; a one-line section sits at
			// its depth extent's start.
			axis[0] = spans[i].min
		} else {
			floats.Span(axis, spans[i].min, spans[i].max)
		}
		depths = append(depths, axis...)
	}

	// Pixel pitch from the median depth step near the top of hole; the
	// horizontal axis uses the same pitch, centred on the scan line.
	dx := medianStep(depths)
	horizontal := make([]float64, cras.Width)
	for i := range horizontal {
		horizontal[i] = float64(i) * dx
	}
	mean := stat.Mean(horizontal, nil)
	for i := range horizontal {
		horizontal[i] -= mean
	}

	img := dataset.New()
	if err := img.AddVar(&dataset.DataArray{
		Name:  "Image",
		Dims:  []string{"depth", "horizontal", "channel"},
		Shape: []int{cras.Lines(), cras.Width, 3},
		Data:  cras.Pixels,
	}); err != nil {
		return err
	}
	coords := []*dataset.Coord{
		{Name: "depth", Dim: "depth", Values: depths},
		{Name: "horizontal", Dim: "horizontal", Values: horizontal},
		{Name: "channel", Dim: "channel", Values: []string{"R", "G", "B"}},
	}
	for _, c := range coords {
		if err := img.SetCoord(c); err != nil {
			return err
		}
	}

	if img, err = img.Stride("depth", subsample); err != nil {
		return err
	}
	if img, err = img.Stride("horizontal", subsample); err != nil {
		return err
	}

	if err := ds.AddVar(img.Var("Image")); err != nil {
		return err
	}
	for _, c := range img.Coords() {
		if err := ds.SetCoord(c); err != nil {
			return err
		}
	}
	return nil
}

type depthSpan struct {
	min, max float64
}

// sectionDepthSpans groups sample headers by (tray, section) in ascending
// order and returns each group's depth extent.
func sectionDepthSpans(headers []tsg.SampleHeader) ([]depthSpan, error) {
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: no sample headers", tsg.ErrShapeMismatch)
	}
	type key struct{ tray, section int }
	spans := map[key]*depthSpan{}
	keys := make([]key, 0)
	for _, h := range headers {
		k := key{h.Tray, h.Section}
		s, ok := spans[k]
		if !ok {
			s = &depthSpan{min: h.Depth, max: h.Depth}
			spans[k] = s
			keys = append(keys, k)
			continue
		}
		if h.Depth < s.min {
			s.min = h.Depth
		}
		if h.Depth > s.max {
			s.max = h.Depth
		}
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a].tray != keys[b].tray {
			return keys[a].tray < keys[b].tray
		}
		return keys[a].section < keys[b].section
	})
	out := make([]depthSpan, len(keys))
	for i, k := range keys {
		out[i] = *spans[k]
	}
	return out, nil
}

// medianStep returns the median difference of the leading depth values
// (at most 200 of them).
func medianStep(depths []float64) float64 {
	limit := len(depths)
	if limit > 200 {
		limit = 200
	}
	if limit < 2 {
		return 0
	}
	diffs := make([]float64, limit-1)
	for i := 1; i < limit; i++ {
		diffs[i-1] = depths[i] - depths[i-1]
	}
	sort.Float64s(diffs)
	return stat.Quantile(0.5, stat.Empirical, diffs, nil)
}
