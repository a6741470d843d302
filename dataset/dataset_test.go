package dataset

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleDataset(t *testing.T) *Dataset {
	t.Helper()
	d := New()
	if err := d.AddVar(&DataArray{
		Name:  "Spectra",
		Dims:  []string{"sample", "wavelength"},
		Shape: []int{3, 2},
		Data:  []float32{0, 1, 10, 11, 20, 21},
	}); err != nil {
		t.Fatal(err)
	}
	if err := d.AddVar(&DataArray{
		Name:  "Lidar",
		Dims:  []string{"sample"},
		Shape: []int{3},
		Data:  []float64{5, 6, 7},
	}); err != nil {
		t.Fatal(err)
	}
	if err := d.SetCoord(&Coord{Name: "sample", Dim: "sample", Values: []int64{0, 1, 2}}); err != nil {
		t.Fatal(err)
	}
	if err := d.SetCoord(&Coord{Name: "holedepth", Dim: "sample", Values: []float64{12, 10, 11}}); err != nil {
		t.Fatal(err)
	}
	if err := d.SetCoord(&Coord{Name: "wavelength", Dim: "wavelength", Values: []float64{380, 2500}}); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestAddVarValidation(t *testing.T) {
	d := sampleDataset(t)

	t.Run("dim size conflict", func(t *testing.T) {
		err := d.AddVar(&DataArray{
			Name:  "Bad",
			Dims:  []string{"sample"},
			Shape: []int{4},
			Data:  []float64{1, 2, 3, 4},
		})
		if !errors.Is(err, ErrDimMismatch) {
			t.Errorf("got %v, want ErrDimMismatch", err)
		}
	})

	t.Run("shape data disagreement", func(t *testing.T) {
		err := d.AddVar(&DataArray{
			Name:  "Bad",
			Dims:  []string{"sample"},
			Shape: []int{3},
			Data:  []float64{1, 2},
		})
		if !errors.Is(err, ErrShapeInvalid) {
			t.Errorf("got %v, want ErrShapeInvalid", err)
		}
	})

	t.Run("duplicate name", func(t *testing.T) {
		err := d.AddVar(&DataArray{
			Name:  "Spectra",
			Dims:  []string{"sample"},
			Shape: []int{3},
			Data:  []float64{1, 2, 3},
		})
		if !errors.Is(err, ErrDupName) {
			t.Errorf("got %v, want ErrDupName", err)
		}
	})

	t.Run("unsupported type", func(t *testing.T) {
		err := d.AddVar(&DataArray{
			Name:  "Bad",
			Dims:  []string{"sample"},
			Shape: []int{3},
			Data:  []complex128{1, 2, 3},
		})
		if !errors.Is(err, ErrBadDType) {
			t.Errorf("got %v, want ErrBadDType", err)
		}
	})
}

func TestTake(t *testing.T) {
	d := sampleDataset(t)
	out, err := d.Take("sample", []int{2, 0})
	if err != nil {
		t.Fatal(err)
	}

	spectra := out.Var("Spectra")
	if diff := cmp.Diff([]float32{20, 21, 0, 1}, spectra.Data); diff != "" {
		t.Errorf("spectra:\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 2}, spectra.Shape); diff != "" {
		t.Errorf("shape:\n%s", diff)
	}
	if diff := cmp.Diff([]float64{7, 5}, out.Var("Lidar").Data); diff != "" {
		t.Errorf("lidar:\n%s", diff)
	}
	if diff := cmp.Diff([]int64{2, 0}, out.Coord("sample").Values); diff != "" {
		t.Errorf("sample coord:\n%s", diff)
	}
	// wavelength untouched: different dim
	if diff := cmp.Diff([]float64{380, 2500}, out.Coord("wavelength").Values); diff != "" {
		t.Errorf("wavelength coord:\n%s", diff)
	}

	t.Run("out of range", func(t *testing.T) {
		if _, err := d.Take("sample", []int{3}); err == nil {
			t.Error("expected error")
		}
	})
	t.Run("unknown dim", func(t *testing.T) {
		if _, err := d.Take("depth", []int{0}); !errors.Is(err, ErrNotFound) {
			t.Errorf("got %v", err)
		}
	})
}

func TestTakeInnerAxis(t *testing.T) {
	d := New()
	if err := d.AddVar(&DataArray{
		Name:  "Image",
		Dims:  []string{"depth", "horizontal", "channel"},
		Shape: []int{2, 3, 2},
		Data:  []uint8{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	}); err != nil {
		t.Fatal(err)
	}
	out, err := d.Take("horizontal", []int{0, 2})
	if err != nil {
		t.Fatal(err)
	}
	want := []uint8{0, 1, 4, 5, 6, 7, 10, 11}
	if diff := cmp.Diff(want, out.Var("Image").Data); diff != "" {
		t.Errorf("inner take:\n%s", diff)
	}
}

func TestSelectAndStride(t *testing.T) {
	d := sampleDataset(t)

	out, err := d.Select("sample", []bool{true, false, true})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{5, 7}, out.Var("Lidar").Data); diff != "" {
		t.Errorf("select:\n%s", diff)
	}

	strided, err := d.Stride("sample", 2)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int64{0, 2}, strided.Coord("sample").Values); diff != "" {
		t.Errorf("stride:\n%s", diff)
	}

	if _, err := d.Select("sample", []bool{true}); !errors.Is(err, ErrDimMismatch) {
		t.Errorf("short mask: got %v", err)
	}
}

func TestSortByAndSwapDims(t *testing.T) {
	d := sampleDataset(t)

	sorted, err := d.SortBy("holedepth")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{10, 11, 12}, sorted.Coord("holedepth").Values); diff != "" {
		t.Errorf("sorted depths:\n%s", diff)
	}
	if diff := cmp.Diff([]float64{6, 7, 5}, sorted.Var("Lidar").Data); diff != "" {
		t.Errorf("sorted lidar:\n%s", diff)
	}

	if err := sorted.SwapDims("sample", "holedepth"); err != nil {
		t.Fatal(err)
	}
	if got := sorted.Var("Spectra").Dims[0]; got != "holedepth" {
		t.Errorf("spectra dim: got %q", got)
	}
	if c := sorted.Coord("holedepth"); !c.IsIndex() {
		t.Error("holedepth should be the index coord")
	}
	if c := sorted.Coord("sample"); c.Dim != "holedepth" {
		t.Errorf("sample coord dim: got %q", c.Dim)
	}
	if _, ok := sorted.DimSize("sample"); ok {
		t.Error("sample dim should be gone")
	}
}

func TestReorderAndDrop(t *testing.T) {
	d := sampleDataset(t)
	d.DropVars("missing") // ignored

	if err := d.Reorder([]string{"Lidar", "Spectra"}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Lidar", "Spectra"}, d.VarNames()); diff != "" {
		t.Errorf("order:\n%s", diff)
	}

	if err := d.Reorder([]string{"Nope"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v", err)
	}

	d.DropVars("Lidar")
	if d.Var("Lidar") != nil {
		t.Error("Lidar not dropped")
	}
}
