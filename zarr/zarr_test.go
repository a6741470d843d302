package zarr

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/geoscience-analytics/tsgar/dataset"
)

func testDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds := dataset.New()
	spectra := make([]float32, 6*4)
	for i := range spectra {
		spectra[i] = float32(i) * 0.25
	}
	if err := ds.AddVar(&dataset.DataArray{
		Name:  "Spectra",
		Dims:  []string{"sample", "wavelength"},
		Shape: []int{6, 4},
		Data:  spectra,
	}); err != nil {
		t.Fatal(err)
	}
	if err := ds.AddVar(&dataset.DataArray{
		Name:  "Lidar",
		Dims:  []string{"sample"},
		Shape: []int{6},
		Data:  []float64{5, math.NaN(), 7, 8, 9, 10},
	}); err != nil {
		t.Fatal(err)
	}
	if err := ds.AddVar(&dataset.DataArray{
		Name:  "Tray",
		Dims:  []string{"sample"},
		Shape: []int{6},
		Data:  []string{"T01", "T01", "T01", "T02", "T02", "T02"},
	}); err != nil {
		t.Fatal(err)
	}
	if err := ds.AddVar(&dataset.DataArray{
		Name:  "Image",
		Dims:  []string{"sample", "channel"},
		Shape: []int{6, 3},
		Data:  []uint8{0, 1, 2, 80, 81, 82, 160, 161, 162, 240, 241, 242, 7, 8, 9, 255, 254, 253},
	}); err != nil {
		t.Fatal(err)
	}
	if err := ds.SetCoord(&dataset.Coord{Name: "sample", Dim: "sample", Values: []int64{0, 1, 2, 3, 4, 5}}); err != nil {
		t.Fatal(err)
	}
	if err := ds.SetCoord(&dataset.Coord{Name: "holedepth", Dim: "sample", Values: []float64{10, 10.5, 11, 11.5, 12, 12.5}}); err != nil {
		t.Fatal(err)
	}
	if err := ds.SetCoord(&dataset.Coord{Name: "wavelength", Dim: "wavelength", Values: []float64{380, 1086, 1793, 2500}}); err != nil {
		t.Fatal(err)
	}
	ds.SetAttr("Grp1 sTSAS", []any{[]any{1, "Kaolinite"}, []any{2, "White-Mica"}})
	return ds
}

// assertRoundTrip writes ds to the store and checks the read-back copy
// matches variable by variable and coord by coord.
func assertRoundTrip(t *testing.T, store Store, ds *dataset.Dataset, opts ...WriteOption) {
	t.Helper()
	if err := Write(store, ds, opts...); err != nil {
		t.Fatal(err)
	}
	got, err := Read(store)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range ds.Vars() {
		gv := got.Var(want.Name)
		if gv == nil {
			t.Errorf("variable %q missing after round trip", want.Name)
			continue
		}
		if diff := cmp.Diff(want.Dims, gv.Dims); diff != "" {
			t.Errorf("%s dims:\n%s", want.Name, diff)
		}
		if diff := cmp.Diff(want.Shape, gv.Shape); diff != "" {
			t.Errorf("%s shape:\n%s", want.Name, diff)
		}
		if diff := cmp.Diff(want.Data, gv.Data, cmpopts.EquateNaNs()); diff != "" {
			t.Errorf("%s data:\n%s", want.Name, diff)
		}
	}
	if len(got.Vars()) != len(ds.Vars()) {
		t.Errorf("got %d variables, want %d", len(got.Vars()), len(ds.Vars()))
	}

	for _, want := range ds.Coords() {
		gc := got.Coord(want.Name)
		if gc == nil {
			t.Errorf("coord %q missing after round trip", want.Name)
			continue
		}
		if gc.Dim != want.Dim {
			t.Errorf("coord %q dim: got %q, want %q", want.Name, gc.Dim, want.Dim)
		}
		if diff := cmp.Diff(want.Values, gc.Values, cmpopts.EquateNaNs()); diff != "" {
			t.Errorf("coord %s:\n%s", want.Name, diff)
		}
	}

	// Attributes survive modulo JSON number widening.
	wantJSON, err := json.Marshal(ds.Attrs())
	if err != nil {
		t.Fatal(err)
	}
	gotJSON, err := json.Marshal(got.Attrs())
	if err != nil {
		t.Fatal(err)
	}
	if string(wantJSON) != string(gotJSON) {
		t.Errorf("attrs: got %s, want %s", gotJSON, wantJSON)
	}
}

func TestRoundTripMemStore(t *testing.T) {
	assertRoundTrip(t, NewMemStore(), testDataset(t))
}

func TestRoundTripDirStore(t *testing.T) {
	store, err := NewDirStore(filepath.Join(t.TempDir(), "hole.zarr"))
	if err != nil {
		t.Fatal(err)
	}
	assertRoundTrip(t, store, testDataset(t))
}

func TestRoundTripCompressors(t *testing.T) {
	for _, codec := range []string{CodecZstd, CodecGzip, CodecNone} {
		t.Run(codec, func(t *testing.T) {
			c, err := NewCompressor(codec, 0)
			if err != nil {
				t.Fatal(err)
			}
			assertRoundTrip(t, NewMemStore(), testDataset(t), WithCompressor(c))
		})
	}

	t.Run("unknown", func(t *testing.T) {
		if _, err := NewCompressor("blosc", 0); err == nil {
			t.Error("expected error for unsupported codec")
		}
	})
}

func TestRoundTripMultiChunk(t *testing.T) {
	// Force several chunks along the sample dim, including a partial
	// edge chunk.
	store := NewMemStore()
	assertRoundTrip(t, store, testDataset(t), WithChunkTarget(32))

	keys, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	chunkCount := 0
	for _, k := range keys {
		if k == "Spectra/0.0" || k == "Spectra/1.0" || k == "Spectra/2.0" {
			chunkCount++
		}
	}
	if chunkCount != 3 {
		t.Errorf("Spectra chunks: got %d keys, want 3 (keys %v)", chunkCount, keys)
	}
}

func TestEdgeChunkFillValue(t *testing.T) {
	// An uneven leading dim leaves a partial edge chunk; its padding
	// must hold the fill value, NaN for float dtypes.
	ds := dataset.New()
	if err := ds.AddVar(&dataset.DataArray{
		Name:  "Heights",
		Dims:  []string{"sample", "pair"},
		Shape: []int{3, 2},
		Data:  []float32{1, 2, 3, 4, 5, 6},
	}); err != nil {
		t.Fatal(err)
	}

	store := NewMemStore()
	if err := Write(store, ds, WithChunkTarget(16), WithCompressor(nil)); err != nil {
		t.Fatal(err)
	}

	raw, err := store.Get("Heights/1.0")
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != 16 {
		t.Fatalf("edge chunk is %d bytes, want 16", len(raw))
	}
	for i := 8; i < 16; i += 4 {
		v := math.Float32frombits(binary.LittleEndian.Uint32(raw[i:]))
		if !math.IsNaN(float64(v)) {
			t.Errorf("padding value at %d: got %v, want NaN", i, v)
		}
	}
}

func TestArrayMetadata(t *testing.T) {
	store := NewMemStore()
	if err := Write(store, testDataset(t), WithChunkTarget(32)); err != nil {
		t.Fatal(err)
	}

	data, err := store.Get("Spectra/.zarray")
	if err != nil {
		t.Fatal(err)
	}
	var meta ArrayMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		t.Fatal(err)
	}
	if meta.ZarrFormat != 2 || meta.DType != "<f4" || meta.Order != "C" {
		t.Errorf("metadata: %+v", meta)
	}
	if diff := cmp.Diff([]int{6, 4}, meta.Shape); diff != "" {
		t.Errorf("shape:\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 4}, meta.Chunks); diff != "" {
		t.Errorf("chunks:\n%s", diff)
	}
	if meta.Compressor == nil || meta.Compressor.ID != "zstd" {
		t.Errorf("compressor: %+v", meta.Compressor)
	}
	if meta.FillValue != "NaN" {
		t.Errorf("fill value: %v", meta.FillValue)
	}

	// String columns get fixed-width byte dtypes.
	data, err = store.Get("Tray/.zarray")
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		t.Fatal(err)
	}
	if meta.DType != "|S3" {
		t.Errorf("string dtype: %q", meta.DType)
	}
}

func TestConsolidatedMetadata(t *testing.T) {
	store := NewMemStore()
	if err := Write(store, testDataset(t)); err != nil {
		t.Fatal(err)
	}
	data, err := store.Get(".zmetadata")
	if err != nil {
		t.Fatal(err)
	}
	var meta ConsolidatedMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		t.Fatal(err)
	}
	if meta.ZarrConsolidatedFormat != 1 {
		t.Errorf("format: %d", meta.ZarrConsolidatedFormat)
	}
	for _, key := range []string{".zgroup", ".zattrs", "Spectra/.zarray", "sample/.zarray", "holedepth/.zattrs"} {
		if _, ok := meta.Metadata[key]; !ok {
			t.Errorf("consolidated metadata missing %q", key)
		}
	}
}

func TestSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hole.zarr")
	ds := testDataset(t)
	if err := Save(path, ds); err != nil {
		t.Fatal(err)
	}
	// Second save must fully replace the first.
	if err := Save(path, ds); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Vars()) != len(ds.Vars()) {
		t.Errorf("got %d variables, want %d", len(got.Vars()), len(ds.Vars()))
	}
}

func TestReadRejectsNonZarr(t *testing.T) {
	if _, err := Read(NewMemStore()); err == nil {
		t.Error("expected error for empty store")
	}
}
