package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/geoscience-analytics/tsgar/tsg"
	"github.com/geoscience-analytics/tsgar/tsg/tsgtest"
	"github.com/geoscience-analytics/tsgar/zarr"
)

func TestConvertTargetsFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "KDD001_tsg")
	require.NoError(t, tsgtest.Write(dir, tsgtest.Config{Hole: "KDD001", Samples: 8, TIR: true}))

	targets, err := convertTargets(filepath.Join(dir, "KDD001_tsg_tir.tsg"))
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, tsg.BandTIR, targets[0].Band)
	assert.Equal(t, "KDD001", targets[0].Hole)

	_, err = convertTargets(filepath.Join(dir, "notes.tsg"))
	assert.Error(t, err)
}

func TestConvertTargetsBandFilter(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, tsgtest.Write(filepath.Join(root, "KDD001_tsg"), tsgtest.Config{
		Hole: "KDD001", Samples: 8, TIR: true,
	}))

	spectra = "NIR"
	defer func() { spectra = "all" }()

	targets, err := convertTargets(root)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, tsg.BandNIR, targets[0].Band)

	spectra = "nope"
	_, err = convertTargets(root)
	assert.Error(t, err)
}

func TestConvertBatch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, tsgtest.Write(filepath.Join(root, "KDD001_tsg"), tsgtest.Config{
		Hole: "KDD001", Samples: 8, TIR: true,
	}))
	require.NoError(t, tsgtest.Write(filepath.Join(root, "KDD002_tsg"), tsgtest.Config{
		Hole: "KDD002", Samples: 8,
	}))

	logger = zap.NewNop()
	out := t.TempDir()
	rootCmd.SetArgs([]string{"convert", root, "--output-dir", out, "--compressor", "gzip"})
	require.NoError(t, rootCmd.Execute())

	for _, name := range []string{"KDD001_NIR.zarr", "KDD001_TIR.zarr", "KDD002_NIR.zarr"} {
		path := filepath.Join(out, name)
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected archive %s: %v", name, err)
		}
		ds, err := zarr.Load(path)
		require.NoError(t, err, name)
		assert.NotNil(t, ds.Var("Spectra"), name)
	}
}
