package tsgar_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoscience-analytics/tsgar"
	"github.com/geoscience-analytics/tsgar/tsg"
	"github.com/geoscience-analytics/tsgar/tsg/tsgtest"
)

func TestFindDatasets(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, tsgtest.Write(filepath.Join(root, "KDD001_tsg"), tsgtest.Config{
		Hole: "KDD001", Samples: 8, TIR: true,
	}))
	require.NoError(t, tsgtest.Write(filepath.Join(root, "nested", "KDD002_tsg"), tsgtest.Config{
		Hole: "KDD002", Samples: 8,
	}))

	found, err := tsgar.FindDatasets(root)
	require.NoError(t, err)
	require.Len(t, found, 3)

	assert.Equal(t, "KDD001", found[0].Hole)
	assert.Equal(t, tsg.BandNIR, found[0].Band)
	assert.Equal(t, "KDD001", found[1].Hole)
	assert.Equal(t, tsg.BandTIR, found[1].Band)
	assert.Equal(t, "KDD002", found[2].Hole)
	assert.Equal(t, tsg.BandNIR, found[2].Band)
	assert.Equal(t, filepath.Join(root, "nested", "KDD002_tsg"), found[2].Dir)
}

func TestFindDatasetsSingle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "KDD003_tsg")
	require.NoError(t, tsgtest.Write(dir, tsgtest.Config{Hole: "KDD003", Samples: 8}))

	found, err := tsgar.FindDatasets(dir)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, dir, found[0].Dir)
}

func TestFindDatasetsEmpty(t *testing.T) {
	found, err := tsgar.FindDatasets(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, found)
}
