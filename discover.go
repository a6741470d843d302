package tsgar

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/geoscience-analytics/tsgar/tsg"
)

// Discovered is one convertible band of a dataset found under a parent
// directory.
type Discovered struct {
	Hole string
	Dir  string
	Band tsg.Band
}

// FindDatasets walks parent for TSG band header files and returns one
// entry per hole per band, sorted by hole then band. The parent may be a
// dataset directory itself or a tree containing several.
func FindDatasets(parent string) ([]Discovered, error) {
	var found []Discovered
	err := filepath.WalkDir(parent, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		name := d.Name()
		switch {
		case strings.HasSuffix(name, "_tsg_tir.tsg"):
			found = append(found, Discovered{
				Hole: strings.TrimSuffix(name, "_tsg_tir.tsg"),
				Dir:  filepath.Dir(path),
				Band: tsg.BandTIR,
			})
		case strings.HasSuffix(name, "_tsg.tsg"):
			found = append(found, Discovered{
				Hole: strings.TrimSuffix(name, "_tsg.tsg"),
				Dir:  filepath.Dir(path),
				Band: tsg.BandNIR,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(found, func(a, b int) bool {
		if found[a].Hole != found[b].Hole {
			return found[a].Hole < found[b].Hole
		}
		return found[a].Band < found[b].Band
	})
	return found, nil
}
