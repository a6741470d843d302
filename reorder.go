package tsgar

import (
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/geoscience-analytics/tsgar/dataset"
)

// arrangement is the leading variable order of a loaded dataset; the
// identification and bulk variables a reader looks at first.
var arrangement = []string{
	"HoleID", "Date", "Depth (m)", "Tray", "Section",
	"Spectra", "Image", "Centres", "Depths", "Widths",
}

// groupPatterns match the band-header column families, ordered after the
// arrangement. Matching is prefix-anchored so "Grp1 sTSAS" lands in the
// Grp family.
var groupPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^Grp[0-9]*`),
	regexp.MustCompile(`^Min[0-9]*`),
	regexp.MustCompile(`^Wt[0-9]*`),
	regexp.MustCompile(`^Error[0-9]*`),
	regexp.MustCompile(`^SNR`),
	regexp.MustCompile(`^NIL_Stat`),
	regexp.MustCompile(`^Cust`),
	regexp.MustCompile(`^Bound_Water`),
	regexp.MustCompile(`^Unbound_Water`),
}

// dropVariables are excluded from the final dataset: duplicated in the
// coordinate axes or trivially recalculated.
var dropVariables = []string{
	"Tray", "Section", "Depth (m)", "SecDist (mm)", "TraySamp", "SecSamp",
}

// reorderVariables arranges the dataset's variables for navigability and
// applies the drop list. The order: arrangement, then the pattern
// families (sorted within each), then everything else sorted.
func reorderVariables(ds *dataset.Dataset) error {
	names := ds.VarNames()

	ordered := slices.Clone(arrangement)
	for _, pattern := range groupPatterns {
		var matched []string
		for _, name := range names {
			if pattern.MatchString(name) {
				matched = append(matched, name)
			}
		}
		sort.Strings(matched)
		ordered = append(ordered, matched...)
	}

	var others []string
	for _, name := range names {
		if !slices.Contains(ordered, name) || strings.ToLower(name) == name {
			others = append(others, name)
		}
	}
	sort.Strings(others)
	ordered = append(ordered, others...)

	final := make([]string, 0, len(names))
	for _, name := range ordered {
		if slices.Contains(dropVariables, name) {
			continue
		}
		if ds.Var(name) == nil || slices.Contains(final, name) {
			continue
		}
		final = append(final, name)
	}
	return ds.Reorder(final)
}
