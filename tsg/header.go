package tsg

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// Header sections of a .tsg file. The header is line oriented: bracketed
// section markers followed by key=value lines or row tables.
const (
	sectionProperties    = "properties"
	sectionSampleHeaders = "sample headers"
	sectionScalars       = "scalars"
	classPrefix          = "class "
)

// scalarNullThreshold detects the instrument's "no value" sentinel, the
// lowest finite float32, allowing for decimal round-tripping.
const scalarNullThreshold = 1e33

func isScalarNull(v float64) bool {
	return math.Abs(v-(-math.MaxFloat32)) < scalarNullThreshold
}

// readHeaderFile parses a band's .tsg text header into a Spectra with the
// wavelength axis, sample headers, scalar table and class lookups filled
// in. The reflectance matrix is read separately from the .bip file.
func readHeaderFile(path string, band Band) (*Spectra, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	spectra := &Spectra{Band: band}

	var (
		section    string
		class      *Class
		properties = map[string]string{}
		headerRows []string
		scalarRows []string
	)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			if strings.HasPrefix(section, classPrefix) {
				spectra.Classes = append(spectra.Classes, Class{
					Name: strings.TrimPrefix(section, classPrefix),
				})
				class = &spectra.Classes[len(spectra.Classes)-1]
			} else {
				class = nil
			}
			continue
		}

		switch {
		case class != nil:
			entry, err := parseClassEntry(line)
			if err != nil {
				return nil, fmt.Errorf("%w: class %q: %v", ErrMalformedHeader, class.Name, err)
			}
			class.Entries = append(class.Entries, entry)
		case section == sectionProperties:
			key, value, found := strings.Cut(line, "=")
			if !found {
				return nil, fmt.Errorf("%w: property line %q", ErrMalformedHeader, line)
			}
			properties[strings.TrimSpace(key)] = strings.TrimSpace(value)
		case section == sectionSampleHeaders:
			headerRows = append(headerRows, line)
		case section == sectionScalars:
			scalarRows = append(scalarRows, line)
		default:
			return nil, fmt.Errorf("%w: line %q outside any section", ErrMalformedHeader, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if err := applyProperties(spectra, properties); err != nil {
		return nil, err
	}
	if spectra.SampleHeaders, err = parseSampleHeaders(headerRows, spectra.Samples); err != nil {
		return nil, err
	}
	if spectra.Scalars, err = parseScalarTable(scalarRows, spectra.Samples); err != nil {
		return nil, err
	}
	return spectra, nil
}

func applyProperties(s *Spectra, props map[string]string) error {
	s.Name = props["name"]

	if band, ok := props["band"]; ok && !strings.EqualFold(band, string(s.Band)) {
		return fmt.Errorf("%w: header band %q, expected %s", ErrMalformedHeader, band, s.Band)
	}

	var err error
	if s.Samples, err = intProperty(props, "samples"); err != nil {
		return err
	}
	if s.Bands, err = intProperty(props, "bands"); err != nil {
		return err
	}
	start, err := floatProperty(props, "wavelength start")
	if err != nil {
		return err
	}
	end, err := floatProperty(props, "wavelength end")
	if err != nil {
		return err
	}

	// The instrument records equally spaced band centres.
	s.Wavelength = make([]float64, s.Bands)
	if s.Bands == 1 {
		s.Wavelength[0] = start
	} else {
		step := (end - start) / float64(s.Bands-1)
		for i := range s.Wavelength {
			s.Wavelength[i] = start + float64(i)*step
		}
	}
	return nil
}

func intProperty(props map[string]string, key string) (int, error) {
	raw, ok := props[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing property %q", ErrMalformedHeader, key)
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: property %q = %q", ErrMalformedHeader, key, raw)
	}
	return v, nil
}

func floatProperty(props map[string]string, key string) (float64, error) {
	raw, ok := props[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing property %q", ErrMalformedHeader, key)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: property %q = %q", ErrMalformedHeader, key, raw)
	}
	return v, nil
}

func parseClassEntry(line string) (ClassEntry, error) {
	codeStr, label, found := strings.Cut(line, "=")
	if !found {
		return ClassEntry{}, fmt.Errorf("entry %q has no separator", line)
	}
	code, err := strconv.Atoi(strings.TrimSpace(codeStr))
	if err != nil {
		return ClassEntry{}, fmt.Errorf("entry code %q: %v", codeStr, err)
	}
	return ClassEntry{Code: code, Label: strings.TrimSpace(label)}, nil
}

// parseSampleHeaders parses the whitespace-delimited sample header table.
// The first row names the columns: sample T L P D X H.
func parseSampleHeaders(rows []string, samples int) ([]SampleHeader, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: missing sample headers section", ErrMalformedHeader)
	}
	cols := strings.Fields(rows[0])
	want := []string{"sample", "T", "L", "P", "D", "X", "H"}
	if len(cols) != len(want) {
		return nil, fmt.Errorf("%w: sample header columns %v", ErrMalformedHeader, cols)
	}
	for i, c := range want {
		if cols[i] != c {
			return nil, fmt.Errorf("%w: sample header column %q, expected %q", ErrMalformedHeader, cols[i], c)
		}
	}
	if len(rows)-1 != samples {
		return nil, fmt.Errorf("%w: %d sample header rows for %d samples", ErrShapeMismatch, len(rows)-1, samples)
	}

	headers := make([]SampleHeader, 0, samples)
	for _, row := range rows[1:] {
		fields := strings.Fields(row)
		if len(fields) != len(want) {
			return nil, fmt.Errorf("%w: sample header row %q", ErrMalformedHeader, row)
		}
		var (
			h    SampleHeader
			errs [6]error
		)
		h.Index, errs[0] = strconv.Atoi(fields[0])
		h.Tray, errs[1] = strconv.Atoi(fields[1])
		h.Section, errs[2] = strconv.Atoi(fields[2])
		h.Part, errs[3] = strconv.Atoi(fields[3])
		h.Depth, errs[4] = strconv.ParseFloat(fields[4], 64)
		h.Position, errs[5] = strconv.ParseFloat(fields[5], 64)
		h.Hole = fields[6]
		for _, err := range errs {
			if err != nil {
				return nil, fmt.Errorf("%w: sample header row %q: %v", ErrMalformedHeader, row, err)
			}
		}
		headers = append(headers, h)
	}
	return headers, nil
}

// parseScalarTable parses the semicolon-delimited scalar feature table.
// Column typing follows the data: a column whose non-empty cells all parse
// as numbers becomes a float column with NaN nulls, otherwise strings.
func parseScalarTable(rows []string, samples int) (*ScalarTable, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: missing scalars section", ErrMalformedHeader)
	}
	names := strings.Split(rows[0], ";")
	if len(rows)-1 != samples {
		return nil, fmt.Errorf("%w: %d scalar rows for %d samples", ErrShapeMismatch, len(rows)-1, samples)
	}

	cells := make([][]string, len(names))
	for i := range cells {
		cells[i] = make([]string, samples)
	}
	for r, row := range rows[1:] {
		fields := strings.Split(row, ";")
		if len(fields) != len(names) {
			return nil, fmt.Errorf("%w: scalar row %d has %d cells, expected %d", ErrMalformedHeader, r, len(fields), len(names))
		}
		for c, cell := range fields {
			cells[c][r] = strings.TrimSpace(cell)
		}
	}

	table := &ScalarTable{Columns: make([]Column, len(names))}
	for c, name := range names {
		table.Columns[c] = buildColumn(strings.TrimSpace(name), cells[c])
	}
	return table, nil
}

func buildColumn(name string, cells []string) Column {
	floats := make([]float64, len(cells))
	numeric := true
	for i, cell := range cells {
		if cell == "" {
			floats[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			numeric = false
			break
		}
		if isScalarNull(v) {
			v = math.NaN()
		}
		floats[i] = v
	}
	if numeric {
		return Column{Name: name, Floats: floats}
	}
	return Column{Name: name, Strings: append([]string(nil), cells...)}
}
