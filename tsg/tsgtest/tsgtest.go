// Package tsgtest builds synthetic TSG dataset directories for tests.
// Generated values are deterministic functions of the sample index so
// fixtures round-trip exactly.
package tsgtest

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/geoscience-analytics/tsgar/internal/binary"
)

// Config describes the synthetic dataset to generate.
type Config struct {
	Hole    string
	Samples int
	Bands   int // NIR band count

	TIR     bool // also write a TIR ensemble
	Imagery bool // write the linescan imagery file
	Hires   bool // write the profilometer file

	Sections           int // core sections, imagery frames (default 2)
	LinesPerSection    int // imagery lines per section (default 40)
	Width              int // imagery pixel width (default 64)
	SamplesPerSpectrum int // profilometer samples per spectrum (default 16)

	// DuplicateDepths repeats every eighth depth so depth-indexing paths
	// have duplicates to drop.
	DuplicateDepths bool
}

func (c Config) withDefaults() Config {
	if c.Hole == "" {
		c.Hole = "KDD001"
	}
	if c.Samples == 0 {
		c.Samples = 24
	}
	if c.Bands == 0 {
		c.Bands = 32
	}
	if c.Sections == 0 {
		c.Sections = 2
	}
	if c.LinesPerSection == 0 {
		c.LinesPerSection = 40
	}
	if c.Width == 0 {
		c.Width = 64
	}
	if c.SamplesPerSpectrum == 0 {
		c.SamplesPerSpectrum = 16
	}
	return c
}

// ScalarNull is the sentinel the instrument writes for missing scalar
// values, the lowest finite float32.
const ScalarNull = "-3.4028235e+38"

// Depth returns the downhole depth generated for sample i.
func Depth(cfg Config, i int) float64 {
	cfg = cfg.withDefaults()
	if cfg.DuplicateDepths && i%8 == 1 {
		i--
	}
	return 10 + 0.5*float64(i)
}

// Reflectance returns the spectral value generated for sample i, band j.
func Reflectance(i, j int) float32 {
	return float32(i)*0.01 + float32(j)*0.001
}

// Write generates a TSG dataset directory under dir.
func Write(dir string, cfg Config) error {
	cfg = cfg.withDefaults()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	base := filepath.Join(dir, cfg.Hole)

	if err := writeBand(base+"_tsg", cfg, "NIR", cfg.Bands, 380, 2500); err != nil {
		return err
	}
	if cfg.TIR {
		if err := writeBand(base+"_tsg_tir", cfg, "TIR", cfg.Bands/2, 6000, 14500); err != nil {
			return err
		}
	}
	if cfg.Imagery {
		if err := writeCras(base+"_tsg_cras.bip", cfg); err != nil {
			return err
		}
	}
	if cfg.Hires {
		if err := writeHires(base+"_tsg_hires.dat", cfg); err != nil {
			return err
		}
	}
	return nil
}

// tray returns the tray/section assignment for sample i: samples are
// spread evenly over cfg.Sections trays, one section per tray.
func tray(cfg Config, i int) int {
	per := (cfg.Samples + cfg.Sections - 1) / cfg.Sections
	return i/per + 1
}

func writeBand(base string, cfg Config, band string, bands int, wlStart, wlEnd float64) error {
	if bands < 2 {
		bands = 2
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[properties]\n")
	fmt.Fprintf(&b, "name=%s_tsg\n", cfg.Hole)
	fmt.Fprintf(&b, "band=%s\n", band)
	fmt.Fprintf(&b, "samples=%d\n", cfg.Samples)
	fmt.Fprintf(&b, "bands=%d\n", bands)
	fmt.Fprintf(&b, "wavelength start=%.6f\n", wlStart)
	fmt.Fprintf(&b, "wavelength end=%.6f\n", wlEnd)

	fmt.Fprintf(&b, "[class Grp1 sTSAS]\n1=Kaolinite\n2=White-Mica\n3=Chlorite\n")
	fmt.Fprintf(&b, "[class Min1 sTSAS]\n1=Kaolinite-WX\n2=Muscovite\n3=FeChlorite\n")

	fmt.Fprintf(&b, "[sample headers]\n")
	fmt.Fprintf(&b, "sample T L P D X H\n")
	for i := 0; i < cfg.Samples; i++ {
		fmt.Fprintf(&b, "%d %d 1 1 %.2f %.3f %s\n",
			i, tray(cfg, i), Depth(cfg, i), 0.008*float64(i), cfg.Hole)
	}

	fmt.Fprintf(&b, "[scalars]\n")
	cols := []string{
		"HoleID", "Date", "Depth (m)", "Tray", "Section",
		"SecDist (mm)", "TraySamp", "SecSamp", "NumFeats",
		"Grp1 sTSAS", "Min1 sTSAS", "Wt1 sTSAS",
		"Centre1", "Centre2", "Depth1", "Depth2", "Width1", "Width2",
		"Error1", "SNR", "NIL_Stat", "albedo",
	}
	fmt.Fprintf(&b, "%s\n", strings.Join(cols, ";"))
	for i := 0; i < cfg.Samples; i++ {
		centre2 := fmt.Sprintf("%.1f", 1900+float64(i))
		width2 := fmt.Sprintf("%.2f", 40+float64(i%5))
		depth2 := fmt.Sprintf("%.4f", 0.05+0.001*float64(i))
		if i%7 == 3 {
			// No second feature fitted: zeros, which load as NaN.
			centre2, width2, depth2 = "0", "0", "0"
		}
		snr := fmt.Sprintf("%.1f", 30+float64(i%9))
		if i%11 == 5 {
			snr = ScalarNull
		}
		row := []string{
			cfg.Hole,
			"2024-03-15",
			fmt.Sprintf("%.2f", Depth(cfg, i)),
			fmt.Sprintf("T%02d", tray(cfg, i)),
			"1",
			fmt.Sprintf("%.1f", 8*float64(i)),
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%d", i),
			"2",
			fmt.Sprintf("%d", i%3+1),
			fmt.Sprintf("%d", i%3+1),
			fmt.Sprintf("%.3f", 0.5+0.01*float64(i%13)),
			fmt.Sprintf("%.1f", 2200+float64(i)),
			centre2,
			fmt.Sprintf("%.4f", 0.1+0.002*float64(i)),
			depth2,
			fmt.Sprintf("%.2f", 30+float64(i%7)),
			width2,
			fmt.Sprintf("%.4f", 0.001*float64(i%17)),
			snr,
			"0.5",
			fmt.Sprintf("%.3f", 0.3+0.005*float64(i)),
		}
		fmt.Fprintf(&b, "%s\n", strings.Join(row, ";"))
	}

	if err := os.WriteFile(base+".tsg", []byte(b.String()), 0o644); err != nil {
		return err
	}

	values := make([]float32, cfg.Samples*bands)
	for i := 0; i < cfg.Samples; i++ {
		for j := 0; j < bands; j++ {
			values[i*bands+j] = Reflectance(i, j)
		}
	}
	f, err := os.Create(base + ".bip")
	if err != nil {
		return err
	}
	defer f.Close()
	return binary.NewWriter(f).WriteFloat32Slice(values)
}

func writeCras(path string, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := binary.NewWriter(f)
	if err := w.WriteTag("CoreLog linescan 1.0", 20); err != nil {
		return err
	}
	if err := w.WriteInt32Slice([]int32{int32(cfg.Sections), int32(cfg.Width)}); err != nil {
		return err
	}
	for s := 0; s < cfg.Sections; s++ {
		img := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.LinesPerSection))
		for y := 0; y < cfg.LinesPerSection; y++ {
			for x := 0; x < cfg.Width; x++ {
				img.Set(x, y, color.RGBA{
					R: uint8(80 + 40*s),
					G: uint8(y % 256),
					B: uint8(x % 256),
					A: 255,
				})
			}
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
			return err
		}
		if err := w.WriteInt32(int32(cfg.LinesPerSection)); err != nil {
			return err
		}
		if err := w.WriteInt32(int32(buf.Len())); err != nil {
			return err
		}
		if err := w.WriteBytes(buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

func writeHires(path string, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := binary.NewWriter(f)
	if err := w.WriteTag("CoreLog high-res 1.0", 20); err != nil {
		return err
	}
	n := cfg.Samples * cfg.SamplesPerSpectrum
	if err := w.WriteInt32Slice([]int32{1, int32(n), int32(cfg.SamplesPerSpectrum)}); err != nil {
		return err
	}
	const minHeight, maxHeight = 0.0, 100.0
	if err := w.WriteFloat32(minHeight); err != nil {
		return err
	}
	if err := w.WriteFloat32(maxHeight); err != nil {
		return err
	}
	if err := w.WriteTag("Profilometer", 12); err != nil {
		return err
	}
	if err := w.WriteBytes([]byte{0, 0, 0, 0}); err != nil {
		return err
	}

	samples := make([]float32, n)
	for i := range samples {
		spectrum := i / cfg.SamplesPerSpectrum
		if i%cfg.SamplesPerSpectrum == 3 {
			// Below the recorded minimum: flagged invalid by the reader.
			samples[i] = minHeight - 5
			continue
		}
		samples[i] = float32(20 + spectrum%10)
	}
	return w.WriteFloat32Slice(samples)
}

// HiresMean returns the expected per-spectrum profilometer mean for the
// generated data (the invalid sample in each group is excluded).
func HiresMean(cfg Config, spectrum int) float64 {
	return float64(20 + spectrum%10)
}
