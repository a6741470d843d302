package tsg

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"

	"github.com/geoscience-analytics/tsgar/internal/binary"
)

// crasMagic is the signature at the start of a linescan imagery file.
const crasMagic = "CoreLog linescan 1.0"

// Cras holds the decoded linescan RGB imagery of a dataset. Frames are
// captured per core section and stacked into one tall image.
type Cras struct {
	Width    int
	Sections []CrasSection

	// Pixels holds the stacked image row-major as [Lines][Width][RGB].
	Pixels []uint8
}

// CrasSection records the line extent of one captured core section.
type CrasSection struct {
	Lines int
}

// Lines returns the total line count across all sections.
func (c *Cras) Lines() int {
	total := 0
	for _, s := range c.Sections {
		total += s.Lines
	}
	return total
}

// ReadCras reads and decodes a linescan imagery file. The file carries a
// signature, the section count and pixel width, then per section a line
// count and one length-prefixed JPEG frame.
func ReadCras(path string) (*Cras, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := binary.NewReader(f)
	magic, err := r.ReadTag(20)
	if err != nil {
		return nil, err
	}
	if magic != crasMagic {
		return nil, fmt.Errorf("%w: %q in %s", ErrBadMagic, magic, path)
	}

	counts, err := r.ReadInt32Slice(2)
	if err != nil {
		return nil, err
	}
	nsections, width := int(counts[0]), int(counts[1])
	if nsections <= 0 || width <= 0 {
		return nil, fmt.Errorf("%w: %d sections, width %d", ErrShapeMismatch, nsections, width)
	}

	cras := &Cras{Width: width, Sections: make([]CrasSection, 0, nsections)}
	for i := 0; i < nsections; i++ {
		nlines, err := r.ReadInt32()
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", i, err)
		}
		frameLen, err := r.ReadInt32()
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", i, err)
		}
		frame, err := r.ReadBytes(int(frameLen))
		if err != nil {
			return nil, fmt.Errorf("section %d frame: %w", i, err)
		}

		img, err := jpeg.Decode(bytes.NewReader(frame))
		if err != nil {
			return nil, fmt.Errorf("section %d frame: %w", i, err)
		}
		bounds := img.Bounds()
		if bounds.Dx() != width || bounds.Dy() != int(nlines) {
			return nil, fmt.Errorf("%w: section %d frame is %dx%d, expected %dx%d",
				ErrShapeMismatch, i, bounds.Dx(), bounds.Dy(), width, nlines)
		}

		cras.Sections = append(cras.Sections, CrasSection{Lines: int(nlines)})
		cras.Pixels = appendRGB(cras.Pixels, img)
	}
	return cras, nil
}

// appendRGB appends an image's pixels as packed RGB rows.
func appendRGB(dst []uint8, img image.Image) []uint8 {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			dst = append(dst, uint8(r>>8), uint8(g>>8), uint8(b>>8))
		}
	}
	return dst
}
