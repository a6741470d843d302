// Package tsg reads TSG/Hylogger core-scanning datasets: the text header,
// binary spectra, linescan imagery and profilometer files written by the
// instrument for a single drill hole.
package tsg

import "errors"

// Common errors
var (
	ErrNotTSG          = errors.New("not a TSG dataset")
	ErrBandMissing     = errors.New("spectral band not present")
	ErrMalformedHeader = errors.New("malformed TSG header")
	ErrShapeMismatch   = errors.New("data does not match header dimensions")
	ErrBadMagic        = errors.New("unrecognized file signature")
)
