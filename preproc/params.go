package preproc

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrParams is returned (wrapped) for parameters that can't produce
// a meaningful threshold
var ErrParams = errors.New("invalid sauvola parameters")

// Params are the settings for Sauvola's algorithm
type Params struct {
	// K is the sensitivity. Lower values (try 0.1 or 0.2) keep
	// more of very light text; 0.2 to 0.5 is typical.
	K float64
	// Radius is the half-width of the square window of pixels the
	// local mean and standard deviation are taken from. 0 or less
	// means just the pixel itself.
	Radius int
	// Range is the dynamic range of the standard deviation, usually
	// the maximum sample value, 255.
	Range float64
	// Workers is the number of goroutines to split rows across. 0
	// or 1 processes everything in the calling goroutine.
	Workers int
}

// DefaultParams returns the parameters that work well for a typical
// page scanned at 300dpi
func DefaultParams() Params {
	return Params{K: 0.5, Radius: 13, Range: 255}
}

// Validate checks that the parameters are usable
func (p Params) Validate() error {
	if math.IsNaN(p.K) || math.IsInf(p.K, 0) {
		return fmt.Errorf("%w: k is %v", ErrParams, p.K)
	}
	if math.IsNaN(p.Range) || math.IsInf(p.Range, 0) || p.Range <= 0 {
		return fmt.Errorf("%w: range must be positive, not %v", ErrParams, p.Range)
	}
	return nil
}

// AutoRadius guesses a window radius from the width of an image,
// which is fine for ordinary book pages
// TODO: do more testing to see how good this assumption is
func AutoRadius(bounds image.Rectangle) int {
	r := bounds.Dx() / 120
	if r < 1 {
		r = 1
	}
	return r
}
