package preproc

import (
	"image"

	"github.com/anthonynsimon/bild/blur"

	"rescribe.xyz/sauvola/imgio"
)

// Smooth applies a gaussian blur of the given radius, which can stop
// speckles in the background of a noisy scan being picked out as
// text. A radius of 0 or less returns the image unchanged.
func Smooth(img *image.Gray, radius float64) *image.Gray {
	if radius <= 0 {
		return img
	}
	return imgio.ToGray(blur.Gaussian(img, radius))
}
