package preproc

import (
	"image"
)

// Global binarizes an image with one fixed threshold for every
// pixel: white if it is brighter than level, black otherwise
func Global(img *image.Gray, level uint8) *image.Gray {
	b := img.Bounds()
	new := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		in := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		out := new.Pix[new.PixOffset(0, y):]
		for x := 0; x < b.Dx(); x++ {
			out[x] = Classify(in[x], float64(level))
		}
	}
	return new
}
