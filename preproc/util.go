package preproc

import (
	"errors"
	"fmt"
	"image"

	"rescribe.xyz/sauvola/integralimg"
)

var (
	// ErrDimensionMismatch is returned when images (or an image and
	// its window statistics) which should be the same size aren't
	ErrDimensionMismatch = errors.New("dimensions do not match")
	// ErrAliased is returned when the output image would share its
	// pixels with the input
	ErrAliased = errors.New("output image shares pixels with input")
)

// WindowStats gives the mean and standard deviation of the square
// window of pixels around a point, clipped to the image. Coordinates
// are relative to the top left of the image, whatever its bounds.
type WindowStats interface {
	MeanStdDevWindow(x, y, radius int) (float64, float64)
	Dims() (int, int)
}

// DirectStats calculates window statistics by going through every
// pixel in the window each time, which is slow for big windows, but
// needs no setup.
type DirectStats struct {
	img *image.Gray
}

// NewDirectStats returns a DirectStats for img
func NewDirectStats(img *image.Gray) DirectStats {
	return DirectStats{img: img}
}

// Dims returns the width and height of the image
func (d DirectStats) Dims() (int, int) {
	b := d.img.Bounds()
	return b.Dx(), b.Dy()
}

// surrounding returns the sum and sum of squares of the pixel values
// surrounding a point in the image, and how many pixels there are
func (d DirectStats) surrounding(x, y, radius int) (uint64, uint64, int) {
	b := d.img.Bounds()
	minx, miny, maxx, maxy := integralimg.Bounds(b.Dx(), b.Dy(), x, y, radius)

	var sum, sumsq uint64
	for yi := miny; yi <= maxy; yi++ {
		row := d.img.Pix[d.img.PixOffset(b.Min.X, b.Min.Y+yi):]
		for xi := minx; xi <= maxx; xi++ {
			p := uint64(row[xi])
			sum += p
			sumsq += p * p
		}
	}
	return sum, sumsq, (maxx - minx + 1) * (maxy - miny + 1)
}

// MeanStdDevWindow calculates the mean and standard deviation of the
// window of the given radius around x, y
func (d DirectStats) MeanStdDevWindow(x, y, radius int) (float64, float64) {
	return integralimg.MeanStdDev(d.surrounding(x, y, radius))
}

// sharesPix reports whether two images are backed by the same array.
// Slices of one array all end at the same place.
func sharesPix(a, b *image.Gray) bool {
	if cap(a.Pix) == 0 || cap(b.Pix) == 0 {
		return false
	}
	return &a.Pix[:cap(a.Pix)][cap(a.Pix)-1] == &b.Pix[:cap(b.Pix)][cap(b.Pix)-1]
}

func sameSize(a, b image.Rectangle) error {
	if a.Dx() != b.Dx() || a.Dy() != b.Dy() {
		return fmt.Errorf("%w: %dx%d and %dx%d", ErrDimensionMismatch, a.Dx(), a.Dy(), b.Dx(), b.Dy())
	}
	return nil
}

// BinToZeroInv keeps the original pixels wherever the binarized
// image is black, and is white everywhere else
func BinToZeroInv(bin *image.Gray, orig *image.Gray) (*image.Gray, error) {
	b, ob := bin.Bounds(), orig.Bounds()
	err := sameSize(b, ob)
	if err != nil {
		return nil, err
	}
	newimg := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			i := newimg.PixOffset(x, y)
			if bin.Pix[bin.PixOffset(b.Min.X+x, b.Min.Y+y)] == 255 {
				newimg.Pix[i] = 255
			} else {
				newimg.Pix[i] = orig.Pix[orig.PixOffset(ob.Min.X+x, ob.Min.Y+y)]
			}
		}
	}

	return newimg, nil
}
