// Package integralimg contains integral images (summed-area tables)
// of 8-bit grayscale images, and functions to get the sum, mean and
// standard deviation of any rectangular window in constant time.
package integralimg

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// MaxPixels is the largest number of pixels an integral image will be
// built for. Above this the uint64 sum of squares could overflow
// (255*255*MaxPixels must stay below 2^64), and the allocation would
// be unrealistic anyway.
const MaxPixels uint64 = 1 << 40

// ErrEmpty is returned when asked to build an integral image of an
// image with no pixels.
var ErrEmpty = errors.New("image has no pixels")

// AllocationError is returned when the memory for an integral image
// (or another matrix of the same size) cannot be obtained.
type AllocationError struct {
	W, H int
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("cannot allocate %dx%d matrix", e.W, e.H)
}

// CheckSize returns an AllocationError if a matrix of w by h cells
// cannot be allocated, and ErrEmpty if it would have no cells.
func CheckSize(w, h int) error {
	if w <= 0 || h <= 0 {
		return ErrEmpty
	}
	if uint64(w) > MaxPixels/uint64(h) || uint64(w)*uint64(h) > math.MaxInt {
		return &AllocationError{W: w, H: h}
	}
	return nil
}

// I is the Integral Image, stored row-major in one flat slice
type I struct {
	W, H int
	Vals []uint64
}

// WithSq contains an Integral Image and its Square
type WithSq struct {
	Img I
	Sq  I
}

// Window is a part of an Integral Image
type Window struct {
	topleft     uint64
	topright    uint64
	bottomleft  uint64
	bottomright uint64
	width       int
	height      int
}

func newI(w, h int) (I, error) {
	err := CheckSize(w, h)
	if err != nil {
		return I{}, err
	}
	return I{W: w, H: h, Vals: make([]uint64, w*h)}, nil
}

// At returns the cumulative value at x, y. Any coordinate below zero
// is outside the table and counts as 0.
func (i I) At(x, y int) uint64 {
	if x < 0 || y < 0 {
		return 0
	}
	return i.Vals[y*i.W+x]
}

// build fills in integral and integralsq (either may be nil) from img
// in a single pass: the first row and first column as running sums,
// then everything else from the cell above, the cell to the left, and
// the overlap of the two.
func build(img *image.Gray, integral *I, integralsq *I) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	set := func(t *I, v uint64, x, y int) {
		if t == nil {
			return
		}
		t.Vals[y*w+x] = v + t.At(x, y-1) + t.At(x-1, y) - t.At(x-1, y-1)
	}

	for y := 0; y < h; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			p := uint64(row[x])
			set(integral, p, x, y)
			set(integralsq, p*p, x, y)
		}
	}
}

// ToIntegralImg creates an integral image
func ToIntegralImg(img *image.Gray) (I, error) {
	b := img.Bounds()
	integral, err := newI(b.Dx(), b.Dy())
	if err != nil {
		return I{}, err
	}
	build(img, &integral, nil)
	return integral, nil
}

// ToSqIntegralImg creates an integral image of the square of all
// pixel values
func ToSqIntegralImg(img *image.Gray) (I, error) {
	b := img.Bounds()
	sq, err := newI(b.Dx(), b.Dy())
	if err != nil {
		return I{}, err
	}
	build(img, nil, &sq)
	return sq, nil
}

// ToAllIntegralImg creates a WithSq containing a regular and
// squared Integral Image, computed together in one pass
func ToAllIntegralImg(img *image.Gray) (WithSq, error) {
	b := img.Bounds()
	integral, err := newI(b.Dx(), b.Dy())
	if err != nil {
		return WithSq{}, err
	}
	sq, err := newI(b.Dx(), b.Dy())
	if err != nil {
		return WithSq{}, err
	}
	build(img, &integral, &sq)
	return WithSq{Img: integral, Sq: sq}, nil
}

// Bounds returns the clipped window of the given radius around x, y,
// as inclusive minimum and maximum coordinates. A negative radius is
// treated as 0, giving a single pixel window. A centre outside the
// image is moved to the nearest edge pixel.
func Bounds(w, h, x, y, radius int) (minx, miny, maxx, maxy int) {
	if radius < 0 {
		radius = 0
	}
	x = clamp(x, w-1)
	y = clamp(y, h-1)
	minx, miny = x-radius, y-radius
	maxx, maxy = x+radius, y+radius
	if minx < 0 {
		minx = 0
	}
	if miny < 0 {
		miny = 0
	}
	if maxx > w-1 {
		maxx = w - 1
	}
	if maxy > h-1 {
		maxy = h - 1
	}
	return minx, miny, maxx, maxy
}

// clamp limits v to 0..hi
func clamp(v, hi int) int {
	if v > hi {
		v = hi
	}
	if v < 0 {
		v = 0
	}
	return v
}

// rect gets the corner values for the inclusive rectangle
// minx,miny to maxx,maxy
func (i I) rect(minx, miny, maxx, maxy int) Window {
	return Window{
		topleft:     i.At(minx-1, miny-1),
		topright:    i.At(maxx, miny-1),
		bottomleft:  i.At(minx-1, maxy),
		bottomright: i.At(maxx, maxy),
		width:       maxx - minx + 1,
		height:      maxy - miny + 1,
	}
}

// GetWindow gets the values of the corners of the window of the
// given radius around x, y, clipped to the image, plus the
// dimensions of the window, which can be used to quickly calculate
// the mean of the area
func (i I) GetWindow(x, y, radius int) Window {
	return i.rect(Bounds(i.W, i.H, x, y, radius))
}

// GetVerticalWindow gets the values of the corners of a full height
// window starting at column x and extending width columns to the
// right, clipped to the image
func (i I) GetVerticalWindow(x, width int) Window {
	x = clamp(x, i.W-1)
	maxx := x + width - 1
	if maxx > i.W-1 {
		maxx = i.W - 1
	}
	if maxx < x {
		maxx = x
	}
	return i.rect(x, 0, maxx, i.H-1)
}

// Sum returns the sum of all pixels in a Window
func (w Window) Sum() uint64 {
	return w.bottomright - w.topright - w.bottomleft + w.topleft
}

// Size returns the total size of a Window
func (w Window) Size() int {
	return w.width * w.height
}

// Mean returns the average value of pixels in a Window
func (w Window) Mean() float64 {
	return float64(w.Sum()) / float64(w.Size())
}

// Proportion returns the proportion of pixels in a Window of a
// binarized (0 and 255 only) image which are black
func (w Window) Proportion() float64 {
	return 1 - w.Mean()/255
}

// MeanWindow calculates the mean value of a section of an Integral
// Image
func (i I) MeanWindow(x, y, radius int) float64 {
	return i.GetWindow(x, y, radius).Mean()
}

// MeanStdDev turns the sum and sum of squares of count pixels into
// their mean and (population) standard deviation. Rounding can push
// the variance of a flat area very slightly below zero, so it is
// clamped.
func MeanStdDev(sum, sumsq uint64, count int) (float64, float64) {
	n := float64(count)
	mean := float64(sum) / n
	variance := float64(sumsq)/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

// MeanStdDevWindow calculates the mean and standard deviation of
// a section on an Integral Image
func (i WithSq) MeanStdDevWindow(x, y, radius int) (float64, float64) {
	w := i.Img.GetWindow(x, y, radius)
	sq := i.Sq.GetWindow(x, y, radius)
	return MeanStdDev(w.Sum(), sq.Sum(), w.Size())
}

// Dims returns the width and height of the image the integral
// images were made from
func (i WithSq) Dims() (int, int) {
	return i.Img.W, i.Img.H
}

// Verify checks that every single pixel window of an integral image
// sums to the value of the pixel it was built from, returning an
// error for the first one that doesn't
func (i I) Verify(img *image.Gray) error {
	b := img.Bounds()
	if b.Dx() != i.W || b.Dy() != i.H {
		return fmt.Errorf("integral image is %dx%d, image is %dx%d", i.W, i.H, b.Dx(), b.Dy())
	}
	for y := 0; y < i.H; y++ {
		for x := 0; x < i.W; x++ {
			sum := i.GetWindow(x, y, 0).Sum()
			v := uint64(img.Pix[img.PixOffset(b.Min.X+x, b.Min.Y+y)])
			if sum != v {
				return fmt.Errorf("window at %d,%d sums to %d, pixel is %d", x, y, sum, v)
			}
		}
	}
	return nil
}
