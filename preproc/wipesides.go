package preproc

// TODO: add minimum size variable (default ~30%?)

import (
	"fmt"
	"image"

	"rescribe.xyz/sauvola/imgio"
	"rescribe.xyz/sauvola/integralimg"
)

// returns the proportion of the given window that is black pixels
func proportion(i integralimg.I, x int, size int) float64 {
	w := i.GetVerticalWindow(x, size)
	return w.Proportion()
}

// findbestedge goes through every vertical line from x to x+w to
// find the one with the lowest proportion of black pixels.
func findbestedge(img integralimg.I, x int, w int) int {
	if w <= 1 {
		return x
	}

	bestx := x
	best := proportion(img, x, 1)
	right := min(x+w, img.W)
	for x++; x < right; x++ {
		prop := proportion(img, x, 1)
		if prop < best {
			best = prop
			bestx = x
		}
	}

	return bestx
}

// findedges finds the edges of the main content, by moving a window of wsize
// from the middle of the image to the left and right, stopping when it reaches
// a point at which there is a lower proportion of black pixels than thresh.
// The low edge is the first column kept, the high edge the first one wiped
// after the content.
func findedges(img integralimg.I, wsize int, thresh float64) (int, int) {
	maxx := img.W - 1
	lowedge, highedge := 0, img.W

	for x := maxx / 2; x < maxx-wsize; x++ {
		if proportion(img, x, wsize) <= thresh {
			highedge = findbestedge(img, x, wsize)
			break
		}
	}

	for x := maxx / 2; x > 0; x-- {
		if proportion(img, x, wsize) <= thresh {
			lowedge = findbestedge(img, x, wsize)
			break
		}
	}

	return lowedge, highedge
}

// wipesides fills the sections of image not within the boundaries
// of lowedge and highedge with white
func wipesides(img *image.Gray, lowedge int, highedge int) *image.Gray {
	b := img.Bounds()
	new := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	for y := 0; y < b.Dy(); y++ {
		in := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		out := new.Pix[new.PixOffset(0, y) : new.PixOffset(0, y)+b.Dx()]
		for x := range out {
			if x < lowedge || x >= highedge {
				out[x] = 255
			} else {
				out[x] = in[x]
			}
		}
	}

	return new
}

// Wipe fills the sections of a binarized image which fall outside
// the content area with white. wsize is the width of the window of
// columns used to look for the edges, and thresh the proportion of
// black pixels under which a window is taken to be outside the
// content.
func Wipe(img *image.Gray, wsize int, thresh float64) (*image.Gray, error) {
	integral, err := integralimg.ToIntegralImg(img)
	if err != nil {
		return nil, err
	}
	lowedge, highedge := findedges(integral, wsize, thresh)
	return wipesides(img, lowedge, highedge), nil
}

// WipeFile wipes the sides of the image at inPath, saving the result
// to outPath
func WipeFile(inPath string, outPath string, wsize int, thresh float64) error {
	img, _, err := imgio.Load(inPath)
	if err != nil {
		return err
	}
	clean, err := Wipe(img, wsize, thresh)
	if err != nil {
		return fmt.Errorf("could not wipe %s: %w", inPath, err)
	}
	return imgio.Save(outPath, clean)
}
