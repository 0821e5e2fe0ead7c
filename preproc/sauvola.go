package preproc

import (
	"image"
	"sync"

	"rescribe.xyz/sauvola/integralimg"
)

// Threshold is Sauvola's threshold for a pixel, given the mean and
// standard deviation of the pixels around it, the sensitivity k, and
// the dynamic range r of the standard deviation
func Threshold(mean, stddev, k, r float64) float64 {
	return mean * (1 + k*((stddev/r)-1))
}

// Classify returns white (255) for a pixel brighter than threshold,
// and black (0) otherwise, including when it is exactly equal
func Classify(v uint8, threshold float64) uint8 {
	if float64(v) > threshold {
		return 255
	}
	return 0
}

// SauvolaInto binarizes src into dst with Sauvola's algorithm, using
// stats for the local mean and standard deviation of each pixel.
// dst must be the same size as src, and must not share its pixels.
// Nothing is written to dst unless all checks pass.
//
// Each pixel only depends on src and stats, so rows are simply
// shared between p.Workers goroutines if more than one is requested.
func SauvolaInto(dst, src *image.Gray, stats WindowStats, p Params) error {
	err := p.Validate()
	if err != nil {
		return err
	}
	sb, db := src.Bounds(), dst.Bounds()
	if err = sameSize(sb, db); err != nil {
		return err
	}
	sw, sh := stats.Dims()
	if err = sameSize(sb, image.Rect(0, 0, sw, sh)); err != nil {
		return err
	}
	if sharesPix(dst, src) {
		return ErrAliased
	}

	w, h := sb.Dx(), sb.Dy()
	rows := func(from, to int) {
		for y := from; y < to; y++ {
			in := src.Pix[src.PixOffset(sb.Min.X, sb.Min.Y+y):]
			out := dst.Pix[dst.PixOffset(db.Min.X, db.Min.Y+y):]
			for x := 0; x < w; x++ {
				m, dev := stats.MeanStdDevWindow(x, y, p.Radius)
				out[x] = Classify(in[x], Threshold(m, dev, p.K, p.Range))
			}
		}
	}

	workers := min(p.Workers, h)
	if workers <= 1 {
		rows(0, h)
		return nil
	}

	var wg sync.WaitGroup
	per := (h + workers - 1) / workers
	for from := 0; from < h; from += per {
		wg.Add(1)
		go func(from, to int) {
			defer wg.Done()
			rows(from, to)
		}(from, min(from+per, h))
	}
	wg.Wait()
	return nil
}

func sauvola(img *image.Gray, stats WindowStats, p Params) (*image.Gray, error) {
	b := img.Bounds()
	err := integralimg.CheckSize(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	new := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	err = SauvolaInto(new, img, stats, p)
	if err != nil {
		return nil, err
	}
	return new, nil
}

// Sauvola implements Sauvola's algorithm for text binarization, see
// paper "Adaptive document image binarization" (2000). It looks at
// every pixel of every window, so is slow for large radiuses; the
// result is identical to IntegralSauvola.
func Sauvola(img *image.Gray, ksize float64, radius int) (*image.Gray, error) {
	return SauvolaParams(img, Params{K: ksize, Radius: radius, Range: 255})
}

// SauvolaParams is Sauvola with all parameters set explicitly
func SauvolaParams(img *image.Gray, p Params) (*image.Gray, error) {
	return sauvola(img, NewDirectStats(img), p)
}

// IntegralSauvola implements Sauvola's algorithm using Integral Images, see paper
// "Efficient Implementation of Local Adaptive Thresholding Techniques Using Integral Images"
// and
// https://stackoverflow.com/questions/13110733/computing-image-integral
func IntegralSauvola(img *image.Gray, ksize float64, radius int) (*image.Gray, error) {
	return IntegralSauvolaParams(img, Params{K: ksize, Radius: radius, Range: 255})
}

// IntegralSauvolaParams is IntegralSauvola with all parameters set
// explicitly
func IntegralSauvolaParams(img *image.Gray, p Params) (*image.Gray, error) {
	integrals, err := integralimg.ToAllIntegralImg(img)
	if err != nil {
		return nil, err
	}
	return sauvola(img, integrals, p)
}

// PreCalcedSauvola implements Sauvola's algorithm using precalculated
// Integral Images, which saves recalculating them when binarizing the
// same image with several values of k
func PreCalcedSauvola(integrals integralimg.WithSq, img *image.Gray, ksize float64, radius int) (*image.Gray, error) {
	return sauvola(img, integrals, Params{K: ksize, Radius: radius, Range: 255})
}
