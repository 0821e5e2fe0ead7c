package preproc

// TODO: come up with a way to set a good ksize automatically

import (
	"fmt"
	"image"
	"path/filepath"
	"strconv"
	"strings"

	"rescribe.xyz/sauvola/imgio"
	"rescribe.xyz/sauvola/integralimg"
)

// Binarization output types for PreProcMulti
const (
	BinTypeBinary  = "binary"
	BinTypeZeroInv = "zeroinv"
)

// FormatK formats k as it appears in the names of binarized files,
// with as many digits as are needed to tell it apart from any other k
func FormatK(k float64) string {
	return strconv.FormatFloat(k, 'f', -1, 64)
}

// MultiPath returns the path PreProcMulti saves the result for k to
func MultiPath(inPath string, k float64) string {
	outBase := strings.TrimSuffix(inPath, filepath.Ext(inPath))
	return outBase + "_bin" + FormatK(k) + ".png"
}

// PreProcMulti binarizes and preprocesses an image with multiple binarisation levels.
// inPath: Path of input image.
// ksizes: Slice of k values to pass to Sauvola algorithm
// binType: Type of binarization threshold. binary or zeroinv are currently implemented.
// p: Sauvola parameters other than k. The radius is set automatically based on resolution if 0.
// wipe: Whether to wipe (clear sides) the image
// wipeWsize: Window size for wiping algorithm
// wipeThresh: Proportion of black pixels below which a window is considered outside the content
func PreProcMulti(inPath string, ksizes []float64, binType string, p Params, wipe bool, wipeWsize int, wipeThresh float64) ([]string, error) {
	var donePaths []string

	if binType != BinTypeBinary && binType != BinTypeZeroInv {
		return donePaths, fmt.Errorf("unknown binarization type %q", binType)
	}

	seen := make(map[string]bool, len(ksizes))
	for _, k := range ksizes {
		name := MultiPath(inPath, k)
		if seen[name] {
			return donePaths, fmt.Errorf("k %s is given more than once", FormatK(k))
		}
		seen[name] = true
	}

	gray, _, err := imgio.Load(inPath)
	if err != nil {
		return donePaths, err
	}

	if p.Radius <= 0 {
		p.Radius = AutoRadius(gray.Bounds())
	}

	integrals, err := integralimg.ToAllIntegralImg(gray)
	if err != nil {
		return donePaths, fmt.Errorf("could not make integral images for %s: %w", inPath, err)
	}

	for _, k := range ksizes {
		p.K = k
		var threshimg *image.Gray
		threshimg, err = sauvola(gray, integrals, p)
		if err != nil {
			return donePaths, fmt.Errorf("could not binarize %s with k %s: %w", inPath, FormatK(k), err)
		}

		if binType == BinTypeZeroInv {
			threshimg, err = BinToZeroInv(threshimg, gray)
			if err != nil {
				return donePaths, err
			}
		}

		clean := threshimg
		if wipe {
			clean, err = Wipe(threshimg, wipeWsize, wipeThresh)
			if err != nil {
				return donePaths, err
			}
		}

		savefn := MultiPath(inPath, k)
		err = imgio.Save(savefn, clean)
		if err != nil {
			return donePaths, err
		}
		donePaths = append(donePaths, savefn)
	}
	return donePaths, nil
}
