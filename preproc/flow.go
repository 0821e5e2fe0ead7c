package preproc

import (
	"fmt"
	"image"
	"strings"
	"time"

	"rescribe.xyz/sauvola/imgio"
	"rescribe.xyz/sauvola/integralimg"
)

// Method is a way of binarizing an image
type Method int

const (
	// MethodIntegral is Sauvola's algorithm with window statistics
	// from integral images
	MethodIntegral Method = iota
	// MethodDirect is Sauvola's algorithm with window statistics
	// calculated pixel by pixel
	MethodDirect
	// MethodGlobal is a single fixed threshold
	MethodGlobal
)

func (m Method) String() string {
	switch m {
	case MethodIntegral:
		return "integral"
	case MethodDirect:
		return "direct"
	case MethodGlobal:
		return "global"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod returns the Method with the given name
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(s) {
	case "integral", "":
		return MethodIntegral, nil
	case "direct", "sauvola":
		return MethodDirect, nil
	case "global":
		return MethodGlobal, nil
	}
	return 0, fmt.Errorf("unknown binarization method %q", s)
}

// Options control how Binarize processes an image
type Options struct {
	Method Method
	Params Params
	// Level is the threshold used by MethodGlobal
	Level uint8
	// Blur is the radius of a gaussian blur applied first, 0 for none
	Blur float64
}

// Binarize converts a grayscale image to pure black and white using
// the chosen method, and reports how long the thresholding took. For
// the integral method that includes building the integral images.
// Blurring is not included in the time.
//
// Binarizing an already binarized image is not guaranteed to return
// it unchanged: a black pixel in a window of black pixels has a
// threshold of 0, and so stays black, but a lone white pixel can be
// classed as background or as text depending on its window.
func Binarize(img *image.Gray, o Options) (*image.Gray, time.Duration, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, 0, integralimg.ErrEmpty
	}
	img = Smooth(img, o.Blur)

	var new *image.Gray
	var err error
	start := time.Now()
	switch o.Method {
	case MethodIntegral:
		new, err = IntegralSauvolaParams(img, o.Params)
	case MethodDirect:
		new, err = SauvolaParams(img, o.Params)
	case MethodGlobal:
		new = Global(img, o.Level)
	default:
		err = fmt.Errorf("unknown binarization method %v", o.Method)
	}
	elapsed := time.Since(start)
	if err != nil {
		return nil, 0, err
	}
	return new, elapsed, nil
}

// BinarizeFile loads the image at inPath, binarizes it and saves the
// result to outPath, returning how long the thresholding took
func BinarizeFile(inPath string, outPath string, o Options) (time.Duration, error) {
	img, _, err := imgio.Load(inPath)
	if err != nil {
		return 0, err
	}
	new, elapsed, err := Binarize(img, o)
	if err != nil {
		return 0, fmt.Errorf("could not binarize %s: %w", inPath, err)
	}
	err = imgio.Save(outPath, new)
	if err != nil {
		return 0, err
	}
	return elapsed, nil
}
