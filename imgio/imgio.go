// Copyright 2026 The sauvola Authors.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// Package imgio loads images from disk as 8-bit grayscale, and saves
// grayscale results, choosing the format from the file name.
package imgio

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"rescribe.xyz/sauvola/pnm"
)

// Load opens an image and returns it as grayscale, along with its
// maximum sample value. PGM and PPM files keep the maximum from their
// header; everything else is 8-bit, so 255. Color images are
// converted with Luma.
func Load(path string) (*image.Gray, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("could not open %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	magic, _ := br.Peek(2)
	if string(magic) == pnm.MagicGray || string(magic) == pnm.MagicRGB {
		img, h, err := pnm.Decode(br)
		if err != nil {
			return nil, 0, fmt.Errorf("could not decode %s: %w", path, err)
		}
		return ToGray(img), h.MaxVal, nil
	}

	img, err := imaging.Decode(br, imaging.AutoOrientation(true))
	if err != nil {
		return nil, 0, fmt.Errorf("could not decode %s: %w", path, err)
	}
	return ToGray(img), 255, nil
}

// Luma returns the luma of an 8-bit RGB color, 0.299R + 0.587G +
// 0.114B, truncated. Neutral grays are returned as they are, as the
// weights don't sum to exactly 1 in floating point.
func Luma(r, g, b uint8) uint8 {
	if r == g && g == b {
		return r
	}
	return uint8(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b))
}

// ToGray returns img as a grayscale image with bounds starting at
// 0,0. A *image.Gray is copied, anything else is converted pixel by
// pixel with Luma.
func ToGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < b.Dy(); y++ {
			copy(gray.Pix[y*gray.Stride:(y+1)*gray.Stride], g.Pix[g.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		return gray
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			gray.Pix[gray.PixOffset(x-b.Min.X, y-b.Min.Y)] = Luma(c.R, c.G, c.B)
		}
	}
	return gray
}

// Save writes img to path. Files ending in .pgm or .pnm are written
// as binary PGM and .ppm as binary PPM; anything else is left to
// imaging, which picks the format from the extension.
func Save(path string, img *image.Gray) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pgm", ".pnm", ".ppm":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("could not create %s: %w", path, err)
		}
		defer f.Close()
		if strings.EqualFold(filepath.Ext(path), ".ppm") {
			err = pnm.EncodeRGB(f, img, 255)
		} else {
			err = pnm.EncodeGray(f, img, 255)
		}
		if err != nil {
			return fmt.Errorf("could not encode %s: %w", path, err)
		}
		return f.Close()
	}

	err := imaging.Save(img, path)
	if err != nil {
		return fmt.Errorf("could not save %s: %w", path, err)
	}
	return nil
}

// Equal reports whether two grayscale images have the same size and
// the same value at every pixel
func Equal(img1, img2 *image.Gray) bool {
	b1, b2 := img1.Bounds(), img2.Bounds()
	if b1.Dx() != b2.Dx() || b1.Dy() != b2.Dy() {
		return false
	}
	for y := 0; y < b1.Dy(); y++ {
		for x := 0; x < b1.Dx(); x++ {
			if img1.GrayAt(b1.Min.X+x, b1.Min.Y+y) != img2.GrayAt(b2.Min.X+x, b2.Min.Y+y) {
				return false
			}
		}
	}
	return true
}

// Diff counts the pixels which differ between two grayscale images of
// the same size
func Diff(img1, img2 *image.Gray) (int, error) {
	b1, b2 := img1.Bounds(), img2.Bounds()
	if b1.Dx() != b2.Dx() || b1.Dy() != b2.Dy() {
		return 0, fmt.Errorf("images differ in size: %dx%d and %dx%d", b1.Dx(), b1.Dy(), b2.Dx(), b2.Dy())
	}
	n := 0
	for y := 0; y < b1.Dy(); y++ {
		for x := 0; x < b1.Dx(); x++ {
			if img1.GrayAt(b1.Min.X+x, b1.Min.Y+y) != img2.GrayAt(b2.Min.X+x, b2.Min.Y+y) {
				n++
			}
		}
	}
	return n, nil
}
