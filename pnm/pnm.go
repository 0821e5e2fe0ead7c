// Copyright 2026 The sauvola Authors.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// Package pnm reads and writes binary netpbm images: PGM (P5) for
// grayscale and PPM (P6) for RGB, with 8-bit samples. Both formats are
// registered with the image package, so image.Decode handles them once
// this package is imported.
package pnm

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"strconv"

	"rescribe.xyz/sauvola/integralimg"
)

const (
	MagicGray = "P5"
	MagicRGB  = "P6"
)

var (
	ErrBadMagic     = errors.New("not a binary PGM or PPM image")
	ErrBadHeader    = errors.New("malformed header")
	ErrMaxVal       = errors.New("maximum sample value must be between 1 and 255")
	ErrSampleRange  = errors.New("sample larger than maximum sample value")
	ErrTruncated    = errors.New("image data is shorter than the header says")
	ErrTrailingData = errors.New("image data is longer than the header says")
)

// Header describes a netpbm image
type Header struct {
	Magic         string
	Width, Height int
	MaxVal        int
}

// Channels returns the number of samples per pixel
func (h Header) Channels() int {
	if h.Magic == MagicRGB {
		return 3
	}
	return 1
}

func init() {
	image.RegisterFormat("pgm", MagicGray, decodeImage, DecodeConfig)
	image.RegisterFormat("ppm", MagicRGB, decodeImage, DecodeConfig)
}

func decodeImage(r io.Reader) (image.Image, error) {
	img, _, err := Decode(r)
	return img, err
}

// tokenizer reads whitespace separated header fields, skipping
// comments, which run from a '#' to the end of the line. A comment
// directly after a field also ends it.
type tokenizer struct {
	r *bufio.Reader
}

// next returns the next header field. It never reads past the single
// byte following the field, which for the final field is the
// end-of-header sentinel.
func (t *tokenizer) next() (string, error) {
	var tok []byte
	for {
		c, err := t.r.ReadByte()
		if err == io.EOF && len(tok) > 0 {
			return string(tok), nil
		}
		if err == io.EOF {
			return "", ErrBadHeader
		}
		if err != nil {
			return "", err
		}
		switch {
		case c == '#':
			err = t.skipLine()
			if err != nil {
				return "", err
			}
			if len(tok) > 0 {
				return string(tok), nil
			}
		case isSpace(c) && len(tok) == 0:
		case isSpace(c):
			return string(tok), nil
		default:
			tok = append(tok, c)
		}
	}
}

// skipLine discards everything up to and including the next newline
func (t *tokenizer) skipLine() error {
	_, err := t.r.ReadSlice('\n')
	for err == bufio.ErrBufferFull {
		_, err = t.r.ReadSlice('\n')
	}
	if err != nil && err != io.EOF {
		return err
	}
	return nil
}

func (t *tokenizer) int() (int, error) {
	tok, err := t.next()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: bad number %q", ErrBadHeader, tok)
	}
	return n, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

// ReadHeader reads a P5 or P6 header, leaving br positioned at the
// first byte of the pixel data.
func ReadHeader(br *bufio.Reader) (Header, error) {
	var h Header
	magic := make([]byte, 2)
	_, err := io.ReadFull(br, magic)
	if err != nil {
		return h, ErrBadMagic
	}
	h.Magic = string(magic)
	if h.Magic != MagicGray && h.Magic != MagicRGB {
		return h, ErrBadMagic
	}

	t := tokenizer{r: br}
	if h.Width, err = t.int(); err != nil {
		return h, err
	}
	if h.Height, err = t.int(); err != nil {
		return h, err
	}
	if h.MaxVal, err = t.int(); err != nil {
		return h, err
	}

	if h.Width == 0 || h.Height == 0 {
		return h, fmt.Errorf("%w: image is %dx%d", ErrBadHeader, h.Width, h.Height)
	}
	if err = integralimg.CheckSize(h.Width, h.Height); err != nil {
		return h, fmt.Errorf("%w: %w", ErrBadHeader, err)
	}
	if h.MaxVal < 1 || h.MaxVal > 255 {
		return h, fmt.Errorf("%w: got %d", ErrMaxVal, h.MaxVal)
	}
	return h, nil
}

// DecodeConfig returns the color model and dimensions of a netpbm
// image without decoding the pixels
func DecodeConfig(r io.Reader) (image.Config, error) {
	h, err := ReadHeader(bufio.NewReader(r))
	if err != nil {
		return image.Config{}, err
	}
	var m color.Model = color.GrayModel
	if h.Magic == MagicRGB {
		m = color.RGBAModel
	}
	return image.Config{ColorModel: m, Width: h.Width, Height: h.Height}, nil
}

// Decode reads a netpbm image. P5 images are returned as *image.Gray,
// P6 images as *image.RGBA. Every sample is checked against the
// header's maximum value, and the data must be exactly as long as the
// header says.
func Decode(r io.Reader) (image.Image, Header, error) {
	br := bufio.NewReader(r)
	h, err := ReadHeader(br)
	if err != nil {
		return nil, h, err
	}

	rect := image.Rect(0, 0, h.Width, h.Height)
	row := make([]byte, h.Width*h.Channels())

	var img image.Image
	var setrow func(y int)
	switch h.Magic {
	case MagicGray:
		g := image.NewGray(rect)
		img = g
		setrow = func(y int) {
			copy(g.Pix[y*g.Stride:], row)
		}
	case MagicRGB:
		rgb := image.NewRGBA(rect)
		img = rgb
		setrow = func(y int) {
			p := rgb.Pix[y*rgb.Stride:]
			for x := 0; x < h.Width; x++ {
				p[x*4] = row[x*3]
				p[x*4+1] = row[x*3+1]
				p[x*4+2] = row[x*3+2]
				p[x*4+3] = 0xff
			}
		}
	}

	for y := 0; y < h.Height; y++ {
		_, err = io.ReadFull(br, row)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, h, fmt.Errorf("%w: row %d of %d", ErrTruncated, y, h.Height)
		}
		if err != nil {
			return nil, h, err
		}
		for _, s := range row {
			if int(s) > h.MaxVal {
				return nil, h, fmt.Errorf("%w: %d > %d in row %d", ErrSampleRange, s, h.MaxVal, y)
			}
		}
		setrow(y)
	}

	if _, err = br.ReadByte(); err != io.EOF {
		if err != nil {
			return nil, h, err
		}
		return nil, h, ErrTrailingData
	}

	return img, h, nil
}

func writeHeader(w *bufio.Writer, magic string, b image.Rectangle, maxval int) error {
	if maxval < 1 || maxval > 255 {
		return ErrMaxVal
	}
	_, err := fmt.Fprintf(w, "%s\n%d %d\n%d\n", magic, b.Dx(), b.Dy(), maxval)
	return err
}

// EncodeGray writes img as a P5 image with the given maximum sample
// value
func EncodeGray(w io.Writer, img *image.Gray, maxval int) error {
	b := img.Bounds()
	bw := bufio.NewWriter(w)
	err := writeHeader(bw, MagicGray, b, maxval)
	if err != nil {
		return err
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := img.PixOffset(b.Min.X, y)
		_, err = bw.Write(img.Pix[i : i+b.Dx()])
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// EncodeRGB writes img as a P6 image with the given maximum sample
// value. Alpha is discarded.
func EncodeRGB(w io.Writer, img image.Image, maxval int) error {
	b := img.Bounds()
	bw := bufio.NewWriter(w)
	err := writeHeader(bw, MagicRGB, b, maxval)
	if err != nil {
		return err
	}
	row := make([]byte, b.Dx()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			i := (x - b.Min.X) * 3
			row[i], row[i+1], row[i+2] = c.R, c.G, c.B
		}
		_, err = bw.Write(row)
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}
