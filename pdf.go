// Copyright 2026 The sauvola Authors.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package sauvola

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/jung-kurt/gofpdf"

	"rescribe.xyz/sauvola/imgio"
)

const pageWidth = 5 // pageWidth in inches

// pxToPt converts a pixel value into a pt value (72 pts per inch)
// This uses pageWidth to determine the appropriate value
func pxToPt(i int) float64 {
	return float64(i) / pageWidth
}

// Fpdf puts binarized page images together into a PDF
type Fpdf struct {
	fpdf *gofpdf.Fpdf
}

// Setup creates a new PDF with appropriate settings
func (p *Fpdf) Setup() error {
	p.fpdf = gofpdf.New("P", "pt", "A4", "")
	p.fpdf.SetAutoPageBreak(false, float64(0))
	p.fpdf.SetCreator("sauvola", true)
	return p.fpdf.Error()
}

// AddPage adds a page to the pdf, sized to fit the image at imgpath,
// which can be in any format imgio.Load understands
func (p *Fpdf) AddPage(imgpath string) error {
	img, _, err := imgio.Load(imgpath)
	if err != nil {
		return err
	}

	// gofpdf only takes jpeg, png and gif, so always give it png
	var buf bytes.Buffer
	err = imaging.Encode(&buf, img, imaging.PNG)
	if err != nil {
		return fmt.Errorf("could not encode %s for pdf: %w", imgpath, err)
	}

	b := img.Bounds()
	p.fpdf.AddPageFormat("P", gofpdf.SizeType{Wd: pxToPt(b.Dx()), Ht: pxToPt(b.Dy())})

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	_ = p.fpdf.RegisterImageOptionsReader(imgpath, opts, &buf)
	p.fpdf.ImageOptions(imgpath, 0, 0, pxToPt(b.Dx()), pxToPt(b.Dy()), false, opts, 0, "")

	return p.fpdf.Error()
}

// PageCount returns the number of pages added so far
func (p *Fpdf) PageCount() int {
	return p.fpdf.PageCount()
}

// Save saves the PDF to the file at path
func (p *Fpdf) Save(path string) error {
	return p.fpdf.OutputFileAndClose(path)
}
