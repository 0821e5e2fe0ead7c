// Copyright 2026 The sauvola Authors.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// imgcheck checks that the integral image of a picture is correct,
// or that two images are identical.
package main

import (
	"flag"
	"fmt"
	"os"

	"rescribe.xyz/sauvola/imgio"
	"rescribe.xyz/sauvola/integralimg"
	"rescribe.xyz/sauvola/internal/logger"
)

const usage = `Usage: imgcheck [-v] integral img
       imgcheck [-v] same img1 img2

integral: checks that every pixel of the integral image of img can be
          recovered from it, as a test of the integral image code.
same:     checks that two images have the same size, maximum sample
          value and pixels, for example the results of the direct and
          integral binarization methods.

Exits with status 1 if the check fails.
`

func main() {
	verbose := flag.Bool("v", false, "Verbose")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	log := logger.New(*verbose)
	fail := func(err error) {
		log.Error("imgcheck", err, nil)
		os.Exit(1)
	}

	switch {
	case flag.NArg() == 2 && flag.Arg(0) == "integral":
		img, _, err := imgio.Load(flag.Arg(1))
		if err != nil {
			fail(err)
		}
		integral, err := integralimg.ToIntegralImg(img)
		if err != nil {
			fail(err)
		}
		err = integral.Verify(img)
		if err != nil {
			fail(err)
		}
		log.Info("imgcheck", "integral image is correct", map[string]interface{}{"image": flag.Arg(1)})
	case flag.NArg() == 3 && flag.Arg(0) == "same":
		img1, max1, err := imgio.Load(flag.Arg(1))
		if err != nil {
			fail(err)
		}
		img2, max2, err := imgio.Load(flag.Arg(2))
		if err != nil {
			fail(err)
		}
		if max1 != max2 {
			fail(fmt.Errorf("maximum sample values differ: %d and %d", max1, max2))
		}
		n, err := imgio.Diff(img1, img2)
		if err != nil {
			fail(err)
		}
		if n != 0 {
			fail(fmt.Errorf("%d pixels differ", n))
		}
		log.Info("imgcheck", "images are identical", nil)
	default:
		flag.Usage()
		os.Exit(1)
	}
}
