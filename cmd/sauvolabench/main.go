// Copyright 2026 The sauvola Authors.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// sauvolabench times the direct and integral image methods of
// binarizing an image over a range of window radiuses, checks that
// they give the same result, and draws a chart of the timings.
package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"time"

	"rescribe.xyz/sauvola"
	"rescribe.xyz/sauvola/imgio"
	"rescribe.xyz/sauvola/internal/logger"
	"rescribe.xyz/sauvola/preproc"
)

const usage = `Usage: sauvolabench [-k num] [-min num] [-max num] [-step num] [-n num] [-o chart.png] [-v] inimg

Times binarizing inimg with the direct and the integral image methods
for each window radius from min to max, printing the timings as
tab separated values and optionally drawing them as a chart.
`

// best returns the shortest time taken out of n runs of binarizing
// img with o
func best(img *image.Gray, o preproc.Options, n int) (*image.Gray, time.Duration, error) {
	var bin *image.Gray
	var fastest time.Duration
	for i := 0; i < n; i++ {
		b, elapsed, err := preproc.Binarize(img, o)
		if err != nil {
			return nil, 0, err
		}
		if i == 0 || elapsed < fastest {
			fastest = elapsed
		}
		bin = b
	}
	return bin, fastest, nil
}

func main() {
	k := flag.Float64("k", 0.5, "K for sauvola algorithm.")
	minr := flag.Int("min", 1, "Smallest window radius to time.")
	maxr := flag.Int("max", 40, "Largest window radius to time.")
	step := flag.Int("step", 3, "Step between window radiuses.")
	n := flag.Int("n", 1, "Number of times to run each method, keeping the fastest.")
	out := flag.String("o", "", "Save a chart of the timings to this file.")
	verbose := flag.Bool("v", false, "Verbose")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 || *step < 1 || *n < 1 || *minr > *maxr {
		flag.Usage()
		os.Exit(1)
	}

	log := logger.New(*verbose)
	fatal := func(err error) {
		log.Error("sauvolabench", err, nil)
		os.Exit(1)
	}

	img, _, err := imgio.Load(flag.Arg(0))
	if err != nil {
		fatal(err)
	}

	var timings []sauvola.Timing
	fmt.Println("radius\tdirect\tintegral")
	for r := *minr; r <= *maxr; r += *step {
		p := preproc.Params{K: *k, Radius: r, Range: 255}
		direct, dt, err := best(img, preproc.Options{Method: preproc.MethodDirect, Params: p}, *n)
		if err != nil {
			fatal(err)
		}
		integral, it, err := best(img, preproc.Options{Method: preproc.MethodIntegral, Params: p}, *n)
		if err != nil {
			fatal(err)
		}
		diff, err := imgio.Diff(direct, integral)
		if err != nil {
			fatal(err)
		}
		if diff != 0 {
			fatal(fmt.Errorf("direct and integral results differ in %d pixels with radius %d", diff, r))
		}
		log.Debug("sauvolabench", "timed", map[string]interface{}{"radius": r, "direct": dt, "integral": it})
		fmt.Printf("%d\t%s\t%s\n", r, dt, it)
		timings = append(timings, sauvola.Timing{Radius: r, Direct: dt, Integral: it})
	}

	if *out == "" {
		return
	}
	f, err := os.Create(*out)
	if err != nil {
		fatal(err)
	}
	defer f.Close()
	b := img.Bounds()
	err = sauvola.Graph(timings, fmt.Sprintf("%s (%dx%d)", flag.Arg(0), b.Dx(), b.Dy()), f)
	if err != nil {
		fatal(fmt.Errorf("could not draw chart: %w", err))
	}
}
