// Copyright 2026 The sauvola Authors.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// sauvola binarizes an image with Sauvola's algorithm.
package main

import (
	"flag"
	"fmt"
	"os"

	"rescribe.xyz/sauvola/imgio"
	"rescribe.xyz/sauvola/internal/config"
	"rescribe.xyz/sauvola/internal/logger"
	"rescribe.xyz/sauvola/preproc"
)

const usage = `Usage: sauvola [-conf file] [-m method] [-k num] [-r num] [-auto] [-wipe] [-v] inimg outimg

Binarizes inimg with Sauvola's algorithm, saving the result to outimg.
The output format is chosen from the extension of outimg; .pgm and .ppm
are written as binary netpbm files.

Settings are read from the config file first, and any flags given
override them.
`

func main() {
	d := config.Default()
	confpath := flag.String("conf", config.DefaultPath(), "Config file")
	method := flag.String("m", d.Sauvola.Method, "Binarization method: integral, direct or global")
	k := flag.Float64("k", d.Sauvola.K, "K for sauvola algorithm. This controls the overall threshold level. Set it lower for very light text (try 0.1 or 0.2).")
	radius := flag.Int("r", d.Sauvola.Radius, "Window radius for sauvola algorithm.")
	auto := flag.Bool("auto", false, "Set the window radius automatically based on the image width.")
	rng := flag.Float64("R", d.Sauvola.Range, "Dynamic range of the standard deviation.")
	workers := flag.Int("workers", d.Sauvola.Workers, "Number of goroutines to binarize with.")
	blur := flag.Float64("blur", d.Sauvola.Blur, "Radius of gaussian blur to apply before binarizing. 0 for none.")
	level := flag.Uint("level", uint(d.Sauvola.Level), "Threshold level for the global method.")
	wipe := flag.Bool("wipe", d.Wipe.Enabled, "Wipe the sides of the binarized image.")
	verbose := flag.Bool("v", false, "Verbose")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(1)
	}

	log := logger.New(*verbose)
	fatal := func(err error) {
		log.Error("sauvola", err, nil)
		os.Exit(1)
	}

	conf, err := config.Load(*confpath)
	if err != nil {
		fatal(err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "m":
			conf.Sauvola.Method = *method
		case "k":
			conf.Sauvola.K = *k
		case "r":
			conf.Sauvola.Radius = *radius
		case "R":
			conf.Sauvola.Range = *rng
		case "workers":
			conf.Sauvola.Workers = *workers
		case "blur":
			conf.Sauvola.Blur = *blur
		case "level":
			conf.Sauvola.Level = uint8(*level)
		case "wipe":
			conf.Wipe.Enabled = *wipe
		}
	})
	if *level > 255 {
		fatal(fmt.Errorf("level must be between 0 and 255, not %d", *level))
	}

	o, err := conf.Options()
	if err != nil {
		fatal(err)
	}

	img, maxval, err := imgio.Load(flag.Arg(0))
	if err != nil {
		fatal(err)
	}
	if maxval != 255 {
		log.Warning("sauvola", "input is not 8-bit, samples are used as they are", map[string]interface{}{"maxval": maxval})
	}

	if *auto {
		o.Params.Radius = preproc.AutoRadius(img.Bounds())
		log.Info("sauvola", "set window radius", map[string]interface{}{"radius": o.Params.Radius})
	}

	bin, elapsed, err := preproc.Binarize(img, o)
	if err != nil {
		fatal(err)
	}
	log.Info("sauvola", "binarized", map[string]interface{}{
		"method": o.Method.String(),
		"k":      o.Params.K,
		"radius": o.Params.Radius,
		"time":   elapsed,
	})

	if conf.Wipe.Enabled {
		bin, err = preproc.Wipe(bin, conf.Wipe.Wsize, conf.Wipe.Thresh)
		if err != nil {
			fatal(err)
		}
	}

	err = imgio.Save(flag.Arg(1), bin)
	if err != nil {
		fatal(err)
	}
}
