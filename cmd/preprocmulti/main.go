// Copyright 2026 The sauvola Authors.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// preprocmulti binarizes an image with several values of k.
package main

// TODO: come up with a way to set a good ksize automatically

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"rescribe.xyz/sauvola/internal/config"
	"rescribe.xyz/sauvola/internal/logger"
	"rescribe.xyz/sauvola/preproc"
)

const usage = `Usage: preprocmulti [-conf file] [-bt bintype] [-r radius] [-k list] [-wipe] [-ws wipesize] [-t thresh] [-v] inimg

Binarize and preprocess an image, with multiple binarisation levels,
saving images to inimg_binK.png, for example page_bin0.3.png.
`

func parseKsizes(s string) ([]float64, error) {
	var ksizes []float64
	for _, f := range strings.Split(s, ",") {
		k, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return ksizes, fmt.Errorf("bad k value %q: %w", f, err)
		}
		ksizes = append(ksizes, k)
	}
	return ksizes, nil
}

func formatKsizes(ksizes []float64) string {
	var s []string
	for _, k := range ksizes {
		s = append(s, strconv.FormatFloat(k, 'f', -1, 64))
	}
	return strings.Join(s, ",")
}

func main() {
	d := config.Default()
	confpath := flag.String("conf", config.DefaultPath(), "Config file")
	btype := flag.String("bt", preproc.BinTypeBinary, "Type of binarization threshold. binary or zeroinv are currently implemented.")
	radius := flag.Int("r", 0, "Window radius for sauvola binarization algorithm. Set automatically based on resolution if 0.")
	ks := flag.String("k", formatKsizes(d.Multi.Ksizes), "Comma separated list of k values to binarize with.")
	wipe := flag.Bool("wipe", d.Wipe.Enabled, "Wipe the sides of the binarized images.")
	wipewsize := flag.Int("ws", d.Wipe.Wsize, "Window size for wiping algorithm.")
	thresh := flag.Float64("t", d.Wipe.Thresh, "Threshold for the proportion of black pixels below which a window is determined to be the edge.")
	verbose := flag.Bool("v", false, "Verbose")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	log := logger.New(*verbose)
	fatal := func(err error) {
		log.Error("preprocmulti", err, nil)
		os.Exit(1)
	}

	conf, err := config.Load(*confpath)
	if err != nil {
		fatal(err)
	}
	conf.Sauvola.Radius = 0
	ksizes := conf.Multi.Ksizes
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "k":
			ksizes, err = parseKsizes(*ks)
		case "r":
			conf.Sauvola.Radius = *radius
		case "wipe":
			conf.Wipe.Enabled = *wipe
		case "ws":
			conf.Wipe.Wsize = *wipewsize
		case "t":
			conf.Wipe.Thresh = *thresh
		}
	})
	if err != nil {
		fatal(err)
	}

	log.Debug("preprocmulti", "binarizing", map[string]interface{}{"image": flag.Arg(0), "ksizes": ksizes})
	done, err := preproc.PreProcMulti(flag.Arg(0), ksizes, *btype, conf.Params(), conf.Wipe.Enabled, conf.Wipe.Wsize, conf.Wipe.Thresh)
	if err != nil {
		fatal(err)
	}
	for _, p := range done {
		fmt.Println(p)
	}
}
