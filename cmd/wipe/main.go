// Copyright 2026 The sauvola Authors.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// wipe clears the parts of a binarized page which are outside the
// content area.
package main

import (
	"flag"
	"fmt"
	"os"

	"rescribe.xyz/sauvola/internal/config"
	"rescribe.xyz/sauvola/internal/logger"
	"rescribe.xyz/sauvola/preproc"
)

const usage = `Usage: wipe [-conf file] [-t thresh] [-w winsize] [-v] inimg outimg

Wipes the sections of a binarized image which are outside the content
area, by finding the columns at each side where the proportion of black
pixels drops below thresh.
`

func main() {
	d := config.Default()
	confpath := flag.String("conf", config.DefaultPath(), "Config file")
	wsize := flag.Int("w", d.Wipe.Wsize, "Window size for mask finding algorithm.")
	thresh := flag.Float64("t", d.Wipe.Thresh, "Threshold for the proportion of black pixels below which a window is determined to be the edge.")
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

	conf, err := config.Load(*confpath)
	if err != nil {
		log.Error("wipe", err, nil)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "w":
			conf.Wipe.Wsize = *wsize
		case "t":
			conf.Wipe.Thresh = *thresh
		}
	})

	err = preproc.WipeFile(flag.Arg(0), flag.Arg(1), conf.Wipe.Wsize, conf.Wipe.Thresh)
	if err != nil {
		log.Error("wipe", err, map[string]interface{}{"in": flag.Arg(0)})
		os.Exit(1)
	}
	log.Debug("wipe", "wiped image", map[string]interface{}{"in": flag.Arg(0), "out": flag.Arg(1), "wsize": conf.Wipe.Wsize, "thresh": conf.Wipe.Thresh})
}
