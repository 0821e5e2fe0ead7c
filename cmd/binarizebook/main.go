// Copyright 2019 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// binarizebook uploads a directory of page images to storage,
// binarizes every page with several values of k, and can put the
// results together into a PDF.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"rescribe.xyz/sauvola"
	"rescribe.xyz/sauvola/internal/config"
	"rescribe.xyz/sauvola/internal/logger"
	"rescribe.xyz/sauvola/internal/pipeline"
	"rescribe.xyz/sauvola/preproc"
)

const usage = `Usage: binarizebook [-conf file] [-c conn] [-bt bintype] [-k list] [-wipe] [-noupload] [-pdf out.pdf] [-pdfk k] [-mkbucket] [-v] bookdir [bookname]

Uploads the page images in bookdir to storage, binarizes each of them
with every k value given, and uploads the results next to the pages,
named like 0001_bin0.3.png. If -pdf is given the pages binarized with
the k given by -pdfk (by default the first k) are then downloaded and
put together into a PDF.

If bookname is omitted the last part of the bookdir is used. With
-noupload the pages are presumed to already be in storage, and bookdir
is only used for its name.
`

type conn interface {
	pipeline.MinPipeliner
	DeleteObjects(bucket string, keys []string) error
}

func main() {
	d := config.Default()
	confpath := flag.String("conf", config.DefaultPath(), "Config file")
	conntype := flag.String("c", d.Storage.Backend, "connection type ('aws' or 'local')")
	btype := flag.String("bt", preproc.BinTypeBinary, "Type of binarization threshold. binary or zeroinv are currently implemented.")
	ks := flag.String("k", "", "Comma separated list of k values to binarize with. Defaults to the config ksizes.")
	wipe := flag.Bool("wipe", d.Wipe.Enabled, "Wipe the sides of the binarized pages.")
	noupload := flag.Bool("noupload", false, "Don't upload the pages, just binarize what is already in storage.")
	pdfpath := flag.String("pdf", "", "Save a PDF of the binarized pages to this file.")
	pdfk := flag.String("pdfk", "", "The k value of the pages to put in the PDF.")
	mkbucket := flag.Bool("mkbucket", false, "Create the storage bucket first (aws only).")
	clean := flag.Bool("clean", false, "Delete the book from storage once finished.")
	verbose := flag.Bool("v", false, "Verbose")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 || flag.NArg() > 2 {
		flag.Usage()
		os.Exit(1)
	}

	log := logger.New(*verbose)
	fatal := func(err error) {
		log.Error("binarizebook", err, nil)
		os.Exit(1)
	}

	conf, err := config.Load(*confpath)
	if err != nil {
		fatal(err)
	}
	ksizes := conf.Multi.Ksizes
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "c":
			conf.Storage.Backend = *conntype
		case "wipe":
			conf.Wipe.Enabled = *wipe
		case "k":
			ksizes = nil
			for _, s := range strings.Split(*ks, ",") {
				k, perr := strconv.ParseFloat(strings.TrimSpace(s), 64)
				if perr != nil {
					err = fmt.Errorf("bad k value %q: %w", s, perr)
					return
				}
				ksizes = append(ksizes, k)
			}
		}
	})
	if err != nil {
		fatal(err)
	}
	if len(ksizes) == 0 {
		fatal(fmt.Errorf("no k values to binarize with"))
	}
	if *pdfk == "" {
		*pdfk = preproc.FormatK(ksizes[0])
	}

	bookdir := flag.Arg(0)
	bookname := filepath.Base(bookdir)
	if flag.NArg() > 1 {
		bookname = flag.Arg(1)
	}

	var c conn
	switch conf.Storage.Backend {
	case "aws":
		c = &sauvola.AwsConn{Region: conf.Storage.Region, Bucket: conf.Storage.Bucket, Logger: log}
	case "local":
		c = &sauvola.LocalConn{TempDir: conf.Storage.TempDir, Logger: log}
	default:
		fatal(fmt.Errorf("unknown connection type %q", conf.Storage.Backend))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *mkbucket {
		a, ok := c.(*sauvola.AwsConn)
		if !ok {
			fatal(fmt.Errorf("-mkbucket only works with aws storage"))
		}
		err = a.MinimalInit()
		if err != nil {
			fatal(err)
		}
		err = a.MkPipeline()
		if err != nil {
			fatal(err)
		}
	}

	log.Debug("binarizebook", "setting up storage", map[string]interface{}{"backend": conf.Storage.Backend})
	err = c.Init()
	if err != nil {
		fatal(err)
	}

	if !*noupload {
		log.Info("binarizebook", "checking images", map[string]interface{}{"dir": bookdir})
		err = pipeline.CheckImages(ctx, bookdir)
		if err != nil {
			fatal(err)
		}
		log.Info("binarizebook", "uploading book", map[string]interface{}{"book": bookname})
		_, err = pipeline.UploadImages(ctx, bookdir, bookname, c)
		if err != nil {
			fatal(err)
		}
	}

	settings := pipeline.Settings{
		Ksizes:     ksizes,
		BinType:    *btype,
		Params:     conf.Params(),
		Wipe:       conf.Wipe.Enabled,
		WipeWsize:  conf.Wipe.Wsize,
		WipeThresh: conf.Wipe.Thresh,
	}
	err = pipeline.BinarizeBook(ctx, bookname, c, pipeline.Binarize(settings), pipeline.PageMatch)
	if err != nil {
		fatal(err)
	}

	if *pdfpath != "" {
		dir, err := os.MkdirTemp("", "binarizebook")
		if err != nil {
			fatal(err)
		}
		defer os.RemoveAll(dir)
		paths, err := pipeline.DownloadBinarized(dir, bookname, *pdfk, c)
		if err != nil {
			fatal(err)
		}
		var pdf sauvola.Fpdf
		err = pdf.Setup()
		if err != nil {
			fatal(err)
		}
		for _, p := range paths {
			err = pdf.AddPage(p)
			if err != nil {
				fatal(fmt.Errorf("failed to add %s to pdf: %w", p, err))
			}
		}
		err = pdf.Save(*pdfpath)
		if err != nil {
			fatal(fmt.Errorf("failed to save %s: %w", *pdfpath, err))
		}
		log.Info("binarizebook", "saved pdf", map[string]interface{}{"path": *pdfpath, "pages": pdf.PageCount()})
	}

	if *clean {
		keys, err := c.ListObjects(c.WIPStorageId(), bookname+"/")
		if err != nil {
			fatal(err)
		}
		err = c.DeleteObjects(c.WIPStorageId(), keys)
		if err != nil {
			fatal(err)
		}
	}
}
