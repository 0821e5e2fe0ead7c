// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// pipeline is a package used by the binarizebook command, which
// handles the core functionality, using channels heavily to
// coordinate jobs. Note that it is considered an "internal" package,
// not intended for external use, and no guarantee is made of the
// stability of any interfaces provided.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"rescribe.xyz/sauvola/internal/logger"
	"rescribe.xyz/sauvola/preproc"
)

const component = "pipeline"

// PageMatch matches the names of page images which can be binarized
var PageMatch = regexp.MustCompile(`\.(?i:png|jpe?g|tiff?|bmp|pgm|ppm|pnm)$`)

// binMatch matches the names of binarized pages
var binMatch = regexp.MustCompile(`_bin-?[0-9.]+\.png$`)

type Lister interface {
	ListObjects(bucket string, prefix string) ([]string, error)
	Log(v ...interface{})
	WIPStorageId() string
}

type Downloader interface {
	Download(bucket string, key string, fn string) error
	Log(v ...interface{})
	WIPStorageId() string
}

type DownloadLister interface {
	Download(bucket string, key string, fn string) error
	ListObjects(bucket string, prefix string) ([]string, error)
	Log(v ...interface{})
	WIPStorageId() string
}

type Uploader interface {
	Log(v ...interface{})
	Upload(bucket string, key string, path string) error
	WIPStorageId() string
}

type Pipeliner interface {
	Download(bucket string, key string, fn string) error
	GetLogger() logger.Logger
	Init() error
	ListObjects(bucket string, prefix string) ([]string, error)
	Log(v ...interface{})
	Upload(bucket string, key string, path string) error
	WIPStorageId() string
}

type MinPipeliner interface {
	Pipeliner
	MinimalInit() error
}

// Processor is a stage of the pipeline, which reads file names from
// in, processes them, and sends the names of the resulting files to
// out, closing out when in is finished. If an error occurs it is sent
// to errc and the function returns early.
type Processor func(ctx context.Context, in chan string, out chan string, errc chan error, log logger.Logger)

// download reads file names from a channel and downloads them into
// dir, putting each successfully downloaded file name into the
// process channel. If an error occurs it is sent to the errc channel
// and the function returns early.
func download(ctx context.Context, dl chan string, process chan string, conn Downloader, dir string, errc chan error, log logger.Logger) {
	for key := range dl {
		select {
		case <-ctx.Done():
			for range dl {
			} // consume the rest of the receiving channel so it isn't blocked
			errc <- ctx.Err()
			close(process)
			return
		default:
		}
		fn := filepath.Join(dir, filepath.Base(key))
		log.Debug(component, "downloading", map[string]interface{}{"key": key})
		err := conn.Download(conn.WIPStorageId(), key, fn)
		if err != nil {
			for range dl {
			} // consume the rest of the receiving channel so it isn't blocked
			errc <- fmt.Errorf("failed to download %s: %w", key, err)
			close(process)
			return
		}
		process <- fn
	}
	close(process)
}

// up reads file names from a channel and uploads them with
// the bookname/ prefix, removing the local copy of each file
// once it has been successfully uploaded. The done channel is
// then written to to signal completion. If an error occurs it
// is sent to the errc channel and the function returns early.
func up(ctx context.Context, c chan string, done chan bool, conn Uploader, bookname string, errc chan error, log logger.Logger) {
	for path := range c {
		select {
		case <-ctx.Done():
			for range c {
			} // consume the rest of the receiving channel so it isn't blocked
			errc <- ctx.Err()
			return
		default:
		}
		name := filepath.Base(path)
		key := bookKey(bookname, name)
		log.Debug(component, "uploading", map[string]interface{}{"key": key})
		err := conn.Upload(conn.WIPStorageId(), key, path)
		if err != nil {
			for range c {
			} // consume the rest of the receiving channel so it isn't blocked
			errc <- fmt.Errorf("failed to upload %s: %w", key, err)
			return
		}
		err = os.Remove(path)
		if err != nil {
			for range c {
			} // consume the rest of the receiving channel so it isn't blocked
			errc <- err
			return
		}
	}

	done <- true
}

// Settings control how each page is binarized by the Binarize stage
type Settings struct {
	Ksizes     []float64
	BinType    string
	Params     preproc.Params
	Wipe       bool
	WipeWsize  int
	WipeThresh float64
}

// Binarize returns a Processor which binarizes each page with every
// value of k in s.Ksizes, removing the original page once done
func Binarize(s Settings) Processor {
	return func(ctx context.Context, pre chan string, up chan string, errc chan error, log logger.Logger) {
		for path := range pre {
			select {
			case <-ctx.Done():
				for range pre {
				} // consume the rest of the receiving channel so it isn't blocked
				errc <- ctx.Err()
				close(up)
				return
			default:
			}
			log.Info(component, "binarizing", map[string]interface{}{"page": filepath.Base(path), "ksizes": s.Ksizes})
			done, err := preproc.PreProcMulti(path, s.Ksizes, s.BinType, s.Params, s.Wipe, s.WipeWsize, s.WipeThresh)
			if err != nil {
				for range pre {
				} // consume the rest of the receiving channel so it isn't blocked
				errc <- err
				close(up)
				return
			}
			removePage(path, log)
			for _, p := range done {
				up <- p
			}
		}
		close(up)
	}
}

// removePage deletes a local page which has been processed, logging
// a warning if it cannot
func removePage(path string, log logger.Logger) {
	err := os.Remove(path)
	if err != nil {
		log.Warning(component, "could not remove processed page", map[string]interface{}{"page": path, "error": err.Error()})
	}
}

// BinarizeBook downloads every page of a book from the conn's storage
// whose name matches match, processes it, and uploads the results
// back to the book. Pages which have already been binarized are
// skipped.
func BinarizeBook(ctx context.Context, bookname string, conn Pipeliner, process Processor, match *regexp.Regexp) error {
	dl := make(chan string)
	processc := make(chan string)
	upc := make(chan string)
	// buffered so that stages can always finish, whichever of them
	// fails first
	done := make(chan bool, 1)
	errc := make(chan error, 3)

	d, err := os.MkdirTemp("", "sauvola-"+filepath.Base(bookname))
	if err != nil {
		return fmt.Errorf("failed to create temporary directory: %w", err)
	}
	defer os.RemoveAll(d)

	log := conn.GetLogger()

	// these functions will do their jobs when their channels have data
	go download(ctx, dl, processc, conn, d, errc, log)
	go process(ctx, processc, upc, errc, log)
	go up(ctx, upc, done, conn, bookname, errc, log)

	conn.Log("Getting list of objects to download")
	objs, err := conn.ListObjects(conn.WIPStorageId(), bookKey(bookname, ""))
	if err != nil {
		close(dl)
		return fmt.Errorf("failed to get list of files for book %s: %w", bookname, err)
	}
	var todl []string
	for _, n := range objs {
		if binMatch.MatchString(n) || !match.MatchString(n) {
			log.Debug(component, "skipping item that doesn't match target", map[string]interface{}{"key": n})
			continue
		}
		todl = append(todl, n)
	}
	if len(todl) == 0 {
		close(dl)
		return fmt.Errorf("no pages found for book %s", bookname)
	}

	go func() {
		for _, a := range todl {
			dl <- a
		}
		close(dl)
	}()

	// wait for either the done or errc channel to be sent to
	select {
	case err = <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		// a failed stage reports its error before closing its
		// output, so it is always ready by the time done is
		select {
		case err = <-errc:
			return err
		default:
		}
	}

	log.Info(component, "finished book", map[string]interface{}{"book": bookname, "pages": len(todl)})
	return nil
}

// IsBinarized reports whether a file name is one produced by
// binarizing a page
func IsBinarized(name string) bool {
	return binMatch.MatchString(name)
}

// bookKey joins a book name and a file name into a storage key
func bookKey(bookname string, name string) string {
	return strings.TrimSuffix(bookname, "/") + "/" + name
}
