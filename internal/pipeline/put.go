// Copyright 2021 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rescribe.xyz/sauvola/imgio"
)

type fileWalk chan string

// Walk sends the path of all files to the channel, with the exception of
// any file which starts with "."
func (f fileWalk) Walk(path string, info os.FileInfo, err error) error {
	if err != nil {
		return err
	}
	// skip files starting with . to prevent automatically generated
	// files like .DS_Store getting in the way
	if strings.HasPrefix(filepath.Base(path), ".") {
		return nil
	}
	if !info.IsDir() {
		f <- path
	}
	return nil
}

// CheckImages checks that all page images in a directory can be
// decoded (skipping dotfiles)
func CheckImages(ctx context.Context, dir string) error {
	checker := make(fileWalk)
	walkerr := make(chan error, 1)
	go func() {
		walkerr <- filepath.Walk(dir, checker.Walk)
		close(checker)
	}()

	n := 0
	for path := range checker {
		select {
		case <-ctx.Done():
			for range checker {
			} // consume the rest of the receiving channel so it isn't blocked
			return ctx.Err()
		default:
		}
		if !PageMatch.MatchString(path) {
			continue
		}
		_, _, err := imgio.Load(path)
		if err != nil {
			for range checker {
			} // consume the rest of the receiving channel so it isn't blocked
			return err
		}
		n++
	}
	if err := <-walkerr; err != nil {
		return fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	if n == 0 {
		return fmt.Errorf("no images found in %s", dir)
	}

	return nil
}

// UploadImages uploads all page images (except those which start
// with a ".") from a directory into conn.WIPStorageId(), prefixed
// with the given bookname and a slash. It also appends all file names
// with sequential numbers, like 0001, so that pages keep their order
// and their names can't be mistaken for binarized ones. It returns
// the keys uploaded.
func UploadImages(ctx context.Context, dir string, bookname string, conn Uploader) ([]string, error) {
	var keys []string
	files, err := os.ReadDir(dir)
	if err != nil {
		return keys, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	filenum := 0
	for _, file := range files {
		select {
		case <-ctx.Done():
			return keys, ctx.Err()
		default:
		}
		if file.IsDir() || strings.HasPrefix(file.Name(), ".") || !PageMatch.MatchString(file.Name()) {
			continue
		}
		origname := file.Name()
		origsuffix := filepath.Ext(origname)
		origbase := strings.TrimSuffix(origname, origsuffix)
		origpath := filepath.Join(dir, origname)

		newname := fmt.Sprintf("%s_%04d%s", origbase, filenum, origsuffix)
		key := bookKey(bookname, newname)
		conn.Log("Uploading", origpath, "to", key)
		err = conn.Upload(conn.WIPStorageId(), key, origpath)
		if err != nil {
			return keys, fmt.Errorf("failed to upload %s: %w", origpath, err)
		}
		keys = append(keys, key)

		filenum++
	}

	return keys, nil
}
