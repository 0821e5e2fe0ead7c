// Copyright 2019 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package pipeline

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"rescribe.xyz/sauvola/preproc"
)

// DownloadBinarized downloads every binarized page of a book into
// dir, returning the local paths in page order. If k is not empty
// only pages binarized with that value of k are downloaded.
func DownloadBinarized(dir string, bookname string, k string, conn DownloadLister) ([]string, error) {
	var paths []string
	if k != "" {
		kf, err := strconv.ParseFloat(k, 64)
		if err != nil {
			return paths, fmt.Errorf("bad k value %q: %w", k, err)
		}
		k = preproc.FormatK(kf)
	}
	objs, err := conn.ListObjects(conn.WIPStorageId(), bookKey(bookname, ""))
	if err != nil {
		return paths, fmt.Errorf("failed to get list of files for book %s: %w", bookname, err)
	}
	sort.Strings(objs)

	for _, key := range objs {
		if !IsBinarized(key) {
			continue
		}
		if k != "" && !strings.HasSuffix(key, "_bin"+k+".png") {
			continue
		}
		fn := filepath.Join(dir, filepath.Base(key))
		conn.Log("Downloading file", key)
		err = conn.Download(conn.WIPStorageId(), key, fn)
		if err != nil {
			return paths, fmt.Errorf("failed to download file %s: %w", key, err)
		}
		paths = append(paths, fn)
	}

	if len(paths) == 0 {
		return paths, fmt.Errorf("no binarized pages found for book %s", bookname)
	}

	return paths, nil
}
