// Copyright 2026 The sauvola Authors.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package sauvola

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"rescribe.xyz/sauvola/internal/logger"
)

func TestLocalConn(t *testing.T) {
	conn := &LocalConn{TempDir: filepath.Join(t.TempDir(), "conn"), Logger: logger.Nop()}
	err := conn.Init()
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	src := filepath.Join(t.TempDir(), "page.png")
	err = os.WriteFile(src, []byte("page contents"), 0600)
	if err != nil {
		t.Fatalf("Could not write %s: %v", src, err)
	}

	keys := []string{"book/0002.png", "book/0001.png", "other/0001.png", "book/sub/0003.png"}
	for _, k := range keys {
		err = conn.Upload(conn.WIPStorageId(), k, src)
		if err != nil {
			t.Fatalf("Upload %s: %v", k, err)
		}
	}

	names, err := conn.ListObjects(conn.WIPStorageId(), "book/")
	if err != nil {
		t.Fatalf("ListObjects: %v", err)
	}
	expected := []string{"book/0001.png", "book/0002.png", "book/sub/0003.png"}
	if !reflect.DeepEqual(names, expected) {
		t.Errorf("Expected %v, got %v", expected, names)
	}

	dl := filepath.Join(t.TempDir(), "dl.png")
	err = conn.Download(conn.WIPStorageId(), "book/0001.png", dl)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	b, err := os.ReadFile(dl)
	if err != nil || string(b) != "page contents" {
		t.Errorf("Downloaded file has wrong contents %q (%v)", b, err)
	}
	err = conn.Download(conn.WIPStorageId(), "book/nothere.png", filepath.Join(t.TempDir(), "x"))
	if err == nil {
		t.Errorf("Expected an error downloading a missing object")
	}

	err = conn.DeleteObjects(conn.WIPStorageId(), []string{"book/0001.png", "book/sub/0003.png", "book/nothere.png"})
	if err != nil {
		t.Fatalf("DeleteObjects: %v", err)
	}
	names, err = conn.ListObjects(conn.WIPStorageId(), "")
	if err != nil {
		t.Fatalf("ListObjects: %v", err)
	}
	expected = []string{"book/0002.png", "other/0001.png"}
	if !reflect.DeepEqual(names, expected) {
		t.Errorf("Expected %v after deleting, got %v", expected, names)
	}

	conn.Log("Finished with", len(names), "objects")
}
