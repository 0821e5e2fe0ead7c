// Copyright 2021 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"rescribe.xyz/sauvola"
	"rescribe.xyz/sauvola/imgio"
	"rescribe.xyz/sauvola/internal/logger"
	"rescribe.xyz/sauvola/preproc"
)

// StrLog is a simple log writer that saves to a string,
// so it can be printed out only when needed.
type StrLog struct {
	log string
}

func (t *StrLog) Write(p []byte) (n int, err error) {
	t.log += string(p)
	return len(p), nil
}

type PipelineTester interface {
	MinPipeliner
	DeleteObjects(bucket string, keys []string) error
}

type connection struct {
	name string
	c    PipelineTester
}

// conns returns the connections to test with. AWS is only included
// if SAUVOLA_TEST_AWS is set, as it needs credentials and a bucket.
func conns(t *testing.T, slog *StrLog) []connection {
	vlog := logger.NewZerolog(slog, zerolog.DebugLevel)
	c := []connection{
		{name: "local", c: &sauvola.LocalConn{TempDir: t.TempDir(), Logger: vlog}},
	}
	if os.Getenv("SAUVOLA_TEST_AWS") != "" {
		c = append(c, connection{name: "aws", c: &sauvola.AwsConn{Logger: vlog}})
	}
	return c
}

// Test_download tests the download() function inside the pipeline
func Test_download(t *testing.T) {
	var slog StrLog

	cases := []struct {
		dl       string
		contents []byte
		process  string
		errs     []error
	}{
		{"notpresent", []byte(""), "", []error{errors.New("no such file or directory"), errors.New("NoSuchKey: The specified key does not exist")}},
		{"empty", []byte{}, "empty", []error{}},
		{"justastring", []byte("I am just a basic string"), "justastring", []error{}},
	}

	for _, conn := range conns(t, &slog) {
		for _, c := range cases {
			t.Run(fmt.Sprintf("%s/%s", conn.name, c.dl), func(t *testing.T) {
				err := conn.c.Init()
				if err != nil {
					t.Fatalf("Could not initialise %s connection: %v\nLog: %s", conn.name, err, slog.log)
				}
				slog.log = ""
				tempDir := t.TempDir()

				// create and upload test file
				tempFile := filepath.Join(tempDir, "t")
				err = os.WriteFile(tempFile, c.contents, 0600)
				if err != nil {
					t.Fatalf("Could not create temporary file %s: %v\nLog: %s", tempFile, err, slog.log)
				}
				if c.dl != "notpresent" {
					err = conn.c.Upload(conn.c.WIPStorageId(), c.dl, tempFile)
					if err != nil {
						t.Fatalf("Could not upload file %s: %v\nLog: %s", tempFile, err, slog.log)
					}
				}
				err = os.Remove(tempFile)
				if err != nil {
					t.Fatalf("Could not remove temporary upload file %s: %v\nLog: %s", tempFile, err, slog.log)
				}

				// download
				dlchan := make(chan string)
				processchan := make(chan string)
				errchan := make(chan error)

				go download(context.Background(), dlchan, processchan, conn.c, tempDir, errchan, conn.c.GetLogger())

				dlchan <- c.dl
				close(dlchan)

				// check all is as expected
				select {
				case err = <-errchan:
					if len(c.errs) == 0 {
						t.Fatalf("Received an error when one was not expected, error: %v\nLog: %s", err, slog.log)
					}
					expectedErrFound := 0
					for _, v := range c.errs {
						if strings.Contains(err.Error(), v.Error()) {
							expectedErrFound = 1
						}
					}
					if expectedErrFound == 0 {
						t.Fatalf("Received a different error than was expected, expected one of: %v, got %v\nLog: %s", c.errs, err, slog.log)
					}
				case process := <-processchan:
					expected := filepath.Join(tempDir, c.process)
					if expected != process {
						t.Fatalf("Received a different addition to the process channel than was expected, expected: %v, got %v\nLog: %s", expected, process, slog.log)
					}
				}

				if c.dl == "notpresent" {
					return
				}

				tempFile = filepath.Join(tempDir, c.dl)
				dled, err := os.ReadFile(tempFile)
				if err != nil {
					t.Fatalf("Could not read downloaded file %s: %v\nLog: %s", tempFile, err, slog.log)
				}

				if !bytes.Equal(dled, c.contents) {
					t.Fatalf("Downloaded file differs from expected, expected: '%s', got '%s'\nLog: %s", c.contents, dled, slog.log)
				}

				// cleanup
				err = conn.c.DeleteObjects(conn.c.WIPStorageId(), []string{c.dl})
				if err != nil {
					t.Fatalf("Could not delete storage object used for test %s: %v\nLog: %s", c.dl, err, slog.log)
				}
			})
		}
	}
}

// Test_up tests the up() function inside the pipeline
func Test_up(t *testing.T) {
	var slog StrLog

	cases := []struct {
		ul       string
		contents []byte
		errs     []error
	}{
		{"notpresent", []byte(""), []error{errors.New("no such file or directory")}},
		{"empty", []byte{}, []error{}},
		{"justastring", []byte("I am just a basic string"), []error{}},
	}

	for _, conn := range conns(t, &slog) {
		for _, c := range cases {
			t.Run(fmt.Sprintf("%s/%s", conn.name, c.ul), func(t *testing.T) {
				err := conn.c.Init()
				if err != nil {
					t.Fatalf("Could not initialise %s connection: %v\nLog: %s", conn.name, err, slog.log)
				}
				slog.log = ""
				tempDir := t.TempDir()

				// create test file
				tempFile := filepath.Join(tempDir, c.ul)
				if c.ul != "notpresent" {
					err = os.WriteFile(tempFile, c.contents, 0600)
					if err != nil {
						t.Fatalf("Could not create temporary file %s: %v\nLog: %s", tempFile, err, slog.log)
					}
				}

				// upload
				ulchan := make(chan string)
				donechan := make(chan bool)
				errchan := make(chan error)

				go up(context.Background(), ulchan, donechan, conn.c, "pipelinetest", errchan, conn.c.GetLogger())

				ulchan <- tempFile
				close(ulchan)

				// check all is as expected
				select {
				case err = <-errchan:
					if len(c.errs) == 0 {
						t.Fatalf("Received an error when one was not expected, error: %v\nLog: %s", err, slog.log)
					}
					expectedErrFound := 0
					for _, v := range c.errs {
						if strings.Contains(err.Error(), v.Error()) {
							expectedErrFound = 1
						}
					}
					if expectedErrFound == 0 {
						t.Fatalf("Received a different error than was expected, expected one of: %v, got %v\nLog: %s", c.errs, err, slog.log)
					}
				case <-donechan:
					if len(c.errs) > 0 {
						t.Fatalf("Expected an error, but none was received\nLog: %s", slog.log)
					}
				}

				if c.ul == "notpresent" {
					return
				}

				_, err = os.Stat(tempFile)
				if !os.IsNotExist(err) {
					t.Fatalf("Uploaded file not removed as it should have been after uploading %s: %v\nLog: %s", tempFile, err, slog.log)
				}

				err = conn.c.Download(conn.c.WIPStorageId(), "pipelinetest/"+c.ul, tempFile)
				if err != nil {
					t.Fatalf("Could not download file %s: %v\nLog: %s", tempFile, err, slog.log)
				}

				dled, err := os.ReadFile(tempFile)
				if err != nil {
					t.Fatalf("Could not read downloaded file %s: %v\nLog: %s", tempFile, err, slog.log)
				}

				if !bytes.Equal(dled, c.contents) {
					t.Fatalf("Uploaded file differs from expected, expected: '%s', got '%s'\nLog: %s", c.contents, dled, slog.log)
				}

				// cleanup
				err = conn.c.DeleteObjects(conn.c.WIPStorageId(), []string{"pipelinetest/" + c.ul})
				if err != nil {
					t.Fatalf("Could not delete storage object used for test %s: %v\nLog: %s", c.ul, err, slog.log)
				}
			})
		}
	}
}

// writePages saves n random page images to dir
func writePages(t *testing.T, dir string, n int) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < n; i++ {
		img := image.NewGray(image.Rect(0, 0, 40, 30))
		r.Read(img.Pix)
		p := filepath.Join(dir, fmt.Sprintf("pg%d.png", i))
		err := imgio.Save(p, img)
		if err != nil {
			t.Fatalf("Could not save %s: %v", p, err)
		}
	}
}

func TestBinarizeBook(t *testing.T) {
	var slog StrLog
	ctx := context.Background()

	settings := Settings{
		Ksizes:  []float64{0.1, 0.3},
		BinType: preproc.BinTypeBinary,
		Params:  preproc.Params{Radius: 3, Range: 255},
	}

	for _, conn := range conns(t, &slog) {
		t.Run(conn.name, func(t *testing.T) {
			err := conn.c.Init()
			if err != nil {
				t.Fatalf("Could not initialise %s connection: %v", conn.name, err)
			}
			slog.log = ""

			dir := t.TempDir()
			writePages(t, dir, 3)
			err = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a page"), 0600)
			if err != nil {
				t.Fatalf("Could not write notes: %v", err)
			}
			err = CheckImages(ctx, dir)
			if err != nil {
				t.Fatalf("CheckImages: %v", err)
			}

			book := "testbook"
			keys, err := UploadImages(ctx, dir, book, conn.c)
			if err != nil {
				t.Fatalf("UploadImages: %v\nLog: %s", err, slog.log)
			}
			expected := []string{"testbook/pg0_0000.png", "testbook/pg1_0001.png", "testbook/pg2_0002.png"}
			if strings.Join(keys, " ") != strings.Join(expected, " ") {
				t.Errorf("Expected uploaded keys %v, got %v", expected, keys)
			}

			// running twice should skip pages binarized the first time
			for i := 0; i < 2; i++ {
				err = BinarizeBook(ctx, book, conn.c, Binarize(settings), PageMatch)
				if err != nil {
					t.Fatalf("BinarizeBook run %d: %v\nLog: %s", i, err, slog.log)
				}
			}

			objs, err := conn.c.ListObjects(conn.c.WIPStorageId(), book+"/")
			if err != nil {
				t.Fatalf("ListObjects: %v", err)
			}
			if len(objs) != 9 {
				t.Errorf("Expected 9 objects, got %d: %v", len(objs), objs)
			}

			paths, err := DownloadBinarized(t.TempDir(), book, "0.3", conn.c)
			if err != nil {
				t.Fatalf("DownloadBinarized: %v", err)
			}
			if len(paths) != 3 {
				t.Fatalf("Expected 3 pages binarized with k 0.3, got %v", paths)
			}
			got, _, err := imgio.Load(paths[0])
			if err != nil {
				t.Fatalf("Could not load %s: %v", paths[0], err)
			}
			orig, _, err := imgio.Load(filepath.Join(dir, "pg0.png"))
			if err != nil {
				t.Fatalf("Could not load original page: %v", err)
			}
			want, err := preproc.IntegralSauvolaParams(orig, preproc.Params{K: 0.3, Radius: 3, Range: 255})
			if err != nil {
				t.Fatalf("%v", err)
			}
			if !imgio.Equal(want, got) {
				t.Errorf("Binarized page differs from binarizing it directly")
			}

			padded, err := DownloadBinarized(t.TempDir(), book, "0.30", conn.c)
			if err != nil || len(padded) != 3 {
				t.Errorf("Expected k 0.30 to match the 3 pages binarized with 0.3, got %v (%v)", padded, err)
			}
			if _, err = DownloadBinarized(t.TempDir(), book, "point3", conn.c); err == nil {
				t.Errorf("Expected an error for a k which is not a number")
			}

			all, err := DownloadBinarized(t.TempDir(), book, "", conn.c)
			if err != nil || len(all) != 6 {
				t.Errorf("Expected 6 binarized pages, got %v (%v)", all, err)
			}

			err = conn.c.DeleteObjects(conn.c.WIPStorageId(), objs)
			if err != nil {
				t.Fatalf("Could not delete test objects: %v", err)
			}
		})
	}
}

func TestBinarizeBookErrors(t *testing.T) {
	var slog StrLog
	ctx := context.Background()
	settings := Settings{Ksizes: []float64{0.3}, BinType: preproc.BinTypeBinary, Params: preproc.DefaultParams()}

	for _, conn := range conns(t, &slog) {
		t.Run(conn.name, func(t *testing.T) {
			err := conn.c.Init()
			if err != nil {
				t.Fatalf("Could not initialise %s connection: %v", conn.name, err)
			}

			err = BinarizeBook(ctx, "nosuchbook", conn.c, Binarize(settings), PageMatch)
			if err == nil {
				t.Errorf("Expected an error for a book with no pages")
			}

			dir := t.TempDir()
			bad := filepath.Join(dir, "bad.png")
			err = os.WriteFile(bad, []byte("this is not a png"), 0600)
			if err != nil {
				t.Fatalf("Could not write %s: %v", bad, err)
			}
			err = conn.c.Upload(conn.c.WIPStorageId(), "badbook/0001.png", bad)
			if err != nil {
				t.Fatalf("Could not upload: %v", err)
			}
			err = BinarizeBook(ctx, "badbook", conn.c, Binarize(settings), PageMatch)
			if err == nil || !strings.Contains(err.Error(), "could not decode") {
				t.Errorf("Expected a decoding error, got %v", err)
			}

			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			err = BinarizeBook(cancelled, "badbook", conn.c, Binarize(settings), PageMatch)
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Expected context.Canceled, got %v", err)
			}

			_ = conn.c.DeleteObjects(conn.c.WIPStorageId(), []string{"badbook/0001.png"})
		})
	}
}

func TestIsBinarized(t *testing.T) {
	cases := []struct {
		name     string
		expected bool
	}{
		{"book/pg_0001_bin0.3.png", true},
		{"book/pg_0001_bin0.25.png", true},
		{"book/pg_0001_bin1.png", true},
		{"book/pg_0001_bin-0.2.png", true},
		{"book/pg_0001.png", false},
		{"book/pg_bin0.3.jpg", false},
		{"book/binder_0001.png", false},
	}
	for _, c := range cases {
		if got := IsBinarized(c.name); got != c.expected {
			t.Errorf("IsBinarized(%q): expected %v, got %v", c.name, c.expected, got)
		}
	}
}

func Test_removePage(t *testing.T) {
	var slog StrLog
	log := logger.NewZerolog(&slog, zerolog.DebugLevel)

	p := filepath.Join(t.TempDir(), "pg.png")
	err := os.WriteFile(p, []byte("page"), 0600)
	if err != nil {
		t.Fatalf("Could not write page: %v", err)
	}
	removePage(p, log)
	if _, err = os.Stat(p); !os.IsNotExist(err) {
		t.Errorf("Expected %s to be removed, stat gave %v", p, err)
	}
	if slog.log != "" {
		t.Errorf("Expected nothing logged, got %s", slog.log)
	}

	removePage(p, log)
	if !strings.Contains(slog.log, "could not remove processed page") || !strings.Contains(slog.log, `"level":"warn"`) {
		t.Errorf("Expected a warning for a missing page, got %s", slog.log)
	}
}
