// Copyright 2026 The sauvola Authors.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"rescribe.xyz/sauvola/preproc"
)

func TestLoad(t *testing.T) {
	cases := []struct {
		name     string
		contents string
		err      bool
		check    func(c Config) bool
	}{
		{"empty", "", false, func(c Config) bool {
			return reflect.DeepEqual(c, Default())
		}},
		{"sauvola", "[sauvola]\nk = 0.2\nradius = 20\nmethod = \"direct\"\n", false, func(c Config) bool {
			o, _ := c.Options()
			return o.Method == preproc.MethodDirect && o.Params.K == 0.2 && o.Params.Radius == 20 && o.Params.Range == 255
		}},
		{"multi", "[multi]\nksizes = [0.3, 0.6]\n[wipe]\nenabled = true\n", false, func(c Config) bool {
			return reflect.DeepEqual(c.Multi.Ksizes, []float64{0.3, 0.6}) && c.Wipe.Enabled && c.Wipe.Wsize == 5
		}},
		{"storage", "[storage]\nbackend = \"aws\"\nbucket = \"pages\"\n", false, func(c Config) bool {
			return c.Storage.Backend == "aws" && c.Storage.Bucket == "pages"
		}},
		{"badmethod", "[sauvola]\nmethod = \"otsu\"\n", true, nil},
		{"badrange", "[sauvola]\nrange = 0\n", true, nil},
		{"badbackend", "[storage]\nbackend = \"ftp\"\n", true, nil},
		{"unknown", "[sauvola]\nwindow = 3\n", true, nil},
		{"syntax", "[sauvola\n", true, nil},
	}

	dir := t.TempDir()
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := filepath.Join(dir, c.name+".toml")
			err := os.WriteFile(p, []byte(c.contents), 0600)
			if err != nil {
				t.Fatalf("Could not write %s: %v", p, err)
			}
			conf, err := Load(p)
			if (err != nil) != c.err {
				t.Fatalf("Expected error %v, got %v", c.err, err)
			}
			if c.check != nil && !c.check(conf) {
				t.Errorf("Unexpected config %+v", conf)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nothere.toml"))
	if err != nil {
		t.Fatalf("Expected no error for a missing file, got %v", err)
	}
	if !reflect.DeepEqual(c, Default()) {
		t.Errorf("Expected defaults, got %+v", c)
	}
}

func TestDefaultValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default config is invalid: %v", err)
	}
}
