// Copyright 2026 The sauvola Authors.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

// Package config loads the settings shared by the sauvola tools from
// a TOML file, falling back to defaults for anything not set.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"rescribe.xyz/sauvola/preproc"
)

// Sauvola holds the binarization settings
type Sauvola struct {
	K       float64 `toml:"k"`
	Radius  int     `toml:"radius"`
	Range   float64 `toml:"range"`
	Workers int     `toml:"workers"`
	Method  string  `toml:"method"`
	Blur    float64 `toml:"blur"`
	Level   uint8   `toml:"level"`
}

// Wipe holds the side wiping settings
type Wipe struct {
	Enabled bool    `toml:"enabled"`
	Wsize   int     `toml:"wsize"`
	Thresh  float64 `toml:"thresh"`
}

// Storage holds the settings for where book pages are kept
type Storage struct {
	// Backend is "local" or "aws"
	Backend string `toml:"backend"`
	TempDir string `toml:"tempdir"`
	Region  string `toml:"region"`
	Bucket  string `toml:"bucket"`
}

// Multi holds the settings for binarizing with several values of k
type Multi struct {
	Ksizes []float64 `toml:"ksizes"`
}

// Config is the full set of settings
type Config struct {
	Sauvola Sauvola `toml:"sauvola"`
	Wipe    Wipe    `toml:"wipe"`
	Storage Storage `toml:"storage"`
	Multi   Multi   `toml:"multi"`
}

// Default returns the settings used when there is no config file
func Default() Config {
	p := preproc.DefaultParams()
	return Config{
		Sauvola: Sauvola{
			K:      p.K,
			Radius: p.Radius,
			Range:  p.Range,
			Method: preproc.MethodIntegral.String(),
			Level:  128,
		},
		Wipe: Wipe{
			Wsize:  5,
			Thresh: 0.05,
		},
		Storage: Storage{
			Backend: "local",
		},
		Multi: Multi{
			Ksizes: []float64{0.1, 0.2, 0.4, 0.5},
		},
	}
}

// DefaultPath returns the path the tools look for a config file at,
// ~/.config/sauvola/config.toml on Linux
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "sauvola", "config.toml")
}

// Load reads the config file at path over the defaults. A path that
// doesn't exist just gives the defaults; an empty path uses
// DefaultPath.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return c, nil
	}

	md, err := toml.DecodeFile(path, &c)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return c, fmt.Errorf("could not read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return c, fmt.Errorf("unknown setting %s in config %s", undecoded[0], path)
	}

	return c, c.Validate()
}

// Validate checks the settings make sense
func (c Config) Validate() error {
	_, err := c.Options()
	if err != nil {
		return err
	}
	switch c.Storage.Backend {
	case "local", "aws":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

// Params returns the Sauvola parameters
func (c Config) Params() preproc.Params {
	return preproc.Params{
		K:       c.Sauvola.K,
		Radius:  c.Sauvola.Radius,
		Range:   c.Sauvola.Range,
		Workers: c.Sauvola.Workers,
	}
}

// Options returns the binarization options
func (c Config) Options() (preproc.Options, error) {
	m, err := preproc.ParseMethod(c.Sauvola.Method)
	if err != nil {
		return preproc.Options{}, err
	}
	o := preproc.Options{
		Method: m,
		Params: c.Params(),
		Level:  c.Sauvola.Level,
		Blur:   c.Sauvola.Blur,
	}
	return o, o.Params.Validate()
}
