// Copyright 2026 The sauvola Authors.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package sauvola

import (
	"bytes"
	"testing"
	"time"
)

func TestGraph(t *testing.T) {
	cases := []struct {
		name    string
		timings []Timing
		err     bool
	}{
		{"empty", nil, true},
		{"one", []Timing{{Radius: 1, Direct: time.Millisecond, Integral: time.Millisecond}}, true},
		{"few", []Timing{
			{Radius: 20, Direct: 90 * time.Millisecond, Integral: 11 * time.Millisecond},
			{Radius: 1, Direct: 3 * time.Millisecond, Integral: 10 * time.Millisecond},
			{Radius: 5, Direct: 12 * time.Millisecond, Integral: 10 * time.Millisecond},
		}, false},
	}
	var many []Timing
	for r := 0; r < 100; r++ {
		many = append(many, Timing{Radius: r, Direct: time.Duration(r*r) * time.Microsecond, Integral: time.Millisecond})
	}
	cases = append(cases, struct {
		name    string
		timings []Timing
		err     bool
	}{"many", many, false})

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Graph(c.timings, "Binarization time", &buf)
			if (err != nil) != c.err {
				t.Fatalf("Expected error %v, got %v", c.err, err)
			}
			if err == nil && !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
				t.Errorf("Output is not a PNG")
			}
		})
	}
}
