// Copyright 2019 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package sauvola

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const maxticks = 40

// Timing is how long the direct and integral image methods took to
// binarize an image with a particular window radius
type Timing struct {
	Radius   int
	Direct   time.Duration
	Integral time.Duration
}

// createLine creates a horizontal line with a particular y value for
// a graph
func createLine(xvalues []float64, y float64, c drawing.Color) chart.ContinuousSeries {
	var yvalues []float64
	for range xvalues {
		yvalues = append(yvalues, y)
	}
	return chart.ContinuousSeries{
		XValues: xvalues,
		YValues: yvalues,
		Style: chart.Style{
			StrokeColor:     c,
			StrokeDashArray: []float64{5.0, 5.0},
		},
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Graph creates a graph of the time taken by each method against the
// window radius, as a PNG
func Graph(timings []Timing, title string, w io.Writer) error {
	if len(timings) < 2 {
		return errors.New("not enough timings to graph")
	}

	sorted := make([]Timing, len(timings))
	copy(sorted, timings)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Radius < sorted[j].Radius })

	var xvalues, direct, integral []float64
	var ticks []chart.Tick
	var total time.Duration
	tickevery := len(sorted) / maxticks
	if tickevery < 1 {
		tickevery = 1
	}
	for i, t := range sorted {
		x := float64(t.Radius)
		xvalues = append(xvalues, x)
		direct = append(direct, ms(t.Direct))
		integral = append(integral, ms(t.Integral))
		total += t.Integral
		if i%tickevery == 0 {
			ticks = append(ticks, chart.Tick{Value: x, Label: fmt.Sprintf("%d", t.Radius)})
		}
	}
	// Make last tick the largest radius
	final := sorted[len(sorted)-1]
	ticks[len(ticks)-1] = chart.Tick{Value: float64(final.Radius), Label: fmt.Sprintf("%d", final.Radius)}

	mean := ms(total) / float64(len(sorted))

	directSeries := chart.ContinuousSeries{
		Name: "Direct",
		Style: chart.Style{
			StrokeColor: chart.ColorRed,
		},
		XValues: xvalues,
		YValues: direct,
	}
	integralSeries := chart.ContinuousSeries{
		Name: "Integral image",
		Style: chart.Style{
			StrokeColor: chart.ColorBlue,
			FillColor:   chart.ColorAlternateBlue,
		},
		XValues: xvalues,
		YValues: integral,
	}
	meanSeries := createLine(xvalues, mean, chart.ColorAlternateGray)

	annotations := []chart.Value2{
		{Label: fmt.Sprintf("%.1fms", ms(final.Direct)), XValue: xvalues[len(xvalues)-1], YValue: ms(final.Direct)},
		{Label: fmt.Sprintf("%.1fms", mean), XValue: xvalues[len(xvalues)-1], YValue: mean},
	}

	graph := chart.Chart{
		Title:  title,
		Width:  1920,
		Height: 1080,
		XAxis: chart.XAxis{
			Name:  "Window radius",
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name: "Time (ms)",
			Range: &chart.ContinuousRange{
				Min: 0.0,
			},
		},
		Series: []chart.Series{
			directSeries,
			integralSeries,
			meanSeries,
			chart.AnnotationSeries{
				Annotations: annotations,
			},
		},
	}
	graph.Elements = []chart.Renderable{
		chart.Legend(&graph),
	}
	return graph.Render(chart.PNG, w)
}
