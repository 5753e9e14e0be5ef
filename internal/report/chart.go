// Package report renders blood sugar report charts and publishes them as
// images that LINE clients can display.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Point is a single measurement positioned on the chart's time axis.
type Point struct {
	At    time.Time
	Value float64
}

// lineColor is the stroke used for the measurement series.
var lineColor = drawing.Color{R: 0x06, G: 0xC7, B: 0x55, A: 255}

// RenderPNG draws a line chart of blood sugar values over time and returns
// the encoded PNG bytes. timeFormat controls the x axis tick labels ("15:04"
// for a single day, "01/02" for multi-day ranges).
func RenderPNG(title string, points []Point, timeFormat string) ([]byte, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("render chart: no points")
	}

	// go-chart refuses to draw a series with a single point, so a lone
	// measurement is widened into a short flat segment.
	if len(points) == 1 {
		points = append(points, Point{
			At:    points[0].At.Add(time.Minute),
			Value: points[0].Value,
		})
	}

	xs := make([]time.Time, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.At
		ys[i] = p.Value
	}

	graph := chart.Chart{
		Title:  title,
		Width:  800,
		Height: 480,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat(timeFormat),
		},
		YAxis: chart.YAxis{
			Name: "mg/dL",
		},
		Series: []chart.Series{
			chart.TimeSeries{
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: lineColor,
					StrokeWidth: 3,
					DotColor:    lineColor,
					DotWidth:    5,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}
