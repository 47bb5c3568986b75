// Package chart renders a region's temperature trend as a line chart with
// one series per emission scenario.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"github.com/couchcryptid/climate-grid-service/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("chart: no trend points")

// Default canvas size, matching the map's 2:1 aspect.
const (
	DefaultWidth  = 9 * vg.Inch
	DefaultHeight = 4.5 * vg.Inch
)

var scenarioColors = map[domain.Scenario]color.RGBA{
	domain.ScenarioLow:    {R: 0x45, G: 0x75, B: 0xb4, A: 0xff},
	domain.ScenarioMedium: {R: 0xfd, G: 0xae, B: 0x61, A: 0xff},
	domain.ScenarioHigh:   {R: 0xd7, G: 0x30, B: 0x27, A: 0xff},
}

// RenderTrend writes a PNG line chart of points to w. Points may arrive in
// any order; each scenario becomes one series ordered by year.
func RenderTrend(w io.Writer, region domain.Region, points []domain.TrendPoint, width, height vg.Length) error {
	if len(points) == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Mean temperature: %s", region)
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "Temperature (°C)"
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	series := domain.SeriesByScenario(points)
	for _, s := range domain.Scenarios {
		pts, ok := series[s]
		if !ok {
			continue
		}
		xys := make(plotter.XYs, len(pts))
		for i, tp := range pts {
			xys[i].X = float64(tp.Year)
			xys[i].Y = tp.MeanTemperature
		}

		line, scatter, err := plotter.NewLinePoints(xys)
		if err != nil {
			return fmt.Errorf("chart: %s series: %w", s, err)
		}
		c := scenarioColors[s]
		line.Color = c
		line.Width = vg.Points(2)
		scatter.Color = c
		scatter.Shape = draw.CircleGlyph{}
		scatter.Radius = vg.Points(3)

		p.Add(line, scatter)
		p.Legend.Add(string(s), line, scatter)
	}

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("chart: encode: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("chart: write: %w", err)
	}
	return nil
}
