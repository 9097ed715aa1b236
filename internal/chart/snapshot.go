package chart

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"presscount/internal/domain"
	"presscount/internal/util"
)

// WriteSnapshot draws series as lines on a date axis and saves the image to
// path; the format follows the extension (.png, .svg, .pdf). A single series
// is drawn as a filled area.
func WriteSnapshot(path, title string, series []domain.DailySeries) error {
	if len(series) == 0 {
		return fmt.Errorf("no series to plot for %q", title)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Articles"
	p.X.Tick.Marker = plot.TimeTicks{Format: util.DateLayout}
	p.Y.Min = 0
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	for i, s := range series {
		pts := make(plotter.XYs, len(s.Points))
		for j, pt := range s.Points {
			pts[j] = plotter.XY{X: float64(pt.Day.Unix()), Y: pt.Value}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("building line for %s: %w", s.Name, err)
		}
		c := plotutil.Color(i)
		line.Color = c
		line.Width = vg.Points(1)
		if len(series) == 1 {
			r, g, b, _ := c.RGBA()
			line.FillColor = color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 96}
		}
		p.Add(line)
		p.Legend.Add(s.Name, line)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := p.Save(12*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("saving snapshot %s: %w", path, err)
	}
	return nil
}
