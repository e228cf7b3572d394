package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/GoSim-25-26J-441/seqlearn/pkg/models"
)

// Series is one labelled summary drawn on a figure
type Series struct {
	Label   string
	Summary *models.Summary
}

// PlotOptions controls figure text and size
type PlotOptions struct {
	Title      string
	ShowUpper  bool
	Width      vg.Length
	Height     vg.Length
	XAxisLabel string
	YAxisLabel string
}

var palette = []color.Color{
	color.RGBA{A: 255},
	color.RGBA{R: 20, G: 80, B: 200, A: 255},
	color.RGBA{R: 200, G: 30, B: 30, A: 255},
	color.RGBA{R: 40, G: 140, B: 40, A: 255},
	color.RGBA{R: 150, G: 60, B: 170, A: 255},
}

// NewPlot draws the dotted optimum line and, per series, the median
// best-so-far curve (and optionally the upper-quantile curve dashed).
func NewPlot(series []Series, opts PlotOptions) (*plot.Plot, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("at least one series is required")
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = opts.XAxisLabel
	if p.X.Label.Text == "" {
		p.X.Label.Text = "Iteration"
	}
	p.Y.Label.Text = opts.YAxisLabel
	if p.Y.Label.Text == "" {
		p.Y.Label.Text = "Best response so far"
	}

	first := series[0].Summary
	opt, err := plotter.NewLine(constantXYs(first.Steps, first.Optimum))
	if err != nil {
		return nil, fmt.Errorf("optimum line: %w", err)
	}
	opt.Color = color.Black
	opt.Dashes = []vg.Length{vg.Points(1), vg.Points(3)}
	p.Add(opt)
	p.Legend.Add("optimum", opt)

	for i, s := range series {
		if s.Summary == nil {
			return nil, fmt.Errorf("series %q has no summary", s.Label)
		}
		if s.Summary.Optimum != first.Optimum {
			return nil, fmt.Errorf("series %q comes from a different dataset", s.Label)
		}
		col := palette[i%len(palette)]

		median, err := plotter.NewLine(curveXYs(s.Summary.Steps, s.Summary.Median))
		if err != nil {
			return nil, fmt.Errorf("series %q median: %w", s.Label, err)
		}
		median.Color = col
		median.Width = vg.Points(3)
		p.Add(median)
		p.Legend.Add(s.Label, median)

		if opts.ShowUpper {
			upper, err := plotter.NewLine(curveXYs(s.Summary.Steps, s.Summary.Upper))
			if err != nil {
				return nil, fmt.Errorf("series %q upper: %w", s.Label, err)
			}
			upper.Color = col
			upper.Width = vg.Points(1)
			upper.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
			p.Add(upper)
			p.Legend.Add(fmt.Sprintf("%s p%g", s.Label, s.Summary.UpperQuantile*100), upper)
		}
	}

	p.Add(plotter.NewGrid())
	return p, nil
}

// RenderPNG saves the figure for series to path; the format follows the
// file extension (png, svg, pdf).
func RenderPNG(path string, series []Series, opts PlotOptions) error {
	p, err := NewPlot(series, opts)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	width, height := opts.Width, opts.Height
	if width == 0 {
		width = 8 * vg.Inch
	}
	if height == 0 {
		height = 6 * vg.Inch
	}
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}

func curveXYs(steps []int, values []float64) plotter.XYs {
	xys := make(plotter.XYs, len(values))
	for i, v := range values {
		xys[i] = plotter.XY{X: float64(steps[i]), Y: v}
	}
	return xys
}

func constantXYs(steps []int, v float64) plotter.XYs {
	xys := make(plotter.XYs, len(steps))
	for i, s := range steps {
		xys[i] = plotter.XY{X: float64(s), Y: v}
	}
	return xys
}
