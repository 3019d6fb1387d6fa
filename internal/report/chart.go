package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/chenzhuyu2004/greensplit/internal/app"
)

const DelayChartName = "delay_comparison.png"

var (
	baselineColor  = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	optimizedColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
)

// DelayChart plots baseline and optimised weighted delay per scenario.
// Oversaturated and failed scenarios leave gaps in their series.
func DelayChart(results []app.ScenarioResult) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Delay comparison: equal split vs optimised"
	p.X.Label.Text = "Scenario"
	p.Y.Label.Text = "Average delay (s/veh)"
	p.Add(plotter.NewGrid())

	names := make([]string, len(results))
	var baseline, optimized plotter.XYs
	for i, r := range results {
		names[i] = r.Scenario
		if r.Failed() {
			continue
		}
		if y, ok := r.Baseline.Weighted.Value(); ok {
			baseline = append(baseline, plotter.XY{X: float64(i), Y: y})
		}
		if y, ok := r.Optimized.Weighted.Value(); ok {
			optimized = append(optimized, plotter.XY{X: float64(i), Y: y})
		}
	}

	series := []struct {
		label string
		data  plotter.XYs
		color color.Color
	}{
		{"Baseline (equal split)", baseline, baselineColor},
		{"Optimised (LP)", optimized, optimizedColor},
	}
	for _, s := range series {
		if len(s.data) == 0 {
			continue
		}
		line, points, err := plotter.NewLinePoints(s.data)
		if err != nil {
			return nil, fmt.Errorf("plot %s: %w", s.label, err)
		}
		line.Color = s.color
		points.Color = s.color
		p.Add(line, points)
		p.Legend.Add(s.label, line, points)
	}

	if len(names) > 0 {
		p.NominalX(names...)
	}
	p.Legend.Top = true
	return p, nil
}

// WriteDelayChart saves delay_comparison.png into dir and returns its path.
func WriteDelayChart(dir string, results []app.ScenarioResult) (string, error) {
	p, err := DelayChart(results)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(dir, DelayChartName)
	width := vg.Length(max(6, len(results))) * vg.Inch
	if err := p.Save(width, 4*vg.Inch, path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	return path, nil
}
