package report

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/floudata/pucp-time-series/internal/models"
)

// ErrNothingToPlot the selected window holds fewer than two samples
var ErrNothingToPlot = errors.New("nothing to plot")

// PlotOptions strip geometry; zero values take the defaults
type PlotOptions struct {
	Seconds float64 // window length from the start of the record, default 10
	Width   int
	Height  int
	// Raw when set is drawn instead of the cleaned lead, with the same beat markers
	Raw *models.RawSignal
}

func (o PlotOptions) withDefaults() PlotOptions {
	if o.Seconds <= 0 {
		o.Seconds = 10
	}
	if o.Width <= 0 {
		o.Width = 1200
	}
	if o.Height <= 0 {
		o.Height = 320
	}
	return o
}

var (
	traceColor = drawing.ColorFromHex("1f3b73")
	peakColor  = drawing.ColorFromHex("d62728")
	gridColor  = drawing.ColorFromHex("f2b8b8")
)

// RenderPNG draws the cleaned lead of result (or opts.Raw) as a clinical-style strip with
// R-peak markers
func RenderPNG(w io.Writer, result *models.AnalysisResult, opts PlotOptions) error {
	opts = opts.withDefaults()
	samples, fs := result.Cleaned.Samples, result.Cleaned.SamplingRate
	if opts.Raw != nil {
		samples, fs = opts.Raw.Samples, opts.Raw.SamplingRate
	}
	if fs <= 0 {
		return fmt.Errorf("%w: sampling rate %v", ErrNothingToPlot, fs)
	}

	n := int(math.Min(float64(len(samples)), math.Round(opts.Seconds*fs)))
	if n < 2 {
		return ErrNothingToPlot
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < n; i++ {
		xs[i] = float64(i) / fs
		ys[i] = samples[i]
		lo = math.Min(lo, ys[i])
		hi = math.Max(hi, ys[i])
	}
	if hi-lo < 1e-9 {
		// flat strip
		lo, hi = lo-1, hi+1
	}
	pad := 0.1 * (hi - lo)

	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    models.LeadName(result.LeadIndex),
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: traceColor,
				StrokeWidth: 1.2,
			},
		},
	}

	var px, py []float64
	for _, b := range result.Beats {
		if b >= n {
			break
		}
		px = append(px, xs[b])
		py = append(py, ys[b])
	}
	if len(px) > 0 {
		series = append(series, chart.ContinuousSeries{
			Name:    "R peaks",
			XValues: px,
			YValues: py,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    4,
				DotColor:    peakColor,
			},
		})
	}

	graph := chart.Chart{
		Title:  plotTitle(result, opts.Raw != nil),
		Width:  opts.Width,
		Height: opts.Height,
		XAxis: chart.XAxis{
			Name:           "Time (s)",
			Range:          &chart.ContinuousRange{Min: 0, Max: xs[n-1]},
			GridMajorStyle: chart.Style{StrokeColor: gridColor, StrokeWidth: 1},
		},
		YAxis: chart.YAxis{
			Name:           "Voltage (mV)",
			Range:          &chart.ContinuousRange{Min: lo - pad, Max: hi + pad},
			GridMajorStyle: chart.Style{StrokeColor: gridColor, StrokeWidth: 1},
		},
		Series: series,
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render plot: %w", err)
	}
	return nil
}

func plotTitle(result *models.AnalysisResult, raw bool) string {
	name := result.LeadName
	if name == "" {
		name = models.LeadName(result.LeadIndex)
	}
	title := fmt.Sprintf("%s, lead %s", result.RecordID, name)
	if raw {
		title += " (raw)"
	}
	if result.MeanHeartRate != nil {
		title += fmt.Sprintf(", %.0f bpm", *result.MeanHeartRate)
	}
	return title
}
