package analysis

import (
	"math"

	"github.com/floudata/pucp-time-series/internal/models"
)

// DetectorConfig QRS detection parameters
type DetectorConfig struct {
	SmoothWindow   float64 // seconds, box applied to |gradient|
	AverageWindow  float64 // seconds, box giving the adaptive threshold
	GradientWeight float64 // threshold = GradientWeight * averaged |gradient|
	MinLengthRatio float64 // QRS windows shorter than ratio * mean length are dropped
	AmplitudeRatio float64 // candidates below ratio * 90th percentile height are dropped
	MaxHeartRate   float64 // bpm, sets the refractory period
}

// DefaultDetectorConfig refractory period of 0.24 s (250 bpm)
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		SmoothWindow:   0.1,
		AverageWindow:  0.75,
		GradientWeight: 1.5,
		MinLengthRatio: 0.4,
		AmplitudeRatio: 0.35,
		MaxHeartRate:   250,
	}
}

// Detector locates R-peaks in a cleaned lead
type Detector struct {
	cfg DetectorConfig
}

// NewDetector creates a detector; zero fields fall back to the defaults
func NewDetector(cfg DetectorConfig) *Detector {
	def := DefaultDetectorConfig()
	if cfg.SmoothWindow <= 0 {
		cfg.SmoothWindow = def.SmoothWindow
	}
	if cfg.AverageWindow <= 0 {
		cfg.AverageWindow = def.AverageWindow
	}
	if cfg.GradientWeight <= 0 {
		cfg.GradientWeight = def.GradientWeight
	}
	if cfg.MinLengthRatio <= 0 {
		cfg.MinLengthRatio = def.MinLengthRatio
	}
	if cfg.AmplitudeRatio <= 0 {
		cfg.AmplitudeRatio = def.AmplitudeRatio
	}
	if cfg.MaxHeartRate <= 0 {
		cfg.MaxHeartRate = def.MaxHeartRate
	}
	return &Detector{cfg: cfg}
}

// RefractorySamples minimum spacing between two beats at the given rate
func (d *Detector) RefractorySamples(fs float64) int {
	return int(math.Round(60 / d.cfg.MaxHeartRate * fs))
}

type qrsWindow struct {
	start, end int // [start, end)
}

// Detect returns R-peak sample indices in strictly increasing order. Flat, beat-free
// or too-short signals give an empty (non-nil) set. The caller guarantees fs > 0.
func (d *Detector) Detect(cleaned models.CleanedSignal) []int {
	beats := []int{}
	x := cleaned.Samples
	fs := cleaned.SamplingRate
	if len(x) < 3 || fs <= 0 {
		return beats
	}
	// inverted leads (aVR, some precordials) have their QRS below the baseline
	if percentile(x, 1) < -percentile(x, 99) {
		inverted := make([]float64, len(x))
		for i, v := range x {
			inverted[i] = -v
		}
		x = inverted
	}

	absGrad := gradient(x)
	for i, g := range absGrad {
		absGrad[i] = math.Abs(g)
	}
	smooth := movingAverage(absGrad, windowSamples(d.cfg.SmoothWindow, fs))
	avg := movingAverage(absGrad, windowSamples(d.cfg.AverageWindow, fs))

	var windows []qrsWindow
	inside := false
	start := 0
	for i := range smooth {
		above := smooth[i] > d.cfg.GradientWeight*avg[i]
		switch {
		case above && !inside:
			inside = true
			start = i
		case !above && inside:
			inside = false
			windows = append(windows, qrsWindow{start: start, end: i})
		}
	}
	if inside {
		windows = append(windows, qrsWindow{start: start, end: len(smooth)})
	}
	if len(windows) == 0 {
		return beats
	}

	total := 0
	for _, w := range windows {
		total += w.end - w.start
	}
	minLen := d.cfg.MinLengthRatio * float64(total) / float64(len(windows))

	var candidates []int
	var heights []float64
	for _, w := range windows {
		if float64(w.end-w.start) < minLen {
			continue
		}
		peak := w.start
		for i := w.start + 1; i < w.end; i++ {
			if x[i] > x[peak] {
				peak = i
			}
		}
		candidates = append(candidates, peak)
		heights = append(heights, x[peak])
	}

	// T waves and residual wander produce gradient windows too; they are much lower
	// than the QRS complexes of the same lead.
	minHeight := math.Inf(-1)
	if ref := percentile(heights, 90); ref > 0 {
		minHeight = d.cfg.AmplitudeRatio * ref
	}

	refractory := d.RefractorySamples(fs)
	for _, peak := range candidates {
		if x[peak] < minHeight {
			continue
		}
		n := len(beats)
		switch {
		case n == 0 || peak-beats[n-1] > refractory:
			beats = append(beats, peak)
		case x[peak] > x[beats[n-1]]:
			// same cycle: keep the dominant peak
			beats[n-1] = peak
		}
	}
	return beats
}

func windowSamples(seconds, fs float64) int {
	w := int(math.Round(seconds * fs))
	if w < 1 {
		return 1
	}
	return w
}
