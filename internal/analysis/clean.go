package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/floudata/pucp-time-series/internal/models"

	"github.com/jfcg/butter"
)

var (
	// ErrInvalidSamplingRate sampling rate is not a finite positive number
	ErrInvalidSamplingRate = errors.New("invalid sampling rate")
	// ErrNonFiniteSample input contains NaN or Inf
	ErrNonFiniteSample = errors.New("non-finite sample")
)

// flatThreshold peak-to-peak amplitude under which a mean-removed signal counts as flat
const flatThreshold = 1e-12

// CleanerConfig filter cutoffs in Hz; each is converted against the signal's own rate
type CleanerConfig struct {
	HighPassHz  float64 // baseline wander
	LowPassHz   float64 // muscle / high-frequency noise
	PowerlineHz float64 // mains frequency, 0 disables the powerline stage
	Order       int     // forward-backward passes per cutoff
}

// DefaultCleanerConfig 0.5-40 Hz band, 50 Hz mains
func DefaultCleanerConfig() CleanerConfig {
	return CleanerConfig{
		HighPassHz:  0.5,
		LowPassHz:   40,
		PowerlineHz: 50,
		Order:       2,
	}
}

// Cleaner removes baseline wander and high-frequency noise from a raw lead.
//
// Behaviour on degenerate input: an empty signal yields an empty signal; a signal whose
// mean-removed peak-to-peak amplitude is below 1e-12 (all-zero, all-constant) yields an
// all-zero signal of the same length. Non-finite samples are rejected with ErrNonFiniteSample.
// Any finite input gives finite output; values beyond the float64 range saturate.
type Cleaner struct {
	cfg CleanerConfig
}

// NewCleaner creates a cleaner; zero fields fall back to the defaults
func NewCleaner(cfg CleanerConfig) *Cleaner {
	def := DefaultCleanerConfig()
	if cfg.HighPassHz <= 0 {
		cfg.HighPassHz = def.HighPassHz
	}
	if cfg.LowPassHz <= 0 {
		cfg.LowPassHz = def.LowPassHz
	}
	if cfg.PowerlineHz < 0 {
		cfg.PowerlineHz = 0
	}
	if cfg.Order <= 0 {
		cfg.Order = def.Order
	}
	return &Cleaner{cfg: cfg}
}

// Clean filters raw and returns a signal of the same length and rate
func (c *Cleaner) Clean(raw models.RawSignal) (models.CleanedSignal, error) {
	fs := raw.SamplingRate
	if fs <= 0 || !isFinite(fs) {
		return models.CleanedSignal{}, fmt.Errorf("%w: %v", ErrInvalidSamplingRate, fs)
	}
	for i, v := range raw.Samples {
		if !isFinite(v) {
			return models.CleanedSignal{}, fmt.Errorf("%w at index %d", ErrNonFiniteSample, i)
		}
	}

	out := make([]float64, len(raw.Samples))
	if len(out) == 0 {
		return models.CleanedSignal{Samples: out, SamplingRate: fs}, nil
	}

	// every stage is linear, so filter a unit-amplitude copy and scale back at the end;
	// sums over samples near the float64 limit would otherwise overflow
	scale := 0.0
	for _, v := range raw.Samples {
		scale = math.Max(scale, math.Abs(v))
	}
	if scale == 0 {
		return models.CleanedSignal{Samples: out, SamplingRate: fs}, nil
	}
	for i, v := range raw.Samples {
		out[i] = v / scale
	}

	m := mean(out)
	for i := range out {
		out[i] -= m
	}
	lo, hi := minMax(out)
	if (hi-lo)*scale < flatThreshold {
		for i := range out {
			out[i] = 0
		}
		return models.CleanedSignal{Samples: out, SamplingRate: fs}, nil
	}

	wc := 2 * math.Pi / fs
	low := math.Min(c.cfg.LowPassHz, 0.45*fs)
	for pass := 0; pass < c.cfg.Order; pass++ {
		out = filtfilt(out, c.cfg.HighPassHz*wc, highPass)
		out = filtfilt(out, low*wc, lowPass)
	}

	if c.cfg.PowerlineHz > 0 {
		if width := int(math.Round(fs / c.cfg.PowerlineHz)); width >= 2 {
			out = movingAverage(out, width)
		}
	}

	for i, v := range out {
		out[i] = saturate(v * scale)
		if math.IsNaN(out[i]) {
			return models.CleanedSignal{}, fmt.Errorf("%w: filter output at index %d", ErrNonFiniteSample, i)
		}
	}
	return models.CleanedSignal{Samples: out, SamplingRate: fs}, nil
}

// saturate clamps overflowed values to the largest finite float64
func saturate(v float64) float64 {
	switch {
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return v
}

// stepper a causal IIR section fed one sample at a time
type stepper interface {
	Next(u float64) float64
}

// highPass returns nil when the normalized cutoff is outside the filter's valid range
// (roughly 1e-4 < wc < pi), which happens at extreme sampling rates.
func highPass(wc float64) stepper {
	f := butter.NewHighPass1(wc)
	if f == nil {
		return nil
	}
	return f
}

func lowPass(wc float64) stepper {
	f := butter.NewLowPass1(wc)
	if f == nil {
		return nil
	}
	return f
}

// edgePad samples of odd reflection added on each side of x: four time constants of a
// first-order section with normalized cutoff wc, at most len(x)-1
func edgePad(wc float64, n int) int {
	p := int(math.Ceil(4 / wc))
	if p > n-1 {
		p = n - 1
	}
	if p < 0 {
		return 0
	}
	return p
}

// filtfilt runs a fresh section forward, then another one backward, cancelling the phase
// shift so R-peaks stay on their original sample. Both ends are extended by odd reflection
// so the start-up transient settles outside the returned samples. A nil section leaves x
// untouched.
func filtfilt(x []float64, wc float64, newSection func(wc float64) stepper) []float64 {
	fwd := newSection(wc)
	if fwd == nil {
		return x
	}
	n := len(x)
	pad := edgePad(wc, n)

	ext := make([]float64, n+2*pad)
	copy(ext[pad:], x)
	for k := 1; k <= pad; k++ {
		ext[pad-k] = 2*x[0] - x[k]
		ext[pad+n-1+k] = 2*x[n-1] - x[n-1-k]
	}

	for i, v := range ext {
		ext[i] = fwd.Next(v)
	}
	bwd := newSection(wc)
	for i := len(ext) - 1; i >= 0; i-- {
		ext[i] = bwd.Next(ext[i])
	}

	y := make([]float64, n)
	copy(y, ext[pad:pad+n])
	return y
}
