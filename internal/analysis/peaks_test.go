package analysis

import (
	"testing"

	"github.com/floudata/pucp-time-series/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detectOn(t *testing.T, x []float64, fs float64) []int {
	t.Helper()
	cleaned, err := NewCleaner(DefaultCleanerConfig()).Clean(models.RawSignal{Samples: x, SamplingRate: fs})
	require.NoError(t, err)
	return NewDetector(DefaultDetectorConfig()).Detect(cleaned)
}

func assertStrictlyIncreasing(t *testing.T, beats []int, n int) {
	t.Helper()
	for i, b := range beats {
		require.GreaterOrEqual(t, b, 0)
		require.Less(t, b, n)
		if i > 0 {
			require.Greater(t, b, beats[i-1])
		}
	}
}

func TestDetector_FindsEveryBeat(t *testing.T) {
	x, centres := syntheticECG(500, 5000, 500, 250)

	beats := detectOn(t, x, 500)

	require.Len(t, beats, len(centres))
	assertStrictlyIncreasing(t, beats, len(x))
	for i, c := range centres {
		assert.InDelta(t, c, beats[i], 3, "beat %d", i)
	}
}

func TestDetector_InvertedLead(t *testing.T) {
	x, centres := syntheticECG(500, 5000, 500, 250)
	for i := range x {
		x[i] = -x[i]
	}

	beats := detectOn(t, x, 500)

	require.Len(t, beats, len(centres))
	for i, c := range centres {
		assert.InDelta(t, c, beats[i], 3, "beat %d", i)
	}
}

func TestDetector_NoBeatFromEdgeTransient(t *testing.T) {
	// baseline drifting across the whole record puts both ends far from the mean
	x, centres := syntheticECG(500, 5000, 500, 250)
	for i := range x {
		x[i] += 2 * float64(i) / float64(len(x))
	}

	beats := detectOn(t, x, 500)

	require.NotEmpty(t, beats)
	assert.InDelta(t, centres[0], beats[0], 3)
}

func TestDetector_FlatSignalGivesEmptySet(t *testing.T) {
	d := NewDetector(DefaultDetectorConfig())

	beats := d.Detect(models.CleanedSignal{Samples: make([]float64, 5000), SamplingRate: 500})
	assert.NotNil(t, beats)
	assert.Empty(t, beats)

	assert.Empty(t, d.Detect(models.CleanedSignal{Samples: []float64{1, 2}, SamplingRate: 500}))
}

func TestDetector_RefractorySuppressesDoubleDetection(t *testing.T) {
	fs := 500.0
	x, _ := syntheticECG(fs, 5000, 500, 250)
	// a second, smaller spike 0.1 s after the beat at 1250
	for i := range x {
		x[i] += 0.6 * gauss(float64(i), 1300, 5)
	}

	d := NewDetector(DefaultDetectorConfig())
	beats := detectOn(t, x, fs)

	assertStrictlyIncreasing(t, beats, len(x))
	refractory := d.RefractorySamples(fs)
	for i := 1; i < len(beats); i++ {
		assert.Greater(t, beats[i]-beats[i-1], refractory)
	}
	for _, b := range beats {
		assert.False(t, b > 1280 && b < 1320, "spurious beat at %d", b)
	}
}

func TestDetector_UnusualSamplingRates(t *testing.T) {
	for _, fs := range []float64{50, 8000} {
		n := int(fs * 10)
		x, _ := syntheticECG(fs, n, int(fs), int(fs/2))
		beats := detectOn(t, x, fs)
		assertStrictlyIncreasing(t, beats, n)
	}
}

func TestDetector_RefractorySamples(t *testing.T) {
	d := NewDetector(DefaultDetectorConfig())
	assert.Equal(t, 120, d.RefractorySamples(500))
	assert.Equal(t, 240, d.RefractorySamples(1000))
}
