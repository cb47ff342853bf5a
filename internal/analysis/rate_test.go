package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateRate_RegularBeats(t *testing.T) {
	est := EstimateRate([]int{0, 500, 1000, 1500}, 500)

	assert.Equal(t, []float64{1, 1, 1}, est.RRIntervals)
	assert.Equal(t, []float64{60, 60, 60}, est.HeartRateSeries)
	require.NotNil(t, est.MeanHeartRate)
	assert.Equal(t, 60.0, *est.MeanHeartRate)
	assert.Equal(t, 60.0, est.Summary.MinHeartRate)
	assert.Equal(t, 60.0, est.Summary.MaxHeartRate)
	assert.Equal(t, 0.0, est.Summary.SDNN)
	assert.Equal(t, 0.0, est.Summary.RMSSD)
}

func TestEstimateRate_FewerThanTwoBeats(t *testing.T) {
	for _, beats := range [][]int{nil, {}, {42}} {
		est := EstimateRate(beats, 500)
		assert.Empty(t, est.RRIntervals)
		assert.Empty(t, est.HeartRateSeries)
		assert.Nil(t, est.MeanHeartRate)
	}
}

func TestEstimateRate_SkipsNonPositiveIntervals(t *testing.T) {
	est := EstimateRate([]int{0, 500, 500, 1000}, 500)

	assert.Equal(t, []float64{1, 0, 1}, est.RRIntervals)
	assert.Equal(t, []float64{60, 0, 60}, est.HeartRateSeries)
	require.NotNil(t, est.MeanHeartRate)
	assert.Equal(t, 60.0, *est.MeanHeartRate)

	est = EstimateRate([]int{7, 7, 3}, 500)
	assert.Len(t, est.RRIntervals, 2)
	assert.Len(t, est.HeartRateSeries, 2)
	assert.Nil(t, est.MeanHeartRate)
}

func TestEstimateRate_Summary(t *testing.T) {
	// RR 1.0 s and 0.8 s -> 60 and 75 bpm
	est := EstimateRate([]int{0, 1000, 1800}, 1000)

	require.NotNil(t, est.MeanHeartRate)
	assert.InDelta(t, 67.5, *est.MeanHeartRate, 1e-9)
	assert.InDelta(t, 60, est.Summary.MinHeartRate, 1e-9)
	assert.InDelta(t, 75, est.Summary.MaxHeartRate, 1e-9)
	assert.InDelta(t, 141.421, est.Summary.SDNN, 1e-3)
	assert.InDelta(t, 200, est.Summary.RMSSD, 1e-9)
}
