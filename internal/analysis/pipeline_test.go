package analysis

import (
	"math"
	"testing"

	"github.com/floudata/pucp-time-series/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordFromLead builds a 12-lead record whose lead II carries x and the rest are flat
func recordFromLead(x []float64, fs float64) *models.Record {
	channels := make([]models.Channel, len(models.Leads))
	for i, name := range models.Leads {
		channels[i] = models.Channel{Name: name, Units: "mV", Gain: 1000}
	}
	rows := make([][]float64, len(x))
	for i, v := range x {
		row := make([]float64, len(channels))
		row[1] = v
		rows[i] = row
	}
	return &models.Record{
		ID:           "JS00001",
		SamplingRate: fs,
		ChannelCount: len(channels),
		SampleCount:  len(rows),
		Channels:     channels,
		Samples:      rows,
	}
}

func TestPipeline_SixtyBPM(t *testing.T) {
	x, centres := syntheticECG(500, 5000, 500, 250)
	p := NewDefaultPipeline(zap.NewNop())

	res, err := p.Run(recordFromLead(x, 500), 1)
	require.NoError(t, err)

	assert.Equal(t, "II", res.LeadName)
	assert.Len(t, res.Cleaned.Samples, len(x))
	assert.Len(t, res.Beats, len(centres))
	assert.Len(t, res.RRIntervals, len(res.Beats)-1)
	assert.Len(t, res.HeartRateSeries, len(res.RRIntervals))
	require.NotNil(t, res.MeanHeartRate)
	assert.InDelta(t, 60, *res.MeanHeartRate, 0.5)
	assert.Equal(t, models.ClassificationNormal, res.Classification)
}

func TestPipeline_InvertedLeadSixtyBPM(t *testing.T) {
	x, centres := syntheticECG(500, 5000, 500, 250)
	for i := range x {
		x[i] = -x[i]
	}
	p := NewDefaultPipeline(zap.NewNop())

	res, err := p.Run(recordFromLead(x, 500), 1)
	require.NoError(t, err)

	assert.Len(t, res.Beats, len(centres))
	require.NotNil(t, res.MeanHeartRate)
	assert.InDelta(t, 60, *res.MeanHeartRate, 0.5)
	assert.Equal(t, models.ClassificationNormal, res.Classification)
}

func TestPipeline_OutOfRangeRates(t *testing.T) {
	p := NewDefaultPipeline(zap.NewNop())

	fast, _ := syntheticECG(500, 5000, 250, 125) // 120 bpm
	res, err := p.Run(recordFromLead(fast, 500), 1)
	require.NoError(t, err)
	require.NotNil(t, res.MeanHeartRate)
	assert.InDelta(t, 120, *res.MeanHeartRate, 1)
	assert.Equal(t, models.ClassificationTachycardia, res.Classification)

	slow, _ := syntheticECG(500, 7500, 750, 375) // 40 bpm
	res, err = p.Run(recordFromLead(slow, 500), 1)
	require.NoError(t, err)
	require.NotNil(t, res.MeanHeartRate)
	assert.InDelta(t, 40, *res.MeanHeartRate, 0.5)
	assert.Equal(t, models.ClassificationBradycardia, res.Classification)
}

func TestPipeline_FlatLeadIsUndetermined(t *testing.T) {
	x, _ := syntheticECG(500, 5000, 500, 250)
	p := NewDefaultPipeline(zap.NewNop())

	// lead I is all zeros in recordFromLead
	res, err := p.Run(recordFromLead(x, 500), 0)
	require.NoError(t, err)
	assert.Empty(t, res.Beats)
	assert.Empty(t, res.RRIntervals)
	assert.Empty(t, res.HeartRateSeries)
	assert.Nil(t, res.MeanHeartRate)
	assert.Equal(t, models.ClassificationUndetermined, res.Classification)
	assert.Len(t, res.Cleaned.Samples, len(x))
}

func TestPipeline_InvalidLead(t *testing.T) {
	x, _ := syntheticECG(500, 1000, 500, 250)
	p := NewDefaultPipeline(zap.NewNop())

	for _, lead := range []int{12, 99, -1} {
		res, err := p.Run(recordFromLead(x, 500), lead)
		assert.ErrorIs(t, err, models.ErrInvalidLead)
		assert.Nil(t, res)
	}
}

func TestPipeline_MalformedRecord(t *testing.T) {
	x, _ := syntheticECG(500, 1000, 500, 250)
	rec := recordFromLead(x, 500)
	rec.ChannelCount = 11

	res, err := NewDefaultPipeline(zap.NewNop()).Run(rec, 1)
	assert.ErrorIs(t, err, models.ErrMalformedRecord)
	assert.Nil(t, res)
}

func TestPipeline_NonFiniteSample(t *testing.T) {
	x, _ := syntheticECG(500, 1000, 500, 250)
	x[10] = math.Inf(1)

	res, err := NewDefaultPipeline(zap.NewNop()).Run(recordFromLead(x, 500), 1)
	assert.ErrorIs(t, err, ErrNonFiniteSample)
	assert.Nil(t, res)
}

func TestPipeline_Idempotent(t *testing.T) {
	x, _ := syntheticECG(500, 5000, 430, 200)
	rec := recordFromLead(x, 500)
	p := NewDefaultPipeline(zap.NewNop())

	a, err := p.Run(rec, 1)
	require.NoError(t, err)
	b, err := p.Run(rec, 1)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
