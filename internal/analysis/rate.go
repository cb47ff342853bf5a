package analysis

import "github.com/floudata/pucp-time-series/internal/models"

// RateEstimate RR intervals and derived heart rate for one beat set
type RateEstimate struct {
	RRIntervals     []float64
	HeartRateSeries []float64
	MeanHeartRate   *float64 // nil when no valid interval exists
	Summary         models.RateSummary
}

// EstimateRate converts beat indices into RR intervals (seconds) and heart rate (bpm).
// An interval <= 0 (duplicate or out-of-order beats) gets a heart rate of 0 and is left
// out of the mean and the summary.
func EstimateRate(beats []int, fs float64) RateEstimate {
	est := RateEstimate{
		RRIntervals:     []float64{},
		HeartRateSeries: []float64{},
	}
	if len(beats) < 2 || fs <= 0 {
		return est
	}

	validRR := make([]float64, 0, len(beats)-1)
	validHR := make([]float64, 0, len(beats)-1)
	for i := 0; i+1 < len(beats); i++ {
		rr := float64(beats[i+1]-beats[i]) / fs
		est.RRIntervals = append(est.RRIntervals, rr)
		if rr <= 0 {
			est.HeartRateSeries = append(est.HeartRateSeries, 0)
			continue
		}
		hr := 60 / rr
		est.HeartRateSeries = append(est.HeartRateSeries, hr)
		validRR = append(validRR, rr)
		validHR = append(validHR, hr)
	}

	if len(validHR) == 0 {
		return est
	}
	m := mean(validHR)
	est.MeanHeartRate = &m

	lo, hi := minMax(validHR)
	est.Summary = models.RateSummary{
		MinHeartRate: lo,
		MaxHeartRate: hi,
		SDNN:         std(validRR) * 1000,
		RMSSD:        rmssd(validRR) * 1000,
	}
	return est
}
