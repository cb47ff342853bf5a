package analysis

import "github.com/floudata/pucp-time-series/internal/models"

// RangeBand inclusive normal heart-rate band in bpm
type RangeBand struct {
	Low  float64
	High float64
}

// DefaultRangeBand 60-100 bpm
var DefaultRangeBand = RangeBand{Low: 60, High: 100}

// Classify maps a mean heart rate onto the band. nil means the rate is undefined.
func (b RangeBand) Classify(meanHeartRate *float64) models.Classification {
	if meanHeartRate == nil {
		return models.ClassificationUndetermined
	}
	switch hr := *meanHeartRate; {
	case hr < b.Low:
		return models.ClassificationBradycardia
	case hr > b.High:
		return models.ClassificationTachycardia
	default:
		return models.ClassificationNormal
	}
}

// Classify uses DefaultRangeBand
func Classify(meanHeartRate *float64) models.Classification {
	return DefaultRangeBand.Classify(meanHeartRate)
}
