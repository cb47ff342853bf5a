package notify

import (
	"context"
	"time"

	"github.com/floudata/pucp-time-series/internal/models"
)

// Notifier publishes out-of-range heart-rate verdicts. Results classified NORMAL or
// UNDETERMINED are ignored by every implementation.
type Notifier interface {
	Notify(ctx context.Context, result *models.AnalysisResult) error
}

// Alert the published payload
type Alert struct {
	RequestID      string                `json:"request_id"`
	RecordID       string                `json:"record_id"`
	LeadIndex      int                   `json:"lead_index"`
	LeadName       string                `json:"lead_name"`
	Classification models.Classification `json:"classification"`
	MeanHeartRate  float64               `json:"mean_heart_rate"`
	MinHeartRate   float64               `json:"min_heart_rate"`
	MaxHeartRate   float64               `json:"max_heart_rate"`
	BeatCount      int                   `json:"beat_count"`
	Timestamp      int64                 `json:"timestamp"`
}

// NewAlert builds the payload for result; ok is false when nothing should be published
func NewAlert(result *models.AnalysisResult, now time.Time) (Alert, bool) {
	if result == nil || !result.Classification.OutOfRange() || result.MeanHeartRate == nil {
		return Alert{}, false
	}
	return Alert{
		RequestID:      result.RequestID,
		RecordID:       result.RecordID,
		LeadIndex:      result.LeadIndex,
		LeadName:       result.LeadName,
		Classification: result.Classification,
		MeanHeartRate:  *result.MeanHeartRate,
		MinHeartRate:   result.Summary.MinHeartRate,
		MaxHeartRate:   result.Summary.MaxHeartRate,
		BeatCount:      len(result.Beats),
		Timestamp:      now.Unix(),
	}, true
}

// NopNotifier discards everything
type NopNotifier struct{}

// Notify implements Notifier
func (NopNotifier) Notify(context.Context, *models.AnalysisResult) error { return nil }
