package models

// Classification heart-rate range verdict
type Classification string

const (
	ClassificationNormal       Classification = "NORMAL"
	ClassificationBradycardia  Classification = "BRADYCARDIA"
	ClassificationTachycardia  Classification = "TACHYCARDIA"
	ClassificationUndetermined Classification = "UNDETERMINED"
)

// OutOfRange reports whether the verdict is bradycardia or tachycardia
func (c Classification) OutOfRange() bool {
	return c == ClassificationBradycardia || c == ClassificationTachycardia
}

// AnalysisRequest explicit selection of a record and a lead
type AnalysisRequest struct {
	RecordID  string `json:"record_id"`
	LeadIndex int    `json:"lead_index"`
}

// RateSummary variability figures over the valid RR intervals; zero when undefined
type RateSummary struct {
	MinHeartRate float64 `json:"min_heart_rate"`
	MaxHeartRate float64 `json:"max_heart_rate"`
	SDNN         float64 `json:"sdnn_ms"`
	RMSSD        float64 `json:"rmssd_ms"`
}

// AnalysisResult output of one pipeline run. Built once, never mutated, never persisted.
type AnalysisResult struct {
	RequestID       string         `json:"request_id,omitempty"`
	RecordID        string         `json:"record_id"`
	LeadIndex       int            `json:"lead_index"`
	LeadName        string         `json:"lead_name"`
	SamplingRate    float64        `json:"sampling_rate"`
	Cleaned         CleanedSignal  `json:"cleaned_signal"`
	Beats           []int          `json:"beats"`
	RRIntervals     []float64      `json:"rr_intervals"`
	HeartRateSeries []float64      `json:"heart_rate_series"`
	MeanHeartRate   *float64       `json:"mean_heart_rate"`
	Classification  Classification `json:"classification"`
	Summary         RateSummary    `json:"summary"`
}
