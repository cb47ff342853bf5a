package models

// DiagnosisEntry one row of the SNOMED CT diagnosis table
type DiagnosisEntry struct {
	Code     string `json:"code"`
	FullName string `json:"full_name"`
	Acronym  string `json:"acronym"`
}

// RecordDetails header-level description shown next to the analysis
type RecordDetails struct {
	RecordID        string           `json:"record_id"`
	DurationSeconds float64          `json:"duration_seconds"`
	SamplingRate    float64          `json:"sampling_rate"`
	ChannelCount    int              `json:"channel_count"`
	SampleCount     int              `json:"sample_count"`
	Units           string           `json:"units"`
	Metadata        RecordMetadata   `json:"metadata"`
	Diagnoses       []DiagnosisEntry `json:"diagnoses"`

	// DiagnosisSummary every header code by name, in header order; codes missing from the
	// catalog read Unknown(code)
	DiagnosisSummary string `json:"diagnosis_summary"`
}
