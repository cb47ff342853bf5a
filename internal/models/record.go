package models

import "fmt"

// Channel one stored lead of a record
type Channel struct {
	Name     string  `json:"name"`
	Units    string  `json:"units"`
	Gain     float64 `json:"gain"`     // ADC units per physical unit
	Baseline float64 `json:"baseline"` // ADC value corresponding to 0 physical units
}

// Record a resolved recording: header fields plus the physical-unit signal matrix.
// Samples is indexed [sample][channel]. A Record is read-only once returned by the store.
type Record struct {
	ID           string      `json:"id"`
	SamplingRate float64     `json:"sampling_rate"`
	ChannelCount int         `json:"channel_count"`
	SampleCount  int         `json:"sample_count"`
	Channels     []Channel   `json:"channels"`
	Samples      [][]float64 `json:"-"`
	Comments     []string    `json:"comments"`
}

// Validate checks the shape invariants of the record
func (r *Record) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil record", ErrMalformedRecord)
	}
	if r.SamplingRate <= 0 {
		return fmt.Errorf("%w: %s: sampling rate %v", ErrMalformedRecord, r.ID, r.SamplingRate)
	}
	if r.ChannelCount <= 0 || r.ChannelCount != len(r.Channels) {
		return fmt.Errorf("%w: %s: channel_count=%d but %d channels",
			ErrMalformedRecord, r.ID, r.ChannelCount, len(r.Channels))
	}
	if r.SampleCount != len(r.Samples) {
		return fmt.Errorf("%w: %s: sample_count=%d but %d rows",
			ErrMalformedRecord, r.ID, r.SampleCount, len(r.Samples))
	}
	for i, row := range r.Samples {
		if len(row) != r.ChannelCount {
			return fmt.Errorf("%w: %s: row %d has %d values, want %d",
				ErrMalformedRecord, r.ID, i, len(row), r.ChannelCount)
		}
	}
	return nil
}

// DurationSeconds recording length in seconds
func (r *Record) DurationSeconds() float64 {
	if r.SamplingRate <= 0 {
		return 0
	}
	return float64(r.SampleCount) / r.SamplingRate
}

// Signal projects one channel of the record into a RawSignal
func (r *Record) Signal(lead int) (RawSignal, error) {
	if lead < 0 || lead >= r.ChannelCount {
		return RawSignal{}, fmt.Errorf("%w: index %d, record %s has %d channels",
			ErrInvalidLead, lead, r.ID, r.ChannelCount)
	}
	samples := make([]float64, len(r.Samples))
	for i, row := range r.Samples {
		samples[i] = row[lead]
	}
	return RawSignal{Samples: samples, SamplingRate: r.SamplingRate}, nil
}

// RawSignal one lead of a record
type RawSignal struct {
	Samples      []float64 `json:"samples"`
	SamplingRate float64   `json:"sampling_rate"`
}

// CleanedSignal filtered version of a RawSignal; same length and rate
type CleanedSignal struct {
	Samples      []float64 `json:"samples"`
	SamplingRate float64   `json:"sampling_rate"`
}

// RecordMetadata fields carried in the header comment lines
type RecordMetadata struct {
	Age            *int     `json:"age,omitempty"`
	Sex            string   `json:"sex,omitempty"`
	DiagnosisCodes []string `json:"diagnosis_codes"`
}
