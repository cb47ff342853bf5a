package analysis

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/floudata/pucp-time-series/internal/models"
)

// Pipeline runs clean -> detect -> estimate -> classify over one lead of a record.
// It holds no per-call state, so a single Pipeline can serve concurrent requests.
type Pipeline struct {
	cleaner  *Cleaner
	detector *Detector
	band     RangeBand
	logger   *zap.Logger
}

// NewPipeline creates a pipeline
func NewPipeline(cleaner *Cleaner, detector *Detector, band RangeBand, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cleaner:  cleaner,
		detector: detector,
		band:     band,
		logger:   logger,
	}
}

// NewDefaultPipeline pipeline with default filter, detector and band settings
func NewDefaultPipeline(logger *zap.Logger) *Pipeline {
	return NewPipeline(
		NewCleaner(DefaultCleanerConfig()),
		NewDetector(DefaultDetectorConfig()),
		DefaultRangeBand,
		logger,
	)
}

// Run analyses lead leadIndex of rec. Either a complete result or an error is returned.
func (p *Pipeline) Run(rec *models.Record, leadIndex int) (*models.AnalysisResult, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	raw, err := rec.Signal(leadIndex)
	if err != nil {
		return nil, err
	}

	cleaned, err := p.cleaner.Clean(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to clean %s lead %d: %w", rec.ID, leadIndex, err)
	}
	beats := p.detector.Detect(cleaned)
	est := EstimateRate(beats, cleaned.SamplingRate)
	class := p.band.Classify(est.MeanHeartRate)

	leadName := models.LeadName(leadIndex)
	if leadIndex < len(rec.Channels) && rec.Channels[leadIndex].Name != "" {
		leadName = rec.Channels[leadIndex].Name
	}

	p.logger.Debug("Analysed lead",
		zap.String("record_id", rec.ID),
		zap.String("lead", leadName),
		zap.Int("samples", len(cleaned.Samples)),
		zap.Int("beats", len(beats)),
		zap.String("classification", string(class)),
	)

	return &models.AnalysisResult{
		RecordID:        rec.ID,
		LeadIndex:       leadIndex,
		LeadName:        leadName,
		SamplingRate:    cleaned.SamplingRate,
		Cleaned:         cleaned,
		Beats:           beats,
		RRIntervals:     est.RRIntervals,
		HeartRateSeries: est.HeartRateSeries,
		MeanHeartRate:   est.MeanHeartRate,
		Classification:  class,
		Summary:         est.Summary,
	}, nil
}
