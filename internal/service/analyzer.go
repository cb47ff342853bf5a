package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/floudata/pucp-time-series/internal/analysis"
	"github.com/floudata/pucp-time-series/internal/catalog"
	"github.com/floudata/pucp-time-series/internal/models"
	"github.com/floudata/pucp-time-series/internal/notify"
	"github.com/floudata/pucp-time-series/internal/record"
)

// RecordResolver loads records by ID (record.Store)
type RecordResolver interface {
	Resolve(ctx context.Context, recordID string) (*models.Record, error)
}

// Analyzer entry point for analysis requests: resolves the record, runs the pipeline and
// hands out-of-range verdicts to the notifier
type Analyzer struct {
	store     RecordResolver
	diagnoses catalog.DiagnosisCatalog
	pipeline  *analysis.Pipeline
	notifier  notify.Notifier
	logger    *zap.Logger
	newID     func() string
}

// NewAnalyzer creates an Analyzer; a nil notifier disables alerts
func NewAnalyzer(
	store RecordResolver,
	diagnoses catalog.DiagnosisCatalog,
	pipeline *analysis.Pipeline,
	notifier notify.Notifier,
	logger *zap.Logger,
) *Analyzer {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Analyzer{
		store:     store,
		diagnoses: diagnoses,
		pipeline:  pipeline,
		notifier:  notifier,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// Analyze runs the pipeline over the requested lead. Store and pipeline errors are returned
// unchanged; notifier failures are only logged.
func (a *Analyzer) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	rec, err := a.store.Resolve(ctx, req.RecordID)
	if err != nil {
		return nil, err
	}
	return a.analyze(ctx, rec, req.LeadIndex)
}

func (a *Analyzer) analyze(ctx context.Context, rec *models.Record, leadIndex int) (*models.AnalysisResult, error) {
	result, err := a.pipeline.Run(rec, leadIndex)
	if err != nil {
		return nil, err
	}
	result.RequestID = a.newID()

	fields := []zap.Field{
		zap.String("request_id", result.RequestID),
		zap.String("record_id", result.RecordID),
		zap.String("lead", result.LeadName),
		zap.Int("beats", len(result.Beats)),
		zap.String("classification", string(result.Classification)),
	}
	if result.MeanHeartRate != nil {
		fields = append(fields, zap.Float64("mean_heart_rate", *result.MeanHeartRate))
	}
	a.logger.Info("Analysis completed", fields...)

	if result.Classification.OutOfRange() {
		if err := a.notifier.Notify(ctx, result); err != nil {
			a.logger.Warn("Failed to publish heart-rate alert",
				zap.String("request_id", result.RequestID),
				zap.Error(err),
			)
		}
	}
	return result, nil
}

// Describe returns the header-level details of a record, with its diagnosis codes decoded
func (a *Analyzer) Describe(ctx context.Context, recordID string) (*models.RecordDetails, error) {
	rec, err := a.store.Resolve(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return a.describe(ctx, rec)
}

func (a *Analyzer) describe(ctx context.Context, rec *models.Record) (*models.RecordDetails, error) {
	meta := record.ParseComments(rec.Comments)
	diagnoses, err := a.diagnoses.Lookup(ctx, meta.DiagnosisCodes)
	if err != nil {
		return nil, err
	}

	units := ""
	if len(rec.Channels) > 0 {
		units = rec.Channels[0].Units
	}
	summary := catalog.DecodeCodes(strings.Join(meta.DiagnosisCodes, ","), catalog.Names(diagnoses))
	return &models.RecordDetails{
		RecordID:         rec.ID,
		DurationSeconds:  rec.DurationSeconds(),
		SamplingRate:     rec.SamplingRate,
		ChannelCount:     rec.ChannelCount,
		SampleCount:      rec.SampleCount,
		Units:            units,
		Metadata:         meta,
		Diagnoses:        diagnoses,
		DiagnosisSummary: summary,
	}, nil
}

// Report resolves the record once and returns both its details and the analysis
func (a *Analyzer) Report(ctx context.Context, req models.AnalysisRequest) (*models.RecordDetails, *models.AnalysisResult, error) {
	rec, err := a.store.Resolve(ctx, req.RecordID)
	if err != nil {
		return nil, nil, err
	}
	details, err := a.describe(ctx, rec)
	if err != nil {
		return nil, nil, err
	}
	result, err := a.analyze(ctx, rec, req.LeadIndex)
	if err != nil {
		return nil, nil, err
	}
	return details, result, nil
}

// Strip analyses the requested lead and also returns its unfiltered samples, for plots that
// compare the raw and cleaned traces
func (a *Analyzer) Strip(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, *models.RawSignal, error) {
	rec, err := a.store.Resolve(ctx, req.RecordID)
	if err != nil {
		return nil, nil, err
	}
	result, err := a.analyze(ctx, rec, req.LeadIndex)
	if err != nil {
		return nil, nil, err
	}
	raw, err := rec.Signal(req.LeadIndex)
	if err != nil {
		return nil, nil, err
	}
	return result, &raw, nil
}
