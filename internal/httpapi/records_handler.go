package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/floudata/pucp-time-series/internal/catalog"
	"github.com/floudata/pucp-time-series/internal/models"
	"github.com/floudata/pucp-time-series/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RecordAnalyzer the service operations the handler exposes (service.Analyzer)
type RecordAnalyzer interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error)
	Describe(ctx context.Context, recordID string) (*models.RecordDetails, error)
	Report(ctx context.Context, req models.AnalysisRequest) (*models.RecordDetails, *models.AnalysisResult, error)
	Strip(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, *models.RawSignal, error)
}

// RecordHandler record endpoints
type RecordHandler struct {
	records  *catalog.RecordCatalog
	analyzer RecordAnalyzer
	logger   *zap.Logger
}

// NewRecordHandler creates the handler; records may be nil when no catalog file is configured
func NewRecordHandler(records *catalog.RecordCatalog, analyzer RecordAnalyzer, logger *zap.Logger) *RecordHandler {
	return &RecordHandler{
		records:  records,
		analyzer: analyzer,
		logger:   logger,
	}
}

// ListRecords GET /api/v1/records
func (h *RecordHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	entries := []catalog.RecordEntry{}
	if h.records != nil {
		entries = h.records.List()
	}
	writeJSON(w, http.StatusOK, Ok(entries))
}

// GetDetails GET /api/v1/records/details?record=
func (h *RecordHandler) GetDetails(w http.ResponseWriter, r *http.Request) {
	recordID, ok := h.recordParam(w, r)
	if !ok {
		return
	}
	details, err := h.analyzer.Describe(r.Context(), recordID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(details))
}

// GetAnalysis GET /api/v1/records/analysis?record=&lead=
func (h *RecordHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	req, ok := h.analysisRequest(w, r)
	if !ok {
		return
	}
	result, err := h.analyzer.Analyze(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysisResult(result))
}

// GetPlot GET /api/v1/records/plot.png?record=&lead=&seconds=&signal=cleaned|raw
func (h *RecordHandler) GetPlot(w http.ResponseWriter, r *http.Request) {
	req, ok := h.analysisRequest(w, r)
	if !ok {
		return
	}
	opts := report.PlotOptions{Seconds: parseFloat(r.URL.Query().Get("seconds"), 10)}

	var result *models.AnalysisResult
	var err error
	switch signal := r.URL.Query().Get("signal"); signal {
	case "", "cleaned":
		result, err = h.analyzer.Analyze(r.Context(), req)
	case "raw":
		result, opts.Raw, err = h.analyzer.Strip(r.Context(), req)
	default:
		writeJSON(w, http.StatusBadRequest, Fail("signal must be cleaned or raw"))
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.RenderPNG(&buf, result, opts); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// GetReport GET /api/v1/records/report.xlsx?record=&lead=
func (h *RecordHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	req, ok := h.analysisRequest(w, r)
	if !ok {
		return
	}
	details, result, err := h.analyzer.Report(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteWorkbook(&buf, details, result); err != nil {
		h.writeError(w, r, err)
		return
	}
	filename := fmt.Sprintf("%s_%s.xlsx", path.Base(result.RecordID), result.LeadName)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *RecordHandler) recordParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	ref := strings.TrimSpace(r.URL.Query().Get("record"))
	if ref == "" {
		writeJSON(w, http.StatusBadRequest, Fail("record is required"))
		return "", false
	}
	if h.records != nil {
		ref = h.records.Resolve(ref)
	}
	return ref, true
}

func (h *RecordHandler) analysisRequest(w http.ResponseWriter, r *http.Request) (models.AnalysisRequest, bool) {
	recordID, ok := h.recordParam(w, r)
	if !ok {
		return models.AnalysisRequest{}, false
	}
	lead, err := models.ParseLead(r.URL.Query().Get("lead"))
	if err != nil {
		h.writeError(w, r, err)
		return models.AnalysisRequest{}, false
	}
	return models.AnalysisRequest{RecordID: recordID, LeadIndex: lead}, true
}

func (h *RecordHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.String("query", r.URL.RawQuery),
			zap.Int("status", status),
			zap.Error(err),
		)
	} else {
		h.logger.Info("Request rejected",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	writeJSON(w, status, Fail(message))
}
