package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/floudata/pucp-time-series/internal/analysis"
	"github.com/floudata/pucp-time-series/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}

// errorStatus maps domain errors to an HTTP status and a client-facing message
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "record not found"
	case errors.Is(err, models.ErrInvalidLead):
		return http.StatusBadRequest, "invalid lead"
	case errors.Is(err, models.ErrFetch):
		return http.StatusBadGateway, "record fetch failed"
	case errors.Is(err, models.ErrMalformedRecord):
		return http.StatusUnprocessableEntity, "malformed record"
	case errors.Is(err, analysis.ErrNonFiniteSample):
		return http.StatusUnprocessableEntity, "non-finite sample"
	case errors.Is(err, analysis.ErrInvalidSamplingRate):
		return http.StatusUnprocessableEntity, "invalid sampling rate"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
