package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router thin wrapper over http.ServeMux
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	r := &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Ok("ok"))
	})
	return r
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterRecordRoutes record browsing, analysis and export
func (r *Router) RegisterRecordRoutes(h *RecordHandler) {
	r.Handle("/api/v1/records", getOnly(h.ListRecords))
	r.Handle("/api/v1/records/details", getOnly(h.GetDetails))
	r.Handle("/api/v1/records/analysis", getOnly(h.GetAnalysis))
	r.Handle("/api/v1/records/plot.png", getOnly(h.GetPlot))
	r.Handle("/api/v1/records/report.xlsx", getOnly(h.GetReport))
}

func getOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}
