package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/anomalyd/anomalyd/internal/metrics"
)

// handleAnomalies returns every table row whose prediction equals 1, in table order.
// GET /anomalies
// Query parameters are ignored.
func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	anomalies := s.table.Anomalies()

	body, err := json.Marshal(anomalies)
	if err != nil {
		s.logger.Error("encoding anomalies", "error", err, "request_id", RequestID(r.Context()))
		JSONError(w, http.StatusInternalServerError, "encode_failed", "failed to encode anomalies")
		return
	}
	metrics.AnomaliesServed.Add(float64(len(anomalies)))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
	w.Write([]byte{'\n'})
}

// handleHealth returns server health status.
// GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"version":        s.version,
		"rows":           s.table.Len(),
		"anomalies":      s.table.CountAnomalies(),
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
	})
}
