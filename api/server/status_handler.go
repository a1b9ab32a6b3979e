// status_handler.go - HTTP handler for /status
package server

import (
	"net/http"
)

// HandleStatus responds to /status with node status
func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	metrics := s.GetNodeMetrics()
	resp := StatusResponse{
		Status:      nodeStatus(metrics),
		Uptime:      metrics.UptimeSeconds,
		BlockHeight: metrics.BlockHeight,
		Pending:     metrics.PendingTransactions,
		Version:     NodeVersion(),
		APIVersion:  APIVersion(),
		LastBlock:   metrics.LastBlockTime,
		Metrics:     metrics,
	}
	if cr := s.court.Chain().Corruption(); cr != nil {
		resp.Corruption = cr
	}
	writeJSON(w, http.StatusOK, resp)
}
