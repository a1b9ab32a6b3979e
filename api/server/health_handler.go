// health_handler.go - HTTP handlers for /health, /health/liveness, /health/readiness
package server

import (
	"net/http"
	"time"
)

// HandleLiveness responds to /health/liveness
func (s *Server) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{Alive: s.NodeLiveness()})
}

// HandleReadiness responds to /health/readiness
func (s *Server) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ready := s.NodeReadiness()
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, ReadinessResponse{Ready: ready})
}

// HandleHealth responds to /health with a summary
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	c := s.court.Chain()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:     nodeStatus(s.GetNodeMetrics()),
		Blocks:     c.Length(),
		Difficulty: c.Difficulty(),
		Timestamp:  time.Now().UTC(),
	})
}
