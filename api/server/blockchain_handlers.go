package server

import (
	"net/http"
)

func (s *Server) handleChain(w http.ResponseWriter, r *http.Request) {
	snap := s.court.Chain().Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{"chain": snap.Blocks(), "length": snap.Length()})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	res, err := s.court.Verify()
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"valid": false, "reason": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.court.Statistics()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"statistics": stats})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	exp, err := s.court.Export()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"blockchain": exp})
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	c := s.court.Chain()
	writeJSON(w, http.StatusOK, map[string]any{
		"pending":  c.Pending(),
		"rejected": c.Rejected(),
	})
}
