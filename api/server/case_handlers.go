package server

import (
	"net/http"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/chain"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/court"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/validation"
)

type submitResponse struct {
	Message string `json:"message"`
	CaseID  string `json:"case_id"`
	chain.BlockRef
}

func (s *Server) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	var req court.CreateCaseRequest
	if err := s.decode(r, validation.CreateCase, &req); err != nil {
		writeErr(w, err)
		return
	}
	ref, err := s.court.CreateCase(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitResponse{Message: "case created", CaseID: req.CaseID, BlockRef: ref})
}

func (s *Server) handleListCases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"cases": s.court.ListCases()})
}

func (s *Server) handleGetCase(w http.ResponseWriter, r *http.Request) {
	rec, err := s.court.GetCase(r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"case": rec, "history": rec.History})
}

func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	var req court.AddDocumentRequest
	if err := s.decode(r, validation.AddDocument, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.Uploader == "" {
		req.Uploader = actor(r)
	}
	caseID := r.PathValue("id")
	ref, err := s.court.AddDocument(r.Context(), caseID, req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitResponse{Message: "document added", CaseID: caseID, BlockRef: ref})
}

func (s *Server) handleScheduleHearing(w http.ResponseWriter, r *http.Request) {
	var req court.ScheduleHearingRequest
	if err := s.decode(r, validation.ScheduleHearing, &req); err != nil {
		writeErr(w, err)
		return
	}
	caseID := r.PathValue("id")
	ref, err := s.court.ScheduleHearing(r.Context(), caseID, req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitResponse{Message: "hearing scheduled", CaseID: caseID, BlockRef: ref})
}

func (s *Server) handleIssueJudgment(w http.ResponseWriter, r *http.Request) {
	var req court.IssueJudgmentRequest
	if err := s.decode(r, validation.IssueJudgment, &req); err != nil {
		writeErr(w, err)
		return
	}
	caseID := r.PathValue("id")
	ref, err := s.court.IssueJudgment(r.Context(), caseID, req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitResponse{Message: "judgment issued", CaseID: caseID, BlockRef: ref})
}

type verifyDocumentRequest struct {
	CaseID          string `json:"case_id"`
	DocumentContent string `json:"document_content"`
}

func (s *Server) handleVerifyDocument(w http.ResponseWriter, r *http.Request) {
	var req verifyDocumentRequest
	if err := s.decode(r, validation.VerifyDocument, &req); err != nil {
		writeErr(w, err)
		return
	}
	res, err := s.court.VerifyDocument(req.CaseID, req.DocumentContent)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type registerJudgeRequest struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

func (s *Server) handleRegisterJudge(w http.ResponseWriter, r *http.Request) {
	var req registerJudgeRequest
	if err := s.decode(r, validation.RegisterJudge, &req); err != nil {
		writeErr(w, err)
		return
	}
	j, err := s.court.RegisterJudge(req.Name, req.Specialty)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "judge registered", "judge_id": j.JudgeID, "judge": j})
}

func (s *Server) handleListJudges(w http.ResponseWriter, r *http.Request) {
	judges, err := s.court.ListJudges()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"judges": judges})
}
