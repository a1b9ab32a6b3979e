package server

import (
	"net/http"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/validation"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decode(r, validation.Login, &req); err != nil {
		writeErr(w, err)
		return
	}
	res, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.decode(r, validation.RegisterUser, &req); err != nil {
		writeErr(w, err)
		return
	}
	u, err := s.auth.Register(actor(r), req.Username, req.Email, req.Password, req.Role, req.FullName)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "user registered", "user": u})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	u, err := s.auth.Users.Get(claims.Username)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}
