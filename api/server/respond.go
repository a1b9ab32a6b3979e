package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/auth"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/chain"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/mempool"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/state"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/validation"
)

const maxBodyBytes = 2 << 20

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeErr maps a domain error onto its HTTP status.
func writeErr(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	if ite, ok := chain.IsInvalidTransaction(err); ok {
		resp.Code = ite.Code
	}
	writeJSON(w, statusFor(err), resp)
}

func statusFor(err error) int {
	if ite, ok := chain.IsInvalidTransaction(err); ok {
		switch ite.Code {
		case chain.CodeNotFound:
			return http.StatusNotFound
		case chain.CodeDuplicate, chain.CodeClosed:
			return http.StatusConflict
		}
		return http.StatusBadRequest
	}
	switch {
	case errors.Is(err, validation.ErrInvalidPayload), errors.Is(err, auth.ErrInvalidRole):
		return http.StatusBadRequest
	case errors.Is(err, state.ErrCaseNotFound), errors.Is(err, auth.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, chain.ErrBusy), errors.Is(err, chain.ErrChainCorrupted), errors.Is(err, mempool.ErrClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// decode reads a size-limited body and validates it against schema.
func (s *Server) decode(r *http.Request, schema validation.Schema, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	return s.validator.Decode(schema, body, out)
}
