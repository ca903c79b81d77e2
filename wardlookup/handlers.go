package wardlookup

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/wardfinder/shield"
)

// Routes registers the lookup API on r:
//
//	POST /api/lookup   {"address": "..."}
//	GET  /api/lookup?address=...
//	GET  /healthz
func (s *Service) Routes(r chi.Router) {
	r.Post("/api/lookup", s.handlePostLookup)
	r.Get("/api/lookup", s.handleGetLookup)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

func (s *Service) handlePostLookup(w http.ResponseWriter, r *http.Request) {
	var req LookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shield.GetLogger(r.Context()).Info("wardlookup: bad request body", "error", err)
		writeError(w, http.StatusBadRequest)
		return
	}
	s.serveLookup(w, r, &req)
}

func (s *Service) handleGetLookup(w http.ResponseWriter, r *http.Request) {
	s.serveLookup(w, r, &LookupRequest{Address: r.URL.Query().Get("address")})
}

func (s *Service) serveLookup(w http.ResponseWriter, r *http.Request, req *LookupRequest) {
	resp, err := s.endpoint(r.Context(), req)
	if err != nil {
		shield.GetLogger(r.Context()).Info("wardlookup: lookup answered with error", "error", err)
		writeError(w, StatusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// StatusFor maps a lookup error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidAddress):
		return http.StatusBadRequest
	case errors.Is(err, ErrWardNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int) {
	writeJSON(w, code, ErrorResponse{Success: false, Error: ErrorMessage})
}
