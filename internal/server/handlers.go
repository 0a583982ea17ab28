package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/medimatch/medimatch/pkg/medicine"
)

// errorResponse is the body of every non-2xx API response.
type errorResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleReady reports 503 while a configured Redis is unreachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.redis.Ping(ctx).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("Readiness check failed")
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Message: "redis unavailable"})
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := strings.TrimSpace(q.Get("query"))
	searchType := medicine.SearchType(q.Get("searchType"))
	if query == "" || !searchType.Valid() {
		writeError(w, http.StatusBadRequest, medicine.MsgSearchParamsRequired)
		return
	}

	pageNo, ok := pageParam(q.Get("pageNo"))
	if !ok {
		writeError(w, http.StatusBadRequest, medicine.MsgSearchFailed)
		return
	}

	resp, err := s.medicines.Search(r.Context(), medicine.SearchParams{
		Query:  query,
		Type:   searchType,
		PageNo: pageNo,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIngredient(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	pageNo, ok := pageParam(q.Get("pageNo"))
	if !ok {
		writeError(w, http.StatusBadRequest, medicine.MsgIngredientListFailed)
		return
	}

	resp, err := s.medicines.ListByIngredient(r.Context(), strings.TrimSpace(q.Get("item_ingr_name")), pageNo)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEfficacy(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	pageNo, ok := pageParam(q.Get("pageNo"))
	if !ok {
		writeError(w, http.StatusBadRequest, medicine.MsgEfficacyFailed)
		return
	}

	resp, err := s.medicines.ListByEfficacy(r.Context(), strings.TrimSpace(q.Get("efcyQesitm")), pageNo)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMedicine(w http.ResponseWriter, r *http.Request) {
	itemSeq := chi.URLParam(r, "itemSeq")
	if !medicine.ValidItemSeq(itemSeq) {
		writeError(w, http.StatusBadRequest, medicine.MsgInvalidCode)
		return
	}

	profile, err := s.medicines.Profile(r.Context(), itemSeq)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// fail maps a service error to its status code and user-facing message.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, medicine.ErrSearchParamsRequired), errors.Is(err, medicine.ErrInvalidCode):
		status = http.StatusBadRequest
	case errors.Is(err, medicine.ErrMedicineNotFound):
		status = http.StatusNotFound
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to send.
		return
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	writeError(w, status, medicine.Message(err))
}

// pageParam parses an optional page number. Missing means page 1.
func pageParam(raw string) (int, bool) {
	if raw == "" {
		return medicine.DefaultPageNo, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

// writeJSON encodes v, so a nil pointer is sent as null.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
