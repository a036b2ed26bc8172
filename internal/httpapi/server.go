package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jwclark94/backninescrape/internal/stats"
	"github.com/jwclark94/backninescrape/internal/store"
)

// Server serves the booking data HTTP API.
type Server struct {
	obs   store.ObservationStore
	maxes store.DailyMaxStore
	log   *slog.Logger
}

// NewServer creates a new API server over the given stores.
func NewServer(obs store.ObservationStore, maxes store.DailyMaxStore, log *slog.Logger) *Server {
	return &Server{obs: obs, maxes: maxes, log: log}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/daily-max", s.handleDailyMax)
	mux.HandleFunc("GET /api/daily-max/{slug}", s.handleDailyMaxSlug)
	mux.HandleFunc("GET /api/observations/{slug}", s.handleObservations)
	mux.HandleFunc("GET /api/stats", s.handleStats)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleDailyMax(w http.ResponseWriter, r *http.Request) {
	records, err := s.maxes.List(r.Context())
	if err != nil {
		s.log.Error("listing daily maxes", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list daily maxes")
		return
	}

	out := make([]DailyMaxJSON, 0, len(records))
	for _, rec := range records {
		out = append(out, convertDailyMax(rec))
	}
	writeJSON(w, DailyMaxResponse{Records: out})
}

func (s *Server) handleDailyMaxSlug(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		writeError(w, http.StatusBadRequest, "slug required")
		return
	}

	records, err := s.maxes.List(r.Context())
	if err != nil {
		s.log.Error("listing daily maxes", "slug", slug, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list daily maxes")
		return
	}

	out := make([]DailyMaxJSON, 0)
	for _, rec := range records {
		if rec.Location.Slug == slug {
			out = append(out, convertDailyMax(rec))
		}
	}
	if len(out) == 0 {
		writeError(w, http.StatusNotFound, "no records for "+slug)
		return
	}
	writeJSON(w, DailyMaxResponse{Records: out})
}

func (s *Server) handleObservations(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		writeError(w, http.StatusBadRequest, "slug required")
		return
	}

	totals, err := s.obs.Observations(r.Context(), slug)
	if err != nil {
		s.log.Error("reading observations", "slug", slug, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read observations")
		return
	}

	out := make([]ObservationJSON, 0, len(totals))
	for _, t := range totals {
		out = append(out, convertObservation(t))
	}
	writeJSON(w, ObservationsResponse{Slug: slug, Observations: out})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	records, err := s.maxes.List(r.Context())
	if err != nil {
		s.log.Error("listing daily maxes", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list daily maxes")
		return
	}

	summary := stats.Summarize(records)
	out := make([]LocationStatsJSON, 0, len(summary))
	for _, ls := range summary {
		out = append(out, convertStats(ls))
	}
	writeJSON(w, StatsResponse{Locations: out})
}
