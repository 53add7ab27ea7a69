package history

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

const historyPageSize = 20

// Service exposes the history and achievements HTTP endpoints.
type Service struct {
	repo *Repository
}

// NewService creates a new history Service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// RegisterRoutes registers the history endpoints on the mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/get-history-data", s.handleHistory)
	mux.HandleFunc("/get-achievement-data", s.handleAchievements)
}

func (s *Service) handleHistory(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("profileName")
	if name == "" {
		http.Error(w, "missing profileName parameter", http.StatusBadRequest)
		return
	}

	entries, err := s.repo.GetHistoryByProfile(r.Context(), name, historyPageSize)
	if err != nil {
		log.Error().Err(err).Str("profile", name).Msg("failed to load match history")
		http.Error(w, "failed to retrieve history data", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []HistoryEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		log.Error().Err(err).Msg("failed to encode history response")
	}
}

func (s *Service) handleAchievements(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("profileName")
	if name == "" {
		http.Error(w, "missing profileName parameter", http.StatusBadRequest)
		return
	}

	flags, err := s.repo.GetAchievements(r.Context(), name)
	if err != nil {
		log.Error().Err(err).Str("profile", name).Msg("failed to load achievements")
		http.Error(w, "failed to retrieve achievement data", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(AchievementsResponse{ProfileName: name, Achievements: flags}); err != nil {
		log.Error().Err(err).Msg("failed to encode achievements response")
	}
}
