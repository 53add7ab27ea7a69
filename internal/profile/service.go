package profile

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Service exposes the profile HTTP endpoints the game pages consume.
type Service struct {
	app *App
}

// NewService creates a new profile Service.
func NewService(app *App) *Service {
	return &Service{app: app}
}

// RegisterRoutes registers the profile endpoints on the mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/create-profile", s.handleCreateProfile)
	mux.HandleFunc("/check-profile", s.handleCheckProfile)
	mux.HandleFunc("/update-profile-data", s.handleUpdateProfile)
	mux.HandleFunc("/leaderboard-data", s.handleLeaderboard)
}

func (s *Service) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}

	p, err := s.app.CreateProfile(r.Context(), req)
	if err != nil {
		http.Error(w, "failed to save profile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, p)
}

func (s *Service) handleCheckProfile(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("profile-name")
	if name == "" {
		http.Error(w, "missing profile-name parameter", http.StatusBadRequest)
		return
	}

	p, taken, err := s.app.CheckAvailability(r.Context(), name)
	if err != nil {
		http.Error(w, "error checking profile name", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if !taken {
		writeJSON(w, AvailabilityResponse{Message: "notTaken"})
		return
	}
	writeJSON(w, AvailabilityResponse{
		Message:       "taken",
		ProfileName:   p.ProfileName,
		TotalTrophies: p.TotalTrophies,
		Status:        p.Status,
		Country:       p.Country,
	})
}

func (s *Service) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodPatch {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ProfileName == "" {
		http.Error(w, "profile name is required", http.StatusBadRequest)
		return
	}

	if _, err := s.app.UpdateProfile(r.Context(), req); err != nil {
		http.Error(w, "failed to update profile data", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write([]byte(`{"message":"Profile updated successfully"}`))
}

func (s *Service) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := s.app.Leaderboard(r.Context())
	if err != nil {
		http.Error(w, "failed to retrieve leaderboard data", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, board)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
