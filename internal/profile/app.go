package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/DeepakCSGO23/PvP-Quiz-App/internal/models"
)

const leaderboardSize = 10

// ProfileRepository defines what the app layer needs from the repository.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, req CreateProfileRequest) (*models.Profile, error)
	GetProfileByName(ctx context.Context, name string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*models.Profile, error)
	AwardTrophies(ctx context.Context, name string, delta int) error
	Leaderboard(ctx context.Context, limit int) ([]models.Profile, error)
}

// App handles profile business logic.
type App struct {
	repo ProfileRepository
}

// NewApp creates a new profile App.
func NewApp(repo ProfileRepository) *App {
	return &App{repo: repo}
}

// CreateProfile creates a new profile after checking name availability.
func (a *App) CreateProfile(ctx context.Context, req CreateProfileRequest) (*models.Profile, error) {
	if req.ProfileName == "" {
		return nil, fmt.Errorf("profile name is required")
	}

	existing, err := a.repo.GetProfileByName(ctx, req.ProfileName)
	if err == nil && existing != nil {
		return nil, fmt.Errorf("profile with name %s already exists", req.ProfileName)
	}

	p, err := a.repo.CreateProfile(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	log.Info().Str("profile", p.ProfileName).Msg("profile created")
	return p, nil
}

// CheckAvailability reports whether the name is taken, returning the
// existing profile when it is.
func (a *App) CheckAvailability(ctx context.Context, name string) (*models.Profile, bool, error) {
	p, err := a.repo.GetProfileByName(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to check profile name: %w", err)
	}
	return p, true, nil
}

// UpdateProfile patches status and country for an existing profile.
func (a *App) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*models.Profile, error) {
	if req.ProfileName == "" {
		return nil, fmt.Errorf("profile name is required")
	}

	p, err := a.repo.UpdateProfile(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return p, nil
}

// AwardTrophies credits a duel's trophy reward.
func (a *App) AwardTrophies(ctx context.Context, name string, delta int) error {
	if delta == 0 {
		return nil
	}
	if err := a.repo.AwardTrophies(ctx, name, delta); err != nil {
		return fmt.Errorf("failed to award trophies: %w", err)
	}
	log.Info().Str("profile", name).Int("delta", delta).Msg("trophies awarded")
	return nil
}

// GetProfile fetches one profile by name.
func (a *App) GetProfile(ctx context.Context, name string) (*models.Profile, error) {
	p, err := a.repo.GetProfileByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// Leaderboard returns the top profiles by trophies.
func (a *App) Leaderboard(ctx context.Context) ([]models.Profile, error) {
	board, err := a.repo.Leaderboard(ctx, leaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	return board, nil
}
