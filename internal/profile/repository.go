package profile

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/DeepakCSGO23/PvP-Quiz-App/internal/models"
)

// Repository persists profiles in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a profile repository over an open database handle.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ErrNotFound is returned when no profile matches the given name.
var ErrNotFound = sql.ErrNoRows

// CreateProfile inserts a new profile with zero trophies.
func (r *Repository) CreateProfile(ctx context.Context, req CreateProfileRequest) (*models.Profile, error) {
	const q = `
		INSERT INTO profiles (profile_name, total_trophies, status, country)
		VALUES ($1, 0, $2, $3)
		RETURNING profile_name, total_trophies, status, country, created_at`

	var p models.Profile
	err := r.db.QueryRowContext(ctx, q, req.ProfileName, req.Status, req.Country).
		Scan(&p.ProfileName, &p.TotalTrophies, &p.Status, &p.Country, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	return &p, nil
}

// GetProfileByName fetches one profile, ErrNotFound if absent.
func (r *Repository) GetProfileByName(ctx context.Context, name string) (*models.Profile, error) {
	const q = `
		SELECT profile_name, total_trophies, status, country, created_at
		FROM profiles
		WHERE profile_name = $1`

	var p models.Profile
	err := r.db.QueryRowContext(ctx, q, name).
		Scan(&p.ProfileName, &p.TotalTrophies, &p.Status, &p.Country, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile patches status and country.
func (r *Repository) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*models.Profile, error) {
	const q = `
		UPDATE profiles
		SET status = $2, country = $3
		WHERE profile_name = $1
		RETURNING profile_name, total_trophies, status, country, created_at`

	var p models.Profile
	err := r.db.QueryRowContext(ctx, q, req.ProfileName, req.Status, req.Country).
		Scan(&p.ProfileName, &p.TotalTrophies, &p.Status, &p.Country, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &p, nil
}

// AwardTrophies adds delta trophies to the profile.
func (r *Repository) AwardTrophies(ctx context.Context, name string, delta int) error {
	const q = `UPDATE profiles SET total_trophies = total_trophies + $2 WHERE profile_name = $1`
	res, err := r.db.ExecContext(ctx, q, name, delta)
	if err != nil {
		return fmt.Errorf("award trophies: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Leaderboard returns the top profiles ordered by trophies.
func (r *Repository) Leaderboard(ctx context.Context, limit int) ([]models.Profile, error) {
	const q = `
		SELECT profile_name, total_trophies, status, country, created_at
		FROM profiles
		ORDER BY total_trophies DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ProfileName, &p.TotalTrophies, &p.Status, &p.Country, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
