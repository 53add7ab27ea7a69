package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sqlc-dev/pqtype"

	"github.com/DeepakCSGO23/PvP-Quiz-App/internal/models"
)

// Repository persists match records and achievements in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new history Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertMatchRecord stores one completed duel from a single player's
// perspective.
func (r *Repository) InsertMatchRecord(ctx context.Context, rec models.MatchRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO match_history (id, room_id, profile_name, opponent, player_points, opponent_points, result, played_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.RoomID, rec.ProfileName, rec.Opponent, rec.PlayerPoints, rec.OpponentPoints, rec.Result, rec.PlayedAt)
	if err != nil {
		return fmt.Errorf("failed to insert match record: %w", err)
	}
	return nil
}

// GetHistoryByProfile returns a profile's duel history, most recent first.
func (r *Repository) GetHistoryByProfile(ctx context.Context, profileName string, limit int) ([]HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT opponent, player_points, opponent_points, result, played_at
		FROM match_history
		WHERE profile_name = $1
		ORDER BY played_at DESC
		LIMIT $2`,
		profileName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query match history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.Opponent, &e.PlayerPoints, &e.OpponentPoints, &e.Result, &e.PlayedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match history row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read match history rows: %w", err)
	}
	return entries, nil
}

// WinStreak returns the length of the current consecutive-win run, counted
// from the most recent match backwards.
func (r *Repository) WinStreak(ctx context.Context, profileName string) (int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT result
		FROM match_history
		WHERE profile_name = $1
		ORDER BY played_at DESC`,
		profileName)
	if err != nil {
		return 0, fmt.Errorf("failed to query win streak: %w", err)
	}
	defer rows.Close()

	streak := 0
	for rows.Next() {
		var result models.MatchResult
		if err := rows.Scan(&result); err != nil {
			return 0, fmt.Errorf("failed to scan result: %w", err)
		}
		if result != models.MatchResultWon {
			break
		}
		streak++
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to read win streak rows: %w", err)
	}
	return streak, nil
}

// GetAchievements loads a profile's achievement flags. A profile with no
// achievements row yet gets the zero value.
func (r *Repository) GetAchievements(ctx context.Context, profileName string) (models.AchievementFlags, error) {
	var raw pqtype.NullRawMessage
	err := r.pool.QueryRow(ctx, `
		SELECT flags FROM achievements WHERE profile_name = $1`,
		profileName).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.AchievementFlags{}, nil
	}
	if err != nil {
		return models.AchievementFlags{}, fmt.Errorf("failed to query achievements: %w", err)
	}

	var flags models.AchievementFlags
	if raw.Valid {
		if err := json.Unmarshal(raw.RawMessage, &flags); err != nil {
			return models.AchievementFlags{}, fmt.Errorf("failed to decode achievement flags: %w", err)
		}
	}
	return flags, nil
}

// UpsertAchievements writes a profile's achievement flags.
func (r *Repository) UpsertAchievements(ctx context.Context, profileName string, flags models.AchievementFlags) error {
	data, err := json.Marshal(flags)
	if err != nil {
		return fmt.Errorf("failed to encode achievement flags: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO achievements (profile_name, flags)
		VALUES ($1, $2)
		ON CONFLICT (profile_name) DO UPDATE SET flags = EXCLUDED.flags`,
		profileName, pqtype.NullRawMessage{RawMessage: data, Valid: true})
	if err != nil {
		return fmt.Errorf("failed to upsert achievements: %w", err)
	}
	return nil
}
