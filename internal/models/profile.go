package models

import "time"

// Profile represents a player profile in the system.
type Profile struct {
	ProfileName   string    `json:"profileName"`
	TotalTrophies uint16    `json:"totalTrophies"`
	Status        string    `json:"status"`
	Country       string    `json:"country"`
	CreatedAt     time.Time `json:"created_at"`
}

// AchievementFlags holds the per-profile achievement booleans.
type AchievementFlags struct {
	FirstVictory      bool `json:"first_victory"`
	PerfectRound      bool `json:"perfect_round"`
	LightningReflexes bool `json:"lightning_reflexes"`
	QuizChampion      bool `json:"quiz_champion"`
	ClutchPerformer   bool `json:"clutch_performer"`
}
