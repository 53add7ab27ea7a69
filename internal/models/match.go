package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchResult defines the verdict of a completed duel from one player's
// perspective.
type MatchResult string

const (
	MatchResultWon  MatchResult = "won"
	MatchResultLost MatchResult = "lost"
	MatchResultTie  MatchResult = "tie"
)

// MatchRecord is one row of a player's duel history.
type MatchRecord struct {
	ID             uuid.UUID   `json:"id"`
	RoomID         string      `json:"roomId"`
	ProfileName    string      `json:"profileName"`
	Opponent       string      `json:"opponent"`
	PlayerPoints   int         `json:"playerPoints"`
	OpponentPoints int         `json:"opponentPoints"`
	Result         MatchResult `json:"result"`
	PlayedAt       time.Time   `json:"played_at"`
}
