package history

import (
	"time"

	"github.com/DeepakCSGO23/PvP-Quiz-App/internal/models"
)

// HistoryEntry is a single row on the match history page.
type HistoryEntry struct {
	Opponent       string             `json:"opponent"`
	PlayerPoints   int                `json:"playerPoints"`
	OpponentPoints int                `json:"opponentPoints"`
	Result         models.MatchResult `json:"result"`
	PlayedAt       time.Time          `json:"playedAt"`
}

// AchievementsResponse reports which achievements a profile has unlocked.
type AchievementsResponse struct {
	ProfileName  string                  `json:"profileName"`
	Achievements models.AchievementFlags `json:"achievements"`
}

// trophy awards by verdict
const (
	TrophiesForWin = 25
	TrophiesForTie = 10
)

// quizChampionStreak is the consecutive-win count that unlocks Quiz Champion.
const quizChampionStreak = 10
