// Package events holds the duel event payloads shared between the
// matchmaker (publisher) and the history recorder (consumer).
package events

import (
	"encoding/json"
	"time"
)

// Envelope wraps every payload published on the duel event stream.
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	RoomID    string          `json:"roomId"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Event types published on the duel event stream.
const (
	TypeMatchCreated  = "MatchCreated"
	TypeDuelCompleted = "DuelCompleted"
)

// MatchCreatedPayload is emitted when two queued players are paired into a
// room.
type MatchCreatedPayload struct {
	RoomID    string    `json:"room_id"`
	PlayerA   string    `json:"player_a"`
	PlayerB   string    `json:"player_b"`
	MatchedAt time.Time `json:"matched_at"`
}

// DuelCompletedPayload is emitted once per player on the final
// match_completed handshake. It carries everything the history recorder
// needs to store a match record and evaluate achievements.
type DuelCompletedPayload struct {
	RoomID              string    `json:"room_id"`
	PlayerName          string    `json:"player_name"`
	Opponent            string    `json:"opponent"`
	PlayerPoints        int       `json:"player_points"`
	OpponentTotalPoints int       `json:"opponent_total_points"`
	Result              string    `json:"result"`
	IsPerfectScore      bool      `json:"is_perfect_score"`
	IsLightningReflexes bool      `json:"is_lightning_reflexes"`
	CompletedAt         time.Time `json:"completed_at"`
}
