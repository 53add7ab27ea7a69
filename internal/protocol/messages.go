// Package protocol defines the JSON message contract exchanged over the
// duel WebSocket channel. It is shared by the client session engine and the
// matchmaking server to avoid cyclic imports.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Action values carried on client→server frames.
const (
	ActionConnect         = "connect"
	ActionDisconnect      = "disconnect"
	ActionPlayerCompleted = "player_completed"
	ActionMatchCompleted  = "match_completed"
)

// MatchFoundMessage is the fixed notification text for the match-found frame.
const MatchFoundMessage = "Match found!"

// ErrMalformedMessage marks an inbound payload missing expected fields.
// Malformed frames are dropped and logged; the session continues.
var ErrMalformedMessage = errors.New("malformed message")

// ClientMessage is a client→server frame. One flat struct covers every
// outbound action. playerPoints and totalTrophies are always present so a
// zero score or trophy count survives the wire; the rest are omitted when
// empty.
type ClientMessage struct {
	Action              string `json:"action"`
	RoomID              string `json:"roomId,omitempty"`
	PlayerName          string `json:"playerName"`
	PlayerPoints        int    `json:"playerPoints"`
	TotalTrophies       uint16 `json:"totalTrophies"`
	OpponentName        string `json:"opponentName,omitempty"`
	OpponentTotalPoints int    `json:"opponentTotalPoints,omitempty"`
	IsPerfectScore      bool   `json:"isPerfectScore,omitempty"`
	IsLightningReflexes bool   `json:"isLightningReflexes,omitempty"`
}

// ServerMessage is a server→client frame: either a match-found notification
// or an opponent score update.
type ServerMessage struct {
	Message             string `json:"message,omitempty"`
	RoomID              string `json:"roomId,omitempty"`
	Opponent            string `json:"opponent,omitempty"`
	OpponentTotalPoints *int   `json:"opponentTotalPoints,omitempty"`
}

// MatchFound tells a queued player which room it was placed in and who the
// opponent is.
type MatchFound struct {
	RoomID   string
	Opponent string
}

// OpponentScore carries the opponent's cumulative point total. Advisory if
// it arrives mid-room, authoritative once the local player has completed.
type OpponentScore struct {
	TotalPoints int
}

// ParseServerMessage decodes an inbound frame into its typed form. The
// returned value is either a MatchFound or an OpponentScore.
func ParseServerMessage(data []byte) (interface{}, error) {
	var msg ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch {
	case msg.Message == MatchFoundMessage:
		if msg.RoomID == "" || msg.Opponent == "" {
			return nil, fmt.Errorf("%w: match-found frame missing roomId or opponent", ErrMalformedMessage)
		}
		return MatchFound{RoomID: msg.RoomID, Opponent: msg.Opponent}, nil

	case msg.OpponentTotalPoints != nil:
		return OpponentScore{TotalPoints: *msg.OpponentTotalPoints}, nil

	default:
		return nil, fmt.Errorf("%w: frame carries neither match-found nor opponent score", ErrMalformedMessage)
	}
}

// ParseClientMessage decodes a client→server frame and validates the fields
// its action requires.
func ParseClientMessage(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if msg.PlayerName == "" {
		return ClientMessage{}, fmt.Errorf("%w: missing playerName", ErrMalformedMessage)
	}

	switch msg.Action {
	case ActionConnect, ActionDisconnect:
	case ActionPlayerCompleted, ActionMatchCompleted:
		if msg.RoomID == "" {
			return ClientMessage{}, fmt.Errorf("%w: %s frame missing roomId", ErrMalformedMessage, msg.Action)
		}
	default:
		return ClientMessage{}, fmt.Errorf("%w: unknown action %q", ErrMalformedMessage, msg.Action)
	}

	return msg, nil
}

// NewMatchFoundFrame builds the server→client match-found frame.
func NewMatchFoundFrame(roomID, opponent string) ([]byte, error) {
	return json.Marshal(ServerMessage{
		Message:  MatchFoundMessage,
		RoomID:   roomID,
		Opponent: opponent,
	})
}

// NewOpponentScoreFrame builds the server→client opponent score frame.
func NewOpponentScoreFrame(totalPoints int) ([]byte, error) {
	return json.Marshal(ServerMessage{OpponentTotalPoints: &totalPoints})
}
