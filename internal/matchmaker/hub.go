// Package matchmaker implements the server half of the duel protocol: the
// matchmaking queue, room pairing and the in-room score relay.
package matchmaker

import (
	"context"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/DeepakCSGO23/PvP-Quiz-App/internal/duel"
	"github.com/DeepakCSGO23/PvP-Quiz-App/internal/duel/events"
	"github.com/DeepakCSGO23/PvP-Quiz-App/internal/protocol"
)

// EventPublisher is what the hub needs from the duel event stream.
type EventPublisher interface {
	PublishMatchCreated(ctx context.Context, payload events.MatchCreatedPayload) error
	PublishDuelCompleted(ctx context.Context, payload events.DuelCompletedPayload) error
}

// Config holds hub and WebSocket tuning.
type Config struct {
	// MaxTrophyGap is the largest trophy difference still considered an
	// equally skilled pairing.
	MaxTrophyGap uint16

	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
	CheckOrigin    func(r *http.Request) bool
}

// DefaultConfig returns the default hub configuration.
func DefaultConfig() Config {
	return Config{
		MaxTrophyGap:   100,
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production.
			return true
		},
	}
}

// room is one duel's correlation context. One waiting player makes it a
// queue slot; two make it a live room.
type room struct {
	id        string
	players   []*player
	completed map[string]bool
}

func (r *room) opponentOf(name string) *player {
	for _, p := range r.players {
		if p.name != name {
			return p
		}
	}
	return nil
}

// Hub owns every queue slot and live room.
type Hub struct {
	config    Config
	upgrader  websocket.Upgrader
	publisher EventPublisher

	mu    sync.Mutex
	rooms map[string]*room
}

// NewHub creates a matchmaking hub. publisher may be nil when no event
// stream is configured.
func NewHub(config Config, publisher EventPublisher) *Hub {
	return &Hub{
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     config.CheckOrigin,
		},
		publisher: publisher,
		rooms:     make(map[string]*room),
	}
}

// HandleDuel upgrades an HTTP request to the duel WebSocket channel and
// serves it until the peer disconnects.
func (h *Hub) HandleDuel(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade duel connection")
		return
	}

	p := &player{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 16),
		done: make(chan struct{}),
	}

	log.Info().Str("remote", conn.RemoteAddr().String()).Msg("duel channel connected")

	go p.writePump()
	p.readPump(r.Context())
}

// enqueue pairs the player with a waiting opponent of comparable skill, or
// parks them in a fresh room to wait.
func (h *Hub) enqueue(ctx context.Context, p *player) {
	h.mu.Lock()

	var matched *room
	for _, rm := range h.rooms {
		if len(rm.players) != 1 {
			continue
		}
		waiting := rm.players[0]
		gap := math.Abs(float64(p.trophies) - float64(waiting.trophies))
		if gap <= float64(h.config.MaxTrophyGap) {
			rm.players = append(rm.players, p)
			matched = rm
			break
		}
	}

	if matched == nil {
		rm := &room{
			id:        uuid.New().String(),
			players:   []*player{p},
			completed: make(map[string]bool),
		}
		h.rooms[rm.id] = rm
		p.roomID = rm.id
		h.mu.Unlock()

		log.Info().
			Str("room_id", rm.id).
			Str("player", p.name).
			Uint16("trophies", p.trophies).
			Msg("no equal-skill opponent waiting, queued in new room")
		return
	}

	p.roomID = matched.id
	a, b := matched.players[0], matched.players[1]
	h.mu.Unlock()

	log.Info().
		Str("room_id", matched.id).
		Str("player_a", a.name).
		Str("player_b", b.name).
		Msg("match found")

	// Each side learns the other's identity.
	if frame, err := protocol.NewMatchFoundFrame(matched.id, b.name); err == nil {
		a.enqueueFrame(frame)
	}
	if frame, err := protocol.NewMatchFoundFrame(matched.id, a.name); err == nil {
		b.enqueueFrame(frame)
	}

	if h.publisher != nil {
		payload := events.MatchCreatedPayload{
			RoomID:    matched.id,
			PlayerA:   a.name,
			PlayerB:   b.name,
			MatchedAt: time.Now(),
		}
		if err := h.publisher.PublishMatchCreated(ctx, payload); err != nil {
			log.Error().Err(err).Str("room_id", matched.id).Msg("failed to publish MatchCreated")
		}
	}
}

// relayScore forwards one player's final score to the opponent in the room.
func (h *Hub) relayScore(roomID, from string, points int) {
	h.mu.Lock()
	rm, ok := h.rooms[roomID]
	var opponent *player
	if ok {
		opponent = rm.opponentOf(from)
	}
	h.mu.Unlock()

	if opponent == nil {
		log.Warn().Str("room_id", roomID).Str("player", from).Msg("score relay for unknown room or opponent")
		return
	}

	frame, err := protocol.NewOpponentScoreFrame(points)
	if err != nil {
		log.Error().Err(err).Msg("failed to build opponent score frame")
		return
	}
	opponent.enqueueFrame(frame)

	log.Debug().
		Str("room_id", roomID).
		Str("from", from).
		Int("points", points).
		Msg("final score relayed to opponent")
}

// completeMatch records one player's final handshake. The room is removed
// once both players acknowledged (or when a connection drops).
func (h *Hub) completeMatch(ctx context.Context, msg protocol.ClientMessage) {
	h.mu.Lock()
	rm, ok := h.rooms[msg.RoomID]
	if !ok {
		h.mu.Unlock()
		log.Warn().Str("room_id", msg.RoomID).Msg("match_completed for unknown room")
		return
	}
	rm.completed[msg.PlayerName] = true
	bothDone := len(rm.completed) == len(rm.players) && len(rm.players) == 2
	if bothDone {
		delete(h.rooms, msg.RoomID)
	}
	h.mu.Unlock()

	if h.publisher != nil {
		payload := events.DuelCompletedPayload{
			RoomID:              msg.RoomID,
			PlayerName:          msg.PlayerName,
			Opponent:            msg.OpponentName,
			PlayerPoints:        msg.PlayerPoints,
			OpponentTotalPoints: msg.OpponentTotalPoints,
			Result:              string(duel.Resolve(msg.PlayerPoints, msg.OpponentTotalPoints)),
			IsPerfectScore:      msg.IsPerfectScore,
			IsLightningReflexes: msg.IsLightningReflexes,
			CompletedAt:         time.Now(),
		}
		if err := h.publisher.PublishDuelCompleted(ctx, payload); err != nil {
			log.Error().Err(err).Str("room_id", msg.RoomID).Msg("failed to publish DuelCompleted")
		}
	}

	log.Info().
		Str("room_id", msg.RoomID).
		Str("player", msg.PlayerName).
		Bool("room_closed", bothDone).
		Msg("match completed")
}

// dropPlayer removes the player's room. A live opponent is disconnected so
// its client abandons the session instead of waiting forever.
func (h *Hub) dropPlayer(p *player) {
	if p.roomID == "" {
		return
	}

	h.mu.Lock()
	rm, ok := h.rooms[p.roomID]
	var opponent *player
	if ok {
		opponent = rm.opponentOf(p.name)
		delete(h.rooms, p.roomID)
	}
	h.mu.Unlock()

	if !ok {
		return
	}

	log.Info().
		Str("room_id", p.roomID).
		Str("player", p.name).
		Msg("player left, room removed")

	if opponent != nil && len(rm.completed) < 2 {
		opponent.close()
	}
}

// RoomCount reports the number of queue slots plus live rooms.
func (h *Hub) RoomCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}
