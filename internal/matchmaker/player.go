package matchmaker

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/DeepakCSGO23/PvP-Quiz-App/internal/protocol"
)

// player is one connected client. Identity is learned from its first
// connect frame.
type player struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once

	name     string
	trophies uint16
	roomID   string
}

func (p *player) enqueueFrame(frame []byte) {
	select {
	case p.send <- frame:
	default:
		log.Warn().Str("player", p.name).Msg("send buffer full, dropping frame and connection")
		p.close()
	}
}

func (p *player) close() {
	p.once.Do(func() {
		close(p.done)
		p.conn.Close()
	})
}

// readPump reads frames until the peer disconnects and dispatches each
// action to the hub.
func (p *player) readPump(ctx context.Context) {
	defer func() {
		p.hub.dropPlayer(p)
		p.close()
	}()

	p.conn.SetReadLimit(p.hub.config.MaxMessageSize)
	p.conn.SetReadDeadline(time.Now().Add(p.hub.config.ReadTimeout))
	p.conn.SetPongHandler(func(string) error {
		p.conn.SetReadDeadline(time.Now().Add(p.hub.config.ReadTimeout))
		return nil
	})

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("player", p.name).Msg("unexpected duel channel close")
			} else {
				log.Info().Str("player", p.name).Msg("duel channel disconnected")
			}
			return
		}
		p.conn.SetReadDeadline(time.Now().Add(p.hub.config.ReadTimeout))

		msg, err := protocol.ParseClientMessage(data)
		if err != nil {
			// Dropped and logged; the connection survives a bad frame.
			log.Warn().Err(err).Msg("dropping malformed client frame")
			continue
		}

		p.dispatch(ctx, msg)
	}
}

func (p *player) dispatch(ctx context.Context, msg protocol.ClientMessage) {
	switch msg.Action {
	case protocol.ActionConnect:
		p.name = msg.PlayerName
		p.trophies = msg.TotalTrophies
		p.hub.enqueue(ctx, p)

	case protocol.ActionDisconnect:
		p.hub.dropPlayer(p)
		p.roomID = ""

	case protocol.ActionPlayerCompleted:
		p.hub.relayScore(msg.RoomID, msg.PlayerName, msg.PlayerPoints)

	case protocol.ActionMatchCompleted:
		p.hub.completeMatch(ctx, msg)
	}
}

// writePump handles outbound frames and keepalive pings.
func (p *player) writePump() {
	ticker := time.NewTicker(p.hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		p.close()
	}()

	for {
		select {
		case <-p.done:
			p.conn.SetWriteDeadline(time.Now().Add(p.hub.config.WriteTimeout))
			p.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case frame := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(p.hub.config.WriteTimeout))
			if err := p.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Error().Err(err).Str("player", p.name).Msg("failed to write frame")
				return
			}

		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(p.hub.config.WriteTimeout))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
