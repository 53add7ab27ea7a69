package duel

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/DeepakCSGO23/PvP-Quiz-App/internal/protocol"
)

// Transport is the session's sole I/O boundary: it accepts outbound protocol
// messages and delivers inbound frames in arrival order. The inbound channel
// closes when the underlying channel is gone; after that every Send reports
// ErrTransportUnavailable.
type Transport interface {
	Send(msg protocol.ClientMessage) error
	Inbound() <-chan []byte
	Close() error
}

// TransportConfig holds WebSocket connection tuning.
type TransportConfig struct {
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
}

// DefaultTransportConfig returns the default WebSocket configuration.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 1024,
	}
}

// WSTransport is the gorilla/websocket implementation of Transport. It is
// owned by the session that dialed it, not shared process-wide.
type WSTransport struct {
	conn    *websocket.Conn
	config  TransportConfig
	send    chan []byte
	inbound chan []byte
	done    chan struct{}
	once    sync.Once
}

// DialTransport opens the duel channel against the matchmaking server.
func DialTransport(ctx context.Context, url string, config TransportConfig) (*WSTransport, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial duel channel: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	t := &WSTransport{
		conn:    conn,
		config:  config,
		send:    make(chan []byte, 16),
		inbound: make(chan []byte, 16),
		done:    make(chan struct{}),
	}

	go t.writePump()
	go t.readPump()

	log.Info().Str("url", url).Msg("duel channel established")
	return t, nil
}

// Send marshals and queues an outbound frame. Reports
// ErrTransportUnavailable instead of blocking once the channel is gone.
func (t *WSTransport) Send(msg protocol.ClientMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal outbound frame: %w", err)
	}

	select {
	case <-t.done:
		return ErrTransportUnavailable
	case t.send <- data:
		return nil
	}
}

// Inbound returns the channel of inbound frames. Closed on disconnect.
func (t *WSTransport) Inbound() <-chan []byte {
	return t.inbound
}

// Close releases the channel. Idempotent.
func (t *WSTransport) Close() error {
	t.once.Do(func() {
		close(t.done)
		t.conn.Close()
	})
	return nil
}

// writePump handles sending messages to the WebSocket connection.
func (t *WSTransport) writePump() {
	ticker := time.NewTicker(t.config.PingInterval)
	defer func() {
		ticker.Stop()
		t.Close()
	}()

	for {
		select {
		case <-t.done:
			t.conn.SetWriteDeadline(time.Now().Add(t.config.WriteTimeout))
			t.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-t.send:
			t.conn.SetWriteDeadline(time.Now().Add(t.config.WriteTimeout))
			if err := t.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Msg("failed to write frame to duel channel")
				return
			}

		case <-ticker.C:
			t.conn.SetWriteDeadline(time.Now().Add(t.config.WriteTimeout))
			if err := t.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Msg("failed to send ping on duel channel")
				return
			}
		}
	}
}

// readPump handles reading messages from the WebSocket connection and
// delivers them in arrival order.
func (t *WSTransport) readPump() {
	defer func() {
		t.Close()
		close(t.inbound)
	}()

	t.conn.SetReadLimit(t.config.MaxMessageSize)
	t.conn.SetReadDeadline(time.Now().Add(t.config.ReadTimeout))
	t.conn.SetPongHandler(func(string) error {
		t.conn.SetReadDeadline(time.Now().Add(t.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Msg("unexpected duel channel close")
			}
			return
		}

		select {
		case t.inbound <- message:
		case <-t.done:
			return
		}
	}
}
