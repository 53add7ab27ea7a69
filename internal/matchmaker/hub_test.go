package matchmaker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/DeepakCSGO23/PvP-Quiz-App/internal/duel/events"
	"github.com/DeepakCSGO23/PvP-Quiz-App/internal/protocol"
)

type fakePublisher struct {
	mu        sync.Mutex
	created   []events.MatchCreatedPayload
	completed []events.DuelCompletedPayload
}

func (p *fakePublisher) PublishMatchCreated(ctx context.Context, payload events.MatchCreatedPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, payload)
	return nil
}

func (p *fakePublisher) PublishDuelCompleted(ctx context.Context, payload events.DuelCompletedPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed = append(p.completed, payload)
	return nil
}

func (p *fakePublisher) snapshot() ([]events.MatchCreatedPayload, []events.DuelCompletedPayload) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.MatchCreatedPayload(nil), p.created...),
		append([]events.DuelCompletedPayload(nil), p.completed...)
}

type hubFixture struct {
	t      *testing.T
	hub    *Hub
	pub    *fakePublisher
	server *httptest.Server
	wsURL  string
}

func newHubFixture(t *testing.T) *hubFixture {
	t.Helper()

	pub := &fakePublisher{}
	hub := NewHub(DefaultConfig(), pub)
	server := httptest.NewServer(http.HandlerFunc(hub.HandleDuel))
	t.Cleanup(server.Close)

	return &hubFixture{
		t:      t,
		hub:    hub,
		pub:    pub,
		server: server,
		wsURL:  "ws" + strings.TrimPrefix(server.URL, "http"),
	}
}

func (f *hubFixture) dial() *websocket.Conn {
	f.t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(f.wsURL, nil)
	if err != nil {
		f.t.Fatalf("dial %s: %v", f.wsURL, err)
	}
	f.t.Cleanup(func() { conn.Close() })
	return conn
}

func (f *hubFixture) send(conn *websocket.Conn, msg protocol.ClientMessage) {
	f.t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		f.t.Fatalf("marshal client frame: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		f.t.Fatalf("write client frame: %v", err)
	}
}

func (f *hubFixture) read(conn *websocket.Conn) protocol.ServerMessage {
	f.t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		f.t.Fatalf("read server frame: %v", err)
	}
	var msg protocol.ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		f.t.Fatalf("unmarshal server frame %s: %v", data, err)
	}
	return msg
}

// waitRoomCount polls until the hub holds the expected number of rooms.
func (f *hubFixture) waitRoomCount(want int) {
	f.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for f.hub.RoomCount() != want {
		if time.Now().After(deadline) {
			f.t.Fatalf("RoomCount() = %d, want %d", f.hub.RoomCount(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// joinQueue connects a named player and returns its conn.
func (f *hubFixture) joinQueue(name string, trophies uint16) *websocket.Conn {
	conn := f.dial()
	f.send(conn, protocol.ClientMessage{
		Action:        protocol.ActionConnect,
		PlayerName:    name,
		TotalTrophies: trophies,
	})
	return conn
}

func TestHubPairsPlayersWithinTrophyGap(t *testing.T) {
	f := newHubFixture(t)

	a := f.joinQueue("ari", 100)
	b := f.joinQueue("blair", 150)

	frameA := f.read(a)
	frameB := f.read(b)

	if frameA.Message != protocol.MatchFoundMessage || frameB.Message != protocol.MatchFoundMessage {
		t.Fatalf("expected match-found on both sides, got %+v / %+v", frameA, frameB)
	}
	if frameA.RoomID == "" || frameA.RoomID != frameB.RoomID {
		t.Fatalf("room ids diverge: %q vs %q", frameA.RoomID, frameB.RoomID)
	}
	if frameA.Opponent != "blair" || frameB.Opponent != "ari" {
		t.Fatalf("opponents wrong: %q / %q", frameA.Opponent, frameB.Opponent)
	}

	created, _ := f.pub.snapshot()
	if len(created) != 1 || created[0].RoomID != frameA.RoomID {
		t.Fatalf("MatchCreated events = %+v", created)
	}
}

func TestHubKeepsDistantTrophiesApart(t *testing.T) {
	f := newHubFixture(t)

	f.joinQueue("ari", 0)
	b := f.joinQueue("blair", 500)

	// Both players end up parked in their own queue slot.
	f.waitRoomCount(2)

	// A third player inside blair's gap pairs with blair, not ari.
	c := f.joinQueue("casey", 450)
	frameB := f.read(b)
	frameC := f.read(c)
	if frameB.Opponent != "casey" || frameC.Opponent != "blair" {
		t.Fatalf("pairing wrong: blair vs %q, casey vs %q", frameB.Opponent, frameC.Opponent)
	}
}

func TestHubRelaysScoresAndCompletesMatch(t *testing.T) {
	f := newHubFixture(t)

	a := f.joinQueue("ari", 100)
	b := f.joinQueue("blair", 100)
	roomID := f.read(a).RoomID
	f.read(b)

	// ari finishes first with 60 points; blair should see them.
	f.send(a, protocol.ClientMessage{
		Action:       protocol.ActionPlayerCompleted,
		RoomID:       roomID,
		PlayerName:   "ari",
		PlayerPoints: 60,
	})
	scoreAtB := f.read(b)
	if scoreAtB.OpponentTotalPoints == nil || *scoreAtB.OpponentTotalPoints != 60 {
		t.Fatalf("blair saw %+v, want opponentTotalPoints 60", scoreAtB)
	}

	f.send(b, protocol.ClientMessage{
		Action:       protocol.ActionPlayerCompleted,
		RoomID:       roomID,
		PlayerName:   "blair",
		PlayerPoints: 40,
	})
	scoreAtA := f.read(a)
	if scoreAtA.OpponentTotalPoints == nil || *scoreAtA.OpponentTotalPoints != 40 {
		t.Fatalf("ari saw %+v, want opponentTotalPoints 40", scoreAtA)
	}

	f.send(a, protocol.ClientMessage{
		Action:              protocol.ActionMatchCompleted,
		RoomID:              roomID,
		PlayerName:          "ari",
		PlayerPoints:        60,
		OpponentName:        "blair",
		OpponentTotalPoints: 40,
	})
	f.send(b, protocol.ClientMessage{
		Action:              protocol.ActionMatchCompleted,
		RoomID:              roomID,
		PlayerName:          "blair",
		PlayerPoints:        40,
		OpponentName:        "ari",
		OpponentTotalPoints: 60,
	})

	deadline := time.Now().Add(2 * time.Second)
	for {
		_, completed := f.pub.snapshot()
		if len(completed) == 2 && f.hub.RoomCount() == 0 {
			verdicts := map[string]string{}
			for _, p := range completed {
				verdicts[p.PlayerName] = p.Result
			}
			if verdicts["ari"] != "won" || verdicts["blair"] != "lost" {
				t.Fatalf("verdicts = %v", verdicts)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("completion not recorded: %d events, %d rooms", len(completed), f.hub.RoomCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubDisconnectDropsOpponent(t *testing.T) {
	f := newHubFixture(t)

	a := f.joinQueue("ari", 100)
	b := f.joinQueue("blair", 100)
	f.read(a)
	f.read(b)

	// ari vanishes mid-duel; the hub closes blair's channel so its session
	// abandons instead of waiting forever.
	a.Close()

	b.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := b.ReadMessage(); err == nil {
		t.Fatal("expected blair's connection to be closed")
	}

	f.waitRoomCount(0)
}

func TestHubMalformedFrameDoesNotKillConnection(t *testing.T) {
	f := newHubFixture(t)

	conn := f.dial()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"bogus"}`)); err != nil {
		t.Fatalf("write malformed frame: %v", err)
	}

	// The connection survives and a valid connect still queues the player.
	f.send(conn, protocol.ClientMessage{
		Action:        protocol.ActionConnect,
		PlayerName:    "ari",
		TotalTrophies: 10,
	})

	f.waitRoomCount(1)
}
