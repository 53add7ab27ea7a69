package duel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/DeepakCSGO23/PvP-Quiz-App/internal/models"
	"github.com/DeepakCSGO23/PvP-Quiz-App/internal/protocol"
)

// fakeTransport records outbound frames and lets tests inject inbound ones.
// Setting failOn makes sends of that one action fail while the rest succeed.
type fakeTransport struct {
	mu     sync.Mutex
	closed bool
	failOn string

	sent    chan protocol.ClientMessage
	inbound chan []byte
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		sent:    make(chan protocol.ClientMessage, 32),
		inbound: make(chan []byte, 8),
	}
}

func (t *fakeTransport) Send(msg protocol.ClientMessage) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || (t.failOn != "" && msg.Action == t.failOn) {
		return ErrTransportUnavailable
	}
	t.sent <- msg
	return nil
}

func (t *fakeTransport) failNext(action string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failOn = action
}

func (t *fakeTransport) Inbound() <-chan []byte { return t.inbound }

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.inbound)
	}
	return nil
}

func (t *fakeTransport) injectMatchFound(tb testing.TB, roomID, opponent string) {
	tb.Helper()
	frame, err := protocol.NewMatchFoundFrame(roomID, opponent)
	if err != nil {
		tb.Fatalf("build match-found frame: %v", err)
	}
	t.inbound <- frame
}

func (t *fakeTransport) injectOpponentScore(tb testing.TB, points int) {
	tb.Helper()
	frame, err := protocol.NewOpponentScoreFrame(points)
	if err != nil {
		tb.Fatalf("build opponent score frame: %v", err)
	}
	t.inbound <- frame
}

// sessionFixture wires a session to a fake clock, fake transport and
// channel-backed hooks.
type sessionFixture struct {
	t         *testing.T
	clock     *clockwork.FakeClock
	transport *fakeTransport
	session   *Session
	cancel    context.CancelFunc

	runErr    chan error
	questions chan RenderedQuestion
	qTicks    chan int
	fast      chan struct{}
	outcomes  chan Outcome
	errs      chan error
}

func newSessionFixture(t *testing.T, set []models.Question) *sessionFixture {
	t.Helper()

	provider, err := NewStaticProvider(set)
	if err != nil {
		t.Fatalf("NewStaticProvider: %v", err)
	}

	f := &sessionFixture{
		t:         t,
		clock:     clockwork.NewFakeClock(),
		transport: newFakeTransport(),
		runErr:    make(chan error, 1),
		questions: make(chan RenderedQuestion, 16),
		qTicks:    make(chan int, 64),
		fast:      make(chan struct{}, 4),
		outcomes:  make(chan Outcome, 1),
		errs:      make(chan error, 4),
	}

	f.session = newSessionWithClock(
		Config{PlayerName: "ari", TotalTrophies: 120},
		f.transport,
		provider,
		Hooks{
			OnQuestion:     func(q RenderedQuestion) { f.questions <- q },
			OnQuestionTick: func(remaining int) { f.qTicks <- remaining },
			OnFastAnswer:   func() { f.fast <- struct{}{} },
			OnOutcome:      func(o Outcome) { f.outcomes <- o },
			OnError:        func(err error) { f.errs <- err },
		},
		f.clock,
	)

	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	t.Cleanup(cancel)
	go func() { f.runErr <- f.session.Run(ctx) }()

	return f
}

// advanceTick steps the fake clock one time-unit, waiting for the countdown
// timer to be armed first.
func (f *sessionFixture) advanceTick() {
	f.clock.BlockUntil(1)
	f.clock.Advance(time.Second)
}

func (f *sessionFixture) expectSent(action string) protocol.ClientMessage {
	f.t.Helper()
	select {
	case msg := <-f.transport.sent:
		if msg.Action != action {
			f.t.Fatalf("sent action = %q, want %q (frame %+v)", msg.Action, action, msg)
		}
		return msg
	case <-time.After(2 * time.Second):
		f.t.Fatalf("timed out waiting for %s frame", action)
		return protocol.ClientMessage{}
	}
}

func (f *sessionFixture) nextQuestion() RenderedQuestion {
	f.t.Helper()
	select {
	case q := <-f.questions:
		return q
	case <-time.After(2 * time.Second):
		f.t.Fatal("timed out waiting for question")
		return RenderedQuestion{}
	}
}

// enterRoom drives the session from Idle through matchmaking and the entry
// countdown, returning the first presented question.
func (f *sessionFixture) enterRoom(roomID, opponent string) RenderedQuestion {
	f.t.Helper()

	if err := f.session.RequestMatch(); err != nil {
		f.t.Fatalf("RequestMatch: %v", err)
	}
	connect := f.expectSent(protocol.ActionConnect)
	if connect.PlayerName != "ari" || connect.TotalTrophies != 120 {
		f.t.Fatalf("connect frame carries wrong identity: %+v", connect)
	}

	f.transport.injectMatchFound(f.t, roomID, opponent)
	for i := 0; i < 3; i++ {
		f.advanceTick()
	}
	return f.nextQuestion()
}

func TestSessionFullDuelWin(t *testing.T) {
	f := newSessionFixture(t, DefaultQuestionSet())
	set := DefaultQuestionSet()

	q := f.enterRoom("room-1", "blair")
	if got := f.session.Opponent(); got != "blair" {
		t.Fatalf("Opponent() = %q, want blair", got)
	}

	// Correct on questions 1, 3 and 5; wrong on 2 and 4.
	for i := 0; i < 5; i++ {
		if q.Index != i || q.Total != 5 {
			t.Fatalf("question %d presented as index %d of %d", i, q.Index, q.Total)
		}
		answer := "not-an-option"
		if i%2 == 0 {
			answer = set[i].CorrectAnswer
		}
		if err := f.session.SubmitAnswer(answer); err != nil {
			t.Fatalf("SubmitAnswer: %v", err)
		}
		if i < 4 {
			q = f.nextQuestion()
		}
	}

	completed := f.expectSent(protocol.ActionPlayerCompleted)
	if completed.RoomID != "room-1" || completed.PlayerPoints != 60 {
		t.Fatalf("player_completed frame = %+v, want room-1 with 60 points", completed)
	}
	waitForState(t, f.session, StateCompleted)

	wantScores := []int{0, 20, 20, 40, 40, 60}
	scores := f.session.Scores()
	if len(scores) != len(wantScores) {
		t.Fatalf("scores = %v, want %v", scores, wantScores)
	}
	for i := range wantScores {
		if scores[i] != wantScores[i] {
			t.Fatalf("scores = %v, want %v", scores, wantScores)
		}
	}

	f.transport.injectOpponentScore(t, 40)

	final := f.expectSent(protocol.ActionMatchCompleted)
	if final.PlayerPoints != 60 || final.OpponentTotalPoints != 40 || final.OpponentName != "blair" {
		t.Fatalf("match_completed frame = %+v", final)
	}
	if final.IsPerfectScore {
		t.Error("60 of 100 reported as perfect score")
	}

	select {
	case o := <-f.outcomes:
		if o.Verdict != VerdictWon || o.LocalScore != 60 || o.OpponentScore != 40 {
			t.Fatalf("outcome = %+v, want won 60-40", o)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outcome")
	}

	if err := <-f.runErr; err != nil {
		t.Fatalf("Run returned %v, want nil", err)
	}
	if got := f.session.State(); got != StateResulted {
		t.Fatalf("final state = %v, want RESULTED", got)
	}
}

func TestSessionDeadlineExpiryAdvancesWithoutPoints(t *testing.T) {
	f := newSessionFixture(t, DefaultQuestionSet())

	q := f.enterRoom("room-2", "blair")
	if q.Index != 0 {
		t.Fatalf("first question index = %d", q.Index)
	}

	// Let the full per-question countdown elapse with no answer.
	for i := 0; i < 5; i++ {
		f.advanceTick()
	}

	q = f.nextQuestion()
	if q.Index != 1 {
		t.Fatalf("after expiry, question index = %d, want 1", q.Index)
	}
	scores := f.session.Scores()
	if scores[len(scores)-1] != 0 {
		t.Fatalf("score after unanswered question = %d, want 0", scores[len(scores)-1])
	}
}

func TestSessionLightningReflexesAndPerfectScore(t *testing.T) {
	f := newSessionFixture(t, DefaultQuestionSet()[:1])
	set := DefaultQuestionSet()

	f.enterRoom("room-3", "blair")

	// Burn the countdown down to 1 remaining, then answer correctly: below
	// the fast-answer threshold.
	for i := 0; i < 4; i++ {
		f.advanceTick()
		select {
		case <-f.qTicks:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for question tick")
		}
	}
	if err := f.session.SubmitAnswer(set[0].CorrectAnswer); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	select {
	case <-f.fast:
	case <-time.After(2 * time.Second):
		t.Fatal("fast answer never signalled")
	}

	f.expectSent(protocol.ActionPlayerCompleted)
	f.transport.injectOpponentScore(t, 20)

	final := f.expectSent(protocol.ActionMatchCompleted)
	if !final.IsLightningReflexes {
		t.Error("lightning reflexes flag not set")
	}
	if !final.IsPerfectScore {
		t.Error("perfect score flag not set for 20 of 20")
	}

	if err := <-f.runErr; err != nil {
		t.Fatalf("Run returned %v", err)
	}

	o, ok := f.session.Outcome()
	if !ok || o.Verdict != VerdictTie {
		t.Fatalf("outcome = %+v ok=%v, want tie", o, ok)
	}
}

func TestSessionOpponentScoreBeforeCompletionIsAuthoritativeAtCompletion(t *testing.T) {
	f := newSessionFixture(t, DefaultQuestionSet()[:1])

	f.enterRoom("room-4", "blair")

	// Opponent finishes first, mid-room.
	f.transport.injectOpponentScore(t, 40)

	if err := f.session.SubmitAnswer("not-an-option"); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	f.expectSent(protocol.ActionPlayerCompleted)
	final := f.expectSent(protocol.ActionMatchCompleted)
	if final.PlayerPoints != 0 || final.OpponentTotalPoints != 40 {
		t.Fatalf("match_completed frame = %+v, want 0 vs 40", final)
	}

	if err := <-f.runErr; err != nil {
		t.Fatalf("Run returned %v", err)
	}
	o, _ := f.session.Outcome()
	if o.Verdict != VerdictLost {
		t.Fatalf("verdict = %q, want lost", o.Verdict)
	}
}

func TestSessionTransportDropMidRoomAbandons(t *testing.T) {
	f := newSessionFixture(t, DefaultQuestionSet())

	f.enterRoom("room-5", "blair")
	f.transport.Close()

	if err := <-f.runErr; !errors.Is(err, ErrSessionAbandoned) {
		t.Fatalf("Run returned %v, want ErrSessionAbandoned", err)
	}
	if got := f.session.State(); got != StateIdle {
		t.Fatalf("state after drop = %v, want IDLE", got)
	}
	if _, ok := f.session.Outcome(); ok {
		t.Error("abandoned session produced an outcome")
	}

	select {
	case err := <-f.errs:
		if !errors.Is(err, ErrSessionAbandoned) {
			t.Fatalf("reported error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("abandonment never reported")
	}

	// The loop has exited; nothing may have acknowledged the match or kept
	// the question countdown running.
	for {
		select {
		case msg := <-f.transport.sent:
			if msg.Action == protocol.ActionMatchCompleted {
				t.Fatalf("match_completed sent after transport drop: %+v", msg)
			}
			continue
		case r := <-f.qTicks:
			t.Fatalf("question tick %d observed after transport drop", r)
		default:
		}
		break
	}
}

func TestSessionFailedFinalFrameProducesNoOutcome(t *testing.T) {
	f := newSessionFixture(t, DefaultQuestionSet()[:1])
	set := DefaultQuestionSet()

	f.enterRoom("room-6", "blair")
	f.transport.failNext(protocol.ActionMatchCompleted)

	if err := f.session.SubmitAnswer(set[0].CorrectAnswer); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	f.expectSent(protocol.ActionPlayerCompleted)
	waitForState(t, f.session, StateCompleted)

	f.transport.injectOpponentScore(t, 40)

	select {
	case err := <-f.errs:
		if !errors.Is(err, ErrTransportUnavailable) {
			t.Fatalf("reported error = %v, want ErrTransportUnavailable", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("failed final send never reported")
	}

	waitForState(t, f.session, StateIdle)
	if o, ok := f.session.Outcome(); ok {
		t.Fatalf("abandoned session produced outcome %+v", o)
	}
	select {
	case o := <-f.outcomes:
		t.Fatalf("outcome hook fired for abandoned session: %+v", o)
	default:
	}
}

func TestSessionCancelQueueReturnsToIdle(t *testing.T) {
	f := newSessionFixture(t, DefaultQuestionSet())

	if err := f.session.RequestMatch(); err != nil {
		t.Fatalf("RequestMatch: %v", err)
	}
	f.expectSent(protocol.ActionConnect)

	if err := f.session.CancelQueue(); err != nil {
		t.Fatalf("CancelQueue: %v", err)
	}
	disconnect := f.expectSent(protocol.ActionDisconnect)
	if disconnect.PlayerName != "ari" {
		t.Fatalf("disconnect frame = %+v", disconnect)
	}

	waitForState(t, f.session, StateIdle)
}

// waitForState polls for a state transition that happens on the session's
// loop goroutine.
func waitForState(t *testing.T, s *Session, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.State() != want {
		if time.Now().After(deadline) {
			t.Fatalf("state = %v, want %v", s.State(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSessionStaleTimerCannotAdvanceQuestion(t *testing.T) {
	f := newSessionFixture(t, DefaultQuestionSet())

	q := f.enterRoom("room-6", "blair")
	if q.Index != 0 {
		t.Fatalf("question index = %d", q.Index)
	}

	// A zero event from a superseded countdown generation must be ignored.
	f.session.events <- evZero{gen: 999999}

	select {
	case q := <-f.questions:
		t.Fatalf("stale zero advanced to question %d", q.Index)
	case <-time.After(100 * time.Millisecond):
	}
	scores := f.session.Scores()
	if len(scores) != 1 {
		t.Fatalf("stale zero appended a score: %v", scores)
	}
}

func TestSessionCommandsFailAfterRunExits(t *testing.T) {
	f := newSessionFixture(t, DefaultQuestionSet())

	f.cancel()
	if err := <-f.runErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}

	if err := f.session.RequestMatch(); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("RequestMatch after exit = %v, want ErrSessionClosed", err)
	}
}
