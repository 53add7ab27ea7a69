// Package duel implements the client-side half of the matchmaking +
// live-quiz protocol: the duel session state machine, the per-question
// countdown, the socket transport and the result resolver.
package duel

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/DeepakCSGO23/PvP-Quiz-App/internal/models"
	"github.com/DeepakCSGO23/PvP-Quiz-App/internal/protocol"
)

// Config holds the session design values. Zero fields fall back to the
// defaults the game ships with.
type Config struct {
	PlayerName    string
	TotalTrophies uint16

	// EntryTicks is the fixed countdown between match-found and entering
	// the room.
	EntryTicks int
	// QuestionTicks is the per-question deadline.
	QuestionTicks int
	// FastAnswerTicks is the fast-answer threshold: a correct answer with
	// remaining time strictly below it raises the lightning-reflexes signal.
	FastAnswerTicks int
	// PointsPerCorrect is the fixed reward per correct answer.
	PointsPerCorrect int
	// TickInterval is the wall-clock length of one time-unit.
	TickInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.EntryTicks == 0 {
		c.EntryTicks = 3
	}
	if c.QuestionTicks == 0 {
		c.QuestionTicks = 5
	}
	if c.FastAnswerTicks == 0 {
		c.FastAnswerTicks = 2
	}
	if c.PointsPerCorrect == 0 {
		c.PointsPerCorrect = 20
	}
	if c.TickInterval == 0 {
		c.TickInterval = time.Second
	}
	return c
}

// Hooks are optional observer callbacks, invoked from the session's event
// loop. They must not block.
type Hooks struct {
	OnStateChange  func(from, to State)
	OnEntryTick    func(remaining int)
	OnQuestion     func(q RenderedQuestion)
	OnQuestionTick func(remaining int)
	OnFastAnswer   func()
	OnOutcome      func(o Outcome)
	OnError        func(err error)
}

type sessionEvent interface{}

type (
	evRequestMatch struct{}
	evCancelQueue  struct{}
	evSubmitAnswer struct{ option string }
	evTick         struct {
		gen       uint64
		remaining int
	}
	evZero struct{ gen uint64 }
)

// Session owns one player's progression through a duel. All timer fires,
// inbound frames and local commands are serialized through a single event
// loop, so state transitions happen on one logical thread of control.
type Session struct {
	cfg       Config
	transport Transport
	provider  QuestionProvider
	clock     Clock
	hooks     Hooks
	countdown *Countdown

	events chan sessionEvent
	done   chan struct{}

	// Loop-owned state. The mutex only guards the snapshot accessors.
	mu        sync.Mutex
	state     State
	roomID    string
	opponent  string
	questions []models.Question
	current   int
	points    []int
	remaining int
	answered  bool
	lightning bool
	oppPoints *int
	outcome   *Outcome

	// timerGen invalidates countdown callbacks from a superseded start, so
	// a question can never be advanced twice by a submit/expiry race.
	timerGen uint64
}

// NewSession builds a session over an already-dialed transport.
func NewSession(cfg Config, transport Transport, provider QuestionProvider, hooks Hooks) *Session {
	return newSessionWithClock(cfg, transport, provider, hooks, clockwork.NewRealClock())
}

func newSessionWithClock(cfg Config, transport Transport, provider QuestionProvider, hooks Hooks, clock Clock) *Session {
	cfg = cfg.withDefaults()
	return &Session{
		cfg:       cfg,
		transport: transport,
		provider:  provider,
		clock:     clock,
		hooks:     hooks,
		countdown: NewCountdown(clock, cfg.TickInterval),
		events:    make(chan sessionEvent, 64),
		done:      make(chan struct{}),
		state:     StateIdle,
		points:    []int{0},
	}
}

// Run drives the event loop until the duel resolves, the transport drops or
// the context is cancelled. It returns ErrSessionAbandoned when the channel
// dies mid-session.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	defer s.countdown.Cancel()

	for {
		select {
		case <-ctx.Done():
			s.abandon()
			return ctx.Err()

		case data, ok := <-s.transport.Inbound():
			if !ok {
				if st := s.State(); st == StateResulted || st == StateIdle {
					return nil
				}
				s.abandon()
				s.reportError(ErrSessionAbandoned)
				return ErrSessionAbandoned
			}
			s.handleInbound(data)

		case ev := <-s.events:
			if done := s.handleEvent(ctx, ev); done {
				return nil
			}
		}
	}
}

// RequestMatch enters the matchmaking queue. Valid from Idle.
func (s *Session) RequestMatch() error { return s.post(evRequestMatch{}) }

// CancelQueue withdraws the matchmaking request. Valid from Queued.
func (s *Session) CancelQueue() error { return s.post(evCancelQueue{}) }

// SubmitAnswer answers the current question. Valid from InRoom.
func (s *Session) SubmitAnswer(option string) error {
	return s.post(evSubmitAnswer{option: option})
}

// State returns a snapshot of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Scores returns the cumulative point sequence so far.
func (s *Session) Scores() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.points))
	copy(out, s.points)
	return out
}

// FinalScore returns the last element of the score sequence, the
// authoritative total.
func (s *Session) FinalScore() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.points[len(s.points)-1]
}

// Outcome returns the duel outcome once the session is Resulted.
func (s *Session) Outcome() (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome == nil {
		return Outcome{}, false
	}
	return *s.outcome, true
}

// Opponent returns the opponent's display name once matched.
func (s *Session) Opponent() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opponent
}

func (s *Session) post(ev sessionEvent) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case <-s.done:
		return ErrSessionClosed
	case s.events <- ev:
		return nil
	}
}

func (s *Session) handleEvent(ctx context.Context, ev sessionEvent) (done bool) {
	switch e := ev.(type) {
	case evRequestMatch:
		s.handleRequestMatch()
	case evCancelQueue:
		s.handleCancelQueue()
	case evSubmitAnswer:
		s.handleSubmitAnswer(e.option)
	case evTick:
		s.handleTick(e)
	case evZero:
		done = s.handleZero(ctx, e)
	}
	return done
}

func (s *Session) handleRequestMatch() {
	if s.State() != StateIdle {
		log.Warn().Stringer("state", s.State()).Msg("requestMatch ignored outside Idle")
		return
	}

	err := s.transport.Send(protocol.ClientMessage{
		Action:        protocol.ActionConnect,
		PlayerName:    s.cfg.PlayerName,
		TotalTrophies: s.cfg.TotalTrophies,
	})
	if err != nil {
		s.reportError(err)
		return
	}

	s.setState(StateQueued)
	log.Info().Str("player", s.cfg.PlayerName).Msg("entered matchmaking queue")
}

func (s *Session) handleCancelQueue() {
	if s.State() != StateQueued {
		return
	}

	err := s.transport.Send(protocol.ClientMessage{
		Action:     protocol.ActionDisconnect,
		PlayerName: s.cfg.PlayerName,
	})
	if err != nil {
		s.reportError(err)
	}

	s.setState(StateIdle)
	log.Info().Str("player", s.cfg.PlayerName).Msg("left matchmaking queue")
}

func (s *Session) handleInbound(data []byte) {
	parsed, err := protocol.ParseServerMessage(data)
	if err != nil {
		// Dropped, logged, session continues.
		log.Warn().Err(err).Msg("dropping malformed inbound frame")
		return
	}

	switch m := parsed.(type) {
	case protocol.MatchFound:
		s.handleMatchFound(m)
	case protocol.OpponentScore:
		s.handleOpponentScore(m)
	}
}

func (s *Session) handleMatchFound(m protocol.MatchFound) {
	if s.State() != StateQueued {
		log.Warn().Stringer("state", s.State()).Str("room_id", m.RoomID).Msg("match-found ignored outside Queued")
		return
	}

	s.mu.Lock()
	s.roomID = m.RoomID
	s.opponent = m.Opponent
	s.mu.Unlock()
	s.setState(StateMatched)

	log.Info().
		Str("room_id", m.RoomID).
		Str("opponent", m.Opponent).
		Msg("match found, entry countdown running")

	s.startCountdown(s.cfg.EntryTicks)
}

func (s *Session) handleOpponentScore(m protocol.OpponentScore) {
	s.mu.Lock()
	pts := m.TotalPoints
	s.oppPoints = &pts
	state := s.state
	s.mu.Unlock()

	log.Debug().Int("opponent_points", pts).Stringer("state", state).Msg("opponent score received")

	// Advisory mid-room; authoritative once the local player completed.
	if state == StateCompleted {
		s.finalize()
	}
}

// startCountdown arms the countdown under a fresh generation. Callbacks
// post back into the event loop so stale timers can never advance state.
func (s *Session) startCountdown(ticks int) {
	s.timerGen++
	gen := s.timerGen

	s.mu.Lock()
	s.remaining = ticks
	s.mu.Unlock()

	s.countdown.Start(ticks,
		func(remaining int) {
			s.post(evTick{gen: gen, remaining: remaining})
		},
		func() {
			s.post(evZero{gen: gen})
		},
	)
}

func (s *Session) handleTick(e evTick) {
	if e.gen != s.timerGen {
		return
	}

	s.mu.Lock()
	s.remaining = e.remaining
	state := s.state
	s.mu.Unlock()

	switch state {
	case StateMatched:
		if s.hooks.OnEntryTick != nil {
			s.hooks.OnEntryTick(e.remaining)
		}
	case StateInRoom:
		if s.hooks.OnQuestionTick != nil {
			s.hooks.OnQuestionTick(e.remaining)
		}
	}
}

func (s *Session) handleZero(ctx context.Context, e evZero) (done bool) {
	if e.gen != s.timerGen {
		return false
	}

	switch s.State() {
	case StateMatched:
		s.enterRoom(ctx)
	case StateInRoom:
		// Deadline passed with no answer: implicit incorrect, same
		// advance-or-complete path. Forward progress is guaranteed even if
		// the player never answers.
		s.appendScore(0)
		return s.advanceOrComplete()
	}
	return false
}

func (s *Session) enterRoom(ctx context.Context) {
	questions, err := s.provider.Questions(ctx)
	if err != nil || len(questions) == 0 {
		log.Error().Err(err).Msg("question set unavailable, abandoning session")
		s.abandon()
		s.reportError(ErrSessionAbandoned)
		return
	}

	s.mu.Lock()
	s.questions = questions
	s.current = 0
	s.mu.Unlock()
	s.setState(StateInRoom)

	log.Info().
		Str("room_id", s.roomID).
		Int("questions", len(questions)).
		Msg("entered room")

	s.presentCurrent()
}

func (s *Session) presentCurrent() {
	s.mu.Lock()
	q := s.questions[s.current]
	idx := s.current
	total := len(s.questions)
	s.answered = false
	s.mu.Unlock()

	if s.hooks.OnQuestion != nil {
		s.hooks.OnQuestion(RenderedQuestion{
			Index:   idx,
			Total:   total,
			Prompt:  q.Prompt,
			Options: ShuffledOptions(q),
		})
	}

	s.startCountdown(s.cfg.QuestionTicks)
}

func (s *Session) handleSubmitAnswer(option string) {
	if s.State() != StateInRoom {
		log.Warn().Stringer("state", s.State()).Msg("submitAnswer ignored outside InRoom")
		return
	}

	s.mu.Lock()
	if s.answered {
		s.mu.Unlock()
		return
	}
	s.answered = true
	q := s.questions[s.current]
	idx := s.current
	remaining := s.remaining
	s.mu.Unlock()

	correct := option == q.CorrectAnswer
	delta := 0
	if correct {
		delta = s.cfg.PointsPerCorrect
		// Advisory telemetry, not part of the verdict.
		if remaining < s.cfg.FastAnswerTicks {
			s.mu.Lock()
			s.lightning = true
			s.mu.Unlock()
			if s.hooks.OnFastAnswer != nil {
				s.hooks.OnFastAnswer()
			}
		}
	}
	s.appendScore(delta)

	log.Debug().
		Int("question", idx).
		Bool("correct", correct).
		Int("total", s.FinalScore()).
		Msg("answer submitted")

	s.advanceOrComplete()
}

func (s *Session) appendScore(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points, s.points[len(s.points)-1]+delta)
}

// advanceOrComplete moves to the next question, or broadcasts the final
// score exactly once and enters Completed when the last question is done.
func (s *Session) advanceOrComplete() (done bool) {
	s.mu.Lock()
	last := s.current == len(s.questions)-1
	if !last {
		s.current++
	}
	s.mu.Unlock()

	if !last {
		s.presentCurrent()
		return false
	}

	s.countdown.Cancel()
	s.timerGen++

	err := s.transport.Send(protocol.ClientMessage{
		Action:       protocol.ActionPlayerCompleted,
		RoomID:       s.roomID,
		PlayerName:   s.cfg.PlayerName,
		PlayerPoints: s.FinalScore(),
	})
	if err != nil {
		s.abandon()
		s.reportError(err)
		return true
	}

	s.setState(StateCompleted)
	log.Info().Int("final_score", s.FinalScore()).Msg("quiz completed, awaiting opponent")

	s.mu.Lock()
	haveOpp := s.oppPoints != nil
	s.mu.Unlock()
	if haveOpp {
		s.finalize()
	}
	return false
}

// finalize runs the resolver, acknowledges completion and releases the
// channel for this room.
func (s *Session) finalize() {
	s.mu.Lock()
	local := s.points[len(s.points)-1]
	opp := *s.oppPoints
	perfect := local == s.cfg.PointsPerCorrect*len(s.questions)
	lightning := s.lightning
	s.mu.Unlock()

	err := s.transport.Send(protocol.ClientMessage{
		Action:              protocol.ActionMatchCompleted,
		RoomID:              s.roomID,
		PlayerName:          s.cfg.PlayerName,
		PlayerPoints:        local,
		OpponentName:        s.opponent,
		OpponentTotalPoints: opp,
		IsPerfectScore:      perfect,
		IsLightningReflexes: lightning,
	})
	if err != nil {
		s.abandon()
		s.reportError(err)
		return
	}

	// An outcome exists only once the acknowledgement is on the wire; a
	// failed send abandons the session without one.
	outcome := Outcome{
		LocalScore:    local,
		OpponentScore: opp,
		Verdict:       Resolve(local, opp),
	}
	s.mu.Lock()
	s.outcome = &outcome
	s.mu.Unlock()

	s.setState(StateResulted)
	log.Info().
		Str("verdict", string(outcome.Verdict)).
		Int("local", local).
		Int("opponent", opp).
		Msg("duel resolved")

	if s.hooks.OnOutcome != nil {
		s.hooks.OnOutcome(outcome)
	}

	s.transport.Close()
}

// abandon cancels pending timers and returns the session to Idle without
// producing an outcome.
func (s *Session) abandon() {
	s.countdown.Cancel()
	s.timerGen++

	s.mu.Lock()
	s.roomID = ""
	s.opponent = ""
	s.questions = nil
	s.current = 0
	s.oppPoints = nil
	s.mu.Unlock()

	if s.State() != StateIdle {
		s.setState(StateIdle)
	}
}

func (s *Session) setState(to State) {
	s.mu.Lock()
	from := s.state
	s.state = to
	s.mu.Unlock()

	if from != to && s.hooks.OnStateChange != nil {
		s.hooks.OnStateChange(from, to)
	}
}

func (s *Session) reportError(err error) {
	log.Error().Err(err).Msg("duel session error")
	if s.hooks.OnError != nil {
		s.hooks.OnError(err)
	}
}
