package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/DeepakCSGO23/PvP-Quiz-App/internal/duel/events"
	"github.com/DeepakCSGO23/PvP-Quiz-App/internal/models"
)

// TrophyAwarder credits trophies to a profile after a duel.
type TrophyAwarder interface {
	AwardTrophies(ctx context.Context, profileName string, delta int) error
}

// ConsumerConfig holds configuration for the duel event consumer.
type ConsumerConfig struct {
	URL           string
	StreamName    string
	ConsumerName  string
	SubjectFilter string
	MaxDeliver    int
	AckWait       time.Duration
	MaxAckPending int
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConsumerConfig returns the default duel event consumer configuration.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		URL:           nats.DefaultURL,
		StreamName:    "DUEL_EVENTS",
		ConsumerName:  "history-recorder",
		SubjectFilter: "duel.events.>",
		MaxDeliver:    5,
		AckWait:       30 * time.Second,
		MaxAckPending: 100,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// Consumer reads duel events off JetStream and turns DuelCompleted events
// into match history rows, trophy awards and achievement updates.
type Consumer struct {
	repo     *Repository
	awarder  TrophyAwarder
	nc       *nats.Conn
	js       jetstream.JetStream
	consumer jetstream.Consumer
	config   ConsumerConfig
}

// NewConsumer connects to NATS and creates (or attaches to) the durable
// history consumer.
func NewConsumer(repo *Repository, awarder TrophyAwarder, config ConsumerConfig) (*Consumer, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	c := &Consumer{
		repo:    repo,
		awarder: awarder,
		nc:      nc,
		js:      js,
		config:  config,
	}

	if err := c.ensureConsumer(context.Background()); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure consumer: %w", err)
	}

	return c, nil
}

func (c *Consumer) ensureConsumer(ctx context.Context) error {
	stream, err := c.js.Stream(ctx, c.config.StreamName)
	if err != nil {
		return fmt.Errorf("get stream: %w", err)
	}

	consumerConfig := jetstream.ConsumerConfig{
		Name:          c.config.ConsumerName,
		Durable:       c.config.ConsumerName,
		Description:   "Duel history recorder",
		FilterSubject: c.config.SubjectFilter,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    c.config.MaxDeliver,
		AckWait:       c.config.AckWait,
		MaxAckPending: c.config.MaxAckPending,
		ReplayPolicy:  jetstream.ReplayInstantPolicy,
	}

	consumer, err := stream.Consumer(ctx, c.config.ConsumerName)
	if err != nil {
		consumer, err = stream.CreateConsumer(ctx, consumerConfig)
		if err != nil {
			return fmt.Errorf("create consumer: %w", err)
		}
		log.Info().
			Str("consumer", c.config.ConsumerName).
			Str("stream", c.config.StreamName).
			Msg("created JetStream consumer")
	} else {
		log.Info().
			Str("consumer", c.config.ConsumerName).
			Str("stream", c.config.StreamName).
			Msg("using existing JetStream consumer")
	}

	c.consumer = consumer
	return nil
}

// Start begins consuming duel events. It blocks until ctx is canceled.
func (c *Consumer) Start(ctx context.Context) error {
	log.Info().
		Str("consumer", c.config.ConsumerName).
		Str("stream", c.config.StreamName).
		Msg("starting duel event consumer")

	messageCh := make(chan jetstream.Msg, 100)

	consumeCtx, err := c.consumer.Consume(func(msg jetstream.Msg) {
		select {
		case messageCh <- msg:
		case <-ctx.Done():
			msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer consumeCtx.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("duel event consumer shutting down")
			return nil
		case msg := <-messageCh:
			if err := c.processMessage(ctx, msg); err != nil {
				log.Error().
					Err(err).
					Str("subject", msg.Subject()).
					Msg("failed to process duel event")
				if nakErr := msg.Nak(); nakErr != nil {
					log.Error().Err(nakErr).Msg("failed to NAK message")
				}
			} else {
				if ackErr := msg.Ack(); ackErr != nil {
					log.Error().Err(ackErr).Msg("failed to ACK message")
				}
			}
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg jetstream.Msg) error {
	var envelope events.Envelope
	if err := json.Unmarshal(msg.Data(), &envelope); err != nil {
		return fmt.Errorf("unmarshal event envelope: %w", err)
	}

	log.Debug().
		Str("event_id", envelope.EventID).
		Str("room_id", envelope.RoomID).
		Str("event_type", envelope.EventType).
		Msg("processing duel event")

	switch envelope.EventType {
	case events.TypeDuelCompleted:
		var payload events.DuelCompletedPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal duel completed payload: %w", err)
		}
		return c.recordDuel(ctx, payload)
	case events.TypeMatchCreated:
		// Nothing to record until the duel completes.
		return nil
	default:
		return fmt.Errorf("unknown event type: %s", envelope.EventType)
	}
}

// recordDuel stores the match record, awards trophies and re-evaluates the
// player's achievements.
func (c *Consumer) recordDuel(ctx context.Context, payload events.DuelCompletedPayload) error {
	rec := models.MatchRecord{
		ID:             uuid.New(),
		RoomID:         payload.RoomID,
		ProfileName:    payload.PlayerName,
		Opponent:       payload.Opponent,
		PlayerPoints:   payload.PlayerPoints,
		OpponentPoints: payload.OpponentTotalPoints,
		Result:         models.MatchResult(payload.Result),
		PlayedAt:       payload.CompletedAt,
	}
	if err := c.repo.InsertMatchRecord(ctx, rec); err != nil {
		return err
	}

	delta := 0
	switch rec.Result {
	case models.MatchResultWon:
		delta = TrophiesForWin
	case models.MatchResultTie:
		delta = TrophiesForTie
	}
	if delta > 0 {
		if err := c.awarder.AwardTrophies(ctx, rec.ProfileName, delta); err != nil {
			return fmt.Errorf("award trophies: %w", err)
		}
	}

	if err := c.updateAchievements(ctx, payload); err != nil {
		return fmt.Errorf("update achievements: %w", err)
	}

	log.Info().
		Str("room_id", rec.RoomID).
		Str("profile", rec.ProfileName).
		Str("result", string(rec.Result)).
		Int("trophies_awarded", delta).
		Msg("duel recorded")
	return nil
}

func (c *Consumer) updateAchievements(ctx context.Context, payload events.DuelCompletedPayload) error {
	flags, err := c.repo.GetAchievements(ctx, payload.PlayerName)
	if err != nil {
		return err
	}

	streak := 0
	if payload.Result == string(models.MatchResultWon) && !flags.QuizChampion {
		streak, err = c.repo.WinStreak(ctx, payload.PlayerName)
		if err != nil {
			return err
		}
	}

	next := nextFlags(flags, payload, streak)
	if next == flags {
		return nil
	}
	return c.repo.UpsertAchievements(ctx, payload.PlayerName, next)
}

// nextFlags folds one completed duel into the achievement flags. Flags only
// ever turn on.
func nextFlags(flags models.AchievementFlags, payload events.DuelCompletedPayload, winStreak int) models.AchievementFlags {
	won := payload.Result == string(models.MatchResultWon)

	if won {
		flags.FirstVictory = true
	}
	if payload.IsPerfectScore {
		flags.PerfectRound = true
	}
	if payload.IsLightningReflexes {
		flags.LightningReflexes = true
	}
	// Won with the narrowest possible margin: one question's worth of points.
	if won && payload.PlayerPoints-payload.OpponentTotalPoints <= 20 {
		flags.ClutchPerformer = true
	}
	if won && winStreak >= quizChampionStreak {
		flags.QuizChampion = true
	}
	return flags
}

// Stop closes the NATS connection.
func (c *Consumer) Stop() error {
	log.Info().Msg("stopping duel event consumer")
	if c.nc != nil {
		c.nc.Close()
	}
	return nil
}
