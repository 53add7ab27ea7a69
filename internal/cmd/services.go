package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/DeepakCSGO23/PvP-Quiz-App/internal/history"
	"github.com/DeepakCSGO23/PvP-Quiz-App/internal/matchmaker"
	"github.com/DeepakCSGO23/PvP-Quiz-App/internal/profile"
)

type Services struct {
	Profile   *profile.Service
	History   *history.Service
	Hub       *matchmaker.Hub
	Publisher *matchmaker.JetStreamPublisher
	Consumer  *history.Consumer
}

func setupServices(config *Config, database *sql.DB, pool *pgxpool.Pool) (*Services, error) {
	// Wire up dependency injection chain
	// Database layer → Repository layer → App layer → Service layer

	// Profile
	profileRepo := profile.NewRepository(database)
	profileApp := profile.NewApp(profileRepo)
	profileService := profile.NewService(profileApp)

	// History
	historyRepo := history.NewRepository(pool)
	historyService := history.NewService(historyRepo)

	// Duel event stream
	jsConfig := matchmaker.DefaultJetStreamConfig()
	if config.Events.URL != "" {
		jsConfig.URL = config.Events.URL
	}
	if config.Events.StreamName != "" {
		jsConfig.StreamName = config.Events.StreamName
	}

	publisher, err := matchmaker.NewJetStreamPublisher(jsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}

	consumerConfig := history.DefaultConsumerConfig()
	consumerConfig.URL = jsConfig.URL
	consumerConfig.StreamName = jsConfig.StreamName
	consumer, err := history.NewConsumer(historyRepo, profileApp, consumerConfig)
	if err != nil {
		publisher.Close()
		return nil, fmt.Errorf("failed to create event consumer: %w", err)
	}

	// Matchmaker
	hubConfig := matchmaker.DefaultConfig()
	if config.Matchmaker.MaxTrophyGap > 0 {
		hubConfig.MaxTrophyGap = config.Matchmaker.MaxTrophyGap
	}
	hub := matchmaker.NewHub(hubConfig, publisher)

	log.Info().
		Uint16("max_trophy_gap", hubConfig.MaxTrophyGap).
		Str("stream", jsConfig.StreamName).
		Msg("services wired")

	return &Services{
		Profile:   profileService,
		History:   historyService,
		Hub:       hub,
		Publisher: publisher,
		Consumer:  consumer,
	}, nil
}

func (s *Services) startConsumer(ctx context.Context) {
	go func() {
		if err := s.Consumer.Start(ctx); err != nil {
			log.Error().Err(err).Msg("event consumer stopped with error")
		}
	}()
}

func (s *Services) shutdown() {
	if err := s.Consumer.Stop(); err != nil {
		log.Error().Err(err).Msg("failed to stop event consumer")
	}
	s.Publisher.Close()
}
