package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/DeepakCSGO23/PvP-Quiz-App/clients/opentdb"
	"github.com/DeepakCSGO23/PvP-Quiz-App/internal/duel"
)

// promptState tracks the options of the question currently on screen so the
// stdin reader can translate a typed number into an answer.
type promptState struct {
	mu      sync.Mutex
	options []string
}

func (p *promptState) set(options []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.options = options
}

func (p *promptState) pick(n int) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n < 1 || n > len(p.options) {
		return "", false
	}
	return p.options[n-1], true
}

func runDuel(ctx context.Context, cfg *cliConfig) error {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if cfg.verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}

	transport, err := duel.DialTransport(ctx, cfg.serverURL, duel.DefaultTransportConfig())
	if err != nil {
		return fmt.Errorf("connect to duel server: %w", err)
	}

	prompt := &promptState{}
	var session *duel.Session
	session = duel.NewSession(duel.Config{
		PlayerName:    cfg.playerName,
		TotalTrophies: cfg.trophies,
	}, transport, provider, duel.Hooks{
		OnStateChange: func(from, to duel.State) {
			switch to {
			case duel.StateQueued:
				fmt.Println("Searching for an opponent...")
			case duel.StateMatched:
				fmt.Printf("Match found! You are up against %s.\n", session.Opponent())
			case duel.StateCompleted:
				fmt.Printf("All questions answered. Your score: %d. Waiting for %s...\n",
					session.FinalScore(), session.Opponent())
			}
		},
		OnEntryTick: func(remaining int) {
			fmt.Printf("Starting in %d...\n", remaining)
		},
		OnQuestion: func(q duel.RenderedQuestion) {
			prompt.set(q.Options)
			fmt.Printf("\nQuestion %d/%d: %s\n", q.Index+1, q.Total, q.Prompt)
			for i, opt := range q.Options {
				fmt.Printf("  %d) %s\n", i+1, opt)
			}
			fmt.Print("> ")
		},
		OnQuestionTick: func(remaining int) {
			fmt.Printf("[%ds] ", remaining)
		},
		OnFastAnswer: func() {
			fmt.Println("Lightning reflexes!")
		},
		OnOutcome: func(o duel.Outcome) {
			fmt.Printf("\nFinal score: you %d, %s %d.\n", o.LocalScore, session.Opponent(), o.OpponentScore)
			switch o.Verdict {
			case duel.VerdictWon:
				fmt.Println("You won!")
			case duel.VerdictLost:
				fmt.Println("You lost.")
			case duel.VerdictTie:
				fmt.Println("It's a tie.")
			}
		},
		OnError: func(err error) {
			log.Error().Err(err).Msg("session error")
		},
	})

	runErr := make(chan error, 1)
	go func() { runErr <- session.Run(ctx) }()

	if err := session.RequestMatch(); err != nil {
		return err
	}

	go readAnswers(session, prompt)

	return <-runErr
}

// readAnswers feeds typed option numbers into the session until stdin closes.
func readAnswers(session *duel.Session, prompt *promptState) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			fmt.Println("Type the number of your answer.")
			continue
		}
		option, ok := prompt.pick(n)
		if !ok {
			fmt.Println("No such option.")
			continue
		}
		if err := session.SubmitAnswer(option); err != nil {
			return
		}
	}
}

func buildProvider(cfg *cliConfig) (duel.QuestionProvider, error) {
	if cfg.offline {
		return duel.NewStaticProvider(duel.DefaultQuestionSet())
	}

	opts := []opentdb.Option{}
	if cfg.category != "" {
		opts = append(opts, opentdb.WithCategory(cfg.category))
	}
	if cfg.difficulty != "" {
		opts = append(opts, opentdb.WithDifficulty(cfg.difficulty))
	}
	return opentdb.NewClient(opts...), nil
}
