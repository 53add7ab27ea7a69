package duel

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/DeepakCSGO23/PvP-Quiz-App/internal/models"
)

// QuestionProvider supplies the ordered question set for one session.
type QuestionProvider interface {
	Questions(ctx context.Context) ([]models.Question, error)
}

// StaticProvider serves a fixed question set. Used as the offline fallback
// when no remote trivia source is configured.
type StaticProvider struct {
	set []models.Question
}

// NewStaticProvider returns a provider over the given set.
func NewStaticProvider(set []models.Question) (*StaticProvider, error) {
	if len(set) == 0 {
		return nil, fmt.Errorf("static provider requires at least one question")
	}
	return &StaticProvider{set: set}, nil
}

// Questions returns a copy of the configured set.
func (p *StaticProvider) Questions(ctx context.Context) ([]models.Question, error) {
	out := make([]models.Question, len(p.set))
	copy(out, p.set)
	return out, nil
}

// RenderedQuestion is one question as presented to the player: the prompt
// plus the shuffled option set.
type RenderedQuestion struct {
	Index   int
	Total   int
	Prompt  string
	Options []string
}

// ShuffledOptions returns the union of the correct and incorrect answers
// with duplicates removed, in an order randomized per presentation. Each
// player shuffles independently; option order carries no information
// between players.
func ShuffledOptions(q models.Question) []string {
	seen := map[string]bool{q.CorrectAnswer: true}
	options := []string{q.CorrectAnswer}
	for _, a := range q.IncorrectAnswers {
		if seen[a] {
			continue
		}
		seen[a] = true
		options = append(options, a)
	}

	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}

// DefaultQuestionSet is the built-in sports set the game ships with.
func DefaultQuestionSet() []models.Question {
	return []models.Question{
		{
			Category:         "Sports",
			Difficulty:       "easy",
			Prompt:           "In baseball, how many fouls are an out?",
			CorrectAnswer:    "0",
			IncorrectAnswers: []string{"5", "3", "2"},
		},
		{
			Category:         "Sports",
			Difficulty:       "medium",
			Prompt:           "Which NBA player won Most Valuable Player for the 1999-2000 season?",
			CorrectAnswer:    "Shaquille O'Neal",
			IncorrectAnswers: []string{"Allen Iverson", "Kobe Bryant", "Paul Pierce"},
		},
		{
			Category:         "Sports",
			Difficulty:       "easy",
			Prompt:           "What team won the 2016 MLS Cup?",
			CorrectAnswer:    "Seattle Sounders",
			IncorrectAnswers: []string{"Colorado Rapids", "Toronto FC", "Montreal Impact"},
		},
		{
			Category:         "Sports",
			Difficulty:       "medium",
			Prompt:           "What is the exact length of one non-curved part in Lane 1 of an Olympic Track?",
			CorrectAnswer:    "84.39m",
			IncorrectAnswers: []string{"100m", "100yd", "109.36yd"},
		},
		{
			Category:         "Sports",
			Difficulty:       "medium",
			Prompt:           "Which of the following player scored a hat-trick during their Manchester United debut?",
			CorrectAnswer:    "Wayne Rooney",
			IncorrectAnswers: []string{"Cristiano Ronaldo", "Robin Van Persie", "David Beckham"},
		},
	}
}
