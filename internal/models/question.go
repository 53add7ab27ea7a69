package models

// Question is a single multiple-choice trivia question. Immutable once
// issued: the correct answer never appears in IncorrectAnswers.
type Question struct {
	Category         string   `json:"category"`
	Difficulty       string   `json:"difficulty"`
	Prompt           string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}
