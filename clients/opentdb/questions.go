package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/url"

	"github.com/DeepakCSGO23/PvP-Quiz-App/internal/models"
)

type apiQuestion struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

type questionsResponse struct {
	ResponseCode int           `json:"response_code"`
	Results      []apiQuestion `json:"results"`
}

// Questions fetches a fresh question set. It implements the question
// provider contract used by duel sessions.
func (c *Client) Questions(ctx context.Context) ([]models.Question, error) {
	params := url.Values{}
	params.Set("amount", fmt.Sprintf("%d", c.amount))
	params.Set("type", TypeMultipleChoice)
	if c.category != "" {
		params.Set("category", c.category)
	}
	if c.difficulty != "" {
		params.Set("difficulty", c.difficulty)
	}

	body, err := c.Get(ctx, QuestionsEndpoint+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}

	var response questionsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}

	switch response.ResponseCode {
	case responseCodeSuccess:
	case responseCodeNoResults:
		return nil, fmt.Errorf("API has no results for amount=%d category=%q difficulty=%q", c.amount, c.category, c.difficulty)
	case responseCodeInvalidParam:
		return nil, fmt.Errorf("API rejected query parameters: amount=%d category=%q difficulty=%q", c.amount, c.category, c.difficulty)
	default:
		return nil, fmt.Errorf("API returned response code %d", response.ResponseCode)
	}

	questions := make([]models.Question, 0, len(response.Results))
	for _, q := range response.Results {
		incorrect := make([]string, len(q.IncorrectAnswers))
		for i, a := range q.IncorrectAnswers {
			incorrect[i] = html.UnescapeString(a)
		}
		questions = append(questions, models.Question{
			Category:         html.UnescapeString(q.Category),
			Difficulty:       q.Difficulty,
			Prompt:           html.UnescapeString(q.Question),
			CorrectAnswer:    html.UnescapeString(q.CorrectAnswer),
			IncorrectAnswers: incorrect,
		})
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("API returned no questions")
	}
	return questions, nil
}
