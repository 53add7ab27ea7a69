package opentdb

import (
	"github.com/DeepakCSGO23/PvP-Quiz-App/clients"
)

// Client fetches trivia questions from the Open Trivia Database.
type Client struct {
	*clients.BaseClient

	amount     int
	category   string
	difficulty string
}

// Option customizes a Client.
type Option func(*Client)

// WithCategory restricts questions to one Open Trivia DB category.
func WithCategory(category string) Option {
	return func(c *Client) {
		c.category = category
	}
}

// WithDifficulty restricts questions to one difficulty.
func WithDifficulty(difficulty string) Option {
	return func(c *Client) {
		c.difficulty = difficulty
	}
}

// WithAmount sets how many questions each fetch requests.
func WithAmount(amount int) Option {
	return func(c *Client) {
		c.amount = amount
	}
}

// NewClient creates a new Open Trivia DB client. By default it requests
// five multiple-choice sports questions, matching the built-in question set.
func NewClient(opts ...Option) *Client {
	client := &Client{
		BaseClient: clients.NewBaseClient(BaseURL),
		amount:     5,
		category:   CategorySports,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}
