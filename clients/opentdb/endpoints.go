package opentdb

const (
	// Base URL
	BaseURL = "https://opentdb.com"

	// API Endpoints
	QuestionsEndpoint = "/api.php"

	// Category IDs
	CategoryGeneral   = "9"
	CategoryFilm      = "11"
	CategoryScience   = "17"
	CategorySports    = "21"
	CategoryGeography = "22"
	CategoryHistory   = "23"

	// Question types
	TypeMultipleChoice = "multiple"

	// Difficulties
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Response codes returned in the API payload.
const (
	responseCodeSuccess      = 0
	responseCodeNoResults    = 1
	responseCodeInvalidParam = 2
)
