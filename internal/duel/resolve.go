package duel

// Verdict is the outcome of a completed duel from the local player's
// perspective.
type Verdict string

const (
	VerdictWon  Verdict = "won"
	VerdictLost Verdict = "lost"
	VerdictTie  Verdict = "tie"
)

// Outcome pairs the two final scores with their verdict.
type Outcome struct {
	LocalScore    int     `json:"localScore"`
	OpponentScore int     `json:"opponentScore"`
	Verdict       Verdict `json:"verdict"`
}

// Resolve turns the two final scores into a verdict. Pure and idempotent so
// retried delivery of the opponent score always resolves the same way.
func Resolve(localFinalScore, opponentFinalScore int) Verdict {
	switch {
	case localFinalScore > opponentFinalScore:
		return VerdictWon
	case localFinalScore < opponentFinalScore:
		return VerdictLost
	default:
		return VerdictTie
	}
}
