package duel

// State is the session's position in the duel lifecycle. Transitions happen
// only inside the session event loop; there is no other place state changes.
type State int

const (
	// StateIdle means no active session.
	StateIdle State = iota
	// StateQueued means a matchmaking request is in flight.
	StateQueued
	// StateMatched means a match was received and the entry countdown runs.
	StateMatched
	// StateInRoom means questions are being presented under a deadline.
	StateInRoom
	// StateCompleted means the final local score was broadcast and the
	// opponent's score may still be outstanding.
	StateCompleted
	// StateResulted means both scores are known and the outcome is computed.
	// Terminal.
	StateResulted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateQueued:
		return "QUEUED"
	case StateMatched:
		return "MATCHED"
	case StateInRoom:
		return "IN_ROOM"
	case StateCompleted:
		return "COMPLETED"
	case StateResulted:
		return "RESULTED"
	default:
		return "UNKNOWN"
	}
}
