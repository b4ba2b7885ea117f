package models

// PointLoss itemizes one penalty applied to a player during a round.
type PointLoss struct {
	Reason string `json:"reason"`
	Points int    `json:"points"`
}

// PlayerChoice records what one player did in a completed round.
type PlayerChoice struct {
	Name        string      `json:"name"`
	Choice      *int        `json:"choice"`
	TimedOut    bool        `json:"timedOut"`
	PointLosses []PointLoss `json:"pointLosses"`
}

// RoundResult is the immutable record of one completed round. Results are
// appended to the room history and never mutated afterwards.
type RoundResult struct {
	Round               int            `json:"round"`
	Choices             []PlayerChoice `json:"choices"`
	Average             float64        `json:"average"`
	Target              float64        `json:"target"`
	Winner              string         `json:"winner"`
	TimeoutPlayers      []string       `json:"timeoutPlayers"`
	EliminatedByTimeout []string       `json:"eliminatedByTimeout"`
	EliminatedThisRound []string       `json:"eliminatedThisRound"`
}
