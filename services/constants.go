package services

import "time"

// Game configuration defaults. Rooms copy these into a RoomConfig so tests
// can shrink the timers.
const (
	MaxPlayers       = 5
	MinPlayers       = 1
	RoundTimeLimit   = 60 * time.Second
	NextRoundDelay   = 10 * time.Second
	CountdownSeconds = 3

	EliminationScore     = -10
	TimeoutPenalty       = 2
	DuplicatePenalty     = 1
	PerfectTargetPenalty = 2
	LossPenalty          = 1

	// Second consecutive timeout eliminates the player outright.
	TimeoutEliminationThreshold = 2
)

// Rule activation thresholds on the room's elimination counter.
const (
	DuplicateRuleThreshold     = 1
	PerfectTargetRuleThreshold = 2
	ZeroHundredRuleThreshold   = 3
)

// Bot response timing. Assigned bots taking over for a departed human are
// capped much tighter so the round is not stalled waiting on them.
const (
	BotResponseDelayMin = 3 * time.Second
	BotResponseDelayMax = 15 * time.Second
	AssignedBotDelayCap = 1 * time.Second
	BotChoiceStagger    = 2 * time.Second
	ReadyStartSmoothing = 100 * time.Millisecond
	RoomSweepInterval   = 5 * time.Minute
)

// BotNames is the pool of cosmetic bot identities. The card rank encodes
// the bot's personality (see bot_ai.go).
var BotNames = []string{
	"King of Hearts", "Queen of Diamonds", "King of Spades", "Queen of Clubs",
	"King of Diamonds", "Queen of Hearts", "King of Clubs", "Queen of Spades",
	"Jack of Hearts", "Jack of Diamonds", "Jack of Spades", "Jack of Clubs",
	"Ace of Hearts", "Ace of Diamonds", "Ace of Spades", "Ace of Clubs",
}

// RoundNumbers are the "obvious" picks bots steer away from once the
// duplicate rule is active.
var RoundNumbers = []int{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

// RoomConfig carries the per-room tunables.
type RoomConfig struct {
	MaxPlayers       int
	MinPlayers       int
	RoundTimeLimit   time.Duration
	NextRoundDelay   time.Duration
	CountdownSeconds int
}

func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		MaxPlayers:       MaxPlayers,
		MinPlayers:       MinPlayers,
		RoundTimeLimit:   RoundTimeLimit,
		NextRoundDelay:   NextRoundDelay,
		CountdownSeconds: CountdownSeconds,
	}
}
