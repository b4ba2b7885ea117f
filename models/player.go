package models

import "time"

// PlayerStatus classifies a player for turn-taking purposes. The flag
// combinations on Player always collapse into exactly one of these.
type PlayerStatus int

const (
	StatusHuman PlayerStatus = iota
	StatusBot
	StatusDepartedWithProxy
	StatusDepartedNoProxy
)

// Player is one participant (human or bot) in a room.
type Player struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Score              int       `json:"score"`
	IsEliminated       bool      `json:"isEliminated"`
	IsBot              bool      `json:"isBot"`
	HasLeft            bool      `json:"hasLeft"`
	CurrentChoice      *int      `json:"currentChoice"`
	HasChosenThisRound bool      `json:"hasChosenThisRound"`
	TimeoutCount       int       `json:"timeoutCount"`
	OriginalName       string    `json:"originalName,omitempty"`
	AssignedBotName    string    `json:"assignedBotName,omitempty"`
	JoinedAt           time.Time `json:"joinedAt"`
}

func NewPlayer(id, name string, isBot bool) *Player {
	return &Player{
		ID:       id,
		Name:     name,
		IsBot:    isBot,
		JoinedAt: time.Now(),
	}
}

// Status collapses the flag combination into a single variant.
func (p *Player) Status() PlayerStatus {
	switch {
	case !p.HasLeft && !p.IsBot:
		return StatusHuman
	case !p.HasLeft && p.IsBot:
		return StatusBot
	case p.AssignedBotName != "":
		return StatusDepartedWithProxy
	default:
		return StatusDepartedNoProxy
	}
}

// WasHuman reports whether the player joined as a human, even if a bot
// proxy has since taken over the seat.
func (p *Player) WasHuman() bool {
	return !p.IsBot || p.AssignedBotName != ""
}

// Eligible reports whether the player takes part in round resolution.
// Departed humans only count when a bot proxy represents them, and proxies
// only count while bot assignment is enabled for the room.
func (p *Player) Eligible(botAssignmentEnabled bool) bool {
	if p.IsEliminated {
		return false
	}
	if !p.HasLeft {
		return true
	}
	return botAssignmentEnabled && p.AssignedBotName != ""
}

// DisplayName is the name used for end-game attribution: departed humans
// keep their original identity even while a bot plays for them.
func (p *Player) DisplayName() string {
	if p.OriginalName != "" {
		return p.OriginalName
	}
	return p.Name
}

// PlayerInfo is the wire representation of a player sent in broadcasts.
type PlayerInfo struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Score           int    `json:"score"`
	IsEliminated    bool   `json:"isEliminated"`
	IsBot           bool   `json:"isBot"`
	HasLeft         bool   `json:"hasLeft"`
	CurrentChoice   *int   `json:"currentChoice,omitempty"`
	OriginalName    string `json:"originalName,omitempty"`
	AssignedBotName string `json:"assignedBotName,omitempty"`
}

// Info builds the broadcast view of the player. Choices are only included
// in round-result payloads, never while a round is still open.
func (p *Player) Info(includeChoice bool) PlayerInfo {
	info := PlayerInfo{
		ID:              p.ID,
		Name:            p.Name,
		Score:           p.Score,
		IsEliminated:    p.IsEliminated,
		IsBot:           p.IsBot,
		HasLeft:         p.HasLeft,
		OriginalName:    p.OriginalName,
		AssignedBotName: p.AssignedBotName,
	}
	if includeChoice {
		info.CurrentChoice = p.CurrentChoice
	}
	return info
}
