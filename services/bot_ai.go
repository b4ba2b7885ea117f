package services

import (
	"math/rand"
	"strings"
	"time"

	"kingofdiamonds/models"
)

// BotPersonality tunes how a bot weighs risk against calculation. The
// personality is fixed by the card rank in the bot's name.
type BotPersonality struct {
	Type             string
	RiskTolerance    float64
	CalculationFocus float64
}

var personalities = map[string]BotPersonality{
	"King":    {Type: "aggressive", RiskTolerance: 0.8, CalculationFocus: 0.6},
	"Queen":   {Type: "balanced", RiskTolerance: 0.5, CalculationFocus: 0.8},
	"Jack":    {Type: "unpredictable", RiskTolerance: 0.7, CalculationFocus: 0.4},
	"Ace":     {Type: "mathematical", RiskTolerance: 0.3, CalculationFocus: 0.9},
	"default": {Type: "balanced", RiskTolerance: 0.5, CalculationFocus: 0.6},
}

// GameContext is the read-only view of the game a bot decides from.
type GameContext struct {
	ActiveRules     []string
	ActivePlayers   []*models.Player
	RoundHistory    []models.RoundResult
	EliminatedCount int
	CurrentRound    int
}

type historyAnalysis struct {
	averageTarget int
	commonNumbers []int
	recentTargets []float64
}

// BotAI picks choices for bot players. Decisions are pure apart from the
// internal randomness; the rng is injectable so tests can pin it.
type BotAI struct {
	rng *rand.Rand
}

func NewBotAI() *BotAI {
	return &BotAI{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func NewBotAIWithSeed(seed int64) *BotAI {
	return &BotAI{rng: rand.New(rand.NewSource(seed))}
}

// CalculateChoice returns the bot's guess for the current round, always an
// integer in [0,100]. Strategy branches on how many players remain.
func (b *BotAI) CalculateChoice(bot *models.Player, ctx GameContext) int {
	personality := b.personalityFor(bot.Name)
	remaining := len(ctx.ActivePlayers)

	switch {
	case ctx.CurrentRound <= 2 || remaining >= 4:
		return b.earlyGameStrategy(personality, ctx)
	case remaining == 3:
		return b.midGameStrategy(personality, ctx)
	case remaining == 2:
		return b.endGameStrategy(bot, personality, ctx)
	default:
		return b.conservativeChoice()
	}
}

// ResponseDelay draws the latency a bot waits before submitting, used by
// the room to stagger bot submissions realistically.
func (b *BotAI) ResponseDelay() time.Duration {
	window := BotResponseDelayMax - BotResponseDelayMin
	return BotResponseDelayMin + time.Duration(b.rng.Int63n(int64(window)))
}

func (b *BotAI) personalityFor(name string) BotPersonality {
	for rank, p := range personalities {
		if rank != "default" && strings.Contains(name, rank) {
			return p
		}
	}
	return personalities["default"]
}

func (b *BotAI) earlyGameStrategy(personality BotPersonality, ctx GameContext) int {
	history := b.analyzeHistory(ctx.RoundHistory)
	duplicateRuleActive := DuplicateRuleActive(ctx.EliminatedCount)

	if ctx.CurrentRound == 1 {
		// First round: no history to learn from, play the personality.
		var base int
		switch personality.Type {
		case "aggressive":
			base = 45
		case "mathematical":
			base = 40
		case "unpredictable":
			base = b.rng.Intn(60) + 20
		default:
			base = 42
		}
		variation := b.rng.Intn(10) - 5
		return clampChoice(base+variation, 20, 70)
	}

	predicted := history.averageTarget

	if duplicateRuleActive {
		avoid := append(history.commonNumbers, RoundNumbers...)
		choice := predicted + b.rng.Intn(20) - 10
		for containsInt(avoid, choice) && b.rng.Float64() < 0.7 {
			choice = predicted + b.rng.Intn(20) - 10
		}
		return clampChoice(choice, 0, 100)
	}

	adjustment := int(personality.RiskTolerance * float64(b.rng.Intn(16)-8))
	return clampChoice(predicted+adjustment, 0, 100)
}

func (b *BotAI) midGameStrategy(personality BotPersonality, ctx GameContext) int {
	history := b.analyzeHistory(ctx.RoundHistory)
	predicted := b.predictTarget(ctx, history)

	// Chase the exact target only when the rule rewards it and the bot
	// leans calculated.
	if PerfectTargetRuleActive(ctx.EliminatedCount) && personality.CalculationFocus > 0.7 && b.rng.Float64() < 0.3 {
		return clampChoice(predicted, 0, 100)
	}

	if DuplicateRuleActive(ctx.EliminatedCount) {
		avoid := append(history.commonNumbers, RoundNumbers...)
		choice := predicted + b.rng.Intn(12) - 6
		for attempts := 0; containsInt(avoid, choice) && attempts < 10; attempts++ {
			choice = predicted + b.rng.Intn(20) - 10
		}
		return clampChoice(choice, 0, 100)
	}

	adjustment := int(personality.RiskTolerance * float64(b.rng.Intn(12)-6))
	return clampChoice(predicted+adjustment, 0, 100)
}

func (b *BotAI) endGameStrategy(bot *models.Player, personality BotPersonality, ctx GameContext) int {
	if ctx.EliminatedCount >= ZeroHundredRuleThreshold {
		switch personality.Type {
		case "aggressive":
			if b.rng.Float64() < 0.4 {
				return 0
			}
		case "mathematical":
			// Counter an expected zero gambit with 100.
			if b.rng.Float64() < 0.3 {
				return 100
			}
		case "unpredictable":
			if b.rng.Float64() < 0.5 {
				if b.rng.Float64() < 0.5 {
					return 0
				}
				return 100
			}
		}
	}

	history := b.analyzeHistory(ctx.RoundHistory)
	predicted := b.predictTargetTwoPlayers(history)

	if PerfectTargetRuleActive(ctx.EliminatedCount) && personality.CalculationFocus > 0.8 && b.rng.Float64() < 0.4 {
		return clampChoice(predicted, 0, 100)
	}

	choice := predicted + b.rng.Intn(8) - 4
	if DuplicateRuleActive(ctx.EliminatedCount) && containsInt(RoundNumbers, choice) && b.rng.Float64() < 0.8 {
		if b.rng.Float64() < 0.5 {
			choice += 3
		} else {
			choice -= 3
		}
	}
	return clampChoice(choice, 0, 100)
}

// analyzeHistory looks at the last three rounds for the recency-weighted
// target baseline and for numbers that collided before.
func (b *BotAI) analyzeHistory(history []models.RoundResult) historyAnalysis {
	analysis := historyAnalysis{averageTarget: 40}
	if len(history) == 0 {
		return analysis
	}

	recent := history
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}

	var targetSum float64
	for _, round := range recent {
		if round.Target > 0 {
			analysis.recentTargets = append(analysis.recentTargets, round.Target)
			targetSum += round.Target
		}
	}
	if len(analysis.recentTargets) > 0 {
		analysis.averageTarget = int(targetSum / float64(len(analysis.recentTargets)))
	}

	counts := map[int]int{}
	for _, round := range recent {
		for _, choice := range round.Choices {
			if choice.Choice != nil && !choice.TimedOut {
				counts[*choice.Choice]++
			}
		}
	}
	for num, count := range counts {
		if count > 1 {
			analysis.commonNumbers = append(analysis.commonNumbers, num)
		}
	}
	return analysis
}

func (b *BotAI) predictTarget(ctx GameContext, history historyAnalysis) int {
	if len(history.recentTargets) > 0 {
		var sum float64
		for _, t := range history.recentTargets {
			sum += t
		}
		avg := sum / float64(len(history.recentTargets))
		return int(avg) + b.rng.Intn(10) - 5
	}

	switch {
	case len(ctx.ActivePlayers) <= 2:
		return 35
	case len(ctx.ActivePlayers) == 3:
		return 38
	default:
		return 40
	}
}

func (b *BotAI) predictTargetTwoPlayers(history historyAnalysis) int {
	if len(history.recentTargets) > 0 {
		trend := history.recentTargets[len(history.recentTargets)-1]
		return int(trend) + b.rng.Intn(12) - 6
	}
	return 35 + b.rng.Intn(10) - 5
}

func (b *BotAI) conservativeChoice() int {
	return b.rng.Intn(21) + 35
}

func clampChoice(choice, min, max int) int {
	if choice < min {
		return min
	}
	if choice > max {
		return max
	}
	return choice
}
