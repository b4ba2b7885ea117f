package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kingofdiamonds/models"
)

func botContext(round, activeCount, eliminated int, history []models.RoundResult) GameContext {
	players := make([]*models.Player, activeCount)
	for i := range players {
		players[i] = models.NewPlayer("bot", BotNames[i], true)
	}
	return GameContext{
		ActiveRules:     ActiveRules(eliminated, activeCount),
		ActivePlayers:   players,
		RoundHistory:    history,
		EliminatedCount: eliminated,
		CurrentRound:    round,
	}
}

func TestCalculateChoiceStaysInRange(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		ai := NewBotAIWithSeed(seed)
		for _, name := range []string{"King of Diamonds", "Queen of Hearts", "Jack of Spades", "Ace of Clubs", "Two of Hearts"} {
			bot := models.NewPlayer("b", name, true)
			for _, ctx := range []GameContext{
				botContext(1, 5, 0, nil),
				botContext(3, 3, 2, nil),
				botContext(6, 2, 3, nil),
				botContext(8, 2, 3, []models.RoundResult{{Round: 7, Target: 28.4}}),
			} {
				choice := ai.CalculateChoice(bot, ctx)
				require.GreaterOrEqual(t, choice, 0, "seed %d, %s", seed, name)
				require.LessOrEqual(t, choice, 100, "seed %d, %s", seed, name)
			}
		}
	}
}

func TestFirstRoundChoiceIsMidRange(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		ai := NewBotAIWithSeed(seed)
		bot := models.NewPlayer("b", "Queen of Diamonds", true)
		choice := ai.CalculateChoice(bot, botContext(1, 5, 0, nil))
		assert.GreaterOrEqual(t, choice, 20)
		assert.LessOrEqual(t, choice, 70)
	}
}

func TestResponseDelayWithinWindow(t *testing.T) {
	ai := NewBotAIWithSeed(7)
	for i := 0; i < 100; i++ {
		delay := ai.ResponseDelay()
		assert.GreaterOrEqual(t, delay, BotResponseDelayMin)
		assert.Less(t, delay, BotResponseDelayMax)
	}
}

func TestPersonalityByCardRank(t *testing.T) {
	ai := NewBotAIWithSeed(1)

	assert.Equal(t, "aggressive", ai.personalityFor("King of Diamonds").Type)
	assert.Equal(t, "balanced", ai.personalityFor("Queen of Spades").Type)
	assert.Equal(t, "unpredictable", ai.personalityFor("Jack of Hearts").Type)
	assert.Equal(t, "mathematical", ai.personalityFor("Ace of Clubs").Type)
	assert.Equal(t, "balanced", ai.personalityFor("Seven of Hearts").Type)
}

func TestAnalyzeHistoryUsesRecentRounds(t *testing.T) {
	ai := NewBotAIWithSeed(1)

	choice := 40
	history := []models.RoundResult{
		{Round: 1, Target: 90}, // older than the three-round window
		{Round: 2, Target: 30},
		{Round: 3, Target: 32, Choices: []models.PlayerChoice{
			{Name: "a", Choice: &choice},
			{Name: "b", Choice: &choice},
		}},
		{Round: 4, Target: 34},
	}

	analysis := ai.analyzeHistory(history)
	assert.Equal(t, 32, analysis.averageTarget)
	assert.Contains(t, analysis.commonNumbers, 40)
}

func TestAnalyzeHistoryDefaultsWithoutData(t *testing.T) {
	ai := NewBotAIWithSeed(1)
	analysis := ai.analyzeHistory(nil)
	assert.Equal(t, 40, analysis.averageTarget)
	assert.Empty(t, analysis.commonNumbers)
}
