package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlayerStatus(t *testing.T) {
	human := NewPlayer("p1", "Alice", false)
	assert.Equal(t, StatusHuman, human.Status())

	bot := NewPlayer("b1", "King of Diamonds", true)
	assert.Equal(t, StatusBot, bot.Status())

	proxied := NewPlayer("p2", "Carol", false)
	proxied.HasLeft = true
	proxied.IsBot = true
	proxied.AssignedBotName = "Queen of Hearts"
	proxied.OriginalName = "Carol"
	assert.Equal(t, StatusDepartedWithProxy, proxied.Status())

	gone := NewPlayer("p3", "Dave", false)
	gone.HasLeft = true
	assert.Equal(t, StatusDepartedNoProxy, gone.Status())
}

func TestWasHuman(t *testing.T) {
	human := NewPlayer("p1", "Alice", false)
	assert.True(t, human.WasHuman())

	bot := NewPlayer("b1", "King of Diamonds", true)
	assert.False(t, bot.WasHuman())

	proxied := NewPlayer("p2", "Carol", false)
	proxied.HasLeft = true
	proxied.IsBot = true
	proxied.AssignedBotName = "Queen of Hearts"
	assert.True(t, proxied.WasHuman(), "a proxied seat still counts as a human seat")
}

func TestEligible(t *testing.T) {
	p := NewPlayer("p1", "Alice", false)
	assert.True(t, p.Eligible(true))

	p.IsEliminated = true
	assert.False(t, p.Eligible(true))

	proxied := NewPlayer("p2", "Carol", false)
	proxied.HasLeft = true
	proxied.AssignedBotName = "Queen of Hearts"
	assert.True(t, proxied.Eligible(true))
	assert.False(t, proxied.Eligible(false), "proxies stop playing when assignment is disabled")

	gone := NewPlayer("p3", "Dave", false)
	gone.HasLeft = true
	assert.False(t, gone.Eligible(true))
}

func TestDisplayName(t *testing.T) {
	p := NewPlayer("p1", "Alice", false)
	assert.Equal(t, "Alice", p.DisplayName())

	p.OriginalName = "Carol"
	assert.Equal(t, "Carol", p.DisplayName())
}

func TestInfoOmitsChoiceDuringRound(t *testing.T) {
	p := NewPlayer("p1", "Alice", false)
	choice := 42
	p.CurrentChoice = &choice

	assert.Nil(t, p.Info(false).CurrentChoice)
	assert.Equal(t, &choice, p.Info(true).CurrentChoice)
}
