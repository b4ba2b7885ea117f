package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActiveRules(t *testing.T) {
	tests := []struct {
		name            string
		eliminatedCount int
		livePlayers     int
		wantCount       int
	}{
		{"fresh game", 0, 5, 1},
		{"first elimination adds duplicate rule", 1, 4, 2},
		{"second elimination adds perfect-target rule", 2, 3, 3},
		{"two players left adds the gambit", 2, 2, 4},
		{"gambit without eliminations", 0, 2, 2},
		{"counter keeps lower rules active", 3, 2, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := ActiveRules(tt.eliminatedCount, tt.livePlayers)
			assert.Len(t, rules, tt.wantCount)
			assert.Equal(t, ruleTimeout, rules[0], "timeout rule is always first")
		})
	}
}

func TestRuleActivationIsMonotonic(t *testing.T) {
	prev := 0
	for eliminated := 0; eliminated <= 4; eliminated++ {
		rules := ActiveRules(eliminated, 5)
		assert.GreaterOrEqual(t, len(rules), prev, "eliminatedCount=%d", eliminated)
		prev = len(rules)
	}
}

func TestRulePredicates(t *testing.T) {
	assert.False(t, DuplicateRuleActive(0))
	assert.True(t, DuplicateRuleActive(1))
	assert.False(t, PerfectTargetRuleActive(1))
	assert.True(t, PerfectTargetRuleActive(2))
}
