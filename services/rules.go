package services

// Rule descriptions shown to clients. The wording is part of the wire
// contract with the frontend.
const (
	ruleTimeout       = "No input within time limit → Lose 2 points (2nd timeout = elimination)"
	ruleDuplicate     = "Duplicate numbers → All choosing them lose 1 point"
	rulePerfectTarget = "Exact correct number → Other players lose 2 points"
	ruleZeroHundred   = "If one player chooses 0, another can win by choosing 100"
)

// ActiveRules recomputes the visible rule list from the elimination counter
// and the live player count. It is a pure function of its inputs, never
// cached, so rule activation stays monotonic by construction: the counter
// only grows, and each threshold keeps every lower one active.
func ActiveRules(eliminatedCount, livePlayers int) []string {
	rules := []string{ruleTimeout}
	if eliminatedCount >= DuplicateRuleThreshold {
		rules = append(rules, ruleDuplicate)
	}
	if eliminatedCount >= PerfectTargetRuleThreshold {
		rules = append(rules, rulePerfectTarget)
	}
	// The zero-hundred gambit is gated purely on the live player count,
	// not on eliminations.
	if livePlayers == 2 {
		rules = append(rules, ruleZeroHundred)
	}
	return rules
}

// DuplicateRuleActive reports whether the duplicate-number penalty applies.
func DuplicateRuleActive(eliminatedCount int) bool {
	return eliminatedCount >= DuplicateRuleThreshold
}

// PerfectTargetRuleActive reports whether the exact-target penalty applies.
func PerfectTargetRuleActive(eliminatedCount int) bool {
	return eliminatedCount >= PerfectTargetRuleThreshold
}

func containsInt(nums []int, n int) bool {
	for _, v := range nums {
		if v == n {
			return true
		}
	}
	return false
}
