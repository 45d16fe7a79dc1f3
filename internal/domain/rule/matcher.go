// Package rule implements approval-rule selection: given a company's active
// rules and an expense amount in base currency, pick the single governing
// rule or fall back to the built-in default.
package rule

import (
	"sort"

	"github.com/expensehub/approval-engine/internal/domain/entity"
)

// Match is the outcome of rule selection.
type Match struct {
	// Rule is the selected rule; the built-in default when Fallback is true.
	Rule *entity.ApprovalRule

	// Fallback is true when no configured rule's bracket contained the amount.
	Fallback bool

	// ConflictingIDs lists every rule whose bracket contained the amount when
	// more than one did. Overlapping brackets are a configuration anomaly:
	// selection stays deterministic (narrowest bracket, then lowest id) and
	// the caller is expected to log a warning.
	ConflictingIDs []int64
}

// Ambiguous reports whether more than one bracket contained the amount.
func (m Match) Ambiguous() bool {
	return len(m.ConflictingIDs) > 1
}

// Select picks the rule governing the amount from the company's active rules.
// Inactive rules are skipped. Selection is deterministic for any input.
func Select(rules []*entity.ApprovalRule, amountInBase float64) Match {
	var candidates []*entity.ApprovalRule
	for _, r := range rules {
		if !r.IsActive {
			continue
		}
		if r.Contains(amountInBase) {
			candidates = append(candidates, r)
		}
	}

	if len(candidates) == 0 {
		return Match{Rule: entity.DefaultRule(), Fallback: true}
	}

	if len(candidates) == 1 {
		return Match{Rule: candidates[0]}
	}

	// Narrowest bracket wins; ties broken by lowest id.
	sort.SliceStable(candidates, func(i, j int) bool {
		wi, wj := candidates[i].BracketWidth(), candidates[j].BracketWidth()
		if wi != wj {
			return wi < wj
		}
		return candidates[i].ID < candidates[j].ID
	})

	ids := make([]int64, len(candidates))
	for i, r := range candidates {
		ids[i] = r.ID
	}

	return Match{Rule: candidates[0], ConflictingIDs: ids}
}

// FindOverlaps returns every pair of active rules whose brackets intersect.
// Used by rule management to warn admins at configuration time.
func FindOverlaps(rules []*entity.ApprovalRule) [][2]int64 {
	var pairs [][2]int64
	for i := 0; i < len(rules); i++ {
		if !rules[i].IsActive {
			continue
		}
		for j := i + 1; j < len(rules); j++ {
			if !rules[j].IsActive {
				continue
			}
			if rules[i].Overlaps(rules[j]) {
				pairs = append(pairs, [2]int64{rules[i].ID, rules[j].ID})
			}
		}
	}
	return pairs
}
