package rule

import (
	"testing"

	"github.com/expensehub/approval-engine/internal/domain/entity"
)

func fptr(f float64) *float64 { return &f }

func makeRule(id int64, min float64, max *float64, active bool) *entity.ApprovalRule {
	return &entity.ApprovalRule{
		ID:                 id,
		Name:               "test",
		MinAmount:          min,
		MaxAmount:          max,
		Sequence:           []entity.Role{entity.RoleManager},
		PercentageRequired: 100,
		IsActive:           active,
	}
}

func TestSelect_SingleMatch(t *testing.T) {
	rules := []*entity.ApprovalRule{
		makeRule(1, 0, fptr(5000), true),
		makeRule(2, 5000, fptr(25000), true),
		makeRule(3, 25000, nil, true),
	}

	tests := []struct {
		name   string
		amount float64
		wantID int64
	}{
		{"low bracket", 120, 1},
		{"lower bound inclusive", 5000, 2},
		{"upper bound exclusive", 4999.99, 1},
		{"unbounded bracket", 1_000_000, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Select(rules, tt.amount)
			if m.Fallback {
				t.Fatal("Select() fell back to default, want configured rule")
			}
			if m.Rule.ID != tt.wantID {
				t.Errorf("Select() rule id = %d, want %d", m.Rule.ID, tt.wantID)
			}
			if m.Ambiguous() {
				t.Errorf("Select() ambiguous = true, want false")
			}
		})
	}
}

func TestSelect_NoMatchReturnsDefault(t *testing.T) {
	rules := []*entity.ApprovalRule{
		makeRule(1, 100, fptr(5000), true),
	}

	m := Select(rules, 50)
	if !m.Fallback {
		t.Fatal("Select() Fallback = false, want true")
	}
	if got := m.Rule.Sequence; len(got) != 1 || got[0] != entity.RoleManager {
		t.Errorf("default rule sequence = %v, want [manager]", got)
	}
	if m.Rule.PercentageRequired != 100 {
		t.Errorf("default rule quorum = %d, want 100", m.Rule.PercentageRequired)
	}
	if !m.Rule.AdminOverride {
		t.Error("default rule admin_override = false, want true")
	}
	if m.Rule.UrgentBypass {
		t.Error("default rule urgent_bypass = true, want false")
	}
}

func TestSelect_InactiveRulesExcluded(t *testing.T) {
	rules := []*entity.ApprovalRule{
		makeRule(1, 0, fptr(5000), false),
	}

	m := Select(rules, 100)
	if !m.Fallback {
		t.Error("Select() matched an inactive rule")
	}
}

func TestSelect_OverlapNarrowestWins(t *testing.T) {
	rules := []*entity.ApprovalRule{
		makeRule(1, 0, fptr(10000), true),
		makeRule(2, 400, fptr(600), true),
		makeRule(3, 0, nil, true),
	}

	m := Select(rules, 500)
	if m.Rule.ID != 2 {
		t.Errorf("Select() rule id = %d, want narrowest bracket 2", m.Rule.ID)
	}
	if !m.Ambiguous() {
		t.Error("Select() ambiguous = false, want true")
	}
	if len(m.ConflictingIDs) != 3 {
		t.Errorf("ConflictingIDs = %v, want all three rules", m.ConflictingIDs)
	}
}

func TestSelect_OverlapTieBrokenByLowestID(t *testing.T) {
	rules := []*entity.ApprovalRule{
		makeRule(7, 0, fptr(1000), true),
		makeRule(3, 0, fptr(1000), true),
	}

	m := Select(rules, 500)
	if m.Rule.ID != 3 {
		t.Errorf("Select() rule id = %d, want lowest id 3", m.Rule.ID)
	}
}

func TestSelect_Deterministic(t *testing.T) {
	rules := []*entity.ApprovalRule{
		makeRule(5, 0, fptr(800), true),
		makeRule(2, 0, fptr(800), true),
		makeRule(9, 100, fptr(700), true),
	}

	first := Select(rules, 300)
	for i := 0; i < 10; i++ {
		if got := Select(rules, 300); got.Rule.ID != first.Rule.ID {
			t.Fatalf("Select() not deterministic: got %d then %d", first.Rule.ID, got.Rule.ID)
		}
	}
	if first.Rule.ID != 9 {
		t.Errorf("Select() rule id = %d, want 9 (width 600 beats width 800)", first.Rule.ID)
	}
}

func TestFindOverlaps(t *testing.T) {
	rules := []*entity.ApprovalRule{
		makeRule(1, 0, fptr(5000), true),
		makeRule(2, 5000, fptr(25000), true), // half-open: no overlap with 1
		makeRule(3, 4000, fptr(6000), true),  // overlaps both
		makeRule(4, 0, fptr(100), false),     // inactive: ignored
	}

	pairs := FindOverlaps(rules)
	if len(pairs) != 2 {
		t.Fatalf("FindOverlaps() = %v, want 2 pairs", pairs)
	}
	want := map[[2]int64]bool{{1, 3}: true, {2, 3}: true}
	for _, p := range pairs {
		if !want[p] {
			t.Errorf("unexpected overlap pair %v", p)
		}
	}
}
