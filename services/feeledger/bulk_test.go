package feeledger

import (
	"reflect"
	"testing"
)

func TestSplitRoster(t *testing.T) {
	tests := []struct {
		name       string
		studentIDs []uint
		hasPlan    map[uint]bool
		expWith    []uint
		expMissing []uint
	}{
		{
			name:       "one existing plan, two missing",
			studentIDs: []uint{10, 11, 12},
			hasPlan:    map[uint]bool{11: true},
			expWith:    []uint{11},
			expMissing: []uint{10, 12},
		},
		{
			name:       "nobody has a plan",
			studentIDs: []uint{10, 11},
			hasPlan:    map[uint]bool{},
			expWith:    nil,
			expMissing: []uint{10, 11},
		},
		{
			name:       "everyone already has a plan",
			studentIDs: []uint{10, 11},
			hasPlan:    map[uint]bool{10: true, 11: true},
			expWith:    []uint{10, 11},
			expMissing: nil,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			split := SplitRoster(tc.studentIDs, tc.hasPlan)
			if !reflect.DeepEqual(split.WithPlan, tc.expWith) {
				t.Fatalf("with plan: expected %v, got %v", tc.expWith, split.WithPlan)
			}
			if !reflect.DeepEqual(split.Missing, tc.expMissing) {
				t.Fatalf("missing: expected %v, got %v", tc.expMissing, split.Missing)
			}
		})
	}
}

// A class of three where one student already has a plan with different items:
// after the delete-then-write sequence every student must end up with exactly
// the template set, nothing more.
func TestExpandTemplateReplacesWholeClass(t *testing.T) {
	template := []PlanItem{{1, 120000}, {2, 30000}}
	planIDs := []uint{101, 102, 103}

	assignments := ExpandTemplate(planIDs, template)
	if len(assignments) != len(planIDs)*len(template) {
		t.Fatalf("expected %d assignments, got %d", len(planIDs)*len(template), len(assignments))
	}

	byPlan := make(map[uint][]PlanItem)
	for _, a := range assignments {
		byPlan[a.PlanID] = append(byPlan[a.PlanID], a.Item)
	}
	if len(byPlan) != len(planIDs) {
		t.Fatalf("expected items for %d plans, got %d", len(planIDs), len(byPlan))
	}
	for _, planID := range planIDs {
		if !reflect.DeepEqual(byPlan[planID], template) {
			t.Fatalf("plan %d: expected exactly the template %v, got %v", planID, template, byPlan[planID])
		}
	}
}

func TestExpandTemplateEmptyPlanSet(t *testing.T) {
	if got := ExpandTemplate(nil, []PlanItem{{1, 100}}); len(got) != 0 {
		t.Fatalf("expected no assignments for empty plan set, got %v", got)
	}
}
