package feeledger

import (
	"reflect"
	"testing"

	"golang.org/x/text/language"
)

func TestComputeSummaryScenarios(t *testing.T) {
	tuition := uint(1)
	transport := uint(2)

	tests := []struct {
		name     string
		plan     *Plan
		payments []Payment
		expect   Summary
	}{
		{
			name:     "no plan with one payment",
			plan:     nil,
			payments: []Payment{{ComponentTypeID: tuition, Amount: 500}},
			expect:   Summary{TotalDue: 0, TotalPaid: 500, Balance: 0, Percentage: 0, HasPlan: false},
		},
		{
			name: "partial payment",
			plan: &Plan{ID: 10, Items: []PlanItem{
				{ComponentTypeID: tuition, Amount: 10000},
				{ComponentTypeID: transport, Amount: 2000},
			}},
			payments: []Payment{
				{ComponentTypeID: tuition, Amount: 5000},
				{ComponentTypeID: transport, Amount: 2000},
			},
			expect: Summary{TotalDue: 12000, TotalPaid: 7000, Balance: 5000, Percentage: 58, HasPlan: true},
		},
		{
			name: "overpaid caps percentage and clamps balance",
			plan: &Plan{ID: 10, Items: []PlanItem{
				{ComponentTypeID: tuition, Amount: 10000},
				{ComponentTypeID: transport, Amount: 2000},
			}},
			payments: []Payment{{ComponentTypeID: tuition, Amount: 15000}},
			expect:   Summary{TotalDue: 12000, TotalPaid: 15000, Balance: 0, Percentage: 100, HasPlan: true},
		},
		{
			name:     "empty plan and no payments",
			plan:     &Plan{ID: 11},
			payments: nil,
			expect:   Summary{HasPlan: true},
		},
		{
			name:     "zero due keeps percentage at zero",
			plan:     &Plan{ID: 12, Items: []PlanItem{{ComponentTypeID: tuition, Amount: 0}}},
			payments: []Payment{{ComponentTypeID: tuition, Amount: 300}},
			expect:   Summary{TotalDue: 0, TotalPaid: 300, Balance: 0, Percentage: 0, HasPlan: true},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeSummary(tc.plan, tc.payments)
			if got != tc.expect {
				t.Fatalf("expected %+v, got %+v", tc.expect, got)
			}
		})
	}
}

func TestComputeSummaryDeterministic(t *testing.T) {
	plan := &Plan{ID: 1, Items: []PlanItem{{ComponentTypeID: 1, Amount: 7500}}}
	payments := []Payment{{ComponentTypeID: 1, Amount: 2500}, {ComponentTypeID: 1, Amount: 1000}}

	first := ComputeSummary(plan, payments)
	second := ComputeSummary(plan, payments)
	if first != second {
		t.Fatalf("summary not deterministic: %+v vs %+v", first, second)
	}
}

func TestComputeSummaryBounds(t *testing.T) {
	// Balance must never be negative and percentage must stay in [0,100]
	// whatever mix of amounts comes in.
	cases := []struct {
		due  int64
		paid int64
	}{
		{0, 0}, {0, 9999}, {100, 0}, {100, 100}, {100, 350}, {12000, 7000}, {1, 1000000},
	}
	for _, c := range cases {
		plan := &Plan{ID: 1, Items: []PlanItem{{ComponentTypeID: 1, Amount: c.due}}}
		got := ComputeSummary(plan, []Payment{{ComponentTypeID: 1, Amount: c.paid}})
		if got.Balance < 0 {
			t.Fatalf("due=%d paid=%d: negative balance %d", c.due, c.paid, got.Balance)
		}
		if got.Percentage < 0 || got.Percentage > 100 {
			t.Fatalf("due=%d paid=%d: percentage %d out of range", c.due, c.paid, got.Percentage)
		}
		if c.due == 0 && got.Percentage != 0 {
			t.Fatalf("zero due must give zero percentage, got %d", got.Percentage)
		}
	}
}

func TestAggregateClass(t *testing.T) {
	rows := []StudentRow{
		{StudentID: 1, Summary: Summary{TotalDue: 12000, Balance: 5000, HasPlan: true}},
		{StudentID: 2, Summary: Summary{TotalDue: 8000, Balance: 0, HasPlan: true}},
		{StudentID: 3, Summary: Summary{}},
	}

	got := AggregateClass(rows)
	if got.TotalAssigned != 20000 || got.TotalPending != 5000 {
		t.Fatalf("expected assigned=20000 pending=5000, got %+v", got)
	}

	if empty := AggregateClass(nil); empty.TotalAssigned != 0 || empty.TotalPending != 0 {
		t.Fatalf("expected zero totals for empty input, got %+v", empty)
	}
}

func TestDedupeComponentsIdempotent(t *testing.T) {
	components := []Component{
		{ID: 2, Name: "Transport", DefaultAmount: 2000},
		{ID: 1, Name: "Tuition", DefaultAmount: 10000},
		{ID: 2, Name: "Transport", DefaultAmount: 2000},
		{ID: 1, Name: "Tuition", DefaultAmount: 10000},
		{ID: 3, Name: "Library", DefaultAmount: 500},
	}

	once := DedupeComponents(components)
	twice := DedupeComponents(once)

	if len(once) != 3 {
		t.Fatalf("expected 3 unique components, got %d", len(once))
	}
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("dedupe not idempotent: %+v vs %+v", once, twice)
	}
	if once[0].Name != "Library" || once[1].Name != "Transport" || once[2].Name != "Tuition" {
		t.Fatalf("unexpected order: %+v", once)
	}
}

func TestFilterRows(t *testing.T) {
	rows := []StudentRow{
		{StudentID: 1, StudentCode: "STU-001", FullName: "Alice Anderson", Summary: Summary{HasPlan: true}},
		{StudentID: 2, StudentCode: "STU-002", FullName: "Bob Brown", Summary: Summary{HasPlan: false}},
		{StudentID: 3, StudentCode: "STU-003", FullName: "Carol Cruz", Summary: Summary{HasPlan: true}},
	}

	tests := []struct {
		name   string
		query  string
		filter PlanFilter
		expIDs []uint
	}{
		{"all", "", FilterAll, []uint{1, 2, 3}},
		{"with plan", "", FilterWithPlan, []uint{1, 3}},
		{"without plan", "", FilterWithoutPlan, []uint{2}},
		{"search by name", "bob", FilterAll, []uint{2}},
		{"search by code", "stu-003", FilterAll, []uint{3}},
		{"search and plan filter combine", "c", FilterWithPlan, []uint{1, 3}},
		{"no match", "zelda", FilterAll, nil},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := FilterRows(rows, tc.query, tc.filter)
			var ids []uint
			for _, r := range got {
				ids = append(ids, r.StudentID)
			}
			if !reflect.DeepEqual(ids, tc.expIDs) {
				t.Fatalf("expected %v, got %v", tc.expIDs, ids)
			}
		})
	}
}

func TestSortRowsByName(t *testing.T) {
	rows := []StudentRow{
		{StudentCode: "S3", FullName: "Åsa Berg"},
		{StudentCode: "S1", FullName: "alice anderson"},
		{StudentCode: "S2", FullName: "Alice Anderson"},
		{StudentCode: "S4", FullName: "Bob Brown"},
	}

	SortRowsByName(rows, language.English)

	// Case-insensitive collation: the two Alices tie and fall back to code.
	if rows[0].StudentCode != "S1" || rows[1].StudentCode != "S2" {
		t.Fatalf("expected Alices first by code, got %v %v", rows[0], rows[1])
	}
	if rows[2].FullName != "Åsa Berg" || rows[3].FullName != "Bob Brown" {
		t.Fatalf("unexpected tail order: %v %v", rows[2], rows[3])
	}
}
