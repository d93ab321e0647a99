package feeledger

import (
	"reflect"
	"sort"
	"testing"
)

func TestItemDiff(t *testing.T) {
	a, b, c := uint(1), uint(2), uint(3)

	tests := []struct {
		name      string
		existing  []PlanItem
		next      []PlanItem
		expDelete []uint
		expUpsert []PlanItem
	}{
		{
			name:      "replace A,B with B',C",
			existing:  []PlanItem{{a, 100}, {b, 200}},
			next:      []PlanItem{{b, 250}, {c, 50}},
			expDelete: []uint{a},
			expUpsert: []PlanItem{{b, 250}, {c, 50}},
		},
		{
			name:      "clear all items",
			existing:  []PlanItem{{a, 100}, {b, 200}},
			next:      nil,
			expDelete: []uint{a, b},
			expUpsert: nil,
		},
		{
			name:      "fresh plan",
			existing:  nil,
			next:      []PlanItem{{a, 100}},
			expDelete: nil,
			expUpsert: []PlanItem{{a, 100}},
		},
		{
			name:      "amount change only",
			existing:  []PlanItem{{a, 100}},
			next:      []PlanItem{{a, 175}},
			expDelete: nil,
			expUpsert: []PlanItem{{a, 175}},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			toDelete, toUpsert := ItemDiff(tc.existing, tc.next)
			sort.Slice(toDelete, func(i, j int) bool { return toDelete[i] < toDelete[j] })
			if !reflect.DeepEqual(toDelete, tc.expDelete) {
				t.Fatalf("delete: expected %v, got %v", tc.expDelete, toDelete)
			}
			if !reflect.DeepEqual(toUpsert, tc.expUpsert) {
				t.Fatalf("upsert: expected %v, got %v", tc.expUpsert, toUpsert)
			}
		})
	}
}

func TestValidateItems(t *testing.T) {
	tests := []struct {
		name   string
		items  []PlanItem
		expErr error
	}{
		{"valid", []PlanItem{{1, 100}, {2, 0}}, nil},
		{"empty is a valid empty plan", nil, nil},
		{"missing component", []PlanItem{{0, 100}}, ErrMissingComponent},
		{"duplicate component", []PlanItem{{1, 100}, {1, 200}}, ErrDuplicateComponent},
		{"negative amount", []PlanItem{{1, -5}}, ErrNegativeAmount},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidateItems(tc.items); err != tc.expErr {
				t.Fatalf("expected %v, got %v", tc.expErr, err)
			}
		})
	}
}

func TestValidateTemplate(t *testing.T) {
	tests := []struct {
		name   string
		items  []PlanItem
		expErr error
	}{
		{"valid", []PlanItem{{1, 100}, {2, 50}}, nil},
		{"empty template", nil, ErrEmptyTemplate},
		{"zero amount rejected", []PlanItem{{1, 0}}, ErrNonPositiveAmount},
		{"zero amid valid items", []PlanItem{{1, 100}, {2, 0}}, ErrNonPositiveAmount},
		{"missing component", []PlanItem{{0, 100}}, ErrMissingComponent},
		{"duplicate component", []PlanItem{{1, 100}, {1, 200}}, ErrDuplicateComponent},
		{"negative amount", []PlanItem{{1, -5}}, ErrNegativeAmount},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidateTemplate(tc.items); err != tc.expErr {
				t.Fatalf("expected %v, got %v", tc.expErr, err)
			}
		})
	}
}
