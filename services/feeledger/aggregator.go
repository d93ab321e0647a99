// Package feeledger contains the pure fee accounting computations: per-student
// summaries, class roll-ups, catalog dedupe and plan item diffing. Nothing in
// this package touches the database; callers fetch rows and feed them in.
package feeledger

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Component is a row of the school's fee component catalog.
type Component struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	DefaultAmount int64  `json:"default_amount"`
}

// PlanItem is one (component, amount) assignment inside a plan.
// Amounts are integer minor units.
type PlanItem struct {
	ComponentTypeID uint  `json:"component_type_id"`
	Amount          int64 `json:"amount"`
}

// Plan is a student's fee plan with its items. A nil *Plan means the student
// has no plan yet.
type Plan struct {
	ID    uint       `json:"id"`
	Items []PlanItem `json:"items"`
}

// Payment is a ledger row reduced to what the aggregator needs.
type Payment struct {
	ComponentTypeID uint  `json:"component_type_id"`
	Amount          int64 `json:"amount"`
}

// Summary is the derived financial state of one student.
type Summary struct {
	TotalDue   int64 `json:"total_due"`
	TotalPaid  int64 `json:"total_paid"`
	Balance    int64 `json:"balance"`
	Percentage int   `json:"percentage"`
	HasPlan    bool  `json:"has_plan"`
}

// ClassTotals is the roll-up over the currently visible student rows.
type ClassTotals struct {
	TotalAssigned int64 `json:"total_assigned"`
	TotalPending  int64 `json:"total_pending"`
}

// StudentRow pairs a student's identity with their computed summary. Rows are
// what the class summary endpoints filter, sort and total.
type StudentRow struct {
	StudentID   uint   `json:"student_id"`
	StudentCode string `json:"student_code"`
	FullName    string `json:"full_name"`
	Summary
}

// ComputeSummary derives {due, paid, balance, percentage} for one student.
// It must tolerate a nil plan and an empty payment list. TotalPaid sums every
// payment for the student regardless of which plan (if any) it was recorded
// against: historical payments may predate the current plan. Balance is
// clamped at zero for reporting; overpayment caps the percentage at 100.
func ComputeSummary(plan *Plan, payments []Payment) Summary {
	var s Summary
	if plan != nil {
		s.HasPlan = true
		for _, it := range plan.Items {
			s.TotalDue += it.Amount
		}
	}
	for _, p := range payments {
		s.TotalPaid += p.Amount
	}
	if s.TotalDue > 0 {
		pct := int(math.Round(float64(s.TotalPaid) / float64(s.TotalDue) * 100))
		if pct > 100 {
			pct = 100
		}
		if pct < 0 {
			pct = 0
		}
		s.Percentage = pct
	}
	if s.TotalDue > s.TotalPaid {
		s.Balance = s.TotalDue - s.TotalPaid
	}
	return s
}

// AggregateClass totals the visible rows. This is a view-scoped aggregate:
// callers pass the filtered list, not the full roster.
func AggregateClass(rows []StudentRow) ClassTotals {
	var t ClassTotals
	for _, r := range rows {
		t.TotalAssigned += r.TotalDue
		t.TotalPending += r.Balance
	}
	return t
}

// DedupeComponents collapses duplicate catalog rows by ID. Joined fetches can
// return the same component several times; fields are identical across
// duplicates so last-write-wins. The result is sorted by name then ID and the
// operation is idempotent.
func DedupeComponents(components []Component) []Component {
	byID := make(map[uint]Component, len(components))
	for _, c := range components {
		byID[c.ID] = c
	}
	out := make([]Component, 0, len(byID))
	for _, c := range byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// PlanFilter narrows a class roster by plan status.
type PlanFilter string

const (
	FilterAll         PlanFilter = "all"
	FilterWithPlan    PlanFilter = "with_plan"
	FilterWithoutPlan PlanFilter = "without_plan"
)

// FilterRows applies the free-text search (matched against name and student
// code, case-insensitive) and the plan-status filter.
func FilterRows(rows []StudentRow, query string, filter PlanFilter) []StudentRow {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]StudentRow, 0, len(rows))
	for _, r := range rows {
		switch filter {
		case FilterWithPlan:
			if !r.HasPlan {
				continue
			}
		case FilterWithoutPlan:
			if r.HasPlan {
				continue
			}
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(r.FullName), query) &&
			!strings.Contains(strings.ToLower(r.StudentCode), query) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SortRowsByName orders rows by full name ascending using locale-aware
// collation, falling back to student code for equal names.
func SortRowsByName(rows []StudentRow, tag language.Tag) {
	cl := collate.New(tag, collate.IgnoreCase)
	sort.SliceStable(rows, func(i, j int) bool {
		if c := cl.CompareString(rows[i].FullName, rows[j].FullName); c != 0 {
			return c < 0
		}
		return rows[i].StudentCode < rows[j].StudentCode
	})
}
