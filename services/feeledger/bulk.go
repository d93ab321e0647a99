package feeledger

// RosterSplit separates a class roster by whether each student already has a
// plan for the academic year.
type RosterSplit struct {
	WithPlan []uint
	Missing  []uint
}

// SplitRoster partitions studentIDs using the hasPlan lookup. Roster order is
// preserved in both halves.
func SplitRoster(studentIDs []uint, hasPlan map[uint]bool) RosterSplit {
	var split RosterSplit
	for _, id := range studentIDs {
		if hasPlan[id] {
			split.WithPlan = append(split.WithPlan, id)
		} else {
			split.Missing = append(split.Missing, id)
		}
	}
	return split
}

// TemplateAssignment pins one template item to a concrete plan.
type TemplateAssignment struct {
	PlanID uint
	Item   PlanItem
}

// ExpandTemplate fans the template out across every plan id, template order
// within each plan. The caller deletes the plans' previous items first, so
// after the write every plan holds exactly the template set.
func ExpandTemplate(planIDs []uint, template []PlanItem) []TemplateAssignment {
	out := make([]TemplateAssignment, 0, len(planIDs)*len(template))
	for _, planID := range planIDs {
		for _, it := range template {
			out = append(out, TemplateAssignment{PlanID: planID, Item: it})
		}
	}
	return out
}
