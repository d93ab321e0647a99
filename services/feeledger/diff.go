package feeledger

// ItemDiff computes what a plan save has to write: component ids present in
// the stored items but absent from the submission are deleted, everything in
// the submission is upserted keyed by (plan_id, component_type_id). Items are
// replaced wholesale on each edit session rather than patched incrementally.
func ItemDiff(existing, next []PlanItem) (toDelete []uint, toUpsert []PlanItem) {
	keep := make(map[uint]bool, len(next))
	for _, it := range next {
		keep[it.ComponentTypeID] = true
	}
	for _, it := range existing {
		if !keep[it.ComponentTypeID] {
			toDelete = append(toDelete, it.ComponentTypeID)
		}
	}
	toUpsert = append(toUpsert, next...)
	return toDelete, toUpsert
}

// ValidateItems rejects a submission before anything is written: every item
// needs a component, the same component may not appear twice, and amounts may
// not be negative. Submitting an empty list is allowed and leaves the student
// with an empty plan.
func ValidateItems(items []PlanItem) error {
	seen := make(map[uint]bool, len(items))
	for _, it := range items {
		if it.ComponentTypeID == 0 {
			return ErrMissingComponent
		}
		if seen[it.ComponentTypeID] {
			return ErrDuplicateComponent
		}
		seen[it.ComponentTypeID] = true
		if it.Amount < 0 {
			return ErrNegativeAmount
		}
	}
	return nil
}

// ValidateTemplate applies the stricter bulk rules: everything ValidateItems
// checks, plus the template may not be empty and every amount must be
// positive. A zero-amount item is legitimate on an individual plan but has no
// business being fanned out to a whole class.
func ValidateTemplate(items []PlanItem) error {
	if len(items) == 0 {
		return ErrEmptyTemplate
	}
	if err := ValidateItems(items); err != nil {
		return err
	}
	for _, it := range items {
		if it.Amount == 0 {
			return ErrNonPositiveAmount
		}
	}
	return nil
}
