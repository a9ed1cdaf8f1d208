package plan

// Comparison lists what changes when moving from one plan to another.
// Used to validate downgrades and to explain plan changes to users.
type Comparison struct {
	NewFeatures     []Feature
	LostFeatures    []Feature
	IncreasedLimits map[LimitName]LimitChange
	DecreasedLimits map[LimitName]LimitChange
}

// LimitChange is a before/after pair for one limit.
type LimitChange struct {
	From Limit `json:"from"`
	To   Limit `json:"to"`
}

// HasDecreases reports whether any limit shrinks.
func (c Comparison) HasDecreases() bool {
	return len(c.DecreasedLimits) > 0
}

// Compare returns the differences between current and target.
// Going from unlimited to any finite limit counts as a decrease.
func Compare(current, target Plan) Comparison {
	cmp := Comparison{
		NewFeatures:     make([]Feature, 0),
		LostFeatures:    make([]Feature, 0),
		IncreasedLimits: make(map[LimitName]LimitChange),
		DecreasedLimits: make(map[LimitName]LimitChange),
	}

	for _, f := range target.EnabledFeatures() {
		if on, _ := current.HasFeature(f); !on {
			cmp.NewFeatures = append(cmp.NewFeatures, f)
		}
	}
	for _, f := range current.EnabledFeatures() {
		if on, _ := target.HasFeature(f); !on {
			cmp.LostFeatures = append(cmp.LostFeatures, f)
		}
	}

	for name, to := range target.Limits {
		from, ok := current.Limits[name]
		if !ok || from == to {
			continue
		}
		change := LimitChange{From: from, To: to}
		if to.Less(from) {
			cmp.DecreasedLimits[name] = change
		} else {
			cmp.IncreasedLimits[name] = change
		}
	}

	return cmp
}
