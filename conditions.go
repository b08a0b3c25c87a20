package fluxion

import "fmt"

// Condition pins one derivative of one variable to a value at a point
// of the domain. Order zero is the variable itself.
type Condition struct {
	Var   string
	Order int
	At    float64
	Value float64
}

func (c Condition) String() string {
	return fmt.Sprintf("%s(%g) = %g", derivName(c.Var, c.Order), c.At, c.Value)
}

// sortConditions validates the condition set against the slot layout
// and returns it reordered by slot. The second result is the initial
// state vector, filled only when every condition sits on the left
// endpoint; otherwise it is nil and time stepping needs values from
// elsewhere.
func sortConditions(b *Builder, conds []Condition, lay layout) ([]Condition, []float64, error) {
	if len(conds) != lay.total {
		return nil, nil, newErrorf(CodeUnderOrOverDeterminedConditions, "conditions", "", 0,
			"system of %d first-order states needs %d conditions, got %d", lay.total, lay.total, len(conds))
	}

	index := make(map[string]int, len(b.names))
	for i, name := range b.names {
		index[name] = i
	}

	sorted := make([]Condition, lay.total)
	seen := make([]bool, lay.total)
	atStart := true
	for _, c := range conds {
		i, ok := index[c.Var]
		if !ok {
			return nil, nil, newErrorf(CodeConfigMismatch, "conditions", c.Var, c.Order,
				"condition names a variable the system does not declare")
		}
		if c.Order < 0 || c.Order >= b.declared[i] {
			return nil, nil, newErrorf(CodeConfigMismatch, "conditions", c.Var, c.Order,
				"condition order must lie in [0, %d)", b.declared[i])
		}
		if !b.dom.Contains(c.At) {
			return nil, nil, newErrorf(CodeConfigMismatch, "conditions", c.Var, c.Order,
				"condition point %g lies outside the domain %s", c.At, b.dom)
		}
		slot := lay.slot(i, c.Order)
		if seen[slot] {
			return nil, nil, newErrorf(CodeUnderOrOverDeterminedConditions, "conditions", c.Var, c.Order,
				"two conditions pin %s", derivName(c.Var, c.Order))
		}
		seen[slot] = true
		sorted[slot] = c
		if c.At != b.dom.Start() {
			atStart = false
		}
	}

	if !atStart {
		return sorted, nil, nil
	}
	initial := make([]float64, lay.total)
	for j, c := range sorted {
		initial[j] = c.Value
	}
	return sorted, initial, nil
}
