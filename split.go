package fluxion

import "fmt"

// layout fixes the slot numbering. Variable i owns the contiguous run
// [offset(i), offset(i)+declared(i)), one slot per derivative order
// from zero upward, in registry order. Slot indices are dense and
// deterministic for a given declaration.
type layout struct {
	offsets []int
	total   int
}

func newLayout(declared []int) layout {
	offsets := make([]int, len(declared))
	total := 0
	for i, m := range declared {
		offsets[i] = total
		total += m
	}
	return layout{offsets: offsets, total: total}
}

// slot returns the state index holding the d-th derivative of variable i.
func (l layout) slot(i, d int) int { return l.offsets[i] + d }

// substituter rewrites variable and derivative leaves into state-slot
// references, memoized per node so shared sub-trees stay shared in the
// rewritten DAG.
type substituter struct {
	b    *Builder
	lay  layout
	memo map[nodeID]nodeID
}

func (s *substituter) rewrite(id nodeID) nodeID {
	if out, ok := s.memo[id]; ok {
		return out
	}
	n := s.b.node(id)
	var out nodeID
	switch n.kind {
	case kindConst, kindTime, kindCoeff, kindSlot:
		out = id
	case kindVar:
		out = s.b.slot(s.lay.slot(n.index, 0), n.depMask).id
	case kindDeriv:
		if n.order >= s.b.declared[n.index] {
			// leading derivatives are removed by the extractor
			// before substitution runs
			panic(fmt.Sprintf("fluxion: order-%d derivative of %s survived extraction", n.order, s.b.names[n.index]))
		}
		out = s.b.slot(s.lay.slot(n.index, n.order), n.depMask).id
	case kindUnary:
		c := s.rewrite(n.left)
		if c == n.left {
			out = id
		} else {
			out = Expr{s.b, c}.unary(n.op).id
		}
	case kindBinary:
		l := s.rewrite(n.left)
		r := s.rewrite(n.right)
		if l == n.left && r == n.right {
			out = id
		} else {
			out = Expr{s.b, l}.binary(n.op, Expr{s.b, r}).id
		}
	default:
		panic(n.kind)
	}
	s.memo[id] = out
	return out
}

// buildSystemTrees turns the traced residuals into one tree per state
// slot. Slots below a variable's top order chain to their neighbor,
// x_j' = x_{j+1}, and the top slot carries the solved equation
// -rest/coeff with the division folded away when the coefficient is
// the constant one.
func buildSystemTrees(b *Builder, residuals []Expr, lay layout, tol float64, samples int) ([]nodeID, []CoeffFunc, error) {
	roots := make([]nodeID, lay.total)
	coeffs := make([]CoeffFunc, len(residuals))
	sub := &substituter{b: b, lay: lay, memo: make(map[nodeID]nodeID)}

	for k := range residuals {
		m := b.declared[k]
		coeffID, restID := splitLeading(b, residuals[k].id, k, m)
		fn, err := checkCoefficient(b, coeffID, k, m, tol, samples)
		if err != nil {
			return nil, nil, err
		}
		coeffs[k] = fn

		rhs := b.divGlue(b.negGlue(sub.rewrite(restID)), coeffID)

		off := lay.offsets[k]
		mask := uint64(1) << uint(k)
		for d := 0; d < m-1; d++ {
			roots[lay.slot(k, d)] = b.slot(off+d+1, mask).id
		}
		roots[lay.slot(k, m-1)] = rhs
	}
	return roots, coeffs, nil
}
