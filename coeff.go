package fluxion

import "math"

// containsLeading reports whether the sub-tree holds the order-m
// derivative of variable k. Because Diff collapses chains, a node's
// diff order for k reaches m only through that exact derivative node.
func containsLeading(b *Builder, id nodeID, k, m int) bool {
	return b.node(id).diffOrder[k] == m
}

// splitLeading rewrites the residual sub-tree as coeff*L + rest, where
// L is the order-m derivative of variable k. The caller has already
// established that the sub-tree contains L. Shapes the rewrite cannot
// separate, such as L inside an elementary function or a denominator,
// are rejected with the operation that trapped it.
func splitLeading(b *Builder, id nodeID, k, m int) (coeff, rest nodeID) {
	if !containsLeading(b, id, k, m) {
		return b.Const(0).id, id
	}
	n := b.node(id)
	switch n.kind {
	case kindDeriv:
		// collapsed chains make this node L itself
		return b.Const(1).id, b.Const(0).id
	case kindUnary:
		if n.op == opneg {
			c, r := splitLeading(b, n.left, k, m)
			return b.negGlue(c), b.negGlue(r)
		}
		panicf(CodeUnsupportedOperation, n.op.String(), b.names[k], m,
			"highest derivative %s inside %s cannot be isolated", derivName(b.names[k], m), n.op)
	case kindBinary:
		switch n.op {
		case opadd:
			cl, rl := splitLeading(b, n.left, k, m)
			cr, rr := splitLeading(b, n.right, k, m)
			return b.addGlue(cl, cr), b.addGlue(rl, rr)
		case opsub:
			cl, rl := splitLeading(b, n.left, k, m)
			cr, rr := splitLeading(b, n.right, k, m)
			return b.subGlue(cl, cr), b.subGlue(rl, rr)
		case opmul:
			inLeft := containsLeading(b, n.left, k, m)
			inRight := containsLeading(b, n.right, k, m)
			if inLeft && inRight {
				panicf(CodeUnsupportedOperation, "mul", b.names[k], m,
					"residual is nonlinear in the highest derivative %s", derivName(b.names[k], m))
			}
			if inLeft {
				c, r := splitLeading(b, n.left, k, m)
				return b.mulGlue(c, n.right), b.mulGlue(r, n.right)
			}
			c, r := splitLeading(b, n.right, k, m)
			return b.mulGlue(n.left, c), b.mulGlue(n.left, r)
		case opdiv:
			if containsLeading(b, n.right, k, m) {
				panicf(CodeUnsupportedOperation, "div", b.names[k], m,
					"highest derivative %s appears in a denominator", derivName(b.names[k], m))
			}
			c, r := splitLeading(b, n.left, k, m)
			return b.divGlue(c, n.right), b.divGlue(r, n.right)
		case oppow:
			panicf(CodeUnsupportedOperation, "pow", b.names[k], m,
				"residual is nonlinear in the highest derivative %s", derivName(b.names[k], m))
		default:
			panic(n.op)
		}
	default:
		panic(n.kind)
	}
	return invalidNode, invalidNode
}

// checkCoefficient validates the extracted coefficient and compiles it
// into a plain function of the independent variable. The coefficient
// must be state-free, and it must stay clear of zero across the sample
// grid; both failures reject the problem before any time stepping.
func checkCoefficient(b *Builder, id nodeID, k, m int, tol float64, samples int) (CoeffFunc, error) {
	n := b.node(id)
	if n.depMask != 0 {
		return nil, newErrorf(CodeSingularLeadingCoefficient, "reduce", b.names[k], m,
			"leading coefficient %s depends on the state", Expr{b, id})
	}
	fn := b.scalarFunc(id)
	dom := b.dom
	if samples < 2 {
		samples = 2
	}
	step := (dom.End() - dom.Start()) / float64(samples-1)
	check := func(t float64) error {
		v := fn(t)
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) <= tol {
			return newErrorf(CodeSingularLeadingCoefficient, "reduce", b.names[k], m,
				"leading coefficient %s evaluates to %g near t=%g", Expr{b, id}, v, t)
		}
		return nil
	}
	for i := 0; i < samples; i++ {
		if err := check(dom.Start() + float64(i)*step); err != nil {
			return nil, err
		}
	}
	for _, p := range dom {
		if err := check(p); err != nil {
			return nil, err
		}
	}
	return fn, nil
}
