package fluxion

// CoeffFunc is an external coefficient sampled along the independent
// variable. It must be defined on the whole problem domain.
type CoeffFunc func(t float64) float64

// Builder owns the node arena for one reduction. Operator closures
// receive it together with the variable placeholders and use it to
// construct the residual trees. A Builder is single-goroutine; nothing
// in it is locked.
type Builder struct {
	nodes []node

	names    []string // registry, in declaration order
	declared []int    // declared max derivative order per variable
	dom      Domain

	zeroOrder []int // shared all-zero diff-order vector for leaves

	vars      []nodeID
	timeID    nodeID
	constants map[float64]nodeID
	slots     map[int]nodeID
	coeffs    []string // coefficient names, indexed by node.index
}

// Expr is a handle to one arena node. Exprs are cheap values; copying
// one never copies the tree. All arithmetic goes through explicit
// methods, and scalar operands are lifted to constant leaves.
type Expr struct {
	b  *Builder
	id nodeID
}

func newBuilder(dom Domain, vars []VarSpec) (*Builder, error) {
	if err := dom.validate(); err != nil {
		return nil, err
	}
	if len(vars) == 0 {
		return nil, newErrorf(CodeConfigMismatch, "reduce", "", 0, "system declares no variables")
	}
	if len(vars) > maxVars {
		return nil, newErrorf(CodeConfigMismatch, "reduce", "", 0, "system declares %d variables, limit is %d", len(vars), maxVars)
	}
	b := &Builder{
		names:     make([]string, len(vars)),
		declared:  make([]int, len(vars)),
		dom:       dom,
		zeroOrder: make([]int, len(vars)),
		vars:      make([]nodeID, len(vars)),
		timeID:    invalidNode,
		constants: make(map[float64]nodeID),
		slots:     make(map[int]nodeID),
	}
	seen := make(map[string]bool, len(vars))
	for i, v := range vars {
		if v.Name == "" {
			return nil, newErrorf(CodeConfigMismatch, "reduce", "", 0, "variable %d has no name", i)
		}
		if seen[v.Name] {
			return nil, newErrorf(CodeConfigMismatch, "reduce", v.Name, 0, "variable declared twice")
		}
		seen[v.Name] = true
		if v.Order < 1 {
			return nil, newErrorf(CodeConfigMismatch, "reduce", v.Name, v.Order, "declared order must be at least 1")
		}
		b.names[i] = v.Name
		b.declared[i] = v.Order
		b.vars[i] = b.add(node{
			kind:      kindVar,
			index:     i,
			diffOrder: b.zeroOrder,
			depMask:   1 << uint(i),
			dom:       dom,
		})
	}
	return b, nil
}

// Domain returns the interval the system is being reduced on.
func (b *Builder) Domain() Domain { return b.dom }

// NumVars returns the registry size.
func (b *Builder) NumVars() int { return len(b.names) }

// VarName returns the declared name of variable i.
func (b *Builder) VarName(i int) string { return b.names[i] }

// Var returns the placeholder expression for registry entry i. It is
// the same handle the Operator closure received.
func (b *Builder) Var(i int) Expr {
	if i < 0 || i >= len(b.vars) {
		panicf(CodeConfigMismatch, "var", "", i, "variable index %d outside registry of %d", i, len(b.vars))
	}
	return Expr{b, b.vars[i]}
}

// Const returns a constant leaf. Equal values share one node.
func (b *Builder) Const(v float64) Expr {
	if id, ok := b.constants[v]; ok {
		return Expr{b, id}
	}
	id := b.add(node{kind: kindConst, val: v, diffOrder: b.zeroOrder})
	b.constants[v] = id
	return Expr{b, id}
}

// Time returns the independent-variable leaf.
func (b *Builder) Time() Expr {
	if b.timeID == invalidNode {
		b.timeID = b.add(node{kind: kindTime, diffOrder: b.zeroOrder, dom: b.dom})
	}
	return Expr{b, b.timeID}
}

// Coeff wraps an external coefficient function of the independent
// variable. The name only shows up in rendered trees and errors.
func (b *Builder) Coeff(name string, fn CoeffFunc) Expr {
	if fn == nil {
		panicf(CodeConfigMismatch, "coeff", name, 0, "coefficient function is nil")
	}
	if name == "" {
		name = "c"
	}
	b.coeffs = append(b.coeffs, name)
	return Expr{b, b.add(node{
		kind:      kindCoeff,
		fn:        fn,
		index:     len(b.coeffs) - 1,
		diffOrder: b.zeroOrder,
		dom:       b.dom,
	})}
}

// slot returns the interned leaf for auxiliary state slot j. Only the
// splitter creates these.
func (b *Builder) slot(j int, mask uint64) Expr {
	if id, ok := b.slots[j]; ok {
		return Expr{b, id}
	}
	id := b.add(node{
		kind:      kindSlot,
		index:     j,
		diffOrder: b.zeroOrder,
		depMask:   mask,
		dom:       b.dom,
	})
	b.slots[j] = id
	return Expr{b, id}
}

func (e Expr) node() *node { return e.b.node(e.id) }

// Height reports the longest path from this node to a leaf.
func (e Expr) Height() int { return e.node().height }

// DiffOrders returns a copy of the per-variable derivative orders
// observed under this node.
func (e Expr) DiffOrders() []int {
	n := e.node()
	out := make([]int, len(n.diffOrder))
	copy(out, n.diffOrder)
	return out
}

// DependsOn reports whether base variable i contributes to the value.
func (e Expr) DependsOn(i int) bool {
	return e.node().depMask&(1<<uint(i)) != 0
}

func (e Expr) sameBuilder(op string, o Expr) {
	if e.b == nil || o.b == nil {
		panicf(CodeConfigMismatch, op, "", 0, "operand built outside a reduction")
	}
	if e.b != o.b {
		panicf(CodeConfigMismatch, op, "", 0, "operands come from different builders")
	}
}

func (e Expr) binary(op opcode, o Expr) Expr {
	e.sameBuilder(op.String(), o)
	b := e.b
	ln, rn := b.node(e.id), b.node(o.id)
	dom, err := unionDomains(op.String(), ln.dom, rn.dom)
	if err != nil {
		panic(err)
	}
	return Expr{b, b.add(node{
		kind:      kindBinary,
		op:        op,
		left:      e.id,
		right:     o.id,
		diffOrder: maxOrders(ln.diffOrder, rn.diffOrder),
		depMask:   ln.depMask | rn.depMask,
		height:    1 + max(ln.height, rn.height),
		dom:       dom,
	})}
}

func (e Expr) unary(op opcode) Expr {
	if e.b == nil {
		panicf(CodeConfigMismatch, op.String(), "", 0, "operand built outside a reduction")
	}
	b := e.b
	cn := b.node(e.id)
	return Expr{b, b.add(node{
		kind:      kindUnary,
		op:        op,
		left:      e.id,
		diffOrder: cn.diffOrder,
		depMask:   cn.depMask,
		height:    1 + cn.height,
		dom:       cn.dom,
	})}
}

// Add returns e + o.
func (e Expr) Add(o Expr) Expr { return e.binary(opadd, o) }

// Sub returns e - o.
func (e Expr) Sub(o Expr) Expr { return e.binary(opsub, o) }

// Mul returns e * o.
func (e Expr) Mul(o Expr) Expr { return e.binary(opmul, o) }

// Div returns e / o.
func (e Expr) Div(o Expr) Expr { return e.binary(opdiv, o) }

// Pow returns e raised to o.
func (e Expr) Pow(o Expr) Expr { return e.binary(oppow, o) }

// AddConst returns e + c.
func (e Expr) AddConst(c float64) Expr { return e.binary(opadd, e.b.Const(c)) }

// SubConst returns e - c.
func (e Expr) SubConst(c float64) Expr { return e.binary(opsub, e.b.Const(c)) }

// MulConst returns c * e.
func (e Expr) MulConst(c float64) Expr { return e.b.Const(c).binary(opmul, e) }

// DivConst returns e / c.
func (e Expr) DivConst(c float64) Expr {
	if c == 0 {
		panicf(CodeUnsupportedOperation, "div", "", 0, "division by constant zero")
	}
	return e.binary(opdiv, e.b.Const(c))
}

// PowConst returns e raised to the constant c.
func (e Expr) PowConst(c float64) Expr { return e.binary(oppow, e.b.Const(c)) }

// Neg returns -e.
func (e Expr) Neg() Expr { return e.unary(opneg) }

// Diff returns the k-th derivative of e by the independent variable.
// Differentiation is only defined on variable placeholders and on
// derivatives of them; chains collapse, so u.Diff(1).Diff(1) and
// u.Diff(2) build the same node shape.
func (e Expr) Diff(k int) Expr {
	if e.b == nil {
		panicf(CodeConfigMismatch, "diff", "", 0, "operand built outside a reduction")
	}
	if k < 1 {
		panicf(CodeUnsupportedOperation, "diff", "", k, "derivative order must be at least 1")
	}
	b := e.b
	n := b.node(e.id)

	base := e.id
	total := k
	switch n.kind {
	case kindVar:
	case kindDeriv:
		base = n.left
		total = n.order + k
	default:
		panicf(CodeUnsupportedOperation, "diff", "", k,
			"cannot differentiate a %s expression, only variables and their derivatives", n.kind)
	}

	bn := b.node(base)
	idx := bn.index
	if total > b.declared[idx] {
		panicf(CodeConfigMismatch, "diff", b.names[idx], total,
			"derivative order %d exceeds declared order %d", total, b.declared[idx])
	}
	return Expr{b, b.add(node{
		kind:      kindDeriv,
		left:      base,
		order:     total,
		index:     idx,
		diffOrder: addToMasked(bn.diffOrder, bn.depMask, total),
		depMask:   bn.depMask,
		height:    1 + bn.height,
		dom:       bn.dom,
	})}
}

// Sin returns sin(e).
func Sin(e Expr) Expr { return e.unary(opsin) }

// Cos returns cos(e).
func Cos(e Expr) Expr { return e.unary(opcos) }

// Tan returns tan(e).
func Tan(e Expr) Expr { return e.unary(optan) }

// Exp returns the natural exponential of e.
func Exp(e Expr) Expr { return e.unary(opexp) }

// Log returns the natural logarithm of e.
func Log(e Expr) Expr { return e.unary(oplog) }

// Sqrt returns the square root of e.
func Sqrt(e Expr) Expr { return e.unary(opsqrt) }

// Abs returns the absolute value of e.
func Abs(e Expr) Expr { return e.unary(opabs) }

// Sinh returns the hyperbolic sine of e.
func Sinh(e Expr) Expr { return e.unary(opsinh) }

// Cosh returns the hyperbolic cosine of e.
func Cosh(e Expr) Expr { return e.unary(opcosh) }

// Tanh returns the hyperbolic tangent of e.
func Tanh(e Expr) Expr { return e.unary(optanh) }

// Asin returns the inverse sine of e.
func Asin(e Expr) Expr { return e.unary(opasin) }

// Acos returns the inverse cosine of e.
func Acos(e Expr) Expr { return e.unary(opacos) }

// Atan returns the inverse tangent of e.
func Atan(e Expr) Expr { return e.unary(opatan) }

// isConst reports whether the node is a constant leaf with value v.
func (b *Builder) isConst(id nodeID, v float64) bool {
	n := b.node(id)
	return n.kind == kindConst && n.val == v
}

// constValue returns the value of a constant leaf and whether id is one.
func (b *Builder) constValue(id nodeID) (float64, bool) {
	n := b.node(id)
	if n.kind != kindConst {
		return 0, false
	}
	return n.val, true
}

// addGlue builds a + b, folding the identity cases the splitter and the
// coefficient extractor generate en masse. User-built trees never pass
// through here, so their shape stays exactly as traced.
func (b *Builder) addGlue(x, y nodeID) nodeID {
	if b.isConst(x, 0) {
		return y
	}
	if b.isConst(y, 0) {
		return x
	}
	if xv, ok := b.constValue(x); ok {
		if yv, ok := b.constValue(y); ok {
			return b.Const(xv + yv).id
		}
	}
	return Expr{b, x}.binary(opadd, Expr{b, y}).id
}

// mulGlue builds a * b with the same identity folding as addGlue.
func (b *Builder) mulGlue(x, y nodeID) nodeID {
	if b.isConst(x, 1) {
		return y
	}
	if b.isConst(y, 1) {
		return x
	}
	if xv, ok := b.constValue(x); ok {
		if yv, ok := b.constValue(y); ok {
			return b.Const(xv * yv).id
		}
	}
	return Expr{b, x}.binary(opmul, Expr{b, y}).id
}

// negGlue builds -a, folding constants and double negation.
func (b *Builder) negGlue(x nodeID) nodeID {
	if xv, ok := b.constValue(x); ok {
		return b.Const(-xv).id
	}
	if n := b.node(x); n.kind == kindUnary && n.op == opneg {
		return n.left
	}
	return Expr{b, x}.unary(opneg).id
}

// divGlue builds a / b, skipping the division when b is the constant 1.
func (b *Builder) divGlue(x, y nodeID) nodeID {
	if b.isConst(y, 1) {
		return x
	}
	if yv, ok := b.constValue(y); ok {
		if xv, ok := b.constValue(x); ok && yv != 0 {
			return b.Const(xv / yv).id
		}
	}
	return Expr{b, x}.binary(opdiv, Expr{b, y}).id
}

// subGlue builds a - b, folding the zero cases.
func (b *Builder) subGlue(x, y nodeID) nodeID {
	if b.isConst(y, 0) {
		return x
	}
	if b.isConst(x, 0) {
		return b.negGlue(y)
	}
	if xv, ok := b.constValue(x); ok {
		if yv, ok := b.constValue(y); ok {
			return b.Const(xv - yv).id
		}
	}
	return Expr{b, x}.binary(opsub, Expr{b, y}).id
}
