package fluxion

import (
	"strings"

	"github.com/google/uuid"
)

// VarSpec declares one unknown of the system by name and by the
// derivative order its equation is expected to reach.
type VarSpec struct {
	Name  string
	Order int
}

// SystemSpec describes the problem handed to Reduce.
type SystemSpec struct {
	Domain     Domain
	Vars       []VarSpec
	Conditions []Condition
}

// Operator builds the residual trees of the system. It receives one
// placeholder expression per declared variable, in declaration order,
// and returns one residual per variable; residual k equals zero along
// solutions and must carry the highest derivative of variable k.
type Operator func(b *Builder, u []Expr) []Expr

// IndexEntry maps one state slot back to the derivative it stores.
type IndexEntry struct {
	Var   string
	Order int
}

// System is a reduced explicit first-order system, dx = f(t, x), ready
// for time stepping.
type System struct {
	Domain     Domain
	Vars       []VarSpec
	Index      []IndexEntry // slot -> stored derivative
	Program    *Program
	Conditions []Condition // reordered to slot order
	Initial    []float64   // nil unless every condition sits at Domain.Start()
	Coeffs     []CoeffFunc // extracted leading coefficient per equation

	b     *Builder
	roots []nodeID
}

// NumState returns the length of the first-order state vector.
func (s *System) NumState() int { return s.Program.NumState() }

// Evaluator returns a fresh evaluator over the compiled program.
func (s *System) Evaluator() *Evaluator { return NewEvaluator(s.Program) }

// Func returns the right-hand side as a plain callback for a stepper.
// The closure owns its evaluator, so each call site that needs
// concurrency should take its own.
func (s *System) Func() func(t float64, x, dx []float64) {
	ev := NewEvaluator(s.Program)
	return func(t float64, x, dx []float64) {
		ev.EvalInto(t, x, dx)
	}
}

// SlotOf returns the state index holding the order-th derivative of
// the named variable.
func (s *System) SlotOf(varName string, order int) (int, bool) {
	for j, e := range s.Index {
		if e.Var == varName && e.Order == order {
			return j, true
		}
	}
	return 0, false
}

// Equations renders the reduced system, one "xj' = ..." line per slot.
func (s *System) Equations() []string {
	out := make([]string, len(s.roots))
	for j, r := range s.roots {
		var sb strings.Builder
		sb.WriteString(slotName(j))
		sb.WriteString("' = ")
		s.b.render(&sb, r, 0)
		out[j] = sb.String()
	}
	return out
}

func (s *System) String() string {
	return strings.Join(s.Equations(), "\n")
}

// Reduce traces the operator over placeholder expressions, rewrites the
// traced trees into an explicit first-order system and compiles it.
// Every rejection it can detect happens here, before any stepping.
func Reduce(op Operator, spec SystemSpec, opts ...Options) (sys *System, err error) {
	o := DefaultOptions()
	if len(opts) > 0 {
		o = opts[0].withDefaults()
	}
	log := o.Logger.With(map[string]any{"reduce_id": uuid.NewString()[:8]})

	defer recoverError(&err)

	if op == nil {
		return nil, newErrorf(CodeConfigMismatch, "reduce", "", 0, "operator is nil")
	}
	b, err := newBuilder(spec.Domain, spec.Vars)
	if err != nil {
		return nil, err
	}
	log.Debugf("tracing operator vars=%d domain=%s", b.NumVars(), b.dom)

	u := make([]Expr, b.NumVars())
	for i := range u {
		u[i] = b.Var(i)
	}
	residuals := op(b, u)

	if len(residuals) != b.NumVars() {
		return nil, newErrorf(CodeConfigMismatch, "reduce", "", 0,
			"operator returned %d equations for %d variables", len(residuals), b.NumVars())
	}
	for k, r := range residuals {
		if r.b == nil {
			return nil, newErrorf(CodeConfigMismatch, "reduce", "", 0, "equation %d is empty", k+1)
		}
		if r.b != b {
			return nil, newErrorf(CodeConfigMismatch, "reduce", "", 0, "equation %d was built outside this reduction", k+1)
		}
		log.Debugf("traced equation %d: %s height=%d orders=%v",
			k+1, exprSummary(b, r.id, 4), r.Height(), r.DiffOrders())
	}
	if err := checkOrders(b, residuals); err != nil {
		return nil, err
	}

	lay := newLayout(b.declared)
	roots, coeffs, err := buildSystemTrees(b, residuals, lay, o.SingularTol, o.SingularSamples)
	if err != nil {
		return nil, err
	}
	log.Debugf("split complete states=%d nodes=%d", lay.total, len(b.nodes))

	prog := compileProgram(b, roots, lay.total)
	log.Debugf("compiled program instrs=%d", prog.Len())

	sorted, initial, err := sortConditions(b, spec.Conditions, lay)
	if err != nil {
		return nil, err
	}

	index := make([]IndexEntry, 0, lay.total)
	for i := range b.names {
		for d := 0; d < b.declared[i]; d++ {
			index = append(index, IndexEntry{Var: b.names[i], Order: d})
		}
	}

	sys = &System{
		Domain:     b.dom,
		Vars:       append([]VarSpec(nil), spec.Vars...),
		Index:      index,
		Program:    prog,
		Conditions: sorted,
		Initial:    initial,
		Coeffs:     coeffs,
		b:          b,
		roots:      roots,
	}
	log.Infof("reduced system vars=%d states=%d instrs=%d", b.NumVars(), lay.total, prog.Len())
	return sys, nil
}

// checkOrders verifies that each equation actually reaches the declared
// order of its own variable, and only of its own variable.
func checkOrders(b *Builder, residuals []Expr) error {
	for k := range b.names {
		m := b.declared[k]
		holder, count, reached := -1, 0, 0
		for j, r := range residuals {
			d := b.node(r.id).diffOrder[k]
			reached = max(reached, d)
			if d == m {
				holder = j
				count++
			}
		}
		if count == 0 {
			return newErrorf(CodeConfigMismatch, "reduce", b.names[k], m,
				"declared order %d but the traced equations reach only %d", m, reached)
		}
		if count > 1 {
			return newErrorf(CodeUnsupportedOperation, "reduce", b.names[k], m,
				"highest derivative %s appears in %d equations", derivName(b.names[k], m), count)
		}
		if holder != k {
			return newErrorf(CodeUnsupportedOperation, "reduce", b.names[k], m,
				"highest derivative %s sits in equation %d, want equation %d", derivName(b.names[k], m), holder+1, k+1)
		}
	}
	return nil
}
