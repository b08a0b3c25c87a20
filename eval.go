package fluxion

import (
	"fmt"
	"math"
)

// Evaluator executes a compiled program. It keeps a scratch register
// file between calls, so a single Evaluator allocates only on
// construction. It is not safe for concurrent use; hand each goroutine
// its own Clone.
type Evaluator struct {
	prog *Program
	regs []float64
}

// NewEvaluator returns an evaluator for p with its own register file.
func NewEvaluator(p *Program) *Evaluator {
	return &Evaluator{prog: p, regs: make([]float64, len(p.instrs))}
}

// Clone returns an evaluator sharing the program but not the registers.
func (e *Evaluator) Clone() *Evaluator {
	return NewEvaluator(e.prog)
}

// Program returns the compiled program this evaluator runs.
func (e *Evaluator) Program() *Program { return e.prog }

// EvalInto writes the state derivative at (t, x) into dx. Both slices
// must have the program's state length; anything else is a caller bug
// and panics.
func (e *Evaluator) EvalInto(t float64, x, dx []float64) {
	p := e.prog
	if len(x) != p.nstate {
		panic(fmt.Sprintf("fluxion: state length %d, want %d", len(x), p.nstate))
	}
	if len(dx) != len(p.roots) {
		panic(fmt.Sprintf("fluxion: output length %d, want %d", len(dx), len(p.roots)))
	}
	regs := e.regs
	for i := range p.instrs {
		in := &p.instrs[i]
		switch in.op {
		case opconst:
			regs[i] = in.val
		case optime:
			regs[i] = t
		case opcoeff:
			regs[i] = in.fn(t)
		case opstate:
			regs[i] = x[in.idx]
		case opadd:
			regs[i] = regs[in.a] + regs[in.b]
		case opsub:
			regs[i] = regs[in.a] - regs[in.b]
		case opmul:
			regs[i] = regs[in.a] * regs[in.b]
		case opdiv:
			regs[i] = regs[in.a] / regs[in.b]
		case oppow:
			regs[i] = math.Pow(regs[in.a], regs[in.b])
		case opneg:
			regs[i] = -regs[in.a]
		case opsin:
			regs[i] = math.Sin(regs[in.a])
		case opcos:
			regs[i] = math.Cos(regs[in.a])
		case optan:
			regs[i] = math.Tan(regs[in.a])
		case opexp:
			regs[i] = math.Exp(regs[in.a])
		case oplog:
			regs[i] = math.Log(regs[in.a])
		case opsqrt:
			regs[i] = math.Sqrt(regs[in.a])
		case opabs:
			regs[i] = math.Abs(regs[in.a])
		case opsinh:
			regs[i] = math.Sinh(regs[in.a])
		case opcosh:
			regs[i] = math.Cosh(regs[in.a])
		case optanh:
			regs[i] = math.Tanh(regs[in.a])
		case opasin:
			regs[i] = math.Asin(regs[in.a])
		case opacos:
			regs[i] = math.Acos(regs[in.a])
		case opatan:
			regs[i] = math.Atan(regs[in.a])
		default:
			panic(in.op)
		}
	}
	for j, r := range p.roots {
		dx[j] = regs[r]
	}
}

// Eval returns a fresh derivative vector at (t, x).
func (e *Evaluator) Eval(t float64, x []float64) []float64 {
	dx := make([]float64, len(e.prog.roots))
	e.EvalInto(t, x, dx)
	return dx
}

// EvalBatch evaluates one state per row of xs and returns one row per
// derivative. Rows share the evaluator's registers, so the calls run
// sequentially.
func (e *Evaluator) EvalBatch(ts []float64, xs [][]float64) [][]float64 {
	if len(ts) != len(xs) {
		panic(fmt.Sprintf("fluxion: %d times for %d states", len(ts), len(xs)))
	}
	out := make([][]float64, len(xs))
	for i := range xs {
		out[i] = e.Eval(ts[i], xs[i])
	}
	return out
}
