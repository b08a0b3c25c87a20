package fluxion

// linearizer flattens rewritten trees into a register program. The memo
// is keyed on node handles, so a sub-tree shared by several equations
// is emitted once and every later reference reuses its register.
type linearizer struct {
	b    *Builder
	memo map[nodeID]int
	prog *Program
}

// compileProgram lowers one tree per state slot into a single shared
// instruction list. Every root must already be slot-based: variable
// placeholders and derivative nodes are rewritten away by the splitter
// before anything reaches this point.
func compileProgram(b *Builder, roots []nodeID, nstate int) *Program {
	p := &Program{
		nstate: nstate,
		roots:  make([]int, 0, len(roots)),
		coeffs: append([]string(nil), b.coeffs...),
	}
	l := &linearizer{b: b, memo: make(map[nodeID]int, len(b.nodes)), prog: p}
	for _, r := range roots {
		p.roots = append(p.roots, l.compile(r))
	}
	return p
}

func (l *linearizer) compile(id nodeID) int {
	if reg, ok := l.memo[id]; ok {
		return reg
	}
	n := l.b.node(id)
	var in instr
	switch n.kind {
	case kindConst:
		in = instr{op: opconst, val: n.val}
	case kindTime:
		in = instr{op: optime}
	case kindCoeff:
		in = instr{op: opcoeff, fn: n.fn, idx: n.index}
	case kindSlot:
		in = instr{op: opstate, idx: n.index}
	case kindUnary:
		in = instr{op: n.op, a: l.compile(n.left)}
	case kindBinary:
		a := l.compile(n.left)
		bReg := l.compile(n.right)
		in = instr{op: n.op, a: a, b: bReg}
	default:
		// kindVar and kindDeriv cannot survive substitution.
		panic(n.kind)
	}
	reg := len(l.prog.instrs)
	l.prog.instrs = append(l.prog.instrs, in)
	l.memo[id] = reg
	return reg
}

// scalarFunc compiles a state-free tree into a plain function of the
// independent variable. The caller guarantees depMask is zero.
func (b *Builder) scalarFunc(id nodeID) CoeffFunc {
	p := compileProgram(b, []nodeID{id}, 0)
	ev := NewEvaluator(p)
	var out [1]float64
	return func(t float64) float64 {
		ev.EvalInto(t, nil, out[:])
		return out[0]
	}
}
