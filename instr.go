package fluxion

import (
	"fmt"
	"strings"
)

// opcode identifies both a tree-node operation and a VM instruction.
// The builder tags unary and binary nodes with one, and the linearizer
// carries it into the compiled program unchanged.
type opcode int

const (
	opconst opcode = iota
	optime
	opcoeff
	opstate

	opadd
	opsub
	opmul
	opdiv
	oppow
	opneg

	// opsin through opatan form the elementary-function range; keep
	// them contiguous.
	opsin
	opcos
	optan
	opexp
	oplog
	opsqrt
	opabs
	opsinh
	opcosh
	optanh
	opasin
	opacos
	opatan
)

func (op opcode) String() string {
	switch op {
	case opconst:
		return "const"
	case optime:
		return "time"
	case opcoeff:
		return "coeff"
	case opstate:
		return "state"
	case opadd:
		return "add"
	case opsub:
		return "sub"
	case opmul:
		return "mul"
	case opdiv:
		return "div"
	case oppow:
		return "pow"
	case opneg:
		return "neg"
	case opsin:
		return "sin"
	case opcos:
		return "cos"
	case optan:
		return "tan"
	case opexp:
		return "exp"
	case oplog:
		return "log"
	case opsqrt:
		return "sqrt"
	case opabs:
		return "abs"
	case opsinh:
		return "sinh"
	case opcosh:
		return "cosh"
	case optanh:
		return "tanh"
	case opasin:
		return "asin"
	case opacos:
		return "acos"
	case opatan:
		return "atan"
	default:
		panic(op)
	}
}

func (op opcode) isUnaryFn() bool {
	return op >= opsin && op <= opatan
}

func (op opcode) isBinary() bool {
	return op >= opadd && op <= oppow
}

// instr is one register-machine step. The destination register is the
// instruction's own index, so every value is written exactly once and
// shared sub-trees are computed exactly once.
type instr struct {
	op   opcode
	a, b int     // source registers
	val  float64 // opconst
	fn   CoeffFunc
	idx  int // opstate: state index; opcoeff: coefficient table entry
}

// Program is a compiled right-hand side. One program evaluates every
// component of dx in a single pass over the instruction list.
type Program struct {
	instrs []instr
	roots  []int // register holding dx[j], for each state slot j
	nstate int
	coeffs []string // coefficient display names, indexed by instr.idx
}

// Len returns the number of instructions.
func (p *Program) Len() int { return len(p.instrs) }

// NumState returns the length of the first-order state vector.
func (p *Program) NumState() int { return p.nstate }

// Disassemble renders the instruction list, one line per register.
func (p *Program) Disassemble() string {
	var sb strings.Builder
	for i, in := range p.instrs {
		fmt.Fprintf(&sb, "%04d  %-6s", i, in.op)
		switch in.op {
		case opconst:
			fmt.Fprintf(&sb, " %v", in.val)
		case optime:
		case opcoeff:
			fmt.Fprintf(&sb, " %s(t)", p.coeffs[in.idx])
		case opstate:
			fmt.Fprintf(&sb, " x[%d]", in.idx)
		default:
			if in.op.isBinary() {
				fmt.Fprintf(&sb, " r%d, r%d", in.a, in.b)
			} else {
				fmt.Fprintf(&sb, " r%d", in.a)
			}
		}
		sb.WriteByte('\n')
	}
	for j, r := range p.roots {
		fmt.Fprintf(&sb, "dx[%d] <- r%d\n", j, r)
	}
	return sb.String()
}
