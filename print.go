package fluxion

import (
	"fmt"
	"strconv"
	"strings"
)

// Rendering precedence, loosest binding first. Parentheses appear
// exactly where re-parsing the text would otherwise regroup it.
const (
	precAdd = iota + 1
	precMul
	precNeg
	precPow
	precAtom
)

func opPrec(op opcode) int {
	switch op {
	case opadd, opsub:
		return precAdd
	case opmul, opdiv:
		return precMul
	case oppow:
		return precPow
	default:
		return precAtom
	}
}

func opSymbol(op opcode) string {
	switch op {
	case opadd:
		return " + "
	case opsub:
		return " - "
	case opmul:
		return "*"
	case opdiv:
		return "/"
	case oppow:
		return "^"
	default:
		panic(op)
	}
}

// String renders the expression as infix text. Derivatives print with
// prime marks up to order three and as diff(u, k) beyond that.
func (e Expr) String() string {
	if e.b == nil {
		return "<nil>"
	}
	var sb strings.Builder
	e.b.render(&sb, e.id, 0)
	return sb.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// derivName spells the k-th derivative of name.
func derivName(name string, k int) string {
	if k <= 3 {
		return name + strings.Repeat("'", k)
	}
	return fmt.Sprintf("diff(%s, %d)", name, k)
}

// slotName spells auxiliary state slot j, one-based.
func slotName(j int) string {
	return "x" + strconv.Itoa(j+1)
}

func (b *Builder) render(sb *strings.Builder, id nodeID, parent int) {
	n := b.node(id)
	switch n.kind {
	case kindConst:
		if n.val < 0 && parent > precAdd {
			sb.WriteByte('(')
			sb.WriteString(formatFloat(n.val))
			sb.WriteByte(')')
			return
		}
		sb.WriteString(formatFloat(n.val))
	case kindTime:
		sb.WriteByte('t')
	case kindCoeff:
		sb.WriteString(b.coeffs[n.index])
		sb.WriteString("(t)")
	case kindVar:
		sb.WriteString(b.names[n.index])
	case kindSlot:
		sb.WriteString(slotName(n.index))
	case kindDeriv:
		sb.WriteString(derivName(b.names[n.index], n.order))
	case kindUnary:
		if n.op == opneg {
			// unary minus binds like subtraction, so anything
			// tighter around it needs the parentheses
			open := parent > precAdd
			if open {
				sb.WriteByte('(')
			}
			sb.WriteByte('-')
			b.render(sb, n.left, precNeg)
			if open {
				sb.WriteByte(')')
			}
			return
		}
		sb.WriteString(n.op.String())
		sb.WriteByte('(')
		b.render(sb, n.left, 0)
		sb.WriteByte(')')
	case kindBinary:
		prec := opPrec(n.op)
		open := parent > prec
		if open {
			sb.WriteByte('(')
		}
		// pow groups right, the others left
		if n.op == oppow {
			b.render(sb, n.left, prec+1)
			sb.WriteString(opSymbol(n.op))
			b.render(sb, n.right, prec)
		} else {
			b.render(sb, n.left, prec)
			sb.WriteString(opSymbol(n.op))
			b.render(sb, n.right, prec+1)
		}
		if open {
			sb.WriteByte(')')
		}
	default:
		panic(n.kind)
	}
}
