package fluxion

// nodeID addresses a node inside a Builder's arena. Children are stored
// as handles rather than embedded values, so a sub-tree can be shared by
// several parents (a DAG) without aliasing hazards: nodes are never
// mutated after construction.
type nodeID int32

const invalidNode nodeID = -1

// kind tags the node variant. Every construction and rewrite switches
// exhaustively over it; there is no implicit coercion between variants.
type kind uint8

const (
	kindConst kind = iota // external numeric value
	kindTime              // the independent variable
	kindCoeff             // external coefficient function of the independent variable
	kindVar               // base-variable placeholder leaf
	kindSlot              // auxiliary state-slot reference, introduced by the splitter
	kindUnary             // elementary function application
	kindBinary            // arithmetic over two children
	kindDeriv             // derivative of the child by an accumulated order
)

func (k kind) String() string {
	switch k {
	case kindConst:
		return "const"
	case kindTime:
		return "time"
	case kindCoeff:
		return "coeff"
	case kindVar:
		return "var"
	case kindSlot:
		return "slot"
	case kindUnary:
		return "unary"
	case kindBinary:
		return "binary"
	case kindDeriv:
		return "deriv"
	default:
		panic(k)
	}
}

// node is one immutable arena entry.
//
// Metadata invariants:
//   - len(diffOrder) equals the registry size for every node in the arena
//   - depMask bit i is set iff base variable i contributes to the value
//   - height is 0 for leaves and 1+max(children) otherwise
//   - dom is the union of the children's breakpoint lists (nil when
//     unconstrained)
type node struct {
	kind kind

	op    opcode    // kindUnary, kindBinary
	left  nodeID    // child for unary/deriv, left operand for binary
	right nodeID    // right operand for binary
	val   float64   // kindConst
	fn    CoeffFunc // kindCoeff
	index int       // kindVar: registry index; kindSlot: state-slot index
	order int       // kindDeriv: order added by this node

	diffOrder []int
	depMask   uint64
	height    int
	dom       Domain
}

// maxVars bounds the registry so the dependency mask fits one word.
const maxVars = 64

// add appends a node and returns its handle. The arena only grows;
// handles stay valid for the lifetime of the Builder.
func (b *Builder) add(n node) nodeID {
	b.nodes = append(b.nodes, n)
	return nodeID(len(b.nodes) - 1)
}

func (b *Builder) node(id nodeID) *node {
	return &b.nodes[id]
}

// maxOrders returns the component-wise maximum of two diff-order
// vectors, reusing a when it already dominates b.
func maxOrders(a, b []int) []int {
	dominates := true
	for i := range a {
		if b[i] > a[i] {
			dominates = false
			break
		}
	}
	if dominates {
		return a
	}
	out := make([]int, len(a))
	for i := range a {
		out[i] = a[i]
		if b[i] > out[i] {
			out[i] = b[i]
		}
	}
	return out
}

// addToMasked returns a copy of orders with k added to every entry
// selected by mask.
func addToMasked(orders []int, mask uint64, k int) []int {
	out := make([]int, len(orders))
	copy(out, orders)
	for i := range out {
		if mask&(1<<uint(i)) != 0 {
			out[i] += k
		}
	}
	return out
}
