package parser

import (
	"fmt"
	"math"

	"github.com/fluxionlabs/fluxion"
)

// Operator compiles parsed equations into a callback for
// fluxion.Reduce, one equation per declared variable, in order. Every
// identifier is resolved here, before any tracing happens: names must
// be declared variables, the independent variable t, the constants pi
// and e, or (in call position) one of fluxion.UnaryNames. Unresolved
// names come back as fluxion.ErrUnsupportedOperation.
//
// Declared variables shadow t, pi and e.
func Operator(eqs []*Equation, vars []fluxion.VarSpec) (fluxion.Operator, error) {
	if len(eqs) != len(vars) {
		return nil, &fluxion.Error{
			Code:   fluxion.CodeConfigMismatch,
			Op:     "parse",
			Order:  -1,
			Detail: fmt.Sprintf("got %d equations for %d variables", len(eqs), len(vars)),
		}
	}
	c := &compiler{
		index: make(map[string]int, len(vars)),
		funcs: unaryCatalog(),
	}
	for i, v := range vars {
		c.index[v.Name] = i
	}
	for _, eq := range eqs {
		if err := c.validate(eq.root); err != nil {
			return nil, err
		}
	}
	return func(b *fluxion.Builder, u []fluxion.Expr) []fluxion.Expr {
		out := make([]fluxion.Expr, len(eqs))
		for i, eq := range eqs {
			out[i] = c.build(b, u, eq.root)
		}
		return out
	}, nil
}

type compiler struct {
	index map[string]int
	funcs map[string]bool
}

func unresolved(name, detail string) *fluxion.Error {
	return &fluxion.Error{
		Code:   fluxion.CodeUnsupportedOperation,
		Op:     "parse",
		Var:    name,
		Order:  -1,
		Detail: detail,
	}
}

func (c *compiler) validate(n *astNode) error {
	switch n.kind {
	case nodeName:
		if _, ok := c.index[n.name]; ok {
			return nil
		}
		switch n.name {
		case "t", "pi", "e":
			return nil
		}
		return unresolved(n.name, fmt.Sprintf("unknown identifier %q", n.name))
	case nodeDeriv:
		if child := n.args[0]; child.kind == nodeName {
			if _, ok := c.index[child.name]; !ok {
				return unresolved(child.name, fmt.Sprintf("cannot differentiate %q, it is not a declared variable", child.name))
			}
			return nil
		}
		// derivatives of composite expressions fall through to the
		// builder, which rejects them with the variable context
		return c.validate(n.args[0])
	case nodeCall:
		if !c.funcs[n.name] {
			return unresolved(n.name, fmt.Sprintf("unknown function %q", n.name))
		}
		return c.validate(n.args[0])
	case nodeNumber:
		return nil
	default:
		for _, arg := range n.args {
			if err := c.validate(arg); err != nil {
				return err
			}
		}
		return nil
	}
}

func (c *compiler) build(b *fluxion.Builder, u []fluxion.Expr, n *astNode) fluxion.Expr {
	switch n.kind {
	case nodeNumber:
		return b.Const(n.val)
	case nodeName:
		if i, ok := c.index[n.name]; ok {
			return u[i]
		}
		switch n.name {
		case "t":
			return b.Time()
		case "pi":
			return b.Const(math.Pi)
		case "e":
			return b.Const(math.E)
		}
		panic(fmt.Sprintf("parser: identifier %q survived validation", n.name))
	case nodeDeriv:
		return c.build(b, u, n.args[0]).Diff(n.order)
	case nodeCall:
		e, ok := fluxion.Apply(n.name, c.build(b, u, n.args[0]))
		if !ok {
			panic(fmt.Sprintf("parser: function %q survived validation", n.name))
		}
		return e
	case nodeNeg:
		return c.build(b, u, n.args[0]).Neg()
	case nodeBinary:
		l := c.build(b, u, n.args[0])
		r := c.build(b, u, n.args[1])
		switch n.op {
		case '+':
			return l.Add(r)
		case '-':
			return l.Sub(r)
		case '*':
			return l.Mul(r)
		case '/':
			return l.Div(r)
		case '^':
			return l.Pow(r)
		default:
			panic(fmt.Sprintf("parser: binary operator %q", string(n.op)))
		}
	default:
		panic(n.kind)
	}
}

func unaryCatalog() map[string]bool {
	names := fluxion.UnaryNames()
	m := make(map[string]bool, len(names))
	for _, name := range names {
		m[name] = true
	}
	return m
}
