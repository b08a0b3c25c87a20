// Package parser reads differential equations written as text, such as
// "u'' + sin(u) = 0", and compiles them into tracing callbacks for
// fluxion.Reduce.
//
// The grammar covers arithmetic with the usual precedence, prime
// derivatives (u'', also spelled diff(u, 2)), calls to the elementary
// functions the engine evaluates, parentheses, and an optional "=" that
// moves the right-hand side over to form a residual. The independent
// variable is t; pi and e name the obvious constants. Identifier
// resolution happens in Operator, against the declared variables, so a
// parsed Equation is reusable across systems.
package parser

import (
	"math"
	"strconv"
)

type nodeKind uint8

const (
	nodeNumber nodeKind = iota + 1
	nodeName
	nodeDeriv
	nodeCall
	nodeNeg
	nodeBinary
)

// astNode is one vertex of the parse tree. Only the fields its kind
// needs are set: val for numbers, name for identifiers and calls,
// order for derivatives, op for binary operators.
type astNode struct {
	kind  nodeKind
	op    byte
	name  string
	val   float64
	order int
	args  []*astNode
	pos   int
}

// Equation is one parsed equation in residual form: when the source
// contained "lhs = rhs" the tree encodes lhs - rhs, so a root that
// evaluates to zero satisfies the equation.
type Equation struct {
	Src  string
	root *astNode
}

func (e *Equation) String() string { return e.Src }

// Parse reads a single equation. Syntax problems come back as a
// *ParseError unwrapping to ErrSyntax.
func Parse(src string) (*Equation, error) {
	toks, err := lexAll(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	lhs, err := p.expr()
	if err != nil {
		return nil, err
	}
	root := lhs
	if p.peek().kind == tokEquals {
		eq := p.next()
		rhs, err := p.expr()
		if err != nil {
			return nil, err
		}
		root = &astNode{kind: nodeBinary, op: '-', args: []*astNode{lhs, rhs}, pos: eq.pos}
	}
	if tok := p.next(); tok.kind != tokEOF {
		return nil, syntaxErrf(src, tok.pos, "unexpected %s after the equation", tok.describe())
	}
	return &Equation{Src: src, root: root}, nil
}

// ParseAll reads one equation per source string.
func ParseAll(srcs []string) ([]*Equation, error) {
	eqs := make([]*Equation, len(srcs))
	for i, src := range srcs {
		eq, err := Parse(src)
		if err != nil {
			return nil, err
		}
		eqs[i] = eq
	}
	return eqs, nil
}

type parser struct {
	src  string
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(k tokKind) (token, error) {
	tok := p.next()
	if tok.kind != k {
		return tok, syntaxErrf(p.src, tok.pos, "expected %s, found %s", k, tok.describe())
	}
	return tok, nil
}

// expr := term (('+'|'-') term)*
func (p *parser) expr() (*astNode, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokPlus && tok.kind != tokMinus {
			return left, nil
		}
		p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = &astNode{kind: nodeBinary, op: tok.text[0], args: []*astNode{left, right}, pos: tok.pos}
	}
}

// term := unary (('*'|'/') unary)*
func (p *parser) term() (*astNode, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokStar && tok.kind != tokSlash {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &astNode{kind: nodeBinary, op: tok.text[0], args: []*astNode{left, right}, pos: tok.pos}
	}
}

// unary := '-' unary | power. Minus binds looser than '^', so -u^2
// reads as -(u^2).
func (p *parser) unary() (*astNode, error) {
	if tok := p.peek(); tok.kind == tokMinus {
		p.next()
		child, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &astNode{kind: nodeNeg, args: []*astNode{child}, pos: tok.pos}, nil
	}
	return p.power()
}

// power := postfix ('^' unary)?, grouping to the right.
func (p *parser) power() (*astNode, error) {
	base, err := p.postfix()
	if err != nil {
		return nil, err
	}
	tok := p.peek()
	if tok.kind != tokCaret {
		return base, nil
	}
	p.next()
	exp, err := p.unary()
	if err != nil {
		return nil, err
	}
	return &astNode{kind: nodeBinary, op: '^', args: []*astNode{base, exp}, pos: tok.pos}, nil
}

// postfix := primary ("'")*
func (p *parser) postfix() (*astNode, error) {
	e, err := p.primary()
	if err != nil {
		return nil, err
	}
	order := 0
	pos := 0
	for p.peek().kind == tokPrime {
		tok := p.next()
		if order == 0 {
			pos = tok.pos
		}
		order++
	}
	if order > 0 {
		e = &astNode{kind: nodeDeriv, order: order, args: []*astNode{e}, pos: pos}
	}
	return e, nil
}

// primary := NUMBER | IDENT | IDENT '(' args ')' | '(' expr ')'
func (p *parser) primary() (*astNode, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, syntaxErrf(p.src, tok.pos, "bad number %q", tok.text)
		}
		return &astNode{kind: nodeNumber, val: v, pos: tok.pos}, nil
	case tokIdent:
		if p.peek().kind != tokLParen {
			return &astNode{kind: nodeName, name: tok.text, pos: tok.pos}, nil
		}
		p.next()
		if tok.text == "diff" {
			return p.diffCall(tok)
		}
		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		if comma := p.peek(); comma.kind == tokComma {
			return nil, syntaxErrf(p.src, comma.pos, "%s takes one argument", tok.text)
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return &astNode{kind: nodeCall, name: tok.text, args: []*astNode{arg}, pos: tok.pos}, nil
	case tokLParen:
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, syntaxErrf(p.src, tok.pos, "expected a value, found %s", tok.describe())
	}
}

// diffCall parses the tail of "diff(expr, order)". The opening paren
// is already consumed.
func (p *parser) diffCall(name token) (*astNode, error) {
	arg, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokComma); err != nil {
		return nil, err
	}
	ordTok, err := p.expect(tokNumber)
	if err != nil {
		return nil, err
	}
	ord, err := strconv.ParseFloat(ordTok.text, 64)
	if err != nil || ord < 1 || ord != math.Trunc(ord) {
		return nil, syntaxErrf(p.src, ordTok.pos, "derivative order must be a positive integer, found %q", ordTok.text)
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	return &astNode{kind: nodeDeriv, order: int(ord), args: []*astNode{arg}, pos: name.pos}, nil
}
