package fluxion

import "sort"

// unaryCatalog maps every elementary function name to its opcode. The
// equation parser resolves call identifiers against this table, so the
// spelled names here are the only ones accepted in equation text.
var unaryCatalog = map[string]opcode{
	"sin":  opsin,
	"cos":  opcos,
	"tan":  optan,
	"exp":  opexp,
	"log":  oplog,
	"sqrt": opsqrt,
	"abs":  opabs,
	"sinh": opsinh,
	"cosh": opcosh,
	"tanh": optanh,
	"asin": opasin,
	"acos": opacos,
	"atan": opatan,
}

// Apply applies the named elementary function to e. The boolean
// reports whether the name is in the catalog; e is returned unchanged
// when it is not.
func Apply(name string, e Expr) (Expr, bool) {
	op, ok := unaryCatalog[name]
	if !ok {
		return e, false
	}
	return e.unary(op), true
}

// UnaryNames returns the catalog's function names in sorted order.
func UnaryNames() []string {
	names := make([]string, 0, len(unaryCatalog))
	for name := range unaryCatalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
