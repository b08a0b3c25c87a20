package fluxion

import (
	"errors"
	"math"
	"testing"
)

func splitStrings(t *testing.T, b *Builder, e Expr, k, m int) (string, string) {
	t.Helper()
	coeff, rest := splitLeading(b, e.id, k, m)
	return Expr{b, coeff}.String(), Expr{b, rest}.String()
}

func TestSplitLeading(t *testing.T) {
	b := testBuilder(t, VarSpec{Name: "u", Order: 2}, VarSpec{Name: "v", Order: 1})
	u, v := b.Var(0), b.Var(1)

	cases := []struct {
		name  string
		expr  Expr
		coeff string
		rest  string
	}{
		{"bare leading", u.Diff(2), "1", "0"},
		{"with forcing", u.Diff(2).Add(Sin(u)), "1", "sin(u)"},
		{"constant factor", u.Diff(2).MulConst(2).Sub(v), "2", "-v"},
		{"negated", u.Diff(2).Neg().Add(u), "-1", "u"},
		{"time factor", b.Time().Mul(u.Diff(2)).Add(u.Diff(1)), "t", "u'"},
		{"divided", u.Diff(2).DivConst(4).Sub(u), "0.25", "-u"},
		{"spread", u.Diff(2).Add(u.Diff(2).MulConst(2)), "3", "0"},
		{"lower orders untouched", u.Diff(2).Add(u.Diff(1).Mul(v)), "1", "u'*v"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			coeff, rest := splitStrings(t, b, tc.expr, 0, 2)
			if coeff != tc.coeff {
				t.Errorf("Expected coefficient %q, got %q", tc.coeff, coeff)
			}
			if rest != tc.rest {
				t.Errorf("Expected rest %q, got %q", tc.rest, rest)
			}
		})
	}
}

func TestSplitLeadingInseparable(t *testing.T) {
	b := testBuilder(t)
	u := b.Var(0)

	cases := []struct {
		name string
		fn   func()
	}{
		{"inside function", func() { splitLeading(b, Sin(u.Diff(2)).id, 0, 2) }},
		{"squared", func() { splitLeading(b, u.Diff(2).Mul(u.Diff(2)).id, 0, 2) }},
		{"power", func() { splitLeading(b, u.Diff(2).PowConst(2).id, 0, 2) }},
		{"denominator", func() { splitLeading(b, b.Const(1).Div(u.Diff(2)).id, 0, 2) }},
		{"product with itself", func() { splitLeading(b, u.Diff(2).Mul(u.Diff(2).AddConst(1)).id, 0, 2) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := capture(tc.fn)
			if !errors.Is(err, ErrUnsupportedOperation) {
				t.Errorf("Expected unsupported operation, got %v", err)
			}
			var e *Error
			if errors.As(err, &e) && e.Var != "u" {
				t.Errorf("Expected the error to name u, got %q", e.Var)
			}
		})
	}
}

func TestCheckCoefficient(t *testing.T) {
	b := testBuilder(t)
	u := b.Var(0)

	// c(t) = 2 + t stays clear of zero on [0, 1]
	coeff, _ := splitLeading(b, b.Time().AddConst(2).Mul(u.Diff(2)).id, 0, 2)
	fn, err := checkCoefficient(b, coeff, 0, 2, 1e-12, 65)
	if err != nil {
		t.Fatalf("Failed to accept a regular coefficient: %v", err)
	}
	if got := fn(0.5); math.Abs(got-2.5) > 1e-15 {
		t.Errorf("Expected coefficient 2.5 at t=0.5, got %g", got)
	}
}

func TestCheckCoefficientVanishing(t *testing.T) {
	b := testBuilder(t)
	u := b.Var(0)

	// t - 0.5 crosses zero inside the domain
	coeff, _ := splitLeading(b, b.Time().SubConst(0.5).Mul(u.Diff(2)).id, 0, 2)
	_, err := checkCoefficient(b, coeff, 0, 2, 1e-12, 65)
	if !errors.Is(err, ErrSingularLeadingCoefficient) {
		t.Fatalf("Expected singular leading coefficient, got %v", err)
	}
}

func TestCheckCoefficientStateDependent(t *testing.T) {
	b := testBuilder(t)
	u := b.Var(0)

	coeff, _ := splitLeading(b, u.Mul(u.Diff(2)).id, 0, 2)
	_, err := checkCoefficient(b, coeff, 0, 2, 1e-12, 65)
	if !errors.Is(err, ErrSingularLeadingCoefficient) {
		t.Fatalf("Expected singular leading coefficient, got %v", err)
	}
}

func TestCheckCoefficientIdenticallyZero(t *testing.T) {
	b := testBuilder(t)
	u := b.Var(0)

	coeff, _ := splitLeading(b, u.Diff(2).MulConst(0).Add(u.Diff(2).MulConst(0)).id, 0, 2)
	_, err := checkCoefficient(b, coeff, 0, 2, 1e-12, 65)
	if !errors.Is(err, ErrSingularLeadingCoefficient) {
		t.Fatalf("Expected singular leading coefficient, got %v", err)
	}
}
