package fluxion

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func pendulumSpec() SystemSpec {
	return SystemSpec{
		Domain: Domain{0, 10},
		Vars:   []VarSpec{{Name: "u", Order: 2}},
		Conditions: []Condition{
			{Var: "u", Order: 0, At: 0, Value: 1},
			{Var: "u", Order: 1, At: 0, Value: 0},
		},
	}
}

func pendulumOperator(b *Builder, u []Expr) []Expr {
	return []Expr{u[0].Diff(2).Add(Sin(u[0]))}
}

func TestReducePendulum(t *testing.T) {
	sys, err := Reduce(pendulumOperator, pendulumSpec())
	if err != nil {
		t.Fatalf("Failed to reduce the pendulum: %v", err)
	}

	if sys.NumState() != 2 {
		t.Fatalf("Expected 2 states, got %d", sys.NumState())
	}
	want := []string{"x1' = x2", "x2' = -sin(x1)"}
	if diff := cmp.Diff(want, sys.Equations()); diff != "" {
		t.Errorf("Equations mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{1, 0}, sys.Initial); diff != "" {
		t.Errorf("Initial state mismatch (-want +got):\n%s", diff)
	}
	wantIndex := []IndexEntry{{Var: "u", Order: 0}, {Var: "u", Order: 1}}
	if diff := cmp.Diff(wantIndex, sys.Index); diff != "" {
		t.Errorf("Index mismatch (-want +got):\n%s", diff)
	}

	dx := sys.Evaluator().Eval(0, []float64{1, 0})
	if dx[0] != 0 || dx[1] != -math.Sin(1) {
		t.Errorf("Expected dx [0, -sin(1)], got %v", dx)
	}
}

func TestReduceCoupledSystem(t *testing.T) {
	// u'' + v = 1 and u + v' = t, reduced onto three slots
	op := func(b *Builder, u []Expr) []Expr {
		return []Expr{
			u[0].Diff(2).Add(u[1]).SubConst(1),
			u[0].Add(u[1].Diff(1)).Sub(b.Time()),
		}
	}
	sys, err := Reduce(op, SystemSpec{
		Domain: Domain{0, 1},
		Vars:   []VarSpec{{Name: "u", Order: 2}, {Name: "v", Order: 1}},
		Conditions: []Condition{
			{Var: "u", Order: 0, At: 0, Value: 0},
			{Var: "u", Order: 1, At: 0, Value: 0},
			{Var: "v", Order: 0, At: 0, Value: 2},
		},
	})
	if err != nil {
		t.Fatalf("Failed to reduce the coupled system: %v", err)
	}

	if sys.NumState() != 3 {
		t.Fatalf("Expected 3 states, got %d", sys.NumState())
	}
	want := []string{"x1' = x2", "x2' = -(x3 - 1)", "x3' = -(x1 - t)"}
	if diff := cmp.Diff(want, sys.Equations()); diff != "" {
		t.Errorf("Equations mismatch (-want +got):\n%s", diff)
	}
	for k, fn := range sys.Coeffs {
		if got := fn(0.3); got != 1 {
			t.Errorf("Expected unit leading coefficient in equation %d, got %g", k+1, got)
		}
	}
	if diff := cmp.Diff([]float64{0, 0, 2}, sys.Initial); diff != "" {
		t.Errorf("Initial state mismatch (-want +got):\n%s", diff)
	}

	// dx at t=0.25, x=(3, 7, 2): x2, 1-x3, t-x1
	dx := sys.Evaluator().Eval(0.25, []float64{3, 7, 2})
	if diff := cmp.Diff([]float64{7, -1, -2.75}, dx); diff != "" {
		t.Errorf("Derivative mismatch (-want +got):\n%s", diff)
	}
}

func TestReduceConstantLeadingCoefficient(t *testing.T) {
	// 2u'' + u = 0
	op := func(b *Builder, u []Expr) []Expr {
		return []Expr{u[0].Diff(2).MulConst(2).Add(u[0])}
	}
	sys, err := Reduce(op, pendulumSpec())
	if err != nil {
		t.Fatalf("Failed to reduce: %v", err)
	}
	if got := sys.Coeffs[0](5); got != 2 {
		t.Errorf("Expected leading coefficient 2, got %g", got)
	}
	dx := sys.Evaluator().Eval(0, []float64{3, 5})
	if diff := cmp.Diff([]float64{5, -1.5}, dx); diff != "" {
		t.Errorf("Derivative mismatch (-want +got):\n%s", diff)
	}
}

func TestReduceTimeDependentCoefficient(t *testing.T) {
	// (1 + t^2) u'' = 1
	op := func(b *Builder, u []Expr) []Expr {
		c := b.Coeff("c", func(t float64) float64 { return 1 + t*t })
		return []Expr{c.Mul(u[0].Diff(2)).SubConst(1)}
	}
	sys, err := Reduce(op, pendulumSpec())
	if err != nil {
		t.Fatalf("Failed to reduce: %v", err)
	}
	if got := sys.Coeffs[0](2); got != 5 {
		t.Errorf("Expected leading coefficient 5 at t=2, got %g", got)
	}
	dx := sys.Evaluator().Eval(1, []float64{0, 0})
	if math.Abs(dx[1]-0.5) > 1e-15 {
		t.Errorf("Expected dx2 = 0.5 at t=1, got %g", dx[1])
	}
}

func TestReduceSharesSubtrees(t *testing.T) {
	// sin(u) appears three times but must compile once
	op := func(b *Builder, u []Expr) []Expr {
		s := Sin(u[0])
		return []Expr{u[0].Diff(2).Add(s.Mul(s)).Add(s)}
	}
	sys, err := Reduce(op, pendulumSpec())
	if err != nil {
		t.Fatalf("Failed to reduce: %v", err)
	}
	sins := 0
	for _, in := range sys.Program.instrs {
		if in.op == opsin {
			sins++
		}
	}
	if sins != 1 {
		t.Errorf("Expected one sin instruction, got %d", sins)
	}
}

func TestReduceErrors(t *testing.T) {
	spec2 := SystemSpec{
		Domain: Domain{0, 1},
		Vars:   []VarSpec{{Name: "u", Order: 2}, {Name: "v", Order: 2}},
		Conditions: []Condition{
			{Var: "u", Order: 0}, {Var: "u", Order: 1},
			{Var: "v", Order: 0}, {Var: "v", Order: 1},
		},
	}
	cases := []struct {
		name string
		op   Operator
		spec SystemSpec
		want error
	}{
		{
			"nil operator",
			nil,
			pendulumSpec(),
			ErrConfigMismatch,
		},
		{
			"equation count",
			func(b *Builder, u []Expr) []Expr { return nil },
			pendulumSpec(),
			ErrConfigMismatch,
		},
		{
			"order never reached",
			func(b *Builder, u []Expr) []Expr { return []Expr{u[0].Diff(1).Add(u[0])} },
			pendulumSpec(),
			ErrConfigMismatch,
		},
		{
			"leading in wrong equation",
			func(b *Builder, u []Expr) []Expr {
				return []Expr{u[1].Diff(2).Add(u[0]), u[0].Diff(2).Add(u[1])}
			},
			spec2,
			ErrUnsupportedOperation,
		},
		{
			"leading in two equations",
			func(b *Builder, u []Expr) []Expr {
				return []Expr{u[0].Diff(2).Add(u[1].Diff(2)), u[1].Diff(2).Sub(u[0])}
			},
			spec2,
			ErrUnsupportedOperation,
		},
		{
			"nonlinear leading",
			func(b *Builder, u []Expr) []Expr { return []Expr{Exp(u[0].Diff(2)).Sub(u[0])} },
			pendulumSpec(),
			ErrUnsupportedOperation,
		},
		{
			"state-dependent coefficient",
			func(b *Builder, u []Expr) []Expr { return []Expr{u[0].Mul(u[0].Diff(2)).AddConst(1)} },
			pendulumSpec(),
			ErrSingularLeadingCoefficient,
		},
		{
			"vanishing coefficient",
			func(b *Builder, u []Expr) []Expr { return []Expr{b.Time().Mul(u[0].Diff(2)).Add(u[0])} },
			SystemSpec{
				Domain: Domain{0, 1},
				Vars:   []VarSpec{{Name: "u", Order: 2}},
				Conditions: []Condition{
					{Var: "u", Order: 0}, {Var: "u", Order: 1},
				},
			},
			ErrSingularLeadingCoefficient,
		},
		{
			"missing conditions",
			pendulumOperator,
			SystemSpec{
				Domain:     Domain{0, 10},
				Vars:       []VarSpec{{Name: "u", Order: 2}},
				Conditions: []Condition{{Var: "u", Order: 0, Value: 1}},
			},
			ErrUnderOrOverDeterminedConditions,
		},
		{
			"duplicate condition",
			pendulumOperator,
			SystemSpec{
				Domain: Domain{0, 10},
				Vars:   []VarSpec{{Name: "u", Order: 2}},
				Conditions: []Condition{
					{Var: "u", Order: 0, Value: 1},
					{Var: "u", Order: 0, Value: 2},
				},
			},
			ErrUnderOrOverDeterminedConditions,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Reduce(tc.op, tc.spec)
			if !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestReduceDiagnosticIdentity(t *testing.T) {
	op := func(b *Builder, u []Expr) []Expr {
		return []Expr{Tanh(u[0].Diff(2)).Add(u[0])}
	}
	_, err := Reduce(op, pendulumSpec())
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("Expected *Error, got %v", err)
	}
	if e.Var != "u" || e.Order != 2 {
		t.Errorf("Expected the error to carry u at order 2, got %q at %d", e.Var, e.Order)
	}
	if e.Op != "tanh" {
		t.Errorf("Expected the trapping operation tanh, got %q", e.Op)
	}
	if e.Code != CodeUnsupportedOperation {
		t.Errorf("Expected CodeUnsupportedOperation, got %v", e.Code)
	}
}

func TestReduceSlotOf(t *testing.T) {
	op := func(b *Builder, u []Expr) []Expr {
		return []Expr{
			u[0].Diff(3).Add(u[1]),
			u[1].Diff(1).Sub(u[0]),
		}
	}
	sys, err := Reduce(op, SystemSpec{
		Domain: Domain{0, 1},
		Vars:   []VarSpec{{Name: "u", Order: 3}, {Name: "v", Order: 1}},
		Conditions: []Condition{
			{Var: "u", Order: 0}, {Var: "u", Order: 1}, {Var: "u", Order: 2},
			{Var: "v", Order: 0},
		},
	})
	if err != nil {
		t.Fatalf("Failed to reduce: %v", err)
	}
	for _, tc := range []struct {
		v    string
		d    int
		slot int
	}{
		{"u", 0, 0}, {"u", 1, 1}, {"u", 2, 2}, {"v", 0, 3},
	} {
		got, ok := sys.SlotOf(tc.v, tc.d)
		if !ok || got != tc.slot {
			t.Errorf("SlotOf(%s, %d): expected %d, got %d ok=%v", tc.v, tc.d, tc.slot, got, ok)
		}
	}
	if _, ok := sys.SlotOf("u", 3); ok {
		t.Error("SlotOf must not resolve the leading derivative")
	}
	if _, ok := sys.SlotOf("w", 0); ok {
		t.Error("SlotOf must not resolve unknown variables")
	}
}
