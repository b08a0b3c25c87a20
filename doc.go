// Package fluxion turns user-written nonlinear differential operators
// into explicit first-order systems for time-stepping solvers.
//
// The operator is an ordinary Go function over placeholder expressions.
// Calling Reduce traces it into immutable syntax trees, checks the
// declared derivative orders against what the trees actually contain,
// isolates each equation's highest derivative, and rewrites everything
// onto a flat state vector whose slots hold the variables and their
// lower derivatives. The result compiles to a small register program
// evaluated as dx = f(t, x).
//
// A damped pendulum, u'' + sin(u) = 0:
//
//	sys, err := fluxion.Reduce(func(b *fluxion.Builder, u []fluxion.Expr) []fluxion.Expr {
//		return []fluxion.Expr{u[0].Diff(2).Add(fluxion.Sin(u[0]))}
//	}, fluxion.SystemSpec{
//		Domain: fluxion.Domain{0, 10},
//		Vars:   []fluxion.VarSpec{{Name: "u", Order: 2}},
//		Conditions: []fluxion.Condition{
//			{Var: "u", Order: 0, At: 0, Value: 1},
//			{Var: "u", Order: 1, At: 0, Value: 0},
//		},
//	})
//
// The reduced system has two states, x1' = x2 and x2' = -sin(x1), with
// the initial vector [1, 0] sorted from the conditions. Everything the
// reducer can reject is rejected before stepping starts; see Error and
// the Code values for the taxonomy.
package fluxion
