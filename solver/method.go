package solver

import "strings"

// Method is an explicit Runge-Kutta tableau. C holds the stage nodes,
// A the stage weights (row i uses stages below i), B the solution
// weights, and E the error weights, already formed as B minus the
// embedded lower-order row. An all-zero E marks a fixed-step method.
type Method struct {
	Name  string
	Order int
	C     []float64
	A     [][]float64
	B     []float64
	E     []float64
}

// Stages returns the number of right-hand side stages per step.
func (m *Method) Stages() int { return len(m.B) }

// Adaptive reports whether the tableau carries an error estimator.
func (m *Method) Adaptive() bool {
	for _, e := range m.E {
		if e != 0 {
			return true
		}
	}
	return false
}

// RK45 returns the Dormand-Prince 5(4) pair, the default adaptive
// method.
//
// Reference: J.R. Dormand & P.J. Prince, "A family of embedded
// Runge-Kutta formulae", Journal of Computational and Applied
// Mathematics, 6 (1980) 19-26.
func RK45() *Method {
	return &Method{
		Name:  "rk45",
		Order: 5,
		C: []float64{
			0,
			1.0 / 5.0,
			3.0 / 10.0,
			4.0 / 5.0,
			8.0 / 9.0,
			1,
			1,
		},
		A: [][]float64{
			{},
			{1.0 / 5.0},
			{3.0 / 40.0, 9.0 / 40.0},
			{44.0 / 45.0, -56.0 / 15.0, 32.0 / 9.0},
			{19372.0 / 6561.0, -25360.0 / 2187.0, 64448.0 / 6561.0, -212.0 / 729.0},
			{9017.0 / 3168.0, -355.0 / 33.0, 46732.0 / 5247.0, 49.0 / 176.0, -5103.0 / 18656.0},
			{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0},
		},
		B: []float64{
			35.0 / 384.0,
			0,
			500.0 / 1113.0,
			125.0 / 192.0,
			-2187.0 / 6784.0,
			11.0 / 84.0,
			0,
		},
		E: []float64{
			35.0/384.0 - 5179.0/57600.0,
			0,
			500.0/1113.0 - 7571.0/16695.0,
			125.0/192.0 - 393.0/640.0,
			-2187.0/6784.0 + 92097.0/339200.0,
			11.0/84.0 - 187.0/2100.0,
			-1.0 / 40.0,
		},
	}
}

// BS32 returns the Bogacki-Shampine 3(2) pair, a cheaper adaptive
// method for loose tolerances.
//
// Reference: P. Bogacki & L.F. Shampine, "A 3(2) pair of Runge-Kutta
// formulas", Appl. Math. Lett., 2 (1989) 321-325.
func BS32() *Method {
	return &Method{
		Name:  "bs32",
		Order: 3,
		C: []float64{
			0,
			0.5,
			0.75,
			1,
		},
		A: [][]float64{
			{},
			{0.5},
			{0, 0.75},
			{2.0 / 9.0, 1.0 / 3.0, 4.0 / 9.0},
		},
		B: []float64{
			2.0 / 9.0,
			1.0 / 3.0,
			4.0 / 9.0,
			0,
		},
		E: []float64{
			2.0/9.0 - 7.0/24.0,
			1.0/3.0 - 1.0/4.0,
			4.0/9.0 - 1.0/3.0,
			-1.0 / 8.0,
		},
	}
}

// RK4 returns the classic fixed-step fourth-order method.
func RK4() *Method {
	return &Method{
		Name:  "rk4",
		Order: 4,
		C: []float64{
			0,
			0.5,
			0.5,
			1,
		},
		A: [][]float64{
			{},
			{0.5},
			{0, 0.5},
			{0, 0, 1},
		},
		B: []float64{
			1.0 / 6.0,
			1.0 / 3.0,
			1.0 / 3.0,
			1.0 / 6.0,
		},
		E: []float64{0, 0, 0, 0},
	}
}

// Heun returns the two-stage second-order fixed-step method.
func Heun() *Method {
	return &Method{
		Name:  "heun",
		Order: 2,
		C: []float64{
			0,
			1,
		},
		A: [][]float64{
			{},
			{1},
		},
		B: []float64{
			0.5,
			0.5,
		},
		E: []float64{0, 0},
	}
}

// Euler returns forward Euler, useful mostly for debugging steppers.
func Euler() *Method {
	return &Method{
		Name:  "euler",
		Order: 1,
		C:     []float64{0},
		A:     [][]float64{{}},
		B:     []float64{1},
		E:     []float64{0},
	}
}

// MethodByName resolves the method names accepted in problem files.
func MethodByName(name string) (*Method, bool) {
	switch strings.ToLower(name) {
	case "", "rk45", "dopri5":
		return RK45(), true
	case "bs32":
		return BS32(), true
	case "rk4":
		return RK4(), true
	case "heun":
		return Heun(), true
	case "euler":
		return Euler(), true
	default:
		return nil, false
	}
}
