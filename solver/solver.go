// Package solver steps explicit first-order systems dx = f(t, x) with
// embedded Runge-Kutta pairs. It consumes the right-hand side callbacks
// produced by the reducer but works with any Func.
package solver

import (
	"context"
	"fmt"
	"math"

	"github.com/fluxionlabs/fluxion"
)

// Func is the right-hand side of an explicit first-order system. It
// writes the derivative at (t, x) into dx; the slices never alias.
type Func func(t float64, x, dx []float64)

// Config tunes Integrate. The zero value picks RK45 with the default
// tolerances.
type Config struct {
	// Method selects the tableau. nil means RK45.
	Method *Method

	// InitialStep, if > 0, is the first step size tried. Fixed-step
	// methods use it for every step; by default they divide the
	// interval into a thousand steps.
	InitialStep float64
	// MinStep, if > 0, aborts adaptive stepping once the controller
	// falls below it.
	MinStep float64
	// MaxStep, if > 0, caps the step size.
	MaxStep float64

	AbsTol float64 // absolute tolerance per component (default: 1e-6)
	RelTol float64 // relative tolerance per component (default: 1e-3)

	// MaxSteps bounds accepted plus rejected steps (default: 100000).
	MaxSteps int

	// Logger receives start, stop and rejection diagnostics. nil means
	// silent.
	Logger fluxion.Logger
}

// Stats counts the work one integration did.
type Stats struct {
	Steps    int     // accepted steps
	Rejected int     // rejected attempts
	Evals    int     // right-hand side evaluations
	LastStep float64 // size of the last accepted step
}

// Solution is the accepted trajectory, initial state included, one row
// of X per entry of T.
type Solution struct {
	T     []float64
	X     [][]float64
	Stats Stats
}

// Len returns the number of stored points.
func (s *Solution) Len() int { return len(s.T) }

// Last returns the final time and state.
func (s *Solution) Last() (float64, []float64) {
	return s.T[len(s.T)-1], s.X[len(s.X)-1]
}

// Integrate steps f from (t0, x0) to t1 and returns the trajectory.
// The context is checked between steps, so cancellation loses at most
// one step of work. On error the partial solution computed so far is
// returned alongside it.
func Integrate(ctx context.Context, f Func, t0, t1 float64, x0 []float64, cfg Config) (*Solution, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil right-hand side", ErrConfig)
	}
	if len(x0) == 0 {
		return nil, fmt.Errorf("%w: empty initial state", ErrConfig)
	}
	if !(t1 > t0) {
		return nil, fmt.Errorf("%w: end time %g not past start time %g", ErrConfig, t1, t0)
	}
	for _, v := range x0 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: in the initial state", ErrInvalidState)
		}
	}

	m := cfg.Method
	if m == nil {
		m = RK45()
	}
	adaptive := m.Adaptive()
	abstol := cfg.AbsTol
	if abstol <= 0 {
		abstol = 1e-6
	}
	reltol := cfg.RelTol
	if reltol <= 0 {
		reltol = 1e-3
	}
	maxSteps := cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = 100000
	}
	span := t1 - t0
	h := cfg.InitialStep
	if h <= 0 {
		if adaptive {
			h = span / 100
		} else {
			h = span / 1000
		}
	}
	if cfg.MaxStep > 0 && h > cfg.MaxStep {
		h = cfg.MaxStep
	}
	minStep := cfg.MinStep
	if minStep <= 0 {
		minStep = span * 1e-14
	}

	log := cfg.Logger
	if log == nil {
		log = fluxion.NopLogger()
	}
	log = log.With(map[string]any{"method": m.Name})
	log.Debugf("integration start t0=%g t1=%g n=%d h0=%g abstol=%g reltol=%g",
		t0, t1, len(x0), h, abstol, reltol)

	n := len(x0)
	stages := m.Stages()
	k := make([][]float64, stages)
	for i := range k {
		k[i] = make([]float64, n)
	}
	x := append([]float64(nil), x0...)
	xs := make([]float64, n)
	xNew := make([]float64, n)

	sol := &Solution{
		T: []float64{t0},
		X: [][]float64{append([]float64(nil), x0...)},
	}
	t := t0

	for t < t1 {
		if ctx.Err() != nil {
			return sol, stepErr(sol.Stats.Steps, t, ErrCanceled)
		}
		if sol.Stats.Steps+sol.Stats.Rejected >= maxSteps {
			return sol, stepErr(sol.Stats.Steps, t, ErrMaxSteps)
		}
		last := t+h >= t1
		if last {
			h = t1 - t
		}

		for i := 0; i < stages; i++ {
			copy(xs, x)
			for j := 0; j < i; j++ {
				a := m.A[i][j]
				if a == 0 {
					continue
				}
				kj := k[j]
				for l := range xs {
					xs[l] += h * a * kj[l]
				}
			}
			f(t+m.C[i]*h, xs, k[i])
			sol.Stats.Evals++
		}

		for l := range xNew {
			acc := x[l]
			for i := 0; i < stages; i++ {
				if m.B[i] != 0 {
					acc += h * m.B[i] * k[i][l]
				}
			}
			xNew[l] = acc
		}
		for _, v := range xNew {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return sol, stepErr(sol.Stats.Steps, t, ErrInvalidState)
			}
		}

		if adaptive {
			sum := 0.0
			for l := 0; l < n; l++ {
				e := 0.0
				for i := 0; i < stages; i++ {
					if m.E[i] != 0 {
						e += m.E[i] * k[i][l]
					}
				}
				e *= h
				sc := abstol + reltol*math.Max(math.Abs(x[l]), math.Abs(xNew[l]))
				r := e / sc
				sum += r * r
			}
			norm := math.Sqrt(sum / float64(n))

			// standard step controller with the usual safety clamps;
			// a NaN norm means a stage blew up, treat it as a hard
			// rejection
			fac := 5.0
			if math.IsNaN(norm) {
				norm = math.Inf(1)
				fac = 0.2
			} else if norm > 0 {
				fac = 0.9 * math.Pow(norm, -1/float64(m.Order))
				fac = math.Min(5, math.Max(0.2, fac))
			}
			hNext := h * fac
			if cfg.MaxStep > 0 && hNext > cfg.MaxStep {
				hNext = cfg.MaxStep
			}

			if norm > 1 {
				sol.Stats.Rejected++
				log.Debugf("step rejected t=%g h=%g norm=%g", t, h, norm)
				if hNext < minStep {
					return sol, stepErr(sol.Stats.Steps, t, ErrStepTooSmall)
				}
				h = hNext
				continue
			}
			sol.Stats.LastStep = h
			if last {
				t = t1
			} else {
				t += h
			}
			h = hNext
		} else {
			sol.Stats.LastStep = h
			if last {
				t = t1
			} else {
				t += h
			}
		}

		copy(x, xNew)
		sol.Stats.Steps++
		sol.T = append(sol.T, t)
		sol.X = append(sol.X, append([]float64(nil), x...))
	}

	log.Debugf("integration done steps=%d rejected=%d evals=%d last_h=%g",
		sol.Stats.Steps, sol.Stats.Rejected, sol.Stats.Evals, sol.Stats.LastStep)
	return sol, nil
}
