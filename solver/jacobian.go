package solver

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// Jacobian estimates df/dx at (t, x) with central finite differences.
func Jacobian(f Func, t float64, x []float64) *mat.Dense {
	n := len(x)
	jac := mat.NewDense(n, n, nil)
	fd.Jacobian(jac, func(dst, xv []float64) {
		f(t, xv, dst)
	}, x, &fd.JacobianSettings{Formula: fd.Central})
	return jac
}

// StiffnessRatio returns the spread of the Jacobian spectrum at (t, x),
// the largest eigenvalue magnitude over the smallest one that is not
// numerically zero. Ratios of a few thousand and up suggest the
// explicit methods here will crawl and the problem wants an implicit
// stepper.
func StiffnessRatio(f Func, t float64, x []float64) (float64, error) {
	jac := Jacobian(f, t, x)

	var eig mat.Eigen
	if ok := eig.Factorize(jac, mat.EigenNone); !ok {
		return 0, fmt.Errorf("solver: eigenvalue factorization failed at t=%g", t)
	}
	vals := eig.Values(nil)

	maxMag := 0.0
	for _, v := range vals {
		maxMag = math.Max(maxMag, cmplx.Abs(v))
	}
	if maxMag == 0 {
		return 1, nil
	}
	minMag := math.Inf(1)
	for _, v := range vals {
		mag := cmplx.Abs(v)
		if mag > 1e-12*maxMag {
			minMag = math.Min(minMag, mag)
		}
	}
	if math.IsInf(minMag, 1) {
		return 1, nil
	}
	return maxMag / minMag, nil
}
