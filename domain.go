package fluxion

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Domain is an ordered breakpoint list [a, p1, ..., pk, b] describing
// the integration interval and any interior points a coefficient is
// only piecewise-smooth across. A nil Domain means "unconstrained";
// tree nodes built from constants alone carry nil and adopt whatever
// interval the surrounding expression imposes.
type Domain []float64

// NewDomain validates and returns a domain over the given breakpoints.
func NewDomain(points ...float64) (Domain, error) {
	d := Domain(points)
	if err := d.validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d Domain) validate() error {
	if len(d) < 2 {
		return newErrorf(CodeConfigMismatch, "domain", "", 0, "domain needs at least two breakpoints, got %d", len(d))
	}
	for i, p := range d {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return newErrorf(CodeConfigMismatch, "domain", "", 0, "breakpoint %d is not finite", i)
		}
		if i > 0 && p <= d[i-1] {
			return newErrorf(CodeConfigMismatch, "domain", "", 0, "breakpoints must strictly increase, got %g before %g", d[i-1], p)
		}
	}
	return nil
}

// Start returns the left endpoint.
func (d Domain) Start() float64 { return d[0] }

// End returns the right endpoint.
func (d Domain) End() float64 { return d[len(d)-1] }

// Contains reports whether t lies inside the interval, endpoints
// included.
func (d Domain) Contains(t float64) bool {
	return len(d) >= 2 && t >= d[0] && t <= d[len(d)-1]
}

func (d Domain) String() string {
	parts := make([]string, len(d))
	for i, p := range d {
		parts[i] = fmt.Sprintf("%g", p)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// unionDomains merges the breakpoint lists of two operands. Either side
// may be nil. Both sides constrained to different endpoints is a
// configuration error; the op name travels with it so the message can
// say which combination was rejected.
func unionDomains(op string, a, b Domain) (Domain, error) {
	if a == nil {
		return b, nil
	}
	if b == nil {
		return a, nil
	}
	if a.Start() != b.Start() || a.End() != b.End() {
		return nil, newErrorf(CodeConfigMismatch, op, "", 0,
			"operands live on different domains %s and %s", a, b)
	}
	merged := make([]float64, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	sort.Float64s(merged)
	out := merged[:1]
	for _, p := range merged[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out, nil
}
