// Package problem reads ODE problem documents: YAML files that declare
// variables, equations in the parser's notation, a time domain, side
// conditions and solver settings. A loaded Problem compiles into the
// inputs fluxion.Reduce and solver.Integrate expect.
package problem

import (
	"errors"
	"fmt"

	"github.com/fluxionlabs/fluxion"
	"github.com/fluxionlabs/fluxion/parser"
	"github.com/fluxionlabs/fluxion/solver"
)

// ErrInvalid marks a document that decoded but does not describe a
// usable problem.
var ErrInvalid = errors.New("problem: invalid document")

// Problem mirrors the document layout.
type Problem struct {
	Name       string      `yaml:"name"`
	Domain     []float64   `yaml:"domain"`
	Variables  []Variable  `yaml:"variables"`
	Equations  []string    `yaml:"equations"`
	Conditions []Condition `yaml:"conditions"`
	Solver     Solver      `yaml:"solver"`
	Output     Output      `yaml:"output"`
}

// Variable declares one unknown and its differential order.
type Variable struct {
	Name  string `yaml:"name"`
	Order int    `yaml:"order"`
}

// Condition pins one derivative value at one time.
type Condition struct {
	Var   string  `yaml:"var"`
	Order int     `yaml:"order"`
	At    float64 `yaml:"at"`
	Value float64 `yaml:"value"`
}

// Solver carries the integration settings. Zero values fall back to
// the solver package defaults.
type Solver struct {
	Method      string  `yaml:"method"`
	AbsTol      float64 `yaml:"atol"`
	RelTol      float64 `yaml:"rtol"`
	InitialStep float64 `yaml:"initial_step"`
	MinStep     float64 `yaml:"min_step"`
	MaxStep     float64 `yaml:"max_step"`
	MaxSteps    int     `yaml:"max_steps"`
}

// Output shapes the solve artifact.
type Output struct {
	// Points resamples the trajectory to this many uniform times.
	// Zero keeps the accepted steps.
	Points int `yaml:"points"`
	// Format is table, csv or yaml (default: table).
	Format string `yaml:"format"`
	// TimeFormat is a strftime layout for the artifact header
	// (default: %Y-%m-%d %H:%M:%S).
	TimeFormat string `yaml:"time_format"`
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate checks everything that can be checked without tracing the
// equations. Deeper problems (singular coefficients, mismatched
// conditions) surface later, from Compile and fluxion.Reduce.
func (p *Problem) Validate() error {
	if len(p.Variables) == 0 {
		return invalidf("no variables declared")
	}
	if len(p.Equations) != len(p.Variables) {
		return invalidf("%d equations for %d variables", len(p.Equations), len(p.Variables))
	}
	if len(p.Domain) < 2 {
		return invalidf("domain needs at least two points")
	}
	seen := make(map[string]bool, len(p.Variables))
	for i, v := range p.Variables {
		if v.Name == "" {
			return invalidf("variables[%d] has no name", i)
		}
		if v.Order < 1 {
			return invalidf("variables[%d] (%s) needs order 1 or higher, got %d", i, v.Name, v.Order)
		}
		if seen[v.Name] {
			return invalidf("variable %q declared twice", v.Name)
		}
		seen[v.Name] = true
	}
	for i, c := range p.Conditions {
		if !seen[c.Var] {
			return invalidf("conditions[%d] names unknown variable %q", i, c.Var)
		}
	}
	if _, ok := solver.MethodByName(p.Solver.Method); !ok {
		return invalidf("unknown solver method %q", p.Solver.Method)
	}
	if p.Output.Points < 0 {
		return invalidf("output.points must not be negative")
	}
	switch p.Output.Format {
	case "", "table", "csv", "yaml":
	default:
		return invalidf("unknown output format %q", p.Output.Format)
	}
	return nil
}

// Compile parses the equations and assembles the reduction inputs.
func (p *Problem) Compile() (fluxion.Operator, fluxion.SystemSpec, error) {
	if err := p.Validate(); err != nil {
		return nil, fluxion.SystemSpec{}, err
	}
	dom, err := fluxion.NewDomain(p.Domain...)
	if err != nil {
		return nil, fluxion.SystemSpec{}, err
	}
	vars := make([]fluxion.VarSpec, len(p.Variables))
	for i, v := range p.Variables {
		vars[i] = fluxion.VarSpec{Name: v.Name, Order: v.Order}
	}
	conds := make([]fluxion.Condition, len(p.Conditions))
	for i, c := range p.Conditions {
		conds[i] = fluxion.Condition{Var: c.Var, Order: c.Order, At: c.At, Value: c.Value}
	}
	eqs, err := parser.ParseAll(p.Equations)
	if err != nil {
		return nil, fluxion.SystemSpec{}, err
	}
	op, err := parser.Operator(eqs, vars)
	if err != nil {
		return nil, fluxion.SystemSpec{}, err
	}
	return op, fluxion.SystemSpec{Domain: dom, Vars: vars, Conditions: conds}, nil
}

// Reduce compiles and reduces in one call.
func (p *Problem) Reduce(opts ...fluxion.Options) (*fluxion.System, error) {
	op, spec, err := p.Compile()
	if err != nil {
		return nil, err
	}
	return fluxion.Reduce(op, spec, opts...)
}

// SolverConfig maps the solver settings onto a solver.Config.
func (p *Problem) SolverConfig() (solver.Config, error) {
	m, ok := solver.MethodByName(p.Solver.Method)
	if !ok {
		return solver.Config{}, invalidf("unknown solver method %q", p.Solver.Method)
	}
	return solver.Config{
		Method:      m,
		InitialStep: p.Solver.InitialStep,
		MinStep:     p.Solver.MinStep,
		MaxStep:     p.Solver.MaxStep,
		AbsTol:      p.Solver.AbsTol,
		RelTol:      p.Solver.RelTol,
		MaxSteps:    p.Solver.MaxSteps,
	}, nil
}

// Span returns the integration interval.
func (p *Problem) Span() (t0, t1 float64) {
	return p.Domain[0], p.Domain[len(p.Domain)-1]
}
