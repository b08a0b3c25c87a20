package problem

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/fluxionlabs/fluxion"
	"github.com/fluxionlabs/fluxion/parser"
)

const pendulumDoc = `
name: pendulum
domain: [0, 10]
variables:
  - name: u
    order: 2
equations:
  - "u'' + sin(u) = 0"
conditions:
  - {var: u, order: 0, at: 0, value: 0.5}
  - {var: u, order: 1, at: 0, value: 0}
solver:
  method: rk45
  rtol: 1.0e-6
  atol: 1.0e-9
  max_steps: 50000
output:
  points: 200
  format: csv
`

func TestDecodeFull(t *testing.T) {
	p, err := Decode(strings.NewReader(pendulumDoc))
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	want := &Problem{
		Name:      "pendulum",
		Domain:    []float64{0, 10},
		Variables: []Variable{{Name: "u", Order: 2}},
		Equations: []string{"u'' + sin(u) = 0"},
		Conditions: []Condition{
			{Var: "u", Order: 0, At: 0, Value: 0.5},
			{Var: "u", Order: 1, At: 0, Value: 0},
		},
		Solver: Solver{Method: "rk45", AbsTol: 1e-9, RelTol: 1e-6, MaxSteps: 50000},
		Output: Output{Points: 200, Format: "csv"},
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("Document mismatch (-want +got):\n%s", diff)
	}
	if t0, t1 := p.Span(); t0 != 0 || t1 != 10 {
		t.Errorf("Expected span [0, 10], got [%g, %g]", t0, t1)
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	doc := `
domain: [0, 1]
variables: [{name: u, order: 1}]
equations: ["u' = u"]
stepsize: 0.1
`
	_, err := Decode(strings.NewReader(doc))
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("Expected an invalid document, got %v", err)
	}
	if !strings.Contains(err.Error(), "stepsize") {
		t.Errorf("Expected the unknown field to be named, got %v", err)
	}
}

func TestDecodeEmpty(t *testing.T) {
	if _, err := Decode(strings.NewReader("")); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Expected an invalid document, got %v", err)
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := Decode(strings.NewReader("domain: [0, 1")); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Expected an invalid document, got %v", err)
	}
}

func validProblem() *Problem {
	return &Problem{
		Domain:    []float64{0, 1},
		Variables: []Variable{{Name: "u", Order: 2}},
		Equations: []string{"u'' + u = 0"},
		Conditions: []Condition{
			{Var: "u"},
			{Var: "u", Order: 1},
		},
	}
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(p *Problem)
	}{
		{"no variables", func(p *Problem) { p.Variables = nil; p.Equations = nil }},
		{"equation count", func(p *Problem) { p.Equations = append(p.Equations, "u' = 0") }},
		{"short domain", func(p *Problem) { p.Domain = []float64{0} }},
		{"unnamed variable", func(p *Problem) { p.Variables[0].Name = "" }},
		{"order zero", func(p *Problem) { p.Variables[0].Order = 0 }},
		{"duplicate variable", func(p *Problem) {
			p.Variables = append(p.Variables, Variable{Name: "u", Order: 1})
			p.Equations = append(p.Equations, "u' = 0")
		}},
		{"unknown condition variable", func(p *Problem) { p.Conditions[0].Var = "w" }},
		{"unknown method", func(p *Problem) { p.Solver.Method = "cranknicolson" }},
		{"negative points", func(p *Problem) { p.Output.Points = -1 }},
		{"unknown format", func(p *Problem) { p.Output.Format = "xml" }},
	}
	if err := validProblem().Validate(); err != nil {
		t.Fatalf("Baseline problem must validate, got %v", err)
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validProblem()
			tc.mutate(p)
			if err := p.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Expected an invalid document, got %v", err)
			}
		})
	}
}

func TestReduceEndToEnd(t *testing.T) {
	p, err := Decode(strings.NewReader(pendulumDoc))
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	sys, err := p.Reduce()
	if err != nil {
		t.Fatalf("Failed to reduce: %v", err)
	}
	wantEqs := []string{"x1' = x2", "x2' = -sin(x1)"}
	if diff := cmp.Diff(wantEqs, sys.Equations()); diff != "" {
		t.Errorf("Equations mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0.5, 0}, sys.Initial); diff != "" {
		t.Errorf("Initial state mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileParseError(t *testing.T) {
	p := validProblem()
	p.Equations = []string{"u'' +"}
	_, _, err := p.Compile()
	if !errors.Is(err, parser.ErrSyntax) {
		t.Fatalf("Expected a syntax error, got %v", err)
	}
}

func TestCompileBadDomain(t *testing.T) {
	p := validProblem()
	p.Domain = []float64{1, 0}
	_, _, err := p.Compile()
	if !errors.Is(err, fluxion.ErrConfigMismatch) {
		t.Fatalf("Expected a config mismatch, got %v", err)
	}
}

func TestSolverConfig(t *testing.T) {
	p := validProblem()
	p.Solver = Solver{Method: "bs32", AbsTol: 1e-8, RelTol: 1e-5, InitialStep: 0.01, MaxSteps: 500}
	cfg, err := p.SolverConfig()
	if err != nil {
		t.Fatalf("Failed to map solver settings: %v", err)
	}
	if cfg.Method == nil || cfg.Method.Name != "bs32" {
		t.Errorf("Expected bs32, got %v", cfg.Method)
	}
	if cfg.AbsTol != 1e-8 || cfg.RelTol != 1e-5 || cfg.InitialStep != 0.01 || cfg.MaxSteps != 500 {
		t.Errorf("Settings not carried over: %+v", cfg)
	}

	p.Solver = Solver{}
	cfg, err = p.SolverConfig()
	if err != nil {
		t.Fatalf("Failed to map default settings: %v", err)
	}
	if cfg.Method.Name != "rk45" {
		t.Errorf("Expected the default method, got %s", cfg.Method.Name)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pendulum.yaml")
	if err := os.WriteFile(path, []byte(pendulumDoc), 0o644); err != nil {
		t.Fatalf("Failed to write the fixture: %v", err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if p.Name != "pendulum" {
		t.Errorf("Expected the pendulum problem, got %q", p.Name)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected loading a missing file to fail")
	}
}
