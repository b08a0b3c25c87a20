package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	yaml "github.com/itchyny/go-yaml"
	"github.com/itchyny/timefmt-go"
	"github.com/spf13/cobra"

	"github.com/fluxionlabs/fluxion"
	"github.com/fluxionlabs/fluxion/problem"
	"github.com/fluxionlabs/fluxion/solver"
)

// solveArtifact is the YAML artifact "fluxion solve --format yaml"
// writes.
type solveArtifact struct {
	Name      string      `yaml:"name"`
	RunID     string      `yaml:"run_id"`
	Generated string      `yaml:"generated"`
	Method    string      `yaml:"method"`
	Stiffness float64     `yaml:"stiffness_ratio,omitempty"`
	Steps     int         `yaml:"steps"`
	Rejected  int         `yaml:"rejected"`
	Evals     int         `yaml:"evals"`
	Columns   []string    `yaml:"columns"`
	Points    [][]float64 `yaml:"points"`
}

func newSolveCmd(optsFn func() fluxion.Options, outFn func() *output) *cobra.Command {
	var points int
	var format string
	var outPath string
	var stiffness bool

	cmd := &cobra.Command{
		Use:   "solve PROBLEM",
		Short: "Integrate the problem and emit the trajectory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := problem.Load(args[0])
			if err != nil {
				return err
			}
			sys, err := p.Reduce(optsFn())
			if err != nil {
				return describeError(err)
			}
			if sys.Initial == nil {
				return fmt.Errorf("solve needs every condition at the domain start, t=%s", formatFloat(sys.Domain.Start()))
			}
			cfg, err := p.SolverConfig()
			if err != nil {
				return err
			}
			cfg.Logger = optsFn().Logger

			t0, t1 := p.Span()
			ratio := 0.0
			if stiffness {
				ratio, err = solver.StiffnessRatio(sys.Func(), t0, sys.Initial)
				if err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			sol, err := solver.Integrate(ctx, sys.Func(), t0, t1, sys.Initial, cfg)
			if err != nil {
				return err
			}

			if points < 0 {
				points = p.Output.Points
			}
			ts, xs := resample(sol, points)
			cols := make([]string, 1+len(sys.Index))
			cols[0] = "t"
			for j, e := range sys.Index {
				cols[j+1] = slotLabel(e)
			}
			if format == "" {
				format = p.Output.Format
			}

			w := io.Writer(os.Stdout)
			colorable := true
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
				colorable = false
			}

			switch format {
			case "csv":
				return writeCSV(w, cols, ts, xs)
			case "yaml":
				art := &solveArtifact{
					Name:      p.Name,
					RunID:     uuid.NewString(),
					Generated: timestamp(p),
					Method:    cfg.Method.Name,
					Stiffness: ratio,
					Steps:     sol.Stats.Steps,
					Rejected:  sol.Stats.Rejected,
					Evals:     sol.Stats.Evals,
					Columns:   cols,
				}
				art.Points = make([][]float64, len(ts))
				for i := range ts {
					art.Points[i] = append([]float64{ts[i]}, xs[i]...)
				}
				data, err := yaml.Marshal(art)
				if err != nil {
					return err
				}
				_, err = w.Write(data)
				return err
			default:
				out := outFn()
				if !colorable {
					out = newOutput(w, false)
				}
				out.printf("%s\n", out.dim(fmt.Sprintf("# %s  run %s  %s", p.Name, uuid.NewString()[:8], timestamp(p))))
				out.printf("%s\n", out.dim(fmt.Sprintf("# method %s  steps %d  rejected %d  evals %d",
					cfg.Method.Name, sol.Stats.Steps, sol.Stats.Rejected, sol.Stats.Evals)))
				if stiffness {
					out.printf("%s\n", out.dim(fmt.Sprintf("# stiffness ratio %s", formatFloat(ratio))))
				}
				rows := make([][]string, len(ts))
				for i := range ts {
					row := make([]string, 1+len(xs[i]))
					row[0] = formatFloat(ts[i])
					for j, v := range xs[i] {
						row[j+1] = formatFloat(v)
					}
					rows[i] = row
				}
				out.table(cols, rows)
				return nil
			}
		},
	}

	cmd.Flags().IntVar(&points, "points", -1, "Resample the trajectory to this many uniform times (0 keeps the accepted steps)")
	cmd.Flags().StringVar(&format, "format", "", "Output format: table, csv or yaml")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the artifact to this file instead of stdout")
	cmd.Flags().BoolVar(&stiffness, "stiffness", false, "Estimate the Jacobian stiffness ratio at the initial state")

	return cmd
}

func timestamp(p *problem.Problem) string {
	format := p.Output.TimeFormat
	if format == "" {
		format = defaultTimeFormat
	}
	return timefmt.Format(time.Now(), format)
}

// resample lerps the trajectory onto n uniform times. n below 2 keeps
// the accepted steps.
func resample(sol *solver.Solution, n int) ([]float64, [][]float64) {
	if n < 2 || sol.Len() < 2 {
		return sol.T, sol.X
	}
	t0 := sol.T[0]
	t1 := sol.T[len(sol.T)-1]
	ts := make([]float64, n)
	xs := make([][]float64, n)
	k := 0
	for i := 0; i < n; i++ {
		tt := t0 + (t1-t0)*float64(i)/float64(n-1)
		for k+2 < len(sol.T) && sol.T[k+1] < tt {
			k++
		}
		a, b := sol.T[k], sol.T[k+1]
		w := 0.0
		if b > a {
			w = (tt - a) / (b - a)
		}
		row := make([]float64, len(sol.X[k]))
		for j := range row {
			row[j] = sol.X[k][j]*(1-w) + sol.X[k+1][j]*w
		}
		ts[i] = tt
		xs[i] = row
	}
	return ts, xs
}

func writeCSV(w io.Writer, cols []string, ts []float64, xs [][]float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	rec := make([]string, len(cols))
	for i := range ts {
		rec[0] = formatFloat(ts[i])
		for j, v := range xs[i] {
			rec[j+1] = formatFloat(v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
