package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	yaml "github.com/itchyny/go-yaml"
	"github.com/itchyny/timefmt-go"
	"github.com/spf13/cobra"

	"github.com/fluxionlabs/fluxion"
	"github.com/fluxionlabs/fluxion/problem"
)

const defaultTimeFormat = "%Y-%m-%d %H:%M:%S"

// reduceReport is the YAML artifact "fluxion reduce -o" writes.
type reduceReport struct {
	Name      string      `yaml:"name"`
	RunID     string      `yaml:"run_id"`
	Generated string      `yaml:"generated"`
	Domain    string      `yaml:"domain"`
	Slots     []slotEntry `yaml:"slots"`
	Equations []string    `yaml:"equations"`
	Program   []string    `yaml:"program,omitempty"`
}

type slotEntry struct {
	Slot   string `yaml:"slot"`
	Stores string `yaml:"stores"`
}

func stampReport(p *problem.Problem, sys *fluxion.System, dump bool) *reduceReport {
	format := p.Output.TimeFormat
	if format == "" {
		format = defaultTimeFormat
	}
	r := &reduceReport{
		Name:      p.Name,
		RunID:     uuid.NewString(),
		Generated: timefmt.Format(time.Now(), format),
		Domain:    sys.Domain.String(),
		Equations: sys.Equations(),
	}
	for j, e := range sys.Index {
		r.Slots = append(r.Slots, slotEntry{Slot: slotName(j), Stores: slotLabel(e)})
	}
	if dump {
		r.Program = strings.Split(strings.TrimRight(sys.Program.Disassemble(), "\n"), "\n")
	}
	return r
}

func newReduceCmd(optsFn func() fluxion.Options, outFn func() *output) *cobra.Command {
	var dump bool
	var outPath string

	cmd := &cobra.Command{
		Use:   "reduce PROBLEM",
		Short: "Print the reduced first-order system",
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

			if outPath != "" {
				data, err := yaml.Marshal(stampReport(p, sys, dump))
				if err != nil {
					return err
				}
				return os.WriteFile(outPath, data, 0o644)
			}

			out := outFn()
			for _, eq := range sys.Equations() {
				out.printf("%s\n", eq)
			}
			if dump {
				out.printf("\n")
				out.heading("program")
				out.printf("%s", sys.Program.Disassemble())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dump, "dump", false, "Include the compiled instruction listing")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write a YAML report to this file instead of stdout")

	return cmd
}

func slotName(j int) string {
	return "x" + strconv.Itoa(j+1)
}
