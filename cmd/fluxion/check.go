package main

import (
	"github.com/spf13/cobra"

	"github.com/fluxionlabs/fluxion"
	"github.com/fluxionlabs/fluxion/problem"
)

func newCheckCmd(optsFn func() fluxion.Options, outFn func() *output) *cobra.Command {
	return &cobra.Command{
		Use:   "check PROBLEM",
		Short: "Validate a problem file and show its first-order layout",
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

			out := outFn()
			name := p.Name
			if name == "" {
				name = args[0]
			}
			out.heading(name)
			out.printf("domain %s, %d variables, %d states\n\n",
				sys.Domain, len(sys.Vars), sys.NumState())

			eqs := sys.Equations()
			rows := make([][]string, len(sys.Index))
			for j, e := range sys.Index {
				rows[j] = []string{slotName(j), slotLabel(e), eqs[j]}
			}
			out.table([]string{"SLOT", "STORES", "EQUATION"}, rows)

			out.printf("\n")
			out.heading("conditions")
			for _, c := range sys.Conditions {
				out.printf("%s\n", c)
			}
			if sys.Initial != nil {
				out.printf("\ninitial state ")
				for j, v := range sys.Initial {
					if j > 0 {
						out.printf(", ")
					}
					out.printf("x%d=%s", j+1, formatFloat(v))
				}
				out.printf("\n")
			} else {
				out.printf("\n%s\n", out.dim("conditions sit away from the domain start; no initial vector"))
			}
			return nil
		},
	}
}
