package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"

	"github.com/fluxionlabs/fluxion"
)

// output writes human-facing text, with ANSI color when the sink is a
// terminal and color was not switched off.
type output struct {
	w     io.Writer
	color bool
}

func newOutput(w io.Writer, wantColor bool) *output {
	color := false
	if f, ok := w.(*os.File); ok && wantColor {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &output{w: w, color: color}
}

func (o *output) printf(format string, args ...any) {
	fmt.Fprintf(o.w, format, args...)
}

func (o *output) heading(s string) {
	if o.color {
		fmt.Fprintf(o.w, "\x1b[1m%s\x1b[0m\n", s)
		return
	}
	fmt.Fprintln(o.w, s)
}

func (o *output) dim(s string) string {
	if o.color {
		return "\x1b[2m" + s + "\x1b[0m"
	}
	return s
}

// table renders rows under headers, columns padded to the widest cell.
// Widths are measured with runewidth so variable names outside ASCII
// stay aligned.
func (o *output) table(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	line := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = runewidth.FillRight(cell, widths[i])
		}
		fmt.Fprintln(o.w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}
	if o.color {
		fmt.Fprint(o.w, "\x1b[1m")
	}
	line(headers)
	if o.color {
		fmt.Fprint(o.w, "\x1b[0m")
	}
	for _, row := range rows {
		line(row)
	}
}

// slotLabel names the derivative a state slot stores.
func slotLabel(e fluxion.IndexEntry) string {
	return e.Var + strings.Repeat("'", e.Order)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// hints gives each rejection code a "how to fix" line, appended to the
// error a command returns.
func describeError(err error) error {
	var fe *fluxion.Error
	if !errors.As(err, &fe) {
		return err
	}
	var hint string
	switch fe.Code {
	case fluxion.CodeConfigMismatch:
		hint = "check the declared variables, their orders and the domain against the equations"
	case fluxion.CodeSingularLeadingCoefficient:
		hint = "the coefficient of the highest derivative must be nonzero across the domain and may depend on t only"
	case fluxion.CodeUnderOrOverDeterminedConditions:
		hint = "supply exactly one condition per state slot, each pinning a distinct derivative"
	case fluxion.CodeUnsupportedOperation:
		hint = "rewrite the system so each highest derivative appears linearly, once, in its own equation"
	default:
		return err
	}
	return fmt.Errorf("%w\n  how to fix: %s", err, hint)
}
