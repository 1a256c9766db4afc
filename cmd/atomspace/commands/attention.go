package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teranos/atomspace/am"
	"github.com/teranos/atomspace/atom"
	"github.com/teranos/atomspace/ecan"
	"github.com/teranos/atomspace/errors"
	"github.com/teranos/atomspace/logger"
	"github.com/teranos/atomspace/store"
	"github.com/teranos/atomspace/sym"
)

var (
	attentionTotalSTI  float64
	attentionCycles    int
	attentionStimulate []string
	attentionFormat    string
)

// AttentionCmd represents the attention command
var AttentionCmd = &cobra.Command{
	Use:   "attention <kb>",
	Short: short("attention"),
	Long: sym.ECAN + ` attention - Allocate and spread importance

Runs attention cycles over a knowledge base. Each cycle decays STI,
allocates --total-sti over the most important atoms, spreads from them
along their links, collects rent and updates Hebbian links. The resulting
attentional focus is printed.

Examples:
  atomspace attention zoo.yaml
  atomspace attention zoo.yaml --cycles 5 --total-sti 200
  atomspace attention zoo.yaml --stimulate cat=20 --stimulate dog=5`,
	Args: cobra.ExactArgs(1),
	RunE: runAttentionCommand,
}

func init() {
	AttentionCmd.Flags().Float64Var(&attentionTotalSTI, "total-sti", 100, "STI allocated per cycle")
	AttentionCmd.Flags().IntVarP(&attentionCycles, "cycles", "n", 1, "Number of cycles")
	AttentionCmd.Flags().StringArrayVar(&attentionStimulate, "stimulate", nil, "Stimulate an atom before the first cycle (id=amount, repeatable)")
	AttentionCmd.Flags().StringVarP(&attentionFormat, "format", "f", formatTable, "Output format (table/json)")
}

type attentionReport struct {
	Cycles []*ecan.CycleReport `json:"cycles"`
	Focus  []atom.Atom         `json:"focus"`
}

func runAttentionCommand(cmd *cobra.Command, args []string) error {
	if err := checkFormat(attentionFormat); err != nil {
		return err
	}
	stimuli, err := parseStimuli(attentionStimulate)
	if err != nil {
		return err
	}
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cmd, args[0], cfg.Store)
	if err != nil {
		return err
	}

	report, err := runAttention(cmd.Context(), st, cfg, stimuli, attentionTotalSTI, attentionCycles)
	if err != nil {
		return err
	}
	return printAttention(cmd.OutOrStdout(), report, attentionFormat, verbosity(cmd))
}

// stimulus is one --stimulate flag.
type stimulus struct {
	id     string
	amount float64
}

func parseStimuli(flags []string) ([]stimulus, error) {
	out := make([]stimulus, 0, len(flags))
	for _, f := range flags {
		id, value, ok := strings.Cut(f, "=")
		if !ok || id == "" {
			return nil, errors.WithHint(
				errors.NewInvalidRequestError("bad --stimulate %q", f),
				"use id=amount, e.g. --stimulate cat=20")
		}
		amount, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "bad --stimulate %q", f), errors.ErrInvalidRequest)
		}
		out = append(out, stimulus{id: id, amount: amount})
	}
	return out, nil
}

func runAttention(ctx context.Context, st *store.Store, cfg *am.Config, stimuli []stimulus, totalSTI float64, cycles int) (*attentionReport, error) {
	bank, err := ecan.NewBank(st, ecan.Options{Config: cfg.Attention, Logger: commandLogger("ecan")})
	if err != nil {
		return nil, err
	}
	for _, s := range stimuli {
		if _, err := bank.Stimulate(ctx, s.id, s.amount); err != nil {
			return nil, err
		}
	}

	report := &attentionReport{}
	for i := 0; i < cycles; i++ {
		r, err := bank.Cycle(ctx, totalSTI)
		if err != nil {
			return nil, errors.Wrapf(err, "cycle %d", i+1)
		}
		report.Cycles = append(report.Cycles, r)
	}
	report.Focus = bank.Focus()
	return report, nil
}

func printAttention(out io.Writer, report *attentionReport, format string, verbose int) error {
	if format == formatJSON {
		return writeJSON(out, report)
	}
	if logger.ShouldOutput(verbose, logger.OutputProgress) {
		for i, r := range report.Cycles {
			fmt.Fprintf(out, "%s cycle %d: focus %d, spreaders %d, rent %.2f, hebbian %d\n",
				sym.ECAN, i+1, len(r.Focus), r.Spreaders, r.RentCollected, r.HebbianUpdated)
		}
	}
	fmt.Fprintf(out, "%s %d atoms in focus after %d cycles\n", sym.ECAN, len(report.Focus), len(report.Cycles))
	if len(report.Focus) == 0 {
		return nil
	}
	return renderTable(out, atomHeader, atomRows(report.Focus))
}
