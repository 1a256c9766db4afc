package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/atomspace/am"
	"github.com/teranos/atomspace/atom"
	"github.com/teranos/atomspace/logger"
	"github.com/teranos/atomspace/pln"
	"github.com/teranos/atomspace/store"
	"github.com/teranos/atomspace/sym"
)

var (
	inferSteps   int
	inferFormat  string
	inferExplain int
)

// InferCmd represents the infer command
var InferCmd = &cobra.Command{
	Use:   "infer <kb>",
	Short: short("infer"),
	Long: sym.PLN + ` infer - Forward-chain new atoms with PLN rules

Runs inference over a knowledge base until no rule derives anything new
or --steps is reached, then prints the derived atoms. Rules are chosen in
the [inference] config section (fuzzy_logic, disabled_rules).

Examples:
  atomspace infer zoo.yaml
  atomspace infer zoo.yaml --steps 3 --explain 2
  atomspace infer zoo.toml --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runInferCommand,
}

func init() {
	InferCmd.Flags().IntVarP(&inferSteps, "steps", "s", 0, "Maximum inference steps (0 = inference.max_steps)")
	InferCmd.Flags().StringVarP(&inferFormat, "format", "f", formatTable, "Output format (table/json)")
	InferCmd.Flags().IntVar(&inferExplain, "explain", 0, "Print derivation trees this many premises deep")
}

// inferReport is what infer prints.
type inferReport struct {
	Derived      []atom.Atom        `json:"derived"`
	Explanations []*pln.Explanation `json:"explanations,omitempty"`
}

func runInferCommand(cmd *cobra.Command, args []string) error {
	if err := checkFormat(inferFormat); err != nil {
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

	explain := inferExplain
	if explain == 0 && logger.ShouldOutput(verbosity(cmd), logger.OutputDerivations) {
		explain = 1
	}
	start := time.Now()
	report, err := infer(cmd.Context(), st, cfg, inferSteps, explain)
	if err != nil {
		return err
	}
	note(cmd, logger.OutputTiming, "%s inference took %s", sym.PLN, time.Since(start).Round(time.Microsecond))
	return printInference(cmd.OutOrStdout(), report, inferFormat)
}

func infer(ctx context.Context, st *store.Store, cfg *am.Config, steps, explain int) (*inferReport, error) {
	engine, err := pln.NewEngine(st, pln.Options{
		Config:   cfg.Inference,
		MaxCalls: cfg.Matcher.MaxCalls,
		Logger:   commandLogger("pln"),
	})
	if err != nil {
		return nil, err
	}
	if steps <= 0 {
		steps = cfg.Inference.MaxSteps
	}
	derived, err := engine.RunInference(ctx, steps)
	if err != nil {
		return nil, err
	}

	report := &inferReport{Derived: derived}
	if explain > 0 {
		for _, a := range derived {
			x, err := engine.Explain(a.ID, explain)
			if err != nil {
				return nil, err
			}
			report.Explanations = append(report.Explanations, x)
		}
	}
	return report, nil
}

func printInference(out io.Writer, report *inferReport, format string) error {
	if format == formatJSON {
		return writeJSON(out, report)
	}
	fmt.Fprintf(out, "%s %d atoms derived\n", sym.PLN, len(report.Derived))
	if len(report.Derived) == 0 {
		return nil
	}
	if err := renderTable(out, atomHeader, atomRows(report.Derived)); err != nil {
		return err
	}
	for _, x := range report.Explanations {
		fmt.Fprintln(out, x.String())
	}
	return nil
}
