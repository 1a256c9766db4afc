package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/teranos/atomspace/am"
	"github.com/teranos/atomspace/mining"
	"github.com/teranos/atomspace/store"
	"github.com/teranos/atomspace/sym"
)

var (
	mineFormat    string
	mineMeasure   string
	mineMaxSize   int
	mineMaxResult int
)

// MineCmd represents the mine command
var MineCmd = &cobra.Command{
	Use:   "mine <kb>",
	Short: short("mine"),
	Long: sym.Mine + ` mine - Find frequent patterns in a knowledge base

Scores single atom types and typed link shapes by support (share of atoms
matched) and confidence (share of matches whose atoms are all confident),
keeps those above the [mining] thresholds and ranks them.

Examples:
  atomspace mine zoo.yaml
  atomspace mine zoo.yaml --measure surprisingness --max-size 2`,
	Args: cobra.ExactArgs(1),
	RunE: runMineCommand,
}

func init() {
	MineCmd.Flags().StringVarP(&mineFormat, "format", "f", formatTable, "Output format (table/json)")
	MineCmd.Flags().StringVar(&mineMeasure, "measure", "", "Interestingness: frequency, surprisingness, mutual-information or interaction-information (default: mining.interestingness)")
	MineCmd.Flags().IntVar(&mineMaxSize, "max-size", 0, "Largest pattern size (0 = mining.max_pattern_size)")
	MineCmd.Flags().IntVar(&mineMaxResult, "max-patterns", 0, "Patterns to report (0 = mining.max_patterns)")
}

type mineReport struct {
	Patterns []mining.Mined `json:"patterns"`
	Stats    mining.Stats   `json:"stats"`
}

func runMineCommand(cmd *cobra.Command, args []string) error {
	if err := checkFormat(mineFormat); err != nil {
		return err
	}
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if mineMeasure != "" {
		cfg.Mining.Interestingness = mineMeasure
	}
	if mineMaxSize > 0 {
		cfg.Mining.MaxPatternSize = mineMaxSize
	}
	if mineMaxResult > 0 {
		cfg.Mining.MaxPatterns = mineMaxResult
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	st, err := openStore(cmd, args[0], cfg.Store)
	if err != nil {
		return err
	}
	report, err := mine(cmd.Context(), st, cfg)
	if err != nil {
		return err
	}
	return printMining(cmd.OutOrStdout(), report, mineFormat)
}

func mine(ctx context.Context, st store.Reader, cfg *am.Config) (*mineReport, error) {
	miner := mining.New(st, mining.Options{
		Config:      cfg.Mining,
		Parallelism: cfg.GetParallelism(),
		MaxCalls:    cfg.Matcher.MaxCalls,
		Logger:      commandLogger("mining"),
	})
	patterns, err := miner.Mine(ctx)
	if err != nil {
		return nil, err
	}
	return &mineReport{Patterns: patterns, Stats: mining.Summarize(patterns)}, nil
}

func printMining(out io.Writer, report *mineReport, format string) error {
	if format == formatJSON {
		return writeJSON(out, report)
	}
	fmt.Fprintf(out, "%s %d patterns (avg support %.3f, avg confidence %.3f)\n",
		sym.Mine, report.Stats.Total, report.Stats.AverageSupport, report.Stats.AverageConfidence)
	if len(report.Patterns) == 0 {
		return nil
	}
	rows := make([][]string, len(report.Patterns))
	for i, m := range report.Patterns {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			m.Pattern.String(),
			strconv.Itoa(m.Size),
			fmt.Sprintf("%.3f", m.Support),
			fmt.Sprintf("%.3f", m.Confidence),
			fmt.Sprintf("%.4f", m.Interestingness),
			strconv.Itoa(len(m.Instances)),
		}
	}
	return renderTable(out, []string{"#", "PATTERN", "SIZE", "SUPPORT", "CONFIDENCE", "SCORE", "INSTANCES"}, rows)
}
