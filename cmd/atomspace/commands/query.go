package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/atomspace/am"
	"github.com/teranos/atomspace/errors"
	"github.com/teranos/atomspace/internal/util"
	"github.com/teranos/atomspace/logger"
	"github.com/teranos/atomspace/match"
	"github.com/teranos/atomspace/store"
	"github.com/teranos/atomspace/sym"
)

var (
	queryLimit     int
	queryFormat    string
	queryTemplate  string
	queryTemplates string
	queryFocus     float64
)

// QueryCmd represents the query command
var QueryCmd = &cobra.Command{
	Use:   "query <kb> [pattern-file]",
	Short: short("query"),
	Long: sym.Match + ` query - Find atoms matching a pattern

Loads a knowledge base and prints every atom that matches the pattern,
most important first, with its variable bindings.

A pattern file is YAML (or JSON):

  type: InheritanceLink
  outgoing:
    - {isVariable: true, variableName: X}
    - {name: mammal}

Examples:
  atomspace query zoo.yaml mammals.yaml
  atomspace query zoo.yaml --templates queries.yaml --template mammals
  atomspace query zoo.yaml mammals.yaml --focus 10 --format json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runQueryCommand,
}

func init() {
	QueryCmd.Flags().IntVarP(&queryLimit, "limit", "l", 0, "Maximum number of matches (0 = all)")
	QueryCmd.Flags().StringVarP(&queryFormat, "format", "f", formatTable, "Output format (table/json)")
	QueryCmd.Flags().StringVarP(&queryTemplate, "template", "t", "", "Use a named template instead of a pattern file")
	QueryCmd.Flags().StringVar(&queryTemplates, "templates", "", "YAML file of templates for --template")
	QueryCmd.Flags().Float64Var(&queryFocus, "focus", 0, "Only consider roots with at least this STI")
}

func runQueryCommand(cmd *cobra.Command, args []string) error {
	if err := checkFormat(queryFormat); err != nil {
		return err
	}
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	patternFile := ""
	if len(args) > 1 {
		patternFile = args[1]
	}
	p, err := resolvePattern(patternFile, queryTemplate, queryTemplates)
	if err != nil {
		return err
	}

	focus := cfg.Matcher.AttentionalFocus
	if cmd.Flags().Changed("focus") {
		focus = util.Ptr(queryFocus)
	}

	st, err := openStore(cmd, args[0], cfg.Store)
	if err != nil {
		return err
	}
	start := time.Now()
	results, err := findMatches(cmd.Context(), st, p, cfg, queryLimit, focus)
	if err != nil {
		return err
	}
	note(cmd, logger.OutputTiming, "%s query took %s", sym.Match, time.Since(start).Round(time.Microsecond))
	return printMatches(cmd.OutOrStdout(), p, results, queryFormat, verbosity(cmd))
}

// resolvePattern reads either a pattern file or a named template.
func resolvePattern(patternFile, templateName, templatesFile string) (*match.Pattern, error) {
	switch {
	case templateName != "" && patternFile != "":
		return nil, errors.NewInvalidRequestError("give a pattern file or --template, not both")
	case templateName != "":
		if templatesFile == "" {
			return nil, errors.WithHint(
				errors.NewInvalidRequestError("--template needs a templates file"),
				"pass --templates <file.yaml>")
		}
		f, err := os.Open(templatesFile)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open templates %s", templatesFile)
		}
		defer f.Close()
		templates, err := match.LoadTemplates(f)
		if err != nil {
			return nil, errors.Wrapf(err, "templates %s", templatesFile)
		}
		return templates.Use(templateName)
	case patternFile != "":
		data, err := os.ReadFile(patternFile)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read pattern %s", patternFile)
		}
		p, err := match.ParsePattern(data)
		if err != nil {
			return nil, errors.Wrapf(err, "pattern %s", patternFile)
		}
		return p, nil
	default:
		return nil, errors.WithHint(
			errors.NewInvalidRequestError("no pattern given"),
			"pass a pattern file or --template with --templates")
	}
}

func findMatches(ctx context.Context, st store.Reader, p *match.Pattern, cfg *am.Config, limit int, focus *float64) ([]match.Result, error) {
	m := match.New(st, match.Options{MaxCalls: cfg.Matcher.MaxCalls, Logger: commandLogger("match")})
	opts := []match.FindOption{match.WithParallelism(cfg.GetParallelism())}
	if limit > 0 {
		opts = append(opts, match.WithLimit(limit))
	}
	if focus != nil {
		opts = append(opts, match.WithAttentionalFocus(*focus))
	}
	return m.FindPatterns(ctx, p, opts...)
}

func printMatches(out io.Writer, p *match.Pattern, results []match.Result, format string, verbose int) error {
	if format == formatJSON {
		return writeJSON(out, results)
	}

	fmt.Fprintf(out, "%s %s: %d matches\n", sym.Match, p, len(results))
	if len(results) == 0 {
		return nil
	}

	header := []string{"#", "ROOT", "TYPE", "TRUTH", "BINDINGS"}
	withDepth := logger.ShouldOutput(verbose, logger.OutputBindings)
	if withDepth {
		header = append(header, "ATOMS", "DEPTH")
	}
	rows := make([][]string, len(results))
	for i, r := range results {
		root := r.Root()
		tv := r.TruthValue
		if tv == nil {
			tv = root.TruthValue
		}
		row := []string{
			strconv.Itoa(i + 1),
			root.ID,
			string(root.Type),
			formatTV(tv),
			formatBindings(r.Bindings),
		}
		if withDepth {
			ids := make([]string, len(r.Atoms))
			for j, a := range r.Atoms {
				ids[j] = a.ID
			}
			row = append(row, strings.Join(ids, " "), strconv.Itoa(r.Depth))
		}
		rows[i] = row
	}
	if err := renderTable(out, header, rows); err != nil {
		return err
	}
	if logger.ShouldOutput(verbose, logger.OutputDataDump) {
		for _, r := range results {
			if err := writeJSON(out, r.Atoms); err != nil {
				return err
			}
		}
	}
	return nil
}
