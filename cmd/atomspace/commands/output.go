package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teranos/atomspace/am"
	"github.com/teranos/atomspace/atom"
	"github.com/teranos/atomspace/errors"
	"github.com/teranos/atomspace/logger"
	"github.com/teranos/atomspace/match"
	"github.com/teranos/atomspace/sym"
	"github.com/teranos/atomspace/truth"
)

// Output formats shared by the result-printing commands.
const (
	formatTable = "table"
	formatJSON  = "json"
)

// verbosity is the -v count of the root command.
func verbosity(cmd *cobra.Command) int {
	v, _ := cmd.Flags().GetCount("verbose")
	return v
}

// loadConfig reads --config when given, otherwise the usual search path.
// It also returns the file to watch for changes, if any.
func loadConfig(cmd *cobra.Command) (*am.Config, string, error) {
	path, _ := cmd.Flags().GetString("config")
	var cfg *am.Config
	var err error
	if path != "" {
		cfg, err = am.LoadFromFile(path)
	} else {
		cfg, err = am.Load()
		path = am.ProjectConfigPath()
	}
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to load config")
	}
	logger.SetTheme(cfg.GetLogTheme())
	note(cmd, logger.OutputConfig, "%s %s", sym.AM, cfg)
	return cfg, path, nil
}

// note prints a line to stderr when category is shown at the command's
// verbosity.
func note(cmd *cobra.Command, category logger.OutputCategory, format string, args ...interface{}) {
	if logger.ShouldOutput(verbosity(cmd), category) {
		fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
	}
}

func commandLogger(name string) *zap.SugaredLogger {
	return logger.ComponentLogger(name)
}

func checkFormat(format string) error {
	if format != formatTable && format != formatJSON {
		return errors.WithHint(
			errors.NewInvalidRequestError("unsupported format %q", format),
			"use table or json")
	}
	return nil
}

func renderTable(out io.Writer, header []string, rows [][]string) error {
	data := pterm.TableData{header}
	data = append(data, rows...)
	s, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Wrap(err, "failed to render table")
	}
	_, err = fmt.Fprintln(out, s)
	return err
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatTV(tv *truth.Value) string {
	if tv == nil {
		return "-"
	}
	return tv.String()
}

func formatAV(av *atom.AttentionValue) string {
	if av == nil {
		return "-"
	}
	s := fmt.Sprintf("%.2f / %.2f", av.STI, av.LTI)
	if av.VLTI {
		s += " vlti"
	}
	return s
}

func formatBindings(b match.Bindings) string {
	if len(b) == 0 {
		return "-"
	}
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("?%s=%s", name, b[name])
	}
	return strings.Join(parts, " ")
}

// atomRows renders one row per atom: id, type, label, truth, attention.
func atomRows(atoms []atom.Atom) [][]string {
	rows := make([][]string, len(atoms))
	for i, a := range atoms {
		label := a.Name
		if a.IsLink() {
			label = "[" + strings.Join(a.Outgoing, ", ") + "]"
		}
		rows[i] = []string{a.ID, string(a.Type), label, formatTV(a.TruthValue), formatAV(a.Attention)}
	}
	return rows
}

// short is the one-line help of a top-level command, prefixed by its glyph.
func short(command string) string {
	return sym.CommandToSymbol[command] + " " + sym.CommandDescriptions[command]
}

var atomHeader = []string{"ID", "TYPE", "NAME / OUTGOING", "TRUTH", "STI / LTI"}
