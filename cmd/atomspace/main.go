package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/atomspace/cmd/atomspace/commands"
	"github.com/teranos/atomspace/errors"
	"github.com/teranos/atomspace/logger"
)

var rootCmd = &cobra.Command{
	Use:   "atomspace",
	Short: "atomspace - typed hypergraph with probabilistic inference and attention",
	Long: `atomspace - a typed hypergraph of nodes and links with truth values,
pattern matching, PLN forward chaining and ECAN attention allocation.

Every command loads a knowledge base (YAML or TOML seed file) into memory;
nothing is written back.

Available commands:
  am        - Show and initialise configuration
  query     - Find atoms matching a pattern
  infer     - Forward-chain new atoms
  attention - Allocate and spread importance
  mine      - Find frequent patterns
  pulse     - Run attention and inference cycles continuously

Examples:
  atomspace am show
  atomspace query zoo.yaml mammals.yaml
  atomspace infer zoo.yaml --steps 3 -v`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("log-json")
		if err := logger.InitializeWithVerbosity(jsonLogs, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		logger.Logger.Debugw("logger ready", "verbosity", logger.LevelName(verbosity), "command", cmd.Name())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().String("config", "", "Read configuration from this file only")
	rootCmd.PersistentFlags().Bool("log-json", false, "Log JSON to stderr")

	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.QueryCmd)
	rootCmd.AddCommand(commands.InferCmd)
	rootCmd.AddCommand(commands.AttentionCmd)
	rootCmd.AddCommand(commands.MineCmd)
	rootCmd.AddCommand(commands.PulseCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, pterm.Error.Sprint(err.Error()))
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "  hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
