package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/teranos/atomspace/am"
	"github.com/teranos/atomspace/errors"
	"github.com/teranos/atomspace/sym"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: short("am"),
	Long: sym.AM + ` am - Show and initialise atomspace configuration

Configuration sources (in order of precedence):
1. Environment variables (ATOMSPACE_* prefix, e.g. ATOMSPACE_INFERENCE_MAX_STEPS)
2. Project config (nearest ./am.toml walking up)
3. User config (~/.atomspace/am.toml)
4. Default values

--config <file> replaces the search with a single file.

Examples:
  atomspace am show                 # Effective configuration as TOML
  atomspace am show --format yaml
  atomspace am init                 # Write defaults to ./am.toml`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runAmShow,
}

var amInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration",
	Long:  "Write the built-in defaults to path (default ./am.toml). An existing file is kept as path.back1.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAmInit,
}

var configFormat string

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amInitCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	v := am.GetViper()
	if path != "" {
		var err error
		if v, err = am.ViperFromFile(path); err != nil {
			return err
		}
	}
	return showConfig(cmd.OutOrStdout(), v, configFormat)
}

func showConfig(out io.Writer, v *viper.Viper, format string) error {
	cfg, err := am.LoadWithViper(v)
	if err != nil {
		return err
	}

	switch format {
	case "toml":
		data, err := am.ToTOML(v)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "# atomspace configuration\n%s", data)
	case "json":
		return writeJSON(out, cfg)
	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Fprintf(out, "# atomspace configuration\n%s", data)
	default:
		return errors.NewInvalidRequestError("unsupported format: %s (supported: toml, json, yaml)", format)
	}
	return nil
}

func runAmInit(cmd *cobra.Command, args []string) error {
	path := am.DefaultConfigFile
	if len(args) == 1 {
		path = args[0]
	}
	if err := am.WriteDefaults(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s wrote defaults to %s\n", sym.AM, path)
	return nil
}
