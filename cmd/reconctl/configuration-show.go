package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/territoryops/recon/pkg/config"
)

// configurationShowCmd represents the configuration show command
var configurationShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show recon configuration attributes and their sources",
	Long: `Show recon configuration attributes and their sources.

The values displayed by this command reflect the current state of the
configuration sources, the environment variables and the config file.
A running server picks up config file changes on its own; restart it to
apply changes to environment variables.

Config file location: /etc/recon/recon.yml (or RECON_CONFIG_PATH)

Example:
  reconctl configuration show
  reconctl configuration show --output json`,
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")

		if err := showConfiguration(os.Stdout, output); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to show configuration: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	configurationCmd.AddCommand(configurationShowCmd)
	configurationShowCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
}

func showConfiguration(w io.Writer, output string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	switch output {
	case "json":
		jsonOutput, err := cfg.FormatJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, jsonOutput)
		return err
	case "text":
		_, err = fmt.Fprint(w, cfg.FormatText())
		if err != nil {
			return err
		}
		if verr := cfg.Validate(); verr != nil {
			_, err = fmt.Fprintf(w, "\nWarning: %v\n", verr)
		}
		return err
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
}
