package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "reconctl",
	Short: "Territory build clash detection and resolution",
	Long: `reconctl runs the recon server and operates on territory builds from the
command line: detect ownership clashes, export them to a spreadsheet and
resolve them.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		return loadEnvFile(envFile)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("env-file", "", "load environment variables from a .env file before running")
}

// loadEnvFile loads path into the process environment. Variables that are
// already set keep their value.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
