package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/territoryops/recon/pkg/audit"
	"github.com/territoryops/recon/pkg/identity"
)

// clashesCmd represents the clashes command
var clashesCmd = &cobra.Command{
	Use:   "clashes",
	Short: "Detect, export and resolve account ownership clashes",
	Long: `Detect, export and resolve account ownership clashes.

Every subcommand acts on behalf of the caller given with --user, --role and
--region. Callers whose role is one of the configured global roles see every
build; other callers only see builds in their region.

Use --fixture to run against a JSON snapshot instead of the database.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// keep stdout for command output
		audit.DefaultLogger.SetWriter(os.Stderr)
		envFile, _ := cmd.Flags().GetString("env-file")
		return loadEnvFile(envFile)
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'clashes' requires a subcommand (detect, export, resolve)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(clashesCmd)

	flags := clashesCmd.PersistentFlags()
	flags.String("user", os.Getenv("USER"), "caller id recorded on resolutions")
	flags.String("role", identity.RoleRevOps, "caller role")
	flags.String("region", "", "caller region")
	flags.StringSlice("build-id", nil, "restrict to these builds (repeatable or comma separated)")
	flags.String("fixture", "", "JSON snapshot to run against instead of the database")
}

// clashFlags are the persistent flags shared by the clashes subcommands.
type clashFlags struct {
	User     string
	Role     string
	Region   string
	BuildIDs []string
	Fixture  string
}

func clashFlagsFrom(cmd *cobra.Command) clashFlags {
	var f clashFlags
	f.User, _ = cmd.Flags().GetString("user")
	f.Role, _ = cmd.Flags().GetString("role")
	f.Region, _ = cmd.Flags().GetString("region")
	f.BuildIDs, _ = cmd.Flags().GetStringSlice("build-id")
	f.Fixture, _ = cmd.Flags().GetString("fixture")
	return f
}

// Auth returns the caller described by the flags.
func (f clashFlags) Auth() (*identity.AuthContext, error) {
	user := strings.TrimSpace(f.User)
	if user == "" {
		return nil, errors.New("--user is required")
	}
	role := strings.TrimSpace(f.Role)
	if role == "" {
		return nil, errors.New("--role is required")
	}
	return identity.New(user, role, strings.TrimSpace(f.Region)), nil
}
