package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/territoryops/recon/pkg/clash"
)

// clashesResolveCmd represents the clashes resolve command
var clashesResolveCmd = &cobra.Command{
	Use:   "resolve <account_id>",
	Short: "Resolve an ownership clash in favour of one build",
	Long: `Resolve an ownership clash in favour of one build.

The effective owner of the target build becomes the proposed owner of the
account in every build of the clash, and a resolution record is appended.
The clash is detected again before resolving, so the target must still be
one of its builds.

Example:
  reconctl clashes resolve 0015g00000ABC --target build-7 \
      --rationale "agreed in territory review" --user ops-1`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		flags := clashFlagsFrom(cmd)
		target, _ := cmd.Flags().GetString("target")
		rationale, _ := cmd.Flags().GetString("rationale")
		output, _ := cmd.Flags().GetString("output")

		req := clash.ResolveRequest{
			TargetBuildID: target,
			Rationale:     rationale,
			BuildIDs:      flags.BuildIDs,
		}
		if err := resolveClash(cmd.Context(), os.Stdout, flags, args[0], req, output); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to resolve clash: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	clashesCmd.AddCommand(clashesResolveCmd)
	clashesResolveCmd.Flags().String("target", "", "winning build id")
	clashesResolveCmd.Flags().String("rationale", "", "reason for the resolution")
	clashesResolveCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	_ = clashesResolveCmd.MarkFlagRequired("target")
}

func resolveClash(ctx context.Context, w io.Writer, flags clashFlags, accountID string, req clash.ResolveRequest, output string) error {
	if output != "text" && output != "json" {
		return fmt.Errorf("unknown output format %q", output)
	}
	auth, err := flags.Auth()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, appOptions{Fixture: flags.Fixture})
	if err != nil {
		return err
	}
	defer a.Close()

	resolution, err := a.service.Resolve(ctx, auth, accountID, req)
	if err != nil {
		var resErr *clash.ResolutionError
		if errors.As(err, &resErr) && resErr.CompensationErr != nil {
			a.logger.WithError(resErr.CompensationErr).Error("account left with mixed proposed owners")
		}
		return err
	}
	if err := a.SaveFixture(); err != nil {
		return err
	}

	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resolution)
	}
	fmt.Fprintf(w, "Resolved %s: %s\n", accountID, resolution.Description)
	fmt.Fprintf(w, "Resolution id: %s\n", resolution.ID)
	return nil
}
