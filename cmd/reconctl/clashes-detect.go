package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/territoryops/recon/pkg/clash"
	"github.com/territoryops/recon/pkg/identity"
)

// clashesDetectCmd represents the clashes detect command
var clashesDetectCmd = &cobra.Command{
	Use:   "detect",
	Short: "List the current ownership clashes",
	Long: `List the current ownership clashes across the visible builds.

Clashes are sorted by severity, then revenue, then account id. Builds whose
accounts could not be read are listed after the clashes.

Example:
  reconctl clashes detect --user ops-1 --role revops
  reconctl clashes detect --role flm --region east --build-id b1,b2 -o json`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := clashFlagsFrom(cmd)
		output, _ := cmd.Flags().GetString("output")

		if err := detectClashes(cmd.Context(), os.Stdout, flags, output); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to detect clashes: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	clashesCmd.AddCommand(clashesDetectCmd)
	clashesDetectCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
}

func detectClashes(ctx context.Context, w io.Writer, flags clashFlags, output string) error {
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

	detection, err := a.service.Detect(ctx, auth, flags.BuildIDs)
	if err != nil {
		return err
	}

	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(detection)
	}
	return printDetection(w, auth, detection)
}

func printDetection(w io.Writer, auth *identity.AuthContext, d *clash.Detection) error {
	if len(d.Clashes) == 0 {
		fmt.Fprintf(w, "No clashes across %d build(s) visible to %s\n", len(d.Builds), auth.UserID)
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SEVERITY\tACCOUNT\tNAME\tREVENUE\tOWNERS\tTAGS\tRESOLVED")
		for _, c := range d.Clashes {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				c.Severity, c.AccountID, c.AccountName, c.Revenue.StringFixed(2),
				ownersByBuild(c), joinTags(c.Tags), resolvedLabel(c))
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		counts := d.CountBySeverity()
		fmt.Fprintf(w, "\n%d clash(es) across %d build(s): high %d, medium %d, low %d\n",
			len(d.Clashes), len(d.Builds),
			counts[clash.SeverityHigh.String()], counts[clash.SeverityMedium.String()], counts[clash.SeverityLow.String()])
	}

	for _, o := range d.Omitted {
		fmt.Fprintf(w, "Warning: build %s (%s) omitted: %s\n", o.BuildID, o.BuildName, o.Reason)
	}
	return nil
}

func ownersByBuild(c clash.Clash) string {
	parts := make([]string, len(c.Views))
	for i, v := range c.Views {
		owner := v.EffectiveOwnerID
		if owner == "" {
			owner = "-"
		}
		if v.HasProposal() {
			owner += "*"
		}
		parts[i] = v.BuildID + ":" + owner
	}
	return strings.Join(parts, " ")
}

func joinTags(tags []clash.Tag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

func resolvedLabel(c clash.Clash) string {
	label := "yes"
	switch {
	case !c.Resolved:
		return "no"
	case c.Reopened:
		label = "reopened"
	}
	if c.LastResolution != nil {
		return label + " (" + c.LastResolution.ResolvedBy + ")"
	}
	return label
}
