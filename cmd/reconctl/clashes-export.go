package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/territoryops/recon/pkg/report"
)

// clashesExportCmd represents the clashes export command
var clashesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the current ownership clashes to an xlsx workbook",
	Long: `Export the current ownership clashes to an xlsx workbook.

The workbook holds one row per clash, one row per member assignment and,
when builds could not be read, a sheet listing them. The clash sheet is
named after export_sheet_name.

Example:
  reconctl clashes export --user ops-1 --role revops
  reconctl clashes export --out review.xlsx --build-id b1 --build-id b2`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := clashFlagsFrom(cmd)
		out, _ := cmd.Flags().GetString("out")

		path, err := exportClashes(cmd.Context(), flags, out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to export clashes: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", path)
	},
}

func init() {
	clashesCmd.AddCommand(clashesExportCmd)
	clashesExportCmd.Flags().String("out", "", "output file (default clashes-<timestamp>.xlsx)")
}

// exportClashes writes the workbook to out, or to a timestamped file in the
// working directory, and returns the path written.
func exportClashes(ctx context.Context, flags clashFlags, out string) (string, error) {
	auth, err := flags.Auth()
	if err != nil {
		return "", err
	}

	a, err := newApp(ctx, appOptions{Fixture: flags.Fixture})
	if err != nil {
		return "", err
	}
	defer a.Close()

	detection, err := a.service.Detect(ctx, auth, flags.BuildIDs)
	if err != nil {
		return "", err
	}

	if out == "" {
		out = report.Filename(time.Now())
	}
	f, err := os.Create(out)
	if err != nil {
		return "", err
	}

	err = report.Write(f, detection, report.Options{SheetName: a.cfg.ExportSheetName})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(out)
		return "", fmt.Errorf("failed to write %s: %w", out, err)
	}
	return out, nil
}
