// Package report renders detection results as xlsx workbooks.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/territoryops/recon/pkg/clash"
)

// ContentType is the media type of the rendered workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	// DefaultSheetName is used when Options.SheetName is empty.
	DefaultSheetName = "Clashes"
	assignmentsSheet = "Assignments"
	omittedSheet     = "Omitted builds"
)

var (
	clashHeadings = []string{
		"Account ID", "Account", "Severity", "Tags", "Revenue",
		"Builds", "Effective owners", "Resolved", "Resolved by", "Resolved at",
	}
	assignmentHeadings = []string{
		"Account ID", "Build ID", "Build", "Region",
		"Current owner", "Proposed owner", "Effective owner", "ARR",
	}
	omittedHeadings = []string{"Build ID", "Build", "Error"}
)

// Options controls workbook rendering.
type Options struct {
	SheetName string
}

// Filename returns the attachment name of an export generated at t.
func Filename(t time.Time) string {
	return "clashes-" + t.UTC().Format("20060102-150405") + ".xlsx"
}

// Write renders d as a workbook with one row per clash, one row per member
// assignment and, when builds were omitted, a sheet listing them.
func Write(w io.Writer, d *clash.Detection, opts Options) error {
	sheet := opts.SheetName
	if sheet == "" {
		sheet = DefaultSheetName
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	rows := make([][]interface{}, 0, len(d.Clashes))
	for _, c := range d.Clashes {
		rows = append(rows, clashRow(c))
	}
	if err := writeTable(f, sheet, header, clashHeadings, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(assignmentsSheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", assignmentsSheet, err)
	}
	rows = rows[:0]
	for _, c := range d.Clashes {
		for _, v := range c.Views {
			rows = append(rows, assignmentRow(v))
		}
	}
	if err := writeTable(f, assignmentsSheet, header, assignmentHeadings, rows); err != nil {
		return err
	}

	if len(d.Omitted) > 0 {
		if _, err := f.NewSheet(omittedSheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", omittedSheet, err)
		}
		rows = rows[:0]
		for _, o := range d.Omitted {
			rows = append(rows, []interface{}{o.BuildID, o.BuildName, o.Reason})
		}
		if err := writeTable(f, omittedSheet, header, omittedHeadings, rows); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, style int, headings []string, rows [][]interface{}) error {
	head := make([]interface{}, len(headings))
	for i, h := range headings {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(headings), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze %s header: %w", sheet, err)
	}
	lastCol, _, err := excelize.SplitCellName(last)
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", lastCol, 18)
}

func clashRow(c clash.Clash) []interface{} {
	tags := make([]string, len(c.Tags))
	for i, t := range c.Tags {
		tags[i] = string(t)
	}
	owners := make([]string, 0, len(c.Views))
	seen := map[string]bool{}
	for _, v := range c.Views {
		if v.EffectiveOwnerID == "" || seen[v.EffectiveOwnerID] {
			continue
		}
		seen[v.EffectiveOwnerID] = true
		owners = append(owners, ownerLabel(v.EffectiveOwnerID, v.EffectiveOwnerName))
	}

	row := []interface{}{
		c.AccountID,
		c.AccountName,
		c.Severity.String(),
		strings.Join(tags, ", "),
		c.Revenue.InexactFloat64(),
		strings.Join(c.BuildIDs(), ", "),
		strings.Join(owners, ", "),
		resolvedCell(c),
		"",
		"",
	}
	if c.LastResolution != nil {
		row[8] = c.LastResolution.ResolvedBy
		row[9] = c.LastResolution.ResolvedAt.UTC().Format(time.RFC3339)
	}
	return row
}

func assignmentRow(v clash.AssignmentView) []interface{} {
	proposed := ""
	if v.HasProposal() {
		name := ""
		if v.ProposedOwnerName != nil {
			name = *v.ProposedOwnerName
		}
		proposed = ownerLabel(*v.ProposedOwnerID, name)
	}
	return []interface{}{
		v.AccountID,
		v.BuildID,
		v.BuildName,
		v.Region,
		ownerLabel(v.CurrentOwnerID, v.CurrentOwnerName),
		proposed,
		ownerLabel(v.EffectiveOwnerID, v.EffectiveOwnerName),
		v.Revenue.InexactFloat64(),
	}
}

func ownerLabel(id, name string) string {
	switch {
	case id == "":
		return ""
	case name == "" || name == id:
		return id
	default:
		return name + " (" + id + ")"
	}
}

func resolvedCell(c clash.Clash) string {
	switch {
	case c.Reopened:
		return "reopened"
	case c.Resolved:
		return "yes"
	default:
		return "no"
	}
}
