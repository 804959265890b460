package controller

import (
	"bytes"
	"context"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "github.com/safer-rust/rust-safety-standard/internal/model"
)

// SimpleUI implements UI using the cobra command's printer. Suitable for
// piped output and CI logs.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// DisplayReport prints the run summary and the findings table.
func (s *SimpleUI) DisplayReport(ctx context.Context, report *m.RunReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("crate %s, criterion %s, run %s\n", report.Crate, report.Criterion, report.RunID)
	s.printf("%s\n", summaryLine(report.Summary))

	if len(report.Findings) == 0 {
		s.printf("no findings\n")
		return nil
	}

	s.printf("\n%s", renderFindingsTable(report.Findings))

	return nil
}

// DisplayItems prints the per-item obligation listing.
func (s *SimpleUI) DisplayItems(ctx context.Context, crate string, stats []ItemStat) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("crate %s: %d items\n\n%s", crate, len(stats), renderItemsTable(stats))

	return nil
}

func (s *SimpleUI) printf(format string, args ...any) {
	s.cmd.Printf(format, args...)
}

// summaryLine flattens the terminal-state counts in a fixed order so output
// is stable across runs.
func summaryLine(summary map[m.TerminalState]int) string {
	order := []m.TerminalState{
		m.SoundSafe,
		m.SoundUnsafe,
		m.StateClassificationViolation,
		m.StateBoundaryViolation,
		m.StateMalformedRequirement,
		m.StateContractStrengthening,
	}

	line := ""
	for _, state := range order {
		if count, ok := summary[state]; ok && count > 0 {
			if line != "" {
				line += ", "
			}

			line += fmt.Sprintf("%s: %d", state, count)
		}
	}

	if line == "" {
		return "no items classified"
	}

	return line
}

func renderFindingsTable(findings []m.Finding) string {
	var buffer bytes.Buffer

	table := tablewriter.NewWriter(&buffer)
	table.SetHeader([]string{"Item", "State", "Rule", "Severity", "Explanation"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_LEFT,
	})

	violations := 0

	for _, finding := range findings {
		if finding.Severity == m.SeverityViolation {
			violations++
		}

		table.Append([]string{
			string(finding.Item),
			string(finding.State),
			string(finding.Rule),
			string(finding.Severity),
			finding.Explanation,
		})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Findings %d", len(findings)),
		"", "",
		fmt.Sprintf("Violations %d", violations),
		"",
	})

	table.Render()

	return buffer.String()
}

func renderItemsTable(stats []ItemStat) string {
	var buffer bytes.Buffer

	table := tablewriter.NewWriter(&buffer)
	table.SetHeader([]string{"Item", "Kind", "Unsafe", "Unsafe Ops", "Calls", "Requirements"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
	})

	totalOps := 0
	totalReqs := 0

	for _, stat := range stats {
		marker := ""
		if stat.Unsafe {
			marker = "unsafe"
		}

		table.Append([]string{
			string(stat.Item),
			string(stat.Kind),
			marker,
			fmt.Sprintf("%d", stat.UnsafeOps),
			fmt.Sprintf("%d", stat.Calls),
			fmt.Sprintf("%d", stat.Requirements),
		})

		totalOps += stat.UnsafeOps
		totalReqs += stat.Requirements
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Items %d", len(stats)),
		"", "",
		fmt.Sprintf("%d", totalOps),
		"",
		fmt.Sprintf("%d", totalReqs),
	})

	table.Render()

	return buffer.String()
}
