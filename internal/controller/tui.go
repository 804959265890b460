package controller

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	m "github.com/safer-rust/rust-safety-standard/internal/model"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	soundStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	violationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	advisoryStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle       = lipgloss.NewStyle().Faint(true)
)

// TUI implements UI using Bubble Tea for interactive browsing of findings.
type TUI struct {
	output io.Writer
}

// NewTUI creates a new TUI writing to output.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// DisplayReport shows the run report; long finding lists open in a
// scrollable viewport.
func (t *TUI) DisplayReport(ctx context.Context, report *m.RunReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	header := renderReportHeader(report)
	body := renderFindingsBody(report.Findings)

	// Short reports print directly; starting the alternate screen for a
	// handful of lines is just noise.
	if strings.Count(body, "\n") <= 20 {
		_, err := fmt.Fprint(t.output, header+body)
		return err
	}

	browser := newReportBrowser(header, body)

	program := tea.NewProgram(browser, tea.WithOutput(t.output), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run findings browser: %w", err)
	}

	return nil
}

// DisplayItems prints the items table; browsing is not worth a screen takeover.
func (t *TUI) DisplayItems(ctx context.Context, crate string, stats []ItemStat) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(t.output, "%s\n%s",
		titleStyle.Render(fmt.Sprintf("crate %s: %d items", crate, len(stats))),
		renderItemsTable(stats),
	)

	return err
}

func renderReportHeader(report *m.RunReport) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("soundcheck: %s (%s-level)", report.Crate, report.Criterion)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("run %s, snapshot %.12s", report.RunID, report.SnapshotHash)))
	b.WriteString("\n")
	b.WriteString(summaryLine(report.Summary))
	b.WriteString("\n\n")

	return b.String()
}

func renderFindingsBody(findings []m.Finding) string {
	if len(findings) == 0 {
		return soundStyle.Render("no findings") + "\n"
	}

	var b strings.Builder

	for _, finding := range findings {
		style := violationStyle
		if finding.Severity == m.SeverityAdvisory {
			style = advisoryStyle
		}

		b.WriteString(style.Render(fmt.Sprintf("%s [%s]", finding.Item, finding.Rule)))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("  %s: %s\n", finding.State, finding.Explanation))
	}

	return b.String()
}

// reportBrowser is the Bubble Tea model for scrolling a long findings list.
type reportBrowser struct {
	header   string
	body     string
	viewport viewport.Model
	ready    bool
}

func newReportBrowser(header, body string) reportBrowser {
	return reportBrowser{header: header, body: body}
}

func (b reportBrowser) Init() tea.Cmd {
	return nil
}

func (b reportBrowser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		headerHeight := strings.Count(b.header, "\n") + 1

		if !b.ready {
			b.viewport = viewport.New(msg.Width, msg.Height-headerHeight)
			b.viewport.SetContent(b.body)
			b.ready = true
		} else {
			b.viewport.Width = msg.Width
			b.viewport.Height = msg.Height - headerHeight
		}

		return b, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return b, tea.Quit
		}
	}

	var cmd tea.Cmd
	b.viewport, cmd = b.viewport.Update(msg)

	return b, cmd
}

func (b reportBrowser) View() string {
	if !b.ready {
		return b.header
	}

	help := dimStyle.Render("↑/↓ scroll · q quit")

	return b.header + b.viewport.View() + "\n" + help
}
