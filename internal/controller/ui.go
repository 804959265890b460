// Package controller provides output adapters for displaying analysis
// results: a plain printer for piped output and a Bubble Tea browser for
// terminals.
package controller

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	m "github.com/safer-rust/rust-safety-standard/internal/model"
)

// ItemStat is one row of the items listing: an item with its obligation
// surface.
type ItemStat struct {
	Item         m.Path
	Kind         m.ItemKind
	Unsafe       bool
	UnsafeOps    int
	Calls        int
	Requirements int
}

// UI displays analysis output. Implementations can use different output
// methods (plain text, TUI).
type UI interface {
	// DisplayReport renders a run report: summary plus ordered findings.
	DisplayReport(ctx context.Context, report *m.RunReport) error

	// DisplayItems renders the per-item obligation listing.
	DisplayItems(ctx context.Context, crate string, stats []ItemStat) error
}

// NewUI selects the TUI on a terminal and the plain printer otherwise.
func NewUI(cmd *cobra.Command, tty bool) UI {
	if tty {
		return NewTUI(os.Stdout)
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether the file is an interactive terminal.
func IsTTY(file *os.File) bool {
	info, err := file.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice != 0
}
