package domain

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/safer-rust/rust-safety-standard/internal/adapter"
	"github.com/safer-rust/rust-safety-standard/internal/controller"
	m "github.com/safer-rust/rust-safety-standard/internal/model"
)

// CheckArgs contains the arguments for a classification run.
type CheckArgs struct {
	Paths     []m.Path
	Exclude   []string
	Criterion m.Criterion
	Parallel  int
	Reports   m.Path
	// Advisories includes recommended-rule findings in the displayed
	// output. Saved reports always carry them.
	Advisories bool
}

// EstimateArgs contains the arguments for the items listing.
type EstimateArgs struct {
	Paths   []m.Path
	Exclude []string
}

// ViewArgs contains the arguments for viewing a saved report.
type ViewArgs struct {
	Reports m.Path
}

// Workflow wires snapshot discovery, the engine, report persistence, and the
// UI into the top-level operations behind each CLI command.
type Workflow interface {
	// Check classifies every discovered snapshot and returns the total
	// number of mandatory violations across them.
	Check(ctx context.Context, args CheckArgs) (int, error)
	Estimate(ctx context.Context, args EstimateArgs) error
	View(ctx context.Context, args ViewArgs) error
}

type workflow struct {
	snapshots adapter.SnapshotAdapter
	store     adapter.FindingsStore
	ui        controller.UI
}

// NewWorkflow creates a Workflow instance with the provided dependencies.
func NewWorkflow(snapshots adapter.SnapshotAdapter, store adapter.FindingsStore, ui controller.UI) Workflow {
	return &workflow{
		snapshots: snapshots,
		store:     store,
		ui:        ui,
	}
}

func (w *workflow) Check(ctx context.Context, args CheckArgs) (int, error) {
	paths, err := w.snapshots.Find(args.Paths, args.Exclude)
	if err != nil {
		return 0, fmt.Errorf("find snapshots: %w", err)
	}

	if len(paths) == 0 {
		return 0, fmt.Errorf("no %s snapshots found", adapter.SnapshotSuffix)
	}

	eng := NewEngine(args.Parallel)
	violations := 0

	for _, path := range paths {
		crate, err := w.snapshots.Load(path)
		if err != nil {
			return violations, fmt.Errorf("load snapshot: %w", err)
		}

		hash, err := w.snapshots.Hash(path)
		if err != nil {
			return violations, fmt.Errorf("hash snapshot: %w", err)
		}

		analysis, err := eng.Check(ctx, crate, args.Criterion)
		if err != nil {
			return violations, fmt.Errorf("check crate %q: %w", crate.Name, err)
		}

		report := adapter.NewRunReport(analysis, hash, Summarize(analysis))

		if err := w.store.Save(args.Reports, report); err != nil {
			return violations, fmt.Errorf("save report: %w", err)
		}

		slog.Info("crate checked",
			"crate", crate.Name,
			"snapshot", path,
			"findings", len(report.Findings),
			"violations", analysis.Violations(),
		)

		shown := report
		if !args.Advisories {
			shown = withoutAdvisories(report)
		}

		if err := w.ui.DisplayReport(ctx, shown); err != nil {
			return violations, err
		}

		violations += analysis.Violations()
	}

	return violations, nil
}

func (w *workflow) Estimate(ctx context.Context, args EstimateArgs) error {
	paths, err := w.snapshots.Find(args.Paths, args.Exclude)
	if err != nil {
		return fmt.Errorf("find snapshots: %w", err)
	}

	if len(paths) == 0 {
		return fmt.Errorf("no %s snapshots found", adapter.SnapshotSuffix)
	}

	for _, path := range paths {
		crate, err := w.snapshots.Load(path)
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}

		stats := controller.BuildItemStats(crate)
		if err := w.ui.DisplayItems(ctx, crate.Name, stats); err != nil {
			return err
		}
	}

	return nil
}

func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	report, err := w.store.LoadLatest(args.Reports)
	if err != nil {
		return fmt.Errorf("load report: %w", err)
	}

	return w.ui.DisplayReport(ctx, report)
}

func withoutAdvisories(report *m.RunReport) *m.RunReport {
	filtered := *report
	filtered.Findings = make([]m.Finding, 0, len(report.Findings))

	for _, finding := range report.Findings {
		if finding.Severity == m.SeverityAdvisory {
			continue
		}

		filtered.Findings = append(filtered.Findings, finding)
	}

	return &filtered
}
