package adapter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	m "github.com/safer-rust/rust-safety-standard/internal/model"
	"github.com/safer-rust/rust-safety-standard/pkg/spill"
)

const (
	reportMetaSuffix     = ".report.json"
	reportFindingsSuffix = ".findings"
)

// FindingsStore persists run reports. Finding sequences are streamed through
// a disk-backed spill so a report for a very large crate is never held in
// memory twice.
type FindingsStore interface {
	Save(dir m.Path, report *m.RunReport) error
	// LoadLatest returns the most recent report under dir.
	LoadLatest(dir m.Path) (*m.RunReport, error)
}

// localFindingsStore writes reports under a directory: a JSON metadata file
// per run plus a spill file holding the ordered findings.
type localFindingsStore struct{}

// NewFindingsStore constructs the filesystem-backed FindingsStore.
func NewFindingsStore() FindingsStore {
	return &localFindingsStore{}
}

// reportMeta is the persisted header; findings live in the sibling spill.
type reportMeta struct {
	RunID        string                  `json:"run_id"`
	Crate        string                  `json:"crate"`
	Criterion    m.Criterion             `json:"criterion"`
	SnapshotHash string                  `json:"snapshot_hash"`
	CreatedAt    time.Time               `json:"created_at"`
	Summary      map[m.TerminalState]int `json:"summary"`
	FindingsFile string                  `json:"findings_file"`
}

func (s *localFindingsStore) Save(dir m.Path, report *m.RunReport) error {
	if err := os.MkdirAll(string(dir), 0o750); err != nil {
		return fmt.Errorf("create reports directory %s: %w", dir, err)
	}

	base := fmt.Sprintf("%s-%s", report.Crate, report.RunID)
	findingsPath := filepath.Join(string(dir), base+reportFindingsSuffix)

	sink, err := spill.Create[m.Finding](findingsPath)
	if err != nil {
		return fmt.Errorf("create findings file: %w", err)
	}

	if err := sink.AppendBatch(report.Findings); err != nil {
		_ = sink.Close()
		return fmt.Errorf("write findings: %w", err)
	}

	if err := sink.Close(); err != nil {
		return err
	}

	meta := reportMeta{
		RunID:        report.RunID,
		Crate:        report.Crate,
		Criterion:    report.Criterion,
		SnapshotHash: report.SnapshotHash,
		CreatedAt:    report.CreatedAt,
		Summary:      report.Summary,
		FindingsFile: base + reportFindingsSuffix,
	}

	encoded, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report metadata: %w", err)
	}

	metaPath := filepath.Join(string(dir), base+reportMetaSuffix)
	if err := os.WriteFile(metaPath, encoded, 0o600); err != nil {
		return fmt.Errorf("write report metadata: %w", err)
	}

	return nil
}

func (s *localFindingsStore) LoadLatest(dir m.Path) (*m.RunReport, error) {
	matches, err := filepath.Glob(filepath.Join(string(dir), "*"+reportMetaSuffix))
	if err != nil {
		return nil, fmt.Errorf("list reports in %s: %w", dir, err)
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("no reports found in %s", dir)
	}

	var (
		latest     reportMeta
		latestSeen bool
	)

	for _, metaPath := range matches {
		content, err := os.ReadFile(metaPath)
		if err != nil {
			return nil, fmt.Errorf("read report metadata %s: %w", metaPath, err)
		}

		var meta reportMeta
		if err := json.Unmarshal(content, &meta); err != nil {
			return nil, fmt.Errorf("decode report metadata %s: %w", metaPath, err)
		}

		if !latestSeen || meta.CreatedAt.After(latest.CreatedAt) {
			latest = meta
			latestSeen = true
		}
	}

	source, err := spill.Open[m.Finding](filepath.Join(string(dir), latest.FindingsFile))
	if err != nil {
		return nil, fmt.Errorf("open findings of run %s: %w", latest.RunID, err)
	}

	report := &m.RunReport{
		RunID:        latest.RunID,
		Crate:        latest.Crate,
		Criterion:    latest.Criterion,
		SnapshotHash: latest.SnapshotHash,
		CreatedAt:    latest.CreatedAt,
		Summary:      latest.Summary,
		Findings:     make([]m.Finding, 0, source.Len()),
	}

	err = source.Range(func(_ uint64, finding m.Finding) error {
		report.Findings = append(report.Findings, finding)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read findings of run %s: %w", latest.RunID, err)
	}

	return report, nil
}

// NewRunReport assembles the persisted artifact for one analysis.
func NewRunReport(analysis *m.Analysis, snapshotHash string, summary map[m.TerminalState]int) *m.RunReport {
	return &m.RunReport{
		RunID:        uuid.NewString(),
		Crate:        analysis.Crate,
		Criterion:    analysis.Criterion,
		SnapshotHash: snapshotHash,
		CreatedAt:    time.Now().UTC(),
		Summary:      summary,
		Findings:     analysis.Findings,
	}
}
