package adapter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/safer-rust/rust-safety-standard/internal/model"
)

func sampleReport(runID string, createdAt time.Time) *m.RunReport {
	return &m.RunReport{
		RunID:        runID,
		Crate:        "demo",
		Criterion:    m.ModuleLevel,
		SnapshotHash: "abc123",
		CreatedAt:    createdAt,
		Summary: map[m.TerminalState]int{
			m.SoundSafe:                    2,
			m.StateClassificationViolation: 1,
		},
		Findings: []m.Finding{
			{
				Item:        "demo::careless",
				State:       m.StateClassificationViolation,
				Rule:        m.RuleSafeWithObligations,
				Severity:    m.SeverityViolation,
				Explanation: "declared safe but carries undischarged obligations",
				DeclIndex:   1,
			},
			{
				Item:     "demo::sloppy",
				Rule:     m.RuleJustificationText,
				Severity: m.SeverityAdvisory,
			},
		},
	}
}

func TestFindingsStore_SaveAndLoadLatestRoundTrip(t *testing.T) {
	dir := m.Path(t.TempDir())
	store := NewFindingsStore()

	report := sampleReport("run-1", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, store.Save(dir, report))

	loaded, err := store.LoadLatest(dir)
	require.NoError(t, err)

	assert.Equal(t, report.RunID, loaded.RunID)
	assert.Equal(t, report.Crate, loaded.Crate)
	assert.Equal(t, report.Criterion, loaded.Criterion)
	assert.Equal(t, report.SnapshotHash, loaded.SnapshotHash)
	assert.Equal(t, report.Summary, loaded.Summary)
	assert.Equal(t, report.Findings, loaded.Findings)
}

func TestFindingsStore_LoadLatestPicksNewestRun(t *testing.T) {
	dir := m.Path(t.TempDir())
	store := NewFindingsStore()

	older := sampleReport("run-old", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	newer := sampleReport("run-new", time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC))

	require.NoError(t, store.Save(dir, older))
	require.NoError(t, store.Save(dir, newer))

	loaded, err := store.LoadLatest(dir)
	require.NoError(t, err)
	assert.Equal(t, "run-new", loaded.RunID)
}

func TestFindingsStore_LoadLatestEmptyDirFails(t *testing.T) {
	_, err := NewFindingsStore().LoadLatest(m.Path(t.TempDir()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no reports found")
}

func TestNewRunReport(t *testing.T) {
	analysis := &m.Analysis{
		Crate:     "demo",
		Criterion: m.CrateLevel,
		Findings:  []m.Finding{{Item: "demo::f", Severity: m.SeverityViolation}},
	}
	summary := map[m.TerminalState]int{m.SoundSafe: 1}

	report := NewRunReport(analysis, "deadbeef", summary)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "demo", report.Crate)
	assert.Equal(t, m.CrateLevel, report.Criterion)
	assert.Equal(t, "deadbeef", report.SnapshotHash)
	assert.Equal(t, summary, report.Summary)
	assert.Equal(t, analysis.Findings, report.Findings)
	assert.WithinDuration(t, time.Now().UTC(), report.CreatedAt, time.Minute)

	// Run IDs are unique per report.
	other := NewRunReport(analysis, "deadbeef", summary)
	assert.NotEqual(t, report.RunID, other.RunID)
}
