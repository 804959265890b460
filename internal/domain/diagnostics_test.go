package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/safer-rust/rust-safety-standard/internal/model"
)

func violationFinding(item m.Path, state m.TerminalState, declIndex int) m.Finding {
	return m.Finding{
		Item:      item,
		State:     state,
		Rule:      m.RuleSafeWithObligations,
		Severity:  m.SeverityViolation,
		DeclIndex: declIndex,
	}
}

func TestCollector_PrecedenceKeepsStrongestState(t *testing.T) {
	c := NewCollector()

	c.Classify("demo::f", 0, m.StateClassificationViolation, violationFinding("demo::f", m.StateClassificationViolation, 0))
	c.Classify("demo::f", 0, m.StateBoundaryViolation, violationFinding("demo::f", m.StateBoundaryViolation, 0))
	// A weaker state afterwards must not downgrade.
	c.Classify("demo::f", 0, m.SoundSafe, m.Finding{})

	state, ok := c.State("demo::f")
	require.True(t, ok)
	assert.Equal(t, m.StateBoundaryViolation, state)

	result := c.Result("demo", m.ModuleLevel)
	require.Len(t, result.Findings, 1)
	assert.Equal(t, m.StateBoundaryViolation, result.Findings[0].State)
}

func TestCollector_SoundStateClearsNothing(t *testing.T) {
	c := NewCollector()

	c.Classify("demo::f", 0, m.SoundSafe, m.Finding{})
	c.Classify("demo::f", 0, m.SoundUnsafe, m.Finding{})

	state, _ := c.State("demo::f")
	assert.Equal(t, m.SoundUnsafe, state)

	result := c.Result("demo", m.ModuleLevel)
	assert.Empty(t, result.Findings)
}

func TestCollector_ViolationReplacesSoundFinding(t *testing.T) {
	c := NewCollector()

	c.Classify("demo::f", 0, m.SoundSafe, m.Finding{})
	c.Classify("demo::f", 0, m.StateClassificationViolation, violationFinding("demo::f", m.StateClassificationViolation, 0))

	result := c.Result("demo", m.ModuleLevel)
	require.Len(t, result.Findings, 1)
	assert.Equal(t, m.SeverityViolation, result.Findings[0].Severity)
}

func TestCollector_MergeMatchesSequential(t *testing.T) {
	sequential := NewCollector()
	sequential.Classify("demo::a", 0, m.StateClassificationViolation, violationFinding("demo::a", m.StateClassificationViolation, 0))
	sequential.Classify("demo::b", 1, m.SoundSafe, m.Finding{})
	sequential.Advise(m.Finding{Item: "demo::a", Rule: m.RuleJustificationText, Severity: m.SeverityAdvisory})

	left := NewCollector()
	left.Classify("demo::a", 0, m.StateClassificationViolation, violationFinding("demo::a", m.StateClassificationViolation, 0))
	left.Advise(m.Finding{Item: "demo::a", Rule: m.RuleJustificationText, Severity: m.SeverityAdvisory})

	right := NewCollector()
	right.Classify("demo::b", 1, m.SoundSafe, m.Finding{})

	merged := NewCollector()
	merged.Merge(left)
	merged.Merge(right)

	assert.Equal(t, sequential.Result("demo", m.ModuleLevel), merged.Result("demo", m.ModuleLevel))
}

func TestCollector_ResultOrderedByDeclIndex(t *testing.T) {
	c := NewCollector()

	c.Classify("demo::late", 5, m.StateClassificationViolation, violationFinding("demo::late", m.StateClassificationViolation, 5))
	c.Classify("demo::early", 1, m.StateClassificationViolation, violationFinding("demo::early", m.StateClassificationViolation, 1))
	c.Advise(m.Finding{Item: "demo::mid", Severity: m.SeverityAdvisory, DeclIndex: 3})

	result := c.Result("demo", m.ModuleLevel)

	require.Len(t, result.Findings, 3)
	assert.Equal(t, m.Path("demo::early"), result.Findings[0].Item)
	assert.Equal(t, m.Path("demo::mid"), result.Findings[1].Item)
	assert.Equal(t, m.Path("demo::late"), result.Findings[2].Item)
}

func TestSummarize(t *testing.T) {
	analysis := &m.Analysis{
		States: map[m.Path]m.TerminalState{
			"demo::a": m.SoundSafe,
			"demo::b": m.SoundSafe,
			"demo::c": m.SoundUnsafe,
			"demo::d": m.StateBoundaryViolation,
		},
	}

	summary := Summarize(analysis)

	assert.Equal(t, 2, summary[m.SoundSafe])
	assert.Equal(t, 1, summary[m.SoundUnsafe])
	assert.Equal(t, 1, summary[m.StateBoundaryViolation])
}
