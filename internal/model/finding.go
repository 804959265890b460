package model

import (
	"errors"
	"time"
)

// TerminalState is the single classification an item receives per run.
type TerminalState string

const (
	// SoundSafe is a correctly safe item: no unresolved obligations and no
	// declared-unsafe marker.
	SoundSafe TerminalState = "sound_safe"
	// SoundUnsafe is a correctly unsafe item with a complete documented
	// contract covering all of its obligations.
	SoundUnsafe TerminalState = "sound_unsafe"
	// StateClassificationViolation means the declared safety marker does not
	// match the computed obligation status.
	StateClassificationViolation TerminalState = "classification_violation"
	// StateBoundaryViolation means an access path escapes the soundness
	// boundary while bypassing a required discharge.
	StateBoundaryViolation TerminalState = "boundary_violation"
	// StateMalformedRequirement means a declared requirement references an
	// identifier not visible at its declaration site.
	StateMalformedRequirement TerminalState = "malformed_requirement"
	// StateContractStrengthening means a trait implementation states a
	// stricter requirement set than the trait contract allows.
	StateContractStrengthening TerminalState = "contract_strengthening_violation"
)

// Violation reports whether the state is a violation rather than a Sound one.
func (s TerminalState) Violation() bool {
	return s != SoundSafe && s != SoundUnsafe
}

// precedence orders violation states; a higher value overrides a lower one
// when several checks flag the same item.
func (s TerminalState) precedence() int {
	switch s {
	case StateMalformedRequirement:
		return 5
	case StateContractStrengthening:
		return 4
	case StateBoundaryViolation:
		return 3
	case StateClassificationViolation:
		return 2
	case SoundUnsafe:
		return 1
	case SoundSafe:
		return 0
	}

	return 0
}

// Supersedes reports whether s takes priority over other for an item's
// terminal state.
func (s TerminalState) Supersedes(other TerminalState) bool {
	return s.precedence() > other.precedence()
}

// RuleID identifies the violated or advisory rule of the safety standard.
type RuleID string

const (
	// RuleRequirementVisibility: a requirement references an identifier that
	// is not a parameter, self field, or own struct field.
	RuleRequirementVisibility RuleID = "requirement-visibility"
	// RuleSafeWithObligations: an item declared safe carries unresolved
	// obligations or a non-empty requirement set.
	RuleSafeWithObligations RuleID = "declared-safe-with-obligations"
	// RuleNeedlessUnsafe: an item declared unsafe has an empty requirement
	// set and no obligations.
	RuleNeedlessUnsafe RuleID = "declared-unsafe-without-obligations"
	// RuleIncompleteSafetyDocs: an unsafe item's documented contract omits a
	// propagated requirement.
	RuleIncompleteSafetyDocs RuleID = "incomplete-safety-docs"
	// RuleConstructorInvariant: a constructor neither establishes the type
	// invariant nor re-declares it as its own requirement.
	RuleConstructorInvariant RuleID = "constructor-invariant-unestablished"
	// RuleInvariantPrecondition: an invariant-dependent method does not
	// declare that the invariant holds as a precondition.
	RuleInvariantPrecondition RuleID = "invariant-precondition-undocumented"
	// RuleInvariantBreak: an op can break the invariant without the item
	// declaring that explicitly.
	RuleInvariantBreak RuleID = "invariant-break-undocumented"
	// RuleBoundaryEscape: struct internals are reached from outside the
	// soundness boundary without a discharge.
	RuleBoundaryEscape RuleID = "boundary-escape"
	// RuleContractStrengthening: an implementation requires more than the
	// trait contract.
	RuleContractStrengthening RuleID = "trait-contract-strengthening"
	// RuleCyclicObligation: the obligation graph contains an item cycle.
	RuleCyclicObligation RuleID = "cyclic-obligation"

	// RuleJustificationText: a discharge claim carries no explanation text.
	// Advisory only; justifications are encouraged to be verifiable.
	RuleJustificationText RuleID = "justification-without-explanation"
	// RuleTraitInvariantIgnored: a safe trait declares an invariant, which
	// has no meaning outside unsafe traits. Advisory only.
	RuleTraitInvariantIgnored RuleID = "trait-invariant-on-safe-trait"
	// RuleBoundaryReliance: a safe item nameable outside the soundness
	// boundary reaches invariant-protected internals without a discharge.
	// Sound only while the boundary holds; advisory only.
	RuleBoundaryReliance RuleID = "boundary-reliance"
)

// Severity separates mandatory-rule violations from recommended-rule
// advisories. Advisories never affect terminal states or exit status.
type Severity string

const (
	// SeverityViolation marks a mandatory rule violation.
	SeverityViolation Severity = "violation"
	// SeverityAdvisory marks a recommended-rule finding.
	SeverityAdvisory Severity = "advisory"
)

// Finding is one structured diagnostic record, consumed by the external
// reporting layer.
type Finding struct {
	Item        Path          `yaml:"item" json:"item"`
	State       TerminalState `yaml:"state" json:"state"`
	Rule        RuleID        `yaml:"rule" json:"rule"`
	Severity    Severity      `yaml:"severity" json:"severity"`
	Explanation string        `yaml:"explanation" json:"explanation"`

	// DeclIndex mirrors the item's declaration order; findings are exposed
	// stable by it.
	DeclIndex int `yaml:"decl_index" json:"decl_index"`
}

// Analysis is the engine's output for one crate: every item's terminal state
// plus the ordered findings.
type Analysis struct {
	Crate     string
	Criterion Criterion
	States    map[Path]TerminalState
	Findings  []Finding
}

// Violations counts the mandatory-severity findings.
func (a *Analysis) Violations() int {
	count := 0
	for _, finding := range a.Findings {
		if finding.Severity == SeverityViolation {
			count++
		}
	}

	return count
}

// RunReport is the persisted artifact of one analysis run.
type RunReport struct {
	RunID        string                `yaml:"run_id" json:"run_id"`
	Crate        string                `yaml:"crate" json:"crate"`
	Criterion    Criterion             `yaml:"criterion" json:"criterion"`
	SnapshotHash string                `yaml:"snapshot_hash" json:"snapshot_hash"`
	CreatedAt    time.Time             `yaml:"created_at" json:"created_at"`
	Summary      map[TerminalState]int `yaml:"summary" json:"summary"`
	Findings     []Finding             `yaml:"findings" json:"findings"`
}

// ErrCyclicObligation aborts a run: discharge order is undefined on a cyclic
// obligation graph.
var ErrCyclicObligation = errors.New("obligation graph contains a cycle")
