package domain

import (
	"sort"

	m "github.com/safer-rust/rust-safety-standard/internal/model"
)

// Collector accumulates terminal states and findings during a run. Each item
// receives exactly one terminal state; when several checks flag the same
// item, violation precedence decides which state (and finding) survives.
// Advisory findings accumulate independently and never replace anything.
//
// A Collector is not safe for concurrent use; the engine gives each graph
// component its own and merges afterwards.
type Collector struct {
	states     map[m.Path]m.TerminalState
	declIndex  map[m.Path]int
	violations map[m.Path]m.Finding
	advisories []m.Finding
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		states:     make(map[m.Path]m.TerminalState),
		declIndex:  make(map[m.Path]int),
		violations: make(map[m.Path]m.Finding),
	}
}

// Classify records a terminal state for an item. A violation finding must
// accompany any violating state; pass the zero Finding for Sound states.
func (c *Collector) Classify(item m.Path, declIndex int, state m.TerminalState, finding m.Finding) {
	c.declIndex[item] = declIndex

	current, seen := c.states[item]
	if seen && !state.Supersedes(current) {
		return
	}

	c.states[item] = state

	if state.Violation() {
		c.violations[item] = finding
	} else {
		delete(c.violations, item)
	}
}

// Advise records a recommended-rule finding. Advisories are never filtered or
// deduplicated.
func (c *Collector) Advise(finding m.Finding) {
	c.advisories = append(c.advisories, finding)
}

// State returns the currently recorded terminal state for an item.
func (c *Collector) State(item m.Path) (m.TerminalState, bool) {
	state, ok := c.states[item]
	return state, ok
}

// Merge folds another collector into c, re-applying precedence so the result
// is identical to sequential collection.
func (c *Collector) Merge(other *Collector) {
	for item, state := range other.states {
		c.Classify(item, other.declIndex[item], state, other.violations[item])
	}

	c.advisories = append(c.advisories, other.advisories...)
}

// Result assembles the analysis output: every item's terminal state plus the
// findings ordered stable by declaration index.
func (c *Collector) Result(crate string, criterion m.Criterion) *m.Analysis {
	states := make(map[m.Path]m.TerminalState, len(c.states))
	for item, state := range c.states {
		states[item] = state
	}

	findings := make([]m.Finding, 0, len(c.violations)+len(c.advisories))
	for _, finding := range c.violations {
		findings = append(findings, finding)
	}

	findings = append(findings, c.advisories...)

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].DeclIndex != findings[j].DeclIndex {
			return findings[i].DeclIndex < findings[j].DeclIndex
		}

		return findings[i].Item < findings[j].Item
	})

	return &m.Analysis{
		Crate:     crate,
		Criterion: criterion,
		States:    states,
		Findings:  findings,
	}
}

// Summarize counts terminal states for the run report.
func Summarize(analysis *m.Analysis) map[m.TerminalState]int {
	summary := make(map[m.TerminalState]int)
	for _, state := range analysis.States {
		summary[state]++
	}

	return summary
}
