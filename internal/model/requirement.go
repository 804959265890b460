// Package model defines the data structures for soundness classification.
package model

import (
	"sort"
	"strings"
)

// SetMode determines how the requirements of a set combine.
type SetMode string

const (
	// SetAll combines requirements under conjunction: every one must hold.
	SetAll SetMode = "all"
	// SetAny combines requirements under disjunction: at least one must hold.
	SetAny SetMode = "any"
)

// Requirement is an atomic, externally verifiable safety predicate. It may
// reference only identifiers visible at its declaration site: function
// parameters, self fields on a method, or struct fields on a type invariant.
type Requirement struct {
	ID        string   `yaml:"id,omitempty"`
	Predicate string   `yaml:"predicate"`
	Idents    []string `yaml:"idents,omitempty"`

	// Establishes names the type-invariant element this requirement carries
	// to callers, by invariant requirement ID or predicate text. Meaningful
	// on constructor requirements: "x is even" establishes "value is even"
	// once the caller upholds it.
	Establishes string `yaml:"establishes,omitempty"`
}

// Key returns the normalized comparison key for the requirement: the
// normalized predicate plus the sorted identifier set. Two requirements with
// equal keys are considered the same contract element.
func (r Requirement) Key() string {
	idents := make([]string, len(r.Idents))
	copy(idents, r.Idents)
	sort.Strings(idents)

	return NormalizePredicate(r.Predicate) + "|" + strings.Join(idents, ",")
}

// Matches reports whether two requirements state the same contract element.
func (r Requirement) Matches(other Requirement) bool {
	if r.ID != "" && r.ID == other.ID {
		return true
	}

	return r.Key() == other.Key()
}

// RequirementSet is a set of requirements combined under conjunction or
// disjunction. The zero value is the empty set.
type RequirementSet struct {
	Mode SetMode       `yaml:"mode,omitempty"`
	Reqs []Requirement `yaml:"reqs,omitempty"`
}

// Empty reports whether the set contains no requirements.
func (s RequirementSet) Empty() bool {
	return len(s.Reqs) == 0
}

// Conjunctive reports whether the set combines under conjunction. A set with
// no declared mode or a single requirement is conjunctive.
func (s RequirementSet) Conjunctive() bool {
	return s.Mode != SetAny || len(s.Reqs) <= 1
}

// Contains reports whether some requirement in the set matches req.
func (s RequirementSet) Contains(req Requirement) bool {
	for _, candidate := range s.Reqs {
		if candidate.Matches(req) {
			return true
		}
	}

	return false
}

// Establishes reports whether some requirement in the set explicitly carries
// the given invariant element to callers.
func (s RequirementSet) Establishes(invariant Requirement) bool {
	for _, candidate := range s.Reqs {
		if candidate.Establishes == "" {
			continue
		}

		if invariant.ID != "" && candidate.Establishes == invariant.ID {
			return true
		}

		if NormalizePredicate(candidate.Establishes) == NormalizePredicate(invariant.Predicate) {
			return true
		}
	}

	return false
}

// ContainsPredicate reports whether some requirement in the set has the given
// predicate text after normalization. Identifier sets are not compared; this
// is the lookup used for guard-negation disjuncts, which reference the same
// identifiers as the guard itself.
func (s RequirementSet) ContainsPredicate(predicate string) bool {
	want := NormalizePredicate(predicate)
	for _, candidate := range s.Reqs {
		if NormalizePredicate(candidate.Predicate) == want {
			return true
		}
	}

	return false
}

// Covers reports whether the declared set re-states the obligation carried by
// other. A conjunctive obligation is covered when every element is present; a
// disjunctive obligation is covered when at least one disjunct is present.
func (s RequirementSet) Covers(other RequirementSet) bool {
	if other.Empty() {
		return true
	}

	if other.Conjunctive() {
		for _, req := range other.Reqs {
			if !s.Contains(req) {
				return false
			}
		}

		return true
	}

	for _, req := range other.Reqs {
		if s.Contains(req) {
			return true
		}
	}

	return false
}

// Justification is a caller-supplied claim that a specific requirement holds
// at a call site. The engine checks presence and identifier correspondence,
// never logical truth.
type Justification struct {
	// For names the requirement being discharged, either by requirement ID
	// or by predicate text.
	For string `yaml:"for"`
	// Text is the free-form explanation of why the requirement holds.
	Text string `yaml:"text,omitempty"`
}

// Discharges reports whether the justification targets req.
func (j Justification) Discharges(req Requirement) bool {
	if req.ID != "" && j.For == req.ID {
		return true
	}

	return NormalizePredicate(j.For) == NormalizePredicate(req.Predicate)
}

// NormalizePredicate canonicalizes predicate text for structural comparison:
// lower case, collapsed whitespace, no trailing punctuation.
func NormalizePredicate(predicate string) string {
	fields := strings.Fields(strings.ToLower(predicate))
	joined := strings.Join(fields, " ")

	return strings.TrimRight(joined, ".;")
}
