package domain

import (
	"fmt"

	m "github.com/safer-rust/rust-safety-standard/internal/model"
)

// validateItemModel checks the structural well-formedness of all declared
// requirement sets: every referenced identifier must be visible at the
// declaration site. Function and method requirements may name parameters and,
// on a method, self fields; a struct invariant may name only the struct's own
// fields. Requirements referencing body-local state are malformed.
//
// Findings are reported against the declaring item, or against the struct
// path for a malformed type invariant.
func validateItemModel(crate *m.Crate, idx *crateIndex, collector *Collector) {
	for _, item := range crate.Items {
		validateItemRequirements(item, idx, collector)
	}

	for _, s := range crate.Structs {
		validateStructInvariant(s, collector)
	}

	for _, t := range crate.Traits {
		if !t.Unsafe && !t.Invariant.Empty() {
			collector.Advise(m.Finding{
				Item:        t.Path,
				Rule:        m.RuleTraitInvariantIgnored,
				Severity:    m.SeverityAdvisory,
				Explanation: "trait invariant declared on a safe trait has no contractual meaning",
				DeclIndex:   t.DeclIndex,
			})
		}
	}
}

func validateItemRequirements(item *m.Item, idx *crateIndex, collector *Collector) {
	visible := make(map[string]struct{}, len(item.Params)+8)
	for _, param := range item.Params {
		visible[param] = struct{}{}
	}

	if item.HasReceiver() {
		visible["self"] = struct{}{}

		if owner := idx.owner(item); owner != nil {
			for _, field := range owner.Fields {
				visible[field.Name] = struct{}{}
			}
		}
	}

	for _, req := range item.Requires.Reqs {
		for _, ident := range req.Idents {
			if _, ok := visible[ident]; ok {
				continue
			}

			collector.Classify(item.Path, item.DeclIndex, m.StateMalformedRequirement, m.Finding{
				Item:     item.Path,
				State:    m.StateMalformedRequirement,
				Rule:     m.RuleRequirementVisibility,
				Severity: m.SeverityViolation,
				Explanation: fmt.Sprintf(
					"requirement %q references %q, which is not a parameter or self field visible at the declaration site",
					req.Predicate, ident,
				),
				DeclIndex: item.DeclIndex,
			})
		}
	}
}

func validateStructInvariant(s *m.Struct, collector *Collector) {
	if !s.HasInvariant() {
		return
	}

	fields := make(map[string]struct{}, len(s.Fields))
	for _, field := range s.Fields {
		fields[field.Name] = struct{}{}
	}

	for _, req := range s.Invariant.Reqs {
		for _, ident := range req.Idents {
			if _, ok := fields[ident]; ok {
				continue
			}

			collector.Classify(s.Path, s.DeclIndex, m.StateMalformedRequirement, m.Finding{
				Item:     s.Path,
				State:    m.StateMalformedRequirement,
				Rule:     m.RuleRequirementVisibility,
				Severity: m.SeverityViolation,
				Explanation: fmt.Sprintf(
					"type invariant %q references %q, which is not a field of %s",
					req.Predicate, ident, s.Path,
				),
				DeclIndex: s.DeclIndex,
			})
		}
	}
}
