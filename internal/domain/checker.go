package domain

import (
	"fmt"
	"strings"

	m "github.com/safer-rust/rust-safety-standard/internal/model"
)

// checker classifies items against the soundness criterion. It runs over a
// graph component in dependency order, callees before callers, and records
// exactly one terminal state per item through the collector.
type checker struct {
	graph     *obligationGraph
	resolver  *visibilityResolver
	criterion m.Criterion
	collector *Collector

	// malformed lists items rejected by model validation; their contract
	// text cannot be trusted for discharge matching, so they are skipped.
	malformed map[m.Path]struct{}
}

func newChecker(graph *obligationGraph, resolver *visibilityResolver, criterion m.Criterion, collector *Collector, malformed map[m.Path]struct{}) *checker {
	return &checker{
		graph:     graph,
		resolver:  resolver,
		criterion: criterion,
		collector: collector,
		malformed: malformed,
	}
}

// checkItems classifies the given items, which must already be in dependency
// order.
func (c *checker) checkItems(items []*m.Item) {
	for _, item := range items {
		if _, skip := c.malformed[item.Path]; skip {
			continue
		}

		c.checkItem(item)
	}
}

// checkItem runs the per-item state machine: discharge and propagation,
// invariant rules, unsafe-marker consistency, then boundary gating.
func (c *checker) checkItem(item *m.Item) {
	obligations := c.outstandingObligations(item)
	obligations = append(obligations, c.invariantObligations(item)...)

	uncovered := make([]obligation, 0)
	for _, ob := range obligations {
		if !c.declaredCovers(item, ob) {
			uncovered = append(uncovered, ob)
		}
	}

	c.classifyDeclaration(item, obligations, uncovered)
	c.checkBoundary(item)
}

// obligation is one requirement set an item must either discharge or carry
// in its own declared contract, with the rule to cite when it does neither.
type obligation struct {
	requires m.RequirementSet
	rule     m.RuleID
	detail   string
}

// outstandingObligations gathers, per edge, whatever the call-site
// justifications left unclaimed, minus anything excluded by the guarded
// path rule.
func (c *checker) outstandingObligations(item *m.Item) []obligation {
	var obligations []obligation

	for _, edge := range c.graph.edges[item.Path] {
		for _, req := range edge.unexplained {
			c.collector.Advise(m.Finding{
				Item:     item.Path,
				Rule:     m.RuleJustificationText,
				Severity: m.SeverityAdvisory,
				Explanation: fmt.Sprintf(
					"requirement %q is claimed without an externally verifiable explanation",
					req.Predicate,
				),
				DeclIndex: item.DeclIndex,
			})
		}

		if edge.outstanding.Empty() {
			continue
		}

		// Struct-internal access from inside the soundness boundary needs no
		// discharge; the Vec precedent. Constructors stay on the hook for
		// establishing the invariant.
		if c.toleratedAccess(item, edge) {
			continue
		}

		// Path-sensitive acceptance: a call guarded by g obligates nothing
		// when the caller's own disjunctive contract carries g's negation as
		// a disjunct AND the disjuncts live on the guarded path subsume the
		// callee requirement. The "x <= 0 OR valid" transformation.
		if edge.op.Guard != "" && edge.op.GuardNegation != "" &&
			!item.Requires.Conjunctive() &&
			item.Requires.ContainsPredicate(edge.op.GuardNegation) &&
			guardedDisjuncts(item.Requires, edge.op.GuardNegation).Covers(edge.outstanding) {
			continue
		}

		obligations = append(obligations, obligation{
			requires: edge.outstanding,
			rule:     ruleForEdge(edge),
			detail:   edgeDetail(edge),
		})
	}

	return obligations
}

// toleratedAccess reports whether an invariant-protected access may proceed
// without a discharge: the accessor is a non-constructor lying inside the
// target struct's soundness boundary.
func (c *checker) toleratedAccess(item *m.Item, edge obligationEdge) bool {
	if item.Constructor {
		return false
	}

	if edge.op.Kind != m.OpFieldWrite && edge.op.Kind != m.OpLiteralConstruct {
		return false
	}

	target, ok := c.graph.idx.structs[edge.op.Struct]
	if !ok {
		return false
	}

	return c.resolver.Boundary(c.criterion, target).Inside(item)
}

// guardedDisjuncts returns the disjuncts still live on a path where the guard
// holds, dropping the one stating the guard's negation.
func guardedDisjuncts(requires m.RequirementSet, guardNegation string) m.RequirementSet {
	negation := m.NormalizePredicate(guardNegation)

	live := m.RequirementSet{Mode: requires.Mode}
	for _, req := range requires.Reqs {
		if m.NormalizePredicate(req.Predicate) == negation {
			continue
		}

		live.Reqs = append(live.Reqs, req)
	}

	return live
}

func ruleForEdge(edge obligationEdge) m.RuleID {
	switch edge.op.Kind {
	case m.OpLiteralConstruct, m.OpFieldWrite:
		return m.RuleConstructorInvariant
	case m.OpCall, m.OpRawDeref, m.OpStaticMutAccess, m.OpUnionFieldAccess:
		return m.RuleIncompleteSafetyDocs
	}

	return m.RuleIncompleteSafetyDocs
}

func edgeDetail(edge obligationEdge) string {
	switch edge.op.Kind {
	case m.OpCall:
		return fmt.Sprintf("call to %s", edge.op.Callee)
	case m.OpLiteralConstruct:
		return fmt.Sprintf("literal construction of %s", edge.op.Struct)
	case m.OpFieldWrite:
		return fmt.Sprintf("write to %s.%s", edge.op.Struct, edge.op.Field)
	case m.OpRawDeref, m.OpStaticMutAccess, m.OpUnionFieldAccess:
		return string(edge.op.Kind)
	}

	return string(edge.op.Kind)
}

// invariantObligations applies the struct invariant rules: a constructor must
// establish the invariant; an invariant-dependent method must state that the
// invariant holds as a precondition; an invariant-breaking op must appear as
// an explicit requirement.
func (c *checker) invariantObligations(item *m.Item) []obligation {
	owner := c.graph.idx.owner(item)
	if owner == nil || !owner.HasInvariant() {
		return nil
	}

	var obligations []obligation

	if item.Constructor {
		if unestablished := c.unestablishedInvariant(item, owner); !unestablished.Empty() {
			obligations = append(obligations, obligation{
				requires: unestablished,
				rule:     m.RuleConstructorInvariant,
				detail:   fmt.Sprintf("constructor of %s", owner.Path),
			})
		}

		return obligations
	}

	for _, op := range item.Body {
		if op.UsesInvariant {
			obligations = append(obligations, obligation{
				requires: owner.Invariant,
				rule:     m.RuleInvariantPrecondition,
				detail:   fmt.Sprintf("discharge relies on the invariant of %s", owner.Path),
			})

			break
		}
	}

	for _, op := range item.Body {
		if op.BreaksInvariant {
			obligations = append(obligations, obligation{
				requires: owner.Invariant,
				rule:     m.RuleInvariantBreak,
				detail:   fmt.Sprintf("operation can break the invariant of %s", owner.Path),
			})

			break
		}
	}

	return obligations
}

// unestablishedInvariant returns the invariant elements the constructor body
// neither justifies nor passes to callers. Establishment is the same presence
// check as call-site discharge: some body justification claims the invariant
// element, or some declared requirement explicitly establishes it (the
// new_unchecked shape, where "x is even" carries "value is even" outward).
func (c *checker) unestablishedInvariant(item *m.Item, owner *m.Struct) m.RequirementSet {
	var claims []m.Justification
	for _, op := range item.Body {
		claims = append(claims, op.Justify...)
	}

	remaining, _ := settle(owner.Invariant, claims)
	if remaining.Empty() {
		return remaining
	}

	unestablished := m.RequirementSet{Mode: remaining.Mode}
	for _, inv := range remaining.Reqs {
		if item.Requires.Establishes(inv) || item.Requires.Contains(inv) {
			continue
		}

		unestablished.Reqs = append(unestablished.Reqs, inv)
	}

	// A disjunctive invariant is established once any element is.
	if !remaining.Conjunctive() && len(unestablished.Reqs) < len(remaining.Reqs) {
		return m.RequirementSet{}
	}

	return unestablished
}

// declaredCovers reports whether the item's own documented contract re-states
// the obligation, turning it into a caller-facing requirement. An element is
// carried either verbatim or through an Establishes link, the new_unchecked
// shape where "x is even" carries "value is even" outward in translated form.
func (c *checker) declaredCovers(item *m.Item, ob obligation) bool {
	carried := func(req m.Requirement) bool {
		return item.Requires.Contains(req) || item.Requires.Establishes(req)
	}

	// "A or B" guarantees only that one disjunct holds, so it carries a
	// conjunctive obligation never, and a disjunctive one only when every
	// disjunct re-states some element of it. An unconditional call under a
	// disjunctive contract is accepted solely through the guarded-path rule.
	if !item.Requires.Conjunctive() {
		if ob.requires.Conjunctive() {
			return false
		}

		for _, disjunct := range item.Requires.Reqs {
			if !ob.requires.Contains(disjunct) {
				return false
			}
		}

		return true
	}

	if ob.requires.Conjunctive() {
		for _, req := range ob.requires.Reqs {
			if !carried(req) {
				return false
			}
		}

		return true
	}

	for _, req := range ob.requires.Reqs {
		if carried(req) {
			return true
		}
	}

	return false
}

// classifyDeclaration encodes the safety rules: a non-empty final requirement
// set demands declared-unsafe, an empty one forbids it, and an unsafe item's
// docs must carry every propagated requirement.
func (c *checker) classifyDeclaration(item *m.Item, obligations, uncovered []obligation) {
	hasObligations := len(obligations) > 0
	requiresUnsafe := hasObligations || !item.Requires.Empty()

	switch {
	case len(uncovered) > 0 && !item.Unsafe:
		c.collector.Classify(item.Path, item.DeclIndex, m.StateClassificationViolation, m.Finding{
			Item:        item.Path,
			State:       m.StateClassificationViolation,
			Rule:        m.RuleSafeWithObligations,
			Severity:    m.SeverityViolation,
			Explanation: fmt.Sprintf("declared safe but carries undischarged obligations: %s", describe(uncovered)),
			DeclIndex:   item.DeclIndex,
		})

	case len(uncovered) > 0 && item.Unsafe:
		c.collector.Classify(item.Path, item.DeclIndex, m.StateClassificationViolation, m.Finding{
			Item:        item.Path,
			State:       m.StateClassificationViolation,
			Rule:        uncovered[0].rule,
			Severity:    m.SeverityViolation,
			Explanation: fmt.Sprintf("declared unsafe but the documented contract omits: %s", describe(uncovered)),
			DeclIndex:   item.DeclIndex,
		})

	case requiresUnsafe && !item.Unsafe:
		// No uncovered obligations, but the declared contract itself is
		// non-empty: a safe marker contradicts it.
		c.collector.Classify(item.Path, item.DeclIndex, m.StateClassificationViolation, m.Finding{
			Item:        item.Path,
			State:       m.StateClassificationViolation,
			Rule:        m.RuleSafeWithObligations,
			Severity:    m.SeverityViolation,
			Explanation: "declared safe while documenting a non-empty safety requirement set",
			DeclIndex:   item.DeclIndex,
		})

	case !requiresUnsafe && item.Unsafe:
		c.collector.Classify(item.Path, item.DeclIndex, m.StateClassificationViolation, m.Finding{
			Item:        item.Path,
			State:       m.StateClassificationViolation,
			Rule:        m.RuleNeedlessUnsafe,
			Severity:    m.SeverityViolation,
			Explanation: "declared unsafe with no obligations and an empty requirement set",
			DeclIndex:   item.DeclIndex,
		})

	case item.Unsafe:
		c.collector.Classify(item.Path, item.DeclIndex, m.SoundUnsafe, m.Finding{})

	default:
		c.collector.Classify(item.Path, item.DeclIndex, m.SoundSafe, m.Finding{})
	}
}

func describe(obligations []obligation) string {
	parts := make([]string, 0, len(obligations))
	for _, ob := range obligations {
		preds := make([]string, 0, len(ob.requires.Reqs))
		for _, req := range ob.requires.Reqs {
			preds = append(preds, fmt.Sprintf("%q", req.Predicate))
		}

		parts = append(parts, fmt.Sprintf("%s (%s)", strings.Join(preds, ", "), ob.detail))
	}

	return strings.Join(parts, "; ")
}

// checkBoundary flags struct-internal access performed from outside the
// soundness boundary while bypassing a discharge. Inside the boundary such
// access is tolerated under ModuleLevel and CrateLevel; StructLevel tolerates
// only the struct's own impls. Boundary violations override whatever the
// item's own classification was.
func (c *checker) checkBoundary(item *m.Item) {
	for _, edge := range c.graph.edges[item.Path] {
		op := edge.op
		if op.Kind != m.OpLiteralConstruct && op.Kind != m.OpFieldWrite {
			continue
		}

		target, ok := c.graph.idx.structs[op.Struct]
		if !ok || !target.HasInvariant() {
			continue
		}

		// A fully justified access is a discharge, not a bypass.
		if edge.outstanding.Empty() && !edge.requires.Empty() {
			continue
		}

		if c.resolver.Boundary(c.criterion, target).Inside(item) {
			continue
		}

		c.collector.Classify(item.Path, item.DeclIndex, m.StateBoundaryViolation, m.Finding{
			Item:     item.Path,
			State:    m.StateBoundaryViolation,
			Rule:     m.RuleBoundaryEscape,
			Severity: m.SeverityViolation,
			Explanation: fmt.Sprintf(
				"%s reaches invariant-protected internals of %s from outside the %s-level soundness boundary",
				edgeDetail(edge), target.Path, c.criterion,
			),
			DeclIndex: item.DeclIndex,
		})
	}
}

// checkTraitContracts enforces contract monotonicity: an implementation may
// state an equal or weaker requirement set than the trait method, never a
// stricter one. Runs once per crate, outside the component split, since it
// relates items across impls.
func checkTraitContracts(crate *m.Crate, idx *crateIndex, collector *Collector) error {
	for _, impl := range crate.Impls {
		for _, implMethod := range impl.Methods {
			declared, ok := idx.items[implMethod.Of]
			if !ok {
				// A method of a foreign trait carries no modeled contract,
				// like a call leaving the crate.
				continue
			}

			implementation, ok := idx.items[implMethod.Item]
			if !ok {
				return fmt.Errorf("impl of %s binds unknown item %q", impl.Trait, implMethod.Item)
			}

			checkImplAgainstTrait(declared, implementation, collector)
		}
	}

	return nil
}

// checkExposure runs the accessibility half of the escape analysis, once per
// crate. A latent escape is an invariant-bearing struct whose fields are
// nameable from a module outside the resolved soundness boundary: any code
// there could construct or mutate the struct while bypassing every discharge,
// whether or not the snapshot records such an access. Safe items that are
// themselves nameable outside the boundary while relying on tolerated access
// are the surface upholding the invariant; they get an advisory note.
func checkExposure(crate *m.Crate, graph *obligationGraph, resolver *visibilityResolver, criterion m.Criterion, collector *Collector) {
	observers := make([]m.Path, 0, len(crate.Modules)+1)
	observers = append(observers, crate.Root())
	for _, mod := range crate.Modules {
		if mod.Path != crate.Root() {
			observers = append(observers, mod.Path)
		}
	}

	for _, s := range crate.Structs {
		if !s.HasInvariant() {
			continue
		}

		b := resolver.Boundary(criterion, s)

		if field, observer, exposed := exposedField(s, b, resolver, observers); exposed {
			collector.Classify(s.Path, s.DeclIndex, m.StateBoundaryViolation, m.Finding{
				Item:     s.Path,
				State:    m.StateBoundaryViolation,
				Rule:     m.RuleBoundaryEscape,
				Severity: m.SeverityViolation,
				Explanation: fmt.Sprintf(
					"field %q of %s is nameable from %s, outside the %s-level soundness boundary",
					field, s.Path, observer, criterion,
				),
				DeclIndex: s.DeclIndex,
			})
		}
	}

	for _, item := range crate.Items {
		if item.Unsafe || item.Constructor {
			continue
		}

		target := toleratedTarget(item, graph, resolver, criterion)
		if target == nil {
			continue
		}

		b := resolver.Boundary(criterion, target)
		for _, observer := range observers {
			if b.CoversModule(observer) || !resolver.ItemNameable(item, observer) {
				continue
			}

			collector.Advise(m.Finding{
				Item:     item.Path,
				Rule:     m.RuleBoundaryReliance,
				Severity: m.SeverityAdvisory,
				Explanation: fmt.Sprintf(
					"reaches internals of %s without a discharge; soundness of this public surface rests on the %s-level boundary",
					target.Path, criterion,
				),
				DeclIndex: item.DeclIndex,
			})

			break
		}
	}
}

// exposedField returns the first (field, observer module) pair through which
// invariant-protected internals leak outside the boundary.
func exposedField(s *m.Struct, b boundary, resolver *visibilityResolver, observers []m.Path) (string, m.Path, bool) {
	for _, observer := range observers {
		if b.CoversModule(observer) {
			continue
		}

		for _, field := range s.Fields {
			if resolver.FieldNameable(s, field, observer) {
				return field.Name, observer, true
			}
		}
	}

	return "", "", false
}

// toleratedTarget returns the invariant-bearing struct an item reaches through
// an undischarged, in-boundary access, or nil.
func toleratedTarget(item *m.Item, graph *obligationGraph, resolver *visibilityResolver, criterion m.Criterion) *m.Struct {
	for _, edge := range graph.edges[item.Path] {
		if edge.op.Kind != m.OpFieldWrite && edge.op.Kind != m.OpLiteralConstruct {
			continue
		}

		if edge.outstanding.Empty() {
			continue
		}

		target, ok := graph.idx.structs[edge.op.Struct]
		if !ok || !target.HasInvariant() {
			continue
		}

		if resolver.Boundary(criterion, target).Inside(item) {
			return target
		}
	}

	return nil
}

func checkImplAgainstTrait(declared, implementation *m.Item, collector *Collector) {
	if implementation.Unsafe && !declared.Unsafe {
		collector.Classify(implementation.Path, implementation.DeclIndex, m.StateContractStrengthening, m.Finding{
			Item:     implementation.Path,
			State:    m.StateContractStrengthening,
			Rule:     m.RuleContractStrengthening,
			Severity: m.SeverityViolation,
			Explanation: fmt.Sprintf(
				"implementation is declared unsafe while trait method %s is safe", declared.Path,
			),
			DeclIndex: implementation.DeclIndex,
		})

		return
	}

	if weakerOrEqual(implementation.Requires, declared.Requires) {
		return
	}

	collector.Classify(implementation.Path, implementation.DeclIndex, m.StateContractStrengthening, m.Finding{
		Item:     implementation.Path,
		State:    m.StateContractStrengthening,
		Rule:     m.RuleContractStrengthening,
		Severity: m.SeverityViolation,
		Explanation: fmt.Sprintf(
			"implementation requires more than trait method %s declares", declared.Path,
		),
		DeclIndex: implementation.DeclIndex,
	})
}

// weakerOrEqual reports whether an implementation's requirement set demands
// no more of callers than the trait contract. An empty set is always weaker.
// A conjunctive set may only drop elements; a disjunctive set may only add
// disjuncts, and must keep at least one the contract already grants.
func weakerOrEqual(impl, contract m.RequirementSet) bool {
	if impl.Empty() {
		return true
	}

	if contract.Empty() {
		return false
	}

	if impl.Conjunctive() {
		for _, req := range impl.Reqs {
			if !contract.Contains(req) {
				return false
			}
		}

		return true
	}

	for _, req := range impl.Reqs {
		if contract.Contains(req) {
			return true
		}
	}

	return false
}
