package domain

import (
	"fmt"

	m "github.com/safer-rust/rust-safety-standard/internal/model"
)

// obligationEdge relates a caller body operation to the requirement set it
// incurs: a callee's documented contract, the intrinsic contract of a
// primitive unsafe op, or the invariant of a struct whose internals the op
// reaches. Outstanding holds whatever the op's justifications did not claim.
type obligationEdge struct {
	op       m.BodyOp
	requires m.RequirementSet

	// outstanding is the portion of requires left unclaimed at the call
	// site. For a disjunctive contract a single claimed disjunct clears the
	// whole set.
	outstanding m.RequirementSet

	// unexplained lists claimed requirements whose justification carries no
	// explanation text. Advisory material only.
	unexplained []m.Requirement
}

// obligationGraph is the derived call/use graph for one crate snapshot. It is
// rebuilt wholesale per run; nothing mutates it afterwards.
type obligationGraph struct {
	crate *m.Crate
	idx   *crateIndex

	// edges per caller item, in body order.
	edges map[m.Path][]obligationEdge
	// calls holds only item-to-item call edges, the relation that must be
	// acyclic for discharge order to exist.
	calls map[m.Path][]m.Path
}

// buildObligationGraph walks every item body and materializes its obligation
// edges. Matching is purely structural: a requirement element is claimed when
// some justification names it by id or normalized predicate. Truth of the
// claim is out of scope.
func buildObligationGraph(crate *m.Crate, idx *crateIndex) (*obligationGraph, error) {
	graph := &obligationGraph{
		crate: crate,
		idx:   idx,
		edges: make(map[m.Path][]obligationEdge, len(crate.Items)),
		calls: make(map[m.Path][]m.Path),
	}

	for _, item := range crate.Items {
		for _, op := range item.Body {
			edge, err := graph.edgeFor(item, op)
			if err != nil {
				return nil, err
			}

			graph.edges[item.Path] = append(graph.edges[item.Path], edge)

			if op.Kind == m.OpCall {
				if _, local := idx.items[op.Callee]; local {
					graph.calls[item.Path] = append(graph.calls[item.Path], op.Callee)
				}
			}
		}
	}

	return graph, nil
}

func (g *obligationGraph) edgeFor(item *m.Item, op m.BodyOp) (obligationEdge, error) {
	requires, err := g.requirementsOf(item, op)
	if err != nil {
		return obligationEdge{}, err
	}

	edge := obligationEdge{op: op, requires: requires}
	edge.outstanding, edge.unexplained = settle(requires, op.Justify)

	return edge, nil
}

// requirementsOf resolves the requirement set an op incurs.
func (g *obligationGraph) requirementsOf(item *m.Item, op m.BodyOp) (m.RequirementSet, error) {
	switch op.Kind {
	case m.OpCall:
		if callee, ok := g.idx.items[op.Callee]; ok {
			return callee.Requires, nil
		}
		// Calls leaving the crate carry no modeled contract.
		return m.RequirementSet{}, nil

	case m.OpRawDeref, m.OpStaticMutAccess, m.OpUnionFieldAccess:
		return intrinsicRequirements(op), nil

	case m.OpFieldWrite, m.OpLiteralConstruct:
		target, ok := g.idx.structs[op.Struct]
		if !ok {
			return m.RequirementSet{}, fmt.Errorf(
				"item %q accesses internals of unknown struct %q", item.Path, op.Struct,
			)
		}
		// Reaching invariant-bearing internals obligates the invariant.
		return target.Invariant, nil
	}

	return m.RequirementSet{}, fmt.Errorf("item %q has unknown body op kind %q", item.Path, op.Kind)
}

// intrinsicRequirements is the built-in contract of a primitive unsafe op.
// The front end may not document these; the operand identifier anchors the
// predicate so justifications can correspond to it.
func intrinsicRequirements(op m.BodyOp) m.RequirementSet {
	operand := op.Operand
	if operand == "" {
		operand = "the operand"
	}

	switch op.Kind {
	case m.OpRawDeref:
		return m.RequirementSet{
			Mode: m.SetAll,
			Reqs: []m.Requirement{
				{
					ID:        "raw-deref-valid",
					Predicate: fmt.Sprintf("%s is non-null, aligned, and valid for the access", operand),
					Idents:    identsFor(op.Operand),
				},
			},
		}
	case m.OpStaticMutAccess:
		return m.RequirementSet{
			Mode: m.SetAll,
			Reqs: []m.Requirement{
				{
					ID:        "static-mut-exclusive",
					Predicate: fmt.Sprintf("no other thread accesses %s during this access", operand),
					Idents:    identsFor(op.Operand),
				},
			},
		}
	case m.OpUnionFieldAccess:
		return m.RequirementSet{
			Mode: m.SetAll,
			Reqs: []m.Requirement{
				{
					ID:        "union-active-field",
					Predicate: fmt.Sprintf("%s currently holds the accessed variant", operand),
					Idents:    identsFor(op.Operand),
				},
			},
		}
	}

	return m.RequirementSet{}
}

func identsFor(operand string) []string {
	if operand == "" {
		return nil
	}

	return []string{operand}
}

// settle splits a requirement set into claimed and outstanding parts given
// the justifications attached at the op. Disjunctive sets clear entirely once
// any disjunct is claimed.
func settle(requires m.RequirementSet, justify []m.Justification) (m.RequirementSet, []m.Requirement) {
	if requires.Empty() {
		return m.RequirementSet{}, nil
	}

	var unexplained []m.Requirement

	claimed := func(req m.Requirement) (bool, bool) {
		for _, j := range justify {
			if j.Discharges(req) {
				return true, j.Text == ""
			}
		}

		return false, false
	}

	if requires.Conjunctive() {
		remaining := m.RequirementSet{Mode: requires.Mode}
		for _, req := range requires.Reqs {
			ok, empty := claimed(req)
			if !ok {
				remaining.Reqs = append(remaining.Reqs, req)
				continue
			}

			if empty {
				unexplained = append(unexplained, req)
			}
		}

		return remaining, unexplained
	}

	for _, req := range requires.Reqs {
		ok, empty := claimed(req)
		if !ok {
			continue
		}

		if empty {
			unexplained = append(unexplained, req)
		}

		return m.RequirementSet{}, unexplained
	}

	return requires, nil
}

// topoOrder returns the items in dependency order, callees before callers.
// A call cycle among items is fatal: discharge order would be undefined.
func (g *obligationGraph) topoOrder() ([]*m.Item, error) {
	indegree := make(map[m.Path]int, len(g.crate.Items))
	callers := make(map[m.Path][]m.Path)

	for _, item := range g.crate.Items {
		indegree[item.Path] += 0
	}

	for caller, callees := range g.calls {
		for _, callee := range callees {
			indegree[caller]++
			callers[callee] = append(callers[callee], caller)
		}
	}

	// Seed with zero-indegree items in declaration order for determinism.
	var queue []*m.Item
	for _, item := range g.crate.Items {
		if indegree[item.Path] == 0 {
			queue = append(queue, item)
		}
	}

	ordered := make([]*m.Item, 0, len(g.crate.Items))
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		ordered = append(ordered, item)

		for _, caller := range callers[item.Path] {
			indegree[caller]--
			if indegree[caller] == 0 {
				queue = append(queue, g.idx.items[caller])
			}
		}
	}

	if len(ordered) != len(g.crate.Items) {
		var stuck []string
		for _, item := range g.crate.Items {
			if indegree[item.Path] > 0 {
				stuck = append(stuck, string(item.Path))
			}
		}

		return nil, fmt.Errorf("%w: %v", m.ErrCyclicObligation, stuck)
	}

	return ordered, nil
}

// components partitions items into weakly connected components over call
// edges. Disjoint components have independent classifications and may be
// checked concurrently.
func (g *obligationGraph) components() [][]*m.Item {
	parent := make(map[m.Path]m.Path, len(g.crate.Items))

	var find func(p m.Path) m.Path
	find = func(p m.Path) m.Path {
		root, ok := parent[p]
		if !ok || root == p {
			parent[p] = p
			return p
		}

		resolved := find(root)
		parent[p] = resolved

		return resolved
	}

	union := func(a, b m.Path) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	for _, item := range g.crate.Items {
		find(item.Path)
	}

	for caller, callees := range g.calls {
		for _, callee := range callees {
			union(caller, callee)
		}
	}

	grouped := make(map[m.Path][]*m.Item)
	var roots []m.Path

	for _, item := range g.crate.Items {
		root := find(item.Path)
		if _, seen := grouped[root]; !seen {
			roots = append(roots, root)
		}

		grouped[root] = append(grouped[root], item)
	}

	components := make([][]*m.Item, 0, len(roots))
	for _, root := range roots {
		components = append(components, grouped[root])
	}

	return components
}
