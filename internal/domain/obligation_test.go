package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/safer-rust/rust-safety-standard/internal/model"
)

func TestSettle_ConjunctivePartialClaim(t *testing.T) {
	requires := m.RequirementSet{Mode: m.SetAll, Reqs: []m.Requirement{
		{ID: "r1", Predicate: "ptr is valid", Idents: []string{"ptr"}},
		{ID: "r2", Predicate: "len is in bounds", Idents: []string{"len"}},
	}}

	outstanding, unexplained := settle(requires, []m.Justification{
		{For: "r1", Text: "checked above"},
	})

	require.Len(t, outstanding.Reqs, 1)
	assert.Equal(t, "r2", outstanding.Reqs[0].ID)
	assert.Empty(t, unexplained)
}

func TestSettle_ConjunctiveFullClaimByPredicate(t *testing.T) {
	requires := m.RequirementSet{Reqs: []m.Requirement{
		{Predicate: "ptr is valid", Idents: []string{"ptr"}},
	}}

	outstanding, unexplained := settle(requires, []m.Justification{
		{For: "PTR is Valid.", Text: "allocated two lines up"},
	})

	assert.True(t, outstanding.Empty())
	assert.Empty(t, unexplained)
}

func TestSettle_DisjunctiveSingleDisjunctClearsSet(t *testing.T) {
	requires := m.RequirementSet{Mode: m.SetAny, Reqs: []m.Requirement{
		{ID: "a", Predicate: "index is checked"},
		{ID: "b", Predicate: "slice is nonempty"},
	}}

	outstanding, _ := settle(requires, []m.Justification{
		{For: "b", Text: "length compared first"},
	})

	assert.True(t, outstanding.Empty())
}

func TestSettle_DisjunctiveUnclaimedStaysWhole(t *testing.T) {
	requires := m.RequirementSet{Mode: m.SetAny, Reqs: []m.Requirement{
		{ID: "a", Predicate: "index is checked"},
		{ID: "b", Predicate: "slice is nonempty"},
	}}

	outstanding, _ := settle(requires, nil)

	assert.Len(t, outstanding.Reqs, 2)
}

func TestSettle_EmptyTextIsUnexplained(t *testing.T) {
	requires := m.RequirementSet{Reqs: []m.Requirement{
		{ID: "r1", Predicate: "ptr is valid"},
	}}

	outstanding, unexplained := settle(requires, []m.Justification{{For: "r1"}})

	assert.True(t, outstanding.Empty())
	require.Len(t, unexplained, 1)
	assert.Equal(t, "r1", unexplained[0].ID)
}

func TestIntrinsicRequirements(t *testing.T) {
	tests := []struct {
		name   string
		op     m.BodyOp
		wantID string
	}{
		{"raw deref", m.BodyOp{Kind: m.OpRawDeref, Operand: "p"}, "raw-deref-valid"},
		{"static mut", m.BodyOp{Kind: m.OpStaticMutAccess, Operand: "COUNTER"}, "static-mut-exclusive"},
		{"union field", m.BodyOp{Kind: m.OpUnionFieldAccess, Operand: "u"}, "union-active-field"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requires := intrinsicRequirements(tt.op)
			require.Len(t, requires.Reqs, 1)
			assert.Equal(t, tt.wantID, requires.Reqs[0].ID)
			assert.Equal(t, []string{tt.op.Operand}, requires.Reqs[0].Idents)
		})
	}
}

func TestBuildObligationGraph_UnknownStructIsFatal(t *testing.T) {
	crate := &m.Crate{
		Name: "demo",
		Items: []*m.Item{
			{Path: "demo::make", Module: "demo", Kind: m.KindFunction, Body: []m.BodyOp{
				{Kind: m.OpLiteralConstruct, Struct: "demo::Missing"},
			}},
		},
	}

	idx, err := indexCrate(crate)
	require.NoError(t, err)

	_, err = buildObligationGraph(crate, idx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown struct")
}

func TestTopoOrder_CalleesBeforeCallers(t *testing.T) {
	crate := &m.Crate{
		Name: "demo",
		Items: []*m.Item{
			{Path: "demo::top", Module: "demo", Body: []m.BodyOp{{Kind: m.OpCall, Callee: "demo::mid"}}, DeclIndex: 0},
			{Path: "demo::mid", Module: "demo", Body: []m.BodyOp{{Kind: m.OpCall, Callee: "demo::leaf"}}, DeclIndex: 1},
			{Path: "demo::leaf", Module: "demo", DeclIndex: 2},
		},
	}

	idx, err := indexCrate(crate)
	require.NoError(t, err)
	graph, err := buildObligationGraph(crate, idx)
	require.NoError(t, err)

	ordered, err := graph.topoOrder()
	require.NoError(t, err)

	position := make(map[m.Path]int, len(ordered))
	for i, item := range ordered {
		position[item.Path] = i
	}

	assert.Less(t, position["demo::leaf"], position["demo::mid"])
	assert.Less(t, position["demo::mid"], position["demo::top"])
}

func TestTopoOrder_CycleIsFatal(t *testing.T) {
	crate := &m.Crate{
		Name: "demo",
		Items: []*m.Item{
			{Path: "demo::a", Module: "demo", Body: []m.BodyOp{{Kind: m.OpCall, Callee: "demo::b"}}},
			{Path: "demo::b", Module: "demo", Body: []m.BodyOp{{Kind: m.OpCall, Callee: "demo::a"}}},
		},
	}

	idx, err := indexCrate(crate)
	require.NoError(t, err)
	graph, err := buildObligationGraph(crate, idx)
	require.NoError(t, err)

	_, err = graph.topoOrder()
	require.ErrorIs(t, err, m.ErrCyclicObligation)
}

func TestComponents_PartitionByCallEdges(t *testing.T) {
	crate := &m.Crate{
		Name: "demo",
		Items: []*m.Item{
			{Path: "demo::a", Module: "demo", Body: []m.BodyOp{{Kind: m.OpCall, Callee: "demo::b"}}},
			{Path: "demo::b", Module: "demo"},
			{Path: "demo::lone", Module: "demo"},
		},
	}

	idx, err := indexCrate(crate)
	require.NoError(t, err)
	graph, err := buildObligationGraph(crate, idx)
	require.NoError(t, err)

	components := graph.components()
	require.Len(t, components, 2)

	sizes := []int{len(components[0]), len(components[1])}
	assert.ElementsMatch(t, []int{2, 1}, sizes)
}

func TestComponents_ExternalCalleesAreIgnored(t *testing.T) {
	crate := &m.Crate{
		Name: "demo",
		Items: []*m.Item{
			{Path: "demo::a", Module: "demo", Body: []m.BodyOp{{Kind: m.OpCall, Callee: "libc::free"}}},
		},
	}

	idx, err := indexCrate(crate)
	require.NoError(t, err)
	graph, err := buildObligationGraph(crate, idx)
	require.NoError(t, err)

	assert.Empty(t, graph.calls)
	require.Len(t, graph.edges["demo::a"], 1)
	assert.True(t, graph.edges["demo::a"][0].requires.Empty())
}
