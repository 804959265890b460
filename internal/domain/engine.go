package domain

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	m "github.com/safer-rust/rust-safety-standard/internal/model"
)

// Engine runs the full soundness classification pass over a crate snapshot.
type Engine interface {
	// Check classifies every item of the crate under the given criterion.
	// It returns an error only for run-level failures: a malformed module
	// tree or a cyclic obligation graph.
	Check(ctx context.Context, crate *m.Crate, criterion m.Criterion) (*m.Analysis, error)
}

type engine struct {
	parallel int
}

// NewEngine creates an Engine. parallel bounds how many independent graph
// components are checked concurrently; values below one mean sequential.
func NewEngine(parallel int) Engine {
	if parallel < 1 {
		parallel = 1
	}

	return &engine{parallel: parallel}
}

// Check is a pure, single-pass analysis: model validation, visibility
// resolution, obligation graph construction, cycle rejection, then per-item
// classification. Components are checked concurrently but the result is
// identical to sequential processing.
func (e *engine) Check(ctx context.Context, crate *m.Crate, criterion m.Criterion) (*m.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx, err := indexCrate(crate)
	if err != nil {
		return nil, fmt.Errorf("index crate %q: %w", crate.Name, err)
	}

	resolver, err := newVisibilityResolver(crate)
	if err != nil {
		return nil, fmt.Errorf("resolve module tree of %q: %w", crate.Name, err)
	}

	collector := NewCollector()
	validateItemModel(crate, idx, collector)

	malformed := make(map[m.Path]struct{})
	for _, item := range crate.Items {
		if state, ok := collector.State(item.Path); ok && state == m.StateMalformedRequirement {
			malformed[item.Path] = struct{}{}
		}
	}

	graph, err := buildObligationGraph(crate, idx)
	if err != nil {
		return nil, fmt.Errorf("build obligation graph of %q: %w", crate.Name, err)
	}

	ordered, err := graph.topoOrder()
	if err != nil {
		return nil, err
	}

	orderIndex := make(map[m.Path]int, len(ordered))
	for i, item := range ordered {
		orderIndex[item.Path] = i
	}

	components := graph.components()
	slog.Debug("checking crate",
		"crate", crate.Name,
		"criterion", criterion,
		"items", len(crate.Items),
		"components", len(components),
	)

	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.parallel)

	for _, component := range components {
		items := sortByDependency(component, orderIndex)

		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			local := NewCollector()
			newChecker(graph, resolver, criterion, local, malformed).checkItems(items)

			mu.Lock()
			collector.Merge(local)
			mu.Unlock()

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	if err := checkTraitContracts(crate, idx, collector); err != nil {
		return nil, fmt.Errorf("check trait contracts of %q: %w", crate.Name, err)
	}

	checkExposure(crate, graph, resolver, criterion, collector)

	return collector.Result(crate.Name, criterion), nil
}

// sortByDependency orders a component's items by their position in the
// global topological order, callees first.
func sortByDependency(items []*m.Item, orderIndex map[m.Path]int) []*m.Item {
	ordered := make([]*m.Item, len(items))
	copy(ordered, items)

	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && orderIndex[ordered[j].Path] < orderIndex[ordered[j-1].Path]; j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}

	return ordered
}
