// Package domain contains the soundness classification engine: item model
// validation, visibility resolution, obligation graph construction, the
// discharge checker, and diagnostics collection.
package domain

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	m "github.com/safer-rust/rust-safety-standard/internal/model"
)

// accessCacheSize bounds the memoized accessibility queries. Large crates ask
// the same (scope, observer) questions repeatedly during boundary checks.
const accessCacheSize = 4096

type accessKey struct {
	kind     m.VisibilityKind
	inPath   m.Path
	declMod  m.Path
	observer m.Path
}

// visibilityResolver answers accessibility questions over the crate's module
// tree and resolves the soundness boundary for a criterion. It is pure data
// after construction.
type visibilityResolver struct {
	root    m.Path
	modules map[m.Path]m.Module
	traits  map[m.Path]*m.Trait
	cache   *lru.Cache[accessKey, bool]
}

func newVisibilityResolver(crate *m.Crate) (*visibilityResolver, error) {
	modules := make(map[m.Path]m.Module, len(crate.Modules)+1)
	modules[crate.Root()] = m.Module{Path: crate.Root()}

	for _, mod := range crate.Modules {
		if _, dup := modules[mod.Path]; dup && mod.Path != crate.Root() {
			return nil, fmt.Errorf("duplicate module %q in module tree", mod.Path)
		}

		modules[mod.Path] = mod
	}

	for _, mod := range crate.Modules {
		if mod.Path == crate.Root() {
			continue
		}

		parent := mod.Parent
		if parent == "" {
			parent = m.ParentPath(mod.Path)
		}

		if _, ok := modules[parent]; !ok {
			return nil, fmt.Errorf("module %q has unknown parent %q", mod.Path, parent)
		}
	}

	cache, err := lru.New[accessKey, bool](accessCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create accessibility cache: %w", err)
	}

	traits := make(map[m.Path]*m.Trait, len(crate.Traits))
	for _, t := range crate.Traits {
		traits[t.Path] = t
	}

	return &visibilityResolver{
		root:    crate.Root(),
		modules: modules,
		traits:  traits,
		cache:   cache,
	}, nil
}

// Accessible reports whether an observer located in observerModule can name a
// declaration with the given visibility in declModule.
func (r *visibilityResolver) Accessible(vis m.Visibility, declModule, observerModule m.Path) bool {
	key := accessKey{kind: vis.Kind, inPath: vis.InPath, declMod: declModule, observer: observerModule}
	if cached, ok := r.cache.Get(key); ok {
		return cached
	}

	allowed := r.accessible(vis, declModule, observerModule)
	r.cache.Add(key, allowed)

	return allowed
}

func (r *visibilityResolver) accessible(vis m.Visibility, declModule, observerModule m.Path) bool {
	switch vis.Kind {
	case m.VisPub:
		return true
	case m.VisPubCrate:
		return m.WithinSubtree(observerModule, r.root)
	case m.VisPubInPath:
		return m.WithinSubtree(observerModule, vis.InPath)
	case m.VisPubSuper:
		parent := m.ParentPath(declModule)
		if parent == "" {
			parent = declModule
		}

		return m.WithinSubtree(observerModule, parent)
	case m.VisPrivate:
		return m.WithinSubtree(observerModule, declModule)
	}

	// Unknown markers default to private.
	return m.WithinSubtree(observerModule, declModule)
}

// ItemNameable reports whether an observer module can name the item. Trait
// items inherit the trait's publicity regardless of their own markers.
func (r *visibilityResolver) ItemNameable(item *m.Item, observerModule m.Path) bool {
	vis := item.Visibility
	if t, ok := r.traits[item.Owner]; ok {
		vis = t.Visibility
	}

	return r.Accessible(vis, item.Module, observerModule)
}

// FieldNameable reports whether an observer module can name a field of s.
// Both the struct and the field marker must admit the observer.
func (r *visibilityResolver) FieldNameable(s *m.Struct, field m.Field, observerModule m.Path) bool {
	return r.Accessible(s.Visibility, s.Module, observerModule) &&
		r.Accessible(field.Visibility, s.Module, observerModule)
}

// boundary is the resolved soundness boundary for one struct: the minimal set
// of locations from which unconstrained access to its internals is tolerated.
type boundary struct {
	criterion  m.Criterion
	structPath m.Path
	module     m.Path
	root       m.Path
}

// Boundary resolves the soundness boundary of a struct under the criterion.
func (r *visibilityResolver) Boundary(criterion m.Criterion, s *m.Struct) boundary {
	return boundary{
		criterion:  criterion,
		structPath: s.Path,
		module:     s.Module,
		root:       r.root,
	}
}

// Inside reports whether an item lies inside the boundary.
//
// StructLevel admits only the struct's own associated items. ModuleLevel
// admits the defining module and its children, mirroring how privacy already
// scopes field access. CrateLevel admits the whole crate.
func (b boundary) Inside(item *m.Item) bool {
	switch b.criterion {
	case m.StructLevel:
		return item.Owner == b.structPath
	case m.ModuleLevel:
		return m.WithinSubtree(item.Module, b.module)
	case m.CrateLevel:
		return m.WithinSubtree(item.Module, b.root)
	}

	return false
}

// CoversModule reports whether a whole module lies inside the boundary.
// StructLevel has no module-granular inside; the defining module stands in as
// the closest approximation for latent-exposure reasoning.
func (b boundary) CoversModule(mod m.Path) bool {
	switch b.criterion {
	case m.StructLevel, m.ModuleLevel:
		return m.WithinSubtree(mod, b.module)
	case m.CrateLevel:
		return m.WithinSubtree(mod, b.root)
	}

	return false
}
