package domain

import (
	"fmt"

	m "github.com/safer-rust/rust-safety-standard/internal/model"
)

// crateIndex provides path lookups over an immutable crate snapshot.
type crateIndex struct {
	items   map[m.Path]*m.Item
	structs map[m.Path]*m.Struct
	traits  map[m.Path]*m.Trait

	// ownerStruct maps an item path to its owning struct, when it has one.
	ownerStruct map[m.Path]*m.Struct
	// traitOfMethod maps a trait method path to its declaring trait.
	traitOfMethod map[m.Path]*m.Trait
}

func indexCrate(crate *m.Crate) (*crateIndex, error) {
	idx := &crateIndex{
		items:         make(map[m.Path]*m.Item, len(crate.Items)),
		structs:       make(map[m.Path]*m.Struct, len(crate.Structs)),
		traits:        make(map[m.Path]*m.Trait, len(crate.Traits)),
		ownerStruct:   make(map[m.Path]*m.Struct),
		traitOfMethod: make(map[m.Path]*m.Trait),
	}

	for _, item := range crate.Items {
		if _, dup := idx.items[item.Path]; dup {
			return nil, fmt.Errorf("duplicate item path %q", item.Path)
		}

		idx.items[item.Path] = item
	}

	for _, s := range crate.Structs {
		if _, dup := idx.structs[s.Path]; dup {
			return nil, fmt.Errorf("duplicate struct path %q", s.Path)
		}

		idx.structs[s.Path] = s

		for _, itemPath := range s.Items {
			idx.ownerStruct[itemPath] = s
		}
	}

	for _, t := range crate.Traits {
		if _, dup := idx.traits[t.Path]; dup {
			return nil, fmt.Errorf("duplicate trait path %q", t.Path)
		}

		idx.traits[t.Path] = t

		for _, methodPath := range t.Methods {
			idx.traitOfMethod[methodPath] = t
		}
	}

	return idx, nil
}

// owner returns the struct an item belongs to, or nil.
func (idx *crateIndex) owner(item *m.Item) *m.Struct {
	if s, ok := idx.ownerStruct[item.Path]; ok {
		return s
	}

	if item.Owner != "" {
		return idx.structs[item.Owner]
	}

	return nil
}
