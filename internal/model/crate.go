package model

import "strings"

// Module is one node of the crate's module tree.
type Module struct {
	Path Path `yaml:"path"`
	// Parent is empty for the crate root.
	Parent Path `yaml:"parent,omitempty"`
}

// Field is one struct field with its own visibility marker.
type Field struct {
	Name       string     `yaml:"name"`
	Visibility Visibility `yaml:"visibility"`
}

// Struct is a struct declaration with its associated items, constructors, and
// optional type invariant.
type Struct struct {
	Path       Path       `yaml:"path"`
	Module     Path       `yaml:"module"`
	Visibility Visibility `yaml:"visibility"`

	Fields []Field `yaml:"fields,omitempty"`

	// Invariant is the declared type invariant, expressible solely over the
	// struct's own fields. Empty means no invariant was documented.
	Invariant RequirementSet `yaml:"invariant,omitempty"`

	// Items lists the associated item paths; Constructors is the
	// distinguished subset that establishes the invariant.
	Items        []Path `yaml:"items,omitempty"`
	Constructors []Path `yaml:"constructors,omitempty"`

	DeclIndex int `yaml:"decl_index"`
}

// HasInvariant reports whether the struct documents a type invariant.
func (s *Struct) HasInvariant() bool {
	return !s.Invariant.Empty()
}

// FieldNames returns the identifier namespace an invariant may reference.
func (s *Struct) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for _, field := range s.Fields {
		names = append(names, field.Name)
	}

	return names
}

// Trait is a trait declaration. The unsafe-trait flag makes the trait
// invariant meaningful: implementations guarantee it to unsafe callers.
type Trait struct {
	Path       Path       `yaml:"path"`
	Module     Path       `yaml:"module"`
	Visibility Visibility `yaml:"visibility"`

	Unsafe    bool           `yaml:"unsafe,omitempty"`
	Invariant RequirementSet `yaml:"invariant,omitempty"`

	// Methods lists the trait method item paths. Their unsafe flags and
	// requirement sets are fixed here, at the trait definition.
	Methods []Path `yaml:"methods,omitempty"`

	DeclIndex int `yaml:"decl_index"`
}

// ImplMethod binds one implementation item to the trait method it implements.
type ImplMethod struct {
	Of   Path `yaml:"of"`
	Item Path `yaml:"item"`
}

// Impl is a trait implementation for a struct.
type Impl struct {
	Trait   Path         `yaml:"trait"`
	For     Path         `yaml:"for"`
	Methods []ImplMethod `yaml:"methods,omitempty"`

	DeclIndex int `yaml:"decl_index"`
}

// Crate is the immutable snapshot of one crate produced by the external front
// end. The engine never mutates it; a changed snapshot means a fresh Crate.
type Crate struct {
	Name    string    `yaml:"name"`
	Modules []Module  `yaml:"modules"`
	Items   []*Item   `yaml:"items,omitempty"`
	Structs []*Struct `yaml:"structs,omitempty"`
	Traits  []*Trait  `yaml:"traits,omitempty"`
	Impls   []*Impl   `yaml:"impls,omitempty"`
}

// Root returns the crate root module path.
func (c *Crate) Root() Path {
	return Path(c.Name)
}

// ParentPath returns the parent of a module-qualified path, or "" for a
// single-segment path.
func ParentPath(p Path) Path {
	idx := strings.LastIndex(string(p), PathSeparator)
	if idx < 0 {
		return ""
	}

	return p[:idx]
}

// WithinSubtree reports whether p equals root or lies below it in the tree.
func WithinSubtree(p, root Path) bool {
	if p == root {
		return true
	}

	return strings.HasPrefix(string(p), string(root)+PathSeparator)
}
