package model

// Path is a module-qualified identifier, e.g. "crate::geometry::Point::len".
// Path segments are separated by "::" and the first segment is the crate name.
type Path string

// PathSeparator separates the segments of a Path.
const PathSeparator = "::"

// VisibilityKind enumerates the declared visibility markers.
type VisibilityKind string

const (
	// VisPrivate is the default: visible in the defining module and below.
	VisPrivate VisibilityKind = "private"
	// VisPubSuper is pub(super): visible from the parent module and below.
	VisPubSuper VisibilityKind = "pub(super)"
	// VisPubInPath is pub(in path): visible from the named ancestor and below.
	VisPubInPath VisibilityKind = "pub(in)"
	// VisPubCrate is pub(crate): visible anywhere in the defining crate.
	VisPubCrate VisibilityKind = "pub(crate)"
	// VisPub is pub: visible everywhere. Maximal in the scope lattice.
	VisPub VisibilityKind = "pub"
)

// Visibility is a declared accessibility scope. Scopes form a partial order
// by accessibility breadth; VisPub is the maximum and VisPrivate the minimum.
type Visibility struct {
	Kind VisibilityKind `yaml:"kind"`
	// InPath names the scope root for VisPubInPath declarations.
	InPath Path `yaml:"in_path,omitempty"`
}

// breadth assigns a comparable rank to the totally ordered visibility kinds.
// VisPubInPath is incomparable with VisPubSuper in general and is ranked
// between it and VisPubCrate only for display purposes.
func (v Visibility) breadth() int {
	switch v.Kind {
	case VisPrivate:
		return 0
	case VisPubSuper:
		return 1
	case VisPubInPath:
		return 2
	case VisPubCrate:
		return 3
	case VisPub:
		return 4
	}

	return 0
}

// AtLeast reports whether v is at least as broad as other, where the two are
// comparable in the scope lattice.
func (v Visibility) AtLeast(other Visibility) bool {
	return v.breadth() >= other.breadth()
}

// Criterion selects the accessibility boundary at which safe-code misuse must
// be impossible. It is chosen once per analysis run and never mutated.
type Criterion string

const (
	// StructLevel tolerates unconstrained access only from the struct's own
	// impl blocks.
	StructLevel Criterion = "struct"
	// ModuleLevel tolerates unconstrained access from the defining module.
	// This is the default, matching the standard library's Vec precedent.
	ModuleLevel Criterion = "module"
	// CrateLevel tolerates unconstrained access from the whole crate.
	CrateLevel Criterion = "crate"
)

// ParseCriterion maps a configuration string to a Criterion, defaulting to
// ModuleLevel for empty input.
func ParseCriterion(value string) (Criterion, bool) {
	switch Criterion(value) {
	case StructLevel, ModuleLevel, CrateLevel:
		return Criterion(value), true
	case "":
		return ModuleLevel, true
	}

	return ModuleLevel, false
}
