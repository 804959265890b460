package model

// ItemKind distinguishes the analyzable item categories.
type ItemKind string

const (
	// KindFunction is a free function.
	KindFunction ItemKind = "function"
	// KindMethod is an associated function with a receiver.
	KindMethod ItemKind = "method"
	// KindAssociatedFunction is an associated function without a receiver.
	KindAssociatedFunction ItemKind = "associated_function"
	// KindTraitMethod is a method declared on a trait. Its unsafe flag and
	// requirement set are fixed at the trait definition.
	KindTraitMethod ItemKind = "trait_method"
)

// OpKind enumerates the body operations the front end reports for an item.
type OpKind string

const (
	// OpCall invokes another item.
	OpCall OpKind = "call"
	// OpRawDeref dereferences a raw pointer.
	OpRawDeref OpKind = "raw_deref"
	// OpStaticMutAccess reads or writes a mutable static.
	OpStaticMutAccess OpKind = "static_mut_access"
	// OpUnionFieldAccess reads a union field.
	OpUnionFieldAccess OpKind = "union_field_access"
	// OpFieldWrite mutates a struct field directly.
	OpFieldWrite OpKind = "field_write"
	// OpLiteralConstruct builds a struct value field-by-field, bypassing
	// every documented constructor. Modeled as a direct edge to the struct's
	// internals rather than as a call.
	OpLiteralConstruct OpKind = "literal_construct"
)

// Primitive reports whether the op kind is a primitive unsafe operation.
func (k OpKind) Primitive() bool {
	switch k {
	case OpRawDeref, OpStaticMutAccess, OpUnionFieldAccess:
		return true
	case OpCall, OpFieldWrite, OpLiteralConstruct:
		return false
	}

	return false
}

// BodyOp is one unsafe operation, call, or struct-internal access inside an
// item body. Bodies are otherwise opaque to the engine.
type BodyOp struct {
	Kind OpKind `yaml:"kind"`

	// Callee is the target item path for OpCall.
	Callee Path `yaml:"callee,omitempty"`
	// Struct is the target struct path for field writes, literal
	// construction, and union field access.
	Struct Path `yaml:"struct,omitempty"`
	// Field is the accessed field name, when one applies.
	Field string `yaml:"field,omitempty"`
	// Operand is the identifier a primitive unsafe op acts on.
	Operand string `yaml:"operand,omitempty"`

	// Guard is the predicate under which the op executes; empty means the op
	// is unconditional. GuardNegation is the front end's recorded negation of
	// Guard, used for path-sensitive disjunct acceptance.
	Guard         string `yaml:"guard,omitempty"`
	GuardNegation string `yaml:"guard_negation,omitempty"`

	// UsesInvariant marks an op whose discharge relies on the owning
	// struct's type invariant holding on entry.
	UsesInvariant bool `yaml:"uses_invariant,omitempty"`
	// BreaksInvariant marks an op that can leave the owning struct's type
	// invariant violated.
	BreaksInvariant bool `yaml:"breaks_invariant,omitempty"`

	// Justify carries the caller-supplied discharge claims for this op.
	Justify []Justification `yaml:"justify,omitempty"`
}

// Item is one analyzable program item: a function, method, associated
// function, or trait method. Items are immutable once constructed.
type Item struct {
	Path       Path       `yaml:"path"`
	Kind       ItemKind   `yaml:"kind"`
	Module     Path       `yaml:"module"`
	Visibility Visibility `yaml:"visibility"`

	// Unsafe is the declared-unsafe flag.
	Unsafe bool `yaml:"unsafe,omitempty"`
	// Requires is the documented safety contract, verbatim from docs.
	Requires RequirementSet `yaml:"requires,omitempty"`

	// Params lists the parameter identifiers, the namespace a function-level
	// requirement may reference.
	Params []string `yaml:"params,omitempty"`

	// Owner is the owning struct or trait path, empty for free functions.
	Owner Path `yaml:"owner,omitempty"`
	// Constructor marks a distinguished constructor of the owning struct.
	Constructor bool `yaml:"constructor,omitempty"`

	Body []BodyOp `yaml:"body,omitempty"`

	// DeclIndex is the declaration order within the crate, used for stable
	// diagnostics ordering.
	DeclIndex int `yaml:"decl_index"`
}

// HasReceiver reports whether requirements on the item may reference self
// fields of the owning struct.
func (i *Item) HasReceiver() bool {
	return i.Kind == KindMethod || i.Kind == KindTraitMethod
}
