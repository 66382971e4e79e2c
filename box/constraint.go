package box

// ConstraintKind tags which of the seven constraint forms a Constraint is.
type ConstraintKind int

const (
	ConstraintFilter ConstraintKind = iota
	ConstraintSizeFilter
	ConstraintSat
	ConstraintAny
	ConstraintNot
	ConstraintOr
	ConstraintAnd
)

// Constraint is one entry in a BindingBox's constraint list, evaluated in
// declaration order with first-violation short-circuit (§4.7). Index
// selects the Filter or SizeFilter this constraint checks, for the two leaf
// kinds; ChildNames names the child edges a Sat/Any/Not/Or/And constraint
// quantifies over.
type Constraint struct {
	Kind       ConstraintKind
	Index      int
	ChildNames []string
}

// Violation records which constraint, by position in a BindingBox's
// Constraints slice, a binding failed. A nil *Violation means the binding
// satisfied every constraint.
type Violation struct {
	ConstraintIndex int
}
