// Package box implements the declarative query node (BindingBox /
// BindingBoxTree), its filter predicates (C4) and size filters (C8).
package box

import "github.com/aarkue/OCPQ/binding"

// FilterLabel marks how a variable or relationship participates in
// filter_log's object/event selection (§6, §9): Ignored variables/relations
// never affect inclusion; Included ones are kept; Excluded ones are
// dropped. The zero value is Ignored.
type FilterLabel int

const (
	Ignored FilterLabel = iota
	Included
	Excluded
)

// NewEventVar declares a fresh event variable this box introduces,
// restricted to one of Types (any type if Types is empty).
type NewEventVar struct {
	Var   binding.EventVariable
	Types []string
}

// NewObjectVar declares a fresh object variable this box introduces.
type NewObjectVar struct {
	Var   binding.ObjectVariable
	Types []string
}

// LabelFunction computes a named label value from the node's binding,
// available to a parent node's size filters and to result reporting.
type LabelFunction struct {
	Label string
	Expr  string
}

// BindingBox is the declarative query node (§3): the set of variables it
// introduces, the filters and size filters it applies, the constraint tree
// combining them, per-variable filter labels for filter_log, and the label
// functions computed once the box's own bindings are known.
type BindingBox struct {
	NewEventVars  []NewEventVar
	NewObjectVars []NewObjectVar

	Filters     []Filter
	SizeFilters []SizeFilter
	Constraints []Constraint

	EventVarLabels  map[binding.EventVariable]FilterLabel
	ObjectVarLabels map[binding.ObjectVariable]FilterLabel

	Labels []LabelFunction
}
