package box

import (
	"github.com/aarkue/OCPQ/binding"
	"github.com/aarkue/OCPQ/expr"
	"github.com/aarkue/OCPQ/ocel"
)

// SizeFilter is a per-node predicate over a child node's accumulated
// binding results (C8, §4.8). A missing child name (no entry in results,
// i.e. a name that matches no child edge) is unsatisfied, not an error. The
// tree evaluator gives every child edge an entry, possibly empty, so a
// child that produced no bindings is checked as an empty result set.
type SizeFilter interface {
	Check(b binding.Binding, results map[string][]expr.ChildBinding, log *ocel.Log, ev *expr.Evaluator) (bool, error)
}

func withinBounds(n int, min, max *int) bool {
	if min != nil && n < *min {
		return false
	}
	if max != nil && n > *max {
		return false
	}
	return true
}

// NumChilds bounds the raw count of bindings produced under Name.
type NumChilds struct {
	Name     string
	Min, Max *int
}

func (f NumChilds) Check(b binding.Binding, results map[string][]expr.ChildBinding, log *ocel.Log, ev *expr.Evaluator) (bool, error) {
	cbs, ok := results[f.Name]
	if !ok {
		return false, nil
	}
	return withinBounds(len(cbs), f.Min, f.Max), nil
}

// NumChildsProj bounds the number of distinct values Var takes on across
// the bindings produced under Name (a projected, deduplicated count).
type NumChildsProj struct {
	Name     string
	Var      binding.Variable
	Min, Max *int
}

func (f NumChildsProj) Check(b binding.Binding, results map[string][]expr.ChildBinding, log *ocel.Log, ev *expr.Evaluator) (bool, error) {
	cbs, ok := results[f.Name]
	if !ok {
		return false, nil
	}
	seen := make(map[interface{}]struct{}, len(cbs))
	for _, cb := range cbs {
		v, ok := cb.Binding.GetAny(f.Var)
		if !ok {
			continue
		}
		seen[v] = struct{}{}
	}
	return withinBounds(len(seen), f.Min, f.Max), nil
}

// BindingSetEqual requires the named children to have produced exactly the
// same set of (event/object) bindings, ignoring duplicate and order.
type BindingSetEqual struct {
	Names []string
}

func (f BindingSetEqual) Check(b binding.Binding, results map[string][]expr.ChildBinding, log *ocel.Log, ev *expr.Evaluator) (bool, error) {
	if len(f.Names) == 0 {
		return true, nil
	}
	var reference map[string]struct{}
	for i, name := range f.Names {
		cbs, ok := results[name]
		if !ok {
			return false, nil
		}
		set := make(map[string]struct{}, len(cbs))
		for _, cb := range cbs {
			set[cb.Binding.Key()] = struct{}{}
		}
		if i == 0 {
			reference = set
			continue
		}
		if !sameKeySet(reference, set) {
			return false, nil
		}
	}
	return true, nil
}

// ProjPair names a child together with the variable its bindings are
// projected onto for BindingSetProjectionEqual.
type ProjPair struct {
	Name string
	Var  binding.Variable
}

// BindingSetProjectionEqual requires each named child's bindings, projected
// onto its paired variable, to form the same set of values.
type BindingSetProjectionEqual struct {
	Pairs []ProjPair
}

func (f BindingSetProjectionEqual) Check(b binding.Binding, results map[string][]expr.ChildBinding, log *ocel.Log, ev *expr.Evaluator) (bool, error) {
	if len(f.Pairs) == 0 {
		return true, nil
	}
	var reference map[interface{}]struct{}
	for i, p := range f.Pairs {
		cbs, ok := results[p.Name]
		if !ok {
			return false, nil
		}
		set := make(map[interface{}]struct{}, len(cbs))
		for _, cb := range cbs {
			v, ok := cb.Binding.GetAny(p.Var)
			if !ok {
				continue
			}
			set[v] = struct{}{}
		}
		if i == 0 {
			reference = set
			continue
		}
		if len(reference) != len(set) {
			return false, nil
		}
		for k := range reference {
			if _, ok := set[k]; !ok {
				return false, nil
			}
		}
	}
	return true, nil
}

func sameKeySet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// AdvancedExpr delegates to the expression evaluator with the node's own
// binding and every named child's results in scope.
type AdvancedExpr struct {
	Program string
}

func (f AdvancedExpr) Check(b binding.Binding, results map[string][]expr.ChildBinding, log *ocel.Log, ev *expr.Evaluator) (bool, error) {
	return ev.EvalBool(f.Program, b, results)
}
