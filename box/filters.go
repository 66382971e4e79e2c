package box

import (
	"github.com/aarkue/OCPQ/binding"
	"github.com/aarkue/OCPQ/expr"
	"github.com/aarkue/OCPQ/ocel"
)

// Filter is a per-binding predicate (C4, §4.4). Check reports whether b
// satisfies the filter against log; it never mutates b or log. Vars reports
// which variables the filter depends on, used by the planner to decide when
// a filter becomes eligible to run; ev is only consulted by BasicExpr, whose
// dependency set is not known until its program text is scanned.
type Filter interface {
	Check(b binding.Binding, log *ocel.Log, ev *expr.Evaluator) (bool, error)
	Vars(ev *expr.Evaluator) []binding.Variable
}

// O2E checks that ObjectVar is reachable from EventVar via an
// event-to-object relationship, optionally restricted to a qualifier.
// Label marks the filter for filter_log's relation inclusion/exclusion
// decision (§9); it plays no role in evaluate.
type O2E struct {
	EventVar  binding.EventVariable
	ObjectVar binding.ObjectVariable
	Qualifier *string
	Label     FilterLabel
}

func (f O2E) Check(b binding.Binding, log *ocel.Log, ev *expr.Evaluator) (bool, error) {
	ei, ok := b.GetEvent(f.EventVar)
	if !ok {
		return false, nil
	}
	oi, ok := b.GetObject(f.ObjectVar)
	if !ok {
		return false, nil
	}
	for _, ref := range log.E2O(ei) {
		if ref.Object != oi {
			continue
		}
		if f.Qualifier != nil && ref.Qualifier != *f.Qualifier {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (f O2E) Vars(ev *expr.Evaluator) []binding.Variable {
	return []binding.Variable{binding.Ev(f.EventVar), binding.Ob(f.ObjectVar)}
}

// O2O checks that To is reachable from From via an object-to-object
// relationship, optionally restricted to a qualifier.
type O2O struct {
	From, To  binding.ObjectVariable
	Qualifier *string
	Label     FilterLabel
}

func (f O2O) Check(b binding.Binding, log *ocel.Log, ev *expr.Evaluator) (bool, error) {
	fi, ok := b.GetObject(f.From)
	if !ok {
		return false, nil
	}
	ti, ok := b.GetObject(f.To)
	if !ok {
		return false, nil
	}
	for _, ref := range log.O2O(fi) {
		if ref.Object != ti {
			continue
		}
		if f.Qualifier != nil && ref.Qualifier != *f.Qualifier {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (f O2O) Vars(ev *expr.Evaluator) []binding.Variable {
	return []binding.Variable{binding.Ob(f.From), binding.Ob(f.To)}
}

// TimeBetweenEvents checks that the signed duration To.Time - From.Time
// (seconds) falls within [MinSeconds, MaxSeconds]. Reversed negates the
// duration and swaps and negates both bounds; that is an algebraic
// identity, so for a given From/To pair the outcome is the same with or
// without it. The zero-duration edge case holds either way (an event
// compared against itself always satisfies a window that includes zero).
type TimeBetweenEvents struct {
	From, To             binding.EventVariable
	MinSeconds, MaxSeconds *float64
	Reversed             bool
}

func (f TimeBetweenEvents) Check(b binding.Binding, log *ocel.Log, ev *expr.Evaluator) (bool, error) {
	fi, ok := b.GetEvent(f.From)
	if !ok {
		return false, nil
	}
	ti, ok := b.GetEvent(f.To)
	if !ok {
		return false, nil
	}
	d := log.Event(ti).Time.Sub(log.Event(fi).Time).Seconds()
	min, max := f.MinSeconds, f.MaxSeconds
	if f.Reversed {
		d = -d
		if max != nil {
			neg := -*max
			min = &neg
		} else {
			min = nil
		}
		if f.MinSeconds != nil {
			neg := -*f.MinSeconds
			max = &neg
		} else {
			max = nil
		}
	}
	if min != nil && d < *min {
		return false, nil
	}
	if max != nil && d > *max {
		return false, nil
	}
	return true, nil
}

func (f TimeBetweenEvents) Vars(ev *expr.Evaluator) []binding.Variable {
	return []binding.Variable{binding.Ev(f.From), binding.Ev(f.To)}
}

// NotEqual checks that two already-bound variables of the same kind resolve
// to different indices.
type NotEqual struct {
	A, B binding.Variable
}

func (f NotEqual) Check(b binding.Binding, log *ocel.Log, ev *expr.Evaluator) (bool, error) {
	av, ok := b.GetAny(f.A)
	if !ok {
		return false, nil
	}
	bv, ok := b.GetAny(f.B)
	if !ok {
		return false, nil
	}
	return av != bv, nil
}

func (f NotEqual) Vars(ev *expr.Evaluator) []binding.Variable { return []binding.Variable{f.A, f.B} }

// EventAttrValue checks a named event attribute (or the pseudo-attributes
// ocel:id / ocel:time) against a ValueFilter.
type EventAttrValue struct {
	Var   binding.EventVariable
	Name  string
	Value ValueFilter
}

func (f EventAttrValue) Check(b binding.Binding, log *ocel.Log, ev *expr.Evaluator) (bool, error) {
	ei, ok := b.GetEvent(f.Var)
	if !ok {
		return false, nil
	}
	e := log.Event(ei)
	switch f.Name {
	case "ocel:id":
		return f.Value.Match(ocel.StringValue(e.ID)), nil
	case "ocel:time":
		return f.Value.Match(ocel.TimeValue(e.Time)), nil
	}
	for _, a := range e.Attributes {
		if a.Name == f.Name {
			return f.Value.Match(a.Value), nil
		}
	}
	return false, nil
}

func (f EventAttrValue) Vars(ev *expr.Evaluator) []binding.Variable { return []binding.Variable{binding.Ev(f.Var)} }

// Timepoint selects which of an object's time-valued attribute values an
// ObjectAttrValue filter checks.
type Timepoint struct {
	Kind    TimepointKind
	AtEvent binding.EventVariable // only meaningful when Kind == AtEvent
}

type TimepointKind int

const (
	Always TimepointKind = iota
	Sometime
	AtEvent
)

// ObjectAttrValue checks a named, time-valued object attribute against a
// ValueFilter, at the timepoint selected by Timepoint: Always requires
// every recorded value to match, Sometime requires at least one, and
// AtEvent resolves to the latest value whose ValidFrom is at or before the
// given event's time (absent such a value, the filter is unsatisfied).
type ObjectAttrValue struct {
	Var       binding.ObjectVariable
	Name      string
	Value     ValueFilter
	Timepoint Timepoint
}

func (f ObjectAttrValue) Check(b binding.Binding, log *ocel.Log, ev *expr.Evaluator) (bool, error) {
	oi, ok := b.GetObject(f.Var)
	if !ok {
		return false, nil
	}
	o := log.Object(oi)
	if f.Name == "ocel:id" {
		return f.Value.Match(ocel.StringValue(o.ID)), nil
	}

	switch f.Timepoint.Kind {
	case Always:
		found := false
		for _, a := range o.Attributes {
			if a.Name != f.Name {
				continue
			}
			found = true
			if !f.Value.Match(a.Value) {
				return false, nil
			}
		}
		return found, nil
	case Sometime:
		for _, a := range o.Attributes {
			if a.Name == f.Name && f.Value.Match(a.Value) {
				return true, nil
			}
		}
		return false, nil
	case AtEvent:
		ei, ok := b.GetEvent(f.Timepoint.AtEvent)
		if !ok {
			return false, nil
		}
		at := log.Event(ei).Time
		var best *ocel.TimedAttribute
		for i := range o.Attributes {
			a := &o.Attributes[i]
			if a.Name != f.Name || a.ValidFrom.After(at) {
				continue
			}
			if best == nil || a.ValidFrom.After(best.ValidFrom) {
				best = a
			}
		}
		if best == nil {
			return false, nil
		}
		return f.Value.Match(best.Value), nil
	default:
		return false, nil
	}
}

func (f ObjectAttrValue) Vars(ev *expr.Evaluator) []binding.Variable {
	vars := []binding.Variable{binding.Ob(f.Var)}
	if f.Timepoint.Kind == AtEvent {
		vars = append(vars, binding.Ev(f.Timepoint.AtEvent))
	}
	return vars
}

// BasicExpr delegates to the expression evaluator (C5), with no child
// results in scope (basic filters run at bind time, before any child node
// has been evaluated).
type BasicExpr struct {
	Program string
}

func (f BasicExpr) Check(b binding.Binding, log *ocel.Log, ev *expr.Evaluator) (bool, error) {
	return ev.EvalBool(f.Program, b, nil)
}

func (f BasicExpr) Vars(ev *expr.Evaluator) []binding.Variable {
	vars, err := ev.ReferencedVariables(f.Program)
	if err != nil {
		return nil
	}
	return vars
}
