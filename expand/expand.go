// Package expand implements the binding expander (C6): given a plan from
// planner, it produces every Binding a BindingBox admits by flat-mapping
// each step across the bindings produced so far, applying subsequent
// filter steps opportunistically as each candidate is produced.
package expand

import (
	"sync"

	"github.com/aarkue/OCPQ/binding"
	"github.com/aarkue/OCPQ/box"
	"github.com/aarkue/OCPQ/expr"
	"github.com/aarkue/OCPQ/internal/parallel"
	"github.com/aarkue/OCPQ/ocel"
	"github.com/aarkue/OCPQ/planner"
)

// Expand enumerates every Binding bx admits that extends parent, bounded by
// maxBindings (§4.6, §6). When the bound is hit, the excess is discarded and
// skipped is true — the cap is reported, never treated as an error (§7).
func Expand(bx *box.BindingBox, parent binding.Binding, log *ocel.Log, ev *expr.Evaluator, pool *parallel.Pool, maxBindings int) ([]binding.Binding, bool, error) {
	steps, err := planner.GetBindingOrder(bx, parent, log, ev)
	if err != nil {
		return nil, false, err
	}

	current := []binding.Binding{parent}
	skipped := false

	i := 0
	for i < len(steps) {
		step := steps[i]

		if step.Kind == planner.StepFilter {
			next := current[:0]
			for _, b := range current {
				ok, err := bx.Filters[step.FilterIndex].Check(b, log, ev)
				if err != nil {
					return nil, false, err
				}
				if ok {
					next = append(next, b)
				}
			}
			current = next
			i++
			continue
		}

		fusedEnd := i + 1
		for fusedEnd < len(steps) && steps[fusedEnd].Kind == planner.StepFilter {
			fusedEnd++
		}
		fused := steps[i+1 : fusedEnd]

		var mu sync.Mutex
		var firstErr error
		results := parallel.FlatMap(pool, current, func(b binding.Binding) []binding.Binding {
			candidates, err := executeBindStep(step, b, log)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return nil
			}
			out := make([]binding.Binding, 0, len(candidates))
			for _, cb := range candidates {
				keep := true
				for _, fs := range fused {
					ok, err := bx.Filters[fs.FilterIndex].Check(cb, log, ev)
					if err != nil {
						mu.Lock()
						if firstErr == nil {
							firstErr = err
						}
						mu.Unlock()
						keep = false
						break
					}
					if !ok {
						keep = false
						break
					}
				}
				if keep {
					out = append(out, cb)
				}
			}
			return out
		})
		if firstErr != nil {
			return nil, false, firstErr
		}

		current = results
		i = fusedEnd

		if maxBindings > 0 && len(current) > maxBindings {
			current = current[:maxBindings]
			skipped = true
			break
		}
	}

	return current, skipped, nil
}

func executeBindStep(step planner.Step, b binding.Binding, log *ocel.Log) ([]binding.Binding, error) {
	switch step.Kind {
	case planner.StepBindEv:
		return bindEvents(step, b, log, eventCandidates(step.Types, log)), nil
	case planner.StepBindOb:
		return bindObjects(step.ObjectVar, b, objectCandidates(step.Types, log)), nil
	case planner.StepBindObFromEv:
		fromIdx, _ := b.GetEvent(step.FromEvent)
		refs := e2oRefsOfTypes(log, fromIdx, step.Types)
		return bindObjectsFromRefs(step, b, refs), nil
	case planner.StepBindEvFromOb:
		fromIdx, _ := b.GetObject(step.FromObject)
		refs := e2oRevRefsOfTypes(log, fromIdx, step.Types)
		return bindEventsFromRefs(step, b, refs), nil
	case planner.StepBindObFromOb:
		fromIdx, _ := b.GetObject(step.FromObject)
		var refs []ocel.ObjRef
		if step.Reversed {
			refs = o2oRevRefsOfTypes(log, fromIdx, step.Types)
		} else {
			refs = o2oRefsOfTypes(log, fromIdx, step.Types)
		}
		return bindObjectsFromRefs(step, b, refs), nil
	default:
		return []binding.Binding{b}, nil
	}
}

func eventCandidates(types []string, log *ocel.Log) []ocel.EventIndex {
	if len(types) == 0 {
		out := make([]ocel.EventIndex, log.NumEvents())
		for i := range out {
			out[i] = ocel.EventIndex(i)
		}
		return out
	}
	var out []ocel.EventIndex
	for _, t := range types {
		out = append(out, log.EventsOfType(t)...)
	}
	return out
}

func objectCandidates(types []string, log *ocel.Log) []ocel.ObjectIndex {
	if len(types) == 0 {
		out := make([]ocel.ObjectIndex, log.NumObjects())
		for i := range out {
			out[i] = ocel.ObjectIndex(i)
		}
		return out
	}
	var out []ocel.ObjectIndex
	for _, t := range types {
		out = append(out, log.ObjectsOfType(t)...)
	}
	return out
}

func bindEvents(step planner.Step, b binding.Binding, log *ocel.Log, candidates []ocel.EventIndex) []binding.Binding {
	out := make([]binding.Binding, 0, len(candidates))
	for _, idx := range candidates {
		if !withinTimeConstraints(step.TimeConstraints, idx, b, log) {
			continue
		}
		out = append(out, b.WithEvent(step.EventVar, idx))
	}
	return out
}

func bindObjects(v binding.ObjectVariable, b binding.Binding, candidates []ocel.ObjectIndex) []binding.Binding {
	out := make([]binding.Binding, 0, len(candidates))
	for _, idx := range candidates {
		out = append(out, b.WithObject(v, idx))
	}
	return out
}

// e2oRefsOfTypes merge-iterates E2OOfType across types, keeping only
// objects of an allowed type and deduplicating targets reached through more
// than one declared type. An empty types list means no type restriction.
func e2oRefsOfTypes(log *ocel.Log, e ocel.EventIndex, types []string) []ocel.ObjRef {
	if len(types) == 0 {
		return log.E2O(e)
	}
	seen := map[ocel.ObjectIndex]bool{}
	var out []ocel.ObjRef
	for _, t := range types {
		for _, ref := range log.E2OOfType(e, t) {
			if seen[ref.Object] {
				continue
			}
			seen[ref.Object] = true
			out = append(out, ref)
		}
	}
	return out
}

func e2oRevRefsOfTypes(log *ocel.Log, o ocel.ObjectIndex, types []string) []ocel.EvRef {
	if len(types) == 0 {
		return log.E2ORev(o)
	}
	seen := map[ocel.EventIndex]bool{}
	var out []ocel.EvRef
	for _, t := range types {
		for _, ref := range log.E2ORevOfType(o, t) {
			if seen[ref.Event] {
				continue
			}
			seen[ref.Event] = true
			out = append(out, ref)
		}
	}
	return out
}

func o2oRefsOfTypes(log *ocel.Log, o ocel.ObjectIndex, types []string) []ocel.ObjRef {
	if len(types) == 0 {
		return log.O2O(o)
	}
	seen := map[ocel.ObjectIndex]bool{}
	var out []ocel.ObjRef
	for _, t := range types {
		for _, ref := range log.O2OOfType(o, t) {
			if seen[ref.Object] {
				continue
			}
			seen[ref.Object] = true
			out = append(out, ref)
		}
	}
	return out
}

func o2oRevRefsOfTypes(log *ocel.Log, o ocel.ObjectIndex, types []string) []ocel.ObjRef {
	if len(types) == 0 {
		return log.O2ORev(o)
	}
	seen := map[ocel.ObjectIndex]bool{}
	var out []ocel.ObjRef
	for _, t := range types {
		for _, ref := range log.O2ORevOfType(o, t) {
			if seen[ref.Object] {
				continue
			}
			seen[ref.Object] = true
			out = append(out, ref)
		}
	}
	return out
}

func bindObjectsFromRefs(step planner.Step, b binding.Binding, refs []ocel.ObjRef) []binding.Binding {
	out := make([]binding.Binding, 0, len(refs))
	for _, ref := range refs {
		if step.Qualifier != nil && ref.Qualifier != *step.Qualifier {
			continue
		}
		out = append(out, b.WithObject(step.ObjectVar, ref.Object))
	}
	return out
}

func bindEventsFromRefs(step planner.Step, b binding.Binding, refs []ocel.EvRef) []binding.Binding {
	out := make([]binding.Binding, 0, len(refs))
	for _, ref := range refs {
		if step.Qualifier != nil && ref.Qualifier != *step.Qualifier {
			continue
		}
		out = append(out, b.WithEvent(step.EventVar, ref.Event))
	}
	return out
}

func withinTimeConstraints(tcs []planner.TimeConstraint, idx ocel.EventIndex, b binding.Binding, log *ocel.Log) bool {
	if len(tcs) == 0 {
		return true
	}
	t := log.Event(idx).Time
	for _, tc := range tcs {
		refIdx, ok := b.GetEvent(tc.Ref)
		if !ok {
			continue
		}
		d := t.Sub(log.Event(refIdx).Time).Seconds()
		if tc.MinSeconds != nil && d < *tc.MinSeconds {
			return false
		}
		if tc.MaxSeconds != nil && d > *tc.MaxSeconds {
			return false
		}
	}
	return true
}
