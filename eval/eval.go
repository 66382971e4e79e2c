// Package eval implements the tree evaluator (C7): recursive evaluation of
// a BindingBoxTree against a Log, combining C6's per-node binding expansion
// with size-filter and constraint checks and a cooperative safety-bound
// cancellation (§4.7).
package eval

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/aarkue/OCPQ/binding"
	"github.com/aarkue/OCPQ/box"
	"github.com/aarkue/OCPQ/expand"
	"github.com/aarkue/OCPQ/expr"
	"github.com/aarkue/OCPQ/internal/parallel"
	"github.com/aarkue/OCPQ/obs"
	"github.com/aarkue/OCPQ/ocel"
)

// Options configures one evaluation, independent of ocpq.Options so this
// package has no dependency on the root package.
type Options struct {
	MaxBindings       int
	TreeSafetyProduct int
	Workers           int
}

// maxSituations bounds how many satisfied bindings a single node keeps for
// reporting, while SituationCount/SituationViolatedCount stay exact — no
// truncation of the counts themselves, only of the returned sample.
const maxSituations = 10000

// FlatResult is one (node, binding, violation) triple produced anywhere in
// the tree; Violation is nil for a binding that satisfied every constraint.
type FlatResult struct {
	NodeIndex int
	Binding   binding.Binding
	Violation *box.Violation
}

// NodeResult summarizes one tree node's produced bindings.
type NodeResult struct {
	Situations             []binding.Binding
	SituationCount         int
	SituationViolatedCount int
}

// Result is the full output of Evaluate (§6).
type Result struct {
	Nodes           []NodeResult
	ObjectIDs       []string
	EventIDs        []string
	BindingsSkipped bool

	// Flat carries every produced (node, binding, violation) triple,
	// uncapped, for FilterLog's relation/object inclusion decision — unlike
	// NodeResult.Situations, which truncates its sample for reporting.
	Flat []FlatResult
}

// Evaluate runs tree against log, starting from the empty binding at the
// root node.
func Evaluate(t *box.Tree, log *ocel.Log, ev *expr.Evaluator, opts Options, octx obs.Context) (*Result, error) {
	if octx == nil {
		octx = obs.BaseContext{}
	}
	pool := parallel.New(opts.Workers)
	cancel := &atomic.Bool{}

	octx.QueryBegin(len(t.Nodes))
	flat, _, skipped, err := evaluateNode(t, t.Root, binding.Empty(), log, ev, pool, opts, cancel, octx)
	if err != nil {
		octx.QueryEnd(true)
		return nil, err
	}
	if cancel.Load() {
		skipped = true
		octx.CapExceeded("tree_safety_product")
	}
	octx.QueryEnd(skipped)

	nodeResults := make([]NodeResult, len(t.Nodes))
	eventSet := map[ocel.EventIndex]struct{}{}
	objectSet := map[ocel.ObjectIndex]struct{}{}

	for _, fr := range flat {
		nr := &nodeResults[fr.NodeIndex]
		nr.SituationCount++
		if fr.Violation != nil {
			nr.SituationViolatedCount++
		} else if len(nr.Situations) < maxSituations {
			nr.Situations = append(nr.Situations, fr.Binding)
		}
		for _, v := range fr.Binding.EventVars() {
			idx, _ := fr.Binding.GetEvent(v)
			eventSet[idx] = struct{}{}
		}
		for _, v := range fr.Binding.ObjectVars() {
			idx, _ := fr.Binding.GetObject(v)
			objectSet[idx] = struct{}{}
		}
	}

	return &Result{
		Nodes:           nodeResults,
		ObjectIDs:       idsForObjects(objectSet, log),
		EventIDs:        idsForEvents(eventSet, log),
		BindingsSkipped: skipped,
		Flat:            flat,
	}, nil
}

func idsForEvents(set map[ocel.EventIndex]struct{}, log *ocel.Log) []string {
	idx := make([]ocel.EventIndex, 0, len(set))
	for i := range set {
		idx = append(idx, i)
	}
	sort.Slice(idx, func(i, j int) bool { return idx[i] < idx[j] })
	ids := make([]string, len(idx))
	for i, e := range idx {
		ids[i] = log.Event(e).ID
	}
	return ids
}

func idsForObjects(set map[ocel.ObjectIndex]struct{}, log *ocel.Log) []string {
	idx := make([]ocel.ObjectIndex, 0, len(set))
	for i := range set {
		idx = append(idx, i)
	}
	sort.Slice(idx, func(i, j int) bool { return idx[i] < idx[j] })
	ids := make([]string, len(idx))
	for i, o := range idx {
		ids[i] = log.Object(o).ID
	}
	return ids
}

type bindingOutcome struct {
	flat    []FlatResult
	child   expr.ChildBinding
	skipped bool
}

// evaluateNode evaluates one tree node against parent, returning every flat
// (node, binding, violation) triple produced at or below this node, plus
// this node's own {binding, satisfied} pairs for the parent's size filters
// and constraints to consume.
func evaluateNode(t *box.Tree, nodeIdx int, parent binding.Binding, log *ocel.Log, ev *expr.Evaluator, pool *parallel.Pool, opts Options, cancel *atomic.Bool, octx obs.Context) ([]FlatResult, []expr.ChildBinding, bool, error) {
	bx, edges := t.Resolve(nodeIdx)

	bindings, bskip, err := expand.Expand(bx, parent, log, ev, pool, opts.MaxBindings)
	if err != nil {
		return nil, nil, false, err
	}
	if bskip {
		octx.CapExceeded("bindings")
	}

	var mu sync.Mutex
	var firstErr error
	var safetyCount int64

	outcomes := parallel.FlatMapCancelable(pool, bindings, cancel, func(b binding.Binding) []bindingOutcome {
		childResultsByName := make(map[string][]expr.ChildBinding, len(edges))
		var localFlat []FlatResult
		localSkip := false

		for _, edge := range edges {
			if cancel.Load() {
				localSkip = true
				break
			}
			cFlat, cChildRes, cSkip, cErr := evaluateNode(t, edge.Child, b, log, ev, pool, opts, cancel, octx)
			if cErr != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = cErr
				}
				mu.Unlock()
				return nil
			}
			if cSkip {
				localSkip = true
			}
			childResultsByName[edge.Name] = cChildRes
			localFlat = append(localFlat, cFlat...)

			n := atomic.AddInt64(&safetyCount, int64(len(cFlat)))
			if opts.TreeSafetyProduct > 0 && int64(len(edges))*n*int64(len(bindings)) > int64(opts.TreeSafetyProduct) {
				cancel.Store(true)
			}
		}

		lb := b
		for _, lf := range bx.Labels {
			v, err := ev.EvalValue(lf.Expr, lb, childResultsByName)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return nil
			}
			lb = lb.AddLabel(lf.Label, v)
		}

		for _, sf := range bx.SizeFilters {
			ok, err := sf.Check(lb, childResultsByName, log, ev)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return nil
			}
			if !ok {
				// Rejected binding: drop it and every child result beneath it
				// entirely, per §4.7 — nothing here propagates to the parent.
				return nil
			}
		}

		violation := evaluateConstraints(bx, lb, childResultsByName, log, ev, &mu, &firstErr)

		return []bindingOutcome{{
			flat:    append(localFlat, FlatResult{NodeIndex: nodeIdx, Binding: lb, Violation: violation}),
			child:   expr.ChildBinding{Binding: lb, Satisfied: violation == nil},
			skipped: localSkip,
		}}
	})

	if firstErr != nil {
		return nil, nil, false, firstErr
	}

	var flat []FlatResult
	var childRes []expr.ChildBinding
	anySkip := bskip
	for _, o := range outcomes {
		flat = append(flat, o.flat...)
		childRes = append(childRes, o.child)
		if o.skipped {
			anySkip = true
		}
	}
	return flat, childRes, anySkip, nil
}

func evaluateConstraints(bx *box.BindingBox, b binding.Binding, childResults map[string][]expr.ChildBinding, log *ocel.Log, ev *expr.Evaluator, mu *sync.Mutex, firstErr *error) *box.Violation {
	for i, c := range bx.Constraints {
		violated, err := checkConstraint(c, bx, b, childResults, log, ev)
		if err != nil {
			mu.Lock()
			if *firstErr == nil {
				*firstErr = err
			}
			mu.Unlock()
			return &box.Violation{ConstraintIndex: i}
		}
		if violated {
			return &box.Violation{ConstraintIndex: i}
		}
	}
	return nil
}

// checkConstraint reports whether c is violated by b, given this node's
// child results (§4.7). Sat and And are intentionally identical: the
// specification defines them with the same wording, and that is preserved
// rather than "corrected".
func checkConstraint(c box.Constraint, bx *box.BindingBox, b binding.Binding, childResults map[string][]expr.ChildBinding, log *ocel.Log, ev *expr.Evaluator) (bool, error) {
	switch c.Kind {
	case box.ConstraintFilter:
		ok, err := bx.Filters[c.Index].Check(b, log, ev)
		return !ok, err
	case box.ConstraintSizeFilter:
		ok, err := bx.SizeFilters[c.Index].Check(b, childResults, log, ev)
		return !ok, err
	case box.ConstraintSat, box.ConstraintAnd:
		for _, name := range c.ChildNames {
			for _, cb := range childResults[name] {
				if !cb.Satisfied {
					return true, nil
				}
			}
		}
		return false, nil
	case box.ConstraintAny:
		// Violated iff some named child has every one of its bindings
		// violated — including vacuously, when it produced none at all.
		// Preserved exactly as specified rather than guessed at.
		for _, name := range c.ChildNames {
			allViolated := true
			for _, cb := range childResults[name] {
				if cb.Satisfied {
					allViolated = false
					break
				}
			}
			if allViolated {
				return true, nil
			}
		}
		return false, nil
	case box.ConstraintNot:
		for _, name := range c.ChildNames {
			hasSatisfied := false
			for _, cb := range childResults[name] {
				if cb.Satisfied {
					hasSatisfied = true
					break
				}
			}
			if !hasSatisfied {
				return false, nil
			}
		}
		return true, nil
	case box.ConstraintOr:
		for _, name := range c.ChildNames {
			allSatisfied := true
			for _, cb := range childResults[name] {
				if !cb.Satisfied {
					allSatisfied = false
					break
				}
			}
			if allSatisfied {
				return false, nil
			}
		}
		return true, nil
	default:
		return false, nil
	}
}
