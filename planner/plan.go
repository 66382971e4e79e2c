package planner

import (
	"sort"

	"github.com/aarkue/OCPQ/binding"
	"github.com/aarkue/OCPQ/box"
	"github.com/aarkue/OCPQ/expr"
	"github.com/aarkue/OCPQ/ocel"
)

// GetBindingOrder computes the deterministic binding order for bx given the
// variables already bound in parent (§4.3). It prefers relational binds
// (reusing an O2E/O2O/TimeBetweenEvents filter as an enumeration source)
// over a free type scan; when several relational candidates qualify at
// once, it picks the one whose new variable ranges over the smallest
// type population in log (ties broken by declaration order), and
// opportunistically emits StepFilter entries as soon as a filter's
// variables are all bound, falling back to a trailing sweep for any
// filter that never became eligible mid-plan.
func GetBindingOrder(bx *box.BindingBox, parent binding.Binding, log *ocel.Log, ev *expr.Evaluator) ([]Step, error) {
	return newPlanner(bx, parent, log, ev).run()
}

type plannerState struct {
	bx     *box.BindingBox
	log    *ocel.Log
	ev     *expr.Evaluator
	steps  []Step
	boundE map[binding.EventVariable]bool
	boundO map[binding.ObjectVariable]bool
	pendE  []binding.EventVariable
	pendO  []binding.ObjectVariable
	typesE map[binding.EventVariable][]string
	typesO map[binding.ObjectVariable][]string
	usedF  []bool
}

func newPlanner(bx *box.BindingBox, parent binding.Binding, log *ocel.Log, ev *expr.Evaluator) *plannerState {
	p := &plannerState{
		bx:     bx,
		log:    log,
		ev:     ev,
		boundE: map[binding.EventVariable]bool{},
		boundO: map[binding.ObjectVariable]bool{},
		typesE: map[binding.EventVariable][]string{},
		typesO: map[binding.ObjectVariable][]string{},
		usedF:  make([]bool, len(bx.Filters)),
	}
	for _, v := range parent.EventVars() {
		p.boundE[v] = true
	}
	for _, v := range parent.ObjectVars() {
		p.boundO[v] = true
	}
	for _, nv := range bx.NewEventVars {
		p.pendE = append(p.pendE, nv.Var)
		p.typesE[nv.Var] = nv.Types
	}
	for _, nv := range bx.NewObjectVars {
		p.pendO = append(p.pendO, nv.Var)
		p.typesO[nv.Var] = nv.Types
	}
	sort.Slice(p.pendE, func(i, j int) bool { return p.pendE[i] < p.pendE[j] })
	sort.Slice(p.pendO, func(i, j int) bool { return p.pendO[i] < p.pendO[j] })
	return p
}

func (p *plannerState) run() ([]Step, error) {
	for len(p.pendE) > 0 || len(p.pendO) > 0 {
		if p.tryRelationalBind() {
			p.addSupportedFilters()
			continue
		}
		if p.tryTimeWindowBind() {
			p.addSupportedFilters()
			continue
		}
		p.freeBind()
		p.addSupportedFilters()
	}
	for i, used := range p.usedF {
		if !used {
			p.steps = append(p.steps, Step{Kind: StepFilter, FilterIndex: i})
			p.usedF[i] = true
		}
	}
	return p.steps, nil
}

// relationalCandidate is one eligible relational bind, kept alongside the
// type population it ranges over so tryRelationalBind can pick the
// narrowest one instead of just the earliest-declared.
type relationalCandidate struct {
	filterIdx int
	pop       int
	step      Step
}

// tryRelationalBind looks for an O2E/O2O filter connecting a pending
// variable to one already bound. When several qualify, it picks the one
// whose new variable has the smallest type population in the log, since
// enumerating through the narrower side produces fewer candidate bindings;
// ties (and the no-log case) fall back to declaration order.
func (p *plannerState) tryRelationalBind() bool {
	var candidates []relationalCandidate
	for i, f := range p.bx.Filters {
		if p.usedF[i] {
			continue
		}
		switch ff := f.(type) {
		case box.O2E:
			evBound, obBound := p.boundE[ff.EventVar], p.boundO[ff.ObjectVar]
			switch {
			case evBound && p.isPendingObject(ff.ObjectVar) && !obBound:
				candidates = append(candidates, relationalCandidate{
					filterIdx: i,
					pop:       p.objectTypePopulation(ff.ObjectVar),
					step: Step{
						Kind: StepBindObFromEv, ObjectVar: ff.ObjectVar, FromEvent: ff.EventVar,
						Qualifier: ff.Qualifier, Types: p.typesO[ff.ObjectVar],
					},
				})
			case obBound && p.isPendingEvent(ff.EventVar) && !evBound:
				candidates = append(candidates, relationalCandidate{
					filterIdx: i,
					pop:       p.eventTypePopulation(ff.EventVar),
					step: Step{
						Kind: StepBindEvFromOb, EventVar: ff.EventVar, FromObject: ff.ObjectVar,
						Qualifier: ff.Qualifier, Types: p.typesE[ff.EventVar],
					},
				})
			}
		case box.O2O:
			fromBound, toBound := p.boundO[ff.From], p.boundO[ff.To]
			switch {
			case fromBound && p.isPendingObject(ff.To) && !toBound:
				candidates = append(candidates, relationalCandidate{
					filterIdx: i,
					pop:       p.objectTypePopulation(ff.To),
					step: Step{
						Kind: StepBindObFromOb, ObjectVar: ff.To, FromObject: ff.From,
						Qualifier: ff.Qualifier, Types: p.typesO[ff.To],
					},
				})
			case toBound && p.isPendingObject(ff.From) && !fromBound:
				candidates = append(candidates, relationalCandidate{
					filterIdx: i,
					pop:       p.objectTypePopulation(ff.From),
					step: Step{
						Kind: StepBindObFromOb, ObjectVar: ff.From, FromObject: ff.To,
						Qualifier: ff.Qualifier, Reversed: true, Types: p.typesO[ff.From],
					},
				})
			}
		}
	}
	if len(candidates) == 0 {
		return false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.pop < best.pop {
			best = c
		}
	}
	p.usedF[best.filterIdx] = true
	p.commit(best.step)
	return true
}

// eventTypePopulation returns how many events in the log a newly-bound
// event variable could range over, the narrowest of its declared types'
// counts. With no log (unit tests exercising pure step ordering) every
// candidate reports -1, so they tie and declaration order decides. A
// variable with no declared type also reports -1, which ranks it ahead of
// every typed candidate.
func (p *plannerState) eventTypePopulation(v binding.EventVariable) int {
	types := p.typesE[v]
	if p.log == nil || len(types) == 0 {
		return -1
	}
	return p.smallestPopulation(types, func(t string) int { return len(p.log.EventsOfType(t)) }, p.log.NumEvents())
}

func (p *plannerState) objectTypePopulation(v binding.ObjectVariable) int {
	types := p.typesO[v]
	if p.log == nil || len(types) == 0 {
		return -1
	}
	return p.smallestPopulation(types, func(t string) int { return len(p.log.ObjectsOfType(t)) }, p.log.NumObjects())
}

func (p *plannerState) smallestPopulation(types []string, countOf func(string) int, fallback int) int {
	best := fallback
	for _, t := range types {
		if c := countOf(t); c < best {
			best = c
		}
	}
	return best
}

// tryTimeWindowBind looks for a TimeBetweenEvents filter anchoring a
// pending event variable to an already-bound one, used as a secondary
// (narrowing) binding source per §4.3.
func (p *plannerState) tryTimeWindowBind() bool {
	for i, f := range p.bx.Filters {
		if p.usedF[i] {
			continue
		}
		tb, ok := f.(box.TimeBetweenEvents)
		if !ok {
			continue
		}
		fromBound, toBound := p.boundE[tb.From], p.boundE[tb.To]
		switch {
		case fromBound && p.isPendingEvent(tb.To) && !toBound:
			p.usedF[i] = true
			p.commit(Step{
				Kind: StepBindEv, EventVar: tb.To, Types: p.typesE[tb.To],
				TimeConstraints: []TimeConstraint{{Ref: tb.From, MinSeconds: tb.MinSeconds, MaxSeconds: tb.MaxSeconds}},
			})
			return true
		case toBound && p.isPendingEvent(tb.From) && !fromBound:
			min, max := reverseBounds(tb.MinSeconds, tb.MaxSeconds)
			p.usedF[i] = true
			p.commit(Step{
				Kind: StepBindEv, EventVar: tb.From, Types: p.typesE[tb.From],
				TimeConstraints: []TimeConstraint{{Ref: tb.To, MinSeconds: min, MaxSeconds: max}},
			})
			return true
		}
	}
	return false
}

func reverseBounds(min, max *float64) (*float64, *float64) {
	var newMin, newMax *float64
	if max != nil {
		v := -*max
		newMin = &v
	}
	if min != nil {
		v := -*min
		newMax = &v
	}
	return newMin, newMax
}

// freeBind binds the lowest-id pending event variable if any remain, else
// the lowest-id pending object variable, by an unconstrained type scan.
func (p *plannerState) freeBind() {
	if len(p.pendE) > 0 {
		v := p.pendE[0]
		p.commit(Step{Kind: StepBindEv, EventVar: v, Types: p.typesE[v]})
		return
	}
	v := p.pendO[0]
	p.commit(Step{Kind: StepBindOb, ObjectVar: v, Types: p.typesO[v]})
}

// addSupportedFilters appends a StepFilter for every not-yet-used filter
// whose referenced variables are now all bound.
func (p *plannerState) addSupportedFilters() {
	for i, f := range p.bx.Filters {
		if p.usedF[i] {
			continue
		}
		if p.allBound(f.Vars(p.ev)) {
			p.usedF[i] = true
			p.steps = append(p.steps, Step{Kind: StepFilter, FilterIndex: i})
		}
	}
}

func (p *plannerState) allBound(vars []binding.Variable) bool {
	for _, v := range vars {
		if v.IsEvent() {
			if !p.boundE[v.Event] {
				return false
			}
		} else if !p.boundO[v.Object] {
			return false
		}
	}
	return true
}

func (p *plannerState) isPendingEvent(v binding.EventVariable) bool {
	for _, pv := range p.pendE {
		if pv == v {
			return true
		}
	}
	return false
}

func (p *plannerState) isPendingObject(v binding.ObjectVariable) bool {
	for _, pv := range p.pendO {
		if pv == v {
			return true
		}
	}
	return false
}

func (p *plannerState) commit(s Step) {
	p.steps = append(p.steps, s)
	switch s.Kind {
	case StepBindEv, StepBindEvFromOb:
		p.boundE[s.EventVar] = true
		p.removePendingEvent(s.EventVar)
	case StepBindOb, StepBindObFromEv, StepBindObFromOb:
		p.boundO[s.ObjectVar] = true
		p.removePendingObject(s.ObjectVar)
	}
}

func (p *plannerState) removePendingEvent(v binding.EventVariable) {
	for i, pv := range p.pendE {
		if pv == v {
			p.pendE = append(p.pendE[:i], p.pendE[i+1:]...)
			return
		}
	}
}

func (p *plannerState) removePendingObject(v binding.ObjectVariable) {
	for i, pv := range p.pendO {
		if pv == v {
			p.pendO = append(p.pendO[:i], p.pendO[i+1:]...)
			return
		}
	}
}
