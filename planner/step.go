// Package planner implements the deterministic step planner (C3): given a
// BindingBox and a parent binding, it produces an ordered list of Steps the
// binding expander executes to enumerate that box's bindings (§4.3).
package planner

import "github.com/aarkue/OCPQ/binding"

// StepKind tags which binding operation a Step performs.
type StepKind int

const (
	// StepBindEv binds EventVar by scanning events of the allowed types,
	// optionally narrowed by TimeConstraints against already-bound events.
	StepBindEv StepKind = iota
	// StepBindOb binds ObjectVar by scanning objects of the allowed types.
	StepBindOb
	// StepBindObFromEv binds ObjectVar to one of FromEvent's related
	// objects (an O2E filter used as a relational bind source).
	StepBindObFromEv
	// StepBindObFromOb binds ObjectVar via FromObject's O2O relations,
	// reversed when the originating filter's direction runs the other way.
	StepBindObFromOb
	// StepBindEvFromOb binds EventVar to one of FromObject's related
	// events (an O2E filter read in reverse).
	StepBindEvFromOb
	// StepFilter applies bx.Filters[FilterIndex] to the binding built so
	// far, opportunistically as soon as its variables are all bound.
	StepFilter
)

// TimeConstraint narrows a StepBindEv scan to events within
// [MinSeconds, MaxSeconds] of Ref's time, consuming a TimeBetweenEvents
// filter as a binding source rather than a post-hoc check.
type TimeConstraint struct {
	Ref                    binding.EventVariable
	MinSeconds, MaxSeconds *float64
}

// Step is one entry in the plan the binding expander executes in order.
type Step struct {
	Kind StepKind

	EventVar  binding.EventVariable
	ObjectVar binding.ObjectVariable
	Types     []string

	TimeConstraints []TimeConstraint

	FromEvent  binding.EventVariable
	FromObject binding.ObjectVariable
	Qualifier  *string
	Reversed   bool

	FilterIndex int
}
