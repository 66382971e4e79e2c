// Package ocpq is the top-level query evaluation engine: it wires the
// indexed log store, expression evaluator, binding expander, and tree
// evaluator behind the two external entry points the specification names,
// Evaluate and FilterLog (§6).
package ocpq

import "github.com/aarkue/OCPQ/obs"

// Options configures one evaluation or filter run (§6's configuration
// table).
type Options struct {
	// MaxBindings caps how many bindings a single BindingBox may produce;
	// excess bindings are discarded and reported via Result.BindingsSkipped,
	// never treated as an error.
	MaxBindings int
	// TreeSafetyProduct bounds |children| * |accumulated child results| *
	// |bindings| per node before the tree evaluator cooperatively cancels
	// the remainder of the evaluation.
	TreeSafetyProduct int
	// MeasurePerformance is not read by Evaluate, FilterLog or
	// EvaluateMeasured; setting it changes nothing. Repeated timed runs come
	// from EvaluateMeasured, which takes the run count as its own argument.
	MeasurePerformance bool
	// Workers sizes the internal worker pool; 0 defaults to runtime.NumCPU().
	Workers int
	// Trace, when non-nil, receives execution annotations (§ ambient
	// logging). Left nil, the evaluator's hot path stays allocation-free.
	Trace obs.Handler
}

// DefaultOptions returns the specification's default configuration:
// MaxBindings 10,000,000 and TreeSafetyProduct 25,000,000 (§6).
func DefaultOptions() Options {
	return Options{
		MaxBindings:       10_000_000,
		TreeSafetyProduct: 25_000_000,
	}
}
