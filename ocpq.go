package ocpq

import (
	"time"

	"github.com/aarkue/OCPQ/box"
	"github.com/aarkue/OCPQ/eval"
	"github.com/aarkue/OCPQ/expr"
	"github.com/aarkue/OCPQ/obs"
	"github.com/aarkue/OCPQ/ocel"
)

// Result is the output of Evaluate (§6): per-node satisfied/violated
// situation counts and samples, plus the union of every event/object id
// that appeared in any produced binding.
type Result = eval.Result

// NodeResult summarizes a single tree node's produced bindings.
type NodeResult = eval.NodeResult

// Evaluate runs tree against log and returns the per-node evaluation
// result (§6, evaluate(tree, log)).
func Evaluate(tree *box.Tree, log *ocel.Log, opts Options) (*Result, error) {
	ev, err := newEvaluator(log)
	if err != nil {
		return nil, err
	}
	octx := obs.NewContext(opts.Trace)
	return eval.Evaluate(tree, log, ev, toEvalOptions(opts), octx)
}

// EvaluateMeasured runs Evaluate runs times, returning the final result
// together with a wall-clock duration per run, for the measure_performance
// mode named in §1/§6.
func EvaluateMeasured(tree *box.Tree, log *ocel.Log, opts Options, runs int) (*Result, []time.Duration, error) {
	if runs <= 0 {
		runs = 1
	}
	timings := make([]time.Duration, 0, runs)
	var last *Result
	for i := 0; i < runs; i++ {
		start := time.Now()
		res, err := Evaluate(tree, log, opts)
		if err != nil {
			return nil, nil, err
		}
		timings = append(timings, time.Since(start))
		last = res
	}
	return last, timings, nil
}

func newEvaluator(log *ocel.Log) (*expr.Evaluator, error) {
	return expr.NewEvaluator(log, expr.NewCache())
}

func toEvalOptions(o Options) eval.Options {
	return eval.Options{
		MaxBindings:       o.MaxBindings,
		TreeSafetyProduct: o.TreeSafetyProduct,
		Workers:           o.Workers,
	}
}
