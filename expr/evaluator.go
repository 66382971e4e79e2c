// Package expr implements the embedded expression evaluator (C5): a small
// sandboxed predicate language built on CEL (google/cel-go), the Go
// implementation of the same Common Expression Language the original uses
// via its cel_interpreter crate. Programs are compiled once per distinct
// program string and cached in a Cache, since the same
// BasicExpr/AdvancedExpr/label-function text is typically re-evaluated many
// times across an evaluation's bindings.
package expr

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/aarkue/OCPQ/binding"
	"github.com/aarkue/OCPQ/ocel"
)

// ChildBinding pairs a child node's binding with whether it satisfied its
// own constraints, the shape AdvancedExpr size filters see for each named
// child (§4.8).
type ChildBinding struct {
	Binding   binding.Binding
	Satisfied bool
}

// Evaluator compiles and runs expression-language programs against one
// fixed Log. Every BasicExpr/AdvancedExpr/LabelFunction program in a query
// is run through the same Evaluator so environment construction (and the
// log it closes over) happens exactly once per evaluation.
type Evaluator struct {
	log   *ocel.Log
	env   *cel.Env
	cache *Cache
}

// NewEvaluator builds the CEL environment for log, registering every
// primitive in §4.5's table. cache stores the compiled programs; programs
// compiled into it call this Evaluator's functions and so read this
// Evaluator's log, including when a later Evaluator finds them in the same
// Cache.
func NewEvaluator(log *ocel.Log, cache *Cache) (*Evaluator, error) {
	e := &Evaluator{log: log, cache: cache}
	env, err := cel.NewEnv(e.functionOptions()...)
	if err != nil {
		return nil, fmt.Errorf("expr: building cel environment: %w", err)
	}
	e.env = env
	return e, nil
}

// compile parses (but does not type-check) program, wraps it in a
// cel.Program, and caches the result. env.Check is deliberately skipped:
// checking requires every referenced identifier to be declared ahead of
// time, but which e<k>/o<k> identifiers a program may see varies per query,
// while the cache keys purely on program text. Parse-only compilation lets
// one cached cel.Program serve every binding a query ever throws at it,
// resolving identifiers dynamically at Eval time instead.
func (e *Evaluator) compile(program string) (*compiledProgram, error) {
	if cp, ok := e.cache.get(program); ok {
		return cp, nil
	}
	ast, iss := e.env.Parse(program)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("expr: parsing %q: %w", program, iss.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("expr: building program %q: %w", program, err)
	}
	cp := &compiledProgram{program: prg, refs: scanRefs(program)}
	e.cache.set(program, cp)
	return cp, nil
}

// activation builds the CEL variable bindings for one evaluation: every
// bound event/object variable resolves to its index-encoded ref string, and
// every named child result list resolves to a list of maps carrying that
// child binding's own event/object variables plus a boolean "satisfied".
func (e *Evaluator) activation(b binding.Binding, childResults map[string][]ChildBinding) map[string]interface{} {
	vars := make(map[string]interface{})
	for _, v := range b.EventVars() {
		idx, _ := b.GetEvent(v)
		vars[v.String()] = encodeEvent(idx)
	}
	for _, v := range b.ObjectVars() {
		idx, _ := b.GetObject(v)
		vars[v.String()] = encodeObject(idx)
	}
	for name, cbs := range childResults {
		list := make([]ref.Val, len(cbs))
		for i, cb := range cbs {
			list[i] = types.NewDynamicMap(types.DefaultTypeAdapter, childBindingMap(cb))
		}
		vars[name] = types.NewDynamicList(types.DefaultTypeAdapter, list)
	}
	return vars
}

func childBindingMap(cb ChildBinding) map[ref.Val]ref.Val {
	m := map[ref.Val]ref.Val{
		types.String("satisfied"): types.Bool(cb.Satisfied),
	}
	for _, v := range cb.Binding.EventVars() {
		idx, _ := cb.Binding.GetEvent(v)
		m[types.String(v.String())] = types.String(encodeEvent(idx))
	}
	for _, v := range cb.Binding.ObjectVars() {
		idx, _ := cb.Binding.GetObject(v)
		m[types.String(v.String())] = types.String(encodeObject(idx))
	}
	return m
}

// EvalBool runs program as a boolean predicate (BasicExpr/AdvancedExpr).
// Per §7, a runtime type error (the program doesn't evaluate to a bool) is
// not propagated as a hard failure: the program is treated as false for
// that binding, since a predicate written against the wrong shape of data
// is a per-binding condition, not a query-level fault. Compile failures
// (ExpressionCompile) are still returned as errors.
func (e *Evaluator) EvalBool(program string, b binding.Binding, childResults map[string][]ChildBinding) (bool, error) {
	cp, err := e.compile(program)
	if err != nil {
		return false, err
	}
	out, _, err := cp.program.Eval(e.activation(b, childResults))
	if err != nil {
		return false, nil
	}
	bv, ok := out.(types.Bool)
	if !ok {
		return false, nil
	}
	return bool(bv), nil
}

// EvalValue runs program as a value-producing expression (LabelFunction),
// converting the CEL result back into an AttributeValue. A runtime error or
// a result of a type with no AttributeValue analogue yields Null.
func (e *Evaluator) EvalValue(program string, b binding.Binding, childResults map[string][]ChildBinding) (ocel.AttributeValue, error) {
	cp, err := e.compile(program)
	if err != nil {
		return ocel.Null(), err
	}
	out, _, err := cp.program.Eval(e.activation(b, childResults))
	if err != nil {
		return ocel.Null(), nil
	}
	return fromCelValue(out), nil
}
