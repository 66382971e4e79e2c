package expr

import (
	"regexp"
	"strconv"

	"github.com/aarkue/OCPQ/binding"
)

// varRefPattern matches the program-visible variable identifiers e<k>/o<k>
// (1-based). CEL's own parser can report referenced identifiers only after
// a fully-checked (type-declared) compile, which our fully-dynamic
// environment deliberately skips (see Evaluator.compile) so that a program
// string compiles once regardless of which binding variables happen to be
// in scope at a given call site. ReferencedVariables is therefore a direct
// lexical scan rather than a walk of the CEL AST; it is computed once per
// unique program string and cached alongside the compiled program, so the
// planner never re-scans on every call.
var varRefPattern = regexp.MustCompile(`\b([eo])([1-9][0-9]*)\b`)

// ReferencedVariables returns the set of binding Variables a program
// mentions by name, used by the planner to determine which variables a
// BasicExpr/AdvancedExpr filter depends on without needing a fully-checked
// CEL compile.
func (e *Evaluator) ReferencedVariables(program string) ([]binding.Variable, error) {
	cp, err := e.compile(program)
	if err != nil {
		return nil, err
	}
	return decodeRefs(cp.refs), nil
}

func scanRefs(program string) []string {
	matches := varRefPattern.FindAllStringSubmatch(program, -1)
	seen := make(map[string]bool, len(matches))
	var out []string
	for _, m := range matches {
		if !seen[m[0]] {
			seen[m[0]] = true
			out = append(out, m[0])
		}
	}
	return out
}

func decodeRefs(refs []string) []binding.Variable {
	out := make([]binding.Variable, 0, len(refs))
	for _, r := range refs {
		n, err := strconv.Atoi(r[1:])
		if err != nil {
			continue
		}
		if r[0] == 'e' {
			out = append(out, binding.Ev(binding.EventVariable(n-1)))
		} else {
			out = append(out, binding.Ob(binding.ObjectVariable(n-1)))
		}
	}
	return out
}
