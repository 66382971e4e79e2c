package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aarkue/OCPQ/binding"
)

func TestReferencedVariables(t *testing.T) {
	ev := newTestEvaluator(t)

	vars, err := ev.ReferencedVariables(`attr(e1, "amount") > 0.0 && attr(o2, "x") == "y"`)
	require.NoError(t, err)

	assert.ElementsMatch(t, []binding.Variable{
		binding.Ev(binding.EventVariable(0)),
		binding.Ob(binding.ObjectVariable(1)),
	}, vars)
}

func TestReferencedVariablesDedupes(t *testing.T) {
	ev := newTestEvaluator(t)

	vars, err := ev.ReferencedVariables(`attr(e1, "a") == attr(e1, "b")`)
	require.NoError(t, err)
	assert.Len(t, vars, 1)
}

func TestReferencedVariablesNoneReferenced(t *testing.T) {
	ev := newTestEvaluator(t)

	vars, err := ev.ReferencedVariables(`1 == 1`)
	require.NoError(t, err)
	assert.Empty(t, vars)
}

func TestScanRefsIgnoresUnrelatedIdentifiers(t *testing.T) {
	refs := scanRefs(`events().size() > 0 && e1 == e2`)
	assert.ElementsMatch(t, []string{"e1", "e2"}, refs)
}
