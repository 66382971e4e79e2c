package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aarkue/OCPQ/ocel"
)

func TestBindingWithEventIsImmutable(t *testing.T) {
	b0 := Empty()
	b1 := b0.WithEvent(EventVariable(0), ocel.EventIndex(5))

	_, ok := b0.GetEvent(EventVariable(0))
	assert.False(t, ok, "original binding must not be mutated")

	idx, ok := b1.GetEvent(EventVariable(0))
	require.True(t, ok)
	assert.Equal(t, ocel.EventIndex(5), idx)
}

func TestBindingWithObjectOverwrite(t *testing.T) {
	b := Empty().WithObject(ObjectVariable(0), ocel.ObjectIndex(1))
	b2 := b.WithObject(ObjectVariable(0), ocel.ObjectIndex(2))

	idx, ok := b2.GetObject(ObjectVariable(0))
	require.True(t, ok)
	assert.Equal(t, ocel.ObjectIndex(2), idx)

	idx, ok = b.GetObject(ObjectVariable(0))
	require.True(t, ok)
	assert.Equal(t, ocel.ObjectIndex(1), idx, "earlier clone keeps its own value")
}

func TestBindingInsertionOrderIndependence(t *testing.T) {
	a := Empty().
		WithEvent(EventVariable(2), ocel.EventIndex(20)).
		WithEvent(EventVariable(0), ocel.EventIndex(0)).
		WithEvent(EventVariable(1), ocel.EventIndex(10))

	assert.Equal(t, []EventVariable{0, 1, 2}, a.EventVars())
}

func TestBindingGetAny(t *testing.T) {
	b := Empty().
		WithEvent(EventVariable(0), ocel.EventIndex(3)).
		WithObject(ObjectVariable(0), ocel.ObjectIndex(4))

	v, ok := b.GetAny(Ev(EventVariable(0)))
	require.True(t, ok)
	assert.Equal(t, ocel.EventIndex(3), v)

	v, ok = b.GetAny(Ob(ObjectVariable(0)))
	require.True(t, ok)
	assert.Equal(t, ocel.ObjectIndex(4), v)

	_, ok = b.GetAny(Ev(EventVariable(1)))
	assert.False(t, ok)
}

func TestBindingLabels(t *testing.T) {
	b := Empty().AddLabel("total", ocel.FloatValue(42))

	v, ok := b.Label("total")
	require.True(t, ok)
	assert.Equal(t, ocel.FloatValue(42), v)

	_, ok = b.Label("missing")
	assert.False(t, ok)
}

func TestBindingEqualIgnoresLabels(t *testing.T) {
	a := Empty().WithEvent(EventVariable(0), ocel.EventIndex(1)).AddLabel("x", ocel.IntValue(1))
	b := Empty().WithEvent(EventVariable(0), ocel.EventIndex(1)).AddLabel("x", ocel.IntValue(2))

	assert.True(t, a.Equal(b))

	c := Empty().WithEvent(EventVariable(0), ocel.EventIndex(2))
	assert.False(t, a.Equal(c))
}

func TestBindingKeyIsOrderIndependent(t *testing.T) {
	a := Empty().
		WithEvent(EventVariable(0), ocel.EventIndex(1)).
		WithObject(ObjectVariable(0), ocel.ObjectIndex(2))
	b := Empty().
		WithObject(ObjectVariable(0), ocel.ObjectIndex(2)).
		WithEvent(EventVariable(0), ocel.EventIndex(1))

	assert.Equal(t, a.Key(), b.Key())

	c := Empty().WithEvent(EventVariable(0), ocel.EventIndex(9))
	assert.NotEqual(t, a.Key(), c.Key())
}
