package expand

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aarkue/OCPQ/binding"
	"github.com/aarkue/OCPQ/box"
	"github.com/aarkue/OCPQ/expr"
	"github.com/aarkue/OCPQ/internal/parallel"
	"github.com/aarkue/OCPQ/ocel"
)

func expandTestLog(t *testing.T) *ocel.Log {
	t.Helper()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	raw := &ocel.OCEL{
		EventTypes:  []string{"place order", "ship"},
		ObjectTypes: []string{"order"},
		Events: []ocel.RawEvent{
			{ID: "e1", Type: "place order", Time: t0, Relationships: []ocel.RawRelationship{{Qualifier: "involves", TargetID: "o1"}}},
			{ID: "e2", Type: "place order", Time: t0.Add(time.Minute), Relationships: []ocel.RawRelationship{{Qualifier: "involves", TargetID: "o2"}}},
			{ID: "e3", Type: "ship", Time: t0.Add(time.Hour)},
		},
		Objects: []ocel.RawObject{
			{ID: "o1", Type: "order"},
			{ID: "o2", Type: "order"},
		},
	}
	log, err := ocel.BuildLog(raw)
	require.NoError(t, err)
	return log
}

func TestExpandFreeEventScan(t *testing.T) {
	log := expandTestLog(t)
	ev, err := expr.NewEvaluator(log, expr.NewCache())
	require.NoError(t, err)
	pool := parallel.New(1)

	bx := &box.BindingBox{
		NewEventVars: []box.NewEventVar{{Var: 0, Types: []string{"place order"}}},
	}

	results, skipped, err := Expand(bx, binding.Empty(), log, ev, pool, 0)
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.Len(t, results, 2, "only the two 'place order' events match")
}

func TestExpandRelationalBindFromEventFiltersByObjectType(t *testing.T) {
	log := expandTestLogWithMixedRelationships(t)
	ev, err := expr.NewEvaluator(log, expr.NewCache())
	require.NoError(t, err)
	pool := parallel.New(1)

	bx := &box.BindingBox{
		NewEventVars:  []box.NewEventVar{{Var: 0, Types: []string{"place order"}}},
		NewObjectVars: []box.NewObjectVar{{Var: 0, Types: []string{"order"}}},
		Filters:       []box.Filter{box.O2E{EventVar: 0, ObjectVar: 0}},
	}

	results, skipped, err := Expand(bx, binding.Empty(), log, ev, pool, 0)
	require.NoError(t, err)
	assert.False(t, skipped)
	require.Len(t, results, 1, "the event's 'customer' relationship must not bind o0, which is restricted to type order")
	oi, _ := results[0].GetObject(binding.ObjectVariable(0))
	assert.Equal(t, log.Object(oi).Type, "order")
}

func expandTestLogWithMixedRelationships(t *testing.T) *ocel.Log {
	t.Helper()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	raw := &ocel.OCEL{
		EventTypes:  []string{"place order"},
		ObjectTypes: []string{"order", "customer"},
		Events: []ocel.RawEvent{
			{ID: "e1", Type: "place order", Time: t0, Relationships: []ocel.RawRelationship{
				{Qualifier: "involves", TargetID: "o1"},
				{Qualifier: "placed by", TargetID: "c1"},
			}},
		},
		Objects: []ocel.RawObject{
			{ID: "o1", Type: "order"},
			{ID: "c1", Type: "customer"},
		},
	}
	log, err := ocel.BuildLog(raw)
	require.NoError(t, err)
	return log
}

func TestExpandRelationalBindFromEvent(t *testing.T) {
	log := expandTestLog(t)
	ev, err := expr.NewEvaluator(log, expr.NewCache())
	require.NoError(t, err)
	pool := parallel.New(1)

	bx := &box.BindingBox{
		NewEventVars:  []box.NewEventVar{{Var: 0, Types: []string{"place order"}}},
		NewObjectVars: []box.NewObjectVar{{Var: 0}},
		Filters:       []box.Filter{box.O2E{EventVar: 0, ObjectVar: 0}},
	}

	results, skipped, err := Expand(bx, binding.Empty(), log, ev, pool, 0)
	require.NoError(t, err)
	assert.False(t, skipped)
	require.Len(t, results, 2)
	for _, b := range results {
		ei, _ := b.GetEvent(binding.EventVariable(0))
		oi, _ := b.GetObject(binding.ObjectVariable(0))
		refs := log.E2O(ei)
		require.Len(t, refs, 1)
		assert.Equal(t, refs[0].Object, oi)
	}
}

func TestExpandTimeWindowBindKeepsOnlyPairsWithinBounds(t *testing.T) {
	log := expandTestLog(t)
	ev, err := expr.NewEvaluator(log, expr.NewCache())
	require.NoError(t, err)
	pool := parallel.New(1)

	min := 30.0
	bx := &box.BindingBox{
		NewEventVars: []box.NewEventVar{{Var: 0, Types: []string{"place order"}}, {Var: 1, Types: []string{"ship"}}},
		Filters:      []box.Filter{box.TimeBetweenEvents{From: 0, To: 1, MinSeconds: &min}},
	}

	results, skipped, err := Expand(bx, binding.Empty(), log, ev, pool, 0)
	require.NoError(t, err)
	assert.False(t, skipped)

	for _, b := range results {
		e0, _ := b.GetEvent(binding.EventVariable(0))
		e1, _ := b.GetEvent(binding.EventVariable(1))
		d := log.Event(e1).Time.Sub(log.Event(e0).Time).Seconds()
		assert.True(t, d >= 30.0)
	}
	// e1 (t0) -> e3 (t0+1h=3600s) qualifies; e2 (t0+60s) -> e3 (3540s) also qualifies.
	assert.Len(t, results, 2)
}

func TestExpandMaxBindingsTruncatesAndSkips(t *testing.T) {
	log := expandTestLog(t)
	ev, err := expr.NewEvaluator(log, expr.NewCache())
	require.NoError(t, err)
	pool := parallel.New(1)

	bx := &box.BindingBox{
		NewEventVars: []box.NewEventVar{{Var: 0}},
	}

	results, skipped, err := Expand(bx, binding.Empty(), log, ev, pool, 1)
	require.NoError(t, err)
	assert.True(t, skipped)
	assert.Len(t, results, 1)
}
