package ocpq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aarkue/OCPQ/binding"
	"github.com/aarkue/OCPQ/box"
	"github.com/aarkue/OCPQ/ocel"
)

// orderLog models two orders: o1 is placed then shipped within an hour, o2
// is placed but never shipped.
func orderLog(t *testing.T) *ocel.Log {
	t.Helper()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	raw := &ocel.OCEL{
		EventTypes:  []string{"place order", "ship order"},
		ObjectTypes: []string{"order"},
		Events: []ocel.RawEvent{
			{ID: "e1", Type: "place order", Time: t0, Relationships: []ocel.RawRelationship{{Qualifier: "involves", TargetID: "o1"}}},
			{ID: "e2", Type: "ship order", Time: t0.Add(30 * time.Minute), Relationships: []ocel.RawRelationship{{Qualifier: "involves", TargetID: "o1"}}},
			{ID: "e3", Type: "place order", Time: t0.Add(time.Hour), Relationships: []ocel.RawRelationship{{Qualifier: "involves", TargetID: "o2"}}},
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

// shippedWithinHourTree binds a "place order" event, an "involves" object,
// and a "ship order" event of the same object within an hour of placement.
// The root keeps only placements that have at least one such shipment.
func shippedWithinHourTree() *box.Tree {
	max := 3600.0
	one := 1
	return &box.Tree{
		Root: 0,
		Nodes: []box.Node{
			{Kind: box.NodeBox, Box: &box.BindingBox{
				NewEventVars:  []box.NewEventVar{{Var: 0, Types: []string{"place order"}}},
				NewObjectVars: []box.NewObjectVar{{Var: 0}},
				Filters: []box.Filter{
					box.O2E{EventVar: 0, ObjectVar: 0},
				},
				SizeFilters: []box.SizeFilter{box.NumChilds{Name: "ship", Min: &one}},
			}, Children: []box.Edge{{Child: 1, Name: "ship"}}},
			{Kind: box.NodeBox, Box: &box.BindingBox{
				NewEventVars: []box.NewEventVar{{Var: 1, Types: []string{"ship order"}}},
				Filters: []box.Filter{
					box.O2E{EventVar: 1, ObjectVar: 0},
					box.TimeBetweenEvents{From: 0, To: 1, MaxSeconds: &max},
				},
			}},
		},
	}
}

func TestEvaluateCountsOrdersShippedWithinHour(t *testing.T) {
	log := orderLog(t)
	tree := shippedWithinHourTree()

	res, err := Evaluate(tree, log, DefaultOptions())
	require.NoError(t, err)

	// o1's "place order" (e1) matches the child node exactly once (e2).
	assert.Equal(t, 1, res.Nodes[0].SituationCount)
	assert.Equal(t, 1, res.Nodes[1].SituationCount)
	assert.ElementsMatch(t, []string{"e1", "e2"}, res.EventIDs)
	assert.ElementsMatch(t, []string{"o1"}, res.ObjectIDs)
}

func TestEvaluateMeasuredRunsRequestedTimesAndReturnsSameResult(t *testing.T) {
	log := orderLog(t)
	tree := shippedWithinHourTree()

	res, timings, err := EvaluateMeasured(tree, log, DefaultOptions(), 3)
	require.NoError(t, err)
	assert.Len(t, timings, 3)
	assert.Equal(t, 1, res.Nodes[0].SituationCount)
}

func TestEvaluateMeasuredDefaultsToOneRun(t *testing.T) {
	log := orderLog(t)
	tree := shippedWithinHourTree()

	_, timings, err := EvaluateMeasured(tree, log, DefaultOptions(), 0)
	require.NoError(t, err)
	assert.Len(t, timings, 1)
}

func TestFilterLogKeepsEntireLogWhenNothingIsIncluded(t *testing.T) {
	log := orderLog(t)
	tree := shippedWithinHourTree()

	out, err := FilterLog(tree, log, DefaultOptions())
	require.NoError(t, err)

	// No variable anywhere is marked Included, so the default applies to the
	// whole log, not just ids that happened to appear in a satisfied binding:
	// e3/o2 (never bound together within the hour) still survive.
	assert.ElementsMatch(t, []string{"e1", "e2", "e3"}, eventIDs(out))
	assert.ElementsMatch(t, []string{"o1", "o2"}, objectIDs(out))
}

func TestFilterLogIncludedLabelRestrictsToMarkedVariablesOfEveryKind(t *testing.T) {
	log := orderLog(t)
	tree := shippedWithinHourTree()
	// Mark only the "ship order" event as Included. Whether any variable
	// anywhere is Included is a single tree-wide flag, not tracked
	// separately per kind, so object defaulting turns off too even though
	// no object var is marked.
	tree.Nodes[1].Box.EventVarLabels = map[binding.EventVariable]box.FilterLabel{1: box.Included}

	out, err := FilterLog(tree, log, DefaultOptions())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"e2"}, eventIDs(out))
	assert.Empty(t, objectIDs(out), "no object var is marked Included, and the default-all fallback is off")
}

func TestFilterLogExcludedLabelAlwaysDropsAgainstDefaultAll(t *testing.T) {
	log := orderLog(t)
	tree := shippedWithinHourTree()
	tree.Nodes[0].Box.ObjectVarLabels = map[binding.ObjectVariable]box.FilterLabel{0: box.Excluded}

	out, err := FilterLog(tree, log, DefaultOptions())
	require.NoError(t, err)

	// Excluded always drops, even against the keep-everything default;
	// o2 was never bound by this tree at all, and survives under the same
	// default as o1 would have, minus the explicit exclusion.
	assert.ElementsMatch(t, []string{"o2"}, objectIDs(out))
	assert.ElementsMatch(t, []string{"e1", "e2", "e3"}, eventIDs(out))
}

func TestFilterLogDropsRelationshipsToExcludedObjects(t *testing.T) {
	log := orderLog(t)
	tree := shippedWithinHourTree()
	tree.Nodes[0].Box.ObjectVarLabels = map[binding.ObjectVariable]box.FilterLabel{0: box.Excluded}

	out, err := FilterLog(tree, log, DefaultOptions())
	require.NoError(t, err)

	for _, e := range out.Events {
		for _, rel := range e.Relationships {
			assert.NotEqual(t, "o1", rel.TargetID, "relationships to an excluded object must not survive")
		}
	}
}

func TestFilterLogRelationLabelExcludesOnlyMatchedRelationships(t *testing.T) {
	log := orderLog(t)
	tree := &box.Tree{
		Root: 0,
		Nodes: []box.Node{
			{Kind: box.NodeBox, Box: &box.BindingBox{
				NewEventVars:  []box.NewEventVar{{Var: 0, Types: []string{"place order"}}},
				NewObjectVars: []box.NewObjectVar{{Var: 0}},
				Filters:       []box.Filter{box.O2E{EventVar: 0, ObjectVar: 0, Label: box.Excluded}},
			}},
		},
	}

	out, err := FilterLog(tree, log, DefaultOptions())
	require.NoError(t, err)

	// Every event and object still survives (no var-level labels at all),
	// but the "place order" -> object relationships the query actually
	// bound and matched through the Excluded-labeled filter are gone.
	assert.ElementsMatch(t, []string{"e1", "e2", "e3"}, eventIDs(out))
	assert.ElementsMatch(t, []string{"o1", "o2"}, objectIDs(out))

	for _, e := range out.Events {
		if e.ID == "e1" || e.ID == "e3" {
			assert.Empty(t, e.Relationships, "the place-order -> order relationship was matched by an Excluded-labeled filter")
		}
	}
	e2 := findEvent(out, "e2")
	require.NotNil(t, e2)
	assert.Len(t, e2.Relationships, 1, "e2 was never bound by this tree, so its relationship is untouched")
}

func findEvent(raw *ocel.OCEL, id string) *ocel.RawEvent {
	for i := range raw.Events {
		if raw.Events[i].ID == id {
			return &raw.Events[i]
		}
	}
	return nil
}

func TestDefaultOptionsMatchesSpecifiedDefaults(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 10_000_000, opts.MaxBindings)
	assert.Equal(t, 25_000_000, opts.TreeSafetyProduct)
	assert.Nil(t, opts.Trace)
}

func eventIDs(raw *ocel.OCEL) []string {
	ids := make([]string, len(raw.Events))
	for i, e := range raw.Events {
		ids[i] = e.ID
	}
	return ids
}

func objectIDs(raw *ocel.OCEL) []string {
	ids := make([]string, len(raw.Objects))
	for i, o := range raw.Objects {
		ids[i] = o.ID
	}
	return ids
}
