package ocel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseTime() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

func sampleRaw() *OCEL {
	t0 := baseTime()
	return &OCEL{
		EventTypes:  []string{"place order", "ship"},
		ObjectTypes: []string{"order", "item"},
		Events: []RawEvent{
			{
				ID: "e2", Type: "ship", Time: t0.Add(time.Hour),
				Relationships: []RawRelationship{{Qualifier: "involves", TargetID: "o1"}},
			},
			{
				ID: "e1", Type: "place order", Time: t0,
				Relationships: []RawRelationship{
					{Qualifier: "involves", TargetID: "o1"},
					{Qualifier: "involves", TargetID: "o2"},
				},
			},
		},
		Objects: []RawObject{
			{ID: "o1", Type: "order"},
			{ID: "o2", Type: "item", Relationships: []RawRelationship{{Qualifier: "part of", TargetID: "o1"}}},
		},
	}
}

func TestBuildLogSortsEventsByTime(t *testing.T) {
	log, err := BuildLog(sampleRaw())
	require.NoError(t, err)

	require.Equal(t, 2, log.NumEvents())
	assert.Equal(t, "e1", log.Event(0).ID)
	assert.Equal(t, "e2", log.Event(1).ID)
}

func TestBuildLogIndicesAndTypes(t *testing.T) {
	log, err := BuildLog(sampleRaw())
	require.NoError(t, err)

	idx, ok := log.EventIndexByID("e2")
	require.True(t, ok)
	assert.Equal(t, EventIndex(1), idx)

	oidx, ok := log.ObjectIndexByID("o2")
	require.True(t, ok)
	assert.Equal(t, ObjectIndex(1), oidx)

	_, ok = log.EventIndexByID("missing")
	assert.False(t, ok)

	assert.ElementsMatch(t, []EventIndex{0}, log.EventsOfType("place order"))
	assert.ElementsMatch(t, []ObjectIndex{1}, log.ObjectsOfType("item"))
}

func TestBuildLogE2OAdjacency(t *testing.T) {
	log, err := BuildLog(sampleRaw())
	require.NoError(t, err)

	o1, _ := log.ObjectIndexByID("o1")
	e1, _ := log.EventIndexByID("e1")
	e2, _ := log.EventIndexByID("e2")

	refs := log.E2O(e1)
	require.Len(t, refs, 2)

	rev := log.E2ORev(o1)
	require.Len(t, rev, 2)
	assert.Equal(t, e1, rev[0].Event)
	assert.Equal(t, e2, rev[1].Event)
}

func TestBuildLogO2OAdjacency(t *testing.T) {
	log, err := BuildLog(sampleRaw())
	require.NoError(t, err)

	o1, _ := log.ObjectIndexByID("o1")
	o2, _ := log.ObjectIndexByID("o2")

	fwd := log.O2O(o2)
	require.Len(t, fwd, 1)
	assert.Equal(t, o1, fwd[0].Object)

	rev := log.O2ORev(o1)
	require.Len(t, rev, 1)
	assert.Equal(t, o2, rev[0].Object)
}

func TestBuildLogDanglingReferenceIsMalformed(t *testing.T) {
	raw := sampleRaw()
	raw.Events[0].Relationships = append(raw.Events[0].Relationships, RawRelationship{Qualifier: "x", TargetID: "ghost"})

	_, err := BuildLog(raw)
	require.Error(t, err)
	var malformed *MalformedLogError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, DanglingObjectID, malformed.Kind)
}

func TestBuildLogDuplicateEventIDIsMalformed(t *testing.T) {
	raw := sampleRaw()
	raw.Events = append(raw.Events, RawEvent{ID: "e1", Type: "place order", Time: baseTime()})

	_, err := BuildLog(raw)
	require.Error(t, err)
	var malformed *MalformedLogError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, DuplicateEventID, malformed.Kind)
}

func TestBuildLogE2OOfTypeSelectsOnlyThatType(t *testing.T) {
	log, err := BuildLog(sampleRaw())
	require.NoError(t, err)

	e1, _ := log.EventIndexByID("e1")
	refs := log.E2OOfType(e1, "order")
	require.Len(t, refs, 1)
}

func TestLogEventAndObjectIDs(t *testing.T) {
	log, err := BuildLog(sampleRaw())
	require.NoError(t, err)

	assert.Equal(t, []string{"e1", "e2"}, log.EventIDs())
	assert.ElementsMatch(t, []string{"o1", "o2"}, log.ObjectIDs())
}
