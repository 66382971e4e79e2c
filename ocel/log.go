package ocel

import "sort"

// Log is the Indexed Log Store (C1): an in-memory, immutable, read-only
// structure built once from a decoded OCEL, offering O(1) neighbourhood
// lookups in every direction the component design requires. It is shared by
// reference across every evaluation of every query against it.
type Log struct {
	events  []Event
	objects []Object

	eventIDIndex  map[string]EventIndex
	objectIDIndex map[string]ObjectIndex

	eventsOfType  map[string][]EventIndex
	objectsOfType map[string][]ObjectIndex

	e2o       [][]ObjRef            // per event, original relationship order
	e2oOfType []map[string][]ObjRef // per event, grouped by target object type

	e2oRev       [][]EvRef            // per object: events referencing it, time order
	e2oRevOfType []map[string][]EvRef // per object, grouped by referencing event type

	o2o       [][]ObjRef            // per object, forward
	o2oOfType []map[string][]ObjRef

	o2oRev       [][]ObjRef // per object, reverse
	o2oRevOfType []map[string][]ObjRef
}

// BuildLog sorts events by time, assigns dense indices, and populates every
// adjacency table the store contract promises. Malformed input (dangling
// ids, duplicate ids) is reported here and only here; a Log is never
// constructed over inconsistent input.
func BuildLog(raw *OCEL) (*Log, error) {
	sortedEvents := make([]RawEvent, len(raw.Events))
	copy(sortedEvents, raw.Events)
	sort.SliceStable(sortedEvents, func(i, j int) bool {
		return sortedEvents[i].Time.Before(sortedEvents[j].Time)
	})

	l := &Log{
		eventIDIndex:  make(map[string]EventIndex, len(sortedEvents)),
		objectIDIndex: make(map[string]ObjectIndex, len(raw.Objects)),
		eventsOfType:  make(map[string][]EventIndex),
		objectsOfType: make(map[string][]ObjectIndex),
	}

	l.events = make([]Event, len(sortedEvents))
	for i, re := range sortedEvents {
		if _, dup := l.eventIDIndex[re.ID]; dup {
			return nil, &MalformedLogError{Kind: DuplicateEventID, ID: re.ID}
		}
		idx := EventIndex(i)
		l.eventIDIndex[re.ID] = idx
		l.events[i] = Event{ID: re.ID, Type: re.Type, Time: re.Time, Attributes: re.Attributes}
		l.eventsOfType[re.Type] = append(l.eventsOfType[re.Type], idx)
	}

	l.objects = make([]Object, len(raw.Objects))
	for i, ro := range raw.Objects {
		if _, dup := l.objectIDIndex[ro.ID]; dup {
			return nil, &MalformedLogError{Kind: DuplicateObjectID, ID: ro.ID}
		}
		idx := ObjectIndex(i)
		l.objectIDIndex[ro.ID] = idx
		l.objects[i] = Object{ID: ro.ID, Type: ro.Type, Attributes: ro.Attributes}
		l.objectsOfType[ro.Type] = append(l.objectsOfType[ro.Type], idx)
	}

	l.e2o = make([][]ObjRef, len(l.events))
	l.e2oOfType = make([]map[string][]ObjRef, len(l.events))
	l.e2oRev = make([][]EvRef, len(l.objects))
	l.e2oRevOfType = make([]map[string][]EvRef, len(l.objects))

	for i, re := range sortedEvents {
		ei := EventIndex(i)
		l.e2oOfType[i] = make(map[string][]ObjRef)
		for _, rel := range re.Relationships {
			oi, ok := l.objectIDIndex[rel.TargetID]
			if !ok {
				return nil, &MalformedLogError{Kind: DanglingObjectID, ID: rel.TargetID}
			}
			ref := ObjRef{Qualifier: rel.Qualifier, Object: oi}
			l.e2o[i] = append(l.e2o[i], ref)
			ot := l.objects[oi].Type
			l.e2oOfType[i][ot] = append(l.e2oOfType[i][ot], ref)

			if l.e2oRevOfType[oi] == nil {
				l.e2oRevOfType[oi] = make(map[string][]EvRef)
			}
			evRef := EvRef{Qualifier: rel.Qualifier, Event: ei}
			l.e2oRev[oi] = append(l.e2oRev[oi], evRef)
			l.e2oRevOfType[oi][re.Type] = append(l.e2oRevOfType[oi][re.Type], evRef)
		}
	}
	// e2oRev is accumulated per object as events are scanned in time order
	// (sortedEvents is already time-sorted), so it is naturally in
	// event-time order already; no further sort needed.
	for i := range l.e2oOfType {
		for ot := range l.e2oOfType[i] {
			sortObjRefsByIndex(l.e2oOfType[i][ot])
		}
	}

	l.o2o = make([][]ObjRef, len(l.objects))
	l.o2oOfType = make([]map[string][]ObjRef, len(l.objects))
	l.o2oRev = make([][]ObjRef, len(l.objects))
	l.o2oRevOfType = make([]map[string][]ObjRef, len(l.objects))
	for i := range l.objects {
		l.o2oOfType[i] = make(map[string][]ObjRef)
	}
	for i := range l.objects {
		if l.o2oRevOfType[i] == nil {
			l.o2oRevOfType[i] = make(map[string][]ObjRef)
		}
	}

	for i, ro := range raw.Objects {
		oi := ObjectIndex(i)
		for _, rel := range ro.Relationships {
			target, ok := l.objectIDIndex[rel.TargetID]
			if !ok {
				return nil, &MalformedLogError{Kind: DanglingObjectID, ID: rel.TargetID}
			}
			ref := ObjRef{Qualifier: rel.Qualifier, Object: target}
			l.o2o[oi] = append(l.o2o[oi], ref)
			l.o2oOfType[oi][l.objects[target].Type] = append(l.o2oOfType[oi][l.objects[target].Type], ref)

			revRef := ObjRef{Qualifier: rel.Qualifier, Object: oi}
			l.o2oRev[target] = append(l.o2oRev[target], revRef)
			l.o2oRevOfType[target][ro.Type] = append(l.o2oRevOfType[target][ro.Type], revRef)
		}
	}
	for i := range l.o2oOfType {
		for ot := range l.o2oOfType[i] {
			sortObjRefsByIndex(l.o2oOfType[i][ot])
		}
	}
	for i := range l.o2oRevOfType {
		for ot := range l.o2oRevOfType[i] {
			sortObjRefsByIndex(l.o2oRevOfType[i][ot])
		}
	}

	return l, nil
}

func sortObjRefsByIndex(refs []ObjRef) {
	sort.Slice(refs, func(i, j int) bool { return refs[i].Object < refs[j].Object })
}

func (l *Log) NumEvents() int  { return len(l.events) }
func (l *Log) NumObjects() int { return len(l.objects) }

func (l *Log) Event(i EventIndex) *Event   { return &l.events[i] }
func (l *Log) Object(i ObjectIndex) *Object { return &l.objects[i] }

func (l *Log) EventIndexByID(id string) (EventIndex, bool) {
	idx, ok := l.eventIDIndex[id]
	return idx, ok
}

func (l *Log) ObjectIndexByID(id string) (ObjectIndex, bool) {
	idx, ok := l.objectIDIndex[id]
	return idx, ok
}

// EventsOfType returns events of the given type in time order. The
// returned slice must not be mutated by callers.
func (l *Log) EventsOfType(t string) []EventIndex { return l.eventsOfType[t] }

// ObjectsOfType returns objects of the given type.
func (l *Log) ObjectsOfType(t string) []ObjectIndex { return l.objectsOfType[t] }

// E2O returns e's object references in original relationship order.
func (l *Log) E2O(e EventIndex) []ObjRef { return l.e2o[e] }

// E2OOfType returns e's references to objects of type ot, sorted by target
// index.
func (l *Log) E2OOfType(e EventIndex, ot string) []ObjRef { return l.e2oOfType[e][ot] }

// E2ORev returns events referencing o, in event-time order.
func (l *Log) E2ORev(o ObjectIndex) []EvRef { return l.e2oRev[o] }

// E2ORevOfType returns events of type et referencing o.
func (l *Log) E2ORevOfType(o ObjectIndex, et string) []EvRef { return l.e2oRevOfType[o][et] }

// O2O returns o's forward object-to-object relations.
func (l *Log) O2O(o ObjectIndex) []ObjRef { return l.o2o[o] }

// O2OOfType returns o's forward relations to objects of type ot, sorted by
// target index.
func (l *Log) O2OOfType(o ObjectIndex, ot string) []ObjRef { return l.o2oOfType[o][ot] }

// O2ORev returns o's reverse object-to-object relations (objects that point
// at o).
func (l *Log) O2ORev(o ObjectIndex) []ObjRef { return l.o2oRev[o] }

// O2ORevOfType returns reverse relations from objects of type ot.
func (l *Log) O2ORevOfType(o ObjectIndex, ot string) []ObjRef { return l.o2oRevOfType[o][ot] }

// EventIDs returns every event id, in index order (time order).
func (l *Log) EventIDs() []string {
	ids := make([]string, len(l.events))
	for i, e := range l.events {
		ids[i] = e.ID
	}
	return ids
}

// ObjectIDs returns every object id, in index order.
func (l *Log) ObjectIDs() []string {
	ids := make([]string, len(l.objects))
	for i, o := range l.objects {
		ids[i] = o.ID
	}
	return ids
}
