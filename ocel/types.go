package ocel

import "time"

// EventIndex and ObjectIndex are dense, non-negative integers, stable for
// the lifetime of a Log.
type EventIndex int
type ObjectIndex int

// RawRelationship is a qualified reference to another event/object by id,
// as produced by a log decoder before indices are assigned.
type RawRelationship struct {
	Qualifier string
	TargetID  string
}

// RawEvent is a decoded event, referencing objects by id.
type RawEvent struct {
	ID            string
	Type          string
	Time          time.Time
	Attributes    []Attribute
	Relationships []RawRelationship // to objects (e2o)
}

// RawObject is a decoded object, referencing other objects by id.
type RawObject struct {
	ID            string
	Type          string
	Attributes    []TimedAttribute
	Relationships []RawRelationship // to other objects (o2o)
}

// OCEL is the value a log decoder produces; the Indexed Log Store is built
// from it.
type OCEL struct {
	EventTypes  []string
	ObjectTypes []string
	Events      []RawEvent
	Objects     []RawObject
}

// MalformedLogKind distinguishes the ways a decoded OCEL can fail to build
// into a consistent Log.
type MalformedLogKind uint8

const (
	DanglingObjectID MalformedLogKind = iota
	DanglingEventID
	DuplicateEventID
	DuplicateObjectID
)

// MalformedLogError is surfaced at log-construction time only; it is never
// raised inside the evaluator itself.
type MalformedLogError struct {
	Kind MalformedLogKind
	ID   string
}

func (e *MalformedLogError) Error() string {
	switch e.Kind {
	case DanglingObjectID:
		return "malformed log: relationship references unknown object id " + e.ID
	case DanglingEventID:
		return "malformed log: relationship references unknown event id " + e.ID
	case DuplicateEventID:
		return "malformed log: duplicate event id " + e.ID
	case DuplicateObjectID:
		return "malformed log: duplicate object id " + e.ID
	default:
		return "malformed log"
	}
}

// Event is a built, indexed event.
type Event struct {
	ID         string
	Type       string
	Time       time.Time
	Attributes []Attribute
}

// Object is a built, indexed object.
type Object struct {
	ID         string
	Type       string
	Attributes []TimedAttribute
}

// ObjRef pairs a qualifier with a target ObjectIndex.
type ObjRef struct {
	Qualifier string
	Object    ObjectIndex
}

// EvRef pairs a qualifier with a target EventIndex.
type EvRef struct {
	Qualifier string
	Event     EventIndex
}
