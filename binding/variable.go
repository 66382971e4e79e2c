// Package binding implements the Binding value type (C2): a sorted sparse
// mapping from query variables to event/object indices plus labels.
package binding

import "fmt"

// EventVariable and ObjectVariable are small integers drawn from
// independent per-query namespaces (events and objects never collide).
type EventVariable int
type ObjectVariable int

func (v EventVariable) String() string  { return fmt.Sprintf("e%d", int(v)+1) }
func (v ObjectVariable) String() string { return fmt.Sprintf("o%d", int(v)+1) }

// VarKind tags which half of the Variable union is populated.
type VarKind uint8

const (
	KindEvent VarKind = iota
	KindObject
)

// Variable is the tagged union Event(v) | Object(v).
type Variable struct {
	Kind   VarKind
	Event  EventVariable
	Object ObjectVariable
}

func Ev(v EventVariable) Variable  { return Variable{Kind: KindEvent, Event: v} }
func Ob(v ObjectVariable) Variable { return Variable{Kind: KindObject, Object: v} }

func (v Variable) IsEvent() bool  { return v.Kind == KindEvent }
func (v Variable) IsObject() bool { return v.Kind == KindObject }

func (v Variable) String() string {
	if v.IsEvent() {
		return v.Event.String()
	}
	return v.Object.String()
}

func (v Variable) Equal(o Variable) bool {
	return v.Kind == o.Kind && v.Event == o.Event && v.Object == o.Object
}
