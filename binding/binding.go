package binding

import (
	"sort"
	"strings"

	"github.com/aarkue/OCPQ/ocel"
)

// LabelValue is the same tagged union as ocel.AttributeValue, plus the
// ordered comparison that union already carries, per the data model.
type LabelValue = ocel.AttributeValue

type eventEntry struct {
	Var EventVariable
	Idx ocel.EventIndex
}

type objectEntry struct {
	Var ObjectVariable
	Idx ocel.ObjectIndex
}

type labelEntry struct {
	Name  string
	Value LabelValue
}

// Binding is three sorted sparse sequences: event-var -> EventIndex,
// object-var -> ObjectIndex, label-name -> LabelValue. It is a value type:
// With* operations return a new Binding, never mutate the receiver, so
// clones shared across parallel expansion branches never alias.
type Binding struct {
	events  []eventEntry
	objects []objectEntry
	labels  []labelEntry
}

// Empty returns a Binding with no variables bound.
func Empty() Binding { return Binding{} }

// WithEvent returns a copy of b with var bound to idx, inserted or
// overwritten at its sorted position.
func (b Binding) WithEvent(v EventVariable, idx ocel.EventIndex) Binding {
	b.events = insertEvent(b.events, v, idx)
	return b
}

// WithObject returns a copy of b with var bound to idx.
func (b Binding) WithObject(v ObjectVariable, idx ocel.ObjectIndex) Binding {
	b.objects = insertObject(b.objects, v, idx)
	return b
}

// AddLabel returns a copy of b with name bound to value.
func (b Binding) AddLabel(name string, value LabelValue) Binding {
	b.labels = insertLabel(b.labels, name, value)
	return b
}

func (b Binding) GetEvent(v EventVariable) (ocel.EventIndex, bool) {
	i := sort.Search(len(b.events), func(i int) bool { return b.events[i].Var >= v })
	if i < len(b.events) && b.events[i].Var == v {
		return b.events[i].Idx, true
	}
	return 0, false
}

func (b Binding) GetObject(v ObjectVariable) (ocel.ObjectIndex, bool) {
	i := sort.Search(len(b.objects), func(i int) bool { return b.objects[i].Var >= v })
	if i < len(b.objects) && b.objects[i].Var == v {
		return b.objects[i].Idx, true
	}
	return 0, false
}

// GetAny resolves a Variable to whichever index kind it carries, returning
// either an ocel.EventIndex or an ocel.ObjectIndex.
func (b Binding) GetAny(v Variable) (interface{}, bool) {
	if v.IsEvent() {
		idx, ok := b.GetEvent(v.Event)
		return idx, ok
	}
	idx, ok := b.GetObject(v.Object)
	return idx, ok
}

func (b Binding) Label(name string) (LabelValue, bool) {
	i := sort.Search(len(b.labels), func(i int) bool { return b.labels[i].Name >= name })
	if i < len(b.labels) && b.labels[i].Name == name {
		return b.labels[i].Value, true
	}
	return LabelValue{}, false
}

// EventVars returns the bound event variables in sorted order.
func (b Binding) EventVars() []EventVariable {
	out := make([]EventVariable, len(b.events))
	for i, e := range b.events {
		out[i] = e.Var
	}
	return out
}

// ObjectVars returns the bound object variables in sorted order.
func (b Binding) ObjectVars() []ObjectVariable {
	out := make([]ObjectVariable, len(b.objects))
	for i, o := range b.objects {
		out[i] = o.Var
	}
	return out
}

// Equal reports whether two bindings carry the same event/object mappings
// (labels are excluded, matching the source's equality-for-size-filters
// semantics, which compares the variable assignment, not derived labels).
func (b Binding) Equal(o Binding) bool {
	if len(b.events) != len(o.events) || len(b.objects) != len(o.objects) {
		return false
	}
	for i := range b.events {
		if b.events[i] != o.events[i] {
			return false
		}
	}
	for i := range b.objects {
		if b.objects[i] != o.objects[i] {
			return false
		}
	}
	return true
}

// Key returns a canonical string encoding of the event/object assignment,
// suitable as a map key for set-equality size filters (BindingSetEqual).
func (b Binding) Key() string {
	var sb strings.Builder
	for _, e := range b.events {
		sb.WriteString("e")
		sb.WriteString(itoa(int(e.Var)))
		sb.WriteString(":")
		sb.WriteString(itoa(int(e.Idx)))
		sb.WriteByte(';')
	}
	for _, o := range b.objects {
		sb.WriteString("o")
		sb.WriteString(itoa(int(o.Var)))
		sb.WriteString(":")
		sb.WriteString(itoa(int(o.Idx)))
		sb.WriteByte(';')
	}
	return sb.String()
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

func insertEvent(entries []eventEntry, v EventVariable, idx ocel.EventIndex) []eventEntry {
	i := sort.Search(len(entries), func(i int) bool { return entries[i].Var >= v })
	out := make([]eventEntry, len(entries), len(entries)+1)
	copy(out, entries)
	if i < len(out) && out[i].Var == v {
		out[i].Idx = idx
		return out
	}
	out = append(out, eventEntry{})
	copy(out[i+1:], out[i:len(out)-1])
	out[i] = eventEntry{Var: v, Idx: idx}
	return out
}

func insertObject(entries []objectEntry, v ObjectVariable, idx ocel.ObjectIndex) []objectEntry {
	i := sort.Search(len(entries), func(i int) bool { return entries[i].Var >= v })
	out := make([]objectEntry, len(entries), len(entries)+1)
	copy(out, entries)
	if i < len(out) && out[i].Var == v {
		out[i].Idx = idx
		return out
	}
	out = append(out, objectEntry{})
	copy(out[i+1:], out[i:len(out)-1])
	out[i] = objectEntry{Var: v, Idx: idx}
	return out
}

func insertLabel(entries []labelEntry, name string, value LabelValue) []labelEntry {
	i := sort.Search(len(entries), func(i int) bool { return entries[i].Name >= name })
	out := make([]labelEntry, len(entries), len(entries)+1)
	copy(out, entries)
	if i < len(out) && out[i].Name == name {
		out[i].Value = value
		return out
	}
	out = append(out, labelEntry{})
	copy(out[i+1:], out[i:len(out)-1])
	out[i] = labelEntry{Name: name, Value: value}
	return out
}
