package ocel

import (
	"fmt"
	"time"
)

// AttrKind tags the variant held by an AttributeValue.
type AttrKind uint8

const (
	KindNull AttrKind = iota
	KindFloat
	KindInt
	KindString
	KindBool
	KindTime
)

// AttributeValue is the tagged union of {float, integer, string, boolean,
// timestamp, null} described in the data model. It is a plain comparable
// struct (not interface{}) so it can be used directly as a Go map key for
// set-equality size filters, and so it carries its own total order.
type AttributeValue struct {
	Kind  AttrKind
	Float float64
	Int   int64
	Str   string
	Bool  bool
	Time  time.Time
}

func Null() AttributeValue                  { return AttributeValue{Kind: KindNull} }
func FloatValue(f float64) AttributeValue   { return AttributeValue{Kind: KindFloat, Float: f} }
func IntValue(i int64) AttributeValue       { return AttributeValue{Kind: KindInt, Int: i} }
func StringValue(s string) AttributeValue   { return AttributeValue{Kind: KindString, Str: s} }
func BoolValue(b bool) AttributeValue       { return AttributeValue{Kind: KindBool, Bool: b} }
func TimeValue(t time.Time) AttributeValue  { return AttributeValue{Kind: KindTime, Time: t} }

// IsNull reports whether the value is the null variant.
func (v AttributeValue) IsNull() bool { return v.Kind == KindNull }

// AsFloat returns the value as a float64, promoting KindInt, for use by
// ValueFilter's float/integer cross-matching.
func (v AttributeValue) AsFloat() (float64, bool) {
	switch v.Kind {
	case KindFloat:
		return v.Float, true
	case KindInt:
		return float64(v.Int), true
	default:
		return 0, false
	}
}

// Compare gives a total order over AttributeValue: Null < numeric (Int and
// Float compared by value, cross-promoted) < String < Bool < Time. Values
// of incomparable kinds order by kind rank (the AttrKind constant order). Grounded on datalog/compare.go's
// CompareValues dispatch, generalized to this domain's tagged union.
func (v AttributeValue) Compare(other AttributeValue) int {
	if vf, ok := v.AsFloat(); ok {
		if of, ok := other.AsFloat(); ok {
			switch {
			case vf < of:
				return -1
			case vf > of:
				return 1
			default:
				return 0
			}
		}
	}
	if v.Kind != other.Kind {
		return int(v.Kind) - int(other.Kind)
	}
	switch v.Kind {
	case KindNull:
		return 0
	case KindBool:
		if v.Bool == other.Bool {
			return 0
		}
		if !v.Bool {
			return -1
		}
		return 1
	case KindString:
		switch {
		case v.Str < other.Str:
			return -1
		case v.Str > other.Str:
			return 1
		default:
			return 0
		}
	case KindTime:
		switch {
		case v.Time.Before(other.Time):
			return -1
		case v.Time.After(other.Time):
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}

func (v AttributeValue) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindString:
		return v.Str
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindTime:
		return v.Time.Format(time.RFC3339)
	default:
		return "?"
	}
}

// Attribute is a single (name, value) pair on an event, in declaration order.
type Attribute struct {
	Name  string
	Value AttributeValue
}

// TimedAttribute is a single (name, value, valid-from) triple on an object.
type TimedAttribute struct {
	Name      string
	Value     AttributeValue
	ValidFrom time.Time
}
