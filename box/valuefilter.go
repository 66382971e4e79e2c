package box

import (
	"time"

	"github.com/aarkue/OCPQ/ocel"
)

// ValueFilter is the per-kind value predicate used by EventAttrValue and
// ObjectAttrValue (§4.4). Float and Integer cross-promote against each
// other, matching AttributeValue.AsFloat's cross-promotion.
type ValueFilter interface {
	Match(v ocel.AttributeValue) bool
}

// FloatFilter matches numeric values within [Min, Max] (either bound may be
// nil, meaning unbounded on that side).
type FloatFilter struct {
	Min, Max *float64
}

func (f FloatFilter) Match(v ocel.AttributeValue) bool {
	n, ok := v.AsFloat()
	if !ok {
		return false
	}
	if f.Min != nil && n < *f.Min {
		return false
	}
	if f.Max != nil && n > *f.Max {
		return false
	}
	return true
}

// IntegerFilter matches numeric values within [Min, Max], comparing at
// float precision so an Int value and a Float value can both satisfy it.
type IntegerFilter struct {
	Min, Max *int64
}

func (f IntegerFilter) Match(v ocel.AttributeValue) bool {
	n, ok := v.AsFloat()
	if !ok {
		return false
	}
	if f.Min != nil && n < float64(*f.Min) {
		return false
	}
	if f.Max != nil && n > float64(*f.Max) {
		return false
	}
	return true
}

// BooleanFilter matches KindBool values equal to IsTrue.
type BooleanFilter struct {
	IsTrue bool
}

func (f BooleanFilter) Match(v ocel.AttributeValue) bool {
	return v.Kind == ocel.KindBool && v.Bool == f.IsTrue
}

// StringFilter matches KindString values contained in IsIn.
type StringFilter struct {
	IsIn []string
}

func (f StringFilter) Match(v ocel.AttributeValue) bool {
	if v.Kind != ocel.KindString {
		return false
	}
	for _, s := range f.IsIn {
		if s == v.Str {
			return true
		}
	}
	return false
}

// TimeFilter matches KindTime values within [From, To].
type TimeFilter struct {
	From, To *time.Time
}

func (f TimeFilter) Match(v ocel.AttributeValue) bool {
	if v.Kind != ocel.KindTime {
		return false
	}
	if f.From != nil && v.Time.Before(*f.From) {
		return false
	}
	if f.To != nil && v.Time.After(*f.To) {
		return false
	}
	return true
}
