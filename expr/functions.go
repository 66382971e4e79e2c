package expr

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"

	"github.com/aarkue/OCPQ/ocel"
)

func encodeEvent(i ocel.EventIndex) string   { return "ev_" + strconv.Itoa(int(i)) }
func encodeObject(i ocel.ObjectIndex) string { return "ob_" + strconv.Itoa(int(i)) }

func decodeEventRef(s string) (ocel.EventIndex, bool) {
	if !strings.HasPrefix(s, "ev_") {
		return 0, false
	}
	n, err := strconv.Atoi(s[3:])
	if err != nil {
		return 0, false
	}
	return ocel.EventIndex(n), true
}

func decodeObjectRef(s string) (ocel.ObjectIndex, bool) {
	if !strings.HasPrefix(s, "ob_") {
		return 0, false
	}
	n, err := strconv.Atoi(s[3:])
	if err != nil {
		return 0, false
	}
	return ocel.ObjectIndex(n), true
}

// toCelValue converts a log attribute value into the corresponding CEL
// runtime value.
func toCelValue(v ocel.AttributeValue) ref.Val {
	switch v.Kind {
	case ocel.KindFloat:
		return types.Double(v.Float)
	case ocel.KindInt:
		return types.Int(v.Int)
	case ocel.KindString:
		return types.String(v.Str)
	case ocel.KindBool:
		return types.Bool(v.Bool)
	case ocel.KindTime:
		return types.Timestamp{Time: v.Time}
	default:
		return types.NullValue
	}
}

// fromCelValue converts a CEL runtime value back into a log attribute
// value, used by label functions whose result is stored as a binding label.
func fromCelValue(v ref.Val) ocel.AttributeValue {
	switch vv := v.(type) {
	case types.String:
		return ocel.StringValue(string(vv))
	case types.Int:
		return ocel.IntValue(int64(vv))
	case types.Double:
		return ocel.FloatValue(float64(vv))
	case types.Bool:
		return ocel.BoolValue(bool(vv))
	case types.Timestamp:
		return ocel.TimeValue(vv.Time)
	default:
		return ocel.Null()
	}
}

func numericOf(v ref.Val) (float64, bool) {
	switch vv := v.(type) {
	case types.Int:
		return float64(vv), true
	case types.Double:
		return float64(vv), true
	case types.Uint:
		return float64(vv), true
	default:
		return 0, false
	}
}

func strArg(v ref.Val) string {
	if s, ok := v.(types.String); ok {
		return string(s)
	}
	return ""
}

// functionOptions returns the custom primitive functions the embedded
// expression language exposes (§4.5), closed over this evaluator's log.
// Variables are passed to these functions as index-encoded strings
// ("ev_<n>" / "ob_<n>") rather than as a Binding reference: the value bound
// to each CEL identifier already carries the information a function needs
// to reach the log, so no side-channel evaluation context is required —
// the clean replacement for the original implementation's unsafe raw
// pointer smuggling.
func (e *Evaluator) functionOptions() []cel.EnvOption {
	return []cel.EnvOption{
		cel.Function("type",
			cel.Overload("type_ref_string", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					return types.String(e.typeOf(strArg(v)))
				}))),
		cel.Function("id",
			cel.Overload("id_ref_string", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					return types.String(e.idOf(strArg(v)))
				}))),
		cel.Function("attr",
			cel.Overload("attr_ref_string_name", []*cel.Type{cel.StringType, cel.StringType}, cel.DynType,
				cel.BinaryBinding(func(v, name ref.Val) ref.Val {
					return e.attrOf(strArg(v), strArg(name), nil)
				}))),
		cel.Function("attrAt",
			cel.Overload("attrAt_ref_string_name_time", []*cel.Type{cel.StringType, cel.StringType, cel.TimestampType}, cel.DynType,
				cel.FunctionBinding(func(args ...ref.Val) ref.Val {
					ts, ok := args[2].(types.Timestamp)
					if !ok {
						return types.NullValue
					}
					t := ts.Time
					return e.attrOf(strArg(args[0]), strArg(args[1]), &t)
				}))),
		cel.Function("attrs",
			cel.Overload("attrs_ref_string", []*cel.Type{cel.StringType}, cel.ListType(cel.DynType),
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					return e.attrsOf(strArg(v))
				}))),
		cel.Function("time",
			cel.Overload("time_ref_string", []*cel.Type{cel.StringType}, cel.TimestampType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					return e.timeOf(strArg(v))
				}))),
		cel.Function("numEvents",
			cel.Overload("numEvents_void", []*cel.Type{}, cel.IntType,
				cel.FunctionBinding(func(args ...ref.Val) ref.Val {
					return types.Int(e.log.NumEvents())
				}))),
		cel.Function("numObjects",
			cel.Overload("numObjects_void", []*cel.Type{}, cel.IntType,
				cel.FunctionBinding(func(args ...ref.Val) ref.Val {
					return types.Int(e.log.NumObjects())
				}))),
		cel.Function("events",
			cel.Overload("events_void", []*cel.Type{}, cel.ListType(cel.StringType),
				cel.FunctionBinding(func(args ...ref.Val) ref.Val {
					ids := make([]string, e.log.NumEvents())
					for i := range ids {
						ids[i] = encodeEvent(ocel.EventIndex(i))
					}
					return types.NewStringList(types.DefaultTypeAdapter, ids)
				}))),
		cel.Function("objects",
			cel.Overload("objects_void", []*cel.Type{}, cel.ListType(cel.StringType),
				cel.FunctionBinding(func(args ...ref.Val) ref.Val {
					ids := make([]string, e.log.NumObjects())
					for i := range ids {
						ids[i] = encodeObject(ocel.ObjectIndex(i))
					}
					return types.NewStringList(types.DefaultTypeAdapter, ids)
				}))),
		cel.Function("sum",
			cel.Overload("sum_list", []*cel.Type{cel.ListType(cel.DynType)}, cel.DoubleType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					total, _ := reduceList(v)
					return types.Double(total)
				}))),
		cel.Function("avg",
			cel.Overload("avg_list", []*cel.Type{cel.ListType(cel.DynType)}, cel.DoubleType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					total, n := reduceList(v)
					if n == 0 {
						return types.Double(0)
					}
					return types.Double(total / float64(n))
				}))),
	}
}

func reduceList(v ref.Val) (total float64, n int) {
	lister, ok := v.(traits.Lister)
	if !ok {
		return 0, 0
	}
	sz, ok := lister.Size().(types.Int)
	if !ok {
		return 0, 0
	}
	for i := types.Int(0); i < sz; i++ {
		f, ok := numericOf(lister.Get(i))
		if ok {
			total += f
			n++
		}
	}
	return total, n
}

func (e *Evaluator) typeOf(r string) string {
	if ei, ok := decodeEventRef(r); ok {
		return e.log.Event(ei).Type
	}
	if oi, ok := decodeObjectRef(r); ok {
		return e.log.Object(oi).Type
	}
	return ""
}

func (e *Evaluator) idOf(r string) string {
	if ei, ok := decodeEventRef(r); ok {
		return e.log.Event(ei).ID
	}
	if oi, ok := decodeObjectRef(r); ok {
		return e.log.Object(oi).ID
	}
	return ""
}

func (e *Evaluator) timeOf(r string) ref.Val {
	if ei, ok := decodeEventRef(r); ok {
		return types.Timestamp{Time: e.log.Event(ei).Time}
	}
	return types.NullValue
}

// attrOf resolves attr()/attrAt(). at, when non-nil, restricts the search to
// object attribute values valid at or before *at (attrAt); when nil, the
// latest known value is used.
func (e *Evaluator) attrOf(ref0, name string, at *time.Time) ref.Val {
	if ei, ok := decodeEventRef(ref0); ok {
		ev := e.log.Event(ei)
		switch name {
		case "ocel:id":
			return types.String(ev.ID)
		case "ocel:time":
			return types.Timestamp{Time: ev.Time}
		}
		for _, a := range ev.Attributes {
			if a.Name == name {
				return toCelValue(a.Value)
			}
		}
		return types.NullValue
	}
	if oi, ok := decodeObjectRef(ref0); ok {
		ob := e.log.Object(oi)
		if name == "ocel:id" {
			return types.String(ob.ID)
		}
		var best *ocel.TimedAttribute
		for i := range ob.Attributes {
			a := &ob.Attributes[i]
			if a.Name != name {
				continue
			}
			if at != nil && a.ValidFrom.After(*at) {
				continue
			}
			if best == nil || a.ValidFrom.After(best.ValidFrom) {
				best = a
			}
		}
		if best == nil {
			return types.NullValue
		}
		return toCelValue(best.Value)
	}
	return types.NullValue
}

func (e *Evaluator) attrsOf(ref0 string) ref.Val {
	var entries []ref.Val
	if ei, ok := decodeEventRef(ref0); ok {
		ev := e.log.Event(ei)
		for _, a := range ev.Attributes {
			entries = append(entries, types.NewDynamicList(types.DefaultTypeAdapter, []ref.Val{
				types.String(a.Name), toCelValue(a.Value), types.Timestamp{Time: ev.Time},
			}))
		}
	} else if oi, ok := decodeObjectRef(ref0); ok {
		ob := e.log.Object(oi)
		for _, a := range ob.Attributes {
			entries = append(entries, types.NewDynamicList(types.DefaultTypeAdapter, []ref.Val{
				types.String(a.Name), toCelValue(a.Value), types.Timestamp{Time: a.ValidFrom},
			}))
		}
	}
	return types.NewDynamicList(types.DefaultTypeAdapter, entries)
}
