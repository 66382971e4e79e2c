package ocel

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// jsonAttribute/jsonRelationship/jsonEvent/jsonObject/jsonOCEL mirror the
// wire shape the log decoder external collaborator produces (§6): a JSON
// document whose events and objects carry qualified relationships by id.
// Decoding itself (this file) is the one "log import" concern the core
// keeps, since evaluate/filter_log need *some* concrete way to turn bytes
// into an OCEL value; the richer relational-blueprint/XML/SQLite importers
// named as external collaborators are deliberately not implemented here.
type jsonAttribute struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

type jsonTimedAttribute struct {
	Name      string          `json:"name"`
	Value     json.RawMessage `json:"value"`
	ValidFrom time.Time       `json:"time"`
}

type jsonRelationship struct {
	ObjectID  string `json:"objectId"`
	Qualifier string `json:"qualifier"`
}

type jsonEvent struct {
	ID            string             `json:"id"`
	Type          string             `json:"type"`
	Time          time.Time          `json:"time"`
	Attributes    []jsonAttribute    `json:"attributes"`
	Relationships []jsonRelationship `json:"relationships"`
}

type jsonObject struct {
	ID            string               `json:"id"`
	Type          string               `json:"type"`
	Attributes    []jsonTimedAttribute `json:"attributes"`
	Relationships []jsonRelationship   `json:"relationships"`
}

type jsonOCEL struct {
	EventTypes  []string     `json:"eventTypes"`
	ObjectTypes []string     `json:"objectTypes"`
	Events      []jsonEvent  `json:"events"`
	Objects     []jsonObject `json:"objects"`
}

// rawValue decodes a JSON value into an AttributeValue. Numbers decode as
// float or int depending on whether they carry a fractional part; strings
// that parse as RFC3339 decode as KindTime, matching the original's
// attribute-value convention of a tagged scalar.
func rawValue(raw json.RawMessage) (AttributeValue, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return Null(), nil
	}
	var asFloat float64
	if err := json.Unmarshal(raw, &asFloat); err == nil {
		if asFloat == float64(int64(asFloat)) {
			var asInt int64
			if err := json.Unmarshal(raw, &asInt); err == nil {
				return IntValue(asInt), nil
			}
		}
		return FloatValue(asFloat), nil
	}
	var asBool bool
	if err := json.Unmarshal(raw, &asBool); err == nil {
		return BoolValue(asBool), nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if t, err := time.Parse(time.RFC3339, asString); err == nil {
			return TimeValue(t), nil
		}
		return StringValue(asString), nil
	}
	return Null(), fmt.Errorf("ocel: unsupported attribute value %s", string(raw))
}

// DecodeJSON parses the external JSON wire format into an OCEL value ready
// for BuildLog. It performs no cross-referential validation itself;
// dangling/duplicate ids surface from BuildLog, per the error-handling
// design's MalformedLog contract.
func DecodeJSON(r io.Reader) (*OCEL, error) {
	var doc jsonOCEL
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("ocel: decode json: %w", err)
	}

	out := &OCEL{EventTypes: doc.EventTypes, ObjectTypes: doc.ObjectTypes}

	out.Events = make([]RawEvent, len(doc.Events))
	for i, je := range doc.Events {
		attrs := make([]Attribute, len(je.Attributes))
		for j, a := range je.Attributes {
			v, err := rawValue(a.Value)
			if err != nil {
				return nil, err
			}
			attrs[j] = Attribute{Name: a.Name, Value: v}
		}
		rels := make([]RawRelationship, len(je.Relationships))
		for j, rel := range je.Relationships {
			rels[j] = RawRelationship{Qualifier: rel.Qualifier, TargetID: rel.ObjectID}
		}
		out.Events[i] = RawEvent{ID: je.ID, Type: je.Type, Time: je.Time, Attributes: attrs, Relationships: rels}
	}

	out.Objects = make([]RawObject, len(doc.Objects))
	for i, jo := range doc.Objects {
		attrs := make([]TimedAttribute, len(jo.Attributes))
		for j, a := range jo.Attributes {
			v, err := rawValue(a.Value)
			if err != nil {
				return nil, err
			}
			attrs[j] = TimedAttribute{Name: a.Name, Value: v, ValidFrom: a.ValidFrom}
		}
		rels := make([]RawRelationship, len(jo.Relationships))
		for j, rel := range jo.Relationships {
			rels[j] = RawRelationship{Qualifier: rel.Qualifier, TargetID: rel.ObjectID}
		}
		out.Objects[i] = RawObject{ID: jo.ID, Type: jo.Type, Attributes: attrs, Relationships: rels}
	}

	return out, nil
}

func rawValueJSON(v AttributeValue) interface{} {
	switch v.Kind {
	case KindFloat:
		return v.Float
	case KindInt:
		return v.Int
	case KindString:
		return v.Str
	case KindBool:
		return v.Bool
	case KindTime:
		return v.Time.Format(time.RFC3339)
	default:
		return nil
	}
}

// EncodeJSON writes o in the same wire format DecodeJSON reads, for
// FilterLog's filtered-log output.
func EncodeJSON(w io.Writer, o *OCEL) error {
	doc := jsonOCEL{EventTypes: o.EventTypes, ObjectTypes: o.ObjectTypes}

	doc.Events = make([]jsonEvent, len(o.Events))
	for i, e := range o.Events {
		attrs := make([]jsonAttribute, len(e.Attributes))
		for j, a := range e.Attributes {
			raw, _ := json.Marshal(rawValueJSON(a.Value))
			attrs[j] = jsonAttribute{Name: a.Name, Value: raw}
		}
		rels := make([]jsonRelationship, len(e.Relationships))
		for j, r := range e.Relationships {
			rels[j] = jsonRelationship{ObjectID: r.TargetID, Qualifier: r.Qualifier}
		}
		doc.Events[i] = jsonEvent{ID: e.ID, Type: e.Type, Time: e.Time, Attributes: attrs, Relationships: rels}
	}

	doc.Objects = make([]jsonObject, len(o.Objects))
	for i, obj := range o.Objects {
		attrs := make([]jsonTimedAttribute, len(obj.Attributes))
		for j, a := range obj.Attributes {
			raw, _ := json.Marshal(rawValueJSON(a.Value))
			attrs[j] = jsonTimedAttribute{Name: a.Name, Value: raw, ValidFrom: a.ValidFrom}
		}
		rels := make([]jsonRelationship, len(obj.Relationships))
		for j, r := range obj.Relationships {
			rels[j] = jsonRelationship{ObjectID: r.TargetID, Qualifier: r.Qualifier}
		}
		doc.Objects[i] = jsonObject{ID: obj.ID, Type: obj.Type, Attributes: attrs, Relationships: rels}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
