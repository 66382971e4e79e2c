package box

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aarkue/OCPQ/binding"
)

func parseOptTime(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, fmt.Errorf("parsing time %q: %w", *s, err)
	}
	return &t, nil
}

// DecodeTreeJSON decodes a BindingBoxTree from its tagged-union JSON form,
// mirroring the `#[serde(tag = "type")]` encoding of the original
// implementation's BindingBoxTreeNode (§6).
func DecodeTreeJSON(data []byte) (*Tree, error) {
	var wire struct {
		Nodes []json.RawMessage `json:"nodes"`
		Root  int               `json:"root"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("box: decoding tree: %w", err)
	}
	t := &Tree{Nodes: make([]Node, len(wire.Nodes)), Root: wire.Root}
	for i, raw := range wire.Nodes {
		n, err := decodeNode(raw)
		if err != nil {
			return nil, fmt.Errorf("box: decoding node %d: %w", i, err)
		}
		t.Nodes[i] = n
	}
	return t, nil
}

func decodeNode(raw json.RawMessage) (Node, error) {
	var head struct {
		Type     string `json:"type"`
		Children []struct {
			Child int    `json:"child"`
			Name  string `json:"name"`
		} `json:"children"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return Node{}, err
	}
	edges := make([]Edge, len(head.Children))
	for i, c := range head.Children {
		edges[i] = Edge{Child: c.Child, Name: c.Name}
	}

	switch head.Type {
	case "And":
		return Node{Kind: NodeAnd, Children: edges}, nil
	case "Or":
		return Node{Kind: NodeOr, Children: edges}, nil
	case "Not":
		return Node{Kind: NodeNot, Children: edges}, nil
	case "Box":
		bx, err := decodeBox(raw)
		if err != nil {
			return Node{}, err
		}
		return Node{Kind: NodeBox, Box: bx, Children: edges}, nil
	default:
		return Node{}, fmt.Errorf("unknown tree node type %q", head.Type)
	}
}

func decodeBox(raw json.RawMessage) (*BindingBox, error) {
	var wire struct {
		NewEventVars []struct {
			Var   int      `json:"var"`
			Types []string `json:"types"`
		} `json:"newEventVars"`
		NewObjectVars []struct {
			Var   int      `json:"var"`
			Types []string `json:"types"`
		} `json:"newObjectVars"`
		Filters         []json.RawMessage `json:"filters"`
		SizeFilters     []json.RawMessage `json:"sizeFilters"`
		Constraints     []wireConstraint  `json:"constraints"`
		EventVarLabels  map[string]string `json:"eventVarLabels"`
		ObjectVarLabels map[string]string `json:"objectVarLabels"`
		Labels          []struct {
			Label string `json:"label"`
			Expr  string `json:"expr"`
		} `json:"labels"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}

	bx := &BindingBox{
		EventVarLabels:  make(map[binding.EventVariable]FilterLabel),
		ObjectVarLabels: make(map[binding.ObjectVariable]FilterLabel),
	}
	for _, v := range wire.NewEventVars {
		bx.NewEventVars = append(bx.NewEventVars, NewEventVar{Var: binding.EventVariable(v.Var), Types: v.Types})
	}
	for _, v := range wire.NewObjectVars {
		bx.NewObjectVars = append(bx.NewObjectVars, NewObjectVar{Var: binding.ObjectVariable(v.Var), Types: v.Types})
	}
	for _, raw := range wire.Filters {
		f, err := decodeFilter(raw)
		if err != nil {
			return nil, err
		}
		bx.Filters = append(bx.Filters, f)
	}
	for _, raw := range wire.SizeFilters {
		f, err := decodeSizeFilter(raw)
		if err != nil {
			return nil, err
		}
		bx.SizeFilters = append(bx.SizeFilters, f)
	}
	for _, c := range wire.Constraints {
		cc, err := c.toConstraint()
		if err != nil {
			return nil, err
		}
		bx.Constraints = append(bx.Constraints, cc)
	}
	for k, v := range wire.EventVarLabels {
		var i int
		fmt.Sscanf(k, "%d", &i)
		bx.EventVarLabels[binding.EventVariable(i)] = decodeFilterLabel(v)
	}
	for k, v := range wire.ObjectVarLabels {
		var i int
		fmt.Sscanf(k, "%d", &i)
		bx.ObjectVarLabels[binding.ObjectVariable(i)] = decodeFilterLabel(v)
	}
	for _, l := range wire.Labels {
		bx.Labels = append(bx.Labels, LabelFunction{Label: l.Label, Expr: l.Expr})
	}
	return bx, nil
}

func decodeFilterLabel(s string) FilterLabel {
	switch s {
	case "Included":
		return Included
	case "Excluded":
		return Excluded
	default:
		return Ignored
	}
}

type wireConstraint struct {
	Type       string   `json:"type"`
	Index      int      `json:"index"`
	ChildNames []string `json:"childNames"`
}

func (c wireConstraint) toConstraint() (Constraint, error) {
	var kind ConstraintKind
	switch c.Type {
	case "Filter":
		kind = ConstraintFilter
	case "SizeFilter":
		kind = ConstraintSizeFilter
	case "Sat":
		kind = ConstraintSat
	case "Any":
		kind = ConstraintAny
	case "Not":
		kind = ConstraintNot
	case "Or":
		kind = ConstraintOr
	case "And":
		kind = ConstraintAnd
	default:
		return Constraint{}, fmt.Errorf("unknown constraint type %q", c.Type)
	}
	return Constraint{Kind: kind, Index: c.Index, ChildNames: c.ChildNames}, nil
}

func decodeFilter(raw json.RawMessage) (Filter, error) {
	var head struct {
		Type      string  `json:"type"`
		EventVar  int     `json:"eventVar"`
		ObjectVar int     `json:"objectVar"`
		From      int     `json:"from"`
		To        int     `json:"to"`
		Qualifier *string `json:"qualifier"`
		MinSeconds *float64 `json:"minSeconds"`
		MaxSeconds *float64 `json:"maxSeconds"`
		Reversed  bool    `json:"reversed"`
		A         wireVariable `json:"a"`
		B         wireVariable `json:"b"`
		Var       int     `json:"var"`
		Name      string  `json:"name"`
		Value     json.RawMessage `json:"value"`
		Timepoint *wireTimepoint `json:"timepoint"`
		Program   string  `json:"program"`
		Label     string  `json:"label"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}

	switch head.Type {
	case "O2E":
		return O2E{
			EventVar:  binding.EventVariable(head.EventVar),
			ObjectVar: binding.ObjectVariable(head.ObjectVar),
			Qualifier: head.Qualifier,
			Label:     decodeFilterLabel(head.Label),
		}, nil
	case "O2O":
		return O2O{
			From:      binding.ObjectVariable(head.From),
			To:        binding.ObjectVariable(head.To),
			Qualifier: head.Qualifier,
			Label:     decodeFilterLabel(head.Label),
		}, nil
	case "TimeBetweenEvents":
		return TimeBetweenEvents{
			From:       binding.EventVariable(head.From),
			To:         binding.EventVariable(head.To),
			MinSeconds: head.MinSeconds,
			MaxSeconds: head.MaxSeconds,
			Reversed:   head.Reversed,
		}, nil
	case "NotEqual":
		return NotEqual{A: head.A.toVariable(), B: head.B.toVariable()}, nil
	case "EventAttrValue":
		vf, err := decodeValueFilter(head.Value)
		if err != nil {
			return nil, err
		}
		return EventAttrValue{Var: binding.EventVariable(head.Var), Name: head.Name, Value: vf}, nil
	case "ObjectAttrValue":
		vf, err := decodeValueFilter(head.Value)
		if err != nil {
			return nil, err
		}
		tp := Timepoint{Kind: Always}
		if head.Timepoint != nil {
			tp = head.Timepoint.toTimepoint()
		}
		return ObjectAttrValue{Var: binding.ObjectVariable(head.Var), Name: head.Name, Value: vf, Timepoint: tp}, nil
	case "BasicExpr":
		return BasicExpr{Program: head.Program}, nil
	default:
		return nil, fmt.Errorf("unknown filter type %q", head.Type)
	}
}

type wireVariable struct {
	Kind string `json:"kind"`
	Var  int    `json:"var"`
}

func (v wireVariable) toVariable() binding.Variable {
	if v.Kind == "Object" {
		return binding.Ob(binding.ObjectVariable(v.Var))
	}
	return binding.Ev(binding.EventVariable(v.Var))
}

type wireTimepoint struct {
	Kind    string `json:"kind"`
	AtEvent int    `json:"atEvent"`
}

func (t wireTimepoint) toTimepoint() Timepoint {
	switch t.Kind {
	case "Sometime":
		return Timepoint{Kind: Sometime}
	case "AtEvent":
		return Timepoint{Kind: AtEvent, AtEvent: binding.EventVariable(t.AtEvent)}
	default:
		return Timepoint{Kind: Always}
	}
}

func decodeValueFilter(raw json.RawMessage) (ValueFilter, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing value filter")
	}
	var head struct {
		Type string           `json:"type"`
		Min  *float64         `json:"min"`
		Max  *float64         `json:"max"`
		IsTrue bool           `json:"isTrue"`
		IsIn []string         `json:"isIn"`
		From *string          `json:"from"`
		To   *string          `json:"to"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}
	switch head.Type {
	case "Float":
		return FloatFilter{Min: head.Min, Max: head.Max}, nil
	case "Integer":
		var min, max *int64
		if head.Min != nil {
			v := int64(*head.Min)
			min = &v
		}
		if head.Max != nil {
			v := int64(*head.Max)
			max = &v
		}
		return IntegerFilter{Min: min, Max: max}, nil
	case "Boolean":
		return BooleanFilter{IsTrue: head.IsTrue}, nil
	case "String":
		return StringFilter{IsIn: head.IsIn}, nil
	case "Time":
		from, err := parseOptTime(head.From)
		if err != nil {
			return nil, err
		}
		to, err := parseOptTime(head.To)
		if err != nil {
			return nil, err
		}
		return TimeFilter{From: from, To: to}, nil
	default:
		return nil, fmt.Errorf("unknown value filter type %q", head.Type)
	}
}

func decodeSizeFilter(raw json.RawMessage) (SizeFilter, error) {
	var head struct {
		Type  string       `json:"type"`
		Name  string       `json:"name"`
		Names []string     `json:"names"`
		Var   wireVariable `json:"var"`
		Min   *int         `json:"min"`
		Max   *int         `json:"max"`
		Pairs []struct {
			Name string       `json:"name"`
			Var  wireVariable `json:"var"`
		} `json:"pairs"`
		Program string `json:"program"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}
	switch head.Type {
	case "NumChilds":
		return NumChilds{Name: head.Name, Min: head.Min, Max: head.Max}, nil
	case "NumChildsProj":
		return NumChildsProj{Name: head.Name, Var: head.Var.toVariable(), Min: head.Min, Max: head.Max}, nil
	case "BindingSetEqual":
		return BindingSetEqual{Names: head.Names}, nil
	case "BindingSetProjectionEqual":
		pairs := make([]ProjPair, len(head.Pairs))
		for i, p := range head.Pairs {
			pairs[i] = ProjPair{Name: p.Name, Var: p.Var.toVariable()}
		}
		return BindingSetProjectionEqual{Pairs: pairs}, nil
	case "AdvancedExpr":
		return AdvancedExpr{Program: head.Program}, nil
	default:
		return nil, fmt.Errorf("unknown size filter type %q", head.Type)
	}
}
