package box

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aarkue/OCPQ/binding"
)

const sampleTreeJSON = `{
  "root": 0,
  "nodes": [
    {
      "type": "Box",
      "children": [],
      "newEventVars": [{"var": 0, "types": ["place order"]}],
      "newObjectVars": [{"var": 0, "types": ["order"]}],
      "filters": [
        {"type": "O2E", "eventVar": 0, "objectVar": 0, "qualifier": "involves", "label": "Included"}
      ],
      "sizeFilters": [
        {"type": "NumChilds", "name": "c", "min": 1}
      ],
      "constraints": [
        {"type": "Filter", "index": 0, "childNames": []}
      ],
      "eventVarLabels": {"0": "Included"},
      "objectVarLabels": {"0": "Excluded"},
      "labels": [{"label": "total", "expr": "attr(e1, \"amount\")"}]
    }
  ]
}`

func TestDecodeTreeJSONBox(t *testing.T) {
	tree, err := DecodeTreeJSON([]byte(sampleTreeJSON))
	require.NoError(t, err)

	require.Len(t, tree.Nodes, 1)
	n := tree.Nodes[0]
	require.Equal(t, NodeBox, n.Kind)
	require.NotNil(t, n.Box)

	require.Len(t, n.Box.NewEventVars, 1)
	assert.Equal(t, binding.EventVariable(0), n.Box.NewEventVars[0].Var)
	assert.Equal(t, []string{"place order"}, n.Box.NewEventVars[0].Types)

	require.Len(t, n.Box.Filters, 1)
	o2e, ok := n.Box.Filters[0].(O2E)
	require.True(t, ok)
	assert.Equal(t, Included, o2e.Label)
	require.NotNil(t, o2e.Qualifier)
	assert.Equal(t, "involves", *o2e.Qualifier)

	require.Len(t, n.Box.SizeFilters, 1)
	nc, ok := n.Box.SizeFilters[0].(NumChilds)
	require.True(t, ok)
	assert.Equal(t, "c", nc.Name)

	require.Len(t, n.Box.Constraints, 1)
	assert.Equal(t, ConstraintFilter, n.Box.Constraints[0].Kind)

	assert.Equal(t, Included, n.Box.EventVarLabels[binding.EventVariable(0)])
	assert.Equal(t, Excluded, n.Box.ObjectVarLabels[binding.ObjectVariable(0)])

	require.Len(t, n.Box.Labels, 1)
	assert.Equal(t, "total", n.Box.Labels[0].Label)
}

func TestDecodeTreeJSONCombinators(t *testing.T) {
	data := []byte(`{
      "root": 0,
      "nodes": [
        {"type": "And", "children": [{"child": 1, "name": "a"}, {"child": 2, "name": "b"}]},
        {"type": "Box"},
        {"type": "Box"}
      ]
    }`)
	tree, err := DecodeTreeJSON(data)
	require.NoError(t, err)

	require.Equal(t, NodeAnd, tree.Nodes[0].Kind)
	require.Len(t, tree.Nodes[0].Children, 2)
	assert.Equal(t, "a", tree.Nodes[0].Children[0].Name)
}

func TestDecodeTreeJSONUnknownNodeType(t *testing.T) {
	_, err := DecodeTreeJSON([]byte(`{"root":0,"nodes":[{"type":"Bogus"}]}`))
	assert.Error(t, err)
}

func TestDecodeFilterVariants(t *testing.T) {
	t.Run("TimeBetweenEvents", func(t *testing.T) {
		f, err := decodeFilter([]byte(`{"type":"TimeBetweenEvents","from":0,"to":1,"minSeconds":1.5,"reversed":true}`))
		require.NoError(t, err)
		tb, ok := f.(TimeBetweenEvents)
		require.True(t, ok)
		assert.True(t, tb.Reversed)
		require.NotNil(t, tb.MinSeconds)
		assert.Equal(t, 1.5, *tb.MinSeconds)
	})

	t.Run("NotEqual", func(t *testing.T) {
		f, err := decodeFilter([]byte(`{"type":"NotEqual","a":{"kind":"Event","var":0},"b":{"kind":"Object","var":1}}`))
		require.NoError(t, err)
		ne, ok := f.(NotEqual)
		require.True(t, ok)
		assert.True(t, ne.A.IsEvent())
		assert.True(t, ne.B.IsObject())
	})

	t.Run("ObjectAttrValueWithTimepoint", func(t *testing.T) {
		f, err := decodeFilter([]byte(`{"type":"ObjectAttrValue","var":0,"name":"status","value":{"type":"String","isIn":["open"]},"timepoint":{"kind":"AtEvent","atEvent":2}}`))
		require.NoError(t, err)
		oav, ok := f.(ObjectAttrValue)
		require.True(t, ok)
		assert.Equal(t, AtEvent, oav.Timepoint.Kind)
		assert.Equal(t, binding.EventVariable(2), oav.Timepoint.AtEvent)
	})

	t.Run("UnknownType", func(t *testing.T) {
		_, err := decodeFilter([]byte(`{"type":"Bogus"}`))
		assert.Error(t, err)
	})
}

func TestDecodeSizeFilterVariants(t *testing.T) {
	t.Run("BindingSetProjectionEqual", func(t *testing.T) {
		f, err := decodeSizeFilter([]byte(`{"type":"BindingSetProjectionEqual","pairs":[{"name":"a","var":{"kind":"Object","var":0}}]}`))
		require.NoError(t, err)
		bspe, ok := f.(BindingSetProjectionEqual)
		require.True(t, ok)
		require.Len(t, bspe.Pairs, 1)
		assert.Equal(t, "a", bspe.Pairs[0].Name)
	})

	t.Run("AdvancedExpr", func(t *testing.T) {
		f, err := decodeSizeFilter([]byte(`{"type":"AdvancedExpr","program":"true"}`))
		require.NoError(t, err)
		ae, ok := f.(AdvancedExpr)
		require.True(t, ok)
		assert.Equal(t, "true", ae.Program)
	})
}

func TestDecodeValueFilterVariants(t *testing.T) {
	t.Run("Integer", func(t *testing.T) {
		vf, err := decodeValueFilter([]byte(`{"type":"Integer","min":1,"max":5}`))
		require.NoError(t, err)
		ifilter, ok := vf.(IntegerFilter)
		require.True(t, ok)
		require.NotNil(t, ifilter.Min)
		assert.Equal(t, int64(1), *ifilter.Min)
	})

	t.Run("Time", func(t *testing.T) {
		raw, err := json.Marshal(map[string]interface{}{"type": "Time", "from": "2024-01-01T00:00:00Z"})
		require.NoError(t, err)
		vf, err := decodeValueFilter(raw)
		require.NoError(t, err)
		_, ok := vf.(TimeFilter)
		assert.True(t, ok)
	})

	t.Run("UnknownType", func(t *testing.T) {
		_, err := decodeValueFilter([]byte(`{"type":"Bogus"}`))
		assert.Error(t, err)
	})
}
