package ocel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAttributeValueAsFloat(t *testing.T) {
	t.Run("FloatPassesThrough", func(t *testing.T) {
		f, ok := FloatValue(3.5).AsFloat()
		assert.True(t, ok)
		assert.Equal(t, 3.5, f)
	})

	t.Run("IntPromotes", func(t *testing.T) {
		f, ok := IntValue(7).AsFloat()
		assert.True(t, ok)
		assert.Equal(t, 7.0, f)
	})

	t.Run("StringHasNoFloat", func(t *testing.T) {
		_, ok := StringValue("x").AsFloat()
		assert.False(t, ok)
	})
}

func TestAttributeValueCompare(t *testing.T) {
	t.Run("CrossPromotedNumericOrder", func(t *testing.T) {
		assert.Equal(t, -1, IntValue(1).Compare(FloatValue(2.0)))
		assert.Equal(t, 1, FloatValue(2.0).Compare(IntValue(1)))
		assert.Equal(t, 0, IntValue(2).Compare(FloatValue(2.0)))
	})

	t.Run("DifferentKindsRankByKind", func(t *testing.T) {
		assert.True(t, Null().Compare(BoolValue(true)) < 0)
		assert.True(t, StringValue("a").Compare(Null()) > 0)
	})

	t.Run("StringOrder", func(t *testing.T) {
		assert.Equal(t, -1, StringValue("a").Compare(StringValue("b")))
		assert.Equal(t, 0, StringValue("a").Compare(StringValue("a")))
	})

	t.Run("TimeOrder", func(t *testing.T) {
		t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		t2 := t1.Add(time.Hour)
		assert.Equal(t, -1, TimeValue(t1).Compare(TimeValue(t2)))
		assert.Equal(t, 1, TimeValue(t2).Compare(TimeValue(t1)))
	})

	t.Run("BoolOrder", func(t *testing.T) {
		assert.True(t, BoolValue(false).Compare(BoolValue(true)) < 0)
		assert.Equal(t, 0, BoolValue(true).Compare(BoolValue(true)))
	})
}

func TestAttributeValueIsNull(t *testing.T) {
	assert.True(t, Null().IsNull())
	assert.False(t, IntValue(0).IsNull())
}

func TestAttributeValueString(t *testing.T) {
	assert.Equal(t, "null", Null().String())
	assert.Equal(t, "3", IntValue(3).String())
	assert.Equal(t, "true", BoolValue(true).String())
	assert.Equal(t, "hi", StringValue("hi").String())
}
