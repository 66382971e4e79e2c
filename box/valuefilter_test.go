package box

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aarkue/OCPQ/ocel"
)

func f64(f float64) *float64 { return &f }
func i64(i int64) *int64     { return &i }

func TestFloatFilterBounds(t *testing.T) {
	f := FloatFilter{Min: f64(1), Max: f64(5)}
	assert.True(t, f.Match(ocel.FloatValue(3)))
	assert.False(t, f.Match(ocel.FloatValue(10)))
	assert.False(t, f.Match(ocel.StringValue("x")))
}

func TestFloatFilterCrossPromotesInt(t *testing.T) {
	f := FloatFilter{Min: f64(1), Max: f64(5)}
	assert.True(t, f.Match(ocel.IntValue(3)))
}

func TestIntegerFilterCrossPromotesFloat(t *testing.T) {
	f := IntegerFilter{Min: i64(1), Max: i64(5)}
	assert.True(t, f.Match(ocel.FloatValue(3.0)))
	assert.False(t, f.Match(ocel.FloatValue(10.0)))
}

func TestBooleanFilter(t *testing.T) {
	f := BooleanFilter{IsTrue: true}
	assert.True(t, f.Match(ocel.BoolValue(true)))
	assert.False(t, f.Match(ocel.BoolValue(false)))
	assert.False(t, f.Match(ocel.IntValue(1)))
}

func TestStringFilter(t *testing.T) {
	f := StringFilter{IsIn: []string{"a", "b"}}
	assert.True(t, f.Match(ocel.StringValue("a")))
	assert.False(t, f.Match(ocel.StringValue("c")))
}

func TestTimeFilter(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	from := t0
	to := t0.Add(time.Hour)
	f := TimeFilter{From: &from, To: &to}

	assert.True(t, f.Match(ocel.TimeValue(t0.Add(30*time.Minute))))
	assert.False(t, f.Match(ocel.TimeValue(t0.Add(2*time.Hour))))
	assert.False(t, f.Match(ocel.StringValue("x")))
}
