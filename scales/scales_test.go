// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scales

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"testing"

	"github.com/aclements/go-gg/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facebookresearch/hiplot-sub000/datapoint"
	"github.com/facebookresearch/hiplot-sub000/infer"
)

func numeric(name string, typ datapoint.ParamType, vals ...float64) *infer.ParamDef {
	pd := &infer.ParamDef{Name: name, Type: typ, Numeric: true}
	for _, v := range vals {
		pd.DistinctValues = append(pd.DistinctValues, v)
	}
	return pd
}

func TestLinear(t *testing.T) {
	s, err := New(numeric("x", datapoint.Numeric, 0, 2, 10))
	require.NoError(t, err)
	s.SetRange(100, 0)

	assert.Equal(t, 100.0, s.Map(0.0))
	assert.Equal(t, 50.0, s.Map(5.0))
	assert.Equal(t, 50.0, s.Map("5"))
	assert.True(t, math.IsNaN(s.Map("abc")))
	assert.True(t, math.IsNaN(s.Map(nil)))

	v, special := s.(Continuous).Invert(25)
	assert.InDelta(t, 7.5, v, 1e-9)
	assert.False(t, special)
	assert.Equal(t, 3, s.NumValues())

	ticks := s.Ticks(5)
	require.NotEmpty(t, ticks)
	for i, tick := range ticks {
		assert.True(t, tick.Value >= 0 && tick.Value <= 10, "tick %v", tick.Value)
		assert.Equal(t, s.Map(tick.Value), tick.Pos)
		if i > 0 {
			assert.Greater(t, tick.Value, ticks[i-1].Value)
		}
	}
}

func TestDegenerateDomain(t *testing.T) {
	for _, typ := range []datapoint.ParamType{datapoint.Numeric, datapoint.NumericLog, datapoint.NumericPercentile} {
		s, err := New(numeric("x", typ, 3))
		require.NoError(t, err, "%s", typ)
		s.SetRange(0, 200)
		assert.Equal(t, 100.0, s.Map(3.0), "%s", typ)
	}
}

func TestForcedDomain(t *testing.T) {
	pd := numeric("x", datapoint.Numeric, 2, 4)
	lo, hi := 0.0, 10.0
	pd.ForceValueMin, pd.ForceValueMax = &lo, &hi
	s, err := New(pd)
	require.NoError(t, err)
	s.SetRange(0, 100)
	assert.Equal(t, 20.0, s.Map(2.0))
	dlo, dhi := s.(Continuous).Domain()
	assert.Equal(t, [2]float64{0, 10}, [2]float64{dlo, dhi})
}

func TestLogDomain(t *testing.T) {
	_, err := New(numeric("lr", datapoint.NumericLog, -1, 2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLogDomain))
	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "lr", ce.Column)
	assert.Equal(t, datapoint.NumericLog, ce.Type)

	pd := numeric("lr", datapoint.NumericLog, 1, 2)
	zero := 0.0
	pd.ForceValueMin = &zero
	_, err = New(pd)
	assert.True(t, errors.Is(err, ErrLogDomain))

	s, err := New(numeric("lr", datapoint.NumericLog, 1, 10, 100))
	require.NoError(t, err)
	s.SetRange(0, 100)
	assert.InDelta(t, 50, s.Map(10.0), 1e-9)
	assert.True(t, math.IsNaN(s.Map(-5.0)))
	v, _ := s.(Continuous).Invert(50)
	assert.InDelta(t, 10, v, 1e-9)
}

func TestScaleErrors(t *testing.T) {
	_, err := New(&infer.ParamDef{Name: "x", Type: datapoint.Numeric})
	assert.True(t, errors.Is(err, ErrEmptyDomain))
	_, err = New(&infer.ParamDef{Name: "x", Type: datapoint.NumericPercentile})
	assert.True(t, errors.Is(err, ErrEmptyDomain))
	_, err = New(&infer.ParamDef{Name: "x", Type: "bogus", DistinctValues: []any{1.0}})
	assert.True(t, errors.Is(err, ErrUnknownType))
	_, err = New(&infer.ParamDef{Name: "x", Type: datapoint.Numeric, DistinctValues: []any{"a"}})
	assert.Error(t, err)
}

func TestPercentile(t *testing.T) {
	s, err := New(numeric("p", datapoint.NumericPercentile, 1, 2, 4, 8, 100))
	require.NoError(t, err)
	s.SetRange(0, 4)

	for i, v := range []float64{1, 2, 4, 8, 100} {
		assert.Equal(t, float64(i), s.Map(v))
		got, _ := s.(Continuous).Invert(float64(i))
		assert.Equal(t, v, got)
	}
	assert.Equal(t, 1.5, s.Map(3.0))
	got, _ := s.(Continuous).Invert(2.4)
	assert.Equal(t, 4.0, got)

	ticks := s.Ticks(4)
	require.NotEmpty(t, ticks)
	for i := 1; i < len(ticks); i++ {
		assert.Greater(t, ticks[i].Value, ticks[i-1].Value)
	}
}

func TestPoint(t *testing.T) {
	pd := &infer.ParamDef{Name: "opt", Type: datapoint.Categorical, DistinctValues: []any{"adam", "sgd", 3.0}}
	s, err := New(pd)
	require.NoError(t, err)
	s.SetRange(0, 200)
	_, ok := s.(Point)
	require.True(t, ok)

	assert.Equal(t, 0.0, s.Map("adam"))
	assert.Equal(t, 100.0, s.Map("sgd"))
	assert.Equal(t, 200.0, s.Map(3.0))
	assert.True(t, math.IsNaN(s.Map("rmsprop")))
	assert.True(t, math.IsNaN(s.Map(nil)))

	ticks := s.Ticks(0)
	require.Len(t, ticks, 3)
	assert.Equal(t, "sgd", ticks[1].Label)

	one, err := New(&infer.ParamDef{Name: "c", Type: datapoint.Categorical, DistinctValues: []any{"only"}})
	require.NoError(t, err)
	one.SetRange(0, 200)
	assert.Equal(t, 100.0, one.Map("only"))
}

func TestCopy(t *testing.T) {
	s, err := New(numeric("x", datapoint.Numeric, 0, 10))
	require.NoError(t, err)
	s.SetRange(0, 100)
	c := s.Copy()
	c.SetRange(0, 10)
	assert.Equal(t, 50.0, s.Map(5.0))
	assert.Equal(t, 5.0, c.Map(5.0))
}

func TestOutliers(t *testing.T) {
	pd := numeric("loss", datapoint.Numeric, 0, 10)
	pd.SpecialValues = []any{"inf"}
	s, err := New(pd)
	require.NoError(t, err)
	s.SetRange(0, 130)

	assert.Equal(t, 0.0, s.Map(0.0))
	assert.Equal(t, 100.0, s.Map(10.0))
	assert.Equal(t, 115.0, s.Map("inf"))
	assert.Equal(t, 115.0, s.Map(nil))
	assert.Equal(t, 115.0, s.Map(math.NaN()))

	c := s.(Continuous)
	v, special := c.Invert(120)
	assert.True(t, special)
	assert.Equal(t, 10.0, v)
	v, special = c.Invert(50)
	assert.False(t, special)
	assert.InDelta(t, 5, v, 1e-9)

	ticks := s.Ticks(5)
	require.NotEmpty(t, ticks)
	last := ticks[len(ticks)-1]
	assert.Equal(t, SpecialLabel, last.Label)
	assert.Equal(t, 115.0, last.Pos)
	for _, tick := range ticks[:len(ticks)-1] {
		assert.LessOrEqual(t, tick.Pos, 100.0)
	}

	// Without specials, no band is reserved.
	plain, err := NewWithoutOutliers(pd)
	require.NoError(t, err)
	plain.SetRange(0, 130)
	assert.Equal(t, 130.0, plain.Map(10.0))
	assert.True(t, math.IsNaN(plain.Map("inf")))

	// Categorical columns never get a band.
	cat := &infer.ParamDef{Name: "c", Type: datapoint.Categorical, DistinctValues: []any{"a"}, SpecialValues: []any{nil}}
	cs, err := New(cat)
	require.NoError(t, err)
	_, ok := cs.(Point)
	assert.True(t, ok)
}

func TestPixelsRangeNumeric(t *testing.T) {
	// Rows {a: 1}, {b: 5}, {c: 10}; brushing from 4 to the top of the
	// axis selects b and c.
	s, err := New(numeric("x", datapoint.Numeric, 1, 5, 10))
	require.NoError(t, err)
	s.SetRange(100, 0)

	dr := PixelsRange(s, [2]float64{0, s.Map(4.0)})
	assert.Equal(t, datapoint.Numeric, dr.Type)
	assert.InDelta(t, 4, dr.Min, 1e-9)
	assert.GreaterOrEqual(t, dr.Max, 10.0)
	assert.False(t, dr.IncludeInfNaNs)
	assert.False(t, dr.Empty())
	for v, want := range map[float64]bool{1: false, 5: true, 10: true} {
		assert.Equal(t, want, v >= dr.Min && v <= dr.Max, "value %v", v)
	}

	// Extents may be given in either order.
	rev := PixelsRange(s, [2]float64{s.Map(4.0), 0})
	assert.Equal(t, dr.Min, rev.Min)
	assert.Equal(t, dr.Max, rev.Max)

	// The bottom value stays selectable.
	bottom := PixelsRange(s, [2]float64{100, s.Map(2.0)})
	assert.LessOrEqual(t, bottom.Min, 1.0)
	assert.InDelta(t, 2, bottom.Max, 1e-9)
}

func TestPixelsRangeSpecial(t *testing.T) {
	pd := numeric("loss", datapoint.Numeric, 0, 10)
	pd.SpecialValues = []any{"inf"}
	s, err := New(pd)
	require.NoError(t, err)
	s.SetRange(0, 130)

	for _, test := range []struct {
		extent  [2]float64
		special bool
	}{
		{[2]float64{90, 130}, true},
		{[2]float64{115, 120}, true},
		{[2]float64{116, 130}, false},
		{[2]float64{0, 50}, false},
	} {
		dr := PixelsRange(s, test.extent)
		assert.Equal(t, test.special, dr.IncludeInfNaNs, "extent %v", test.extent)
	}

	dr := PixelsRange(s, [2]float64{90, 130})
	assert.InDelta(t, 9, dr.Min, 1e-9)
	assert.Equal(t, 10.0, dr.Max)
}

func TestPixelsRangePercentile(t *testing.T) {
	vals := []float64{1, 2, 4, 8, 100}
	s, err := New(numeric("p", datapoint.NumericPercentile, vals...))
	require.NoError(t, err)
	s.SetRange(0, 400)

	// Every value whose pixel lies in the extent is inside the range.
	extent := [2]float64{80, 310}
	dr := PixelsRange(s, extent)
	for _, v := range vals {
		px := s.Map(v)
		in := px >= extent[0] && px <= extent[1]
		assert.Equal(t, in, v >= dr.Min && v <= dr.Max, "value %v", v)
	}
}

func TestPixelsRangeCategorical(t *testing.T) {
	pd := &infer.ParamDef{Name: "c", Type: datapoint.Categorical, DistinctValues: []any{"a", "b", "c", "d"}}
	s, err := New(pd)
	require.NoError(t, err)
	s.SetRange(0, 300)

	for _, test := range []struct {
		extent [2]float64
		want   []any
	}{
		{[2]float64{50, 210}, []any{"b", "c"}},
		{[2]float64{210, 50}, []any{"b", "c"}},
		{[2]float64{0, 300}, []any{"a", "b", "c", "d"}},
		{[2]float64{100, 100}, []any{"b"}},
		{[2]float64{10, 20}, []any{}},
		{[2]float64{-50, -10}, []any{}},
	} {
		dr := PixelsRange(s, test.extent)
		assert.Equal(t, test.want, append([]any{}, dr.Values...), "extent %v", test.extent)
		assert.Equal(t, len(test.want) == 0, dr.Empty())
	}

	// Inverted axis.
	s.SetRange(300, 0)
	dr := PixelsRange(s, [2]float64{250, 300})
	assert.Equal(t, []any{"a"}, dr.Values)
}

func TestTimestampTicks(t *testing.T) {
	const day = 86400.0
	start := 1700000000.0
	s, err := New(numeric("t", datapoint.Timestamp, start, start+10*day))
	require.NoError(t, err)
	s.SetRange(0, 1000)

	ticks := s.Ticks(6)
	require.NotEmpty(t, ticks)
	assert.LessOrEqual(t, len(ticks), 12)
	for i, tick := range ticks {
		assert.NotEmpty(t, tick.Label)
		assert.GreaterOrEqual(t, tick.Value, start)
		assert.LessOrEqual(t, tick.Value, start+10*day)
		if i > 0 {
			assert.Greater(t, tick.Value, ticks[i-1].Value)
		}
	}
}

func TestColorerCategorical(t *testing.T) {
	c, err := NewColorer("")
	require.NoError(t, err)

	pd := &infer.ParamDef{Name: "opt", Type: datapoint.Categorical, DistinctValues: []any{"adam", "sgd"}}
	got, err := c.Color(pd, "adam", 1)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0x1f, 0x77, 0xb4, 255}, got)

	got, err = c.Color(pd, "sgd", 0.5)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0xff, 0x7f, 0x0e, 128}, got)

	got, _ = c.Color(pd, "unknown", 1)
	assert.Equal(t, Grey, got)

	// Explicit colors win. The memo is keyed by the definition, so
	// changing colors requires invalidation.
	pd.Colors = map[string]string{"adam": "rgb(1, 2, 3)"}
	c.Invalidate()
	got, _ = c.Color(pd, "adam", 1)
	assert.Equal(t, color.NRGBA{1, 2, 3, 255}, got)

	// Many values get stable hash colors.
	many := &infer.ParamDef{Name: "id", Type: datapoint.Categorical}
	for i := 0; i < 30; i++ {
		many.DistinctValues = append(many.DistinctValues, float64(i))
	}
	a, _ := c.Color(many, 7.0, 1)
	c.Invalidate()
	b, _ := c.Color(many, 7.0, 1)
	assert.Equal(t, a, b)
}

func TestColorerNumeric(t *testing.T) {
	c, err := NewColorer("")
	require.NoError(t, err)

	pd := numeric("loss", datapoint.Numeric, 0, 10)
	pd.SpecialValues = []any{"inf"}
	got, err := c.Color(pd, 0.0, 1)
	require.NoError(t, err)
	assert.Equal(t, toNRGBA(palette.Viridis.Map(0)), got)
	got, _ = c.Color(pd, 10.0, 1)
	assert.Equal(t, toNRGBA(palette.Viridis.Map(1)), got)
	got, _ = c.Color(pd, "inf", 1)
	assert.Equal(t, Grey, got)

	pd.Colormap = "interpolateBlues"
	lo, err := c.Color(pd, 0.0, 1)
	require.NoError(t, err)
	hi, _ := c.Color(pd, 10.0, 1)
	assert.NotEqual(t, lo, hi)

	pd.Colormap = "interpolateNope"
	_, err = c.Color(pd, 1.0, 1)
	assert.True(t, errors.Is(err, ErrInvalidColormap))

	_, err = NewColorer("nope")
	assert.True(t, errors.Is(err, ErrInvalidColormap))
}

func TestParseColormap(t *testing.T) {
	for _, test := range []struct {
		name string
		ok   bool
	}{
		{"", true},
		{"viridis", true},
		{"interpolateViridis", true},
		{"interpolateBlues", true},
		{"schemeSet1", true},
		{"RdYlBu", true},
		{"schemeViridis", false},
		{"interpolateMagic", false},
	} {
		_, err := parseColormap(test.name)
		assert.Equal(t, test.ok, err == nil, "%q: %v", test.name, err)
	}
}

func TestParseCSSColor(t *testing.T) {
	for _, test := range []struct {
		in   string
		want color.NRGBA
		ok   bool
	}{
		{"#ff7f0e", color.NRGBA{255, 127, 14, 255}, true},
		{"#fff", color.NRGBA{255, 255, 255, 255}, true},
		{"red", color.NRGBA{255, 0, 0, 255}, true},
		{"rgb(100, 100, 100)", Grey, true},
		{"RGB(1,2,3)", color.NRGBA{1, 2, 3, 255}, true},
		{"rgba(10,20,30,0.5)", color.NRGBA{10, 20, 30, 128}, true},
		{"rgb(300, -4, 7)", color.NRGBA{255, 0, 7, 255}, true},
		{"hsl(0, 100%, 50%)", color.NRGBA{255, 0, 0, 255}, true},
		{"hsl(120, 100%, 25%)", color.NRGBA{0, 128, 0, 255}, true},
		{"hsla(240, 100%, 50%, 0.25)", color.NRGBA{0, 0, 255, 64}, true},
		{"", color.NRGBA{}, false},
		{"none", color.NRGBA{}, false},
		{"notacolor", color.NRGBA{}, false},
		{"rgb(a, b, c)", color.NRGBA{}, false},
		{"rgb(1, 2)", color.NRGBA{}, false},
		{"rgb(1, 2, 3", color.NRGBA{}, false},
		{"cmyk(1, 2, 3)", color.NRGBA{}, false},
	} {
		got, err := ParseCSSColor(test.in)
		if !test.ok {
			assert.Error(t, err, test.in)
			continue
		}
		require.NoError(t, err, test.in)
		assert.InDelta(t, test.want.R, got.R, 1, test.in)
		assert.InDelta(t, test.want.G, got.G, 1, test.in)
		assert.InDelta(t, test.want.B, got.B, 1, test.in)
		assert.Equal(t, test.want.A, got.A, test.in)
	}
}

func TestHashColorStable(t *testing.T) {
	seen := map[color.NRGBA]bool{}
	for i := 0; i < 30; i++ {
		v := fmt.Sprint("value", i)
		c := hashColor(v)
		assert.Equal(t, c, hashColor(v), v)
		assert.Equal(t, uint8(255), c.A, v)
		seen[c] = true
	}
	assert.Greater(t, len(seen), 20, "hashed colors should mostly differ")
}

func TestBrewerColorsLargestVariant(t *testing.T) {
	assert.Len(t, brewerColors("Blues"), 9)
	assert.Len(t, brewerColors("Set1"), 9)
	assert.Nil(t, brewerColors("Magic"))
}
