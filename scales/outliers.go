// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scales

import (
	"math"

	"github.com/facebookresearch/hiplot-sub000/datapoint"
)

// SpecialLabel labels the tick of the special value band.
const SpecialLabel = "nan/inf/null"

// outliers reserves a band of band pixels at the r1 end of the range
// for special values. Finite values are squeezed into the rest of the
// range. Special values map to the middle of the band.
//
// The base scale keeps the full range; outliers rescales its output.
type outliers struct {
	base Continuous
	band float64
}

func (o *outliers) Type() datapoint.ParamType  { return o.base.Type() }
func (o *outliers) NumValues() int             { return o.base.NumValues() }
func (o *outliers) Range() (float64, float64)  { return o.base.Range() }
func (o *outliers) SetRange(r0, r1 float64)    { o.base.SetRange(r0, r1) }
func (o *outliers) Domain() (float64, float64) { return o.base.Domain() }

func (o *outliers) Copy() Scale {
	return &outliers{o.base.Copy().(Continuous), o.band}
}

// geometry returns the start of the range, the size in pixels of the
// finite part, and the direction of the range.
func (o *outliers) geometry() (r0, size, sign float64) {
	r0, r1 := o.base.Range()
	sign = 1
	if r1 < r0 {
		sign = -1
	}
	size = math.Max(0, math.Abs(r1-r0)-o.band)
	return r0, size, sign
}

// bandCenter returns the pixel that special values map to.
func (o *outliers) bandCenter() float64 {
	r0, size, sign := o.geometry()
	return r0 + sign*(size+o.band/2)
}

func (o *outliers) inBand(px float64) bool {
	r0, size, sign := o.geometry()
	return sign*(px-r0) > size
}

// toOuter maps a pixel of the base scale into the finite part.
func (o *outliers) toOuter(basePx float64) float64 {
	r0, r1 := o.base.Range()
	if r0 == r1 {
		return r0
	}
	_, size, sign := o.geometry()
	return r0 + sign*(basePx-r0)/(r1-r0)*size
}

// toBase is the inverse of toOuter.
func (o *outliers) toBase(px float64) float64 {
	r0, r1 := o.base.Range()
	_, size, sign := o.geometry()
	if size == 0 {
		return r0
	}
	return r0 + sign*(px-r0)/size*(r1-r0)
}

func (o *outliers) Map(v any) float64 {
	if datapoint.IsSpecial(v) {
		return o.bandCenter()
	}
	b := o.base.Map(v)
	if math.IsNaN(b) {
		return b
	}
	return o.toOuter(b)
}

func (o *outliers) Invert(px float64) (float64, bool) {
	if o.inBand(px) {
		_, r1 := o.base.Range()
		v, _ := o.base.Invert(r1)
		return v, true
	}
	return o.base.Invert(o.toBase(px))
}

func (o *outliers) invertExact(px float64) (float64, bool) {
	e, ok := o.base.(exactInverter)
	if !ok {
		return o.Invert(px)
	}
	if o.inBand(px) {
		_, r1 := o.base.Range()
		v, _ := e.invertExact(r1)
		return v, true
	}
	return e.invertExact(o.toBase(px))
}

// Ticks returns the ticks of the base scale followed by a tick for the
// special value band.
func (o *outliers) Ticks(n int) []Tick {
	base := o.base.Ticks(max(1, n-1))
	ticks := make([]Tick, 0, len(base)+1)
	for _, t := range base {
		t.Pos = o.toOuter(t.Pos)
		ticks = append(ticks, t)
	}
	return append(ticks, Tick{math.NaN(), SpecialLabel, o.bandCenter()})
}
