// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scales

import (
	"math"

	"github.com/facebookresearch/hiplot-sub000/datapoint"
)

// DomainRange is the part of a scale's domain covered by a pixel
// interval.
type DomainRange struct {
	Type datapoint.ParamType

	// Normalized is the pixel interval relative to the range, where
	// 0 is r0 and 1 is r1.
	Normalized [2]float64

	// Values are the categorical values inside the interval, in
	// scale order.
	Values []any

	// Min and Max bound the numeric values inside the interval.
	Min, Max float64

	// IncludeInfNaNs is set if the interval covers the pixel that
	// special values map to.
	IncludeInfNaNs bool
}

// Empty reports whether r covers no values at all.
func (r DomainRange) Empty() bool {
	if r.Type == datapoint.Categorical {
		return len(r.Values) == 0
	}
	return r.Min > r.Max && !r.IncludeInfNaNs
}

// snap is the tolerance used when converting normalized positions to
// value indices, so that a pixel computed from a value maps back to it.
const snap = 1e-9

// PixelsRange inverts s over the pixel interval extent, in either
// order.
//
// For numeric scales, an extent endpoint that lies exactly on the end
// of the range is moved one pixel outward, so the extreme values stay
// selectable despite rounding in Invert. Special values are included
// if their pixel lies in the closed interval.
func PixelsRange(s Scale, extent [2]float64) DomainRange {
	r0, r1 := s.Range()
	norm := func(px float64) float64 {
		if r0 == r1 {
			return 0.5
		}
		return (px - r0) / (r1 - r0)
	}
	dr := DomainRange{
		Type:       s.Type(),
		Normalized: [2]float64{norm(extent[0]), norm(extent[1])},
	}

	if p, ok := s.(Point); ok {
		values := p.Values()
		n := float64(len(values) - 1)
		lo := math.Min(dr.Normalized[0], dr.Normalized[1])
		hi := math.Max(dr.Normalized[0], dr.Normalized[1])
		first := int(math.Ceil(lo*n - snap))
		last := int(math.Floor(hi*n+snap)) + 1
		first = max(0, min(first, len(values)))
		last = max(first, min(last, len(values)))
		dr.Values = values[first:last]
		return dr
	}

	c, ok := s.(Continuous)
	if !ok {
		return dr
	}
	e0, e1 := extent[0], extent[1]
	if e0 > e1 {
		e0, e1 = e1, e0
	}
	pxMin, pxMax := math.Min(r0, r1), math.Max(r0, r1)
	e := [2]float64{e0, e1}
	for i := range e {
		if e[i] == pxMin {
			e[i]--
		}
		if e[i] == pxMax {
			e[i]++
		}
	}
	v0, _ := invert(c, e[0])
	v1, _ := invert(c, e[1])
	dr.Min, dr.Max = math.Min(v0, v1), math.Max(v0, v1)
	if sp := s.Map(math.Inf(1)); !math.IsNaN(sp) {
		dr.IncludeInfNaNs = e[0] <= sp && sp <= e[1]
	}
	return dr
}

func invert(c Continuous, px float64) (float64, bool) {
	if e, ok := c.(exactInverter); ok {
		return e.invertExact(px)
	}
	return c.Invert(px)
}
