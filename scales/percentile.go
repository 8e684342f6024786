// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scales

import (
	"math"
	"sort"
	"strconv"

	"github.com/facebookresearch/hiplot-sub000/datapoint"
)

// percentile places each value at its rank among the distinct values
// of the column. The i'th of n sorted values maps to i/(n-1) of the
// range; values in between are interpolated.
type percentile struct {
	pixelRange
	values []float64
}

func newPercentile(values []float64) *percentile {
	return &percentile{pixelRange{0, 1}, values}
}

func (p *percentile) Type() datapoint.ParamType { return datapoint.NumericPercentile }
func (p *percentile) NumValues() int            { return len(p.values) }

func (p *percentile) Domain() (float64, float64) {
	return p.values[0], p.values[len(p.values)-1]
}

func (p *percentile) Copy() Scale {
	c := *p
	return &c
}

// index returns the fractional rank of x.
func (p *percentile) index(x float64) float64 {
	n := len(p.values)
	if x <= p.values[0] {
		return 0
	}
	if x >= p.values[n-1] {
		return float64(n - 1)
	}
	i := sort.SearchFloat64s(p.values, x)
	if p.values[i] == x {
		return float64(i)
	}
	lo, hi := p.values[i-1], p.values[i]
	return float64(i-1) + (x-lo)/(hi-lo)
}

func (p *percentile) last() float64 {
	return float64(len(p.values) - 1)
}

func (p *percentile) Map(v any) float64 {
	x, ok := number(v)
	if !ok {
		return math.NaN()
	}
	if len(p.values) == 1 {
		return p.px(0.5)
	}
	return p.px(p.index(x) / p.last())
}

// Invert returns the value whose rank is nearest to px.
func (p *percentile) Invert(px float64) (float64, bool) {
	i := math.Round(p.norm(px) * p.last())
	i = math.Max(0, math.Min(p.last(), i))
	return p.values[int(i)], false
}

func (p *percentile) invertExact(px float64) (float64, bool) {
	f := p.norm(px) * p.last()
	if f <= 0 {
		return p.values[0], false
	}
	if f >= p.last() {
		return p.values[len(p.values)-1], false
	}
	i := int(f)
	lo, hi := p.values[i], p.values[i+1]
	return lo + (f-float64(i))*(hi-lo), false
}

// Ticks picks, for each of n equal rank intervals, the roundest number
// between the previous tick and the end of the interval.
func (p *percentile) Ticks(n int) []Tick {
	last := len(p.values) - 1
	var vals []float64
	for i := 0; i < n; i++ {
		startIdx := int(math.Floor(float64(i) / float64(n) * float64(last)))
		endIdx := int(math.Floor(float64(i+1) / float64(n) * float64(last)))
		start := p.values[startIdx]
		end := p.values[min(endIdx, last)]

		var val float64
		if start == end {
			val = start
		} else {
			prev := start
			if len(vals) > 0 {
				prev = vals[len(vals)-1]
			}
			prec := 1
			for prec < 20 && precisionFloor(prev, prec) == precisionFloor(end, prec) {
				prec++
			}
			val = toPrecision((prev+end)/2, prec)
		}
		if len(vals) > 0 && vals[len(vals)-1] == val {
			continue
		}
		vals = append(vals, val)
	}

	ticks := make([]Tick, len(vals))
	for i, v := range vals {
		ticks[i] = Tick{v, datapoint.FormatFloat(v), p.Map(v)}
	}
	return ticks
}

// precisionFloor truncates v to p significant digits.
func precisionFloor(v float64, p int) float64 {
	switch {
	case v < 0:
		return -precisionFloor(-v, p)
	case v == 0:
		return 0
	}
	pow := math.Pow(10, float64(p-1)-math.Floor(math.Log10(v)))
	return math.Floor(v*pow) / pow
}

// toPrecision rounds v to p significant digits.
func toPrecision(v float64, p int) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'g', p, 64), 64)
	return f
}
