// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scales

import (
	"math"

	"github.com/facebookresearch/hiplot-sub000/datapoint"
)

// point spaces the distinct values of a categorical column evenly
// over the range. A single value sits in the middle.
type point struct {
	pixelRange
	values []any
	index  map[string]int
}

func newPoint(values []any) *point {
	p := &point{pixelRange: pixelRange{0, 1}, values: values, index: make(map[string]int, len(values))}
	for i, v := range values {
		p.index[datapoint.Format(v)] = i
	}
	return p
}

func (p *point) Type() datapoint.ParamType { return datapoint.Categorical }
func (p *point) NumValues() int            { return len(p.values) }
func (p *point) Values() []any             { return p.values }

func (p *point) Copy() Scale {
	c := *p
	return &c
}

func (p *point) pos(i int) float64 {
	if len(p.values) == 1 {
		return p.px(0.5)
	}
	return p.px(float64(i) / float64(len(p.values)-1))
}

func (p *point) Map(v any) float64 {
	if v == nil {
		return math.NaN()
	}
	i, ok := p.index[datapoint.Format(v)]
	if !ok {
		return math.NaN()
	}
	return p.pos(i)
}

// Ticks returns one tick per value.
func (p *point) Ticks(int) []Tick {
	ticks := make([]Tick, len(p.values))
	for i, v := range p.values {
		f, _ := datapoint.ParseNumber(v)
		ticks[i] = Tick{f, datapoint.Format(v), p.pos(i)}
	}
	return ticks
}
