// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scales

import (
	"fmt"
	"math"

	"github.com/aclements/go-moremath/scale"

	"github.com/facebookresearch/hiplot-sub000/datapoint"
)

// linear is a linear scale. It also serves timestamp columns, whose
// values are seconds since the Unix epoch.
type linear struct {
	pixelRange
	typ datapoint.ParamType
	s   scale.Linear
	n   int
}

func newLinear(typ datapoint.ParamType, lo, hi float64, n int) *linear {
	return &linear{
		pixelRange: pixelRange{0, 1},
		typ:        typ,
		s:          scale.Linear{Min: lo, Max: hi},
		n:          n,
	}
}

func (l *linear) Type() datapoint.ParamType { return l.typ }
func (l *linear) NumValues() int            { return l.n }
func (l *linear) Domain() (float64, float64) { return l.s.Min, l.s.Max }

func (l *linear) Copy() Scale {
	c := *l
	return &c
}

func (l *linear) Map(v any) float64 {
	x, ok := number(v)
	if !ok {
		return math.NaN()
	}
	if l.s.Min == l.s.Max {
		return l.px(0.5)
	}
	return l.px(l.s.Map(x))
}

func (l *linear) Invert(px float64) (float64, bool) {
	if l.s.Min == l.s.Max {
		return l.s.Min, false
	}
	return l.s.Unmap(l.norm(px)), false
}

func (l *linear) Ticks(n int) []Tick {
	if l.typ == datapoint.Timestamp {
		return l.timeTicks(n)
	}
	if l.s.Min == l.s.Max {
		return []Tick{{l.s.Min, formatTick(l.s.Min), l.px(0.5)}}
	}
	s := l.s
	if s.Min > s.Max {
		s.Min, s.Max = s.Max, s.Min
	}
	major, _ := s.Ticks(scale.TickOptions{Max: n})
	ticks := make([]Tick, len(major))
	for i, x := range major {
		ticks[i] = Tick{x, formatTick(x), l.Map(x)}
	}
	return ticks
}

// logScale is a logarithmic scale over a strictly positive domain.
type logScale struct {
	pixelRange
	s scale.Log
	n int
}

func newLog(lo, hi float64, n int) (*logScale, error) {
	if lo == hi {
		return &logScale{pixelRange{0, 1}, scale.Log{Min: lo, Max: hi, Base: 10}, n}, nil
	}
	s, err := scale.NewLog(lo, hi, 10)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLogDomain, err)
	}
	return &logScale{pixelRange{0, 1}, s, n}, nil
}

func (l *logScale) Type() datapoint.ParamType { return datapoint.NumericLog }
func (l *logScale) NumValues() int            { return l.n }
func (l *logScale) Domain() (float64, float64) { return l.s.Min, l.s.Max }

func (l *logScale) Copy() Scale {
	c := *l
	return &c
}

func (l *logScale) Map(v any) float64 {
	x, ok := number(v)
	if !ok || x <= 0 {
		return math.NaN()
	}
	if l.s.Min == l.s.Max {
		return l.px(0.5)
	}
	return l.px(l.s.Map(x))
}

func (l *logScale) Invert(px float64) (float64, bool) {
	if l.s.Min == l.s.Max {
		return l.s.Min, false
	}
	return l.s.Unmap(l.norm(px)), false
}

func (l *logScale) Ticks(n int) []Tick {
	if l.s.Min == l.s.Max {
		return []Tick{{l.s.Min, formatTick(l.s.Min), l.px(0.5)}}
	}
	major, _ := l.s.Ticks(scale.TickOptions{Max: n})
	ticks := make([]Tick, len(major))
	for i, x := range major {
		ticks[i] = Tick{x, formatTick(x), l.Map(x)}
	}
	return ticks
}

func formatTick(x float64) string {
	return fmt.Sprintf("%.6g", x)
}
