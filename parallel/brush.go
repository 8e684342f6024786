// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parallel

import (
	"math"

	"github.com/facebookresearch/hiplot-sub000/datapoint"
	"github.com/facebookresearch/hiplot-sub000/filter"
	"github.com/facebookresearch/hiplot-sub000/scales"
)

// Brush sets the brushed pixel interval of column c's axis, in either
// order. A nil extent removes the brush.
func (e *Engine) Brush(c string, extent *[2]float64) bool {
	ax, ok := e.axes[c]
	if !ok {
		return false
	}
	if extent == nil {
		if ax.brush == nil {
			return true
		}
		ax.brush = nil
	} else {
		b := *extent
		if b[0] > b[1] {
			b[0], b[1] = b[1], b[0]
		}
		ax.brush = &b
	}
	e.live.Call()
	e.notifyDebounce.Call()
	return true
}

// ClearBrushes removes every brush.
func (e *Engine) ClearBrushes() {
	if !e.anyBrush() {
		return
	}
	for _, ax := range e.axes {
		ax.brush = nil
	}
	e.live.Call()
	e.notifyDebounce.Call()
}

func (e *Engine) anyBrush() bool {
	for _, ax := range e.axes {
		if ax.brush != nil {
			return true
		}
	}
	return false
}

// BrushExtents returns the domain range of every brushed axis.
func (e *Engine) BrushExtents() map[string]scales.DomainRange {
	out := map[string]scales.DomainRange{}
	for _, c := range e.dims {
		if ax := e.axes[c]; ax.brush != nil {
			out[c] = scales.PixelsRange(ax.scale, *ax.brush)
		}
	}
	return out
}

func (e *Engine) sendBrushExtents() {
	if e.onBrushExtents != nil {
		e.onBrushExtents(e.BrushExtents())
	}
}

// active returns the brushed columns in axis order.
func (e *Engine) active() []string {
	var cols []string
	for _, c := range e.dims {
		if e.axes[c].brush != nil {
			cols = append(cols, c)
		}
	}
	return cols
}

// inside reports whether row's pixel on every active axis lies within
// the brush widened by slack pixels.
func (e *Engine) inside(row *datapoint.Datapoint, cols []string, slack float64) bool {
	for _, c := range cols {
		ax := e.axes[c]
		v, ok := row.Get(c)
		if !ok {
			return false
		}
		y := ax.scale.Map(v)
		if math.IsNaN(y) || y < ax.brush[0]-slack || y > ax.brush[1]+slack {
			return false
		}
	}
	return true
}

func (e *Engine) selectPixels(rows []*datapoint.Datapoint, cols []string, slack float64) []*datapoint.Datapoint {
	var out []*datapoint.Datapoint
	for _, r := range rows {
		if e.inside(r, cols, slack) {
			out = append(out, r)
		}
	}
	return out
}

// BrushFilter returns the filter that describes the brushes, or nil
// if nothing is brushed.
func (e *Engine) BrushFilter() filter.Filter {
	cols := e.active()
	if len(cols) == 0 {
		return nil
	}
	all := make(filter.All, 0, len(cols))
	for _, c := range cols {
		all = append(all, e.axisFilter(c))
	}
	return all
}

func (e *Engine) axisFilter(c string) filter.Filter {
	ax := e.axes[c]
	dr := scales.PixelsRange(ax.scale, *ax.brush)
	if dr.Type == datapoint.Categorical {
		if len(dr.Values) == 0 {
			return filter.None{}
		}
		lo, hi := dr.Values[0], dr.Values[len(dr.Values)-1]
		_, lok := lo.(float64)
		_, hok := hi.(float64)
		if !lok || !hok {
			lo, hi = datapoint.Format(lo), datapoint.Format(hi)
		}
		return filter.Range{Col: c, Type: datapoint.Categorical, Min: lo, Max: hi}
	}
	return filter.Range{Col: c, Type: dr.Type, Min: dr.Min, Max: dr.Max, IncludeInfNaNs: dr.IncludeInfNaNs}
}

// brushChanged recomputes the selection from the brushes.
func (e *Engine) brushChanged() {
	cols := e.active()
	if len(cols) == 0 {
		if e.ds.SelectedFilter() != nil || len(e.ds.Selected()) != len(e.ds.Filtered()) {
			e.ds.SetSelected(e.ds.Filtered(), nil)
		}
		return
	}
	rows := e.selectPixels(e.ds.Filtered(), cols, 0)
	f := e.BrushFilter()
	if e.cfg.Asserts {
		e.check(cols, f)
	}
	e.ds.SetSelected(rows, f)
}

// check logs a warning unless f selects every row strictly inside the
// brushes and no row more than a pixel outside them.
func (e *Engine) check(cols []string, f filter.Filter) {
	rows := e.ds.Filtered()
	got, err := filter.Apply(rows, f)
	if err != nil {
		e.metrics.mismatches.Inc()
		e.log.Error("brush filter", "filter", filter.String(f), "err", err)
		return
	}
	minset := e.selectPixels(rows, cols, -1)
	maxset := e.selectPixels(rows, cols, 1)
	missed := datapoint.Subtract(minset, got)
	extra := datapoint.Subtract(got, maxset)
	if len(missed) == 0 && len(extra) == 0 {
		return
	}
	e.metrics.mismatches.Inc()
	attrs := []any{"filter", filter.String(f), "selected", len(got), "min", len(minset), "max", len(maxset)}
	if len(missed) > 0 {
		attrs = append(attrs, "first_missed", missed[0].UID)
	}
	if len(extra) > 0 {
		attrs = append(attrs, "first_extra", extra[0].UID)
	}
	e.log.Warn("brush filter disagrees with pixels", attrs...)
}
