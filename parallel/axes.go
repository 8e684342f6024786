// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parallel

import (
	"sort"

	"github.com/facebookresearch/hiplot-sub000/menu"
)

// DragStart starts dragging the axis of column c.
func (e *Engine) DragStart(c string) bool {
	ax, ok := e.axes[c]
	if !ok || e.drag != nil {
		return false
	}
	e.drag = &dragState{col: c, pos: ax.x}
	return true
}

// DragMove moves the dragged axis by dx pixels. The axes it passes
// move into the slots it left.
func (e *Engine) DragMove(dx float64) {
	d := e.drag
	if d == nil {
		return
	}
	w, _ := e.plotSize()
	if dx != 0 {
		d.moved = true
	}
	d.pos = min(max(d.pos+dx, 0), w)
	d.pendingDelete = d.pos < e.cfg.EdgeThreshold || d.pos > w-e.cfg.EdgeThreshold
	sort.SliceStable(e.dims, func(i, j int) bool {
		return e.position(e.dims[i]) < e.position(e.dims[j])
	})
	e.layout()
}

// DragEnd drops the dragged axis. An axis that never moved is
// inverted. An axis dropped near an edge is hidden. Otherwise the new
// order is kept.
func (e *Engine) DragEnd() {
	d := e.drag
	if d == nil {
		return
	}
	e.drag = nil
	switch {
	case !d.moved:
		e.invert(d.col)
	case d.pendingDelete:
		e.HideAxis(d.col)
	default:
		e.setOrder(e.dims)
		e.layout()
		e.Render()
	}
}

// setOrder makes dims the column order.
func (e *Engine) setOrder(dims []string) {
	e.order = append([]string(nil), dims...)
	e.persist(OrderKey, e.order)
}

// invert flips the direction of column c's axis. Its brush follows
// the values it covered.
func (e *Engine) invert(c string) {
	ax, ok := e.axes[c]
	if !ok {
		return
	}
	e.inverted[c] = !e.inverted[c]
	if b := ax.brush; b != nil {
		_, h := e.plotSize()
		b[0], b[1] = h-b[1], h-b[0]
	}
	e.persist(InvertKey, sortedKeys(e.inverted))
	e.layout()
	e.Render()
	if ax.brush != nil {
		e.live.Call()
	}
}

// Invert flips the direction of column c's axis.
func (e *Engine) Invert(c string) {
	e.invert(c)
}

// HideAxis removes the axis of column c.
func (e *Engine) HideAxis(c string) {
	ax, ok := e.axes[c]
	if !ok {
		return
	}
	e.hidden[c] = true
	delete(e.axes, c)
	for i, d := range e.dims {
		if d == c {
			e.dims = append(e.dims[:i], e.dims[i+1:]...)
			break
		}
	}
	e.persist(HideKey, sortedKeys(e.hidden))
	e.setOrder(e.dims)
	e.layout()
	e.Render()
	if ax.brush != nil {
		e.live.Call()
		e.notifyDebounce.Call()
	}
}

// CanRestoreAxis reports whether column c is hidden and could be
// shown.
func (e *Engine) CanRestoreAxis(c string) bool {
	if _, ok := e.axes[c]; ok {
		return false
	}
	pd, ok := e.ds.ParamsUnfiltered()[c]
	return ok && !e.forceHidden(pd)
}

// RestoreAxis shows the hidden column c as the last axis.
func (e *Engine) RestoreAxis(c string) bool {
	if !e.CanRestoreAxis(c) {
		return false
	}
	if !e.addAxis(c, e.ds.Params()[c]) {
		return false
	}
	delete(e.hidden, c)
	e.persist(HideKey, sortedKeys(e.hidden))
	e.dims = append(e.dims, c)
	e.setOrder(e.dims)
	e.layout()
	e.Render()
	return true
}

func (e *Engine) columnMenu(c string, m *menu.Menu) {
	if e.CanRestoreAxis(c) {
		m.Add(RestoreLabel, func() { e.RestoreAxis(c) })
	}
}
