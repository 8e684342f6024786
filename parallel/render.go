// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parallel

import (
	"image/color"
	"math"
	"math/rand"
	"time"

	"github.com/facebookresearch/hiplot-sub000/canvas"
	"github.com/facebookresearch/hiplot-sub000/datapoint"
	"github.com/facebookresearch/hiplot-sub000/internal/loop"
)

// lead is the horizontal length of the stubs at both ends of a line.
const lead = 15

// Render starts drawing the selected rows on the foreground canvas.
// A render in progress is abandoned.
func (e *Engine) Render() {
	if e.drawing != 0 {
		e.metrics.aborted.Inc()
	}
	tok := e.gen.Next()
	e.fg.Clear()

	rows := append([]*datapoint.Datapoint(nil), e.ds.Selected()...)
	rnd := rand.New(rand.NewSource(e.cfg.Seed))
	rnd.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })

	alpha := 1.0
	if n := len(rows); n > 0 {
		alpha = min(e.cfg.OpacityScale/math.Pow(float64(n), e.cfg.OpacityExponent), 1)
	}
	e.batch = e.cfg.InitialBatch
	e.drawing = tok.ID()
	r := &render{tok: tok, rows: rows, alpha: alpha}
	e.loop.RequestFrame(func(time.Time) { e.frame(r) })
}

type render struct {
	tok   loop.Token
	rows  []*datapoint.Datapoint
	next  int
	alpha float64
}

func (e *Engine) frame(r *render) {
	if r.tok.Stale() {
		return
	}
	start := e.loop.Now()
	end := min(r.next+e.batch, len(r.rows))
	n := 0
	for ; r.next < end; r.next++ {
		if r.tok.Stale() {
			return
		}
		row := r.rows[r.next]
		e.path(e.fg, row, e.color(row, r.alpha), 1)
		n++
	}
	e.metrics.rowsDrawn.Add(float64(n))
	e.metrics.frames.Inc()
	e.metrics.batchSize.Observe(float64(n))
	if e.onBatch != nil {
		e.onBatch(r.tok.ID(), n)
	}
	if r.tok.Stale() {
		return
	}

	elapsed := e.loop.Now().Sub(start)
	if elapsed <= 0 {
		e.batch = e.cfg.MaxBatch
	} else {
		next := math.Ceil(float64(e.batch) * float64(e.cfg.FrameBudget) / float64(elapsed))
		e.batch = int(min(max(next, float64(e.cfg.MinBatch)), float64(e.cfg.MaxBatch)))
	}

	if r.next < len(r.rows) {
		e.loop.RequestFrame(func(time.Time) { e.frame(r) })
		return
	}
	e.drawing = 0
	if e.onRenderDone != nil {
		e.onRenderDone(r.tok.ID())
	}
}

// Drawing reports whether a render is in progress.
func (e *Engine) Drawing() bool {
	return e.drawing != 0
}

// Generation returns the number of the latest render.
func (e *Engine) Generation() uint64 {
	return e.gen.Current()
}

// drawHighlighted redraws the highlighted rows on the highlight canvas.
func (e *Engine) drawHighlighted() {
	e.hl.Clear()
	for _, row := range e.ds.Highlighted() {
		e.path(e.hl, row, e.color(row, 1), 4)
	}
}

// point returns the pixel position of row on column c's axis. ok is
// false where the line breaks.
func (e *Engine) point(row *datapoint.Datapoint, c string) (x, y float64, ok bool) {
	ax := e.axes[c]
	v, ok := row.Get(c)
	if !ok {
		return 0, 0, false
	}
	if v != nil && ax.scale.Type() != datapoint.Categorical && datapoint.IsSpecial(v) {
		return 0, 0, false
	}
	y = ax.scale.Map(v)
	if math.IsNaN(y) {
		return 0, 0, false
	}
	return e.position(c), y, true
}

// path strokes row's polyline across the axes. Each point is reached
// by a curve that leaves the previous point horizontally. A value that
// cannot be placed breaks the line.
func (e *Engine) path(ctx canvas.Context, row *datapoint.Datapoint, c color.Color, width float64) {
	ctx.SetStroke(c, width)
	ctx.BeginPath()
	var px, py float64
	open := false
	closeSub := func() {
		if open {
			ctx.LineTo(px+lead, py)
			open = false
		}
	}
	for _, col := range e.dims {
		x, y, ok := e.point(row, col)
		if !ok {
			closeSub()
			continue
		}
		if !open {
			px, py = x-lead, y
			ctx.MoveTo(px, py)
			open = true
		}
		ctx.BezierCurveTo(x-0.88*(x-px), py, x-0.12*(x-px), y, x, y)
		px, py = x, y
	}
	closeSub()
	ctx.Stroke()
}
