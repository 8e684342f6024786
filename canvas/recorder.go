// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package canvas

import (
	"fmt"
	"image/color"
	"strings"
)

// OpKind is the kind of a recorded call.
type OpKind int

const (
	OpClear OpKind = iota
	OpSetStroke
	OpBeginPath
	OpMoveTo
	OpLineTo
	OpBezierCurveTo
	OpStroke
)

var opNames = [...]string{"clear", "setStroke", "beginPath", "moveTo", "lineTo", "bezierCurveTo", "stroke"}

func (k OpKind) String() string {
	if int(k) < len(opNames) {
		return opNames[k]
	}
	return fmt.Sprintf("OpKind(%d)", int(k))
}

// An Op is one recorded Context call.
type Op struct {
	Kind  OpKind
	Args  []float64
	Color color.Color
}

func (o Op) String() string {
	var b strings.Builder
	b.WriteString(o.Kind.String())
	b.WriteByte('(')
	for i, a := range o.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%g", a)
	}
	b.WriteByte(')')
	return b.String()
}

// Recorder is a Context that records every call.
type Recorder struct {
	W, H int
	Ops  []Op

	// OnStroke, if set, is called after each recorded Stroke.
	OnStroke func()
}

// NewRecorder returns a Recorder of the given size.
func NewRecorder(w, h int) *Recorder {
	return &Recorder{W: w, H: h}
}

func (r *Recorder) add(k OpKind, args ...float64) {
	r.Ops = append(r.Ops, Op{Kind: k, Args: args})
}

func (r *Recorder) Size() (int, int) { return r.W, r.H }
func (r *Recorder) Clear()           { r.add(OpClear) }
func (r *Recorder) BeginPath()       { r.add(OpBeginPath) }
func (r *Recorder) MoveTo(x, y float64) {
	r.add(OpMoveTo, x, y)
}
func (r *Recorder) LineTo(x, y float64) {
	r.add(OpLineTo, x, y)
}

func (r *Recorder) SetStroke(c color.Color, width float64) {
	r.Ops = append(r.Ops, Op{Kind: OpSetStroke, Args: []float64{width}, Color: c})
}

func (r *Recorder) BezierCurveTo(c1x, c1y, c2x, c2y, x, y float64) {
	r.add(OpBezierCurveTo, c1x, c1y, c2x, c2y, x, y)
}

func (r *Recorder) Stroke() {
	r.add(OpStroke)
	if r.OnStroke != nil {
		r.OnStroke()
	}
}

// Count returns the number of recorded calls of kind k.
func (r *Recorder) Count(k OpKind) int {
	n := 0
	for _, o := range r.Ops {
		if o.Kind == k {
			n++
		}
	}
	return n
}

// Reset forgets all recorded calls.
func (r *Recorder) Reset() {
	r.Ops = r.Ops[:0]
}
