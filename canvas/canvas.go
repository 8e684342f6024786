// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package canvas is the drawing surface of plots.
//
// Context is the small subset of a 2D canvas API that plots draw
// through. Raster implements it on an in-memory image, and Recorder
// records the calls for tests.
package canvas

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Context is a 2D drawing context. Paths are built with MoveTo,
// LineTo and BezierCurveTo after a BeginPath and drawn with Stroke.
type Context interface {
	Size() (w, h int)
	Clear()
	SetStroke(c color.Color, width float64)
	BeginPath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	BezierCurveTo(c1x, c1y, c2x, c2y, x, y float64)
	Stroke()
}

// Composite is how a stroke is combined with what is already drawn.
type Composite int

const (
	// SourceOver draws new strokes on top.
	SourceOver Composite = iota
	// DestinationOver draws new strokes behind existing pixels.
	DestinationOver
)

// bezierSteps is the number of line segments a cubic curve is
// flattened into.
const bezierSteps = 12

type pt struct{ x, y float64 }

// Raster is a Context backed by an RGBA image.
type Raster struct {
	img       *image.RGBA
	composite Composite
	stroke    color.NRGBA
	width     float64

	paths [][]pt
	z     vector.Rasterizer
	mask  *image.Alpha
}

// NewRaster returns a transparent Raster of the given size.
func NewRaster(w, h int) *Raster {
	return &Raster{
		img:    image.NewRGBA(image.Rect(0, 0, w, h)),
		stroke: color.NRGBA{0, 0, 0, 255},
		width:  1,
	}
}

// Image returns the backing image.
func (r *Raster) Image() *image.RGBA { return r.img }

func (r *Raster) Size() (int, int) {
	b := r.img.Bounds()
	return b.Dx(), b.Dy()
}

// SetComposite sets the composite mode of later strokes.
func (r *Raster) SetComposite(c Composite) { r.composite = c }

func (r *Raster) Clear() {
	clear(r.img.Pix)
}

func (r *Raster) SetStroke(c color.Color, width float64) {
	r.stroke = color.NRGBAModel.Convert(c).(color.NRGBA)
	r.width = width
}

func (r *Raster) BeginPath() {
	r.paths = r.paths[:0]
}

func (r *Raster) MoveTo(x, y float64) {
	r.paths = append(r.paths, []pt{{x, y}})
}

func (r *Raster) LineTo(x, y float64) {
	if len(r.paths) == 0 {
		r.MoveTo(x, y)
		return
	}
	i := len(r.paths) - 1
	r.paths[i] = append(r.paths[i], pt{x, y})
}

func (r *Raster) BezierCurveTo(c1x, c1y, c2x, c2y, x, y float64) {
	if len(r.paths) == 0 {
		r.MoveTo(c1x, c1y)
	}
	i := len(r.paths) - 1
	p0 := r.paths[i][len(r.paths[i])-1]
	for s := 1; s <= bezierSteps; s++ {
		t := float64(s) / bezierSteps
		u := 1 - t
		a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
		r.paths[i] = append(r.paths[i], pt{
			a*p0.x + b*c1x + c*c2x + d*x,
			a*p0.y + b*c1y + c*c2y + d*y,
		})
	}
}

// Stroke draws the current path with the current stroke style.
func (r *Raster) Stroke() {
	hw := math.Max(r.width, 0.5) / 2
	bounds := image.Rectangle{}
	first := true
	for _, path := range r.paths {
		for _, p := range path {
			pr := image.Rect(int(math.Floor(p.x-hw-1)), int(math.Floor(p.y-hw-1)),
				int(math.Ceil(p.x+hw+1)), int(math.Ceil(p.y+hw+1)))
			if first {
				bounds, first = pr, false
			} else {
				bounds = bounds.Union(pr)
			}
		}
	}
	bounds = bounds.Intersect(r.img.Bounds())
	if bounds.Empty() {
		return
	}

	w, h := bounds.Dx(), bounds.Dy()
	r.z.Reset(w, h)
	r.z.DrawOp = draw.Src
	ox, oy := float64(bounds.Min.X), float64(bounds.Min.Y)
	quad := func(a, b pt) {
		dx, dy := b.x-a.x, b.y-a.y
		l := math.Hypot(dx, dy)
		if l == 0 {
			dx, dy, l = 1, 0, 1
		}
		nx, ny := -dy/l*hw, dx/l*hw
		r.z.MoveTo(float32(a.x+nx-ox), float32(a.y+ny-oy))
		r.z.LineTo(float32(b.x+nx-ox), float32(b.y+ny-oy))
		r.z.LineTo(float32(b.x-nx-ox), float32(b.y-ny-oy))
		r.z.LineTo(float32(a.x-nx-ox), float32(a.y-ny-oy))
		r.z.ClosePath()
	}
	for _, path := range r.paths {
		if len(path) == 1 {
			quad(pt{path[0].x - hw, path[0].y}, pt{path[0].x + hw, path[0].y})
		}
		for i := 1; i < len(path); i++ {
			quad(path[i-1], path[i])
		}
	}

	if r.mask == nil || r.mask.Bounds().Dx() < w || r.mask.Bounds().Dy() < h {
		r.mask = image.NewAlpha(image.Rect(0, 0, max(w, r.img.Bounds().Dx()), max(h, r.img.Bounds().Dy())))
	}
	mask := r.mask.SubImage(image.Rect(0, 0, w, h)).(*image.Alpha)
	r.z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	switch r.composite {
	case SourceOver:
		draw.DrawMask(r.img, bounds, image.NewUniform(r.stroke), image.Point{}, mask, image.Point{}, draw.Over)
	case DestinationOver:
		r.drawBehind(bounds, mask)
	}
}

// drawBehind composites the stroke color under the existing pixels
// of bounds, with coverage from mask.
func (r *Raster) drawBehind(bounds image.Rectangle, mask *image.Alpha) {
	sr, sg, sb, sa := uint32(r.stroke.R), uint32(r.stroke.G), uint32(r.stroke.B), uint32(r.stroke.A)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			m := uint32(mask.AlphaAt(x-bounds.Min.X, y-bounds.Min.Y).A)
			if m == 0 {
				continue
			}
			i := r.img.PixOffset(x, y)
			d := r.img.Pix[i : i+4 : i+4]
			free := 255 - uint32(d[3])
			if free == 0 {
				continue
			}
			// Premultiplied source alpha scaled by the free alpha.
			a := sa * m / 255 * free / 255
			d[0] += uint8(sr * a / 255)
			d[1] += uint8(sg * a / 255)
			d[2] += uint8(sb * a / 255)
			d[3] += uint8(a)
		}
	}
}

// Line strokes a single segment.
func (r *Raster) Line(x0, y0, x1, y1 float64) {
	r.BeginPath()
	r.MoveTo(x0, y0)
	r.LineTo(x1, y1)
	r.Stroke()
}

// FillRect fills a rectangle with c, on top of existing pixels.
func (r *Raster) FillRect(rect image.Rectangle, c color.Color) {
	draw.Draw(r.img, rect, image.NewUniform(c), image.Point{}, draw.Over)
}

// Text draws s with its baseline starting at (x, y).
func (r *Raster) Text(x, y float64, s string, c color.Color) {
	d := font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)},
	}
	d.DrawString(s)
}

// TextWidth returns the width in pixels of s as drawn by Text.
func TextWidth(s string) float64 {
	return float64(font.MeasureString(basicfont.Face7x13, s)) / 64
}

// A Layer is an image composited by Flatten.
type Layer struct {
	Image   image.Image
	Opacity float64
}

// Flatten draws layers onto dst in order, each scaled by its opacity.
func Flatten(dst draw.Image, layers ...Layer) {
	for _, l := range layers {
		if l.Image == nil || l.Opacity <= 0 {
			continue
		}
		a := uint8(math.Round(255 * math.Min(1, l.Opacity)))
		b := l.Image.Bounds()
		draw.DrawMask(dst, b, l.Image, b.Min, image.NewUniform(color.Alpha{a}), image.Point{}, draw.Over)
	}
}
