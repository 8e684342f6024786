// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package parallel draws datasets as parallel coordinates.
//
// An Engine owns the axes of a plot: which columns are shown, in what
// order, which are inverted, and the brush on each. It turns brushes
// into a filter and a selection on the dataset, and draws the selected
// rows onto a foreground canvas a few batches per frame, abandoning a
// render as soon as the selection changes. Hovered rows are drawn on a
// separate highlight canvas.
//
// All Engine methods must be called on the engine's loop.
package parallel

import (
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"sort"

	"github.com/facebookresearch/hiplot-sub000/canvas"
	"github.com/facebookresearch/hiplot-sub000/datapoint"
	"github.com/facebookresearch/hiplot-sub000/dataset"
	"github.com/facebookresearch/hiplot-sub000/infer"
	"github.com/facebookresearch/hiplot-sub000/internal/loop"
	"github.com/facebookresearch/hiplot-sub000/menu"
	"github.com/facebookresearch/hiplot-sub000/scales"
)

// Persisted keys.
const (
	HeightKey = "height"
	OrderKey  = "order"
	HideKey   = "hide"
	InvertKey = "invert"
)

// RestoreLabel is the context menu item that shows a hidden axis.
const RestoreLabel = "Restore in Parallel Plot"

// ColorFunc returns the color of a row's line at opacity alpha.
type ColorFunc func(row *datapoint.Datapoint, alpha float64) color.Color

// axis is the state of one visible column.
type axis struct {
	x     float64
	scale scales.Scale
	brush *[2]float64
}

type dragState struct {
	col           string
	pos           float64
	moved         bool
	pendingDelete bool
}

// Engine is a parallel coordinates plot.
type Engine struct {
	cfg     Config
	log     *slog.Logger
	loop    *loop.Loop
	ds      *dataset.Dataset
	fg, hl  canvas.Context
	menu    *menu.Registry
	owner   menu.Owner
	metrics *metrics

	width, height int

	dims     []string // visible columns, in order
	order    []string
	hidden   map[string]bool
	inverted map[string]bool
	axes     map[string]*axis
	errs     map[string]error
	drag     *dragState

	color ColorFunc

	gen     loop.Generation
	drawing uint64
	batch   int

	live           *loop.Throttle
	notifyDebounce *loop.Debounce
	resizeDebounce *loop.Debounce
	pendingSize    [2]int

	onRenderDone   func(gen uint64)
	onBrushExtents func(map[string]scales.DomainRange)
	onBatch        func(gen uint64, n int)

	unsubscribe func()
}

// New returns an Engine that shows ds on the fg and hl canvases. reg
// may be nil.
func New(cfg Config, l *loop.Loop, ds *dataset.Dataset, fg, hl canvas.Context, reg *menu.Registry) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("parallel: %w", err)
	}
	lg := cfg.Logger
	if lg == nil {
		lg = slog.Default()
	}
	e := &Engine{
		cfg:      cfg,
		log:      lg,
		loop:     l,
		ds:       ds,
		fg:       fg,
		hl:       hl,
		menu:     reg,
		owner:    menu.NewOwner(),
		metrics:  newMetrics(cfg.Registerer),
		width:    cfg.Width,
		height:   cfg.Height,
		hidden:   map[string]bool{},
		inverted: map[string]bool{},
		axes:     map[string]*axis{},
		errs:     map[string]error{},
		batch:    cfg.InitialBatch,
		color: func(_ *datapoint.Datapoint, alpha float64) color.Color {
			return color.NRGBA{0, 0, 0, uint8(math.Round(255 * alpha))}
		},
	}
	e.loadState()

	e.live = loop.NewThrottle(l, cfg.LiveThrottle, e.brushChanged)
	e.notifyDebounce = loop.NewDebounce(l, cfg.NotifyDebounce, e.sendBrushExtents)
	e.resizeDebounce = loop.NewDebounce(l, cfg.ResizeDebounce, func() {
		e.SetSize(e.pendingSize[0], e.pendingSize[1])
	})

	if reg != nil {
		reg.AddCallback(e.owner, e.columnMenu)
	}
	e.unsubscribe = ds.Subscribe(e.datasetChanged)
	e.rebuild()
	if len(e.order) == 0 {
		e.order = append([]string(nil), e.dims...)
	}
	e.Render()
	return e, nil
}

// Close detaches e from its dataset, menu and loop.
func (e *Engine) Close() {
	e.unsubscribe()
	if e.menu != nil {
		e.menu.RemoveCallbacks(e.owner)
	}
	e.live.Cancel()
	e.notifyDebounce.Cancel()
	e.resizeDebounce.Cancel()
	e.gen.Next()
}

func (e *Engine) loadState() {
	e.order = append([]string(nil), e.cfg.Order...)
	hide, invert := e.cfg.Hide, e.cfg.Invert
	if s := e.cfg.Store; s != nil {
		e.get(HeightKey, &e.height)
		e.get(OrderKey, &e.order)
		e.get(HideKey, &hide)
		e.get(InvertKey, &invert)
	}
	for _, c := range hide {
		e.hidden[c] = true
	}
	for _, c := range invert {
		e.inverted[c] = true
	}
}

func (e *Engine) get(key string, dst any) {
	if _, err := e.cfg.Store.Get(key, dst); err != nil {
		e.log.Warn("ignoring persisted plot state", "key", key, "err", err)
	}
}

func (e *Engine) persist(key string, v any) {
	if e.cfg.Store == nil {
		return
	}
	if err := e.cfg.Store.Set(key, v); err != nil {
		e.log.Error("persisting plot state", "key", key, "err", err)
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		if v {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// plotSize returns the size of the area inside the margins.
func (e *Engine) plotSize() (w, h float64) {
	m := e.cfg.Margins
	return float64(e.width) - m.Left - m.Right, float64(e.height) - m.Top - m.Bottom
}

// PlotSize returns the size of the drawing area, which is the size of
// the canvases.
func (e *Engine) PlotSize() (w, h float64) {
	return e.plotSize()
}

// Size returns the size of the plot, margins included.
func (e *Engine) Size() (w, h int) {
	return e.width, e.height
}

// forceHidden reports whether a column cannot be shown at all.
func (e *Engine) forceHidden(pd *infer.ParamDef) bool {
	return pd == nil ||
		len(pd.SpecialValues)+len(pd.DistinctValues) <= 1 ||
		(pd.Type == datapoint.Categorical && len(pd.DistinctValues) > e.cfg.CategoricalMaximumValues)
}

// rebuild recomputes the visible columns and their scales from the
// dataset's column definitions. Brushes are cleared.
func (e *Engine) rebuild() {
	params := e.ds.Params()
	unfiltered := e.ds.ParamsUnfiltered()

	rank := make(map[string]int, len(e.order))
	for i, c := range e.order {
		if _, ok := rank[c]; !ok {
			rank[c] = i
		}
	}
	var dims []string
	for c := range params {
		if e.hidden[c] || e.forceHidden(unfiltered[c]) {
			continue
		}
		dims = append(dims, c)
	}
	sort.Slice(dims, func(i, j int) bool {
		ri, ok := rank[dims[i]]
		if !ok {
			ri = len(e.order)
		}
		rj, ok := rank[dims[j]]
		if !ok {
			rj = len(e.order)
		}
		if ri != rj {
			return ri < rj
		}
		return dims[i] < dims[j]
	})

	e.axes = map[string]*axis{}
	e.errs = map[string]error{}
	e.dims = e.dims[:0]
	for _, c := range dims {
		if e.addAxis(c, params[c]) {
			e.dims = append(e.dims, c)
		}
	}
	e.layout()
}

// addAxis builds the axis of column c. A column whose scale cannot be
// built is dropped and its error recorded.
func (e *Engine) addAxis(c string, pd *infer.ParamDef) bool {
	if pd == nil {
		return false
	}
	s, err := scales.NewWithOptions(pd, scales.Options{OutlierBand: e.cfg.OutlierBand})
	if err != nil {
		e.errs[c] = err
		e.log.Error("dropping axis", "column", c, "err", err)
		return false
	}
	e.axes[c] = &axis{scale: s}
	return true
}

// layout positions the axes and sets the scale ranges.
func (e *Engine) layout() {
	w, h := e.plotSize()
	lo, hi := e.cfg.AxisPadding, w-e.cfg.AxisPadding
	for i, c := range e.dims {
		ax := e.axes[c]
		if len(e.dims) == 1 {
			ax.x = (lo + hi) / 2
		} else {
			ax.x = lo + float64(i)*(hi-lo)/float64(len(e.dims)-1)
		}
		if e.inverted[c] {
			ax.scale.SetRange(0, h)
		} else {
			ax.scale.SetRange(h, 0)
		}
	}
}

// position returns the x position of column c, following a drag.
func (e *Engine) position(c string) float64 {
	if e.drag != nil && e.drag.col == c {
		return e.drag.pos
	}
	return e.axes[c].x
}

func (e *Engine) datasetChanged(c dataset.Change) {
	if c&(dataset.Filtered|dataset.Params) != 0 {
		hadBrush := e.anyBrush()
		e.rebuild()
		e.live.Cancel()
		e.notifyDebounce.Call()
		if c&dataset.Filtered == 0 && hadBrush {
			// The brushes are gone, so is their selection.
			e.ds.SetSelected(e.ds.Filtered(), nil)
			return
		}
		e.Render()
		return
	}
	if c&dataset.Selected != 0 {
		e.Render()
	}
	if c&dataset.Highlighted != 0 {
		e.drawHighlighted()
	}
}

// Dims returns the visible columns in order.
func (e *Engine) Dims() []string {
	return append([]string(nil), e.dims...)
}

// Scale returns the scale of visible column c, or nil.
func (e *Engine) Scale(c string) scales.Scale {
	if ax, ok := e.axes[c]; ok {
		return ax.scale
	}
	return nil
}

// ConfigErrors returns the columns dropped because their scale could
// not be built.
func (e *Engine) ConfigErrors() map[string]error {
	out := make(map[string]error, len(e.errs))
	for k, v := range e.errs {
		out[k] = v
	}
	return out
}

// Axis describes a visible axis.
type Axis struct {
	Name     string
	Label    string
	X        float64
	Type     datapoint.ParamType
	Inverted bool

	// Brush is the brushed pixel interval, or nil.
	Brush *[2]float64

	// PendingDelete is set while the axis is dragged close enough to
	// an edge to be hidden when dropped.
	PendingDelete bool

	Ticks []scales.Tick
}

// Axes returns the visible axes in order.
func (e *Engine) Axes() []Axis {
	nticks := 1 + e.height/50
	out := make([]Axis, len(e.dims))
	for i, c := range e.dims {
		ax := e.axes[c]
		out[i] = Axis{
			Name:     c,
			Label:    label(c, ax.scale),
			X:        e.position(c),
			Type:     ax.scale.Type(),
			Inverted: e.inverted[c],
			Ticks:    ax.scale.Ticks(nticks),
		}
		if ax.brush != nil {
			b := *ax.brush
			out[i].Brush = &b
		}
		if e.drag != nil && e.drag.col == c {
			out[i].PendingDelete = e.drag.pendingDelete
		}
	}
	return out
}

// SetColorFunc sets the line color of rows and redraws.
func (e *Engine) SetColorFunc(fn ColorFunc) {
	e.color = fn
	e.Render()
	e.drawHighlighted()
}

// OnRenderDone sets a function called when a render finishes drawing
// every selected row.
func (e *Engine) OnRenderDone(fn func(gen uint64)) {
	e.onRenderDone = fn
}

// OnBrushExtents sets a function called with the domain ranges of the
// brushes once brushing settles.
func (e *Engine) OnBrushExtents(fn func(map[string]scales.DomainRange)) {
	e.onBrushExtents = fn
}

// OnBatch sets a function called after each batch of rows is drawn.
func (e *Engine) OnBatch(fn func(gen uint64, n int)) {
	e.onBatch = fn
}

// ForegroundOpacity returns the opacity at which the host should show
// the foreground canvas.
func (e *Engine) ForegroundOpacity() float64 {
	switch {
	case e.drag != nil:
		return 0.35
	case len(e.ds.Highlighted()) > 0:
		return 0.25
	}
	return 1
}

// Resize changes the plot size once resizing settles.
func (e *Engine) Resize(width, height int) {
	e.pendingSize = [2]int{width, height}
	e.resizeDebounce.Call()
}

// SetSize changes the plot size now.
func (e *Engine) SetSize(width, height int) {
	if width == e.width && height == e.height {
		return
	}
	if width <= 0 || float64(height) <= e.cfg.Margins.Top+e.cfg.Margins.Bottom {
		e.log.Warn("ignoring plot size", "width", width, "height", height)
		return
	}
	_, oldH := e.plotSize()
	e.width, e.height = width, height
	_, newH := e.plotSize()
	for _, c := range e.dims {
		if b := e.axes[c].brush; b != nil {
			b[0] *= newH / oldH
			b[1] *= newH / oldH
		}
	}
	e.layout()
	e.persist(HeightKey, e.height)
	e.Render()
	e.drawHighlighted()
}

// label is the title of an axis: the column name, with the number of
// values for categorical columns.
func label(c string, s scales.Scale) string {
	if s.Type() == datapoint.Categorical {
		return fmt.Sprintf("%s (%d)", c, s.NumValues())
	}
	return c
}
