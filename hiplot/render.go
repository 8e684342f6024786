// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/image/draw"

	"github.com/facebookresearch/hiplot-sub000/canvas"
	"github.com/facebookresearch/hiplot-sub000/datapoint"
	"github.com/facebookresearch/hiplot-sub000/internal/loop"
	"github.com/facebookresearch/hiplot-sub000/menu"
	"github.com/facebookresearch/hiplot-sub000/parallel"
	"github.com/facebookresearch/hiplot-sub000/session"
)

// frameInterval is the spacing of render frames.
const frameInterval = 16 * time.Millisecond

type renderOptions struct {
	out      string
	width    int
	height   int
	colorby  string
	colormap string
	asserts  bool
	watch    bool
	brushes  []string
	filters  []string
}

// apply overrides the config file with the flags that were set.
func (ro *renderOptions) apply(cmd *cobra.Command, c *fileConfig) {
	f := cmd.Flags()
	if f.Changed("width") {
		c.Width = ro.width
	}
	if f.Changed("height") {
		c.Height = ro.height
	}
	if f.Changed("colorby") {
		c.Colorby = ro.colorby
	}
	if f.Changed("colormap") {
		c.Colormap = ro.colormap
	}
	if f.Changed("asserts") {
		c.Asserts = ro.asserts
	}
}

func newRenderCmd(o *options) *cobra.Command {
	ro := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render [inputs...]",
		Short: "Draw a parallel coordinates plot as a PNG image",
		Long: `Render draws the rows of the inputs as a parallel coordinates plot.
Brushed rows are drawn in color and the others are left out. A brush
gives a range of column values, such as loss=0:0.5 or optimizer=adam:sgd.

With --watch, render keeps running and redraws the plot whenever an
input file changes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ro.out == "" {
				return errors.New("no output file; use -o")
			}
			e, err := o.open(cmd)
			if err != nil {
				return err
			}
			ro.apply(cmd, e.cfg)
			brushes, err := e.cfg.brushes(ro.brushes)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			reg := &menu.Registry{}
			s, l, err := e.load(ctx, args, cmd.InOrStdin(), ro.filters, reg)
			if err != nil {
				return err
			}
			defer s.Close()
			p, err := newPlot(e, s, l, reg, brushes, ro.out)
			if err != nil {
				return err
			}
			defer p.close()

			if ro.watch {
				err = p.watch(ctx, args)
			} else {
				err = p.once(ctx)
			}
			if err != nil {
				return err
			}
			return e.save()
		},
	}
	f := cmd.Flags()
	f.StringVarP(&ro.out, "output", "o", "", "write the PNG image to `file`")
	f.IntVar(&ro.width, "width", 0, "image width in pixels")
	f.IntVar(&ro.height, "height", 0, "image height in pixels")
	f.StringVar(&ro.colorby, "colorby", "", "color rows by `column`")
	f.StringVar(&ro.colormap, "colormap", "", "default colormap of numeric columns, such as interpolateViridis")
	f.BoolVar(&ro.asserts, "asserts", false, "check brushed selections against their filters")
	f.BoolVarP(&ro.watch, "watch", "w", false, "redraw whenever an input changes")
	f.StringArrayVar(&ro.brushes, "brush", nil, "brush `col=lo:hi` (repeatable)")
	f.StringArrayVarP(&ro.filters, "filter", "f", nil, "plot only rows matching the JSON `filter` (repeatable)")
	return cmd
}

// A plot is a headless parallel plot drawn into images.
type plot struct {
	log     *slog.Logger
	sess    *session.Session
	loop    *loop.Loop
	eng     *parallel.Engine
	metrics *prometheus.Registry
	fg, hl  *canvas.Raster
	margins parallel.Margins
	brushes []brushRange
	out     string

	unsubscribe func()
}

func newPlot(e *env, s *session.Session, l *loop.Loop, reg *menu.Registry, brushes []brushRange, out string) (*plot, error) {
	exp, err := s.Experiment()
	if err != nil {
		return nil, err
	}
	cfg := e.plotConfig(exp)
	pw := cfg.Width - int(cfg.Margins.Left+cfg.Margins.Right)
	ph := cfg.Height - int(cfg.Margins.Top+cfg.Margins.Bottom)
	if pw <= 0 || ph <= 0 {
		return nil, fmt.Errorf("plot size %dx%d leaves no room inside the margins", cfg.Width, cfg.Height)
	}

	p := &plot{
		log:     e.log,
		sess:    s,
		loop:    l,
		metrics: prometheus.NewRegistry(),
		fg:      canvas.NewRaster(pw, ph),
		hl:      canvas.NewRaster(pw, ph),
		margins: cfg.Margins,
		brushes: brushes,
		out:     out,
	}
	p.fg.SetComposite(canvas.DestinationOver)
	cfg.Registerer = p.metrics

	p.eng, err = parallel.New(cfg, l, s.Dataset(), p.fg, p.hl, reg)
	if err != nil {
		return nil, err
	}
	for col, err := range p.eng.ConfigErrors() {
		p.log.Warn("column not shown", "column", col, "err", err)
	}
	p.eng.SetColorFunc(s.Color)
	if err := p.brush(); err != nil {
		p.eng.Close()
		return nil, err
	}
	p.unsubscribe = s.Subscribe(p.sessionChanged)
	return p, nil
}

// plotConfig builds the engine settings. The config file takes
// precedence over the experiment's display data, which takes
// precedence over its column hints.
func (e *env) plotConfig(exp *datapoint.Experiment) parallel.Config {
	cfg := parallel.DefaultConfig()
	cfg.Logger = e.log
	cfg.Asserts = e.cfg.Asserts

	var d parallel.DisplayData
	if ok, err := exp.Display(parallel.DisplayName, &d); err != nil {
		e.log.Warn("ignoring display data", "err", err)
	} else if ok {
		cfg.ApplyDisplay(d)
	}
	c := e.cfg
	if c.Width > 0 {
		cfg.Width = c.Width
	}
	if c.Order != nil {
		cfg.Order = c.Order
	}
	if c.Hide != nil {
		cfg.Hide = c.Hide
	}
	if c.Invert != nil {
		cfg.Invert = c.Invert
	}
	cfg.ApplyHints(exp.ParametersDefinition)

	// The engine prefers a persisted height. The canvases are sized
	// up front, so settle on one height here.
	store := e.store.Children(parallel.DisplayName)
	if c.Height > 0 {
		cfg.Height = c.Height
		if err := store.Set(parallel.HeightKey, c.Height); err != nil {
			e.log.Error("persisting plot height", "err", err)
		}
	} else if _, err := store.Get(parallel.HeightKey, &cfg.Height); err != nil {
		e.log.Warn("ignoring persisted plot height", "err", err)
	}
	cfg.Store = store
	return cfg
}

func (p *plot) close() {
	if p.unsubscribe != nil {
		p.unsubscribe()
	}
	p.eng.Close()
}

// sessionChanged recolors the rows and brushes a freshly loaded
// experiment again.
func (p *plot) sessionChanged() {
	switch p.sess.Status() {
	case session.StatusLoaded:
		if err := p.brush(); err != nil {
			p.log.Error("brushing", "err", err)
		}
		p.eng.SetColorFunc(p.sess.Color)
	case session.StatusError:
		p.log.Error("loading inputs", "err", p.sess.Err())
	}
}

// brush applies the configured brushes, converting column values to
// pixels on each axis.
func (p *plot) brush() error {
	for _, b := range p.brushes {
		sc := p.eng.Scale(b.col)
		if sc == nil {
			return fmt.Errorf("brush %s: no such axis", b.col)
		}
		y0, y1 := sc.Map(b.lo), sc.Map(b.hi)
		if math.IsNaN(y0) || math.IsNaN(y1) {
			return fmt.Errorf("brush %s: %s:%s is not on the axis", b.col, b.lo, b.hi)
		}
		// Widen by half a pixel so rows at either end are selected.
		ext := [2]float64{math.Min(y0, y1) - 0.5, math.Max(y0, y1) + 0.5}
		p.eng.Brush(b.col, &ext)
	}
	if len(p.brushes) > 0 {
		p.log.Debug("brushed", "axes", len(p.brushes), "selected", len(p.sess.Dataset().Selected()))
	}
	return nil
}

// once draws the plot, waits for the render to finish and writes the
// image.
func (p *plot) once(ctx context.Context) error {
	if err := drain(ctx, p.loop); err != nil {
		return err
	}
	p.logMetrics()
	return p.write()
}

// drain runs l until no work is left.
func drain(ctx context.Context, l *loop.Loop) error {
	for l.Pending() {
		if l.Tick() > 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(frameInterval):
		}
	}
	return ctx.Err()
}

// watch writes the image after every render until ctx is done. Input
// files are reloaded when they change; a reload that is superseded by
// a later change is dropped.
func (p *plot) watch(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return errors.New("--watch needs input files")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Editors often replace files, so watch the directories.
	watched := map[string]bool{}
	dirs := map[string]bool{}
	for _, path := range paths {
		if path == "-" {
			return errors.New("cannot watch standard input")
		}
		path = filepath.Clean(path)
		watched[path] = true
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return err
		}
	}

	p.eng.OnRenderDone(func(uint64) {
		if err := p.write(); err != nil {
			p.log.Error("writing image", "err", err)
		}
	})
	if !p.eng.Drawing() {
		if err := p.write(); err != nil {
			return err
		}
	}

	fetch := func(ctx context.Context) (*datapoint.Experiment, error) {
		return loadInputs(ctx, paths, nil)
	}
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !watched[filepath.Clean(ev.Name)] || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				p.log.Debug("input changed", "path", ev.Name)
				p.sess.Load(ctx, fetch)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				p.log.Warn("watching inputs", "err", err)
			case <-ctx.Done():
				return
			}
		}
	}()

	err = p.loop.Run(ctx, frameInterval)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// write encodes the current plot to the output file.
func (p *plot) write() error {
	f, err := os.Create(p.out)
	if err != nil {
		return err
	}
	if err := png.Encode(f, p.image()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	p.log.Info("wrote plot", "path", p.out, "rows", len(p.sess.Dataset().Selected()))
	return nil
}

var (
	background = color.White
	axisColor  = color.NRGBA{0, 0, 0, 255}
	brushColor = color.NRGBA{128, 128, 128, 64}
)

// image composes the layers and the axes into one image.
func (p *plot) image() *image.RGBA {
	w, h := p.eng.Size()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	pw, ph := p.fg.Size()
	lines := image.NewRGBA(image.Rect(0, 0, pw, ph))
	canvas.Flatten(lines,
		canvas.Layer{Image: p.fg.Image(), Opacity: p.eng.ForegroundOpacity()},
		canvas.Layer{Image: p.hl.Image(), Opacity: 1},
	)
	left, top := int(p.margins.Left), int(p.margins.Top)
	draw.Draw(img, lines.Bounds().Add(image.Pt(left, top)), lines, image.Point{}, draw.Over)

	axes := canvas.NewRaster(w, h)
	drawAxes(axes, p.eng.Axes(), p.margins.Left, p.margins.Top, float64(ph))
	canvas.Flatten(img, canvas.Layer{Image: axes.Image(), Opacity: 1})
	return img
}

// drawAxes draws each axis with its ticks, brush and label. Axis
// positions are relative to the plot area at (left, top).
func drawAxes(r *canvas.Raster, axes []parallel.Axis, left, top, height float64) {
	r.SetStroke(axisColor, 1)
	for _, ax := range axes {
		x := math.Round(left+ax.X) + 0.5
		if ax.Brush != nil {
			b := ax.Brush
			rect := image.Rect(int(x-8), int(top+b[0]), int(x+8), int(math.Ceil(top+b[1])))
			r.FillRect(rect, brushColor)
		}
		r.Line(x, top, x, top+height)
		for _, t := range ax.Ticks {
			y := math.Round(top+t.Pos) + 0.5
			r.Line(x-4, y, x, y)
			r.Text(x+4, y+4, t.Label, axisColor)
		}
		r.Text(x-canvas.TextWidth(ax.Label)/2, top-12, ax.Label, axisColor)
	}
}

// logMetrics logs the render counters.
func (p *plot) logMetrics() {
	mfs, err := p.metrics.Gather()
	if err != nil {
		p.log.Warn("gathering render metrics", "err", err)
		return
	}
	var attrs []any
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				attrs = append(attrs, mf.GetName(), c.GetValue())
			}
		}
	}
	p.log.Debug("render done", attrs...)
}
