// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parallel

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/facebookresearch/hiplot-sub000/datapoint"
	"github.com/facebookresearch/hiplot-sub000/pstate"
)

// Margins surround the plot area.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// Config configures an Engine.
type Config struct {
	// Width and Height are the size of the whole plot, margins
	// included. A persisted height takes precedence over Height.
	Width, Height int
	Margins       Margins

	// AxisPadding is the distance from the plot edges to the outer
	// axes.
	AxisPadding float64

	// Categorical columns with more distinct values are not shown.
	CategoricalMaximumValues int

	// Default column order, hidden columns and inverted columns, used
	// when nothing is persisted.
	Order, Hide, Invert []string

	LiveThrottle   time.Duration
	NotifyDebounce time.Duration
	ResizeDebounce time.Duration

	// FrameBudget is the target duration of each render frame.
	// Batch sizes adapt to it within [MinBatch, MaxBatch].
	FrameBudget                      time.Duration
	MinBatch, MaxBatch, InitialBatch int

	// Dropping a dragged axis closer than EdgeThreshold pixels to
	// either plot edge hides it.
	EdgeThreshold float64

	OutlierBand float64

	// Line opacity is min(OpacityScale/n^OpacityExponent, 1) for n
	// rows.
	OpacityScale, OpacityExponent float64

	// Seed seeds the row shuffle.
	Seed int64

	// Asserts enables checking brush filters against pixel positions.
	Asserts bool

	// Store persists height, order, hidden and inverted axes. It may
	// be nil.
	Store pstate.Store

	Logger *slog.Logger

	// Registerer receives the engine metrics. It may be nil.
	Registerer prometheus.Registerer
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Width:                    1000,
		Height:                   600,
		Margins:                  Margins{Top: 75, Right: 0, Bottom: 10, Left: 0},
		AxisPadding:              40,
		CategoricalMaximumValues: 80,
		LiveThrottle:             75 * time.Millisecond,
		NotifyDebounce:           400 * time.Millisecond,
		ResizeDebounce:           100 * time.Millisecond,
		FrameBudget:              30 * time.Millisecond,
		MinBatch:                 8,
		MaxBatch:                 300,
		InitialBatch:             10,
		EdgeThreshold:            12,
		OutlierBand:              30,
		OpacityScale:             2,
		OpacityExponent:          0.3,
	}
}

// Validate checks c.
func (c *Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("plot size %dx%d must be positive", c.Width, c.Height)
	case float64(c.Height) <= c.Margins.Top+c.Margins.Bottom:
		return errors.New("vertical margins exceed plot height")
	case c.MinBatch < 1 || c.MaxBatch < c.MinBatch:
		return fmt.Errorf("bad batch bounds [%d, %d]", c.MinBatch, c.MaxBatch)
	case c.InitialBatch < 1:
		return errors.New("initial batch must be positive")
	case c.FrameBudget <= 0:
		return errors.New("frame budget must be positive")
	case c.CategoricalMaximumValues < 1:
		return errors.New("categorical maximum values must be positive")
	case c.OpacityScale <= 0:
		return errors.New("opacity scale must be positive")
	}
	return nil
}

// ApplyHints derives the default order, hidden and inverted columns
// from column hints. Columns with a negative order are hidden. Lists
// already set in c are kept.
func (c *Config) ApplyHints(hints map[string]*datapoint.ValueDef) {
	type ranked struct {
		col  string
		rank int
	}
	var order []ranked
	var hide, invert []string
	for col, h := range hints {
		if h == nil {
			continue
		}
		if h.ParallelPlotOrder != nil {
			if r := *h.ParallelPlotOrder; r < 0 {
				hide = append(hide, col)
			} else {
				order = append(order, ranked{col, r})
			}
		}
		if h.ParallelPlotInverted != nil && *h.ParallelPlotInverted {
			invert = append(invert, col)
		}
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].rank != order[j].rank {
			return order[i].rank < order[j].rank
		}
		return order[i].col < order[j].col
	})
	if c.Order == nil && len(order) > 0 {
		for _, r := range order {
			c.Order = append(c.Order, r.col)
		}
	}
	if c.Hide == nil {
		sort.Strings(hide)
		c.Hide = hide
	}
	if c.Invert == nil {
		sort.Strings(invert)
		c.Invert = invert
	}
}

// DisplayData are the parallel plot settings an experiment may carry
// under the "parallel_plot" display name.
type DisplayData struct {
	Order                    []string `json:"order,omitempty"`
	Hide                     []string `json:"hide,omitempty"`
	Invert                   []string `json:"invert,omitempty"`
	Height                   int      `json:"height,omitempty"`
	CategoricalMaximumValues int      `json:"categoricalMaximumValues,omitempty"`
}

// DisplayName is the key of DisplayData in an experiment.
const DisplayName = "parallel_plot"

// ApplyDisplay overrides c with the settings present in d.
func (c *Config) ApplyDisplay(d DisplayData) {
	if d.Order != nil {
		c.Order = d.Order
	}
	if d.Hide != nil {
		c.Hide = d.Hide
	}
	if d.Invert != nil {
		c.Invert = d.Invert
	}
	if d.Height > 0 {
		c.Height = d.Height
	}
	if d.CategoricalMaximumValues > 0 {
		c.CategoricalMaximumValues = d.CategoricalMaximumValues
	}
}

// metrics are the render counters of an Engine.
type metrics struct {
	rowsDrawn  prometheus.Counter
	frames     prometheus.Counter
	aborted    prometheus.Counter
	mismatches prometheus.Counter
	batchSize  prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		rowsDrawn: f.NewCounter(prometheus.CounterOpts{
			Name: "hiplot_parallel_rows_drawn_total",
			Help: "Polylines drawn on the foreground layer",
		}),
		frames: f.NewCounter(prometheus.CounterOpts{
			Name: "hiplot_parallel_render_frames_total",
			Help: "Render frames that drew rows",
		}),
		aborted: f.NewCounter(prometheus.CounterOpts{
			Name: "hiplot_parallel_renders_aborted_total",
			Help: "Renders superseded before they finished",
		}),
		mismatches: f.NewCounter(prometheus.CounterOpts{
			Name: "hiplot_parallel_brush_mismatches_total",
			Help: "Brush selections that disagree with their filter by more than a pixel",
		}),
		batchSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "hiplot_parallel_render_batch_rows",
			Help:    "Rows drawn per render frame",
			Buckets: []float64{8, 16, 32, 64, 128, 300},
		}),
	}
}
