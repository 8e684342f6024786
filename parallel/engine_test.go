// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parallel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/color"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facebookresearch/hiplot-sub000/canvas"
	"github.com/facebookresearch/hiplot-sub000/datapoint"
	"github.com/facebookresearch/hiplot-sub000/dataset"
	"github.com/facebookresearch/hiplot-sub000/filter"
	"github.com/facebookresearch/hiplot-sub000/internal/loop"
	"github.com/facebookresearch/hiplot-sub000/menu"
	"github.com/facebookresearch/hiplot-sub000/pstate"
	"github.com/facebookresearch/hiplot-sub000/scales"
)

type fixture struct {
	clock  *loop.ManualClock
	loop   *loop.Loop
	ds     *dataset.Dataset
	fg, hl *canvas.Recorder
	menu   *menu.Registry
	reg    *prometheus.Registry
	store  *pstate.Memory
	e      *Engine
}

func tenRecords() []map[string]any {
	var recs []map[string]any
	for i := 0; i < 10; i++ {
		recs = append(recs, map[string]any{
			"uid":  fmt.Sprint("r", i),
			"x":    float64(i),
			"y":    float64(100 - 3*i),
			"kind": []string{"a", "b"}[i%2],
		})
	}
	return recs
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Order = []string{"x", "y", "kind"}
	cfg.Hide = []string{"uid"}
	return cfg
}

func newFixture(t *testing.T, recs []map[string]any, dcfg dataset.Config, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		clock: loop.NewManualClock(time.Unix(0, 0)),
		menu:  &menu.Registry{},
		reg:   prometheus.NewRegistry(),
		store: pstate.NewMemory(),
	}
	f.loop = loop.New(f.clock)
	ds, err := dataset.New(dcfg)
	require.NoError(t, err)
	require.NoError(t, ds.Load(datapoint.FromRecords(recs).Datapoints, nil))
	f.ds = ds

	if cfg.Store == nil {
		cfg.Store = f.store
	}
	cfg.Registerer = f.reg
	f.fg = canvas.NewRecorder(cfg.Width, cfg.Height)
	f.hl = canvas.NewRecorder(cfg.Width, cfg.Height)
	f.e, err = New(cfg, f.loop, ds, f.fg, f.hl, f.menu)
	require.NoError(t, err)
	t.Cleanup(f.e.Close)
	return f
}

// settle lets every throttle and debounce fire and finishes rendering.
func (f *fixture) settle() {
	f.clock.Advance(time.Second)
	f.loop.Flush()
}

func (f *fixture) brushValues(t *testing.T, col string, lo, hi float64) {
	t.Helper()
	s := f.e.Scale(col)
	require.NotNil(t, s, col)
	p0, p1 := s.Map(lo), s.Map(hi)
	ext := [2]float64{min(p0, p1) - 0.5, max(p0, p1) + 0.5}
	require.True(t, f.e.Brush(col, &ext))
	f.settle()
}

func TestLayout(t *testing.T) {
	f := newFixture(t, tenRecords(), dataset.DefaultConfig(), testConfig())
	assert.Equal(t, []string{"x", "y", "kind"}, f.e.Dims())

	axes := f.e.Axes()
	require.Len(t, axes, 3)
	for i, want := range []struct {
		name  string
		x     float64
		typ   datapoint.ParamType
		label string
	}{
		{"x", 40, datapoint.Numeric, "x"},
		{"y", 500, datapoint.Numeric, "y"},
		{"kind", 960, datapoint.Categorical, "kind (2)"},
	} {
		assert.Equal(t, want.name, axes[i].Name)
		assert.InDelta(t, want.x, axes[i].X, 1e-9, want.name)
		assert.Equal(t, want.typ, axes[i].Type, want.name)
		assert.Equal(t, want.label, axes[i].Label)
		assert.NotEmpty(t, axes[i].Ticks, want.name)
	}

	// y grows upward.
	r0, r1 := f.e.Scale("x").Range()
	assert.Equal(t, [2]float64{515, 0}, [2]float64{r0, r1})
	assert.NotContains(t, f.e.Dims(), "from_uid", "a column with a single value is never shown")
}

func TestSingleAxisCentered(t *testing.T) {
	cfg := testConfig()
	cfg.Hide = []string{"uid", "y", "kind"}
	f := newFixture(t, tenRecords(), dataset.DefaultConfig(), cfg)
	axes := f.e.Axes()
	require.Len(t, axes, 1)
	assert.InDelta(t, 500, axes[0].X, 1e-9)
}

func TestClickInverts(t *testing.T) {
	f := newFixture(t, tenRecords(), dataset.DefaultConfig(), testConfig())
	f.settle()
	ext := [2]float64{10, 100}
	f.e.Brush("y", &ext)
	f.settle()
	before := datapoint.UIDs(f.ds.Selected())

	require.True(t, f.e.DragStart("y"))
	assert.Equal(t, 0.35, f.e.ForegroundOpacity())
	f.e.DragEnd()
	f.settle()

	r0, r1 := f.e.Scale("y").Range()
	assert.Equal(t, [2]float64{0, 515}, [2]float64{r0, r1})
	ax := f.e.Axes()[1]
	assert.True(t, ax.Inverted)
	require.NotNil(t, ax.Brush)
	assert.Equal(t, [2]float64{415, 505}, *ax.Brush)
	assert.Equal(t, before, datapoint.UIDs(f.ds.Selected()), "the brush covers the same values")

	var inv []string
	ok, err := f.store.Get(InvertKey, &inv)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"y"}, inv)
	assert.Equal(t, 1.0, f.e.ForegroundOpacity())
}

func TestDragToEdgeHides(t *testing.T) {
	f := newFixture(t, tenRecords(), dataset.DefaultConfig(), testConfig())
	require.True(t, f.e.DragStart("kind"))
	f.e.DragMove(100)
	axes := f.e.Axes()
	assert.Equal(t, 1000.0, axes[2].X, "clamped to the plot")
	assert.True(t, axes[2].PendingDelete)
	f.e.DragEnd()

	assert.Equal(t, []string{"x", "y"}, f.e.Dims())
	var hide []string
	_, err := f.store.Get(HideKey, &hide)
	require.NoError(t, err)
	assert.Equal(t, []string{"kind", "uid"}, hide)

	assert.True(t, f.e.CanRestoreAxis("kind"))
	assert.False(t, f.e.CanRestoreAxis("x"), "visible")
	assert.False(t, f.e.CanRestoreAxis("from_uid"), "single value")
	assert.False(t, f.e.CanRestoreAxis("missing"))

	m := f.menu.Open("kind")
	require.NotNil(t, m.Find(RestoreLabel))
	assert.True(t, m.Invoke(RestoreLabel))
	assert.Equal(t, []string{"x", "y", "kind"}, f.e.Dims())
	assert.Nil(t, f.menu.Open("kind").Find(RestoreLabel))
}

func TestDragReorders(t *testing.T) {
	f := newFixture(t, tenRecords(), dataset.DefaultConfig(), testConfig())
	require.True(t, f.e.DragStart("x"))
	assert.False(t, f.e.DragStart("y"), "one drag at a time")
	f.e.DragMove(300)
	f.e.DragMove(300)
	assert.Equal(t, []string{"y", "x", "kind"}, f.e.Dims())
	mid := f.e.Axes()
	assert.False(t, mid[1].PendingDelete)
	assert.InDelta(t, 40, mid[0].X, 1e-9, "y moves into the vacated slot")
	assert.InDelta(t, 640, mid[1].X, 1e-9, "x follows the pointer")
	assert.InDelta(t, 960, mid[2].X, 1e-9)
	f.e.DragEnd()

	axes := f.e.Axes()
	for i, x := range []float64{40, 500, 960} {
		assert.InDelta(t, x, axes[i].X, 1e-9)
	}
	var order []string
	_, err := f.store.Get(OrderKey, &order)
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "x", "kind"}, order)
}

func TestRestoreAxisFailureKeepsHidden(t *testing.T) {
	store := pstate.NewMemory()
	require.NoError(t, store.Set(HideKey, []string{"uid", "x"}))
	dcfg := dataset.DefaultConfig()
	dcfg.Hints = map[string]*datapoint.ValueDef{"x": {Type: datapoint.NumericLog}}
	cfg := testConfig()
	cfg.Store = store
	f := newFixture(t, tenRecords(), dcfg, cfg)
	require.True(t, f.e.CanRestoreAxis("x"))

	assert.False(t, f.e.RestoreAxis("x"), "x contains 0 and has no log scale")
	assert.Equal(t, []string{"y", "kind"}, f.e.Dims())
	var hide []string
	_, err := store.Get(HideKey, &hide)
	require.NoError(t, err)
	assert.Equal(t, []string{"uid", "x"}, hide)
	assert.ErrorIs(t, f.e.ConfigErrors()["x"], scales.ErrLogDomain)
}

func TestPersistedState(t *testing.T) {
	store := pstate.NewMemory()
	require.NoError(t, store.Set(HeightKey, 400))
	require.NoError(t, store.Set(OrderKey, []string{"kind", "x"}))
	require.NoError(t, store.Set(HideKey, []string{"uid"}))
	require.NoError(t, store.Set(InvertKey, []string{"x"}))
	cfg := testConfig()
	cfg.Store = store
	f := newFixture(t, tenRecords(), dataset.DefaultConfig(), cfg)

	_, h := f.e.Size()
	assert.Equal(t, 400, h)
	assert.Equal(t, []string{"kind", "x", "y"}, f.e.Dims(), "unknown columns go last")
	r0, r1 := f.e.Scale("x").Range()
	assert.Equal(t, [2]float64{0, 315}, [2]float64{r0, r1})
}

func TestBrushSelects(t *testing.T) {
	f := newFixture(t, tenRecords(), dataset.DefaultConfig(), testConfig())
	var extents []map[string]scales.DomainRange
	f.e.OnBrushExtents(func(m map[string]scales.DomainRange) { extents = append(extents, m) })
	f.settle()

	f.brushValues(t, "x", 2, 5)
	assert.Equal(t, []string{"r2", "r3", "r4", "r5"}, datapoint.UIDs(f.ds.Selected()))
	sf := f.ds.SelectedFilter()
	require.NotNil(t, sf)
	rows, err := filter.Apply(f.ds.Filtered(), sf)
	require.NoError(t, err)
	assert.Equal(t, datapoint.UIDs(f.ds.Selected()), datapoint.UIDs(rows))

	require.Len(t, extents, 1)
	dr := extents[0]["x"]
	assert.InDelta(t, 2, dr.Min, 0.01)
	assert.InDelta(t, 5, dr.Max, 0.01)

	// A second brush narrows the selection.
	s := f.e.Scale("kind")
	ext := [2]float64{s.Map("b") - 1, s.Map("b") + 1}
	f.e.Brush("kind", &ext)
	f.settle()
	assert.Equal(t, []string{"r3", "r5"}, datapoint.UIDs(f.ds.Selected()))

	f.e.ClearBrushes()
	f.settle()
	assert.Len(t, f.ds.Selected(), 10)
	assert.Nil(t, f.ds.SelectedFilter())
}

func TestBrushThenKeep(t *testing.T) {
	f := newFixture(t, tenRecords(), dataset.DefaultConfig(), testConfig())
	f.brushValues(t, "x", 2, 5)
	f.ds.Keep()
	f.settle()
	assert.Len(t, f.ds.Filtered(), 4)
	for _, ax := range f.e.Axes() {
		assert.Nil(t, ax.Brush, ax.Name)
	}
	lo, hi := f.e.Scale("x").(scales.Continuous).Domain()
	assert.Equal(t, [2]float64{2, 5}, [2]float64{lo, hi})
}

func TestBrushSmallExample(t *testing.T) {
	recs := []map[string]any{
		{"uid": "a", "x": 1.0},
		{"uid": "b", "x": 5.0},
		{"uid": "c", "x": 10.0},
	}
	cfg := testConfig()
	cfg.Asserts = true
	f := newFixture(t, recs, dataset.DefaultConfig(), cfg)
	require.Equal(t, []string{"x"}, f.e.Dims())
	require.Equal(t, datapoint.Numeric, f.e.Scale("x").Type())
	f.brushValues(t, "x", 4, 10)
	assert.Equal(t, []string{"b", "c"}, datapoint.UIDs(f.ds.Selected()))
	assert.Zero(t, testutil.ToFloat64(f.e.metrics.mismatches))
}

func TestCategoricalBrushBetweenValues(t *testing.T) {
	f := newFixture(t, tenRecords(), dataset.DefaultConfig(), testConfig())
	ext := [2]float64{200, 300}
	f.e.Brush("kind", &ext)
	f.settle()
	assert.Empty(t, f.ds.Selected())
	assert.True(t, filter.Equal(filter.All{filter.None{}}, f.ds.SelectedFilter()))
}

func TestAssertsLogNothingForConsistentBrushes(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig()
	cfg.Asserts = true
	cfg.Logger = slog.New(slog.NewTextHandler(&buf, nil))
	f := newFixture(t, tenRecords(), dataset.DefaultConfig(), cfg)
	for _, b := range [][2]float64{{0, 515}, {3, 200}, {100, 101}, {514, 515}} {
		ext := b
		f.e.Brush("y", &ext)
		f.settle()
	}
	assert.Zero(t, testutil.ToFloat64(f.e.metrics.mismatches))
	assert.NotContains(t, buf.String(), "disagrees")
}

func TestRenderBatchesAndCancels(t *testing.T) {
	var recs []map[string]any
	for i := 0; i < 10000; i++ {
		recs = append(recs, map[string]any{"uid": fmt.Sprint(i), "x": float64(i % 100), "y": float64(i)})
	}
	cfg := testConfig()
	f := newFixture(t, recs, dataset.DefaultConfig(), cfg)

	var done []uint64
	var batches []int
	f.e.OnRenderDone(func(gen uint64) { done = append(done, gen) })
	f.e.OnBatch(func(_ uint64, n int) { batches = append(batches, n) })

	assert.True(t, f.e.Drawing())
	f.loop.Tick()
	assert.Equal(t, []int{10}, batches, "first frame draws the initial batch")
	assert.Equal(t, 10.0, testutil.ToFloat64(f.e.metrics.rowsDrawn))

	// Changing colors restarts the render from scratch.
	f.fg.Reset()
	red := func(_ *datapoint.Datapoint, a float64) color.Color {
		return color.NRGBA{255, 0, 0, uint8(255 * a)}
	}
	f.e.SetColorFunc(red)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.e.metrics.aborted))
	f.loop.Flush()

	assert.False(t, f.e.Drawing())
	assert.Equal(t, []uint64{f.e.Generation()}, done)
	assert.Equal(t, 10000, f.fg.Count(canvas.OpStroke))
	assert.Equal(t, 1, f.fg.Count(canvas.OpClear))
	assert.Equal(t, 10010.0, testutil.ToFloat64(f.e.metrics.rowsDrawn))
	for _, n := range batches[1:] {
		assert.LessOrEqual(t, n, cfg.MaxBatch)
	}

	// Only the final shade appears.
	for _, op := range f.fg.Ops {
		if op.Kind == canvas.OpSetStroke {
			c := op.Color.(color.NRGBA)
			require.Equal(t, uint8(255), c.R)
		}
	}
}

func TestRenderStopsAtStaleToken(t *testing.T) {
	f := newFixture(t, tenRecords(), dataset.DefaultConfig(), testConfig())
	strokes := 0
	f.fg.OnStroke = func() {
		strokes++
		if strokes == 3 {
			f.e.Render()
		}
	}
	f.loop.Tick()
	assert.Equal(t, 3, strokes, "nothing is drawn after the token goes stale")
	f.fg.OnStroke = nil
	f.loop.Flush()
	assert.False(t, f.e.Drawing())
}

func TestPathsBreakAtMissingValues(t *testing.T) {
	recs := append(tenRecords(), map[string]any{"uid": "hole", "x": 1.0, "kind": "a"})
	f := newFixture(t, recs, dataset.DefaultConfig(), testConfig())
	f.settle()
	f.hl.Reset()

	f.ds.SetHighlighted([]*datapoint.Datapoint{f.ds.All()[10]})
	assert.Equal(t, 0.25, f.e.ForegroundOpacity())
	var kinds []canvas.OpKind
	for _, op := range f.hl.Ops {
		kinds = append(kinds, op.Kind)
	}
	assert.Equal(t, []canvas.OpKind{
		canvas.OpClear, canvas.OpSetStroke, canvas.OpBeginPath,
		canvas.OpMoveTo, canvas.OpBezierCurveTo, canvas.OpLineTo,
		canvas.OpMoveTo, canvas.OpBezierCurveTo, canvas.OpLineTo,
		canvas.OpStroke,
	}, kinds)
	assert.Equal(t, []float64{4}, f.hl.Ops[1].Args, "highlighted lines are wide")
	y := f.e.Scale("x").Map(1.0)
	assert.Equal(t, []float64{25, y}, f.hl.Ops[3].Args)
	assert.Equal(t, []float64{55, y}, f.hl.Ops[5].Args)
}

func TestPathCurve(t *testing.T) {
	f := newFixture(t, tenRecords(), dataset.DefaultConfig(), testConfig())
	rec := canvas.NewRecorder(1000, 515)
	row := f.ds.All()[0]
	f.e.path(rec, row, color.Black, 1)
	require.Equal(t, canvas.OpMoveTo, rec.Ops[2].Kind)
	y0 := f.e.Scale("x").Map(0.0)
	y1 := f.e.Scale("y").Map(100.0)
	assert.Equal(t, []float64{25, y0}, rec.Ops[2].Args)
	assert.InDeltaSlice(t, []float64{40 - 0.88*15, y0, 40 - 0.12*15, y0, 40, y0}, rec.Ops[3].Args, 1e-9)
	assert.InDeltaSlice(t, []float64{500 - 0.88*460, y0, 500 - 0.12*460, y1, 500, y1}, rec.Ops[4].Args, 1e-9)
}

func TestResizeDebounced(t *testing.T) {
	f := newFixture(t, tenRecords(), dataset.DefaultConfig(), testConfig())
	ext := [2]float64{0, 103}
	f.e.Brush("x", &ext)
	f.settle()

	f.e.Resize(900, 400)
	f.e.Resize(800, 310)
	f.loop.Flush()
	w, h := f.e.Size()
	assert.Equal(t, [2]int{1000, 600}, [2]int{w, h})

	f.settle()
	w, h = f.e.Size()
	assert.Equal(t, [2]int{800, 310}, [2]int{w, h})
	axes := f.e.Axes()
	assert.InDelta(t, 760, axes[2].X, 1e-9)
	require.NotNil(t, axes[0].Brush)
	assert.InDelta(t, 45, axes[0].Brush[1], 1e-9, "brushes scale with the axes")

	var height int
	_, err := f.store.Get(HeightKey, &height)
	require.NoError(t, err)
	assert.Equal(t, 310, height)
}

func TestConfigErrors(t *testing.T) {
	dcfg := dataset.DefaultConfig()
	dcfg.Hints = map[string]*datapoint.ValueDef{"x": {Type: datapoint.NumericLog}}
	f := newFixture(t, tenRecords(), dcfg, testConfig())
	assert.Equal(t, []string{"y", "kind"}, f.e.Dims())
	errs := f.e.ConfigErrors()
	require.Contains(t, errs, "x")
	assert.ErrorIs(t, errs["x"], scales.ErrLogDomain)
}

func TestSetParamTypeRebuilds(t *testing.T) {
	f := newFixture(t, tenRecords(), dataset.DefaultConfig(), testConfig())
	f.brushValues(t, "x", 2, 5)
	require.Len(t, f.ds.Selected(), 4)

	require.NoError(t, f.ds.SetParamType("x", datapoint.Categorical))
	f.settle()
	assert.Equal(t, datapoint.Categorical, f.e.Scale("x").Type())
	assert.Nil(t, f.e.Axes()[0].Brush)
	assert.Len(t, f.ds.Selected(), 10, "the brush is gone and so is its selection")
}

func TestConfigValidate(t *testing.T) {
	for _, test := range []struct {
		name string
		edit func(*Config)
	}{
		{"size", func(c *Config) { c.Width = 0 }},
		{"margins", func(c *Config) { c.Height = 80 }},
		{"batch", func(c *Config) { c.MaxBatch = 1 }},
		{"initial", func(c *Config) { c.InitialBatch = 0 }},
		{"budget", func(c *Config) { c.FrameBudget = 0 }},
		{"categorical", func(c *Config) { c.CategoricalMaximumValues = 0 }},
	} {
		cfg := DefaultConfig()
		test.edit(&cfg)
		assert.Error(t, cfg.Validate(), test.name)
	}
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestCloseDetaches(t *testing.T) {
	f := newFixture(t, tenRecords(), dataset.DefaultConfig(), testConfig())
	assert.Equal(t, 1, f.menu.Len())
	f.e.Close()
	assert.Zero(t, f.menu.Len())
	f.fg.Reset()
	f.ds.Restore()
	f.loop.Flush()
	assert.Empty(t, f.fg.Ops)
}

func TestApplyHints(t *testing.T) {
	one, neg, yes := 1, -1, true
	zero := 0
	cfg := DefaultConfig()
	cfg.ApplyHints(map[string]*datapoint.ValueDef{
		"y":    {ParallelPlotOrder: &zero},
		"x":    {ParallelPlotOrder: &one, ParallelPlotInverted: &yes},
		"kind": {ParallelPlotOrder: &neg},
		"lr":   nil,
	})
	assert.Equal(t, []string{"y", "x"}, cfg.Order)
	assert.Equal(t, []string{"kind"}, cfg.Hide)
	assert.Equal(t, []string{"x"}, cfg.Invert)

	cfg = DefaultConfig()
	cfg.Hide = []string{"uid"}
	cfg.ApplyHints(map[string]*datapoint.ValueDef{"kind": {ParallelPlotOrder: &neg}})
	assert.Equal(t, []string{"uid"}, cfg.Hide)
	assert.Nil(t, cfg.Order)
}

func TestApplyDisplay(t *testing.T) {
	exp := datapoint.FromRecords(tenRecords())
	exp.DisplayData = map[string]json.RawMessage{
		DisplayName: json.RawMessage(`{"order": ["kind"], "hide": ["uid", "y"], "categoricalMaximumValues": 1}`),
	}
	var d DisplayData
	ok, err := exp.Display(DisplayName, &d)
	require.NoError(t, err)
	require.True(t, ok)

	cfg := DefaultConfig()
	cfg.ApplyDisplay(d)
	assert.Equal(t, []string{"kind"}, cfg.Order)
	assert.Equal(t, 600, cfg.Height)
	assert.Equal(t, 1, cfg.CategoricalMaximumValues)

	f := newFixture(t, tenRecords(), dataset.DefaultConfig(), cfg)
	assert.Equal(t, []string{"x"}, f.e.Dims(), "kind has too many values")
}
