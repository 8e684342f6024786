// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package session manages the experiment shown by a hiplot view.
//
// A Session loads experiments, keeping only the most recent request,
// owns the Dataset they feed, and tracks which column colors the rows.
// Apart from Load, which may be called from any goroutine, Session
// methods must be called on the session's loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"sort"

	"github.com/facebookresearch/hiplot-sub000/datapoint"
	"github.com/facebookresearch/hiplot-sub000/dataset"
	"github.com/facebookresearch/hiplot-sub000/infer"
	"github.com/facebookresearch/hiplot-sub000/internal/loop"
	"github.com/facebookresearch/hiplot-sub000/menu"
	"github.com/facebookresearch/hiplot-sub000/pstate"
	"github.com/facebookresearch/hiplot-sub000/scales"
)

// ColorByKey is the persisted key of the coloring column.
const ColorByKey = "colorby"

// Context menu labels.
const (
	ColorLabel       = "Use for coloring"
	ScaleLabelPrefix = "Scale: "
)

// ErrNoExperiment is returned when no experiment is loaded.
var ErrNoExperiment = errors.New("session: no experiment loaded")

// Status is the state of the last load.
type Status int

const (
	StatusNone Status = iota
	StatusLoading
	StatusLoaded
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusError:
		return "error"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Fetch produces an experiment.
type Fetch func(ctx context.Context) (*datapoint.Experiment, error)

// Config configures a Session.
type Config struct {
	// Store persists the coloring column. The dataset shares it.
	Store pstate.Store

	Dataset dataset.Config

	// Colormap is the default colormap of numeric columns, unless the
	// experiment names one.
	Colormap string

	Logger *slog.Logger
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{Dataset: dataset.DefaultConfig()}
}

// Validate checks c.
func (c Config) Validate() error {
	return c.Dataset.Validate()
}

// Session is the loaded state of a view.
type Session struct {
	cfg   Config
	log   *slog.Logger
	loop  *loop.Loop
	menu  *menu.Registry
	owner menu.Owner
	gen   loop.Generation

	status  Status
	errMsg  string
	exp     *datapoint.Experiment
	ds      *dataset.Dataset
	index   map[string]*datapoint.Datapoint
	colorby string
	colorer *scales.Colorer

	subs    map[int]func()
	nextSub int
}

// New returns an empty Session. reg may be nil.
func New(cfg Config, l *loop.Loop, reg *menu.Registry) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	lg := cfg.Logger
	if lg == nil {
		lg = slog.Default()
	}
	dcfg := cfg.Dataset
	dcfg.Store = cfg.Store
	if dcfg.Logger == nil {
		dcfg.Logger = lg
	}
	ds, err := dataset.New(dcfg)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	s := &Session{
		cfg:   cfg,
		log:   lg,
		loop:  l,
		menu:  reg,
		owner: menu.NewOwner(),
		ds:    ds,
		subs:  map[int]func(){},
	}
	if reg != nil {
		reg.AddCallback(s.owner, s.columnMenu)
	}
	return s, nil
}

// Close removes the session's menu entries and drops pending loads.
func (s *Session) Close() {
	if s.menu != nil {
		s.menu.RemoveCallbacks(s.owner)
	}
	s.gen.Next()
}

// Subscribe calls fn after the status or the coloring changes.
func (s *Session) Subscribe(fn func()) (cancel func()) {
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() { delete(s.subs, id) }
}

func (s *Session) notify() {
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := s.subs[id]; ok {
			fn()
		}
	}
}

// Load runs fetch on its own goroutine and loads the result on the
// loop. A load superseded by a later one is dropped. Load may be
// called from any goroutine; the status becomes StatusLoading once the
// loop runs.
func (s *Session) Load(ctx context.Context, fetch Fetch) {
	tok := s.gen.Next()
	s.loop.Post(func() {
		if tok.Stale() {
			return
		}
		s.status = StatusLoading
		s.errMsg = ""
		s.notify()
	})
	go func() {
		exp, err := fetch(ctx)
		s.loop.Post(func() {
			if tok.Stale() {
				return
			}
			if err := s.finish(exp, err); err != nil {
				s.log.Debug("load failed", "err", err)
			}
		})
	}()
}

// SetExperiment loads exp now, superseding pending loads.
func (s *Session) SetExperiment(exp *datapoint.Experiment) error {
	s.gen.Next()
	return s.finish(exp, nil)
}

func (s *Session) finish(exp *datapoint.Experiment, err error) error {
	if err == nil && exp == nil {
		err = ErrNoExperiment
	}
	if err == nil {
		err = exp.Validate()
	}
	var colorer *scales.Colorer
	if err == nil {
		cm := s.cfg.Colormap
		if exp.Colormap != "" {
			cm = exp.Colormap
		}
		colorer, err = scales.NewColorer(cm)
	}
	if err == nil {
		s.ds.SetHints(exp.ParametersDefinition)
		err = s.ds.Load(exp.Datapoints, nil)
	}
	if err != nil {
		s.status = StatusError
		s.errMsg = err.Error()
		s.exp = nil
		s.index = nil
		s.ds.Reset()
		s.notify()
		return err
	}
	s.exp = exp
	s.index = datapoint.Index(exp.Datapoints)
	s.colorer = colorer
	s.colorby = s.defaultColorBy()
	s.status = StatusLoaded
	s.errMsg = ""
	s.notify()
	return nil
}

// Status returns the state of the last load.
func (s *Session) Status() Status { return s.status }

// Err returns the error message of a failed load.
func (s *Session) Err() string { return s.errMsg }

// Experiment returns the loaded experiment.
func (s *Session) Experiment() (*datapoint.Experiment, error) {
	if s.exp == nil {
		return nil, ErrNoExperiment
	}
	return s.exp, nil
}

// Dataset returns the dataset the session loads into. It exists, and
// keeps its subscribers, across loads.
func (s *Session) Dataset() *dataset.Dataset { return s.ds }

// Hover highlights the row with the given uid and its ancestors. An
// empty uid clears the highlight.
func (s *Session) Hover(uid string) {
	row, ok := s.index[uid]
	if !ok {
		if len(s.ds.Highlighted()) > 0 {
			s.ds.SetHighlighted(nil)
		}
		return
	}
	s.ds.SetHighlighted(append([]*datapoint.Datapoint{row}, datapoint.Lineage(s.index, uid)...))
}

// ColorBy returns the column that colors the rows.
func (s *Session) ColorBy() string { return s.colorby }

// SetColorBy colors the rows by column col and persists the choice.
func (s *Session) SetColorBy(col string) error {
	if _, ok := s.ds.Params()[col]; !ok {
		return fmt.Errorf("%w: %s", infer.ErrUnknownColumn, col)
	}
	if col == s.colorby {
		return nil
	}
	s.colorby = col
	if s.cfg.Store != nil {
		if err := s.cfg.Store.Set(ColorByKey, col); err != nil {
			s.log.Error("persisting coloring column", "err", err)
		}
	}
	s.notify()
	return nil
}

// defaultColorBy picks the persisted column, else the experiment's,
// else the best scoring column.
func (s *Session) defaultColorBy() string {
	params := s.ds.Params()
	if s.cfg.Store != nil {
		var col string
		if ok, err := s.cfg.Store.Get(ColorByKey, &col); err != nil {
			s.log.Warn("ignoring persisted coloring column", "err", err)
		} else if ok && params[col] != nil {
			return col
		}
	}
	if c := s.exp.Colorby; params[c] != nil {
		return c
	}
	cols := make([]string, 0, len(params))
	for c := range params {
		if c != datapoint.UIDColumn && c != datapoint.FromUIDColumn {
			cols = append(cols, c)
		}
	}
	sort.Strings(cols)
	best, bestScore := "", 0
	for _, c := range cols {
		if sc := colorScore(params[c]); best == "" || sc > bestScore {
			best, bestScore = c, sc
		}
	}
	return best
}

// colorScore rates how well a column serves for coloring.
func colorScore(pd *infer.ParamDef) int {
	score := 0
	if len(pd.Colors) > 0 || pd.Colormap != "" {
		score += 100
	}
	if pd.Type == datapoint.Categorical {
		score -= 20
	}
	if pd.Optional {
		score -= 40
	}
	return score
}

// Color returns the color of row's line. Rows without a color are
// grey.
func (s *Session) Color(row *datapoint.Datapoint, alpha float64) color.Color {
	pd := s.ds.Params()[s.colorby]
	if pd == nil || s.colorer == nil {
		c := scales.Grey
		c.A = uint8(255 * min(max(alpha, 0), 1))
		return c
	}
	v, _ := row.Get(s.colorby)
	c, err := s.colorer.Color(pd, v, alpha)
	if err != nil {
		s.log.Error("coloring rows", "column", s.colorby, "err", err)
		s.colorer = nil
		return s.Color(row, alpha)
	}
	return c
}

func (s *Session) columnMenu(col string, m *menu.Menu) {
	pd, ok := s.ds.Params()[col]
	if !ok || s.status != StatusLoaded {
		return
	}
	it := m.Add(ColorLabel, func() {
		if err := s.SetColorBy(col); err != nil {
			s.log.Error("coloring rows", "column", col, "err", err)
		}
	})
	it.Checked = col == s.colorby
	for _, t := range pd.TypeOptions {
		it := m.Add(ScaleLabelPrefix+t.String(), func() {
			if err := s.ds.SetParamType(col, t); err != nil {
				s.log.Error("changing column type", "column", col, "err", err)
			}
		})
		it.Checked = pd.Type == t
	}
}
