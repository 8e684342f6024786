// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dataset tracks which rows of an experiment are shown.
//
// A Dataset holds four row sets. All is every loaded row. Filtered is
// the result of the filter chain the user built with Keep and
// Exclude. Selected is the subset of Filtered picked by brushing, and
// Highlighted is whatever the host wants emphasized, such as hovered
// rows. Every operation leaves Selected ⊆ Filtered ⊆ All, by uid.
package dataset

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/facebookresearch/hiplot-sub000/datapoint"
	"github.com/facebookresearch/hiplot-sub000/filter"
	"github.com/facebookresearch/hiplot-sub000/infer"
	"github.com/facebookresearch/hiplot-sub000/pstate"
)

// FiltersKey is the persisted key of the filter chain.
const FiltersKey = "filters"

// Change is a set of row sets that changed.
type Change uint

const (
	Filtered Change = 1 << iota
	Selected
	Highlighted
	Params

	AllChanges = Filtered | Selected | Highlighted | Params
)

func (c Change) String() string {
	var s []byte
	for i, name := range []string{"filtered", "selected", "highlighted", "params"} {
		if c&(1<<i) != 0 {
			if len(s) > 0 {
				s = append(s, '|')
			}
			s = append(s, name...)
		}
	}
	if len(s) == 0 {
		return "none"
	}
	return string(s)
}

// Config configures a Dataset.
type Config struct {
	// Store persists the filter chain and column types. It may be nil.
	Store pstate.Store

	// Hints are the column definitions supplied with the experiment.
	Hints map[string]*datapoint.ValueDef

	Infer infer.Options

	// Asserts enables cross-checking brushed selections against their
	// filters.
	Asserts bool

	Logger *slog.Logger
}

// DefaultConfig returns a Config with default inference options.
func DefaultConfig() Config {
	return Config{Infer: infer.DefaultOptions()}
}

// Validate checks c.
func (c Config) Validate() error {
	return c.Infer.Validate()
}

// Dataset is the row-set state machine. It is not safe for concurrent
// use.
type Dataset struct {
	cfg Config
	log *slog.Logger

	all, filtered, selected, highlighted []*datapoint.Datapoint

	chain       []filter.Filter
	selFilter   filter.Filter
	params      map[string]*infer.ParamDef
	paramsUnflt map[string]*infer.ParamDef

	subs    map[int]func(Change)
	nextSub int
}

// New returns an empty Dataset.
func New(cfg Config) (*Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	lg := cfg.Logger
	if lg == nil {
		lg = slog.Default()
	}
	return &Dataset{cfg: cfg, log: lg, subs: map[int]func(Change){}}, nil
}

// Subscribe calls fn after every change. The returned function
// removes the subscription.
func (d *Dataset) Subscribe(fn func(Change)) (cancel func()) {
	id := d.nextSub
	d.nextSub++
	d.subs[id] = fn
	return func() { delete(d.subs, id) }
}

func (d *Dataset) notify(c Change) {
	ids := make([]int, 0, len(d.subs))
	for id := range d.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := d.subs[id]; ok {
			fn(c)
		}
	}
}

// Load replaces all rows. The rows are filtered by chain, or by the
// persisted chain if chain is nil. A persisted chain that cannot be
// decoded or applied is dropped. If the chain filters out every row,
// it is cleared and all rows are shown.
func (d *Dataset) Load(rows []*datapoint.Datapoint, chain []filter.Filter) error {
	persisted := false
	if chain == nil {
		chain = d.persistedChain()
		persisted = true
	}
	filtered, err := filter.ApplyChain(rows, chain)
	if err != nil {
		if !persisted {
			return err
		}
		d.log.Warn("dropping persisted filters", "err", err)
		chain, filtered = nil, rows
	}

	d.all = rows
	d.chain = append([]filter.Filter(nil), chain...)
	d.filtered = filtered
	d.escape()
	d.paramsUnflt = infer.Infer(rows, d.cfg.Hints, d.cfg.Store, d.cfg.Infer)
	d.params = infer.Reinfer(d.filtered, d.cfg.Hints, d.paramsUnflt, d.cfg.Store, d.cfg.Infer)
	d.resetSelection()
	d.persistChain()
	d.notify(AllChanges)
	return nil
}

// Reset drops every row. The persisted chain is kept for the next
// Load.
func (d *Dataset) Reset() {
	d.all, d.filtered = nil, nil
	d.chain = nil
	d.params, d.paramsUnflt = nil, nil
	d.resetSelection()
	d.notify(AllChanges)
}

func (d *Dataset) persistedChain() []filter.Filter {
	if d.cfg.Store == nil {
		return nil
	}
	var raw json.RawMessage
	ok, err := d.cfg.Store.Get(FiltersKey, &raw)
	if err == nil && ok {
		var chain []filter.Filter
		chain, err = filter.UnmarshalChain(raw)
		if err == nil {
			return chain
		}
	}
	if err != nil {
		d.log.Warn("dropping persisted filters", "err", err)
	}
	return nil
}

func (d *Dataset) persistChain() {
	if d.cfg.Store == nil {
		return
	}
	var err error
	if len(d.chain) == 0 {
		err = d.cfg.Store.Set(FiltersKey, nil)
	} else {
		var raw []byte
		if raw, err = filter.MarshalChain(d.chain); err == nil {
			err = d.cfg.Store.Set(FiltersKey, json.RawMessage(raw))
		}
	}
	if err != nil {
		d.log.Error("persisting filters", "err", err)
	}
}

// escape shows all rows again when filtering left none.
func (d *Dataset) escape() {
	if len(d.filtered) == 0 && len(d.all) > 0 {
		d.filtered = d.all
		d.chain = nil
	}
}

func (d *Dataset) resetSelection() {
	d.selected = d.filtered
	d.selFilter = nil
	d.highlighted = nil
}

// refilter installs a new filtered set and chain.
func (d *Dataset) refilter(rows []*datapoint.Datapoint, chain []filter.Filter) {
	d.filtered = rows
	d.chain = chain
	d.escape()
	d.params = infer.Reinfer(d.filtered, d.cfg.Hints, d.params, d.cfg.Store, d.cfg.Infer)
	d.resetSelection()
	d.persistChain()
	d.notify(AllChanges)
}

// selectionFilter returns the filter that describes the selection.
// Without a brushed filter the selection is all of Filtered.
func (d *Dataset) selectionFilter() filter.Filter {
	if d.selFilter == nil {
		return filter.All{}
	}
	return d.selFilter
}

// Keep narrows Filtered to Selected.
func (d *Dataset) Keep() {
	chain := append(append([]filter.Filter(nil), d.chain...), d.selectionFilter())
	d.refilter(d.selected, chain)
}

// Exclude removes Selected from Filtered.
func (d *Dataset) Exclude() {
	chain := append(append([]filter.Filter(nil), d.chain...), filter.Not{Filter: d.selectionFilter()})
	d.refilter(datapoint.Subtract(d.filtered, d.selected), chain)
}

// Restore shows all rows and clears the chain.
func (d *Dataset) Restore() {
	d.refilter(d.all, nil)
}

// SetSelected replaces Selected with the rows of Filtered that appear
// in rows. f is the filter that describes them, or nil. If f equals
// the current selection filter nothing happens. SetSelected reports
// whether the selection changed.
func (d *Dataset) SetSelected(rows []*datapoint.Datapoint, f filter.Filter) bool {
	if f != nil && filter.Equal(f, d.selFilter) {
		return false
	}
	sel := datapoint.Intersect(rows, d.filtered)
	if d.cfg.Asserts && f != nil {
		d.check(sel, f)
	}
	d.selected = sel
	d.selFilter = f
	d.notify(Selected)
	return true
}

// check logs a warning if f does not select exactly rows from
// Filtered.
func (d *Dataset) check(rows []*datapoint.Datapoint, f filter.Filter) {
	want, err := filter.Apply(d.filtered, f)
	if err != nil {
		d.log.Error("selection filter", "filter", filter.String(f), "err", err)
		return
	}
	missed := datapoint.Subtract(want, rows)
	extra := datapoint.Subtract(rows, want)
	if len(missed) == 0 && len(extra) == 0 {
		return
	}
	attrs := []any{
		"filter", filter.String(f),
		"expected", len(want),
		"actual", len(rows),
	}
	if len(missed) > 0 {
		attrs = append(attrs, "first_missed", missed[0].UID)
	}
	if len(extra) > 0 {
		attrs = append(attrs, "first_extra", extra[0].UID)
	}
	d.log.Warn("selection does not match its filter", attrs...)
}

// SetHints replaces the column hints used by the next Load.
func (d *Dataset) SetHints(hints map[string]*datapoint.ValueDef) {
	d.cfg.Hints = hints
}

// SetHighlighted replaces Highlighted.
func (d *Dataset) SetHighlighted(rows []*datapoint.Datapoint) {
	d.highlighted = rows
	d.notify(Highlighted)
}

// SetParamType changes the display type of column col. The choice is
// persisted.
func (d *Dataset) SetParamType(col string, t datapoint.ParamType) error {
	if err := infer.SetType(d.params, col, t, d.cfg.Store); err != nil {
		return err
	}
	if pd, ok := d.paramsUnflt[col]; ok && pd.Allows(t) {
		pd.Type = t
	}
	d.notify(Params)
	return nil
}

// All returns every loaded row.
func (d *Dataset) All() []*datapoint.Datapoint { return d.all }

// Filtered returns the rows that pass the filter chain.
func (d *Dataset) Filtered() []*datapoint.Datapoint { return d.filtered }

// Selected returns the selected rows.
func (d *Dataset) Selected() []*datapoint.Datapoint { return d.selected }

// Highlighted returns the highlighted rows.
func (d *Dataset) Highlighted() []*datapoint.Datapoint { return d.highlighted }

// Chain returns a copy of the filter chain.
func (d *Dataset) Chain() []filter.Filter {
	return append([]filter.Filter(nil), d.chain...)
}

// SelectedFilter returns the filter of the current selection, or nil.
func (d *Dataset) SelectedFilter() filter.Filter { return d.selFilter }

// Params returns the column definitions over Filtered.
func (d *Dataset) Params() map[string]*infer.ParamDef { return d.params }

// ParamsUnfiltered returns the column definitions over All.
func (d *Dataset) ParamsUnfiltered() map[string]*infer.ParamDef { return d.paramsUnflt }
