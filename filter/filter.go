// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package filter implements serializable predicates over datapoints.
//
// A Filter is one of Range, Not, All, Search, or None. Filters are
// plain values: they can be compared with Equal, encoded to the
// {"type": ..., "data": ...} wire form with Marshal, and applied to any
// slice of datapoints with Apply.
package filter

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/facebookresearch/hiplot-sub000/datapoint"
)

var (
	// ErrUnknownType is returned for filters or range types that
	// this package does not know how to apply.
	ErrUnknownType = errors.New("unknown filter type")

	// ErrNilFilter is returned when a nil Filter is applied.
	ErrNilFilter = errors.New("nil filter")

	// ErrBadRange is returned for a Range whose bounds cannot be
	// compared.
	ErrBadRange = errors.New("bad range bounds")
)

// A Filter is a predicate over datapoints. The set of Filter types is
// closed.
type Filter interface {
	isFilter()
}

// Range selects rows whose value of Col lies in [Min, Max].
//
// For categorical columns, Min and Max are distinct values of the
// column. If both are numbers the row value is compared numerically;
// otherwise values are compared by their display strings.
//
// For numeric columns, the row value is parsed as a number. If
// IncludeInfNaNs is set, special values (NaN, ±Inf, missing) also pass.
type Range struct {
	Col            string
	Type           datapoint.ParamType
	Min, Max       any
	IncludeInfNaNs bool
}

// Not selects rows that Filter does not.
type Not struct {
	Filter Filter
}

// All selects rows that pass every one of its filters. An empty All
// selects every row.
type All []Filter

// Search selects rows whose values contain the string, ignoring case.
type Search string

// None selects no rows.
type None struct{}

func (Range) isFilter()  {}
func (Not) isFilter()    {}
func (All) isFilter()    {}
func (Search) isFilter() {}
func (None) isFilter()   {}

// predicate is a compiled Filter.
type predicate func(row *datapoint.Datapoint) bool

func compile(f Filter) (predicate, error) {
	switch f := f.(type) {
	case nil:
		return nil, ErrNilFilter
	case Range:
		return compileRange(f)
	case Not:
		p, err := compile(f.Filter)
		if err != nil {
			return nil, err
		}
		return func(row *datapoint.Datapoint) bool { return !p(row) }, nil
	case All:
		ps := make([]predicate, len(f))
		for i, sub := range f {
			p, err := compile(sub)
			if err != nil {
				return nil, err
			}
			ps[i] = p
		}
		return func(row *datapoint.Datapoint) bool {
			for _, p := range ps {
				if !p(row) {
					return false
				}
			}
			return true
		}, nil
	case Search:
		re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(string(f)))
		if err != nil {
			return nil, err
		}
		return func(row *datapoint.Datapoint) bool {
			return re.MatchString(searchText(row))
		}, nil
	case None:
		return func(*datapoint.Datapoint) bool { return false }, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownType, f)
}

// searchText joins the values of row with two spaces. Null values
// contribute the empty string.
func searchText(row *datapoint.Datapoint) string {
	cols := row.Columns()
	parts := make([]string, len(cols))
	for i, c := range cols {
		if v, _ := row.Get(c); v != nil {
			parts[i] = datapoint.Format(v)
		}
	}
	return strings.Join(parts, "  ")
}

func compileRange(f Range) (predicate, error) {
	switch f.Type {
	case datapoint.Categorical:
		lo, lok := f.Min.(float64)
		hi, hok := f.Max.(float64)
		if lok && hok {
			return func(row *datapoint.Datapoint) bool {
				v, _ := row.Get(f.Col)
				x := datapoint.Loose(v)
				return lo <= x && x <= hi
			}, nil
		}
		if f.Min == nil || f.Max == nil {
			return nil, fmt.Errorf("%w: categorical range on %s", ErrBadRange, f.Col)
		}
		slo, shi := datapoint.Format(f.Min), datapoint.Format(f.Max)
		return func(row *datapoint.Datapoint) bool {
			v, ok := row.Get(f.Col)
			if !ok {
				return false
			}
			s := datapoint.Format(v)
			return slo <= s && s <= shi
		}, nil

	case datapoint.Numeric, datapoint.NumericLog, datapoint.NumericPercentile, datapoint.Timestamp:
		lo, hi := datapoint.Loose(f.Min), datapoint.Loose(f.Max)
		if math.IsNaN(lo) || math.IsNaN(hi) {
			return nil, fmt.Errorf("%w: numeric range on %s: [%v, %v]", ErrBadRange, f.Col, f.Min, f.Max)
		}
		return func(row *datapoint.Datapoint) bool {
			v, _ := row.Get(f.Col)
			x := datapoint.Loose(v)
			if lo <= x && x <= hi {
				return true
			}
			return f.IncludeInfNaNs && (math.IsNaN(x) || math.IsInf(x, 0))
		}, nil
	}
	return nil, fmt.Errorf("%w: range of type %q", ErrUnknownType, f.Type)
}

// Match reports whether row passes f.
func Match(f Filter, row *datapoint.Datapoint) (bool, error) {
	p, err := compile(f)
	if err != nil {
		return false, err
	}
	return p(row), nil
}

// Apply returns the rows that pass f, in order.
func Apply(rows []*datapoint.Datapoint, f Filter) ([]*datapoint.Datapoint, error) {
	p, err := compile(f)
	if err != nil {
		return nil, err
	}
	out := make([]*datapoint.Datapoint, 0, len(rows))
	for _, r := range rows {
		if p(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// ApplyChain applies each filter of chain in turn.
func ApplyChain(rows []*datapoint.Datapoint, chain []Filter) ([]*datapoint.Datapoint, error) {
	for i, f := range chain {
		var err error
		rows, err = Apply(rows, f)
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
	}
	return rows, nil
}
