// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package infer derives column definitions from raw datapoints.
//
// For each column, Infer decides whether it is numeric, whether it is
// present in every row, which special values it holds, its sorted
// distinct values, and which scale type suits it best. Caller hints
// and persisted user choices override the inferred type.
package infer

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/facebookresearch/hiplot-sub000/datapoint"
	"github.com/facebookresearch/hiplot-sub000/pstate"
)

var (
	// ErrUnknownColumn is returned by SetType for a column that has
	// no definition.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrIllegalType is returned by SetType for a type that is not
	// one of the column's type options.
	ErrIllegalType = errors.New("type not allowed for column")
)

// ParamDef is the inferred definition of one column.
type ParamDef struct {
	Name string
	Type datapoint.ParamType

	// Optional is set if the column is missing from some rows.
	Optional bool

	// Numeric is set if every non-special value is a number.
	Numeric bool

	// DistinctValues are the sorted, distinct, non-special values.
	// For numeric columns they are float64s in increasing order.
	// Otherwise they are sorted by their display strings.
	DistinctValues []any

	// SpecialValues are the special values present, in order of
	// first appearance.
	SpecialValues []any

	// TypeOptions are the types the column may be displayed as.
	TypeOptions []datapoint.ParamType

	Colors        map[string]string
	Colormap      string
	ForceValueMin *float64
	ForceValueMax *float64
	LabelCSS      string
}

// Allows reports whether t is one of the type options of pd.
func (pd *ParamDef) Allows(t datapoint.ParamType) bool {
	for _, o := range pd.TypeOptions {
		if o == t {
			return true
		}
	}
	return false
}

// Min returns the smallest numeric distinct value, if any.
func (pd *ParamDef) Min() (float64, bool) {
	if !pd.Numeric || len(pd.DistinctValues) == 0 {
		return 0, false
	}
	return pd.DistinctValues[0].(float64), true
}

// Options controls the inference heuristics.
type Options struct {
	// LogMinSamples is the number of values a column must exceed
	// before it may be considered log-scaled.
	LogMinSamples int

	// LogRatio is the ratio between the HighQuantile and LowQuantile
	// values above which a column is considered log-scaled.
	LogRatio float64

	LowQuantile, HighQuantile float64

	// A numeric column is treated as categorical if it has fewer than
	// CategoricalMaxDistinct distinct values and more than
	// CategoricalRatio values per distinct value.
	CategoricalRatio       float64
	CategoricalMaxDistinct int
}

// DefaultOptions returns the standard heuristics.
func DefaultOptions() Options {
	return Options{
		LogMinSamples:          10,
		LogRatio:               100,
		LowQuantile:            1.0 / 20,
		HighQuantile:           19.0 / 20,
		CategoricalRatio:       10,
		CategoricalMaxDistinct: 6,
	}
}

// Validate checks that o is usable.
func (o Options) Validate() error {
	if o.LogMinSamples < 0 {
		return fmt.Errorf("LogMinSamples must be >= 0, got %d", o.LogMinSamples)
	}
	if o.LowQuantile < 0 || o.HighQuantile > 1 || o.LowQuantile > o.HighQuantile {
		return fmt.Errorf("quantiles must satisfy 0 <= %v <= %v <= 1", o.LowQuantile, o.HighQuantile)
	}
	if o.LogRatio <= 1 {
		return fmt.Errorf("LogRatio must be > 1, got %v", o.LogRatio)
	}
	return nil
}

// Infer computes the definition of every column of rows. Numeric
// columns are coerced in place: numeric strings become float64s.
//
// The type of a column is, in order of precedence, the hint's type,
// the type persisted under "<col>.type" if it is a legal option, and
// the inferred type. persisted may be nil.
func Infer(rows []*datapoint.Datapoint, hints map[string]*datapoint.ValueDef, persisted pstate.Store, opts Options) map[string]*ParamDef {
	cols := map[string]bool{}
	for _, r := range rows {
		for _, c := range r.Columns() {
			cols[c] = true
		}
	}
	defs := make(map[string]*ParamDef, len(cols))
	for c := range cols {
		defs[c] = inferColumn(c, rows, hints[c], persisted, opts)
	}
	return defs
}

func inferColumn(key string, rows []*datapoint.Datapoint, hint *datapoint.ValueDef, persisted pstate.Store, opts Options) *ParamDef {
	pd := &ParamDef{Name: key}
	numeric := key != datapoint.UIDColumn && key != datapoint.FromUIDColumn
	canBeTimestamp := numeric

	var values []any
	specials := map[string]bool{}
	add := func(v any, ok bool) {
		if !ok {
			pd.Optional = true
			return
		}
		if datapoint.IsSpecial(v) {
			if k := datapoint.Format(v); !specials[k] {
				specials[k] = true
				pd.SpecialValues = append(pd.SpecialValues, v)
			}
			canBeTimestamp = false
			return
		}
		values = append(values, v)
		if _, isNum := datapoint.ParseNumber(v); !isNum {
			numeric = false
		}
		if f, isFloat := v.(float64); !isFloat || f < 0 || f != math.Trunc(f) || f > maxSafeInteger {
			canBeTimestamp = false
		}
	}
	for _, r := range rows {
		add(r.Get(key))
	}
	if hint != nil {
		if hint.ForceValueMax != nil {
			add(*hint.ForceValueMax, true)
		}
		if hint.ForceValueMin != nil {
			add(*hint.ForceValueMin, true)
		}
	}

	logscale := false
	if numeric {
		nums := make([]float64, len(values))
		for i, v := range values {
			nums[i], _ = datapoint.ParseNumber(v)
		}
		for _, r := range rows {
			v, ok := r.Values[key]
			if !ok || datapoint.IsSpecial(v) {
				continue
			}
			if f, ok := datapoint.ParseNumber(v); ok {
				r.Values[key] = f
			}
		}
		sort.Float64s(nums)
		for i, f := range nums {
			if i == 0 || f != nums[i-1] {
				pd.DistinctValues = append(pd.DistinctValues, f)
			}
		}
		// Only columns whose smallest value is positive are
		// considered for a log scale.
		if n := len(nums); n > opts.LogMinSamples && nums[0] > 0 {
			top := nums[min(n-1, quantileIndex(opts.HighQuantile, n))]
			bot := nums[quantileIndex(opts.LowQuantile, n)]
			logscale = top/bot > opts.LogRatio
		}
	} else {
		seen := map[string]bool{}
		for _, v := range values {
			k := datapoint.Format(v)
			if !seen[k] {
				seen[k] = true
				pd.DistinctValues = append(pd.DistinctValues, v)
			}
		}
		sort.SliceStable(pd.DistinctValues, func(i, j int) bool {
			return datapoint.CompareStrings(pd.DistinctValues[i], pd.DistinctValues[j]) < 0
		})
	}
	pd.Numeric = numeric

	distinct := float64(len(pd.DistinctValues))
	categorical := !numeric ||
		(math.Max(float64(len(values)), 10)/distinct > opts.CategoricalRatio &&
			len(pd.DistinctValues) < opts.CategoricalMaxDistinct)

	pd.TypeOptions = []datapoint.ParamType{datapoint.Categorical}
	minPositive := false
	if m, ok := pd.Min(); ok {
		minPositive = m > 0
	}
	if numeric {
		pd.TypeOptions = append(pd.TypeOptions, datapoint.Numeric)
		if minPositive {
			pd.TypeOptions = append(pd.TypeOptions, datapoint.NumericLog)
		}
		pd.TypeOptions = append(pd.TypeOptions, datapoint.NumericPercentile)
		if canBeTimestamp {
			pd.TypeOptions = append(pd.TypeOptions, datapoint.Timestamp)
		}
	}

	pd.Type = datapoint.Categorical
	if numeric && !categorical {
		pd.Type = datapoint.Numeric
		if logscale {
			pd.Type = datapoint.NumericLog
		}
	}

	if hint != nil && hint.Type != "" {
		pd.Type = hint.Type
		if !pd.Allows(hint.Type) {
			pd.TypeOptions = append(pd.TypeOptions, hint.Type)
		}
	} else if t, ok := persistedType(persisted, key); ok && pd.Allows(t) {
		pd.Type = t
	}

	if hint != nil {
		pd.Colors = hint.Colors
		pd.Colormap = hint.Colormap
		pd.ForceValueMin = hint.ForceValueMin
		pd.ForceValueMax = hint.ForceValueMax
		pd.LabelCSS = hint.LabelCSS
	}
	return pd
}

// maxSafeInteger is the largest integer n such that n and n+1 are both
// exactly representable as float64.
const maxSafeInteger = 1<<53 - 1

func quantileIndex(q float64, n int) int {
	// The epsilon keeps q*n from landing just below an integer.
	i := int(math.Floor(q*float64(n) + 1e-9))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func persistedType(s pstate.Store, col string) (datapoint.ParamType, bool) {
	if s == nil {
		return "", false
	}
	var t datapoint.ParamType
	ok, err := s.Children(col).Get("type", &t)
	if err != nil || !ok || !t.Valid() {
		return "", false
	}
	return t, true
}

// Reinfer recomputes definitions after the row set changed. The
// previous definitions supply colors, colormaps, forced ranges and
// label styles where hints do not, and a column keeps its previous
// type as long as that type remains one of its options. Columns that
// no longer appear in rows keep their previous definition.
func Reinfer(rows []*datapoint.Datapoint, hints map[string]*datapoint.ValueDef, previous map[string]*ParamDef, persisted pstate.Store, opts Options) map[string]*ParamDef {
	merged := make(map[string]*datapoint.ValueDef, len(previous))
	for col, prev := range previous {
		vd := &datapoint.ValueDef{
			Colors:        prev.Colors,
			Colormap:      prev.Colormap,
			ForceValueMin: prev.ForceValueMin,
			ForceValueMax: prev.ForceValueMax,
			LabelCSS:      prev.LabelCSS,
		}
		if h := hints[col]; h != nil {
			vd.Type = h.Type
		}
		merged[col] = vd
	}
	for col, h := range hints {
		if _, ok := merged[col]; !ok {
			merged[col] = h
		}
	}

	defs := Infer(rows, merged, persisted, opts)
	for col, prev := range previous {
		pd, ok := defs[col]
		if !ok {
			defs[col] = prev
			continue
		}
		if pd.Allows(prev.Type) {
			pd.Type = prev.Type
		}
	}
	return defs
}

// SetType changes the type of column col to t and persists the choice.
// t must be one of the column's type options.
func SetType(defs map[string]*ParamDef, col string, t datapoint.ParamType, persisted pstate.Store) error {
	pd, ok := defs[col]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, col)
	}
	if !pd.Allows(t) {
		return fmt.Errorf("%w: %s as %s (options %v)", ErrIllegalType, col, t, pd.TypeOptions)
	}
	pd.Type = t
	if persisted != nil {
		return persisted.Children(col).Set("type", t)
	}
	return nil
}
