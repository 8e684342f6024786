// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scales maps column values to pixel coordinates.
//
// New builds the Scale for a column definition: a point scale for
// categorical columns, and linear, logarithmic, percentile-rank or
// timestamp scales for numeric ones. Numeric scales of columns that
// hold special values reserve a band at the far end of their range
// for those values. PixelsRange turns a pixel interval back into the
// domain interval it covers, and Colorer assigns colors to values.
package scales

import (
	"errors"
	"fmt"
	"math"

	"github.com/facebookresearch/hiplot-sub000/datapoint"
	"github.com/facebookresearch/hiplot-sub000/infer"
)

var (
	// ErrLogDomain is returned when a log scale is requested for a
	// domain that includes non-positive values.
	ErrLogDomain = errors.New("log scale domain must be strictly positive")

	// ErrEmptyDomain is returned when a numeric scale has no finite
	// values to span.
	ErrEmptyDomain = errors.New("numeric scale has an empty domain")

	// ErrUnknownType is returned for column types with no scale.
	ErrUnknownType = errors.New("unknown scale type")

	// ErrInvalidColormap is returned for unknown colormap names.
	ErrInvalidColormap = errors.New("invalid colormap")
)

// ConfigError reports a scale that cannot be built for a column.
type ConfigError struct {
	Column string
	Type   datapoint.ParamType
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("column %s (%s): %v", e.Column, e.Type, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// A Tick is a labeled position on an axis.
type Tick struct {
	Value float64
	Label string
	Pos   float64
}

// Scale maps the values of one column to pixels.
type Scale interface {
	// Type returns the column type the scale was built for.
	Type() datapoint.ParamType

	// Map returns the pixel position of v, or NaN if v cannot be
	// placed on this scale.
	Map(v any) float64

	// Range returns the pixel range. r0 is where the smallest value
	// is placed. r0 may be greater than r1.
	Range() (r0, r1 float64)
	SetRange(r0, r1 float64)

	// NumValues returns the number of distinct values of the column.
	NumValues() int

	Copy() Scale

	// Ticks returns about n ticks in increasing value order.
	Ticks(n int) []Tick
}

// Continuous is a Scale over numbers.
type Continuous interface {
	Scale

	// Invert returns the value at pixel px. special reports that px
	// lies in the band reserved for special values; v is then the
	// domain extreme next to that band.
	Invert(px float64) (v float64, special bool)

	// Domain returns the values mapped to r0 and r1.
	Domain() (lo, hi float64)
}

// Point is a Scale over an ordered set of discrete values.
type Point interface {
	Scale

	// Values returns the values of the scale in order.
	Values() []any
}

// exactInverter is implemented by scales whose Invert rounds to a
// domain value. invertExact returns an unrounded value instead, so
// that a range built from it selects exactly the values whose pixel
// positions fall inside a pixel interval.
type exactInverter interface {
	invertExact(px float64) (v float64, special bool)
}

// Options controls how scales are built.
type Options struct {
	// OutlierBand is the size in pixels of the band reserved for
	// special values.
	OutlierBand float64
}

// DefaultOptions returns the default scale options.
func DefaultOptions() Options {
	return Options{OutlierBand: 30}
}

// New returns the scale of pd with the default options. The range is
// [0, 1] until SetRange is called.
func New(pd *infer.ParamDef) (Scale, error) {
	return NewWithOptions(pd, DefaultOptions())
}

// NewWithOptions is like New with explicit options.
func NewWithOptions(pd *infer.ParamDef, opts Options) (Scale, error) {
	s, err := newBase(pd)
	if err != nil {
		return nil, &ConfigError{pd.Name, pd.Type, err}
	}
	if len(pd.SpecialValues) > 0 && pd.Type.HasOutliers() {
		s = &outliers{base: s.(Continuous), band: opts.OutlierBand}
	}
	return s, nil
}

// NewWithoutOutliers returns the scale of pd without a special value
// band.
func NewWithoutOutliers(pd *infer.ParamDef) (Scale, error) {
	s, err := newBase(pd)
	if err != nil {
		return nil, &ConfigError{pd.Name, pd.Type, err}
	}
	return s, nil
}

func newBase(pd *infer.ParamDef) (Scale, error) {
	n := len(pd.DistinctValues)
	if pd.Type == datapoint.Categorical {
		return newPoint(pd.DistinctValues), nil
	}
	if !pd.Type.Valid() {
		return nil, fmt.Errorf("%w %q", ErrUnknownType, pd.Type)
	}

	nums := make([]float64, 0, n)
	for _, v := range pd.DistinctValues {
		if f, ok := datapoint.ParseNumber(v); ok {
			nums = append(nums, f)
		}
	}
	if len(nums) != n {
		return nil, fmt.Errorf("%s scale over non-numeric values", pd.Type)
	}
	if pd.Type == datapoint.NumericPercentile {
		if n == 0 {
			return nil, ErrEmptyDomain
		}
		return newPercentile(nums), nil
	}

	lo, hi := math.NaN(), math.NaN()
	if n > 0 {
		lo, hi = nums[0], nums[n-1]
	}
	if pd.ForceValueMin != nil {
		lo = *pd.ForceValueMin
	}
	if pd.ForceValueMax != nil {
		hi = *pd.ForceValueMax
	}
	if math.IsNaN(lo) || math.IsNaN(hi) {
		return nil, ErrEmptyDomain
	}

	switch pd.Type {
	case datapoint.Numeric, datapoint.Timestamp:
		return newLinear(pd.Type, lo, hi, n), nil
	case datapoint.NumericLog:
		if n > 0 && nums[0] <= 0 {
			return nil, fmt.Errorf("%w: minimum value is %v", ErrLogDomain, nums[0])
		}
		if lo <= 0 || hi <= 0 {
			return nil, fmt.Errorf("%w: domain is [%v, %v]", ErrLogDomain, lo, hi)
		}
		return newLog(lo, hi, n)
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownType, pd.Type)
}

// pixelRange is the range shared by every scale.
type pixelRange struct {
	r0, r1 float64
}

func (p *pixelRange) Range() (float64, float64) {
	return p.r0, p.r1
}

func (p *pixelRange) SetRange(r0, r1 float64) {
	p.r0, p.r1 = r0, r1
}

// px maps a normalized position to a pixel.
func (p *pixelRange) px(norm float64) float64 {
	return p.r0 + norm*(p.r1-p.r0)
}

// norm maps a pixel to a normalized position.
func (p *pixelRange) norm(px float64) float64 {
	if p.r1 == p.r0 {
		return 0.5
	}
	return (px - p.r0) / (p.r1 - p.r0)
}

// number returns v as a finite float64.
func number(v any) (float64, bool) {
	if datapoint.IsSpecial(v) {
		return 0, false
	}
	return datapoint.ParseNumber(v)
}
