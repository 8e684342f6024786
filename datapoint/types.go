// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datapoint

import "fmt"

// ParamType is the way a column is scaled and compared.
type ParamType string

const (
	Categorical       ParamType = "categorical"
	Numeric           ParamType = "numeric"
	NumericLog        ParamType = "numericlog"
	NumericPercentile ParamType = "numericpercentile"
	Timestamp         ParamType = "timestamp"
)

// ParamTypes lists every ParamType.
var ParamTypes = []ParamType{Categorical, Numeric, NumericLog, NumericPercentile, Timestamp}

// Valid reports whether t is a known ParamType.
func (t ParamType) Valid() bool {
	switch t {
	case Categorical, Numeric, NumericLog, NumericPercentile, Timestamp:
		return true
	}
	return false
}

// HasOutliers reports whether columns of type t reserve a pixel band
// for special values.
func (t ParamType) HasOutliers() bool {
	return t == Numeric || t == NumericLog || t == NumericPercentile
}

func (t ParamType) String() string {
	return string(t)
}

func (t *ParamType) UnmarshalText(text []byte) error {
	v := ParamType(text)
	if v != "" && !v.Valid() {
		return fmt.Errorf("%w: invalid value type %q", ErrValidation, text)
	}
	*t = v
	return nil
}
