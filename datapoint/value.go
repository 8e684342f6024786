// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datapoint

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// IsSpecial reports whether v is one of the special numeric values:
// nil, NaN, ±Inf, or the strings "inf" and "-inf".
func IsSpecial(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(v) || math.IsInf(v, 0)
	case string:
		return v == "inf" || v == "-inf"
	}
	return false
}

// ParseNumber reports whether v is a finite number or a string
// holding one, and returns its value. Booleans are never numbers.
func ParseNumber(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Loose converts v to a float64 the way a lenient parser would: numbers
// are returned as is, numeric strings are parsed, and everything else
// (including a missing value) is NaN.
func Loose(v any) float64 {
	switch v := v.(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
	return math.NaN()
}

// Format returns the display string of a value. Numbers use the
// shortest representation that round-trips, switching to exponent
// notation only for very large or very small magnitudes.
func Format(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		return FormatFloat(v)
	}
	return fmt.Sprint(v)
}

// FormatFloat formats f like Format.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	a := math.Abs(f)
	if a != 0 && (a < 1e-6 || a >= 1e21) {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		// Go writes "1e-07"; drop the padding zero.
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		exp = strings.TrimLeft(exp[1:], "0")
		return mant + "e" + sign + exp
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Normalize converts Go numeric types to float64 so values built in
// code look like values decoded from JSON.
func Normalize(v any) any {
	switch v := v.(type) {
	case int:
		return float64(v)
	case int8:
		return float64(v)
	case int16:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint8:
		return float64(v)
	case uint16:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	case float32:
		return float64(v)
	}
	return v
}

// CompareStrings orders values by their display strings.
func CompareStrings(a, b any) int {
	return strings.Compare(Format(a), Format(b))
}

// CompareNumbers orders values numerically using Loose. NaN sorts
// after every number.
func CompareNumbers(a, b any) int {
	x, y := Loose(a), Loose(b)
	switch {
	case math.IsNaN(x) && math.IsNaN(y):
		return 0
	case math.IsNaN(x):
		return 1
	case math.IsNaN(y):
		return -1
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}
