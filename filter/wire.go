// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package filter

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/facebookresearch/hiplot-sub000/datapoint"
)

// Wire type names.
const (
	typeRange  = "Range"
	typeNot    = "Not"
	typeAll    = "All"
	typeSearch = "Search"
	typeNone   = "None"
)

type wire struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type wireRange struct {
	Col            string              `json:"col"`
	Type           datapoint.ParamType `json:"type"`
	Min            any                 `json:"min"`
	Max            any                 `json:"max"`
	IncludeInfNaNs bool                `json:"include_infnans,omitempty"`
}

// Marshal encodes f in the {"type", "data"} wire form.
func Marshal(f Filter) ([]byte, error) {
	w, err := toWire(f)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func toWire(f Filter) (*wire, error) {
	var data any
	var typ string
	switch f := f.(type) {
	case nil:
		return nil, ErrNilFilter
	case Range:
		typ = typeRange
		data = wireRange{f.Col, f.Type, f.Min, f.Max, f.IncludeInfNaNs}
	case Not:
		typ = typeNot
		sub, err := toWire(f.Filter)
		if err != nil {
			return nil, err
		}
		data = sub
	case All:
		typ = typeAll
		subs := make([]*wire, len(f))
		for i, s := range f {
			sub, err := toWire(s)
			if err != nil {
				return nil, err
			}
			subs[i] = sub
		}
		data = subs
	case Search:
		typ = typeSearch
		data = string(f)
	case None:
		return &wire{Type: typeNone}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownType, f)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &wire{typ, raw}, nil
}

// Unmarshal decodes a filter from its wire form.
func Unmarshal(data []byte) (Filter, error) {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	return fromWire(&w)
}

func fromWire(w *wire) (Filter, error) {
	switch w.Type {
	case typeRange:
		var r wireRange
		if err := json.Unmarshal(w.Data, &r); err != nil {
			return nil, fmt.Errorf("Range: %w", err)
		}
		return Range{r.Col, r.Type, r.Min, r.Max, r.IncludeInfNaNs}, nil
	case typeNot:
		var sub wire
		if err := json.Unmarshal(w.Data, &sub); err != nil {
			return nil, fmt.Errorf("Not: %w", err)
		}
		f, err := fromWire(&sub)
		if err != nil {
			return nil, err
		}
		return Not{f}, nil
	case typeAll:
		var subs []*wire
		if len(w.Data) > 0 {
			if err := json.Unmarshal(w.Data, &subs); err != nil {
				return nil, fmt.Errorf("All: %w", err)
			}
		}
		all := make(All, 0, len(subs))
		for _, sub := range subs {
			f, err := fromWire(sub)
			if err != nil {
				return nil, err
			}
			all = append(all, f)
		}
		return all, nil
	case typeSearch:
		var s string
		if err := json.Unmarshal(w.Data, &s); err != nil {
			return nil, fmt.Errorf("Search: %w", err)
		}
		return Search(s), nil
	case typeNone:
		return None{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, w.Type)
}

// MarshalChain encodes a filter chain as a JSON array.
func MarshalChain(chain []Filter) ([]byte, error) {
	ws := make([]*wire, len(chain))
	for i, f := range chain {
		w, err := toWire(f)
		if err != nil {
			return nil, err
		}
		ws[i] = w
	}
	return json.Marshal(ws)
}

// UnmarshalChain decodes a JSON array of filters.
func UnmarshalChain(data []byte) ([]Filter, error) {
	var ws []*wire
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, err
	}
	chain := make([]Filter, len(ws))
	for i, w := range ws {
		f, err := fromWire(w)
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
		chain[i] = f
	}
	return chain, nil
}

// ToValue converts f to plain maps and slices, suitable for storing in
// a pstate.Store.
func ToValue(f Filter) (any, error) {
	raw, err := Marshal(f)
	if err != nil {
		return nil, err
	}
	var v any
	err = json.Unmarshal(raw, &v)
	return v, err
}

// FromValue is the inverse of ToValue.
func FromValue(v any) (Filter, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Unmarshal(raw)
}

// Equal reports whether a and b are the same filter. Two nil filters
// are equal.
func Equal(a, b Filter) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ja, err := Marshal(a)
	if err != nil {
		return false
	}
	jb, err := Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}

// String returns the wire form of f, for logging.
func String(f Filter) string {
	b, err := Marshal(f)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(b)
}
