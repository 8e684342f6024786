// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package datapoint defines the records displayed by hiplot and the
// experiments that carry them.
//
// A Datapoint is one uniquely identified record. Besides its uid it may
// name a parent datapoint (FromUID) and it carries an open set of named
// scalar values: float64, string, bool, or nil. The special values
// +Inf, -Inf, NaN, nil and the strings "inf" and "-inf" are excluded
// from normal numeric scaling.
package datapoint

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Reserved column names.
const (
	UIDColumn     = "uid"
	FromUIDColumn = "from_uid"
)

// Datapoint is a single row of an experiment.
type Datapoint struct {
	// UID uniquely identifies this datapoint.
	UID string

	// FromUID is the uid of the parent datapoint, or "" if this
	// datapoint has no parent.
	FromUID string

	// Values maps column names to scalar values.
	Values map[string]any
}

// Get returns the value of column col. The reserved columns "uid" and
// "from_uid" are always present; from_uid is nil if d has no parent.
func (d *Datapoint) Get(col string) (any, bool) {
	switch col {
	case UIDColumn:
		return d.UID, true
	case FromUIDColumn:
		if d.FromUID == "" {
			return nil, true
		}
		return d.FromUID, true
	}
	v, ok := d.Values[col]
	return v, ok
}

// Columns returns the names of all columns of d: the reserved columns
// first, then the value columns in sorted order.
func (d *Datapoint) Columns() []string {
	cols := make([]string, 0, len(d.Values)+2)
	for k := range d.Values {
		if k == UIDColumn || k == FromUIDColumn {
			continue
		}
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return append([]string{UIDColumn, FromUIDColumn}, cols...)
}

func (d *Datapoint) String() string {
	return fmt.Sprintf("datapoint %s", d.UID)
}

type jsonDatapoint struct {
	UID     string         `json:"uid"`
	FromUID *string        `json:"from_uid"`
	Values  map[string]any `json:"values"`
}

func (d *Datapoint) MarshalJSON() ([]byte, error) {
	j := jsonDatapoint{UID: d.UID, Values: d.Values}
	if d.FromUID != "" {
		j.FromUID = &d.FromUID
	}
	if j.Values == nil {
		j.Values = map[string]any{}
	}
	return json.Marshal(j)
}

func (d *Datapoint) UnmarshalJSON(data []byte) error {
	var j struct {
		UID     any            `json:"uid"`
		FromUID any            `json:"from_uid"`
		Values  map[string]any `json:"values"`
	}
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	d.UID = uidString(j.UID)
	d.FromUID = uidString(j.FromUID)
	d.Values = j.Values
	if d.Values == nil {
		d.Values = map[string]any{}
	}
	return nil
}

// uidString converts a decoded JSON uid to a string. Experiments
// written by hand often use numbers as uids.
func uidString(v any) string {
	if v == nil {
		return ""
	}
	return Format(v)
}

// Index returns a uid lookup table for rows.
func Index(rows []*Datapoint) map[string]*Datapoint {
	m := make(map[string]*Datapoint, len(rows))
	for _, r := range rows {
		m[r.UID] = r
	}
	return m
}

// UIDs returns the uids of rows in order.
func UIDs(rows []*Datapoint) []string {
	uids := make([]string, len(rows))
	for i, r := range rows {
		uids[i] = r.UID
	}
	return uids
}

// Lineage returns the chain of ancestors of the datapoint uid, nearest
// first, as found in lookup. It stops at the first missing parent or
// at a cycle.
func Lineage(lookup map[string]*Datapoint, uid string) []*Datapoint {
	var out []*Datapoint
	seen := map[string]bool{uid: true}
	dp := lookup[uid]
	for dp != nil && dp.FromUID != "" && !seen[dp.FromUID] {
		seen[dp.FromUID] = true
		dp = lookup[dp.FromUID]
		if dp != nil {
			out = append(out, dp)
		}
	}
	return out
}

// Subtract returns the rows of a whose uid does not appear in b,
// preserving the order of a.
func Subtract(a, b []*Datapoint) []*Datapoint {
	drop := make(map[string]bool, len(b))
	for _, r := range b {
		drop[r.UID] = true
	}
	out := make([]*Datapoint, 0, len(a))
	for _, r := range a {
		if !drop[r.UID] {
			out = append(out, r)
		}
	}
	return out
}

// Intersect returns the rows of a whose uid also appears in b,
// preserving the order of a.
func Intersect(a, b []*Datapoint) []*Datapoint {
	keep := make(map[string]bool, len(b))
	for _, r := range b {
		keep[r.UID] = true
	}
	out := make([]*Datapoint, 0, len(a))
	for _, r := range a {
		if keep[r.UID] {
			out = append(out, r)
		}
	}
	return out
}
