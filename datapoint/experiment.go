// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datapoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrValidation is wrapped by every experiment validation error.
	ErrValidation = errors.New("invalid experiment")

	// ErrCircularRef indicates a cycle in datapoint lineage.
	ErrCircularRef = fmt.Errorf("%w: circular reference", ErrValidation)

	// ErrMissingParent indicates a from_uid that names no datapoint.
	ErrMissingParent = fmt.Errorf("%w: parent not found", ErrValidation)
)

// ValueDef carries caller-supplied hints for one column.
type ValueDef struct {
	// Type overrides the inferred type, if set.
	Type ParamType `json:"type,omitempty" yaml:"type,omitempty"`

	// Colors maps values to "rgb(...)" or "hsl(...)" colors.
	Colors map[string]string `json:"colors,omitempty" yaml:"colors,omitempty"`

	// Colormap names the colormap for numeric coloring.
	Colormap string `json:"colormap,omitempty" yaml:"colormap,omitempty"`

	// ForceValueMin and ForceValueMax override the scale domain.
	ForceValueMin *float64 `json:"force_value_min,omitempty" yaml:"force_value_min,omitempty"`
	ForceValueMax *float64 `json:"force_value_max,omitempty" yaml:"force_value_max,omitempty"`

	LabelCSS string `json:"label_css,omitempty" yaml:"label_css,omitempty"`

	// ParallelPlotOrder orders the column in the parallel plot. A
	// negative order hides it.
	ParallelPlotOrder *int `json:"parallel_plot_order,omitempty" yaml:"parallel_plot_order,omitempty"`

	// ParallelPlotInverted shows larger values at the bottom.
	ParallelPlotInverted *bool `json:"parallel_plot_inverted,omitempty" yaml:"parallel_plot_inverted,omitempty"`
}

// Validate checks the hint's type and colors.
func (v *ValueDef) Validate() error {
	if v.Type != "" && !v.Type.Valid() {
		return fmt.Errorf("%w: invalid value type %q", ErrValidation, v.Type)
	}
	for k, c := range v.Colors {
		if !strings.HasPrefix(c, "rgb(") && !strings.HasPrefix(c, "hsl(") {
			return fmt.Errorf("%w: invalid color %s for value %s: expected color to start with either \"rgb(\" or \"hsl(\"", ErrValidation, c, k)
		}
	}
	return nil
}

// Compressed is the columnar encoding of a list of datapoints. Each
// row is [uid, from_uid, values...] with values in Columns order.
type Compressed struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Decompress expands c into datapoints.
func (c *Compressed) Decompress() []*Datapoint {
	out := make([]*Datapoint, 0, len(c.Rows))
	for _, row := range c.Rows {
		dp := &Datapoint{Values: make(map[string]any, len(c.Columns))}
		if len(row) > 0 {
			dp.UID = uidString(row[0])
		}
		if len(row) > 1 {
			dp.FromUID = uidString(row[1])
		}
		for i, col := range c.Columns {
			if i+2 < len(row) {
				dp.Values[col] = row[i+2]
			}
		}
		out = append(out, dp)
	}
	return out
}

// Compress encodes rows in columnar form. Missing values become nil.
func Compress(rows []*Datapoint) *Compressed {
	set := map[string]bool{}
	for _, r := range rows {
		for k := range r.Values {
			if k != UIDColumn && k != FromUIDColumn {
				set[k] = true
			}
		}
	}
	c := &Compressed{Columns: make([]string, 0, len(set))}
	for k := range set {
		c.Columns = append(c.Columns, k)
	}
	sort.Strings(c.Columns)
	c.Rows = make([][]any, len(rows))
	for i, r := range rows {
		row := make([]any, 2, len(c.Columns)+2)
		row[0] = r.UID
		if r.FromUID != "" {
			row[1] = r.FromUID
		}
		for _, col := range c.Columns {
			row = append(row, r.Values[col])
		}
		c.Rows[i] = row
	}
	return c
}

// Experiment is a dataset together with its display hints.
type Experiment struct {
	Datapoints           []*Datapoint         `json:"datapoints"`
	ParametersDefinition map[string]*ValueDef `json:"parameters_definition,omitempty"`

	// Colorby is the initial column used for coloring.
	Colorby string `json:"colorby,omitempty"`

	// Colormap is the default colormap for numeric columns.
	Colormap string `json:"colormap,omitempty"`

	// DisplayData holds per-display settings keyed by display name,
	// such as "parallel_plot".
	DisplayData map[string]json.RawMessage `json:"display_data,omitempty"`
}

func (e *Experiment) UnmarshalJSON(data []byte) error {
	type plain Experiment
	var aux struct {
		plain
		DatapointsCompressed *Compressed `json:"datapoints_compressed"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*e = Experiment(aux.plain)
	if len(e.Datapoints) == 0 && aux.DatapointsCompressed != nil {
		e.Datapoints = aux.DatapointsCompressed.Decompress()
	}
	return nil
}

// Display decodes the display settings stored under name into dst. It
// reports whether any were present.
func (e *Experiment) Display(name string, dst any) (bool, error) {
	raw, ok := e.DisplayData[name]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("display data %s: %w", name, err)
	}
	return true, nil
}

// Validate checks that e has datapoints, valid hints, no reserved
// value names, and an acyclic lineage whose parents all exist.
func (e *Experiment) Validate() error {
	if len(e.Datapoints) == 0 {
		return fmt.Errorf("%w: not a single datapoint", ErrValidation)
	}
	lookup := Index(e.Datapoints)
	seen := map[string]bool{}
	for _, p := range e.Datapoints {
		if !seen[p.UID] {
			seenNow := map[string]bool{p.UID: true}
			dp := p
			for dp.FromUID != "" && !seen[dp.FromUID] {
				if seenNow[dp.FromUID] {
					return fmt.Errorf("%w in %s parents (%d-th parent)", ErrCircularRef, p, len(seenNow))
				}
				seenNow[dp.FromUID] = true
				parent, ok := lookup[dp.FromUID]
				if !ok {
					return fmt.Errorf("%w: datapoint (%s) parent (%s)", ErrMissingParent, dp.UID, dp.FromUID)
				}
				dp = parent
			}
			for k := range seenNow {
				seen[k] = true
			}
		}
		for _, kw := range []string{UIDColumn, FromUIDColumn} {
			if _, ok := p.Values[kw]; ok {
				return fmt.Errorf("%w: datapoint %s contains a value for %q", ErrValidation, p.UID, kw)
			}
		}
	}
	for col, vd := range e.ParametersDefinition {
		if vd == nil {
			continue
		}
		if err := vd.Validate(); err != nil {
			return fmt.Errorf("column %s: %w", col, err)
		}
	}
	return nil
}

// FromRecords builds an experiment from a list of records. A record's
// "uid" entry, if any, becomes the uid; otherwise the record index is
// used. A "from_uid" entry becomes the parent.
func FromRecords(records []map[string]any) *Experiment {
	e := &Experiment{Datapoints: make([]*Datapoint, 0, len(records))}
	for i, rec := range records {
		dp := &Datapoint{UID: fmt.Sprint(i), Values: make(map[string]any, len(rec))}
		for k, v := range rec {
			switch k {
			case UIDColumn:
				dp.UID = Format(Normalize(v))
			case FromUIDColumn:
				if v != nil {
					dp.FromUID = Format(Normalize(v))
				}
			default:
				dp.Values[k] = Normalize(v)
			}
		}
		e.Datapoints = append(e.Datapoints, dp)
	}
	return e
}

// Merge combines several experiments into one. Uids are prefixed with
// the experiment name and a column "exp" records the origin.
func Merge(exps map[string]*Experiment) *Experiment {
	names := make([]string, 0, len(exps))
	for k := range exps {
		names = append(names, k)
	}
	sort.Strings(names)

	out := &Experiment{ParametersDefinition: map[string]*ValueDef{}}
	for _, name := range names {
		sub := exps[name]
		for _, d := range sub.Datapoints {
			nd := &Datapoint{UID: name + "_" + d.UID, Values: make(map[string]any, len(d.Values)+1)}
			if d.FromUID != "" {
				nd.FromUID = name + "_" + d.FromUID
			}
			for k, v := range d.Values {
				nd.Values[k] = v
			}
			nd.Values["exp"] = name
			out.Datapoints = append(out.Datapoints, nd)
		}
		for k, v := range sub.ParametersDefinition {
			out.ParametersDefinition[k] = v
		}
		if out.Colorby == "" {
			out.Colorby = sub.Colorby
		}
		if out.Colormap == "" {
			out.Colormap = sub.Colormap
		}
	}
	return out
}
