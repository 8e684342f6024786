// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aclements/go-gg/table"
	"github.com/spf13/cobra"

	"github.com/facebookresearch/hiplot-sub000/datapoint"
	"github.com/facebookresearch/hiplot-sub000/infer"
	"github.com/facebookresearch/hiplot-sub000/internal/loop"
	"github.com/facebookresearch/hiplot-sub000/menu"
	"github.com/facebookresearch/hiplot-sub000/session"
)

func newDescribeCmd(o *options) *cobra.Command {
	var filters []string
	cmd := &cobra.Command{
		Use:   "describe [inputs...]",
		Short: "Print the inferred column definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.open(cmd)
			if err != nil {
				return err
			}
			s, _, err := e.load(cmd.Context(), args, cmd.InOrStdin(), filters, nil)
			if err != nil {
				return err
			}
			defer s.Close()
			ds := s.Dataset()
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d rows\n", len(ds.Filtered()), len(ds.All()))
			printColumns(cmd.OutOrStdout(), ds.Params())
			return e.save()
		},
	}
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "describe only rows matching the JSON `filter` (repeatable)")
	return cmd
}

// load reads the inputs into a new session on a loop of its own. The
// filters in the config file and in flags replace the persisted chain.
// reg may be nil.
func (e *env) load(ctx context.Context, paths []string, r io.Reader, filters []string, reg *menu.Registry) (*session.Session, *loop.Loop, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	chain, err := e.cfg.chain(filters)
	if err != nil {
		return nil, nil, err
	}
	if err := seedChain(e.store, chain); err != nil {
		return nil, nil, err
	}

	exp, err := loadInputs(ctx, paths, r)
	if err != nil {
		return nil, nil, err
	}
	l := loop.New(loop.SystemClock{})
	s, err := e.newSession(l, reg)
	if err != nil {
		return nil, nil, err
	}
	if err := s.SetExperiment(exp); err != nil {
		s.Close()
		return nil, nil, err
	}
	if c := e.cfg.Colorby; c != "" {
		if err := s.SetColorBy(c); err != nil {
			s.Close()
			return nil, nil, err
		}
	}
	e.log.Debug("loaded experiment", "rows", len(exp.Datapoints), "inputs", len(paths))
	return s, l, nil
}

func (e *env) newSession(l *loop.Loop, reg *menu.Registry) (*session.Session, error) {
	cfg := session.DefaultConfig()
	cfg.Store = e.store
	cfg.Colormap = e.cfg.Colormap
	cfg.Logger = e.log
	cfg.Dataset.Asserts = e.cfg.Asserts
	return session.New(cfg, l, reg)
}

// printColumns prints one line per column definition.
func printColumns(w io.Writer, params map[string]*infer.ParamDef) {
	names := make([]string, 0, len(params))
	for c := range params {
		names = append(names, c)
	}
	sort.Strings(names)

	var types, opts, optional, ranges, specials []string
	var distinct []int
	for _, c := range names {
		pd := params[c]
		types = append(types, pd.Type.String())
		var o []string
		for _, t := range pd.TypeOptions {
			o = append(o, t.String())
		}
		opts = append(opts, strings.Join(o, ","))
		optional = append(optional, yesNo(pd.Optional))
		distinct = append(distinct, len(pd.DistinctValues))
		ranges = append(ranges, valueRange(pd))
		var sp []string
		for _, v := range pd.SpecialValues {
			sp = append(sp, datapoint.Format(v))
		}
		specials = append(specials, strings.Join(sp, ","))
	}

	tab := new(table.Builder).
		Add("column", names).
		Add("type", types).
		Add("options", opts).
		Add("optional", optional).
		Add("distinct", distinct).
		Add("range", ranges).
		Add("special", specials).
		Done()
	table.Fprint(w, tab)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// valueRange describes the smallest and largest values of a column.
func valueRange(pd *infer.ParamDef) string {
	n := len(pd.DistinctValues)
	if n == 0 {
		return "-"
	}
	lo, hi := pd.DistinctValues[0], pd.DistinctValues[n-1]
	if pd.Type == datapoint.Timestamp {
		return timeString(lo) + ".." + timeString(hi)
	}
	if n == 1 {
		return datapoint.Format(lo)
	}
	return datapoint.Format(lo) + ".." + datapoint.Format(hi)
}

func timeString(v any) string {
	f, ok := datapoint.ParseNumber(v)
	if !ok {
		return datapoint.Format(v)
	}
	return time.Unix(int64(f), 0).UTC().Format(time.RFC3339)
}
