// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/facebookresearch/hiplot-sub000/datapoint"
	"github.com/facebookresearch/hiplot-sub000/filter"
)

func newFilterCmd(o *options) *cobra.Command {
	var (
		filters []string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "filter [inputs...]",
		Short: "Print the rows that pass a filter chain",
		Long: `Filter applies the filter chain of the config file and the --filter
flags to the inputs and prints the uids of the remaining rows. A chain
that matches no row is dropped and every row is printed.`,
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
			if len(ds.Chain()) == 0 && len(filters)+len(e.cfg.Filters) > 0 {
				e.log.Warn("filters match no rows; showing all rows")
			}

			w := cmd.OutOrStdout()
			if asJSON {
				exp, _ := s.Experiment()
				err = writeFiltered(w, exp, ds.Filtered(), ds.Chain())
			} else {
				for _, uid := range datapoint.UIDs(ds.Filtered()) {
					fmt.Fprintln(w, uid)
				}
			}
			if err != nil {
				return err
			}
			return e.save()
		},
	}
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "keep rows matching the JSON `filter` (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "write the remaining rows as an experiment")
	return cmd
}

// writeFiltered writes rows as an experiment with the hints of exp.
// Parents that were filtered out are dropped from the lineage.
func writeFiltered(w io.Writer, exp *datapoint.Experiment, rows []*datapoint.Datapoint, chain []filter.Filter) error {
	kept := datapoint.Index(rows)
	out := &datapoint.Experiment{
		ParametersDefinition: exp.ParametersDefinition,
		Colorby:              exp.Colorby,
		Colormap:             exp.Colormap,
		DisplayData:          exp.DisplayData,
		Datapoints:           make([]*datapoint.Datapoint, len(rows)),
	}
	for i, r := range rows {
		dp := *r
		if _, ok := kept[dp.FromUID]; !ok {
			dp.FromUID = ""
		}
		out.Datapoints[i] = &dp
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("writing %d rows after %d filters: %w", len(rows), len(chain), err)
	}
	return nil
}
