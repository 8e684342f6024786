// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command hiplot inspects experiments and plots them as parallel
// coordinates.
//
// Inputs are hiplot experiments (.json), CSV files (.csv) or Go
// benchmark results (.txt, .bench). With no inputs, hiplot reads
// standard input. Several inputs are merged into one experiment whose
// "exp" column names the input each row came from.
//
//	hiplot describe runs.csv
//	hiplot filter -f '{"type":"Search","data":"adam"}' runs.csv
//	hiplot render -o plot.png --brush loss=0:0.5 runs.csv
//
// Display settings may be given in a YAML file with --config. View
// state such as the axis order and the filter chain is kept in the
// YAML file named by --state, if any.
package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/facebookresearch/hiplot-sub000/pstate"
)

func main() {
	log.SetPrefix("hiplot: ")
	log.SetFlags(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Fatal(err)
	}
}

// options are the flags shared by every command.
type options struct {
	config  string
	state   string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "hiplot",
		Short:         "Explore experiments as parallel coordinates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.config, "config", "", "read display settings from YAML `file`")
	pf.StringVar(&opts.state, "state", "", "keep view state in YAML `file`")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug messages")

	root.AddCommand(
		newDescribeCmd(opts),
		newFilterCmd(opts),
		newRenderCmd(opts),
	)
	return root
}

// env is what a command needs besides its inputs.
type env struct {
	cfg   *fileConfig
	store pstate.Store
	file  *pstate.File
	log   *slog.Logger
}

func (o *options) open(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(o.config)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, log: newLogger(cmd.ErrOrStderr(), o.verbose)}
	if o.state != "" {
		if e.file, err = pstate.Load(o.state); err != nil {
			return nil, err
		}
		e.store = e.file
	} else {
		e.store = pstate.NewMemory()
	}
	return e, nil
}

// save writes the view state back to the --state file.
func (e *env) save() error {
	if e.file == nil {
		return nil
	}
	if err := e.file.Save(); err != nil {
		return err
	}
	e.log.Debug("saved view state", "path", e.file.Path())
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
