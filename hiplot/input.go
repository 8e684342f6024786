// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/facebookresearch/hiplot-sub000/datapoint"
	"github.com/facebookresearch/hiplot-sub000/datapoint/benchfmt"
)

var errUnknownFormat = errors.New("unknown input format")

// loadInputs reads every input concurrently. A single input is
// returned as is; several are merged, each named after its file.
// The path "-" reads r.
func loadInputs(ctx context.Context, paths []string, r io.Reader) (*datapoint.Experiment, error) {
	if len(paths) == 0 {
		paths = []string{"-"}
	}
	stdins := 0
	for _, p := range paths {
		if p == "-" {
			stdins++
		}
	}
	if stdins > 1 {
		return nil, errors.New("standard input given more than once")
	}

	exps := make([]*datapoint.Experiment, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			exp, err := readInput(ctx, path, r)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			exps[i] = exp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(exps) == 1 {
		return exps[0], nil
	}

	named := make(map[string]*datapoint.Experiment, len(exps))
	for i, path := range paths {
		named[inputName(path, named)] = exps[i]
	}
	return datapoint.Merge(named), nil
}

// inputName names the rows read from path in a merged experiment.
func inputName(path string, taken map[string]*datapoint.Experiment) string {
	name := "stdin"
	if path != "-" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if _, ok := taken[name]; !ok {
		return name
	}
	for i := 2; ; i++ {
		n := fmt.Sprintf("%s%d", name, i)
		if _, ok := taken[n]; !ok {
			return n
		}
	}
}

func readInput(ctx context.Context, path string, stdin io.Reader) (*datapoint.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if path == "-" {
		return readSniffed(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return readJSON(f)
	case ".csv":
		return datapoint.ReadCSV(f)
	case ".txt", ".bench":
		return benchfmt.Read(f)
	}
	return nil, fmt.Errorf("%w %q", errUnknownFormat, filepath.Ext(path))
}

// readSniffed reads an input of unknown type. JSON documents start
// with a brace; anything else is read as benchmark results.
func readSniffed(r io.Reader) (*datapoint.Experiment, error) {
	br := bufio.NewReader(r)
	for {
		b, err := br.Peek(1)
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty input", datapoint.ErrValidation)
		} else if err != nil {
			return nil, err
		}
		if !bytes.ContainsAny(b, " \t\r\n") {
			break
		}
		br.ReadByte()
	}
	if b, _ := br.Peek(1); b[0] == '{' {
		return readJSON(br)
	}
	return benchfmt.Read(br)
}

func readJSON(r io.Reader) (*datapoint.Experiment, error) {
	exp := new(datapoint.Experiment)
	if err := json.NewDecoder(r).Decode(exp); err != nil {
		return nil, err
	}
	return exp, nil
}
