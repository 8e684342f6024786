// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/facebookresearch/hiplot-sub000/dataset"
	"github.com/facebookresearch/hiplot-sub000/filter"
	"github.com/facebookresearch/hiplot-sub000/pstate"
)

// fileConfig is the --config file. Zero fields leave the defaults.
type fileConfig struct {
	Width    int      `yaml:"width"`
	Height   int      `yaml:"height"`
	Colorby  string   `yaml:"colorby"`
	Colormap string   `yaml:"colormap"`
	Order    []string `yaml:"order"`
	Hide     []string `yaml:"hide"`
	Invert   []string `yaml:"invert"`

	// Brushes maps a column to a "lo:hi" range of its values.
	Brushes map[string]string `yaml:"brushes"`

	// Filters is a chain of filters in their JSON form, applied
	// before brushing.
	Filters []any `yaml:"filters"`

	Asserts bool `yaml:"asserts"`
}

// loadConfig reads the display settings at path. An empty path yields
// the zero configuration.
func loadConfig(path string) (*fileConfig, error) {
	cfg := new(fileConfig)
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// chain decodes the configured filters followed by the JSON filters in
// extra.
func (c *fileConfig) chain(extra []string) ([]filter.Filter, error) {
	var chain []filter.Filter
	for i, v := range c.Filters {
		f, err := filter.FromValue(v)
		if err != nil {
			return nil, fmt.Errorf("config filter %d: %w", i, err)
		}
		chain = append(chain, f)
	}
	for _, s := range extra {
		f, err := filter.Unmarshal([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", s, err)
		}
		chain = append(chain, f)
	}
	return chain, nil
}

// seedChain stores chain as the filters to apply on the next load. An
// empty chain leaves the persisted filters alone.
func seedChain(s pstate.Store, chain []filter.Filter) error {
	if len(chain) == 0 {
		return nil
	}
	raw, err := filter.MarshalChain(chain)
	if err != nil {
		return err
	}
	return s.Set(dataset.FiltersKey, json.RawMessage(raw))
}

// A brushRange is a brushed range of one column, in column values.
type brushRange struct {
	col    string
	lo, hi string
}

// parseBrush parses "col=lo:hi". Values may not contain colons.
func parseBrush(s string) (brushRange, error) {
	col, rng, ok := strings.Cut(s, "=")
	if !ok || col == "" {
		return brushRange{}, fmt.Errorf("brush %q: want col=lo:hi", s)
	}
	b, err := parseRange(col, rng)
	if err != nil {
		return brushRange{}, fmt.Errorf("brush %q: %w", s, err)
	}
	return b, nil
}

func parseRange(col, rng string) (brushRange, error) {
	lo, hi, ok := strings.Cut(rng, ":")
	if !ok || lo == "" || hi == "" {
		return brushRange{}, errors.New("want lo:hi")
	}
	return brushRange{col: col, lo: lo, hi: hi}, nil
}

// brushes returns the configured brushes followed by the ones in
// flags. A flag replaces a configured brush of the same column.
func (c *fileConfig) brushes(flags []string) ([]brushRange, error) {
	byCol := map[string]brushRange{}
	for col, rng := range c.Brushes {
		b, err := parseRange(col, rng)
		if err != nil {
			return nil, fmt.Errorf("config brush %s: %w", col, err)
		}
		byCol[col] = b
	}
	for _, s := range flags {
		b, err := parseBrush(s)
		if err != nil {
			return nil, err
		}
		byCol[b.col] = b
	}
	out := make([]brushRange, 0, len(byCol))
	for _, b := range byCol {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].col < out[j].col })
	return out, nil
}
