// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchfmt reads Go benchmark results files as experiments.
//
// The format is specified at:
// https://github.com/golang/proposal/blob/master/design/14313-benchmark-format.md
//
// Every benchmark result line becomes one datapoint. Its columns are
// the benchmark name, the iteration count, every configuration pair
// in effect for the line, and one column per result unit, such as
// "ns/op".
package benchfmt

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/facebookresearch/hiplot-sub000/datapoint"
)

// Column names that every row has.
const (
	NameColumn       = "name"
	IterationsColumn = "iterations"
)

// ProcsKey is the configuration key of the -N suffix of a benchmark
// name.
const ProcsKey = "gomaxprocs"

var configRe = regexp.MustCompile(`^(\p{Ll}[^\p{Lu}\s\x85\xa0\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}]*):(?:[ \t]+(.*))?$`)

// line is one parsed benchmark result.
type line struct {
	name       string
	iterations int
	config     map[string]string
	results    map[string]float64
}

// Read parses a benchmark results file into an experiment. It fails
// if r holds no benchmark lines.
func Read(r io.Reader) (*datapoint.Experiment, error) {
	var lines []*line
	block := map[string]string{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		text := scanner.Text()
		if text == "testing: warning: no tests to run" {
			continue
		}
		if m := configRe.FindStringSubmatch(text); m != nil {
			block[m[1]] = m[2]
			continue
		}
		if strings.HasPrefix(text, "Benchmark") {
			if l := parseLine(text, block); l != nil {
				lines = append(lines, l)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: no benchmark results", datapoint.ErrValidation)
	}

	config := convertConfig(lines)
	exp := &datapoint.Experiment{Datapoints: make([]*datapoint.Datapoint, len(lines))}
	for i, l := range lines {
		vals := make(map[string]any, len(l.config)+len(l.results)+2)
		for k, v := range config[i] {
			vals[k] = v
		}
		for unit, v := range l.results {
			vals[unit] = v
		}
		vals[NameColumn] = l.name
		vals[IterationsColumn] = float64(l.iterations)
		exp.Datapoints[i] = &datapoint.Datapoint{UID: strconv.Itoa(i), Values: vals}
	}
	return exp, nil
}

func parseLine(text string, block map[string]string) *line {
	f := strings.Fields(text)
	if len(f) < 4 {
		return nil
	}
	if f[0] != "Benchmark" {
		next, _ := utf8.DecodeRuneInString(f[0][len("Benchmark"):])
		if !unicode.IsUpper(next) {
			return nil
		}
	}
	n, err := strconv.Atoi(f[1])
	if err != nil || n <= 0 {
		return nil
	}

	l := &line{
		iterations: n,
		config:     make(map[string]string, len(block)+1),
		results:    map[string]float64{},
	}
	for k, v := range block {
		l.config[k] = v
	}

	name := strings.TrimPrefix(f[0], "Benchmark")
	if i := strings.LastIndex(name, "-"); i >= 0 {
		if _, err := strconv.Atoi(name[i+1:]); err == nil {
			l.config[ProcsKey] = name[i+1:]
			name = name[:i]
		}
	}
	if base, sub, ok := strings.Cut(name, "/"); ok {
		name = base
		for _, part := range strings.Split(sub, "/") {
			if k, v, ok := strings.Cut(part, ":"); ok {
				l.config[k] = v
			}
		}
	}
	l.name = name
	if _, ok := l.config[ProcsKey]; !ok {
		l.config[ProcsKey] = "1"
	}

	for i := 2; i+2 <= len(f); i += 2 {
		v, err := strconv.ParseFloat(f[i], 64)
		if err != nil {
			continue
		}
		l.results[f[i+1]] = v
	}
	return l
}

// A valueParser converts a raw configuration value to a column value.
type valueParser func(string) (any, error)

// valueParsers are tried in order. The first one that accepts every
// value of a key converts them all.
var valueParsers = []valueParser{
	func(s string) (any, error) {
		f, err := strconv.ParseFloat(s, 64)
		return f, err
	},
	func(s string) (any, error) {
		d, err := time.ParseDuration(s)
		return d.Seconds(), err
	},
}

// convertConfig converts the configuration of each line to column
// values. Keys whose values are all numbers or all durations become
// numeric columns; others stay strings.
func convertConfig(lines []*line) []map[string]any {
	keys := map[string]bool{}
	for _, l := range lines {
		for k := range l.config {
			keys[k] = true
		}
	}
	out := make([]map[string]any, len(lines))
	for i := range out {
		out[i] = make(map[string]any, len(keys))
	}
	for key := range keys {
		var vp valueParser
	parsers:
		for _, p := range valueParsers {
			for _, l := range lines {
				if raw, ok := l.config[key]; ok {
					if _, err := p(raw); err != nil {
						continue parsers
					}
				}
			}
			vp = p
			break
		}
		for i, l := range lines {
			raw, ok := l.config[key]
			if !ok {
				continue
			}
			if vp == nil {
				out[i][key] = raw
				continue
			}
			out[i][key], _ = vp(raw)
		}
	}
	return out
}
