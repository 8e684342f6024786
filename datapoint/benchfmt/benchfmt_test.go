// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchfmt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facebookresearch/hiplot-sub000/datapoint"
)

func TestRead(t *testing.T) {
	for _, test := range []struct {
		name  string
		input string
		want  []map[string]any
	}{
		{"basic", `
BenchmarkX	1	2 ns/op 3 MB/s`,
			[]map[string]any{
				{"name": "X", "iterations": 1.0, "gomaxprocs": 1.0, "ns/op": 2.0, "MB/s": 3.0},
			},
		},
		{"short name", `
Benchmark	1	2 ns/op`,
			[]map[string]any{
				{"name": "", "iterations": 1.0, "gomaxprocs": 1.0, "ns/op": 2.0},
			},
		},
		{"procs", `
BenchmarkX-4	1	2 ns/op`,
			[]map[string]any{
				{"name": "X", "iterations": 1.0, "gomaxprocs": 4.0, "ns/op": 2.0},
			},
		},
		{"name config", `
BenchmarkX/a:20/b:abc	1	2 ns/op
BenchmarkY/a:1.5/b:10ms	2	4 ns/op`,
			[]map[string]any{
				{"name": "X", "iterations": 1.0, "gomaxprocs": 1.0, "a": 20.0, "b": "abc", "ns/op": 2.0},
				{"name": "Y", "iterations": 2.0, "gomaxprocs": 1.0, "a": 1.5, "b": "10ms", "ns/op": 4.0},
			},
		},
		{"block config", `
commit: 123456
timeout: 10ms
BenchmarkX	1	2 ns/op
timeout: 2s
BenchmarkX	1	3 ns/op 7 allocs/op
`,
			[]map[string]any{
				{"name": "X", "iterations": 1.0, "gomaxprocs": 1.0, "commit": 123456.0, "timeout": 0.01, "ns/op": 2.0},
				{"name": "X", "iterations": 1.0, "gomaxprocs": 1.0, "commit": 123456.0, "timeout": 2.0, "ns/op": 3.0, "allocs/op": 7.0},
			},
		},
		{"skipped lines", `
testing: warning: no tests to run
Benchmarkx	1	2 ns/op
BenchmarkX
BenchmarkX	0	2 ns/op
PASS
BenchmarkZ	5	1 ns/op bad unit
`,
			[]map[string]any{
				{"name": "Z", "iterations": 5.0, "gomaxprocs": 1.0, "ns/op": 1.0},
			},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			exp, err := Read(strings.NewReader(test.input))
			require.NoError(t, err)
			require.Len(t, exp.Datapoints, len(test.want))
			for i, dp := range exp.Datapoints {
				assert.Equal(t, test.want[i], dp.Values, "row %d", i)
			}
			assert.NoError(t, exp.Validate())
		})
	}
}

func TestReadEmpty(t *testing.T) {
	_, err := Read(strings.NewReader("PASS\nok  \tpkg\t0.1s\n"))
	assert.ErrorIs(t, err, datapoint.ErrValidation)
}

func TestReadUIDs(t *testing.T) {
	exp, err := Read(strings.NewReader("BenchmarkA 1 1 ns/op\nBenchmarkB 1 2 ns/op\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1"}, datapoint.UIDs(exp.Datapoints))
}
