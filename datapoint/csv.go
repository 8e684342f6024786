// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datapoint

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ReadCSV reads an experiment from CSV. The first record names the
// columns. Values are kept as strings; type inference decides which
// columns are numeric. Empty cells are treated as missing values.
//
// A "uid" or "from_uid" column is used for the datapoint identity.
// Otherwise rows are numbered from 0.
func ReadCSV(r io.Reader) (*Experiment, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty CSV input", ErrValidation)
	} else if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []map[string]any
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		if len(rec) > len(header) {
			return nil, fmt.Errorf("%w: line %d: %d fields, header has %d", ErrValidation, line, len(rec), len(header))
		}
		m := make(map[string]any, len(rec))
		for i, v := range rec {
			if v == "" {
				continue
			}
			m[header[i]] = v
		}
		records = append(records, m)
	}
	return FromRecords(records), nil
}
