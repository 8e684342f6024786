// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// File is a Store backed by a YAML document on disk. Changes are kept
// in memory until Save.
type File struct {
	scoped
	path string
	m    *mapBackend
}

// Load reads the state file at path. A missing file yields an empty
// Store that will be created by Save.
func Load(path string) (*File, error) {
	m := &mapBackend{m: map[string][]byte{}}
	f := &File{scoped{b: m}, path, m}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	} else if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for k, v := range doc {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%s: key %s: %w", path, k, err)
		}
		m.m[k] = raw
	}
	return f, nil
}

// Path returns the file backing f.
func (f *File) Path() string {
	return f.path
}

// Save writes the state back to disk. The file is replaced atomically.
func (f *File) Save() error {
	doc := map[string]any{}
	for _, k := range f.m.keys() {
		raw, _ := f.m.load(k)
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("key %s: %w", k, err)
		}
		doc[k] = v
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".hiplot-state-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}
