// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pstate stores persistent UI state.
//
// State is a flat set of dot-separated keys such as "params.lr.type".
// Children returns a view of a Store scoped to a key prefix, so
// components can be handed their own namespace without knowing where
// it lives. Values are JSON-encodable and are round-tripped through
// JSON on every Get and Set.
package pstate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Store is a namespaced key/value store.
type Store interface {
	// Get decodes the value for key into dst. It reports whether
	// the key was present.
	Get(key string, dst any) (bool, error)

	// Set stores v under key. A nil v deletes the key.
	Set(key string, v any) error

	// Children returns the Store of keys under ns.
	Children(ns string) Store
}

// backend is a flat map of encoded values.
type backend interface {
	load(key string) ([]byte, bool)
	store(key string, val []byte)
	remove(key string)
	keys() []string
}

// scoped implements Store over a backend and a key prefix.
type scoped struct {
	b      backend
	prefix string
}

func (s scoped) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + "." + k
}

func (s scoped) Get(key string, dst any) (bool, error) {
	raw, ok := s.b.load(s.key(key))
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("state key %s: %w", s.key(key), err)
	}
	return true, nil
}

func (s scoped) Set(key string, v any) error {
	if v == nil {
		s.b.remove(s.key(key))
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("state key %s: %w", s.key(key), err)
	}
	s.b.store(s.key(key), raw)
	return nil
}

func (s scoped) Children(ns string) Store {
	return scoped{s.b, s.key(ns)}
}

func (s scoped) view() scoped { return s }

// Keys returns the sorted keys stored in s, relative to its namespace.
// It returns nil for Stores not created by this package.
func Keys(s Store) []string {
	v, ok := s.(interface{ view() scoped })
	if !ok {
		return nil
	}
	sc := v.view()
	var out []string
	for _, k := range sc.b.keys() {
		if sc.prefix == "" {
			out = append(out, k)
		} else if rest, ok := strings.CutPrefix(k, sc.prefix+"."); ok {
			out = append(out, rest)
		}
	}
	sort.Strings(out)
	return out
}

// Memory is an in-memory Store. The zero value is not usable; use
// NewMemory.
type Memory struct {
	scoped
}

// NewMemory returns an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{scoped{b: &mapBackend{m: map[string][]byte{}}}}
}

type mapBackend struct {
	mu sync.Mutex
	m  map[string][]byte
}

func (b *mapBackend) load(key string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.m[key]
	return v, ok
}

func (b *mapBackend) store(key string, val []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.m[key] = val
}

func (b *mapBackend) remove(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.m, key)
}

func (b *mapBackend) keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.m))
	for k := range b.m {
		out = append(out, k)
	}
	return out
}
