// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package menu is the registry behind per-column context menus.
//
// Components add callbacks under an Owner token. When a column's menu
// is opened, every callback contributes items to it. A component
// removes all of its callbacks at once when it goes away.
package menu

import (
	"github.com/google/uuid"
)

// An Owner identifies the component that registered callbacks.
type Owner struct {
	id uuid.UUID
}

// NewOwner returns a fresh owner token.
func NewOwner() Owner {
	return Owner{uuid.New()}
}

func (o Owner) String() string {
	return o.id.String()
}

// An Item is one entry of a menu.
type Item struct {
	Label    string
	Disabled bool
	// Checked marks the currently active choice among items.
	Checked bool
	Action  func()
}

// Menu is the context menu of one column.
type Menu struct {
	Column string
	Items  []Item
}

// Add appends an item to m.
func (m *Menu) Add(label string, action func()) *Item {
	m.Items = append(m.Items, Item{Label: label, Action: action})
	return &m.Items[len(m.Items)-1]
}

// Separator appends a disabled, unlabeled item.
func (m *Menu) Separator() {
	if len(m.Items) > 0 {
		m.Items = append(m.Items, Item{Disabled: true})
	}
}

// Find returns the item with the given label, or nil.
func (m *Menu) Find(label string) *Item {
	for i := range m.Items {
		if m.Items[i].Label == label {
			return &m.Items[i]
		}
	}
	return nil
}

// Invoke runs the action of the item with the given label. It reports
// whether such an enabled item exists.
func (m *Menu) Invoke(label string) bool {
	it := m.Find(label)
	if it == nil || it.Disabled || it.Action == nil {
		return false
	}
	it.Action()
	return true
}

// A Callback adds items to the menu of column.
type Callback func(column string, m *Menu)

type entry struct {
	owner Owner
	fn    Callback
}

// Registry holds the callbacks of every owner.
type Registry struct {
	entries []entry
}

// AddCallback registers fn under owner.
func (r *Registry) AddCallback(owner Owner, fn Callback) {
	r.entries = append(r.entries, entry{owner, fn})
}

// RemoveCallbacks drops every callback of owner.
func (r *Registry) RemoveCallbacks(owner Owner) {
	keep := r.entries[:0]
	for _, e := range r.entries {
		if e.owner != owner {
			keep = append(keep, e)
		}
	}
	clear(r.entries[len(keep):])
	r.entries = keep
}

// Len returns the number of registered callbacks.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Open builds the menu of column. Callbacks run in registration order,
// separated from each other.
func (r *Registry) Open(column string) *Menu {
	m := &Menu{Column: column}
	for _, e := range r.entries {
		n := len(m.Items)
		if n > 0 {
			m.Separator()
		}
		e.fn(column, m)
		if len(m.Items) == n+1 && n > 0 {
			// The callback added nothing.
			m.Items = m.Items[:n]
		}
	}
	return m
}
