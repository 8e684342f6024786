// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package session

// A Control is a button that changes which rows are shown.
type Control struct {
	Label string

	// Style is a hint for the host, such as "success" or "danger".
	Style string

	Enabled func() bool
	Action  func()
}

// Controls returns the Keep, Exclude and Restore buttons.
func (s *Session) Controls() []Control {
	hasSelection := func() bool {
		return s.status == StatusLoaded && len(s.ds.Selected()) > 0
	}
	return []Control{
		{
			Label:   "Keep",
			Style:   "success",
			Enabled: hasSelection,
			Action:  s.guard(hasSelection, s.ds.Keep),
		},
		{
			Label:   "Exclude",
			Style:   "danger",
			Enabled: hasSelection,
			Action:  s.guard(hasSelection, s.ds.Exclude),
		},
		{
			Label: "Restore",
			Style: "secondary",
			Enabled: func() bool {
				return s.status == StatusLoaded && len(s.ds.Filtered()) < len(s.ds.All())
			},
			Action: s.guard(func() bool { return s.status == StatusLoaded }, s.ds.Restore),
		},
	}
}

func (s *Session) guard(ok func() bool, fn func()) func() {
	return func() {
		if ok() {
			fn()
		}
	}
}
