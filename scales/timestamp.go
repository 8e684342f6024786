// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scales

import (
	"math"
	"time"
)

// timeStep is a candidate spacing between timestamp ticks.
type timeStep struct {
	d      time.Duration
	months int // calendar steps; d is then approximate
	layout string
}

var timeSteps = []timeStep{
	{time.Second, 0, "15:04:05"},
	{5 * time.Second, 0, "15:04:05"},
	{15 * time.Second, 0, "15:04:05"},
	{30 * time.Second, 0, "15:04:05"},
	{time.Minute, 0, "15:04"},
	{5 * time.Minute, 0, "15:04"},
	{15 * time.Minute, 0, "15:04"},
	{30 * time.Minute, 0, "15:04"},
	{time.Hour, 0, "15:04"},
	{3 * time.Hour, 0, "Jan 02 15:04"},
	{6 * time.Hour, 0, "Jan 02 15:04"},
	{12 * time.Hour, 0, "Jan 02 15:04"},
	{24 * time.Hour, 0, "Jan 02"},
	{2 * 24 * time.Hour, 0, "Jan 02"},
	{7 * 24 * time.Hour, 0, "Jan 02"},
	{30 * 24 * time.Hour, 1, "Jan 2006"},
	{90 * 24 * time.Hour, 3, "Jan 2006"},
	{365 * 24 * time.Hour, 12, "2006"},
	{2 * 365 * 24 * time.Hour, 24, "2006"},
	{5 * 365 * 24 * time.Hour, 60, "2006"},
	{10 * 365 * 24 * time.Hour, 120, "2006"},
	{25 * 365 * 24 * time.Hour, 300, "2006"},
	{50 * 365 * 24 * time.Hour, 600, "2006"},
	{100 * 365 * 24 * time.Hour, 1200, "2006"},
}

// timeTicks places ticks at round calendar times. Times are in UTC.
func (l *linear) timeTicks(n int) []Tick {
	lo, hi := l.s.Min, l.s.Max
	if lo > hi {
		lo, hi = hi, lo
	}
	if n < 1 {
		return nil
	}
	if lo == hi {
		return []Tick{{lo, formatTime(lo, timeSteps[0].layout), l.Map(lo)}}
	}
	span := hi - lo

	step := timeSteps[len(timeSteps)-1]
	for _, s := range timeSteps {
		if math.Floor(span/s.d.Seconds())+1 <= float64(n) {
			step = s
			break
		}
	}

	var ticks []Tick
	add := func(t time.Time) {
		x := float64(t.Unix())
		ticks = append(ticks, Tick{x, t.Format(step.layout), l.Map(x)})
	}
	start := time.Unix(int64(math.Ceil(lo)), 0).UTC()
	end := time.Unix(int64(math.Floor(hi)), 0).UTC()

	if step.months == 0 {
		sec := int64(step.d / time.Second)
		// Round up to a multiple of sec. Division truncates toward
		// zero, which already rounds negative values up.
		first := start.Unix() / sec
		if start.Unix()%sec > 0 {
			first++
		}
		first *= sec
		for x := first; x <= end.Unix(); x += sec {
			add(time.Unix(x, 0).UTC())
		}
		return ticks
	}

	// Calendar steps start at the first month boundary on or after lo
	// that is a multiple of the step.
	t := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	if t.Before(start) {
		t = t.AddDate(0, 1, 0)
	}
	for (12*t.Year()+int(t.Month())-1)%step.months != 0 {
		t = t.AddDate(0, 1, 0)
	}
	for ; !t.After(end); t = t.AddDate(0, step.months, 0) {
		add(t)
	}
	if len(ticks) > n {
		ticks = ticks[:n]
	}
	return ticks
}

func formatTime(x float64, layout string) string {
	return time.Unix(int64(x), 0).UTC().Format(layout)
}
