// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package interval generates the non-overlapping date windows that bound
// individual search calls. A window is either a single day ("2020-01-01")
// or a range ("2020-01-01..2020-06-30") depending on the granularity.
package interval

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ErrInvalidRange reports a search period that ends before it starts or a
// granularity that resolves to a non-positive duration. Callers log it once
// and treat the sequence as empty; it is never retried.
var ErrInvalidRange = errors.New("invalid search range")

// Delta is a compound calendar step (the window size in range mode).
type Delta struct {
	Years  int
	Months int
	Days   int
}

// positive reports whether the delta advances time at all.
func (d Delta) positive() bool {
	if d.Years < 0 || d.Months < 0 || d.Days < 0 {
		return false
	}
	return d.Years > 0 || d.Months > 0 || d.Days > 0
}

// Granularity selects between day windows and compound range windows.
type Granularity struct {
	Daily bool
	Delta Delta
}

// ParseGranularity parses the interval setting: "daily" (or the equivalent
// "days=1") selects day windows; otherwise a comma-separated compound delta
// such as "months=6" or "years=1,days=10".
func ParseGranularity(s string) (Granularity, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "daily" || s == "days=1" {
		return Granularity{Daily: true}, nil
	}

	var d Delta
	for _, part := range strings.Split(s, ",") {
		key, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return Granularity{}, fmt.Errorf("malformed delta component %q: want key=value", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return Granularity{}, fmt.Errorf("malformed delta component %q: %w", part, err)
		}
		switch strings.TrimSpace(key) {
		case "years":
			d.Years = n
		case "months":
			d.Months = n
		case "days":
			d.Days = n
		default:
			return Granularity{}, fmt.Errorf("unknown delta unit %q", key)
		}
	}
	return Granularity{Delta: d}, nil
}

// Generator yields successive windows for one search period. The sequence is
// finite, deterministic for a fixed now, and never contains an empty or
// inverted window. A drained generator keeps returning ok=false; restart by
// constructing a new one with the same arguments.
type Generator struct {
	daily      bool
	delta      Delta
	cur        time.Time
	clampedEnd time.Time
	done       bool
}

// New validates the period and returns a window generator. The end date is
// clamped to now when it lies in the future. A start after the clamped end,
// or a non-positive delta, yields ErrInvalidRange.
func New(start, end string, g Granularity, now time.Time) (*Generator, error) {
	startDate, err := time.Parse(dateLayout, start)
	if err != nil {
		return nil, fmt.Errorf("parsing start date %q: %w", start, err)
	}
	endDate, err := time.Parse(dateLayout, end)
	if err != nil {
		return nil, fmt.Errorf("parsing end date %q: %w", end, err)
	}

	today := truncateDay(now)
	clamped := endDate
	if clamped.After(today) {
		clamped = today
	}

	if startDate.After(clamped) {
		return nil, fmt.Errorf("%w: the search period ends before it starts", ErrInvalidRange)
	}
	if !g.Daily && !g.Delta.positive() {
		return nil, fmt.Errorf("%w: the delta has to be a positive step", ErrInvalidRange)
	}

	return &Generator{
		daily:      g.Daily,
		delta:      g.Delta,
		cur:        startDate,
		clampedEnd: clamped,
	}, nil
}

// Next returns the next window and whether one was produced.
func (g *Generator) Next() (string, bool) {
	if g.done {
		return "", false
	}

	if g.daily {
		day := g.cur
		g.cur = g.cur.AddDate(0, 0, 1)
		if !day.Before(g.clampedEnd) {
			g.done = true
		}
		return day.Format(dateLayout), true
	}

	nextStart := g.cur.AddDate(g.delta.Years, g.delta.Months, g.delta.Days)
	windowEnd := nextStart.AddDate(0, 0, -1)
	if !windowEnd.Before(g.clampedEnd) {
		windowEnd = g.clampedEnd
		g.done = true
	}
	window := g.cur.Format(dateLayout) + ".." + windowEnd.Format(dateLayout)
	g.cur = nextStart
	return window, true
}

// Windows drains the generator into a slice.
func (g *Generator) Windows() []string {
	var out []string
	for {
		w, ok := g.Next()
		if !ok {
			return out
		}
		out = append(out, w)
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
