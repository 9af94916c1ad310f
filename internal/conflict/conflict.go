// Package conflict counts job allocations that clash with unavailability.
package conflict

import (
	"cmp"
	"slices"

	"github.com/javiermolinar/rota/internal/interval"
)

// Count returns the number of allocations that overlap any day of leave.
// An allocation spanning several days still counts once.
func Count(leave interval.Interval, allocations []interval.Interval) int {
	days := interval.DayPartition(leave)
	count := 0
	for _, alloc := range allocations {
		if overlapsAny(days, alloc) {
			count++
		}
	}
	return count
}

func overlapsAny(days []interval.Interval, alloc interval.Interval) bool {
	for _, day := range days {
		if interval.Overlaps(day, alloc) {
			return true
		}
	}
	return false
}

// ByDay returns, for every day of leave, how many allocations overlap that
// day. An allocation spanning several days of leave is counted on each.
// Days without conflicts are absent.
func ByDay(leave interval.Interval, allocations []interval.Interval) DayCounts {
	var counts DayCounts
	for _, day := range interval.DayPartition(leave) {
		n := 0
		for _, alloc := range allocations {
			if interval.Overlaps(day, alloc) {
				n++
			}
		}
		counts = counts.with(interval.KeyOf(day.Start), n)
	}
	return counts
}

// DayCount is the number of conflicts on a single day.
type DayCount struct {
	Day   interval.DayKey
	Count int
}

// DayCounts is an immutable, ascending list of per-day conflict counts.
// The zero value is empty and ready to use.
type DayCounts struct {
	entries []DayCount
}

// with returns a copy of c with n added to day. Zero additions are dropped.
// Keys arrive in ascending order from DayPartition, but a binary search keeps
// the list sorted regardless.
func (c DayCounts) with(day interval.DayKey, n int) DayCounts {
	if n == 0 {
		return c
	}
	entries := slices.Clone(c.entries)
	i, found := slices.BinarySearchFunc(entries, day, func(e DayCount, k interval.DayKey) int {
		return cmp.Compare(e.Day, k)
	})
	if found {
		entries[i].Count += n
	} else {
		entries = slices.Insert(entries, i, DayCount{Day: day, Count: n})
	}
	return DayCounts{entries: entries}
}

// Get returns the count for day, or 0.
func (c DayCounts) Get(day interval.DayKey) int {
	i, found := slices.BinarySearchFunc(c.entries, day, func(e DayCount, k interval.DayKey) int {
		return cmp.Compare(e.Day, k)
	})
	if !found {
		return 0
	}
	return c.entries[i].Count
}

// Len returns the number of days with at least one conflict.
func (c DayCounts) Len() int {
	return len(c.entries)
}

// Keys returns the days with conflicts in ascending order.
func (c DayCounts) Keys() []interval.DayKey {
	keys := make([]interval.DayKey, len(c.entries))
	for i, e := range c.entries {
		keys[i] = e.Day
	}
	return keys
}

// Entries returns a copy of the per-day counts in ascending order.
func (c DayCounts) Entries() []DayCount {
	return slices.Clone(c.entries)
}

// Sum returns the total of all per-day counts.
func (c DayCounts) Sum() int {
	total := 0
	for _, e := range c.entries {
		total += e.Count
	}
	return total
}

// Each calls fn for every day in ascending order.
func (c DayCounts) Each(fn func(day interval.DayKey, count int)) {
	for _, e := range c.entries {
		fn(e.Day, e.Count)
	}
}

// Map returns the counts as a plain map.
func (c DayCounts) Map() map[interval.DayKey]int {
	m := make(map[interval.DayKey]int, len(c.entries))
	for _, e := range c.entries {
		m[e.Day] = e.Count
	}
	return m
}
