// Package planner holds the schedule and transition recommendation engine.
// Every function is a deterministic computation over its inputs: the current
// time is always passed in and nothing here touches storage or the clock.
package planner

import (
	"iter"
	"sort"
	"time"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/blaisecz/nap-planner/internal/timeutil"
)

// DefaultWindowDays is the default trailing window for aggregation.
const DefaultWindowDays = 7

// CompletedInWindow yields completed sessions created in (from, to], in input
// order. The sequence can be ranged over any number of times.
func CompletedInWindow(sessions []domain.SleepSession, from, to time.Time) iter.Seq[domain.SleepSession] {
	return func(yield func(domain.SleepSession) bool) {
		for _, s := range sessions {
			if s.State != domain.StateCompleted {
				continue
			}
			if !s.CreatedAt.After(from) || s.CreatedAt.After(to) {
				continue
			}
			if !yield(s) {
				return
			}
		}
	}
}

// Aggregate reduces completed sessions created within the trailing
// windowDays before asOf. "Today" is the calendar day of asOf in asOf's
// location, keyed by put-down time.
func Aggregate(sessions []domain.SleepSession, windowDays int, asOf time.Time) domain.AggregateStats {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	from := asOf.AddDate(0, 0, -windowDays)
	dayStart := timeutil.StartOfDay(asOf)

	stats := domain.AggregateStats{
		WindowDays: windowDays,
		AsOf:       asOf,
		TodayNaps:  []domain.NapSummary{},
	}

	var napSleep int
	var wakeMinutes []int
	for s := range CompletedInWindow(sessions, from, asOf) {
		stats.TotalSessions++

		started := s.StartedAt().In(asOf.Location())
		today := !started.Before(dayStart) && !started.After(asOf)
		if today {
			stats.QualifiedRestMinutesToday += s.QualifiedRestMinutes()
		}

		if !s.IsNap() {
			if s.WokeUpAt != nil {
				wakeMinutes = append(wakeMinutes, timeutil.MinuteOfDay(s.WokeUpAt.In(asOf.Location())))
			}
			continue
		}

		stats.CompletedNapCount++
		napSleep += s.SleptMinutes()
		if s.IsGoodNap() {
			stats.GoodNapCount++
		}
		if today {
			stats.NapsToday++
			stats.DaySleepMinutesToday += s.SleptMinutes()
			n := stats.NapsToday
			if s.NapNumber != nil {
				n = *s.NapNumber
			}
			stats.TodayNaps = append(stats.TodayNaps, domain.NapSummary{NapNumber: n, SleepMinutes: s.SleptMinutes()})
		}
	}

	// Sessions started today count even while still in progress.
	for _, s := range sessions {
		started := s.StartedAt().In(asOf.Location())
		if !started.Before(dayStart) && !started.After(asOf) {
			stats.SessionsStartedToday++
		}
	}

	if stats.CompletedNapCount > 0 {
		stats.AverageSleepMinutes = float64(napSleep) / float64(stats.CompletedNapCount)
	}
	if len(wakeMinutes) > 0 {
		stats.TypicalMorningWake = timeutil.MinutesToTimeString(median(wakeMinutes))
	}
	return stats
}

// median calculates the median of a slice of integers.
func median(values []int) int {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
