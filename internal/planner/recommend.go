package planner

import (
	"fmt"
	"time"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/blaisecz/nap-planner/internal/timeutil"
)

const (
	// A nap shorter than its max duration by more than this fraction counts
	// as sleep debt.
	sleepDebtShortfall = 0.20
	// Bedtime moves this many minutes earlier when there is sleep debt.
	sleepDebtShiftMinutes = 15
)

// slot is the upcoming sleep opportunity: nap N or bedtime (napNumber 0).
type slot struct {
	action    domain.SleepAction
	napNumber int
	window    domain.WakeWindow
	earliest  time.Time
	latest    time.Time
}

// RecommendNext computes the next sleep action for an awake child.
// lastSessionEnd is when the child last left the crib; nil or a time before
// today's midnight means the child has not woken today.
//
// The wake deadline takes precedence over everything else. Otherwise the
// upcoming slot (next nap, or bedtime once all naps are done or the day-sleep
// cap is reached) is compared against the elapsed wake window.
func RecommendNext(cfg *domain.ScheduleConfig, stats domain.AggregateStats, lastSessionEnd *time.Time, now time.Time) (domain.Recommendation, error) {
	if lastSessionEnd == nil || lastSessionEnd.Before(timeutil.StartOfDay(now)) {
		return recommendWake(cfg, now, now)
	}

	s, capReached, err := nextSlot(cfg, stats, now)
	if err != nil {
		return domain.Recommendation{}, err
	}

	last := *lastSessionEnd
	elapsed := timeutil.MinutesBetween(last, now)
	windowEarliest := last.Add(time.Duration(s.window.Min) * time.Minute)
	windowLatest := last.Add(time.Duration(s.window.Max) * time.Minute)
	midpoint := last.Add(time.Duration(s.window.Min+s.window.Max) * time.Minute / 2)

	earliest := laterOf(windowEarliest, s.earliest)
	latest := earlierOf(windowLatest, s.latest)
	outsideSlot := false
	if earliest.After(latest) {
		earliest, latest = windowEarliest, windowLatest
		outsideSlot = true
	}
	target := clampTime(clampTime(midpoint, s.earliest, s.latest), earliest, latest)

	rec := domain.Recommendation{
		Action:         s.action,
		NapNumber:      s.napNumber,
		Earliest:       earliest,
		Latest:         latest,
		Target:         target,
		ElapsedMinutes: elapsed,
	}

	label := slotLabel(s)
	switch {
	case elapsed > s.window.Max:
		rec.Overtired = true
		rec.Earliest, rec.Latest, rec.Target = now, now, now
		rec.Reason = fmt.Sprintf("Overtired: awake %d min, past the %d min maximum wake window. Start %s now.",
			elapsed, s.window.Max, label)
	case elapsed < s.window.Min:
		rec.Action = domain.ActionWait
		rec.NextAction = s.action
		rec.Earliest = windowEarliest
		if rec.Latest.Before(rec.Earliest) {
			rec.Latest = rec.Earliest
		}
		rec.Target = clampTime(rec.Target, rec.Earliest, rec.Latest)
		rec.Reason = fmt.Sprintf("Awake %d min; %s window opens after %d min at %s.",
			elapsed, label, s.window.Min, clock(windowEarliest))
	default:
		rec.Reason = fmt.Sprintf("Awake %d min, within the %d-%d min wake window. Aim for %s at %s.",
			elapsed, s.window.Min, s.window.Max, label, clock(target))
	}

	if outsideSlot && !rec.Overtired {
		rec.Reason += fmt.Sprintf(" The wake window falls outside the preferred %s slot.", label)
	}
	if capReached {
		rec.Reason += fmt.Sprintf(" Day sleep (%d min) has reached the %d min cap, so no more naps today.",
			stats.DaySleepMinutesToday, cfg.DaySleepCap)
	}

	if s.action == domain.ActionBedtime && !rec.Overtired && hasSleepDebt(cfg, stats) {
		bedtimeEarliest, err := minuteAt(cfg.BedtimeEarliest, now)
		if err != nil {
			return domain.Recommendation{}, err
		}
		shifted := laterOf(rec.Target.Add(-sleepDebtShiftMinutes*time.Minute), bedtimeEarliest)
		if shifted.Before(rec.Target) {
			rec.Target = shifted
			rec.SleepDebtAdjusted = true
			if rec.Target.Before(rec.Earliest) {
				rec.Earliest = rec.Target
			}
			rec.Reason += fmt.Sprintf(" Short naps today: bedtime moved %d min earlier.", sleepDebtShiftMinutes)
		}
	}

	return rec, nil
}

// RecommendOvernight is the recommendation while a night sleep that began at
// nightStartedAt is still in progress: wait for the morning wake window,
// or wake once the deadline has passed.
func RecommendOvernight(cfg *domain.ScheduleConfig, nightStartedAt, now time.Time) (domain.Recommendation, error) {
	wakeDay := now
	if timeutil.StartOfDay(nightStartedAt).Equal(timeutil.StartOfDay(now)) && timeutil.MinuteOfDay(nightStartedAt) >= 12*60 {
		wakeDay = now.AddDate(0, 0, 1)
	}
	return recommendWake(cfg, wakeDay, now)
}

// RecommendDuringNap is the recommendation while a nap is in progress: keep
// the child in the crib until the crib rule is met, and end the nap no later
// than its max duration or end-by time.
func RecommendDuringNap(cfg *domain.ScheduleConfig, session *domain.SleepSession, now time.Time) (domain.Recommendation, error) {
	start := session.StartedAt()
	napNumber := 1
	if session.NapNumber != nil {
		napNumber = *session.NapNumber
	}
	win, ok := cfg.NapWindowFor(napNumber)
	if !ok {
		win, _ = cfg.NapWindowFor(cfg.NapCount())
	}
	endBy, err := minuteAt(win.EndBy, start)
	if err != nil {
		return domain.Recommendation{}, err
	}

	cribUntil := start.Add(time.Duration(cfg.MinimumCribMinutes) * time.Minute)
	latest := earlierOf(start.Add(time.Duration(win.MaxDuration)*time.Minute), endBy)
	if latest.Before(cribUntil) {
		latest = cribUntil
	}
	return domain.Recommendation{
		Action:         domain.ActionWait,
		NextAction:     domain.ActionWake,
		NapNumber:      napNumber,
		Earliest:       cribUntil,
		Latest:         latest,
		Target:         latest,
		ElapsedMinutes: max(0, timeutil.MinutesBetween(start, now)),
		Reason: fmt.Sprintf("Nap %d in progress. Keep baby in the crib until %s (%d min crib rule); end the nap by %s.",
			napNumber, clock(cribUntil), cfg.MinimumCribMinutes, clock(latest)),
	}, nil
}

func recommendWake(cfg *domain.ScheduleConfig, wakeDay, now time.Time) (domain.Recommendation, error) {
	wakeEarliest, err := minuteAt(cfg.WakeTimeEarliest, wakeDay)
	if err != nil {
		return domain.Recommendation{}, err
	}
	wakeLatest, err := minuteAt(cfg.WakeTimeLatest, wakeDay)
	if err != nil {
		return domain.Recommendation{}, err
	}

	if !now.Before(wakeLatest) {
		return domain.Recommendation{
			Action:   domain.ActionWake,
			Earliest: wakeLatest,
			Latest:   wakeLatest,
			Target:   wakeLatest,
			Reason: fmt.Sprintf("Wake deadline %s has passed. Wake baby now to keep the day on schedule.",
				cfg.WakeTimeLatest),
		}, nil
	}
	return domain.Recommendation{
		Action:     domain.ActionWait,
		NextAction: domain.ActionWake,
		Earliest:   wakeEarliest,
		Latest:     wakeLatest,
		Target:     wakeEarliest,
		Reason: fmt.Sprintf("Night sleep. Start the day between %s and %s; wake baby by %s at the latest.",
			cfg.WakeTimeEarliest, cfg.WakeTimeLatest, cfg.WakeTimeLatest),
	}, nil
}

func nextSlot(cfg *domain.ScheduleConfig, stats domain.AggregateStats, now time.Time) (slot, bool, error) {
	capReached := cfg.DaySleepCap > 0 && stats.DaySleepMinutesToday >= cfg.DaySleepCap
	napNumber := stats.NapsToday + 1

	if !capReached && napNumber <= cfg.NapCount() {
		if win, ok := cfg.NapWindowFor(napNumber); ok {
			ww, ok := cfg.WakeWindowFor(napNumber)
			if !ok {
				ww, _ = cfg.WakeWindowFor(1)
			}
			earliest, err := minuteAt(win.Earliest, now)
			if err != nil {
				return slot{}, false, err
			}
			latest, err := minuteAt(win.LatestStart, now)
			if err != nil {
				return slot{}, false, err
			}
			return slot{action: domain.ActionNap, napNumber: napNumber, window: ww, earliest: earliest, latest: latest}, false, nil
		}
	}

	earliest, err := minuteAt(cfg.BedtimeEarliest, now)
	if err != nil {
		return slot{}, false, err
	}
	latest, err := minuteAt(cfg.BedtimeLatest, now)
	if err != nil {
		return slot{}, false, err
	}
	return slot{action: domain.ActionBedtime, window: cfg.BedtimeWakeWindow(), earliest: earliest, latest: latest},
		capReached && napNumber <= cfg.NapCount(), nil
}

// hasSleepDebt reports whether any nap today fell more than 20% short of its
// configured max duration.
func hasSleepDebt(cfg *domain.ScheduleConfig, stats domain.AggregateStats) bool {
	for _, nap := range stats.TodayNaps {
		win, ok := cfg.NapWindowFor(nap.NapNumber)
		if !ok {
			continue
		}
		if float64(nap.SleepMinutes) < float64(win.MaxDuration)*(1-sleepDebtShortfall) {
			return true
		}
	}
	return false
}

func slotLabel(s slot) string {
	if s.action == domain.ActionBedtime {
		return "bedtime"
	}
	return fmt.Sprintf("nap %d", s.napNumber)
}

func minuteAt(hhmm string, day time.Time) (time.Time, error) {
	m, err := timeutil.ParseTimeToMinutes(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return timeutil.AtMinute(day, m), nil
}

func clock(t time.Time) string {
	return t.Format("15:04")
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func clampTime(t, lo, hi time.Time) time.Time {
	if t.Before(lo) {
		return lo
	}
	if t.After(hi) {
		return hi
	}
	return t
}
