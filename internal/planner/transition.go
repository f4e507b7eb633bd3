package planner

import (
	"fmt"
	"math"
	"time"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/blaisecz/nap-planner/internal/timeutil"
	"github.com/google/uuid"
)

// TransitionSettings parametrises the two-nap to one-nap transition.
type TransitionSettings struct {
	StartNapTime     string // single nap time during the first two weeks
	FastTrackNapTime string // fast-track jump target in the first two weeks
	GoalNapTime      string // final single nap time

	PushIncrementMinutes int
	StandardPushMinDays  int
	StandardPushMaxDays  int
	FastTrackPushMinDays int
	FastTrackPushMaxDays int

	FirstPhaseDays     int
	FastTrackMaxWeeks  int
	DefaultTargetWeeks int

	ReadinessWindowDays  int
	GoodNapMinutes       int
	MinGoodNaps          int
	MinTotalNaps         int
	FastTrackMinGoodNaps int

	// Shape of the ONE_NAP schedule activated on completion.
	OneNapWakeWindow        domain.WakeWindow
	OneNapBedtimeWakeWindow domain.WakeWindow
	OneNapLatestStartDelay  int
	OneNapMaxDuration       int
	OneNapDaySleepCap       int
}

// DefaultTransitionSettings returns the standard transition plan: 11:30 nap
// for two weeks, then 15 minute pushes every 3-7 days (2-3 on fast track)
// until the nap reaches 12:30.
func DefaultTransitionSettings() TransitionSettings {
	return TransitionSettings{
		StartNapTime:     "11:30",
		FastTrackNapTime: "12:00",
		GoalNapTime:      "12:30",

		PushIncrementMinutes: 15,
		StandardPushMinDays:  3,
		StandardPushMaxDays:  7,
		FastTrackPushMinDays: 2,
		FastTrackPushMaxDays: 3,

		FirstPhaseDays:     14,
		FastTrackMaxWeeks:  4,
		DefaultTargetWeeks: 6,

		ReadinessWindowDays:  7,
		GoodNapMinutes:       domain.GoodNapMinutes,
		MinGoodNaps:          3,
		MinTotalNaps:         5,
		FastTrackMinGoodNaps: 2,

		OneNapWakeWindow:        domain.WakeWindow{Min: 300, Max: 330},
		OneNapBedtimeWakeWindow: domain.WakeWindow{Min: 240, Max: 300},
		OneNapLatestStartDelay:  30,
		OneNapMaxDuration:       150,
		OneNapDaySleepCap:       180,
	}
}

// TransitionMachine evaluates and mutates schedule transitions.
type TransitionMachine struct {
	settings TransitionSettings
	startNap int
	fastNap  int
	goalNap  int
}

// NewTransitionMachine validates settings and returns a machine using them.
func NewTransitionMachine(settings TransitionSettings) (*TransitionMachine, error) {
	start, err := timeutil.ParseTimeToMinutes(settings.StartNapTime)
	if err != nil {
		return nil, fmt.Errorf("start nap time: %w", err)
	}
	fast, err := timeutil.ParseTimeToMinutes(settings.FastTrackNapTime)
	if err != nil {
		return nil, fmt.Errorf("fast-track nap time: %w", err)
	}
	goal, err := timeutil.ParseTimeToMinutes(settings.GoalNapTime)
	if err != nil {
		return nil, fmt.Errorf("goal nap time: %w", err)
	}
	if start > fast || fast > goal {
		return nil, fmt.Errorf("%w: transition times must satisfy start <= fast-track <= goal", domain.ErrInvalidArgument)
	}
	if settings.PushIncrementMinutes <= 0 || settings.FirstPhaseDays <= 0 || settings.ReadinessWindowDays <= 0 {
		return nil, fmt.Errorf("%w: push increment, first phase and readiness window must be positive", domain.ErrInvalidArgument)
	}
	return &TransitionMachine{settings: settings, startNap: start, fastNap: fast, goalNap: goal}, nil
}

// Settings returns the machine's configuration.
func (m *TransitionMachine) Settings() TransitionSettings {
	return m.settings
}

// PaceFor selects the pace from a transition's target length.
func (m *TransitionMachine) PaceFor(targetWeeks int) domain.TransitionPace {
	if targetWeeks > 0 && targetWeeks <= m.settings.FastTrackMaxWeeks {
		return domain.PaceFastTrack
	}
	return domain.PaceStandard
}

// ElapsedWeek is ceil(days since start / 7), at least 1.
func (m *TransitionMachine) ElapsedWeek(t *domain.ScheduleTransition, now time.Time) int {
	days := max(0, timeutil.DaysBetween(t.StartedAt, now))
	return max(1, int(math.Ceil(float64(days)/7)))
}

func (m *TransitionMachine) pushInterval(pace domain.TransitionPace) (int, int) {
	if pace == domain.PaceFastTrack {
		return m.settings.FastTrackPushMinDays, m.settings.FastTrackPushMaxDays
	}
	return m.settings.StandardPushMinDays, m.settings.StandardPushMaxDays
}

// percentComplete anchors at the configured start nap time, not the time the
// transition actually began with.
func (m *TransitionMachine) percentComplete(current int) int {
	span := m.goalNap - m.startNap
	if span <= 0 {
		return 100
	}
	pct := float64(current-m.startNap) / float64(span) * 100
	return timeutil.Clamp(int(math.Round(pct)), 0, 100)
}

// ComputeProgress derives phase, week, percent complete, phase advice and
// the next milestone. It reads nothing but its arguments.
func (m *TransitionMachine) ComputeProgress(t *domain.ScheduleTransition, cfg *domain.ScheduleConfig, now time.Time) (domain.TransitionProgress, error) {
	current, err := timeutil.ParseTimeToMinutes(t.CurrentNapTime)
	if err != nil {
		return domain.TransitionProgress{}, err
	}

	pace := m.PaceFor(t.TargetWeeks)
	days := max(0, timeutil.DaysBetween(t.StartedAt, now))

	var phase domain.TransitionPhase
	switch {
	case !t.IsActive() || current >= m.goalNap:
		phase = domain.PhaseFinal
	case days < m.settings.FirstPhaseDays:
		phase = domain.PhaseWeek1To2
	default:
		phase = domain.PhaseWeek2Plus
	}

	progress := domain.TransitionProgress{
		TransitionID:    t.ID,
		Phase:           phase,
		Pace:            pace,
		CurrentWeek:     m.ElapsedWeek(t, now),
		TargetWeeks:     t.TargetWeeks,
		DaysSinceStart:  days,
		CurrentNapTime:  t.CurrentNapTime,
		GoalNapTime:     m.settings.GoalNapTime,
		PercentComplete: m.percentComplete(current),
		Recommendations: m.phaseAdvice(phase, pace, t, cfg),
		Completed:       !t.IsActive(),
	}

	minDays, _ := m.pushInterval(pace)
	switch phase {
	case domain.PhaseWeek1To2:
		progress.NextMilestone = &domain.Milestone{
			Date:        t.StartedAt.AddDate(0, 0, m.settings.FirstPhaseDays),
			Description: fmt.Sprintf("First two weeks done: start pushing the nap later by %d minutes", m.settings.PushIncrementMinutes),
		}
	case domain.PhaseWeek2Plus:
		progress.NextMilestone = &domain.Milestone{
			Date:        now.AddDate(0, 0, minDays),
			Description: fmt.Sprintf("Next push check: move the nap %d minutes later if baby is ready", m.settings.PushIncrementMinutes),
		}
	}

	return progress, nil
}

func (m *TransitionMachine) phaseAdvice(phase domain.TransitionPhase, pace domain.TransitionPace, t *domain.ScheduleTransition, cfg *domain.ScheduleConfig) []string {
	cribMinutes := domain.DefaultMinimumCribMinutes
	if cfg != nil {
		cribMinutes = cfg.MinimumCribMinutes
	}
	cribAdvice := fmt.Sprintf("Leave baby in the crib for at least %d minutes, even if the nap is short", cribMinutes)
	minDays, maxDays := m.pushInterval(pace)

	var advice []string
	switch phase {
	case domain.PhaseWeek1To2:
		if pace == domain.PaceFastTrack {
			advice = append(advice,
				fmt.Sprintf("Fast track: if baby handles %s well, move the nap straight to %s", m.settings.StartNapTime, m.settings.FastTrackNapTime),
				fmt.Sprintf("After that, push %d minutes later every %d-%d days", m.settings.PushIncrementMinutes, minDays, maxDays))
		} else {
			advice = append(advice,
				fmt.Sprintf("Hold the single nap at %s for the first two weeks", m.settings.StartNapTime),
				"Expect some short naps and an overtired late afternoon while baby adjusts")
		}
		advice = append(advice, cribAdvice)
		if cfg != nil {
			advice = append(advice, fmt.Sprintf("On short-nap days, offer bedtime as early as %s", cfg.BedtimeEarliest))
		}
	case domain.PhaseWeek2Plus:
		advice = append(advice,
			fmt.Sprintf("Push the nap %d minutes later every %d-%d days when baby is ready", m.settings.PushIncrementMinutes, minDays, maxDays),
			fmt.Sprintf("Current nap %s, goal %s", t.CurrentNapTime, m.settings.GoalNapTime),
			cribAdvice)
	case domain.PhaseFinal:
		if t.IsActive() {
			advice = append(advice,
				fmt.Sprintf("Nap has reached the %s goal", m.settings.GoalNapTime),
				"Complete the transition to switch to the one-nap schedule")
		} else {
			advice = append(advice, "Transition complete: follow the one-nap schedule")
		}
	}
	return advice
}

// AnalyzePushReadiness decides whether to move the nap later. Rules are
// evaluated top to bottom and the first match wins:
//
//  1. week <= 2, standard pace: hold.
//  2. week <= 2, fast track, nap before the fast-track time, enough good naps: jump to it.
//  3. week <= 2, fast track, nap at or past the fast-track time: push if the
//     fast-track interval has passed and naps are good, otherwise wait.
//  4. nap at the goal: hold, consider completing.
//  5. too soon since the last push: wait.
//  6. not enough good naps or too few naps: wait.
//  7. push by the increment, capped at the goal.
//
// The week is the transition record's CurrentWeek.
func (m *TransitionMachine) AnalyzePushReadiness(t *domain.ScheduleTransition, sessions []domain.SleepSession, cfg *domain.ScheduleConfig, now time.Time) (domain.NapPushRecommendation, error) {
	current, err := timeutil.ParseTimeToMinutes(t.CurrentNapTime)
	if err != nil {
		return domain.NapPushRecommendation{}, err
	}

	cribMinutes := domain.DefaultMinimumCribMinutes
	if cfg != nil {
		cribMinutes = cfg.MinimumCribMinutes
	}

	var total, good, compliant, sleepSum int
	from := now.AddDate(0, 0, -m.settings.ReadinessWindowDays)
	for s := range CompletedInWindow(sessions, from, now) {
		if !s.IsNap() {
			continue
		}
		total++
		sleepSum += s.SleptMinutes()
		if s.SleptMinutes() >= m.settings.GoodNapMinutes {
			good++
		}
		if CheckCompliance(&s, cribMinutes, now).Compliant {
			compliant++
		}
	}

	lastPush := t.StartedAt
	if t.LastPushedAt != nil {
		lastPush = *t.LastPushedAt
	}
	daysSincePush := max(0, timeutil.DaysBetween(lastPush, now))

	pace := m.PaceFor(t.TargetWeeks)
	fast := pace == domain.PaceFastTrack
	week := max(1, t.CurrentWeek)
	minDays, _ := m.pushInterval(pace)

	rec := domain.NapPushRecommendation{
		CurrentNapTime:    t.CurrentNapTime,
		DaysSinceLastPush: daysSincePush,
		GoodNapCount:      good,
		TotalNaps:         total,
		CribCompliantNaps: compliant,
	}
	if total > 0 {
		rec.AverageNapMinutes = math.Round(float64(sleepSum)/float64(total)*10) / 10
	}
	rec.ReadinessIndicators = []string{
		fmt.Sprintf("%d of %d naps in the last %d days lasted %d+ minutes", good, total, m.settings.ReadinessWindowDays, m.settings.GoodNapMinutes),
		fmt.Sprintf("Average nap length %.0f minutes", rec.AverageNapMinutes),
		fmt.Sprintf("%d days since the nap time last changed", daysSincePush),
		fmt.Sprintf("%d of %d naps met the %d-minute crib rule", compliant, total, cribMinutes),
		fmt.Sprintf("Week %d of %d (%s pace)", week, t.TargetWeeks, pace),
	}

	push := func(to int, reason string) domain.NapPushRecommendation {
		to = min(to, m.goalNap)
		rec.ShouldPush = true
		rec.SuggestedNewTime = timeutil.MinutesToTimeString(to)
		rec.PushMinutes = to - current
		rec.Reason = reason
		return rec
	}
	hold := func(daysUntil int, reason string) domain.NapPushRecommendation {
		rec.ShouldPush = false
		rec.DaysUntilEligible = max(0, daysUntil)
		rec.Reason = reason
		return rec
	}
	step := current + m.settings.PushIncrementMinutes

	switch {
	case week <= 2 && !fast:
		daysIn := max(0, timeutil.DaysBetween(t.StartedAt, now))
		return hold(m.settings.FirstPhaseDays-daysIn,
			fmt.Sprintf("Still in the first 2 weeks: keep the nap at %s while baby adjusts", t.CurrentNapTime)), nil

	case week <= 2 && fast && current < m.fastNap && good >= m.settings.FastTrackMinGoodNaps:
		return push(m.fastNap,
			fmt.Sprintf("Fast track: baby is handling %s well (%d good naps); move the nap to %s", t.CurrentNapTime, good, m.settings.FastTrackNapTime)), nil

	case week <= 2 && fast && current >= m.fastNap && current < m.goalNap:
		if daysSincePush >= m.settings.FastTrackPushMinDays && good >= m.settings.FastTrackMinGoodNaps {
			return push(step,
				fmt.Sprintf("Fast track: %d days at %s with %d good naps; push %d minutes later", daysSincePush, t.CurrentNapTime, good, m.settings.PushIncrementMinutes)), nil
		}
		if daysSincePush < m.settings.FastTrackPushMinDays {
			return hold(m.settings.FastTrackPushMinDays-daysSincePush,
				fmt.Sprintf("Fast track: wait %d more day(s) at %s before the next push", m.settings.FastTrackPushMinDays-daysSincePush, t.CurrentNapTime)), nil
		}
		return hold(0, fmt.Sprintf("Fast track: need %d good naps at %s before pushing, have %d", m.settings.FastTrackMinGoodNaps, t.CurrentNapTime, good)), nil

	case current >= m.goalNap:
		return hold(0, fmt.Sprintf("Nap has reached the %s goal; consider completing the transition", m.settings.GoalNapTime)), nil

	case daysSincePush < minDays:
		return hold(minDays-daysSincePush,
			fmt.Sprintf("Only %d day(s) since the last change; wait %d more day(s) before pushing", daysSincePush, minDays-daysSincePush)), nil

	case good < m.settings.MinGoodNaps || total < m.settings.MinTotalNaps:
		return hold(0, fmt.Sprintf("Not ready yet: %d good naps of %d in the last %d days (need %d good of at least %d)",
			good, total, m.settings.ReadinessWindowDays, m.settings.MinGoodNaps, m.settings.MinTotalNaps)), nil
	}

	return push(step, fmt.Sprintf("Baby is consolidating well at %s (%d good naps of %d); push %d minutes later",
		t.CurrentNapTime, good, total, m.settings.PushIncrementMinutes)), nil
}

// Start creates a new transition. It fails with ErrInvalidState if existing
// is still active or the schedule pair is not TWO_NAP -> ONE_NAP.
func (m *TransitionMachine) Start(existing *domain.ScheduleTransition, childID uuid.UUID, req domain.StartTransitionRequest, now time.Time) (*domain.ScheduleTransition, error) {
	if existing != nil && existing.IsActive() {
		return nil, fmt.Errorf("%w: a transition is already in progress", domain.ErrInvalidState)
	}

	from, to := req.FromType, req.ToType
	if from == "" {
		from = domain.ScheduleTwoNap
	}
	if to == "" {
		to = domain.ScheduleOneNap
	}
	if from != domain.ScheduleTwoNap || to != domain.ScheduleOneNap {
		return nil, fmt.Errorf("%w: only %s to %s transitions are supported", domain.ErrInvalidState, domain.ScheduleTwoNap, domain.ScheduleOneNap)
	}

	napTime := req.StartNapTime
	if napTime == "" {
		napTime = m.settings.StartNapTime
	}
	napMinutes, err := timeutil.ParseTimeToMinutes(napTime)
	if err != nil {
		return nil, err
	}
	if napMinutes < m.startNap || napMinutes > m.goalNap {
		return nil, fmt.Errorf("%w: start nap time must be between %s and %s",
			domain.ErrInvalidArgument, m.settings.StartNapTime, m.settings.GoalNapTime)
	}

	targetWeeks := req.TargetWeeks
	if targetWeeks <= 0 {
		targetWeeks = m.settings.DefaultTargetWeeks
	}

	return &domain.ScheduleTransition{
		ChildID:        childID,
		FromType:       from,
		ToType:         to,
		StartedAt:      now,
		CurrentWeek:    1,
		TargetWeeks:    targetWeeks,
		StartNapTime:   napTime,
		CurrentNapTime: napTime,
		Notes:          req.Notes,
	}, nil
}

// Progress applies a patch to an active transition and returns the update to
// persist. Nap time only moves later, the week only moves forward, and
// completion is terminal and requests the ONE_NAP schedule swap.
func (m *TransitionMachine) Progress(t *domain.ScheduleTransition, patch domain.TransitionPatch, now time.Time) (domain.TransitionMutation, error) {
	if t == nil {
		return domain.TransitionMutation{}, fmt.Errorf("%w: no active transition", domain.ErrNotFound)
	}
	if !t.IsActive() {
		return domain.TransitionMutation{}, fmt.Errorf("%w: transition already completed", domain.ErrInvalidState)
	}

	next := *t
	if patch.NewNapTime != nil {
		current, err := timeutil.ParseTimeToMinutes(t.CurrentNapTime)
		if err != nil {
			return domain.TransitionMutation{}, err
		}
		proposed, err := timeutil.ParseTimeToMinutes(*patch.NewNapTime)
		if err != nil {
			return domain.TransitionMutation{}, err
		}
		if proposed < current {
			return domain.TransitionMutation{}, fmt.Errorf("%w: nap time can only move later (current %s, requested %s)",
				domain.ErrInvalidArgument, t.CurrentNapTime, *patch.NewNapTime)
		}
		if proposed > m.goalNap {
			return domain.TransitionMutation{}, fmt.Errorf("%w: nap time cannot pass the %s goal",
				domain.ErrInvalidArgument, m.settings.GoalNapTime)
		}
		if proposed > current {
			pushed := now
			next.LastPushedAt = &pushed
		}
		next.CurrentNapTime = *patch.NewNapTime
	}

	if patch.CurrentWeek != nil {
		if *patch.CurrentWeek < t.CurrentWeek {
			return domain.TransitionMutation{}, fmt.Errorf("%w: week cannot move backwards (current %d, requested %d)",
				domain.ErrInvalidArgument, t.CurrentWeek, *patch.CurrentWeek)
		}
		next.CurrentWeek = *patch.CurrentWeek
	}

	if patch.Notes != nil {
		next.Notes = *patch.Notes
	}

	mutation := domain.TransitionMutation{Op: domain.MutationUpdate, Transition: &next}
	if patch.Complete {
		completed := now
		next.CompletedAt = &completed
		mutation.ReplaceSchedule = true
	}
	return mutation, nil
}

// Cancel removes the active transition.
func (m *TransitionMachine) Cancel(t *domain.ScheduleTransition) (domain.TransitionMutation, error) {
	if t == nil || !t.IsActive() {
		return domain.TransitionMutation{}, fmt.Errorf("%w: no active transition", domain.ErrNotFound)
	}
	return domain.TransitionMutation{Op: domain.MutationDelete, Transition: t}, nil
}

// OneNapScheduleFrom builds the ONE_NAP schedule that replaces current when
// transition t completes. Bedtime, wake time and crib settings carry over.
func (m *TransitionMachine) OneNapScheduleFrom(current *domain.ScheduleConfig, t *domain.ScheduleTransition) (*domain.ScheduleConfig, error) {
	if current == nil {
		return nil, fmt.Errorf("%w: no active schedule to replace", domain.ErrNotFound)
	}
	napStart, err := timeutil.ParseTimeToMinutes(t.CurrentNapTime)
	if err != nil {
		return nil, err
	}
	latestStart := min(napStart+m.settings.OneNapLatestStartDelay, timeutil.MinutesPerDay-1)
	endBy := min(latestStart+m.settings.OneNapMaxDuration, timeutil.MinutesPerDay-1)
	bedMin, bedMax := m.settings.OneNapBedtimeWakeWindow.Min, m.settings.OneNapBedtimeWakeWindow.Max

	return &domain.ScheduleConfig{
		ChildID:                t.ChildID,
		Type:                   domain.ScheduleOneNap,
		IsActive:               true,
		WakeWindow1Min:         m.settings.OneNapWakeWindow.Min,
		WakeWindow1Max:         m.settings.OneNapWakeWindow.Max,
		WakeWindow2Min:         &bedMin,
		WakeWindow2Max:         &bedMax,
		Nap1Earliest:           t.CurrentNapTime,
		Nap1LatestStart:        timeutil.MinutesToTimeString(latestStart),
		Nap1MaxDuration:        m.settings.OneNapMaxDuration,
		Nap1EndBy:              timeutil.MinutesToTimeString(endBy),
		BedtimeEarliest:        current.BedtimeEarliest,
		BedtimeLatest:          current.BedtimeLatest,
		BedtimeGoalStart:       current.BedtimeGoalStart,
		BedtimeGoalEnd:         current.BedtimeGoalEnd,
		WakeTimeEarliest:       current.WakeTimeEarliest,
		WakeTimeLatest:         current.WakeTimeLatest,
		DaySleepCap:            m.settings.OneNapDaySleepCap,
		MinimumCribMinutes:     current.MinimumCribMinutes,
		NapReminderMinutes:     current.NapReminderMinutes,
		BedtimeReminderMinutes: current.BedtimeReminderMinutes,
	}, nil
}
