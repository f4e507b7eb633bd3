package planner

import (
	"time"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/google/uuid"
)

var testNow = time.Date(2024, 3, 20, 14, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return time.Date(2024, 3, 20, hour, minute, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

// completedNap builds a finished nap put down at putDown: 5 minutes to fall
// asleep, sleepMinutes asleep and 10 quiet minutes in the crib afterwards.
func completedNap(putDown time.Time, sleepMinutes int) domain.SleepSession {
	s := domain.SleepSession{
		ID:          uuid.New(),
		SessionType: domain.SessionNap,
		State:       domain.StatePending,
		PutDownAt:   ptr(putDown),
		CreatedAt:   putDown,
	}
	asleep := putDown.Add(5 * time.Minute)
	woke := asleep.Add(time.Duration(sleepMinutes) * time.Minute)
	_ = s.Apply(domain.EventFellAsleep, asleep)
	_ = s.Apply(domain.EventWokeUp, woke)
	_ = s.Apply(domain.EventOutOfCrib, woke.Add(10*time.Minute))
	return s
}

func napsAt(now time.Time, sleepMinutes int, daysAgo ...int) []domain.SleepSession {
	sessions := make([]domain.SleepSession, 0, len(daysAgo))
	for _, d := range daysAgo {
		sessions = append(sessions, completedNap(now.AddDate(0, 0, -d), sleepMinutes))
	}
	return sessions
}

func oneNapSchedule() *domain.ScheduleConfig {
	return &domain.ScheduleConfig{
		Type:                   domain.ScheduleOneNap,
		IsActive:               true,
		WakeWindow1Min:         300,
		WakeWindow1Max:         330,
		WakeWindow2Min:         ptr(240),
		WakeWindow2Max:         ptr(330),
		Nap1Earliest:           "12:00",
		Nap1LatestStart:        "14:30",
		Nap1MaxDuration:        150,
		Nap1EndBy:              "17:00",
		BedtimeEarliest:        "18:30",
		BedtimeLatest:          "19:30",
		BedtimeGoalStart:       "19:00",
		BedtimeGoalEnd:         "19:15",
		WakeTimeEarliest:       "06:00",
		WakeTimeLatest:         "07:30",
		DaySleepCap:            180,
		MinimumCribMinutes:     60,
		NapReminderMinutes:     15,
		BedtimeReminderMinutes: 15,
	}
}

func twoNapSchedule() *domain.ScheduleConfig {
	return &domain.ScheduleConfig{
		Type:                   domain.ScheduleTwoNap,
		IsActive:               true,
		WakeWindow1Min:         150,
		WakeWindow1Max:         180,
		WakeWindow2Min:         ptr(180),
		WakeWindow2Max:         ptr(210),
		WakeWindow3Min:         ptr(210),
		WakeWindow3Max:         ptr(240),
		Nap1Earliest:           "09:00",
		Nap1LatestStart:        "10:00",
		Nap1MaxDuration:        90,
		Nap1EndBy:              "11:30",
		Nap2Earliest:           ptr("13:30"),
		Nap2LatestStart:        ptr("14:30"),
		Nap2MaxDuration:        ptr(90),
		Nap2EndBy:              ptr("16:00"),
		BedtimeEarliest:        "18:30",
		BedtimeLatest:          "19:30",
		BedtimeGoalStart:       "19:00",
		BedtimeGoalEnd:         "19:15",
		WakeTimeEarliest:       "06:30",
		WakeTimeLatest:         "07:30",
		DaySleepCap:            180,
		MinimumCribMinutes:     60,
		NapReminderMinutes:     15,
		BedtimeReminderMinutes: 15,
	}
}

func newMachine() *TransitionMachine {
	m, err := NewTransitionMachine(DefaultTransitionSettings())
	if err != nil {
		panic(err)
	}
	return m
}
