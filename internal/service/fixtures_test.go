package service

import (
	"time"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/blaisecz/nap-planner/internal/logger"
	"github.com/blaisecz/nap-planner/internal/planner"
	"github.com/google/uuid"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 3, 20, hour, minute, 0, 0, time.UTC)
}

func newChild() *domain.Child {
	return &domain.Child{ID: uuid.New(), Name: "Mia", Timezone: "UTC"}
}

// completedNap builds a finished nap: 5 minutes to fall asleep, sleepMinutes
// asleep and 10 quiet minutes in the crib afterwards.
func completedNap(childID uuid.UUID, putDown time.Time, sleepMinutes int) domain.SleepSession {
	s := domain.SleepSession{
		ID:          uuid.New(),
		ChildID:     childID,
		SessionType: domain.SessionNap,
		NapNumber:   ptr(1),
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

// completedNight is last night's sleep ending at wake.
func completedNight(childID uuid.UUID, wake time.Time) domain.SleepSession {
	putDown := wake.Add(-11 * time.Hour)
	s := domain.SleepSession{
		ID:          uuid.New(),
		ChildID:     childID,
		SessionType: domain.SessionNightSleep,
		State:       domain.StatePending,
		PutDownAt:   ptr(putDown),
		CreatedAt:   putDown,
	}
	_ = s.Apply(domain.EventFellAsleep, putDown.Add(10*time.Minute))
	_ = s.Apply(domain.EventWokeUp, wake)
	_ = s.Apply(domain.EventOutOfCrib, wake)
	return s
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
		MinimumCribMinutes:     90,
		NapReminderMinutes:     15,
		BedtimeReminderMinutes: 15,
	}
}

func twoNapRequest() *domain.ScheduleRequest {
	return &domain.ScheduleRequest{
		Type:             domain.ScheduleTwoNap,
		WakeWindow1Min:   150,
		WakeWindow1Max:   180,
		WakeWindow2Min:   ptr(180),
		WakeWindow2Max:   ptr(210),
		WakeWindow3Min:   ptr(210),
		WakeWindow3Max:   ptr(240),
		Nap1Earliest:     "09:00",
		Nap1LatestStart:  "10:00",
		Nap1MaxDuration:  90,
		Nap1EndBy:        "11:30",
		Nap2Earliest:     ptr("13:30"),
		Nap2LatestStart:  ptr("14:30"),
		Nap2MaxDuration:  ptr(90),
		Nap2EndBy:        ptr("16:00"),
		BedtimeEarliest:  "18:30",
		BedtimeLatest:    "19:30",
		BedtimeGoalStart: "19:00",
		BedtimeGoalEnd:   "19:15",
		WakeTimeEarliest: "06:30",
		WakeTimeLatest:   "07:30",
		DaySleepCap:      180,
	}
}

func newMachine() *planner.TransitionMachine {
	m, err := planner.NewTransitionMachine(planner.DefaultTransitionSettings())
	if err != nil {
		panic(err)
	}
	return m
}

// harness wires real services over mock repositories.
type harness struct {
	child       *domain.Child
	children    *MockChildRepository
	scheduleRep *MockScheduleRepository
	sessions    *MockSleepSessionRepository
	transRepo   *MockTransitionRepository
	schedules   ScheduleService
}

func newHarness(sessions ...domain.SleepSession) *harness {
	h := &harness{child: newChild()}
	h.children = NewMockChildRepository(h.child)
	h.scheduleRep = NewMockScheduleRepository()
	h.sessions = NewMockSleepSessionRepository(sessions...)
	h.transRepo = NewMockTransitionRepository(h.scheduleRep)
	h.schedules = NewScheduleService(h.scheduleRep, h.children, NewScheduleCache(10, time.Minute))
	return h
}

func (h *harness) withSchedule(cfg *domain.ScheduleConfig) *harness {
	cfg.ChildID = h.child.ID
	cfg.ID = uuid.New()
	h.scheduleRep.active[h.child.ID] = cfg
	return h
}

func (h *harness) transitionService() *transitionService {
	svc := NewTransitionService(newMachine(), h.transRepo, h.children, h.sessions, h.schedules, logger.Nop()).(*transitionService)
	svc.now = fixedClock
	return svc
}

func (h *harness) recommendationService() *recommendationService {
	svc := NewRecommendationService(h.children, h.sessions, h.schedules).(*recommendationService)
	svc.now = fixedClock
	return svc
}

func (h *harness) statsService() *statsService {
	svc := NewStatsService(h.sessions, h.children).(*statsService)
	svc.now = fixedClock
	return svc
}

func (h *harness) sessionService() *sleepSessionService {
	svc := NewSleepSessionService(h.sessions, h.children, h.schedules).(*sleepSessionService)
	svc.now = fixedClock
	return svc
}

func twoNapSchedule() *domain.ScheduleConfig {
	return twoNapRequest().ToConfig(uuid.Nil)
}

// daysAgo returns testNow's date minus days at hour:minute.
func daysAgo(days, hour, minute int) time.Time {
	return at(hour, minute).AddDate(0, 0, -days)
}
