package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/blaisecz/nap-planner/internal/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	seededDays      = 30
	transitionStart = 18 // days ago
	lastPush        = 5  // days ago
)

var demoChildID = uuid.MustParse("11111111-1111-1111-1111-111111111111")

// Run seeds a demo child partway through a 2-to-1 nap transition: a month of
// sleep sessions, a transition schedule and the transition itself. Safe to
// call multiple times.
func Run(ctx context.Context, db *gorm.DB, log logger.Logger) error {
	db = db.WithContext(ctx)

	child := domain.Child{ID: demoChildID, Name: "Mia", Timezone: "Europe/Amsterdam"}
	if err := db.Where("id = ?", child.ID).FirstOrCreate(&child).Error; err != nil {
		return fmt.Errorf("failed to create child: %w", err)
	}
	loc := child.Location()
	now := time.Now().In(loc)

	schedule := transitionSchedule(child.ID)
	if err := db.Where("child_id = ? AND is_active", child.ID).FirstOrCreate(schedule).Error; err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}

	startedAt := localDay(now, transitionStart, 9, 0)
	pushedAt := localDay(now, lastPush, 9, 0)
	transition := domain.ScheduleTransition{
		ChildID:        child.ID,
		FromType:       domain.ScheduleTwoNap,
		ToType:         domain.ScheduleOneNap,
		StartedAt:      startedAt.UTC(),
		CurrentWeek:    3,
		TargetWeeks:    6,
		StartNapTime:   "11:30",
		CurrentNapTime: "11:45",
		LastPushedAt:   ptr(pushedAt.UTC()),
	}
	if err := db.Where("child_id = ? AND completed_at IS NULL", child.ID).FirstOrCreate(&transition).Error; err != nil {
		return fmt.Errorf("failed to create transition: %w", err)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	sessions := 0
	for i := seededDays; i >= 1; i-- {
		for _, s := range dayOfSleep(child, now, i, rng) {
			clientReqID := *s.ClientRequestID
			if err := db.Where("client_request_id = ?", clientReqID).FirstOrCreate(&s).Error; err != nil {
				return fmt.Errorf("failed to create session %s: %w", clientReqID, err)
			}
			sessions++
		}
	}

	log.Infow("Seed completed", "child_id", child.ID, "sessions", sessions, "transition_id", transition.ID)
	return nil
}

// dayOfSleep returns the naps of the day daysAgo and the night that follows
// it. Before the transition there are two naps; afterwards one nap at the
// transition time in force that day.
func dayOfSleep(child domain.Child, now time.Time, daysAgo int, rng *rand.Rand) []domain.SleepSession {
	var out []domain.SleepSession
	add := func(kind string, typ domain.SessionType, napNumber *int, putDown time.Time, latency, sleep, tail int) {
		id := fmt.Sprintf("seed-%s-%s-%d", kind, child.ID, daysAgo)
		s := domain.SleepSession{
			ChildID:         child.ID,
			SessionType:     typ,
			NapNumber:       napNumber,
			State:           domain.StatePending,
			PutDownAt:       ptr(putDown.UTC()),
			LocalTimezone:   child.Timezone,
			ClientRequestID: &id,
			CreatedAt:       putDown.UTC(),
		}
		asleep := putDown.Add(time.Duration(latency) * time.Minute)
		woke := asleep.Add(time.Duration(sleep) * time.Minute)
		// Fixed ordering, cannot fail.
		_ = s.Apply(domain.EventFellAsleep, asleep.UTC())
		_ = s.Apply(domain.EventWokeUp, woke.UTC())
		_ = s.Apply(domain.EventOutOfCrib, woke.Add(time.Duration(tail)*time.Minute).UTC())
		out = append(out, s)
	}

	switch {
	case daysAgo > transitionStart:
		add("nap1", domain.SessionNap, ptr(1), localDay(now, daysAgo, 9, 15+rng.Intn(30)), 5+rng.Intn(10), 50+rng.Intn(40), rng.Intn(10))
		add("nap2", domain.SessionNap, ptr(2), localDay(now, daysAgo, 14, rng.Intn(30)), 5+rng.Intn(10), 40+rng.Intn(40), rng.Intn(10))
	default:
		napTime := localDay(now, daysAgo, 11, 30)
		if daysAgo <= lastPush {
			napTime = localDay(now, daysAgo, 11, 45)
		}
		add("nap1", domain.SessionNap, ptr(1), napTime.Add(time.Duration(rng.Intn(10))*time.Minute), 5+rng.Intn(10), 75+rng.Intn(45), 5+rng.Intn(20))
	}

	bedtime := localDay(now, daysAgo, 19, rng.Intn(30))
	night := 10*60 + 30 + rng.Intn(60)
	add("night", domain.SessionNightSleep, nil, bedtime, 10+rng.Intn(15), night, rng.Intn(10))
	return out
}

func transitionSchedule(childID uuid.UUID) *domain.ScheduleConfig {
	return &domain.ScheduleConfig{
		ChildID:                childID,
		Type:                   domain.ScheduleTypeTransition,
		IsActive:               true,
		WakeWindow1Min:         270,
		WakeWindow1Max:         330,
		WakeWindow2Min:         ptr(240),
		WakeWindow2Max:         ptr(330),
		Nap1Earliest:           "11:30",
		Nap1LatestStart:        "12:30",
		Nap1MaxDuration:        150,
		Nap1EndBy:              "15:30",
		BedtimeEarliest:        "18:00",
		BedtimeLatest:          "19:30",
		BedtimeGoalStart:       "18:45",
		BedtimeGoalEnd:         "19:15",
		WakeTimeEarliest:       "06:00",
		WakeTimeLatest:         "07:30",
		DaySleepCap:            180,
		MinimumCribMinutes:     domain.DefaultMinimumCribMinutes,
		NapReminderMinutes:     domain.DefaultReminderMinutes,
		BedtimeReminderMinutes: domain.DefaultReminderMinutes,
	}
}

func localDay(now time.Time, daysAgo, hour, minute int) time.Time {
	d := now.AddDate(0, 0, -daysAgo)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, now.Location())
}

func ptr[T any](v T) *T {
	return &v
}
