package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/google/uuid"
)

func activeTransition(childID uuid.UUID, startedDaysAgo int, napTime string) *domain.ScheduleTransition {
	return &domain.ScheduleTransition{
		ID:             uuid.New(),
		ChildID:        childID,
		FromType:       domain.ScheduleTwoNap,
		ToType:         domain.ScheduleOneNap,
		StartedAt:      testNow.AddDate(0, 0, -startedDaysAgo),
		CurrentWeek:    1,
		TargetWeeks:    6,
		StartNapTime:   "11:30",
		CurrentNapTime: napTime,
	}
}

func TestTransitionService_Start(t *testing.T) {
	h := newHarness().withSchedule(twoNapSchedule())
	svc := h.transitionService()
	ctx := context.Background()

	resp, err := svc.Start(ctx, h.child.ID, &domain.StartTransitionRequest{})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	tr := resp.Transition
	if tr.ID == uuid.Nil {
		t.Error("expected transition ID")
	}
	if tr.CurrentNapTime != "11:30" || tr.CurrentWeek != 1 || tr.TargetWeeks != 6 {
		t.Errorf("transition = %+v", tr)
	}
	if resp.Progress.Phase != domain.PhaseWeek1To2 || resp.Progress.Pace != domain.PaceStandard {
		t.Errorf("progress = %s/%s, want week1_2/standard", resp.Progress.Phase, resp.Progress.Pace)
	}
	if resp.Progress.PercentComplete != 0 {
		t.Errorf("PercentComplete = %d, want 0", resp.Progress.PercentComplete)
	}

	_, err = svc.Start(ctx, h.child.ID, &domain.StartTransitionRequest{})
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("second Start() error = %v, want ErrInvalidState", err)
	}
	if len(h.transRepo.transitions) != 1 {
		t.Errorf("stored transitions = %d, want 1", len(h.transRepo.transitions))
	}
}

func TestTransitionService_Start_Errors(t *testing.T) {
	tests := []struct {
		name    string
		childID func(*harness) uuid.UUID
		req     domain.StartTransitionRequest
		wantErr error
	}{
		{"unknown child", func(*harness) uuid.UUID { return uuid.New() }, domain.StartTransitionRequest{}, domain.ErrNotFound},
		{"unsupported pair", func(h *harness) uuid.UUID { return h.child.ID }, domain.StartTransitionRequest{FromType: domain.ScheduleThreeNap}, domain.ErrInvalidState},
		{"nap before 11:30", func(h *harness) uuid.UUID { return h.child.ID }, domain.StartTransitionRequest{StartNapTime: "11:00"}, domain.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			svc := h.transitionService()
			req := tt.req
			if _, err := svc.Start(context.Background(), tt.childID(h), &req); !errors.Is(err, tt.wantErr) {
				t.Errorf("Start() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransitionService_ApplyPush(t *testing.T) {
	h := newHarness().withSchedule(oneNapSchedule())
	tr := activeTransition(h.child.ID, 17, "11:45")
	tr.LastPushedAt = ptr(testNow.AddDate(0, 0, -4))
	h.transRepo = NewMockTransitionRepository(h.scheduleRep, tr)
	var naps []domain.SleepSession
	for d := 1; d <= 6; d++ {
		naps = append(naps, completedNap(h.child.ID, daysAgo(d, 11, 45), 95))
	}
	h.sessions = NewMockSleepSessionRepository(naps...)
	svc := h.transitionService()
	ctx := context.Background()

	readiness, err := svc.PushReadiness(ctx, h.child.ID)
	if err != nil {
		t.Fatalf("PushReadiness() error = %v", err)
	}
	if !readiness.ShouldPush || readiness.SuggestedNewTime != "12:00" || readiness.PushMinutes != 15 {
		t.Fatalf("readiness = %+v, want push to 12:00", readiness)
	}
	if readiness.GoodNapCount != 6 || readiness.TotalNaps != 6 || readiness.DaysSinceLastPush != 4 {
		t.Errorf("readiness counts = %+v", readiness)
	}

	resp, err := svc.ApplyPush(ctx, h.child.ID)
	if err != nil {
		t.Fatalf("ApplyPush() error = %v", err)
	}
	if resp.Transition.CurrentNapTime != "12:00" {
		t.Errorf("CurrentNapTime = %s, want 12:00", resp.Transition.CurrentNapTime)
	}
	if resp.Transition.LastPushedAt == nil || !resp.Transition.LastPushedAt.Equal(testNow) {
		t.Errorf("LastPushedAt = %v, want now", resp.Transition.LastPushedAt)
	}
	if resp.Transition.CurrentWeek != 3 {
		t.Errorf("CurrentWeek = %d, want synced to 3", resp.Transition.CurrentWeek)
	}
	if resp.Progress.PercentComplete != 50 || resp.Progress.Phase != domain.PhaseWeek2Plus {
		t.Errorf("progress = %d%% %s", resp.Progress.PercentComplete, resp.Progress.Phase)
	}

	stored := h.transRepo.transitions[tr.ID]
	if stored.CurrentNapTime != "12:00" {
		t.Errorf("stored nap time = %s", stored.CurrentNapTime)
	}

	// pushing again straight away is too soon
	_, err = svc.ApplyPush(ctx, h.child.ID)
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("second ApplyPush() error = %v, want ErrInvalidState", err)
	}
}

func TestTransitionService_PushReadiness_AfterWeekAdvanced(t *testing.T) {
	h := newHarness().withSchedule(oneNapSchedule())
	tr := activeTransition(h.child.ID, 10, "11:45")
	tr.LastPushedAt = ptr(testNow.AddDate(0, 0, -4))
	h.transRepo = NewMockTransitionRepository(h.scheduleRep, tr)
	var naps []domain.SleepSession
	for d := 1; d <= 6; d++ {
		naps = append(naps, completedNap(h.child.ID, daysAgo(d, 11, 45), 95))
	}
	h.sessions = NewMockSleepSessionRepository(naps...)
	svc := h.transitionService()
	ctx := context.Background()

	readiness, err := svc.PushReadiness(ctx, h.child.ID)
	if err != nil {
		t.Fatalf("PushReadiness() error = %v", err)
	}
	if readiness.ShouldPush {
		t.Fatalf("readiness in week 2 = %+v, want hold", readiness)
	}

	week := 3
	resp, err := svc.Progress(ctx, h.child.ID, &domain.TransitionPatch{CurrentWeek: &week})
	if err != nil {
		t.Fatalf("Progress() error = %v", err)
	}
	if resp.Transition.CurrentWeek != 3 {
		t.Fatalf("CurrentWeek = %d, want 3", resp.Transition.CurrentWeek)
	}

	readiness, err = svc.PushReadiness(ctx, h.child.ID)
	if err != nil {
		t.Fatalf("PushReadiness() error = %v", err)
	}
	if !readiness.ShouldPush || readiness.SuggestedNewTime != "12:00" || readiness.DaysSinceLastPush != 4 {
		t.Errorf("readiness in week 3 = %+v, want push to 12:00", readiness)
	}
}

func TestTransitionService_PushReadiness_HoldsFirstTwoWeeks(t *testing.T) {
	h := newHarness()
	h.transRepo = NewMockTransitionRepository(h.scheduleRep, activeTransition(h.child.ID, 5, "11:30"))
	svc := h.transitionService()

	rec, err := svc.PushReadiness(context.Background(), h.child.ID)
	if err != nil {
		t.Fatalf("PushReadiness() error = %v", err)
	}
	if rec.ShouldPush {
		t.Error("standard pace must hold during the first two weeks")
	}
	if rec.DaysUntilEligible != 9 {
		t.Errorf("DaysUntilEligible = %d, want 9", rec.DaysUntilEligible)
	}
}

func TestTransitionService_Complete(t *testing.T) {
	h := newHarness().withSchedule(twoNapSchedule())
	tr := activeTransition(h.child.ID, 40, "12:30")
	h.transRepo = NewMockTransitionRepository(h.scheduleRep, tr)
	svc := h.transitionService()
	ctx := context.Background()

	// warm the cache with the two-nap schedule
	if _, err := h.schedules.GetActive(ctx, h.child.ID); err != nil {
		t.Fatalf("GetActive() error = %v", err)
	}

	resp, err := svc.Progress(ctx, h.child.ID, &domain.TransitionPatch{Complete: true})
	if err != nil {
		t.Fatalf("Progress(complete) error = %v", err)
	}
	if resp.Transition.CompletedAt == nil || !resp.Progress.Completed {
		t.Error("transition should be completed")
	}
	if resp.Progress.Phase != domain.PhaseFinal {
		t.Errorf("Phase = %s, want final", resp.Progress.Phase)
	}

	last := h.transRepo.applied[len(h.transRepo.applied)-1]
	if !last.ReplaceSchedule {
		t.Error("completion must replace the schedule in the same mutation")
	}

	cfg, err := h.schedules.GetActive(ctx, h.child.ID)
	if err != nil {
		t.Fatalf("GetActive() error = %v", err)
	}
	if cfg.Type != domain.ScheduleOneNap {
		t.Errorf("active schedule = %s, want ONE_NAP", cfg.Type)
	}
	if cfg.Nap1Earliest != "12:30" || cfg.Nap1LatestStart != "13:00" {
		t.Errorf("nap window = %s-%s", cfg.Nap1Earliest, cfg.Nap1LatestStart)
	}
	if cfg.BedtimeGoalStart != "19:00" {
		t.Errorf("bedtime goal not carried over: %s", cfg.BedtimeGoalStart)
	}

	// completed transitions are still readable but no longer mutable
	got, err := svc.Get(ctx, h.child.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Progress.Completed {
		t.Error("Get() should return the completed transition")
	}
	if _, err := svc.Progress(ctx, h.child.ID, &domain.TransitionPatch{Complete: true}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Progress() after completion error = %v, want ErrNotFound", err)
	}
}

func TestTransitionService_Complete_WithoutSchedule(t *testing.T) {
	h := newHarness()
	tr := activeTransition(h.child.ID, 40, "12:30")
	h.transRepo = NewMockTransitionRepository(h.scheduleRep, tr)
	svc := h.transitionService()

	_, err := svc.Progress(context.Background(), h.child.ID, &domain.TransitionPatch{Complete: true})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Progress(complete) error = %v, want ErrNotFound", err)
	}
	if !h.transRepo.transitions[tr.ID].IsActive() {
		t.Error("transition must stay active when completion fails")
	}
}

func TestTransitionService_Progress_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		patch domain.TransitionPatch
	}{
		{"nap earlier", domain.TransitionPatch{NewNapTime: ptr("11:30")}},
		{"past goal", domain.TransitionPatch{NewNapTime: ptr("12:45")}},
		{"week backwards", domain.TransitionPatch{CurrentWeek: ptr(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.transRepo = NewMockTransitionRepository(h.scheduleRep, activeTransition(h.child.ID, 17, "11:45"))
			svc := h.transitionService()
			patch := tt.patch
			if _, err := svc.Progress(context.Background(), h.child.ID, &patch); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("Progress() error = %v, want ErrInvalidArgument", err)
			}
			if len(h.transRepo.applied) != 0 {
				t.Error("rejected patch must not be persisted")
			}
		})
	}
}

func TestTransitionService_Cancel(t *testing.T) {
	h := newHarness()
	tr := activeTransition(h.child.ID, 3, "11:30")
	h.transRepo = NewMockTransitionRepository(h.scheduleRep, tr)
	svc := h.transitionService()
	ctx := context.Background()

	if err := svc.Cancel(ctx, h.child.ID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if _, ok := h.transRepo.transitions[tr.ID]; ok {
		t.Error("transition should be removed")
	}
	if err := svc.Cancel(ctx, h.child.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second Cancel() error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Get(ctx, h.child.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestTransitionService_Get_SyncsWeek(t *testing.T) {
	h := newHarness()
	h.transRepo = NewMockTransitionRepository(h.scheduleRep, activeTransition(h.child.ID, 24, "12:00"))
	svc := h.transitionService()

	resp, err := svc.Get(context.Background(), h.child.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if resp.Progress.CurrentWeek != 4 {
		t.Errorf("CurrentWeek = %d, want 4", resp.Progress.CurrentWeek)
	}
	if resp.Progress.DaysSinceStart != 24 {
		t.Errorf("DaysSinceStart = %d, want 24", resp.Progress.DaysSinceStart)
	}
	if resp.Progress.NextMilestone == nil || !resp.Progress.NextMilestone.Date.Equal(testNow.Add(72*time.Hour)) {
		t.Errorf("NextMilestone = %+v, want in 3 days", resp.Progress.NextMilestone)
	}
}
