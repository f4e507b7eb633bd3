package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/blaisecz/nap-planner/internal/langfuse"
	"github.com/blaisecz/nap-planner/internal/llm"
	"github.com/blaisecz/nap-planner/internal/logger"
	"github.com/google/uuid"
)

func newCoachingService(h *harness, llmClient llm.CoachingLLM, lf langfuse.Client) CoachingService {
	return NewCoachingService(
		h.transitionService(),
		h.statsService(),
		h.recommendationService(),
		h.schedules,
		h.children,
		llmClient,
		lf,
		logger.Nop(),
	)
}

func coachingOutput() *domain.CoachingOutput {
	return &domain.CoachingOutput{
		Summary:      "Mia is adjusting well to the 11:45 nap.",
		Observations: []string{"Most naps reached 90 minutes"},
		Guidance:     []string{"Hold the nap time for two more days"},
	}
}

func TestCoachingService_Generate(t *testing.T) {
	h := newHarness().withSchedule(oneNapSchedule())
	h.transRepo = NewMockTransitionRepository(h.scheduleRep, activeTransition(h.child.ID, 10, "11:45"))
	h.sessions = NewMockSleepSessionRepository(
		completedNight(h.child.ID, at(6, 45)),
		completedNap(h.child.ID, daysAgo(1, 11, 45), 95),
	)
	llmClient := &MockCoachingLLM{output: coachingOutput()}
	lf := &MockLangfuseClient{enabled: true}
	svc := newCoachingService(h, llmClient, lf)

	resp, err := svc.Generate(context.Background(), h.child.ID)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if resp.Coaching.Summary != coachingOutput().Summary {
		t.Errorf("Summary = %q", resp.Coaching.Summary)
	}
	if resp.TraceID != "generated-trace" {
		t.Errorf("TraceID = %q, want the langfuse trace", resp.TraceID)
	}
	if resp.Progress.Phase != domain.PhaseWeek1To2 {
		t.Errorf("Phase = %s, want week1_2", resp.Progress.Phase)
	}

	got := llmClient.received
	if got == nil {
		t.Fatal("LLM was not called")
	}
	if got.ChildName != "Mia" {
		t.Errorf("ChildName = %q", got.ChildName)
	}
	if got.Schedule == nil || got.Recommendation == nil {
		t.Error("context should carry the schedule and the next recommendation")
	}
	if got.Stats.CompletedNapCount != 1 {
		t.Errorf("Stats.CompletedNapCount = %d, want 1", got.Stats.CompletedNapCount)
	}

	if len(lf.traces) != 1 {
		t.Fatalf("traces = %d, want 1", len(lf.traces))
	}
	if lf.traces[0].Name != coachingTraceName || lf.traces[0].UserID != h.child.ID.String() {
		t.Errorf("trace = %+v", lf.traces[0])
	}
}

func TestCoachingService_Generate_WithoutSchedule(t *testing.T) {
	h := newHarness()
	h.transRepo = NewMockTransitionRepository(h.scheduleRep, activeTransition(h.child.ID, 3, "11:30"))
	llmClient := &MockCoachingLLM{output: coachingOutput()}
	svc := newCoachingService(h, llmClient, &MockLangfuseClient{})

	resp, err := svc.Generate(context.Background(), h.child.ID)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if llmClient.received.Schedule != nil || llmClient.received.Recommendation != nil {
		t.Error("schedule and recommendation should be omitted")
	}
	if resp.TraceID != "" {
		t.Errorf("TraceID = %q, want empty without tracing", resp.TraceID)
	}
}

func TestCoachingService_Generate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(h *harness)
		newLLM  func() llm.CoachingLLM
		wantErr error
	}{
		{
			name:    "llm not configured",
			setup:   func(*harness) {},
			newLLM:  func() llm.CoachingLLM { return nil },
			wantErr: llm.ErrOpenAIUnavailable,
		},
		{
			name:    "no transition",
			setup:   func(*harness) {},
			newLLM:  func() llm.CoachingLLM { return &MockCoachingLLM{output: coachingOutput()} },
			wantErr: domain.ErrNotFound,
		},
		{
			name: "transition completed",
			setup: func(h *harness) {
				tr := activeTransition(h.child.ID, 40, "12:30")
				tr.CompletedAt = ptr(testNow.Add(-24 * time.Hour))
				h.transRepo = NewMockTransitionRepository(h.scheduleRep, tr)
			},
			newLLM:  func() llm.CoachingLLM { return &MockCoachingLLM{output: coachingOutput()} },
			wantErr: domain.ErrInvalidState,
		},
		{
			name: "llm failure",
			setup: func(h *harness) {
				h.transRepo = NewMockTransitionRepository(h.scheduleRep, activeTransition(h.child.ID, 3, "11:30"))
			},
			newLLM:  func() llm.CoachingLLM { return &MockCoachingLLM{err: llm.ErrOpenAIRequest} },
			wantErr: llm.ErrOpenAIRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			tt.setup(h)
			svc := newCoachingService(h, tt.newLLM(), &MockLangfuseClient{enabled: true})

			if _, err := svc.Generate(context.Background(), h.child.ID); !errors.Is(err, tt.wantErr) {
				t.Errorf("Generate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCoachingService_Feedback(t *testing.T) {
	req := &domain.CoachingFeedbackRequest{TraceID: "trace-1", Score: 4, Comment: "useful"}

	t.Run("recorded as a langfuse score", func(t *testing.T) {
		h := newHarness()
		lf := &MockLangfuseClient{enabled: true}
		svc := newCoachingService(h, nil, lf)

		if err := svc.Feedback(context.Background(), h.child.ID, req); err != nil {
			t.Fatalf("Feedback() error = %v", err)
		}
		if len(lf.scores) != 1 {
			t.Fatalf("scores = %d, want 1", len(lf.scores))
		}
		score := lf.scores[0]
		if score.TraceID != "trace-1" || score.Name != coachingScoreName || score.Value != 4 || score.Comment != "useful" {
			t.Errorf("score = %+v", score)
		}
	})

	t.Run("accepted without langfuse", func(t *testing.T) {
		h := newHarness()
		lf := &MockLangfuseClient{}
		svc := newCoachingService(h, nil, lf)

		if err := svc.Feedback(context.Background(), h.child.ID, req); err != nil {
			t.Fatalf("Feedback() error = %v", err)
		}
		if len(lf.scores) != 0 {
			t.Error("disabled client must not receive scores")
		}
	})

	t.Run("unknown child", func(t *testing.T) {
		h := newHarness()
		svc := newCoachingService(h, nil, &MockLangfuseClient{enabled: true})

		if err := svc.Feedback(context.Background(), uuid.New(), req); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Feedback() error = %v, want ErrNotFound", err)
		}
	})
}
