package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/blaisecz/nap-planner/internal/langfuse"
	"github.com/blaisecz/nap-planner/internal/llm"
	"github.com/blaisecz/nap-planner/internal/logger"
	"github.com/blaisecz/nap-planner/internal/repository"
	"github.com/blaisecz/nap-planner/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	coachingTraceName = "nap-coaching"
	coachingScoreName = "user_rating"
)

// CoachingService turns transition progress, push readiness and nap
// statistics into LLM-written guidance for the parent.
type CoachingService interface {
	Generate(ctx context.Context, childID uuid.UUID) (*domain.CoachingResponse, error)
	// Feedback records a rating for a previous coaching response.
	Feedback(ctx context.Context, childID uuid.UUID, req *domain.CoachingFeedbackRequest) error
}

type coachingService struct {
	transitions     TransitionService
	stats           StatsService
	recommendations RecommendationService
	schedules       ScheduleService
	childRepo       repository.ChildRepository
	llmClient       llm.CoachingLLM
	langfuse        langfuse.Client
	log             logger.Logger
}

func NewCoachingService(
	transitions TransitionService,
	stats StatsService,
	recommendations RecommendationService,
	schedules ScheduleService,
	childRepo repository.ChildRepository,
	llmClient llm.CoachingLLM,
	langfuseClient langfuse.Client,
	log logger.Logger,
) CoachingService {
	return &coachingService{
		transitions:     transitions,
		stats:           stats,
		recommendations: recommendations,
		schedules:       schedules,
		childRepo:       childRepo,
		llmClient:       llmClient,
		langfuse:        langfuseClient,
		log:             log,
	}
}

func (s *coachingService) Generate(ctx context.Context, childID uuid.UUID) (*domain.CoachingResponse, error) {
	ctx, span := telemetry.Tracer("service").Start(ctx, "coaching.generate")
	defer span.End()

	if s.llmClient == nil {
		return nil, llm.ErrOpenAIUnavailable
	}

	child, err := s.childRepo.GetByID(ctx, childID)
	if err != nil {
		return nil, err
	}

	transition, err := s.transitions.Get(ctx, childID)
	if err != nil {
		return nil, err
	}
	if transition.Progress.Completed {
		return nil, fmt.Errorf("%w: transition already completed", domain.ErrInvalidState)
	}
	readiness, err := s.transitions.PushReadiness(ctx, childID)
	if err != nil {
		return nil, err
	}
	stats, err := s.stats.Aggregate(ctx, childID, DefaultStatsWindowDays)
	if err != nil {
		return nil, err
	}

	coachingCtx := &domain.CoachingContext{
		ChildName:     child.Name,
		Stats:         *stats,
		Progress:      transition.Progress,
		PushReadiness: *readiness,
	}
	if cfg, err := s.schedules.GetActive(ctx, childID); err == nil {
		coachingCtx.Schedule = cfg
		// Recommendation needs a schedule; skip it quietly otherwise.
		if next, err := s.recommendations.Next(ctx, childID); err == nil {
			coachingCtx.Recommendation = &next.Recommendation
		} else {
			s.log.Warnf("coaching without recommendation for child %s: %v", childID, err)
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	output, err := s.llmClient.GenerateCoaching(ctx, coachingCtx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "llm")
		return nil, err
	}

	resp := &domain.CoachingResponse{
		ChildID:       childID,
		Progress:      transition.Progress,
		PushReadiness: *readiness,
		Coaching:      *output,
	}

	if inJSON, err := json.Marshal(coachingCtx); err == nil {
		span.SetAttributes(attribute.String("langfuse.observation.input", string(inJSON)))
	}
	if outJSON, err := json.Marshal(output); err == nil {
		span.SetAttributes(attribute.String("langfuse.observation.output", string(outJSON)))
	}
	span.SetAttributes(
		attribute.String("langfuse.user.id", childID.String()),
		attribute.String("transition.phase", string(transition.Progress.Phase)),
		attribute.Bool("transition.should_push", readiness.ShouldPush),
	)

	// Attach the trace ID (if present) so feedback can be linked
	var traceID string
	if sc := span.SpanContext(); sc.IsValid() {
		traceID = sc.TraceID().String()
	}
	if s.langfuse != nil && s.langfuse.IsEnabled() {
		id, err := s.langfuse.CreateTrace(ctx, langfuse.TraceInput{
			ID:     traceID,
			UserID: childID.String(),
			Name:   coachingTraceName,
			Input:  coachingCtx,
			Output: output,
			Tags:   []string{telemetry.ServiceName, string(transition.Progress.Phase)},
		})
		if err != nil {
			s.log.Warnf("langfuse trace failed: %v", err)
		} else {
			traceID = id
		}
	}
	resp.TraceID = traceID

	return resp, nil
}

func (s *coachingService) Feedback(ctx context.Context, childID uuid.UUID, req *domain.CoachingFeedbackRequest) error {
	exists, err := s.childRepo.Exists(ctx, childID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}

	if s.langfuse == nil || !s.langfuse.IsEnabled() {
		s.log.Infow("coaching feedback received without langfuse", "child_id", childID, "score", req.Score)
		return nil
	}

	// Delivery is asynchronous; failures are logged by the client
	return s.langfuse.CreateScore(ctx, langfuse.ScoreInput{
		TraceID: req.TraceID,
		Name:    coachingScoreName,
		Value:   float64(req.Score),
		Comment: req.Comment,
	})
}
