package service

import (
	"context"
	"fmt"
	"time"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/blaisecz/nap-planner/internal/planner"
	"github.com/blaisecz/nap-planner/internal/repository"
	"github.com/blaisecz/nap-planner/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultStatsWindowDays = planner.DefaultWindowDays
	MaxStatsWindowDays     = 90
)

// StatsService aggregates completed sleep sessions over a trailing window.
type StatsService interface {
	Aggregate(ctx context.Context, childID uuid.UUID, windowDays int) (*domain.AggregateStats, error)
}

type statsService struct {
	sessionRepo repository.SleepSessionRepository
	childRepo   repository.ChildRepository
	now         Clock
}

func NewStatsService(sessionRepo repository.SleepSessionRepository, childRepo repository.ChildRepository) StatsService {
	return &statsService{
		sessionRepo: sessionRepo,
		childRepo:   childRepo,
		now:         systemClock,
	}
}

func (s *statsService) Aggregate(ctx context.Context, childID uuid.UUID, windowDays int) (*domain.AggregateStats, error) {
	ctx, span := telemetry.Tracer("service").Start(ctx, "stats.aggregate")
	defer span.End()

	if windowDays <= 0 {
		windowDays = DefaultStatsWindowDays
	}
	if windowDays > MaxStatsWindowDays {
		return nil, fmt.Errorf("%w: window_days must be at most %d", domain.ErrInvalidArgument, MaxStatsWindowDays)
	}

	child, err := s.childRepo.GetByID(ctx, childID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	stats, err := aggregateFor(ctx, s.sessionRepo, child, windowDays, s.now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list sessions")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("child.id", childID.String()),
		attribute.Int("stats.window_days", windowDays),
		attribute.Int("stats.total_sessions", stats.TotalSessions),
		attribute.Int("stats.good_naps", stats.GoodNapCount),
		attribute.Float64("stats.average_sleep_minutes", stats.AverageSleepMinutes),
	)
	return &stats, nil
}

// aggregateFor loads the window's sessions and aggregates them as of now in
// the child's timezone, so "today" is the child's calendar day.
func aggregateFor(ctx context.Context, repo repository.SleepSessionRepository, child *domain.Child, windowDays int, now time.Time) (domain.AggregateStats, error) {
	local := now.In(child.Location())
	sessions, err := repo.ListRecent(ctx, child.ID, local.AddDate(0, 0, -windowDays))
	if err != nil {
		return domain.AggregateStats{}, err
	}
	return planner.Aggregate(sessions, windowDays, local), nil
}
