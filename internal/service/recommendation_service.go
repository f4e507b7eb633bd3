package service

import (
	"context"
	"time"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/blaisecz/nap-planner/internal/planner"
	"github.com/blaisecz/nap-planner/internal/repository"
	"github.com/google/uuid"
)

// RecommendationService answers "what should happen next" for a child.
type RecommendationService interface {
	Next(ctx context.Context, childID uuid.UUID) (*domain.RecommendationResponse, error)
}

type recommendationService struct {
	childRepo   repository.ChildRepository
	sessionRepo repository.SleepSessionRepository
	schedules   ScheduleService
	now         Clock
}

func NewRecommendationService(childRepo repository.ChildRepository, sessionRepo repository.SleepSessionRepository, schedules ScheduleService) RecommendationService {
	return &recommendationService{
		childRepo:   childRepo,
		sessionRepo: sessionRepo,
		schedules:   schedules,
		now:         systemClock,
	}
}

func (s *recommendationService) Next(ctx context.Context, childID uuid.UUID) (*domain.RecommendationResponse, error) {
	child, err := s.childRepo.GetByID(ctx, childID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.schedules.GetActive(ctx, childID)
	if err != nil {
		return nil, err
	}

	now := s.now().In(child.Location())
	stats, err := aggregateFor(ctx, s.sessionRepo, child, planner.DefaultWindowDays, now)
	if err != nil {
		return nil, err
	}

	resp := &domain.RecommendationResponse{
		ChildID:     childID,
		GeneratedAt: now,
		Stats:       stats,
	}

	inProgress, err := s.sessionRepo.GetInProgress(ctx, childID)
	if err != nil {
		return nil, err
	}

	var rec domain.Recommendation
	switch {
	case inProgress == nil:
		latest, err := s.sessionRepo.LatestCompleted(ctx, childID)
		if err != nil {
			return nil, err
		}
		rec, err = planner.RecommendNext(cfg, stats, endOf(latest), now)
		if err != nil {
			return nil, err
		}
	case inProgress.IsNap():
		rec, err = planner.RecommendDuringNap(cfg, inProgress, now)
		if err != nil {
			return nil, err
		}
	default:
		rec, err = planner.RecommendOvernight(cfg, inProgress.StartedAt().In(now.Location()), now)
		if err != nil {
			return nil, err
		}
	}
	resp.Recommendation = rec

	if inProgress != nil {
		id := inProgress.ID
		compliance := planner.CheckCompliance(inProgress, cfg.MinimumCribMinutes, now)
		resp.ActiveSession = &id
		resp.CribCompliance = &compliance
	}

	return resp, nil
}

func endOf(s *domain.SleepSession) *time.Time {
	if s == nil {
		return nil
	}
	return s.EndedAt()
}
