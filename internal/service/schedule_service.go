package service

import (
	"context"
	"fmt"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/blaisecz/nap-planner/internal/repository"
	"github.com/google/uuid"
)

type ScheduleService interface {
	// GetActive returns the child's active schedule or domain.ErrNotFound.
	GetActive(ctx context.Context, childID uuid.UUID) (*domain.ScheduleConfig, error)
	// Replace validates req and makes it the child's only active schedule.
	Replace(ctx context.Context, childID uuid.UUID, req *domain.ScheduleRequest) (*domain.ScheduleConfig, error)
	NapWindow(ctx context.Context, childID uuid.UUID, napNumber int) (domain.NapWindow, error)
	// Invalidate drops the cached schedule after it was replaced elsewhere.
	Invalidate(childID uuid.UUID)
}

type scheduleService struct {
	repo      repository.ScheduleRepository
	childRepo repository.ChildRepository
	cache     *ScheduleCache
}

// NewScheduleService creates a ScheduleService. A nil cache disables caching.
func NewScheduleService(repo repository.ScheduleRepository, childRepo repository.ChildRepository, cache *ScheduleCache) ScheduleService {
	return &scheduleService{
		repo:      repo,
		childRepo: childRepo,
		cache:     cache,
	}
}

func (s *scheduleService) GetActive(ctx context.Context, childID uuid.UUID) (*domain.ScheduleConfig, error) {
	if cfg, ok := s.cache.Get(childID); ok {
		return cfg, nil
	}

	cfg, err := s.repo.GetActive(ctx, childID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(childID, cfg)
	return cfg, nil
}

func (s *scheduleService) Replace(ctx context.Context, childID uuid.UUID, req *domain.ScheduleRequest) (*domain.ScheduleConfig, error) {
	exists, err := s.childRepo.Exists(ctx, childID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	cfg := req.ToConfig(childID)
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}

	if err := s.repo.ReplaceActive(ctx, childID, cfg); err != nil {
		return nil, err
	}
	s.cache.Invalidate(childID)
	return cfg, nil
}

func (s *scheduleService) NapWindow(ctx context.Context, childID uuid.UUID, napNumber int) (domain.NapWindow, error) {
	cfg, err := s.GetActive(ctx, childID)
	if err != nil {
		return domain.NapWindow{}, err
	}
	w, ok := cfg.NapWindowFor(napNumber)
	if !ok {
		return domain.NapWindow{}, fmt.Errorf("%w: nap %d is not configured", domain.ErrNotFound, napNumber)
	}
	return w, nil
}

func (s *scheduleService) Invalidate(childID uuid.UUID) {
	s.cache.Invalidate(childID)
}
