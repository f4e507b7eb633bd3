package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/blaisecz/nap-planner/internal/logger"
	"github.com/blaisecz/nap-planner/internal/planner"
	"github.com/blaisecz/nap-planner/internal/repository"
	"github.com/google/uuid"
)

// TransitionService drives a child's two-nap to one-nap transition. It loads
// records, asks the planner's TransitionMachine what to do and persists the
// resulting mutation.
type TransitionService interface {
	Start(ctx context.Context, childID uuid.UUID, req *domain.StartTransitionRequest) (*domain.TransitionResponse, error)
	// Get returns the active transition, or the most recent completed one.
	Get(ctx context.Context, childID uuid.UUID) (*domain.TransitionResponse, error)
	Progress(ctx context.Context, childID uuid.UUID, patch *domain.TransitionPatch) (*domain.TransitionResponse, error)
	Cancel(ctx context.Context, childID uuid.UUID) error
	PushReadiness(ctx context.Context, childID uuid.UUID) (*domain.NapPushRecommendation, error)
	// ApplyPush moves the nap to the suggested time when the readiness
	// analysis says to push, and fails with domain.ErrInvalidState otherwise.
	ApplyPush(ctx context.Context, childID uuid.UUID) (*domain.TransitionResponse, error)
}

type transitionService struct {
	machine     *planner.TransitionMachine
	repo        repository.TransitionRepository
	childRepo   repository.ChildRepository
	sessionRepo repository.SleepSessionRepository
	schedules   ScheduleService
	log         logger.Logger
	now         Clock
}

func NewTransitionService(
	machine *planner.TransitionMachine,
	repo repository.TransitionRepository,
	childRepo repository.ChildRepository,
	sessionRepo repository.SleepSessionRepository,
	schedules ScheduleService,
	log logger.Logger,
) TransitionService {
	return &transitionService{
		machine:     machine,
		repo:        repo,
		childRepo:   childRepo,
		sessionRepo: sessionRepo,
		schedules:   schedules,
		log:         log,
		now:         systemClock,
	}
}

func (s *transitionService) Start(ctx context.Context, childID uuid.UUID, req *domain.StartTransitionRequest) (*domain.TransitionResponse, error) {
	child, err := s.childRepo.GetByID(ctx, childID)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.GetActive(ctx, childID)
	if err != nil {
		return nil, err
	}

	now := s.now().In(child.Location())
	t, err := s.machine.Start(existing, childID, *req, now)
	if err != nil {
		return nil, err
	}
	t.ID = uuid.New()

	if err := s.repo.Apply(ctx, domain.TransitionMutation{Op: domain.MutationCreate, Transition: t}, nil); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: a transition is already in progress", domain.ErrConflict)
		}
		return nil, err
	}

	s.log.Infow("transition started",
		"child_id", childID,
		"transition_id", t.ID,
		"start_nap_time", t.StartNapTime,
		"pace", s.machine.PaceFor(t.TargetWeeks),
	)
	return s.respond(ctx, t, now)
}

func (s *transitionService) Get(ctx context.Context, childID uuid.UUID) (*domain.TransitionResponse, error) {
	child, t, err := s.load(ctx, childID, true)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, t, s.now().In(child.Location()))
}

func (s *transitionService) Progress(ctx context.Context, childID uuid.UUID, patch *domain.TransitionPatch) (*domain.TransitionResponse, error) {
	child, t, err := s.load(ctx, childID, false)
	if err != nil {
		return nil, err
	}
	return s.progress(ctx, child, t, *patch)
}

func (s *transitionService) progress(ctx context.Context, child *domain.Child, t *domain.ScheduleTransition, patch domain.TransitionPatch) (*domain.TransitionResponse, error) {
	now := s.now().In(child.Location())
	s.syncWeek(t, now)

	mutation, err := s.machine.Progress(t, patch, now)
	if err != nil {
		return nil, err
	}

	var schedule *domain.ScheduleConfig
	if mutation.ReplaceSchedule {
		current, err := s.schedules.GetActive(ctx, child.ID)
		if err != nil {
			return nil, fmt.Errorf("complete transition: %w", err)
		}
		schedule, err = s.machine.OneNapScheduleFrom(current, mutation.Transition)
		if err != nil {
			return nil, err
		}
		if errs := schedule.Validate(); len(errs) > 0 {
			return nil, fmt.Errorf("complete transition: %w", errs)
		}
		schedule.ID = uuid.New()
	}

	if err := s.repo.Apply(ctx, mutation, schedule); err != nil {
		return nil, err
	}

	if mutation.ReplaceSchedule {
		s.schedules.Invalidate(child.ID)
		s.log.Infow("transition completed",
			"child_id", child.ID,
			"transition_id", mutation.Transition.ID,
			"nap_time", mutation.Transition.CurrentNapTime,
		)
	} else if mutation.Transition.CurrentNapTime != t.CurrentNapTime {
		s.log.Infow("nap pushed",
			"child_id", child.ID,
			"from", t.CurrentNapTime,
			"to", mutation.Transition.CurrentNapTime,
		)
	}
	return s.respond(ctx, mutation.Transition, now)
}

func (s *transitionService) Cancel(ctx context.Context, childID uuid.UUID) error {
	_, t, err := s.load(ctx, childID, false)
	if err != nil {
		return err
	}

	mutation, err := s.machine.Cancel(t)
	if err != nil {
		return err
	}
	if err := s.repo.Apply(ctx, mutation, nil); err != nil {
		return err
	}

	s.log.Infow("transition cancelled", "child_id", childID, "transition_id", t.ID)
	return nil
}

func (s *transitionService) PushReadiness(ctx context.Context, childID uuid.UUID) (*domain.NapPushRecommendation, error) {
	child, t, err := s.load(ctx, childID, false)
	if err != nil {
		return nil, err
	}
	rec, err := s.readiness(ctx, child, t)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *transitionService) readiness(ctx context.Context, child *domain.Child, t *domain.ScheduleTransition) (domain.NapPushRecommendation, error) {
	now := s.now().In(child.Location())
	s.syncWeek(t, now)

	cfg, err := s.optionalSchedule(ctx, child.ID)
	if err != nil {
		return domain.NapPushRecommendation{}, err
	}

	window := s.machine.Settings().ReadinessWindowDays
	sessions, err := s.sessionRepo.ListRecent(ctx, child.ID, now.AddDate(0, 0, -window))
	if err != nil {
		return domain.NapPushRecommendation{}, err
	}

	return s.machine.AnalyzePushReadiness(t, sessions, cfg, now)
}

func (s *transitionService) ApplyPush(ctx context.Context, childID uuid.UUID) (*domain.TransitionResponse, error) {
	child, t, err := s.load(ctx, childID, false)
	if err != nil {
		return nil, err
	}

	rec, err := s.readiness(ctx, child, t)
	if err != nil {
		return nil, err
	}
	if !rec.ShouldPush {
		return nil, fmt.Errorf("%w: not ready to push: %s", domain.ErrInvalidState, rec.Reason)
	}

	newTime := rec.SuggestedNewTime
	return s.progress(ctx, child, t, domain.TransitionPatch{NewNapTime: &newTime})
}

// load fetches the child and its active transition. With includeCompleted,
// the most recent completed transition is returned when none is active.
func (s *transitionService) load(ctx context.Context, childID uuid.UUID, includeCompleted bool) (*domain.Child, *domain.ScheduleTransition, error) {
	child, err := s.childRepo.GetByID(ctx, childID)
	if err != nil {
		return nil, nil, err
	}

	t, err := s.repo.GetActive(ctx, childID)
	if err != nil {
		return nil, nil, err
	}
	if t == nil && includeCompleted {
		if t, err = s.repo.Latest(ctx, childID); err != nil {
			return nil, nil, err
		}
	}
	if t == nil {
		return nil, nil, fmt.Errorf("%w: no transition for child", domain.ErrNotFound)
	}
	return child, t, nil
}

// syncWeek moves the stored week forward to the elapsed week. The stored
// week never moves backwards.
func (s *transitionService) syncWeek(t *domain.ScheduleTransition, now time.Time) {
	if !t.IsActive() {
		return
	}
	if w := s.machine.ElapsedWeek(t, now); w > t.CurrentWeek {
		t.CurrentWeek = w
	}
}

func (s *transitionService) optionalSchedule(ctx context.Context, childID uuid.UUID) (*domain.ScheduleConfig, error) {
	cfg, err := s.schedules.GetActive(ctx, childID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return cfg, err
}

func (s *transitionService) respond(ctx context.Context, t *domain.ScheduleTransition, now time.Time) (*domain.TransitionResponse, error) {
	cfg, err := s.optionalSchedule(ctx, t.ChildID)
	if err != nil {
		return nil, err
	}
	progress, err := s.machine.ComputeProgress(t, cfg, now)
	if err != nil {
		return nil, err
	}
	return &domain.TransitionResponse{Transition: t, Progress: progress}, nil
}
