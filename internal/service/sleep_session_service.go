package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/blaisecz/nap-planner/internal/planner"
	"github.com/blaisecz/nap-planner/internal/repository"
	"github.com/blaisecz/nap-planner/internal/timeutil"
	"github.com/blaisecz/nap-planner/pkg/pagination"
	"github.com/google/uuid"
)

// maxClockSkew is how far in the future a client timestamp may be.
const maxClockSkew = 5 * time.Minute

type SleepSessionService interface {
	// PutDown starts a session in PENDING state.
	// Returns (session, isExisting, error) - isExisting is true if returning
	// an existing session due to idempotency.
	PutDown(ctx context.Context, childID uuid.UUID, req *domain.CreateSessionRequest) (*domain.SleepSession, bool, error)
	ApplyEvent(ctx context.Context, childID, sessionID uuid.UUID, req *domain.SessionEventRequest) (*domain.SleepSession, error)
	Correct(ctx context.Context, childID, sessionID uuid.UUID, req *domain.SessionCorrection) (*domain.SleepSession, error)
	Get(ctx context.Context, childID, sessionID uuid.UUID) (*domain.SleepSession, error)
	List(ctx context.Context, childID uuid.UUID, filter domain.SessionFilter) (*domain.SleepSessionListResponse, error)
	// CribStatus checks the session against the active schedule's minimum
	// crib time.
	CribStatus(ctx context.Context, childID, sessionID uuid.UUID) (domain.CribCompliance, error)
}

type sleepSessionService struct {
	repo      repository.SleepSessionRepository
	childRepo repository.ChildRepository
	schedules ScheduleService
	now       Clock
}

func NewSleepSessionService(repo repository.SleepSessionRepository, childRepo repository.ChildRepository, schedules ScheduleService) SleepSessionService {
	return &sleepSessionService{
		repo:      repo,
		childRepo: childRepo,
		schedules: schedules,
		now:       systemClock,
	}
}

func (s *sleepSessionService) PutDown(ctx context.Context, childID uuid.UUID, req *domain.CreateSessionRequest) (*domain.SleepSession, bool, error) {
	// Load child to confirm existence and get their timezone
	child, err := s.childRepo.GetByID(ctx, childID)
	if err != nil {
		return nil, false, err
	}

	// Check for idempotency (duplicate client_request_id)
	if req.ClientRequestID != nil && *req.ClientRequestID != "" {
		existing, err := s.repo.GetByClientRequestID(ctx, childID, *req.ClientRequestID)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, true, nil
		}
	}

	now := s.now()
	putDown := req.PutDownAt.UTC()
	if putDown.After(now.Add(maxClockSkew)) {
		return nil, false, fmt.Errorf("%w: put_down_at is in the future", domain.ErrInvalidArgument)
	}
	if req.SessionType != domain.SessionNap && req.NapNumber != nil {
		return nil, false, fmt.Errorf("%w: nap_number is only valid for naps", domain.ErrInvalidInput)
	}

	inProgress, err := s.repo.GetInProgress(ctx, childID)
	if err != nil {
		return nil, false, err
	}
	if inProgress != nil {
		return nil, false, domain.ErrSessionActive
	}

	session := &domain.SleepSession{
		ID:              uuid.New(),
		ChildID:         childID,
		SessionType:     req.SessionType,
		NapNumber:       req.NapNumber,
		State:           domain.StatePending,
		PutDownAt:       &putDown,
		Notes:           req.Notes,
		LocalTimezone:   child.Timezone,
		ClientRequestID: req.ClientRequestID,
		// Sessions are windowed by the time they describe, so backfilled
		// records land on the right day.
		CreatedAt: putDown,
	}

	if session.IsNap() && session.NapNumber == nil {
		n, err := s.nextNapNumber(ctx, child, putDown)
		if err != nil {
			return nil, false, err
		}
		session.NapNumber = &n
	}

	if err := s.repo.Create(ctx, session); err != nil {
		// Lost a race on client_request_id: return the winner
		if errors.Is(err, domain.ErrConflict) && req.ClientRequestID != nil {
			if existing, getErr := s.repo.GetByClientRequestID(ctx, childID, *req.ClientRequestID); getErr == nil && existing != nil {
				return existing, true, nil
			}
		}
		return nil, false, err
	}

	return session, false, nil
}

// nextNapNumber numbers a nap after the naps already started on the same
// local day.
func (s *sleepSessionService) nextNapNumber(ctx context.Context, child *domain.Child, putDown time.Time) (int, error) {
	dayStart := timeutil.StartOfDay(putDown.In(child.Location()))
	sessions, err := s.repo.ListRecent(ctx, child.ID, dayStart)
	if err != nil {
		return 0, err
	}
	n := 1
	for _, prior := range sessions {
		if prior.IsNap() && prior.StartedAt().Before(putDown) {
			n++
		}
	}
	return min(n, 3), nil
}

func (s *sleepSessionService) ApplyEvent(ctx context.Context, childID, sessionID uuid.UUID, req *domain.SessionEventRequest) (*domain.SleepSession, error) {
	session, err := s.repo.GetByID(ctx, childID, sessionID)
	if err != nil {
		return nil, err
	}

	if req.At.After(s.now().Add(maxClockSkew)) {
		return nil, fmt.Errorf("%w: event time is in the future", domain.ErrInvalidArgument)
	}
	if err := session.Apply(req.Event, req.At); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *sleepSessionService) Correct(ctx context.Context, childID, sessionID uuid.UUID, req *domain.SessionCorrection) (*domain.SleepSession, error) {
	session, err := s.repo.GetByID(ctx, childID, sessionID)
	if err != nil {
		return nil, err
	}

	if err := session.Correct(*req); err != nil {
		return nil, err
	}
	if req.PutDownAt != nil {
		session.CreatedAt = *session.PutDownAt
	}

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *sleepSessionService) Get(ctx context.Context, childID, sessionID uuid.UUID) (*domain.SleepSession, error) {
	return s.repo.GetByID(ctx, childID, sessionID)
}

func (s *sleepSessionService) List(ctx context.Context, childID uuid.UUID, filter domain.SessionFilter) (*domain.SleepSessionListResponse, error) {
	// Check if child exists
	exists, err := s.childRepo.Exists(ctx, childID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	sessions, err := s.repo.List(ctx, childID, filter)
	if err != nil {
		return nil, err
	}

	limit := pagination.NormalizeLimit(filter.Limit)
	hasMore := len(sessions) > limit

	// Trim to actual limit
	if hasMore {
		sessions = sessions[:limit]
	}

	response := &domain.SleepSessionListResponse{
		Data: make([]domain.SleepSessionResponse, len(sessions)),
		Pagination: domain.PaginationResponse{
			HasMore: hasMore,
		},
	}
	for i := range sessions {
		response.Data[i] = sessions[i].ToResponse()
	}

	// Set next cursor if there are more results
	if hasMore && len(sessions) > 0 {
		last := sessions[len(sessions)-1]
		cursor := &pagination.Cursor{
			ID:        last.ID,
			PutDownAt: last.StartedAt(),
		}
		response.Pagination.NextCursor = cursor.Encode()
	}

	return response, nil
}

func (s *sleepSessionService) CribStatus(ctx context.Context, childID, sessionID uuid.UUID) (domain.CribCompliance, error) {
	session, err := s.repo.GetByID(ctx, childID, sessionID)
	if err != nil {
		return domain.CribCompliance{}, err
	}

	required := domain.DefaultMinimumCribMinutes
	cfg, err := s.schedules.GetActive(ctx, childID)
	switch {
	case err == nil:
		required = cfg.MinimumCribMinutes
	case !errors.Is(err, domain.ErrNotFound):
		return domain.CribCompliance{}, err
	}

	return planner.CheckCompliance(session, required, s.now()), nil
}
