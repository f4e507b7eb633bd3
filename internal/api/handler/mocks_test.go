package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

var testNow = time.Date(2024, 3, 20, 14, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

// withURLParams attaches chi route parameters to a request.
func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// MockChildService is a mock implementation of ChildService
type MockChildService struct {
	createFunc  func(ctx context.Context, req *domain.CreateChildRequest) (*domain.Child, error)
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Child, error)
}

func (m *MockChildService) Create(ctx context.Context, req *domain.CreateChildRequest) (*domain.Child, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return &domain.Child{ID: uuid.New(), Name: req.Name, Timezone: req.Timezone, CreatedAt: testNow}, nil
}

func (m *MockChildService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Child, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

// MockScheduleService is a mock implementation of ScheduleService
type MockScheduleService struct {
	getActiveFunc func(ctx context.Context, childID uuid.UUID) (*domain.ScheduleConfig, error)
	replaceFunc   func(ctx context.Context, childID uuid.UUID, req *domain.ScheduleRequest) (*domain.ScheduleConfig, error)
	napWindowFunc func(ctx context.Context, childID uuid.UUID, napNumber int) (domain.NapWindow, error)
}

func (m *MockScheduleService) GetActive(ctx context.Context, childID uuid.UUID) (*domain.ScheduleConfig, error) {
	if m.getActiveFunc != nil {
		return m.getActiveFunc(ctx, childID)
	}
	return nil, domain.ErrNotFound
}

func (m *MockScheduleService) Replace(ctx context.Context, childID uuid.UUID, req *domain.ScheduleRequest) (*domain.ScheduleConfig, error) {
	if m.replaceFunc != nil {
		return m.replaceFunc(ctx, childID, req)
	}
	return req.ToConfig(childID), nil
}

func (m *MockScheduleService) NapWindow(ctx context.Context, childID uuid.UUID, napNumber int) (domain.NapWindow, error) {
	if m.napWindowFunc != nil {
		return m.napWindowFunc(ctx, childID, napNumber)
	}
	return domain.NapWindow{}, domain.ErrNotFound
}

func (m *MockScheduleService) Invalidate(childID uuid.UUID) {}

// MockSleepSessionService is a mock implementation of SleepSessionService
type MockSleepSessionService struct {
	putDownFunc    func(ctx context.Context, childID uuid.UUID, req *domain.CreateSessionRequest) (*domain.SleepSession, bool, error)
	applyEventFunc func(ctx context.Context, childID, sessionID uuid.UUID, req *domain.SessionEventRequest) (*domain.SleepSession, error)
	correctFunc    func(ctx context.Context, childID, sessionID uuid.UUID, req *domain.SessionCorrection) (*domain.SleepSession, error)
	listFunc       func(ctx context.Context, childID uuid.UUID, filter domain.SessionFilter) (*domain.SleepSessionListResponse, error)
	cribFunc       func(ctx context.Context, childID, sessionID uuid.UUID) (domain.CribCompliance, error)
}

func (m *MockSleepSessionService) PutDown(ctx context.Context, childID uuid.UUID, req *domain.CreateSessionRequest) (*domain.SleepSession, bool, error) {
	if m.putDownFunc != nil {
		return m.putDownFunc(ctx, childID, req)
	}
	putDown := req.PutDownAt
	return &domain.SleepSession{
		ID:            uuid.New(),
		ChildID:       childID,
		SessionType:   req.SessionType,
		NapNumber:     req.NapNumber,
		State:         domain.StatePending,
		PutDownAt:     &putDown,
		LocalTimezone: "UTC",
		CreatedAt:     putDown,
	}, false, nil
}

func (m *MockSleepSessionService) ApplyEvent(ctx context.Context, childID, sessionID uuid.UUID, req *domain.SessionEventRequest) (*domain.SleepSession, error) {
	if m.applyEventFunc != nil {
		return m.applyEventFunc(ctx, childID, sessionID, req)
	}
	return nil, domain.ErrNotFound
}

func (m *MockSleepSessionService) Correct(ctx context.Context, childID, sessionID uuid.UUID, req *domain.SessionCorrection) (*domain.SleepSession, error) {
	if m.correctFunc != nil {
		return m.correctFunc(ctx, childID, sessionID, req)
	}
	return nil, domain.ErrNotFound
}

func (m *MockSleepSessionService) Get(ctx context.Context, childID, sessionID uuid.UUID) (*domain.SleepSession, error) {
	return nil, domain.ErrNotFound
}

func (m *MockSleepSessionService) List(ctx context.Context, childID uuid.UUID, filter domain.SessionFilter) (*domain.SleepSessionListResponse, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, childID, filter)
	}
	return &domain.SleepSessionListResponse{
		Data:       []domain.SleepSessionResponse{},
		Pagination: domain.PaginationResponse{HasMore: false},
	}, nil
}

func (m *MockSleepSessionService) CribStatus(ctx context.Context, childID, sessionID uuid.UUID) (domain.CribCompliance, error) {
	if m.cribFunc != nil {
		return m.cribFunc(ctx, childID, sessionID)
	}
	return domain.CribCompliance{}, domain.ErrNotFound
}

// MockStatsService is a mock implementation of StatsService
type MockStatsService struct {
	aggregateFunc func(ctx context.Context, childID uuid.UUID, windowDays int) (*domain.AggregateStats, error)
}

func (m *MockStatsService) Aggregate(ctx context.Context, childID uuid.UUID, windowDays int) (*domain.AggregateStats, error) {
	if m.aggregateFunc != nil {
		return m.aggregateFunc(ctx, childID, windowDays)
	}
	return &domain.AggregateStats{WindowDays: windowDays, AsOf: testNow}, nil
}

// MockRecommendationService is a mock implementation of RecommendationService
type MockRecommendationService struct {
	nextFunc func(ctx context.Context, childID uuid.UUID) (*domain.RecommendationResponse, error)
}

func (m *MockRecommendationService) Next(ctx context.Context, childID uuid.UUID) (*domain.RecommendationResponse, error) {
	if m.nextFunc != nil {
		return m.nextFunc(ctx, childID)
	}
	return nil, domain.ErrNotFound
}

// MockTransitionService is a mock implementation of TransitionService
type MockTransitionService struct {
	startFunc     func(ctx context.Context, childID uuid.UUID, req *domain.StartTransitionRequest) (*domain.TransitionResponse, error)
	getFunc       func(ctx context.Context, childID uuid.UUID) (*domain.TransitionResponse, error)
	progressFunc  func(ctx context.Context, childID uuid.UUID, patch *domain.TransitionPatch) (*domain.TransitionResponse, error)
	cancelFunc    func(ctx context.Context, childID uuid.UUID) error
	readinessFunc func(ctx context.Context, childID uuid.UUID) (*domain.NapPushRecommendation, error)
	pushFunc      func(ctx context.Context, childID uuid.UUID) (*domain.TransitionResponse, error)
}

func (m *MockTransitionService) Start(ctx context.Context, childID uuid.UUID, req *domain.StartTransitionRequest) (*domain.TransitionResponse, error) {
	if m.startFunc != nil {
		return m.startFunc(ctx, childID, req)
	}
	return &domain.TransitionResponse{Transition: &domain.ScheduleTransition{ID: uuid.New(), ChildID: childID, CurrentNapTime: "11:30"}}, nil
}

func (m *MockTransitionService) Get(ctx context.Context, childID uuid.UUID) (*domain.TransitionResponse, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, childID)
	}
	return nil, domain.ErrNotFound
}

func (m *MockTransitionService) Progress(ctx context.Context, childID uuid.UUID, patch *domain.TransitionPatch) (*domain.TransitionResponse, error) {
	if m.progressFunc != nil {
		return m.progressFunc(ctx, childID, patch)
	}
	return nil, domain.ErrNotFound
}

func (m *MockTransitionService) Cancel(ctx context.Context, childID uuid.UUID) error {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, childID)
	}
	return nil
}

func (m *MockTransitionService) PushReadiness(ctx context.Context, childID uuid.UUID) (*domain.NapPushRecommendation, error) {
	if m.readinessFunc != nil {
		return m.readinessFunc(ctx, childID)
	}
	return nil, domain.ErrNotFound
}

func (m *MockTransitionService) ApplyPush(ctx context.Context, childID uuid.UUID) (*domain.TransitionResponse, error) {
	if m.pushFunc != nil {
		return m.pushFunc(ctx, childID)
	}
	return nil, domain.ErrNotFound
}

// MockCoachingService is a mock implementation of CoachingService
type MockCoachingService struct {
	generateFunc func(ctx context.Context, childID uuid.UUID) (*domain.CoachingResponse, error)
	feedbackFunc func(ctx context.Context, childID uuid.UUID, req *domain.CoachingFeedbackRequest) error
}

func (m *MockCoachingService) Generate(ctx context.Context, childID uuid.UUID) (*domain.CoachingResponse, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, childID)
	}
	return &domain.CoachingResponse{ChildID: childID}, nil
}

func (m *MockCoachingService) Feedback(ctx context.Context, childID uuid.UUID, req *domain.CoachingFeedbackRequest) error {
	if m.feedbackFunc != nil {
		return m.feedbackFunc(ctx, childID, req)
	}
	return nil
}
