package service

import (
	"context"
	"sort"
	"time"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/blaisecz/nap-planner/internal/langfuse"
	"github.com/google/uuid"
)

var testNow = time.Date(2024, 3, 20, 14, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func ptr[T any](v T) *T { return &v }

// MockChildRepository is a mock implementation of ChildRepository
type MockChildRepository struct {
	children map[uuid.UUID]*domain.Child
	err      error
}

func NewMockChildRepository(children ...*domain.Child) *MockChildRepository {
	m := &MockChildRepository{children: make(map[uuid.UUID]*domain.Child)}
	for _, c := range children {
		m.children[c.ID] = c
	}
	return m
}

func (m *MockChildRepository) Create(ctx context.Context, child *domain.Child) error {
	if m.err != nil {
		return m.err
	}
	if child.ID == uuid.Nil {
		child.ID = uuid.New()
	}
	child.CreatedAt = testNow
	m.children[child.ID] = child
	return nil
}

func (m *MockChildRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Child, error) {
	if m.err != nil {
		return nil, m.err
	}
	child, ok := m.children[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return child, nil
}

func (m *MockChildRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.children[id]
	return ok, nil
}

// MockScheduleRepository is a mock implementation of ScheduleRepository
type MockScheduleRepository struct {
	active   map[uuid.UUID]*domain.ScheduleConfig
	history  []*domain.ScheduleConfig
	getCalls int
	err      error
}

func NewMockScheduleRepository() *MockScheduleRepository {
	return &MockScheduleRepository{active: make(map[uuid.UUID]*domain.ScheduleConfig)}
}

func (m *MockScheduleRepository) GetActive(ctx context.Context, childID uuid.UUID) (*domain.ScheduleConfig, error) {
	m.getCalls++
	if m.err != nil {
		return nil, m.err
	}
	cfg, ok := m.active[childID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *cfg
	return &c, nil
}

func (m *MockScheduleRepository) ReplaceActive(ctx context.Context, childID uuid.UUID, cfg *domain.ScheduleConfig) error {
	if m.err != nil {
		return m.err
	}
	if prev, ok := m.active[childID]; ok {
		prev.IsActive = false
	}
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	cfg.ChildID = childID
	cfg.IsActive = true
	m.active[childID] = cfg
	m.history = append(m.history, cfg)
	return nil
}

// MockSleepSessionRepository is a mock implementation of SleepSessionRepository
type MockSleepSessionRepository struct {
	sessions        map[uuid.UUID]*domain.SleepSession
	clientRequestID map[string]*domain.SleepSession
	listResult      []domain.SleepSession
	err             error
}

func NewMockSleepSessionRepository(sessions ...domain.SleepSession) *MockSleepSessionRepository {
	m := &MockSleepSessionRepository{
		sessions:        make(map[uuid.UUID]*domain.SleepSession),
		clientRequestID: make(map[string]*domain.SleepSession),
	}
	for i := range sessions {
		s := sessions[i]
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		m.sessions[s.ID] = &s
	}
	return m
}

func (m *MockSleepSessionRepository) Create(ctx context.Context, session *domain.SleepSession) error {
	if m.err != nil {
		return m.err
	}
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = testNow
	}
	m.sessions[session.ID] = session
	if session.ClientRequestID != nil {
		m.clientRequestID[session.ChildID.String()+":"+*session.ClientRequestID] = session
	}
	return nil
}

func (m *MockSleepSessionRepository) GetByID(ctx context.Context, childID, id uuid.UUID) (*domain.SleepSession, error) {
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.sessions[id]
	if !ok || s.ChildID != childID {
		return nil, domain.ErrNotFound
	}
	c := *s
	return &c, nil
}

func (m *MockSleepSessionRepository) Update(ctx context.Context, session *domain.SleepSession) error {
	if m.err != nil {
		return m.err
	}
	c := *session
	m.sessions[session.ID] = &c
	return nil
}

func (m *MockSleepSessionRepository) List(ctx context.Context, childID uuid.UUID, filter domain.SessionFilter) ([]domain.SleepSession, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.listResult != nil {
		result := make([]domain.SleepSession, len(m.listResult))
		copy(result, m.listResult)
		return result, nil
	}
	return m.forChild(childID, time.Time{}), nil
}

func (m *MockSleepSessionRepository) ListRecent(ctx context.Context, childID uuid.UUID, since time.Time) ([]domain.SleepSession, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.forChild(childID, since), nil
}

func (m *MockSleepSessionRepository) forChild(childID uuid.UUID, since time.Time) []domain.SleepSession {
	var result []domain.SleepSession
	for _, s := range m.sessions {
		if s.ChildID == childID && !s.CreatedAt.Before(since) {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result
}

func (m *MockSleepSessionRepository) GetInProgress(ctx context.Context, childID uuid.UUID) (*domain.SleepSession, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, s := range m.sessions {
		if s.ChildID == childID && s.State != domain.StateCompleted {
			c := *s
			return &c, nil
		}
	}
	return nil, nil
}

func (m *MockSleepSessionRepository) LatestCompleted(ctx context.Context, childID uuid.UUID) (*domain.SleepSession, error) {
	if m.err != nil {
		return nil, m.err
	}
	var latest *domain.SleepSession
	for _, s := range m.sessions {
		if s.ChildID != childID || s.State != domain.StateCompleted || s.EndedAt() == nil {
			continue
		}
		if latest == nil || s.EndedAt().After(*latest.EndedAt()) {
			latest = s
		}
	}
	if latest == nil {
		return nil, nil
	}
	c := *latest
	return &c, nil
}

func (m *MockSleepSessionRepository) GetByClientRequestID(ctx context.Context, childID uuid.UUID, clientRequestID string) (*domain.SleepSession, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.clientRequestID[childID.String()+":"+clientRequestID], nil
}

// MockTransitionRepository is a mock implementation of TransitionRepository
type MockTransitionRepository struct {
	transitions map[uuid.UUID]*domain.ScheduleTransition
	schedules   *MockScheduleRepository
	applied     []domain.TransitionMutation
	err         error
}

// NewMockTransitionRepository replaces schedules in the given schedule mock
// when a mutation asks for it.
func NewMockTransitionRepository(schedules *MockScheduleRepository, transitions ...*domain.ScheduleTransition) *MockTransitionRepository {
	m := &MockTransitionRepository{
		transitions: make(map[uuid.UUID]*domain.ScheduleTransition),
		schedules:   schedules,
	}
	for _, t := range transitions {
		m.transitions[t.ID] = t
	}
	return m
}

func (m *MockTransitionRepository) GetActive(ctx context.Context, childID uuid.UUID) (*domain.ScheduleTransition, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, t := range m.transitions {
		if t.ChildID == childID && t.IsActive() {
			c := *t
			return &c, nil
		}
	}
	return nil, nil
}

func (m *MockTransitionRepository) Latest(ctx context.Context, childID uuid.UUID) (*domain.ScheduleTransition, error) {
	if m.err != nil {
		return nil, m.err
	}
	var latest *domain.ScheduleTransition
	for _, t := range m.transitions {
		if t.ChildID == childID && (latest == nil || t.StartedAt.After(latest.StartedAt)) {
			latest = t
		}
	}
	if latest == nil {
		return nil, nil
	}
	c := *latest
	return &c, nil
}

func (m *MockTransitionRepository) Apply(ctx context.Context, mutation domain.TransitionMutation, schedule *domain.ScheduleConfig) error {
	if m.err != nil {
		return m.err
	}
	m.applied = append(m.applied, mutation)
	t := *mutation.Transition
	switch mutation.Op {
	case domain.MutationCreate:
		for _, existing := range m.transitions {
			if existing.ChildID == t.ChildID && existing.IsActive() {
				return domain.ErrConflict
			}
		}
		m.transitions[t.ID] = &t
	case domain.MutationUpdate:
		m.transitions[t.ID] = &t
	case domain.MutationDelete:
		delete(m.transitions, t.ID)
	}
	if mutation.ReplaceSchedule {
		return m.schedules.ReplaceActive(ctx, t.ChildID, schedule)
	}
	return nil
}

// MockCoachingLLM is a mock implementation of llm.CoachingLLM
type MockCoachingLLM struct {
	output   *domain.CoachingOutput
	err      error
	received *domain.CoachingContext
}

func (m *MockCoachingLLM) GenerateCoaching(ctx context.Context, coachingCtx *domain.CoachingContext) (*domain.CoachingOutput, error) {
	m.received = coachingCtx
	if m.err != nil {
		return nil, m.err
	}
	return m.output, nil
}

// MockLangfuseClient is a mock implementation of langfuse.Client
type MockLangfuseClient struct {
	enabled bool
	traces  []langfuse.TraceInput
	scores  []langfuse.ScoreInput
}

func (m *MockLangfuseClient) IsEnabled() bool { return m.enabled }

func (m *MockLangfuseClient) CreateTrace(ctx context.Context, in langfuse.TraceInput) (string, error) {
	m.traces = append(m.traces, in)
	if in.ID != "" {
		return in.ID, nil
	}
	return "generated-trace", nil
}

func (m *MockLangfuseClient) CreateScore(ctx context.Context, in langfuse.ScoreInput) error {
	m.scores = append(m.scores, in)
	return nil
}
