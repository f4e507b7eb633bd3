package repository

import (
	"context"
	"time"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/blaisecz/nap-planner/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SleepSessionRepository interface {
	Create(ctx context.Context, session *domain.SleepSession) error
	GetByID(ctx context.Context, childID, id uuid.UUID) (*domain.SleepSession, error)
	Update(ctx context.Context, session *domain.SleepSession) error
	List(ctx context.Context, childID uuid.UUID, filter domain.SessionFilter) ([]domain.SleepSession, error)
	// ListRecent returns sessions created at or after since, oldest first.
	ListRecent(ctx context.Context, childID uuid.UUID, since time.Time) ([]domain.SleepSession, error)
	// GetInProgress returns the child's unfinished session, or nil.
	GetInProgress(ctx context.Context, childID uuid.UUID) (*domain.SleepSession, error)
	// LatestCompleted returns the most recently ended session, or nil.
	LatestCompleted(ctx context.Context, childID uuid.UUID) (*domain.SleepSession, error)
	GetByClientRequestID(ctx context.Context, childID uuid.UUID, clientRequestID string) (*domain.SleepSession, error)
}

type sleepSessionRepository struct {
	db *gorm.DB
}

func NewSleepSessionRepository(db *gorm.DB) SleepSessionRepository {
	return &sleepSessionRepository{db: db}
}

func (r *sleepSessionRepository) Create(ctx context.Context, session *domain.SleepSession) error {
	return translate(r.db.WithContext(ctx).Create(session).Error)
}

func (r *sleepSessionRepository) GetByID(ctx context.Context, childID, id uuid.UUID) (*domain.SleepSession, error) {
	var session domain.SleepSession
	err := r.db.WithContext(ctx).
		Where("child_id = ? AND id = ?", childID, id).
		First(&session).Error
	if err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (r *sleepSessionRepository) Update(ctx context.Context, session *domain.SleepSession) error {
	return translate(r.db.WithContext(ctx).Save(session).Error)
}

func (r *sleepSessionRepository) List(ctx context.Context, childID uuid.UUID, filter domain.SessionFilter) ([]domain.SleepSession, error) {
	query := r.db.WithContext(ctx).
		Where("child_id = ?", childID).
		Order("put_down_at DESC, id DESC")

	// Apply time filters
	if filter.From != nil {
		query = query.Where("put_down_at >= ?", filter.From)
	}
	if filter.To != nil {
		query = query.Where("put_down_at <= ?", filter.To)
	}
	if filter.Type != nil {
		query = query.Where("session_type = ?", *filter.Type)
	}

	// Apply cursor pagination
	if filter.Cursor != "" {
		cursor, err := pagination.DecodeCursor(filter.Cursor)
		if err == nil && cursor != nil {
			// For DESC order: get records with put_down_at < cursor.PutDownAt
			// or same put_down_at but id < cursor.ID
			query = query.Where(
				"(put_down_at < ?) OR (put_down_at = ? AND id < ?)",
				cursor.PutDownAt, cursor.PutDownAt, cursor.ID,
			)
		}
	}

	// Fetch one extra to determine if there are more results
	limit := pagination.NormalizeLimit(filter.Limit)
	query = query.Limit(limit + 1)

	var sessions []domain.SleepSession
	if err := query.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sleepSessionRepository) ListRecent(ctx context.Context, childID uuid.UUID, since time.Time) ([]domain.SleepSession, error) {
	var sessions []domain.SleepSession
	err := r.db.WithContext(ctx).
		Where("child_id = ? AND created_at >= ?", childID, since).
		Order("created_at ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *sleepSessionRepository) GetInProgress(ctx context.Context, childID uuid.UUID) (*domain.SleepSession, error) {
	var session domain.SleepSession
	err := r.db.WithContext(ctx).
		Where("child_id = ? AND state <> ?", childID, domain.StateCompleted).
		Order("put_down_at DESC").
		First(&session).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *sleepSessionRepository) LatestCompleted(ctx context.Context, childID uuid.UUID) (*domain.SleepSession, error) {
	var session domain.SleepSession
	err := r.db.WithContext(ctx).
		Where("child_id = ? AND state = ?", childID, domain.StateCompleted).
		Order("out_of_crib_at DESC NULLS LAST").
		First(&session).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *sleepSessionRepository) GetByClientRequestID(ctx context.Context, childID uuid.UUID, clientRequestID string) (*domain.SleepSession, error) {
	var session domain.SleepSession
	err := r.db.WithContext(ctx).
		Where("child_id = ? AND client_request_id = ?", childID, clientRequestID).
		First(&session).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil // Not found is not an error for idempotency check
		}
		return nil, err
	}
	return &session, nil
}
