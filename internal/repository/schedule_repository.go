package repository

import (
	"context"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScheduleRepository interface {
	// GetActive returns the child's active schedule or domain.ErrNotFound.
	GetActive(ctx context.Context, childID uuid.UUID) (*domain.ScheduleConfig, error)
	// ReplaceActive deactivates the current schedule and stores cfg as the
	// new active one in a single transaction.
	ReplaceActive(ctx context.Context, childID uuid.UUID, cfg *domain.ScheduleConfig) error
}

type scheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) GetActive(ctx context.Context, childID uuid.UUID) (*domain.ScheduleConfig, error) {
	var cfg domain.ScheduleConfig
	err := r.db.WithContext(ctx).
		Where("child_id = ? AND is_active", childID).
		First(&cfg).Error
	if err != nil {
		return nil, translate(err)
	}
	return &cfg, nil
}

func (r *scheduleRepository) ReplaceActive(ctx context.Context, childID uuid.UUID, cfg *domain.ScheduleConfig) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return replaceActiveSchedule(tx, childID, cfg)
	})
}

// replaceActiveSchedule runs inside a caller-owned transaction so transition
// completion can swap schedules atomically with its own update.
func replaceActiveSchedule(tx *gorm.DB, childID uuid.UUID, cfg *domain.ScheduleConfig) error {
	err := tx.Model(&domain.ScheduleConfig{}).
		Where("child_id = ? AND is_active", childID).
		Update("is_active", false).Error
	if err != nil {
		return translate(err)
	}

	cfg.ChildID = childID
	cfg.IsActive = true
	return translate(tx.Create(cfg).Error)
}
