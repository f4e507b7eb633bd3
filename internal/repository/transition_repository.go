package repository

import (
	"context"
	"fmt"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransitionRepository interface {
	// GetActive returns the child's incomplete transition, or nil.
	GetActive(ctx context.Context, childID uuid.UUID) (*domain.ScheduleTransition, error)
	// Latest returns the child's most recently started transition, completed
	// or not, or nil.
	Latest(ctx context.Context, childID uuid.UUID) (*domain.ScheduleTransition, error)
	// Apply persists a mutation. When ReplaceSchedule is set, schedule becomes
	// the child's active schedule in the same database transaction.
	Apply(ctx context.Context, m domain.TransitionMutation, schedule *domain.ScheduleConfig) error
}

type transitionRepository struct {
	db *gorm.DB
}

func NewTransitionRepository(db *gorm.DB) TransitionRepository {
	return &transitionRepository{db: db}
}

func (r *transitionRepository) GetActive(ctx context.Context, childID uuid.UUID) (*domain.ScheduleTransition, error) {
	return r.first(ctx, r.db.WithContext(ctx).Where("child_id = ? AND completed_at IS NULL", childID))
}

func (r *transitionRepository) Latest(ctx context.Context, childID uuid.UUID) (*domain.ScheduleTransition, error) {
	return r.first(ctx, r.db.WithContext(ctx).Where("child_id = ?", childID).Order("started_at DESC"))
}

func (r *transitionRepository) first(_ context.Context, query *gorm.DB) (*domain.ScheduleTransition, error) {
	var t domain.ScheduleTransition
	if err := query.First(&t).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *transitionRepository) Apply(ctx context.Context, m domain.TransitionMutation, schedule *domain.ScheduleConfig) error {
	if m.Transition == nil {
		return fmt.Errorf("%w: mutation without transition", domain.ErrInvalidArgument)
	}
	if m.ReplaceSchedule && schedule == nil {
		return fmt.Errorf("%w: schedule replacement requested without a schedule", domain.ErrInvalidArgument)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		switch m.Op {
		case domain.MutationCreate:
			err = tx.Create(m.Transition).Error
		case domain.MutationUpdate:
			err = tx.Save(m.Transition).Error
		case domain.MutationDelete:
			err = tx.Delete(&domain.ScheduleTransition{}, "id = ?", m.Transition.ID).Error
		default:
			return fmt.Errorf("%w: unknown mutation %q", domain.ErrInvalidArgument, m.Op)
		}
		if err != nil {
			return translate(err)
		}

		if m.ReplaceSchedule {
			return replaceActiveSchedule(tx, m.Transition.ChildID, schedule)
		}
		return nil
	})
}
