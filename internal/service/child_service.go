package service

import (
	"context"
	"fmt"
	"time"

	"github.com/blaisecz/nap-planner/internal/domain"
	"github.com/blaisecz/nap-planner/internal/repository"
	"github.com/google/uuid"
)

type ChildService interface {
	Create(ctx context.Context, req *domain.CreateChildRequest) (*domain.Child, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Child, error)
}

type childService struct {
	repo repository.ChildRepository
}

func NewChildService(repo repository.ChildRepository) ChildService {
	return &childService{repo: repo}
}

func (s *childService) Create(ctx context.Context, req *domain.CreateChildRequest) (*domain.Child, error) {
	child := &domain.Child{
		ID:       uuid.New(),
		Name:     req.Name,
		Timezone: req.Timezone,
	}

	if req.BirthDate != nil && *req.BirthDate != "" {
		birth, err := time.Parse(time.DateOnly, *req.BirthDate)
		if err != nil {
			return nil, fmt.Errorf("%w: birth_date must be YYYY-MM-DD", domain.ErrInvalidInput)
		}
		child.BirthDate = &birth
	}

	if err := s.repo.Create(ctx, child); err != nil {
		return nil, err
	}

	return child, nil
}

func (s *childService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Child, error) {
	return s.repo.GetByID(ctx, id)
}
