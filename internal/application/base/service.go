package base

import (
	"context"
	"strings"
	"time"

	"github.com/flightdesk-api/internal/domain"
	"github.com/flightdesk-api/internal/pkg/id"
	"github.com/flightdesk-api/internal/pkg/validate"
)

type Service interface {
	List(ctx context.Context) ([]domain.Base, error)
	Get(ctx context.Context, baseID string) (*domain.Base, error)
	Create(ctx context.Context, in domain.BaseInput) (*domain.Base, error)
	Update(ctx context.Context, baseID string, in domain.BaseInput) (*domain.Base, error)
	Delete(ctx context.Context, baseID string) error
}

type baseStore interface {
	Put(ctx context.Context, b *domain.Base) error
	Get(ctx context.Context, baseID string) (*domain.Base, error)
	List(ctx context.Context) ([]domain.Base, error)
	Update(ctx context.Context, baseID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, baseID string) error
}

type service struct {
	repo baseStore
}

func NewService(repo baseStore) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context) ([]domain.Base, error) {
	return s.repo.List(ctx)
}

func (s *service) Get(ctx context.Context, baseID string) (*domain.Base, error) {
	return s.repo.Get(ctx, baseID)
}

func (s *service) Create(ctx context.Context, in domain.BaseInput) (*domain.Base, error) {
	in = normalize(in)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	b := &domain.Base{
		BaseID:    id.NewAt(now),
		Name:      in.Name,
		ICAO:      in.ICAO,
		City:      in.City,
		Enable:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Put(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) Update(ctx context.Context, baseID string, in domain.BaseInput) (*domain.Base, error) {
	in = normalize(in)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	err := s.repo.Update(ctx, baseID, map[string]interface{}{
		"name": in.Name,
		"icao": in.ICAO,
		"city": in.City,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, baseID)
}

func (s *service) Delete(ctx context.Context, baseID string) error {
	return s.repo.SoftDelete(ctx, baseID)
}

func normalize(in domain.BaseInput) domain.BaseInput {
	in.Name = strings.TrimSpace(in.Name)
	in.ICAO = strings.ToUpper(strings.TrimSpace(in.ICAO))
	in.City = strings.TrimSpace(in.City)
	return in
}
