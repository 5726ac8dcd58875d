package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sweetbyte/sweetshop/internal/catalog/domain"
)

type Service struct {
	log  *slog.Logger
	repo SweetRepository
}

func NewService(log *slog.Logger, repo SweetRepository) *Service {
	return &Service{log: log, repo: repo}
}

func (s *Service) ListSweets(ctx context.Context, f domain.Filter) ([]domain.Sweet, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) GetSweet(ctx context.Context, id uuid.UUID) (*domain.Sweet, error) {
	return s.repo.GetSweet(ctx, id)
}

func (s *Service) CreateSweet(ctx context.Context, sweet domain.Sweet) (*domain.Sweet, error) {
	if sweet.Name == "" || sweet.Category == "" {
		return nil, fmt.Errorf("%w: name and category are required", domain.ErrInvalidSweet)
	}
	if sweet.PriceCents < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", domain.ErrInvalidSweet)
	}
	if sweet.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", domain.ErrInvalidSweet)
	}

	sweet.ID = uuid.New()
	now := time.Now().UTC()
	sweet.CreatedAt = now
	sweet.UpdatedAt = now
	if err := s.repo.Create(ctx, &sweet); err != nil {
		return nil, err
	}
	s.log.Info("sweet created", "sweet_id", sweet.ID, "name", sweet.Name)
	return &sweet, nil
}

func (s *Service) UpdateSweet(ctx context.Context, id uuid.UUID, p domain.Patch) (*domain.Sweet, error) {
	if p.Name != nil && *p.Name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", domain.ErrInvalidSweet)
	}
	if p.PriceCents != nil && *p.PriceCents < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", domain.ErrInvalidSweet)
	}
	if p.Quantity != nil && *p.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", domain.ErrInvalidSweet)
	}
	return s.repo.Update(ctx, id, p)
}

func (s *Service) DeleteSweet(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) Restock(ctx context.Context, id uuid.UUID, qty int) (*domain.Sweet, error) {
	if qty < 1 {
		return nil, fmt.Errorf("%w: restock quantity must be at least 1", domain.ErrInvalidSweet)
	}
	sweet, err := s.repo.AddStock(ctx, id, qty)
	if err != nil {
		return nil, err
	}
	s.log.Info("sweet restocked", "sweet_id", id, "added", qty, "on_hand", sweet.Quantity)
	return sweet, nil
}
