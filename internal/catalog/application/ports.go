package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/sweetbyte/sweetshop/internal/catalog/domain"
)

type SweetRepository interface {
	GetSweet(ctx context.Context, id uuid.UUID) (*domain.Sweet, error)
	List(ctx context.Context, f domain.Filter) ([]domain.Sweet, error)
	Create(ctx context.Context, s *domain.Sweet) error
	Update(ctx context.Context, id uuid.UUID, p domain.Patch) (*domain.Sweet, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// AddStock increments quantity on hand; the decrement side lives in the
	// order ledger's reservation transaction.
	AddStock(ctx context.Context, id uuid.UUID, qty int) (*domain.Sweet, error)
}
