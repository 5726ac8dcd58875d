package application

import (
	"context"

	"github.com/google/uuid"

	catalogdomain "github.com/sweetbyte/sweetshop/internal/catalog/domain"
	"github.com/sweetbyte/sweetshop/internal/order/domain"
)

// InventoryReader provides point reads of the catalog. Prices and quantities
// are authoritative only at the instant they are read; the ledger re-checks
// quantities at write time.
type InventoryReader interface {
	GetSweet(ctx context.Context, id uuid.UUID) (*catalogdomain.Sweet, error)
}

// OrderLedger persists orders. SaveWithReservation writes the order, its
// lines, the stock decrements, and the outbox row as one atomic unit,
// re-validating each sweet's quantity at the moment of decrement. It returns
// a *domain.PlacementError with KindInsufficientStock or KindItemNotFound
// naming the sweet that made the unit uncommittable; nothing is left
// half-applied on any failure.
type OrderLedger interface {
	SaveWithReservation(ctx context.Context, o domain.Order, eventType string, payload []byte, traceparent string) error
	OrdersByBuyer(ctx context.Context, buyerID uuid.UUID) ([]domain.Order, error)
	OrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
}
