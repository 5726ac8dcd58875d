package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	catalogdomain "github.com/sweetbyte/sweetshop/internal/catalog/domain"
	"github.com/sweetbyte/sweetshop/internal/order/domain"
	"github.com/sweetbyte/sweetshop/pkg/backoff"
)

const (
	defaultMaxAttempts = 3
	defaultRetryBase   = 25 * time.Millisecond
)

// Service is the order placement engine. Validation and pricing are
// side-effect free; the only mutation happens inside the ledger's atomic
// reserve-and-persist unit, which the engine retries a bounded number of
// times under commit-time contention.
type Service struct {
	log         *slog.Logger
	inv         InventoryReader
	ledger      OrderLedger
	tracer      trace.Tracer
	maxAttempts int
	retryBase   time.Duration
}

func NewService(log *slog.Logger, inv InventoryReader, ledger OrderLedger) *Service {
	return &Service{
		log:         log,
		inv:         inv,
		ledger:      ledger,
		tracer:      otel.Tracer("order-engine"),
		maxAttempts: defaultMaxAttempts,
		retryBase:   defaultRetryBase,
	}
}

func (s *Service) PlaceOrder(ctx context.Context, buyerID uuid.UUID, cart []domain.CartLine) (domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "PlaceOrder")
	defer span.End()

	merged, err := mergeCart(cart)
	if err != nil {
		return domain.Order{}, err
	}

	var contended uuid.UUID
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := backoff.Sleep(ctx, attempt, s.retryBase); err != nil {
				return domain.Order{}, mapStoreErr(err)
			}
		}

		order, err := s.buildOrder(ctx, buyerID, merged)
		if err != nil {
			return domain.Order{}, err
		}

		payload, err := json.Marshal(domain.NewOrderPlaced(order))
		if err != nil {
			return domain.Order{}, err
		}

		err = s.ledger.SaveWithReservation(ctx, order, "OrderPlaced", payload, traceparent(ctx))
		if err == nil {
			s.log.Info("order placed",
				"order_id", order.ID, "buyer_id", buyerID,
				"total_cents", order.TotalCents, "lines", len(order.Lines))
			return order, nil
		}

		var pe *domain.PlacementError
		if errors.As(err, &pe) && pe.Kind == domain.KindInsufficientStock {
			// A concurrent reservation consumed stock between the pre-check
			// and the decrement. Re-run validation: if the shortage is
			// durable the next pre-check reports it; if it is churn we get
			// another shot at committing.
			contended = pe.SweetID
			s.log.Info("reservation contended", "sweet_id", pe.SweetID, "attempt", attempt+1)
			continue
		}
		return domain.Order{}, mapStoreErr(err)
	}

	return domain.Order{}, domain.NewPlacementError(domain.KindConflict, contended,
		"reservation contention persisted after %d attempts", s.maxAttempts)
}

// buildOrder runs resolution, stock pre-check, and price snapshot. It never
// mutates anything and can be repeated safely.
func (s *Service) buildOrder(ctx context.Context, buyerID uuid.UUID, merged []domain.CartLine) (domain.Order, error) {
	lines := make([]domain.Line, 0, len(merged))
	for _, cl := range merged {
		sweet, err := s.inv.GetSweet(ctx, cl.SweetID)
		if errors.Is(err, catalogdomain.ErrSweetNotFound) {
			return domain.Order{}, domain.NewPlacementError(domain.KindItemNotFound, cl.SweetID, "sweet does not exist")
		}
		if err != nil {
			return domain.Order{}, mapStoreErr(err)
		}
		if cl.Quantity > sweet.Quantity {
			return domain.Order{}, domain.NewPlacementError(domain.KindInsufficientStock, cl.SweetID,
				"requested %d of %q, %d on hand", cl.Quantity, sweet.Name, sweet.Quantity)
		}
		lines = append(lines, domain.Line{
			SweetID:        cl.SweetID,
			Quantity:       cl.Quantity,
			UnitPriceCents: sweet.PriceCents,
		})
	}
	return domain.NewOrder(buyerID, lines), nil
}

func (s *Service) ListOrders(ctx context.Context, buyerID uuid.UUID) ([]domain.Order, error) {
	orders, err := s.ledger.OrdersByBuyer(ctx, buyerID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return orders, nil
}

func (s *Service) GetOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*domain.Order, error) {
	o, err := s.ledger.OrderByID(ctx, orderID)
	if errors.Is(err, domain.ErrOrderNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, mapStoreErr(err)
	}
	// Buyers see only their own orders.
	if o.BuyerID != buyerID {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

// mergeCart validates the raw cart and merges duplicate sweet ids by summing
// their quantities (the documented duplicate-line policy), preserving first
// occurrence order. It runs before any store access.
func mergeCart(cart []domain.CartLine) ([]domain.CartLine, error) {
	if len(cart) == 0 {
		return nil, domain.NewPlacementError(domain.KindInvalidInput, uuid.Nil, "cart is empty")
	}
	index := make(map[uuid.UUID]int, len(cart))
	merged := make([]domain.CartLine, 0, len(cart))
	for _, cl := range cart {
		if cl.SweetID == uuid.Nil {
			return nil, domain.NewPlacementError(domain.KindInvalidInput, uuid.Nil, "missing sweet id")
		}
		if cl.Quantity < 1 {
			return nil, domain.NewPlacementError(domain.KindInvalidInput, cl.SweetID, "quantity must be at least 1")
		}
		if i, ok := index[cl.SweetID]; ok {
			merged[i].Quantity += cl.Quantity
			continue
		}
		index[cl.SweetID] = len(merged)
		merged = append(merged, cl)
	}
	return merged, nil
}

func mapStoreErr(err error) error {
	var pe *domain.PlacementError
	if errors.As(err, &pe) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewPlacementError(domain.KindTimeout, uuid.Nil, "deadline exceeded: %v", err)
	}
	return domain.NewPlacementError(domain.KindUnavailable, uuid.Nil, "store unavailable: %v", err)
}

func traceparent(ctx context.Context) string {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier["traceparent"]
}
