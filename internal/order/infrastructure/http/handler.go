package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	identityhttp "github.com/sweetbyte/sweetshop/internal/identity/infrastructure/http"
	"github.com/sweetbyte/sweetshop/internal/order/application"
	"github.com/sweetbyte/sweetshop/internal/order/domain"
	"github.com/sweetbyte/sweetshop/pkg/money"
)

// Deduplicator remembers idempotency keys so a retried placement request
// cannot reserve stock twice.
type Deduplicator interface {
	Key(buyerID, requestKey string) string
	Seen(ctx context.Context, key string) (bool, error)
}

type Handler struct {
	log     *slog.Logger
	service *application.Service
	dedup   Deduplicator
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service, dedup Deduplicator) *Handler {
	return &Handler{
		log:     log,
		service: service,
		dedup:   dedup,
		tracer:  otel.Tracer("order-http"),
	}
}

// Routes returns the order subtree, mounted at /orders behind the supplied
// auth middleware.
func (h *Handler) Routes(requireAuth func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requireAuth)
	r.Post("/", h.placeOrder)
	r.Get("/", h.listOrders)
	r.Get("/{id}", h.getOrder)
	return r
}

type lineDTO struct {
	SweetID   uuid.UUID `json:"sweet_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice string    `json:"unit_price"`
}

type orderDTO struct {
	ID        uuid.UUID          `json:"id"`
	BuyerID   uuid.UUID          `json:"buyer_id"`
	Total     string             `json:"total"`
	Status    domain.OrderStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	Lines     []lineDTO          `json:"lines"`
}

func toDTO(o domain.Order) orderDTO {
	dto := orderDTO{
		ID:        o.ID,
		BuyerID:   o.BuyerID,
		Total:     money.FormatCents(o.TotalCents),
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
		Lines:     make([]lineDTO, 0, len(o.Lines)),
	}
	for _, l := range o.Lines {
		dto.Lines = append(dto.Lines, lineDTO{
			SweetID:   l.SweetID,
			Quantity:  l.Quantity,
			UnitPrice: money.FormatCents(l.UnitPriceCents),
		})
	}
	return dto
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PlaceOrder")
	defer span.End()

	sess, ok := identityhttp.SessionFrom(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthenticated", "authorization required")
		return
	}

	var req struct {
		Items []domain.CartLine `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, string(domain.KindInvalidInput), "invalid body")
		return
	}

	if key := r.Header.Get("Idempotency-Key"); key != "" && h.dedup != nil {
		seen, err := h.dedup.Seen(ctx, h.dedup.Key(sess.BuyerID.String(), key))
		if err != nil {
			h.log.Error("idempotency check failed", "err", err)
			writeError(w, http.StatusServiceUnavailable, string(domain.KindUnavailable), "try again later")
			return
		}
		if seen {
			writeError(w, http.StatusConflict, string(domain.KindDuplicateRequest), "duplicate request")
			return
		}
	}

	order, err := h.service.PlaceOrder(ctx, sess.BuyerID, req.Items)
	if err != nil {
		writePlacementError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDTO(order))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListOrders")
	defer span.End()

	sess, ok := identityhttp.SessionFrom(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthenticated", "authorization required")
		return
	}

	orders, err := h.service.ListOrders(ctx, sess.BuyerID)
	if err != nil {
		h.log.Error("list orders failed", "buyer_id", sess.BuyerID, "err", err)
		writePlacementError(w, err)
		return
	}
	out := make([]orderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, toDTO(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrder")
	defer span.End()

	sess, ok := identityhttp.SessionFrom(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthenticated", "authorization required")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, string(domain.KindInvalidInput), "invalid order id")
		return
	}

	o, err := h.service.GetOrder(ctx, sess.BuyerID, id)
	if errors.Is(err, domain.ErrOrderNotFound) {
		writeError(w, http.StatusNotFound, "OrderNotFound", "order not found")
		return
	}
	if err != nil {
		h.log.Error("get order failed", "order_id", id, "err", err)
		writePlacementError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(*o))
}

func writePlacementError(w http.ResponseWriter, err error) {
	var pe *domain.PlacementError
	if !errors.As(err, &pe) {
		writeError(w, http.StatusInternalServerError, string(domain.KindUnavailable), "order placement failed")
		return
	}
	status := http.StatusInternalServerError
	switch pe.Kind {
	case domain.KindInvalidInput:
		status = http.StatusBadRequest
	case domain.KindItemNotFound:
		status = http.StatusNotFound
	case domain.KindInsufficientStock, domain.KindConflict, domain.KindDuplicateRequest:
		status = http.StatusConflict
	case domain.KindUnavailable:
		status = http.StatusServiceUnavailable
	case domain.KindTimeout:
		status = http.StatusGatewayTimeout
	}
	writeError(w, status, string(pe.Kind), pe.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "code": code})
}
