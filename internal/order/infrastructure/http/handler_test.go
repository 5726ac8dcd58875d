package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogdomain "github.com/sweetbyte/sweetshop/internal/catalog/domain"
	identitydomain "github.com/sweetbyte/sweetshop/internal/identity/domain"
	identityhttp "github.com/sweetbyte/sweetshop/internal/identity/infrastructure/http"
	"github.com/sweetbyte/sweetshop/internal/order/application"
	"github.com/sweetbyte/sweetshop/internal/order/domain"
)

type fakeStore struct {
	mu     sync.Mutex
	sweets map[uuid.UUID]*catalogdomain.Sweet
	orders []domain.Order
}

func (f *fakeStore) GetSweet(ctx context.Context, id uuid.UUID) (*catalogdomain.Sweet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sweets[id]
	if !ok {
		return nil, catalogdomain.ErrSweetNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) SaveWithReservation(ctx context.Context, o domain.Order, eventType string, payload []byte, traceparent string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, qty := range o.Reservations() {
		s, ok := f.sweets[id]
		if !ok {
			return domain.NewPlacementError(domain.KindItemNotFound, id, "sweet does not exist")
		}
		if s.Quantity < qty {
			return domain.NewPlacementError(domain.KindInsufficientStock, id, "requested %d, %d on hand", qty, s.Quantity)
		}
	}
	for id, qty := range o.Reservations() {
		f.sweets[id].Quantity -= qty
	}
	f.orders = append(f.orders, o)
	return nil
}

func (f *fakeStore) OrdersByBuyer(ctx context.Context, buyerID uuid.UUID) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for _, o := range f.orders {
		if o.BuyerID == buyerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeStore) OrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ID == id {
			cp := o
			return &cp, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

type fakeDedup struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (f *fakeDedup) Key(buyerID, requestKey string) string {
	return buyerID + ":" + requestKey
}

func (f *fakeDedup) Seen(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	was := f.seen[key]
	f.seen[key] = true
	return was, nil
}

// sessionAs stamps every request with a fixed session, standing in for the
// real token middleware.
func sessionAs(buyerID uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := identityhttp.WithSession(r.Context(), identitydomain.Session{
				BuyerID: buyerID,
				Role:    identitydomain.RoleBuyer,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newTestHandler(t *testing.T) (*fakeStore, uuid.UUID, http.Handler) {
	t.Helper()
	store := &fakeStore{sweets: make(map[uuid.UUID]*catalogdomain.Sweet)}
	log := slog.New(slog.DiscardHandler)
	svc := application.NewService(log, store, store)
	h := NewHandler(log, svc, &fakeDedup{})
	buyer := uuid.New()
	return store, buyer, h.Routes(sessionAs(buyer))
}

func (f *fakeStore) add(priceCents int64, qty int) uuid.UUID {
	id := uuid.New()
	f.sweets[id] = &catalogdomain.Sweet{ID: id, Name: "ladoo", Category: "mithai", PriceCents: priceCents, Quantity: qty}
	return id
}

func postOrder(t *testing.T, routes http.Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, req)
	return rec
}

func TestPlaceOrderEndpoint_Success(t *testing.T) {
	store, buyer, routes := newTestHandler(t)
	a := store.add(250, 5)

	body := fmt.Sprintf(`{"items":[{"sweet_id":%q,"quantity":2}]}`, a)
	rec := postOrder(t, routes, body, nil)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var dto orderDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, buyer, dto.BuyerID)
	assert.Equal(t, "5.00", dto.Total)
	assert.Equal(t, domain.StatusPending, dto.Status)
	require.Len(t, dto.Lines, 1)
	assert.Equal(t, "2.50", dto.Lines[0].UnitPrice)
	assert.Equal(t, 3, store.sweets[a].Quantity)
}

func TestPlaceOrderEndpoint_ErrorMapping(t *testing.T) {
	store, _, routes := newTestHandler(t)
	a := store.add(250, 1)
	missing := uuid.New()

	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"empty cart", `{"items":[]}`, http.StatusBadRequest, "InvalidInput"},
		{"zero quantity", fmt.Sprintf(`{"items":[{"sweet_id":%q,"quantity":0}]}`, a), http.StatusBadRequest, "InvalidInput"},
		{"unknown sweet", fmt.Sprintf(`{"items":[{"sweet_id":%q,"quantity":1}]}`, missing), http.StatusNotFound, "ItemNotFound"},
		{"insufficient stock", fmt.Sprintf(`{"items":[{"sweet_id":%q,"quantity":5}]}`, a), http.StatusConflict, "InsufficientStock"},
		{"malformed body", `{"items":`, http.StatusBadRequest, "InvalidInput"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postOrder(t, routes, tc.body, nil)
			assert.Equal(t, tc.status, rec.Code)
			var envelope map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
			assert.Equal(t, tc.code, envelope["code"])
			assert.NotEmpty(t, envelope["error"])
		})
	}

	assert.Equal(t, 1, store.sweets[a].Quantity, "failed calls must not move stock")
}

func TestPlaceOrderEndpoint_IdempotencyKey(t *testing.T) {
	store, _, routes := newTestHandler(t)
	a := store.add(250, 5)
	body := fmt.Sprintf(`{"items":[{"sweet_id":%q,"quantity":1}]}`, a)
	headers := map[string]string{"Idempotency-Key": "req-42"}

	rec := postOrder(t, routes, body, headers)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postOrder(t, routes, body, headers)
	assert.Equal(t, http.StatusConflict, rec.Code)
	var envelope map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "DuplicateRequest", envelope["code"])

	assert.Equal(t, 4, store.sweets[a].Quantity, "retry must not reserve twice")
}

func TestListAndGetOrders(t *testing.T) {
	store, _, routes := newTestHandler(t)
	a := store.add(100, 10)

	body := fmt.Sprintf(`{"items":[{"sweet_id":%q,"quantity":1}]}`, a)
	rec := postOrder(t, routes, body, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var placed orderDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placed))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	list := httptest.NewRecorder()
	routes.ServeHTTP(list, req)
	require.Equal(t, http.StatusOK, list.Code)
	var orders []orderDTO
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &orders))
	require.Len(t, orders, 1)

	req = httptest.NewRequest(http.MethodGet, "/"+placed.ID.String(), nil)
	one := httptest.NewRecorder()
	routes.ServeHTTP(one, req)
	require.Equal(t, http.StatusOK, one.Code)

	req = httptest.NewRequest(http.MethodGet, "/"+uuid.NewString(), nil)
	missing := httptest.NewRecorder()
	routes.ServeHTTP(missing, req)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}
