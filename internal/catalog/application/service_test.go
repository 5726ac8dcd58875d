package application

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetbyte/sweetshop/internal/catalog/domain"
)

type fakeRepo struct {
	sweets map[uuid.UUID]*domain.Sweet
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{sweets: make(map[uuid.UUID]*domain.Sweet)}
}

func (f *fakeRepo) GetSweet(ctx context.Context, id uuid.UUID) (*domain.Sweet, error) {
	s, ok := f.sweets[id]
	if !ok {
		return nil, domain.ErrSweetNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeRepo) List(ctx context.Context, filter domain.Filter) ([]domain.Sweet, error) {
	var out []domain.Sweet
	for _, s := range f.sweets {
		if filter.Category != "" && s.Category != filter.Category {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeRepo) Create(ctx context.Context, s *domain.Sweet) error {
	cp := *s
	f.sweets[s.ID] = &cp
	return nil
}

func (f *fakeRepo) Update(ctx context.Context, id uuid.UUID, p domain.Patch) (*domain.Sweet, error) {
	s, ok := f.sweets[id]
	if !ok {
		return nil, domain.ErrSweetNotFound
	}
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.PriceCents != nil {
		s.PriceCents = *p.PriceCents
	}
	if p.Quantity != nil {
		s.Quantity = *p.Quantity
	}
	cp := *s
	return &cp, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.sweets[id]; !ok {
		return domain.ErrSweetNotFound
	}
	delete(f.sweets, id)
	return nil
}

func (f *fakeRepo) AddStock(ctx context.Context, id uuid.UUID, qty int) (*domain.Sweet, error) {
	s, ok := f.sweets[id]
	if !ok {
		return nil, domain.ErrSweetNotFound
	}
	s.Quantity += qty
	cp := *s
	return &cp, nil
}

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	return NewService(slog.New(slog.DiscardHandler), repo), repo
}

func TestCreateSweet(t *testing.T) {
	svc, repo := newTestService()

	created, err := svc.CreateSweet(context.Background(), domain.Sweet{
		Name: "barfi", Category: "mithai", PriceCents: 450, Quantity: 12,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	stored, err := repo.GetSweet(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "barfi", stored.Name)
}

func TestCreateSweet_Validation(t *testing.T) {
	svc, _ := newTestService()

	cases := []domain.Sweet{
		{Name: "", Category: "candy", PriceCents: 100, Quantity: 1},
		{Name: "x", Category: "", PriceCents: 100, Quantity: 1},
		{Name: "x", Category: "candy", PriceCents: -1, Quantity: 1},
		{Name: "x", Category: "candy", PriceCents: 100, Quantity: -1},
	}
	for _, c := range cases {
		_, err := svc.CreateSweet(context.Background(), c)
		assert.ErrorIs(t, err, domain.ErrInvalidSweet)
	}
}

func TestUpdateSweet_PartialPatch(t *testing.T) {
	svc, _ := newTestService()
	created, err := svc.CreateSweet(context.Background(), domain.Sweet{
		Name: "barfi", Category: "mithai", PriceCents: 450, Quantity: 12,
	})
	require.NoError(t, err)

	price := int64(500)
	updated, err := svc.UpdateSweet(context.Background(), created.ID, domain.Patch{PriceCents: &price})
	require.NoError(t, err)
	assert.Equal(t, int64(500), updated.PriceCents)
	assert.Equal(t, "barfi", updated.Name, "unpatched fields stay put")
}

func TestUpdateSweet_RejectsNegativePrice(t *testing.T) {
	svc, _ := newTestService()
	price := int64(-5)
	_, err := svc.UpdateSweet(context.Background(), uuid.New(), domain.Patch{PriceCents: &price})
	assert.ErrorIs(t, err, domain.ErrInvalidSweet)
}

func TestRestock(t *testing.T) {
	svc, _ := newTestService()
	created, err := svc.CreateSweet(context.Background(), domain.Sweet{
		Name: "barfi", Category: "mithai", PriceCents: 450, Quantity: 2,
	})
	require.NoError(t, err)

	restocked, err := svc.Restock(context.Background(), created.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 12, restocked.Quantity)

	_, err = svc.Restock(context.Background(), created.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidSweet)
}

func TestDeleteSweet_Missing(t *testing.T) {
	svc, _ := newTestService()
	err := svc.DeleteSweet(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrSweetNotFound)
}
