package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewOrder_Total(t *testing.T) {
	buyer := uuid.New()
	o := NewOrder(buyer, []Line{
		{SweetID: uuid.New(), Quantity: 2, UnitPriceCents: 250},
		{SweetID: uuid.New(), Quantity: 3, UnitPriceCents: 120},
	})

	assert.Equal(t, int64(2*250+3*120), o.TotalCents)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, buyer, o.BuyerID)
	assert.NotEqual(t, uuid.Nil, o.ID)
	assert.False(t, o.CreatedAt.IsZero())
}

func TestOrder_Reservations(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	o := NewOrder(uuid.New(), []Line{
		{SweetID: a, Quantity: 2, UnitPriceCents: 100},
		{SweetID: b, Quantity: 3, UnitPriceCents: 100},
	})

	r := o.Reservations()
	assert.Equal(t, map[uuid.UUID]int{a: 2, b: 3}, r)
}

func TestPlacementError_NamesSweet(t *testing.T) {
	id := uuid.New()
	err := NewPlacementError(KindInsufficientStock, id, "requested %d, %d on hand", 3, 1)
	assert.Contains(t, err.Error(), id.String())
	assert.Contains(t, err.Error(), "InsufficientStock")
	assert.Equal(t, KindInsufficientStock, KindOf(err))
}
