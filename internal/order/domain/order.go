package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	StatusPending OrderStatus = "PENDING"
)

// CartLine is a caller-supplied request for a quantity of one sweet. It is
// input only and never persisted as such.
type CartLine struct {
	SweetID  uuid.UUID `json:"sweet_id"`
	Quantity int       `json:"quantity"`
}

// Line is one priced entry of an order. UnitPriceCents is the sweet's price
// at the moment the order was placed and never changes afterwards.
type Line struct {
	SweetID        uuid.UUID
	Quantity       int
	UnitPriceCents int64
}

// Order is created whole by NewOrder and immutable thereafter; there are no
// setters. Status transitions beyond PENDING belong to fulfillment, which
// this service does not own.
type Order struct {
	ID         uuid.UUID
	BuyerID    uuid.UUID
	Lines      []Line
	TotalCents int64
	Status     OrderStatus
	CreatedAt  time.Time
}

func NewOrder(buyerID uuid.UUID, lines []Line) Order {
	var total int64
	for _, l := range lines {
		total += int64(l.Quantity) * l.UnitPriceCents
	}
	return Order{
		ID:         uuid.New(),
		BuyerID:    buyerID,
		Lines:      lines,
		TotalCents: total,
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
}

// Reservations returns the per-sweet quantities this order subtracts from
// stock. Lines are merged per sweet before an order is built, so each key
// appears once.
func (o Order) Reservations() map[uuid.UUID]int {
	m := make(map[uuid.UUID]int, len(o.Lines))
	for _, l := range o.Lines {
		m[l.SweetID] += l.Quantity
	}
	return m
}
