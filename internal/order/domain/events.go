package domain

import "github.com/google/uuid"

// OrderPlaced is published through the outbox once the order and its stock
// decrements have committed together.
type OrderPlaced struct {
	OrderID    uuid.UUID         `json:"order_id"`
	BuyerID    uuid.UUID         `json:"buyer_id"`
	TotalCents int64             `json:"total_cents"`
	Lines      []OrderPlacedLine `json:"lines"`
}

type OrderPlacedLine struct {
	SweetID        uuid.UUID `json:"sweet_id"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
}

func NewOrderPlaced(o Order) OrderPlaced {
	ev := OrderPlaced{
		OrderID:    o.ID,
		BuyerID:    o.BuyerID,
		TotalCents: o.TotalCents,
		Lines:      make([]OrderPlacedLine, 0, len(o.Lines)),
	}
	for _, l := range o.Lines {
		ev.Lines = append(ev.Lines, OrderPlacedLine{
			SweetID:        l.SweetID,
			Quantity:       l.Quantity,
			UnitPriceCents: l.UnitPriceCents,
		})
	}
	return ev
}
