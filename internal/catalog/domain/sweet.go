package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSweetNotFound = errors.New("sweet not found")
	ErrInvalidSweet  = errors.New("invalid sweet")
)

// Sweet is one purchasable catalog item. Quantity is the quantity on hand;
// it is mutated only through the store (reservation and restock), never
// directly, and is never observable below zero.
type Sweet struct {
	ID          uuid.UUID
	Name        string
	Description string
	Category    string
	PriceCents  int64
	Quantity    int
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Filter narrows catalog listings. Zero values mean "no constraint".
type Filter struct {
	Query         string
	Category      string
	MinPriceCents *int64
	MaxPriceCents *int64
}

// Patch carries a partial update; nil fields are left untouched.
type Patch struct {
	Name        *string
	Description *string
	Category    *string
	PriceCents  *int64
	Quantity    *int
	ImageURL    *string
}
