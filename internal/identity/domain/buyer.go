package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrEmailTaken      = errors.New("email already registered")
	ErrBuyerNotFound   = errors.New("buyer not found")
	ErrInvalidBuyer    = errors.New("invalid buyer")
)

type Role string

const (
	RoleBuyer Role = "buyer"
	RoleAdmin Role = "admin"
)

type Buyer struct {
	ID           uuid.UUID
	Email        string
	Name         string
	Role         Role
	PasswordHash string
	PasswordSalt string
	CreatedAt    time.Time
}

// Session is what a verified token resolves to. Downstream code consumes
// only the buyer id and role, never the credential.
type Session struct {
	BuyerID uuid.UUID `json:"buyer_id"`
	Role    Role      `json:"role"`
}
