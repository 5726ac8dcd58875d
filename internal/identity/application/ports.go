package application

import (
	"context"
	"time"

	"github.com/sweetbyte/sweetshop/internal/identity/domain"
)

type BuyerRepository interface {
	Create(ctx context.Context, b *domain.Buyer) error
	ByEmail(ctx context.Context, email string) (*domain.Buyer, error)
}

// SessionStore maps opaque tokens to sessions with a TTL.
type SessionStore interface {
	Put(ctx context.Context, token string, s domain.Session, ttl time.Duration) error
	Get(ctx context.Context, token string) (*domain.Session, error)
}
