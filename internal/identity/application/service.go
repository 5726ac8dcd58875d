package application

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sweetbyte/sweetshop/internal/identity/domain"
)

const minPasswordLen = 8

type Service struct {
	log        *slog.Logger
	buyers     BuyerRepository
	sessions   SessionStore
	sessionTTL time.Duration
}

func NewService(log *slog.Logger, buyers BuyerRepository, sessions SessionStore, sessionTTL time.Duration) *Service {
	return &Service{log: log, buyers: buyers, sessions: sessions, sessionTTL: sessionTTL}
}

func (s *Service) Register(ctx context.Context, email, name, password string) (*domain.Buyer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email", domain.ErrInvalidBuyer)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidBuyer)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidBuyer, minPasswordLen)
	}

	hash, salt, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	b := &domain.Buyer{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		Role:         domain.RoleBuyer,
		PasswordHash: hash,
		PasswordSalt: salt,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.buyers.Create(ctx, b); err != nil {
		return nil, err
	}
	s.log.Info("buyer registered", "buyer_id", b.ID, "email", b.Email)
	return b, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (string, *domain.Buyer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	b, err := s.buyers.ByEmail(ctx, email)
	if errors.Is(err, domain.ErrBuyerNotFound) {
		return "", nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return "", nil, err
	}

	ok, err := verifyPassword(password, b.PasswordSalt, b.PasswordHash)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, domain.ErrUnauthenticated
	}

	token, err := newToken()
	if err != nil {
		return "", nil, err
	}
	if err := s.sessions.Put(ctx, token, domain.Session{BuyerID: b.ID, Role: b.Role}, s.sessionTTL); err != nil {
		return "", nil, err
	}
	s.log.Info("buyer logged in", "buyer_id", b.ID)
	return token, b, nil
}

// Authenticate resolves a bearer token to a session. The rest of the system
// consumes only its output, never the raw credential.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	sess, err := s.sessions.Get(ctx, token)
	if errors.Is(err, domain.ErrUnauthenticated) {
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func newToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
