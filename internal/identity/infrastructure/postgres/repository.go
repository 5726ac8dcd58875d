package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sweetbyte/sweetshop/internal/identity/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS buyers (
			id            UUID PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			name          TEXT NOT NULL,
			role          TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			password_salt TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL
		);
	`)
	return err
}

func (r *Repository) Create(ctx context.Context, b *domain.Buyer) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO buyers (id, email, name, role, password_hash, password_salt, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		b.ID, b.Email, b.Name, string(b.Role), b.PasswordHash, b.PasswordSalt, b.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrEmailTaken
	}
	return err
}

func (r *Repository) ByEmail(ctx context.Context, email string) (*domain.Buyer, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, name, role, password_hash, password_salt, created_at
		FROM buyers WHERE email = $1`, email)
	return scanBuyer(row)
}

func scanBuyer(row pgx.Row) (*domain.Buyer, error) {
	var b domain.Buyer
	err := row.Scan(&b.ID, &b.Email, &b.Name, &b.Role, &b.PasswordHash, &b.PasswordSalt, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBuyerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}
