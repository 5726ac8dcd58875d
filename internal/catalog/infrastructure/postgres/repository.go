package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sweetbyte/sweetshop/internal/catalog/domain"
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
		CREATE TABLE IF NOT EXISTS sweets (
			id          UUID PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category    TEXT NOT NULL,
			price_cents BIGINT NOT NULL CHECK (price_cents >= 0),
			quantity    INT NOT NULL CHECK (quantity >= 0),
			image_url   TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sweets_category ON sweets (category);
	`)
	return err
}

const sweetColumns = `id, name, description, category, price_cents, quantity, image_url, created_at, updated_at`

func (r *Repository) GetSweet(ctx context.Context, id uuid.UUID) (*domain.Sweet, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+sweetColumns+` FROM sweets WHERE id = $1`, id)
	return scanSweet(row)
}

func (r *Repository) List(ctx context.Context, f domain.Filter) ([]domain.Sweet, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Query != "" {
		where = append(where, `name ILIKE `+arg("%"+f.Query+"%"))
	}
	if f.Category != "" {
		where = append(where, `category = `+arg(f.Category))
	}
	if f.MinPriceCents != nil {
		where = append(where, `price_cents >= `+arg(*f.MinPriceCents))
	}
	if f.MaxPriceCents != nil {
		where = append(where, `price_cents <= `+arg(*f.MaxPriceCents))
	}

	q := `SELECT ` + sweetColumns + ` FROM sweets`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, ` AND `)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sweets []domain.Sweet
	for rows.Next() {
		s, err := scanSweet(rows)
		if err != nil {
			return nil, err
		}
		sweets = append(sweets, *s)
	}
	return sweets, rows.Err()
}

func (r *Repository) Create(ctx context.Context, s *domain.Sweet) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sweets (`+sweetColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		s.ID, s.Name, s.Description, s.Category, s.PriceCents, s.Quantity, s.ImageURL, s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, p domain.Patch) (*domain.Sweet, error) {
	var (
		sets []string
		args []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if p.Name != nil {
		sets = append(sets, `name = `+arg(*p.Name))
	}
	if p.Description != nil {
		sets = append(sets, `description = `+arg(*p.Description))
	}
	if p.Category != nil {
		sets = append(sets, `category = `+arg(*p.Category))
	}
	if p.PriceCents != nil {
		sets = append(sets, `price_cents = `+arg(*p.PriceCents))
	}
	if p.Quantity != nil {
		sets = append(sets, `quantity = `+arg(*p.Quantity))
	}
	if p.ImageURL != nil {
		sets = append(sets, `image_url = `+arg(*p.ImageURL))
	}
	if len(sets) == 0 {
		return r.GetSweet(ctx, id)
	}
	sets = append(sets, `updated_at = now()`)

	q := `UPDATE sweets SET ` + strings.Join(sets, `, `) + ` WHERE id = ` + arg(id) + ` RETURNING ` + sweetColumns
	row := r.pool.QueryRow(ctx, q, args...)
	return scanSweet(row)
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM sweets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrSweetNotFound
	}
	return nil
}

func (r *Repository) AddStock(ctx context.Context, id uuid.UUID, qty int) (*domain.Sweet, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE sweets SET quantity = quantity + $2, updated_at = now()
		WHERE id = $1
		RETURNING `+sweetColumns, id, qty)
	return scanSweet(row)
}

func scanSweet(row pgx.Row) (*domain.Sweet, error) {
	var s domain.Sweet
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.Category, &s.PriceCents, &s.Quantity, &s.ImageURL, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSweetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
