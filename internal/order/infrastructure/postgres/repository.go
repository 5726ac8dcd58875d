package postgres

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sweetbyte/sweetshop/internal/order/domain"
)

// Repository is the durable order ledger. Reservation and persistence share
// one transaction so the order becomes visible if and only if every stock
// decrement committed with it.
type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS orders (
			id          UUID PRIMARY KEY,
			buyer_id    UUID NOT NULL,
			total_cents BIGINT NOT NULL CHECK (total_cents >= 0),
			status      TEXT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS order_lines (
			order_id         UUID NOT NULL REFERENCES orders(id),
			position         INT NOT NULL,
			sweet_id         UUID NOT NULL,
			quantity         INT NOT NULL CHECK (quantity > 0),
			unit_price_cents BIGINT NOT NULL CHECK (unit_price_cents >= 0),
			PRIMARY KEY (order_id, position)
		);
		CREATE INDEX IF NOT EXISTS idx_orders_buyer ON orders (buyer_id, created_at DESC);
		CREATE TABLE IF NOT EXISTS outbox (
			id          BIGSERIAL PRIMARY KEY,
			aggregate_type TEXT NOT NULL,
			aggregate_id   TEXT NOT NULL,
			type        TEXT NOT NULL,
			payload     JSONB NOT NULL,
			traceparent TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL DEFAULT 'pending',
			relay_id    TEXT,
			lease_until TIMESTAMPTZ,
			retry_count INT NOT NULL DEFAULT 0,
			last_error  TEXT,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	return err
}

func (r *Repository) SaveWithReservation(ctx context.Context, o domain.Order, eventType string, payload []byte, traceparent string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Decrement in sorted id order so concurrent orders over overlapping
	// sweets take row locks in the same sequence.
	reserve := make([]domain.Line, len(o.Lines))
	copy(reserve, o.Lines)
	sort.Slice(reserve, func(i, j int) bool {
		return reserve[i].SweetID.String() < reserve[j].SweetID.String()
	})

	for _, l := range reserve {
		ct, err := tx.Exec(ctx, `
			UPDATE sweets SET quantity = quantity - $2, updated_at = now()
			WHERE id = $1 AND quantity >= $2`,
			l.SweetID, l.Quantity)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			// The conditional write rejected us: either the sweet vanished
			// or stock moved since the pre-check. Rolling back undoes the
			// decrements already applied in this loop.
			var onHand int
			err := tx.QueryRow(ctx, `SELECT quantity FROM sweets WHERE id = $1`, l.SweetID).Scan(&onHand)
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.NewPlacementError(domain.KindItemNotFound, l.SweetID, "sweet does not exist")
			}
			if err != nil {
				return err
			}
			return domain.NewPlacementError(domain.KindInsufficientStock, l.SweetID,
				"requested %d, %d on hand", l.Quantity, onHand)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, buyer_id, total_cents, status, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		o.ID, o.BuyerID, o.TotalCents, string(o.Status), o.CreatedAt)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for i, l := range o.Lines {
		batch.Queue(`
			INSERT INTO order_lines (order_id, position, sweet_id, quantity, unit_price_cents)
			VALUES ($1,$2,$3,$4,$5)`,
			o.ID, i, l.SweetID, l.Quantity, l.UnitPriceCents)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status)
		VALUES ($1,$2,$3,$4,$5,'pending')`,
		"order", o.ID.String(), eventType, payload, traceparent)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *Repository) OrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx, `
		SELECT id, buyer_id, total_cents, status, created_at
		FROM orders WHERE id = $1`, id).
		Scan(&o.ID, &o.BuyerID, &o.TotalCents, &o.Status, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if o.Lines, err = r.linesFor(ctx, o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repository) OrdersByBuyer(ctx context.Context, buyerID uuid.UUID) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, buyer_id, total_cents, status, created_at
		FROM orders WHERE buyer_id = $1
		ORDER BY created_at DESC`, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.BuyerID, &o.TotalCents, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].Lines, err = r.linesFor(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *Repository) linesFor(ctx context.Context, orderID uuid.UUID) ([]domain.Line, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT sweet_id, quantity, unit_price_cents
		FROM order_lines WHERE order_id = $1
		ORDER BY position`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.Line
	for rows.Next() {
		var l domain.Line
		if err := rows.Scan(&l.SweetID, &l.Quantity, &l.UnitPriceCents); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
