// Package postgres persists registration records into the service's own
// database, for deployments that prefer a queryable table over an external
// datastore.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkrasic/handoff/internal/verification/domain"
)

type Sink struct {
	pool *pgxpool.Pool
}

func NewSink(pool *pgxpool.Pool) *Sink {
	return &Sink{pool: pool}
}

// Record inserts the registration row. The tracking id doubles as the
// primary key; a duplicate insert is a no-op, matching the at-most-once
// creation rule.
func (s *Sink) Record(ctx context.Context, rec domain.RegistrationRecord) (string, error) {
	items, err := json.Marshal(rec.Order.Items)
	if err != nil {
		return "", fmt.Errorf("marshal order items: %w", err)
	}

	query := `
		INSERT INTO registrations (
			id, order_id, order_number, email, customer_name, items,
			total, currency, roblox_user_id, roblox_username, avatar_url,
			status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
	`

	_, err = s.pool.Exec(ctx, query,
		rec.ID,
		rec.Order.OrderID,
		rec.Order.OrderNumber,
		rec.Order.Email,
		rec.Order.CustomerName,
		items,
		rec.Order.Total,
		rec.Order.Currency,
		rec.Identity.UserID,
		rec.Identity.Username,
		rec.Identity.AvatarURL,
		string(rec.Status),
		rec.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert registration: %w", err)
	}

	return rec.ID, nil
}

// GetByID fetches a stored registration, used by the integration tests and
// operational tooling.
func (s *Sink) GetByID(ctx context.Context, id string) (*domain.RegistrationRecord, error) {
	query := `
		SELECT id, order_id, order_number, email, customer_name, items,
		       total, currency, roblox_user_id, roblox_username, avatar_url,
		       status, created_at
		FROM registrations
		WHERE id = $1
	`

	var rec domain.RegistrationRecord
	var items []byte
	var status string
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID,
		&rec.Order.OrderID,
		&rec.Order.OrderNumber,
		&rec.Order.Email,
		&rec.Order.CustomerName,
		&items,
		&rec.Order.Total,
		&rec.Order.Currency,
		&rec.Identity.UserID,
		&rec.Identity.Username,
		&rec.Identity.AvatarURL,
		&status,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("select registration: %w", err)
	}
	rec.Status = domain.RegistrationStatus(status)

	if len(items) > 0 {
		if err := json.Unmarshal(items, &rec.Order.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
	}
	return &rec, nil
}
