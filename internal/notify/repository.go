package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a subscription is not found.
var ErrNotFound = errors.New("subscription not found")

// Repository provides persistence for subscriptions and deliveries.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new notify Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new subscription.
func (r *Repository) Create(ctx context.Context, sub *Subscription) error {
	sub.ID = uuid.New()
	sub.CreatedAt = time.Now().UTC()
	sub.Active = true

	_, err := r.db.Exec(ctx,
		`INSERT INTO subscriptions (id, owner_address, url, events, secret, active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sub.ID, sub.Owner, sub.URL, sub.Events, sub.Secret, sub.Active, sub.CreatedAt,
	)
	return err
}

// GetByID retrieves a subscription by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, owner_address, url, events, secret, active, created_at
		 FROM subscriptions WHERE id = $1`, id)

	var sub Subscription
	if err := row.Scan(&sub.ID, &sub.Owner, &sub.URL, &sub.Events, &sub.Secret, &sub.Active, &sub.CreatedAt); err != nil {
		return nil, ErrNotFound
	}
	return &sub, nil
}

// ListByOwner returns all subscriptions for an owner address.
func (r *Repository) ListByOwner(ctx context.Context, owner string) ([]*Subscription, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, owner_address, url, events, secret, active, created_at
		 FROM subscriptions WHERE owner_address = $1 ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*Subscription
	for rows.Next() {
		var sub Subscription
		if err := rows.Scan(&sub.ID, &sub.Owner, &sub.URL, &sub.Events, &sub.Secret, &sub.Active, &sub.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, &sub)
	}
	return subs, rows.Err()
}

// ListByEvent returns all active subscriptions listening for an event type.
func (r *Repository) ListByEvent(ctx context.Context, eventType string) ([]*Subscription, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, owner_address, url, events, secret, active, created_at
		 FROM subscriptions
		 WHERE active = true AND $1 = ANY(events)
		 ORDER BY created_at`, eventType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*Subscription
	for rows.Next() {
		var sub Subscription
		if err := rows.Scan(&sub.ID, &sub.Owner, &sub.URL, &sub.Events, &sub.Secret, &sub.Active, &sub.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, &sub)
	}
	return subs, rows.Err()
}

// Delete removes a subscription.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordDelivery records a delivery attempt.
func (r *Repository) RecordDelivery(ctx context.Context, d *Delivery) error {
	d.ID = uuid.New()
	d.DeliveredAt = time.Now().UTC()

	_, err := r.db.Exec(ctx,
		`INSERT INTO deliveries (id, subscription_id, event_type, status_code, attempt, success, error_message, delivered_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		d.ID, d.SubscriptionID, d.EventType,
		d.StatusCode, d.Attempt, d.Success, d.ErrorMessage, d.DeliveredAt,
	)
	return err
}
