// Package postgres is a PostgreSQL storage backend built on pgxpool.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"subtrack/internal/core"
	"subtrack/internal/storage"
)

type Repository struct {
	pool *pgxpool.Pool
}

// New connects, pings and migrates.
func New(ctx context.Context, dsn string) (*Repository, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database URL is required for PostgreSQL")
	}
	if err := RunMigrations(dsn); err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) ListSubscriptions(ctx context.Context, userID string) ([]core.Subscription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, cost_cents, currency, cycle, category, next_billing_date, color, created_at
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	subs := make([]core.Subscription, 0)
	for rows.Next() {
		var (
			s                         core.Subscription
			currency, cycle, category string
			next                      time.Time
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Cost.Cents, &currency, &cycle, &category, &next, &s.Color, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		s.Currency = core.CurrencyCode(currency)
		s.Cycle = core.Cycle(cycle)
		s.Category = core.Category(category)
		s.NextBillingDate = core.DateOf(next)
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subs, nil
}

func (r *Repository) CreateSubscription(ctx context.Context, userID string, s core.Subscription) (string, error) {
	if userID == "" {
		return "", core.ErrEmptyUserID
	}
	id := storage.NewID()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO subscriptions (id, user_id, name, cost_cents, currency, cycle, category, next_billing_date, color)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, userID, s.Name, s.Cost.Cents, string(s.Currency), string(s.Cycle), string(s.Category),
		s.NextBillingDate.Time, s.Color)
	if err != nil {
		return "", fmt.Errorf("create subscription: %w", err)
	}

	slog.InfoContext(ctx, "Subscription saved to PostgreSQL",
		"id", id,
		"user_id", userID,
		"name", s.Name,
		"cost_cents", s.Cost.Cents)
	return id, nil
}

func (r *Repository) DeleteSubscription(ctx context.Context, userID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM subscriptions WHERE id::text = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *Repository) UpsertUser(ctx context.Context, u core.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, display_name, avatar_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			display_name = EXCLUDED.display_name,
			avatar_url = EXCLUDED.avatar_url,
			updated_at = now()`,
		u.ID, u.Email, u.DisplayName, u.AvatarURL)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, email, display_name, avatar_url FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		var u core.User
		if err := rows.Scan(&u.ID, &u.Email, &u.DisplayName, &u.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

var _ storage.Store = (*Repository)(nil)
