package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"subtrack/internal/core"

	_ "modernc.org/sqlite"
)

const timestampLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const listSubscriptions = `
SELECT id, name, cost_cents, currency, cycle, category, next_billing_date, color, created_at
FROM subscriptions
WHERE user_id = ?
ORDER BY seq`

func (r *SQLiteRepository) ListSubscriptions(ctx context.Context, userID string) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, listSubscriptions, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	subs := make([]core.Subscription, 0)
	for rows.Next() {
		var (
			s         core.Subscription
			next      string
			createdAt string
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Cost.Cents, &s.Currency, &s.Cycle, &s.Category, &next, &s.Color, &createdAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		if s.NextBillingDate, err = core.ParseDate(next); err != nil {
			return nil, fmt.Errorf("subscription %s: %w", s.ID, err)
		}
		if s.CreatedAt, err = time.Parse(timestampLayout, createdAt); err != nil {
			return nil, fmt.Errorf("subscription %s created_at: %w", s.ID, err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subs, nil
}

const insertSubscription = `
INSERT INTO subscriptions (id, user_id, name, cost_cents, currency, cycle, category, next_billing_date, color, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (r *SQLiteRepository) CreateSubscription(ctx context.Context, userID string, s core.Subscription) (string, error) {
	if userID == "" {
		return "", core.ErrEmptyUserID
	}
	id := NewID()
	createdAt := time.Now().UTC()

	_, err := r.db.ExecContext(ctx, insertSubscription,
		id, userID, s.Name, s.Cost.Cents, string(s.Currency), string(s.Cycle), string(s.Category),
		s.NextBillingDate.String(), s.Color, createdAt.Format(timestampLayout))
	if err != nil {
		return "", fmt.Errorf("create subscription: %w", err)
	}

	slog.InfoContext(ctx, "Subscription saved to SQLite",
		"id", id,
		"user_id", userID,
		"name", s.Name,
		"cost_cents", s.Cost.Cents,
		"next_billing_date", s.NextBillingDate.String())

	return id, nil
}

func (r *SQLiteRepository) DeleteSubscription(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete subscription rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const upsertUser = `
INSERT INTO users (id, email, display_name, avatar_url, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    email = excluded.email,
    display_name = excluded.display_name,
    avatar_url = excluded.avatar_url,
    updated_at = excluded.updated_at`

func (r *SQLiteRepository) UpsertUser(ctx context.Context, u core.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, upsertUser,
		u.ID, u.Email, u.DisplayName, u.AvatarURL, time.Now().UTC().Format(timestampLayout))
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, email, display_name, avatar_url FROM users ORDER BY created_at, id`)
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
