package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const pgUndefinedTable = "42P01"

type PostgresSlot struct {
	db *sql.DB
}

func OpenPostgres(ctx context.Context, dsn string) (*PostgresSlot, error) {
	if dsn == "" {
		return nil, errors.New("postgres slot: DATABASE_URL is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	s := NewPostgresSlot(db)
	if err := s.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func NewPostgresSlot(db *sql.DB) *PostgresSlot {
	return &PostgresSlot{db: db}
}

func (s *PostgresSlot) EnsureSchema(ctx context.Context) error {
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS kv_slots (
				name       TEXT PRIMARY KEY,
				value      TEXT NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)
		`)
		return err
	})
	if err != nil {
		return fmt.Errorf("create kv_slots: %w", err)
	}
	return nil
}

func (s *PostgresSlot) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v string
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT value
			FROM kv_slots
			WHERE name = $1
		`, key).Scan(&v)
	})
	if errors.Is(err, sql.ErrNoRows) || isUndefinedTable(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("postgres get %s: %w", key, err)
	}
	return []byte(v), true, nil
}

func (s *PostgresSlot) Set(ctx context.Context, key string, value []byte) error {
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO kv_slots (name, value, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (name) DO UPDATE
			SET value = EXCLUDED.value, updated_at = now()
		`, key, string(value))
		return err
	})
	if err != nil {
		return fmt.Errorf("postgres set %s: %w", key, err)
	}
	return nil
}

func (s *PostgresSlot) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresSlot) Close() error {
	return s.db.Close()
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable
}
