package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/shortlink/internal/shortener"
)

// Schema creates the short_urls table. Production schemas are managed
// outside this service; tests and local setups apply it directly.
const Schema = `
CREATE TABLE IF NOT EXISTS short_urls (
	id         BIGSERIAL PRIMARY KEY,
	long_url   TEXT        NOT NULL,
	short_code TEXT        NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NULL,
	CONSTRAINT short_urls_short_code_key UNIQUE (short_code)
)`

const uniqueViolation = "23505"

// PostgresStore is a PostgreSQL implementation of shortener.Repository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed URL store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema applies Schema.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	return nil
}

func (p *PostgresStore) Add(ctx context.Context, shortURL *shortener.ShortURL) (*shortener.ShortURL, error) {
	query := `
		INSERT INTO short_urls (long_url, short_code, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	stored := *shortURL

	err := p.pool.QueryRow(ctx, query,
		shortURL.LongURL,
		string(shortURL.Code),
		shortURL.CreatedAt,
		shortURL.ExpiresAt,
	).Scan(&stored.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert %q: %w", shortURL.Code, shortener.ErrDuplicateCode)
		}

		return nil, fmt.Errorf("insert %q: %w", shortURL.Code, err)
	}

	return &stored, nil
}

func (p *PostgresStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	query := `
		SELECT id, long_url, short_code, created_at, expires_at
		FROM short_urls
		WHERE short_code = $1
	`

	var url shortener.ShortURL

	err := p.pool.QueryRow(ctx, query, string(code)).Scan(
		&url.ID,
		&url.LongURL,
		&url.Code,
		&url.CreatedAt,
		&url.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, fmt.Errorf("select %q: %w", code, err)
	}

	url.CreatedAt = url.CreatedAt.UTC()

	if url.ExpiresAt != nil {
		exp := url.ExpiresAt.UTC()
		url.ExpiresAt = &exp
	}

	return &url, nil
}

// Ping checks database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var _ shortener.Repository = (*PostgresStore)(nil)
