package optionstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres-backed store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Get(ctx context.Context, name string) (string, error) {
	const q = `SELECT value FROM board_options WHERE name = $1`
	var value string
	err := p.pool.QueryRow(ctx, q, name).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", errors.Join(ErrQueryFailed, err)
	}
	return value, nil
}

func (p *Postgres) Set(ctx context.Context, name, value string) error {
	const q = `INSERT INTO board_options (name, value) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value`
	if _, err := p.pool.Exec(ctx, q, name, value); err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, name string) error {
	const q = `DELETE FROM board_options WHERE name = $1`
	if _, err := p.pool.Exec(ctx, q, name); err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	return nil
}

var _ Store = (*Postgres)(nil)
