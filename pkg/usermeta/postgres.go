package usermeta

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/boardkit/boardkit/pkg/db"
)

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres-backed store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Get(ctx context.Context, userID int64, key string) (string, error) {
	const q = `SELECT value FROM user_meta WHERE user_id = $1 AND key = $2 ORDER BY id LIMIT 1`
	var value string
	err := p.pool.QueryRow(ctx, q, userID, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", errors.Join(ErrQueryFailed, err)
	}
	return value, nil
}

func (p *Postgres) Set(ctx context.Context, userID int64, key, value string) error {
	// Replace-all inside one transaction so a concurrent reader never
	// sees the key missing between the delete and the insert.
	err := db.WithTx(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM user_meta WHERE user_id = $1 AND key = $2", userID, key); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, "INSERT INTO user_meta (user_id, key, value) VALUES ($1, $2, $3)", userID, key, value)
		return err
	})
	if err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, userID int64, key string) error {
	const q = `DELETE FROM user_meta WHERE user_id = $1 AND key = $2`
	if _, err := p.pool.Exec(ctx, q, userID, key); err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	return nil
}

func (p *Postgres) UsersWithValueContaining(ctx context.Context, key, needle string) ([]int64, error) {
	// The LIKE scan over-matches on substrings ("12" inside "112"), so
	// membership is re-checked on the exact list members after the scan.
	const q = `SELECT user_id, value FROM user_meta WHERE key = $1 AND value LIKE $2 ORDER BY user_id`
	rows, err := p.pool.Query(ctx, q, key, "%"+needle+"%")
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	defer rows.Close()

	var users []int64
	for rows.Next() {
		var userID int64
		var value string
		if err := rows.Scan(&userID, &value); err != nil {
			return nil, errors.Join(ErrQueryFailed, err)
		}
		if containsMember(value, needle) {
			users = append(users, userID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	return users, nil
}

func (p *Postgres) Roles(ctx context.Context, userID int64) ([]string, error) {
	raw, err := p.Get(ctx, userID, roleListKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return splitRoles(raw), nil
}

func (p *Postgres) SetRoles(ctx context.Context, userID int64, roles []string) error {
	return p.Set(ctx, userID, roleListKey, strings.Join(roles, ","))
}

var _ Store = (*Postgres)(nil)
