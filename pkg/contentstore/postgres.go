package contentstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/boardkit/boardkit/pkg/db"
)

// Postgres implements Store on a pgx connection pool.
// Schema is managed by the migrations in migrations/ (see pkg/db).
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres-backed store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const itemColumns = "id, type, parent_id, author_id, status, title, content, slug, position, created_at, updated_at"

func scanItem(row pgx.Row) (*Item, error) {
	var item Item
	err := row.Scan(
		&item.ID, &item.Type, &item.ParentID, &item.AuthorID, &item.Status,
		&item.Title, &item.Content, &item.Slug, &item.Position,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	return &item, nil
}

func (p *Postgres) Create(ctx context.Context, item *Item) error {
	if item == nil || item.Type == "" {
		return ErrInvalidItem
	}
	const q = `INSERT INTO content_items (type, parent_id, author_id, status, title, content, slug, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	err := p.pool.QueryRow(ctx, q,
		item.Type, item.ParentID, item.AuthorID, item.Status,
		item.Title, item.Content, item.Slug, item.Position,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id int64) (*Item, error) {
	q := "SELECT " + itemColumns + " FROM content_items WHERE id = $1"
	return scanItem(p.pool.QueryRow(ctx, q, id))
}

func (p *Postgres) Update(ctx context.Context, item *Item) error {
	if item == nil || item.Type == "" {
		return ErrInvalidItem
	}
	const q = `UPDATE content_items
		SET type = $2, parent_id = $3, author_id = $4, status = $5,
		    title = $6, content = $7, slug = $8, position = $9, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`
	err := p.pool.QueryRow(ctx, q,
		item.ID, item.Type, item.ParentID, item.AuthorID, item.Status,
		item.Title, item.Content, item.Slug, item.Position,
	).Scan(&item.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, id int64) error {
	tag, err := p.pool.Exec(ctx, "DELETE FROM content_items WHERE id = $1", id)
	if err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	// Meta rows cascade via the schema's FK.
	return nil
}

func (p *Postgres) List(ctx context.Context, q Query) ([]*Item, int64, error) {
	where, args := buildWhere(q)

	var total int64
	countSQL := "SELECT count(*) FROM content_items" + where
	if err := p.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, errors.Join(ErrQueryFailed, err)
	}

	order := q.OrderBy
	switch order {
	case OrderByCreated, OrderByPosition, OrderByID:
	default:
		order = OrderByID
	}
	dir := "ASC"
	if q.Descending {
		dir = "DESC"
	}

	listSQL := fmt.Sprintf("SELECT %s FROM content_items%s ORDER BY %s %s, id %s",
		itemColumns, where, order, dir, dir)
	if q.PerPage > 0 {
		listSQL += fmt.Sprintf(" LIMIT %d OFFSET %d", q.PerPage, q.offset())
	}

	rows, err := p.pool.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, errors.Join(ErrQueryFailed, err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Join(ErrQueryFailed, err)
	}
	return items, total, nil
}

func buildWhere(q Query) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if q.RootOnly {
		conds = append(conds, "parent_id = 0")
	}
	if q.ParentID != 0 {
		add("parent_id = $%d", q.ParentID)
	}
	if q.AuthorID != 0 {
		add("author_id = $%d", q.AuthorID)
	}
	if len(q.Types) > 0 {
		add("type = ANY($%d)", q.Types)
	}
	if len(q.Statuses) > 0 {
		add("status = ANY($%d)", q.Statuses)
	}
	if len(q.In) > 0 {
		add("id = ANY($%d)", q.In)
	}
	if len(q.NotIn) > 0 {
		add("NOT (id = ANY($%d))", q.NotIn)
	}
	if q.Search != "" {
		add("title ILIKE $%d", "%"+q.Search+"%")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func childFilter(parentID int64, types, statuses []string) (string, []any) {
	cond := "parent_id = $1"
	args := []any{parentID}
	if len(types) > 0 {
		args = append(args, types)
		cond += fmt.Sprintf(" AND type = ANY($%d)", len(args))
	}
	if len(statuses) > 0 {
		args = append(args, statuses)
		cond += fmt.Sprintf(" AND status = ANY($%d)", len(args))
	}
	return cond, args
}

func (p *Postgres) CountChildren(ctx context.Context, parentID int64, types, statuses []string) (int64, error) {
	cond, args := childFilter(parentID, types, statuses)
	var n int64
	err := p.pool.QueryRow(ctx, "SELECT count(*) FROM content_items WHERE "+cond, args...).Scan(&n)
	if err != nil {
		return 0, errors.Join(ErrQueryFailed, err)
	}
	return n, nil
}

func (p *Postgres) CountByAuthor(ctx context.Context, authorID int64, types, statuses []string) (int64, error) {
	cond, args := childFilter(authorID, types, statuses)
	cond = strings.Replace(cond, "parent_id", "author_id", 1)
	var n int64
	err := p.pool.QueryRow(ctx, "SELECT count(*) FROM content_items WHERE "+cond, args...).Scan(&n)
	if err != nil {
		return 0, errors.Join(ErrQueryFailed, err)
	}
	return n, nil
}

func (p *Postgres) DistinctAuthors(ctx context.Context, parentID int64, types, statuses []string) ([]int64, error) {
	cond, args := childFilter(parentID, types, statuses)
	q := "SELECT author_id FROM content_items WHERE " + cond +
		" GROUP BY author_id ORDER BY min(id)"
	rows, err := p.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	defer rows.Close()

	var authors []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Join(ErrQueryFailed, err)
		}
		authors = append(authors, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	return authors, nil
}

func (p *Postgres) LatestChild(ctx context.Context, parentID int64, types, statuses []string) (*Item, error) {
	cond, args := childFilter(parentID, types, statuses)
	q := "SELECT " + itemColumns + " FROM content_items WHERE " + cond +
		" ORDER BY id DESC LIMIT 1"
	return scanItem(p.pool.QueryRow(ctx, q, args...))
}

func (p *Postgres) GetMeta(ctx context.Context, itemID int64, key string) (string, error) {
	const q = `SELECT value FROM content_meta WHERE item_id = $1 AND key = $2 ORDER BY id LIMIT 1`
	var value string
	err := p.pool.QueryRow(ctx, q, itemID, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", errors.Join(ErrQueryFailed, err)
	}
	return value, nil
}

func (p *Postgres) SetMeta(ctx context.Context, itemID int64, key, value string) error {
	// Replace-all rather than upsert: the key may hold multiple rows.
	// The transaction keeps readers from seeing the key missing between
	// the delete and the insert.
	err := db.WithTx(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM content_meta WHERE item_id = $1 AND key = $2", itemID, key); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, "INSERT INTO content_meta (item_id, key, value) VALUES ($1, $2, $3)", itemID, key, value)
		return err
	})
	if err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	return nil
}

func (p *Postgres) AddMeta(ctx context.Context, itemID int64, key, value string) error {
	const q = `INSERT INTO content_meta (item_id, key, value) VALUES ($1, $2, $3)`
	if _, err := p.pool.Exec(ctx, q, itemID, key, value); err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	return nil
}

func (p *Postgres) GetAllMeta(ctx context.Context, itemID int64, key string) ([]string, error) {
	const q = `SELECT value FROM content_meta WHERE item_id = $1 AND key = $2 ORDER BY id`
	rows, err := p.pool.Query(ctx, q, itemID, key)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Join(ErrQueryFailed, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	return values, nil
}

func (p *Postgres) DeleteMeta(ctx context.Context, itemID int64, key string) error {
	const q = `DELETE FROM content_meta WHERE item_id = $1 AND key = $2`
	if _, err := p.pool.Exec(ctx, q, itemID, key); err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	return nil
}

var _ Store = (*Postgres)(nil)
