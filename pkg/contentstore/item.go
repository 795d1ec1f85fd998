package contentstore

import (
	"context"
	"time"
)

// Item is a generic content row. Forums, topics and replies are all
// Items distinguished by the Type tag; hierarchy is expressed through
// ParentID (topic→forum, reply→topic).
type Item struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	Type      string // entity tag, required
	Status    string
	Title     string
	Content   string
	Slug      string
	ID        int64
	ParentID  int64
	AuthorID  int64
	Position  int64 // activity epoch used for ordering listings
}

// Order selects the sort column for List.
type Order string

const (
	OrderByID       Order = "id"
	OrderByCreated  Order = "created_at"
	OrderByPosition Order = "position"
)

// Query filters and pages a listing. Zero values mean "no constraint".
type Query struct {
	Types      []string
	Statuses   []string
	In         []int64 // restrict to these IDs (sticky lists)
	NotIn      []int64
	OrderBy    Order
	Search     string // substring match on title
	ParentID   int64
	RootOnly   bool // match only parentless items; ParentID 0 alone means "any parent"
	AuthorID   int64
	Page       int // 1-based; 0 means page 1
	PerPage    int // 0 means no limit
	Descending bool
}

func (q Query) offset() int {
	if q.Page <= 1 || q.PerPage <= 0 {
		return 0
	}
	return (q.Page - 1) * q.PerPage
}

// Store is the host-storage surface the engine depends on.
//
// Meta keys may hold multiple values per item (AddMeta); SetMeta
// collapses the key to a single value. Get-style methods return
// ErrNotFound rather than zero rows.
type Store interface {
	// Create inserts the item and assigns ID, CreatedAt and UpdatedAt.
	Create(ctx context.Context, item *Item) error

	// Get retrieves an item by ID.
	Get(ctx context.Context, id int64) (*Item, error)

	// Update overwrites a stored item and bumps UpdatedAt.
	Update(ctx context.Context, item *Item) error

	// Delete removes the item and all its metadata.
	Delete(ctx context.Context, id int64) error

	// List returns matching items and the total match count before
	// pagination.
	List(ctx context.Context, q Query) ([]*Item, int64, error)

	// CountChildren counts items under parentID restricted by type and
	// status allow-lists.
	CountChildren(ctx context.Context, parentID int64, types, statuses []string) (int64, error)

	// CountByAuthor counts items authored by authorID restricted by
	// type and status allow-lists.
	CountByAuthor(ctx context.Context, authorID int64, types, statuses []string) (int64, error)

	// DistinctAuthors returns the distinct author IDs of matching
	// children, in first-posted order.
	DistinctAuthors(ctx context.Context, parentID int64, types, statuses []string) ([]int64, error)

	// LatestChild returns the most recently created matching child, or
	// ErrNotFound when there is none.
	LatestChild(ctx context.Context, parentID int64, types, statuses []string) (*Item, error)

	// GetMeta returns the single (first) value stored under key.
	GetMeta(ctx context.Context, itemID int64, key string) (string, error)

	// SetMeta replaces all values under key with one value.
	SetMeta(ctx context.Context, itemID int64, key, value string) error

	// AddMeta appends a value under key, keeping existing values.
	AddMeta(ctx context.Context, itemID int64, key, value string) error

	// GetAllMeta returns every value stored under key, in insert order.
	GetAllMeta(ctx context.Context, itemID int64, key string) ([]string, error)

	// DeleteMeta removes every value under key. Deleting an absent key
	// is not an error.
	DeleteMeta(ctx context.Context, itemID int64, key string) error
}
