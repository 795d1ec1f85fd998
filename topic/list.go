package topic

import (
	"context"

	"github.com/boardkit/boardkit/pkg/contentstore"
	"github.com/boardkit/boardkit/pkg/idset"
	"github.com/boardkit/boardkit/pkg/pagination"
	"github.com/boardkit/boardkit/post"
)

// ListParams selects a page of topics.
type ListParams struct {
	Search   string
	ForumID  int64 // 0 lists across all forums
	Page     int
	PerPage  int
	NoSticky bool // suppress sticky floating (feeds, searches)
}

// Page is one page of topics plus the page math callers render from.
type Page struct {
	Items      []*contentstore.Item
	Total      int64
	Page       int
	PerPage    int
	TotalPages int
}

// List returns topics ordered by latest activity, newest first. On the
// first page, super stickies and (when scoped to a forum) that forum's
// stickies float to the front in list order; they are excluded from
// later pages so a topic never appears twice.
func (s *Service) List(ctx context.Context, p ListParams) (*Page, error) {
	params := pagination.Normalize(p.Page, p.PerPage, 0)

	stuck := idset.New()
	if !p.NoSticky && p.Search == "" {
		super, err := s.SuperStickies(ctx)
		if err != nil {
			return nil, err
		}
		for _, id := range super {
			stuck.Add(id)
		}
		if p.ForumID != 0 {
			ids, err := s.Stickies(ctx)
			if err != nil {
				return nil, err
			}
			for _, id := range ids {
				if ok, err := s.inForum(ctx, id, p.ForumID); err != nil {
					return nil, err
				} else if ok {
					stuck.Add(id)
				}
			}
		}
	}

	items, total, err := s.store.List(ctx, contentstore.Query{
		ParentID:   p.ForumID,
		Types:      []string{post.TypeTopic},
		Statuses:   post.PublicTopicStatuses(),
		NotIn:      stuck.IDs(),
		Search:     p.Search,
		OrderBy:    contentstore.OrderByPosition,
		Descending: true,
		Page:       params.Page,
		PerPage:    params.PerPage,
	})
	if err != nil {
		return nil, err
	}

	// Total counts resolved stickies on every page, not raw list
	// membership, so stale IDs do not skew the page math between pages.
	if !stuck.Empty() {
		front, err := s.resolveStickies(ctx, stuck.IDs())
		if err != nil {
			return nil, err
		}
		total += int64(len(front))
		if params.Page == 1 {
			items = append(front, items...)
		}
	}

	return &Page{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: pagination.TotalPages(total, params.PerPage),
	}, nil
}

// resolveStickies loads sticky topics in list order, silently dropping
// entries that no longer resolve to a public topic. Stale IDs linger
// on the lists when topics are deleted out of band.
func (s *Service) resolveStickies(ctx context.Context, ids []int64) ([]*contentstore.Item, error) {
	out := make([]*contentstore.Item, 0, len(ids))
	for _, id := range ids {
		item, err := s.Get(ctx, id)
		if err != nil {
			continue
		}
		if item.Status != post.StatusPublish && item.Status != post.StatusClosed {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *Service) inForum(ctx context.Context, topicID, forumID int64) (bool, error) {
	item, err := s.Get(ctx, topicID)
	if err != nil {
		return false, nil
	}
	return item.ParentID == forumID, nil
}
