// Package forum manages forum entities: containers for topics,
// optionally nested, stored as generic content items.
//
// Forums carry denormalized topic/reply counts and freshness metadata
// maintained by Recount methods. Counts are best-effort aggregates:
// they are recomputed on defined trigger events (topic insert,
// reparent, status toggles) with no locking, so near-simultaneous
// writers can briefly undercount. That trade-off is inherited from the
// original design and left intact.
package forum

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/boardkit/boardkit/pkg/contentstore"
	"github.com/boardkit/boardkit/pkg/hook"
	"github.com/boardkit/boardkit/pkg/logger"
	"github.com/boardkit/boardkit/pkg/slug"
	"github.com/boardkit/boardkit/post"
)

var (
	// ErrNotFound is returned when the forum does not exist.
	ErrNotFound = errors.New("forum: not found")

	// ErrNotForum is returned when the item exists but is not a forum.
	ErrNotForum = errors.New("forum: item is not a forum")
)

// Service exposes forum operations over the content store.
type Service struct {
	store contentstore.Store
	log   *slog.Logger

	// Read is applied to every forum returned by Get.
	Read hook.Filter[*contentstore.Item]

	// Recounted fires after any forum counter is rewritten.
	Recounted hook.Event[Recount]
}

// Recount describes one counter rewrite for observers.
type Recount struct {
	Meta    string
	ForumID int64
	Value   int64
}

// NewService creates a forum service. A nil logger discards logs.
func NewService(store contentstore.Store, log *slog.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{store: store, log: log}
}

// New describes a forum to create.
type New struct {
	Title    string
	Content  string
	Type     string // ForumTypeForum or ForumTypeCategory; default forum
	ParentID int64  // parent forum for nesting, 0 for top level
	AuthorID int64
}

// Create inserts a forum. New forums open for posting immediately.
func (s *Service) Create(ctx context.Context, n New) (*contentstore.Item, error) {
	item := &contentstore.Item{
		Type:     post.TypeForum,
		ParentID: n.ParentID,
		AuthorID: n.AuthorID,
		Status:   post.StatusPublish,
		Title:    n.Title,
		Content:  n.Content,
		Slug:     slug.Make(n.Title),
	}
	if err := s.store.Create(ctx, item); err != nil {
		return nil, err
	}

	forumType := n.Type
	if forumType == "" {
		forumType = post.ForumTypeForum
	}
	if err := s.store.SetMeta(ctx, item.ID, post.MetaForumType, forumType); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "forum created",
		slog.Int64("forum_id", item.ID),
		slog.String("forum_type", forumType),
	)
	return item, nil
}

// Get returns a forum by ID, passing it through the Read filter.
func (s *Service) Get(ctx context.Context, id int64) (*contentstore.Item, error) {
	item, err := s.store.Get(ctx, id)
	if errors.Is(err, contentstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if item.Type != post.TypeForum {
		return nil, ErrNotForum
	}
	return s.Read.Apply(ctx, item), nil
}

// Close stops the forum from accepting new topics.
func (s *Service) Close(ctx context.Context, id int64) error {
	return s.setStatus(ctx, id, post.StatusClosed)
}

// Open reopens a closed forum.
func (s *Service) Open(ctx context.Context, id int64) error {
	return s.setStatus(ctx, id, post.StatusPublish)
}

// Archive retires the forum; archived forums reject new topics but
// keep their history readable.
func (s *Service) Archive(ctx context.Context, id int64) error {
	return s.setStatus(ctx, id, post.StatusArchived)
}

// Privatize restricts the forum, and everything under it, to readers
// with private-content access.
func (s *Service) Privatize(ctx context.Context, id int64) error {
	return s.setStatus(ctx, id, post.StatusPrivate)
}

// Hide removes the forum from public view entirely.
func (s *Service) Hide(ctx context.Context, id int64) error {
	return s.setStatus(ctx, id, post.StatusHidden)
}

func (s *Service) setStatus(ctx context.Context, id int64, status string) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	item.Status = status
	return s.store.Update(ctx, item)
}

// Type returns the forum's type tag (forum or category).
func (s *Service) Type(ctx context.Context, id int64) (string, error) {
	value, err := s.store.GetMeta(ctx, id, post.MetaForumType)
	if errors.Is(err, contentstore.ErrNotFound) {
		return post.ForumTypeForum, nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// IsCategory reports whether the forum only groups child forums.
func (s *Service) IsCategory(ctx context.Context, id int64) (bool, error) {
	t, err := s.Type(ctx, id)
	if err != nil {
		return false, err
	}
	return t == post.ForumTypeCategory, nil
}

// Topicable reports whether new topics may be created in the forum:
// it must exist, be open, and not be a category.
func (s *Service) Topicable(ctx context.Context, id int64) (bool, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotForum) {
			return false, nil
		}
		return false, err
	}
	if item.Status != post.StatusPublish {
		return false, nil
	}
	category, err := s.IsCategory(ctx, id)
	if err != nil {
		return false, err
	}
	return !category, nil
}

// Query lists forums under a parent ordered by ID. A parentID of 0
// lists the top-level forums only, not every forum at every depth.
func (s *Service) Query(ctx context.Context, parentID int64, page, perPage int) ([]*contentstore.Item, int64, error) {
	return s.store.List(ctx, contentstore.Query{
		ParentID: parentID,
		RootOnly: parentID == 0,
		Types:    []string{post.TypeForum},
		Statuses: []string{post.StatusPublish, post.StatusClosed, post.StatusArchived},
		OrderBy:  contentstore.OrderByID,
		Page:     page,
		PerPage:  perPage,
	})
}

// RecountTopics recomputes the forum's public topic count.
func (s *Service) RecountTopics(ctx context.Context, forumID int64) (int64, error) {
	count, err := s.store.CountChildren(ctx, forumID, []string{post.TypeTopic}, post.PublicTopicStatuses())
	if err != nil {
		return 0, err
	}
	if err := s.setCount(ctx, forumID, post.MetaForumTopicCount, count); err != nil {
		return 0, err
	}
	return count, nil
}

// RecountReplies recomputes the forum's reply count by summing reply
// counts over its public topics. One COUNT per topic: the same ad hoc
// shape the counters have always used.
func (s *Service) RecountReplies(ctx context.Context, forumID int64) (int64, error) {
	topics, _, err := s.store.List(ctx, contentstore.Query{
		ParentID: forumID,
		Types:    []string{post.TypeTopic},
		Statuses: post.PublicTopicStatuses(),
	})
	if err != nil {
		return 0, err
	}

	var total int64
	for _, t := range topics {
		n, err := s.store.CountChildren(ctx, t.ID, []string{post.TypeReply}, post.PublicReplyStatuses())
		if err != nil {
			return 0, err
		}
		total += n
	}
	if err := s.setCount(ctx, forumID, post.MetaForumReplyCount, total); err != nil {
		return 0, err
	}
	return total, nil
}

// RecountLatest recomputes the forum's freshness metadata: last topic
// ID and last-activity datetime. With no public topics the last-topic
// meta is deleted and activity falls back to the forum's own creation
// time.
func (s *Service) RecountLatest(ctx context.Context, forumID int64) error {
	latest, err := s.store.LatestChild(ctx, forumID, []string{post.TypeTopic}, post.PublicTopicStatuses())
	if errors.Is(err, contentstore.ErrNotFound) {
		forum, gerr := s.store.Get(ctx, forumID)
		if gerr != nil {
			return gerr
		}
		if derr := s.store.DeleteMeta(ctx, forumID, post.MetaForumLastTopicID); derr != nil {
			return derr
		}
		return s.setActivity(ctx, forumID, forum.CreatedAt)
	}
	if err != nil {
		return err
	}

	if err := s.store.SetMeta(ctx, forumID, post.MetaForumLastTopicID, strconv.FormatInt(latest.ID, 10)); err != nil {
		return err
	}

	// Prefer the topic's recorded activity over its creation time so a
	// reply on an old topic still freshens the forum.
	when := latest.CreatedAt
	if raw, err := s.store.GetMeta(ctx, latest.ID, post.MetaTopicActivityUnix); err == nil {
		if unix, perr := strconv.ParseInt(raw, 10, 64); perr == nil && unix > 0 {
			when = time.Unix(unix, 0)
		}
	}
	return s.setActivity(ctx, forumID, when)
}

// LastTopicID returns the cached last-topic pointer, 0 when unset.
func (s *Service) LastTopicID(ctx context.Context, forumID int64) int64 {
	return readCount(ctx, s.store, forumID, post.MetaForumLastTopicID)
}

// TopicCount returns the cached public topic count, 0 when unset.
func (s *Service) TopicCount(ctx context.Context, forumID int64) int64 {
	return readCount(ctx, s.store, forumID, post.MetaForumTopicCount)
}

// ReplyCount returns the cached reply count, 0 when unset.
func (s *Service) ReplyCount(ctx context.Context, forumID int64) int64 {
	return readCount(ctx, s.store, forumID, post.MetaForumReplyCount)
}

func (s *Service) setCount(ctx context.Context, forumID int64, key string, value int64) error {
	if err := s.store.SetMeta(ctx, forumID, key, strconv.FormatInt(value, 10)); err != nil {
		return err
	}
	s.Recounted.Fire(ctx, Recount{ForumID: forumID, Meta: key, Value: value})
	return nil
}

func (s *Service) setActivity(ctx context.Context, forumID int64, when time.Time) error {
	if err := s.store.SetMeta(ctx, forumID, post.MetaForumActivityTime, when.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return s.store.SetMeta(ctx, forumID, post.MetaForumActivityUnix, strconv.FormatInt(when.Unix(), 10))
}

// readCount parses an integer meta value, treating absence or junk as
// zero; downstream lookups against ID 0 return empty values, never
// errors.
func readCount(ctx context.Context, store contentstore.Store, itemID int64, key string) int64 {
	raw, err := store.GetMeta(ctx, itemID, key)
	if err != nil {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
