// Package reply manages replies: the posts inside a topic.
//
// Posting a reply is the busiest write path on a board, so Create does
// the whole fan-out in one place: insert the reply, refresh the
// topic's counters and freshness, bump the parent forum, and fire the
// Posted event that notification delivery hangs off.
package reply

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/boardkit/boardkit/forum"
	"github.com/boardkit/boardkit/pkg/contentstore"
	"github.com/boardkit/boardkit/pkg/hook"
	"github.com/boardkit/boardkit/pkg/logger"
	"github.com/boardkit/boardkit/pkg/sanitizer"
	"github.com/boardkit/boardkit/post"
	"github.com/boardkit/boardkit/topic"
)

var (
	// ErrNotFound is returned when the reply does not exist.
	ErrNotFound = errors.New("reply: not found")

	// ErrNotReply is returned when the item exists but is not a reply.
	ErrNotReply = errors.New("reply: item is not a reply")

	// ErrTopicClosed is returned when the topic does not accept replies.
	ErrTopicClosed = errors.New("reply: topic is closed")
)

// Posted describes a published reply for event subscribers.
type Posted struct {
	Reply   *contentstore.Item
	TopicID int64
	ForumID int64
}

// Service exposes reply operations.
type Service struct {
	store  contentstore.Store
	forums *forum.Service
	topics *topic.Service
	log    *slog.Logger

	// Read is applied to every reply returned by Get.
	Read hook.Filter[*contentstore.Item]

	// PostedEvent fires after a reply lands and all counters settle.
	// Subscription notification delivery subscribes here.
	PostedEvent hook.Event[Posted]
}

// NewService creates a reply service. A nil logger discards logs.
func NewService(store contentstore.Store, forums *forum.Service, topics *topic.Service, log *slog.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{store: store, forums: forums, topics: topics, log: log}
}

// New describes a reply to create.
type New struct {
	Content  string
	TopicID  int64
	AuthorID int64
	ReplyTo  int64 // optional parent reply for threading, 0 for flat

	// ByModerator posts into a closed topic. Create does no role
	// checking of its own; callers gate this on the moderate
	// capability (role.Resolver.CanPostReply grants it).
	ByModerator bool
}

// Create inserts a reply into an open topic and settles every counter
// that depends on it: topic reply count, voices, freshness, and the
// parent forum's aggregates. The Posted event fires last, after the
// data is consistent.
func (s *Service) Create(ctx context.Context, n New) (*contentstore.Item, error) {
	tp, err := s.topics.Get(ctx, n.TopicID)
	if err != nil {
		return nil, err
	}
	switch {
	case tp.Status == post.StatusPublish:
	case tp.Status == post.StatusClosed && n.ByModerator:
	default:
		return nil, ErrTopicClosed
	}
	if n.ReplyTo != 0 {
		parent, err := s.Get(ctx, n.ReplyTo)
		if err != nil {
			return nil, err
		}
		if parent.ParentID != n.TopicID {
			return nil, ErrNotReply
		}
	}

	now := time.Now()
	item := &contentstore.Item{
		Type:     post.TypeReply,
		ParentID: n.TopicID,
		AuthorID: n.AuthorID,
		Status:   post.StatusPublish,
		Content:  sanitizer.SanitizeHTML(n.Content),
		Position: now.Unix(),
	}
	if err := s.store.Create(ctx, item); err != nil {
		return nil, err
	}
	if n.ReplyTo != 0 {
		if err := s.store.SetMeta(ctx, item.ID, metaReplyTo, strconv.FormatInt(n.ReplyTo, 10)); err != nil {
			return nil, err
		}
	}

	if err := s.settle(ctx, n.TopicID, tp.ParentID); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "reply posted",
		slog.Int64("reply_id", item.ID),
		slog.Int64("topic_id", n.TopicID),
		slog.Int64("author_id", n.AuthorID),
	)
	s.PostedEvent.Fire(ctx, Posted{Reply: item, TopicID: n.TopicID, ForumID: tp.ParentID})
	return item, nil
}

// metaReplyTo threads a reply under another reply in the same topic.
const metaReplyTo = "_reply_to"

// Get returns a reply by ID, passing it through the Read filter.
func (s *Service) Get(ctx context.Context, id int64) (*contentstore.Item, error) {
	item, err := s.store.Get(ctx, id)
	if errors.Is(err, contentstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if item.Type != post.TypeReply {
		return nil, ErrNotReply
	}
	return s.Read.Apply(ctx, item), nil
}

// ReplyTo returns the threaded parent reply ID, 0 for flat replies.
func (s *Service) ReplyTo(ctx context.Context, id int64) int64 {
	raw, err := s.store.GetMeta(ctx, id, metaReplyTo)
	if err != nil {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Spam marks the reply as spam and resettles the counters it was part
// of.
func (s *Service) Spam(ctx context.Context, id int64) error {
	return s.setStatus(ctx, id, post.StatusSpam)
}

// Unspam restores a spammed reply.
func (s *Service) Unspam(ctx context.Context, id int64) error {
	return s.setStatus(ctx, id, post.StatusPublish)
}

// Trash soft-deletes the reply.
func (s *Service) Trash(ctx context.Context, id int64) error {
	return s.setStatus(ctx, id, post.StatusTrash)
}

func (s *Service) setStatus(ctx context.Context, id int64, status string) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if item.Status == status {
		return nil
	}
	item.Status = status
	if err := s.store.Update(ctx, item); err != nil {
		return err
	}

	tp, err := s.topics.Get(ctx, item.ParentID)
	if err != nil {
		return err
	}
	return s.settle(ctx, tp.ID, tp.ParentID)
}

// Delete removes the reply outright and resettles counters.
func (s *Service) Delete(ctx context.Context, id int64) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	tp, err := s.topics.Get(ctx, item.ParentID)
	if err != nil {
		return err
	}
	return s.settle(ctx, tp.ID, tp.ParentID)
}

// settle recomputes every aggregate a reply change can move. The topic
// first, then the forum, so the forum's freshness read sees the
// topic's new activity meta.
func (s *Service) settle(ctx context.Context, topicID, forumID int64) error {
	if _, err := s.topics.RecountReplies(ctx, topicID); err != nil {
		return err
	}
	if _, err := s.topics.RecountVoices(ctx, topicID); err != nil {
		return err
	}
	if err := s.topics.RecountLatest(ctx, topicID); err != nil {
		return err
	}
	// Listing position follows the recomputed activity, so losing the
	// last reply sinks the topic back down.
	if raw, err := s.store.GetMeta(ctx, topicID, post.MetaTopicActivityUnix); err == nil {
		if unix, perr := strconv.ParseInt(raw, 10, 64); perr == nil && unix > 0 {
			if err := s.topics.Touch(ctx, topicID, time.Unix(unix, 0)); err != nil {
				return err
			}
		}
	}
	if forumID == 0 {
		return nil
	}
	if _, err := s.forums.RecountReplies(ctx, forumID); err != nil {
		return err
	}
	return s.forums.RecountLatest(ctx, forumID)
}

// List returns a page of a topic's public replies in posting order.
func (s *Service) List(ctx context.Context, topicID int64, page, perPage int) ([]*contentstore.Item, int64, error) {
	return s.store.List(ctx, contentstore.Query{
		ParentID: topicID,
		Types:    []string{post.TypeReply},
		Statuses: post.PublicReplyStatuses(),
		OrderBy:  contentstore.OrderByID,
		Page:     page,
		PerPage:  perPage,
	})
}
