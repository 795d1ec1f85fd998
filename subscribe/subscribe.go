// Package subscribe manages per-user subscription and bookmark lists
// and the email fan-out that fires when a subscribed topic gets a
// reply.
//
// Lists are stored on the user-meta table as comma-joined ID strings
// (pkg/idset). The reverse question, "who subscribes to topic X",
// requires scanning those lists, so answers are cached with a short
// TTL and invalidated on every list write.
package subscribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/boardkit/boardkit/pkg/cache"
	"github.com/boardkit/boardkit/pkg/idset"
	"github.com/boardkit/boardkit/pkg/logger"
	"github.com/boardkit/boardkit/pkg/usermeta"
	"github.com/boardkit/boardkit/post"
)

// ErrInvalidID is returned for non-positive user or item IDs.
var ErrInvalidID = errors.New("subscribe: invalid id")

// subscribersTTL bounds staleness of the cached reverse index; list
// writes invalidate eagerly, the TTL only covers out-of-band edits.
const subscribersTTL = 5 * time.Minute

// Service manages subscription and bookmark lists.
type Service struct {
	meta  usermeta.Store
	index cache.Cache[[]int64]
	log   *slog.Logger
}

// NewService creates a subscription service. A nil cache falls back to
// an in-process one; a nil logger discards logs.
func NewService(meta usermeta.Store, index cache.Cache[[]int64], log *slog.Logger) *Service {
	if index == nil {
		index = cache.NewMemory[[]int64]()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Service{meta: meta, index: index, log: log}
}

// SubscribeTopic adds the topic to the user's subscription list.
// Reports whether the list changed; subscribing twice is a no-op.
func (s *Service) SubscribeTopic(ctx context.Context, userID, topicID int64) (bool, error) {
	return s.add(ctx, userID, post.MetaUserTopicSubscriptions, topicID)
}

// UnsubscribeTopic removes the topic from the user's list.
func (s *Service) UnsubscribeTopic(ctx context.Context, userID, topicID int64) (bool, error) {
	return s.remove(ctx, userID, post.MetaUserTopicSubscriptions, topicID)
}

// IsSubscribedTopic reports whether the user subscribes to the topic.
func (s *Service) IsSubscribedTopic(ctx context.Context, userID, topicID int64) (bool, error) {
	return s.contains(ctx, userID, post.MetaUserTopicSubscriptions, topicID)
}

// TopicSubscriptions returns the user's subscribed topic IDs in
// subscription order.
func (s *Service) TopicSubscriptions(ctx context.Context, userID int64) ([]int64, error) {
	return s.list(ctx, userID, post.MetaUserTopicSubscriptions)
}

// SubscribeForum adds the forum to the user's forum subscriptions.
func (s *Service) SubscribeForum(ctx context.Context, userID, forumID int64) (bool, error) {
	return s.add(ctx, userID, post.MetaUserForumSubscriptions, forumID)
}

// UnsubscribeForum removes the forum from the user's list.
func (s *Service) UnsubscribeForum(ctx context.Context, userID, forumID int64) (bool, error) {
	return s.remove(ctx, userID, post.MetaUserForumSubscriptions, forumID)
}

// IsSubscribedForum reports whether the user subscribes to the forum.
func (s *Service) IsSubscribedForum(ctx context.Context, userID, forumID int64) (bool, error) {
	return s.contains(ctx, userID, post.MetaUserForumSubscriptions, forumID)
}

// ForumSubscriptions returns the user's subscribed forum IDs.
func (s *Service) ForumSubscriptions(ctx context.Context, userID int64) ([]int64, error) {
	return s.list(ctx, userID, post.MetaUserForumSubscriptions)
}

// Bookmark adds the topic to the user's bookmark list. Bookmarks are
// private markers; nothing is ever sent for them.
func (s *Service) Bookmark(ctx context.Context, userID, topicID int64) (bool, error) {
	return s.add(ctx, userID, post.MetaUserTopicBookmarks, topicID)
}

// Unbookmark removes the topic from the user's bookmark list.
func (s *Service) Unbookmark(ctx context.Context, userID, topicID int64) (bool, error) {
	return s.remove(ctx, userID, post.MetaUserTopicBookmarks, topicID)
}

// IsBookmarked reports whether the user bookmarked the topic.
func (s *Service) IsBookmarked(ctx context.Context, userID, topicID int64) (bool, error) {
	return s.contains(ctx, userID, post.MetaUserTopicBookmarks, topicID)
}

// Bookmarks returns the user's bookmarked topic IDs.
func (s *Service) Bookmarks(ctx context.Context, userID int64) ([]int64, error) {
	return s.list(ctx, userID, post.MetaUserTopicBookmarks)
}

// TopicSubscribers returns the IDs of users subscribed to the topic,
// served from the cached reverse index.
func (s *Service) TopicSubscribers(ctx context.Context, topicID int64) ([]int64, error) {
	return s.subscribers(ctx, post.MetaUserTopicSubscriptions, topicID)
}

// ForumSubscribers returns the IDs of users subscribed to the forum.
func (s *Service) ForumSubscribers(ctx context.Context, forumID int64) ([]int64, error) {
	return s.subscribers(ctx, post.MetaUserForumSubscriptions, forumID)
}

func (s *Service) subscribers(ctx context.Context, key string, id int64) ([]int64, error) {
	return cache.GetOrSet(ctx, s.index, indexKey(key, id), func(ctx context.Context) ([]int64, time.Duration, error) {
		users, err := s.meta.UsersWithValueContaining(ctx, key, strconv.FormatInt(id, 10))
		if err != nil {
			return nil, 0, err
		}
		return users, subscribersTTL, nil
	})
}

func (s *Service) add(ctx context.Context, userID int64, key string, id int64) (bool, error) {
	if userID <= 0 || id <= 0 {
		return false, ErrInvalidID
	}
	set, err := s.load(ctx, userID, key)
	if err != nil {
		return false, err
	}
	if !set.Add(id) {
		return false, nil
	}
	if err := s.meta.Set(ctx, userID, key, set.String()); err != nil {
		return false, err
	}
	s.invalidate(ctx, key, id)
	return true, nil
}

func (s *Service) remove(ctx context.Context, userID int64, key string, id int64) (bool, error) {
	if userID <= 0 || id <= 0 {
		return false, ErrInvalidID
	}
	set, err := s.load(ctx, userID, key)
	if err != nil {
		return false, err
	}
	if !set.Remove(id) {
		return false, nil
	}
	if set.Empty() {
		err = s.meta.Delete(ctx, userID, key)
	} else {
		err = s.meta.Set(ctx, userID, key, set.String())
	}
	if err != nil {
		return false, err
	}
	s.invalidate(ctx, key, id)
	return true, nil
}

func (s *Service) contains(ctx context.Context, userID int64, key string, id int64) (bool, error) {
	set, err := s.load(ctx, userID, key)
	if err != nil {
		return false, err
	}
	return set.Contains(id), nil
}

func (s *Service) list(ctx context.Context, userID int64, key string) ([]int64, error) {
	set, err := s.load(ctx, userID, key)
	if err != nil {
		return nil, err
	}
	return set.IDs(), nil
}

func (s *Service) load(ctx context.Context, userID int64, key string) (*idset.Set, error) {
	raw, err := s.meta.Get(ctx, userID, key)
	if errors.Is(err, usermeta.ErrNotFound) {
		return idset.New(), nil
	}
	if err != nil {
		return nil, err
	}
	return idset.Parse(raw), nil
}

func (s *Service) invalidate(ctx context.Context, key string, id int64) {
	if err := s.index.Delete(ctx, indexKey(key, id)); err != nil {
		s.log.WarnContext(ctx, "subscriber index invalidation failed",
			slog.String("key", indexKey(key, id)),
			slog.Any("error", err),
		)
	}
}

func indexKey(key string, id int64) string {
	return fmt.Sprintf("subscribers:%s:%d", key, id)
}
