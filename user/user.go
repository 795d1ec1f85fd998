// Package user maintains per-user board counters.
//
// Topic and reply counts hang off the user-meta table so profile
// pages render without counting rows. Like the topic and forum
// counters they are best-effort: recomputed on posting events, read
// back leniently.
package user

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/boardkit/boardkit/pkg/contentstore"
	"github.com/boardkit/boardkit/pkg/logger"
	"github.com/boardkit/boardkit/pkg/usermeta"
	"github.com/boardkit/boardkit/post"
)

// ErrInvalidUser is returned for non-positive user IDs.
var ErrInvalidUser = errors.New("user: invalid user id")

// Service maintains per-user counters.
type Service struct {
	store contentstore.Store
	meta  usermeta.Store
	log   *slog.Logger
}

// NewService creates a user counter service. A nil logger discards
// logs.
func NewService(store contentstore.Store, meta usermeta.Store, log *slog.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{store: store, meta: meta, log: log}
}

// RecountTopics recomputes the user's public topic count.
func (s *Service) RecountTopics(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, ErrInvalidUser
	}
	count, err := s.store.CountByAuthor(ctx, userID, []string{post.TypeTopic}, post.PublicTopicStatuses())
	if err != nil {
		return 0, err
	}
	if err := s.meta.Set(ctx, userID, post.MetaUserTopicCount, strconv.FormatInt(count, 10)); err != nil {
		return 0, err
	}
	return count, nil
}

// RecountReplies recomputes the user's public reply count.
func (s *Service) RecountReplies(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, ErrInvalidUser
	}
	count, err := s.store.CountByAuthor(ctx, userID, []string{post.TypeReply}, post.PublicReplyStatuses())
	if err != nil {
		return 0, err
	}
	if err := s.meta.Set(ctx, userID, post.MetaUserReplyCount, strconv.FormatInt(count, 10)); err != nil {
		return 0, err
	}
	return count, nil
}

// TopicCount returns the cached topic count, 0 when unset.
func (s *Service) TopicCount(ctx context.Context, userID int64) int64 {
	return s.readCount(ctx, userID, post.MetaUserTopicCount)
}

// ReplyCount returns the cached reply count, 0 when unset.
func (s *Service) ReplyCount(ctx context.Context, userID int64) int64 {
	return s.readCount(ctx, userID, post.MetaUserReplyCount)
}

// PostCount returns topics plus replies, the number profiles show.
func (s *Service) PostCount(ctx context.Context, userID int64) int64 {
	return s.TopicCount(ctx, userID) + s.ReplyCount(ctx, userID)
}

func (s *Service) readCount(ctx context.Context, userID int64, key string) int64 {
	raw, err := s.meta.Get(ctx, userID, key)
	if err != nil {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
