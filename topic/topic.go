// Package topic manages discussion topics: the threads users open
// inside forums and reply to.
//
// A topic is a generic content item parented to a forum. The package
// owns topic lifecycle (create, reparent, open/close, spam, hide),
// denormalized counters (reply count, voice count, freshness) and the
// two global sticky lists. Counters follow the same best-effort
// read-then-overwrite discipline as forum counters.
package topic

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/boardkit/boardkit/forum"
	"github.com/boardkit/boardkit/pkg/contentstore"
	"github.com/boardkit/boardkit/pkg/hook"
	"github.com/boardkit/boardkit/pkg/idset"
	"github.com/boardkit/boardkit/pkg/logger"
	"github.com/boardkit/boardkit/pkg/optionstore"
	"github.com/boardkit/boardkit/pkg/sanitizer"
	"github.com/boardkit/boardkit/pkg/slug"
	"github.com/boardkit/boardkit/post"
)

var (
	// ErrNotFound is returned when the topic does not exist.
	ErrNotFound = errors.New("topic: not found")

	// ErrNotTopic is returned when the item exists but is not a topic.
	ErrNotTopic = errors.New("topic: item is not a topic")

	// ErrNoForum is returned when a topic has no target forum and no
	// default forum is configured.
	ErrNoForum = errors.New("topic: no forum given and no default forum configured")

	// ErrForumClosed is returned when the target forum does not accept
	// new topics.
	ErrForumClosed = errors.New("topic: forum does not accept new topics")
)

// Service exposes topic operations.
type Service struct {
	store   contentstore.Store
	options optionstore.Store
	forums  *forum.Service
	log     *slog.Logger

	// Read is applied to every topic returned by Get.
	Read hook.Filter[*contentstore.Item]

	// Created fires after a topic is inserted and its parent forum
	// recounted.
	Created hook.Event[*contentstore.Item]
}

// NewService creates a topic service. A nil logger discards logs.
func NewService(store contentstore.Store, options optionstore.Store, forums *forum.Service, log *slog.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{store: store, options: options, forums: forums, log: log}
}

// New describes a topic to create.
type New struct {
	Title    string
	Content  string
	Type     string // registered topic type; default TypeNormal
	ForumID  int64  // 0 falls back to the configured default forum
	AuthorID int64
}

// Create inserts a topic and refreshes its forum's counters. A zero
// ForumID falls back to the default forum option; with neither the
// create is rejected rather than orphaning the topic.
func (s *Service) Create(ctx context.Context, n New) (*contentstore.Item, error) {
	forumID := n.ForumID
	if forumID == 0 {
		var err error
		forumID, err = s.defaultForum(ctx)
		if err != nil {
			return nil, err
		}
	}

	ok, err := s.forums.Topicable(ctx, forumID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForumClosed
	}

	now := time.Now()
	item := &contentstore.Item{
		Type:     post.TypeTopic,
		ParentID: forumID,
		AuthorID: n.AuthorID,
		Status:   post.StatusPublish,
		Title:    sanitizer.PlainText(n.Title),
		Content:  sanitizer.SanitizeHTML(n.Content),
		Slug:     slug.MakeWithFallback(n.Title, "topic"),
		Position: now.Unix(),
	}
	if err := s.store.Create(ctx, item); err != nil {
		return nil, err
	}

	topicType := n.Type
	if topicType == "" {
		topicType = TypeNormal
	}
	if err := s.setType(ctx, item.ID, topicType); err != nil {
		return nil, err
	}
	if err := s.setActivity(ctx, item.ID, item.CreatedAt); err != nil {
		return nil, err
	}

	if err := s.refreshForum(ctx, forumID); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "topic created",
		slog.Int64("topic_id", item.ID),
		slog.Int64("forum_id", forumID),
		slog.Int64("author_id", n.AuthorID),
	)
	s.Created.Fire(ctx, item)
	return item, nil
}

func (s *Service) defaultForum(ctx context.Context) (int64, error) {
	raw, err := s.options.Get(ctx, post.OptionDefaultForum)
	if err != nil {
		return 0, ErrNoForum
	}
	id, perr := strconv.ParseInt(raw, 10, 64)
	if perr != nil || id <= 0 {
		return 0, ErrNoForum
	}
	return id, nil
}

// Get returns a topic by ID, passing it through the Read filter.
func (s *Service) Get(ctx context.Context, id int64) (*contentstore.Item, error) {
	item, err := s.store.Get(ctx, id)
	if errors.Is(err, contentstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if item.Type != post.TypeTopic {
		return nil, ErrNotTopic
	}
	return s.Read.Apply(ctx, item), nil
}

// ForumID returns the topic's parent forum ID.
func (s *Service) ForumID(ctx context.Context, id int64) (int64, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return item.ParentID, nil
}

// Reparent moves the topic to another forum and refreshes counters on
// both the old and the new forum.
func (s *Service) Reparent(ctx context.Context, topicID, forumID int64) error {
	item, err := s.Get(ctx, topicID)
	if err != nil {
		return err
	}
	if item.ParentID == forumID {
		return nil
	}
	if _, err := s.forums.Get(ctx, forumID); err != nil {
		return err
	}

	oldForum := item.ParentID
	item.ParentID = forumID
	if err := s.store.Update(ctx, item); err != nil {
		return err
	}

	if oldForum != 0 {
		if err := s.refreshForum(ctx, oldForum); err != nil {
			return err
		}
	}
	if err := s.refreshForum(ctx, forumID); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "topic moved",
		slog.Int64("topic_id", topicID),
		slog.Int64("from_forum", oldForum),
		slog.Int64("to_forum", forumID),
	)
	return nil
}

// Close stops the topic from accepting new replies.
func (s *Service) Close(ctx context.Context, id int64) error {
	return s.setStatus(ctx, id, post.StatusClosed)
}

// Open reopens a closed topic.
func (s *Service) Open(ctx context.Context, id int64) error {
	return s.setStatus(ctx, id, post.StatusPublish)
}

// Spam marks the topic as spam, removing it from public listings,
// counters and both sticky lists.
func (s *Service) Spam(ctx context.Context, id int64) error {
	if err := s.Unstick(ctx, id); err != nil {
		return err
	}
	return s.setStatus(ctx, id, post.StatusSpam)
}

// Unspam restores a spammed topic to the open state. The pre-spam
// sticky placement is not restored.
func (s *Service) Unspam(ctx context.Context, id int64) error {
	return s.setStatus(ctx, id, post.StatusPublish)
}

// Hide removes the topic from regular listings without deleting it.
func (s *Service) Hide(ctx context.Context, id int64) error {
	return s.setStatus(ctx, id, post.StatusHidden)
}

// Privatize restricts the topic to readers with private-content
// access.
func (s *Service) Privatize(ctx context.Context, id int64) error {
	return s.setStatus(ctx, id, post.StatusPrivate)
}

// Type returns the topic's type tag, defaulting to TypeNormal when
// the meta was never written.
func (s *Service) Type(ctx context.Context, id int64) string {
	raw, err := s.store.GetMeta(ctx, id, post.MetaTopicType)
	if err != nil {
		return TypeNormal
	}
	return raw
}

func (s *Service) setType(ctx context.Context, topicID int64, name string) error {
	return s.store.SetMeta(ctx, topicID, post.MetaTopicType, name)
}

// IsOrphan reports whether the topic sits outside any forum. Orphans
// show up when a forum is deleted out from under its topics.
func (s *Service) IsOrphan(ctx context.Context, id int64) (bool, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return item.ParentID == 0, nil
}

// Trash soft-deletes the topic. Trashed topics drop out of counts and
// sticky lists but keep their rows for restore.
func (s *Service) Trash(ctx context.Context, id int64) error {
	if err := s.Unstick(ctx, id); err != nil {
		return err
	}
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
	// Status moves change what counts as public, so the parent forum's
	// aggregates are stale until refreshed.
	if item.ParentID != 0 {
		return s.refreshForum(ctx, item.ParentID)
	}
	return nil
}

func (s *Service) refreshForum(ctx context.Context, forumID int64) error {
	if _, err := s.forums.RecountTopics(ctx, forumID); err != nil {
		return err
	}
	if _, err := s.forums.RecountReplies(ctx, forumID); err != nil {
		return err
	}
	return s.forums.RecountLatest(ctx, forumID)
}

// RecountReplies recomputes the topic's public reply count.
func (s *Service) RecountReplies(ctx context.Context, topicID int64) (int64, error) {
	count, err := s.store.CountChildren(ctx, topicID, []string{post.TypeReply}, post.PublicReplyStatuses())
	if err != nil {
		return 0, err
	}
	if err := s.store.SetMeta(ctx, topicID, post.MetaTopicReplyCount, strconv.FormatInt(count, 10)); err != nil {
		return 0, err
	}
	return count, nil
}

// RecountVoices recomputes the topic's voice list: the distinct
// authors of its public replies plus the topic author, in first-posted
// order with the topic author first. Both the list and its count are
// stored.
func (s *Service) RecountVoices(ctx context.Context, topicID int64) (int64, error) {
	item, err := s.Get(ctx, topicID)
	if err != nil {
		return 0, err
	}

	authors, err := s.store.DistinctAuthors(ctx, topicID, []string{post.TypeReply}, post.PublicReplyStatuses())
	if err != nil {
		return 0, err
	}

	voices := idset.New(item.AuthorID)
	for _, id := range authors {
		voices.Add(id)
	}

	if err := s.store.SetMeta(ctx, topicID, post.MetaTopicVoices, voices.String()); err != nil {
		return 0, err
	}
	count := int64(voices.Len())
	if err := s.store.SetMeta(ctx, topicID, post.MetaTopicVoiceCount, strconv.FormatInt(count, 10)); err != nil {
		return 0, err
	}
	return count, nil
}

// RecountLatest recomputes the topic's freshness metadata. With public
// replies the last reply sets the pointer and the activity time; with
// none the pointer meta is deleted and activity falls back to the
// topic's own creation time.
func (s *Service) RecountLatest(ctx context.Context, topicID int64) error {
	latest, err := s.store.LatestChild(ctx, topicID, []string{post.TypeReply}, post.PublicReplyStatuses())
	if errors.Is(err, contentstore.ErrNotFound) {
		item, gerr := s.Get(ctx, topicID)
		if gerr != nil {
			return gerr
		}
		if derr := s.store.DeleteMeta(ctx, topicID, post.MetaTopicLastReplyID); derr != nil {
			return derr
		}
		return s.setActivity(ctx, topicID, item.CreatedAt)
	}
	if err != nil {
		return err
	}

	if err := s.store.SetMeta(ctx, topicID, post.MetaTopicLastReplyID, strconv.FormatInt(latest.ID, 10)); err != nil {
		return err
	}
	return s.setActivity(ctx, topicID, latest.CreatedAt)
}

// Touch bumps the topic's activity time and listing position.
func (s *Service) Touch(ctx context.Context, topicID int64, when time.Time) error {
	item, err := s.Get(ctx, topicID)
	if err != nil {
		return err
	}
	item.Position = when.Unix()
	if err := s.store.Update(ctx, item); err != nil {
		return err
	}
	return s.setActivity(ctx, topicID, when)
}

func (s *Service) setActivity(ctx context.Context, topicID int64, when time.Time) error {
	if err := s.store.SetMeta(ctx, topicID, post.MetaTopicActivityTime, when.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return s.store.SetMeta(ctx, topicID, post.MetaTopicActivityUnix, strconv.FormatInt(when.Unix(), 10))
}

// ReplyCount returns the cached public reply count, 0 when unset.
func (s *Service) ReplyCount(ctx context.Context, topicID int64) int64 {
	return readCount(ctx, s.store, topicID, post.MetaTopicReplyCount)
}

// VoiceCount returns the cached voice count, 0 when unset.
func (s *Service) VoiceCount(ctx context.Context, topicID int64) int64 {
	return readCount(ctx, s.store, topicID, post.MetaTopicVoiceCount)
}

// LastReplyID returns the cached last-reply pointer, 0 when unset.
func (s *Service) LastReplyID(ctx context.Context, topicID int64) int64 {
	return readCount(ctx, s.store, topicID, post.MetaTopicLastReplyID)
}

// Voices returns the cached voice list in stored order.
func (s *Service) Voices(ctx context.Context, topicID int64) []int64 {
	raw, err := s.store.GetMeta(ctx, topicID, post.MetaTopicVoices)
	if err != nil {
		return nil
	}
	return idset.Parse(raw).IDs()
}

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
