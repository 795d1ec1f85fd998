package role

import (
	"context"

	"github.com/boardkit/boardkit/pkg/contentstore"
	"github.com/boardkit/boardkit/post"
)

// Resolver answers object-aware capability questions: not "does this
// role carry edit_topics" but "may this user edit that topic". Each
// check reduces the question to primitive capabilities using the
// object's status and ownership, then asks the Manager.
type Resolver struct {
	manager *Manager
	store   contentstore.Store
}

// NewResolver creates a resolver over the manager and content store.
func NewResolver(manager *Manager, store contentstore.Store) *Resolver {
	return &Resolver{manager: manager, store: store}
}

// requirement lists the primitive capabilities an action reduces to;
// all must be granted. A DoNotAllow member denies unconditionally.
type requirement []string

func deny() requirement               { return requirement{DoNotAllow} }
func need(caps ...string) requirement { return requirement(caps) }

func (r *Resolver) check(ctx context.Context, userID int64, req requirement) (bool, error) {
	for _, capability := range req {
		ok, err := r.manager.Can(ctx, userID, capability)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// CanReadItem reports whether the user may read the forum, topic or
// reply. Authors read their own content with base spectate rights,
// whatever its status. For everyone else the containing forum is
// checked first, so a topic or reply is never readable when its forum
// is not, and then the item's own status decides.
func (r *Resolver) CanReadItem(ctx context.Context, userID int64, item *contentstore.Item) (bool, error) {
	if item == nil {
		return false, nil
	}
	if userID > 0 && item.AuthorID == userID {
		return r.check(ctx, userID, need(CapSpectate))
	}
	if f := r.parentForum(ctx, item); f != nil {
		ok, err := r.check(ctx, userID, readRequirement(f, userID))
		if err != nil || !ok {
			return false, err
		}
	}
	return r.check(ctx, userID, readRequirement(item, userID))
}

func readRequirement(item *contentstore.Item, userID int64) requirement {
	if userID > 0 && item.AuthorID == userID {
		return need(CapSpectate)
	}
	switch item.Status {
	case post.StatusPublish, post.StatusClosed, post.StatusArchived:
		return need(CapSpectate)
	case post.StatusPrivate:
		return need(CapReadPrivateForums)
	case post.StatusHidden:
		return need(CapReadHiddenForums)
	case post.StatusPending:
		return need(CapModerate)
	case post.StatusSpam, post.StatusTrash:
		return need(CapModerate, CapViewTrash)
	default:
		return deny()
	}
}

// parentForum resolves the forum containing a topic or reply. Orphans
// and forums themselves resolve to nil, which skips the forum gate.
func (r *Resolver) parentForum(ctx context.Context, item *contentstore.Item) *contentstore.Item {
	id := item.ParentID
	if item.Type == post.TypeReply && id > 0 {
		topic, err := r.store.Get(ctx, id)
		if err != nil {
			return nil
		}
		id = topic.ParentID
	}
	if item.Type == post.TypeForum || id <= 0 {
		return nil
	}
	f, err := r.store.Get(ctx, id)
	if err != nil || f.Type != post.TypeForum {
		return nil
	}
	return f
}

// CanEditItem reports whether the user may edit the topic or reply.
// Authors edit their own published content; anything else requires
// the others-edit capability. Spam and trash are frozen for everyone
// until restored.
func (r *Resolver) CanEditItem(ctx context.Context, userID int64, item *contentstore.Item) (bool, error) {
	if item == nil || userID <= 0 {
		return false, nil
	}
	switch item.Status {
	case post.StatusSpam, post.StatusTrash:
		return r.check(ctx, userID, deny())
	}

	own, others := CapEditTopics, CapEditOthersTopics
	if item.Type == post.TypeReply {
		own, others = CapEditReplies, CapEditOthersReplies
	}
	if item.AuthorID == userID {
		return r.check(ctx, userID, need(CapParticipate, own))
	}
	return r.check(ctx, userID, need(others))
}

// CanDeleteItem reports whether the user may trash or delete the item.
func (r *Resolver) CanDeleteItem(ctx context.Context, userID int64, item *contentstore.Item) (bool, error) {
	if item == nil || userID <= 0 {
		return false, nil
	}
	own, others := CapDeleteTopics, CapDeleteOthersTopics
	if item.Type == post.TypeReply {
		own, others = CapDeleteReplies, CapDeleteOthersReplies
	}
	if item.AuthorID == userID {
		return r.check(ctx, userID, need(own))
	}
	return r.check(ctx, userID, need(others))
}

// CanModerateItem covers the single moderation actions: close, stick,
// spam, move, approve. They all reduce to the moderate gate.
func (r *Resolver) CanModerateItem(ctx context.Context, userID int64, item *contentstore.Item) (bool, error) {
	if item == nil || userID <= 0 {
		return false, nil
	}
	return r.check(ctx, userID, need(CapModerate))
}

// CanPostTopic reports whether the user may open a topic in the forum:
// the forum must be readable by the user, accepting topics (not
// closed, trashed, archived or a category), and the user must carry
// the posting capabilities. Readable private and hidden forums accept
// topics from the users who can see them.
func (r *Resolver) CanPostTopic(ctx context.Context, userID, forumID int64) (bool, error) {
	if userID <= 0 {
		return false, nil
	}
	item, err := r.store.Get(ctx, forumID)
	if err != nil {
		return false, nil
	}
	if item.Type != post.TypeForum {
		return false, nil
	}
	if ok, err := r.CanReadItem(ctx, userID, item); err != nil || !ok {
		return false, err
	}
	switch item.Status {
	case post.StatusClosed, post.StatusTrash, post.StatusArchived:
		return false, nil
	}
	if ft, err := r.store.GetMeta(ctx, forumID, post.MetaForumType); err == nil && ft == post.ForumTypeCategory {
		return false, nil
	}
	return r.check(ctx, userID, need(CapParticipate, CapPublishTopics))
}

// CanPostReply reports whether the user may reply to the topic: it
// must be open and the user must carry the posting capabilities.
// Moderators may reply to closed topics.
func (r *Resolver) CanPostReply(ctx context.Context, userID, topicID int64) (bool, error) {
	if userID <= 0 {
		return false, nil
	}
	item, err := r.store.Get(ctx, topicID)
	if err != nil {
		return false, nil
	}
	if item.Type != post.TypeTopic {
		return false, nil
	}
	if ok, err := r.CanReadItem(ctx, userID, item); err != nil || !ok {
		return false, err
	}
	switch item.Status {
	case post.StatusPublish:
	case post.StatusClosed:
		if ok, err := r.manager.Can(ctx, userID, CapModerate); err != nil || !ok {
			return false, err
		}
	default:
		return false, nil
	}
	return r.check(ctx, userID, need(CapParticipate, CapPublishReplies))
}
