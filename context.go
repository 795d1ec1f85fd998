package boardkit

import (
	"context"

	"github.com/boardkit/boardkit/pkg/contentstore"
	"github.com/boardkit/boardkit/post"
)

// Viewpoint is the rendering state a host carries on the context while
// producing a page: who is looking, which single object the page is
// about, which item a listing loop is currently on, and any IDs that
// arrived in the request query.
//
// Template-level helpers rarely receive explicit IDs, so TopicID,
// ForumID, ReplyID and UserID recover the relevant ID from this state
// using a fixed precedence: an explicit argument wins, then the loop
// item, then the queried object, then the request query, and finally
// the fallback (current user for UserID, zero otherwise). Zero is a
// safe result: lookups against ID 0 return empty values, not errors.
type Viewpoint struct {
	// Queried is the single object the page is about, if any.
	Queried *contentstore.Item

	// Loop is the item a listing loop is currently rendering.
	Loop *contentstore.Item

	// CurrentUserID identifies the viewer; 0 is anonymous.
	CurrentUserID int64

	// Query IDs parsed from the request, if any.
	QueryForumID int64
	QueryTopicID int64
	QueryReplyID int64
}

type viewpointKey struct{}

// WithViewpoint attaches vp to the context.
func WithViewpoint(ctx context.Context, vp Viewpoint) context.Context {
	return context.WithValue(ctx, viewpointKey{}, vp)
}

// ViewpointFrom returns the Viewpoint on the context, or a zero one.
func ViewpointFrom(ctx context.Context) Viewpoint {
	vp, _ := ctx.Value(viewpointKey{}).(Viewpoint)
	return vp
}

// TopicID resolves a topic ID: explicit, loop item, queried object,
// query parameter, then zero. A reply in the loop or query position
// contributes its parent topic.
func (v Viewpoint) TopicID(explicit int64) int64 {
	if explicit > 0 {
		return explicit
	}
	if id := topicFrom(v.Loop); id > 0 {
		return id
	}
	if id := topicFrom(v.Queried); id > 0 {
		return id
	}
	return v.QueryTopicID
}

// ForumID resolves a forum ID with the same precedence as TopicID. A
// topic in either object position contributes its parent forum.
func (v Viewpoint) ForumID(explicit int64) int64 {
	if explicit > 0 {
		return explicit
	}
	if id := forumFrom(v.Loop); id > 0 {
		return id
	}
	if id := forumFrom(v.Queried); id > 0 {
		return id
	}
	return v.QueryForumID
}

// ReplyID resolves a reply ID with the same precedence.
func (v Viewpoint) ReplyID(explicit int64) int64 {
	if explicit > 0 {
		return explicit
	}
	if v.Loop != nil && v.Loop.Type == post.TypeReply {
		return v.Loop.ID
	}
	if v.Queried != nil && v.Queried.Type == post.TypeReply {
		return v.Queried.ID
	}
	return v.QueryReplyID
}

// UserID resolves a user ID: explicit wins, otherwise the viewer.
func (v Viewpoint) UserID(explicit int64) int64 {
	if explicit > 0 {
		return explicit
	}
	return v.CurrentUserID
}

func topicFrom(item *contentstore.Item) int64 {
	if item == nil {
		return 0
	}
	switch item.Type {
	case post.TypeTopic:
		return item.ID
	case post.TypeReply:
		return item.ParentID
	}
	return 0
}

func forumFrom(item *contentstore.Item) int64 {
	if item == nil {
		return 0
	}
	switch item.Type {
	case post.TypeForum:
		return item.ID
	case post.TypeTopic:
		return item.ParentID
	}
	return 0
}
