package forum_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boardkit/boardkit/forum"
	"github.com/boardkit/boardkit/pkg/contentstore"
	"github.com/boardkit/boardkit/post"
)

func newService(t *testing.T) (*forum.Service, *contentstore.Memory) {
	t.Helper()
	store := contentstore.NewMemory()
	return forum.NewService(store, nil), store
}

func addChild(t *testing.T, store *contentstore.Memory, typ, status string, parentID, authorID int64) *contentstore.Item {
	t.Helper()
	item := &contentstore.Item{Type: typ, Status: status, ParentID: parentID, AuthorID: authorID}
	require.NoError(t, store.Create(context.Background(), item))
	return item
}

func TestCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("defaults to an open forum", func(t *testing.T) {
		t.Parallel()
		s, _ := newService(t)

		f, err := s.Create(ctx, forum.New{Title: "General Chat", AuthorID: 1})
		require.NoError(t, err)
		require.Equal(t, post.StatusPublish, f.Status)
		require.Equal(t, "general-chat", f.Slug)

		typ, err := s.Type(ctx, f.ID)
		require.NoError(t, err)
		require.Equal(t, post.ForumTypeForum, typ)
	})

	t.Run("categories hold no topics", func(t *testing.T) {
		t.Parallel()
		s, _ := newService(t)

		cat, err := s.Create(ctx, forum.New{Title: "Group", Type: post.ForumTypeCategory, AuthorID: 1})
		require.NoError(t, err)

		isCat, err := s.IsCategory(ctx, cat.ID)
		require.NoError(t, err)
		require.True(t, isCat)

		ok, err := s.Topicable(ctx, cat.ID)
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestTopicable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newService(t)

	f, err := s.Create(ctx, forum.New{Title: "General", AuthorID: 1})
	require.NoError(t, err)

	ok, err := s.Topicable(ctx, f.ID)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.Close(ctx, f.ID))
	ok, err = s.Topicable(ctx, f.ID)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Open(ctx, f.ID))
	require.NoError(t, s.Archive(ctx, f.ID))
	ok, err = s.Topicable(ctx, f.ID)
	require.NoError(t, err)
	require.False(t, ok)

	// Unknown forums are simply not topicable, not an error.
	ok, err = s.Topicable(ctx, 9999)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestQuery(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newService(t)

	root, err := s.Create(ctx, forum.New{Title: "Root", AuthorID: 1})
	require.NoError(t, err)
	child, err := s.Create(ctx, forum.New{Title: "Child", ParentID: root.ID, AuthorID: 1})
	require.NoError(t, err)

	items, total, err := s.Query(ctx, 0, 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	require.Equal(t, root.ID, items[0].ID)

	items, total, err = s.Query(ctx, root.ID, 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, child.ID, items[0].ID)
}

func TestRecounts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("topic count ignores non-public topics", func(t *testing.T) {
		t.Parallel()
		s, store := newService(t)
		f, err := s.Create(ctx, forum.New{Title: "General", AuthorID: 1})
		require.NoError(t, err)

		addChild(t, store, post.TypeTopic, post.StatusPublish, f.ID, 10)
		addChild(t, store, post.TypeTopic, post.StatusClosed, f.ID, 11)
		addChild(t, store, post.TypeTopic, post.StatusSpam, f.ID, 12)

		n, err := s.RecountTopics(ctx, f.ID)
		require.NoError(t, err)
		require.Equal(t, int64(2), n)
		require.Equal(t, int64(2), s.TopicCount(ctx, f.ID))
	})

	t.Run("reply count sums across public topics", func(t *testing.T) {
		t.Parallel()
		s, store := newService(t)
		f, err := s.Create(ctx, forum.New{Title: "General", AuthorID: 1})
		require.NoError(t, err)

		t1 := addChild(t, store, post.TypeTopic, post.StatusPublish, f.ID, 10)
		t2 := addChild(t, store, post.TypeTopic, post.StatusSpam, f.ID, 11)
		addChild(t, store, post.TypeReply, post.StatusPublish, t1.ID, 20)
		addChild(t, store, post.TypeReply, post.StatusPublish, t1.ID, 21)
		// Replies under the spammed topic do not count.
		addChild(t, store, post.TypeReply, post.StatusPublish, t2.ID, 22)

		n, err := s.RecountReplies(ctx, f.ID)
		require.NoError(t, err)
		require.Equal(t, int64(2), n)
	})

	t.Run("latest falls back to the forum itself when empty", func(t *testing.T) {
		t.Parallel()
		s, store := newService(t)
		f, err := s.Create(ctx, forum.New{Title: "General", AuthorID: 1})
		require.NoError(t, err)

		tp := addChild(t, store, post.TypeTopic, post.StatusPublish, f.ID, 10)
		require.NoError(t, s.RecountLatest(ctx, f.ID))
		require.Equal(t, tp.ID, s.LastTopicID(ctx, f.ID))

		require.NoError(t, store.Delete(ctx, tp.ID))
		require.NoError(t, s.RecountLatest(ctx, f.ID))
		require.Zero(t, s.LastTopicID(ctx, f.ID))
		_, err = store.GetMeta(ctx, f.ID, post.MetaForumLastTopicID)
		require.ErrorIs(t, err, contentstore.ErrNotFound)
	})
}

func TestReadFilter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newService(t)

	f, err := s.Create(ctx, forum.New{Title: "General", AuthorID: 1})
	require.NoError(t, err)

	s.Read.Use(func(_ context.Context, item *contentstore.Item) *contentstore.Item {
		item.Title = "[archived] " + item.Title
		return item
	})

	got, err := s.Get(ctx, f.ID)
	require.NoError(t, err)
	require.Equal(t, "[archived] General", got.Title)
}
