package topic_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boardkit/boardkit/forum"
	"github.com/boardkit/boardkit/pkg/contentstore"
	"github.com/boardkit/boardkit/pkg/optionstore"
	"github.com/boardkit/boardkit/post"
	"github.com/boardkit/boardkit/topic"
)

type fixture struct {
	store   *contentstore.Memory
	options *optionstore.Memory
	forums  *forum.Service
	topics  *topic.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := contentstore.NewMemory()
	options := optionstore.NewMemory()
	forums := forum.NewService(store, nil)
	return &fixture{
		store:   store,
		options: options,
		forums:  forums,
		topics:  topic.NewService(store, options, forums, nil),
	}
}

func (f *fixture) forum(t *testing.T, title string) *contentstore.Item {
	t.Helper()
	item, err := f.forums.Create(context.Background(), forum.New{Title: title, AuthorID: 1})
	require.NoError(t, err)
	return item
}

func (f *fixture) topic(t *testing.T, forumID, authorID int64, title string) *contentstore.Item {
	t.Helper()
	item, err := f.topics.Create(context.Background(), topic.New{
		Title:    title,
		Content:  "<p>hello</p>",
		ForumID:  forumID,
		AuthorID: authorID,
	})
	require.NoError(t, err)
	return item
}

func (f *fixture) reply(t *testing.T, topicID, authorID int64) *contentstore.Item {
	t.Helper()
	item := &contentstore.Item{
		Type:     post.TypeReply,
		ParentID: topicID,
		AuthorID: authorID,
		Status:   post.StatusPublish,
		Content:  "reply",
	}
	require.NoError(t, f.store.Create(context.Background(), item))
	return item
}

func TestCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates under the given forum and recounts it", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		fr := f.forum(t, "General")

		tp := f.topic(t, fr.ID, 7, "Hello world")
		require.Equal(t, fr.ID, tp.ParentID)
		require.Equal(t, post.StatusPublish, tp.Status)
		require.Equal(t, "hello-world", tp.Slug)

		require.Equal(t, int64(1), f.forums.TopicCount(ctx, fr.ID))
		require.Equal(t, tp.ID, f.forums.LastTopicID(ctx, fr.ID))
	})

	t.Run("falls back to the default forum", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		fr := f.forum(t, "General")
		require.NoError(t, f.options.Set(ctx, post.OptionDefaultForum, strconv.FormatInt(fr.ID, 10)))

		tp, err := f.topics.Create(ctx, topic.New{Title: "Orphan", AuthorID: 3})
		require.NoError(t, err)
		require.Equal(t, fr.ID, tp.ParentID)
	})

	t.Run("rejects when no forum and no default", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		_, err := f.topics.Create(ctx, topic.New{Title: "Orphan", AuthorID: 3})
		require.ErrorIs(t, err, topic.ErrNoForum)
	})

	t.Run("rejects categories and closed forums", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		cat, err := f.forums.Create(ctx, forum.New{Title: "Cat", Type: post.ForumTypeCategory, AuthorID: 1})
		require.NoError(t, err)
		_, err = f.topics.Create(ctx, topic.New{Title: "Nope", ForumID: cat.ID, AuthorID: 3})
		require.ErrorIs(t, err, topic.ErrForumClosed)

		fr := f.forum(t, "General")
		require.NoError(t, f.forums.Close(ctx, fr.ID))
		_, err = f.topics.Create(ctx, topic.New{Title: "Nope", ForumID: fr.ID, AuthorID: 3})
		require.ErrorIs(t, err, topic.ErrForumClosed)
	})
}

func TestRecountVoices(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	fr := f.forum(t, "General")
	tp := f.topic(t, fr.ID, 10, "Voices")

	// Author alone is one voice even with zero replies.
	n, err := f.topics.RecountVoices(ctx, tp.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	f.reply(t, tp.ID, 20)
	f.reply(t, tp.ID, 10) // author replying adds no voice
	f.reply(t, tp.ID, 30)
	f.reply(t, tp.ID, 20)

	n, err = f.topics.RecountVoices(ctx, tp.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
	require.Equal(t, []int64{10, 20, 30}, f.topics.Voices(ctx, tp.ID))
}

func TestRecountLatest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	fr := f.forum(t, "General")
	tp := f.topic(t, fr.ID, 10, "Fresh")

	r1 := f.reply(t, tp.ID, 20)
	r2 := f.reply(t, tp.ID, 30)

	require.NoError(t, f.topics.RecountLatest(ctx, tp.ID))
	require.Equal(t, r2.ID, f.topics.LastReplyID(ctx, tp.ID))

	// Losing the last reply falls back to the previous one.
	require.NoError(t, f.store.Delete(ctx, r2.ID))
	require.NoError(t, f.topics.RecountLatest(ctx, tp.ID))
	require.Equal(t, r1.ID, f.topics.LastReplyID(ctx, tp.ID))

	// No replies at all deletes the pointer instead of storing zero.
	require.NoError(t, f.store.Delete(ctx, r1.ID))
	require.NoError(t, f.topics.RecountLatest(ctx, tp.ID))
	require.Zero(t, f.topics.LastReplyID(ctx, tp.ID))
	_, err := f.store.GetMeta(ctx, tp.ID, post.MetaTopicLastReplyID)
	require.ErrorIs(t, err, contentstore.ErrNotFound)
}

func TestReparent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	a := f.forum(t, "Alpha")
	b := f.forum(t, "Beta")
	tp := f.topic(t, a.ID, 5, "Mover")

	require.NoError(t, f.topics.Reparent(ctx, tp.ID, b.ID))

	require.Zero(t, f.forums.TopicCount(ctx, a.ID))
	require.Equal(t, int64(1), f.forums.TopicCount(ctx, b.ID))
	require.Equal(t, tp.ID, f.forums.LastTopicID(ctx, b.ID))
	require.Zero(t, f.forums.LastTopicID(ctx, a.ID))
}

func TestSticky(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("stick and superstick are mutually exclusive", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		fr := f.forum(t, "General")
		tp := f.topic(t, fr.ID, 5, "Pinned")

		require.NoError(t, f.topics.Stick(ctx, tp.ID))
		sticky, err := f.topics.IsSticky(ctx, tp.ID)
		require.NoError(t, err)
		require.True(t, sticky)

		require.NoError(t, f.topics.Superstick(ctx, tp.ID))
		sticky, err = f.topics.IsSticky(ctx, tp.ID)
		require.NoError(t, err)
		require.False(t, sticky)
		super, err := f.topics.IsSuperSticky(ctx, tp.ID)
		require.NoError(t, err)
		require.True(t, super)
	})

	t.Run("sticking twice keeps one entry", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		fr := f.forum(t, "General")
		tp := f.topic(t, fr.ID, 5, "Pinned")

		require.NoError(t, f.topics.Stick(ctx, tp.ID))
		require.NoError(t, f.topics.Stick(ctx, tp.ID))
		ids, err := f.topics.Stickies(ctx)
		require.NoError(t, err)
		require.Equal(t, []int64{tp.ID}, ids)
	})

	t.Run("spam unsticks", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		fr := f.forum(t, "General")
		tp := f.topic(t, fr.ID, 5, "Spammy")

		require.NoError(t, f.topics.Stick(ctx, tp.ID))
		require.NoError(t, f.topics.Spam(ctx, tp.ID))

		sticky, err := f.topics.IsSticky(ctx, tp.ID)
		require.NoError(t, err)
		require.False(t, sticky)

		got, err := f.topics.Get(ctx, tp.ID)
		require.NoError(t, err)
		require.Equal(t, post.StatusSpam, got.Status)
	})

	t.Run("empty list deletes the option", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		fr := f.forum(t, "General")
		tp := f.topic(t, fr.ID, 5, "Pinned")

		require.NoError(t, f.topics.Stick(ctx, tp.ID))
		require.NoError(t, f.topics.Unstick(ctx, tp.ID))
		_, err := f.options.Get(ctx, post.OptionStickyTopics)
		require.ErrorIs(t, err, optionstore.ErrNotFound)
	})
}

func TestTypes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("built-ins are registered and protected", func(t *testing.T) {
		t.Parallel()
		info, ok := topic.LookupType(topic.TypeSticky)
		require.True(t, ok)
		require.True(t, info.Replies)

		require.False(t, topic.UnregisterType(topic.TypeSticky))
		require.False(t, topic.RegisterType(topic.TypeInfo{Name: topic.TypeNormal, Label: "Clobbered"}))
		info, ok = topic.LookupType(topic.TypeNormal)
		require.True(t, ok)
		require.Equal(t, "Normal", info.Label)
	})

	t.Run("custom types register once and unregister", func(t *testing.T) {
		t.Parallel()
		require.True(t, topic.RegisterType(topic.TypeInfo{Name: "poll", Label: "Poll", Replies: true}))
		require.False(t, topic.RegisterType(topic.TypeInfo{Name: "poll", Label: "Again"}))
		require.True(t, topic.UnregisterType("poll"))
		_, ok := topic.LookupType("poll")
		require.False(t, ok)
	})

	t.Run("sticky operations keep the type meta current", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		fr := f.forum(t, "General")
		tp := f.topic(t, fr.ID, 5, "Pinned")

		require.Equal(t, topic.TypeNormal, f.topics.Type(ctx, tp.ID))

		require.NoError(t, f.topics.Stick(ctx, tp.ID))
		require.Equal(t, topic.TypeSticky, f.topics.Type(ctx, tp.ID))

		require.NoError(t, f.topics.Superstick(ctx, tp.ID))
		require.Equal(t, topic.TypeSuper, f.topics.Type(ctx, tp.ID))

		require.NoError(t, f.topics.Unstick(ctx, tp.ID))
		require.Equal(t, topic.TypeNormal, f.topics.Type(ctx, tp.ID))
	})
}

func TestList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	fr := f.forum(t, "General")

	first := f.topic(t, fr.ID, 1, "First")
	second := f.topic(t, fr.ID, 2, "Second")
	third := f.topic(t, fr.ID, 3, "Third")
	require.NoError(t, f.topics.Stick(ctx, first.ID))

	page, err := f.topics.List(ctx, topic.ListParams{ForumID: fr.ID, Page: 1, PerPage: 10})
	require.NoError(t, err)
	require.Equal(t, int64(3), page.Total)
	require.Len(t, page.Items, 3)

	// Sticky floats to the front, the rest keep activity order.
	require.Equal(t, first.ID, page.Items[0].ID)
	require.Equal(t, third.ID, page.Items[1].ID)
	require.Equal(t, second.ID, page.Items[2].ID)
}

func TestListTotals(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	fr := f.forum(t, "General")

	f.topic(t, fr.ID, 1, "A")
	f.topic(t, fr.ID, 2, "B")
	f.topic(t, fr.ID, 3, "C")
	gone := f.topic(t, fr.ID, 4, "Gone")
	require.NoError(t, f.topics.Superstick(ctx, gone.ID))
	require.NoError(t, f.store.Delete(ctx, gone.ID))

	first, err := f.topics.List(ctx, topic.ListParams{ForumID: fr.ID, Page: 1, PerPage: 2})
	require.NoError(t, err)
	second, err := f.topics.List(ctx, topic.ListParams{ForumID: fr.ID, Page: 2, PerPage: 2})
	require.NoError(t, err)

	// The deleted sticky resolves on no page, so the page math agrees
	// everywhere.
	require.Equal(t, int64(3), first.Total)
	require.Equal(t, first.Total, second.Total)
	require.Equal(t, first.TotalPages, second.TotalPages)
	require.Len(t, first.Items, 2)
	require.Len(t, second.Items, 1)
}

func TestStatusToggles(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	fr := f.forum(t, "General")
	tp := f.topic(t, fr.ID, 5, "Toggle")

	require.NoError(t, f.topics.Close(ctx, tp.ID))
	got, err := f.topics.Get(ctx, tp.ID)
	require.NoError(t, err)
	require.Equal(t, post.StatusClosed, got.Status)

	// Closed topics still count as public.
	require.Equal(t, int64(1), f.forums.TopicCount(ctx, fr.ID))

	require.NoError(t, f.topics.Spam(ctx, tp.ID))
	require.Zero(t, f.forums.TopicCount(ctx, fr.ID))

	require.NoError(t, f.topics.Unspam(ctx, tp.ID))
	require.Equal(t, int64(1), f.forums.TopicCount(ctx, fr.ID))
}
