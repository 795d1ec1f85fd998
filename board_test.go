package boardkit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boardkit/boardkit"
	"github.com/boardkit/boardkit/forum"
	"github.com/boardkit/boardkit/pkg/contentstore"
	"github.com/boardkit/boardkit/pkg/mailer"
	"github.com/boardkit/boardkit/post"
	"github.com/boardkit/boardkit/reply"
	"github.com/boardkit/boardkit/subscribe"
	"github.com/boardkit/boardkit/topic"
)

func newBoard(t *testing.T, opts ...boardkit.Option) *boardkit.Board {
	t.Helper()
	b, err := boardkit.New(opts...)
	require.NoError(t, err)
	return b
}

func TestBoardLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("new topic settles forum and author counters", func(t *testing.T) {
		t.Parallel()
		b := newBoard(t)

		fr, err := b.Forums.Create(ctx, forum.New{Title: "General", AuthorID: 1})
		require.NoError(t, err)
		tp, err := b.Topics.Create(ctx, topic.New{Title: "First", ForumID: fr.ID, AuthorID: 10})
		require.NoError(t, err)

		_, err = b.Topics.RecountVoices(ctx, tp.ID)
		require.NoError(t, err)

		require.Equal(t, int64(1), b.Forums.TopicCount(ctx, fr.ID))
		require.Zero(t, b.Topics.ReplyCount(ctx, tp.ID))
		require.Equal(t, int64(1), b.Topics.VoiceCount(ctx, tp.ID))
		require.Equal(t, int64(1), b.Users.TopicCount(ctx, 10))
	})

	t.Run("a reply ripples through topic, forum and author", func(t *testing.T) {
		t.Parallel()
		b := newBoard(t)

		fr, err := b.Forums.Create(ctx, forum.New{Title: "General", AuthorID: 1})
		require.NoError(t, err)
		tp, err := b.Topics.Create(ctx, topic.New{Title: "First", ForumID: fr.ID, AuthorID: 10})
		require.NoError(t, err)

		r, err := b.Replies.Create(ctx, reply.New{Content: "hello", TopicID: tp.ID, AuthorID: 20})
		require.NoError(t, err)

		require.Equal(t, int64(1), b.Topics.ReplyCount(ctx, tp.ID))
		require.Equal(t, int64(2), b.Topics.VoiceCount(ctx, tp.ID))
		require.Equal(t, r.ID, b.Topics.LastReplyID(ctx, tp.ID))
		require.Equal(t, tp.ID, b.Forums.LastTopicID(ctx, fr.ID))
		require.Equal(t, int64(1), b.Forums.ReplyCount(ctx, fr.ID))
		require.Equal(t, int64(1), b.Users.ReplyCount(ctx, 20))
	})

	t.Run("reparenting recomputes both forums", func(t *testing.T) {
		t.Parallel()
		b := newBoard(t)

		f1, err := b.Forums.Create(ctx, forum.New{Title: "Alpha", AuthorID: 1})
		require.NoError(t, err)
		f2, err := b.Forums.Create(ctx, forum.New{Title: "Beta", AuthorID: 1})
		require.NoError(t, err)
		tp, err := b.Topics.Create(ctx, topic.New{Title: "Mover", ForumID: f1.ID, AuthorID: 10})
		require.NoError(t, err)
		_, err = b.Replies.Create(ctx, reply.New{Content: "hi", TopicID: tp.ID, AuthorID: 20})
		require.NoError(t, err)

		require.NoError(t, b.Topics.Reparent(ctx, tp.ID, f2.ID))

		require.Zero(t, b.Forums.TopicCount(ctx, f1.ID))
		require.Zero(t, b.Forums.ReplyCount(ctx, f1.ID))
		require.Zero(t, b.Forums.LastTopicID(ctx, f1.ID))
		require.Equal(t, int64(1), b.Forums.TopicCount(ctx, f2.ID))
		require.Equal(t, int64(1), b.Forums.ReplyCount(ctx, f2.ID))
		require.Equal(t, tp.ID, b.Forums.LastTopicID(ctx, f2.ID))
	})

	t.Run("recounts are idempotent", func(t *testing.T) {
		t.Parallel()
		b := newBoard(t)

		fr, err := b.Forums.Create(ctx, forum.New{Title: "General", AuthorID: 1})
		require.NoError(t, err)
		tp, err := b.Topics.Create(ctx, topic.New{Title: "First", ForumID: fr.ID, AuthorID: 10})
		require.NoError(t, err)
		_, err = b.Replies.Create(ctx, reply.New{Content: "hello", TopicID: tp.ID, AuthorID: 20})
		require.NoError(t, err)

		first, err := b.Topics.RecountReplies(ctx, tp.ID)
		require.NoError(t, err)
		second, err := b.Topics.RecountReplies(ctx, tp.ID)
		require.NoError(t, err)
		require.Equal(t, first, second)
		require.Equal(t, first, b.Topics.ReplyCount(ctx, tp.ID))
	})
}

func TestBoardNotifications(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	sender := &captureSender{}
	mail := mailer.New(sender, mailer.NewRenderer(subscribe.Templates()), mailer.Config{
		FallbackSubject: "Forum notification",
		DefaultLayout:   "base.html",
	})
	dir := staticDirectory{2: "u2@test", 3: "u3@test"}
	b := newBoard(t, boardkit.WithMail(mail, dir, subscribe.NotifierConfig{
		BaseURL: "https://forum.test",
		From:    "board@forum.test",
	}))

	fr, err := b.Forums.Create(ctx, forum.New{Title: "General", AuthorID: 1})
	require.NoError(t, err)
	tp, err := b.Topics.Create(ctx, topic.New{Title: "Watched", ForumID: fr.ID, AuthorID: 1})
	require.NoError(t, err)

	// U3 watches the topic; U2 will author the reply and must not be
	// notified even though they also subscribe.
	_, err = b.Subscriptions.SubscribeTopic(ctx, 3, tp.ID)
	require.NoError(t, err)
	_, err = b.Subscriptions.SubscribeTopic(ctx, 2, tp.ID)
	require.NoError(t, err)

	_, err = b.Replies.Create(ctx, reply.New{Content: "news", TopicID: tp.ID, AuthorID: 2})
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	require.Equal(t, []string{"u3@test"}, sender.sent[0].BCC)

	// Once U3 follows the forum too, the topic-level mail skips them.
	sender.sent = nil
	_, err = b.Subscriptions.SubscribeForum(ctx, 3, fr.ID)
	require.NoError(t, err)
	_, err = b.Replies.Create(ctx, reply.New{Content: "more", TopicID: tp.ID, AuthorID: 2})
	require.NoError(t, err)
	require.Empty(t, sender.sent)
}

func TestBoardQueue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	queue := &captureQueue{}
	sender := &captureSender{}
	mail := mailer.New(sender, mailer.NewRenderer(subscribe.Templates()), mailer.Config{DefaultLayout: "base.html"})
	b := newBoard(t,
		boardkit.WithMail(mail, staticDirectory{3: "u3@test"}, subscribe.NotifierConfig{}),
		boardkit.WithQueue(queue),
	)

	fr, err := b.Forums.Create(ctx, forum.New{Title: "General", AuthorID: 1})
	require.NoError(t, err)
	tp, err := b.Topics.Create(ctx, topic.New{Title: "Queued", ForumID: fr.ID, AuthorID: 1})
	require.NoError(t, err)
	_, err = b.Subscriptions.SubscribeTopic(ctx, 3, tp.ID)
	require.NoError(t, err)

	r, err := b.Replies.Create(ctx, reply.New{Content: "hi", TopicID: tp.ID, AuthorID: 2})
	require.NoError(t, err)

	// Delivery is deferred to the queue, nothing sent inline.
	require.Empty(t, sender.sent)
	require.Len(t, queue.enqueued, 1)
	require.Equal(t, boardkit.NotifyReplyTask, queue.enqueued[0].name)
	require.Equal(t, boardkit.NotifyPayload{ReplyID: r.ID}, queue.enqueued[0].payload)

	// Draining the queue through the task delivers the mail.
	task := boardkit.NewNotifyTask(b.Notifier)
	require.NoError(t, task.Handle(ctx, queue.enqueued[0].payload.(boardkit.NotifyPayload)))
	require.Len(t, sender.sent, 1)
}

func TestBoardReconcile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := contentstore.NewMemory()
	b := newBoard(t, boardkit.WithContentStore(store))

	fr, err := b.Forums.Create(ctx, forum.New{Title: "General", AuthorID: 1})
	require.NoError(t, err)
	tp, err := b.Topics.Create(ctx, topic.New{Title: "Drifted", ForumID: fr.ID, AuthorID: 10})
	require.NoError(t, err)
	_, err = b.Replies.Create(ctx, reply.New{Content: "hi", TopicID: tp.ID, AuthorID: 20})
	require.NoError(t, err)

	// Corrupt the counters the way untracked writes would.
	require.NoError(t, store.SetMeta(ctx, tp.ID, post.MetaTopicReplyCount, "999"))
	require.NoError(t, store.SetMeta(ctx, fr.ID, post.MetaForumTopicCount, "999"))

	require.NoError(t, b.Reconcile(ctx))

	require.Equal(t, int64(1), b.Topics.ReplyCount(ctx, tp.ID))
	require.Equal(t, int64(1), b.Forums.TopicCount(ctx, fr.ID))
}

func TestViewpoint(t *testing.T) {
	t.Parallel()

	topicItem := &contentstore.Item{ID: 7, Type: post.TypeTopic, ParentID: 3}
	replyItem := &contentstore.Item{ID: 9, Type: post.TypeReply, ParentID: 7}

	t.Run("explicit wins", func(t *testing.T) {
		t.Parallel()
		vp := boardkit.Viewpoint{Loop: topicItem, QueryTopicID: 99}
		require.Equal(t, int64(42), vp.TopicID(42))
	})

	t.Run("loop item beats queried object and query", func(t *testing.T) {
		t.Parallel()
		vp := boardkit.Viewpoint{
			Loop:         replyItem,
			Queried:      topicItem,
			QueryTopicID: 99,
		}
		// The reply in the loop contributes its parent topic.
		require.Equal(t, int64(7), vp.TopicID(0))
		require.Equal(t, int64(9), vp.ReplyID(0))
	})

	t.Run("queried topic contributes its forum", func(t *testing.T) {
		t.Parallel()
		vp := boardkit.Viewpoint{Queried: topicItem}
		require.Equal(t, int64(3), vp.ForumID(0))
	})

	t.Run("query parameters are the last resort before zero", func(t *testing.T) {
		t.Parallel()
		vp := boardkit.Viewpoint{QueryForumID: 5}
		require.Equal(t, int64(5), vp.ForumID(0))
		require.Zero(t, vp.TopicID(0))
	})

	t.Run("user id falls back to the viewer", func(t *testing.T) {
		t.Parallel()
		vp := boardkit.Viewpoint{CurrentUserID: 8}
		require.Equal(t, int64(8), vp.UserID(0))
		require.Equal(t, int64(2), vp.UserID(2))
	})

	t.Run("round trips through the context", func(t *testing.T) {
		t.Parallel()
		ctx := boardkit.WithViewpoint(context.Background(), boardkit.Viewpoint{CurrentUserID: 8})
		require.Equal(t, int64(8), boardkit.ViewpointFrom(ctx).CurrentUserID)
		require.Zero(t, boardkit.ViewpointFrom(context.Background()).CurrentUserID)
	})
}

type captureSender struct {
	sent []*mailer.Email
}

func (c *captureSender) Send(_ context.Context, email *mailer.Email) error {
	c.sent = append(c.sent, email)
	return nil
}

type staticDirectory map[int64]string

func (d staticDirectory) Emails(_ context.Context, userIDs []int64) (map[int64]string, error) {
	out := make(map[int64]string)
	for _, id := range userIDs {
		if addr, ok := d[id]; ok {
			out[id] = addr
		}
	}
	return out, nil
}

type queuedJob struct {
	name    string
	payload any
}

type captureQueue struct {
	enqueued []queuedJob
}

func (q *captureQueue) Enqueue(_ context.Context, name string, payload any) error {
	q.enqueued = append(q.enqueued, queuedJob{name: name, payload: payload})
	return nil
}
