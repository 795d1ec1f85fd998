package boardkit

import (
	"context"
	"log/slog"

	"github.com/boardkit/boardkit/action"
	"github.com/boardkit/boardkit/forum"
	"github.com/boardkit/boardkit/pkg/cache"
	"github.com/boardkit/boardkit/pkg/contentstore"
	"github.com/boardkit/boardkit/pkg/logger"
	"github.com/boardkit/boardkit/pkg/mailer"
	"github.com/boardkit/boardkit/pkg/optionstore"
	"github.com/boardkit/boardkit/pkg/usermeta"
	"github.com/boardkit/boardkit/post"
	"github.com/boardkit/boardkit/reply"
	"github.com/boardkit/boardkit/role"
	"github.com/boardkit/boardkit/subscribe"
	"github.com/boardkit/boardkit/topic"
	"github.com/boardkit/boardkit/user"
)

// Board is the assembled engine. New wires the domain services over
// the configured storage and hooks reply posting into per-user
// counters and notification delivery. All exported fields are ready
// to use after New returns.
type Board struct {
	Forums        *forum.Service
	Topics        *topic.Service
	Replies       *reply.Service
	Users         *user.Service
	Roles         *role.Manager
	Access        *role.Resolver
	Subscriptions *subscribe.Service
	Notifier      *subscribe.Notifier
	Actions       *action.Handler

	store   contentstore.Store
	meta    usermeta.Store
	options optionstore.Store
	log     *slog.Logger

	enqueue Enqueuer
	mail    *mailer.Mailer
	users   subscribe.Directory
	notify  subscribe.NotifierConfig
	index   cache.Cache[[]int64]
	secret  string
	current action.CurrentUser
}

// Enqueuer defers work to a background queue. pkg/job's Manager
// satisfies it.
type Enqueuer interface {
	Enqueue(ctx context.Context, name string, payload any) error
}

// NotifyReplyTask is the queue task name for asynchronous reply
// notifications. Register NotifyTask on the job manager to handle it.
const NotifyReplyTask = "board:notify_reply"

// NotifyPayload is the queue payload for NotifyReplyTask.
type NotifyPayload struct {
	ReplyID int64 `json:"reply_id"`
}

// NotifyTask adapts a Notifier to the job manager's task interface:
//
//	mgr, err := job.NewManager(pool, job.WithTask(boardkit.NotifyTask(board.Notifier)))
type NotifyTask struct {
	notifier *subscribe.Notifier
}

// NewNotifyTask wraps the notifier for queue registration.
func NewNotifyTask(n *subscribe.Notifier) *NotifyTask {
	return &NotifyTask{notifier: n}
}

func (t *NotifyTask) Name() string { return NotifyReplyTask }

func (t *NotifyTask) Handle(ctx context.Context, p NotifyPayload) error {
	return t.notifier.NotifyReply(ctx, p.ReplyID)
}

// New assembles a Board. Without storage options everything runs in
// memory; without mail options notifications are disabled.
func New(opts ...Option) (*Board, error) {
	b := &Board{}
	for _, opt := range opts {
		opt(b)
	}

	if b.log == nil {
		b.log = logger.Discard()
	}
	if b.store == nil {
		b.store = contentstore.NewMemory()
	}
	if b.meta == nil {
		b.meta = usermeta.NewMemory()
	}
	if b.options == nil {
		b.options = optionstore.NewMemory()
	}

	b.Forums = forum.NewService(b.store, b.log)
	b.Topics = topic.NewService(b.store, b.options, b.Forums, b.log)
	b.Replies = reply.NewService(b.store, b.Forums, b.Topics, b.log)
	b.Users = user.NewService(b.store, b.meta, b.log)
	b.Roles = role.NewManager(b.meta, b.options, b.log)
	b.Access = role.NewResolver(b.Roles, b.store)
	b.Subscriptions = subscribe.NewService(b.meta, b.index, b.log)

	if b.mail != nil && b.users != nil {
		b.Notifier = subscribe.NewNotifier(b.Subscriptions, b.store, b.mail, b.users, b.Access, b.notify, b.log)
	}
	if b.secret != "" && b.current != nil {
		b.Actions = action.NewHandler(
			b.Subscriptions, b.Topics, b.Forums, b.Access,
			action.NewNonces(b.secret, 0), b.current, b.log,
		)
	}

	b.Replies.PostedEvent.Subscribe(b.onReplyPosted)
	b.Topics.Created.Subscribe(b.onTopicCreated)

	return b, nil
}

// onTopicCreated keeps the author's topic counter current.
func (b *Board) onTopicCreated(ctx context.Context, item *contentstore.Item) {
	if _, err := b.Users.RecountTopics(ctx, item.AuthorID); err != nil {
		b.log.ErrorContext(ctx, "user topic recount failed",
			slog.Int64("user_id", item.AuthorID),
			slog.Any("error", err),
		)
	}
}

// onReplyPosted settles the author's reply counter and kicks off
// notification delivery, queued when a queue is wired and inline
// otherwise. Notification failures are logged, never propagated: the
// reply is already posted.
func (b *Board) onReplyPosted(ctx context.Context, p reply.Posted) {
	if _, err := b.Users.RecountReplies(ctx, p.Reply.AuthorID); err != nil {
		b.log.ErrorContext(ctx, "user reply recount failed",
			slog.Int64("user_id", p.Reply.AuthorID),
			slog.Any("error", err),
		)
	}

	if b.Notifier == nil {
		return
	}
	if b.enqueue != nil {
		if err := b.enqueue.Enqueue(ctx, NotifyReplyTask, NotifyPayload{ReplyID: p.Reply.ID}); err != nil {
			b.log.ErrorContext(ctx, "notification enqueue failed",
				slog.Int64("reply_id", p.Reply.ID),
				slog.Any("error", err),
			)
		}
		return
	}
	if err := b.Notifier.NotifyReply(ctx, p.Reply.ID); err != nil {
		b.log.ErrorContext(ctx, "reply notification failed",
			slog.Int64("reply_id", p.Reply.ID),
			slog.Any("error", err),
		)
	}
}

// UseQueue switches notification delivery to the queue after
// construction. The queue's task registry usually needs the Board's
// Notifier, which makes this a chicken-and-egg WithQueue cannot
// solve: build the Board, register NewNotifyTask on the manager, then
// hand the manager back here.
func (b *Board) UseQueue(q Enqueuer) {
	b.enqueue = q
}

// Reconcile recomputes every counter on the board from the raw rows:
// forums, topics and the sticky lists' hygiene. Intended to run from a
// scheduled job to heal the drift the trigger-based counters tolerate.
func (b *Board) Reconcile(ctx context.Context) error {
	forums, _, err := b.store.List(ctx, contentstore.Query{Types: []string{post.TypeForum}})
	if err != nil {
		return err
	}
	topics, _, err := b.store.List(ctx, contentstore.Query{Types: []string{post.TypeTopic}})
	if err != nil {
		return err
	}

	for _, t := range topics {
		if _, err := b.Topics.RecountReplies(ctx, t.ID); err != nil {
			return err
		}
		if _, err := b.Topics.RecountVoices(ctx, t.ID); err != nil {
			return err
		}
		if err := b.Topics.RecountLatest(ctx, t.ID); err != nil {
			return err
		}
	}
	for _, f := range forums {
		if _, err := b.Forums.RecountTopics(ctx, f.ID); err != nil {
			return err
		}
		if _, err := b.Forums.RecountReplies(ctx, f.ID); err != nil {
			return err
		}
		if err := b.Forums.RecountLatest(ctx, f.ID); err != nil {
			return err
		}
	}

	b.log.InfoContext(ctx, "board reconciled",
		slog.Int("forums", len(forums)),
		slog.Int("topics", len(topics)),
	)
	return nil
}
