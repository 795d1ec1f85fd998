package subscribe

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/boardkit/boardkit/pkg/contentstore"
	"github.com/boardkit/boardkit/pkg/idset"
	"github.com/boardkit/boardkit/pkg/logger"
	"github.com/boardkit/boardkit/pkg/mailer"
	"github.com/boardkit/boardkit/pkg/sanitizer"
)

//go:embed templates
var templatesFS embed.FS

// Templates is the built-in notification template set, usable as the
// filesystem for mailer.NewRenderer.
func Templates() fs.FS {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Directory resolves user IDs to email addresses. The host owns user
// accounts, so it provides this.
type Directory interface {
	// Emails returns addresses for the given user IDs. Users without a
	// deliverable address are simply absent from the result.
	Emails(ctx context.Context, userIDs []int64) (map[int64]string, error)
}

// Access filters notification recipients by read permission.
// role.Resolver satisfies it.
type Access interface {
	CanReadItem(ctx context.Context, userID int64, item *contentstore.Item) (bool, error)
}

// NotifierConfig holds delivery settings.
type NotifierConfig struct {
	// BaseURL prefixes the topic links embedded in emails,
	// e.g. "https://forum.example.com".
	BaseURL string `env:"BOARD_BASE_URL"`

	// From is the sender address for notification emails.
	From string `env:"BOARD_NOTIFY_FROM"`

	// ExcerptLength truncates reply content in the email body.
	ExcerptLength int `env:"BOARD_NOTIFY_EXCERPT" envDefault:"200"`
}

// Notifier sends the new-reply notification to topic subscribers.
type Notifier struct {
	subs   *Service
	store  contentstore.Store
	mail   *mailer.Mailer
	users  Directory
	access Access
	cfg    NotifierConfig
	log    *slog.Logger
}

// NewNotifier creates a notifier. A nil access skips recipient
// filtering; a nil logger discards logs.
func NewNotifier(subs *Service, store contentstore.Store, mail *mailer.Mailer, users Directory, access Access, cfg NotifierConfig, log *slog.Logger) *Notifier {
	if cfg.ExcerptLength <= 0 {
		cfg.ExcerptLength = 200
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Notifier{subs: subs, store: store, mail: mail, users: users, access: access, cfg: cfg, log: log}
}

// replyData feeds the new-reply template.
type replyData struct {
	TopicTitle string
	Excerpt    string
	TopicURL   string
}

// NotifyReply emails everyone subscribed to the topic about a new
// reply. Recipients already subscribed to the parent forum are
// excluded (they are covered by forum-level digests), the reply
// author never hears about their own post, and subscribers who can no
// longer read the topic are dropped. The whole set goes in one BCC so
// subscribers cannot see each other.
func (n *Notifier) NotifyReply(ctx context.Context, replyID int64) error {
	rep, err := n.store.Get(ctx, replyID)
	if err != nil {
		return err
	}
	tp, err := n.store.Get(ctx, rep.ParentID)
	if err != nil {
		return err
	}

	topicSubs, err := n.subs.TopicSubscribers(ctx, tp.ID)
	if err != nil {
		return err
	}
	forumSubs, err := n.subs.ForumSubscribers(ctx, tp.ParentID)
	if err != nil {
		return err
	}

	recipients := idset.New(topicSubs...).Diff(idset.New(forumSubs...), idset.New(rep.AuthorID))
	if n.access != nil {
		// Stale subscriptions outlive permission changes: a topic can be
		// hidden or privatized after someone subscribed. Never mail
		// content the recipient could not read on the site.
		readable := idset.New()
		for _, id := range recipients.IDs() {
			ok, err := n.access.CanReadItem(ctx, id, tp)
			if err != nil {
				return err
			}
			if ok {
				readable.Add(id)
			}
		}
		recipients = readable
	}
	if recipients.Empty() {
		return nil
	}

	emails, err := n.users.Emails(ctx, recipients.IDs())
	if err != nil {
		return err
	}
	bcc := make([]string, 0, len(emails))
	for _, id := range recipients.IDs() {
		if addr, ok := emails[id]; ok && addr != "" {
			bcc = append(bcc, addr)
		}
	}
	if len(bcc) == 0 {
		return nil
	}

	err = n.mail.Send(ctx, mailer.SendParams{
		Template: "new-reply.md",
		From:     n.cfg.From,
		BCC:      bcc,
		Data: replyData{
			TopicTitle: tp.Title,
			Excerpt:    sanitizer.Excerpt(sanitizer.PlainText(rep.Content), n.cfg.ExcerptLength),
			TopicURL:   fmt.Sprintf("%s/topics/%d", n.cfg.BaseURL, tp.ID),
		},
	})
	if err != nil {
		return err
	}

	n.log.InfoContext(ctx, "reply notification sent",
		slog.Int64("reply_id", replyID),
		slog.Int64("topic_id", tp.ID),
		slog.Int("recipients", len(bcc)),
	)
	return nil
}
