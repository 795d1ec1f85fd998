package boardkit

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"

	"github.com/boardkit/boardkit/action"
	"github.com/boardkit/boardkit/pkg/cache"
	"github.com/boardkit/boardkit/pkg/contentstore"
	"github.com/boardkit/boardkit/pkg/mailer"
	"github.com/boardkit/boardkit/pkg/optionstore"
	"github.com/boardkit/boardkit/pkg/usermeta"
	"github.com/boardkit/boardkit/subscribe"
)

// Option configures the Board.
type Option func(*Board)

// WithLogger sets the board logger. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(b *Board) {
		if l != nil {
			b.log = l
		}
	}
}

// WithPostgres backs all three stores (content, user meta, options)
// with the given pool. Run db.Migrate against migrations.FS first.
func WithPostgres(pool *pgxpool.Pool) Option {
	return func(b *Board) {
		b.store = contentstore.NewPostgres(pool)
		b.meta = usermeta.NewPostgres(pool)
		b.options = optionstore.NewPostgres(pool)
	}
}

// WithContentStore overrides the content store, for hosts that map
// board items onto their own tables.
func WithContentStore(s contentstore.Store) Option {
	return func(b *Board) {
		if s != nil {
			b.store = s
		}
	}
}

// WithUserMeta overrides the user-meta store.
func WithUserMeta(s usermeta.Store) Option {
	return func(b *Board) {
		if s != nil {
			b.meta = s
		}
	}
}

// WithOptionStore overrides the global-options store.
func WithOptionStore(s optionstore.Store) Option {
	return func(b *Board) {
		if s != nil {
			b.options = s
		}
	}
}

// WithRedisIndex keeps the subscriber reverse index in Redis so
// multiple board instances share one cache. Without it the index is
// in-process.
func WithRedisIndex(client redislib.UniversalClient) Option {
	return func(b *Board) {
		if client != nil {
			b.index = cache.NewRedis[[]int64](client, nil, cache.WithPrefix("board"))
		}
	}
}

// WithMail enables email notifications: the mailer delivers, the
// directory resolves subscriber addresses.
func WithMail(m *mailer.Mailer, users subscribe.Directory, cfg subscribe.NotifierConfig) Option {
	return func(b *Board) {
		b.mail = m
		b.users = users
		b.notify = cfg
	}
}

// WithQueue routes notification delivery through a background queue
// instead of sending inline. Register NewNotifyTask on the queue's
// manager so the enqueued payloads are handled.
func WithQueue(q Enqueuer) Option {
	return func(b *Board) {
		b.enqueue = q
	}
}

// WithActions enables the HTTP action endpoints. The secret signs the
// one-click tokens; current resolves the acting user from a request.
func WithActions(secret string, current action.CurrentUser) Option {
	return func(b *Board) {
		b.secret = secret
		b.current = current
	}
}
