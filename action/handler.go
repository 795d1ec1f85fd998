package action

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/boardkit/boardkit/forum"
	"github.com/boardkit/boardkit/pkg/logger"
	"github.com/boardkit/boardkit/role"
	"github.com/boardkit/boardkit/subscribe"
	"github.com/boardkit/boardkit/topic"
)

// errForbidden maps to a 403 without leaking why.
var errForbidden = errors.New("action: forbidden")

// Action names. They double as the token binding, so a subscribe token
// cannot drive an unsubscribe.
const (
	Subscribe        = "subscribe"
	Unsubscribe      = "unsubscribe"
	SubscribeForum   = "subscribe-forum"
	UnsubscribeForum = "unsubscribe-forum"
	Bookmark         = "bookmark"
	Unbookmark       = "unbookmark"
	Stick            = "stick"
	Superstick       = "superstick"
	Unstick          = "unstick"
	Close            = "close"
	Open             = "open"
	Spam             = "spam"
	Unspam           = "unspam"
)

// CurrentUser extracts the acting user's ID from a request. The host
// owns authentication, so it provides this; returning 0 means
// anonymous.
type CurrentUser func(r *http.Request) int64

// Handler serves the action endpoints.
type Handler struct {
	subs     *subscribe.Service
	topics   *topic.Service
	forums   *forum.Service
	resolver *role.Resolver
	nonces   *Nonces
	user     CurrentUser
	log      *slog.Logger
}

// NewHandler creates an action handler. A nil logger discards logs.
func NewHandler(subs *subscribe.Service, topics *topic.Service, forums *forum.Service, resolver *role.Resolver, nonces *Nonces, user CurrentUser, log *slog.Logger) *Handler {
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{subs: subs, topics: topics, forums: forums, resolver: resolver, nonces: nonces, user: user, log: log}
}

// Routes mounts the action endpoints on a fresh chi router. All
// actions are POSTs carrying the signed token in the _token query
// parameter.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/topics/{id}", func(r chi.Router) {
		r.Post("/subscribe", h.topicAction(Subscribe, h.doSubscribe))
		r.Post("/unsubscribe", h.topicAction(Unsubscribe, h.doUnsubscribe))
		r.Post("/bookmark", h.topicAction(Bookmark, h.doBookmark))
		r.Post("/unbookmark", h.topicAction(Unbookmark, h.doUnbookmark))
		r.Post("/stick", h.moderation(Stick, h.topics.Stick))
		r.Post("/superstick", h.moderation(Superstick, h.topics.Superstick))
		r.Post("/unstick", h.moderation(Unstick, h.topics.Unstick))
		r.Post("/close", h.moderation(Close, h.topics.Close))
		r.Post("/open", h.moderation(Open, h.topics.Open))
		r.Post("/spam", h.moderation(Spam, h.topics.Spam))
		r.Post("/unspam", h.moderation(Unspam, h.topics.Unspam))
	})
	r.Route("/forums/{id}", func(r chi.Router) {
		r.Post("/subscribe", h.topicAction(SubscribeForum, h.doSubscribeForum))
		r.Post("/unsubscribe", h.topicAction(UnsubscribeForum, h.doUnsubscribeForum))
	})

	return r
}

// URL builds a ready-to-post action URL including a fresh token.
func (h *Handler) URL(base, name string, userID, itemID int64) string {
	scope := "topics"
	if name == SubscribeForum || name == UnsubscribeForum {
		scope = "forums"
	}
	token := h.nonces.Create(name, userID, itemID)
	return base + "/" + scope + "/" + strconv.FormatInt(itemID, 10) + "/" + trimScope(name) + "?_token=" + token
}

// trimScope maps forum action names back to their route segment.
func trimScope(name string) string {
	switch name {
	case SubscribeForum:
		return "subscribe"
	case UnsubscribeForum:
		return "unsubscribe"
	}
	return name
}

type actionFunc func(r *http.Request, userID, itemID int64) error

// topicAction wraps the per-user list actions: authenticate, verify
// the token, run.
func (h *Handler) topicAction(name string, fn actionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, itemID, ok := h.verified(w, r, name)
		if !ok {
			return
		}
		if err := fn(r, userID, itemID); err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w)
	}
}

// moderation wraps the single moderation actions behind the moderate
// capability.
func (h *Handler) moderation(name string, fn func(ctx context.Context, id int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, itemID, ok := h.verified(w, r, name)
		if !ok {
			return
		}
		item, err := h.topics.Get(r.Context(), itemID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		allowed, err := h.resolver.CanModerateItem(r.Context(), userID, item)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if !allowed {
			h.error(w, http.StatusForbidden, "forbidden")
			return
		}
		if err := fn(r.Context(), itemID); err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w)
	}
}

func (h *Handler) verified(w http.ResponseWriter, r *http.Request, name string) (userID, itemID int64, ok bool) {
	userID = h.user(r)
	if userID <= 0 {
		h.error(w, http.StatusUnauthorized, "authentication required")
		return 0, 0, false
	}
	itemID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || itemID <= 0 {
		h.error(w, http.StatusBadRequest, "invalid id")
		return 0, 0, false
	}
	if err := h.nonces.Verify(r.URL.Query().Get("_token"), name, userID, itemID); err != nil {
		h.error(w, http.StatusForbidden, err.Error())
		return 0, 0, false
	}
	return userID, itemID, true
}

// readableTopic loads the topic and checks the user may read it.
// Subscribing to or bookmarking content the user cannot see would
// leak it by email later.
func (h *Handler) readableTopic(r *http.Request, userID, itemID int64) error {
	item, err := h.topics.Get(r.Context(), itemID)
	if err != nil {
		return err
	}
	ok, err := h.resolver.CanReadItem(r.Context(), userID, item)
	if err != nil {
		return err
	}
	if !ok {
		return errForbidden
	}
	return nil
}

func (h *Handler) doSubscribe(r *http.Request, userID, itemID int64) error {
	if err := h.readableTopic(r, userID, itemID); err != nil {
		return err
	}
	_, err := h.subs.SubscribeTopic(r.Context(), userID, itemID)
	return err
}

func (h *Handler) doUnsubscribe(r *http.Request, userID, itemID int64) error {
	_, err := h.subs.UnsubscribeTopic(r.Context(), userID, itemID)
	return err
}

func (h *Handler) doSubscribeForum(r *http.Request, userID, itemID int64) error {
	item, err := h.forums.Get(r.Context(), itemID)
	if err != nil {
		return err
	}
	ok, err := h.resolver.CanReadItem(r.Context(), userID, item)
	if err != nil {
		return err
	}
	if !ok {
		return errForbidden
	}
	_, err = h.subs.SubscribeForum(r.Context(), userID, itemID)
	return err
}

func (h *Handler) doUnsubscribeForum(r *http.Request, userID, itemID int64) error {
	_, err := h.subs.UnsubscribeForum(r.Context(), userID, itemID)
	return err
}

func (h *Handler) doBookmark(r *http.Request, userID, itemID int64) error {
	if err := h.readableTopic(r, userID, itemID); err != nil {
		return err
	}
	_, err := h.subs.Bookmark(r.Context(), userID, itemID)
	return err
}

func (h *Handler) doUnbookmark(r *http.Request, userID, itemID int64) error {
	_, err := h.subs.Unbookmark(r.Context(), userID, itemID)
	return err
}

func (h *Handler) ok(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

func (h *Handler) error(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errForbidden):
		h.error(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, topic.ErrNotFound), errors.Is(err, topic.ErrNotTopic),
		errors.Is(err, forum.ErrNotFound), errors.Is(err, forum.ErrNotForum):
		h.error(w, http.StatusNotFound, "not found")
	default:
		h.log.ErrorContext(r.Context(), "action failed", slog.Any("error", err))
		h.error(w, http.StatusInternalServerError, "internal error")
	}
}
