package role_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boardkit/boardkit/pkg/contentstore"
	"github.com/boardkit/boardkit/pkg/optionstore"
	"github.com/boardkit/boardkit/pkg/usermeta"
	"github.com/boardkit/boardkit/post"
	"github.com/boardkit/boardkit/role"
)

func newManager(t *testing.T) (*role.Manager, *usermeta.Memory, *optionstore.Memory) {
	t.Helper()
	meta := usermeta.NewMemory()
	options := optionstore.NewMemory()
	return role.NewManager(meta, options, nil), meta, options
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("built-ins cannot be redefined", func(t *testing.T) {
		t.Parallel()
		ok := role.Register(role.Role{Name: role.Keymaster, Caps: map[string]bool{}})
		require.False(t, ok)

		r, found := role.Lookup(role.Keymaster)
		require.True(t, found)
		require.True(t, r.Caps[role.CapKeepGate])
	})

	t.Run("empty names are rejected", func(t *testing.T) {
		t.Parallel()
		require.False(t, role.Register(role.Role{}))
	})
}

func TestGrants(t *testing.T) {
	t.Parallel()

	require.True(t, role.Grants(role.Keymaster, role.CapModerate))
	require.True(t, role.Grants(role.Moderator, role.CapModerate))
	require.False(t, role.Grants(role.Participant, role.CapModerate))
	require.True(t, role.Grants(role.Participant, role.CapPublishTopics))
	require.True(t, role.Grants(role.Spectator, role.CapSpectate))
	require.False(t, role.Grants(role.Spectator, role.CapParticipate))

	// Blocked carries explicit denies for everything.
	require.False(t, role.Grants(role.Blocked, role.CapSpectate))
	require.False(t, role.Grants(role.Blocked, role.CapPublishReplies))

	// The sentinel is never a grant.
	require.False(t, role.Grants(role.Keymaster, role.DoNotAllow))
}

func TestAssign(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("replaces the board role exclusively", func(t *testing.T) {
		t.Parallel()
		m, meta, _ := newManager(t)

		require.NoError(t, m.Assign(ctx, 1, role.Participant))
		require.NoError(t, m.Assign(ctx, 1, role.Moderator))

		roles, err := meta.Roles(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, []string{role.Moderator}, roles)
	})

	t.Run("preserves host roles", func(t *testing.T) {
		t.Parallel()
		m, meta, _ := newManager(t)
		require.NoError(t, meta.SetRoles(ctx, 1, []string{"editor", "subscriber"}))

		require.NoError(t, m.Assign(ctx, 1, role.Participant))

		roles, err := meta.Roles(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, []string{"editor", "subscriber", role.Participant}, roles)
	})

	t.Run("rejects unknown roles", func(t *testing.T) {
		t.Parallel()
		m, _, _ := newManager(t)
		require.ErrorIs(t, m.Assign(ctx, 1, "warlord"), role.ErrUnknownRole)
	})
}

func TestStrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, meta, _ := newManager(t)

	require.NoError(t, meta.SetRoles(ctx, 1, []string{"editor"}))
	require.NoError(t, m.Assign(ctx, 1, role.Participant))
	require.NoError(t, m.Strip(ctx, 1))

	roles, err := meta.Roles(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"editor"}, roles)
}

func TestRoleOf(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("anonymous users spectate", func(t *testing.T) {
		t.Parallel()
		m, _, _ := newManager(t)
		name, err := m.RoleOf(ctx, 0)
		require.NoError(t, err)
		require.Equal(t, role.Spectator, name)
	})

	t.Run("host administrators become keymasters", func(t *testing.T) {
		t.Parallel()
		m, meta, _ := newManager(t)
		require.NoError(t, meta.SetRoles(ctx, 1, []string{role.HostRoleAdministrator}))

		name, err := m.RoleOf(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, role.Keymaster, name)

		// Derivation persists alongside the host role.
		roles, err := meta.Roles(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, []string{role.HostRoleAdministrator, role.Keymaster}, roles)
	})

	t.Run("everyone else gets the configured default", func(t *testing.T) {
		t.Parallel()
		m, _, options := newManager(t)
		require.NoError(t, options.Set(ctx, post.OptionDefaultRole, role.Spectator))

		name, err := m.RoleOf(ctx, 5)
		require.NoError(t, err)
		require.Equal(t, role.Spectator, name)
	})

	t.Run("falls back to participant without config", func(t *testing.T) {
		t.Parallel()
		m, _, _ := newManager(t)
		name, err := m.RoleOf(ctx, 5)
		require.NoError(t, err)
		require.Equal(t, role.Participant, name)
	})
}

func TestResolver(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	setup := func(t *testing.T) (*role.Resolver, *role.Manager, *contentstore.Memory) {
		t.Helper()
		m, _, _ := newManager(t)
		store := contentstore.NewMemory()
		return role.NewResolver(m, store), m, store
	}

	item := func(t *testing.T, store *contentstore.Memory, typ, status string, authorID int64) *contentstore.Item {
		t.Helper()
		it := &contentstore.Item{Type: typ, Status: status, AuthorID: authorID}
		require.NoError(t, store.Create(context.Background(), it))
		return it
	}

	t.Run("read follows status", func(t *testing.T) {
		t.Parallel()
		r, m, store := setup(t)
		require.NoError(t, m.Assign(ctx, 1, role.Participant))
		require.NoError(t, m.Assign(ctx, 2, role.Moderator))

		pub := item(t, store, post.TypeTopic, post.StatusPublish, 9)
		hidden := item(t, store, post.TypeTopic, post.StatusHidden, 9)
		spam := item(t, store, post.TypeTopic, post.StatusSpam, 9)

		ok, err := r.CanReadItem(ctx, 1, pub)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = r.CanReadItem(ctx, 1, hidden)
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = r.CanReadItem(ctx, 2, hidden)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = r.CanReadItem(ctx, 1, spam)
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = r.CanReadItem(ctx, 2, spam)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("an unreadable forum hides its topics", func(t *testing.T) {
		t.Parallel()
		r, m, store := setup(t)
		require.NoError(t, m.Assign(ctx, 1, role.Participant))
		require.NoError(t, m.Assign(ctx, 2, role.Moderator))

		f := item(t, store, post.TypeForum, post.StatusHidden, 9)
		topic := &contentstore.Item{Type: post.TypeTopic, Status: post.StatusPublish, ParentID: f.ID, AuthorID: 9}
		require.NoError(t, store.Create(ctx, topic))
		rep := &contentstore.Item{Type: post.TypeReply, Status: post.StatusPublish, ParentID: topic.ID, AuthorID: 9}
		require.NoError(t, store.Create(ctx, rep))

		// The topic is public, but its forum is not.
		ok, err := r.CanReadItem(ctx, 1, topic)
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = r.CanReadItem(ctx, 1, rep)
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = r.CanReadItem(ctx, 2, topic)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("pending content is visible to its author", func(t *testing.T) {
		t.Parallel()
		r, m, store := setup(t)
		require.NoError(t, m.Assign(ctx, 1, role.Participant))
		require.NoError(t, m.Assign(ctx, 2, role.Participant))

		pending := item(t, store, post.TypeTopic, post.StatusPending, 1)

		ok, err := r.CanReadItem(ctx, 1, pending)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = r.CanReadItem(ctx, 2, pending)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("edit distinguishes own and others", func(t *testing.T) {
		t.Parallel()
		r, m, store := setup(t)
		require.NoError(t, m.Assign(ctx, 1, role.Participant))
		require.NoError(t, m.Assign(ctx, 2, role.Participant))
		require.NoError(t, m.Assign(ctx, 3, role.Moderator))

		own := item(t, store, post.TypeTopic, post.StatusPublish, 1)

		ok, err := r.CanEditItem(ctx, 1, own)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = r.CanEditItem(ctx, 2, own)
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = r.CanEditItem(ctx, 3, own)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("spam freezes edits for everyone", func(t *testing.T) {
		t.Parallel()
		r, m, store := setup(t)
		require.NoError(t, m.Assign(ctx, 1, role.Keymaster))

		spam := item(t, store, post.TypeTopic, post.StatusSpam, 1)
		ok, err := r.CanEditItem(ctx, 1, spam)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("posting gates on forum and topic state", func(t *testing.T) {
		t.Parallel()
		r, m, store := setup(t)
		require.NoError(t, m.Assign(ctx, 1, role.Participant))
		require.NoError(t, m.Assign(ctx, 2, role.Moderator))

		forum := item(t, store, post.TypeForum, post.StatusPublish, 9)
		category := item(t, store, post.TypeForum, post.StatusPublish, 9)
		require.NoError(t, store.SetMeta(ctx, category.ID, post.MetaForumType, post.ForumTypeCategory))

		ok, err := r.CanPostTopic(ctx, 1, forum.ID)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = r.CanPostTopic(ctx, 1, category.ID)
		require.NoError(t, err)
		require.False(t, ok)

		closedForum := item(t, store, post.TypeForum, post.StatusClosed, 9)
		ok, err = r.CanPostTopic(ctx, 1, closedForum.ID)
		require.NoError(t, err)
		require.False(t, ok)

		open := item(t, store, post.TypeTopic, post.StatusPublish, 9)
		closed := item(t, store, post.TypeTopic, post.StatusClosed, 9)

		ok, err = r.CanPostReply(ctx, 1, open.ID)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = r.CanPostReply(ctx, 1, closed.ID)
		require.NoError(t, err)
		require.False(t, ok)

		// Moderators may reply into closed topics.
		ok, err = r.CanPostReply(ctx, 2, closed.ID)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("blocked users can do nothing", func(t *testing.T) {
		t.Parallel()
		r, m, store := setup(t)
		require.NoError(t, m.Assign(ctx, 1, role.Blocked))

		pub := item(t, store, post.TypeTopic, post.StatusPublish, 1)

		ok, err := r.CanReadItem(ctx, 1, pub)
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = r.CanEditItem(ctx, 1, pub)
		require.NoError(t, err)
		require.False(t, ok)
	})
}
