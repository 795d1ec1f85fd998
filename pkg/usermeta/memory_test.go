package usermeta_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boardkit/boardkit/pkg/usermeta"
)

func TestMemory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("set, get, delete", func(t *testing.T) {
		t.Parallel()
		m := usermeta.NewMemory()

		_, err := m.Get(ctx, 1, "nope")
		require.ErrorIs(t, err, usermeta.ErrNotFound)

		require.NoError(t, m.Set(ctx, 1, "k", "v"))
		v, err := m.Get(ctx, 1, "k")
		require.NoError(t, err)
		require.Equal(t, "v", v)

		require.NoError(t, m.Delete(ctx, 1, "k"))
		_, err = m.Get(ctx, 1, "k")
		require.ErrorIs(t, err, usermeta.ErrNotFound)

		// Deleting an absent key is fine.
		require.NoError(t, m.Delete(ctx, 99, "k"))
	})

	t.Run("reverse lookup matches whole members only", func(t *testing.T) {
		t.Parallel()
		m := usermeta.NewMemory()

		require.NoError(t, m.Set(ctx, 1, "subs", "12,34"))
		require.NoError(t, m.Set(ctx, 2, "subs", "112"))
		require.NoError(t, m.Set(ctx, 3, "subs", "34,12"))
		require.NoError(t, m.Set(ctx, 4, "other", "12"))

		users, err := m.UsersWithValueContaining(ctx, "subs", "12")
		require.NoError(t, err)
		require.Equal(t, []int64{1, 3}, users)
	})

	t.Run("roles round trip", func(t *testing.T) {
		t.Parallel()
		m := usermeta.NewMemory()

		roles, err := m.Roles(ctx, 1)
		require.NoError(t, err)
		require.Empty(t, roles)

		require.NoError(t, m.SetRoles(ctx, 1, []string{"editor", "participant"}))
		roles, err = m.Roles(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, []string{"editor", "participant"}, roles)
	})
}
