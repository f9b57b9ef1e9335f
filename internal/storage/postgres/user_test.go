package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hn-son/let-him-cook-backend/internal/storage"
	"github.com/hn-son/let-him-cook-backend/models"
)

func newUser(name string) *models.User {
	return &models.User{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "hash",
		Role:         models.RoleUser,
	}
}

func TestUserPostgresStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewUserPostgresStorage(newTestDB(t))

	created, err := s.CreateUser(ctx, newUser("cook"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, []string{}, created.FavoriteRecipes)

	t.Run("By id", func(t *testing.T) {
		u, err := s.GetUserByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "cook", u.Username)
		assert.Equal(t, models.RoleUser, u.Role)
	})

	t.Run("By email ignores case", func(t *testing.T) {
		u, err := s.GetUserByEmail(ctx, "COOK@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, u.ID)
	})

	t.Run("By username", func(t *testing.T) {
		u, err := s.GetUserByUsername(ctx, "cook")
		require.NoError(t, err)
		assert.Equal(t, created.ID, u.ID)
	})

	t.Run("Missing user", func(t *testing.T) {
		_, err := s.GetUserByID(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Duplicates", func(t *testing.T) {
		_, err := s.CreateUser(ctx, &models.User{Username: "cook", Email: "other@example.com", Role: models.RoleUser})
		assert.ErrorIs(t, err, storage.ErrDuplicate)

		_, err = s.CreateUser(ctx, &models.User{Username: "other", Email: "cook@example.com", Role: models.RoleUser})
		assert.ErrorIs(t, err, storage.ErrDuplicate)
	})
}

func TestUserPostgresStorage_ListUsers(t *testing.T) {
	ctx := context.Background()
	s := NewUserPostgresStorage(newTestDB(t))

	me, err := s.CreateUser(ctx, newUser("me"))
	require.NoError(t, err)
	for _, name := range []string{"zoe", "ann", "bob"} {
		_, err := s.CreateUser(ctx, newUser(name))
		require.NoError(t, err)
	}

	users, err := s.ListUsers(ctx, me.ID, models.Page{Limit: 2})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "ann", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)

	users, err = s.ListUsers(ctx, me.ID, models.Page{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "zoe", users[0].Username)

	ids, err := s.ListUserIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 4)
}

func TestUserPostgresStorage_UpdateUser(t *testing.T) {
	ctx := context.Background()
	s := NewUserPostgresStorage(newTestDB(t))

	u, err := s.CreateUser(ctx, newUser("before"))
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, newUser("taken"))
	require.NoError(t, err)

	u.Username = "after"
	u.Role = models.RoleAdmin
	updated, err := s.UpdateUser(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Username)
	assert.Equal(t, models.RoleAdmin, updated.Role)

	u.Username = "taken"
	_, err = s.UpdateUser(ctx, u)
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	_, err = s.UpdateUser(ctx, &models.User{ID: "missing", Username: "ghost", Email: "ghost@example.com"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUserPostgresStorage_Favorites(t *testing.T) {
	ctx := context.Background()
	s := NewUserPostgresStorage(newTestDB(t))

	alice, err := s.CreateUser(ctx, newUser("alice"))
	require.NoError(t, err)
	bob, err := s.CreateUser(ctx, newUser("bob"))
	require.NoError(t, err)

	t.Run("Add is idempotent", func(t *testing.T) {
		_, err := s.AddFavorite(ctx, alice.ID, "r1")
		require.NoError(t, err)
		u, err := s.AddFavorite(ctx, alice.ID, "r1")
		require.NoError(t, err)
		assert.Equal(t, []string{"r1"}, u.FavoriteRecipes)
	})

	t.Run("Unknown user", func(t *testing.T) {
		_, err := s.AddFavorite(ctx, "missing", "r1")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Remove", func(t *testing.T) {
		_, err := s.AddFavorite(ctx, alice.ID, "r2")
		require.NoError(t, err)
		u, err := s.RemoveFavorite(ctx, alice.ID, "r1")
		require.NoError(t, err)
		assert.Equal(t, []string{"r2"}, u.FavoriteRecipes)

		u, err = s.RemoveFavorite(ctx, alice.ID, "not-there")
		require.NoError(t, err)
		assert.Equal(t, []string{"r2"}, u.FavoriteRecipes)
	})

	t.Run("Remove everywhere", func(t *testing.T) {
		_, err := s.AddFavorite(ctx, bob.ID, "r2")
		require.NoError(t, err)
		_, err = s.AddFavorite(ctx, bob.ID, "r3")
		require.NoError(t, err)

		require.NoError(t, s.RemoveFavoriteEverywhere(ctx, []string{"r2"}))

		a, err := s.GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Empty(t, a.FavoriteRecipes)
		b, err := s.GetUserByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"r3"}, b.FavoriteRecipes)
	})

	t.Run("Prune", func(t *testing.T) {
		_, err := s.AddFavorite(ctx, alice.ID, "r4")
		require.NoError(t, err)

		favored, err := s.ListFavoriteRecipeIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"r3", "r4"}, favored)

		affected, err := s.PruneFavorites(ctx, []string{"r3"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)

		b, err := s.GetUserByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, b.FavoriteRecipes)
		a, err := s.GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"r4"}, a.FavoriteRecipes)

		affected, err = s.PruneFavorites(ctx, []string{"r3"})
		require.NoError(t, err)
		assert.Zero(t, affected)

		affected, err = s.PruneFavorites(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, affected)
	})
}

func TestUserPostgresStorage_DeleteUser(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	s := NewUserPostgresStorage(db)

	u, err := s.CreateUser(ctx, newUser("leaving"))
	require.NoError(t, err)
	_, err = s.AddFavorite(ctx, u.ID, "r1")
	require.NoError(t, err)

	require.NoError(t, s.DeleteUser(ctx, u.ID))
	_, err = s.GetUserByID(ctx, u.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	var left int
	require.NoError(t, db.conn.Model(&favoriteRow{}).Count(&left).Error)
	assert.Zero(t, left)

	assert.ErrorIs(t, s.DeleteUser(ctx, u.ID), storage.ErrNotFound)
}
