package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hn-son/let-him-cook-backend/internal/recipe"
	"github.com/hn-son/let-him-cook-backend/internal/storage"
	"github.com/hn-son/let-him-cook-backend/models"
)

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func createTestRecipe(t *testing.T, s *RecipeMemoryStorage, title, authorID string, approved bool, ingredients ...string) *models.Recipe {
	t.Helper()
	r := &models.Recipe{
		Title:       title,
		Description: title + " description",
		Steps:       []string{"cook"},
		Difficulty:  models.DifficultyMedium,
		AuthorID:    authorID,
		IsApproved:  approved,
		CreatedAt:   baseTime,
		UpdatedAt:   baseTime,
	}
	for _, name := range ingredients {
		r.Ingredients = append(r.Ingredients, models.Ingredient{Name: name, Quantity: "1", Unit: "pcs"})
	}
	created, err := s.CreateRecipe(context.Background(), r)
	require.NoError(t, err)
	return created
}

func approvedOnly() *bool {
	v := true
	return &v
}

func TestRecipeMemoryStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewRecipeMemoryStorage()

	minutes := 30
	created, err := s.CreateRecipe(ctx, &models.Recipe{
		Title:       "Pho",
		Ingredients: []models.Ingredient{{Name: "Beef", Quantity: "500", Unit: "g"}},
		CookingTime: &minutes,
		AuthorID:    "u1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	// Изменение исходных данных не влияет на хранилище
	minutes = 90
	found, err := s.GetRecipeByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, *found.CookingTime)

	_, err = s.GetRecipeByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	batch, err := s.GetRecipesByIDs(ctx, []string{created.ID, "missing"})
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, created.ID, batch[0].ID)
}

func TestRecipeMemoryStorage_ListRecipes(t *testing.T) {
	ctx := context.Background()
	s := NewRecipeMemoryStorage()

	first := createTestRecipe(t, s, "Omelette", "u1", true, "Egg", "Milk")
	second := createTestRecipe(t, s, "Pancakes", "u2", true, "flour", "egg")
	pending := createTestRecipe(t, s, "Secret", "u1", false, "Egg")

	t.Run("Newest first with insertion order on ties", func(t *testing.T) {
		all, err := s.ListRecipes(ctx, recipe.Filter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, pending.ID, all[0].ID)
		assert.Equal(t, second.ID, all[1].ID)
		assert.Equal(t, first.ID, all[2].ID)
	})

	t.Run("Approved only", func(t *testing.T) {
		approved, err := s.ListRecipes(ctx, recipe.Filter{Approved: approvedOnly()})
		require.NoError(t, err)
		assert.Len(t, approved, 2)
	})

	t.Run("By author", func(t *testing.T) {
		mine, err := s.ListRecipes(ctx, recipe.Filter{AuthorID: "u1"})
		require.NoError(t, err)
		assert.Len(t, mine, 2)
	})

	t.Run("By ingredient name ignores case", func(t *testing.T) {
		withEgg, err := s.ListRecipes(ctx, recipe.Filter{
			Approved:        approvedOnly(),
			IngredientNames: []string{"EGG"},
		})
		require.NoError(t, err)
		assert.Len(t, withEgg, 2)

		withMilk, err := s.ListRecipes(ctx, recipe.Filter{IngredientNames: []string{"milk"}})
		require.NoError(t, err)
		require.Len(t, withMilk, 1)
		assert.Equal(t, first.ID, withMilk[0].ID)
	})

	t.Run("Pagination", func(t *testing.T) {
		page, err := s.ListRecipes(ctx, recipe.Filter{Page: models.Page{Limit: 1, Offset: 1}})
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, second.ID, page[0].ID)
	})
}

func TestRecipeMemoryStorage_Search(t *testing.T) {
	ctx := context.Background()
	s := NewRecipeMemoryStorage()
	createTestRecipe(t, s, "Chicken Curry", "u1", true)
	createTestRecipe(t, s, "Curry Secret", "u1", false)

	_, err := s.SearchText(ctx, "curry", models.Page{Limit: 10})
	assert.ErrorIs(t, err, storage.ErrNoTextIndex)

	found, err := s.SearchTitle(ctx, "CURRY", models.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Chicken Curry", found[0].Title)
}

func TestRecipeMemoryStorage_UpdateAndApprove(t *testing.T) {
	ctx := context.Background()
	s := NewRecipeMemoryStorage()
	r := createTestRecipe(t, s, "Soup", "u1", false)

	r.Title = "Tomato Soup"
	r.AuthorID = "intruder"
	updated, err := s.UpdateRecipe(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, "Tomato Soup", updated.Title)
	assert.Equal(t, "u1", updated.AuthorID)

	approved, err := s.SetApproved(ctx, r.ID, true)
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)

	_, err = s.SetApproved(ctx, "missing", true)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRecipeMemoryStorage_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewRecipeMemoryStorage()
	a := createTestRecipe(t, s, "A", "u1", true)
	b := createTestRecipe(t, s, "B", "u1", true)
	c := createTestRecipe(t, s, "C", "ghost", true)

	orphans, err := s.ListOrphanedRecipeIDs(ctx, []string{"u1"})
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, orphans)

	ids, err := s.ListRecipeIDs(ctx, "u1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)

	require.NoError(t, s.DeleteRecipe(ctx, a.ID))
	assert.ErrorIs(t, s.DeleteRecipe(ctx, a.ID), storage.ErrNotFound)

	deleted, err := s.DeleteRecipes(ctx, []string{a.ID, b.ID, c.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	all, err := s.ListRecipeIDs(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}
