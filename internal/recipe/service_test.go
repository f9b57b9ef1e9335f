package recipe_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hn-son/let-him-cook-backend/internal/apperror"
	"github.com/hn-son/let-him-cook-backend/internal/policy"
	"github.com/hn-son/let-him-cook-backend/internal/recipe"
	"github.com/hn-son/let-him-cook-backend/internal/storage/memory"
	"github.com/hn-son/let-him-cook-backend/internal/subscription"
	"github.com/hn-son/let-him-cook-backend/models"
)

type recordingRemover struct {
	store   *memory.RecipeMemoryStorage
	removed []string
}

func (r *recordingRemover) DeleteRecipe(ctx context.Context, rec *models.Recipe) error {
	r.removed = append(r.removed, rec.ID)
	return r.store.DeleteRecipe(ctx, rec.ID)
}

var (
	alice = &policy.Actor{ID: "alice", Username: "alice", Role: models.RoleUser}
	bob   = &policy.Actor{ID: "bob", Username: "bob", Role: models.RoleUser}
	admin = &policy.Actor{ID: "root", Username: "root", Role: models.RoleAdmin}
)

func newTestService() (*recipe.Service, *memory.RecipeMemoryStorage, *recordingRemover, *subscription.SubscriptionManager) {
	store := memory.NewRecipeMemoryStorage()
	remover := &recordingRemover{store: store}
	events := subscription.NewSubscriptionManager()
	return recipe.NewService(store, remover, events), store, remover, events
}

func validInput(title string) recipe.Input {
	return recipe.Input{
		Title:       title,
		Description: "A **classic** dish",
		Ingredients: []models.Ingredient{{Name: "Egg", Quantity: "2", Unit: "pcs"}},
		Steps:       []string{"Whisk", "Fry"},
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	t.Run("Anonymous is rejected", func(t *testing.T) {
		_, err := svc.Create(ctx, nil, validInput("Omelette"))
		assert.True(t, apperror.Is(err, apperror.KindUnauthenticated))
	})

	t.Run("User recipe starts pending with defaults", func(t *testing.T) {
		r, err := svc.Create(ctx, alice, validInput("  <b>Omelette</b> "))
		require.NoError(t, err)
		assert.Equal(t, "Omelette", r.Title)
		assert.Equal(t, "alice", r.AuthorID)
		assert.Equal(t, models.DifficultyMedium, r.Difficulty)
		assert.False(t, r.IsApproved)
		assert.False(t, r.CreatedAt.IsZero())
	})

	t.Run("Admin recipe is approved", func(t *testing.T) {
		r, err := svc.Create(ctx, admin, validInput("Admin soup"))
		require.NoError(t, err)
		assert.True(t, r.IsApproved)
	})

	t.Run("Missing ingredient field", func(t *testing.T) {
		in := validInput("Broken")
		in.Ingredients[0].Unit = ""
		_, err := svc.Create(ctx, alice, in)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.KindInvalidInput))
		assert.Contains(t, err.Error(), "ingredients[0].unit")
	})

	t.Run("Unknown difficulty", func(t *testing.T) {
		in := validInput("Hard one")
		in.Difficulty = "impossible"
		_, err := svc.Create(ctx, alice, in)
		assert.True(t, apperror.Is(err, apperror.KindInvalidInput))
	})

	t.Run("No steps", func(t *testing.T) {
		in := validInput("Stepless")
		in.Steps = nil
		_, err := svc.Create(ctx, alice, in)
		assert.True(t, apperror.Is(err, apperror.KindInvalidInput))
	})
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	pending, err := svc.Create(ctx, alice, validInput("Pending"))
	require.NoError(t, err)

	t.Run("Owner sees pending recipe", func(t *testing.T) {
		r, err := svc.Get(ctx, alice, pending.ID)
		require.NoError(t, err)
		assert.Equal(t, pending.ID, r.ID)
	})

	t.Run("Admin sees pending recipe", func(t *testing.T) {
		_, err := svc.Get(ctx, admin, pending.ID)
		assert.NoError(t, err)
	})

	t.Run("Others do not", func(t *testing.T) {
		_, err := svc.Get(ctx, bob, pending.ID)
		assert.True(t, apperror.Is(err, apperror.KindNotFound))
		_, err = svc.Get(ctx, nil, pending.ID)
		assert.True(t, apperror.Is(err, apperror.KindNotFound))
	})

	t.Run("Missing recipe", func(t *testing.T) {
		_, err := svc.Get(ctx, admin, "missing")
		assert.True(t, apperror.Is(err, apperror.KindNotFound))
	})
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	newTitle := "Better title"

	t.Run("Non-admin edit resets approval", func(t *testing.T) {
		r, err := svc.Create(ctx, alice, validInput("Stew"))
		require.NoError(t, err)
		_, err = svc.Approve(ctx, admin, r.ID)
		require.NoError(t, err)

		updated, err := svc.Update(ctx, alice, r.ID, recipe.Patch{Title: &newTitle})
		require.NoError(t, err)
		assert.Equal(t, newTitle, updated.Title)
		assert.False(t, updated.IsApproved)
		assert.Equal(t, "Whisk", updated.Steps[0])
	})

	t.Run("Admin edit preserves approval", func(t *testing.T) {
		r, err := svc.Create(ctx, alice, validInput("Roast"))
		require.NoError(t, err)
		_, err = svc.Approve(ctx, admin, r.ID)
		require.NoError(t, err)

		updated, err := svc.Update(ctx, admin, r.ID, recipe.Patch{Title: &newTitle})
		require.NoError(t, err)
		assert.True(t, updated.IsApproved)
		assert.Equal(t, "alice", updated.AuthorID)

		pending, err := svc.Create(ctx, alice, validInput("Still pending"))
		require.NoError(t, err)
		updated, err = svc.Update(ctx, admin, pending.ID, recipe.Patch{Title: &newTitle})
		require.NoError(t, err)
		assert.False(t, updated.IsApproved)
	})

	t.Run("Stranger is forbidden", func(t *testing.T) {
		r, err := svc.Create(ctx, alice, validInput("Mine"))
		require.NoError(t, err)
		_, err = svc.Update(ctx, bob, r.ID, recipe.Patch{Title: &newTitle})
		assert.True(t, apperror.Is(err, apperror.KindForbidden))
	})

	t.Run("Anonymous is rejected before lookup", func(t *testing.T) {
		_, err := svc.Update(ctx, nil, "missing", recipe.Patch{Title: &newTitle})
		assert.True(t, apperror.Is(err, apperror.KindUnauthenticated))
	})

	t.Run("Invalid image url", func(t *testing.T) {
		r, err := svc.Create(ctx, alice, validInput("Pic"))
		require.NoError(t, err)
		bad := "not a url"
		_, err = svc.Update(ctx, alice, r.ID, recipe.Patch{ImageURL: &bad})
		assert.True(t, apperror.Is(err, apperror.KindInvalidInput))

		empty := ""
		updated, err := svc.Update(ctx, alice, r.ID, recipe.Patch{ImageURL: &empty})
		require.NoError(t, err)
		assert.Empty(t, updated.ImageURL)
	})

	t.Run("Cooking time is cleared only explicitly", func(t *testing.T) {
		in := validInput("Slow roast")
		minutes := 240
		in.CookingTime = &minutes
		r, err := svc.Create(ctx, alice, in)
		require.NoError(t, err)

		kept, err := svc.Update(ctx, alice, r.ID, recipe.Patch{Title: &newTitle})
		require.NoError(t, err)
		require.NotNil(t, kept.CookingTime)
		assert.Equal(t, 240, *kept.CookingTime)

		cleared, err := svc.Update(ctx, alice, r.ID, recipe.Patch{ClearCookingTime: true})
		require.NoError(t, err)
		assert.Nil(t, cleared.CookingTime)

		_, err = svc.Update(ctx, alice, r.ID, recipe.Patch{CookingTime: &minutes, ClearCookingTime: true})
		assert.True(t, apperror.Is(err, apperror.KindInvalidInput))
	})
}

// cdnGuard пропускает ссылки на CDN только из каталога владельца
type cdnGuard struct{}

func (cdnGuard) CheckImageURL(ownerID, imageURL string) error {
	const cdn = "https://cdn.example.com/"
	if strings.HasPrefix(imageURL, cdn) && !strings.HasPrefix(imageURL, cdn+"recipes/"+ownerID+"/") {
		return apperror.InvalidInput("foreign image")
	}
	return nil
}

func TestService_ImageOwnership(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRecipeMemoryStorage()
	svc := recipe.NewService(store, &recordingRemover{store: store}, nil, recipe.WithImageGuard(cdnGuard{}))

	withImage := func(url string) recipe.Input {
		in := validInput("Tart")
		in.ImageURL = url
		return in
	}

	t.Run("Create rejects another user's upload", func(t *testing.T) {
		_, err := svc.Create(ctx, bob, withImage("https://cdn.example.com/recipes/alice/tart.png"))
		assert.True(t, apperror.Is(err, apperror.KindInvalidInput))

		r, err := svc.Create(ctx, bob, withImage("https://cdn.example.com/recipes/bob/tart.png"))
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/recipes/bob/tart.png", r.ImageURL)

		_, err = svc.Create(ctx, bob, withImage("https://images.example.org/tart.png"))
		assert.NoError(t, err)
	})

	t.Run("Update checks against the recipe author", func(t *testing.T) {
		r, err := svc.Create(ctx, alice, validInput("Pie"))
		require.NoError(t, err)

		foreign := "https://cdn.example.com/recipes/bob/pie.png"
		_, err = svc.Update(ctx, alice, r.ID, recipe.Patch{ImageURL: &foreign})
		assert.True(t, apperror.Is(err, apperror.KindInvalidInput))

		// администратор не может подставить свой объект в чужой рецепт
		adminUpload := "https://cdn.example.com/recipes/root/pie.png"
		_, err = svc.Update(ctx, admin, r.ID, recipe.Patch{ImageURL: &adminUpload})
		assert.True(t, apperror.Is(err, apperror.KindInvalidInput))

		own := "https://cdn.example.com/recipes/alice/pie.png"
		updated, err := svc.Update(ctx, admin, r.ID, recipe.Patch{ImageURL: &own})
		require.NoError(t, err)
		assert.Equal(t, own, updated.ImageURL)
	})
}

func TestService_Approve(t *testing.T) {
	ctx := context.Background()
	svc, _, _, events := newTestService()

	approvals, cancel := events.Subscribe(subscription.TopicRecipeApproved)
	defer cancel()

	r, err := svc.Create(ctx, alice, validInput("Curry"))
	require.NoError(t, err)

	t.Run("Only admins approve", func(t *testing.T) {
		_, err := svc.Approve(ctx, alice, r.ID)
		assert.True(t, apperror.Is(err, apperror.KindForbidden))
	})

	t.Run("Approve publishes once", func(t *testing.T) {
		approved, err := svc.Approve(ctx, admin, r.ID)
		require.NoError(t, err)
		assert.True(t, approved.IsApproved)

		select {
		case ev := <-approvals:
			assert.Equal(t, r.ID, ev.RecipeID)
			assert.Equal(t, admin.ID, ev.ActorID)
		case <-time.After(time.Second):
			t.Fatal("Timed out waiting for approval event")
		}

		again, err := svc.Approve(ctx, admin, r.ID)
		require.NoError(t, err)
		assert.True(t, again.IsApproved)

		select {
		case <-approvals:
			t.Fatal("Repeated approval should not publish")
		case <-time.After(50 * time.Millisecond):
		}
	})
}

func TestService_Lists(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	pending, err := svc.Create(ctx, alice, validInput("Pending pie"))
	require.NoError(t, err)
	approved, err := svc.Create(ctx, alice, validInput("Approved pie"))
	require.NoError(t, err)
	_, err = svc.Approve(ctx, admin, approved.ID)
	require.NoError(t, err)

	t.Run("Public list shows approved only", func(t *testing.T) {
		list, err := svc.List(ctx, models.Page{})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, approved.ID, list[0].ID)
	})

	t.Run("Pending list is admin only", func(t *testing.T) {
		_, err := svc.Pending(ctx, alice)
		assert.True(t, apperror.Is(err, apperror.KindForbidden))

		list, err := svc.Pending(ctx, admin)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, pending.ID, list[0].ID)
	})

	t.Run("Own recipes are unscoped", func(t *testing.T) {
		mine, err := svc.Mine(ctx, alice)
		require.NoError(t, err)
		assert.Len(t, mine, 2)

		_, err = svc.Mine(ctx, nil)
		assert.True(t, apperror.Is(err, apperror.KindUnauthenticated))
	})

	t.Run("Authored recipes depend on viewer", func(t *testing.T) {
		visible, err := svc.AuthoredBy(ctx, bob, alice.ID)
		require.NoError(t, err)
		assert.Len(t, visible, 1)

		visible, err = svc.AuthoredBy(ctx, alice, alice.ID)
		require.NoError(t, err)
		assert.Len(t, visible, 2)
	})

	t.Run("By ingredients", func(t *testing.T) {
		found, err := svc.ByIngredients(ctx, []string{" egg "})
		require.NoError(t, err)
		assert.Len(t, found, 1)

		none, err := svc.ByIngredients(ctx, []string{"saffron"})
		require.NoError(t, err)
		assert.Empty(t, none)

		_, err = svc.ByIngredients(ctx, []string{" "})
		assert.True(t, apperror.Is(err, apperror.KindInvalidInput))
	})
}

func TestService_Search(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	r, err := svc.Create(ctx, admin, validInput("Green Curry"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, alice, validInput("Red Curry"))
	require.NoError(t, err)

	t.Run("Falls back to title search", func(t *testing.T) {
		found, err := svc.Search(ctx, "curry", models.Page{})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, r.ID, found[0].ID)
	})

	t.Run("No match is empty, not an error", func(t *testing.T) {
		found, err := svc.Search(ctx, "lasagna", models.Page{})
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("Empty query", func(t *testing.T) {
		_, err := svc.Search(ctx, "   ", models.Page{})
		assert.True(t, apperror.Is(err, apperror.KindInvalidInput))
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, store, remover, _ := newTestService()

	r, err := svc.Create(ctx, alice, validInput("Toast"))
	require.NoError(t, err)

	t.Run("Stranger is forbidden", func(t *testing.T) {
		err := svc.Delete(ctx, bob, r.ID)
		assert.True(t, apperror.Is(err, apperror.KindForbidden))
		assert.Empty(t, remover.removed)
	})

	t.Run("Owner delete goes through the cascade", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, alice, r.ID))
		assert.Equal(t, []string{r.ID}, remover.removed)

		ids, err := store.ListRecipeIDs(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("Missing recipe", func(t *testing.T) {
		err := svc.Delete(ctx, admin, r.ID)
		assert.True(t, apperror.Is(err, apperror.KindNotFound))
	})
}
