// Package cascade удаляет зависимые записи вместе с рецептами и пользователями
// и восстанавливает ссылочную целостность после частичных сбоев.
package cascade

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hn-son/let-him-cook-backend/internal/comment"
	"github.com/hn-son/let-him-cook-backend/internal/policy"
	"github.com/hn-son/let-him-cook-backend/internal/recipe"
	"github.com/hn-son/let-him-cook-backend/internal/storage"
	"github.com/hn-son/let-him-cook-backend/internal/user"
	"github.com/hn-son/let-him-cook-backend/models"
)

// Transactor выполняет fn в одной транзакции хранилища.
// Хранилище находит транзакцию через переданный ctx.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ImageRemover удаляет изображение, только если оно лежит в каталоге автора рецепта
type ImageRemover interface {
	RemoveImage(ctx context.Context, ownerID, imageURL string) error
}

type Option func(*Coordinator)

func WithTransactor(tx Transactor) Option {
	return func(c *Coordinator) { c.tx = tx }
}

func WithImageRemover(images ImageRemover) Option {
	return func(c *Coordinator) { c.images = images }
}

type Coordinator struct {
	recipes  recipe.RecipeStorage
	comments comment.CommentStorage
	users    user.UserStorage
	tx       Transactor
	images   ImageRemover
}

func NewCoordinator(recipes recipe.RecipeStorage, comments comment.CommentStorage, users user.UserStorage, opts ...Option) *Coordinator {
	c := &Coordinator{recipes: recipes, comments: comments, users: users}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DeleteRecipe удаляет рецепт, комментарии к нему и ссылки из избранного
func (c *Coordinator) DeleteRecipe(ctx context.Context, r *models.Recipe) error {
	err := c.atomically(ctx, func(ctx context.Context) error {
		_, err := c.purgeRecipes(ctx, []string{r.ID})
		return err
	})
	if err != nil {
		return err
	}
	c.removeImages(ctx, r)
	return nil
}

// DeleteUser удаляет пользователя, его рецепты (с полным каскадом) и его комментарии
func (c *Coordinator) DeleteUser(ctx context.Context, u *models.User) (*models.DeletionReport, error) {
	ids, err := c.recipes.ListRecipeIDs(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("list recipes of user %s: %w", u.ID, err)
	}
	owned, err := c.recipes.GetRecipesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load recipes of user %s: %w", u.ID, err)
	}

	report := &models.DeletionReport{}
	err = c.atomically(ctx, func(ctx context.Context) error {
		var recipeComments, ownComments int64

		g, gctx := c.group(ctx)
		g.Go(func() error {
			n, err := c.comments.DeleteCommentsByRecipes(gctx, ids)
			recipeComments = n
			return err
		})
		g.Go(func() error {
			return c.users.RemoveFavoriteEverywhere(gctx, ids)
		})
		g.Go(func() error {
			n, err := c.comments.DeleteCommentsByAuthor(gctx, u.ID)
			ownComments = n
			return err
		})
		if err := g.Wait(); err != nil {
			return fmt.Errorf("purge dependents of user %s: %w", u.ID, err)
		}

		deleted, err := c.recipes.DeleteRecipes(ctx, ids)
		if err != nil {
			return fmt.Errorf("delete recipes of user %s: %w", u.ID, err)
		}
		if err := c.users.DeleteUser(ctx, u.ID); err != nil {
			return fmt.Errorf("delete user %s: %w", u.ID, err)
		}

		report.DeletedRecipes = deleted
		report.DeletedComments = recipeComments + ownComments
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.removeImages(ctx, owned...)
	return report, nil
}

// Reconcile удаляет осиротевшие записи; повторный запуск ничего не меняет.
// Записи, появившиеся во время сверки, не трогаются: каждый кандидат
// перепроверяется после снимка, комментарии берутся только созданные до старта.
func (c *Coordinator) Reconcile(ctx context.Context, actor *policy.Actor) (*models.ReconcileReport, error) {
	if err := policy.CanModerate(actor); err != nil {
		return nil, err
	}
	startedAt := time.Now()

	userIDs, err := c.users.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	candidates, err := c.recipes.ListOrphanedRecipeIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("list orphaned recipes: %w", err)
	}
	orphans, err := c.authorlessRecipes(ctx, candidates)
	if err != nil {
		return nil, err
	}

	report := &models.ReconcileReport{}
	if len(orphans) > 0 {
		err = c.atomically(ctx, func(ctx context.Context) error {
			removed, err := c.purgeRecipes(ctx, orphans)
			report.RemovedRecipes = removed
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	recipeIDs, err := c.recipes.ListRecipeIDs(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	report.RemovedComments, err = c.comments.DeleteOrphanedComments(ctx, recipeIDs, userIDs, startedAt)
	if err != nil {
		return nil, fmt.Errorf("delete orphaned comments: %w", err)
	}

	missing, err := c.missingFavorites(ctx)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		report.PrunedFavorites, err = c.users.PruneFavorites(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("prune favorites: %w", err)
		}
	}

	log.Printf("reconcile (admin %s): рецептов %d, комментариев %d, пользователей с очищенным избранным %d",
		actor.ID, report.RemovedRecipes, report.RemovedComments, report.PrunedFavorites)
	return report, nil
}

// authorlessRecipes оставляет кандидатов, чей автор все еще не находится.
// Автор, зарегистрированный после снимка, спасает свои рецепты.
func (c *Coordinator) authorlessRecipes(ctx context.Context, candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	loaded, err := c.recipes.GetRecipesByIDs(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("load orphaned recipes: %w", err)
	}

	var ids []string
	known := map[string]bool{}
	for _, r := range loaded {
		exists, checked := known[r.AuthorID]
		if !checked {
			_, err := c.users.GetUserByID(ctx, r.AuthorID)
			switch {
			case err == nil:
				exists = true
			case errors.Is(err, storage.ErrNotFound):
				exists = false
			default:
				return nil, fmt.Errorf("check author %s: %w", r.AuthorID, err)
			}
			known[r.AuthorID] = exists
		}
		if !exists {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

// missingFavorites возвращает удаленные рецепты, на которые еще ссылается избранное.
// Рецепты читаются после списка избранного, поэтому новые рецепты в него не попадут.
func (c *Coordinator) missingFavorites(ctx context.Context) ([]string, error) {
	favored, err := c.users.ListFavoriteRecipeIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list favorite recipes: %w", err)
	}
	if len(favored) == 0 {
		return nil, nil
	}
	found, err := c.recipes.GetRecipesByIDs(ctx, favored)
	if err != nil {
		return nil, fmt.Errorf("load favorite recipes: %w", err)
	}

	present := make(map[string]bool, len(found))
	for _, r := range found {
		present[r.ID] = true
	}
	var missing []string
	for _, id := range favored {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// purgeRecipes сначала чистит зависимые записи, затем удаляет сами рецепты
func (c *Coordinator) purgeRecipes(ctx context.Context, ids []string) (int64, error) {
	g, gctx := c.group(ctx)
	g.Go(func() error {
		_, err := c.comments.DeleteCommentsByRecipes(gctx, ids)
		return err
	})
	g.Go(func() error {
		return c.users.RemoveFavoriteEverywhere(gctx, ids)
	})
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("purge dependents of recipes: %w", err)
	}

	deleted, err := c.recipes.DeleteRecipes(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete recipes: %w", err)
	}
	return deleted, nil
}

func (c *Coordinator) atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.tx == nil {
		return fn(ctx)
	}
	return c.tx.WithinTransaction(ctx, fn)
}

// group в транзакции ограничивает параллелизм одной горутиной:
// транзакционная сессия не допускает конкурентных операций
func (c *Coordinator) group(ctx context.Context) (*errgroup.Group, context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	if c.tx != nil {
		g.SetLimit(1)
	}
	return g, gctx
}

func (c *Coordinator) removeImages(ctx context.Context, recipes ...*models.Recipe) {
	if c.images == nil {
		return
	}
	for _, r := range recipes {
		if r.ImageURL == "" {
			continue
		}
		if err := c.images.RemoveImage(ctx, r.AuthorID, r.ImageURL); err != nil {
			log.Printf("не удалось удалить изображение рецепта %s: %v", r.ID, err)
		}
	}
}
