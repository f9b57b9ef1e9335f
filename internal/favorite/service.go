// Package favorite ведет избранное пользователей. Ссылки на рецепты слабые:
// удаленные рецепты при чтении просто пропускаются.
package favorite

import (
	"context"
	"errors"

	"github.com/hn-son/let-him-cook-backend/internal/apperror"
	"github.com/hn-son/let-him-cook-backend/internal/policy"
	"github.com/hn-son/let-him-cook-backend/internal/storage"
	"github.com/hn-son/let-him-cook-backend/models"
)

type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	AddFavorite(ctx context.Context, userID, recipeID string) (*models.User, error)
	RemoveFavorite(ctx context.Context, userID, recipeID string) (*models.User, error)
}

type RecipeStore interface {
	GetRecipeByID(ctx context.Context, id string) (*models.Recipe, error)
	GetRecipesByIDs(ctx context.Context, ids []string) ([]*models.Recipe, error)
}

type Service struct {
	users   UserStore
	recipes RecipeStore
}

func NewService(users UserStore, recipes RecipeStore) *Service {
	return &Service{users: users, recipes: recipes}
}

// Add идемпотентен; добавить можно только одобренный рецепт
func (s *Service) Add(ctx context.Context, actor *policy.Actor, recipeID string) (*models.User, error) {
	if err := policy.IsAuthenticated(actor); err != nil {
		return nil, err
	}

	r, err := s.recipes.GetRecipeByID(ctx, recipeID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperror.NotFound("recipe not found")
	}
	if err != nil {
		return nil, apperror.Wrap(err, "failed to load recipe")
	}
	if !r.IsApproved {
		return nil, apperror.InvalidState("only approved recipes can be added to favorites")
	}

	u, err := s.users.AddFavorite(ctx, actor.ID, recipeID)
	return s.result(u, err)
}

// Remove идемпотентен и не проверяет существование рецепта
func (s *Service) Remove(ctx context.Context, actor *policy.Actor, recipeID string) (*models.User, error) {
	if err := policy.IsAuthenticated(actor); err != nil {
		return nil, err
	}
	u, err := s.users.RemoveFavorite(ctx, actor.ID, recipeID)
	return s.result(u, err)
}

func (s *Service) result(u *models.User, err error) (*models.User, error) {
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperror.NotFound("user not found")
	}
	if err != nil {
		return nil, apperror.Wrap(err, "failed to update favorites")
	}
	return u, nil
}

// List разворачивает избранное пользователя в рецепты, пропуская удаленные и неодобренные
func (s *Service) List(ctx context.Context, userID string) ([]*models.Recipe, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperror.NotFound("user not found")
	}
	if err != nil {
		return nil, apperror.Wrap(err, "failed to load user")
	}
	return s.Resolve(ctx, u)
}

// Resolve - то же, что List, для уже загруженного пользователя
func (s *Service) Resolve(ctx context.Context, u *models.User) ([]*models.Recipe, error) {
	if len(u.FavoriteRecipes) == 0 {
		return []*models.Recipe{}, nil
	}
	recipes, err := s.recipes.GetRecipesByIDs(ctx, u.FavoriteRecipes)
	if err != nil {
		return nil, apperror.Wrap(err, "failed to load favorite recipes")
	}
	// после правки автором рецепт снова на модерации и из избранного не виден
	approved := recipes[:0]
	for _, r := range recipes {
		if r.IsApproved {
			approved = append(approved, r)
		}
	}
	return approved, nil
}

func (s *Service) Mine(ctx context.Context, actor *policy.Actor) ([]*models.Recipe, error) {
	if err := policy.IsAuthenticated(actor); err != nil {
		return nil, err
	}
	return s.List(ctx, actor.ID)
}
