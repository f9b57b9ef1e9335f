package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hn-son/let-him-cook-backend/internal/recipe"
	"github.com/hn-son/let-him-cook-backend/models"
)

type RecipeStorage struct{ mock.Mock }

func recipeResult(args mock.Arguments) (*models.Recipe, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

func recipesResult(args mock.Arguments) ([]*models.Recipe, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Recipe), args.Error(1)
}

func idsResult(args mock.Arguments) ([]string, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *RecipeStorage) CreateRecipe(ctx context.Context, r *models.Recipe) (*models.Recipe, error) {
	return recipeResult(m.Called(ctx, r))
}

func (m *RecipeStorage) GetRecipeByID(ctx context.Context, id string) (*models.Recipe, error) {
	return recipeResult(m.Called(ctx, id))
}

func (m *RecipeStorage) GetRecipesByIDs(ctx context.Context, ids []string) ([]*models.Recipe, error) {
	return recipesResult(m.Called(ctx, ids))
}

func (m *RecipeStorage) ListRecipes(ctx context.Context, filter recipe.Filter) ([]*models.Recipe, error) {
	return recipesResult(m.Called(ctx, filter))
}

func (m *RecipeStorage) ListRecipeIDs(ctx context.Context, authorID string) ([]string, error) {
	return idsResult(m.Called(ctx, authorID))
}

func (m *RecipeStorage) ListOrphanedRecipeIDs(ctx context.Context, knownAuthorIDs []string) ([]string, error) {
	return idsResult(m.Called(ctx, knownAuthorIDs))
}

func (m *RecipeStorage) SearchText(ctx context.Context, query string, page models.Page) ([]*models.Recipe, error) {
	return recipesResult(m.Called(ctx, query, page))
}

func (m *RecipeStorage) SearchTitle(ctx context.Context, query string, page models.Page) ([]*models.Recipe, error) {
	return recipesResult(m.Called(ctx, query, page))
}

func (m *RecipeStorage) UpdateRecipe(ctx context.Context, r *models.Recipe) (*models.Recipe, error) {
	return recipeResult(m.Called(ctx, r))
}

func (m *RecipeStorage) SetApproved(ctx context.Context, id string, approved bool) (*models.Recipe, error) {
	return recipeResult(m.Called(ctx, id, approved))
}

func (m *RecipeStorage) DeleteRecipe(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *RecipeStorage) DeleteRecipes(ctx context.Context, ids []string) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}
