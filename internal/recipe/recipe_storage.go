package recipe

import (
	"context"

	"github.com/hn-son/let-him-cook-backend/models"
)

// Filter - условия выборки рецептов. Пустые поля не ограничивают выборку.
type Filter struct {
	Approved *bool
	AuthorID string
	// IngredientNames - рецепт подходит, если содержит хотя бы один ингредиент
	// с таким названием (без учета регистра)
	IngredientNames []string
	Page            models.Page
}

type RecipeStorage interface {
	CreateRecipe(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error)
	GetRecipeByID(ctx context.Context, id string) (*models.Recipe, error)
	// GetRecipesByIDs пропускает отсутствующие id
	GetRecipesByIDs(ctx context.Context, ids []string) ([]*models.Recipe, error)
	// ListRecipes сортирует от новых к старым
	ListRecipes(ctx context.Context, filter Filter) ([]*models.Recipe, error)
	// ListRecipeIDs возвращает id рецептов автора; пустой authorID - все рецепты
	ListRecipeIDs(ctx context.Context, authorID string) ([]string, error)
	// ListOrphanedRecipeIDs возвращает рецепты, автора которых нет среди knownAuthorIDs
	ListOrphanedRecipeIDs(ctx context.Context, knownAuthorIDs []string) ([]string, error)

	// SearchText - полнотекстовый поиск по одобренным рецептам.
	// Возвращает storage.ErrNoTextIndex, если индекса нет.
	SearchText(ctx context.Context, query string, page models.Page) ([]*models.Recipe, error)
	// SearchTitle ищет подстроку в названии одобренных рецептов без учета регистра
	SearchTitle(ctx context.Context, query string, page models.Page) ([]*models.Recipe, error)

	UpdateRecipe(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error)
	SetApproved(ctx context.Context, id string, approved bool) (*models.Recipe, error)
	DeleteRecipe(ctx context.Context, id string) error
	DeleteRecipes(ctx context.Context, ids []string) (int64, error)
}
